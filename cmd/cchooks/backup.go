package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/settings"
)

var (
	backupTarget targetFlags
	backupKeep   int
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage settings backups",
	Long: `List, create, restore and clean timestamped backups of a settings file.

Backups live next to the file as <file>.<YYYYMMDD_HHMMSS_micro>.bak. Every
add, update and remove makes one unless backups are disabled in the config or
--no-backup is passed.`,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Back up the settings file now",
	Args:  cobra.NoArgs,
	RunE:  runBackupCreate,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [name]",
	Short: "Restore the latest or a named backup",
	Long: `Replace the settings file with a backup. Without a name the newest backup
is restored. The current file is backed up first, so a restore can be undone.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: backupCompletion,
	RunE:              runBackupRestore,
}

var backupCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete all but the newest backups",
	Args:  cobra.NoArgs,
	RunE:  runBackupClean,
}

func init() {
	backupTarget.register(backupCmd, false)
	// Subcommands share the parent's target flags
	for _, c := range []*cobra.Command{backupListCmd, backupCreateCmd, backupRestoreCmd, backupCleanCmd} {
		c.Flags().AddFlagSet(backupCmd.Flags())
		backupCmd.AddCommand(c)
	}
	backupCleanCmd.Flags().IntVar(&backupKeep, "keep", -1, "Number of backups to keep (default from config)")
	rootCmd.AddCommand(backupCmd)
}

func runBackupList(cmd *cobra.Command, args []string) error {
	path, _, err := backupTarget.resolve()
	if err != nil {
		return err
	}
	backups, err := store.Backups(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if backupTarget.json {
		if backups == nil {
			backups = []settings.Backup{}
		}
		return printJSON(out, backups)
	}
	if len(backups) == 0 {
		fmt.Fprintf(out, "No backups of %s\n", path)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCREATED\tSIZE")
	for _, b := range backups {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", b.Name, b.Created.Local().Format("2006-01-02 15:04:05"), b.Size)
	}
	return tw.Flush()
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	path, _, err := backupTarget.resolve()
	if err != nil {
		return err
	}

	var backupPath string
	err = store.WithLock(context.Background(), path, func() error {
		backupPath, err = store.CreateBackup(path)
		return err
	})
	if err != nil {
		return err
	}

	if backupTarget.json {
		return printJSON(cmd.OutOrStdout(), map[string]string{"backup": backupPath})
	}
	logger.Success("Created backup %s", backupPath)
	return nil
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	path, _, err := backupTarget.resolve()
	if err != nil {
		return err
	}
	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	var restored settings.Backup
	var previous string
	err = store.WithLock(context.Background(), path, func() error {
		restored, previous, err = store.RestoreBackup(path, name)
		return err
	})
	if err != nil {
		return err
	}

	if backupTarget.json {
		return printJSON(cmd.OutOrStdout(), map[string]any{"restored": restored, "previous": previous})
	}
	logger.Success("Restored %s from %s", path, restored.Name)
	if previous != "" {
		logger.Info("Previous contents saved to %s", previous)
	}
	return nil
}

func runBackupClean(cmd *cobra.Command, args []string) error {
	path, _, err := backupTarget.resolve()
	if err != nil {
		return err
	}
	keep := backupKeep
	if !cmd.Flags().Changed("keep") {
		keep = cfg.BackupKeep()
	}

	var removed []string
	err = store.WithLock(context.Background(), path, func() error {
		removed, err = store.CleanBackups(path, keep)
		return err
	})
	if err != nil {
		return err
	}

	if backupTarget.json {
		if removed == nil {
			removed = []string{}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"removed": removed, "kept": keep})
	}
	logger.Success("Removed %d backup(s), keeping the newest %d", len(removed), keep)
	return nil
}
