package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lightfastai/cchooks/internal/config"
	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/settings"
)

// CLI entry point for the cchooks tool

var (
	// Version information - will be set via ldflags during build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagVerbose    bool
	flagDebug      bool
	flagConfigPath string

	// Set by PersistentPreRunE for every command
	cfg     *config.Config
	cfgPath string
	cfgErr  error
	store   *settings.Store
)

var rootCmd = &cobra.Command{
	Use:   "cchooks",
	Short: "Manage Claude Code hooks",
	Long: `cchooks manages the hooks section of Claude Code settings files.

It discovers the project (.claude/settings.json above the working directory)
and user (~/.claude/settings.json) settings, edits hook entries without
disturbing the rest of the file, keeps timestamped backups, validates entries,
generates hook programs from templates and runs configured hooks against a
sample payload.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	// Custom version template that includes commit and build date
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Commit: {{.Annotations.commit}}
Built: {{.Annotations.date}}
`)

	// Set annotations for version info
	if rootCmd.Annotations == nil {
		rootCmd.Annotations = make(map[string]string)
	}
	rootCmd.Annotations["commit"] = commit
	rootCmd.Annotations["date"] = date

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Show verbose output")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Show debug output")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file (default ~/.cchooks/config.yml or $CCHOOKS_CONFIG)")
	rootCmd.Flags().Bool("version", false, "version for cchooks")
}

// setup initializes logging, loads the config and builds the settings store.
// A broken config only aborts commands that depend on it; doctor reports it.
func setup(cmd *cobra.Command, args []string) error {
	logger.Init(flagVerbose, flagDebug)

	cfgPath = flagConfigPath
	if cfgPath == "" {
		p, err := config.Path()
		if err != nil {
			return err
		}
		cfgPath = p
	}

	cfg, cfgErr = config.Load(cfgPath)
	if cfgErr != nil {
		if cmd.Name() != doctorCmd.Name() {
			return cfgErr
		}
		cfg = config.Default()
	}
	logger.Debug("Using config %s", cfgPath)

	s, err := settings.NewStore(
		settings.WithLockTimeout(cfg.LockTimeoutDuration()),
		settings.WithBackupRetention(cfg.BackupKeep()),
	)
	if err != nil {
		return err
	}
	store = s
	return nil
}

// exitError carries a non-zero exit status without an error message, for
// commands such as validate and doctor whose output already explains it.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// exitCode maps an error returned by Execute to a process exit status
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func reportError(err error) {
	var ee *exitError
	if errors.As(err, &ee) {
		return
	}
	if e, ok := hookerrors.As(err); ok {
		fmt.Fprint(os.Stderr, e.Format())
		return
	}
	logger.Error("%v", err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(exitCode(err))
	}
}
