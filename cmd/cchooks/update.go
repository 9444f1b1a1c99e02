package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/settings"
)

var (
	updateTarget  targetFlags
	updateMatcher string
	updateCommand string
	updateTimeout int
)

var updateCmd = &cobra.Command{
	Use:   "update <event> <index>",
	Short: "Change a hook entry",
	Long: `Change the matcher, command or timeout of the hook at index.

The index counts entries of the event across all its matcher groups, in file
order, as shown by 'cchooks list'. Only the flags you pass are changed. Moving
an entry to another matcher keeps its index.

Examples:
  cchooks update PreToolUse 0 --command "~/.claude/hooks/guard --strict"
  cchooks update PostToolUse 2 --matcher "Write|Edit|MultiEdit"
  cchooks update Stop 0 --timeout 300 --level user`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: eventCompletion,
	RunE:              runUpdate,
}

func init() {
	updateTarget.register(updateCmd, true)
	updateCmd.Flags().StringVarP(&updateMatcher, "matcher", "m", "", "New tool name pattern")
	updateCmd.Flags().StringVarP(&updateCommand, "command", "c", "", "New command")
	updateCmd.Flags().IntVarP(&updateTimeout, "timeout", "t", 0, "New timeout in seconds")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	event, err := parseEvent(args[0])
	if err != nil {
		return err
	}
	index, err := parseIndex(args[1])
	if err != nil {
		return err
	}

	var patch settings.HookPatch
	if cmd.Flags().Changed("matcher") {
		patch.Matcher = &updateMatcher
	}
	if cmd.Flags().Changed("command") {
		patch.Command = &updateCommand
	}
	if cmd.Flags().Changed("timeout") {
		patch.Timeout = &updateTimeout
	}
	if patch.Matcher == nil && patch.Command == nil && patch.Timeout == nil {
		return fmt.Errorf("nothing to update: pass --matcher, --command or --timeout")
	}

	var updated settings.FlatEntry
	doc, err := updateTarget.mutate(cmd, func(doc *settings.Document) error {
		updated, err = doc.UpdateHook(event.String(), index, patch)
		return err
	})
	if err != nil {
		return err
	}

	if updateTarget.json {
		return printJSON(cmd.OutOrStdout(), updated)
	}
	if !updateTarget.dryRun {
		logger.Success("Updated %s in %s", describeEntry(updated), doc.Path)
	}
	return nil
}
