package main

import (
	"github.com/spf13/cobra"

	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/settings"
)

var removeTarget targetFlags

var removeCmd = &cobra.Command{
	Use:     "remove <event> <index>",
	Aliases: []string{"rm"},
	Short:   "Remove a hook entry",
	Long: `Remove the hook at index from an event.

A matcher group left without hooks is dropped, and so is an event left without
groups. Other settings in the file are not touched.

Examples:
  cchooks remove PreToolUse 1
  cchooks remove Stop 0 --level user --dry-run`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: eventCompletion,
	RunE:              runRemove,
}

func init() {
	removeTarget.register(removeCmd, true)
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	event, err := parseEvent(args[0])
	if err != nil {
		return err
	}
	index, err := parseIndex(args[1])
	if err != nil {
		return err
	}

	var removed settings.FlatEntry
	doc, err := removeTarget.mutate(cmd, func(doc *settings.Document) error {
		removed, err = doc.RemoveHook(event.String(), index)
		return err
	})
	if err != nil {
		return err
	}

	if removeTarget.json {
		return printJSON(cmd.OutOrStdout(), removed)
	}
	if !removeTarget.dryRun {
		logger.Success("Removed %s from %s", describeEntry(removed), doc.Path)
	}
	return nil
}
