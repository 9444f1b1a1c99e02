package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/settings"
)

var (
	addTarget  targetFlags
	addMatcher string
	addCommand string
	addTimeout int
	addEntry   string
)

var addCmd = &cobra.Command{
	Use:   "add <event>",
	Short: "Add a hook entry",
	Long: `Add a command hook for an event.

The entry joins the first group whose matcher is identical, or a new group at
the end of the event. PreToolUse and PostToolUse hooks need a matcher; use "*"
to match every tool. The previous file is backed up unless --no-backup is set.

Examples:
  cchooks add PreToolUse --matcher Bash --command "~/.claude/hooks/guard"
  cchooks add Stop --command "make lint" --timeout 120 --level user
  cchooks add PostToolUse --entry '{"matcher":"Write|Edit","command":"gofmt -l ."}'
  cchooks add SessionStart --command ./load-context --dry-run`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: eventCompletion,
	RunE:              runAdd,
}

func init() {
	addTarget.register(addCmd, true)
	addCmd.Flags().StringVarP(&addMatcher, "matcher", "m", "", "Tool name pattern (PreToolUse/PostToolUse)")
	addCmd.Flags().StringVarP(&addCommand, "command", "c", "", "Command to run")
	addCmd.Flags().IntVarP(&addTimeout, "timeout", "t", 0, "Timeout in seconds")
	addCmd.Flags().StringVar(&addEntry, "entry", "", "Hook entry as JSON (matcher, type, command, timeout)")
	addCmd.MarkFlagsMutuallyExclusive("entry", "command")
	addCmd.MarkFlagsMutuallyExclusive("entry", "matcher")
	addCmd.MarkFlagsMutuallyExclusive("entry", "timeout")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	event, err := parseEvent(args[0])
	if err != nil {
		return err
	}

	matcher, entry, err := addEntryFromFlags(cmd)
	if err != nil {
		return err
	}

	var added settings.FlatEntry
	doc, err := addTarget.mutate(cmd, func(doc *settings.Document) error {
		added, err = doc.AddHook(event.String(), matcher, entry)
		return err
	})
	if err != nil {
		return err
	}

	if addTarget.json {
		return printJSON(cmd.OutOrStdout(), added)
	}
	if !addTarget.dryRun {
		logger.Success("Added %s to %s", describeEntry(added), doc.Path)
	}
	return nil
}

func addEntryFromFlags(cmd *cobra.Command) (string, settings.HookEntry, error) {
	if addEntry != "" {
		return settings.ParseHookEntry([]byte(addEntry))
	}
	if addCommand == "" {
		return "", settings.HookEntry{}, fmt.Errorf("either --command or --entry is required")
	}
	entry := settings.HookEntry{Type: settings.CommandType, Command: addCommand}
	if cmd.Flags().Changed("timeout") {
		timeout := addTimeout
		entry.Timeout = &timeout
	}
	return addMatcher, entry, nil
}
