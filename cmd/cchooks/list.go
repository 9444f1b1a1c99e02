package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lightfastai/cchooks/internal/settings"
)

var (
	listTarget targetFlags
	listEvent  string
	listFormat string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List configured hooks",
	Long: `List hook entries from the project and user settings files.

By default both levels are shown in precedence order (project first). Claude
Code runs the hooks of every level, so entries are listed, never shadowed.

Examples:
  cchooks list
  cchooks list --level user --event PreToolUse
  cchooks list --format json
  cchooks list --format yaml --file ./settings.json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listTarget.level, "level", "all", "Settings level: project, user or all")
	listCmd.Flags().StringVar(&listTarget.file, "file", "", "Settings file to list instead of discovery")
	listCmd.Flags().StringVarP(&listEvent, "event", "e", "", "Only list hooks for this event")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format: table, json or yaml")
	_ = listCmd.RegisterFlagCompletionFunc("event", eventCompletion)
	_ = listCmd.RegisterFlagCompletionFunc("format", fixedCompletion("table", "json", "yaml"))
	_ = listCmd.RegisterFlagCompletionFunc("level", fixedCompletion("project", "user", "all"))
	rootCmd.AddCommand(listCmd)
}

// listRow is one printed entry
type listRow struct {
	Level   string `json:"level" yaml:"level"`
	Path    string `json:"path" yaml:"path"`
	Event   string `json:"event" yaml:"event"`
	Index   int    `json:"index" yaml:"index"`
	Matcher string `json:"matcher" yaml:"matcher"`
	Command string `json:"command" yaml:"command"`
	Timeout *int   `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	if listEvent != "" {
		if _, err := parseEvent(listEvent); err != nil {
			return err
		}
	}

	docs, err := listDocuments()
	if err != nil {
		return err
	}

	entries := settings.Merge(docs...)
	rows := make([]listRow, 0, len(entries))
	for _, e := range entries {
		if listEvent != "" && e.Event != listEvent {
			continue
		}
		rows = append(rows, listRow{
			Level:   string(e.Level),
			Path:    e.Path,
			Event:   e.Event,
			Index:   e.Index,
			Matcher: e.Matcher,
			Command: e.Entry.Command,
			Timeout: e.Entry.Timeout,
		})
	}

	out := cmd.OutOrStdout()
	switch listFormat {
	case "json":
		return printJSON(out, rows)
	case "yaml":
		data, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		_, err = out.Write(data)
		return err
	case "table":
		return printTable(out, rows)
	default:
		return fmt.Errorf("unknown format %q (must be table, json or yaml)", listFormat)
	}
}

func listDocuments() ([]*settings.Document, error) {
	if listTarget.level == "all" {
		if listTarget.file != "" {
			doc, err := store.LoadPath(listTarget.file, settings.Level(cfg.DefaultLevel))
			if err != nil {
				return nil, err
			}
			return []*settings.Document{doc}, nil
		}
		return store.LoadAll("")
	}
	doc, err := listTarget.load()
	if err != nil {
		return nil, err
	}
	return []*settings.Document{doc}, nil
}

func printTable(w io.Writer, rows []listRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No hooks configured")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tEVENT\tINDEX\tMATCHER\tTIMEOUT\tCOMMAND")
	for _, r := range rows {
		matcher := r.Matcher
		if matcher == "" {
			matcher = "-"
		}
		timeout := "-"
		if r.Timeout != nil {
			timeout = fmt.Sprintf("%ds", *r.Timeout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", r.Level, r.Event, r.Index, matcher, timeout, r.Command)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal: %d hook(s)\n", len(rows))
	return nil
}
