package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lightfastai/cchooks/internal/jsonutil"
	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/settings"
	"github.com/lightfastai/cchooks/pkg/hooks"
)

// targetFlags select the settings file a command reads or edits
type targetFlags struct {
	level    string
	file     string
	dryRun   bool
	noBackup bool
	json     bool
}

func (f *targetFlags) register(cmd *cobra.Command, mutating bool) {
	cmd.Flags().StringVar(&f.level, "level", "", "Settings level: project or user (default from config)")
	cmd.Flags().StringVar(&f.file, "file", "", "Settings file to use instead of discovery")
	cmd.Flags().BoolVar(&f.json, "json", false, "Output as JSON")
	if mutating {
		cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show the change as a diff without writing")
		cmd.Flags().BoolVar(&f.noBackup, "no-backup", false, "Do not back up the file before writing")
	}
	_ = cmd.RegisterFlagCompletionFunc("level", levelCompletion)
}

// resolveLevel returns the --level flag or the configured default
func (f *targetFlags) resolveLevel() (settings.Level, error) {
	name := f.level
	if name == "" {
		name = cfg.DefaultLevel
	}
	return settings.ParseLevel(name)
}

// resolve returns the settings path and level the flags point at
func (f *targetFlags) resolve() (string, settings.Level, error) {
	level, err := f.resolveLevel()
	if err != nil {
		return "", "", err
	}
	if f.file != "" {
		path, err := filepath.Abs(f.file)
		if err != nil {
			return "", "", fmt.Errorf("failed to resolve %s: %w", f.file, err)
		}
		return path, level, nil
	}

	descs, err := store.Discover("")
	if err != nil {
		return "", "", err
	}
	for _, d := range descs {
		if d.Level == level {
			logger.Verbose("Using %s settings: %s", level, d.Path)
			return d.Path, level, nil
		}
	}
	return "", "", fmt.Errorf("no %s settings file candidate", level)
}

// load reads the target document without locking
func (f *targetFlags) load() (*settings.Document, error) {
	path, level, err := f.resolve()
	if err != nil {
		return nil, err
	}
	return store.LoadPath(path, level)
}

// mutate loads the target, applies fn and saves the result while holding the
// settings lock. With --dry-run the diff is printed and nothing is written.
func (f *targetFlags) mutate(cmd *cobra.Command, fn func(doc *settings.Document) error) (*settings.Document, error) {
	path, level, err := f.resolve()
	if err != nil {
		return nil, err
	}

	if f.dryRun {
		doc, err := store.LoadPath(path, level)
		if err != nil {
			return nil, err
		}
		if err := fn(doc); err != nil {
			return nil, err
		}
		diff, err := store.Diff(doc)
		if err != nil {
			return nil, err
		}
		printDiff(cmd.OutOrStdout(), path, diff)
		return doc, nil
	}

	var doc *settings.Document
	err = store.WithLock(context.Background(), path, func() error {
		d, err := store.LoadPath(path, level)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		backup := cfg.BackupEnabled() && !f.noBackup
		backupPath, err := store.Save(d, settings.SaveOptions{Backup: backup})
		if err != nil {
			return err
		}
		if backupPath != "" {
			logger.Verbose("Backed up previous settings to %s", backupPath)
		}
		doc = d
		return nil
	})
	return doc, err
}

// printDiff colors a line diff from settings.LineDiff
func printDiff(w io.Writer, path, diff string) {
	if diff == "" {
		fmt.Fprintf(w, "No changes to %s\n", path)
		return
	}
	fmt.Fprintln(w, color.New(color.Bold).Sprintf("--- %s", path))
	fmt.Fprintln(w, color.New(color.Bold).Sprintf("+++ %s (proposed)", path))
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			fmt.Fprintln(w, color.GreenString("%s", line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintln(w, color.RedString("%s", line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprintln(w, color.CyanString("%s", line))
		default:
			fmt.Fprintln(w, line)
		}
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := jsonutil.MarshalIndentWithNewline(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// parseEvent validates a positional event argument
func parseEvent(name string) (hooks.EventKind, error) {
	if err := settings.ValidateEvent(name); err != nil {
		return "", err
	}
	kind, _ := hooks.ParseEventKind(name)
	return kind, nil
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("index must be an integer, got %q", s)
	}
	return index, nil
}

func describeEntry(e settings.FlatEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]", e.Event, e.Index)
	if e.Matcher != "" {
		fmt.Fprintf(&b, " (%s)", e.Matcher)
	}
	fmt.Fprintf(&b, ": %s", e.Entry.Command)
	if e.Entry.Timeout != nil {
		fmt.Fprintf(&b, " [timeout %ds]", *e.Entry.Timeout)
	}
	return b.String()
}
