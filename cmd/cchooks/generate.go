package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/registry"
	"github.com/lightfastai/cchooks/internal/settings"
	"github.com/lightfastai/cchooks/internal/templates"
	"github.com/lightfastai/cchooks/pkg/hooks"
)

var (
	generateTarget  targetFlags
	generateEvent   string
	generateName    string
	generateOutput  string
	generateOptions []string
	generateStdout  bool
	generateForce   bool
	generateAdd     bool
	generateMatcher string
	generateTimeout int
)

var generateCmd = &cobra.Command{
	Use:   "generate <template>",
	Short: "Generate a hook program from a template",
	Long: `Render a template into a Go hook program built on the cchooks SDK.

The program is written to <output>/<name>/main.go. With --add the hook is also
registered in the settings file as "go run <dir>".

Examples:
  cchooks generate security-guard
  cchooks generate security-guard --option patterns="rm -rf,git push --force" --add --matcher Bash
  cchooks generate context-loader --event UserPromptSubmit --option file=NOTES.md
  cchooks generate desktop-notifier --stdout`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: templateCompletion,
	RunE:              runGenerate,
}

func init() {
	generateTarget.register(generateCmd, true)
	generateCmd.Flags().StringVarP(&generateEvent, "event", "e", "", "Event to generate for (default: the template's first event)")
	generateCmd.Flags().StringVarP(&generateName, "name", "n", "", "Program name (default: the template name)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", filepath.Join(settings.DirName, "hooks"), "Directory to write the program under")
	generateCmd.Flags().StringArrayVar(&generateOptions, "option", nil, "Template option as key=value (repeatable)")
	generateCmd.Flags().BoolVar(&generateStdout, "stdout", false, "Print the program instead of writing it")
	generateCmd.Flags().BoolVar(&generateForce, "force", false, "Overwrite an existing program")
	generateCmd.Flags().BoolVar(&generateAdd, "add", false, "Also add the hook to the settings file")
	generateCmd.Flags().StringVarP(&generateMatcher, "matcher", "m", "", "Matcher used with --add")
	generateCmd.Flags().IntVarP(&generateTimeout, "timeout", "t", 0, "Timeout in seconds used with --add")
	_ = generateCmd.RegisterFlagCompletionFunc("event", eventCompletion)
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	tmpl, err := templates.Lookup(args[0], reg)
	closeRegistry(reg)
	if err != nil {
		return err
	}

	params := templates.Params{Name: generateName, Matcher: generateMatcher}
	if generateEvent != "" {
		if params.Event, err = parseEvent(generateEvent); err != nil {
			return err
		}
	}
	if params.Options, err = parseOptions(generateOptions); err != nil {
		return err
	}
	if params.Event == "" {
		params.Event = tmpl.DefaultEvent()
	}
	if params.Name == "" {
		params.Name = tmpl.Name
	}

	src, err := tmpl.Render(params)
	if err != nil {
		return err
	}

	if generateStdout {
		_, err := cmd.OutOrStdout().Write(src)
		return err
	}

	path := templates.OutputPath(generateOutput, params.Name)
	if _, err := os.Stat(path); err == nil && !generateForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Success("Generated %s hook %s from template %s", params.Event, path, tmpl.Name)

	if !generateAdd {
		logger.Info("Add it with: cchooks add %s%s --command %q", params.Event, matcherHint(params.Event), runCommand(path))
		return nil
	}
	return addGenerated(cmd, params.Event, runCommand(path))
}

func addGenerated(cmd *cobra.Command, event hooks.EventKind, command string) error {
	entry := settings.HookEntry{Type: settings.CommandType, Command: command}
	if cmd.Flags().Changed("timeout") {
		timeout := generateTimeout
		entry.Timeout = &timeout
	}
	matcher := generateMatcher
	if matcher == "" && event.RequiresMatcher() {
		matcher = "*"
	}

	var added settings.FlatEntry
	doc, err := generateTarget.mutate(cmd, func(doc *settings.Document) error {
		var err error
		added, err = doc.AddHook(event.String(), matcher, entry)
		return err
	})
	if err != nil {
		return err
	}
	if generateTarget.json {
		return printJSON(cmd.OutOrStdout(), added)
	}
	if !generateTarget.dryRun {
		logger.Success("Added %s to %s", describeEntry(added), doc.Path)
	}
	return nil
}

// runCommand is the settings command that runs a generated program
func runCommand(mainPath string) string {
	dir := filepath.Dir(mainPath)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return "go run " + dir
}

func matcherHint(event hooks.EventKind) string {
	if event.RequiresMatcher() {
		return ` --matcher "*"`
	}
	return ""
}

func parseOptions(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	opts := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("option %q must be key=value", p)
		}
		opts[key] = value
	}
	return opts, nil
}

// openRegistry loads the user template registry. The caller must pass the
// result to closeRegistry.
func openRegistry() (*registry.Registry, error) {
	dir, err := cfg.TemplatesPath()
	if err != nil {
		return nil, err
	}
	return registry.LoadRegistry(dir)
}

func closeRegistry(reg *registry.Registry) {
	if reg == nil {
		return
	}
	if err := reg.Close(); err != nil {
		logger.Warn("%v", err)
	}
}
