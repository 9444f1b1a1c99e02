package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/registry"
	"github.com/lightfastai/cchooks/internal/templates"
)

var (
	templateJSON        bool
	templateEvents      []string
	templateDescription string
	templateForce       bool
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates"},
	Short:   "Manage hook templates",
	Long: `List the built-in templates and register your own.

A user template is a text/template file that renders a Go program. It receives
.Name, .Event, .Matcher and .Options, plus the helpers option "key" "default",
quote, split and lower. Registered templates are stored in
~/.cchooks/templates.json (or templatesDir from the config).`,
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available templates",
	Args:  cobra.NoArgs,
	RunE:  runTemplateList,
}

var templateRegisterCmd = &cobra.Command{
	Use:   "register <name> <file>",
	Short: "Register a user template",
	Example: `  cchooks template register audit-log ./audit.tmpl --event PreToolUse --event PostToolUse
  cchooks template register audit-log ./audit-v2.tmpl --event PreToolUse --force`,
	Args: cobra.ExactArgs(2),
	RunE: runTemplateRegister,
}

var templateUnregisterCmd = &cobra.Command{
	Use:               "unregister <name>",
	Short:             "Remove a user template",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: templateCompletion,
	RunE:              runTemplateUnregister,
}

func init() {
	templateListCmd.Flags().BoolVar(&templateJSON, "json", false, "Output as JSON")
	templateRegisterCmd.Flags().StringArrayVarP(&templateEvents, "event", "e", nil, "Event the template supports (repeatable)")
	templateRegisterCmd.Flags().StringVarP(&templateDescription, "description", "d", "", "Short description")
	templateRegisterCmd.Flags().BoolVar(&templateForce, "force", false, "Replace an existing template")
	_ = templateRegisterCmd.MarkFlagRequired("event")
	_ = templateRegisterCmd.RegisterFlagCompletionFunc("event", eventCompletion)

	templateCmd.AddCommand(templateListCmd, templateRegisterCmd, templateUnregisterCmd)
	rootCmd.AddCommand(templateCmd)
}

func runTemplateList(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	list := templates.List(reg)
	closeRegistry(reg)

	out := cmd.OutOrStdout()
	if templateJSON {
		return printJSON(out, list)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSOURCE\tEVENTS\tDESCRIPTION")
	for _, t := range list {
		source := "built-in"
		if !t.Builtin {
			source = t.Source
		}
		events := make([]string, len(t.Events))
		for i, e := range t.Events {
			events[i] = e.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, source, strings.Join(events, ","), t.Description)
	}
	return tw.Flush()
}

func runTemplateRegister(cmd *cobra.Command, args []string) error {
	name, file := args[0], args[1]
	if templates.IsBuiltin(name) {
		return hookerrors.Validation("name", fmt.Sprintf("%q is a built-in template name", name))
	}

	source, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", file, err)
	}
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("template file %s: %w", source, err)
	}

	rt := registry.Template{
		Name:        name,
		Description: templateDescription,
		Events:      templateEvents,
		Source:      source,
	}
	// Reject unknown event names before anything is written
	if _, err := templates.FromRegistry(rt); err != nil {
		return err
	}

	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeRegistry(reg)

	if err := reg.Register(rt, templateForce); err != nil {
		return err
	}
	if err := reg.SaveRegistry(); err != nil {
		return err
	}
	logger.Success("Registered template %s (%s)", name, source)
	return nil
}

func runTemplateUnregister(cmd *cobra.Command, args []string) error {
	if templates.IsBuiltin(args[0]) {
		return hookerrors.Validation("name", fmt.Sprintf("%q is a built-in template and cannot be removed", args[0]))
	}

	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeRegistry(reg)

	if err := reg.Unregister(args[0]); err != nil {
		return err
	}
	if err := reg.SaveRegistry(); err != nil {
		return err
	}
	logger.Success("Unregistered template %s", args[0])
	return nil
}
