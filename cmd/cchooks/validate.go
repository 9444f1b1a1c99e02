package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/settings"
)

var validateTarget targetFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings files for hook problems",
	Long: `Validate the hooks section of the settings files.

Each file is checked against the hooks schema, then every entry is checked for
an unknown event, a missing or invalid matcher, an empty or unresolvable
command and an out-of-range timeout. Without --level or --file every
discovered file that exists is validated.

Exit codes:
  0 - No errors (warnings may be present)
  1 - At least one error`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateTarget.register(validateCmd, false)
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	docs, err := validateDocuments()
	if err != nil {
		return err
	}

	reports := make([]*settings.Report, 0, len(docs))
	failed := false
	for _, doc := range docs {
		report, err := settings.Validate(doc)
		if err != nil {
			return err
		}
		reports = append(reports, report)
		if !report.OK() {
			failed = true
		}
	}

	out := cmd.OutOrStdout()
	if validateTarget.json {
		if err := printJSON(out, reports); err != nil {
			return err
		}
	} else {
		if len(reports) == 0 {
			logger.Info("No settings files found")
		}
		for _, r := range reports {
			printReport(out, r)
		}
	}

	if failed {
		return &exitError{code: 1}
	}
	return nil
}

func validateDocuments() ([]*settings.Document, error) {
	if validateTarget.level != "" || validateTarget.file != "" {
		doc, err := validateTarget.load()
		if err != nil {
			return nil, err
		}
		return []*settings.Document{doc}, nil
	}

	all, err := store.LoadAll("")
	if err != nil {
		return nil, err
	}
	var docs []*settings.Document
	for _, d := range all {
		if d.State() != settings.StateNotFound {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func printReport(w io.Writer, r *settings.Report) {
	header := color.New(color.Bold).Sprintf("%s (%s)", r.Path, r.Level)
	if len(r.Issues) == 0 {
		fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), header)
		return
	}

	icon := color.YellowString("⚠")
	if !r.OK() {
		icon = color.RedString("✗")
	}
	fmt.Fprintf(w, "%s %s: %d error(s), %d warning(s)\n", icon, header, r.Errors(), r.Warnings())
	for _, i := range r.Issues {
		sev := color.YellowString("warning")
		if i.Severity == settings.SeverityError {
			sev = color.RedString("error")
		}
		loc := ""
		switch {
		case i.Index >= 0:
			loc = fmt.Sprintf("%s[%d].%s: ", i.Event, i.Index, i.Field)
		case i.Event != "":
			loc = i.Event + ": "
		}
		fmt.Fprintf(w, "  %s %s%s\n", sev, loc, i.Message)
	}
}
