package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightfastai/cchooks/internal/health"
	"github.com/lightfastai/cchooks/internal/logger"
)

var (
	doctorAutoFix bool
	doctorJSON    bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on settings, backups and templates",
	Long: `Run health checks over everything cchooks manages.

The doctor command performs the following checks:
  - Configuration file validation
  - Settings files at each level: present, readable and parseable
  - Write permissions on each settings file
  - Hooks schema and per-entry validation
  - Hook commands resolve to an executable
  - Backups within the configured retention
  - Settings locks held or left behind
  - User template registry and template sources

Exit codes:
  0 - All checks passed
  1 - Some checks passed with warnings
  2 - Some checks failed with errors

Examples:
  # Run all health checks
  cchooks doctor

  # Prune extra backups and remove unused lock files
  cchooks doctor --fix

  # Output results as JSON for CI/automation
  cchooks doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorAutoFix, "fix", false, "Automatically fix issues where possible")
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	templatesDir, err := cfg.TemplatesPath()
	if err != nil {
		logger.Verbose("Warning: failed to resolve templates directory: %v", err)
	}

	ctx := &health.CheckerContext{
		Store:        store,
		Config:       cfg,
		ConfigPath:   cfgPath,
		ConfigErr:    cfgErr,
		TemplatesDir: templatesDir,
		AutoFix:      doctorAutoFix,
		Verbose:      flagVerbose,
	}

	result, err := health.RunAll(ctx, "")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if doctorJSON {
		jsonOutput, err := result.FormatJSON()
		if err != nil {
			return fmt.Errorf("failed to format JSON output: %w", err)
		}
		fmt.Fprintln(out, jsonOutput)
	} else {
		fmt.Fprint(out, result.Format(flagVerbose))
	}

	if result.ExitCode != 0 {
		return &exitError{code: result.ExitCode}
	}
	return nil
}
