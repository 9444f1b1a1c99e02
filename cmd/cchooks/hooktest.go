package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lightfastai/cchooks/internal/env"
	"github.com/lightfastai/cchooks/internal/jsonutil"
	"github.com/lightfastai/cchooks/internal/logger"
	"github.com/lightfastai/cchooks/internal/runner"
	"github.com/lightfastai/cchooks/internal/settings"
	"github.com/lightfastai/cchooks/pkg/hooks"
)

var (
	testTarget   targetFlags
	testPayload  string
	testTool     string
	testTimeout  time.Duration
	testParallel int
	testEnvFiles []string
	testEnvPairs []string
)

var testCmd = &cobra.Command{
	Use:   "test <event>",
	Short: "Run the configured hooks for an event against a payload",
	Long: `Run every hook configured for an event the way Claude Code would.

The payload is read from --payload (a file, or "-" for stdin), from piped
stdin, or generated as a sample for the event. For PreToolUse and PostToolUse
only hooks whose matcher selects the tool run; --tool overrides the payload's
tool_name. Hooks run concurrently, each with its own timeout.

Hooks see the current environment plus CLAUDE_PROJECT_DIR, the "env" sections
of the settings files (project over user), any --env-file dotenv files and
--env KEY=VALUE overrides, in increasing priority.

Exit codes:
  0 - No hook blocked
  2 - At least one hook blocked (exit code 2 or a block/deny decision)

Examples:
  cchooks test PreToolUse --tool Bash
  echo '{"session_id":"s","transcript_path":"/t","hook_event_name":"Stop","stop_hook_active":false}' | cchooks test Stop
  cchooks test UserPromptSubmit --payload prompt.json --json`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: eventCompletion,
	RunE:              runTest,
}

func init() {
	testCmd.Flags().StringVar(&testTarget.level, "level", "", "Only run hooks from this level: project or user")
	testCmd.Flags().StringVar(&testTarget.file, "file", "", "Only run hooks from this settings file")
	testCmd.Flags().BoolVar(&testTarget.json, "json", false, "Output results as JSON")
	testCmd.Flags().StringVarP(&testPayload, "payload", "p", "", `Payload file, or "-" for stdin`)
	testCmd.Flags().StringVar(&testTool, "tool", "", "Tool name for PreToolUse/PostToolUse payloads")
	testCmd.Flags().DurationVar(&testTimeout, "timeout", runner.DefaultTimeout, "Timeout for hooks without one")
	testCmd.Flags().IntVar(&testParallel, "parallel", 0, "Maximum hooks to run at once (0 = all)")
	testCmd.Flags().StringArrayVar(&testEnvFiles, "env-file", nil, "Dotenv file to add to the hook environment (repeatable)")
	testCmd.Flags().StringArrayVarP(&testEnvPairs, "env", "E", nil, "KEY=VALUE to add to the hook environment (repeatable)")
	_ = testCmd.RegisterFlagCompletionFunc("level", levelCompletion)
	rootCmd.AddCommand(testCmd)
}

// testReport is the JSON output of test
type testReport struct {
	Event   string          `json:"event"`
	Tool    string          `json:"tool,omitempty"`
	Results []runner.Result `json:"results"`
	Blocked bool            `json:"blocked"`
}

func runTest(cmd *cobra.Command, args []string) error {
	event, err := parseEvent(args[0])
	if err != nil {
		return err
	}

	payload, err := readPayload(cmd, event)
	if err != nil {
		return err
	}
	payload, err = overrideTool(payload, event)
	if err != nil {
		return err
	}

	hctx, err := hooks.CreateContext(payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if hctx.EventKind() != event {
		return fmt.Errorf("payload is a %s event, not %s", hctx.EventKind(), event)
	}
	toolName := payloadTool(hctx)

	docs, err := testDocuments()
	if err != nil {
		return err
	}
	selected, err := runner.Select(settings.Merge(docs...), event.String(), toolName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(selected) == 0 {
		if testTarget.json {
			return printJSON(out, testReport{Event: event.String(), Tool: toolName, Results: []runner.Result{}})
		}
		logger.Info("No %s hooks match%s", event, toolSuffix(toolName))
		return nil
	}

	overrides, err := env.ParseOverrides(testEnvPairs)
	if err != nil {
		return err
	}
	hookEnv, err := env.LoadLayeredEnv(docs, testEnvFiles, overrides)
	if err != nil {
		return err
	}
	logger.Debug("Hook environment layers: %+v", hookEnv.Stats())

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	r := runner.New(
		runner.WithDir(cwd),
		runner.WithEnv(hookEnv.ToSlice()...),
		runner.WithDefaultTimeout(testTimeout),
		runner.WithMaxParallel(testParallel),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := r.Run(ctx, selected, payload)
	if err != nil {
		return err
	}

	report := testReport{Event: event.String(), Tool: toolName, Results: results}
	for _, res := range results {
		if res.Blocked() {
			report.Blocked = true
		}
	}

	if testTarget.json {
		if err := printJSON(out, report); err != nil {
			return err
		}
	} else {
		printResults(out, report)
	}

	if report.Blocked {
		return &exitError{code: hooks.ExitCodeBlock}
	}
	return nil
}

func readPayload(cmd *cobra.Command, event hooks.EventKind) ([]byte, error) {
	switch testPayload {
	case "-":
		return io.ReadAll(cmd.InOrStdin())
	case "":
	default:
		// #nosec G304 - payload path is given on the command line
		data, err := os.ReadFile(testPayload)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload: %w", err)
		}
		return data, nil
	}

	if in := cmd.InOrStdin(); !isTerminal(in) {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(bytes.TrimSpace(data)) > 0 {
			logger.Verbose("Read payload from stdin")
			return data, nil
		}
	}

	logger.Verbose("Using sample %s payload", event)
	return hooks.SamplePayload(event), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// overrideTool replaces tool_name when --tool is set
func overrideTool(payload []byte, event hooks.EventKind) ([]byte, error) {
	if testTool == "" {
		return payload, nil
	}
	if !event.RequiresMatcher() {
		return nil, fmt.Errorf("--tool only applies to PreToolUse and PostToolUse")
	}
	obj, err := jsonutil.ParseObject(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if err := obj.SetValue("tool_name", testTool); err != nil {
		return nil, err
	}
	return jsonutil.Marshal(obj)
}

func payloadTool(c hooks.Context) string {
	switch ctx := c.(type) {
	case *hooks.PreToolUseContext:
		return ctx.ToolName()
	case *hooks.PostToolUseContext:
		return ctx.ToolName()
	}
	return ""
}

func testDocuments() ([]*settings.Document, error) {
	if testTarget.level != "" || testTarget.file != "" {
		doc, err := testTarget.load()
		if err != nil {
			return nil, err
		}
		return []*settings.Document{doc}, nil
	}
	return store.LoadAll("")
}

func toolSuffix(tool string) string {
	if tool == "" {
		return ""
	}
	return " tool " + tool
}

func printResults(w io.Writer, report testReport) {
	fmt.Fprintf(w, "%s %s%s: %d hook(s)\n\n", color.New(color.Bold).Sprint("Testing"), report.Event, toolSuffix(report.Tool), len(report.Results))

	for _, res := range report.Results {
		icon := color.GreenString("✓")
		switch {
		case res.Blocked():
			icon = color.RedString("✗")
		case res.Outcome != runner.OutcomeSuccess:
			icon = color.YellowString("⚠")
		}

		fmt.Fprintf(w, "%s [%s] %s\n", icon, res.Hook.Level, res.Hook.Command)
		fmt.Fprintf(w, "  outcome: %s (exit %d, %s)\n", res.Outcome, res.ExitCode, res.Duration.Round(time.Millisecond))
		if d := res.Decision; d != nil {
			fmt.Fprintf(w, "  decision: %s\n", summarizeDecision(d))
		} else if s := strings.TrimSpace(res.Stdout); s != "" {
			fmt.Fprintf(w, "  stdout: %s\n", indent(s))
		}
		if s := strings.TrimSpace(res.Stderr); s != "" {
			fmt.Fprintf(w, "  stderr: %s\n", indent(s))
		}
		if res.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", res.Error)
		}
	}

	if report.Blocked {
		fmt.Fprintf(w, "\n%s\n", color.RedString("Blocked"))
	}
}

func summarizeDecision(d *hooks.Response) string {
	var parts []string
	if !d.Continue {
		parts = append(parts, "halt")
		if d.StopReason != "" {
			parts = append(parts, fmt.Sprintf("stopReason=%q", d.StopReason))
		}
	}
	if d.Decision != "" {
		parts = append(parts, "decision="+d.Decision)
	}
	if so := d.HookSpecificOutput; so != nil {
		if so.PermissionDecision != "" {
			parts = append(parts, "permission="+so.PermissionDecision)
		}
		if so.AdditionalContext != "" {
			parts = append(parts, fmt.Sprintf("context=%d bytes", len(so.AdditionalContext)))
		}
	}
	if d.Reason != "" {
		parts = append(parts, fmt.Sprintf("reason=%q", d.Reason))
	}
	if len(parts) == 0 {
		return "proceed"
	}
	return strings.Join(parts, " ")
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n          ")
}
