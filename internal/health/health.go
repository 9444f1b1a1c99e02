// Package health runs the checks behind `cchooks doctor` and renders their
// results grouped by settings level.
package health

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/lightfastai/cchooks/internal/jsonutil"
	"github.com/lightfastai/cchooks/internal/settings"
)

// Status represents the health check result status
type Status string

const (
	StatusPass  Status = "pass"
	StatusWarn  Status = "warn"
	StatusError Status = "error"
)

// Severity returns the numeric severity of a status (higher is worse)
func (s Status) Severity() int {
	switch s {
	case StatusWarn:
		return 1
	case StatusError:
		return 2
	default:
		return 0
	}
}

func (s Status) display() (string, func(format string, a ...interface{}) string) {
	switch s {
	case StatusWarn:
		return "⚠", color.YellowString
	case StatusError:
		return "✗", color.RedString
	default:
		return "✓", color.GreenString
	}
}

// Check is the outcome of one doctor check.
type Check struct {
	Name string `json:"name"`
	// Level is the settings level the check ran against. Checks of the
	// cchooks installation itself leave it empty.
	Level       settings.Level `json:"level,omitempty"`
	Target      string         `json:"target,omitempty"`
	Status      Status         `json:"status"`
	Message     string         `json:"message"`
	FixAction   string         `json:"fixAction,omitempty"`
	FixApplied  bool           `json:"fixApplied,omitempty"`
	Details     []string       `json:"details,omitempty"`
	ErrorString string         `json:"error,omitempty"`
}

// NewCheck starts a passing check of target.
func NewCheck(name, target string) Check {
	return Check{Name: name, Target: target, Status: StatusPass}
}

func (c Check) WithStatus(s Status) Check {
	c.Status = s
	return c
}

func (c Check) WithMessage(msg string) Check {
	c.Message = msg
	return c
}

func (c Check) WithDetails(details ...string) Check {
	c.Details = append(c.Details, details...)
	return c
}

// WithFixAction records the command or step that resolves the problem.
func (c Check) WithFixAction(action string) Check {
	c.FixAction = action
	return c
}

// WithFixApplied marks the fix action as already carried out by --fix.
func (c Check) WithFixApplied() Check {
	c.FixApplied = true
	return c
}

func (c Check) WithError(err error) Check {
	if err != nil {
		c.ErrorString = err.Error()
	}
	return c
}

// Result aggregates the checks of one doctor run.
type Result struct {
	Checks   []Check `json:"checks"`
	Passed   int     `json:"passed"`
	Warnings int     `json:"warnings"`
	Errors   int     `json:"errors"`
	// ExitCode is 0 when everything passed, 1 with warnings and 2 with errors.
	ExitCode int `json:"exitCode"`
}

func NewResult() *Result {
	return &Result{Checks: make([]Check, 0)}
}

// Add records checks under level and updates the counters and exit code.
func (r *Result) Add(level settings.Level, checks ...Check) {
	for _, check := range checks {
		check.Level = level
		r.Checks = append(r.Checks, check)

		switch check.Status {
		case StatusPass:
			r.Passed++
		case StatusWarn:
			r.Warnings++
		case StatusError:
			r.Errors++
		}
	}

	switch {
	case r.Errors > 0:
		r.ExitCode = 2
	case r.Warnings > 0:
		r.ExitCode = 1
	default:
		r.ExitCode = 0
	}
}

type section struct {
	level  settings.Level
	target string
	worst  Status
	checks []Check
}

// sections groups the checks by level in order of first appearance. The
// section target is the target of its first check, which for a settings
// level is the settings file itself.
func (r *Result) sections() []*section {
	var out []*section
	byLevel := make(map[settings.Level]*section)
	for _, c := range r.Checks {
		s, ok := byLevel[c.Level]
		if !ok {
			s = &section{level: c.Level, target: c.Target, worst: StatusPass}
			byLevel[c.Level] = s
			out = append(out, s)
		}
		s.checks = append(s.checks, c)
		if c.Status.Severity() > s.worst.Severity() {
			s.worst = c.Status
		}
	}
	for _, s := range out {
		sort.SliceStable(s.checks, func(i, j int) bool {
			return s.checks[i].Status.Severity() > s.checks[j].Status.Severity()
		})
	}
	return out
}

// Format renders the result for a terminal. Details of passing checks and
// raw error strings are only shown when verbose is set.
func (r *Result) Format(verbose bool) string {
	var sb strings.Builder
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	overall := StatusPass
	text := "HEALTHY"
	if r.Errors > 0 {
		overall, text = StatusError, "UNHEALTHY"
	} else if r.Warnings > 0 {
		overall, text = StatusWarn, "WARNINGS"
	}
	icon, paint := overall.display()

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s %s\n", bold.Sprint("cchooks doctor:"), paint("%s %s", icon, text)))
	sb.WriteString(fmt.Sprintf("%d passed, %d warning(s), %d error(s)\n", r.Passed, r.Warnings, r.Errors))

	for _, s := range r.sections() {
		icon, paint := s.worst.display()
		sb.WriteString("\n")
		if s.level == "" {
			sb.WriteString(fmt.Sprintf("%s %s\n", paint("%s", icon), bold.Sprint("cchooks")))
		} else {
			sb.WriteString(fmt.Sprintf("%s %s %s\n", paint("%s", icon), bold.Sprintf("%s settings", s.level), faint.Sprint(s.target)))
		}
		sb.WriteString(strings.Repeat("-", 50))
		sb.WriteString("\n")

		for _, check := range s.checks {
			icon, paint := check.Status.display()
			sb.WriteString(fmt.Sprintf("  %s %s: %s\n", paint("%s", icon), check.Name, check.Message))

			if check.Target != "" && check.Target != s.target {
				sb.WriteString(fmt.Sprintf("      %s\n", faint.Sprint(check.Target)))
			}
			if verbose || check.Status != StatusPass {
				for _, detail := range check.Details {
					sb.WriteString(fmt.Sprintf("      - %s\n", detail))
				}
			}
			if check.FixAction != "" {
				if check.FixApplied {
					sb.WriteString(fmt.Sprintf("      %s Applied fix: %s\n", color.GreenString("✓"), check.FixAction))
				} else {
					sb.WriteString(fmt.Sprintf("      %s Fix: %s\n", color.CyanString("ℹ"), check.FixAction))
				}
			}
			if verbose && check.ErrorString != "" {
				sb.WriteString(fmt.Sprintf("      Error: %s\n", color.RedString(check.ErrorString)))
			}
		}
	}

	return sb.String()
}

// FormatJSON formats the result as JSON
func (r *Result) FormatJSON() (string, error) {
	data, err := jsonutil.MarshalIndentWithNewline(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
