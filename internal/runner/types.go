package runner

import (
	"time"

	"github.com/lightfastai/cchooks/pkg/hooks"
)

// Hook is one configured command selected for a test run
type Hook struct {
	Event   string        `json:"event"`
	Matcher string        `json:"matcher"`
	Index   int           `json:"index"`
	Level   string        `json:"level"`
	Path    string        `json:"path"`
	Command string        `json:"command"`
	Timeout time.Duration `json:"timeout"`
}

// Outcome classifies a hook's exit status the way Claude Code does
type Outcome string

const (
	// OutcomeSuccess is exit code 0
	OutcomeSuccess Outcome = "success"
	// OutcomeBlock is exit code 2; stderr is fed back to Claude
	OutcomeBlock Outcome = "block"
	// OutcomeNonBlock is any other exit code; stderr is shown to the user
	OutcomeNonBlock Outcome = "non-blocking-error"
	// OutcomeTimeout means the hook was killed after its timeout
	OutcomeTimeout Outcome = "timeout"
	// OutcomeError means the command could not be started
	OutcomeError Outcome = "error"
)

// Result contains the result of executing a hook
type Result struct {
	Hook     Hook            `json:"hook"`
	Outcome  Outcome         `json:"outcome"`
	ExitCode int             `json:"exitCode"`
	Stdout   string          `json:"stdout"`
	Stderr   string          `json:"stderr"`
	Duration time.Duration   `json:"duration"`
	Decision *hooks.Response `json:"decision,omitempty"`

	// Error is set when the hook could not be started or its stdout looked
	// like a decision but did not decode
	Error string `json:"error,omitempty"`
}

// Blocked reports whether the hook asked Claude Code to stop the action,
// either through exit code 2 or a JSON decision.
func (r Result) Blocked() bool {
	if r.Outcome == OutcomeBlock {
		return true
	}
	if r.Decision == nil {
		return false
	}
	if r.Decision.Decision == hooks.DecisionBlock {
		return true
	}
	if so := r.Decision.HookSpecificOutput; so != nil && so.PermissionDecision == hooks.PermissionDeny {
		return true
	}
	return false
}
