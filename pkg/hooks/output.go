package hooks

import (
	"encoding/json"
	"fmt"
	"io"
)

// Process exit codes understood by Claude Code.
const (
	ExitCodeSuccess  = 0
	ExitCodeNonBlock = 1
	ExitCodeBlock    = 2
)

// Decision values carried in the top-level "decision" field.
const (
	DecisionApprove = "approve"
	DecisionBlock   = "block"
	DecisionAsk     = "ask"
)

// Permission values carried in hookSpecificOutput.permissionDecision.
const (
	PermissionAllow = "allow"
	PermissionDeny  = "deny"
	PermissionAsk   = "ask"
)

// Response is the JSON object a decision verb writes to stdout.
type Response struct {
	Continue           bool            `json:"continue"`
	StopReason         string          `json:"stopReason"`
	SuppressOutput     bool            `json:"suppressOutput"`
	Decision           string          `json:"decision,omitempty"`
	Reason             string          `json:"reason,omitempty"`
	SystemMessage      *string         `json:"systemMessage,omitempty"`
	HookSpecificOutput *SpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// SpecificOutput holds the fields newer Claude Code releases read per event.
type SpecificOutput struct {
	HookEventName            EventKind `json:"hookEventName"`
	PermissionDecision       string    `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string    `json:"permissionDecisionReason,omitempty"`
	AdditionalContext        string    `json:"additionalContext,omitempty"`
}

// ResponseOption adjusts the common fields of a JSON decision.
type ResponseOption func(*Response)

// WithSystemMessage adds a message shown to the user. The key is omitted
// from the JSON unless this option is given.
func WithSystemMessage(msg string) ResponseOption {
	return func(r *Response) { r.SystemMessage = &msg }
}

// WithSuppressOutput hides the hook's stdout from the transcript.
func WithSuppressOutput() ResponseOption {
	return func(r *Response) { r.SuppressOutput = true }
}

type streams struct {
	stdout io.Writer
	stderr io.Writer
	exit   func(int)
}

// Responder is the simple-mode half of every output encoder.
type Responder interface {
	// ExitSuccess prints msg (if any) to stdout and exits 0.
	ExitSuccess(msg string)
	// ExitNonBlock prints msg to stderr and exits 1. Claude Code shows it to
	// the user and carries on.
	ExitNonBlock(msg string)
	// ExitBlock prints reason to stderr and exits 2. Claude Code feeds it
	// back to the model.
	ExitBlock(reason string)
}

type exitVerbs struct {
	s *streams
}

func (v exitVerbs) ExitSuccess(msg string) {
	v.exitWith(v.s.stdout, msg, ExitCodeSuccess)
}

func (v exitVerbs) ExitNonBlock(msg string) {
	v.exitWith(v.s.stderr, msg, ExitCodeNonBlock)
}

func (v exitVerbs) ExitBlock(reason string) {
	v.exitWith(v.s.stderr, reason, ExitCodeBlock)
}

func (v exitVerbs) exitWith(w io.Writer, msg string, code int) {
	if msg != "" {
		fmt.Fprintln(w, msg)
	}
	v.s.exit(code)
}

func (v exitVerbs) write(r Response, opts []ResponseOption) error {
	for _, opt := range opts {
		opt(&r)
	}
	enc := json.NewEncoder(v.s.stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("writing hook decision: %w", err)
	}
	return nil
}

func (v exitVerbs) proceed(opts []ResponseOption) error {
	return v.write(Response{Continue: true}, opts)
}

func (v exitVerbs) halt(stopReason string, opts []ResponseOption) error {
	return v.write(Response{Continue: false, StopReason: stopReason}, opts)
}

func (v exitVerbs) block(reason string, opts []ResponseOption) error {
	return v.write(Response{Continue: true, Decision: DecisionBlock, Reason: reason}, opts)
}

func (v exitVerbs) addContext(kind EventKind, text string, opts []ResponseOption) error {
	return v.write(Response{
		Continue: true,
		HookSpecificOutput: &SpecificOutput{
			HookEventName:     kind,
			AdditionalContext: text,
		},
	}, opts)
}

// PreToolUseOutput decides whether a pending tool call may run.
type PreToolUseOutput struct{ exitVerbs }

func (o *PreToolUseOutput) permission(decision, permission, reason string, opts []ResponseOption) error {
	return o.write(Response{
		Continue: true,
		Decision: decision,
		Reason:   reason,
		HookSpecificOutput: &SpecificOutput{
			HookEventName:            PreToolUse,
			PermissionDecision:       permission,
			PermissionDecisionReason: reason,
		},
	}, opts)
}

// Allow lets the tool call run without asking the user.
func (o *PreToolUseOutput) Allow(reason string, opts ...ResponseOption) error {
	return o.permission(DecisionApprove, PermissionAllow, reason, opts)
}

// Deny prevents the tool call; reason is shown to the model.
func (o *PreToolUseOutput) Deny(reason string, opts ...ResponseOption) error {
	return o.permission(DecisionBlock, PermissionDeny, reason, opts)
}

// Ask defers the decision to the user.
func (o *PreToolUseOutput) Ask(reason string, opts ...ResponseOption) error {
	return o.permission(DecisionAsk, PermissionAsk, reason, opts)
}

// Halt stops the assistant entirely.
func (o *PreToolUseOutput) Halt(stopReason string, opts ...ResponseOption) error {
	return o.halt(stopReason, opts)
}

// PostToolUseOutput reacts to a finished tool call.
type PostToolUseOutput struct{ exitVerbs }

// Accept continues normally.
func (o *PostToolUseOutput) Accept(opts ...ResponseOption) error { return o.proceed(opts) }

// Challenge prompts the model with reason about the tool result.
func (o *PostToolUseOutput) Challenge(reason string, opts ...ResponseOption) error {
	return o.block(reason, opts)
}

// Ignore continues and hides the hook's output from the transcript.
func (o *PostToolUseOutput) Ignore(opts ...ResponseOption) error {
	return o.write(Response{Continue: true, SuppressOutput: true}, opts)
}

// AddContext hands extra text to the model alongside the tool result.
func (o *PostToolUseOutput) AddContext(text string, opts ...ResponseOption) error {
	return o.addContext(PostToolUse, text, opts)
}

func (o *PostToolUseOutput) Halt(stopReason string, opts ...ResponseOption) error {
	return o.halt(stopReason, opts)
}

// NotificationOutput can only acknowledge.
type NotificationOutput struct{ exitVerbs }

func (o *NotificationOutput) Acknowledge(opts ...ResponseOption) error { return o.proceed(opts) }

// UserPromptSubmitOutput gates a prompt before the model sees it.
type UserPromptSubmitOutput struct{ exitVerbs }

func (o *UserPromptSubmitOutput) Allow(opts ...ResponseOption) error { return o.proceed(opts) }

// Block discards the prompt; reason is shown to the user.
func (o *UserPromptSubmitOutput) Block(reason string, opts ...ResponseOption) error {
	return o.block(reason, opts)
}

func (o *UserPromptSubmitOutput) AddContext(text string, opts ...ResponseOption) error {
	return o.addContext(UserPromptSubmit, text, opts)
}

func (o *UserPromptSubmitOutput) Halt(stopReason string, opts ...ResponseOption) error {
	return o.halt(stopReason, opts)
}

// StopOutput decides whether the main agent may stop.
type StopOutput struct{ exitVerbs }

func (o *StopOutput) Allow(opts ...ResponseOption) error { return o.proceed(opts) }

// Prevent keeps the agent working; reason tells it what is left to do.
func (o *StopOutput) Prevent(reason string, opts ...ResponseOption) error {
	return o.block(reason, opts)
}

func (o *StopOutput) Halt(stopReason string, opts ...ResponseOption) error {
	return o.halt(stopReason, opts)
}

// SubagentStopOutput decides whether a subagent may stop.
type SubagentStopOutput struct{ exitVerbs }

func (o *SubagentStopOutput) Allow(opts ...ResponseOption) error { return o.proceed(opts) }

func (o *SubagentStopOutput) Prevent(reason string, opts ...ResponseOption) error {
	return o.block(reason, opts)
}

func (o *SubagentStopOutput) Halt(stopReason string, opts ...ResponseOption) error {
	return o.halt(stopReason, opts)
}

// PreCompactOutput can only acknowledge.
type PreCompactOutput struct{ exitVerbs }

func (o *PreCompactOutput) Acknowledge(opts ...ResponseOption) error { return o.proceed(opts) }

// SessionStartOutput can seed the new session with context.
type SessionStartOutput struct{ exitVerbs }

func (o *SessionStartOutput) AddContext(text string, opts ...ResponseOption) error {
	return o.addContext(SessionStart, text, opts)
}

// SessionEndOutput has no JSON decisions; use the exit verbs.
type SessionEndOutput struct{ exitVerbs }
