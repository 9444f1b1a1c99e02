package hooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
)

// Context is the typed view of one hook invocation. The concrete type is one
// of the nine *XxxContext types below; switch on it to reach kind-specific
// fields and decision verbs.
type Context interface {
	SessionID() string
	TranscriptPath() string
	EventKind() EventKind
	// Cwd is the assistant's working directory, empty when the payload omits it.
	Cwd() string
	// Raw returns a deep copy of the decoded payload.
	Raw() map[string]any
	// Responder exposes the exit-code verbs every kind supports.
	Responder() Responder

	sealed()
}

type baseContext struct {
	sessionID      string
	transcriptPath string
	kind           EventKind
	cwd            string
	raw            map[string]any
	streams        *streams
}

func (c *baseContext) SessionID() string      { return c.sessionID }
func (c *baseContext) TranscriptPath() string { return c.transcriptPath }
func (c *baseContext) EventKind() EventKind   { return c.kind }
func (c *baseContext) Cwd() string            { return c.cwd }
func (c *baseContext) Raw() map[string]any    { return copyObject(c.raw) }
func (c *baseContext) Responder() Responder   { return exitVerbs{c.streams} }
func (c *baseContext) sealed()                {}

// PreToolUseContext is passed to hooks that run before a tool call.
type PreToolUseContext struct {
	baseContext
	toolName  string
	toolInput map[string]any
}

func (c *PreToolUseContext) ToolName() string          { return c.toolName }
func (c *PreToolUseContext) ToolInput() map[string]any { return copyObject(c.toolInput) }
func (c *PreToolUseContext) Output() *PreToolUseOutput { return &PreToolUseOutput{exitVerbs{c.streams}} }

// PostToolUseContext is passed to hooks that run after a tool call completes.
type PostToolUseContext struct {
	baseContext
	toolName     string
	toolInput    map[string]any
	toolResponse map[string]any
}

func (c *PostToolUseContext) ToolName() string             { return c.toolName }
func (c *PostToolUseContext) ToolInput() map[string]any    { return copyObject(c.toolInput) }
func (c *PostToolUseContext) ToolResponse() map[string]any { return copyObject(c.toolResponse) }
func (c *PostToolUseContext) Output() *PostToolUseOutput   { return &PostToolUseOutput{exitVerbs{c.streams}} }

// NotificationContext is passed to hooks observing assistant notifications.
type NotificationContext struct {
	baseContext
	message string
}

func (c *NotificationContext) Message() string             { return c.message }
func (c *NotificationContext) Output() *NotificationOutput { return &NotificationOutput{exitVerbs{c.streams}} }

// UserPromptSubmitContext is passed to hooks that see a prompt before the model does.
type UserPromptSubmitContext struct {
	baseContext
	prompt string
}

func (c *UserPromptSubmitContext) Prompt() string { return c.prompt }
func (c *UserPromptSubmitContext) Output() *UserPromptSubmitOutput {
	return &UserPromptSubmitOutput{exitVerbs{c.streams}}
}

// StopContext is passed when the main agent finishes responding.
type StopContext struct {
	baseContext
	stopHookActive bool
}

// StopHookActive is true when the assistant is already continuing because of
// a previous Stop hook; hooks should avoid blocking forever.
func (c *StopContext) StopHookActive() bool { return c.stopHookActive }
func (c *StopContext) Output() *StopOutput  { return &StopOutput{exitVerbs{c.streams}} }

// SubagentStopContext is passed when a subagent finishes responding.
type SubagentStopContext struct {
	baseContext
	stopHookActive bool
}

func (c *SubagentStopContext) StopHookActive() bool        { return c.stopHookActive }
func (c *SubagentStopContext) Output() *SubagentStopOutput { return &SubagentStopOutput{exitVerbs{c.streams}} }

// PreCompactContext is passed before the transcript is compacted.
type PreCompactContext struct {
	baseContext
	trigger            string
	customInstructions string
}

// Trigger is "manual" or "auto".
func (c *PreCompactContext) Trigger() string            { return c.trigger }
func (c *PreCompactContext) CustomInstructions() string { return c.customInstructions }
func (c *PreCompactContext) Output() *PreCompactOutput  { return &PreCompactOutput{exitVerbs{c.streams}} }

// SessionStartContext is passed when a session starts or resumes.
type SessionStartContext struct {
	baseContext
	source string
}

// Source is "startup", "resume", "clear" or "compact".
func (c *SessionStartContext) Source() string { return c.source }
func (c *SessionStartContext) Output() *SessionStartOutput {
	return &SessionStartOutput{exitVerbs{c.streams}}
}

// SessionEndContext is passed when a session ends.
type SessionEndContext struct {
	baseContext
	reason string
}

func (c *SessionEndContext) Reason() string            { return c.reason }
func (c *SessionEndContext) Output() *SessionEndOutput { return &SessionEndOutput{exitVerbs{c.streams}} }

// Option configures where a context's output encoder writes.
type Option func(*config)

type config struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	exit   func(int)
}

// WithStdin sets the reader FromStdin and Run consume. Defaults to os.Stdin.
func WithStdin(r io.Reader) Option { return func(c *config) { c.stdin = r } }

// WithStdout sets the stream for JSON decisions and success messages.
func WithStdout(w io.Writer) Option { return func(c *config) { c.stdout = w } }

// WithStderr sets the stream for error and block messages.
func WithStderr(w io.Writer) Option { return func(c *config) { c.stderr = w } }

// WithExit replaces os.Exit for the exit-code verbs.
func WithExit(fn func(int)) Option { return func(c *config) { c.exit = fn } }

func newConfig(opts []Option) *config {
	c := &config{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, exit: os.Exit}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromStdin reads the payload from standard input (or WithStdin).
func FromStdin(opts ...Option) (Context, error) {
	c := newConfig(opts)
	return FromReader(c.stdin, opts...)
}

// FromReader reads the whole payload from r and calls CreateContext.
func FromReader(r io.Reader, opts ...Option) (Context, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Reason: "reading input", Err: err}
	}
	return CreateContext(payload, opts...)
}

// CreateContext classifies and validates payload. It fails with *ParseError,
// *InvalidHookTypeError or *HookValidationError; the first problem found wins.
func CreateContext(payload []byte, opts ...Option) (Context, error) {
	data, err := decodeObject(payload)
	if err != nil {
		return nil, err
	}

	if err := checkFields(data, "", commonFields[:]); err != nil {
		return nil, err
	}

	name := data["hook_event_name"].(string)
	kind, ok := ParseEventKind(name)
	if !ok {
		return nil, &InvalidHookTypeError{Value: name}
	}

	if err := checkFields(data, kind, kindFields[kind]); err != nil {
		return nil, err
	}

	cfg := newConfig(opts)
	base := baseContext{
		sessionID:      data["session_id"].(string),
		transcriptPath: data["transcript_path"].(string),
		kind:           kind,
		raw:            data,
		streams:        &streams{stdout: cfg.stdout, stderr: cfg.stderr, exit: cfg.exit},
	}
	if cwd, ok := data["cwd"].(string); ok {
		base.cwd = cwd
	}

	switch kind {
	case PreToolUse:
		return &PreToolUseContext{
			baseContext: base,
			toolName:    data["tool_name"].(string),
			toolInput:   data["tool_input"].(map[string]any),
		}, nil
	case PostToolUse:
		return &PostToolUseContext{
			baseContext:  base,
			toolName:     data["tool_name"].(string),
			toolInput:    data["tool_input"].(map[string]any),
			toolResponse: data["tool_response"].(map[string]any),
		}, nil
	case Notification:
		return &NotificationContext{baseContext: base, message: data["message"].(string)}, nil
	case UserPromptSubmit:
		return &UserPromptSubmitContext{baseContext: base, prompt: data["prompt"].(string)}, nil
	case Stop:
		return &StopContext{baseContext: base, stopHookActive: data["stop_hook_active"].(bool)}, nil
	case SubagentStop:
		return &SubagentStopContext{baseContext: base, stopHookActive: data["stop_hook_active"].(bool)}, nil
	case PreCompact:
		return &PreCompactContext{
			baseContext:        base,
			trigger:            data["trigger"].(string),
			customInstructions: data["custom_instructions"].(string),
		}, nil
	case SessionStart:
		return &SessionStartContext{baseContext: base, source: data["source"].(string)}, nil
	default: // SessionEnd
		return &SessionEndContext{baseContext: base, reason: data["reason"].(string)}, nil
	}
}

func decodeObject(payload []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Reason: "empty input"}
		}
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Reason: "unexpected data after JSON object"}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Reason: "input must be a JSON object"}
	}
	return obj, nil
}

func copyObject(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyObject(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
