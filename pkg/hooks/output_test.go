package hooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
	code   int
	exited bool
}

func newHarness() *harness { return &harness{code: -1} }

func (h *harness) opts() []Option {
	return []Option{
		WithStdout(&h.stdout),
		WithStderr(&h.stderr),
		WithExit(func(code int) {
			h.code = code
			h.exited = true
		}),
	}
}

func (h *harness) context(t *testing.T, kind EventKind) Context {
	t.Helper()
	ctx, err := CreateContext(SamplePayload(kind), h.opts()...)
	require.NoError(t, err)
	return ctx
}

func (h *harness) decoded(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &m), "stdout: %s", h.stdout.String())
	return m
}

func jsonReader(b []byte) io.Reader { return bytes.NewReader(b) }

func TestExitVerbs(t *testing.T) {
	tests := []struct {
		name       string
		call       func(Responder)
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"success", func(r Responder) { r.ExitSuccess("done") }, 0, "done\n", ""},
		{"success silent", func(r Responder) { r.ExitSuccess("") }, 0, "", ""},
		{"non-blocking", func(r Responder) { r.ExitNonBlock("careful") }, 1, "", "careful\n"},
		{"blocking", func(r Responder) { r.ExitBlock("nope") }, 2, "", "nope\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.call(h.context(t, SessionEnd).Responder())

			assert.True(t, h.exited)
			assert.Equal(t, tt.wantCode, h.code)
			assert.Equal(t, tt.wantStdout, h.stdout.String())
			assert.Equal(t, tt.wantStderr, h.stderr.String())
		})
	}
}

func TestPreToolUseOutput_Deny(t *testing.T) {
	h := newHarness()
	pre := h.context(t, PreToolUse).(*PreToolUseContext)

	require.NoError(t, pre.Output().Deny("no .env edits"))

	m := h.decoded(t)
	assert.Equal(t, true, m["continue"])
	assert.Equal(t, "", m["stopReason"])
	assert.Equal(t, false, m["suppressOutput"])
	assert.Equal(t, "block", m["decision"])
	assert.Equal(t, "no .env edits", m["reason"])
	assert.NotContains(t, m, "systemMessage")

	specific := m["hookSpecificOutput"].(map[string]any)
	assert.Equal(t, "PreToolUse", specific["hookEventName"])
	assert.Equal(t, "deny", specific["permissionDecision"])
	assert.Equal(t, "no .env edits", specific["permissionDecisionReason"])
	assert.False(t, h.exited)
}

func TestPreToolUseOutput_Decisions(t *testing.T) {
	tests := []struct {
		name         string
		call         func(*PreToolUseOutput) error
		wantDecision string
		wantPerm     string
	}{
		{"allow", func(o *PreToolUseOutput) error { return o.Allow("safe") }, "approve", "allow"},
		{"deny", func(o *PreToolUseOutput) error { return o.Deny("unsafe") }, "block", "deny"},
		{"ask", func(o *PreToolUseOutput) error { return o.Ask("unsure") }, "ask", "ask"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			require.NoError(t, tt.call(h.context(t, PreToolUse).(*PreToolUseContext).Output()))

			m := h.decoded(t)
			assert.Equal(t, tt.wantDecision, m["decision"])
			assert.Equal(t, tt.wantPerm, m["hookSpecificOutput"].(map[string]any)["permissionDecision"])
		})
	}
}

func TestSystemMessage(t *testing.T) {
	h := newHarness()
	n := h.context(t, Notification).(*NotificationContext)

	require.NoError(t, n.Output().Acknowledge(WithSystemMessage("seen"), WithSuppressOutput()))

	m := h.decoded(t)
	assert.Equal(t, "seen", m["systemMessage"])
	assert.Equal(t, true, m["suppressOutput"])
	assert.NotContains(t, m, "decision")
	assert.NotContains(t, m, "reason")
}

func TestSystemMessage_EmptyStillPresent(t *testing.T) {
	h := newHarness()
	p := h.context(t, PreCompact).(*PreCompactContext)

	require.NoError(t, p.Output().Acknowledge(WithSystemMessage("")))
	assert.Contains(t, h.decoded(t), "systemMessage")
}

func TestHalt(t *testing.T) {
	h := newHarness()
	u := h.context(t, UserPromptSubmit).(*UserPromptSubmitContext)

	require.NoError(t, u.Output().Halt("stop everything"))

	m := h.decoded(t)
	assert.Equal(t, false, m["continue"])
	assert.Equal(t, "stop everything", m["stopReason"])
}

func TestBlockDecisions(t *testing.T) {
	tests := []struct {
		kind EventKind
		call func(Context) error
	}{
		{PostToolUse, func(c Context) error { return c.(*PostToolUseContext).Output().Challenge("check again") }},
		{UserPromptSubmit, func(c Context) error { return c.(*UserPromptSubmitContext).Output().Block("check again") }},
		{Stop, func(c Context) error { return c.(*StopContext).Output().Prevent("check again") }},
		{SubagentStop, func(c Context) error { return c.(*SubagentStopContext).Output().Prevent("check again") }},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			h := newHarness()
			require.NoError(t, tt.call(h.context(t, tt.kind)))

			m := h.decoded(t)
			assert.Equal(t, true, m["continue"])
			assert.Equal(t, "block", m["decision"])
			assert.Equal(t, "check again", m["reason"])
		})
	}
}

func TestAddContext(t *testing.T) {
	tests := []struct {
		kind EventKind
		call func(Context) error
	}{
		{PostToolUse, func(c Context) error { return c.(*PostToolUseContext).Output().AddContext("ctx") }},
		{UserPromptSubmit, func(c Context) error { return c.(*UserPromptSubmitContext).Output().AddContext("ctx") }},
		{SessionStart, func(c Context) error { return c.(*SessionStartContext).Output().AddContext("ctx") }},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			h := newHarness()
			require.NoError(t, tt.call(h.context(t, tt.kind)))

			specific := h.decoded(t)["hookSpecificOutput"].(map[string]any)
			assert.Equal(t, string(tt.kind), specific["hookEventName"])
			assert.Equal(t, "ctx", specific["additionalContext"])
			assert.NotContains(t, specific, "permissionDecision")
		})
	}
}

func TestPostToolUseOutput_Ignore(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.context(t, PostToolUse).(*PostToolUseContext).Output().Ignore())

	m := h.decoded(t)
	assert.Equal(t, true, m["continue"])
	assert.Equal(t, true, m["suppressOutput"])
}

func TestOutput_NoHTMLEscaping(t *testing.T) {
	h := newHarness()
	pre := h.context(t, PreToolUse).(*PreToolUseContext)

	require.NoError(t, pre.Output().Deny("a && b <c>"))
	assert.Contains(t, h.stdout.String(), "a && b <c>")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestOutput_WriteError(t *testing.T) {
	ctx, err := CreateContext(SamplePayload(Stop), WithStdout(failingWriter{}))
	require.NoError(t, err)

	err = ctx.(*StopContext).Output().Allow()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestRun(t *testing.T) {
	t.Run("handler receives context", func(t *testing.T) {
		h := newHarness()
		var got EventKind
		Run(func(c Context) error {
			got = c.EventKind()
			return nil
		}, append(h.opts(), WithStdin(jsonReader(SamplePayload(SessionStart))))...)

		assert.Equal(t, SessionStart, got)
		assert.False(t, h.exited)
	})

	t.Run("invalid payload exits 1", func(t *testing.T) {
		h := newHarness()
		called := false
		Run(func(Context) error {
			called = true
			return nil
		}, append(h.opts(), WithStdin(strings.NewReader("{")))...)

		assert.False(t, called)
		assert.Equal(t, 1, h.code)
		assert.Contains(t, h.stderr.String(), "invalid hook payload")
	})

	t.Run("handler error exits 1", func(t *testing.T) {
		h := newHarness()
		Run(func(Context) error {
			return errors.New("boom")
		}, append(h.opts(), WithStdin(jsonReader(SamplePayload(Stop))))...)

		assert.Equal(t, 1, h.code)
		assert.Contains(t, h.stderr.String(), "boom")
	})
}
