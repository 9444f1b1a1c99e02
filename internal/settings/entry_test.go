package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
)

func TestParseHookEntry(t *testing.T) {
	matcher, entry, err := ParseHookEntry([]byte(`{"matcher":"Bash","command":"guard","timeout":15}`))
	require.NoError(t, err)
	assert.Equal(t, "Bash", matcher)
	assert.Equal(t, HookEntry{Type: "command", Command: "guard", Timeout: intPtr(15)}, entry)

	_, entry, err = ParseHookEntry([]byte(`{"type":"command","command":"x","timeout":null}`))
	require.NoError(t, err)
	assert.Nil(t, entry.Timeout)
}

func TestParseHookEntry_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantField string
	}{
		{"not an object", `[1]`, "entry"},
		{"unknown key", `{"command":"x","env":{}}`, "env"},
		{"foreign type", `{"type":"prompt","command":"x"}`, "type"},
		{"type not string", `{"type":1,"command":"x"}`, "type"},
		{"command not string", `{"command":true}`, "command"},
		{"timeout float", `{"command":"x","timeout":1.5}`, "timeout"},
		{"matcher not string", `{"command":"x","matcher":[]}`, "matcher"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseHookEntry([]byte(tt.input))
			e, ok := hookerrors.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, hookerrors.ErrValidation, e.Type)
			assert.Equal(t, tt.wantField, e.Context["Field"])
		})
	}
}

func TestNormalizeEntry(t *testing.T) {
	e, err := NormalizeEntry(HookEntry{Command: "x"})
	require.NoError(t, err)
	assert.Equal(t, CommandType, e.Type)

	_, err = NormalizeEntry(HookEntry{Type: "Command", Command: "x"})
	assert.True(t, hookerrors.IsType(err, hookerrors.ErrValidation))
}

func TestValidateEvent(t *testing.T) {
	assert.NoError(t, ValidateEvent("Notification"))

	err := ValidateEvent("notification")
	e, ok := hookerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, hookerrors.ErrInvalidEvent, e.Type)
	assert.Contains(t, e.Fixes[0], "Notification")
}
