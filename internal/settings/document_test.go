package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
)

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func parse(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := ParseDocument("/tmp/settings.json", LevelProject, []byte(content))
	require.NoError(t, err)
	return doc
}

func render(t *testing.T, doc *Document) string {
	t.Helper()
	out, err := doc.Bytes()
	require.NoError(t, err)
	return string(out)
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"hooks":`},
		{"top level array", `[]`},
		{"top level string", `"x"`},
		{"hooks not object", `{"hooks":[]}`},
		{"event not array", `{"hooks":{"Stop":{"matcher":""}}}`},
		{"matcher not string", `{"hooks":{"Stop":[{"matcher":1,"hooks":[]}]}}`},
		{"command not string", `{"hooks":{"Stop":[{"matcher":"","hooks":[{"type":"command","command":5}]}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument("/tmp/settings.json", LevelProject, []byte(tt.content))
			require.Error(t, err)
			assert.True(t, hookerrors.IsType(err, hookerrors.ErrSettingsParse), "got %v", err)
		})
	}
}

func TestParseDocument_Flatten(t *testing.T) {
	doc := parse(t, `{
	"hooks": {
		"PreToolUse": [
			{"matcher": "Write", "hooks": [{"type":"command","command":"a"},{"type":"command","command":"b","timeout":30}]},
			{"matcher": "Bash", "hooks": [{"type":"command","command":"c"}]}
		],
		"Stop": [{"hooks": [{"type":"command","command":"d"}]}]
	}
}`)

	assert.Equal(t, StateLoaded, doc.State())
	assert.Equal(t, []string{"PreToolUse", "Stop"}, doc.Events())

	pre := doc.HooksFor("PreToolUse")
	require.Len(t, pre, 3)
	assert.Equal(t, FlatEntry{Event: "PreToolUse", Matcher: "Write", Group: 0, Position: 1, Index: 1,
		Entry: HookEntry{Type: "command", Command: "b", Timeout: intPtr(30)}}, pre[1])
	assert.Equal(t, "Bash", pre[2].Matcher)
	assert.Equal(t, 1, pre[2].Group)
	assert.Equal(t, 2, pre[2].Index)

	stop := doc.HooksFor("Stop")
	require.Len(t, stop, 1)
	assert.Equal(t, "", stop[0].Matcher)
	assert.Equal(t, 0, stop[0].Index)
}

func TestDocument_RoundTrip(t *testing.T) {
	content := `{
  "model": "opus",
  "permissions": {
    "allow": [
      "Bash(npm run test:*)"
    ],
    "deny": []
  },
  "hooks": {
    "PreToolUse": [
      {
        "matcher": "Write|Edit",
        "hooks": [
          {
            "type": "command",
            "command": "check && echo <ok>",
            "timeout": 30,
            "extra": true
          }
        ]
      }
    ]
  },
  "env": {
    "Z": "1",
    "A": "2"
  }
}
`
	doc := parse(t, content)
	assert.Equal(t, content, render(t, doc))
	assert.Equal(t, []string{"model", "permissions", "hooks", "env"}, doc.Keys())
}

func TestDocument_RoundTripReindents(t *testing.T) {
	doc := parse(t, `{"b":{"x":[1,2]},"a":"v"}`)
	assert.Equal(t, "{\n  \"b\": {\n    \"x\": [\n      1,\n      2\n    ]\n  },\n  \"a\": \"v\"\n}\n", render(t, doc))
}

// An empty file gains a hooks section holding one group for the new entry.
func TestAddHook_EmptyDocument(t *testing.T) {
	doc := parse(t, `{}`)

	added, err := doc.AddHook("SessionStart", "", HookEntry{Command: "echo hi"})
	require.NoError(t, err)
	assert.Equal(t, 0, added.Index)
	assert.Equal(t, "command", added.Entry.Type)
	assert.Equal(t, StateModified, doc.State())

	want := `{
  "hooks": {
    "SessionStart": [
      {
        "matcher": "",
        "hooks": [
          {
            "type": "command",
            "command": "echo hi"
          }
        ]
      }
    ]
  }
}
`
	assert.Equal(t, want, render(t, doc))
	assert.JSONEq(t, `{"hooks":{"SessionStart":[{"matcher":"","hooks":[{"type":"command","command":"echo hi"}]}]}}`, render(t, doc))
}

func TestAddHook_Grouping(t *testing.T) {
	doc := parse(t, `{"hooks":{"PreToolUse":[{"matcher":"Write","hooks":[{"type":"command","command":"a"}]},{"matcher":"Bash","hooks":[{"type":"command","command":"b"}]}]}}`)

	added, err := doc.AddHook("PreToolUse", "Write", HookEntry{Command: "c", Timeout: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, 1, added.Index)
	assert.Equal(t, 0, added.Group)

	added, err = doc.AddHook("PreToolUse", "Read", HookEntry{Type: "command", Command: "d"})
	require.NoError(t, err)
	assert.Equal(t, 3, added.Index)
	assert.Equal(t, 2, added.Group)

	groups := doc.Groups("PreToolUse")
	require.Len(t, groups, 3)
	assert.Len(t, groups[0].Hooks, 2)
	assert.Equal(t, "Read", groups[2].Matcher)
}

func TestAddHook_PreservesOtherKeys(t *testing.T) {
	doc := parse(t, `{"z":1,"hooks":{"Stop":[]},"a":{"k":"v"}}`)

	_, err := doc.AddHook("Notification", "", HookEntry{Command: "notify"})
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "hooks", "a"}, doc.Keys())
	raw, _ := doc.Get("a")
	assert.JSONEq(t, `{"k":"v"}`, string(raw))
}

func TestAddHook_Validation(t *testing.T) {
	tests := []struct {
		name      string
		event     string
		matcher   string
		entry     HookEntry
		wantType  hookerrors.ErrorType
		wantField string
	}{
		{"empty command", "Stop", "", HookEntry{Command: "  "}, hookerrors.ErrValidation, "command"},
		{"zero timeout", "Stop", "", HookEntry{Command: "x", Timeout: intPtr(0)}, hookerrors.ErrValidation, "timeout"},
		{"negative timeout", "Stop", "", HookEntry{Command: "x", Timeout: intPtr(-5)}, hookerrors.ErrValidation, "timeout"},
		{"missing matcher", "PreToolUse", "", HookEntry{Command: "x"}, hookerrors.ErrValidation, "matcher"},
		{"post missing matcher", "PostToolUse", "", HookEntry{Command: "x"}, hookerrors.ErrValidation, "matcher"},
		{"foreign type", "Stop", "", HookEntry{Type: "prompt", Command: "x"}, hookerrors.ErrValidation, "type"},
		{"unknown event", "BeforeLunch", "", HookEntry{Command: "x"}, hookerrors.ErrInvalidEvent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, `{"other":1}`)
			before := render(t, doc)

			_, err := doc.AddHook(tt.event, tt.matcher, tt.entry)
			require.Error(t, err)
			e, ok := hookerrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, e.Type)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, e.Context["Field"])
			}

			assert.Equal(t, before, render(t, doc))
			assert.Equal(t, StateLoaded, doc.State())
		})
	}
}

func TestRemoveHook_LastEntryRemovesGroupAndEvent(t *testing.T) {
	doc := parse(t, `{"other":"value","hooks":{"Stop":[{"matcher":"","hooks":[{"type":"command","command":"a"}]}]}}`)

	removed, err := doc.RemoveHook("Stop", 0)
	require.NoError(t, err)
	assert.Equal(t, "a", removed.Entry.Command)

	assert.JSONEq(t, `{"other":"value","hooks":{}}`, render(t, doc))
	assert.Empty(t, doc.Hooks())
}

func TestRemoveHook_KeepsNonEmptyGroup(t *testing.T) {
	doc := parse(t, `{"hooks":{"Stop":[{"matcher":"","hooks":[{"type":"command","command":"a"},{"type":"command","command":"b"}]},{"matcher":"","hooks":[{"type":"command","command":"c"}]}]}}`)

	_, err := doc.RemoveHook("Stop", 0)
	require.NoError(t, err)

	stop := doc.HooksFor("Stop")
	require.Len(t, stop, 2)
	assert.Equal(t, "b", stop[0].Entry.Command)
	assert.Equal(t, "c", stop[1].Entry.Command)

	_, err = doc.RemoveHook("Stop", 1)
	require.NoError(t, err)
	assert.Len(t, doc.Groups("Stop"), 1)
}

func TestIndexBounds(t *testing.T) {
	content := `{"hooks":{"PreToolUse":[{"matcher":"Write","hooks":[{"type":"command","command":"a"},{"type":"command","command":"b"}]}]}}`

	for _, index := range []int{2, 5, -1} {
		doc := parse(t, content)
		before := render(t, doc)

		_, err := doc.UpdateHook("PreToolUse", index, HookPatch{Command: strPtr("x")})
		assert.True(t, hookerrors.IsType(err, hookerrors.ErrIndexOutOfRange), "update %d: %v", index, err)

		_, err = doc.RemoveHook("PreToolUse", index)
		assert.True(t, hookerrors.IsType(err, hookerrors.ErrIndexOutOfRange), "remove %d: %v", index, err)

		assert.Equal(t, before, render(t, doc))
		assert.Equal(t, StateLoaded, doc.State())
	}
}

func TestIndexOutOfRange_Context(t *testing.T) {
	doc := parse(t, `{"hooks":{"PreToolUse":[{"matcher":"*","hooks":[{"type":"command","command":"a"},{"type":"command","command":"b"}]}]}}`)

	_, err := doc.UpdateHook("PreToolUse", 5, HookPatch{})
	e, ok := hookerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "PreToolUse", e.Context["Event"])
	assert.Equal(t, "5", e.Context["Index"])
	assert.Equal(t, "2", e.Context["Hooks"])
}

func TestUpdateHook_PatchesSuppliedFields(t *testing.T) {
	doc := parse(t, `{"hooks":{"Stop":[{"matcher":"","hooks":[{"type":"command","command":"a","timeout":10}]}]}}`)

	updated, err := doc.UpdateHook("Stop", 0, HookPatch{Command: strPtr("b")})
	require.NoError(t, err)
	assert.Equal(t, "b", updated.Entry.Command)
	assert.Equal(t, intPtr(10), updated.Entry.Timeout)

	updated, err = doc.UpdateHook("Stop", 0, HookPatch{Timeout: intPtr(20)})
	require.NoError(t, err)
	assert.Equal(t, "b", updated.Entry.Command)
	assert.Equal(t, intPtr(20), updated.Entry.Timeout)

	_, err = doc.UpdateHook("Stop", 0, HookPatch{Command: strPtr("")})
	assert.True(t, hookerrors.IsType(err, hookerrors.ErrValidation))
	assert.Equal(t, "b", doc.HooksFor("Stop")[0].Entry.Command)
}

func TestUpdateHook_MatcherChangeKeepsIndex(t *testing.T) {
	doc := parse(t, `{"hooks":{"PreToolUse":[
		{"matcher":"Bash","hooks":[{"type":"command","command":"z"}]},
		{"matcher":"Write","hooks":[{"type":"command","command":"a"},{"type":"command","command":"b"},{"type":"command","command":"c"}]}
	]}}`)

	updated, err := doc.UpdateHook("PreToolUse", 2, HookPatch{Matcher: strPtr("Edit")})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Index)
	assert.Equal(t, "Edit", updated.Matcher)
	assert.Equal(t, "b", updated.Entry.Command)

	var got []string
	for _, e := range doc.HooksFor("PreToolUse") {
		got = append(got, e.Matcher+":"+e.Entry.Command)
	}
	assert.Equal(t, []string{"Bash:z", "Write:a", "Edit:b", "Write:c"}, got)
	assert.Len(t, doc.Groups("PreToolUse"), 4)
}

func TestUpdateHook_MatcherChangeSingleEntryGroup(t *testing.T) {
	doc := parse(t, `{"hooks":{"PreToolUse":[{"matcher":"Write","hooks":[{"type":"command","command":"a"}]}]}}`)

	_, err := doc.UpdateHook("PreToolUse", 0, HookPatch{Matcher: strPtr("Edit")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hooks":{"PreToolUse":[{"matcher":"Edit","hooks":[{"type":"command","command":"a"}]}]}}`, render(t, doc))

	_, err = doc.UpdateHook("PreToolUse", 0, HookPatch{Matcher: strPtr("")})
	assert.True(t, hookerrors.IsType(err, hookerrors.ErrValidation))
}

// Entries written by the store only ever carry type, command and timeout.
func TestFieldWhitelist(t *testing.T) {
	doc := parse(t, `{"hooks":{"Stop":[{"matcher":"","note":"x","hooks":[{"type":"command","command":"a","extra":1,"timeout":5}]}]}}`)

	_, err := doc.AddHook("Stop", "", HookEntry{Command: "b"})
	require.NoError(t, err)
	_, err = doc.UpdateHook("Stop", 0, HookPatch{Command: strPtr("a2")})
	require.NoError(t, err)

	var parsed struct {
		Hooks map[string][]map[string]json.RawMessage `json:"hooks"`
	}
	require.NoError(t, json.Unmarshal([]byte(render(t, doc)), &parsed))

	for _, group := range parsed.Hooks["Stop"] {
		for key := range group {
			assert.Contains(t, []string{"matcher", "hooks"}, key)
		}
		var entries []map[string]any
		require.NoError(t, json.Unmarshal(group["hooks"], &entries))
		for _, entry := range entries {
			for key := range entry {
				assert.Contains(t, []string{"type", "command", "timeout"}, key)
			}
			assert.Equal(t, "command", entry["type"])
		}
	}
}

func TestDocument_StateTransitions(t *testing.T) {
	doc := newDocument("/tmp/none/settings.json", LevelUser)
	assert.Equal(t, StateNotFound, doc.State())
	assert.False(t, doc.Modified())

	_, err := doc.AddHook("Stop", "", HookEntry{Command: "a"})
	require.NoError(t, err)
	assert.Equal(t, StateCreated, doc.State())

	_, err = doc.AddHook("Stop", "", HookEntry{Command: "b"})
	require.NoError(t, err)
	assert.Equal(t, StateCreated, doc.State())
	assert.True(t, doc.Modified())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "not-found", StateNotFound.String())
	assert.Equal(t, "saved", StateSaved.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestDocument_Env(t *testing.T) {
	env, err := parse(t, `{"env":{"A":"1","B":""}}`).Env()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": ""}, env)

	env, err = parse(t, `{"hooks":{}}`).Env()
	require.NoError(t, err)
	assert.Empty(t, env)

	_, err = parse(t, `{"env":{"A":1}}`).Env()
	assert.True(t, hookerrors.IsType(err, hookerrors.ErrSettingsParse))
}

func TestParseDocument_LenientTimeout(t *testing.T) {
	doc := parse(t, `{"hooks":{"Stop":[{"matcher":"","hooks":[
  {"type":"command","command":"a","timeout":30.0},
  {"type":"command","command":"b","timeout":"30"},
  {"type":"command","command":"c","timeout":1.5}
]}]}}`)

	stop := doc.HooksFor("Stop")
	require.Len(t, stop, 3)
	assert.Equal(t, intPtr(30), stop[0].Entry.Timeout)
	assert.Nil(t, stop[1].Entry.Timeout)
	assert.Nil(t, stop[2].Entry.Timeout)

	report, err := Validate(doc)
	require.NoError(t, err)
	timeout := issuesFor(report, "timeout")
	require.Len(t, timeout, 2)
	assert.Equal(t, 1, timeout[0].Index)
	assert.Equal(t, `timeout must be a whole number of seconds, got "30"`, timeout[0].Message)
	assert.Equal(t, 2, timeout[1].Index)
	assert.Equal(t, SeverityError, timeout[1].Severity)

	// Rewriting the group keeps values that could not be decoded.
	_, err = doc.AddHook("Stop", "", HookEntry{Command: "d"})
	require.NoError(t, err)
	out := render(t, doc)
	assert.Contains(t, out, `"timeout": 30`)
	assert.Contains(t, out, `"timeout": "30"`)
	assert.Contains(t, out, `"timeout": 1.5`)

	_, err = doc.UpdateHook("Stop", 1, HookPatch{Command: strPtr("b2")})
	assert.True(t, hookerrors.IsType(err, hookerrors.ErrValidation), "got %v", err)

	updated, err := doc.UpdateHook("Stop", 1, HookPatch{Timeout: intPtr(45)})
	require.NoError(t, err)
	assert.Equal(t, intPtr(45), updated.Entry.Timeout)
	assert.NotContains(t, render(t, doc), `"timeout": "30"`)
}
