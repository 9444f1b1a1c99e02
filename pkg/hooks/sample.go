package hooks

import "encoding/json"

// SamplePayload returns a valid payload for kind, suitable for feeding a hook
// under test. It returns nil for an unknown kind.
func SamplePayload(kind EventKind) []byte {
	if !kind.IsValid() {
		return nil
	}

	p := map[string]any{
		"session_id":      "sample-session",
		"transcript_path": "/tmp/sample-transcript.jsonl",
		"hook_event_name": string(kind),
		"cwd":             "/tmp",
	}

	switch kind {
	case PreToolUse:
		p["tool_name"] = "Bash"
		p["tool_input"] = map[string]any{"command": "echo hello"}
	case PostToolUse:
		p["tool_name"] = "Bash"
		p["tool_input"] = map[string]any{"command": "echo hello"}
		p["tool_response"] = map[string]any{"stdout": "hello\n", "stderr": "", "interrupted": false}
	case Notification:
		p["message"] = "Claude needs your permission to use Bash"
	case UserPromptSubmit:
		p["prompt"] = "Write a function that reverses a string"
	case Stop, SubagentStop:
		p["stop_hook_active"] = false
	case PreCompact:
		p["trigger"] = "manual"
		p["custom_instructions"] = ""
	case SessionStart:
		p["source"] = "startup"
	case SessionEnd:
		p["reason"] = "exit"
	}

	data, _ := json.Marshal(p)
	return data
}
