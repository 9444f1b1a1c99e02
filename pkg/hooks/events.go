package hooks

// EventKind identifies the lifecycle point at which Claude Code invoked a hook.
type EventKind string

const (
	PreToolUse       EventKind = "PreToolUse"
	PostToolUse      EventKind = "PostToolUse"
	Notification     EventKind = "Notification"
	UserPromptSubmit EventKind = "UserPromptSubmit"
	Stop             EventKind = "Stop"
	SubagentStop     EventKind = "SubagentStop"
	PreCompact       EventKind = "PreCompact"
	SessionStart     EventKind = "SessionStart"
	SessionEnd       EventKind = "SessionEnd"
)

var allEventKinds = [...]EventKind{
	PreToolUse,
	PostToolUse,
	Notification,
	UserPromptSubmit,
	Stop,
	SubagentStop,
	PreCompact,
	SessionStart,
	SessionEnd,
}

// EventKinds returns every recognized event kind in declaration order.
func EventKinds() []EventKind {
	kinds := make([]EventKind, len(allEventKinds))
	copy(kinds, allEventKinds[:])
	return kinds
}

// EventNames returns every recognized event kind as a string.
func EventNames() []string {
	names := make([]string, len(allEventKinds))
	for i, k := range allEventKinds {
		names[i] = string(k)
	}
	return names
}

// String returns the event name as it appears in payloads and settings files.
func (k EventKind) String() string {
	return string(k)
}

// IsValid reports whether k is one of the nine recognized kinds.
func (k EventKind) IsValid() bool {
	for _, known := range allEventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// RequiresMatcher reports whether settings entries for this kind must carry
// a non-empty tool matcher.
func (k EventKind) RequiresMatcher() bool {
	return k == PreToolUse || k == PostToolUse
}

// ParseEventKind converts a name into an EventKind, returning false when the
// name is not recognized. Matching is exact.
func ParseEventKind(name string) (EventKind, bool) {
	k := EventKind(name)
	return k, k.IsValid()
}
