package hooks

// fieldType is the JSON primitive a required payload field must decode to.
type fieldType int

const (
	stringField fieldType = iota
	boolField
	objectField
)

func (t fieldType) String() string {
	switch t {
	case stringField:
		return "string"
	case boolField:
		return "boolean"
	case objectField:
		return "JSON object"
	default:
		return "value"
	}
}

func (t fieldType) matches(v any) bool {
	switch t {
	case stringField:
		_, ok := v.(string)
		return ok
	case boolField:
		_, ok := v.(bool)
		return ok
	case objectField:
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}

type field struct {
	name string
	typ  fieldType
}

// commonFields are checked, in order, before the payload is classified.
var commonFields = [...]field{
	{"session_id", stringField},
	{"transcript_path", stringField},
	{"hook_event_name", stringField},
}

// kindFields lists the fields each kind requires, in validation order.
// Read-only after package init.
var kindFields = map[EventKind][]field{
	PreToolUse: {
		{"tool_name", stringField},
		{"tool_input", objectField},
	},
	PostToolUse: {
		{"tool_name", stringField},
		{"tool_input", objectField},
		{"tool_response", objectField},
	},
	Notification: {
		{"message", stringField},
	},
	UserPromptSubmit: {
		{"prompt", stringField},
	},
	Stop: {
		{"stop_hook_active", boolField},
	},
	SubagentStop: {
		{"stop_hook_active", boolField},
	},
	PreCompact: {
		{"trigger", stringField},
		{"custom_instructions", stringField},
	},
	SessionStart: {
		{"source", stringField},
	},
	SessionEnd: {
		{"reason", stringField},
	},
}

// RequiredFields returns the payload keys a kind requires, common fields
// first, in the order they are validated.
func RequiredFields(kind EventKind) []string {
	names := make([]string, 0, len(commonFields)+len(kindFields[kind]))
	for _, f := range commonFields {
		names = append(names, f.name)
	}
	for _, f := range kindFields[kind] {
		names = append(names, f.name)
	}
	return names
}

func checkFields(data map[string]any, kind EventKind, fields []field) error {
	for _, f := range fields {
		v, ok := data[f.name]
		if !ok {
			return &HookValidationError{Kind: kind, Field: f.name, Expected: f.typ.String(), Missing: true}
		}
		if !f.typ.matches(v) {
			return &HookValidationError{Kind: kind, Field: f.name, Expected: f.typ.String()}
		}
	}
	return nil
}
