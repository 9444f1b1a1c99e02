package hooks

import "fmt"

// ParseError is returned when the payload is not a JSON object.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid hook payload: %s: %v", e.Reason, e.Err)
	}
	return "invalid hook payload: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidHookTypeError is returned when hook_event_name names no known kind.
type InvalidHookTypeError struct {
	Value string
}

func (e *InvalidHookTypeError) Error() string {
	return fmt.Sprintf("unrecognized hook_event_name %q", e.Value)
}

// HookValidationError is returned when a required payload field is missing
// or has the wrong JSON type. Field always names the offending key.
type HookValidationError struct {
	Kind     EventKind // empty for common fields
	Field    string
	Expected string
	Missing  bool
}

func (e *HookValidationError) Error() string {
	prefix := "hook payload"
	if e.Kind != "" {
		prefix = string(e.Kind) + " payload"
	}
	if e.Missing {
		return fmt.Sprintf("%s: missing required field %q", prefix, e.Field)
	}
	return fmt.Sprintf("%s: field %q must be a %s", prefix, e.Field, e.Expected)
}
