package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/jsonutil"
	"github.com/lightfastai/cchooks/pkg/hooks"
)

// ValidateEvent fails with ErrInvalidEvent unless event is a recognized kind.
func ValidateEvent(event string) error {
	if _, ok := hooks.ParseEventKind(event); !ok {
		return hookerrors.InvalidEvent(event, hooks.EventNames())
	}
	return nil
}

// NormalizeEntry returns entry with an empty type set to "command". Any other
// type is rejected.
func NormalizeEntry(entry HookEntry) (HookEntry, error) {
	switch entry.Type {
	case "":
		entry.Type = CommandType
	case CommandType:
	default:
		return entry, hookerrors.Validation("type", fmt.Sprintf("type must be %q, got %q", CommandType, entry.Type))
	}
	return entry, nil
}

// ValidateEntry checks an entry about to be written under event.
func ValidateEntry(event, matcher string, entry HookEntry) error {
	if err := ValidateEvent(event); err != nil {
		return err
	}
	if entry.Type != CommandType {
		return hookerrors.Validation("type", fmt.Sprintf("type must be %q", CommandType))
	}
	if strings.TrimSpace(entry.Command) == "" {
		return hookerrors.Validation("command", "command must be a non-empty string")
	}
	if entry.Timeout == nil && entry.badTimeout != nil {
		return hookerrors.Validation("timeout", fmt.Sprintf("timeout must be a whole number of seconds, got %s", entry.badTimeout))
	}
	if entry.Timeout != nil && *entry.Timeout <= 0 {
		return hookerrors.Validation("timeout", fmt.Sprintf("timeout must be a positive number of seconds, got %d", *entry.Timeout))
	}
	kind, _ := hooks.ParseEventKind(event)
	if kind.RequiresMatcher() && matcher == "" {
		return hookerrors.Validation("matcher", fmt.Sprintf("%s hooks require a tool matcher (use \"*\" for all tools)", event))
	}
	return nil
}

// ParseHookEntry decodes a caller-supplied JSON entry. Only matcher, type,
// command and timeout are accepted; any other key is rejected by name.
func ParseHookEntry(data []byte) (matcher string, entry HookEntry, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", HookEntry{}, hookerrors.Validation("entry", "hook entry must be a JSON object").WithCause(err)
	}

	for key := range raw {
		switch key {
		case "matcher", "type", "command", "timeout":
		default:
			return "", HookEntry{}, hookerrors.Validation(key, fmt.Sprintf("unknown field %q (allowed: matcher, type, command, timeout)", key))
		}
	}

	if v, ok := raw["matcher"]; ok {
		if err := json.Unmarshal(v, &matcher); err != nil {
			return "", HookEntry{}, hookerrors.Validation("matcher", "matcher must be a string")
		}
	}
	if v, ok := raw["type"]; ok {
		if err := json.Unmarshal(v, &entry.Type); err != nil {
			return "", HookEntry{}, hookerrors.Validation("type", "type must be a string")
		}
	}
	if v, ok := raw["command"]; ok {
		if err := json.Unmarshal(v, &entry.Command); err != nil {
			return "", HookEntry{}, hookerrors.Validation("command", "command must be a string")
		}
	}
	if v, ok := raw["timeout"]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		var timeout int
		if err := json.Unmarshal(v, &timeout); err != nil {
			return "", HookEntry{}, hookerrors.Validation("timeout", "timeout must be an integer")
		}
		entry.Timeout = &timeout
	}

	entry, err = NormalizeEntry(entry)
	if err != nil {
		return "", HookEntry{}, err
	}
	return matcher, entry, nil
}

type hookEntryJSON struct {
	Type    string          `json:"type"`
	Command string          `json:"command"`
	Timeout json.RawMessage `json:"timeout,omitempty"`
}

// UnmarshalJSON accepts any JSON value for timeout so that one hand-edited
// entry does not make the whole file unreadable. Whole numbers such as 30.0
// are taken as seconds; anything else is kept aside for Validate.
func (e *HookEntry) UnmarshalJSON(data []byte) error {
	var raw hookEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = HookEntry{Type: raw.Type, Command: raw.Command}
	if len(raw.Timeout) == 0 || bytes.Equal(raw.Timeout, []byte("null")) {
		return nil
	}

	var seconds float64
	if err := json.Unmarshal(raw.Timeout, &seconds); err == nil && seconds == math.Trunc(seconds) && math.Abs(seconds) <= math.MaxInt32 {
		timeout := int(seconds)
		e.Timeout = &timeout
		return nil
	}
	e.badTimeout = append(json.RawMessage(nil), raw.Timeout...)
	return nil
}

func (e HookEntry) MarshalJSON() ([]byte, error) {
	out := hookEntryJSON{Type: e.Type, Command: e.Command, Timeout: e.badTimeout}
	if e.Timeout != nil {
		out.Timeout = json.RawMessage(strconv.Itoa(*e.Timeout))
	}
	return jsonutil.Marshal(out)
}
