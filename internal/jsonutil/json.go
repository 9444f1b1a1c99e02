// Package jsonutil provides order-preserving JSON objects and encoding with
// consistent formatting.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal encodes v compactly without escaping <, > and &.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalIndentWithNewline is like json.MarshalIndent but adds a trailing
// newline and leaves HTML characters alone, so shell commands such as
// "a && b" survive a round trip unchanged.
func MarshalIndentWithNewline(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return buf.Bytes(), nil
}
