package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mailru/easyjson/jlexer"
)

// Object is a JSON object whose members keep their source order. Values are
// held as raw JSON and only decoded on demand.
type Object struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]json.RawMessage)}
}

// ParseObject scans data, which must hold exactly one JSON object. A key that
// appears twice keeps its first position and its last value.
func ParseObject(data []byte) (*Object, error) {
	in := &jlexer.Lexer{Data: data}
	obj := NewObject()

	if in.IsNull() {
		in.Skip()
		return nil, fmt.Errorf("expected JSON object, got null")
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := strings.Clone(in.UnsafeFieldName(false))
		in.WantColon()
		raw := in.Raw()
		if in.Ok() {
			if !json.Valid(raw) {
				return nil, fmt.Errorf("invalid JSON value for key %q", key)
			}
			obj.Set(key, bytes.Clone(raw))
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()

	if err := in.Error(); err != nil {
		return nil, err
	}
	return obj, nil
}

// Keys returns the member names in order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Get returns the raw value stored under key.
func (o *Object) Get(key string) (json.RawMessage, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set stores raw under key. New keys are appended; existing keys keep
// their position.
func (o *Object) Set(key string, raw json.RawMessage) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = raw
}

// SetValue marshals v and stores it under key.
func (o *Object) SetValue(key string, v any) error {
	raw, err := Marshal(v)
	if err != nil {
		return err
	}
	o.Set(key, raw)
	return nil
}

// Delete removes key, if present.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// MarshalJSON writes the members compactly, in order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := json.Compact(&buf, o.values[k]); err != nil {
			return nil, fmt.Errorf("member %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Indent renders the object with two-space indentation and a trailing
// newline. Member values are re-indented but otherwise left as they were.
func (o *Object) Indent() ([]byte, error) {
	if len(o.keys) == 0 {
		return []byte("{}\n"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range o.keys {
		buf.WriteString("  ")
		if err := writeKey(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteString(": ")
		if err := json.Indent(&buf, o.values[k], "  ", "  "); err != nil {
			return nil, fmt.Errorf("member %q: %w", k, err)
		}
		if i < len(o.keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, k string) error {
	b, err := Marshal(k)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
