package runner

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lightfastai/cchooks/pkg/hooks"
)

// ParseDecision decodes the JSON decision a hook printed on stdout.
// Output that is not a JSON object is plain text and yields nil with no
// error, the same way Claude Code treats it. An object with fields of the
// wrong type is an error.
func ParseDecision(stdout string) (*hooks.Response, error) {
	trimmed := bytes.TrimSpace([]byte(stdout))
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, nil
	}

	// Claude Code defaults continue to true when the field is absent
	resp := hooks.Response{Continue: true}
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("invalid hook decision: %w", err)
	}
	return &resp, nil
}
