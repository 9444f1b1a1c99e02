package settings

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed hooks.schema.json
var hooksSchemaJSON []byte

const hooksSchemaURL = "hooks.schema.json"

var compileHooksSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(hooksSchemaURL, bytes.NewReader(hooksSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(hooksSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// SchemaViolation is one failed schema keyword.
type SchemaViolation struct {
	// Location is a JSON pointer into the hooks object, e.g. /Stop/0/hooks/0/command.
	Location string
	Message  string
}

// ValidateHooksSchema checks the raw "hooks" value against the embedded
// schema and returns every leaf violation, sorted by location.
func ValidateHooksSchema(raw json.RawMessage) ([]SchemaViolation, error) {
	schema, err := compileHooksSchema()
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode hooks: %w", err)
	}

	err = schema.Validate(value)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}

	var violations []SchemaViolation
	collectViolations(verr, &violations)
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Location < violations[j].Location
	})
	return violations, nil
}

func collectViolations(verr *jsonschema.ValidationError, out *[]SchemaViolation) {
	if len(verr.Causes) == 0 {
		loc := verr.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, SchemaViolation{Location: loc, Message: verr.Message})
		return
	}
	for _, cause := range verr.Causes {
		collectViolations(cause, out)
	}
}
