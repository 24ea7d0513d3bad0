package gateway

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/flemzord/gatehouse/internal/tool"
)

// schemaCache compiles each tool's input schema once and reuses it for
// every subsequent invocation. Definitions are immutable, so a compiled
// schema never goes stale.
type schemaCache struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{compiled: make(map[string]*jsonschema.Schema)}
}

func (c *schemaCache) get(def tool.Definition) (*jsonschema.Schema, error) {
	c.mu.RLock()
	sch, ok := c.compiled[def.Name]
	c.mu.RUnlock()
	if ok {
		return sch, nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def.InputSchema))
	if err != nil {
		return nil, fmt.Errorf("tool %s: parsing input schema: %w", def.Name, err)
	}

	url := def.Name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("tool %s: adding schema resource: %w", def.Name, err)
	}
	sch, err = compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("tool %s: compiling input schema: %w", def.Name, err)
	}

	c.mu.Lock()
	c.compiled[def.Name] = sch
	c.mu.Unlock()
	return sch, nil
}

// validate checks raw inputs against a compiled schema and converts the
// outcome into a *ValidationError with field-level detail.
func validateInputs(sch *jsonschema.Schema, raw []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ValidationError{Fields: []FieldError{{
			Field:   "/",
			Message: "inputs are not valid JSON: " + err.Error(),
		}}}
	}

	if err := sch.Validate(inst); err != nil {
		return &ValidationError{Fields: fieldErrors(err)}
	}
	return nil
}

// fieldErrors flattens a jsonschema validation error into per-field
// messages keyed by JSON pointer.
func fieldErrors(err error) []FieldError {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []FieldError{{Field: "/", Message: err.Error()}}
	}

	printer := message.NewPrinter(language.English)
	var out []FieldError
	var walk func(v *jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			out = append(out, FieldError{
				Field:   "/" + strings.Join(v.InstanceLocation, "/"),
				Message: v.ErrorKind.LocalizedString(printer),
			})
			return
		}
		for _, cause := range v.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return out
}
