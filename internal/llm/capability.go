// Package llm defines the classification orchestrator's collaborator
// boundary with a structured-output language model: a single
// generateStructured call per stage, validated against a schema
// descriptor, with a deterministic fixture double for tests. The
// {schema descriptor, parser} pairing returning a tagged Ok/SchemaError
// result, instead of ad-hoc dynamically-typed response validation, is
// this package's own design choice (see DESIGN.md), grounded on this
// module's existing closed-taxonomy error style in internal/errs.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Schema describes the shape an LLM response must conform to: which
// fields are required and, for enum-constrained fields, which values
// are legal. It intentionally stays this simple (no nested schemas,
// no JSON-schema interop) since the six classification stages only
// ever emit flat records of strings, numbers, bools and string enums.
type Schema struct {
	Name       string
	Required   []string
	EnumFields map[string][]string
}

// Validate checks a decoded response map against the schema: every
// required field must be present and non-nil, and every enum field's
// value (when present) must be one of the declared legal values.
func (s Schema) Validate(response map[string]interface{}) *SchemaError {
	for _, field := range s.Required {
		if v, ok := response[field]; !ok || v == nil {
			return &SchemaError{Path: field, Reason: "required field missing"}
		}
	}
	for field, allowed := range s.EnumFields {
		v, ok := response[field]
		if !ok || v == nil {
			continue
		}
		sv, ok := v.(string)
		if !ok {
			return &SchemaError{Path: field, Reason: "enum field is not a string"}
		}
		if !contains(allowed, sv) {
			return &SchemaError{Path: field, Reason: fmt.Sprintf("value %q is not one of the allowed enum values", sv)}
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// SchemaError is a total, structured description of a validation
// failure: the offending field path and the reason, never a bare
// string match.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string { return e.Path + ": " + e.Reason }

// Options configures one generateStructured call.
type Options struct {
	Temperature float64
	MaxRetries  int
	ModelName   string
	Timeout     time.Duration
}

// DefaultOptions returns the documented per-stage defaults: 3 retries,
// a 60-second timeout appropriate for a remote model.
func DefaultOptions() Options {
	return Options{MaxRetries: 3, Timeout: 60 * time.Second}
}

// Capability is the structured-output language model collaborator.
// Implementations must either return a response conforming to schema
// or a non-nil error; they must never return a response that fails
// schema.Validate.
type Capability interface {
	GenerateStructured(ctx context.Context, prompt string, schema Schema, opts Options) (map[string]interface{}, error)
}
