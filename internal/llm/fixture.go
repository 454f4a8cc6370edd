package llm

import (
	"context"
	"fmt"
	"sync"
)

// FixtureCapability is a deterministic test double: it returns a
// pre-recorded response keyed by schema name, optionally failing a
// configured number of times before succeeding, and it counts every
// call it receives so tests can assert exactly how many LLM calls a
// scenario made (see S4's "no stage executed twice" property).
type FixtureCapability struct {
	mu sync.Mutex

	// Responses maps a schema name to the response FixtureCapability
	// returns for calls against that schema.
	Responses map[string]map[string]interface{}
	// FailuresBeforeSuccess maps a schema name to how many times a call
	// against that schema should return an error before succeeding.
	FailuresBeforeSuccess map[string]int

	calls      int
	callsByKey map[string]int
}

// NewFixtureCapability builds a FixtureCapability with no canned
// responses; callers populate Responses before use.
func NewFixtureCapability() *FixtureCapability {
	return &FixtureCapability{
		Responses:             map[string]map[string]interface{}{},
		FailuresBeforeSuccess: map[string]int{},
		callsByKey:            map[string]int{},
	}
}

// GenerateStructured returns the canned response for schema.Name,
// failing FailuresBeforeSuccess[schema.Name] times first if configured.
func (f *FixtureCapability) GenerateStructured(_ context.Context, _ string, schema Schema, _ Options) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.callsByKey[schema.Name]++

	if remaining := f.FailuresBeforeSuccess[schema.Name]; remaining > 0 {
		f.FailuresBeforeSuccess[schema.Name] = remaining - 1
		return nil, fmt.Errorf("fixture: configured failure for schema %q", schema.Name)
	}

	response, ok := f.Responses[schema.Name]
	if !ok {
		return nil, fmt.Errorf("fixture: no response configured for schema %q", schema.Name)
	}
	return response, nil
}

// CallCount returns the total number of GenerateStructured calls observed.
func (f *FixtureCapability) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// CallCountFor returns the number of GenerateStructured calls observed
// for the given schema name.
func (f *FixtureCapability) CallCountFor(schemaName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callsByKey[schemaName]
}
