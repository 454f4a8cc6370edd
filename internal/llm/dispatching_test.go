package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/errs"
)

type fakeGenerator struct {
	failFor map[string]int
	calls   map[string]int
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{failFor: map[string]int{}, calls: map[string]int{}}
}

func (g *fakeGenerator) Do(ctx context.Context, endpoint config.EndpointConfig, prompt string, schema Schema, opts Options) (map[string]interface{}, error) {
	g.calls[endpoint.Name]++
	if g.failFor[endpoint.Name] > 0 {
		g.failFor[endpoint.Name]--
		return nil, errs.Transport("test.fake_generator", "endpoint down", nil)
	}
	return map[string]interface{}{"family": "price-value", "confidence": 0.9, "reasoning": "ok"}, nil
}

func twoEndpoints() []config.EndpointConfig {
	return []config.EndpointConfig{
		{Name: "primary", BaseURL: "http://primary.local", TimeoutMS: 1000},
		{Name: "secondary", BaseURL: "http://secondary.local", TimeoutMS: 1000},
	}
}

func TestDispatchingCapability_SucceedsOnFirstEndpoint(t *testing.T) {
	gen := newFakeGenerator()
	capability := NewDispatchingCapability(twoEndpoints(), gen, nil)

	resp, err := capability.GenerateStructured(context.Background(), "classify this", Schema{Name: "family"}, DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, "price-value", resp["family"])
	assert.Equal(t, 1, gen.calls["primary"])
	assert.Equal(t, 0, gen.calls["secondary"])
}

func TestDispatchingCapability_FailsOverToSecondEndpoint(t *testing.T) {
	gen := newFakeGenerator()
	gen.failFor["primary"] = 1
	capability := NewDispatchingCapability(twoEndpoints(), gen, nil)

	resp, err := capability.GenerateStructured(context.Background(), "classify this", Schema{Name: "family"}, DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, "price-value", resp["family"])
	assert.Equal(t, 1, gen.calls["primary"])
	assert.Equal(t, 1, gen.calls["secondary"])
}

func TestDispatchingCapability_ExhaustsAllEndpoints(t *testing.T) {
	gen := newFakeGenerator()
	gen.failFor["primary"] = 1
	gen.failFor["secondary"] = 1
	capability := NewDispatchingCapability(twoEndpoints(), gen, nil)

	_, err := capability.GenerateStructured(context.Background(), "classify this", Schema{Name: "family"}, DefaultOptions())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindTransport))
}
