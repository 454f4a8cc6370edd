package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileEngine_RunStep_PersistsAndShortCircuits(t *testing.T) {
	eng, err := NewFileEngine(t.TempDir())
	require.NoError(t, err)

	calls := 0
	fn := func(context.Context) ([]byte, error) {
		calls++
		return []byte("stage-1-result"), nil
	}

	first, err := eng.RunStep(context.Background(), "indicator-1:normalization", fn)
	require.NoError(t, err)
	assert.Equal(t, "stage-1-result", string(first))

	second, err := eng.RunStep(context.Background(), "indicator-1:normalization", fn)
	require.NoError(t, err)
	assert.Equal(t, "stage-1-result", string(second))
	assert.Equal(t, 1, calls, "fn must not be called again on re-entry")
}

func TestFileEngine_ForceRunStep_ReRunsAfterClearing(t *testing.T) {
	eng, err := NewFileEngine(t.TempDir())
	require.NoError(t, err)

	calls := 0
	fn := func(context.Context) ([]byte, error) {
		calls++
		return []byte{byte(calls)}, nil
	}

	_, err = eng.RunStep(context.Background(), "indicator-1:normalization", fn)
	require.NoError(t, err)

	out, err := eng.ForceRunStep(context.Background(), "indicator-1:normalization", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, byte(2), out[0])
}

func TestFileEngine_RunStep_PropagatesStepError(t *testing.T) {
	eng, err := NewFileEngine(t.TempDir())
	require.NoError(t, err)

	_, err = eng.RunStep(context.Background(), "indicator-1:normalization", func(context.Context) ([]byte, error) {
		return nil, assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
}

func TestFileEngine_Sleep_ReturnsAfterDuration(t *testing.T) {
	eng, err := NewFileEngine(t.TempDir())
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, eng.Sleep(context.Background(), 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestFileEngine_SubmitIngress_ReturnsUniqueTraceIDs(t *testing.T) {
	eng, err := NewFileEngine(t.TempDir())
	require.NoError(t, err)

	id1, err := eng.SubmitIngress(context.Background(), "classifier", []byte("payload-1"))
	require.NoError(t, err)
	id2, err := eng.SubmitIngress(context.Background(), "classifier", []byte("payload-2"))
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestRunStepValue_RoundTripsTypedPayload(t *testing.T) {
	eng, err := NewFileEngine(t.TempDir())
	require.NoError(t, err)

	type payload struct {
		Scale string
		Ok    bool
	}

	out, err := RunStepValue(context.Background(), eng, "indicator-1:typed", func(context.Context) (payload, error) {
		return payload{Scale: "millions", Ok: true}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "millions", out.Scale)
	assert.True(t, out.Ok)
}
