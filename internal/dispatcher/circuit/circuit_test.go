package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{
		FailureThreshold: 3,
		HalfOpenMaxCalls: 2,
		Timeout:          50 * time.Millisecond,
		RequestTimeout:   50 * time.Millisecond,
	}
}

func TestBreaker_ClosedState(t *testing.T) {
	b := NewBreaker("t1", baseConfig())
	assert.Equal(t, StateClosed, b.State())

	err := b.Call(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_OpensOnConsecutiveFailures(t *testing.T) {
	b := NewBreaker("t2", baseConfig())
	for i := 0; i < 3; i++ {
		err := b.Call(context.Background(), func(ctx context.Context) error { return errors.New("boom") })
		assert.Error(t, err)
	}
	assert.Equal(t, StateOpen, b.State())

	err := b.Call(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	cfg := baseConfig()
	cfg.FailureThreshold = 2
	cfg.Timeout = 30 * time.Millisecond
	b := NewBreaker("t3", cfg)

	for i := 0; i < 2; i++ {
		b.Call(context.Background(), func(ctx context.Context) error { return errors.New("boom") })
	}
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(40 * time.Millisecond)

	err := b.Call(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateHalfOpen, b.State())

	err = b.Call(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	cfg := baseConfig()
	cfg.FailureThreshold = 1
	cfg.Timeout = 30 * time.Millisecond
	b := NewBreaker("t4", cfg)

	b.Call(context.Background(), func(ctx context.Context) error { return errors.New("boom") })
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(40 * time.Millisecond)

	err := b.Call(context.Background(), func(ctx context.Context) error { return errors.New("still failing") })
	assert.Error(t, err)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_Timeout(t *testing.T) {
	cfg := baseConfig()
	cfg.RequestTimeout = 20 * time.Millisecond
	b := NewBreaker("t5", cfg)

	err := b.Call(context.Background(), func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		return nil
	})
	assert.ErrorIs(t, err, ErrRequestTimeout)

	stats := b.Stats()
	assert.Equal(t, int64(1), stats.TotalTimeouts)
}

func TestBreaker_Stats(t *testing.T) {
	b := NewBreaker("t6", baseConfig())
	b.Call(context.Background(), func(ctx context.Context) error { return nil })
	b.Call(context.Background(), func(ctx context.Context) error { return errors.New("fail") })
	b.Call(context.Background(), func(ctx context.Context) error { return nil })

	stats := b.Stats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(2), stats.TotalSuccesses)
	assert.Equal(t, int64(1), stats.TotalFailures)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 0.01)
	assert.Equal(t, StateClosed, stats.State)
}

func TestManager_AddAndCallEndpoint(t *testing.T) {
	m := NewManager()
	m.AddEndpoint("primary", baseConfig())

	b, ok := m.GetBreaker("primary")
	require.True(t, ok)
	assert.Equal(t, StateClosed, b.State())

	err := m.Call(context.Background(), "primary", func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestManager_Call_UnregisteredEndpointRunsUnguarded(t *testing.T) {
	m := NewManager()
	err := m.Call(context.Background(), "unknown", func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestManager_Call_OpensAfterFailures(t *testing.T) {
	m := NewManager()
	cfg := baseConfig()
	cfg.FailureThreshold = 1
	m.AddEndpoint("flaky", cfg)

	err := m.Call(context.Background(), "flaky", func(ctx context.Context) error { return errors.New("down") })
	assert.Error(t, err)

	err = m.Call(context.Background(), "flaky", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestManager_UnhealthyEndpoints(t *testing.T) {
	m := NewManager()
	cfg := baseConfig()
	cfg.FailureThreshold = 1
	m.AddEndpoint("healthy", cfg)
	m.AddEndpoint("unhealthy", cfg)

	m.Call(context.Background(), "healthy", func(ctx context.Context) error { return nil })
	m.Call(context.Background(), "unhealthy", func(ctx context.Context) error { return errors.New("down") })

	unhealthy := m.UnhealthyEndpoints()
	require.Len(t, unhealthy, 1)
	assert.Contains(t, unhealthy[0], "unhealthy")
}
