package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs int32
	fail bool
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.runs, 1)
	if j.fail {
		return assert.AnError
	}
	return nil
}

func TestScheduler_RunNow_ExecutesImmediately(t *testing.T) {
	s := New(zerolog.Nop(), time.Second)
	job := &countingJob{name: "sweep"}

	err := s.RunNow(context.Background(), job)

	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&job.runs))
}

func TestScheduler_RunNow_PropagatesJobError(t *testing.T) {
	s := New(zerolog.Nop(), time.Second)
	job := &countingJob{name: "sweep", fail: true}

	err := s.RunNow(context.Background(), job)

	assert.Error(t, err)
}

func TestScheduler_AddJob_RunsOnSchedule(t *testing.T) {
	s := New(zerolog.Nop(), time.Second)
	job := &countingJob{name: "tick"}

	require.NoError(t, s.AddJob("@every 10ms", job))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.runs) >= 2
	}, time.Second, 5*time.Millisecond)
}
