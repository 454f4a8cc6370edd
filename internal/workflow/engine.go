// Package workflow provides the durable-execution collaborator the
// classification orchestrator resumes against after a crash: a
// deterministic-replay-free write-ahead of each stage's result, a
// durable sleep, and a fire-and-forget ingress call. There is no
// coroutine/actor runtime underneath (see DESIGN.md's replacement of
// the source's durable-workflow runtime): a step's result is simply
// written to a keyed store before the step is considered complete, and
// re-entry reads the key back instead of re-running the step.
package workflow

import (
	"context"
	"time"
)

// StepFunc performs one durable step's work, returning the bytes to
// persist under its key.
type StepFunc func(ctx context.Context) ([]byte, error)

// Engine is the durable workflow substrate collaborator.
type Engine interface {
	// RunStep persists fn's return value under key on first execution;
	// on re-entry (the key already has a persisted value) it returns the
	// persisted bytes without calling fn.
	RunStep(ctx context.Context, key string, fn StepFunc) ([]byte, error)
	// Sleep durably waits d before returning; a crash mid-sleep resumes
	// the wait from scratch, since no partial-sleep state is persisted.
	Sleep(ctx context.Context, d time.Duration) error
	// SubmitIngress fires a workflow start at serviceName and returns
	// immediately with a trace id; it does not wait for completion.
	SubmitIngress(ctx context.Context, serviceName string, payload []byte) (traceID string, err error)
}
