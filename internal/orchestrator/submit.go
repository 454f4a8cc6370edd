package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/workflow"
)

// submitPayload is what SubmitBatch hands the workflow engine's ingress
// call, kept small (indicator IDs only) since the descriptors themselves
// are already durable in the caller's own request.
type submitPayload struct {
	IndicatorIDs []string `json:"indicatorIds"`
	Force        bool     `json:"force"`
}

// SubmitBatch fires a durable ingress call for descriptors and returns its
// trace id immediately, then runs the batch asynchronously in the
// background: the HTTP submission endpoint never blocks on LLM latency.
// Each indicator's own progress is still durable independent of this
// call returning — RunIndicator persists every completed stage before
// SubmitBatch's goroutine would ever be interrupted.
func (o *Orchestrator) SubmitBatch(ctx context.Context, engine workflow.Engine, descriptors []models.IndicatorDescriptor, force bool) (string, error) {
	ids := make([]string, len(descriptors))
	for i, d := range descriptors {
		ids[i] = d.ID
	}
	payload, err := json.Marshal(submitPayload{IndicatorIDs: ids, Force: force})
	if err != nil {
		return "", fmt.Errorf("failed to encode submit payload: %w", err)
	}

	traceID, err := engine.SubmitIngress(ctx, "classify-batch", payload)
	if err != nil {
		return "", fmt.Errorf("failed to submit batch ingress: %w", err)
	}

	go o.RunBatch(context.Background(), descriptors, force)

	return traceID, nil
}
