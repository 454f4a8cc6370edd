package llm

import (
	"context"
	"time"

	"github.com/econindex/classifier/internal/errs"
)

// BackoffBase is the first retry's bounded backoff; each subsequent
// retry doubles it.
const BackoffBase = 200 * time.Millisecond

// CallWithRetry invokes cap.GenerateStructured, validating the response
// against schema and retrying on call or schema failure with a doubling
// backoff, for at most opts.MaxRetries attempts in total (one attempt
// when MaxRetries is not positive). It returns
// errs.KindSchemaValidation wrapped as errs.KindStageFailure once
// retries are exhausted — terminal for the calling indicator, but never
// fatal to the batch.
func CallWithRetry(ctx context.Context, step string, capability Capability, prompt string, schema Schema, opts Options) (map[string]interface{}, error) {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error
	backoff := BackoffBase
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		response, err := capability.GenerateStructured(ctx, prompt, schema, opts)
		if err != nil {
			lastErr = errs.SchemaValidation(step, "generateStructured call failed", err)
			continue
		}
		if schemaErr := schema.Validate(response); schemaErr != nil {
			lastErr = errs.SchemaValidation(step, "response failed schema validation", schemaErr)
			continue
		}
		return response, nil
	}

	return nil, errs.StageFailure(step, "schema validation retries exhausted", lastErr)
}
