package workflow

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"
)

// RunStepValue is RunStep generalized over a typed payload: fn returns a
// Go value, which is msgpack-encoded before being handed to the
// underlying Engine, and msgpack-decoded back into T whether it came
// from a fresh call to fn or from a persisted re-entry.
func RunStepValue[T any](ctx context.Context, eng Engine, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	raw, err := eng.RunStep(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return msgpack.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := msgpack.Unmarshal(raw, &out); err != nil {
		return zero, err
	}
	return out, nil
}
