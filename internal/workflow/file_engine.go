package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/econindex/classifier/internal/errs"
)

// FileEngine is a filesystem-backed Engine: each step's checkpoint is
// one file under baseDir, named by a hash of its key, written with
// O_CREATE|O_EXCL so a second writer racing for the same key observes
// the first writer's file rather than clobbering it — the same
// write-once-unless-forced discipline as
// internal/persistence/postgres/stage_result_repo.go's
// `ON CONFLICT (indicator_id, stage_name) DO NOTHING` semantics,
// expressed at the filesystem level instead of over a SQL constraint.
type FileEngine struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileEngine builds a FileEngine rooted at baseDir, creating it if
// it does not already exist.
func NewFileEngine(baseDir string) (*FileEngine, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errs.StageFailure("workflow.new_file_engine", "failed to create base directory", err)
	}
	return &FileEngine{baseDir: baseDir, locks: map[string]*sync.Mutex{}}, nil
}

func (f *FileEngine) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.baseDir, hex.EncodeToString(sum[:])+".step")
}

func (f *FileEngine) lockFor(key string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[key]
	if !ok {
		l = &sync.Mutex{}
		f.locks[key] = l
	}
	return l
}

// RunStep persists fn's return value under key on first execution. A
// concurrent or later call with the same key reads the already-written
// file and never calls fn again.
func (f *FileEngine) RunStep(ctx context.Context, key string, fn StepFunc) ([]byte, error) {
	keyLock := f.lockFor(key)
	keyLock.Lock()
	defer keyLock.Unlock()

	path := f.pathFor(key)
	if existing, err := os.ReadFile(path); err == nil {
		return existing, nil
	} else if !os.IsNotExist(err) {
		return nil, errs.StageFailure("workflow.run_step", "failed to read checkpoint", err)
	}

	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	if err := writeOnce(path, value); err != nil {
		// Lost the race to another process writing the same key: read
		// back whatever it wrote instead of failing the step.
		if os.IsExist(err) {
			if existing, readErr := os.ReadFile(path); readErr == nil {
				return existing, nil
			}
		}
		return nil, errs.StageFailure("workflow.run_step", "failed to persist checkpoint", err)
	}
	return value, nil
}

// ForceRunStep deletes key's existing checkpoint (if any) before
// running it fresh, mirroring stage_result_repo.go's PutForce
// delete-then-insert semantics for the force-reclassify path.
func (f *FileEngine) ForceRunStep(ctx context.Context, key string, fn StepFunc) ([]byte, error) {
	keyLock := f.lockFor(key)
	keyLock.Lock()
	path := f.pathFor(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		keyLock.Unlock()
		return nil, errs.StageFailure("workflow.force_run_step", "failed to clear prior checkpoint", err)
	}
	keyLock.Unlock()
	return f.RunStep(ctx, key, fn)
}

func writeOnce(path string, value []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.Write(value)
	return err
}

// Sleep durably waits d, returning early if ctx is cancelled.
func (f *FileEngine) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitIngress is fire-and-forget: it hands payload to the given
// service name and immediately returns a generated trace id. FileEngine
// does not itself dispatch anywhere; it exists to exercise the Engine
// contract in tests and single-process deployments, so it simply
// records the submission as a checkpoint keyed by the returned trace id.
func (f *FileEngine) SubmitIngress(ctx context.Context, serviceName string, payload []byte) (string, error) {
	traceID := uuid.NewString()
	key := fmt.Sprintf("ingress:%s:%s", serviceName, traceID)
	if _, err := f.RunStep(ctx, key, func(context.Context) ([]byte, error) {
		return payload, nil
	}); err != nil {
		return "", err
	}
	return traceID, nil
}
