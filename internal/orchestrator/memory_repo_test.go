package orchestrator

import (
	"context"
	"sync"

	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/persistence"
)

// newMemoryRepository builds an in-memory persistence.Repository test
// double without a database. Stage results follow the same
// write-once-unless-forced discipline as the PostgreSQL implementation
// (internal/persistence/postgres); indicator Insert overwrites an
// existing ID and ListPending returns every stored descriptor.
func newMemoryRepository() persistence.Repository {
	m := &memoryIndicatorRepo{data: map[string]models.IndicatorDescriptor{}}
	s := &memoryStageResultRepo{data: map[string]map[string]models.StageResult{}}
	c := &memoryClassificationRepo{data: map[string]models.ClassificationRecord{}}
	return persistence.Repository{Indicators: m, StageResults: s, Classifications: c}
}

type memoryIndicatorRepo struct {
	mu   sync.Mutex
	data map[string]models.IndicatorDescriptor
}

func (r *memoryIndicatorRepo) Insert(ctx context.Context, d models.IndicatorDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[d.ID] = d
	return nil
}

func (r *memoryIndicatorRepo) Get(ctx context.Context, id string) (*models.IndicatorDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *memoryIndicatorRepo) ListPending(ctx context.Context, limit int) ([]models.IndicatorDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.IndicatorDescriptor
	for _, d := range r.data {
		out = append(out, d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type memoryStageResultRepo struct {
	mu   sync.Mutex
	data map[string]map[string]models.StageResult
}

func (r *memoryStageResultRepo) Put(ctx context.Context, result models.StageResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byStage, ok := r.data[result.IndicatorID]
	if !ok {
		byStage = map[string]models.StageResult{}
		r.data[result.IndicatorID] = byStage
	}
	if _, exists := byStage[result.StageName]; exists {
		return nil
	}
	byStage[result.StageName] = result
	return nil
}

func (r *memoryStageResultRepo) PutForce(ctx context.Context, result models.StageResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byStage, ok := r.data[result.IndicatorID]
	if !ok {
		byStage = map[string]models.StageResult{}
		r.data[result.IndicatorID] = byStage
	}
	byStage[result.StageName] = result
	return nil
}

func (r *memoryStageResultRepo) Get(ctx context.Context, indicatorID, stageName string) (*models.StageResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byStage, ok := r.data[indicatorID]
	if !ok {
		return nil, nil
	}
	result, ok := byStage[stageName]
	if !ok {
		return nil, nil
	}
	return &result, nil
}

func (r *memoryStageResultRepo) ListByIndicator(ctx context.Context, indicatorID string) ([]models.StageResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byStage, ok := r.data[indicatorID]
	if !ok {
		return nil, nil
	}
	var out []models.StageResult
	for _, result := range byStage {
		out = append(out, result)
	}
	return out, nil
}

func (r *memoryStageResultRepo) DeleteByIndicator(ctx context.Context, indicatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, indicatorID)
	return nil
}

type memoryClassificationRepo struct {
	mu   sync.Mutex
	data map[string]models.ClassificationRecord
}

func (r *memoryClassificationRepo) Put(ctx context.Context, rec models.ClassificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.IndicatorID] = rec
	return nil
}

func (r *memoryClassificationRepo) Get(ctx context.Context, indicatorID string) (*models.ClassificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[indicatorID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *memoryClassificationRepo) ListStageFailed(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}
