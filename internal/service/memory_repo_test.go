package service

import (
	"context"
	"sync"

	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/persistence"
)

// newMemoryRepository builds an in-memory persistence.Repository test
// double modelled on internal/orchestrator/memory_repo_test.go (that one
// is unexported to its own package). Unlike that copy, its
// ListStageFailed returns the IDs set in memClassificationRepo.stageFailed.
func newMemoryRepository() persistence.Repository {
	return persistence.Repository{
		Indicators:      &memIndicatorRepo{data: map[string]models.IndicatorDescriptor{}},
		StageResults:    &memStageResultRepo{data: map[string]map[string]models.StageResult{}},
		Classifications: &memClassificationRepo{data: map[string]models.ClassificationRecord{}},
	}
}

type memIndicatorRepo struct {
	mu   sync.Mutex
	data map[string]models.IndicatorDescriptor
}

func (r *memIndicatorRepo) Insert(ctx context.Context, d models.IndicatorDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[d.ID] = d
	return nil
}

func (r *memIndicatorRepo) Get(ctx context.Context, id string) (*models.IndicatorDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *memIndicatorRepo) ListPending(ctx context.Context, limit int) ([]models.IndicatorDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.IndicatorDescriptor
	for _, d := range r.data {
		out = append(out, d)
	}
	return out, nil
}

type memStageResultRepo struct {
	mu   sync.Mutex
	data map[string]map[string]models.StageResult
}

func (r *memStageResultRepo) Put(ctx context.Context, result models.StageResult) error {
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

func (r *memStageResultRepo) PutForce(ctx context.Context, result models.StageResult) error {
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

func (r *memStageResultRepo) Get(ctx context.Context, indicatorID, stageName string) (*models.StageResult, error) {
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

func (r *memStageResultRepo) ListByIndicator(ctx context.Context, indicatorID string) ([]models.StageResult, error) {
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

func (r *memStageResultRepo) DeleteByIndicator(ctx context.Context, indicatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, indicatorID)
	return nil
}

type memClassificationRepo struct {
	mu         sync.Mutex
	data       map[string]models.ClassificationRecord
	stageFailed []string
}

func (r *memClassificationRepo) Put(ctx context.Context, rec models.ClassificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.IndicatorID] = rec
	return nil
}

func (r *memClassificationRepo) Get(ctx context.Context, indicatorID string) (*models.ClassificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[indicatorID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *memClassificationRepo) ListStageFailed(ctx context.Context, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > 0 && len(r.stageFailed) > limit {
		return r.stageFailed[:limit], nil
	}
	return r.stageFailed, nil
}
