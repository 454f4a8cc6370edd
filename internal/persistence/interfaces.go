package persistence

import (
	"context"
	"time"

	"github.com/econindex/classifier/internal/models"
)

// TimeRange represents a time window for history queries.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// HealthCheck represents repository health status.
type HealthCheck struct {
	Healthy        bool           `json:"healthy"`
	Errors         []string       `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool"`
	LastCheck      time.Time      `json:"last_check"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for the persistence layer.
type RepositoryHealth interface {
	Health(ctx context.Context) HealthCheck
	Ping(ctx context.Context) error
	Stats(ctx context.Context) map[string]interface{}
}

// IndicatorDescriptorRepo persists the immutable input to the orchestrator.
// IndicatorDescriptor is write-once: Insert fails if the ID already exists.
type IndicatorDescriptorRepo interface {
	Insert(ctx context.Context, d models.IndicatorDescriptor) error
	Get(ctx context.Context, id string) (*models.IndicatorDescriptor, error)
	ListPending(ctx context.Context, limit int) ([]models.IndicatorDescriptor, error)
}

// StageResultRepo persists per-stage results keyed by (indicatorId,
// stageName). Put is write-once: it never overwrites an existing key
// unless called through PutForce, which deletes then re-inserts
// atomically so re-entry after crash can distinguish "already ran" from
// "needs to run".
type StageResultRepo interface {
	Put(ctx context.Context, r models.StageResult) error
	PutForce(ctx context.Context, r models.StageResult) error
	Get(ctx context.Context, indicatorID, stageName string) (*models.StageResult, error)
	ListByIndicator(ctx context.Context, indicatorID string) ([]models.StageResult, error)
	DeleteByIndicator(ctx context.Context, indicatorID string) error
}

// ClassificationRecordRepo persists the consolidated per-indicator output.
// Put replaces any existing record atomically (the record itself, unlike
// stage results, is a single row rewritten wholesale on force-reclassify).
type ClassificationRecordRepo interface {
	Put(ctx context.Context, r models.ClassificationRecord) error
	Get(ctx context.Context, indicatorID string) (*models.ClassificationRecord, error)
	ListStageFailed(ctx context.Context, limit int) ([]string, error)
}

// Repository aggregates all persistence interfaces the orchestrator needs.
type Repository struct {
	Indicators      IndicatorDescriptorRepo
	StageResults    StageResultRepo
	Classifications ClassificationRecordRepo
}
