package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/econindex/classifier/internal/errs"
	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/persistence"
)

// stageResultRepo implements persistence.StageResultRepo for PostgreSQL.
// The (indicator_id, stage_name) unique constraint is what makes Put
// write-once: a second Put for the same key hits the constraint and is
// reported as a no-op rather than a failure, matching the orchestrator's
// resume-after-crash short-circuit.
type stageResultRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewStageResultRepo creates a new PostgreSQL stage result repository.
func NewStageResultRepo(db *sqlx.DB, timeout time.Duration) persistence.StageResultRepo {
	return &stageResultRepo{db: db, timeout: timeout}
}

func (r *stageResultRepo) Put(ctx context.Context, result models.StageResult) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	payloadJSON, err := json.Marshal(result.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal stage payload: %w", err)
	}

	query := `
		INSERT INTO stage_results (indicator_id, stage_name, payload, confidence, reasoning, llm_provider)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (indicator_id, stage_name) DO NOTHING
		RETURNING created_at`

	var createdAt time.Time
	err = r.db.QueryRowxContext(ctx, query, result.IndicatorID, result.StageName, payloadJSON,
		result.Confidence, result.Reasoning, result.LLMProvider).Scan(&createdAt)
	if err == sql.ErrNoRows {
		// already present: write-once semantics, not an error
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert stage result: %w", err)
	}
	return nil
}

// PutForce deletes any existing result for the key, then inserts the new
// one, inside a single transaction so resume-after-crash never observes
// a gap between the two.
func (r *stageResultRepo) PutForce(ctx context.Context, result models.StageResult) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	payloadJSON, err := json.Marshal(result.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal stage payload: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stage_results WHERE indicator_id = $1 AND stage_name = $2`,
		result.IndicatorID, result.StageName); err != nil {
		return fmt.Errorf("failed to delete existing stage result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stage_results (indicator_id, stage_name, payload, confidence, reasoning, llm_provider)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		result.IndicatorID, result.StageName, payloadJSON, result.Confidence, result.Reasoning, result.LLMProvider); err != nil {
		return fmt.Errorf("failed to force-insert stage result: %w", err)
	}

	return tx.Commit()
}

func (r *stageResultRepo) Get(ctx context.Context, indicatorID, stageName string) (*models.StageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT indicator_id, stage_name, payload, confidence, reasoning, llm_provider, created_at
		FROM stage_results
		WHERE indicator_id = $1 AND stage_name = $2`

	row := r.db.QueryRowxContext(ctx, query, indicatorID, stageName)
	result, err := scanStageResult(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stage result: %w", err)
	}
	return result, nil
}

func (r *stageResultRepo) ListByIndicator(ctx context.Context, indicatorID string) ([]models.StageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT indicator_id, stage_name, payload, confidence, reasoning, llm_provider, created_at
		FROM stage_results
		WHERE indicator_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryxContext(ctx, query, indicatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage results: %w", err)
	}
	defer rows.Close()

	var out []models.StageResult
	for rows.Next() {
		r, err := scanStageResultFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (r *stageResultRepo) DeleteByIndicator(ctx context.Context, indicatorID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM stage_results WHERE indicator_id = $1`, indicatorID); err != nil {
		return errs.StageFailure("stage_results.delete", "failed to delete stage results", err)
	}
	return nil
}

func scanStageResult(row *sqlx.Row) (*models.StageResult, error) {
	var sr models.StageResult
	var payloadJSON []byte
	if err := row.Scan(&sr.IndicatorID, &sr.StageName, &payloadJSON, &sr.Confidence, &sr.Reasoning, &sr.LLMProvider, &sr.CreatedAt); err != nil {
		return nil, err
	}
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &sr.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stage payload: %w", err)
		}
	}
	return &sr, nil
}

func scanStageResultFromRows(rows *sqlx.Rows) (*models.StageResult, error) {
	var sr models.StageResult
	var payloadJSON []byte
	if err := rows.Scan(&sr.IndicatorID, &sr.StageName, &payloadJSON, &sr.Confidence, &sr.Reasoning, &sr.LLMProvider, &sr.CreatedAt); err != nil {
		return nil, err
	}
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &sr.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stage payload: %w", err)
		}
	}
	return &sr, nil
}
