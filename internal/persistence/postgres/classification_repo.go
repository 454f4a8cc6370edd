package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/persistence"
)

// classificationRepo implements persistence.ClassificationRecordRepo for
// PostgreSQL. Put is an upsert: a force-reclassify replaces the record
// wholesale, unlike StageResult which is append-only per key.
type classificationRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewClassificationRepo creates a new PostgreSQL classification repository.
func NewClassificationRepo(db *sqlx.DB, timeout time.Duration) persistence.ClassificationRecordRepo {
	return &classificationRepo{db: db, timeout: timeout}
}

func (r *classificationRepo) Put(ctx context.Context, rec models.ClassificationRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cols := []interface{}{rec.Normalized, rec.Time, rec.Family, rec.Type, rec.Review, rec.FinalReview}
	marshaled := make([][]byte, len(cols))
	for i, c := range cols {
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal classification field %d: %w", i, err)
		}
		marshaled[i] = b
	}

	query := `
		INSERT INTO classification_records
		(indicator_id, normalized, time_inference, family, type, review, final_review, overall_confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (indicator_id) DO UPDATE SET
			normalized = EXCLUDED.normalized,
			time_inference = EXCLUDED.time_inference,
			family = EXCLUDED.family,
			type = EXCLUDED.type,
			review = EXCLUDED.review,
			final_review = EXCLUDED.final_review,
			overall_confidence = EXCLUDED.overall_confidence,
			created_at = now()`

	_, err := r.db.ExecContext(ctx, query, rec.IndicatorID,
		marshaled[0], marshaled[1], marshaled[2], marshaled[3], marshaled[4], marshaled[5],
		rec.OverallConfidence)
	if err != nil {
		return fmt.Errorf("failed to upsert classification record: %w", err)
	}
	return nil
}

func (r *classificationRepo) Get(ctx context.Context, indicatorID string) (*models.ClassificationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT indicator_id, normalized, time_inference, family, type, review, final_review, overall_confidence, created_at
		FROM classification_records
		WHERE indicator_id = $1`

	row := r.db.QueryRowxContext(ctx, query, indicatorID)
	rec, err := scanClassification(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get classification record: %w", err)
	}
	return rec, nil
}

// ListStageFailed returns indicator IDs with at least one stage_failed
// marker and no completed classification record yet, for the sweep job.
func (r *classificationRepo) ListStageFailed(ctx context.Context, limit int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT sr.indicator_id
		FROM stage_results sr
		LEFT JOIN classification_records cr ON cr.indicator_id = sr.indicator_id
		WHERE sr.stage_name = 'stage_failed' AND cr.indicator_id IS NULL
		ORDER BY sr.indicator_id
		LIMIT $1`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage-failed indicators: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanClassification(row *sqlx.Row) (*models.ClassificationRecord, error) {
	var rec models.ClassificationRecord
	var normalizedJSON, timeJSON, familyJSON, typeJSON, reviewJSON, finalReviewJSON []byte

	if err := row.Scan(&rec.IndicatorID, &normalizedJSON, &timeJSON, &familyJSON, &typeJSON,
		&reviewJSON, &finalReviewJSON, &rec.OverallConfidence, &rec.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(normalizedJSON, &rec.Normalized); err != nil {
		return nil, fmt.Errorf("failed to unmarshal normalized: %w", err)
	}
	if err := json.Unmarshal(timeJSON, &rec.Time); err != nil {
		return nil, fmt.Errorf("failed to unmarshal time: %w", err)
	}
	if err := json.Unmarshal(familyJSON, &rec.Family); err != nil {
		return nil, fmt.Errorf("failed to unmarshal family: %w", err)
	}
	if err := json.Unmarshal(typeJSON, &rec.Type); err != nil {
		return nil, fmt.Errorf("failed to unmarshal type: %w", err)
	}
	if err := json.Unmarshal(reviewJSON, &rec.Review); err != nil {
		return nil, fmt.Errorf("failed to unmarshal review: %w", err)
	}
	if len(finalReviewJSON) > 0 && string(finalReviewJSON) != "null" {
		if err := json.Unmarshal(finalReviewJSON, &rec.FinalReview); err != nil {
			return nil, fmt.Errorf("failed to unmarshal final review: %w", err)
		}
	}
	return &rec, nil
}
