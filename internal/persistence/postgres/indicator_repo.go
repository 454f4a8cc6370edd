package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/persistence"
)

// indicatorRepo implements persistence.IndicatorDescriptorRepo for PostgreSQL.
type indicatorRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewIndicatorRepo creates a new PostgreSQL indicator descriptor repository.
func NewIndicatorRepo(db *sqlx.DB, timeout time.Duration) persistence.IndicatorDescriptorRepo {
	return &indicatorRepo{db: db, timeout: timeout}
}

// Insert adds an indicator descriptor. Descriptors are immutable once
// ingested; a duplicate ID is reported as a conflict rather than silently
// overwritten.
func (r *indicatorRepo) Insert(ctx context.Context, d models.IndicatorDescriptor) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	samplesJSON, err := json.Marshal(d.SampleValues)
	if err != nil {
		return fmt.Errorf("failed to marshal sample values: %w", err)
	}

	query := `
		INSERT INTO indicator_descriptors
		(id, name, units_raw, long_name, source_name, periodicity, aggregation_method,
		 scale, topic, category_group, dataset, currency_code, definition, sample_values)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.Name, d.UnitsRaw, d.LongName, d.SourceName, d.Periodicity, d.AggregationMethod,
		d.Scale, d.Topic, d.CategoryGroup, d.Dataset, d.CurrencyCode, d.Definition, samplesJSON)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("indicator descriptor already exists: %s: %w", d.ID, err)
		}
		return fmt.Errorf("failed to insert indicator descriptor: %w", err)
	}
	return nil
}

// Get retrieves a descriptor by ID.
func (r *indicatorRepo) Get(ctx context.Context, id string) (*models.IndicatorDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, name, units_raw, long_name, source_name, periodicity, aggregation_method,
		       scale, topic, category_group, dataset, currency_code, definition, sample_values
		FROM indicator_descriptors
		WHERE id = $1`

	row := r.db.QueryRowxContext(ctx, query, id)
	d, err := scanIndicator(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get indicator descriptor: %w", err)
	}
	return d, nil
}

// ListPending retrieves indicators that have no classification record yet.
func (r *indicatorRepo) ListPending(ctx context.Context, limit int) ([]models.IndicatorDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT d.id, d.name, d.units_raw, d.long_name, d.source_name, d.periodicity, d.aggregation_method,
		       d.scale, d.topic, d.category_group, d.dataset, d.currency_code, d.definition, d.sample_values
		FROM indicator_descriptors d
		LEFT JOIN classification_records c ON c.indicator_id = d.id
		WHERE c.indicator_id IS NULL
		ORDER BY d.id
		LIMIT $1`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending indicators: %w", err)
	}
	defer rows.Close()

	var out []models.IndicatorDescriptor
	for rows.Next() {
		d, err := scanIndicatorFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanIndicator(row *sqlx.Row) (*models.IndicatorDescriptor, error) {
	var d models.IndicatorDescriptor
	var samplesJSON []byte
	if err := row.Scan(&d.ID, &d.Name, &d.UnitsRaw, &d.LongName, &d.SourceName, &d.Periodicity,
		&d.AggregationMethod, &d.Scale, &d.Topic, &d.CategoryGroup, &d.Dataset, &d.CurrencyCode,
		&d.Definition, &samplesJSON); err != nil {
		return nil, err
	}
	if len(samplesJSON) > 0 {
		if err := json.Unmarshal(samplesJSON, &d.SampleValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sample values: %w", err)
		}
	}
	return &d, nil
}

func scanIndicatorFromRows(rows *sqlx.Rows) (*models.IndicatorDescriptor, error) {
	var d models.IndicatorDescriptor
	var samplesJSON []byte
	if err := rows.Scan(&d.ID, &d.Name, &d.UnitsRaw, &d.LongName, &d.SourceName, &d.Periodicity,
		&d.AggregationMethod, &d.Scale, &d.Topic, &d.CategoryGroup, &d.Dataset, &d.CurrencyCode,
		&d.Definition, &samplesJSON); err != nil {
		return nil, err
	}
	if len(samplesJSON) > 0 {
		if err := json.Unmarshal(samplesJSON, &d.SampleValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sample values: %w", err)
		}
	}
	return &d, nil
}
