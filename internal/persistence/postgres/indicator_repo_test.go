package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econindex/classifier/internal/models"
)

func newMockIndicatorRepo(t *testing.T) (*indicatorRepo, sqlmock.Sqlmock, func()) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(mockDB, "postgres")
	repo := &indicatorRepo{db: sqlxDB, timeout: 5 * time.Second}

	return repo, mock, func() { mockDB.Close() }
}

func TestIndicatorRepo_Insert(t *testing.T) {
	repo, mock, closeFn := newMockIndicatorRepo(t)
	defer closeFn()

	d := models.IndicatorDescriptor{
		ID:       "GDP.US",
		Name:     "Gross Domestic Product",
		UnitsRaw: "USD Billion",
	}

	mock.ExpectExec("INSERT INTO indicator_descriptors").
		WithArgs(d.ID, d.Name, d.UnitsRaw, d.LongName, d.SourceName, d.Periodicity,
			d.AggregationMethod, d.Scale, d.Topic, d.CategoryGroup, d.Dataset,
			d.CurrencyCode, d.Definition, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), d)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndicatorRepo_Insert_DuplicateID(t *testing.T) {
	repo, mock, closeFn := newMockIndicatorRepo(t)
	defer closeFn()

	d := models.IndicatorDescriptor{ID: "GDP.US", Name: "Gross Domestic Product"}

	mock.ExpectExec("INSERT INTO indicator_descriptors").
		WithArgs(d.ID, d.Name, d.UnitsRaw, d.LongName, d.SourceName, d.Periodicity,
			d.AggregationMethod, d.Scale, d.Topic, d.CategoryGroup, d.Dataset,
			d.CurrencyCode, d.Definition, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Insert(context.Background(), d)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndicatorRepo_Get_Found(t *testing.T) {
	repo, mock, closeFn := newMockIndicatorRepo(t)
	defer closeFn()

	cols := []string{"id", "name", "units_raw", "long_name", "source_name", "periodicity",
		"aggregation_method", "scale", "topic", "category_group", "dataset", "currency_code",
		"definition", "sample_values"}
	rows := sqlmock.NewRows(cols).AddRow(
		"GDP.US", "Gross Domestic Product", "USD Billion", "", "", "Quarterly", "",
		"Billions", "", "", "", "USD", "", []byte("[]"))

	mock.ExpectQuery("SELECT (.+) FROM indicator_descriptors WHERE id = \\$1").
		WithArgs("GDP.US").
		WillReturnRows(rows)

	d, err := repo.Get(context.Background(), "GDP.US")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "GDP.US", d.ID)
	assert.Equal(t, "Quarterly", d.Periodicity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndicatorRepo_Get_NotFound(t *testing.T) {
	repo, mock, closeFn := newMockIndicatorRepo(t)
	defer closeFn()

	mock.ExpectQuery("SELECT (.+) FROM indicator_descriptors WHERE id = \\$1").
		WithArgs("MISSING").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	d, err := repo.Get(context.Background(), "MISSING")
	assert.NoError(t, err)
	assert.Nil(t, d)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndicatorRepo_ListPending(t *testing.T) {
	repo, mock, closeFn := newMockIndicatorRepo(t)
	defer closeFn()

	cols := []string{"id", "name", "units_raw", "long_name", "source_name", "periodicity",
		"aggregation_method", "scale", "topic", "category_group", "dataset", "currency_code",
		"definition", "sample_values"}
	rows := sqlmock.NewRows(cols).
		AddRow("A.1", "Indicator A", "", "", "", "", "", "", "", "", "", "", "", []byte("[]")).
		AddRow("B.2", "Indicator B", "", "", "", "", "", "", "", "", "", "", "", []byte("[]"))

	mock.ExpectQuery("SELECT (.+) FROM indicator_descriptors d LEFT JOIN classification_records").
		WithArgs(10).
		WillReturnRows(rows)

	out, err := repo.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, "A.1", out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
