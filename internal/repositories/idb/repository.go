// Package idb persists rows of the Integrated Database reference dataset
package idb

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

var columns = []string{"id", "dataset_source", "circuit", "district", "office", "docket_number", "plaintiff", "defendant", "nature_of_suit", "date_filed", "date_terminated", "created_at"}

// Repository handles IDB record persistence. Rows are bulk-loaded by the
// dataset importer; the reconciliation pipeline only reads them.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new IDB record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves an IDB record by ID
func (r *Repository) Get(ctx context.Context, id int64) (*models.IDBRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "idb.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("idb_records")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var record models.IDBRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("idb record %d not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"idb_id": id}).Error("Failed to get IDB record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get idb record")
	}

	return &record, nil
}

// Count returns the number of records in a dataset, optionally filtered by
// district court.
func (r *Repository) Count(ctx context.Context, dataset models.IDBDatasetSource, courtID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "idb.Repository.Count")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("idb_records")
	where := []string{sb.Equal("dataset_source", string(dataset))}
	if courtID != "" {
		where = append(where, sb.Equal("district", courtID))
	}
	sb.Where(where...)

	query, args := sb.Build()
	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count IDB records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count idb records")
	}
	return count, nil
}

// ListAfter returns up to batchSize records of a dataset with id > afterID,
// ordered by id ascending. Keyset paging keeps iteration order stable across
// batches and across re-runs, which the driver's offset/limit windowing
// depends on.
func (r *Repository) ListAfter(ctx context.Context, dataset models.IDBDatasetSource, courtID string, afterID int64, batchSize int) ([]models.IDBRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "idb.Repository.ListAfter")
	defer span.End()

	if batchSize < 1 || batchSize > 5000 {
		batchSize = 1000
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("idb_records")
	where := []string{
		sb.Equal("dataset_source", string(dataset)),
		sb.GreaterThan("id", afterID),
	}
	if courtID != "" {
		where = append(where, sb.Equal("district", courtID))
	}
	sb.Where(where...)
	sb.OrderBy("id ASC")
	sb.Limit(batchSize)

	query, args := sb.Build()
	var records []models.IDBRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"after_id": afterID}).Error("Failed to list IDB records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list idb records")
	}
	return records, nil
}
