// Package docket persists docket records and the links back to their IDB rows
package docket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

var columns = []string{"id", "court_id", "docket_number", "docket_number_core", "case_name", "pacer_case_id", "idb_data_id", "source", "date_filed", "created_at", "updated_at"}

// Repository handles docket persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new docket repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a docket by ID
func (r *Repository) Get(ctx context.Context, id int64) (*models.Docket, error) {
	ctx, span := tracing.StartSpan(ctx, "docket.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("dockets")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var docket models.Docket
	if err := r.db.GetContext(ctx, &docket, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("docket %d not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get docket")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get docket")
	}

	return &docket, nil
}

// FindMergeCandidates retrieves dockets eligible to absorb an IDB row: same
// court, same normalized docket number, not already linked to IDB data, and
// none of the caption or numbering patterns that bar a merge. The filters
// mirror models.Docket.ExcludedFromMerge so rows screened out here never
// reach the scoring path.
func (r *Repository) FindMergeCandidates(ctx context.Context, courtID, docketNumberCore string) ([]models.Docket, error) {
	ctx, span := tracing.StartSpan(ctx, "docket.Repository.FindMergeCandidates")
	defer span.End()

	query := `
		SELECT id, court_id, docket_number, docket_number_core, case_name, pacer_case_id, idb_data_id, source, date_filed, created_at, updated_at
		FROM dockets
		WHERE court_id = $1
		AND docket_number_core = $2
		AND idb_data_id IS NULL
		AND docket_number NOT ILIKE '%cr%'
		AND case_name NOT ILIKE '%sealed%'
		AND case_name NOT ILIKE '%suppressed%'
		AND case_name NOT ILIKE '%search warrant%'
		ORDER BY id ASC
	`

	var dockets []models.Docket
	if err := r.db.SelectContext(ctx, &dockets, query, courtID, docketNumberCore); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"court_id":           courtID,
			"docket_number_core": docketNumberCore,
		}).Error("Failed to find merge candidates")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find merge candidates")
	}

	return dockets, nil
}

// ListMissingPacerCaseID returns up to batchSize dockets that carry IDB data
// but no PACER case id yet, with id > afterID, ordered by id ascending.
func (r *Repository) ListMissingPacerCaseID(ctx context.Context, courtID string, afterID int64, batchSize int) ([]models.Docket, error) {
	ctx, span := tracing.StartSpan(ctx, "docket.Repository.ListMissingPacerCaseID")
	defer span.End()

	if batchSize < 1 || batchSize > 5000 {
		batchSize = 1000
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("dockets")
	where := []string{
		sb.IsNotNull("idb_data_id"),
		sb.IsNull("pacer_case_id"),
		sb.GreaterThan("id", afterID),
	}
	if courtID != "" {
		where = append(where, sb.Equal("court_id", courtID))
	}
	sb.Where(where...)
	sb.OrderBy("id ASC")
	sb.Limit(batchSize)

	query, args := sb.Build()
	var dockets []models.Docket
	if err := r.db.SelectContext(ctx, &dockets, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"after_id": afterID}).Error("Failed to list dockets missing pacer case id")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dockets")
	}

	return dockets, nil
}

// CreateFromIDB inserts a new docket sourced entirely from an IDB row. The
// unique constraint on idb_data_id makes retries of the same job a no-op.
func (r *Repository) CreateFromIDB(ctx context.Context, docket *models.Docket) (*models.Docket, error) {
	ctx, span := tracing.StartSpan(ctx, "docket.Repository.CreateFromIDB")
	defer span.End()

	docket.Source = models.DocketSourceIDB
	docket.CreatedAt = time.Now().UTC()
	docket.UpdatedAt = docket.CreatedAt

	ib := database.NewInsertBuilder()
	ib.InsertInto("dockets")
	ib.Cols("court_id", "docket_number", "docket_number_core", "case_name", "idb_data_id", "source", "date_filed", "created_at", "updated_at")
	ib.Values(docket.CourtID, docket.DocketNumber, docket.DocketNumberCore, docket.CaseName, docket.IDBDataID, docket.Source, docket.DateFiled, docket.CreatedAt, docket.UpdatedAt)
	ib.OnConflictDoNothing()

	query, args := ib.Build()
	query += " RETURNING id"

	if err := r.db.GetContext(ctx, &docket.ID, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			// Conflict path on retry, the docket already exists
			r.logger.WithContext(ctx).WithFields(map[string]any{"idb_data_id": docket.IDBDataID}).Debug("Docket for IDB row already exists, skipping create")
			return r.getByIDBDataID(ctx, *docket.IDBDataID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"idb_data_id": docket.IDBDataID}).Error("Failed to create docket from IDB row")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create docket")
	}

	return docket, nil
}

// LinkIDBData attaches an IDB row to an existing docket and upgrades its
// source. The idb_data_id guard makes the update idempotent: a retry that
// finds the link already in place affects zero rows and succeeds.
func (r *Repository) LinkIDBData(ctx context.Context, docketID, idbDataID int64) error {
	ctx, span := tracing.StartSpan(ctx, "docket.Repository.LinkIDBData")
	defer span.End()

	now := time.Now().UTC()
	query := `
		UPDATE dockets
		SET idb_data_id = $1,
			source = CASE WHEN source = $2 THEN source ELSE $3 END,
			updated_at = $4
		WHERE id = $5
		AND (idb_data_id IS NULL OR idb_data_id = $1)
	`

	result, err := r.db.ExecContext(ctx, query, idbDataID, models.DocketSourceIDB, models.DocketSourceMerge, now, docketID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"docket_id":   docketID,
			"idb_data_id": idbDataID,
		}).Error("Failed to link IDB data to docket")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link idb data")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Either the docket is gone or it is linked to a different IDB row
		exists, err := r.exists(ctx, docketID)
		if err != nil {
			return err
		}
		if !exists {
			return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("docket %d not found", docketID))
		}
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("docket %d is already linked to another idb row", docketID))
	}

	return nil
}

// SetPacerCaseID records the PACER-assigned case id on a docket
func (r *Repository) SetPacerCaseID(ctx context.Context, docketID int64, pacerCaseID string) error {
	ctx, span := tracing.StartSpan(ctx, "docket.Repository.SetPacerCaseID")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("dockets")
	sb.Set(
		sb.Assign("pacer_case_id", pacerCaseID),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.Equal("id", docketID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"docket_id": docketID}).Error("Failed to set pacer case id")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to set pacer case id")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("docket %d not found", docketID))
	}

	return nil
}

func (r *Repository) getByIDBDataID(ctx context.Context, idbDataID int64) (*models.Docket, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("dockets")
	sb.Where(sb.Equal("idb_data_id", idbDataID))

	query, args := sb.Build()
	var docket models.Docket
	if err := r.db.GetContext(ctx, &docket, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get docket by idb_data_id")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get docket")
	}
	return &docket, nil
}

func (r *Repository) exists(ctx context.Context, id int64) (bool, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("dockets")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check docket existence")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check docket existence")
	}
	return count > 0, nil
}
