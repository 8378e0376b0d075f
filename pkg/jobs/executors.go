package jobs

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// IDBStore is the slice of the IDB repository the executors need
type IDBStore interface {
	Get(ctx context.Context, id int64) (*models.IDBRecord, error)
}

// DocketStore is the slice of the docket repository the executors need
type DocketStore interface {
	CreateFromIDB(ctx context.Context, docket *models.Docket) (*models.Docket, error)
	LinkIDBData(ctx context.Context, docketID, idbDataID int64) error
	SetPacerCaseID(ctx context.Context, docketID int64, pacerCaseID string) error
}

// CaseLookup resolves a docket number to its PACER case id
type CaseLookup interface {
	LookupCaseID(ctx context.Context, courtID, docketNumber, caseName string) (string, error)
}

// Executor runs one job kind. A non-nil follow-up is dispatched (or run
// inline, for synchronous callers) after the executor returns successfully.
type Executor interface {
	Execute(ctx context.Context, job *Job) (*Job, error)
}

// CreateDocketExecutor builds a new docket from an IDB row
type CreateDocketExecutor struct {
	idb     IDBStore
	dockets DocketStore
	logger  ectologger.Logger
}

func NewCreateDocketExecutor(idb IDBStore, dockets DocketStore, logger ectologger.Logger) *CreateDocketExecutor {
	return &CreateDocketExecutor{idb: idb, dockets: dockets, logger: logger}
}

func (e *CreateDocketExecutor) Execute(ctx context.Context, job *Job) (*Job, error) {
	ctx, span := tracing.StartSpan(ctx, "jobs.CreateDocketExecutor.Execute")
	defer span.End()

	row, err := e.idb.Get(ctx, job.CreateDocket.IDBID)
	if err != nil {
		return nil, err
	}

	docket := &models.Docket{
		CourtID:          row.District,
		DocketNumber:     row.DocketNumber,
		DocketNumberCore: normalizers.NormalizeDocketNumber(row.DocketNumber),
		CaseName:         row.CaseName(),
		IDBDataID:        &row.ID,
		DateFiled:        row.DateFiled,
	}

	created, err := e.dockets.CreateFromIDB(ctx, docket)
	if err != nil {
		return nil, err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"docket_id": created.ID,
		"idb_id":    row.ID,
		"court_id":  created.CourtID,
	}).Info("Created docket from IDB row")

	return nil, nil
}

// MergeDocketExecutor links an IDB row into an existing docket. Replays of
// an already applied merge succeed without touching the row again.
type MergeDocketExecutor struct {
	dockets DocketStore
	logger  ectologger.Logger
}

func NewMergeDocketExecutor(dockets DocketStore, logger ectologger.Logger) *MergeDocketExecutor {
	return &MergeDocketExecutor{dockets: dockets, logger: logger}
}

func (e *MergeDocketExecutor) Execute(ctx context.Context, job *Job) (*Job, error) {
	ctx, span := tracing.StartSpan(ctx, "jobs.MergeDocketExecutor.Execute")
	defer span.End()

	if err := e.dockets.LinkIDBData(ctx, job.MergeDocket.DocketID, job.MergeDocket.IDBID); err != nil {
		return nil, err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"docket_id": job.MergeDocket.DocketID,
		"idb_id":    job.MergeDocket.IDBID,
	}).Info("Merged IDB row into docket")

	return nil, nil
}

// FetchCaseIDExecutor looks up a docket's PACER case id and hands the result
// to the follow-up update job.
type FetchCaseIDExecutor struct {
	lookup CaseLookup
	logger ectologger.Logger
}

func NewFetchCaseIDExecutor(lookup CaseLookup, logger ectologger.Logger) *FetchCaseIDExecutor {
	return &FetchCaseIDExecutor{lookup: lookup, logger: logger}
}

func (e *FetchCaseIDExecutor) Execute(ctx context.Context, job *Job) (*Job, error) {
	ctx, span := tracing.StartSpan(ctx, "jobs.FetchCaseIDExecutor.Execute")
	defer span.End()

	p := job.FetchCaseID
	caseID, err := e.lookup.LookupCaseID(ctx, p.CourtID, p.DocketNumber, p.CaseName)
	if err != nil {
		return nil, err
	}
	if caseID == "" {
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"docket_id":     p.DocketID,
			"court_id":      p.CourtID,
			"docket_number": p.DocketNumber,
		}).Warn("PACER returned no case id for docket")
		return nil, nil
	}

	next := job.Then
	if next == nil {
		next = NewJob(KindUpdateDocketFromPacer)
	}
	if next.UpdateDocket == nil {
		next.UpdateDocket = &UpdateDocketPayload{DocketID: p.DocketID}
	}
	next.UpdateDocket.PacerCaseID = caseID

	return next, nil
}

// UpdateDocketExecutor writes a fetched PACER case id onto its docket
type UpdateDocketExecutor struct {
	dockets DocketStore
	logger  ectologger.Logger
}

func NewUpdateDocketExecutor(dockets DocketStore, logger ectologger.Logger) *UpdateDocketExecutor {
	return &UpdateDocketExecutor{dockets: dockets, logger: logger}
}

func (e *UpdateDocketExecutor) Execute(ctx context.Context, job *Job) (*Job, error) {
	ctx, span := tracing.StartSpan(ctx, "jobs.UpdateDocketExecutor.Execute")
	defer span.End()

	p := job.UpdateDocket
	if err := e.dockets.SetPacerCaseID(ctx, p.DocketID, p.PacerCaseID); err != nil {
		return nil, err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"docket_id":     p.DocketID,
		"pacer_case_id": p.PacerCaseID,
	}).Info("Updated docket with PACER case id")

	return nil, nil
}

func payloadFor(job *Job) (any, error) {
	switch job.Kind {
	case KindCreateDocketFromIDB:
		if job.CreateDocket == nil {
			return nil, fmt.Errorf("job %s missing create_docket payload", job.ID)
		}
		return job.CreateDocket, nil
	case KindMergeDocketWithIDB:
		if job.MergeDocket == nil {
			return nil, fmt.Errorf("job %s missing merge_docket payload", job.ID)
		}
		return job.MergeDocket, nil
	case KindFetchPacerCaseID:
		if job.FetchCaseID == nil {
			return nil, fmt.Errorf("job %s missing fetch_case_id payload", job.ID)
		}
		return job.FetchCaseID, nil
	case KindUpdateDocketFromPacer:
		if job.UpdateDocket == nil {
			return nil, fmt.Errorf("job %s missing update_docket payload", job.ID)
		}
		return job.UpdateDocket, nil
	default:
		return nil, fmt.Errorf("unknown job kind %q", job.Kind)
	}
}
