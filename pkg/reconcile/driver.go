// Package reconcile drives the batch workflows that tie IDB rows to
// dockets: walking a dataset, deciding merge-or-create per row, and
// backfilling PACER case ids on merged dockets.
package reconcile

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	laurelcontext "github.com/Ramsey-B/laurel/pkg/context"
	"github.com/Ramsey-B/laurel/pkg/jobs"
	"github.com/Ramsey-B/laurel/pkg/matching"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/throttle"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// IDBSource streams IDB rows for a reconciliation run
type IDBSource interface {
	Count(ctx context.Context, dataset models.IDBDatasetSource, courtID string) (int64, error)
	ListAfter(ctx context.Context, dataset models.IDBDatasetSource, courtID string, afterID int64, batchSize int) ([]models.IDBRecord, error)
}

// DocketSource finds merge candidates and dockets needing PACER case ids
type DocketSource interface {
	FindMergeCandidates(ctx context.Context, courtID, docketNumberCore string) ([]models.Docket, error)
	ListMissingPacerCaseID(ctx context.Context, courtID string, afterID int64, batchSize int) ([]models.Docket, error)
}

// SessionRefresher renews the PACER login partway through long runs
type SessionRefresher interface {
	RefreshLogin(ctx context.Context) error
}

// Options selects and windows the rows a run covers. Offset skips that many
// eligible rows from the front of the stream; Limit, when positive, caps how
// many rows are processed after the skip. Iteration order is primary key
// ascending, so the same offset and limit cover the same rows on a re-run
// against unchanged data.
type Options struct {
	Queue   string
	Dataset models.IDBDatasetSource
	CourtID string
	Offset  int
	Limit   int
}

// Result summarizes a completed run
type Result struct {
	Scanned    int
	Processed  int
	Creates    int
	Merges     int
	Heuristics int
}

// Config tunes driver behavior
type Config struct {
	// BatchSize is the page size for streaming rows out of Postgres
	BatchSize int
	// SyncFallback runs ambiguous-candidate decisions inline instead of
	// enqueueing them
	SyncFallback bool
	// SessionRefreshEvery renews the PACER login after this many lookups
	SessionRefreshEvery int
}

// Driver runs the reconciliation workflows
type Driver struct {
	idb        IDBSource
	dockets    DocketSource
	engine     *matching.Engine
	dispatcher jobs.Dispatcher
	runner     *jobs.Runner
	throttle   *throttle.Throttle
	sessions   SessionRefresher
	cfg        Config
	logger     ectologger.Logger
}

// NewDriver creates a reconciliation driver. runner may be nil when
// SyncFallback is off; sessions is only needed for UpdateCaseIDs.
func NewDriver(
	idb IDBSource,
	dockets DocketSource,
	engine *matching.Engine,
	dispatcher jobs.Dispatcher,
	runner *jobs.Runner,
	thr *throttle.Throttle,
	sessions SessionRefresher,
	cfg Config,
	logger ectologger.Logger,
) *Driver {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.SessionRefreshEvery <= 0 {
		cfg.SessionRefreshEvery = 5000
	}
	return &Driver{
		idb:        idb,
		dockets:    dockets,
		engine:     engine,
		dispatcher: dispatcher,
		runner:     runner,
		throttle:   thr,
		sessions:   sessions,
		cfg:        cfg,
		logger:     logger,
	}
}

// MergeAndCreate walks an IDB dataset and, for each row, either enqueues a
// merge into a matching docket or the creation of a new one. Any dispatch or
// query failure aborts the run so the window can be retried; completed
// enqueues stay idempotent on replay.
func (d *Driver) MergeAndCreate(ctx context.Context, opts Options) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Driver.MergeAndCreate")
	defer span.End()
	ctx = laurelcontext.SetRunID(ctx, uuid.New().String())

	total, err := d.idb.Count(ctx, opts.Dataset, opts.CourtID)
	if err != nil {
		return nil, err
	}
	d.logger.WithContext(ctx).WithFields(map[string]any{
		"dataset":  opts.Dataset,
		"court_id": opts.CourtID,
		"total":    total,
		"offset":   opts.Offset,
		"limit":    opts.Limit,
	}).Info("Starting merge and create run")

	result := &Result{}
	err = d.forEachIDBRow(ctx, opts, func(ctx context.Context, row *models.IDBRecord) error {
		return d.reconcileRow(ctx, opts, row, result)
	}, &result.Scanned, &result.Processed)
	if err != nil {
		return result, err
	}

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"scanned":    result.Scanned,
		"processed":  result.Processed,
		"creates":    result.Creates,
		"merges":     result.Merges,
		"heuristics": result.Heuristics,
	}).Info("Merge and create run complete")
	return result, nil
}

func (d *Driver) reconcileRow(ctx context.Context, opts Options, row *models.IDBRecord, result *Result) error {
	core := normalizers.NormalizeDocketNumber(row.DocketNumber)
	if core == "" {
		d.logger.WithContext(ctx).WithFields(map[string]any{
			"idb_id":        row.ID,
			"docket_number": row.DocketNumber,
		}).Warn("IDB row has unparseable docket number, creating docket without candidates")
	}

	var candidates []models.Docket
	if core != "" {
		found, err := d.dockets.FindMergeCandidates(ctx, row.District, core)
		if err != nil {
			return err
		}
		// The repository filters these in SQL; this keeps the rule in one
		// reusable place should another source feed candidates in.
		for _, c := range found {
			if !c.ExcludedFromMerge() {
				candidates = append(candidates, c)
			}
		}
	}

	decision := d.engine.Decide(ctx, row, candidates)

	var job *jobs.Job
	switch decision.Action {
	case matching.ActionMerge:
		job = jobs.NewJob(jobs.KindMergeDocketWithIDB)
		job.MergeDocket = &jobs.MergeDocketPayload{DocketID: decision.DocketID, IDBID: row.ID}
		result.Merges++
	case matching.ActionCreate:
		job = jobs.NewJob(jobs.KindCreateDocketFromIDB)
		job.CreateDocket = &jobs.CreateDocketPayload{IDBID: row.ID}
		result.Creates++
	default:
		return fmt.Errorf("unknown decision action %q for idb row %d", decision.Action, row.ID)
	}

	if decision.Heuristic {
		result.Heuristics++
		if d.cfg.SyncFallback && d.runner != nil {
			// Heuristic outcomes run inline so a bad threshold surfaces in
			// the run's own logs rather than deep in the worker fleet.
			return d.runner.Execute(ctx, job)
		}
	}

	return d.dispatch(ctx, opts.Queue, job)
}

// UpdateCaseIDs walks dockets that carry IDB data but no PACER case id and
// enqueues a lookup for each, chaining the update as a follow-up job. The
// PACER login is renewed periodically so long runs do not ride an expiring
// session.
func (d *Driver) UpdateCaseIDs(ctx context.Context, opts Options) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Driver.UpdateCaseIDs")
	defer span.End()
	ctx = laurelcontext.SetRunID(ctx, uuid.New().String())

	if d.sessions != nil {
		if err := d.sessions.RefreshLogin(ctx); err != nil {
			return nil, err
		}
	}

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"court_id": opts.CourtID,
		"offset":   opts.Offset,
		"limit":    opts.Limit,
	}).Info("Starting case id update run")

	result := &Result{}
	var afterID int64
	for {
		dockets, err := d.dockets.ListMissingPacerCaseID(ctx, opts.CourtID, afterID, d.cfg.BatchSize)
		if err != nil {
			return result, err
		}
		if len(dockets) == 0 {
			break
		}

		for i := range dockets {
			docket := &dockets[i]
			afterID = docket.ID

			if result.Scanned < opts.Offset {
				result.Scanned++
				continue
			}
			result.Scanned++

			if d.sessions != nil && result.Processed > 0 && result.Processed%d.cfg.SessionRefreshEvery == 0 {
				if err := d.sessions.RefreshLogin(ctx); err != nil {
					return result, err
				}
			}

			job := jobs.NewJob(jobs.KindFetchPacerCaseID)
			job.FetchCaseID = &jobs.FetchCaseIDPayload{
				DocketID:     docket.ID,
				CourtID:      docket.CourtID,
				DocketNumber: docket.DocketNumber,
				CaseName:     docket.CaseName,
			}
			job.Then = jobs.NewJob(jobs.KindUpdateDocketFromPacer)
			job.Then.UpdateDocket = &jobs.UpdateDocketPayload{DocketID: docket.ID}

			if err := d.dispatch(ctx, opts.Queue, job); err != nil {
				return result, err
			}
			result.Processed++

			if opts.Limit > 0 && result.Processed >= opts.Limit {
				d.logResult(ctx, "Case id update run complete", result)
				return result, nil
			}
		}
	}

	d.logResult(ctx, "Case id update run complete", result)
	return result, nil
}

// forEachIDBRow streams the dataset in primary key order, applying the
// offset and limit window before invoking fn.
func (d *Driver) forEachIDBRow(ctx context.Context, opts Options, fn func(context.Context, *models.IDBRecord) error, scanned, processed *int) error {
	var afterID int64
	for {
		rows, err := d.idb.ListAfter(ctx, opts.Dataset, opts.CourtID, afterID, d.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		for i := range rows {
			row := &rows[i]
			afterID = row.ID

			if *scanned < opts.Offset {
				*scanned++
				continue
			}
			*scanned++

			if err := fn(ctx, row); err != nil {
				return err
			}
			*processed++

			if opts.Limit > 0 && *processed >= opts.Limit {
				return nil
			}
		}
	}
}

func (d *Driver) dispatch(ctx context.Context, queue string, job *jobs.Job) error {
	if d.throttle != nil {
		if err := d.throttle.MaybeWait(ctx, queue); err != nil {
			return err
		}
	}
	return d.dispatcher.Dispatch(ctx, queue, job)
}

func (d *Driver) logResult(ctx context.Context, msg string, result *Result) {
	d.logger.WithContext(ctx).WithFields(map[string]any{
		"scanned":   result.Scanned,
		"processed": result.Processed,
	}).Info(msg)
}
