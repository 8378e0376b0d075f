// Package jobs defines the async work items the reconciliation pipeline
// enqueues and the runner that executes them off the queue.
package jobs

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the work a job carries
type Kind string

const (
	// KindCreateDocketFromIDB creates a brand new docket from an IDB row
	KindCreateDocketFromIDB Kind = "docket.create_from_idb"
	// KindMergeDocketWithIDB links an IDB row into an existing docket
	KindMergeDocketWithIDB Kind = "docket.merge_idb"
	// KindFetchPacerCaseID looks up a docket's PACER case id and chains an
	// update job with the result
	KindFetchPacerCaseID Kind = "pacer.fetch_case_id"
	// KindUpdateDocketFromPacer writes a fetched PACER case id onto a docket
	KindUpdateDocketFromPacer Kind = "docket.update_from_pacer"
)

// CreateDocketPayload carries the IDB row to build a docket from
type CreateDocketPayload struct {
	IDBID int64 `json:"idb_id" validate:"required"`
}

// MergeDocketPayload carries an IDB row and the docket that absorbs it
type MergeDocketPayload struct {
	DocketID int64 `json:"docket_id" validate:"required"`
	IDBID    int64 `json:"idb_id" validate:"required"`
}

// FetchCaseIDPayload identifies the docket to look up in PACER
type FetchCaseIDPayload struct {
	DocketID     int64  `json:"docket_id" validate:"required"`
	CourtID      string `json:"court_id" validate:"required"`
	DocketNumber string `json:"docket_number" validate:"required"`
	CaseName     string `json:"case_name"`
}

// UpdateDocketPayload carries a resolved PACER case id back to a docket
type UpdateDocketPayload struct {
	DocketID    int64  `json:"docket_id" validate:"required"`
	PacerCaseID string `json:"pacer_case_id" validate:"required"`
}

// Job is the unit of work placed on a queue. Exactly one payload field is
// set, selected by Kind. Then, when present, names a follow-up job the
// runner dispatches after this one succeeds; the executor for the first
// stage fills in whatever the follow-up payload is missing.
type Job struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind" validate:"required"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	CreateDocket *CreateDocketPayload `json:"create_docket,omitempty"`
	MergeDocket  *MergeDocketPayload  `json:"merge_docket,omitempty"`
	FetchCaseID  *FetchCaseIDPayload  `json:"fetch_case_id,omitempty"`
	UpdateDocket *UpdateDocketPayload `json:"update_docket,omitempty"`

	Then *Job `json:"then,omitempty"`
}

// NewJob creates a job of the given kind with a fresh id
func NewJob(kind Kind) *Job {
	return &Job{
		ID:         uuid.New().String(),
		Kind:       kind,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Key returns the partition key for the job, so work against the same
// docket or IDB row lands on the same partition and stays ordered.
func (j *Job) Key() string {
	switch j.Kind {
	case KindCreateDocketFromIDB:
		if j.CreateDocket != nil {
			return "idb:" + strconv.FormatInt(j.CreateDocket.IDBID, 10)
		}
	case KindMergeDocketWithIDB:
		if j.MergeDocket != nil {
			return "docket:" + strconv.FormatInt(j.MergeDocket.DocketID, 10)
		}
	case KindFetchPacerCaseID:
		if j.FetchCaseID != nil {
			return "docket:" + strconv.FormatInt(j.FetchCaseID.DocketID, 10)
		}
	case KindUpdateDocketFromPacer:
		if j.UpdateDocket != nil {
			return "docket:" + strconv.FormatInt(j.UpdateDocket.DocketID, 10)
		}
	}
	return j.ID
}

// Dispatcher places jobs on a named queue. Implementations are expected to
// be fire-and-forget from the caller's point of view: a nil return means the
// job was durably accepted, not that it ran.
type Dispatcher interface {
	Dispatch(ctx context.Context, queue string, job *Job) error
}
