package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/logging"
	"github.com/Ramsey-B/laurel/pkg/models"
)

type recordingDispatcher struct {
	jobs []*Job
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, _ string, job *Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type stubExecutor struct {
	next  *Job
	err   error
	calls int
	last  *Job
}

func (e *stubExecutor) Execute(_ context.Context, job *Job) (*Job, error) {
	e.calls++
	e.last = job
	return e.next, e.err
}

func mergeJob(docketID, idbID int64) *Job {
	job := NewJob(KindMergeDocketWithIDB)
	job.MergeDocket = &MergeDocketPayload{DocketID: docketID, IDBID: idbID}
	return job
}

func TestRunner_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("routes to the registered executor", func(t *testing.T) {
		runner := NewRunner(nil, "", logging.NewNop())
		exec := &stubExecutor{}
		runner.Register(KindMergeDocketWithIDB, exec)

		job := mergeJob(7, 42)
		require.NoError(t, runner.Execute(ctx, job))
		assert.Equal(t, 1, exec.calls)
		assert.Equal(t, job, exec.last)
	})

	t.Run("rejects a job missing its payload", func(t *testing.T) {
		runner := NewRunner(nil, "", logging.NewNop())
		runner.Register(KindMergeDocketWithIDB, &stubExecutor{})

		err := runner.Execute(ctx, NewJob(KindMergeDocketWithIDB))
		assert.ErrorContains(t, err, "missing merge_docket payload")
	})

	t.Run("rejects a payload that fails validation", func(t *testing.T) {
		runner := NewRunner(nil, "", logging.NewNop())
		exec := &stubExecutor{}
		runner.Register(KindMergeDocketWithIDB, exec)

		err := runner.Execute(ctx, mergeJob(0, 42))
		assert.ErrorContains(t, err, "invalid")
		assert.Equal(t, 0, exec.calls)
	})

	t.Run("rejects an unknown kind", func(t *testing.T) {
		runner := NewRunner(nil, "", logging.NewNop())
		err := runner.Execute(ctx, NewJob(Kind("docket.no_such_thing")))
		assert.ErrorContains(t, err, "unknown job kind")
	})

	t.Run("rejects a kind with no executor", func(t *testing.T) {
		runner := NewRunner(nil, "", logging.NewNop())
		err := runner.Execute(ctx, mergeJob(7, 42))
		assert.ErrorContains(t, err, "no executor registered")
	})

	t.Run("propagates executor failure", func(t *testing.T) {
		runner := NewRunner(nil, "", logging.NewNop())
		runner.Register(KindMergeDocketWithIDB, &stubExecutor{err: errors.New("link failed")})

		err := runner.Execute(ctx, mergeJob(7, 42))
		assert.ErrorContains(t, err, "link failed")
	})

	t.Run("dispatches the follow-up job when a dispatcher is set", func(t *testing.T) {
		dispatcher := &recordingDispatcher{}
		runner := NewRunner(dispatcher, "jobs", logging.NewNop())

		next := NewJob(KindUpdateDocketFromPacer)
		next.UpdateDocket = &UpdateDocketPayload{DocketID: 7, PacerCaseID: "12345"}
		runner.Register(KindMergeDocketWithIDB, &stubExecutor{next: next})

		require.NoError(t, runner.Execute(ctx, mergeJob(7, 42)))
		require.Len(t, dispatcher.jobs, 1)
		assert.Equal(t, KindUpdateDocketFromPacer, dispatcher.jobs[0].Kind)
	})

	t.Run("runs the follow-up inline without a dispatcher", func(t *testing.T) {
		runner := NewRunner(nil, "", logging.NewNop())

		next := NewJob(KindUpdateDocketFromPacer)
		next.UpdateDocket = &UpdateDocketPayload{DocketID: 7, PacerCaseID: "12345"}
		updateExec := &stubExecutor{}
		runner.Register(KindFetchPacerCaseID, &stubExecutor{next: next})
		runner.Register(KindUpdateDocketFromPacer, updateExec)

		job := NewJob(KindFetchPacerCaseID)
		job.FetchCaseID = &FetchCaseIDPayload{DocketID: 7, CourtID: "nysd", DocketNumber: "1:17-cv-00101"}
		require.NoError(t, runner.Execute(ctx, job))
		assert.Equal(t, 1, updateExec.calls)
		assert.Equal(t, next, updateExec.last)
	})
}

type memoryIDBStore struct {
	rows map[int64]*models.IDBRecord
}

func (s *memoryIDBStore) Get(_ context.Context, id int64) (*models.IDBRecord, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return row, nil
}

type memoryDocketStore struct {
	linked  map[int64]int64
	pacer   map[int64]string
	created []*models.Docket
}

func newMemoryDocketStore() *memoryDocketStore {
	return &memoryDocketStore{linked: make(map[int64]int64), pacer: make(map[int64]string)}
}

func (s *memoryDocketStore) CreateFromIDB(_ context.Context, docket *models.Docket) (*models.Docket, error) {
	created := *docket
	created.ID = int64(len(s.created) + 1)
	s.created = append(s.created, &created)
	return &created, nil
}

func (s *memoryDocketStore) LinkIDBData(_ context.Context, docketID, idbDataID int64) error {
	s.linked[docketID] = idbDataID
	return nil
}

func (s *memoryDocketStore) SetPacerCaseID(_ context.Context, docketID int64, pacerCaseID string) error {
	s.pacer[docketID] = pacerCaseID
	return nil
}

type stubLookup struct {
	caseID string
	err    error
}

func (s *stubLookup) LookupCaseID(_ context.Context, _, _, _ string) (string, error) {
	return s.caseID, s.err
}

func TestCreateDocketExecutor(t *testing.T) {
	idb := &memoryIDBStore{rows: map[int64]*models.IDBRecord{
		42: {
			ID:           42,
			District:     "nysd",
			DocketNumber: "1:17-cv-00101",
			Plaintiff:    "Smith",
			Defendant:    "Jones",
		},
	}}
	store := newMemoryDocketStore()
	exec := NewCreateDocketExecutor(idb, store, logging.NewNop())

	job := NewJob(KindCreateDocketFromIDB)
	job.CreateDocket = &CreateDocketPayload{IDBID: 42}

	next, err := exec.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, store.created, 1)

	created := store.created[0]
	assert.Equal(t, "nysd", created.CourtID)
	assert.Equal(t, "1:17-cv-00101", created.DocketNumber)
	assert.Equal(t, "1700101", created.DocketNumberCore)
	assert.Equal(t, "Smith v. Jones", created.CaseName)
	require.NotNil(t, created.IDBDataID)
	assert.Equal(t, int64(42), *created.IDBDataID)
}

func TestMergeDocketExecutor(t *testing.T) {
	store := newMemoryDocketStore()
	exec := NewMergeDocketExecutor(store, logging.NewNop())

	job := mergeJob(7, 42)
	ctx := context.Background()

	next, err := exec.Execute(ctx, job)
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Equal(t, int64(42), store.linked[7])

	t.Run("replay is harmless", func(t *testing.T) {
		_, err := exec.Execute(ctx, job)
		require.NoError(t, err)
		assert.Equal(t, int64(42), store.linked[7])
	})
}

func TestFetchCaseIDExecutor(t *testing.T) {
	ctx := context.Background()

	fetchJob := func() *Job {
		job := NewJob(KindFetchPacerCaseID)
		job.FetchCaseID = &FetchCaseIDPayload{
			DocketID:     7,
			CourtID:      "nysd",
			DocketNumber: "1:17-cv-00101",
			CaseName:     "Smith v. Jones",
		}
		return job
	}

	t.Run("fills the chained update job", func(t *testing.T) {
		exec := NewFetchCaseIDExecutor(&stubLookup{caseID: "98765"}, logging.NewNop())
		job := fetchJob()
		job.Then = NewJob(KindUpdateDocketFromPacer)
		job.Then.UpdateDocket = &UpdateDocketPayload{DocketID: 7}

		next, err := exec.Execute(ctx, job)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, job.Then, next)
		assert.Equal(t, "98765", next.UpdateDocket.PacerCaseID)
	})

	t.Run("builds the update job when none is chained", func(t *testing.T) {
		exec := NewFetchCaseIDExecutor(&stubLookup{caseID: "98765"}, logging.NewNop())

		next, err := exec.Execute(ctx, fetchJob())
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, KindUpdateDocketFromPacer, next.Kind)
		assert.Equal(t, int64(7), next.UpdateDocket.DocketID)
		assert.Equal(t, "98765", next.UpdateDocket.PacerCaseID)
	})

	t.Run("no case id means no follow-up", func(t *testing.T) {
		exec := NewFetchCaseIDExecutor(&stubLookup{}, logging.NewNop())

		next, err := exec.Execute(ctx, fetchJob())
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		exec := NewFetchCaseIDExecutor(&stubLookup{err: errors.New("pacer down")}, logging.NewNop())

		_, err := exec.Execute(ctx, fetchJob())
		assert.ErrorContains(t, err, "pacer down")
	})
}

func TestUpdateDocketExecutor(t *testing.T) {
	store := newMemoryDocketStore()
	exec := NewUpdateDocketExecutor(store, logging.NewNop())

	job := NewJob(KindUpdateDocketFromPacer)
	job.UpdateDocket = &UpdateDocketPayload{DocketID: 7, PacerCaseID: "98765"}

	next, err := exec.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Equal(t, "98765", store.pacer[7])
}

func TestJob_Key(t *testing.T) {
	t.Run("keys by docket for merges", func(t *testing.T) {
		assert.Equal(t, "docket:7", mergeJob(7, 42).Key())
	})

	t.Run("keys by idb row for creates", func(t *testing.T) {
		job := NewJob(KindCreateDocketFromIDB)
		job.CreateDocket = &CreateDocketPayload{IDBID: 42}
		assert.Equal(t, "idb:42", job.Key())
	})

	t.Run("falls back to the job id", func(t *testing.T) {
		job := NewJob(KindMergeDocketWithIDB)
		assert.Equal(t, job.ID, job.Key())
	})
}
