package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/jobs"
)

func TestIncomingMessage_ParseJob(t *testing.T) {
	t.Run("round trips a job through the wire format", func(t *testing.T) {
		job := jobs.NewJob(jobs.KindMergeDocketWithIDB)
		job.MergeDocket = &jobs.MergeDocketPayload{DocketID: 7, IDBID: 42}
		job.Then = jobs.NewJob(jobs.KindUpdateDocketFromPacer)
		job.Then.UpdateDocket = &jobs.UpdateDocketPayload{DocketID: 7}

		raw, err := json.Marshal(job)
		require.NoError(t, err)

		msg := &IncomingMessage{Value: raw}
		require.NoError(t, msg.ParseJob())

		assert.Equal(t, job.ID, msg.Job.ID)
		assert.Equal(t, jobs.KindMergeDocketWithIDB, msg.Job.Kind)
		require.NotNil(t, msg.Job.MergeDocket)
		assert.Equal(t, int64(7), msg.Job.MergeDocket.DocketID)
		require.NotNil(t, msg.Job.Then)
		assert.Equal(t, jobs.KindUpdateDocketFromPacer, msg.Job.Then.Kind)
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte("not json")}
		assert.Error(t, msg.ParseJob())
		assert.Nil(t, msg.Job)
	})
}

func TestIncomingMessage_JobKind(t *testing.T) {
	t.Run("prefers the header", func(t *testing.T) {
		msg := &IncomingMessage{
			Headers: map[string]string{"job_kind": "docket.merge_idb"},
			Job:     jobs.NewJob(jobs.KindCreateDocketFromIDB),
		}
		assert.Equal(t, "docket.merge_idb", msg.JobKind())
	})

	t.Run("falls back to the parsed job", func(t *testing.T) {
		msg := &IncomingMessage{Job: jobs.NewJob(jobs.KindCreateDocketFromIDB)}
		assert.Equal(t, "docket.create_from_idb", msg.JobKind())
	})

	t.Run("empty when nothing is known", func(t *testing.T) {
		msg := &IncomingMessage{}
		assert.Empty(t, msg.JobKind())
	})
}
