package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/laurel/pkg/jobs"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	Job *jobs.Job
}

// ParseJob parses the message value as a reconciliation job
func (m *IncomingMessage) ParseJob() error {
	var job jobs.Job
	if err := json.Unmarshal(m.Value, &job); err != nil {
		return err
	}
	m.Job = &job
	return nil
}

// JobKind returns the job kind, preferring the header so misrouted or
// unparseable payloads can still be identified in logs.
func (m *IncomingMessage) JobKind() string {
	if kind := m.Headers["job_kind"]; kind != "" {
		return kind
	}
	if m.Job != nil {
		return string(m.Job.Kind)
	}
	return ""
}
