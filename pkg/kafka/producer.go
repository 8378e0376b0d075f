package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/laurel/pkg/jobs"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Producer enqueues reconciliation jobs onto Kafka topics. It satisfies
// jobs.Dispatcher: the queue name passed to Dispatch is used as the topic.
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Dispatch publishes a job to the named queue. The job key routes work for
// the same docket to the same partition.
func (p *Producer) Dispatch(ctx context.Context, queue string, job *jobs.Job) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.Dispatch")
	defer span.End()

	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	headers := []kafka.Header{
		{Key: "job_kind", Value: []byte(job.Kind)},
		{Key: "job_id", Value: []byte(job.ID)},
	}
	if tp := tracing.GetTraceParent(ctx); tp != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(tp)})
	}

	msg := kafka.Message{
		Topic:   queue,
		Key:     []byte(job.Key()),
		Value:   data,
		Headers: headers,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"queue":    queue,
			"job_kind": job.Kind,
		}).Error("Failed to dispatch job")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"queue":    queue,
		"job_id":   job.ID,
		"job_kind": job.Kind,
	}).Debug("Dispatched job")

	return nil
}
