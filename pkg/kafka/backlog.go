package kafka

import (
	"context"
	"net"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
)

// BacklogReader measures consumer group lag on a topic: the gap between the
// partition high watermarks and the group's committed offsets.
type BacklogReader struct {
	client  *kafka.Client
	brokers []string
	group   string
	logger  ectologger.Logger
}

// NewBacklogReader creates a backlog reader for a consumer group
func NewBacklogReader(brokers []string, group string, logger ectologger.Logger) *BacklogReader {
	return &BacklogReader{
		client:  &kafka.Client{Addr: kafka.TCP(brokers...)},
		brokers: brokers,
		group:   group,
		logger:  logger,
	}
}

// Backlog returns the total uncommitted message count for the topic across
// all partitions. A topic that does not exist yet has zero backlog.
func (b *BacklogReader) Backlog(ctx context.Context, topic string) (int64, error) {
	meta, err := b.client.Metadata(ctx, &kafka.MetadataRequest{Topics: []string{topic}})
	if err != nil {
		return 0, err
	}

	var partitions []int
	for _, t := range meta.Topics {
		if t.Name != topic {
			continue
		}
		if t.Error != nil {
			// Unknown topic: nothing enqueued yet
			return 0, nil
		}
		for _, p := range t.Partitions {
			partitions = append(partitions, p.ID)
		}
	}
	if len(partitions) == 0 {
		return 0, nil
	}

	offsetReqs := make([]kafka.OffsetRequest, 0, len(partitions))
	for _, p := range partitions {
		offsetReqs = append(offsetReqs, kafka.LastOffsetOf(p))
	}
	listResp, err := b.client.ListOffsets(ctx, &kafka.ListOffsetsRequest{
		Topics: map[string][]kafka.OffsetRequest{topic: offsetReqs},
	})
	if err != nil {
		return 0, err
	}

	fetchResp, err := b.client.OffsetFetch(ctx, &kafka.OffsetFetchRequest{
		GroupID: b.group,
		Topics:  map[string][]int{topic: partitions},
	})
	if err != nil {
		return 0, err
	}

	committed := make(map[int]int64, len(partitions))
	for _, p := range fetchResp.Topics[topic] {
		committed[p.Partition] = p.CommittedOffset
	}

	var lag int64
	for _, p := range listResp.Topics[topic] {
		if p.Error != nil {
			continue
		}
		c, ok := committed[p.Partition]
		if !ok || c < 0 {
			// Group has never committed here, everything is backlog
			c = p.FirstOffset
		}
		if d := p.LastOffset - c; d > 0 {
			lag += d
		}
	}

	return lag, nil
}

// Ping checks broker reachability
func (b *BacklogReader) Ping(ctx context.Context) error {
	if len(b.brokers) == 0 {
		return nil
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return err
	}
	return conn.Close()
}
