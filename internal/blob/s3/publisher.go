package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"
)

// Publisher implements domain.SnapshotPublisher. Each snapshot is written
// twice: a stable "latest.json" the dashboard polls, and a timestamped copy
// kept for history.
type Publisher struct {
	writer *Writer
	prefix string
}

// NewPublisher creates a Publisher that stores snapshots under the given key
// prefix in the client's bucket.
func NewPublisher(c *Client, prefix string) *Publisher {
	return &Publisher{
		writer: NewWriter(c),
		prefix: prefix,
	}
}

// Publish uploads the serialized snapshot.
func (p *Publisher) Publish(ctx context.Context, snapshot []byte, at time.Time) error {
	latest := path.Join(p.prefix, "latest.json")
	if err := p.writer.Put(ctx, latest, bytes.NewReader(snapshot), "application/json"); err != nil {
		return fmt.Errorf("s3blob: publish latest snapshot: %w", err)
	}

	stamped := path.Join(p.prefix, at.UTC().Format("2006/01/02"), at.UTC().Format("150405")+".json")
	if err := p.writer.Put(ctx, stamped, bytes.NewReader(snapshot), "application/json"); err != nil {
		return fmt.Errorf("s3blob: publish stamped snapshot: %w", err)
	}
	return nil
}
