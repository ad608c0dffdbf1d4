// Package events publishes domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// SearchRecorded is emitted after a search term counter changes.
type SearchRecorded struct {
	Term       string    `json:"term"`
	Count      int64     `json:"count"`
	MovieID    int64     `json:"movie_id"`
	Title      string    `json:"title"`
	RecordedAt time.Time `json:"recorded_at"`
}

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

type NATS struct {
	nc *nats.Conn
}

func NewNATS(url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("moodreel"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATS{nc: nc}, nil
}

func (p *NATS) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	return p.nc.Publish(subject, data)
}

// Close flushes pending messages before closing the connection.
func (p *NATS) Close() error {
	err := p.nc.Drain()
	if err != nil {
		p.nc.Close()
	}
	return err
}
