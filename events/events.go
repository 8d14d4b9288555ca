// Package events publishes ingestion outcomes to downstream consumers.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeStored   = "image.stored"
	TypeRejected = "image.rejected"
)

// Event describes one ingestion outcome.
type Event struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Dimension int       `json:"dimension,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Time      time.Time `json:"time"`
}

// Publisher delivers events. Publish failures never affect the outcome
// being reported.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards all events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
