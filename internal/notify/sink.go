// Package notify fans pipeline progress out to external consumers. Display
// and UX are out of scope; sinks only carry structured events.
package notify

import (
	"context"
	"time"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// EventType distinguishes stage transitions from item and batch outcomes.
type EventType string

const (
	EventStage    EventType = "stage"
	EventItem     EventType = "item"
	EventTerminal EventType = "terminal"
)

// Event is one progress notification.
type Event struct {
	Type      EventType          `json:"type"`
	JobID     string             `json:"job_id"`
	Stage     domain.Stage       `json:"stage,omitempty"`
	ItemID    string             `json:"item_id,omitempty"`
	ItemState domain.ItemState   `json:"item_state,omitempty"`
	Status    domain.BatchStatus `json:"status,omitempty"`
	Error     *domain.Error      `json:"error,omitempty"`
	At        time.Time          `json:"at"`
}

// Sink receives events. Implementations must be non-blocking best-effort:
// a slow or failing sink never stalls the pipeline.
type Sink interface {
	Notify(ctx context.Context, ev Event)
}

// Multi fans one event out to several sinks.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Notify(ctx, ev)
	}
}

// Nop discards all events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}
