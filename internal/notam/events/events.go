// Package events announces NOTAMs that appear for the first time in a
// refresh cycle.
package events

import (
	"context"
	"time"

	"notamcore/internal/notam/models"
)

// NewNotamEvent is emitted once per NOTAM whose identity key was absent
// from the scope's previous cycle.
type NewNotamEvent struct {
	EventID       string          `json:"event_id"`
	CycleID       string          `json:"cycle_id"`
	Scope         string          `json:"scope"`
	IdentityKey   string          `json:"identity_key"`
	NotamID       string          `json:"notam_id"`
	Location      string          `json:"location"`
	QCode         string          `json:"q_code,omitempty"`
	Priority      models.Priority `json:"priority"`
	Rule          string          `json:"rule"`
	EffectiveFrom time.Time       `json:"effective_from"`
	DetectedAt    time.Time       `json:"detected_at"`
}

// Publisher delivers new-NOTAM events.
type Publisher interface {
	Publish(ctx context.Context, events ...NewNotamEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...NewNotamEvent) error { return nil }
func (NopPublisher) Close() error                                   { return nil }
