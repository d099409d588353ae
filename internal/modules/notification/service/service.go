// Package notification delivers milestone events to external consumers such as CRM sync.
package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const EventTypeMilestoneReached = "engagement.milestone_reached"

// MilestoneEvent is emitted once per (subject, milestone).
type MilestoneEvent struct {
	Type      string    `json:"type"`
	SubjectID uuid.UUID `json:"subject_id"`
	Milestone string    `json:"milestone_name"`
	Score     int       `json:"score"`
	AwardedAt time.Time `json:"awarded_at"`
}

// Publisher is an outbound channel for milestone events.
type Publisher interface {
	Publish(ctx context.Context, event MilestoneEvent) error
}

// PublisherFunc adapts a plain callback to Publisher.
type PublisherFunc func(ctx context.Context, event MilestoneEvent) error

func (f PublisherFunc) Publish(ctx context.Context, event MilestoneEvent) error {
	return f(ctx, event)
}

// Fanout publishes to every publisher and joins their errors. One failing
// consumer does not stop delivery to the others.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event MilestoneEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, MilestoneEvent) error { return nil }
