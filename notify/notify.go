// Package notify delivers booking and ride events to the users they concern.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	BookingRequested = "booking.requested"
	BookingApproved  = "booking.approved"
	BookingRejected  = "booking.rejected"
	BookingCancelled = "booking.cancelled"
	RideCancelled    = "ride.cancelled"
	ReviewSubmitted  = "review.submitted"
)

// Event is addressed to a single recipient.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	RideID    string    `json:"rideId,omitempty"`
	BookingID string    `json:"bookingId,omitempty"`
	ReviewID  string    `json:"reviewId,omitempty"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Fanout hands each event to every sink and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Logged wraps n so delivery failures are logged instead of returned.
func Logged(n Notifier, log *slog.Logger) Notifier {
	return logged{next: n, log: log}
}

type logged struct {
	next Notifier
	log  *slog.Logger
}

func (l logged) Notify(ctx context.Context, ev Event) error {
	if err := l.next.Notify(ctx, ev); err != nil {
		l.log.WarnContext(ctx, "event delivery failed",
			"action", "notify", "event", ev.Type, "user_id", ev.UserID, "error", err)
	}
	return nil
}
