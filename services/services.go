// Package services implements the marketplace's business rules: identity,
// ride inventory, the booking ledger, reviews and moderation.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"ridelink/apperr"
	"ridelink/notify"
	"ridelink/store"
	"ridelink/utils"
)

// Deps are the collaborators every service shares.
type Deps struct {
	DB       *gorm.DB
	Log      *slog.Logger
	Notifier notify.Notifier
	Validate *validator.Validate
	Now      func() time.Time
	// Location is the timezone ride dates and times are entered in.
	Location *time.Location
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = utils.DiscardLogger()
	}
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Validate == nil {
		d.Validate = utils.NewValidator(".edu.pk")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	return d
}

func (d Deps) validate(v any) error {
	if err := d.Validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return apperr.Validation("%s", utils.ValidationMessage(err))
		}
		return apperr.Internal(err, "Invalid input")
	}
	return nil
}

// notify delivers ev after the write that caused it has committed.
func (d Deps) notify(ctx context.Context, ev notify.Event) {
	if ev.UserID == "" {
		return
	}
	if ev.At.IsZero() {
		ev.At = d.Now().UTC()
	}
	if err := d.Notifier.Notify(ctx, ev); err != nil {
		d.Log.WarnContext(ctx, "notification failed", "action", "notify", "event", ev.Type, "user_id", ev.UserID, "error", err)
	}
}

// Services bundles every component behind one constructor.
type Services struct {
	Auth       *AuthService
	Rides      *RideService
	Bookings   *BookingService
	Reviews    *ReviewService
	Ratings    *RatingService
	Moderation *ModerationService
}

func New(d Deps, tokens *utils.TokenService, sender utils.Sender) *Services {
	d = d.withDefaults()
	ratings := NewRatingService(d)
	return &Services{
		Auth:       NewAuthService(d, tokens, sender),
		Rides:      NewRideService(d),
		Bookings:   NewBookingService(d),
		Reviews:    NewReviewService(d, ratings),
		Ratings:    ratings,
		Moderation: NewModerationService(d),
	}
}

// txErr passes business errors out of a transaction untouched and wraps
// anything else as internal.
func txErr(err error, msg string) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Internal(err, "%s", msg)
}

// findByID loads one row or returns a NotFound naming what.
func findByID[T any](ctx context.Context, db *gorm.DB, id, what string, preloads ...string) (*T, error) {
	var out T
	q := db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.Where("id = ?", id).First(&out).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound("%s not found", what)
		}
		return nil, apperr.Internal(err, "Failed to load %s", what)
	}
	return &out, nil
}
