package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ridelink/apperr"
	"ridelink/models"
	"ridelink/notify"
)

// completedRide returns a finished ride whose roster holds passengers.
func (f *fixture) completedRide(t *testing.T, driver *models.User, passengers ...*models.User) *models.Ride {
	t.Helper()
	ctx := context.Background()
	ride := f.ride(t, driver, 4, 100)
	for _, p := range passengers {
		b, err := f.svc.Bookings.Request(ctx, p.ID, BookingRequestInput{RideID: ride.ID})
		require.NoError(t, err)
		_, err = f.svc.Bookings.Approve(ctx, driver.ID, b.ID)
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.Rides.Complete(ctx, driver.ID, ride.ID))
	return ride
}

func TestMutualReviewsSetRatings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	p := f.user(t, "pax", models.RolePassenger)
	ride := f.completedRide(t, driver, p)

	r1, err := f.svc.Reviews.Submit(ctx, p.ID, ReviewInput{
		RideID: ride.ID, RevieweeID: driver.ID, Rating: 4, Tags: []string{"punctual", "safe-driver"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewDriver, r1.ReviewType)
	require.NotNil(t, r1.Reviewer)
	assert.Equal(t, p.ID, r1.Reviewer.ID)
	assert.Equal(t, []string{"punctual", "safe-driver"}, r1.Tags)

	r2, err := f.svc.Reviews.Submit(ctx, driver.ID, ReviewInput{RideID: ride.ID, RevieweeID: p.ID, Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPassenger, r2.ReviewType)

	d := f.reloadUser(t, driver.ID)
	assert.Equal(t, models.RatingSummary{Average: 4, Count: 1}, d.DriverRating)
	assert.Equal(t, 0, d.PassengerRating.Count)
	pu := f.reloadUser(t, p.ID)
	assert.Equal(t, models.RatingSummary{Average: 5, Count: 1}, pu.PassengerRating)

	events := f.events.ofType(notify.ReviewSubmitted)
	require.Len(t, events, 2)
	assert.Equal(t, driver.ID, events[0].UserID)
}

func TestRatingIsMeanOfAllReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	a := f.user(t, "alice", models.RolePassenger)
	b := f.user(t, "bilal", models.RolePassenger)
	c := f.user(t, "chen", models.RolePassenger)

	first := f.completedRide(t, driver, a, b)
	second := f.completedRide(t, driver, c)

	for _, tc := range []struct {
		ride   *models.Ride
		who    *models.User
		rating int
	}{
		{first, a, 5},
		{first, b, 2},
		{second, c, 4},
	} {
		_, err := f.svc.Reviews.Submit(ctx, tc.who.ID, ReviewInput{RideID: tc.ride.ID, RevieweeID: driver.ID, Rating: tc.rating})
		require.NoError(t, err)
	}

	got := f.reloadUser(t, driver.ID).DriverRating
	assert.Equal(t, 3, got.Count)
	assert.InDelta(t, 11.0/3.0, got.Average, 1e-9)
}

func TestReviewPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	a := f.user(t, "alice", models.RolePassenger)
	b := f.user(t, "bilal", models.RolePassenger)
	outsider := f.user(t, "outsider", models.RolePassenger)

	open := f.ride(t, driver, 2, 100)
	_, err := f.svc.Reviews.Submit(ctx, driver.ID, ReviewInput{RideID: open.ID, RevieweeID: a.ID, Rating: 3})
	assert.True(t, apperr.Is(err, apperr.KindInvalidState), "ride not completed")

	ride := f.completedRide(t, driver, a, b)

	_, err = f.svc.Reviews.Submit(ctx, outsider.ID, ReviewInput{RideID: ride.ID, RevieweeID: driver.ID, Rating: 3})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Reviews.Submit(ctx, a.ID, ReviewInput{RideID: ride.ID, RevieweeID: outsider.ID, Rating: 3})
	require.Error(t, err)
	assert.Equal(t, "Reviewee was not part of this ride", apperr.Message(err))

	_, err = f.svc.Reviews.Submit(ctx, a.ID, ReviewInput{RideID: ride.ID, RevieweeID: a.ID, Rating: 3})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Reviews.Submit(ctx, a.ID, ReviewInput{RideID: ride.ID, RevieweeID: driver.ID, Rating: 6})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Reviews.Submit(ctx, a.ID, ReviewInput{RideID: ride.ID, RevieweeID: driver.ID, Rating: 4, Tags: []string{"fast"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "tags come from a closed vocabulary")

	_, err = f.svc.Reviews.Submit(ctx, a.ID, ReviewInput{RideID: ride.ID, RevieweeID: driver.ID, Rating: 4})
	require.NoError(t, err)

	// One review per reviewer per ride, even for a different reviewee.
	_, err = f.svc.Reviews.Submit(ctx, a.ID, ReviewInput{RideID: ride.ID, RevieweeID: b.ID, Rating: 5})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.Reviews.Submit(ctx, a.ID, ReviewInput{RideID: "missing", RevieweeID: driver.ID, Rating: 4})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRecomputeAllRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	p := f.user(t, "pax", models.RolePassenger)
	ride := f.completedRide(t, driver, p)

	_, err := f.svc.Reviews.Submit(ctx, p.ID, ReviewInput{RideID: ride.ID, RevieweeID: driver.ID, Rating: 2})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", driver.ID).
		Updates(map[string]any{"driver_rating_average": 4.5, "driver_rating_count": 9}).Error)

	n, err := f.svc.Ratings.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, models.RatingSummary{Average: 2, Count: 1}, f.reloadUser(t, driver.ID).DriverRating)

	// Idempotent.
	require.NoError(t, f.svc.Ratings.Recompute(ctx, driver.ID, models.ReviewDriver))
	assert.Equal(t, models.RatingSummary{Average: 2, Count: 1}, f.reloadUser(t, driver.ID).DriverRating)

	assert.Error(t, f.svc.Ratings.Recompute(ctx, driver.ID, "mechanic"))
}

func TestReviewSurvivesFailedRatingRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.Ratings.backoff = 0
	driver := f.user(t, "driver", models.RoleDriver)
	p := f.user(t, "pax", models.RolePassenger)
	ride := f.completedRide(t, driver, p)

	var failures atomic.Int32
	var broken atomic.Bool
	broken.Store(true)
	f.beforeUpdate(t, "users", func(tx *gorm.DB) {
		if broken.Load() {
			failures.Add(1)
			_ = tx.AddError(errors.New("users table locked"))
		}
	})

	review, err := f.svc.Reviews.Submit(ctx, p.ID, ReviewInput{RideID: ride.ID, RevieweeID: driver.ID, Rating: 3})
	require.NoError(t, err)
	assert.EqualValues(t, recomputeAttempts, failures.Load())
	assert.Equal(t, 0, f.reloadUser(t, driver.ID).DriverRating.Count, "rating is stale")
	assert.Len(t, f.events.ofType(notify.ReviewSubmitted), 1)

	broken.Store(false)
	_, err = f.svc.Ratings.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RatingSummary{Average: 3, Count: 1}, f.reloadUser(t, driver.ID).DriverRating)
	assert.NotEmpty(t, review.ID)
}

func TestReviewListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleBoth)
	p := f.user(t, "pax", models.RolePassenger)
	ride := f.completedRide(t, driver, p)

	_, err := f.svc.Reviews.Submit(ctx, p.ID, ReviewInput{RideID: ride.ID, RevieweeID: driver.ID, Rating: 5, Comment: "Great"})
	require.NoError(t, err)
	_, err = f.svc.Reviews.Submit(ctx, driver.ID, ReviewInput{RideID: ride.ID, RevieweeID: p.ID, Rating: 4})
	require.NoError(t, err)

	mine, err := f.svc.Reviews.ListForUser(ctx, driver.ID, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Great", mine[0].Comment)
	require.NotNil(t, mine[0].Ride)

	none, err := f.svc.Reviews.ListForUser(ctx, driver.ID, models.ReviewPassenger)
	require.NoError(t, err)
	assert.Empty(t, none)

	forRide, err := f.svc.Reviews.ListForRide(ctx, ride.ID)
	require.NoError(t, err)
	require.Len(t, forRide, 2)
	assert.NotNil(t, forRide[0].Reviewee)
}
