package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridelink/apperr"
	"ridelink/models"
	"ridelink/notify"
)

func TestCreateRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	passenger := f.user(t, "pax", models.RolePassenger)
	tomorrow := f.now.AddDate(0, 0, 1).Format(dateLayout)

	in := CreateRideInput{
		Origin: "  Gulberg ", Destination: "NUST ", Date: tomorrow, Time: "07:45", Seats: 3, Price: 180,
	}
	ride, err := f.svc.Rides.Create(ctx, driver, in)
	require.NoError(t, err)
	assert.Equal(t, "Gulberg", ride.Origin)
	assert.Equal(t, "NUST", ride.Destination)
	assert.Equal(t, 3, ride.TotalSeats)
	assert.Equal(t, 3, ride.AvailableSeats)
	assert.Equal(t, models.RideScheduled, ride.Status)
	assert.Equal(t, models.DefaultPreferences(), ride.Preferences)
	assert.True(t, time.Date(2026, 3, 3, 7, 45, 0, 0, time.UTC).Equal(ride.DepartureAt))

	_, err = f.svc.Rides.Create(ctx, passenger, in)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	past := in
	past.Date = f.now.Format(dateLayout)
	past.Time = "08:59"
	_, err = f.svc.Rides.Create(ctx, driver, past)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Departure time must be in the future", apperr.Message(err))

	tooMany := in
	tooMany.Seats = 5
	_, err = f.svc.Rides.Create(ctx, driver, tooMany)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	badTime := in
	badTime.Time = "7am"
	_, err = f.svc.Rides.Create(ctx, driver, badTime)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDepartureUsesConfiguredZone(t *testing.T) {
	f := newFixture(t)
	karachi, err := time.LoadLocation("Asia/Karachi")
	require.NoError(t, err)
	f.svc.Rides.Location = karachi

	dep, err := f.svc.Rides.departure("2026-03-03", "08:00")
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 3, 3, 3, 0, 0, 0, time.UTC).Equal(dep))
}

func TestSearchRides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	tomorrow := f.now.AddDate(0, 0, 1).Format(dateLayout)
	later := f.now.AddDate(0, 0, 3).Format(dateLayout)

	mk := func(origin, date, clock string, seats int) *models.Ride {
		r, err := f.svc.Rides.Create(ctx, driver, CreateRideInput{
			Origin: origin, Destination: "LUMS Campus", Date: date, Time: clock, Seats: seats, Price: 100,
		})
		require.NoError(t, err)
		return r
	}
	early := mk("Model Town", tomorrow, "07:00", 1)
	late := mk("Model Town", tomorrow, "18:00", 3)
	other := mk("Johar Town", later, "09:00", 2)
	cancelled := mk("Model Town", tomorrow, "12:00", 2)
	require.NoError(t, f.svc.Rides.Cancel(ctx, driver.ID, cancelled.ID))

	rides, err := f.svc.Rides.Search(ctx, SearchQuery{Origin: "model"})
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.Equal(t, early.ID, rides[0].ID, "ascending departure")
	assert.Equal(t, late.ID, rides[1].ID)
	require.NotNil(t, rides[0].Driver)

	rides, err = f.svc.Rides.Search(ctx, SearchQuery{Destination: "lums", MinSeats: 2})
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.ElementsMatch(t, []string{late.ID, other.ID}, []string{rides[0].ID, rides[1].ID})

	rides, err = f.svc.Rides.Search(ctx, SearchQuery{Date: later})
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, other.ID, rides[0].ID)

	// Once it has departed a ride only shows up when its day is asked for.
	f.now = time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	rides, err = f.svc.Rides.Search(ctx, SearchQuery{Origin: "model"})
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, late.ID, rides[0].ID)

	rides, err = f.svc.Rides.Search(ctx, SearchQuery{Date: tomorrow})
	require.NoError(t, err)
	assert.Len(t, rides, 2)

	_, err = f.svc.Rides.Search(ctx, SearchQuery{Date: "03/03/2026"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	other := f.user(t, "other", models.RoleDriver)
	ride := f.ride(t, driver, 2, 100)

	newTime := "10:15"
	price := 220.0
	notes := "Meet at gate 2"
	prefs := models.Preferences{ACAvailable: true, PetsAllowed: true}
	updated, err := f.svc.Rides.Update(ctx, driver.ID, ride.ID, UpdateRideInput{
		Time: &newTime, Price: &price, Notes: &notes, Preferences: &prefs,
	})
	require.NoError(t, err)
	assert.Equal(t, "10:15", updated.Time)
	assert.True(t, time.Date(2026, 3, 3, 10, 15, 0, 0, time.UTC).Equal(updated.DepartureAt))
	assert.Equal(t, 220.0, updated.Price)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, prefs, updated.Preferences)
	assert.Equal(t, 2, updated.TotalSeats)

	_, err = f.svc.Rides.Update(ctx, other.ID, ride.ID, UpdateRideInput{Notes: &notes})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	f.now = time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	early := "08:00"
	_, err = f.svc.Rides.Update(ctx, driver.ID, ride.ID, UpdateRideInput{Time: &early})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "a new time must still be in the future")

	require.NoError(t, f.svc.Rides.Complete(ctx, driver.ID, ride.ID))
	_, err = f.svc.Rides.Update(ctx, driver.ID, ride.ID, UpdateRideInput{Notes: &notes})
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestUpdateKeepsPriceOfExistingBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	p := f.user(t, "pax", models.RolePassenger)
	ride := f.ride(t, driver, 2, 100)

	booking, err := f.svc.Bookings.Request(ctx, p.ID, BookingRequestInput{RideID: ride.ID, SeatsRequested: 2})
	require.NoError(t, err)
	price := 500.0
	_, err = f.svc.Rides.Update(ctx, driver.ID, ride.ID, UpdateRideInput{Price: &price})
	require.NoError(t, err)

	var stored models.Booking
	require.NoError(t, f.db.Where("id = ?", booking.ID).First(&stored).Error)
	assert.Equal(t, 200.0, stored.AmountDue)
}

func TestCancelRideNotifiesRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	a := f.user(t, "alice", models.RolePassenger)
	b := f.user(t, "bilal", models.RolePassenger)
	ride := f.ride(t, driver, 3, 100)

	for _, p := range []*models.User{a, b} {
		bk, err := f.svc.Bookings.Request(ctx, p.ID, BookingRequestInput{RideID: ride.ID})
		require.NoError(t, err)
		_, err = f.svc.Bookings.Approve(ctx, driver.ID, bk.ID)
		require.NoError(t, err)
	}

	assert.True(t, apperr.Is(f.svc.Rides.Cancel(ctx, a.ID, ride.ID), apperr.KindForbidden))
	require.NoError(t, f.svc.Rides.Cancel(ctx, driver.ID, ride.ID))
	assert.Equal(t, models.RideCancelled, f.reloadRide(t, ride.ID).Status)
	assert.True(t, apperr.Is(f.svc.Rides.Cancel(ctx, driver.ID, ride.ID), apperr.KindInvalidState))

	events := f.events.ofType(notify.RideCancelled)
	require.Len(t, events, 2)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, []string{events[0].UserID, events[1].UserID})
}

func TestCompleteRideCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	a := f.user(t, "alice", models.RolePassenger)
	b := f.user(t, "bilal", models.RolePassenger)
	ride := f.ride(t, driver, 4, 150)

	bookA, err := f.svc.Bookings.Request(ctx, a.ID, BookingRequestInput{RideID: ride.ID, SeatsRequested: 2})
	require.NoError(t, err)
	_, err = f.svc.Bookings.Approve(ctx, driver.ID, bookA.ID)
	require.NoError(t, err)
	_, err = f.svc.Bookings.Request(ctx, b.ID, BookingRequestInput{RideID: ride.ID})
	require.NoError(t, err)

	assert.True(t, apperr.Is(f.svc.Rides.Complete(ctx, a.ID, ride.ID), apperr.KindForbidden))
	require.NoError(t, f.svc.Rides.Complete(ctx, driver.ID, ride.ID))

	d := f.reloadUser(t, driver.ID)
	assert.Equal(t, 1, d.RidesAsDriver)
	assert.Equal(t, 300.0, d.TotalEarnings, "only confirmed bookings count")
	assert.Equal(t, 1, f.reloadUser(t, a.ID).RidesAsPassenger)
	assert.Equal(t, 0, f.reloadUser(t, b.ID).RidesAsPassenger)
	assert.Equal(t, models.RideCompleted, f.reloadRide(t, ride.ID).Status)

	err = f.svc.Rides.Complete(ctx, driver.ID, ride.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	assert.Equal(t, 1, f.reloadUser(t, driver.ID).RidesAsDriver)
	assert.True(t, apperr.Is(f.svc.Rides.Cancel(ctx, driver.ID, ride.ID), apperr.KindInvalidState))
}

func TestMyRides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.user(t, "driver", models.RoleDriver)
	first := f.ride(t, driver, 2, 100)
	second, err := f.svc.Rides.Create(ctx, driver, CreateRideInput{
		Origin: "A", Destination: "B", Date: f.now.AddDate(0, 0, 2).Format(dateLayout), Time: "08:00", Seats: 1,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Rides.Cancel(ctx, driver.ID, first.ID))

	rides, err := f.svc.Rides.MyRides(ctx, driver.ID, "")
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.Equal(t, second.ID, rides[0].ID, "latest departure first")

	rides, err = f.svc.Rides.MyRides(ctx, driver.ID, models.RideCancelled)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, first.ID, rides[0].ID)
}
