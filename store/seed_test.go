package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridelink/models"
	"ridelink/store"
	"ridelink/store/storetest"
)

func TestSeedDemoIsIdempotent(t *testing.T) {
	db := storetest.Open(t)
	ctx := context.Background()
	loc, err := time.LoadLocation("Asia/Karachi")
	require.NoError(t, err)
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	n, err := store.SeedDemo(ctx, db, now, loc)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	n, err = store.SeedDemo(ctx, db, now, loc)
	require.NoError(t, err)
	assert.Zero(t, n)

	var rides []models.Ride
	require.NoError(t, db.Order("departure_at").Find(&rides).Error)
	require.Len(t, rides, 3)
	assert.Equal(t, "2026-05-05", rides[0].Date)
	assert.Equal(t, "08:30", rides[0].Time)
	assert.True(t, rides[0].DepartureAt.Equal(time.Date(2026, 5, 5, 3, 30, 0, 0, time.UTC)))
	assert.Equal(t, rides[0].TotalSeats, rides[0].AvailableSeats)
}
