package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ridelink/models"
	"ridelink/notify"
	"ridelink/store/storetest"
	"ridelink/utils"
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) ofType(typ string) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *captureSender) Send(_ context.Context, channel, to, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[channel+":"+to] = code
	return nil
}

func (c *captureSender) code(channel, to string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[channel+":"+to]
}

type fixture struct {
	db     *gorm.DB
	now    time.Time
	svc    *Services
	events *recorder
	sender *captureSender
	tokens *utils.TokenService
	seq    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:     storetest.Open(t),
		now:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		events: &recorder{},
		sender: &captureSender{codes: map[string]string{}},
		tokens: utils.NewTokenService("test-secret", time.Hour),
	}
	f.svc = New(Deps{
		DB:       f.db,
		Notifier: f.events,
		Validate: utils.NewValidator(".edu.pk"),
		Now:      func() time.Time { return f.now },
		Location: time.UTC,
	}, f.tokens, f.sender)
	return f
}

// user inserts an active account directly, skipping the slow password hash.
func (f *fixture) user(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	f.seq++
	u := &models.User{
		Name:       name,
		Email:      fmt.Sprintf("%s%d@lums.edu.pk", name, f.seq),
		Phone:      fmt.Sprintf("+92300%07d", f.seq),
		Password:   "unused",
		Role:       role,
		University: "LUMS",
		Status:     models.UserActive,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

// ride posts a ride departing tomorrow morning.
func (f *fixture) ride(t *testing.T, driver *models.User, seats int, price float64) *models.Ride {
	t.Helper()
	r, err := f.svc.Rides.Create(context.Background(), driver, CreateRideInput{
		Origin:      "DHA Phase 5",
		Destination: "LUMS",
		Date:        f.now.AddDate(0, 0, 1).Format(dateLayout),
		Time:        "08:30",
		Seats:       seats,
		Price:       price,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) reloadRide(t *testing.T, id string) *models.Ride {
	t.Helper()
	r, err := f.svc.Rides.Get(context.Background(), id)
	require.NoError(t, err)
	return r
}

func (f *fixture) reloadUser(t *testing.T, id string) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.Where("id = ?", id).First(&u).Error)
	return &u
}

func rosterIDs(r *models.Ride) []string {
	ids := make([]string, 0, len(r.Passengers))
	for _, p := range r.Passengers {
		ids = append(ids, p.UserID)
	}
	return ids
}

// beforeUpdate runs fn ahead of every UPDATE on table, inside the caller's
// transaction when there is one.
func (f *fixture) beforeUpdate(t *testing.T, table string, fn func(tx *gorm.DB)) {
	t.Helper()
	err := f.db.Callback().Update().Before("gorm:update").Register("test:before_update_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			fn(tx)
		}
	})
	require.NoError(t, err)
}
