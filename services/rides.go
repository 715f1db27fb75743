package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"ridelink/apperr"
	"ridelink/models"
	"ridelink/notify"
	"ridelink/store"
)

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04"
	maxSearchRides = 50
)

type CreateRideInput struct {
	Origin      string              `json:"origin" binding:"required,max=200"`
	Destination string              `json:"destination" binding:"required,max=200"`
	Date        string              `json:"date" binding:"required"`
	Time        string              `json:"time" binding:"required"`
	Seats       int                 `json:"availableSeats" binding:"required,min=1,max=4"`
	Price       float64             `json:"costPerPassenger" binding:"min=0"`
	Preferences *models.Preferences `json:"preferences"`
	Notes       string              `json:"notes" binding:"max=500"`
}

// UpdateRideInput carries the only fields a posted ride may change.
type UpdateRideInput struct {
	Time        *string             `json:"time"`
	Price       *float64            `json:"costPerPassenger" binding:"omitempty,min=0"`
	Preferences *models.Preferences `json:"preferences"`
	Notes       *string             `json:"notes" binding:"omitempty,max=500"`
}

type SearchQuery struct {
	Origin      string `form:"origin"`
	Destination string `form:"destination"`
	Date        string `form:"date"`
	MinSeats    int    `form:"minSeats"`
}

type RideService struct {
	Deps
}

func NewRideService(d Deps) *RideService {
	return &RideService{Deps: d.withDefaults()}
}

// departure combines a local date and clock time into a UTC instant.
func (s *RideService) departure(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, s.Location)
	if err != nil {
		return time.Time{}, apperr.Validation("Invalid date or time, expected YYYY-MM-DD and HH:MM")
	}
	return t.UTC(), nil
}

func (s *RideService) Create(ctx context.Context, driver *models.User, in CreateRideInput) (*models.Ride, error) {
	if !driver.Role.CanDrive() {
		return nil, apperr.Forbidden("This action is only available to drivers")
	}
	in.Origin = strings.TrimSpace(in.Origin)
	in.Destination = strings.TrimSpace(in.Destination)
	if err := s.validate(in); err != nil {
		return nil, err
	}

	dep, err := s.departure(in.Date, in.Time)
	if err != nil {
		return nil, err
	}
	if !dep.After(s.Now()) {
		return nil, apperr.Validation("Departure time must be in the future")
	}

	prefs := models.DefaultPreferences()
	if in.Preferences != nil {
		prefs = *in.Preferences
	}
	ride := &models.Ride{
		DriverID:       driver.ID,
		Origin:         in.Origin,
		Destination:    in.Destination,
		Date:           in.Date,
		Time:           in.Time,
		DepartureAt:    dep,
		TotalSeats:     in.Seats,
		AvailableSeats: in.Seats,
		Price:          in.Price,
		Preferences:    prefs,
		Notes:          in.Notes,
		Status:         models.RideScheduled,
	}
	if err := s.DB.WithContext(ctx).Create(ride).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to create ride")
	}
	ride.Driver = driver

	s.Log.InfoContext(ctx, "ride created", "action", "create_ride", "ride_id", ride.ID, "driver_id", driver.ID, "seats", ride.TotalSeats)
	return ride, nil
}

func (s *RideService) Search(ctx context.Context, q SearchQuery) ([]models.Ride, error) {
	if q.MinSeats < 1 {
		q.MinSeats = 1
	}
	db := s.DB.WithContext(ctx).
		Where("status = ? AND available_seats >= ?", models.RideScheduled, q.MinSeats)

	if o := strings.TrimSpace(q.Origin); o != "" {
		db = db.Where("LOWER(origin) LIKE ?", "%"+strings.ToLower(o)+"%")
	}
	if d := strings.TrimSpace(q.Destination); d != "" {
		db = db.Where("LOWER(destination) LIKE ?", "%"+strings.ToLower(d)+"%")
	}
	if q.Date != "" {
		day, err := time.ParseInLocation(dateLayout, q.Date, s.Location)
		if err != nil {
			return nil, apperr.Validation("Invalid date, expected YYYY-MM-DD")
		}
		db = db.Where("departure_at >= ? AND departure_at < ?", day.UTC(), day.AddDate(0, 0, 1).UTC())
	} else {
		db = db.Where("departure_at >= ?", s.Now().UTC())
	}

	var rides []models.Ride
	err := db.Preload("Driver").Order("departure_at ASC").Limit(maxSearchRides).Find(&rides).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to search rides")
	}
	return rides, nil
}

func withRoster(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Passengers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Passengers.User")
}

func (s *RideService) Get(ctx context.Context, id string) (*models.Ride, error) {
	var ride models.Ride
	err := withRoster(s.DB.WithContext(ctx)).Preload("Driver").Where("id = ?", id).First(&ride).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound("Ride not found")
		}
		return nil, apperr.Internal(err, "Failed to get ride")
	}
	return &ride, nil
}

// MyRides lists the rides driverID has posted, latest departure first.
func (s *RideService) MyRides(ctx context.Context, driverID string, status models.RideStatus) ([]models.Ride, error) {
	db := withRoster(s.DB.WithContext(ctx)).Where("driver_id = ?", driverID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var rides []models.Ride
	if err := db.Order("departure_at DESC").Find(&rides).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to get your rides")
	}
	return rides, nil
}

func (s *RideService) owned(ctx context.Context, driverID, rideID, action string) (*models.Ride, error) {
	ride, err := findByID[models.Ride](ctx, s.DB, rideID, "Ride")
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, apperr.Forbidden("Not authorized to %s this ride", action)
	}
	return ride, nil
}

func (s *RideService) Update(ctx context.Context, driverID, rideID string, in UpdateRideInput) (*models.Ride, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	ride, err := s.owned(ctx, driverID, rideID, "update")
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideScheduled && ride.Status != models.RideInProgress {
		return nil, apperr.InvalidState("Cannot update completed or cancelled rides")
	}

	updates := map[string]any{}
	if in.Time != nil {
		dep, err := s.departure(ride.Date, *in.Time)
		if err != nil {
			return nil, err
		}
		if !dep.After(s.Now()) {
			return nil, apperr.Validation("Departure time must be in the future")
		}
		updates["time"] = *in.Time
		updates["departure_at"] = dep
	}
	if in.Price != nil {
		updates["price"] = *in.Price
	}
	if p := in.Preferences; p != nil {
		updates["pref_non_smoking"] = p.NonSmoking
		updates["pref_ac_available"] = p.ACAvailable
		updates["pref_music_allowed"] = p.MusicAllowed
		updates["pref_pets_allowed"] = p.PetsAllowed
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) > 0 {
		// Seats are owned by the booking ledger, so only named columns are written.
		if err := s.DB.WithContext(ctx).Model(&models.Ride{}).Where("id = ?", ride.ID).Updates(updates).Error; err != nil {
			return nil, apperr.Internal(err, "Failed to update ride")
		}
	}
	return s.Get(ctx, ride.ID)
}

// Cancel withdraws a ride and tells everyone on its roster. Outstanding
// bookings are left as they are.
func (s *RideService) Cancel(ctx context.Context, driverID, rideID string) error {
	ride, err := s.owned(ctx, driverID, rideID, "cancel")
	if err != nil {
		return err
	}
	switch ride.Status {
	case models.RideCompleted:
		return apperr.InvalidState("Cannot cancel completed ride")
	case models.RideCancelled:
		return apperr.InvalidState("Ride already cancelled")
	}

	if err := s.DB.WithContext(ctx).Model(ride).Update("status", models.RideCancelled).Error; err != nil {
		return apperr.Internal(err, "Failed to cancel ride")
	}
	s.Log.InfoContext(ctx, "ride cancelled", "action", "cancel_ride", "ride_id", ride.ID)

	var roster []models.RidePassenger
	if err := s.DB.WithContext(ctx).Where("ride_id = ?", ride.ID).Order("position ASC").Find(&roster).Error; err != nil {
		s.Log.WarnContext(ctx, "roster lookup failed", "action", "cancel_ride", "ride_id", ride.ID, "error", err)
		return nil
	}
	for _, p := range roster {
		s.notify(ctx, notify.Event{
			Type:    notify.RideCancelled,
			UserID:  p.UserID,
			RideID:  ride.ID,
			Message: "Your ride from " + ride.Origin + " to " + ride.Destination + " was cancelled",
		})
	}
	return nil
}

// Complete closes a ride and books the lifetime counters of its driver and
// rostered passengers.
func (s *RideService) Complete(ctx context.Context, driverID, rideID string) error {
	ride, err := s.owned(ctx, driverID, rideID, "complete")
	if err != nil {
		return err
	}
	switch ride.Status {
	case models.RideCompleted:
		return apperr.InvalidState("Ride already completed")
	case models.RideCancelled:
		return apperr.InvalidState("Cannot complete a cancelled ride")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Ride{}).
			Where("id = ? AND status IN ?", ride.ID, []models.RideStatus{models.RideScheduled, models.RideInProgress}).
			Update("status", models.RideCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Ride changed while completing, please retry")
		}

		var earned float64
		err := tx.Model(&models.Booking{}).
			Where("ride_id = ? AND status = ?", ride.ID, models.BookingConfirmed).
			Select("COALESCE(SUM(amount_due), 0)").Scan(&earned).Error
		if err != nil {
			return err
		}

		err = tx.Model(&models.User{}).Where("id = ?", ride.DriverID).Updates(map[string]any{
			"rides_as_driver": gorm.Expr("rides_as_driver + 1"),
			"total_earnings":  gorm.Expr("total_earnings + ?", earned),
		}).Error
		if err != nil {
			return err
		}

		roster := tx.Model(&models.RidePassenger{}).Select("user_id").Where("ride_id = ?", ride.ID)
		return tx.Model(&models.User{}).Where("id IN (?)", roster).
			Update("rides_as_passenger", gorm.Expr("rides_as_passenger + 1")).Error
	})
	if err != nil {
		return txErr(err, "Failed to complete ride")
	}

	s.Log.InfoContext(ctx, "ride completed", "action", "complete_ride", "ride_id", ride.ID, "driver_id", ride.DriverID)
	return nil
}
