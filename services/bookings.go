package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ridelink/apperr"
	"ridelink/models"
	"ridelink/notify"
)

type BookingRequestInput struct {
	RideID         string `json:"rideId" binding:"required"`
	SeatsRequested int    `json:"seatsRequested" binding:"omitempty,min=1,max=4"`
	Message        string `json:"message" binding:"max=200"`
	PaymentMethod  string `json:"paymentMethod" binding:"omitempty,oneof=cash digital"`
}

// BookingService owns the booking state machine and is the only writer of
// a ride's seat count and roster:
//
//	pending -> confirmed | rejected
//	pending | confirmed -> cancelled
type BookingService struct {
	Deps
}

func NewBookingService(d Deps) *BookingService {
	return &BookingService{Deps: d.withDefaults()}
}

func (s *BookingService) Request(ctx context.Context, passengerID string, in BookingRequestInput) (*models.Booking, error) {
	if in.SeatsRequested == 0 {
		in.SeatsRequested = 1
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "cash"
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}

	ride, err := findByID[models.Ride](ctx, s.DB, in.RideID, "Ride")
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideScheduled {
		return nil, apperr.InvalidState("This ride is not available for booking")
	}
	if ride.DriverID == passengerID {
		return nil, apperr.InvalidState("You cannot book your own ride")
	}
	if ride.AvailableSeats < in.SeatsRequested {
		return nil, apperr.InvalidState("Only %d seat(s) available", ride.AvailableSeats)
	}

	now := s.Now().UTC()
	booking := &models.Booking{
		RideID:         ride.ID,
		PassengerID:    passengerID,
		DriverID:       ride.DriverID,
		Status:         models.BookingPending,
		SeatsRequested: in.SeatsRequested,
		AmountDue:      ride.Price * float64(in.SeatsRequested),
		PaymentStatus:  models.PaymentPending,
		PaymentMethod:  in.PaymentMethod,
		Message:        in.Message,
		RequestedAt:    now,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Touching the ride row serializes concurrent requests for it, so the
		// duplicate check below sees every committed booking.
		if err := tx.Model(&models.Ride{}).Where("id = ?", ride.ID).Update("updated_at", now).Error; err != nil {
			return err
		}
		var active int64
		err := tx.Model(&models.Booking{}).
			Where("ride_id = ? AND passenger_id = ? AND status IN ?", ride.ID, passengerID,
				[]models.BookingStatus{models.BookingPending, models.BookingConfirmed}).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.Conflict("You already have a booking for this ride")
		}
		return tx.Create(booking).Error
	})
	if err != nil {
		return nil, txErr(err, "Failed to request booking")
	}

	s.Log.InfoContext(ctx, "booking requested", "action", "request_booking",
		"booking_id", booking.ID, "ride_id", ride.ID, "passenger_id", passengerID, "seats", booking.SeatsRequested)
	s.notify(ctx, notify.Event{
		Type:      notify.BookingRequested,
		UserID:    ride.DriverID,
		RideID:    ride.ID,
		BookingID: booking.ID,
		Message:   fmt.Sprintf("New request for %d seat(s) on your ride to %s", booking.SeatsRequested, ride.Destination),
	})
	return s.reload(ctx, booking.ID)
}

// load fetches a booking with its live ride.
func (s *BookingService) load(ctx context.Context, bookingID string) (*models.Booking, *models.Ride, error) {
	booking, err := findByID[models.Booking](ctx, s.DB, bookingID, "Booking")
	if err != nil {
		return nil, nil, err
	}
	ride, err := findByID[models.Ride](ctx, s.DB, booking.RideID, "Ride")
	if err != nil {
		return nil, nil, err
	}
	if booking.DriverID != ride.DriverID {
		s.Log.WarnContext(ctx, "booking driver differs from ride driver", "action", "load_booking",
			"booking_id", booking.ID, "booking_driver_id", booking.DriverID, "ride_driver_id", ride.DriverID)
	}
	return booking, ride, nil
}

func (s *BookingService) reload(ctx context.Context, bookingID string) (*models.Booking, error) {
	return findByID[models.Booking](ctx, s.DB, bookingID, "Booking", "Ride", "Passenger", "Driver")
}

// Approve confirms a pending booking and takes its seats from the ride.
func (s *BookingService) Approve(ctx context.Context, driverID, bookingID string) (*models.Booking, error) {
	booking, ride, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, apperr.Forbidden("Not authorized")
	}
	if booking.Status != models.BookingPending {
		return nil, apperr.InvalidState("Booking is not pending")
	}
	if ride.Status == models.RideCompleted || ride.Status == models.RideCancelled {
		return nil, apperr.InvalidState("This ride is no longer accepting passengers")
	}
	if ride.AvailableSeats < booking.SeatsRequested {
		return nil, apperr.InvalidState("Not enough seats available")
	}

	now := s.Now().UTC()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, models.BookingPending).
			Updates(map[string]any{"status": models.BookingConfirmed, "confirmed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("Booking is not pending")
		}

		res = tx.Model(&models.Ride{}).
			Where("id = ? AND available_seats >= ?", ride.ID, booking.SeatsRequested).
			Update("available_seats", gorm.Expr("available_seats - ?", booking.SeatsRequested))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Seats were just taken by another booking, please retry")
		}

		var last struct{ Position int }
		err := tx.Model(&models.RidePassenger{}).Select("COALESCE(MAX(position), 0) AS position").
			Where("ride_id = ?", ride.ID).Scan(&last).Error
		if err != nil {
			return err
		}
		return tx.Create(&models.RidePassenger{
			RideID:   ride.ID,
			UserID:   booking.PassengerID,
			Position: last.Position + 1,
		}).Error
	})
	if err != nil {
		return nil, txErr(err, "Failed to approve booking")
	}

	s.Log.InfoContext(ctx, "booking approved", "action", "approve_booking",
		"booking_id", booking.ID, "ride_id", ride.ID, "seats", booking.SeatsRequested)
	s.notify(ctx, notify.Event{
		Type:      notify.BookingApproved,
		UserID:    booking.PassengerID,
		RideID:    ride.ID,
		BookingID: booking.ID,
		Message:   "Your booking to " + ride.Destination + " was approved",
	})
	return s.reload(ctx, booking.ID)
}

func (s *BookingService) Reject(ctx context.Context, driverID, bookingID string) error {
	booking, ride, err := s.load(ctx, bookingID)
	if err != nil {
		return err
	}
	if ride.DriverID != driverID {
		return apperr.Forbidden("Not authorized")
	}
	if booking.Status != models.BookingPending {
		return apperr.InvalidState("Booking is not pending")
	}

	res := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, models.BookingPending).
		Updates(map[string]any{"status": models.BookingRejected, "rejected_at": s.Now().UTC()})
	if res.Error != nil {
		return apperr.Internal(res.Error, "Failed to reject booking")
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidState("Booking is not pending")
	}

	s.Log.InfoContext(ctx, "booking rejected", "action", "reject_booking", "booking_id", booking.ID, "ride_id", ride.ID)
	s.notify(ctx, notify.Event{
		Type:      notify.BookingRejected,
		UserID:    booking.PassengerID,
		RideID:    ride.ID,
		BookingID: booking.ID,
		Message:   "Your booking to " + ride.Destination + " was declined",
	})
	return nil
}

// Cancel withdraws a passenger's booking on a ride that has not ended. A
// confirmed booking gives its seats back and leaves the roster once.
func (s *BookingService) Cancel(ctx context.Context, passengerID, bookingID, reason string) error {
	booking, ride, err := s.load(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.PassengerID != passengerID {
		return apperr.Forbidden("Not authorized")
	}
	switch booking.Status {
	case models.BookingCancelled:
		return apperr.InvalidState("Booking already cancelled")
	case models.BookingRejected:
		return apperr.InvalidState("Rejected bookings cannot be cancelled")
	}
	// Finished rides keep the roster and seats they ended with.
	switch ride.Status {
	case models.RideCompleted:
		return apperr.InvalidState("Cannot cancel a booking on a completed ride")
	case models.RideCancelled:
		return apperr.InvalidState("This ride has already been cancelled")
	}

	prior := booking.Status
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, prior).
			Updates(map[string]any{
				"status":              models.BookingCancelled,
				"cancelled_at":        s.Now().UTC(),
				"cancellation_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Booking changed while cancelling, please retry")
		}
		if prior != models.BookingConfirmed {
			return nil
		}

		n := booking.SeatsRequested
		err := tx.Model(&models.Ride{}).Where("id = ?", ride.ID).
			Update("available_seats", gorm.Expr(
				"CASE WHEN available_seats + ? > total_seats THEN total_seats ELSE available_seats + ? END", n, n)).Error
		if err != nil {
			return err
		}

		var entry models.RidePassenger
		err = tx.Where("ride_id = ? AND user_id = ?", ride.ID, passengerID).Order("position ASC").Limit(1).Find(&entry).Error
		if err != nil {
			return err
		}
		if entry.ID == 0 {
			s.Log.WarnContext(ctx, "confirmed passenger missing from roster", "action", "cancel_booking",
				"booking_id", booking.ID, "ride_id", ride.ID, "passenger_id", passengerID)
			return nil
		}
		return tx.Delete(&entry).Error
	})
	if err != nil {
		return txErr(err, "Failed to cancel booking")
	}

	s.Log.InfoContext(ctx, "booking cancelled", "action", "cancel_booking",
		"booking_id", booking.ID, "ride_id", ride.ID, "was", prior)
	s.notify(ctx, notify.Event{
		Type:      notify.BookingCancelled,
		UserID:    ride.DriverID,
		RideID:    ride.ID,
		BookingID: booking.ID,
		Message:   "A passenger cancelled their booking on your ride to " + ride.Destination,
	})
	return nil
}

// MarkPayment records that a booking has been paid. Either party may do it.
func (s *BookingService) MarkPayment(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	booking, ride, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if userID != booking.PassengerID && userID != ride.DriverID {
		return nil, apperr.Forbidden("Not authorized")
	}
	err = s.DB.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", booking.ID).
		Update("payment_status", models.PaymentPaid).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to update payment")
	}
	booking.PaymentStatus = models.PaymentPaid
	return booking, nil
}

func (s *BookingService) MyBookings(ctx context.Context, passengerID string, status models.BookingStatus) ([]models.Booking, error) {
	db := s.DB.WithContext(ctx).Preload("Ride").Preload("Driver").Where("passenger_id = ?", passengerID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var bookings []models.Booking
	if err := db.Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to get bookings")
	}
	return bookings, nil
}

// RideBookings is the driver's view of every booking on one ride.
func (s *BookingService) RideBookings(ctx context.Context, driverID, rideID string) ([]models.Booking, error) {
	ride, err := findByID[models.Ride](ctx, s.DB, rideID, "Ride")
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, apperr.Forbidden("Not authorized")
	}
	var bookings []models.Booking
	err = s.DB.WithContext(ctx).Preload("Passenger").Where("ride_id = ?", ride.ID).
		Order("created_at DESC").Find(&bookings).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to get bookings")
	}
	return bookings, nil
}
