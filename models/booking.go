package models

import "time"

type Booking struct {
	Base
	RideID      string `gorm:"type:varchar(36);index:idx_booking_ride_passenger;not null" json:"rideId"`
	Ride        *Ride  `gorm:"foreignKey:RideID" json:"ride,omitempty"`
	PassengerID string `gorm:"type:varchar(36);index:idx_booking_ride_passenger;index:idx_booking_passenger_status;not null" json:"passengerId"`
	Passenger   *User  `gorm:"foreignKey:PassengerID" json:"passenger,omitempty"`
	// DriverID is copied from the ride at creation; the ride stays authoritative.
	DriverID string `gorm:"type:varchar(36);index:idx_booking_driver_status;not null" json:"driverId"`
	Driver   *User  `gorm:"foreignKey:DriverID" json:"driver,omitempty"`

	Status         BookingStatus `gorm:"type:varchar(20);default:'pending';index:idx_booking_passenger_status;index:idx_booking_driver_status" json:"status"`
	SeatsRequested int           `gorm:"not null;default:1" json:"seatsRequested"`
	AmountDue      float64       `gorm:"type:decimal(10,2);not null" json:"amountDue"`
	PaymentStatus  PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"paymentStatus"`
	PaymentMethod  string        `gorm:"size:20;default:'cash'" json:"paymentMethod"`
	Message        string        `gorm:"size:200" json:"message,omitempty"`

	RequestedAt        time.Time  `json:"requestedAt"`
	ConfirmedAt        *time.Time `json:"confirmedAt,omitempty"`
	RejectedAt         *time.Time `json:"rejectedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
}
