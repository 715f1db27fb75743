package models

import "time"

type Preferences struct {
	NonSmoking   bool `json:"nonSmoking"`
	ACAvailable  bool `json:"acAvailable"`
	MusicAllowed bool `json:"musicAllowed"`
	PetsAllowed  bool `json:"petsAllowed"`
}

// DefaultPreferences applies to rides posted without any.
func DefaultPreferences() Preferences {
	return Preferences{NonSmoking: true, MusicAllowed: true}
}

type Ride struct {
	Base
	DriverID    string `gorm:"type:varchar(36);index:idx_ride_driver;not null" json:"driverId"`
	Driver      *User  `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Origin      string `gorm:"not null;index:idx_ride_route" json:"origin"`
	Destination string `gorm:"not null;index:idx_ride_route" json:"destination"`

	// Date and Time are the inputs DepartureAt was combined from.
	Date        string    `gorm:"size:10;not null" json:"date"`
	Time        string    `gorm:"size:5;not null" json:"time"`
	DepartureAt time.Time `gorm:"index;not null" json:"departureAt"`

	TotalSeats     int         `gorm:"not null" json:"totalSeats"`
	AvailableSeats int         `gorm:"not null" json:"availableSeats"`
	Price          float64     `gorm:"type:decimal(10,2);not null" json:"costPerPassenger"`
	Preferences    Preferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	Notes          string      `gorm:"size:500" json:"notes,omitempty"`
	Status         RideStatus  `gorm:"type:varchar(20);default:'scheduled';index" json:"status"`

	Passengers []RidePassenger `gorm:"foreignKey:RideID" json:"passengers,omitempty"`
}

func (r *Ride) IsFull() bool {
	return r.AvailableSeats == 0
}

// HasPassenger reports whether userID is on the ride's roster.
func (r *Ride) HasPassenger(userID string) bool {
	for _, p := range r.Passengers {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// RidePassenger is one entry of a ride's confirmed roster, ordered by Position.
type RidePassenger struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RideID    string    `gorm:"type:varchar(36);index;not null" json:"-"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Position  int       `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"joinedAt"`
}
