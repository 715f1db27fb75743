package models

import "time"

// RatingSummary is the running mean of every review recorded for one
// rating aspect of a user.
type RatingSummary struct {
	Average float64 `gorm:"default:0" json:"average"`
	Count   int     `gorm:"default:0" json:"count"`
}

type Vehicle struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
	LicensePlate string `json:"licensePlate"`
	Year         int    `json:"year"`
}

type User struct {
	Base
	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string `gorm:"uniqueIndex;not null" json:"phone"`
	Password     string `gorm:"not null" json:"-"` // bcrypt hash
	Role         Role   `gorm:"type:varchar(20);not null;index:idx_user_university_role" json:"role"`
	University   string `gorm:"size:20;index:idx_user_university_role" json:"university"`
	Department   string `json:"department,omitempty"`
	StudentID    string `json:"studentId,omitempty"`
	ProfilePhoto string `json:"profilePhoto"`
	Bio          string `gorm:"size:500" json:"bio,omitempty"`
	HomeArea     string `json:"homeArea,omitempty"`

	Vehicle Vehicle `gorm:"embedded;embeddedPrefix:vehicle_" json:"vehicle"`

	EmailVerified          bool       `gorm:"default:false" json:"emailVerified"`
	PhoneVerified          bool       `gorm:"default:false" json:"phoneVerified"`
	EmailVerificationToken string     `json:"-"`
	PhoneOTP               string     `json:"-"`
	PhoneOTPExpires        *time.Time `json:"-"`

	DriverRating     RatingSummary `gorm:"embedded;embeddedPrefix:driver_rating_" json:"driverRating"`
	PassengerRating  RatingSummary `gorm:"embedded;embeddedPrefix:passenger_rating_" json:"passengerRating"`
	RidesAsDriver    int           `gorm:"default:0" json:"ridesAsDriver"`
	RidesAsPassenger int           `gorm:"default:0" json:"ridesAsPassenger"`
	TotalEarnings    float64       `gorm:"type:decimal(10,2);default:0" json:"totalEarnings"`

	Status    UserStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Verified reports whether both contact channels have been confirmed.
func (u *User) Verified() bool {
	return u.EmailVerified && u.PhoneVerified
}
