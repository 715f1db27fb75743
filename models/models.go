package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the UUID key and timestamps shared by every table.
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&User{}, &Ride{}, &RidePassenger{}, &Booking{}, &Review{}, &Report{}}
}

type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleBoth      Role = "both"
	RoleAdmin     Role = "admin"
)

// CanDrive reports whether the role may post rides.
func (r Role) CanDrive() bool {
	return r == RoleDriver || r == RoleBoth
}

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
	UserBanned    UserStatus = "banned"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserActive, UserSuspended, UserBanned:
		return true
	}
	return false
}

var Universities = []string{"LUMS", "NUST", "FAST", "UET", "GIKI", "IBA", "Other"}

type RideStatus string

const (
	RideScheduled  RideStatus = "scheduled"
	RideInProgress RideStatus = "in-progress"
	RideCompleted  RideStatus = "completed"
	RideCancelled  RideStatus = "cancelled"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// Active reports whether the booking still holds (or may hold) seats.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type ReviewType string

const (
	ReviewDriver    ReviewType = "driver"
	ReviewPassenger ReviewType = "passenger"
)

var ReviewTags = []string{
	"punctual", "friendly", "safe-driver", "clean-car", "good-conversation", "quiet",
	"professional", "respectful", "helpful", "unreliable", "rude", "unsafe",
}

type ReportType string

const (
	ReportUser ReportType = "user"
	ReportRide ReportType = "ride"
)

type ReportStatus string

const (
	ReportPending     ReportStatus = "pending"
	ReportUnderReview ReportStatus = "under-review"
	ReportResolved    ReportStatus = "resolved"
	ReportDismissed   ReportStatus = "dismissed"
)

var ReportReasons = []string{
	"inappropriate-behavior", "harassment", "safety-concern", "no-show", "fraud", "spam", "other",
}
