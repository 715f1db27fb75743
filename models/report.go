package models

import "time"

type Report struct {
	Base
	ReporterID     string       `gorm:"type:varchar(36);not null" json:"reporterId"`
	Reporter       *User        `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Type           ReportType   `gorm:"type:varchar(10);not null" json:"type"`
	ReportedUserID *string      `gorm:"type:varchar(36);index" json:"reportedUserId,omitempty"`
	ReportedUser   *User        `gorm:"foreignKey:ReportedUserID" json:"reportedUser,omitempty"`
	ReportedRideID *string      `gorm:"type:varchar(36)" json:"reportedRideId,omitempty"`
	ReportedRide   *Ride        `gorm:"foreignKey:ReportedRideID" json:"reportedRide,omitempty"`
	Reason         string       `gorm:"size:40;not null" json:"reason"`
	Description    string       `gorm:"size:1000;not null" json:"description"`
	Status         ReportStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	AdminNotes     string       `gorm:"size:500" json:"adminNotes,omitempty"`
	ResolvedByID   *string      `gorm:"type:varchar(36)" json:"resolvedById,omitempty"`
	ResolvedBy     *User        `gorm:"foreignKey:ResolvedByID" json:"resolvedBy,omitempty"`
	ResolvedAt     *time.Time   `json:"resolvedAt,omitempty"`
}
