package models

type Review struct {
	Base
	RideID     string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_review_ride_reviewer" json:"rideId"`
	Ride       *Ride      `gorm:"foreignKey:RideID" json:"ride,omitempty"`
	ReviewerID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_review_ride_reviewer" json:"reviewerId"`
	Reviewer   *User      `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	RevieweeID string     `gorm:"type:varchar(36);not null;index:idx_review_reviewee_type" json:"revieweeId"`
	Reviewee   *User      `gorm:"foreignKey:RevieweeID" json:"reviewee,omitempty"`
	ReviewType ReviewType `gorm:"type:varchar(20);not null;index:idx_review_reviewee_type" json:"reviewType"`
	Rating     int        `gorm:"not null" json:"rating"`
	Comment    string     `gorm:"size:500" json:"comment,omitempty"`
	Tags       []string   `gorm:"serializer:json;type:text" json:"tags"`
}
