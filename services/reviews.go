package services

import (
	"context"
	"fmt"

	"ridelink/apperr"
	"ridelink/models"
	"ridelink/notify"
	"ridelink/store"
)

const maxUserReviews = 50

type ReviewInput struct {
	RideID     string   `json:"rideId" binding:"required"`
	RevieweeID string   `json:"revieweeId" binding:"required"`
	Rating     int      `json:"rating" binding:"required,min=1,max=5"`
	Comment    string   `json:"comment" binding:"max=500"`
	Tags       []string `json:"tags" binding:"omitempty,dive,oneof=punctual friendly safe-driver clean-car good-conversation quiet professional respectful helpful unreliable rude unsafe"`
}

type ReviewService struct {
	Deps
	ratings *RatingService
}

func NewReviewService(d Deps, ratings *RatingService) *ReviewService {
	d = d.withDefaults()
	if ratings == nil {
		ratings = NewRatingService(d)
	}
	return &ReviewService{Deps: d, ratings: ratings}
}

// Submit records one participant's review of another and then refreshes the
// reviewee's rating from the full review set. A failed refresh is retried
// and logged but does not undo the review.
func (s *ReviewService) Submit(ctx context.Context, reviewerID string, in ReviewInput) (*models.Review, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	var ride models.Ride
	err := s.DB.WithContext(ctx).Preload("Passengers").Where("id = ?", in.RideID).First(&ride).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound("Ride not found")
		}
		return nil, apperr.Internal(err, "Failed to submit review")
	}
	if ride.Status != models.RideCompleted {
		return nil, apperr.InvalidState("Can only review completed rides")
	}
	if ride.DriverID != reviewerID && !ride.HasPassenger(reviewerID) {
		return nil, apperr.Forbidden("You were not part of this ride")
	}
	if in.RevieweeID == reviewerID {
		return nil, apperr.Validation("You cannot review yourself")
	}

	var kind models.ReviewType
	switch {
	case in.RevieweeID == ride.DriverID:
		kind = models.ReviewDriver
	case ride.HasPassenger(in.RevieweeID):
		kind = models.ReviewPassenger
	default:
		return nil, apperr.Validation("Reviewee was not part of this ride")
	}

	var n int64
	err = s.DB.WithContext(ctx).Model(&models.Review{}).
		Where("ride_id = ? AND reviewer_id = ?", ride.ID, reviewerID).Count(&n).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to submit review")
	}
	if n > 0 {
		return nil, apperr.Conflict("You have already reviewed this ride")
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	review := &models.Review{
		RideID:     ride.ID,
		ReviewerID: reviewerID,
		RevieweeID: in.RevieweeID,
		ReviewType: kind,
		Rating:     in.Rating,
		Comment:    in.Comment,
		Tags:       tags,
	}
	if err := s.DB.WithContext(ctx).Create(review).Error; err != nil {
		if store.IsDuplicate(err) {
			return nil, apperr.Conflict("You have already reviewed this ride")
		}
		return nil, apperr.Internal(err, "Failed to submit review")
	}
	s.Log.InfoContext(ctx, "review submitted", "action", "submit_review",
		"review_id", review.ID, "ride_id", ride.ID, "reviewee_id", review.RevieweeID, "type", kind)

	// The review is already durable; RecomputeAll repairs a stale rating.
	if err := s.ratings.RecomputeWithRetry(ctx, review.RevieweeID, kind); err != nil {
		s.Log.ErrorContext(ctx, "rating left stale", "action", "submit_review",
			"review_id", review.ID, "user_id", review.RevieweeID, "type", kind, "error", err)
	}

	s.notify(ctx, notify.Event{
		Type:     notify.ReviewSubmitted,
		UserID:   review.RevieweeID,
		RideID:   ride.ID,
		ReviewID: review.ID,
		Message:  fmt.Sprintf("You received a %d star review", review.Rating),
	})
	return findByID[models.Review](ctx, s.DB, review.ID, "Review", "Reviewer")
}

// ListForUser returns the newest reviews about userID, optionally of one type.
func (s *ReviewService) ListForUser(ctx context.Context, userID string, kind models.ReviewType) ([]models.Review, error) {
	db := s.DB.WithContext(ctx).Preload("Reviewer").Preload("Ride").Where("reviewee_id = ?", userID)
	if kind != "" {
		db = db.Where("review_type = ?", kind)
	}
	var reviews []models.Review
	if err := db.Order("created_at DESC").Limit(maxUserReviews).Find(&reviews).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to get reviews")
	}
	return reviews, nil
}

func (s *ReviewService) ListForRide(ctx context.Context, rideID string) ([]models.Review, error) {
	var reviews []models.Review
	err := s.DB.WithContext(ctx).Preload("Reviewer").Preload("Reviewee").
		Where("ride_id = ?", rideID).Order("created_at ASC").Find(&reviews).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to get ride reviews")
	}
	return reviews, nil
}
