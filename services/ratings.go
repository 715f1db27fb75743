package services

import (
	"context"
	"fmt"
	"time"

	"ridelink/apperr"
	"ridelink/models"
)

const (
	recomputeAttempts = 3
	recomputeBackoff  = 50 * time.Millisecond
)

// RatingService derives a user's rating summaries from the stored reviews.
// Every write is a full recomputation, so running it again is always safe.
type RatingService struct {
	Deps
	attempts int
	backoff  time.Duration
}

func NewRatingService(d Deps) *RatingService {
	return &RatingService{Deps: d.withDefaults(), attempts: recomputeAttempts, backoff: recomputeBackoff}
}

func ratingColumns(kind models.ReviewType) (string, string, error) {
	switch kind {
	case models.ReviewDriver:
		return "driver_rating_average", "driver_rating_count", nil
	case models.ReviewPassenger:
		return "passenger_rating_average", "passenger_rating_count", nil
	}
	return "", "", fmt.Errorf("unknown review type %q", kind)
}

// Recompute rewrites userID's rating of the given kind as the mean and count
// of every matching review.
func (s *RatingService) Recompute(ctx context.Context, userID string, kind models.ReviewType) error {
	avgCol, countCol, err := ratingColumns(kind)
	if err != nil {
		return err
	}

	var agg struct {
		Average float64
		Count   int64
	}
	err = s.DB.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("reviewee_id = ? AND review_type = ?", userID, kind).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("aggregate %s reviews of %s: %w", kind, userID, err)
	}

	err = s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{avgCol: agg.Average, countCol: agg.Count}).Error
	if err != nil {
		return fmt.Errorf("store %s rating of %s: %w", kind, userID, err)
	}
	return nil
}

// RecomputeWithRetry runs Recompute up to the configured number of attempts.
func (s *RatingService) RecomputeWithRetry(ctx context.Context, userID string, kind models.ReviewType) error {
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err = s.Recompute(ctx, userID, kind); err == nil {
			return nil
		}
		s.Log.WarnContext(ctx, "rating recompute failed", "action", "recompute_rating",
			"user_id", userID, "type", kind, "attempt", attempt, "error", err)
		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}
	return err
}

// RecomputeAll converges every user's ratings and reports how many users
// were refreshed.
func (s *RatingService) RecomputeAll(ctx context.Context) (int, error) {
	var ids []string
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Order("created_at").Pluck("id", &ids).Error; err != nil {
		return 0, apperr.Internal(err, "Failed to list users")
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		for _, kind := range []models.ReviewType{models.ReviewDriver, models.ReviewPassenger} {
			if err := s.Recompute(ctx, id, kind); err != nil {
				return i, apperr.Internal(err, "Failed to recompute ratings")
			}
		}
	}
	s.Log.InfoContext(ctx, "ratings recomputed", "action", "recompute_all", "users", len(ids))
	return len(ids), nil
}
