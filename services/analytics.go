package services

import (
	"context"
	"fmt"

	"ridelink/apperr"
	"ridelink/models"
)

const (
	topUniversities = 5
	topRoutes       = 10
	recentWindow    = 7
)

type Overview struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalDrivers      int64 `json:"totalDrivers"`
	TotalRides        int64 `json:"totalRides"`
	CompletedRides    int64 `json:"completedRides"`
	ActiveRides       int64 `json:"activeRides"`
	TotalBookings     int64 `json:"totalBookings"`
	ConfirmedBookings int64 `json:"confirmedBookings"`
	PendingReports    int64 `json:"pendingReports"`
}

type RecentActivity struct {
	NewUsersLastWeek int64 `json:"newUsersLastWeek"`
	RidesLastWeek    int64 `json:"ridesLastWeek"`
}

type UniversityCount struct {
	University string `json:"university"`
	Count      int64  `json:"count"`
}

type RouteCount struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Count       int64  `json:"count"`
}

type Analytics struct {
	Overview        Overview          `json:"overview"`
	RecentActivity  RecentActivity    `json:"recentActivity"`
	TopUniversities []UniversityCount `json:"topUniversities"`
	PopularRoutes   []RouteCount      `json:"popularRoutes"`
}

// Analytics recomputes the platform counters on every call.
func (s *ModerationService) Analytics(ctx context.Context) (*Analytics, error) {
	db := s.DB.WithContext(ctx)
	since := s.Now().UTC().AddDate(0, 0, -recentWindow)
	out := &Analytics{TopUniversities: []UniversityCount{}, PopularRoutes: []RouteCount{}}

	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&out.Overview.TotalUsers, &models.User{}, "status = ?", []any{models.UserActive}},
		{&out.Overview.TotalDrivers, &models.User{}, "status = ? AND role IN ?", []any{models.UserActive, []models.Role{models.RoleDriver, models.RoleBoth}}},
		{&out.Overview.TotalRides, &models.Ride{}, "", nil},
		{&out.Overview.CompletedRides, &models.Ride{}, "status = ?", []any{models.RideCompleted}},
		{&out.Overview.ActiveRides, &models.Ride{}, "status = ?", []any{models.RideScheduled}},
		{&out.Overview.TotalBookings, &models.Booking{}, "", nil},
		{&out.Overview.ConfirmedBookings, &models.Booking{}, "status = ?", []any{models.BookingConfirmed}},
		{&out.Overview.PendingReports, &models.Report{}, "status = ?", []any{models.ReportPending}},
		{&out.RecentActivity.NewUsersLastWeek, &models.User{}, "created_at >= ?", []any{since}},
		{&out.RecentActivity.RidesLastWeek, &models.Ride{}, "created_at >= ?", []any{since}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, apperr.Internal(fmt.Errorf("count %T: %w", c.model, err), "Failed to get analytics")
		}
	}

	err := db.Model(&models.User{}).
		Select("university, COUNT(*) AS count").
		Where("status = ?", models.UserActive).
		Group("university").
		Order("count DESC").
		Limit(topUniversities).
		Scan(&out.TopUniversities).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to get analytics")
	}

	err = db.Model(&models.Ride{}).
		Select("origin, destination, COUNT(*) AS count").
		Group("origin, destination").
		Order("count DESC").
		Limit(topRoutes).
		Scan(&out.PopularRoutes).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to get analytics")
	}
	return out, nil
}
