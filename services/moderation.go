package services

import (
	"context"

	"gorm.io/gorm"

	"ridelink/apperr"
	"ridelink/models"
	"ridelink/store"
)

type UserFilter struct {
	Status     models.UserStatus `form:"status"`
	University string            `form:"university"`
	Role       models.Role       `form:"role"`
	store.Page
}

type ReportFilter struct {
	Status models.ReportStatus `form:"status"`
	Type   models.ReportType   `form:"type"`
	store.Page
}

// Listing is one page of a filtered query.
type Listing[T any] struct {
	Items       []T
	Total       int64
	TotalPages  int
	CurrentPage int
}

type ReportInput struct {
	Type           models.ReportType `json:"type" binding:"required,oneof=user ride"`
	ReportedUserID string            `json:"reportedUserId" binding:"required_if=Type user"`
	ReportedRideID string            `json:"reportedRideId" binding:"required_if=Type ride"`
	Reason         string            `json:"reason" binding:"required,oneof=inappropriate-behavior harassment safety-concern no-show fraud spam other"`
	Description    string            `json:"description" binding:"required,max=1000"`
}

type ResolveInput struct {
	Status     models.ReportStatus `json:"status" binding:"required,oneof=resolved dismissed"`
	AdminNotes string              `json:"adminNotes" binding:"max=500"`
}

type ModerationService struct {
	Deps
}

func NewModerationService(d Deps) *ModerationService {
	return &ModerationService{Deps: d.withDefaults()}
}

func paginate[T any](ctx context.Context, db *gorm.DB, page store.Page, what string, preloads ...string) (*Listing[T], error) {
	page = page.Normalize()
	db = db.WithContext(ctx).Session(&gorm.Session{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to get %s", what)
	}
	q := db
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var items []T
	if err := q.Scopes(page.Scope).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to get %s", what)
	}
	return &Listing[T]{
		Items:       items,
		Total:       total,
		TotalPages:  page.TotalPages(total),
		CurrentPage: page.Page,
	}, nil
}

func (s *ModerationService) ListUsers(ctx context.Context, f UserFilter) (*Listing[models.User], error) {
	db := s.DB.Model(&models.User{})
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.University != "" {
		db = db.Where("university = ?", f.University)
	}
	if f.Role != "" {
		db = db.Where("role = ?", f.Role)
	}
	return paginate[models.User](ctx, db, f.Page, "users")
}

// UpdateUserStatus suspends, bans or reinstates a user. In-flight bookings
// and rides are left alone; the gateway stops the user from acting further.
func (s *ModerationService) UpdateUserStatus(ctx context.Context, adminID, userID string, status models.UserStatus) (*models.User, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Invalid status")
	}
	if adminID == userID {
		return nil, apperr.Validation("You cannot change your own status")
	}
	user, err := findByID[models.User](ctx, s.DB, userID, "User")
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("status", status).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to update user status")
	}
	user.Status = status

	s.Log.InfoContext(ctx, "user status changed", "action", "update_user_status",
		"admin_id", adminID, "user_id", userID, "status", status)
	return user, nil
}

func (s *ModerationService) ListReports(ctx context.Context, f ReportFilter) (*Listing[models.Report], error) {
	db := s.DB.Model(&models.Report{})
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	return paginate[models.Report](ctx, db, f.Page, "reports", "Reporter", "ReportedUser", "ReportedRide", "ResolvedBy")
}

func (s *ModerationService) SubmitReport(ctx context.Context, reporterID string, in ReportInput) (*models.Report, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	report := &models.Report{
		ReporterID:  reporterID,
		Type:        in.Type,
		Reason:      in.Reason,
		Description: in.Description,
		Status:      models.ReportPending,
	}
	switch in.Type {
	case models.ReportUser:
		if in.ReportedUserID == reporterID {
			return nil, apperr.Validation("You cannot report yourself")
		}
		if _, err := findByID[models.User](ctx, s.DB, in.ReportedUserID, "Reported user"); err != nil {
			return nil, err
		}
		report.ReportedUserID = &in.ReportedUserID
	case models.ReportRide:
		if _, err := findByID[models.Ride](ctx, s.DB, in.ReportedRideID, "Reported ride"); err != nil {
			return nil, err
		}
		report.ReportedRideID = &in.ReportedRideID
	}

	if err := s.DB.WithContext(ctx).Create(report).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to submit report")
	}
	s.Log.InfoContext(ctx, "report submitted", "action", "submit_report",
		"report_id", report.ID, "type", report.Type, "reason", report.Reason)
	return report, nil
}

func (s *ModerationService) ResolveReport(ctx context.Context, adminID, reportID string, in ResolveInput) (*models.Report, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	report, err := findByID[models.Report](ctx, s.DB, reportID, "Report")
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Model(report).Updates(map[string]any{
		"status":         in.Status,
		"admin_notes":    in.AdminNotes,
		"resolved_by_id": adminID,
		"resolved_at":    s.Now().UTC(),
	}).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to resolve report")
	}

	s.Log.InfoContext(ctx, "report resolved", "action", "resolve_report",
		"report_id", report.ID, "admin_id", adminID, "status", in.Status)
	return findByID[models.Report](ctx, s.DB, report.ID, "Report", "Reporter", "ResolvedBy")
}
