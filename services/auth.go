package services

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"ridelink/apperr"
	"ridelink/models"
	"ridelink/store"
	"ridelink/utils"
)

const otpTTL = 10 * time.Minute

type RegisterInput struct {
	Name       string      `json:"name" binding:"required,max=100"`
	Email      string      `json:"email" binding:"required,edu_email"`
	Password   string      `json:"password" binding:"required,strong_password"`
	Phone      string      `json:"phone" binding:"required,pk_phone"`
	University string      `json:"university" binding:"required,oneof=LUMS NUST FAST UET GIKI IBA Other"`
	Role       models.Role `json:"role" binding:"omitempty,oneof=passenger driver both"`
	Department string      `json:"department" binding:"max=100"`
	StudentID  string      `json:"studentId" binding:"max=50"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is what a successful register or login hands back.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type AuthService struct {
	Deps
	tokens *utils.TokenService
	sender utils.Sender
}

func NewAuthService(d Deps, tokens *utils.TokenService, sender utils.Sender) *AuthService {
	d = d.withDefaults()
	if sender == nil {
		sender = utils.LogSender{Logger: d.Log}
	}
	return &AuthService{Deps: d, tokens: tokens, sender: sender}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Role == "" {
		in.Role = models.RolePassenger
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}

	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&n).Error; err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	if n > 0 {
		return nil, apperr.Conflict("User already exists with this email")
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("phone = ?", in.Phone).Count(&n).Error; err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	if n > 0 {
		return nil, apperr.Conflict("User already exists with this phone number")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	verifyToken, verifyDigest, err := utils.GenerateToken()
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}

	user := &models.User{
		Name:                   in.Name,
		Email:                  in.Email,
		Phone:                  in.Phone,
		Password:               hash,
		Role:                   in.Role,
		University:             in.University,
		Department:             in.Department,
		StudentID:              in.StudentID,
		EmailVerificationToken: verifyDigest,
		Status:                 models.UserActive,
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if store.IsDuplicate(err) {
			return nil, apperr.Conflict("User already exists with this email or phone number")
		}
		return nil, apperr.Internal(err, "Server error")
	}
	s.Log.InfoContext(ctx, "user registered", "action", "register", "user_id", user.ID, "role", user.Role)

	if err := s.sender.Send(ctx, "email", user.Email, verifyToken); err != nil {
		s.Log.WarnContext(ctx, "verification email not sent", "action", "register", "user_id", user.ID, "error", err)
	}

	token, err := s.tokens.CreateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Login checks credentials before account status, so a banned user with the
// right password learns only that the account is blocked.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, apperr.Validation("Please provide email and password")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.Unauthenticated("Invalid credentials")
		}
		return nil, apperr.Internal(err, "Server error")
	}
	if !utils.CheckPasswordHash(in.Password, user.Password) {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	if user.Status != models.UserActive {
		s.Log.WarnContext(ctx, "blocked login", "action", "login", "user_id", user.ID, "status", user.Status)
		return nil, apperr.Forbidden("Your account has been suspended or banned")
	}

	now := s.Now().UTC()
	if err := s.DB.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	user.LastLogin = &now

	token, err := s.tokens.CreateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	s.Log.InfoContext(ctx, "user logged in", "action", "login", "user_id", user.ID)
	return &AuthResult{User: &user, Token: token}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return findByID[models.User](ctx, s.DB, userID, "User")
}

// SendOTP issues a fresh phone code, replacing any earlier one.
func (s *AuthService) SendOTP(ctx context.Context, userID string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if user.PhoneVerified {
		return apperr.InvalidState("Phone already verified")
	}

	otp, digest, err := utils.GenerateOTP()
	if err != nil {
		return apperr.Internal(err, "Failed to send OTP")
	}
	expires := s.Now().UTC().Add(otpTTL)
	err = s.DB.WithContext(ctx).Model(user).Updates(map[string]any{
		"phone_otp":         digest,
		"phone_otp_expires": expires,
	}).Error
	if err != nil {
		return apperr.Internal(err, "Failed to send OTP")
	}

	if err := s.sender.Send(ctx, "sms", user.Phone, otp); err != nil {
		return apperr.Internal(err, "Failed to send OTP")
	}
	return nil
}

func (s *AuthService) VerifyPhone(ctx context.Context, userID, otp string) error {
	if otp == "" {
		return apperr.Validation("otp is required")
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if user.PhoneOTP == "" || user.PhoneOTPExpires == nil ||
		!s.Now().Before(*user.PhoneOTPExpires) || !sameDigest(user.PhoneOTP, utils.HashToken(otp)) {
		return apperr.Validation("Invalid or expired OTP")
	}

	err = s.DB.WithContext(ctx).Model(user).Updates(map[string]any{
		"phone_verified":    true,
		"phone_otp":         "",
		"phone_otp_expires": nil,
	}).Error
	if err != nil {
		return apperr.Internal(err, "Verification failed")
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperr.Validation("token is required")
	}
	var user models.User
	err := s.DB.WithContext(ctx).Where("email_verification_token = ?", utils.HashToken(token)).First(&user).Error
	if err != nil {
		if store.IsNotFound(err) {
			return apperr.Validation("Invalid verification token")
		}
		return apperr.Internal(err, "Verification failed")
	}

	err = s.DB.WithContext(ctx).Model(&user).Updates(map[string]any{
		"email_verified":           true,
		"email_verification_token": "",
	}).Error
	if err != nil {
		return apperr.Internal(err, "Verification failed")
	}
	return nil
}

type AdminInput struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strong_password"`
	Phone    string `json:"phone" binding:"required,pk_phone"`
}

// CreateAdmin provisions an administrator. Admins cannot self-register, so
// this is only reachable from the command line.
func (s *AuthService) CreateAdmin(ctx context.Context, in AdminInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate(in); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}

	user := &models.User{
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		Password:      hash,
		Role:          models.RoleAdmin,
		University:    "Other",
		EmailVerified: true,
		PhoneVerified: true,
		Status:        models.UserActive,
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if store.IsDuplicate(err) {
			return nil, apperr.Conflict("User already exists with this email or phone number")
		}
		return nil, apperr.Internal(err, "Server error")
	}
	s.Log.InfoContext(ctx, "admin created", "action", "create_admin", "user_id", user.ID)
	return user, nil
}

func sameDigest(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
