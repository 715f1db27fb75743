package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridelink/apperr"
	"ridelink/models"
	"ridelink/utils"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:       "Ayesha Khan",
		Email:      "Ayesha@LUMS.edu.pk",
		Password:   "Secret123",
		Phone:      "+923001234567",
		University: "LUMS",
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Auth.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "ayesha@lums.edu.pk", res.User.Email)
	assert.Equal(t, models.RolePassenger, res.User.Role)
	assert.Equal(t, models.UserActive, res.User.Status)
	assert.NotEqual(t, "Secret123", res.User.Password)
	assert.False(t, res.User.Verified())

	claims, err := f.tokens.ValidateJWT(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	code := f.sender.code("email", "ayesha@lums.edu.pk")
	require.NotEmpty(t, code, "verification token goes through the sender")
	require.NoError(t, f.svc.Auth.VerifyEmail(ctx, code))
	assert.True(t, f.reloadUser(t, res.User.ID).EmailVerified)
	assert.True(t, apperr.Is(f.svc.Auth.VerifyEmail(ctx, code), apperr.KindValidation), "tokens are single use")

	_, err = f.svc.Auth.Register(ctx, validRegistration())
	assert.True(t, apperr.Is(err, apperr.KindConflict), "duplicate email")

	dupPhone := validRegistration()
	dupPhone.Email = "other@lums.edu.pk"
	_, err = f.svc.Auth.Register(ctx, dupPhone)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "duplicate phone")
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func(*RegisterInput){
		"non institutional email": func(in *RegisterInput) { in.Email = "ayesha@gmail.com" },
		"weak password":           func(in *RegisterInput) { in.Password = "password1" },
		"short password":          func(in *RegisterInput) { in.Password = "Ab1" },
		"bad phone":               func(in *RegisterInput) { in.Phone = "03001234567" },
		"unknown university":      func(in *RegisterInput) { in.University = "MIT" },
		"admin self registration": func(in *RegisterInput) { in.Role = models.RoleAdmin },
		"missing name":            func(in *RegisterInput) { in.Name = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validRegistration()
			mutate(&in)
			_, err := f.svc.Auth.Register(ctx, in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Auth.Register(ctx, validRegistration())
	require.NoError(t, err)

	res, err := f.svc.Auth.Login(ctx, LoginInput{Email: " AYESHA@lums.edu.pk", Password: "Secret123"})
	require.NoError(t, err)
	require.NotNil(t, res.User.LastLogin)
	assert.True(t, f.now.Equal(*res.User.LastLogin))
	assert.NotEmpty(t, res.Token)

	_, err = f.svc.Auth.Login(ctx, LoginInput{Email: "ayesha@lums.edu.pk", Password: "Wrong1234"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	_, err = f.svc.Auth.Login(ctx, LoginInput{Email: "nobody@lums.edu.pk", Password: "Secret123"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	_, err = f.svc.Auth.Login(ctx, LoginInput{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	admin := f.user(t, "admin", models.RoleAdmin)
	_, err = f.svc.Moderation.UpdateUserStatus(ctx, admin.ID, reg.User.ID, models.UserBanned)
	require.NoError(t, err)

	_, err = f.svc.Auth.Login(ctx, LoginInput{Email: "ayesha@lums.edu.pk", Password: "Secret123"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err), "banned even with the right password")
	_, err = f.svc.Auth.Login(ctx, LoginInput{Email: "ayesha@lums.edu.pk", Password: "Wrong1234"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated), "credentials are checked first")
}

func TestPhoneVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "pax", models.RolePassenger)

	require.NoError(t, f.svc.Auth.SendOTP(ctx, u.ID))
	first := f.sender.code("sms", u.Phone)
	require.Len(t, first, 6)

	assert.True(t, apperr.Is(f.svc.Auth.VerifyPhone(ctx, u.ID, "000000"), apperr.KindValidation))

	f.now = f.now.Add(11 * time.Minute)
	assert.True(t, apperr.Is(f.svc.Auth.VerifyPhone(ctx, u.ID, first), apperr.KindValidation), "expired")

	require.NoError(t, f.svc.Auth.SendOTP(ctx, u.ID))
	second := f.sender.code("sms", u.Phone)
	require.NoError(t, f.svc.Auth.VerifyPhone(ctx, u.ID, second))

	got := f.reloadUser(t, u.ID)
	assert.True(t, got.PhoneVerified)
	assert.Empty(t, got.PhoneOTP)
	assert.True(t, apperr.Is(f.svc.Auth.SendOTP(ctx, u.ID), apperr.KindInvalidState))
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.svc.Auth.CreateAdmin(ctx, AdminInput{
		Name: "Ops", Email: "ops@ridelink.pk", Password: "Admin1234", Phone: "+923331112223",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.Verified())

	res, err := f.svc.Auth.Login(ctx, LoginInput{Email: "ops@ridelink.pk", Password: "Admin1234"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, res.User.ID)

	_, err = f.svc.Auth.CreateAdmin(ctx, AdminInput{
		Name: "Ops", Email: "ops@ridelink.pk", Password: "Admin1234", Phone: "+923331112224",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestSameDigest(t *testing.T) {
	d := utils.HashToken("123456")
	assert.True(t, sameDigest(d, utils.HashToken("123456")))
	assert.False(t, sameDigest(d, utils.HashToken("654321")))
	assert.False(t, sameDigest(d, ""))
}
