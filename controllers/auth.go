package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridelink/middlewares"
	"ridelink/services"
)

// SessionCookie controls the http-only cookie issued at login.
type SessionCookie struct {
	TTL    time.Duration
	Secure bool
}

func (s SessionCookie) set(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.CookieName, token, maxAge, "/", "", s.Secure, true)
}

func Register(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.RegisterInput
		if !bindJSON(c, &in) {
			return
		}
		res, err := auth.Register(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusCreated, "Registration successful. Please verify your email.", res)
	}
}

func Login(auth *services.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.LoginInput
		if !bindJSON(c, &in) {
			return
		}
		res, err := auth.Login(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		cookie.set(c, res.Token, int(cookie.TTL.Seconds()))
		respond(c, http.StatusOK, "Login successful", res)
	}
}

func Me(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		user, err := auth.Me(c.Request.Context(), u.ID)
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "", gin.H{"user": user})
	}
}

func Logout(cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie.set(c, "", -1)
		respond(c, http.StatusOK, "Logged out successfully", nil)
	}
}

func SendOTP(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		if err := auth.SendOTP(c.Request.Context(), u.ID); err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "OTP sent to your phone", nil)
	}
}

func VerifyPhone(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		var in struct {
			OTP string `json:"otp" binding:"required,len=6,numeric"`
		}
		if !bindJSON(c, &in) {
			return
		}
		if err := auth.VerifyPhone(c.Request.Context(), u.ID, in.OTP); err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Phone verified successfully", nil)
	}
}

func VerifyEmail(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Token string `json:"token" binding:"required"`
		}
		if !bindJSON(c, &in) {
			return
		}
		if err := auth.VerifyEmail(c.Request.Context(), in.Token); err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Email verified successfully", nil)
	}
}
