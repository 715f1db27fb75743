package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ridelink/apperr"
	"ridelink/models"
	"ridelink/store"
	"ridelink/utils"
)

const (
	ContextUserID   = "userId"
	ContextUserRole = "userRole"
	ContextUser     = "user"

	// CookieName is the session cookie set at login.
	CookieName = "jwt"
)

// abort stops the chain with the API's error envelope.
func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.Status(err), gin.H{"success": false, "error": apperr.Message(err)})
}

func requestToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}

func authenticate(c *gin.Context, tokens *utils.TokenService, db *gorm.DB, token string) {
	claims, err := tokens.ValidateJWT(token)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrMissingToken):
			abort(c, apperr.Unauthenticated("Not authorized to access this route"))
		case errors.Is(err, utils.ErrExpiredToken):
			abort(c, apperr.Unauthenticated("Session expired, please log in again"))
		default:
			abort(c, apperr.Unauthenticated("Not authorized to access this route"))
		}
		return
	}

	var user models.User
	if err := db.WithContext(c.Request.Context()).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		if store.IsNotFound(err) {
			abort(c, apperr.Unauthenticated("User not found"))
			return
		}
		abort(c, apperr.Internal(err, "Server error"))
		return
	}
	if user.Status != models.UserActive {
		abort(c, apperr.Forbidden("Your account has been suspended or banned"))
		return
	}

	c.Set(ContextUserID, user.ID)
	c.Set(ContextUserRole, string(user.Role))
	c.Set(ContextUser, &user)
	c.Next()
}

// AuthMiddleware accepts a bearer token or the session cookie and loads the
// caller. The stored role wins over the one in the token.
func AuthMiddleware(tokens *utils.TokenService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, tokens, db, requestToken(c))
	}
}

// WebSocketAuth also accepts ?token=, since browsers cannot set headers on
// a websocket handshake.
func WebSocketAuth(tokens *utils.TokenService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			token = c.Query("token")
		}
		authenticate(c, tokens, db, token)
	}
}

// CurrentUser returns the caller loaded by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := CurrentUser(c); u == nil || u.Role != models.RoleAdmin {
			abort(c, apperr.Forbidden("Access denied. Admin only."))
			return
		}
		c.Next()
	}
}

func DriversOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := CurrentUser(c); u == nil || !u.Role.CanDrive() {
			abort(c, apperr.Forbidden("This action is only available to drivers"))
			return
		}
		c.Next()
	}
}

// VerifiedOnly requires both contact channels to be confirmed. It is a no-op
// unless enabled.
func VerifiedOnly(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		if u := CurrentUser(c); u == nil || !u.Verified() {
			abort(c, apperr.Forbidden("Please verify your email and phone number first"))
			return
		}
		c.Next()
	}
}

// NoRoute answers unknown paths with the error envelope.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Route not found"})
	}
}
