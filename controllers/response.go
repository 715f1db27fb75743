package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridelink/apperr"
	"ridelink/middlewares"
	"ridelink/models"
	"ridelink/utils"
)

func respond(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// respondErr maps a service error onto the error envelope. Internal causes
// are logged through the request logger, never sent.
func respondErr(c *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		_ = c.Error(err)
	}
	c.JSON(apperr.Status(err), gin.H{"success": false, "error": apperr.Message(err)})
}

func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		respondErr(c, apperr.Validation("Request body is required"))
		return false
	}
	respondErr(c, apperr.Validation("%s", utils.ValidationMessage(err)))
	return false
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		respondErr(c, apperr.Validation("%s", utils.ValidationMessage(err)))
		return false
	}
	return true
}

// caller is the authenticated user; routes guarantee it is present.
func caller(c *gin.Context) *models.User {
	u := middlewares.CurrentUser(c)
	if u == nil {
		respondErr(c, apperr.Unauthenticated("Not authorized to access this route"))
	}
	return u
}

func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	}
}
