package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridelink/models"
	"ridelink/services"
)

func page[T any](c *gin.Context, key string, l *services.Listing[T]) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       len(l.Items),
		"total":       l.Total,
		"totalPages":  l.TotalPages,
		"currentPage": l.CurrentPage,
		"data":        gin.H{key: l.Items},
	})
}

// GetAllUsers - admin listing with status, university and role filters
func GetAllUsers(mod *services.ModerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f services.UserFilter
		if !bindQuery(c, &f) {
			return
		}
		users, err := mod.ListUsers(c.Request.Context(), f)
		if err != nil {
			respondErr(c, err)
			return
		}
		page(c, "users", users)
	}
}

// UpdateUserStatus - suspend, ban or reinstate a user
func UpdateUserStatus(mod *services.ModerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := caller(c)
		if admin == nil {
			return
		}
		var in struct {
			Status models.UserStatus `json:"status" binding:"required,oneof=active suspended banned"`
		}
		if !bindJSON(c, &in) {
			return
		}
		user, err := mod.UpdateUserStatus(c.Request.Context(), admin.ID, c.Param("id"), in.Status)
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "User status updated to "+string(in.Status), gin.H{"user": user})
	}
}
