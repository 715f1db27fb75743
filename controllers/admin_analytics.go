package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridelink/services"
)

func GetAnalytics(mod *services.ModerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := mod.Analytics(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "", stats)
	}
}

// RecomputeRatings rebuilds every rating summary from the stored reviews.
func RecomputeRatings(ratings *services.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := ratings.RecomputeAll(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Ratings recomputed", gin.H{"users": n})
	}
}
