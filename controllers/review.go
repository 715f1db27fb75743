package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridelink/models"
	"ridelink/services"
)

func SubmitReview(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		var in services.ReviewInput
		if !bindJSON(c, &in) {
			return
		}
		review, err := reviews.Submit(c.Request.Context(), u.ID, in)
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusCreated, "Review submitted successfully", gin.H{"review": review})
	}
}

func UserReviews(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := reviews.ListForUser(c.Request.Context(), c.Param("userId"), models.ReviewType(c.Query("type")))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": gin.H{"reviews": list}})
	}
}

func RideReviews(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := reviews.ListForRide(c.Request.Context(), c.Param("rideId"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": gin.H{"reviews": list}})
	}
}
