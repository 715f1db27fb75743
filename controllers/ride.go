package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridelink/models"
	"ridelink/services"
)

func CreateRide(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		var in services.CreateRideInput
		if !bindJSON(c, &in) {
			return
		}
		ride, err := rides.Create(c.Request.Context(), u, in)
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusCreated, "Ride created successfully", gin.H{"ride": ride})
	}
}

func SearchRides(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q services.SearchQuery
		if !bindQuery(c, &q) {
			return
		}
		list, err := rides.Search(c.Request.Context(), q)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": gin.H{"rides": list}})
	}
}

func GetRide(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ride, err := rides.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "", gin.H{"ride": ride})
	}
}

func MyRides(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		list, err := rides.MyRides(c.Request.Context(), u.ID, models.RideStatus(c.Query("status")))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": gin.H{"rides": list}})
	}
}

func UpdateRide(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		var in services.UpdateRideInput
		if !bindJSON(c, &in) {
			return
		}
		ride, err := rides.Update(c.Request.Context(), u.ID, c.Param("id"), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Ride updated successfully", gin.H{"ride": ride})
	}
}

func CancelRide(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		if err := rides.Cancel(c.Request.Context(), u.ID, c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Ride cancelled successfully", nil)
	}
}

func CompleteRide(rides *services.RideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		if err := rides.Complete(c.Request.Context(), u.ID, c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Ride marked as completed", nil)
	}
}
