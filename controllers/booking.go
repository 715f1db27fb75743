package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridelink/models"
	"ridelink/services"
)

func RequestBooking(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		var in services.BookingRequestInput
		if !bindJSON(c, &in) {
			return
		}
		booking, err := bookings.Request(c.Request.Context(), u.ID, in)
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusCreated, "Booking request sent successfully", gin.H{"booking": booking})
	}
}

func MyBookings(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		list, err := bookings.MyBookings(c.Request.Context(), u.ID, models.BookingStatus(c.Query("status")))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": gin.H{"bookings": list}})
	}
}

func RideBookings(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		list, err := bookings.RideBookings(c.Request.Context(), u.ID, c.Param("rideId"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": gin.H{"bookings": list}})
	}
}

func ApproveBooking(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		booking, err := bookings.Approve(c.Request.Context(), u.ID, c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Booking approved successfully", gin.H{"booking": booking})
	}
}

func RejectBooking(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		if err := bookings.Reject(c.Request.Context(), u.ID, c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Booking rejected", nil)
	}
}

func CancelBooking(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		// The reason is optional, so an empty body is fine.
		var in struct {
			Reason string `json:"reason" binding:"max=200"`
		}
		if c.Request.ContentLength > 0 && !bindJSON(c, &in) {
			return
		}
		if err := bookings.Cancel(c.Request.Context(), u.ID, c.Param("id"), in.Reason); err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Booking cancelled successfully", nil)
	}
}

func MarkPayment(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		booking, err := bookings.MarkPayment(c.Request.Context(), u.ID, c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Payment marked as paid", gin.H{"booking": booking})
	}
}
