package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridelink/services"
)

func GetAllReports(mod *services.ModerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f services.ReportFilter
		if !bindQuery(c, &f) {
			return
		}
		reports, err := mod.ListReports(c.Request.Context(), f)
		if err != nil {
			respondErr(c, err)
			return
		}
		page(c, "reports", reports)
	}
}

// SubmitReport is open to every signed-in user, not only admins.
func SubmitReport(mod *services.ModerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := caller(c)
		if u == nil {
			return
		}
		var in services.ReportInput
		if !bindJSON(c, &in) {
			return
		}
		report, err := mod.SubmitReport(c.Request.Context(), u.ID, in)
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusCreated, "Report submitted successfully", gin.H{"report": report})
	}
}

func ResolveReport(mod *services.ModerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := caller(c)
		if admin == nil {
			return
		}
		var in services.ResolveInput
		if !bindJSON(c, &in) {
			return
		}
		report, err := mod.ResolveReport(c.Request.Context(), admin.ID, c.Param("id"), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		respond(c, http.StatusOK, "Report resolved", gin.H{"report": report})
	}
}
