package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"ridelink/controllers"
	"ridelink/middlewares"
	"ridelink/notify"
	"ridelink/services"
	"ridelink/utils"
)

type Deps struct {
	DB       *gorm.DB
	Services *services.Services
	Tokens   *utils.TokenService
	Hub      *notify.Hub
	Log      *slog.Logger

	EmailSuffix         string
	RequireVerification bool
	SecureCookie        bool
}

func SetupRouter(d Deps) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := utils.RegisterValidators(v, d.EmailSuffix); err != nil {
			return nil, err
		}
	}

	r := gin.New()
	r.Use(middlewares.Recovery(d.Log), middlewares.RequestLogger(d.Log))

	auth := middlewares.AuthMiddleware(d.Tokens, d.DB)
	verified := middlewares.VerifiedOnly(d.RequireVerification)
	cookie := controllers.SessionCookie{TTL: d.Tokens.TTL(), Secure: d.SecureCookie}
	svc := d.Services

	r.GET("/health", controllers.Health())

	api := r.Group("/api")
	{
		a := api.Group("/auth")
		a.POST("/register", controllers.Register(svc.Auth))
		a.POST("/login", controllers.Login(svc.Auth, cookie))
		a.POST("/verify-email", controllers.VerifyEmail(svc.Auth))
		a.GET("/me", auth, controllers.Me(svc.Auth))
		a.POST("/logout", auth, controllers.Logout(cookie))
		a.POST("/send-otp", auth, controllers.SendOTP(svc.Auth))
		a.POST("/verify-phone", auth, controllers.VerifyPhone(svc.Auth))
	}
	{
		rides := api.Group("/rides")
		rides.GET("/search", controllers.SearchRides(svc.Rides))
		rides.GET("/my-rides", auth, controllers.MyRides(svc.Rides))
		rides.GET("/:id", controllers.GetRide(svc.Rides))
		rides.POST("", auth, middlewares.DriversOnly(), verified, controllers.CreateRide(svc.Rides))
		rides.PUT("/:id", auth, controllers.UpdateRide(svc.Rides))
		rides.DELETE("/:id", auth, controllers.CancelRide(svc.Rides))
		rides.POST("/:id/complete", auth, controllers.CompleteRide(svc.Rides))
	}
	{
		bookings := api.Group("/bookings", auth)
		bookings.POST("/request", verified, controllers.RequestBooking(svc.Bookings))
		bookings.GET("/my-bookings", controllers.MyBookings(svc.Bookings))
		bookings.GET("/ride/:rideId", controllers.RideBookings(svc.Bookings))
		bookings.PUT("/:id/approve", controllers.ApproveBooking(svc.Bookings))
		bookings.PUT("/:id/reject", controllers.RejectBooking(svc.Bookings))
		bookings.DELETE("/:id/cancel", controllers.CancelBooking(svc.Bookings))
		bookings.PUT("/:id/payment", controllers.MarkPayment(svc.Bookings))
	}
	{
		reviews := api.Group("/reviews")
		reviews.POST("", auth, controllers.SubmitReview(svc.Reviews))
		reviews.GET("/user/:userId", controllers.UserReviews(svc.Reviews))
		reviews.GET("/ride/:rideId", auth, controllers.RideReviews(svc.Reviews))
	}
	{
		admin := api.Group("/admin", auth)
		only := middlewares.AdminOnly()
		admin.POST("/reports", controllers.SubmitReport(svc.Moderation))
		admin.GET("/reports", only, controllers.GetAllReports(svc.Moderation))
		admin.PUT("/reports/:id/resolve", only, controllers.ResolveReport(svc.Moderation))
		admin.GET("/users", only, controllers.GetAllUsers(svc.Moderation))
		admin.PUT("/users/:id/status", only, controllers.UpdateUserStatus(svc.Moderation))
		admin.GET("/analytics", only, controllers.GetAnalytics(svc.Moderation))
		admin.POST("/ratings/recompute", only, controllers.RecomputeRatings(svc.Ratings))
	}
	if d.Hub != nil {
		api.GET("/ws", middlewares.WebSocketAuth(d.Tokens, d.DB), controllers.Events(d.Hub))
	}

	r.NoRoute(middlewares.NoRoute())
	return r, nil
}
