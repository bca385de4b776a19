package routes

import (
	"net/http"
	"time"

	"pitchbook/handlers"
	"pitchbook/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle aggregates the handlers wired in main.
type HandlerBundle struct {
	Booking *handlers.BookingHandler
	Payment *handlers.PaymentHandler
}

// RegisterRoutes wires the full HTTP surface.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterStripeRoutes(r, hb)
}

// RegisterBookingRoutes registers calendar and reservation endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.POST("/available", hb.Booking.GetAvailableSlots)
		api.POST("/create", hb.Booking.CreateBooking)
		api.GET("/user", hb.Booking.GetUserBookings)
		api.PUT("/user", hb.Booking.UpdateUserBooking)
	}
}

// RegisterStripeRoutes registers checkout issuance and the webhook receiver.
// The webhook endpoint is unauthenticated; the signature header is its
// authentication.
func RegisterStripeRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/stripe")
	{
		api.POST("/webhook", hb.Payment.StripeWebhook)

		protected := api.Group("")
		protected.Use(middleware.JWTAuthUserMiddleware())
		protected.POST("/create-checkout-session", hb.Payment.CreateCheckoutSession)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm PitchBook"})
	})
}
