package handlers

import (
	"net/http"
	"strconv"

	"pitchbook/middleware"
	"pitchbook/models"
	"pitchbook/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes availability and reservation endpoints.
type BookingHandler struct {
	Availability booking.AvailabilityService
	Reservations booking.ReservationService
	logger       *zap.Logger
}

func NewBookingHandler(avail booking.AvailabilityService, resv booking.ReservationService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		Availability: avail,
		Reservations: resv,
		logger:       logger,
	}
}

// GetAvailableSlots returns the hourly availability grid for a date.
func (h *BookingHandler) GetAvailableSlots(c *gin.Context) {
	var req models.AvailableSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid input", "details": err.Error()})
		return
	}

	slots, err := h.Availability.GetAvailableSlots(c.Request.Context(), req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "timeSlots": slots})
}

// CreateBooking reserves a calendar slot for the authenticated user.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Insufficient authorization"})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid input", "details": err.Error()})
		return
	}

	b, err := h.Reservations.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

// GetUserBookings lists the authenticated user's bookings.
func (h *BookingHandler) GetUserBookings(c *gin.Context) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Insufficient authorization"})
		return
	}

	status := models.BookingStatus(c.Query("status"))
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	bookings, err := h.Reservations.ListUserBookings(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
}

// UpdateUserBooking cancels or completes a booking owned by the caller.
func (h *BookingHandler) UpdateUserBooking(c *gin.Context) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Insufficient authorization"})
		return
	}

	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid input", "details": err.Error()})
		return
	}

	b, err := h.Reservations.UpdateBooking(c.Request.Context(), req.BookingID, userID, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("booking updated",
		zap.String("bookingID", b.ID),
		zap.String("action", req.Action))
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}
