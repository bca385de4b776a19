package models

// TimeSlotStatus is one hourly entry of the availability grid for a date.
type TimeSlotStatus struct {
	Time      string `json:"time"` // "14:00"
	Available bool   `json:"available"`
}

// AvailableSlotsRequest asks for the availability grid of a single date.
type AvailableSlotsRequest struct {
	Date string `json:"date" binding:"required"` // "2006-01-02"
}

// CreateBookingRequest is the payload for reserving a calendar slot.
type CreateBookingRequest struct {
	SessionType string `json:"sessionType" binding:"required,oneof=one-to-one group"`
	Position    string `json:"position" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"` // "15:04"
	Notes       string `json:"notes"`
}

// Booking update actions accepted by PUT /api/bookings/user.
const (
	BookingActionCancel   = "cancel"
	BookingActionComplete = "complete"
)

// UpdateBookingRequest cancels or completes an existing booking.
type UpdateBookingRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
	Action    string `json:"action" binding:"required,oneof=cancel complete"`
}
