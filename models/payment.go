package models

import "time"

// Checkout target types carried in Stripe metadata.
const (
	CheckoutTypeCourse  = "course"
	CheckoutTypeBooking = "booking"
)

// CheckoutRequest is the payload for creating a Stripe checkout session.
type CheckoutRequest struct {
	Type      string `json:"type" binding:"required,oneof=course booking"`
	CourseID  string `json:"courseId"`
	BookingID string `json:"bookingId"`
}

// CheckoutResponse carries the provider session id and redirect URL.
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// WebhookEvent is one row of the processed-event ledger. A unique index on
// EventID makes replayed deliveries detectable.
type WebhookEvent struct {
	EventID    string    `bson:"eventId" json:"eventId"`
	Type       string    `bson:"type" json:"type"`
	ReceivedAt time.Time `bson:"receivedAt" json:"receivedAt"`
}
