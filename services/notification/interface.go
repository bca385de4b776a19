package notification

import (
	"context"

	"pitchbook/models"
)

// Events emitted on booking state transitions.
const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventPaymentFailed    = "payment_failed"
	EventBookingRefunded  = "booking_refunded"
)

// Service dispatches booking notifications. Implementations must be fast and
// must never fail the calling operation: delivery happens out of band.
type Service interface {
	BookingStatusChanged(ctx context.Context, b *models.Booking, event string)
}
