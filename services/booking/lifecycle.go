package booking

import (
	"fmt"
	"time"

	"pitchbook/models"
)

// CancellationWindow is how far ahead of the session a user may still cancel.
const CancellationWindow = 24 * time.Hour

var statusTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCancelled, models.BookingCompleted},
	models.BookingCancelled: {},
	models.BookingCompleted: {},
}

var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending:  {models.PaymentPaid, models.PaymentFailed},
	models.PaymentPaid:     {models.PaymentRefunded},
	models.PaymentFailed:   {},
	models.PaymentRefunded: {},
}

// CanTransition reports whether the booking status move is legal.
func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether the payment status move is legal.
func CanTransitionPayment(from, to models.PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transition(b *models.Booking, status models.BookingStatus) error {
	if !CanTransition(b.Status, status) {
		return NewConflictError(fmt.Sprintf("illegal status transition %s -> %s", b.Status, status))
	}
	b.Status = status
	b.SyncActive()
	return nil
}

func transitionPayment(b *models.Booking, status models.PaymentStatus) error {
	if !CanTransitionPayment(b.PaymentStatus, status) {
		return NewConflictError(fmt.Sprintf("illegal payment transition %s -> %s", b.PaymentStatus, status))
	}
	b.PaymentStatus = status
	return nil
}

// ApplyPaymentSucceeded confirms the booking and marks it paid as one
// transition. Both legs are validated before either is applied.
func ApplyPaymentSucceeded(b *models.Booking) error {
	if !CanTransition(b.Status, models.BookingConfirmed) {
		return NewConflictError(fmt.Sprintf("illegal status transition %s -> %s", b.Status, models.BookingConfirmed))
	}
	if err := transitionPayment(b, models.PaymentPaid); err != nil {
		return err
	}
	return transition(b, models.BookingConfirmed)
}

// ApplyPaymentFailed marks the payment failed and cancels the booking,
// freeing its slot.
func ApplyPaymentFailed(b *models.Booking) error {
	if !CanTransition(b.Status, models.BookingCancelled) {
		return NewConflictError(fmt.Sprintf("illegal status transition %s -> %s", b.Status, models.BookingCancelled))
	}
	if err := transitionPayment(b, models.PaymentFailed); err != nil {
		return err
	}
	return transition(b, models.BookingCancelled)
}

// ApplyRefund moves a paid booking to REFUNDED and cancels it. A refunded
// session is not delivered, so the slot is released.
func ApplyRefund(b *models.Booking) error {
	if err := transitionPayment(b, models.PaymentRefunded); err != nil {
		return err
	}
	if b.Status == models.BookingCancelled || b.Status == models.BookingCompleted {
		return nil
	}
	return transition(b, models.BookingCancelled)
}

// ApplyCancel is the user-facing cancellation, guarded by the 24h window.
func ApplyCancel(b *models.Booking, now time.Time) error {
	if b.ScheduledFor.Sub(now) < CancellationWindow {
		return NewCancellationWindowError("bookings can only be cancelled at least 24 hours in advance")
	}
	return transition(b, models.BookingCancelled)
}

// ApplyComplete marks a delivered session as COMPLETED (operator action).
func ApplyComplete(b *models.Booking) error {
	return transition(b, models.BookingCompleted)
}
