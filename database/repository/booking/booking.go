package bookingRepo

import (
	"context"
	"errors"
	"time"

	"pitchbook/models"
)

// Sentinel errors surfaced by the repository. Services translate these into
// their own error taxonomy.
var (
	ErrNotFound = errors.New("booking not found")
	// ErrSlotTaken means the active-slot unique index rejected the write:
	// another PENDING/CONFIRMED booking already occupies the hour.
	ErrSlotTaken = errors.New("slot already taken")
	// ErrDuplicateCheckoutSession means a booking already references the
	// checkout session id (replayed webhook delivery).
	ErrDuplicateCheckoutSession = errors.New("checkout session already recorded")
)

// TransitionGuard is the expected current state of a booking. Guarded updates
// are applied as a compare-and-set so duplicate or out-of-order webhook
// deliveries cannot re-apply a transition.
type TransitionGuard struct {
	Status        models.BookingStatus
	PaymentStatus models.PaymentStatus
}

// Repository defines booking data access.
type Repository interface {
	// Create inserts a booking. The active-slot unique index makes this the
	// atomic check-and-insert of the reservation critical section: of two
	// concurrent inserts for the same hour exactly one succeeds, the other
	// gets ErrSlotTaken.
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Booking, error)
	ListActiveBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	ListByUser(ctx context.Context, userID string, status models.BookingStatus, limit, offset int64) ([]models.Booking, error)
	SetCheckoutSession(ctx context.Context, bookingID, sessionID string) error
	// ApplyTransition persists the status/paymentStatus of b only if the
	// stored booking still matches the guard. Returns false when the guard
	// did not match (a concurrent delivery won the race).
	ApplyTransition(ctx context.Context, id string, guard TransitionGuard, b *models.Booking) (bool, error)
}
