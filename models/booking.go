package models

import "time"

// SessionType distinguishes private and group training sessions.
type SessionType string

const (
	SessionOneToOne SessionType = "one-to-one"
	SessionGroup    SessionType = "group"
)

// BookingStatus is the lifecycle status of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// PaymentStatus tracks the payment side of a booking independently of its
// lifecycle status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Booking represents a training session reservation on the shared calendar.
// Bookings are never hard-deleted; CANCELLED and COMPLETED are terminal.
type Booking struct {
	ID            string        `bson:"id" json:"id"`
	UserID        string        `bson:"userId" json:"userId"`
	CourseID      string        `bson:"courseId" json:"courseId"`
	SessionType   SessionType   `bson:"sessionType" json:"sessionType"`
	Position      string        `bson:"position" json:"position"` // e.g. "STRIKER", "GOALKEEPER"
	Status        BookingStatus `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	ScheduledFor  time.Time     `bson:"scheduledFor" json:"scheduledFor"`
	// SlotKey is the calendar hour this booking occupies ("2025-03-10T14").
	// Empty for course-purchase bookings, which hold no calendar slot.
	SlotKey string `bson:"slotKey,omitempty" json:"-"`
	// Active mirrors status PENDING/CONFIRMED. It backs the partial unique
	// index that enforces one active booking per slot.
	Active            bool      `bson:"active" json:"-"`
	Amount            float64   `bson:"amount" json:"amount"`
	CheckoutSessionID string    `bson:"checkoutSessionId,omitempty" json:"checkoutSessionId,omitempty"`
	PaymentRef        string    `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	Notes             string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SyncActive recomputes the Active flag from the current status. Must be
// called after every status transition before the booking is persisted.
func (b *Booking) SyncActive() {
	b.Active = b.Status == BookingPending || b.Status == BookingConfirmed
}

// SlotKeyFor formats the calendar key for the hour containing t.
func SlotKeyFor(t time.Time) string {
	return t.UTC().Format("2006-01-02T15")
}
