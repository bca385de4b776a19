package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	bookingRepo "pitchbook/database/repository/booking"
	courseRepo "pitchbook/database/repository/course"
	"pitchbook/models"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_test_secret"

// memBookings is an in-memory booking repository enforcing the same
// uniqueness rules as the Mongo indexes.
type memBookings struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookings() *memBookings {
	return &memBookings{bookings: make(map[string]*models.Booking)}
}

func (f *memBookings) add(b models.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.SyncActive()
	f.bookings[b.ID] = &b
}

func (f *memBookings) Create(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.SyncActive()
	for _, ex := range f.bookings {
		if b.Active && b.SlotKey != "" && ex.Active && ex.SlotKey == b.SlotKey {
			return bookingRepo.ErrSlotTaken
		}
		if b.CheckoutSessionID != "" && ex.CheckoutSessionID == b.CheckoutSessionID {
			return bookingRepo.ErrDuplicateCheckoutSession
		}
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *memBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *memBookings) GetByCheckoutSessionID(_ context.Context, sessionID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.CheckoutSessionID == sessionID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, bookingRepo.ErrNotFound
}

func (f *memBookings) ListActiveBetween(_ context.Context, from, to time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.Active && b.SlotKey != "" && !b.ScheduledFor.Before(from) && b.ScheduledFor.Before(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *memBookings) ListByUser(_ context.Context, userID string, status models.BookingStatus, limit, offset int64) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.UserID == userID && (status == "" || b.Status == status) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *memBookings) SetCheckoutSession(_ context.Context, bookingID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.CheckoutSessionID = sessionID
	return nil
}

func (f *memBookings) ApplyTransition(_ context.Context, id string, guard bookingRepo.TransitionGuard, b *models.Booking) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.bookings[id]
	if !ok || stored.Status != guard.Status || stored.PaymentStatus != guard.PaymentStatus {
		return false, nil
	}
	b.SyncActive()
	stored.Status = b.Status
	stored.PaymentStatus = b.PaymentStatus
	stored.Active = b.Active
	if b.PaymentRef != "" {
		stored.PaymentRef = b.PaymentRef
	}
	return true, nil
}

// memCourses is an in-memory course repository.
type memCourses struct {
	mu      sync.Mutex
	courses map[string]*models.Course
}

func newMemCourses() *memCourses {
	return &memCourses{courses: make(map[string]*models.Course)}
}

func (f *memCourses) add(c models.Course) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses[c.ID] = &c
}

func (f *memCourses) GetByID(_ context.Context, id string) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, courseRepo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *memCourses) FindOrCreate(_ context.Context, position string, sessionType models.SessionType, price float64) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.courses {
		if c.Position == position && c.SessionType == sessionType {
			cp := *c
			return &cp, nil
		}
	}
	c := &models.Course{ID: "course-" + position, Position: position, SessionType: sessionType, Price: price, Available: true}
	f.courses[c.ID] = c
	cp := *c
	return &cp, nil
}

// memLedger is an in-memory processed-event ledger.
type memLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemLedger() *memLedger {
	return &memLedger{seen: make(map[string]bool)}
}

func (f *memLedger) MarkProcessed(_ context.Context, eventID, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	return true, nil
}

func (f *memLedger) Forget(_ context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, eventID)
	return nil
}

func newTestReconciler(bookings *memBookings, courses *memCourses) *StripeWebhookReconciler {
	return &StripeWebhookReconciler{
		Secret:   testWebhookSecret,
		Bookings: bookings,
		Courses:  courses,
		Events:   newMemLedger(),
	}
}

// eventPayload builds a raw Stripe event body.
func eventPayload(t *testing.T, eventID, eventType string, object map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2023-10-16",
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return raw
}

// signedHeader computes a valid Stripe-Signature header for the payload.
func signedHeader(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// fakeCheckoutClient records the params it was called with.
type fakeCheckoutClient struct {
	params  *stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
}

func (f *fakeCheckoutClient) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}
