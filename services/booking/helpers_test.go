package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	bookingRepo "pitchbook/database/repository/booking"
	courseRepo "pitchbook/database/repository/course"
	"pitchbook/models"

	"github.com/google/uuid"
)

// memBookingRepo is an in-memory Repository that enforces the same
// uniqueness rules as the Mongo indexes.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (f *memBookingRepo) Create(_ context.Context, b *models.Booking) error {
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

func (f *memBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *memBookingRepo) GetByCheckoutSessionID(_ context.Context, sessionID string) (*models.Booking, error) {
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

func (f *memBookingRepo) ListActiveBetween(_ context.Context, from, to time.Time) ([]models.Booking, error) {
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

func (f *memBookingRepo) ListByUser(_ context.Context, userID string, status models.BookingStatus, limit, offset int64) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.UserID != userID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *memBookingRepo) SetCheckoutSession(_ context.Context, bookingID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.bookings {
		if ex.ID != bookingID && ex.CheckoutSessionID == sessionID {
			return bookingRepo.ErrDuplicateCheckoutSession
		}
	}
	b, ok := f.bookings[bookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.CheckoutSessionID = sessionID
	return nil
}

func (f *memBookingRepo) ApplyTransition(_ context.Context, id string, guard bookingRepo.TransitionGuard, b *models.Booking) (bool, error) {
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
	stored.UpdatedAt = time.Now()
	return true, nil
}

// memCourseRepo is an in-memory course repository.
type memCourseRepo struct {
	mu      sync.Mutex
	courses map[string]*models.Course
}

func newMemCourseRepo() *memCourseRepo {
	return &memCourseRepo{courses: make(map[string]*models.Course)}
}

func (f *memCourseRepo) GetByID(_ context.Context, id string) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, courseRepo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *memCourseRepo) FindOrCreate(_ context.Context, position string, sessionType models.SessionType, price float64) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.courses {
		if c.Position == position && c.SessionType == sessionType {
			cp := *c
			return &cp, nil
		}
	}
	c := &models.Course{
		ID:          uuid.New().String(),
		Title:       fmt.Sprintf("%s Training", position),
		Position:    position,
		SessionType: sessionType,
		Price:       price,
		Available:   true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.courses[c.ID] = c
	cp := *c
	return &cp, nil
}

func transitionGuardOf(b *models.Booking) bookingRepo.TransitionGuard {
	return bookingRepo.TransitionGuard{Status: b.Status, PaymentStatus: b.PaymentStatus}
}

func newTestReservationService(repo *memBookingRepo) *DefaultReservationService {
	return &DefaultReservationService{
		Repo:          repo,
		Courses:       newMemCourseRepo(),
		PriceOneToOne: 75,
		PriceGroup:    35,
	}
}
