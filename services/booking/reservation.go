package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingRepo "pitchbook/database/repository/booking"
	courseRepo "pitchbook/database/repository/course"
	"pitchbook/models"
	"pitchbook/services/notification"
	"pitchbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationService creates bookings against the shared calendar and applies
// user-initiated lifecycle actions.
type ReservationService interface {
	CreateBooking(ctx context.Context, userID string, req models.CreateBookingRequest) (*models.Booking, error)
	UpdateBooking(ctx context.Context, bookingID, userID, action string) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID string, status models.BookingStatus, limit, offset int64) ([]models.Booking, error)
}

type DefaultReservationService struct {
	Repo         bookingRepo.Repository
	Courses      courseRepo.Repository
	Availability *DefaultAvailabilityService
	Notifier     notification.Service

	// Pricing defaults applied when a course is lazily created.
	PriceOneToOne float64
	PriceGroup    float64
}

func (s *DefaultReservationService) CreateBooking(ctx context.Context, userID string, req models.CreateBookingRequest) (*models.Booking, error) {
	logger := utils.GetLogger()

	sessionType := models.SessionType(req.SessionType)
	if sessionType != models.SessionOneToOne && sessionType != models.SessionGroup {
		return nil, NewValidationError("sessionType must be one-to-one or group")
	}
	position := strings.ToUpper(strings.TrimSpace(req.Position))
	if position == "" {
		return nil, NewValidationError("position is required")
	}

	scheduledFor, err := parseSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !scheduledFor.After(now) {
		return nil, NewValidationError("cannot book a slot in the past")
	}

	price := s.PriceGroup
	if sessionType == models.SessionOneToOne {
		price = s.PriceOneToOne
	}

	course, err := s.findOrCreateCourse(ctx, position, sessionType, price)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:            uuid.New().String(),
		UserID:        userID,
		CourseID:      course.ID,
		SessionType:   sessionType,
		Position:      position,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
		ScheduledFor:  scheduledFor,
		SlotKey:       models.SlotKeyFor(scheduledFor),
		Amount:        course.Price,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// The insert is the critical section: the active-slot unique index turns
	// check-then-insert into a single atomic operation.
	if err := s.Repo.Create(ctx, booking); err != nil {
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			return nil, NewConflictError("the selected time slot is no longer available")
		}
		return nil, err
	}

	if s.Availability != nil {
		s.Availability.InvalidateDate(ctx, scheduledFor)
	}
	if s.Notifier != nil {
		s.Notifier.BookingStatusChanged(ctx, booking, notification.EventBookingCreated)
	}

	logger.Info("booking created",
		zap.String("bookingID", booking.ID),
		zap.String("userID", userID),
		zap.String("slot", booking.SlotKey))
	return booking, nil
}

func (s *DefaultReservationService) UpdateBooking(ctx context.Context, bookingID, userID, action string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, NewNotFoundError("booking not found")
		}
		return nil, err
	}
	// A foreign booking looks exactly like a missing one.
	if b.UserID != userID {
		return nil, NewNotFoundError("booking not found")
	}

	guard := bookingRepo.TransitionGuard{Status: b.Status, PaymentStatus: b.PaymentStatus}
	var event string
	switch action {
	case models.BookingActionCancel:
		if err := ApplyCancel(b, time.Now()); err != nil {
			return nil, err
		}
		event = notification.EventBookingCancelled
	case models.BookingActionComplete:
		if err := ApplyComplete(b); err != nil {
			return nil, err
		}
		event = ""
	default:
		return nil, NewValidationError(fmt.Sprintf("unknown action %q", action))
	}

	ok, err := s.Repo.ApplyTransition(ctx, b.ID, guard, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewConflictError("booking state changed, please retry")
	}

	if s.Availability != nil {
		s.Availability.InvalidateDate(ctx, b.ScheduledFor)
	}
	if event != "" && s.Notifier != nil {
		s.Notifier.BookingStatusChanged(ctx, b, event)
	}
	return b, nil
}

func (s *DefaultReservationService) ListUserBookings(ctx context.Context, userID string, status models.BookingStatus, limit, offset int64) ([]models.Booking, error) {
	if status != "" {
		switch status {
		case models.BookingPending, models.BookingConfirmed, models.BookingCancelled, models.BookingCompleted:
		default:
			return nil, NewValidationError(fmt.Sprintf("unknown status %q", status))
		}
	}
	return s.Repo.ListByUser(ctx, userID, status, limit, offset)
}

// findOrCreateCourse retries once; the upsert can lose a race under a unique
// index and succeed on the second attempt.
func (s *DefaultReservationService) findOrCreateCourse(ctx context.Context, position string, sessionType models.SessionType, price float64) (*models.Course, error) {
	course, err := s.Courses.FindOrCreate(ctx, position, sessionType, price)
	if err == nil {
		return course, nil
	}
	utils.GetLogger().Warn("course find-or-create failed, retrying",
		zap.String("position", position), zap.Error(err))
	return s.Courses.FindOrCreate(ctx, position, sessionType, price)
}

// parseSlot turns a date and wall-clock time into the slot's UTC timestamp.
func parseSlot(date, clock string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return time.Time{}, NewValidationError("invalid date, expected YYYY-MM-DD")
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, NewValidationError("invalid time, expected HH:MM")
	}
	if t.Minute() != 0 {
		return time.Time{}, NewValidationError("bookings start on the hour")
	}
	if t.Hour() < OpenHour || t.Hour() >= CloseHour {
		return time.Time{}, NewValidationError(fmt.Sprintf("bookings are available between %02d:00 and %02d:00", OpenHour, CloseHour))
	}
	return day.Add(time.Duration(t.Hour()) * time.Hour), nil
}
