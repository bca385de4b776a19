package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"pitchbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func TestCreateBooking(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestReservationService(repo)

	b, err := svc.CreateBooking(context.Background(), "u1", models.CreateBookingRequest{
		SessionType: "one-to-one",
		Position:    "striker",
		Date:        futureDate(7),
		Time:        "14:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, models.PaymentPending, b.PaymentStatus)
	assert.Equal(t, "STRIKER", b.Position)
	assert.Equal(t, 75.0, b.Amount)
	assert.Equal(t, 14, b.ScheduledFor.UTC().Hour())
	assert.NotEmpty(t, b.CourseID)
	assert.NotEmpty(t, b.SlotKey)
}

func TestCreateBookingSlotConflict(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestReservationService(repo)
	date := futureDate(7)

	req := models.CreateBookingRequest{
		SessionType: "one-to-one",
		Position:    "STRIKER",
		Date:        date,
		Time:        "14:00",
	}
	_, err := svc.CreateBooking(context.Background(), "u1", req)
	require.NoError(t, err)

	// Second user, same hour: conflict, no partial writes.
	_, err = svc.CreateBooking(context.Background(), "u2", req)
	require.Error(t, err)
	assert.IsType(t, &ConflictError{}, err)

	bookings, err := repo.ListByUser(context.Background(), "u2", "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, bookings)

	// A different hour on the same day still works.
	req.Time = "15:00"
	_, err = svc.CreateBooking(context.Background(), "u2", req)
	require.NoError(t, err)
}

func TestCreateBookingValidation(t *testing.T) {
	svc := newTestReservationService(newMemBookingRepo())
	ctx := context.Background()

	cases := []models.CreateBookingRequest{
		{SessionType: "duo", Position: "STRIKER", Date: futureDate(7), Time: "14:00"},
		{SessionType: "group", Position: "", Date: futureDate(7), Time: "14:00"},
		{SessionType: "group", Position: "STRIKER", Date: "not-a-date", Time: "14:00"},
		{SessionType: "group", Position: "STRIKER", Date: futureDate(7), Time: "14:30"},
		{SessionType: "group", Position: "STRIKER", Date: futureDate(7), Time: "22:00"},
		{SessionType: "group", Position: "STRIKER", Date: "2020-01-01", Time: "14:00"}, // past
	}
	for _, req := range cases {
		_, err := svc.CreateBooking(ctx, "u1", req)
		require.Error(t, err, "%+v", req)
		assert.IsType(t, &ValidationError{}, err, "%+v", req)
	}
}

func TestCreateBookingConcurrentSameSlot(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestReservationService(repo)
	date := futureDate(7)

	const callers = 20
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(context.Background(), "u1", models.CreateBookingRequest{
				SessionType: "one-to-one",
				Position:    "STRIKER",
				Date:        date,
				Time:        "14:00",
			})
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.IsType(t, &ConflictError{}, err)
		lost++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, callers-1, lost)
}

func TestUpdateBookingCancel(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestReservationService(repo)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, "u1", models.CreateBookingRequest{
		SessionType: "group",
		Position:    "GOALKEEPER",
		Date:        futureDate(7),
		Time:        "10:00",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateBooking(ctx, b.ID, "u1", models.BookingActionCancel)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, updated.Status)

	// The slot is free again.
	_, err = svc.CreateBooking(ctx, "u2", models.CreateBookingRequest{
		SessionType: "group",
		Position:    "GOALKEEPER",
		Date:        futureDate(7),
		Time:        "10:00",
	})
	require.NoError(t, err)
}

func TestUpdateBookingCancelInsideWindow(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestReservationService(repo)
	ctx := context.Background()

	// Seed a booking scheduled a few hours out; CreateBooking is not used
	// because the window guard is exactly what we want to trip.
	scheduled := time.Now().UTC().Add(3 * time.Hour).Truncate(time.Hour)
	b := &models.Booking{
		ID:            "b-soon",
		UserID:        "u1",
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
		ScheduledFor:  scheduled,
		SlotKey:       models.SlotKeyFor(scheduled),
	}
	require.NoError(t, repo.Create(ctx, b))

	_, err := svc.UpdateBooking(ctx, "b-soon", "u1", models.BookingActionCancel)
	require.Error(t, err)
	assert.IsType(t, &CancellationWindowError{}, err)

	stored, err := repo.GetByID(ctx, "b-soon")
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, stored.Status)
}

func TestUpdateBookingOwnership(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestReservationService(repo)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, "u1", models.CreateBookingRequest{
		SessionType: "group",
		Position:    "WINGER",
		Date:        futureDate(7),
		Time:        "11:00",
	})
	require.NoError(t, err)

	// Another user sees not-found, not forbidden.
	_, err = svc.UpdateBooking(ctx, b.ID, "u2", models.BookingActionCancel)
	require.Error(t, err)
	assert.IsType(t, &NotFoundError{}, err)

	_, err = svc.UpdateBooking(ctx, "missing", "u1", models.BookingActionCancel)
	require.Error(t, err)
	assert.IsType(t, &NotFoundError{}, err)
}

func TestUpdateBookingComplete(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestReservationService(repo)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, "u1", models.CreateBookingRequest{
		SessionType: "one-to-one",
		Position:    "STRIKER",
		Date:        futureDate(7),
		Time:        "16:00",
	})
	require.NoError(t, err)

	// Completing a PENDING booking is illegal.
	_, err = svc.UpdateBooking(ctx, b.ID, "u1", models.BookingActionComplete)
	require.Error(t, err)
	assert.IsType(t, &ConflictError{}, err)

	// Confirm it (as the reconciler would), then complete.
	stored, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	guard := transitionGuardOf(stored)
	require.NoError(t, ApplyPaymentSucceeded(stored))
	ok, err := repo.ApplyTransition(ctx, b.ID, guard, stored)
	require.NoError(t, err)
	require.True(t, ok)

	updated, err := svc.UpdateBooking(ctx, b.ID, "u1", models.BookingActionComplete)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, updated.Status)
}

func TestListUserBookingsStatusFilter(t *testing.T) {
	repo := newMemBookingRepo()
	svc := newTestReservationService(repo)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, "u1", models.CreateBookingRequest{
		SessionType: "group", Position: "STRIKER", Date: futureDate(7), Time: "09:00",
	})
	require.NoError(t, err)

	bookings, err := svc.ListUserBookings(ctx, "u1", models.BookingPending, 10, 0)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	bookings, err = svc.ListUserBookings(ctx, "u1", models.BookingCancelled, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, bookings)

	_, err = svc.ListUserBookings(ctx, "u1", "WAITING", 10, 0)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}
