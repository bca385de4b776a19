package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bookingRepo "pitchbook/database/repository/booking"
	courseRepo "pitchbook/database/repository/course"
	webhookeventRepo "pitchbook/database/repository/webhookevent"
	"pitchbook/models"
	"pitchbook/services/booking"
	"pitchbook/services/notification"
	"pitchbook/utils"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// WebhookService consumes provider events and reconciles booking state.
type WebhookService interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

// StripeWebhookReconciler applies Stripe events idempotently. Deliveries are
// at-least-once and unordered, so every path tolerates replays: a processed-
// event ledger catches exact duplicates, the checkout-session unique index
// catches duplicate course purchases, and guarded compare-and-set updates
// catch concurrent deliveries for the same booking.
type StripeWebhookReconciler struct {
	Secret       string
	Bookings     bookingRepo.Repository
	Courses      courseRepo.Repository
	Events       webhookeventRepo.Ledger
	Availability *booking.DefaultAvailabilityService
	Notifier     notification.Service
}

func (r *StripeWebhookReconciler) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, r.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return NewSignatureError("webhook signature verification failed")
	}
	logger := utils.GetLogger()

	fresh, err := r.Events.MarkProcessed(ctx, event.ID, string(event.Type))
	if err != nil {
		return err
	}
	if !fresh {
		logger.Info("ignoring replayed webhook event", zap.String("eventID", event.ID))
		return nil
	}

	if err := r.dispatch(ctx, event); err != nil {
		// Un-mark the event so the provider's retry is not swallowed.
		if ferr := r.Events.Forget(ctx, event.ID); ferr != nil {
			logger.Error("failed to release webhook event", zap.String("eventID", event.ID), zap.Error(ferr))
		}
		return err
	}
	return nil
}

func (r *StripeWebhookReconciler) dispatch(ctx context.Context, event stripe.Event) error {
	logger := utils.GetLogger()

	switch string(event.Type) {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("malformed checkout session payload: %w", err)
		}
		switch cs.Metadata["type"] {
		case models.CheckoutTypeCourse:
			return r.handleCoursePurchase(ctx, &cs)
		case models.CheckoutTypeBooking:
			return r.handleBookingPaid(ctx, &cs)
		default:
			logger.Warn("checkout session without recognised metadata type",
				zap.String("sessionID", cs.ID))
			return nil
		}

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("malformed payment intent payload: %w", err)
		}
		return r.handlePaymentFailed(ctx, pi.Metadata["bookingId"], pi.ID)

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return fmt.Errorf("malformed charge payload: %w", err)
		}
		return r.handleRefund(ctx, ch.Metadata["bookingId"])

	default:
		// Unknown event types are acknowledged so the provider stops
		// retrying them.
		logger.Debug("ignoring webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

// handleCoursePurchase records a course purchase as a CONFIRMED/PAID booking.
// The checkout session id is the idempotency key: a booking already holding
// it means this delivery is a replay.
func (r *StripeWebhookReconciler) handleCoursePurchase(ctx context.Context, cs *stripe.CheckoutSession) error {
	logger := utils.GetLogger()

	if existing, err := r.Bookings.GetByCheckoutSessionID(ctx, cs.ID); err == nil && existing != nil {
		logger.Info("course purchase already recorded", zap.String("sessionID", cs.ID))
		return nil
	} else if err != nil && !errors.Is(err, bookingRepo.ErrNotFound) {
		return err
	}

	courseID := cs.Metadata["courseId"]
	userID := cs.Metadata["userId"]
	if courseID == "" || userID == "" {
		logger.Warn("course purchase event missing metadata", zap.String("sessionID", cs.ID))
		return nil
	}
	course, err := r.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, courseRepo.ErrNotFound) {
			logger.Error("course purchase references unknown course",
				zap.String("courseID", courseID), zap.String("sessionID", cs.ID))
			return nil
		}
		return err
	}

	amount := course.Price
	if cs.AmountTotal > 0 {
		amount = float64(cs.AmountTotal) / 100
	}
	now := time.Now()
	b := &models.Booking{
		ID:                uuid.New().String(),
		UserID:            userID,
		CourseID:          course.ID,
		SessionType:       course.SessionType,
		Position:          course.Position,
		Status:            models.BookingConfirmed,
		PaymentStatus:     models.PaymentPaid,
		Amount:            amount,
		CheckoutSessionID: cs.ID,
		PaymentRef:        paymentRef(cs),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := r.Bookings.Create(ctx, b); err != nil {
		if errors.Is(err, bookingRepo.ErrDuplicateCheckoutSession) {
			// Two replays raced; the other one won.
			return nil
		}
		return err
	}
	if r.Notifier != nil {
		r.Notifier.BookingStatusChanged(ctx, b, notification.EventBookingConfirmed)
	}
	return nil
}

func (r *StripeWebhookReconciler) handleBookingPaid(ctx context.Context, cs *stripe.CheckoutSession) error {
	logger := utils.GetLogger()

	bookingID := cs.Metadata["bookingId"]
	if bookingID == "" {
		logger.Warn("booking payment event missing bookingId", zap.String("sessionID", cs.ID))
		return nil
	}
	b, err := r.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			logger.Error("payment event references unknown booking", zap.String("bookingID", bookingID))
			return nil
		}
		return err
	}
	if b.PaymentStatus == models.PaymentPaid {
		return nil
	}

	guard := bookingRepo.TransitionGuard{Status: b.Status, PaymentStatus: b.PaymentStatus}
	if err := booking.ApplyPaymentSucceeded(b); err != nil {
		// The booking reached a state that can no longer be confirmed
		// (e.g. cancelled before the payment landed). Ack and leave it to
		// support tooling; retrying the event would never succeed.
		logger.Warn("cannot confirm booking for completed payment",
			zap.String("bookingID", b.ID), zap.Error(err))
		return nil
	}
	b.PaymentRef = paymentRef(cs)

	ok, err := r.Bookings.ApplyTransition(ctx, b.ID, guard, b)
	if err != nil {
		return err
	}
	if !ok {
		// A concurrent delivery already applied the transition.
		return nil
	}
	if r.Notifier != nil {
		r.Notifier.BookingStatusChanged(ctx, b, notification.EventBookingConfirmed)
	}
	return nil
}

func (r *StripeWebhookReconciler) handlePaymentFailed(ctx context.Context, bookingID, intentID string) error {
	logger := utils.GetLogger()

	if bookingID == "" {
		logger.Warn("payment failure event missing bookingId", zap.String("intentID", intentID))
		return nil
	}
	b, err := r.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			logger.Error("payment failure references unknown booking", zap.String("bookingID", bookingID))
			return nil
		}
		return err
	}
	if b.PaymentStatus != models.PaymentPending {
		return nil
	}

	guard := bookingRepo.TransitionGuard{Status: b.Status, PaymentStatus: b.PaymentStatus}
	if err := booking.ApplyPaymentFailed(b); err != nil {
		logger.Warn("cannot fail booking payment", zap.String("bookingID", b.ID), zap.Error(err))
		return nil
	}
	b.PaymentRef = intentID

	ok, err := r.Bookings.ApplyTransition(ctx, b.ID, guard, b)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	// The cancelled booking released its slot.
	if r.Availability != nil {
		r.Availability.InvalidateDate(ctx, b.ScheduledFor)
	}
	if r.Notifier != nil {
		r.Notifier.BookingStatusChanged(ctx, b, notification.EventPaymentFailed)
	}
	return nil
}

func (r *StripeWebhookReconciler) handleRefund(ctx context.Context, bookingID string) error {
	logger := utils.GetLogger()

	if bookingID == "" {
		logger.Warn("refund event missing bookingId")
		return nil
	}
	b, err := r.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			logger.Error("refund references unknown booking", zap.String("bookingID", bookingID))
			return nil
		}
		return err
	}
	if b.PaymentStatus == models.PaymentRefunded {
		return nil
	}

	guard := bookingRepo.TransitionGuard{Status: b.Status, PaymentStatus: b.PaymentStatus}
	if err := booking.ApplyRefund(b); err != nil {
		logger.Warn("cannot apply refund", zap.String("bookingID", b.ID), zap.Error(err))
		return nil
	}

	ok, err := r.Bookings.ApplyTransition(ctx, b.ID, guard, b)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if r.Availability != nil {
		r.Availability.InvalidateDate(ctx, b.ScheduledFor)
	}
	if r.Notifier != nil {
		r.Notifier.BookingStatusChanged(ctx, b, notification.EventBookingRefunded)
	}
	return nil
}

func paymentRef(cs *stripe.CheckoutSession) string {
	if cs.PaymentIntent != nil {
		return cs.PaymentIntent.ID
	}
	return ""
}
