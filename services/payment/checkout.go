package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	bookingRepo "pitchbook/database/repository/booking"
	courseRepo "pitchbook/database/repository/course"
	"pitchbook/models"
	"pitchbook/services/booking"
	"pitchbook/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"
)

// CheckoutClient abstracts the Stripe checkout session API so tests can run
// without the provider.
type CheckoutClient interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeClient is the live implementation.
type StripeClient struct{}

func (StripeClient) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

// CheckoutService issues provider checkout sessions for course purchases and
// booking payments.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, userID string, req models.CheckoutRequest) (*models.CheckoutResponse, error)
}

type StripeCheckoutService struct {
	Client   CheckoutClient
	Bookings bookingRepo.Repository
	Courses  courseRepo.Repository

	FrontendURL string
	Currency    string
}

func (s *StripeCheckoutService) CreateCheckoutSession(ctx context.Context, userID string, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	switch req.Type {
	case models.CheckoutTypeCourse:
		return s.checkoutCourse(ctx, userID, req.CourseID)
	case models.CheckoutTypeBooking:
		return s.checkoutBooking(ctx, userID, req.BookingID)
	default:
		return nil, booking.NewValidationError(fmt.Sprintf("unknown checkout type %q", req.Type))
	}
}

func (s *StripeCheckoutService) checkoutCourse(ctx context.Context, userID, courseID string) (*models.CheckoutResponse, error) {
	if courseID == "" {
		return nil, booking.NewValidationError("courseId is required")
	}
	course, err := s.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, courseRepo.ErrNotFound) {
			return nil, booking.NewNotFoundError("course not found")
		}
		return nil, err
	}
	if !course.Available {
		return nil, booking.NewValidationError("course is not available for purchase")
	}

	metadata := map[string]string{
		"type":     models.CheckoutTypeCourse,
		"courseId": course.ID,
		"userId":   userID,
	}
	return s.createSession(ctx, course.Title, course.Price, metadata)
}

func (s *StripeCheckoutService) checkoutBooking(ctx context.Context, userID, bookingID string) (*models.CheckoutResponse, error) {
	if bookingID == "" {
		return nil, booking.NewValidationError("bookingId is required")
	}
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, booking.NewNotFoundError("booking not found")
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, booking.NewNotFoundError("booking not found")
	}
	if b.PaymentStatus == models.PaymentPaid {
		return nil, booking.NewConflictError("booking is already paid")
	}

	metadata := map[string]string{
		"type":      models.CheckoutTypeBooking,
		"bookingId": b.ID,
		"userId":    userID,
	}
	name := fmt.Sprintf("%s Training Session %s", b.Position, b.ScheduledFor.UTC().Format("2006-01-02 15:04"))
	resp, err := s.createSession(ctx, name, b.Amount, metadata)
	if err != nil {
		return nil, err
	}

	// Persist the session id before returning so webhook events can be
	// correlated even if the user never comes back from the provider.
	if err := s.Bookings.SetCheckoutSession(ctx, b.ID, resp.SessionID); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *StripeCheckoutService) createSession(ctx context.Context, name string, amount float64, metadata map[string]string) (*models.CheckoutResponse, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.FrontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.FrontendURL + "/payment/cancelled"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.Currency),
					UnitAmount: stripe.Int64(int64(math.Round(amount * 100))),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
				},
			},
		},
		// Copy the metadata onto the payment intent so payment_intent.* and
		// charge.* events can be correlated too, not just checkout events.
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.Client.NewCheckoutSession(params)
	if err != nil {
		utils.GetLogger().Error("stripe checkout session creation failed", zap.Error(err))
		return nil, NewExternalServiceError("payment provider is unavailable, please try again")
	}
	return &models.CheckoutResponse{SessionID: sess.ID, URL: sess.URL}, nil
}
