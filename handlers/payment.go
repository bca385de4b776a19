package handlers

import (
	"errors"
	"io"
	"net/http"

	"pitchbook/middleware"
	"pitchbook/models"
	"pitchbook/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBodyBytes = 64 * 1024

// PaymentHandler exposes checkout issuance and the Stripe webhook endpoint.
type PaymentHandler struct {
	Checkout payment.CheckoutService
	Webhook  payment.WebhookService
	logger   *zap.Logger
}

func NewPaymentHandler(checkout payment.CheckoutService, webhookSvc payment.WebhookService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		Checkout: checkout,
		Webhook:  webhookSvc,
		logger:   logger,
	}
}

// CreateCheckoutSession issues a Stripe checkout session for a course
// purchase or a booking payment.
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Insufficient authorization"})
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid input", "details": err.Error()})
		return
	}

	resp, err := h.Checkout.CreateCheckoutSession(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessionId": resp.SessionID, "url": resp.URL})
}

// StripeWebhook consumes provider events. Responses are plain HTTP statuses
// so Stripe's retry policy applies: 4xx stops retries, 5xx triggers them.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if err := h.Webhook.HandleEvent(c.Request.Context(), payload, sigHeader); err != nil {
		var se *payment.SignatureError
		if errors.As(err, &se) {
			c.JSON(http.StatusBadRequest, gin.H{"error": se.Message})
			return
		}
		// Transient failure: let the provider retry.
		h.logger.Error("webhook reconciliation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
