package notification

import (
	"context"

	"pitchbook/models"
	"pitchbook/services/tasks"
	"pitchbook/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// AsynqDispatcher enqueues notification tasks on the Redis-backed queue.
// Enqueueing is deliberately fire-and-forget: notification delivery must
// never block or roll back the state change that triggered it.
type AsynqDispatcher struct {
	Client *asynq.Client
}

func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{Client: client}
}

func (d *AsynqDispatcher) BookingStatusChanged(ctx context.Context, b *models.Booking, event string) {
	logger := utils.GetLogger()

	payload := tasks.BookingNotifyPayload{
		BookingID:     b.ID,
		UserID:        b.UserID,
		Event:         event,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
	}
	if !b.ScheduledFor.IsZero() {
		payload.ScheduledFor = b.ScheduledFor.UTC().Format("2006-01-02 15:04")
	}

	task, err := tasks.NewBookingNotifyTask(payload)
	if err != nil {
		logger.Error("failed to build notification task", zap.String("bookingID", b.ID), zap.Error(err))
		return
	}
	if _, err := d.Client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		logger.Error("failed to enqueue notification task", zap.String("bookingID", b.ID), zap.Error(err))
	}
}
