package tasks

import (
	"encoding/json"

	"pitchbook/models"

	"github.com/hibiken/asynq"
)

const TypeBookingNotify = "booking:notify"

// BookingNotifyPayload is what the notification worker receives for each
// booking state transition.
type BookingNotifyPayload struct {
	BookingID     string               `json:"bookingId"`
	UserID        string               `json:"userId"`
	Event         string               `json:"event"`
	Status        models.BookingStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	ScheduledFor  string               `json:"scheduledFor,omitempty"`
}

func NewBookingNotifyTask(payload BookingNotifyPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeBookingNotify, b), nil
}
