package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	idxActiveSlot      = "uniq_active_slot"
	idxCheckoutSession = "uniq_checkout_session"
)

// EnsureIndexes creates the necessary indexes on the bookings collection.
// uniq_active_slot is the calendar exclusivity constraint: only one booking
// with active=true may hold a given slotKey, so reservation inserts are an
// atomic check-and-insert instead of a racy read-then-write.
func (r *MongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys: bson.D{{Key: "slotKey", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(idxActiveSlot).
				SetPartialFilterExpression(bson.M{
					"active":  true,
					"slotKey": bson.M{"$gt": ""},
				}),
		},
		{
			Keys: bson.D{{Key: "checkoutSessionId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(idxCheckoutSession).
				SetPartialFilterExpression(bson.M{
					"checkoutSessionId": bson.M{"$exists": true},
				}),
		},
		// Primary read patterns: availability grid and user history.
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "scheduledFor", Value: 1}},
			Options: options.Index().SetName("active_scheduled_idx"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "scheduledFor", Value: -1}},
			Options: options.Index().SetName("user_scheduled_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
