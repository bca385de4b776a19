package webhookeventRepo

import (
	"context"
	"fmt"
	"time"

	"pitchbook/database"
	"pitchbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Ledger records which provider events have already been processed.
// Deliveries are at-least-once, so the reconciler consults this before
// touching booking state.
type Ledger interface {
	// MarkProcessed records the event id. Returns false when the id was
	// already present (a replayed delivery).
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
	// Forget removes a ledger entry so a failed delivery can be retried.
	Forget(ctx context.Context, eventID string) error
}

// MongoEventLedger implements Ledger on the "webhook_events" collection.
type MongoEventLedger struct {
	coll *mongo.Collection
}

func NewMongoEventLedger() *MongoEventLedger {
	return &MongoEventLedger{coll: database.DB().Collection("webhook_events")}
}

// EnsureIndexes creates the unique event-id index backing dedupe.
func (r *MongoEventLedger) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "eventId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_event_id"),
		},
		// Ledger entries only matter within the provider's retry horizon.
		{
			Keys:    bson.D{{Key: "receivedAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(30 * 24 * 3600).SetName("received_ttl"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create webhook event indexes: %w", err)
	}
	return nil
}

func (r *MongoEventLedger) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	_, err := r.coll.InsertOne(ctx, models.WebhookEvent{
		EventID:    eventID,
		Type:       eventType,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("record webhook event failed: %w", err)
	}
	return true, nil
}

func (r *MongoEventLedger) Forget(ctx context.Context, eventID string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"eventId": eventID}); err != nil {
		return fmt.Errorf("forget webhook event failed: %w", err)
	}
	return nil
}
