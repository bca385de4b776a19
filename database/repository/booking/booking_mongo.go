package bookingRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pitchbook/database"
	"pitchbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements Repository on the "bookings" collection.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

func NewMongoBookingRepo() *MongoBookingRepo {
	return &MongoBookingRepo{coll: database.DB().Collection("bookings")}
}

func (r *MongoBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	b.SyncActive()
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), idxActiveSlot) {
				return ErrSlotTaken
			}
			if strings.Contains(err.Error(), idxCheckoutSession) {
				return ErrDuplicateCheckoutSession
			}
			return ErrSlotTaken
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch booking %s failed: %w", id, err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Booking, error) {
	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"checkoutSessionId": sessionID}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch booking by session %s failed: %w", sessionID, err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) ListActiveBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"active":       true,
		"slotKey":      bson.M{"$gt": ""},
		"scheduledFor": bson.M{"$gte": from, "$lt": to},
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list active bookings failed: %w", err)
	}
	defer cur.Close(ctx)

	var bookings []models.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode active bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) ListByUser(ctx context.Context, userID string, status models.BookingStatus, limit, offset int64) ([]models.Booking, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "scheduledFor", Value: -1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list user bookings failed: %w", err)
	}
	defer cur.Close(ctx)

	var bookings []models.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode user bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) SetCheckoutSession(ctx context.Context, bookingID, sessionID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": bookingID},
		bson.M{"$set": bson.M{"checkoutSessionId": sessionID, "updatedAt": time.Now()}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateCheckoutSession
		}
		return fmt.Errorf("set checkout session failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoBookingRepo) ApplyTransition(ctx context.Context, id string, guard TransitionGuard, b *models.Booking) (bool, error) {
	b.SyncActive()
	filter := bson.M{
		"id":            id,
		"status":        guard.Status,
		"paymentStatus": guard.PaymentStatus,
	}
	update := bson.M{"$set": bson.M{
		"status":        b.Status,
		"paymentStatus": b.PaymentStatus,
		"active":        b.Active,
		"updatedAt":     time.Now(),
	}}
	if b.PaymentRef != "" {
		update["$set"].(bson.M)["paymentRef"] = b.PaymentRef
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("apply transition failed: %w", err)
	}
	return res.MatchedCount == 1, nil
}
