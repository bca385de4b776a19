package courseRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pitchbook/database"
	"pitchbook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("course not found")

// Repository defines course data access.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
	// FindOrCreate returns the course for (position, sessionType), creating
	// it with the given price if none exists. The upsert makes concurrent
	// callers converge on a single document.
	FindOrCreate(ctx context.Context, position string, sessionType models.SessionType, price float64) (*models.Course, error)
}

// MongoCourseRepo implements Repository on the "courses" collection.
type MongoCourseRepo struct {
	coll *mongo.Collection
}

func NewMongoCourseRepo() *MongoCourseRepo {
	return &MongoCourseRepo{coll: database.DB().Collection("courses")}
}

// EnsureIndexes creates the necessary indexes on the courses collection.
func (r *MongoCourseRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "position", Value: 1}, {Key: "sessionType", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_position_session"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create course indexes: %w", err)
	}
	return nil
}

func (r *MongoCourseRepo) GetByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&course)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch course %s failed: %w", id, err)
	}
	return &course, nil
}

func (r *MongoCourseRepo) FindOrCreate(ctx context.Context, position string, sessionType models.SessionType, price float64) (*models.Course, error) {
	now := time.Now()
	label := "Group"
	if sessionType == models.SessionOneToOne {
		label = "One-to-One"
	}
	filter := bson.M{"position": position, "sessionType": sessionType}
	update := bson.M{
		"$setOnInsert": models.Course{
			ID:          uuid.New().String(),
			Title:       fmt.Sprintf("%s %s Training", position, label),
			Position:    position,
			SessionType: sessionType,
			Price:       price,
			Available:   true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var course models.Course
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&course); err != nil {
		return nil, fmt.Errorf("find-or-create course failed: %w", err)
	}
	return &course, nil
}
