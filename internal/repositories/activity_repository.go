package repositories

import (
	"context"
	"time"

	"github.com/anonto42/prehome/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepository defines the interface for per (user, property) activity records
type ActivityRepository interface {
	Get(ctx context.Context, userID, propertyID string) (*models.Activity, error)
	Upsert(ctx context.Context, userID, propertyID string, patch models.ActivityPatch) (*models.Activity, error)
	ListByUser(ctx context.Context, userID string) ([]models.Activity, error)
	ListAll(ctx context.Context) ([]models.Activity, error)
	Delete(ctx context.Context, userID, propertyID string) error
}

// MongoActivityRepository implements ActivityRepository for MongoDB
type MongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new MongoActivityRepository
func NewMongoActivityRepository(db *mongo.Database) *MongoActivityRepository {
	return &MongoActivityRepository{collection: db.Collection("activities")}
}

func activityKey(userID, propertyID string) bson.M {
	return bson.M{"userId": userID, "propertyId": propertyID}
}

// Get returns the record for the pair or ErrNotFound
func (r *MongoActivityRepository) Get(ctx context.Context, userID, propertyID string) (*models.Activity, error) {
	var activity models.Activity
	if err := r.collection.FindOne(ctx, activityKey(userID, propertyID)).Decode(&activity); err != nil {
		return nil, mongoErr(err)
	}
	return &activity, nil
}

// Upsert merges patch into the record for the pair, creating it if needed,
// and returns the stored document after the write.
func (r *MongoActivityRepository) Upsert(ctx context.Context, userID, propertyID string, patch models.ActivityPatch) (*models.Activity, error) {
	now := time.Now()
	set := bson.M{"updatedAt": now}
	onInsert := bson.M{"createdAt": now}

	if patch.Shortlisted != nil {
		set["shortlisted"] = *patch.Shortlisted
	} else {
		onInsert["shortlisted"] = false
	}
	if patch.VisitDate != nil {
		set["visitDate"] = *patch.VisitDate
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	} else {
		onInsert["status"] = ""
	}

	update := bson.M{"$set": set, "$setOnInsert": onInsert}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var activity models.Activity
	err := r.collection.FindOneAndUpdate(ctx, activityKey(userID, propertyID), update, opts).Decode(&activity)
	if err != nil {
		return nil, mongoErr(err)
	}
	return &activity, nil
}

// ListByUser returns every record of a user, most recently updated first
func (r *MongoActivityRepository) ListByUser(ctx context.Context, userID string) ([]models.Activity, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

// ListAll returns every record for the admin dashboard
func (r *MongoActivityRepository) ListAll(ctx context.Context) ([]models.Activity, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoActivityRepository) find(ctx context.Context, filter bson.M) ([]models.Activity, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	activities := []models.Activity{}
	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// Delete removes the record for the pair
func (r *MongoActivityRepository) Delete(ctx context.Context, userID, propertyID string) error {
	res, err := r.collection.DeleteOne(ctx, activityKey(userID, propertyID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
