package repositories

import (
	"context"
	"time"

	"github.com/anonto42/prehome/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FormProgressRepository stores onboarding questionnaire progress
type FormProgressRepository interface {
	Save(ctx context.Context, userID string, responses []models.FormResponse) (*models.FormProgress, error)
	Load(ctx context.Context, userID string) (*models.FormProgress, error)
}

// MongoFormProgressRepository implements FormProgressRepository for MongoDB
type MongoFormProgressRepository struct {
	collection *mongo.Collection
}

// NewMongoFormProgressRepository creates a new MongoFormProgressRepository
func NewMongoFormProgressRepository(db *mongo.Database) *MongoFormProgressRepository {
	return &MongoFormProgressRepository{collection: db.Collection("form_progress")}
}

// Save replaces the user's responses wholesale
func (r *MongoFormProgressRepository) Save(ctx context.Context, userID string, responses []models.FormResponse) (*models.FormProgress, error) {
	if responses == nil {
		responses = []models.FormResponse{}
	}
	update := bson.M{"$set": bson.M{"responses": responses, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var progress models.FormProgress
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&progress); err != nil {
		return nil, mongoErr(err)
	}
	return &progress, nil
}

// Load returns the stored progress or ErrNotFound
func (r *MongoFormProgressRepository) Load(ctx context.Context, userID string) (*models.FormProgress, error) {
	var progress models.FormProgress
	if err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&progress); err != nil {
		return nil, mongoErr(err)
	}
	return &progress, nil
}
