package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the MongoDB indexes the repositories rely on.
// Creating an index that already exists with the same options is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database, otpTTL time.Duration) error {
	specs := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "facebookId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		"activities": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "propertyId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"otps": {
			{Keys: bson.D{{Key: "email", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32(otpTTL.Seconds()))},
		},
		"form_progress": {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
