package repositories

import (
	"context"
	"regexp"
	"time"

	"github.com/anonto42/prehome/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PropertyRepository defines the interface for property data operations
type PropertyRepository interface {
	CreateProperty(ctx context.Context, property *models.Property) error
	GetPropertyByID(ctx context.Context, id string) (*models.Property, error)
	ListProperties(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error)
	UpdateProperty(ctx context.Context, id string, property *models.Property) error
	DeleteProperty(ctx context.Context, id string) error
}

// MongoPropertyRepository implements PropertyRepository for MongoDB
type MongoPropertyRepository struct {
	collection *mongo.Collection
}

// NewMongoPropertyRepository creates a new MongoPropertyRepository
func NewMongoPropertyRepository(db *mongo.Database) *MongoPropertyRepository {
	return &MongoPropertyRepository{collection: db.Collection("properties")}
}

// CreateProperty inserts a property, assigning its id and the default radius
func (r *MongoPropertyRepository) CreateProperty(ctx context.Context, property *models.Property) error {
	property.ID = primitive.NewObjectID()
	if property.Radius <= 0 {
		property.Radius = models.DefaultSearchRadius
	}
	property.CreatedAt = time.Now()
	property.UpdatedAt = property.CreatedAt
	_, err := r.collection.InsertOne(ctx, property)
	return mongoErr(err)
}

// GetPropertyByID retrieves a property by ID
func (r *MongoPropertyRepository) GetPropertyByID(ctx context.Context, id string) (*models.Property, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var property models.Property
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&property); err != nil {
		return nil, mongoErr(err)
	}
	return &property, nil
}

// ListProperties returns properties matching filter, newest first
func (r *MongoPropertyRepository) ListProperties(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	query := bson.M{}
	if filter.Title != "" {
		query["title"] = bson.M{"$regex": regexp.QuoteMeta(filter.Title), "$options": "i"}
	}
	if filter.Tag != "" {
		query["tags"] = filter.Tag
	}
	if filter.Type != "" {
		query["generalInfo.propertyType"] = filter.Type
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err = cursor.All(ctx, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

// UpdateProperty replaces the editable fields of a property
func (r *MongoPropertyRepository) UpdateProperty(ctx context.Context, id string, property *models.Property) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	if property.Radius <= 0 {
		property.Radius = models.DefaultSearchRadius
	}
	property.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"title":       property.Title,
			"description": property.Description,
			"tags":        property.Tags,
			"images":      property.Images,
			"features":    property.Features,
			"generalInfo": property.GeneralInfo,
			"location":    property.Location,
			"radius":      property.Radius,
			"updatedAt":   property.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	property.ID = objID
	return nil
}

// DeleteProperty deletes a property by ID
func (r *MongoPropertyRepository) DeleteProperty(ctx context.Context, id string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
