package repositories

import (
	"context"
	"time"

	"github.com/anonto42/prehome/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFacebookID(ctx context.Context, facebookID string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	ToggleBlocked(ctx context.Context, id string) (bool, error)
	DeleteUser(ctx context.Context, id string) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser inserts a user. A taken email or Facebook id yields ErrDuplicate.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, user)
	return mongoErr(err)
}

// GetUserByID retrieves a user by ID
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

// GetUserByEmail retrieves a user by email
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetUserByFacebookID retrieves a user by Facebook user id
func (r *MongoUserRepository) GetUserByFacebookID(ctx context.Context, facebookID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"facebookId": facebookID})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mongoErr(err)
	}
	return &user, nil
}

// GetUsers retrieves all users, newest first
func (r *MongoUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdatePassword overwrites the password hash of the user with the given email
func (r *MongoUserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"password": passwordHash}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleBlocked flips isBlocked and returns the stored value
func (r *MongoUserRepository) ToggleBlocked(ctx context.Context, id string) (bool, error) {
	objID, err := objectID(id)
	if err != nil {
		return false, err
	}

	// Pipeline update so the flip happens server-side in one write.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"isBlocked": bson.M{"$not": bson.A{bson.M{"$ifNull": bson.A{"$isBlocked", false}}}}}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&user); err != nil {
		return false, mongoErr(err)
	}
	return user.IsBlocked, nil
}

// DeleteUser deletes a user by ID
func (r *MongoUserRepository) DeleteUser(ctx context.Context, id string) error {
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
