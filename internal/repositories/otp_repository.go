package repositories

import (
	"context"
	"time"

	"github.com/anonto42/prehome/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// OtpRepository defines the interface for one-time code storage
type OtpRepository interface {
	Replace(ctx context.Context, otp *models.Otp) error
	FindValid(ctx context.Context, email, code string, notBefore time.Time) (*models.Otp, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// MongoOtpRepository implements OtpRepository for MongoDB
type MongoOtpRepository struct {
	collection *mongo.Collection
}

// NewMongoOtpRepository creates a new MongoOtpRepository
func NewMongoOtpRepository(db *mongo.Database) *MongoOtpRepository {
	return &MongoOtpRepository{collection: db.Collection("otps")}
}

// Replace invalidates every outstanding code for the email and stores otp,
// so that only the most recently issued code can be verified.
func (r *MongoOtpRepository) Replace(ctx context.Context, otp *models.Otp) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"email": otp.Email}); err != nil {
		return err
	}
	otp.ID = primitive.NewObjectID()
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, otp)
	return err
}

// FindValid returns the (email, code) record if it was issued at or after notBefore.
// The TTL monitor only runs periodically, so the age check is repeated here.
func (r *MongoOtpRepository) FindValid(ctx context.Context, email, code string, notBefore time.Time) (*models.Otp, error) {
	filter := bson.M{
		"email":     email,
		"otp":       code,
		"createdAt": bson.M{"$gte": notBefore},
	}
	var otp models.Otp
	if err := r.collection.FindOne(ctx, filter).Decode(&otp); err != nil {
		return nil, mongoErr(err)
	}
	return &otp, nil
}

// DeleteByEmail consumes every code issued for the email
func (r *MongoOtpRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"email": email})
	return err
}
