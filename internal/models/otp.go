package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Otp is a single-use email verification code stored in MongoDB.
// Documents expire through a TTL index on createdAt.
type Otp struct {
	ID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	Code      string             `json:"-" bson:"otp"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
