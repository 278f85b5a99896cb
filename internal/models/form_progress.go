package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormResponse is one answered onboarding question
type FormResponse struct {
	QuestionID string      `json:"questionId" bson:"questionId" validate:"required"`
	Answer     interface{} `json:"answer" bson:"answer"`
}

// FormProgress is a user's onboarding questionnaire state stored in MongoDB
type FormProgress struct {
	ID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Responses []FormResponse     `json:"responses" bson:"responses"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// SaveFormProgressRequest replaces the stored responses
type SaveFormProgressRequest struct {
	Responses []FormResponse `json:"responses" validate:"dive"`
}
