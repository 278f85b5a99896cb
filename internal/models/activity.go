package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status values written by the client and the admin dashboard. Status is free text;
// these are the ones the application itself produces or reacts to.
const (
	StatusInterested     = "Interested"
	StatusVisitScheduled = "Visit Scheduled"
	StatusVisited        = "Visited"
)

// Stages of a user's relationship to a property, derived from an Activity.
const (
	StageNone           = "none"
	StageShortlisted    = "shortlisted"
	StageVisitScheduled = "visit-scheduled"
	StageVisited        = "visited"
)

// Activity is the per (user, property) record. The pair is unique.
type Activity struct {
	ID          primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID      string             `json:"userId" bson:"userId"`
	PropertyID  string             `json:"propertyId" bson:"propertyId"`
	Shortlisted bool               `json:"shortlisted" bson:"shortlisted"`
	VisitDate   *time.Time         `json:"visitDate,omitempty" bson:"visitDate,omitempty"`
	Status      string             `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Stage reports where the record sits in none → shortlisted → visit-scheduled → visited.
// An admin-set "Visited" status wins over everything else.
func (a *Activity) Stage() string {
	switch {
	case a == nil:
		return StageNone
	case a.Status == StatusVisited:
		return StageVisited
	case a.VisitDate != nil:
		return StageVisitScheduled
	case a.Shortlisted:
		return StageShortlisted
	default:
		return StageNone
	}
}

// ActivityPatch is a merge patch over an Activity.
//
// Each field is applied only when present: a nil pointer keeps the stored value, a non-nil
// pointer overwrites it. Shortlisted=false clears the shortlist and an empty Status clears
// the status; there is no way to unset a visit date other than deleting the record.
type ActivityPatch struct {
	Shortlisted *bool      `json:"shortlisted,omitempty"`
	VisitDate   *time.Time `json:"visitDate,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

// IsEmpty reports whether the patch carries no field.
func (p ActivityPatch) IsEmpty() bool {
	return p.Shortlisted == nil && p.VisitDate == nil && p.Status == nil
}

// Apply merges the patch into a.
func (p ActivityPatch) Apply(a *Activity) {
	if p.Shortlisted != nil {
		a.Shortlisted = *p.Shortlisted
	}
	if p.VisitDate != nil {
		d := *p.VisitDate
		a.VisitDate = &d
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
}

// SaveActivityRequest is the body of POST /activity/save. The caller is taken from the token.
type SaveActivityRequest struct {
	PropertyID string `json:"propertyId" validate:"required"`
	ActivityPatch
}

// UpdateActivityStatusRequest is the admin body of PATCH /admin/activity/status
type UpdateActivityStatusRequest struct {
	UserID     string `json:"userId" validate:"required"`
	PropertyID string `json:"propertyId" validate:"required"`
	Status     string `json:"status" validate:"max=100"`
}
