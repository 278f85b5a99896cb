package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSearchRadius is the nearby-places radius in meters used when a property has none.
const DefaultSearchRadius = 1000

// Basement finishes accepted on Features.Basement.
const (
	BasementFinished   = "Finished"
	BasementUnfinished = "Unfinished"
)

// Property represents a listed property stored in MongoDB
type Property struct {
	ID          primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Tags        []string           `json:"tags" bson:"tags"`
	Images      []PropertyImage    `json:"images" bson:"images"`
	Features    PropertyFeatures   `json:"features" bson:"features"`
	GeneralInfo GeneralInfo        `json:"generalInfo" bson:"generalInfo"`
	Location    string             `json:"location" bson:"location"` // free-text address used for geocoding
	Radius      int                `json:"radius" bson:"radius"`     // meters
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// PropertyImage is one entry of the ordered image gallery
type PropertyImage struct {
	URL      string `json:"url" bson:"url" validate:"required"`
	Label    string `json:"label" bson:"label"`
	Filename string `json:"filename" bson:"filename"`
}

// PropertyFeatures groups interior/exterior feature lists and the basement finish
type PropertyFeatures struct {
	Interior []string `json:"interior" bson:"interior"`
	Exterior []string `json:"exterior" bson:"exterior"`
	Basement string   `json:"basement,omitempty" bson:"basement,omitempty" validate:"omitempty,oneof=Finished Unfinished"`
}

// GeneralInfo holds the factual attributes of a property
type GeneralInfo struct {
	PropertyAddress   string   `json:"propertyAddress" bson:"propertyAddress"`
	PropertyType      []string `json:"propertyType" bson:"propertyType" validate:"omitempty,dive,propertycategory"`
	YearBuilt         int      `json:"yearBuilt,omitempty" bson:"yearBuilt,omitempty" validate:"omitempty,min=0"`
	SquareFootage     string   `json:"squareFootage,omitempty" bson:"squareFootage,omitempty"`
	NumberOfBedrooms  int      `json:"numberOfBedrooms,omitempty" bson:"numberOfBedrooms,omitempty" validate:"min=0"`
	NumberOfBathrooms int      `json:"numberOfBathrooms,omitempty" bson:"numberOfBathrooms,omitempty" validate:"min=0"`
	NumberOfFloors    int      `json:"numberOfFloors,omitempty" bson:"numberOfFloors,omitempty" validate:"min=0"`
}

// SearchRadius returns the radius to use for nearby lookups.
func (p *Property) SearchRadius() int {
	if p.Radius <= 0 {
		return DefaultSearchRadius
	}
	return p.Radius
}

// PropertyRequest defines the request body for creating or replacing a property.
// The admin form always posts the complete nested document.
type PropertyRequest struct {
	Title       string           `json:"title" validate:"max=200"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	Images      []PropertyImage  `json:"images" validate:"omitempty,dive"`
	Features    PropertyFeatures `json:"features"`
	GeneralInfo GeneralInfo      `json:"generalInfo"`
	Location    string           `json:"location"`
	Radius      int              `json:"radius" validate:"min=0"`
}

// ErrInvalidRadius is returned when a stored radius would not be positive.
var ErrInvalidRadius = errors.New("radius must be greater than zero")

// ToProperty converts the request into a Property, applying the default radius.
func (r *PropertyRequest) ToProperty() (*Property, error) {
	radius := r.Radius
	if radius == 0 {
		radius = DefaultSearchRadius
	}
	if radius < 0 {
		return nil, ErrInvalidRadius
	}
	return &Property{
		Title:       r.Title,
		Description: r.Description,
		Tags:        nonNil(r.Tags),
		Images:      r.Images,
		Features: PropertyFeatures{
			Interior: nonNil(r.Features.Interior),
			Exterior: nonNil(r.Features.Exterior),
			Basement: r.Features.Basement,
		},
		GeneralInfo: GeneralInfo{
			PropertyAddress:   r.GeneralInfo.PropertyAddress,
			PropertyType:      nonNil(r.GeneralInfo.PropertyType),
			YearBuilt:         r.GeneralInfo.YearBuilt,
			SquareFootage:     r.GeneralInfo.SquareFootage,
			NumberOfBedrooms:  r.GeneralInfo.NumberOfBedrooms,
			NumberOfBathrooms: r.GeneralInfo.NumberOfBathrooms,
			NumberOfFloors:    r.GeneralInfo.NumberOfFloors,
		},
		Location: r.Location,
		Radius:   radius,
	}, nil
}

// PropertyFilter narrows ListProperties. Empty fields are ignored.
type PropertyFilter struct {
	Title string
	Tag   string
	Type  string
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
