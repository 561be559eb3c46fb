package models

import (
	"context"
	"strings"
	"time"

	"choice-app/apperror"
	"choice-app/helpers"
	"choice-app/lookups"
	"choice-app/ratings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Choice is a user's feedback on one location. It is never changed after it was stored.
type Choice struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id"`
	UserID       primitive.ObjectID   `json:"userId" bson:"userId"`
	LocationID   primitive.ObjectID   `json:"locationId" bson:"locationId"`
	LocationType lookups.LocationType `json:"locationType" bson:"locationType"`
	Ratings      map[string]float64   `json:"ratings" bson:"ratings"`
	Comment      string               `json:"comment,omitempty" bson:"comment,omitempty"`
	MenuItems    []string             `json:"menuItems,omitempty" bson:"menuItems,omitempty"` // restaurants
	Emotions     []string             `json:"emotions,omitempty" bson:"emotions,omitempty"`   // wellness, events
	CreatedAt    time.Time            `json:"createdAt" bson:"createdAt"`
}

// ChoiceListItem is a choice together with a short description of its location
type ChoiceListItem struct {
	Choice
	Location *ProducerSummary `json:"location"`
}

// ChoiceModel provides the logic to the interface and access to the database
type ChoiceModel struct {
	Collection *mongo.Collection
	Timeout    time.Duration
}

// HasComment reports whether the choice carries a non-blank comment
func (c *Choice) HasComment() bool {
	return strings.TrimSpace(c.Comment) != ""
}

// RatingsMap returns the ratings in the shape the aggregator reads
func (c *Choice) RatingsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(c.Ratings))
	for k, v := range c.Ratings {
		out[k] = v
	}
	return out
}

// Validate checks a choice before it is stored
func (c *Choice) Validate() error {
	if c.UserID.IsZero() {
		return ErrUserIDMissing
	}
	if c.LocationID.IsZero() {
		return ErrLocationIDMissing
	}
	if _, err := lookups.ParseLocationType(string(c.LocationType)); err != nil {
		return err
	}

	for aspect, v := range c.Ratings {
		if strings.TrimSpace(aspect) == "" || v < ratings.MinRating || v > ratings.MaxRating {
			return ErrInvalidRating
		}
	}

	return nil
}

// Create validates and stores a new choice; ID and CreatedAt are set by the server
func (m ChoiceModel) Create(ctx context.Context, choice *Choice) error {
	choice.Comment = strings.TrimSpace(choice.Comment)
	if err := choice.Validate(); err != nil {
		return err
	}

	choice.ID = primitive.NewObjectID()
	choice.CreatedAt = time.Now().UTC()
	if choice.Ratings == nil {
		choice.Ratings = map[string]float64{}
	}

	ctx, cancel := withTimeout(ctx, m.Timeout)
	defer cancel()

	if _, err := m.Collection.InsertOne(ctx, choice); err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	return nil
}

// ListByUser returns a user's choices, newest first
func (m ChoiceModel) ListByUser(ctx context.Context, userID string) ([]Choice, error) {
	if !helpers.IsObjectID(userID) {
		return nil, apperror.ErrInvalidID
	}

	ctx, cancel := withTimeout(ctx, m.Timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Collection.Find(ctx, bson.M{"userId": helpers.ObjectID(userID)}, opts)
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	choices := []Choice{}
	if err = cursor.All(ctx, &choices); err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	return choices, nil
}
