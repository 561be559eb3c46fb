package models

import (
	"context"
	"time"

	"choice-app/helpers"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PostTypeChoiceReview marks posts derived from a choice
const PostTypeChoiceReview = "choice_review"

// Post is a feed entry; posts created here are derived once from a choice and never reconciled
type Post struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	Type        string             `json:"type" bson:"type"`
	Text        string             `json:"text" bson:"text"`
	ChoiceRef   primitive.ObjectID `json:"choiceRef" bson:"choiceRef"`
	LocationRef primitive.ObjectID `json:"locationRef" bson:"locationRef"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// PostModel provides the logic to the interface and access to the database
type PostModel struct {
	Collection *mongo.Collection
	Timeout    time.Duration
}

// NewPostFromChoice builds the review post of a choice (nil without a comment)
func NewPostFromChoice(choice *Choice, now time.Time) *Post {
	if !choice.HasComment() {
		return nil
	}

	return &Post{
		ID:          primitive.NewObjectID(),
		UserID:      choice.UserID,
		Type:        PostTypeChoiceReview,
		Text:        choice.Comment,
		ChoiceRef:   choice.ID,
		LocationRef: choice.LocationID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreateFromChoice stores the review post of a choice. Without a comment nothing
// is written and an empty id is returned.
func (m PostModel) CreateFromChoice(ctx context.Context, choice *Choice) (string, error) {
	post := NewPostFromChoice(choice, time.Now().UTC())
	if post == nil {
		return "", nil
	}

	ctx, cancel := withTimeout(ctx, m.Timeout)
	defer cancel()

	if _, err := m.Collection.InsertOne(ctx, post); err != nil {
		return "", helpers.WrapError(err, helpers.FuncName())
	}

	return post.ID.Hex(), nil
}
