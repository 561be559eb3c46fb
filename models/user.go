package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"choice-app/apperror"
	"choice-app/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// User is the "interface" used for client communication
type User struct {
	ID       primitive.ObjectID   `json:"id" bson:"_id"`
	Name     string               `json:"name" bson:"name"`
	EMail    string               `json:"email" bson:"email"`
	Password string               `json:"-" bson:"password"` // hash value
	PhotoURL string               `json:"photoUrl,omitempty" bson:"photo_url,omitempty"`
	Choices  []primitive.ObjectID `json:"choices,omitempty" bson:"choices,omitempty"`
}

// UserModel provides the logic to the interface and access to the database
type UserModel struct {
	Collection *mongo.Collection
	Timeout    time.Duration
}

// GetByEmail reads a user's login account data
func (m UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := withTimeout(ctx, m.Timeout)
	defer cancel()

	var user User
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	if err := m.Collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.ErrNoData
		}
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	return &user, nil
}

// GetUser reads a user's profile (without password)
func (m UserModel) GetUser(ctx context.Context, userID string) (*User, error) {
	if !helpers.IsObjectID(userID) {
		return nil, apperror.ErrInvalidID
	}

	ctx, cancel := withTimeout(ctx, m.Timeout)
	defer cancel()

	var user User
	opts := options.FindOne().SetProjection(bson.M{"password": 0})
	if err := m.Collection.FindOne(ctx, bson.M{"_id": helpers.ObjectID(userID)}, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.ErrNoData
		}
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	return &user, nil
}

// Exists checks whether a user id is known
func (m UserModel) Exists(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := withTimeout(ctx, m.Timeout)
	defer cancel()

	n, err := m.Collection.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, helpers.WrapError(err, helpers.FuncName())
	}
	return n > 0, nil
}

// CheckCredentials returns the user if the password matches the stored hash
func (m UserModel) CheckCredentials(ctx context.Context, email string, password string) (*User, error) {
	user, err := m.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNoData) {
			return nil, apperror.ErrInvalidLogin
		}
		return nil, err
	}

	if !helpers.CompareHash(user.Password, password) {
		return nil, apperror.ErrInvalidLogin
	}

	return user, nil
}

// LinkChoice appends a choice id to the user's choices
func (m UserModel) LinkChoice(ctx context.Context, userID primitive.ObjectID, choiceID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx, m.Timeout)
	defer cancel()

	res, err := m.Collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"choices": choiceID}})
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}
	if res.MatchedCount == 0 {
		return apperror.ErrNoData
	}

	return nil
}
