package database

import (
	"context"

	"choice-app/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the secondary indexes of the application database.
// CreateMany is idempotent for identical definitions.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	choices := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_created"),
		},
		{
			Keys:    bson.D{{Key: "locationId", Value: 1}, {Key: "locationType", Value: 1}},
			Options: options.Index().SetName("location"),
		},
	}
	if _, err := db.Collection(CollChoices).Indexes().CreateMany(ctx, choices); err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	posts := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "choiceRef", Value: 1}},
			Options: options.Index().SetName("choice_ref"),
		},
	}
	if _, err := db.Collection(CollPosts).Indexes().CreateMany(ctx, posts); err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	return nil
}
