package database

import (
	"context"
	"errors"

	"choice-app/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Source is the document access used by the resolver and the rating aggregator
type Source interface {
	// FindOne returns nil, nil when no document matches
	FindOne(ctx context.Context, t Target, filter bson.D) (bson.M, error)
	// UpdateByID applies set as a single $set to the document with the given _id
	UpdateByID(ctx context.Context, t Target, id interface{}, set bson.M) error
}

// Store implements Source on top of a mongo client
type Store struct {
	client *mongo.Client
}

// NewStore wraps the client of the connections
func NewStore(conn *Connections) *Store {
	return &Store{client: conn.Client}
}

func (s *Store) collection(t Target) *mongo.Collection {
	return s.client.Database(t.Database).Collection(t.Collection)
}

// FindOne reads a single document as a generic map
func (s *Store) FindOne(ctx context.Context, t Target, filter bson.D) (bson.M, error) {
	var doc bson.M

	err := s.collection(t).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	return doc, nil
}

// UpdateByID overwrites the given fields of one document
func (s *Store) UpdateByID(ctx context.Context, t Target, id interface{}, set bson.M) error {
	res, err := s.collection(t).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}
