//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"choice-app/config"
	"choice-app/lookups"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func startMongo(t *testing.T) (*Connections, *config.Config) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "mongodb")
	require.NoError(t, err)

	cfg := &config.Config{
		MongoURI:      endpoint,
		DBChoiceApp:   "choice_app",
		DBLeisure:     "Loisir&Culture",
		DBRestaurants: "Restauration_Officielle",
		DBWellness:    "Beauty_Wellness",
		DBTimeout:     30 * time.Second,
	}

	conns, err := OpenConnection(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close(ctx) })

	return conns, cfg
}

func TestStore_FindAndUpdate(t *testing.T) {
	conns, cfg := startMongo(t)
	ctx := context.Background()
	store := NewStore(conns)
	legacy := NewCatalog(cfg)[lookups.KindProducer][2]

	_, err := conns.Client.Database(legacy.Database).Collection(legacy.Collection).
		InsertOne(ctx, bson.M{"_id": "abc123", "lieu": "Le Louvre"})
	require.NoError(t, err)

	doc, err := store.FindOne(ctx, legacy, bson.D{{Key: "_id", Value: "abc123"}})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Le Louvre", doc["lieu"])

	missing, err := store.FindOne(ctx, legacy, bson.D{{Key: "_id", Value: primitive.NewObjectID()}})
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.UpdateByID(ctx, legacy, "abc123", bson.M{"ratingsCount": int64(1)}))

	doc, err = store.FindOne(ctx, legacy, bson.D{{Key: "_id", Value: "abc123"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc["ratingsCount"])

	err = store.UpdateByID(ctx, legacy, "nope", bson.M{"ratingsCount": int64(1)})
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestEnsureIndexes(t *testing.T) {
	conns, _ := startMongo(t)
	ctx := context.Background()

	require.NoError(t, EnsureIndexes(ctx, conns.ChoiceApp))
	// a second run must not fail
	require.NoError(t, EnsureIndexes(ctx, conns.ChoiceApp))

	cursor, err := conns.ChoiceApp.Collection(CollChoices).Indexes().List(ctx)
	require.NoError(t, err)

	var indexes []bson.M
	require.NoError(t, cursor.All(ctx, &indexes))

	names := []string{}
	for _, idx := range indexes {
		names = append(names, idx["name"].(string))
	}
	assert.ElementsMatch(t, []string{"_id_", "user_created", "location"}, names)
}
