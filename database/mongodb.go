package database

import (
	"context"
	"time"

	"choice-app/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// collections of the application database
const (
	CollChoices = "choices"
	CollPosts   = "posts"
	CollUsers   = "users"
)

// Connections holds one handle per logical database. It is built once in main
// and passed to whoever needs it; there is no package level client.
type Connections struct {
	Client      *mongo.Client
	ChoiceApp   *mongo.Database
	Leisure     *mongo.Database
	Restaurants *mongo.Database
	Wellness    *mongo.Database
}

// OpenConnection connects to MongoDB and makes sure the server answers
func OpenConnection(ctx context.Context, cfg *config.Config) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	// make sure a connection has actually been made
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return NewConnections(client, cfg), nil
}

// NewConnections binds the database handles of an existing client
func NewConnections(client *mongo.Client, cfg *config.Config) *Connections {
	return &Connections{
		Client:      client,
		ChoiceApp:   client.Database(cfg.DBChoiceApp),
		Leisure:     client.Database(cfg.DBLeisure),
		Restaurants: client.Database(cfg.DBRestaurants),
		Wellness:    client.Database(cfg.DBWellness),
	}
}

// Close disconnects the client (when the server is shut down)
func (c *Connections) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.Client.Disconnect(ctx)
}
