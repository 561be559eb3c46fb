package controllers

import (
	"context"
	"time"

	"choice-app/analytics"
	"choice-app/authentication"
	"choice-app/background"
	"choice-app/client"
	"choice-app/finder"
	"choice-app/lookups"
	"choice-app/models"
	"choice-app/ratings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ChoiceStore persists choices
type ChoiceStore interface {
	Create(ctx context.Context, choice *models.Choice) error
	ListByUser(ctx context.Context, userID string) ([]models.Choice, error)
}

// PostStore creates derived posts
type PostStore interface {
	CreateFromChoice(ctx context.Context, choice *models.Choice) (string, error)
}

// UserStore reads accounts and links choices to them
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	Exists(ctx context.Context, userID primitive.ObjectID) (bool, error)
	CheckCredentials(ctx context.Context, email string, password string) (*models.User, error)
	LinkChoice(ctx context.Context, userID primitive.ObjectID, choiceID primitive.ObjectID) error
}

// Resolver finds entities across their storage locations
type Resolver interface {
	Resolve(ctx context.Context, id string, hint lookups.Kind) (*finder.Match, error)
	Locate(ctx context.Context, kind lookups.Kind, id string) (*finder.Match, error)
}

// Aggregator folds a choice into the producer's ratings
type Aggregator interface {
	Apply(ctx context.Context, lt lookups.LocationType, producerID string, submitted map[string]interface{}) (*ratings.Result, error)
}

// JobRunner runs fire-and-forget jobs
type JobRunner interface {
	Submit(name string, job background.Job) error
}

// ResponseCache keeps serialized responses
type ResponseCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Sessions issues and revokes login sessions
type Sessions interface {
	CreateTokens(c *gin.Context, userID string) (*authentication.TokenDetails, error)
	Refresh(c *gin.Context) (string, error)
	Logout(c *gin.Context)
}

// Deps are the collaborators of the handlers
type Deps struct {
	Choices    ChoiceStore
	Posts      PostStore
	Users      UserStore
	Resolver   Resolver
	Aggregator Aggregator
	Runner     JobRunner
	Sessions   Sessions
	Cache      ResponseCache // optional
	CacheTTL   time.Duration
	Tracker    *analytics.Tracker
	Requests   *client.Registry
	Ping       func(ctx context.Context) error
	Log        *zap.Logger
}

// Controller holds the handlers of the API
type Controller struct {
	Deps
}

// New creates the controller
func New(deps Deps) *Controller {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Controller{Deps: deps}
}
