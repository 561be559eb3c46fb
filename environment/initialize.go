// Package environment is the dependency registry of the API. main builds it
// once from the open connections and hands it to the controllers.
package environment

import (
	"context"

	"choice-app/analytics"
	"choice-app/authentication"
	"choice-app/background"
	"choice-app/cache"
	"choice-app/client"
	"choice-app/config"
	"choice-app/controllers"
	"choice-app/database"
	"choice-app/finder"
	"choice-app/helpers"
	"choice-app/models"
	"choice-app/ratings"

	"github.com/go-redis/redis/v8"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Environment is used for dependency-injection (package de-coupling)
type Environment struct {
	Config *config.Config
	Conns  *database.Connections

	ChoiceModel models.ChoiceModel
	PostModel   models.PostModel
	UserModel   models.UserModel

	Resolver   *finder.Resolver
	Aggregator *ratings.Aggregator
	Runner     *background.Runner
	Tracker    *analytics.Tracker
	Cache      *cache.Cache
	Requests   *client.Registry
	Sessions   *authentication.Manager

	Log *zap.Logger
}

// New wires the models and services. cacheClient and influxClient may be nil;
// the cache then never hits and analytics are dropped.
func New(cfg *config.Config, conns *database.Connections, cacheClient *redis.Client, jwtClient *redis.Client,
	influxClient influxdb2.Client, log *zap.Logger) (*Environment, error) {

	jar, err := helpers.NewCookieJar(cfg.CookieName, cfg.CookieHashKey, cfg.AppEnv == config.EnvProduction)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		Config:   cfg,
		Conns:    conns,
		Requests: client.NewRegistry(client.DefaultWindow, client.DefaultMaxItems),
		Cache:    cache.New(cacheClient, "choice:"),
		Sessions: authentication.NewManager(authentication.NewRedisRegistry(jwtClient), jar, cfg.AccessSecret, cfg.RefreshSecret),
		Runner:   background.NewRunner(cfg.JobTimeout, log.Named("jobs")),
		Log:      log,
	}

	env.ChoiceModel = models.ChoiceModel{Collection: conns.ChoiceApp.Collection(database.CollChoices), Timeout: cfg.DBTimeout}
	env.PostModel = models.PostModel{Collection: conns.ChoiceApp.Collection(database.CollPosts), Timeout: cfg.DBTimeout}
	env.UserModel = models.UserModel{Collection: conns.ChoiceApp.Collection(database.CollUsers), Timeout: cfg.DBTimeout}

	store := database.NewStore(conns)
	env.Resolver = finder.New(store, database.NewCatalog(cfg), cfg.DBTimeout, log.Named("finder"))
	env.Aggregator = ratings.NewAggregator(env.Resolver, store, cfg.RatingWeight, cfg.RatingsTouchOnEmpty, log.Named("ratings"))

	// always create the tracker so no further checking is needed by its users
	if influxClient != nil {
		env.Tracker = analytics.NewInfluxTracker(influxClient, cfg.AnalyticsOrg, cfg.AnalyticsBucket, env.Requests, log.Named("analytics"))
	} else {
		env.Tracker = analytics.NewTracker(nil, env.Requests, log.Named("analytics"))
	}

	return env, nil
}

// Deps returns the collaborators of the HTTP handlers
func (env *Environment) Deps() controllers.Deps {
	deps := controllers.Deps{
		Choices:    env.ChoiceModel,
		Posts:      env.PostModel,
		Users:      env.UserModel,
		Resolver:   env.Resolver,
		Aggregator: env.Aggregator,
		Runner:     env.Runner,
		Sessions:   env.Sessions,
		CacheTTL:   env.Config.FinderCacheTTL,
		Tracker:    env.Tracker,
		Requests:   env.Requests,
		Ping: func(ctx context.Context) error {
			return env.Conns.Client.Ping(ctx, readpref.Primary())
		},
		Log: env.Log.Named("api"),
	}

	// a nil *cache.Cache must not end up in the interface
	if env.Cache != nil {
		deps.Cache = env.Cache
	}
	return deps
}
