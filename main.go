package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"choice-app/config"
	"choice-app/controllers"
	"choice-app/database"
	"choice-app/environment"
	"choice-app/logger"
	"choice-app/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("choice-app stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// main database (mongoDB)
	conns, err := database.OpenConnection(ctx, cfg)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	defer func() {
		if err := conns.Close(context.Background()); err != nil {
			log.Warn("mongodb disconnect", zap.Error(err))
		}
	}()

	if err = database.EnsureIndexes(ctx, conns.ChoiceApp); err != nil {
		return fmt.Errorf("indexes: %w", err)
	}

	// JWT store (redis)
	jwtClient, err := database.OpenRedis(ctx, cfg.CacheAddr, cfg.CachePass, cfg.JWTDB)
	if err != nil {
		return fmt.Errorf("jwt store: %w", err)
	}
	defer jwtClient.Close()

	// response cache (redis), the API works without it
	var cacheClient *redis.Client
	if c, err := database.OpenRedis(ctx, cfg.CacheAddr, cfg.CachePass, cfg.CacheDB); err != nil {
		log.Warn("cache disabled", zap.Error(err))
	} else {
		cacheClient = c
		defer cacheClient.Close()
	}

	// analytics (influxDB)
	var influxClient influxdb2.Client
	if cfg.UseAnalytics {
		if influxClient, err = database.OpenInflux(ctx, cfg.AnalyticsURL, cfg.AnalyticsToken); err != nil {
			return fmt.Errorf("analytics: %w", err)
		}
		defer influxClient.Close()
	}

	env, err := environment.New(cfg, conns, cacheClient, jwtClient, influxClient, log)
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, time.Minute)
	go env.Requests.Run(ctx, time.Minute)

	srv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           newRouter(cfg, env, limiter, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("choice-app running", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if cfg.AppEnv == config.EnvProduction {
			serveErr <- srv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			serveErr <- srv.ListenAndServe()
		}
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := env.Runner.Shutdown(shutdownCtx); err != nil {
		log.Warn("background jobs cancelled", zap.Error(err))
	}

	return runErr
}

func newRouter(cfg *config.Config, env *environment.Environment, limiter *middleware.RateLimiter, log *zap.Logger) *gin.Engine {
	if cfg.AppEnv == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(log), middleware.RequestLogger(log), middleware.CORSMiddleware(cfg.CORSOrigin))

	ctrl := controllers.New(env.Deps())
	handleRequests(router, ctrl, env.Sessions.TokenAuthMiddleware(), limiter.Middleware())

	return router
}
