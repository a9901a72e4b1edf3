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

	"github.com/gin-gonic/gin"
	"github.com/playground/course-service/handlers"
	"github.com/playground/course-service/internal/auth"
	"github.com/playground/course-service/internal/config"
	"github.com/playground/course-service/internal/course/service"
	"github.com/playground/course-service/internal/database"
	"github.com/playground/course-service/internal/storage"
	"github.com/playground/course-service/pkg/logger"
	"github.com/playground/course-service/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL is read again from config; this covers config errors.
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Sync()
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Infof("config loaded: mongo=%s/%s redis=%v auth=%v minio=%v",
		cfg.MongoDB.Database, cfg.MongoDB.Collection, cfg.Redis.Host != "", cfg.Auth.Enabled(), cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := serverDeps{checks: map[string]handlers.Check{}}

	// Redis is optional; it backs the shared rate limiter.
	if addr := cfg.Redis.Addr(); addr != "" {
		rc := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
		} else {
			logger.Infof("Connected to Redis: %s", addr)
			deps.redis = rc
			defer rc.Close()
			deps.checks["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
		}
	}

	// Retry/backoff when connecting to MongoDB to tolerate startup races
	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second, func(attempt int, err error) {
		logger.Warnf("attempt %d/5: failed to connect to MongoDB: %v", attempt, err)
	})
	var mongoClient *mongo.Client
	if err != nil {
		var connErr *database.ConnectionError
		if !errors.As(err, &connErr) {
			logger.Fatalf("mongo: %v", err)
		}
		logger.Warnf("could not connect to MongoDB, serving from memory: %v", err)
		deps.useMemoryStore(connErr)
	} else {
		mongoClient = client
		defer func() { _ = client.Disconnect(context.Background()) }()
		col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		deps.svc = service.NewMongoService(col)
		deps.checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) }
		logger.Infof("Connected to MongoDB: %s.%s", cfg.MongoDB.Database, cfg.MongoDB.Collection)
	}

	switch {
	case cfg.Auth.JWTSecret != "":
		v, err := auth.NewHMACVerifier(cfg.Auth.JWTSecret)
		if err != nil {
			logger.Fatalf("auth: %v", err)
		}
		deps.verifier = v
	case cfg.Auth.Enabled():
		v, err := auth.NewOIDCVerifier(ctx, cfg.Auth.Issuer(), cfg.Auth.KeycloakClientID)
		if err != nil {
			// write routes stay closed rather than open
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
			deps.verifier = rejectAll{}
		} else {
			deps.verifier = v
		}
	}

	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("course export disabled: %v", err)
		} else {
			deps.exporter = storage.NewExporter(store, "exports/", 15*time.Minute)
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r := newRouter(cfg, deps)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting course service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
