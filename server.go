package main

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playground/course-service/handlers"
	"github.com/playground/course-service/internal/config"
	"github.com/playground/course-service/internal/course/handler"
	"github.com/playground/course-service/internal/course/service"
	"github.com/playground/course-service/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type serverDeps struct {
	svc      *service.Service
	redis    *redis.Client
	verifier middleware.Verifier
	exporter handler.Exporter
	checks   map[string]handlers.Check
}

// useMemoryStore serves courses from process memory after MongoDB stayed
// unreachable. The mongo readiness check keeps failing with cause.
func (d *serverDeps) useMemoryStore(cause error) {
	d.svc = service.NewMemoryService()
	if d.checks == nil {
		d.checks = map[string]handlers.Check{}
	}
	d.checks["mongo"] = func(context.Context) error { return cause }
}

// rejectAll stands in when an identity provider was configured but could not be reached.
type rejectAll struct{}

func (rejectAll) Verify(context.Context, string) (middleware.Token, error) {
	return nil, errors.New("token verification unavailable")
}

func newRouter(cfg *config.Config, deps serverDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS for browser clients of the playground.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	handlers.RegisterHealth(r, startTime, deps.checks)
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	opts := handler.Options{}
	// The limiter is attached per route so it runs after authentication.
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && deps.redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			opts.RateLimit = middleware.RedisRateLimitMiddleware(deps.redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			opts.RateLimit = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}
	if deps.verifier != nil {
		opts.WriteMiddleware = append(opts.WriteMiddleware, middleware.AuthMiddleware(deps.verifier))
	}
	if deps.exporter != nil {
		opts.Exporter = deps.exporter
	}
	handler.RegisterCourseRoutes(r, deps.svc, opts)
	return r
}
