package main

import (
	"context"
	"errors"
	"os"

	"github.com/playground/course-service/internal/config"
	"github.com/playground/course-service/internal/course/service"
	"github.com/playground/course-service/internal/database"
	"github.com/playground/course-service/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
)

// playground connects to MongoDB, performs one course operation chosen by
// DEMO_OPERATION, prints the result and exits. A failed connection is
// reported once; there is no retry.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	ctx := context.Background()
	err = database.WithMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, func(client *mongo.Client) error {
		logger.Infof("Connected to MongoDB...")
		col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		return run(ctx, service.NewMongoService(col), cfg.Demo, os.Stdout)
	})

	if code := report(cfg.Demo.Operation, err); code != 0 {
		logger.Sync()
		os.Exit(code)
	}
}

// report logs the outcome of a run and returns the exit status. An
// unreachable store is reported but is not a failure of the command.
func report(op string, err error) int {
	var connErr *database.ConnectionError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &connErr):
		logger.Errorf("Could not connect to MongoDB.. %v", connErr)
		return 0
	default:
		logger.Errorf("%s failed: %v", op, err)
		return 1
	}
}
