package repository

import (
	"context"

	"github.com/playground/course-service/internal/course"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is the persistence contract shared by the Mongo and in-memory
// implementations. Lookups of an absent id return course.ErrNotFound, except
// Delete which reports zero removed records.
type Repository interface {
	Create(ctx context.Context, c *course.Course) (*course.Course, error)
	List(ctx context.Context, q course.Query) ([]*course.Course, error)
	Get(ctx context.Context, id primitive.ObjectID) (*course.Course, error)
	Save(ctx context.Context, c *course.Course) (*course.Course, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}
