package service

import (
	"context"
	"errors"
	"time"

	"github.com/playground/course-service/internal/course"
	"github.com/playground/course-service/internal/course/repository"
	"github.com/playground/course-service/pkg/logger"
	"github.com/playground/course-service/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

// Service is the course record client: it owns a repository and exposes the
// create, list, get, update and delete operations. Every failure comes back
// as a *course.OperationError so callers can match the cause with errors.Is.
type Service struct {
	repo repository.Repository
}

func NewService(r repository.Repository) *Service {
	return &Service{repo: r}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() *Service {
	return NewService(repository.NewMemoryRepo())
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller owns the client the collection came from.
func NewMongoService(col *mongo.Collection) *Service {
	return NewService(repository.NewMongoRepo(col))
}

// Create inserts a new course. The store assigns the identifier and, when
// Date is nil, the creation time.
func (s *Service) Create(ctx context.Context, c *course.Course) (*course.Course, error) {
	if c == nil {
		return nil, s.fail("create", "", time.Now(), errors.New("nil course"))
	}
	start := time.Now()
	out, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, s.fail("create", "", start, err)
	}
	s.ok("create", start)
	logger.Debugf("course created: id=%s name=%q", out.ID.Hex(), out.Name)
	return out, nil
}

// List returns the records matching q. No match yields an empty slice.
func (s *Service) List(ctx context.Context, q course.Query) ([]*course.Course, error) {
	start := time.Now()
	if err := q.Validate(); err != nil {
		return nil, s.fail("list", "", start, err)
	}
	out, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, s.fail("list", "", start, err)
	}
	if out == nil {
		out = []*course.Course{}
	}
	s.ok("list", start)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*course.Course, error) {
	start := time.Now()
	oid, err := course.ParseID(id)
	if err != nil {
		return nil, s.fail("get", id, start, err)
	}
	c, err := s.repo.Get(ctx, oid)
	if err != nil {
		return nil, s.fail("get", id, start, err)
	}
	s.ok("get", start)
	return c, nil
}

// UpdateByID fetches the record, applies mutate to the in-memory copy and
// saves it. An absent id is a no-op reported as course.ErrNotFound. The
// identifier survives whatever the mutator does.
func (s *Service) UpdateByID(ctx context.Context, id string, mutate course.Mutator) (*course.Course, error) {
	start := time.Now()
	oid, err := course.ParseID(id)
	if err != nil {
		return nil, s.fail("update", id, start, err)
	}
	c, err := s.repo.Get(ctx, oid)
	if err != nil {
		return nil, s.fail("update", id, start, err)
	}
	if mutate != nil {
		mutate(c)
	}
	c.ID = oid
	saved, err := s.repo.Save(ctx, c)
	if err != nil {
		return nil, s.fail("update", id, start, err)
	}
	s.ok("update", start)
	logger.Debugf("course updated: id=%s", id)
	return saved, nil
}

// DeleteByID removes the record and reports how many were removed (0 or 1).
// Deleting an absent id is not an error.
func (s *Service) DeleteByID(ctx context.Context, id string) (int64, error) {
	start := time.Now()
	oid, err := course.ParseID(id)
	if err != nil {
		return 0, s.fail("delete", id, start, err)
	}
	n, err := s.repo.Delete(ctx, oid)
	if err != nil {
		return 0, s.fail("delete", id, start, err)
	}
	s.ok("delete", start)
	logger.Debugf("course delete: id=%s removed=%d", id, n)
	return n, nil
}

func (s *Service) ok(op string, start time.Time) {
	metrics.CourseOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.CourseOperations.WithLabelValues(op, metrics.ResultOK).Inc()
}

func (s *Service) fail(op, id string, start time.Time, err error) error {
	metrics.CourseOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	result := metrics.ResultError
	switch {
	case errors.Is(err, course.ErrNotFound):
		result = metrics.ResultNotFound
	case course.IsClientError(err):
		result = metrics.ResultInvalid
	default:
		logger.Errorf("course %s failed: id=%q err=%v", op, id, err)
	}
	metrics.CourseOperations.WithLabelValues(op, result).Inc()
	return &course.OperationError{Op: op, ID: id, Err: err}
}
