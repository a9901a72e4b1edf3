package repository

import (
	"context"
	"sync"
	"time"

	"github.com/playground/course-service/internal/course"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo keeps courses in process memory. It is used by unit tests and
// when the service runs without a MongoDB URI. Records are cloned on the way
// in and out so callers never alias stored state.
type MemoryRepo struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	store map[primitive.ObjectID]*course.Course
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[primitive.ObjectID]*course.Course), now: time.Now}
}

func (m *MemoryRepo) Create(ctx context.Context, c *course.Course) (*course.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := c.Clone()
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if _, dup := m.store[rec.ID]; dup {
		return nil, course.ErrDuplicateID
	}
	if rec.Date == nil {
		rec.Date = course.StoredDate(m.now())
	} else {
		rec.Date = course.StoredDate(*rec.Date)
	}
	m.store[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	return rec.Clone(), nil
}

// List returns matches in insertion order unless the query sorts them.
func (m *MemoryRepo) List(ctx context.Context, q course.Query) ([]*course.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*course.Course, 0, len(m.order))
	for _, id := range m.order {
		all = append(all, m.store[id])
	}
	return q.Apply(all)
}

func (m *MemoryRepo) Get(ctx context.Context, id primitive.ObjectID) (*course.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.store[id]; ok {
		return c.Clone(), nil
	}
	return nil, course.ErrNotFound
}

func (m *MemoryRepo) Save(ctx context.Context, c *course.Course) (*course.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[c.ID]; !ok {
		return nil, course.ErrNotFound
	}
	rec := c.Clone()
	if rec.Date != nil {
		rec.Date = course.StoredDate(*rec.Date)
	}
	m.store[c.ID] = rec
	return rec.Clone(), nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return 0, nil
	}
	delete(m.store, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return 1, nil
}
