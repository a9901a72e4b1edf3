package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playground/course-service/internal/course"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a single MongoDB collection. Identifiers
// are ObjectIDs generated by the driver on insert.
type MongoRepo struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col, now: time.Now}
}

func (m *MongoRepo) Create(ctx context.Context, c *course.Course) (*course.Course, error) {
	rec := c.Clone()
	// BSON dates carry millisecond precision.
	if rec.Date == nil {
		rec.Date = course.StoredDate(m.now())
	} else {
		rec.Date = course.StoredDate(*rec.Date)
	}
	res, err := m.col.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, course.ErrDuplicateID
		}
		return nil, fmt.Errorf("insert course: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert course: unexpected id type %T", res.InsertedID)
	}
	rec.ID = id
	return rec, nil
}

func (m *MongoRepo) List(ctx context.Context, q course.Query) ([]*course.Course, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	opts := options.Find()
	if s := q.SortBSON(); s != nil {
		opts.SetSort(s)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if p := q.ProjectionBSON(); p != nil {
		opts.SetProjection(p)
	}
	cur, err := m.col.Find(ctx, q.FilterBSON(), opts)
	if err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	defer cur.Close(ctx)
	out := []*course.Course{}
	for cur.Next(ctx) {
		var c course.Course
		if err := cur.Decode(&c); err != nil {
			return nil, fmt.Errorf("decode course: %w", err)
		}
		out = append(out, &c)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) Get(ctx context.Context, id primitive.ObjectID) (*course.Course, error) {
	var c course.Course
	err := m.col.FindOne(ctx, bson.D{{Key: course.FieldID, Value: id}}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, course.ErrNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &c, nil
}

// Save replaces the whole stored record, so fields cleared by a mutator are
// removed from the document.
func (m *MongoRepo) Save(ctx context.Context, c *course.Course) (*course.Course, error) {
	rec := c.Clone()
	if rec.Date != nil {
		rec.Date = course.StoredDate(*rec.Date)
	}
	res, err := m.col.ReplaceOne(ctx, bson.D{{Key: course.FieldID, Value: rec.ID}}, rec)
	if err != nil {
		return nil, fmt.Errorf("replace course: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, course.ErrNotFound
	}
	return rec, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := m.col.DeleteOne(ctx, bson.D{{Key: course.FieldID, Value: id}})
	if err != nil {
		return 0, fmt.Errorf("delete course: %w", err)
	}
	return res.DeletedCount, nil
}
