package course

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stored field names of a course record.
const (
	FieldID          = "_id"
	FieldName        = "name"
	FieldAuthor      = "author"
	FieldTags        = "tags"
	FieldDate        = "date"
	FieldIsPublished = "isPublished"
)

// Course is a single record of the courses collection. Every field except ID
// is optional; a field left out of a projection decodes as its zero value and
// is omitted from JSON.
type Course struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name,omitempty" bson:"name,omitempty"`
	Author      string             `json:"author,omitempty" bson:"author,omitempty"`
	Tags        []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	Date        *time.Time         `json:"date,omitempty" bson:"date,omitempty"`
	IsPublished *bool              `json:"isPublished,omitempty" bson:"isPublished,omitempty"`
}

// Clone returns a deep copy so callers never share tag slices or pointers
// with stored records.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	out := *c
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if c.Date != nil {
		d := *c.Date
		out.Date = &d
	}
	if c.IsPublished != nil {
		p := *c.IsPublished
		out.IsPublished = &p
	}
	return &out
}

// Published reports the isPublished flag, treating a missing value as false.
func (c *Course) Published() bool {
	return c.IsPublished != nil && *c.IsPublished
}

// ParseID converts the hex form of an identifier.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// Bool and Time return pointers for the optional fields.
func Bool(v bool) *bool { return &v }

func Time(t time.Time) *time.Time { return &t }

// StoredDate is t as a BSON datetime holds it: UTC with millisecond precision.
func StoredDate(t time.Time) *time.Time {
	return Time(t.UTC().Truncate(time.Millisecond))
}

// Mutator changes selected fields of an in-memory course before it is saved.
type Mutator func(c *Course)

func SetName(name string) Mutator { return func(c *Course) { c.Name = name } }

func SetAuthor(author string) Mutator { return func(c *Course) { c.Author = author } }

func SetTags(tags ...string) Mutator {
	return func(c *Course) { c.Tags = append([]string(nil), tags...) }
}

// AddTags appends tags that are not already present.
func AddTags(tags ...string) Mutator {
	return func(c *Course) {
		for _, t := range tags {
			found := false
			for _, have := range c.Tags {
				if have == t {
					found = true
					break
				}
			}
			if !found {
				c.Tags = append(c.Tags, t)
			}
		}
	}
}

func SetPublished(published bool) Mutator {
	return func(c *Course) { c.IsPublished = Bool(published) }
}

func SetDate(t time.Time) Mutator { return func(c *Course) { c.Date = Time(t) } }

// Chain applies mutators in order.
func Chain(ms ...Mutator) Mutator {
	return func(c *Course) {
		for _, m := range ms {
			if m != nil {
				m(c)
			}
		}
	}
}
