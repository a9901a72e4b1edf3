package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/playground/course-service/internal/course"
)

// ObjectStore is the part of MinIOStorage the exporter needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Snapshot is the JSON document written by an export.
type Snapshot struct {
	ExportedAt time.Time        `json:"exportedAt"`
	Count      int              `json:"count"`
	Courses    []*course.Course `json:"courses"`
}

// Exporter writes course listings as JSON snapshots to object storage.
type Exporter struct {
	store  ObjectStore
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewExporter(store ObjectStore, prefix string, linkTTL time.Duration) *Exporter {
	if linkTTL <= 0 {
		linkTTL = 15 * time.Minute
	}
	return &Exporter{store: store, prefix: prefix, ttl: linkTTL, now: time.Now}
}

// Export uploads courses under a timestamped key and returns the key and a
// presigned download link.
func (e *Exporter) Export(ctx context.Context, courses []*course.Course) (string, string, error) {
	at := e.now().UTC()
	snap := Snapshot{ExportedAt: at, Count: len(courses), Courses: courses}
	if snap.Courses == nil {
		snap.Courses = []*course.Course{}
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return "", "", fmt.Errorf("encode snapshot: %w", err)
	}
	key := fmt.Sprintf("%scourses-%s.json", e.prefix, at.Format("20060102T150405.000000000"))
	if err := e.store.Upload(ctx, key, bytes.NewReader(b), int64(len(b)), "application/json"); err != nil {
		return "", "", fmt.Errorf("upload snapshot: %w", err)
	}
	link, err := e.store.PresignedURL(ctx, key, e.ttl)
	if err != nil {
		return key, "", fmt.Errorf("presign snapshot: %w", err)
	}
	return key, link, nil
}
