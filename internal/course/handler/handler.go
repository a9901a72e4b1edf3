package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playground/course-service/internal/course"
	"github.com/playground/course-service/internal/course/service"
	"github.com/playground/course-service/pkg/logger"
)

// Exporter writes a course listing somewhere durable and returns its key and
// a download link.
type Exporter interface {
	Export(ctx context.Context, courses []*course.Course) (key string, url string, err error)
}

// Options tunes route registration. WriteMiddleware guards the routes that
// change data (typically authentication). RateLimit runs on every route,
// after WriteMiddleware on write routes so callers it authenticated are
// limited by subject. A nil Exporter disables the export route.
type Options struct {
	WriteMiddleware []gin.HandlerFunc
	RateLimit       gin.HandlerFunc
	Exporter        Exporter
}

type courseRequest struct {
	Name        string     `json:"name" binding:"max=255"`
	Author      string     `json:"author" binding:"max=255"`
	Tags        []string   `json:"tags" binding:"max=64,dive,max=64"`
	Date        *time.Time `json:"date"`
	IsPublished *bool      `json:"isPublished"`
}

type patchRequest struct {
	Name        *string    `json:"name" binding:"omitempty,max=255"`
	Author      *string    `json:"author" binding:"omitempty,max=255"`
	Tags        *[]string  `json:"tags" binding:"omitempty,max=64,dive,max=64"`
	Date        *time.Time `json:"date"`
	IsPublished *bool      `json:"isPublished"`
}

func (p patchRequest) mutator() course.Mutator {
	var ms []course.Mutator
	if p.Name != nil {
		ms = append(ms, course.SetName(*p.Name))
	}
	if p.Author != nil {
		ms = append(ms, course.SetAuthor(*p.Author))
	}
	if p.Tags != nil {
		ms = append(ms, course.SetTags(*p.Tags...))
	}
	if p.Date != nil {
		ms = append(ms, course.SetDate(*p.Date))
	}
	if p.IsPublished != nil {
		ms = append(ms, course.SetPublished(*p.IsPublished))
	}
	return course.Chain(ms...)
}

// RegisterCourseRoutes mounts the course API under /api/courses.
func RegisterCourseRoutes(r gin.IRouter, svc *service.Service, opts Options) {
	g := r.Group("/api/courses")
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		hs := append([]gin.HandlerFunc{}, opts.WriteMiddleware...)
		if opts.RateLimit != nil {
			hs = append(hs, opts.RateLimit)
		}
		return append(hs, h)
	}
	read := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if opts.RateLimit == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{opts.RateLimit, h}
	}

	g.GET("", read(func(c *gin.Context) {
		q, err := ParseQuery(c)
		if err != nil {
			writeError(c, err)
			return
		}
		list, err := svc.List(c.Request.Context(), q)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})...)

	g.POST("", write(func(c *gin.Context) {
		var req courseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := svc.Create(c.Request.Context(), &course.Course{
			Name:        req.Name,
			Author:      req.Author,
			Tags:        req.Tags,
			Date:        req.Date,
			IsPublished: req.IsPublished,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})...)

	if opts.Exporter != nil {
		g.POST("/export", write(func(c *gin.Context) {
			q, err := ParseQuery(c)
			if err != nil {
				writeError(c, err)
				return
			}
			list, err := svc.List(c.Request.Context(), q)
			if err != nil {
				writeError(c, err)
				return
			}
			key, url, err := opts.Exporter.Export(c.Request.Context(), list)
			if err != nil {
				logger.Errorf("course export failed: %v", err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "export failed"})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"key": key, "url": url, "count": len(list)})
		})...)
	}

	g.GET("/:id", read(func(c *gin.Context) {
		got, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, got)
	})...)

	g.PATCH("/:id", write(func(c *gin.Context) {
		var req patchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		saved, err := svc.UpdateByID(c.Request.Context(), c.Param("id"), req.mutator())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	})...)

	g.DELETE("/:id", write(func(c *gin.Context) {
		n, err := svc.DeleteByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": n})
	})...)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, course.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case course.IsClientError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, course.ErrDuplicateID):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "course store unavailable"})
	}
}

func badParam(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", course.ErrInvalidFilter, name, err)
}

// ParseQuery builds a list query from URL parameters:
// name, author, tag (repeatable), isPublished, nameRegex, after, before
// (RFC 3339 dates), sort ("name,-date"), limit, skip and fields ("name,tags").
func ParseQuery(c *gin.Context) (course.Query, error) {
	var q course.Query
	var fs []course.Filter

	if v := c.Query("name"); v != "" {
		fs = append(fs, course.Eq(course.FieldName, v))
	}
	if v := c.Query("author"); v != "" {
		fs = append(fs, course.Eq(course.FieldAuthor, v))
	}
	if tags := c.QueryArray("tag"); len(tags) > 0 {
		vals := make([]interface{}, 0, len(tags))
		for _, t := range tags {
			vals = append(vals, t)
		}
		fs = append(fs, course.In(course.FieldTags, vals...))
	}
	if v := c.Query("isPublished"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, badParam("isPublished", err)
		}
		fs = append(fs, course.Eq(course.FieldIsPublished, b))
	}
	if v := c.Query("nameRegex"); v != "" {
		fs = append(fs, course.Regex(course.FieldName, v, "i"))
	}
	for _, p := range []struct {
		param string
		build func(string, interface{}) course.Filter
	}{{"after", course.Gt}, {"before", course.Lt}} {
		if v := c.Query(p.param); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return q, badParam(p.param, err)
			}
			fs = append(fs, p.build(course.FieldDate, t))
		}
	}

	switch len(fs) {
	case 0:
	case 1:
		q.Filter = &fs[0]
	default:
		f := course.And(fs...)
		q.Filter = &f
	}

	if v := c.Query("sort"); v != "" {
		s, err := course.ParseSort(v)
		if err != nil {
			return q, err
		}
		q.Sort = s
	}
	for _, p := range []struct {
		param string
		dst   *int64
	}{{"limit", &q.Limit}, {"skip", &q.Skip}} {
		if v := c.Query(p.param); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return q, badParam(p.param, fmt.Errorf("want a non-negative integer, got %q", v))
			}
			*p.dst = n
		}
	}
	if v := c.Query("fields"); v != "" {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				q.Fields = append(q.Fields, f)
			}
		}
	}
	return q, q.Validate()
}
