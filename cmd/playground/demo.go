package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/playground/course-service/internal/config"
	"github.com/playground/course-service/internal/course"
	"github.com/playground/course-service/internal/course/service"
	"github.com/playground/course-service/pkg/logger"
)

var errMissingID = errors.New("DEMO_COURSE_ID is required for this operation")

func demoCourse() *course.Course {
	return &course.Course{
		Name:        "JavaScript Course",
		Author:      "Sandeep",
		Tags:        []string{"vanilla", "es6"},
		IsPublished: course.Bool(true),
	}
}

// demoQuery lists published courses by name, two at most, name and tags only.
func demoQuery() course.Query {
	f := course.Eq(course.FieldIsPublished, true)
	return course.Query{
		Filter: &f,
		Sort:   []course.SortField{course.Asc(course.FieldName)},
		Limit:  2,
		Fields: []string{course.FieldName, course.FieldTags},
	}
}

func run(ctx context.Context, svc *service.Service, demo config.DemoConfig, w io.Writer) error {
	switch demo.Operation {
	case "", "create":
		created, err := svc.Create(ctx, demoCourse())
		if err != nil {
			return err
		}
		return printJSON(w, created)
	case "list":
		list, err := svc.List(ctx, demoQuery())
		if err != nil {
			return err
		}
		return printJSON(w, list)
	case "update":
		if demo.CourseID == "" {
			return errMissingID
		}
		saved, err := svc.UpdateByID(ctx, demo.CourseID, course.Chain(
			course.SetAuthor("Another Author"),
			course.SetPublished(true),
		))
		if errors.Is(err, course.ErrNotFound) {
			logger.Warnf("no course with id %s, nothing updated", demo.CourseID)
			_, err = fmt.Fprintln(w, "course not found")
			return err
		}
		if err != nil {
			return err
		}
		return printJSON(w, saved)
	case "delete":
		if demo.CourseID == "" {
			return errMissingID
		}
		n, err := svc.DeleteByID(ctx, demo.CourseID)
		if err != nil {
			return err
		}
		return printJSON(w, map[string]int64{"deleted": n})
	}
	return fmt.Errorf("unknown DEMO_OPERATION %q (want create, list, update or delete)", demo.Operation)
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
