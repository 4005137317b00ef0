package site

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gazra/gazra/backend/go-services/internal/collection"
	"github.com/gazra/gazra/backend/go-services/internal/docstore"
)

var (
	ErrUnknownCourse = errors.New("course does not exist")
	ErrCourseFull    = errors.New("course is full")
)

// NewestFirst sorts records by createdAt, most recent first. Records without
// a timestamp go last. The accessor does not order results; callers that
// need an order sort after the call returns.
func NewestFirst(recs []collection.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		ti, iok := recs[i][collection.FieldCreatedAt].(time.Time)
		tj, jok := recs[j][collection.FieldCreatedAt].(time.Time)
		if iok != jok {
			return iok
		}
		return ti.After(tj)
	})
}

// UpcomingEvents returns the filters selecting events dated today or later,
// soonest first. Event dates are stored as YYYY-MM-DD and times as 24-hour
// HH:MM (enforced by the Event binding), so both sort chronologically as
// strings.
func UpcomingEvents(now time.Time) []docstore.Filter {
	return []docstore.Filter{
		docstore.Where("date", docstore.OpGreaterOrEqual, now.Format("2006-01-02")),
		docstore.OrderBy("date", docstore.Asc),
		docstore.OrderBy("time", docstore.Asc),
	}
}

// CheckEnrollment verifies that the course exists and still has room. A
// course with capacity 0 has no limit. Cancelled enrollments do not count.
func CheckEnrollment(ctx context.Context, courses, enrollments *collection.Collection, e *Enrollment) error {
	got := courses.GetOne(ctx, e.CourseID)
	if got.NotFound() {
		return ErrUnknownCourse
	}
	if err := got.Err(); err != nil {
		return fmt.Errorf("look up course: %w", err)
	}
	var course Course
	if err := collection.Decode(got.Data, &course); err != nil {
		return err
	}
	if course.Capacity <= 0 {
		return nil
	}
	list := enrollments.List(ctx,
		docstore.Where("courseId", docstore.OpEqual, e.CourseID),
		docstore.Where("status", docstore.OpNotEqual, StatusCancelled),
	)
	if err := list.Err(); err != nil {
		return fmt.Errorf("count enrollments: %w", err)
	}
	if len(list.Data) >= course.Capacity {
		return ErrCourseFull
	}
	return nil
}
