package wikieditsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/assignment"
	"github.com/trezcool/coursedash/core/course"
)

// loggingEditor records the wiki edits that would be made on behalf of a course.
// Nothing is pushed to the wiki.
type loggingEditor struct {
	logger core.Logger
}

var _ assignment.WikiEditor = (*loggingEditor)(nil)

func NewLoggingEditor(logger core.Logger) *loggingEditor {
	return &loggingEditor{logger: logger}
}

func (e loggingEditor) RemoveAssignment(_ context.Context, c course.Course, a assignment.Assignment) error {
	e.logger.Debug(fmt.Sprintf("wiki edits: remove assignment %d (%s) from %s", a.ID, a.ArticleTitle, c.Slug))
	return nil
}

func (e loggingEditor) UpdateAssignments(_ context.Context, c course.Course) error {
	e.logger.Debug("wiki edits: update assignments of " + c.Slug)
	return nil
}

func (e loggingEditor) UpdateCourse(_ context.Context, c course.Course) error {
	e.logger.Debug("wiki edits: update course page of " + c.Slug)
	return nil
}

// Edit is a call received by a Recorder.
type Edit struct {
	Op           string
	CourseSlug   string
	AssignmentID int
}

// Recorder keeps the edits it receives so tests can assert on them.
type Recorder struct {
	mu    sync.Mutex
	Edits []Edit
	// FailWith makes every edit fail with the given error.
	FailWith error
}

var _ assignment.WikiEditor = (*Recorder)(nil)

func (r *Recorder) record(e Edit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Edits = append(r.Edits, e)
	return r.FailWith
}

func (r *Recorder) RemoveAssignment(_ context.Context, c course.Course, a assignment.Assignment) error {
	return r.record(Edit{Op: "RemoveAssignment", CourseSlug: c.Slug, AssignmentID: a.ID})
}

func (r *Recorder) UpdateAssignments(_ context.Context, c course.Course) error {
	return r.record(Edit{Op: "UpdateAssignments", CourseSlug: c.Slug})
}

func (r *Recorder) UpdateCourse(_ context.Context, c course.Course) error {
	return r.record(Edit{Op: "UpdateCourse", CourseSlug: c.Slug})
}

// Ops returns the names of the recorded edits, in order.
func (r *Recorder) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]string, 0, len(r.Edits))
	for _, e := range r.Edits {
		ops = append(ops, e.Op)
	}
	return ops
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Edits = nil
	r.FailWith = nil
}
