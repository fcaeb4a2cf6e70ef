package course

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursedash/core"
)

// Course roles (CoursesUsers.Role)
const (
	RoleStudent         = 0
	RoleInstructor      = 1
	RoleCampusVolunteer = 2
	RoleOnlineVolunteer = 3
	RoleWikiEdStaff     = 4
)

var (
	RoleNames = map[int]string{
		RoleStudent:         "student",
		RoleInstructor:      "instructor",
		RoleCampusVolunteer: "campus_volunteer",
		RoleOnlineVolunteer: "online_volunteer",
		RoleWikiEdStaff:     "wiki_ed_staff",
	}

	slugUnsafeRegex = regexp.MustCompile(`[\s/]+`)
)

type Course struct {
	ID         int    `json:"id" db:"id"`
	Slug       string `json:"slug" db:"slug"`
	Title      string `json:"title" db:"title"`
	School     string `json:"school" db:"school"`
	Term       string `json:"term" db:"term"`
	Submitted  bool   `json:"submitted" db:"submitted"`
	HomeWikiID int    `json:"home_wiki_id" db:"home_wiki_id"`
	// RetainAvailableArticles keeps an available article listed after a student claims it;
	// the claim then creates a copy for the student.
	RetainAvailableArticles bool      `json:"retain_available_articles" db:"retain_available_articles"`
	CreatedAt               time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt               time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// CoursesUsers is the enrollment of a User in a Course with a given role.
type CoursesUsers struct {
	ID        int       `json:"id" db:"id"`
	CourseID  int       `json:"course_id" db:"course_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Role      int       `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// MakeSlug builds the "School/Title_(Term)" slug of a course.
func MakeSlug(school, title, term string) string {
	clean := func(s string) string {
		return slugUnsafeRegex.ReplaceAllString(core.CleanString(s), "_")
	}
	slug := clean(title)
	if term != "" {
		slug += "_(" + clean(term) + ")"
	}
	if school != "" {
		slug = clean(school) + "/" + slug
	}
	return slug
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title                   string `json:"title" validate:"notblank"`
	School                  string `json:"school"`
	Term                    string `json:"term"`
	Slug                    string `json:"slug"`
	Submitted               bool   `json:"submitted"`
	Language                string `json:"language"`
	Project                 string `json:"project"`
	RetainAvailableArticles bool   `json:"retain_available_articles"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.School = core.CleanString(nc.School)
	nc.Term = core.CleanString(nc.Term)
	nc.Slug = strings.Trim(core.CleanString(nc.Slug), "/")
	if nc.Slug == "" {
		nc.Slug = MakeSlug(nc.School, nc.Title, nc.Term)
	}
	return validate.Struct(nc)
}

// Enrollment adds a user to a course.
type Enrollment struct {
	UserID string `json:"user_id" validate:"required"`
	Role   int    `json:"role" validate:"min=0,max=4"`
}

func (e Enrollment) Validate(validate *validator.Validate) error { return validate.Struct(e) }
