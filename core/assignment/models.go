package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursedash/core"
)

// Roles
const (
	RoleEditing   = 0
	RoleReviewing = 1
)

// Statuses
const (
	// editing
	StatusNotYetStarted       = "not_yet_started"
	StatusInProgress          = "in_progress"
	StatusReadyForReview      = "ready_for_review"
	StatusReadyForMainspace   = "ready_for_mainspace"
	StatusAssignmentCompleted = "assignment_completed"

	// reviewing
	StatusReadingTheArticle   = "reading_the_article"
	StatusProvidingFeedback   = "providing_feedback"
	StatusPostToTalk          = "post_to_talk"
	StatusPeerReviewCompleted = "peer_review_completed"
)

var statusesByRole = map[int][]string{
	RoleEditing: {
		StatusNotYetStarted, StatusInProgress, StatusReadyForReview,
		StatusReadyForMainspace, StatusAssignmentCompleted,
	},
	RoleReviewing: {
		StatusReadingTheArticle, StatusProvidingFeedback, StatusPostToTalk, StatusPeerReviewCompleted,
	},
}

// Statuses returns the statuses an assignment with the given role goes through, in order.
func Statuses(role int) []string {
	return statusesByRole[role]
}

// DefaultStatus is the first status of the role's workflow.
func DefaultStatus(role int) string {
	if statuses := Statuses(role); len(statuses) > 0 {
		return statuses[0]
	}
	return StatusNotYetStarted
}

func ValidStatus(role int, status string) bool {
	for _, s := range Statuses(role) {
		if s == status {
			return true
		}
	}
	return false
}

type Flags struct {
	// AvailableArticle marks an article listed by an instructor for students to claim.
	AvailableArticle bool `json:"available_article"`
}

type Assignment struct {
	ID           int       `json:"id"`
	CourseID     int       `json:"course_id"`
	UserID       *string   `json:"user_id"`
	ArticleID    *int      `json:"article_id"`
	ArticleTitle string    `json:"article_title"`
	WikiID       int       `json:"wiki_id"`
	Role         int       `json:"role"`
	Flags        Flags     `json:"flags"`
	SandboxURL   string    `json:"sandbox_url"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (a Assignment) Claimed() bool {
	return a.UserID != nil && *a.UserID != ""
}

func (a Assignment) OwnedBy(userID string) bool {
	return a.Claimed() && *a.UserID == userID
}

// NewAssignment contains information needed to create a new Assignment.
// An empty UserID lists the article as available for students to claim.
type NewAssignment struct {
	UserID     string `json:"user_id"`
	CourseSlug string `json:"course_slug" validate:"required"`
	Title      string `json:"title" validate:"notblank"`
	Role       int    `json:"role" validate:"min=0,max=1"`
	Language   string `json:"language"`
	Project    string `json:"project"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.UserID = core.CleanString(na.UserID)
	na.CourseSlug = core.CleanString(na.CourseSlug)
	na.Language = core.CleanString(na.Language, true /* lower */)
	na.Project = core.CleanString(na.Project, true /* lower */)
	return validate.Struct(na)
}

// Lookup identifies an assignment by its attributes, for clients that do not know its ID yet.
type Lookup struct {
	CourseSlug   string `json:"course_slug"`
	UserID       string `json:"user_id"`
	ArticleTitle string `json:"article_title"`
	Role         int    `json:"role"`
}

// QueryFilter applies AND operation on its set fields.
type QueryFilter struct {
	CourseID int
	// UserID nil matches any user; a pointer to "" matches unclaimed assignments only.
	UserID       *string
	ArticleTitle string
	Role         *int
	WikiID       int
	Orderings    []core.DBOrdering
}

// OrderingFields are the fields assignments can be ordered by.
var OrderingFields = []string{"id", "article_title", "role", "status", "created_at", "updated_at"}

func ValidOrderingField(field string) bool {
	for _, f := range OrderingFields {
		if f == field {
			return true
		}
	}
	return false
}

func StrPtr(s string) *string { return &s }
func IntPtr(i int) *int       { return &i }
