package alert

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursedash/core"
)

// Types
const (
	TypeInstructorNotification = "InstructorNotificationAlert"
)

// Statuses
const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
	StatusFailed  = "FAILED"
)

type Alert struct {
	ID              int        `json:"id" db:"id"`
	Type            string     `json:"type" db:"type"`
	CourseID        int        `json:"course_id" db:"course_id"`
	UserID          string     `json:"user_id" db:"user_id"` // sender
	Subject         string     `json:"subject" db:"subject"`
	Message         string     `json:"message" db:"message"`
	BccToSalesforce bool       `json:"bcc_to_salesforce" db:"bcc_to_salesforce"`
	Status          string     `json:"status" db:"status"`
	Error           string     `json:"error,omitempty" db:"error"`
	EmailSentAt     *time.Time `json:"email_sent_at,omitempty" db:"email_sent_at"` // UTC; nil until delivered
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`                 // UTC
}

// Notification contains information needed to notify the instructors of a course.
type Notification struct {
	CourseID        int    `json:"course_id" validate:"required"`
	CourseTitle     string `json:"course_title"`
	Subject         string `json:"subject" validate:"notblank"`
	Message         string `json:"message" validate:"notblank"`
	BccToSalesforce bool   `json:"bcc_to_salesforce"`
}

func (n *Notification) Validate(validate *validator.Validate) error {
	n.CourseTitle = core.CleanString(n.CourseTitle)
	n.Subject = core.CleanString(n.Subject)
	n.Message = core.CleanString(n.Message)
	return validate.Struct(n)
}

// Draft tracks a notification while it is composed, confirmed and sent.
type Draft struct {
	Notification
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (d *Draft) SetSubject(subject string) { d.Subject = subject }
func (d *Draft) SetMessage(message string) { d.Message = message }
func (d *Draft) ToggleBcc()                { d.BccToSalesforce = !d.BccToSalesforce }

// Sending reports whether a send is in flight.
func (d *Draft) Sending() bool { return d.Status == StatusPending }

// Begin marks the draft as being sent; a draft can't be sent twice concurrently.
func (d *Draft) Begin() error {
	if d.Sending() {
		return ErrDraftSending
	}
	d.Status = StatusPending
	d.Error = ""
	return nil
}

// Track mirrors the outcome of a send attempt onto the draft.
// A successful send resets the draft.
func (d *Draft) Track(a Alert) {
	switch a.Status {
	case StatusSent:
		*d = Draft{Notification: Notification{CourseID: d.CourseID, CourseTitle: d.CourseTitle}, Status: StatusSent}
	default:
		d.Status = a.Status
		d.Error = a.Error
	}
}
