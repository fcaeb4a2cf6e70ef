package alert

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
)

const notificationTemplate = "instructor_notification"

var (
	// errors
	ErrNotFound       = errors.New("alert not found")
	ErrDraftSending   = errors.New("this notification is already being sent")
	errAdminsOnly     = "only admins can notify instructors"
	errCourseNotFound = "course not found"
	errNoInstructors  = "the course has no instructors to notify"
)

type (
	Repository interface {
		CreateAlert(ctx context.Context, a Alert) (Alert, error)
		UpdateAlert(ctx context.Context, a Alert) (Alert, error)
		QueryAlerts(ctx context.Context, courseID int) ([]Alert, error)
	}

	Service struct {
		repo          Repository
		courseSvc     *course.Service
		mailSvc       core.EmailService
		salesforceBcc mail.Address
		logger        core.Logger
	}
)

func NewService(repo Repository, courseSvc *course.Service, mailSvc core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:          repo,
		courseSvc:     courseSvc,
		mailSvc:       mailSvc,
		salesforceBcc: conf.Email.SalesforceBcc,
		logger:        logger,
	}
}

// CheckSender rejects senders who may not notify instructors.
func CheckSender(sender user.User) error {
	if !sender.IsAdmin() {
		return core.NewRuleError(core.KindForbidden, errAdminsOnly)
	}
	return nil
}

// NotifyInstructors emails the instructors of a course on behalf of an admin.
// The returned alert records whether the email went out; delivery failures are not returned as errors.
func (svc *Service) NotifyInstructors(ctx context.Context, sender user.User, n Notification) (Alert, error) {
	if err := CheckSender(sender); err != nil {
		return Alert{}, err
	}

	c, err := svc.courseSvc.GetByID(ctx, n.CourseID)
	if err != nil {
		if err == course.ErrNotFound {
			return Alert{}, core.NewRuleError(core.KindNotFound, errCourseNotFound)
		}
		return Alert{}, errors.Wrap(err, "finding course")
	}
	if n.CourseTitle == "" {
		n.CourseTitle = c.Title
	}

	a, err := svc.repo.CreateAlert(ctx, Alert{
		Type:            TypeInstructorNotification,
		CourseID:        c.ID,
		UserID:          sender.ID,
		Subject:         n.Subject,
		Message:         n.Message,
		BccToSalesforce: n.BccToSalesforce,
		Status:          StatusPending,
		CreatedAt:       core.NowFunc(),
	})
	if err != nil {
		return Alert{}, errors.Wrap(err, "creating alert")
	}

	if err = svc.send(ctx, c, n); err != nil {
		svc.logger.Error(fmt.Sprintf("alert %d: sending instructor notification", a.ID), err)
		a.Status = StatusFailed
		a.Error = errors.Cause(err).Error()
	} else {
		a.Status = StatusSent
		sentAt := core.NowFunc()
		a.EmailSentAt = &sentAt
	}

	a, err = svc.repo.UpdateAlert(ctx, a)
	return a, errors.Wrap(err, "updating alert")
}

func (svc *Service) send(ctx context.Context, c course.Course, n Notification) error {
	instructors, err := svc.courseSvc.Instructors(ctx, c)
	if err != nil {
		return errors.Wrap(err, "listing instructors")
	}

	msg := &core.EmailMessage{
		Subject:      n.Subject,
		TemplateName: notificationTemplate,
		TemplateData: map[string]interface{}{
			"CourseTitle": n.CourseTitle,
			"CourseSlug":  c.Slug,
			"Message":     n.Message,
		},
	}
	for _, usr := range instructors {
		if usr.Email != "" {
			msg.To = append(msg.To, mail.Address{Name: usr.Name, Address: usr.Email})
		}
	}
	if len(msg.To) == 0 {
		return errors.New(errNoInstructors)
	}
	if n.BccToSalesforce && svc.salesforceBcc.Address != "" {
		msg.Bcc = append(msg.Bcc, svc.salesforceBcc)
	}

	return svc.mailSvc.Send(ctx, msg)
}

func (svc *Service) QueryByCourse(ctx context.Context, courseID int) ([]Alert, error) {
	alerts, err := svc.repo.QueryAlerts(ctx, courseID)
	return alerts, errors.Wrap(err, "querying alerts")
}
