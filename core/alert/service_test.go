package alert_test

import (
	"context"
	"net/mail"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursedash/core"
	. "github.com/trezcool/coursedash/core/alert"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
	"github.com/trezcool/coursedash/tests"
)

func TestService_NotifyInstructors(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()

	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	prof := testutil.CreateUser(t, env.UserRepo, "Prof", "prof", "prof@test.cd", "", []string{user.RoleInstructor}, true)
	student := testutil.CreateUser(t, env.UserRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)

	c := testutil.CreateCourse(t, env.CourseSvc, "School/Course_(term)", false)
	empty := testutil.CreateCourse(t, env.CourseSvc, "School/Empty_(term)", false)
	testutil.Enroll(t, env.CourseSvc, c, prof, course.RoleInstructor)
	testutil.Enroll(t, env.CourseSvc, c, student, course.RoleStudent)

	t.Run("admins only", func(t *testing.T) {
		_, err := env.AlertSvc.NotifyInstructors(ctx, prof, Notification{CourseID: c.ID, Subject: "Hi", Message: "Hello"})
		kind, ok := core.RuleKind(err)
		require.True(t, ok)
		assert.Equal(t, core.KindForbidden, kind)
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := env.AlertSvc.NotifyInstructors(ctx, admin, Notification{CourseID: 999, Subject: "Hi", Message: "Hello"})
		kind, ok := core.RuleKind(err)
		require.True(t, ok)
		assert.Equal(t, core.KindNotFound, kind)
	})

	t.Run("sent", func(t *testing.T) {
		env.MailSvc.Reset()
		a, err := env.AlertSvc.NotifyInstructors(ctx, admin, Notification{
			CourseID: c.ID, Subject: "Check-in", Message: "How is it going?", BccToSalesforce: true,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusSent, a.Status)
		assert.Equal(t, TypeInstructorNotification, a.Type)
		assert.Equal(t, admin.ID, a.UserID)
		assert.NotNil(t, a.EmailSentAt)

		require.Len(t, env.MailSvc.SentMessages, 1)
		msg := env.MailSvc.SentMessages[0]
		assert.Equal(t, []mail.Address{{Name: prof.Name, Address: prof.Email}}, msg.To)
		assert.Equal(t, []mail.Address{env.Conf.Email.SalesforceBcc}, msg.Bcc)
		assert.Equal(t, "Check-in", msg.Subject)
		assert.Contains(t, msg.TextContent, "How is it going?")
		assert.Contains(t, msg.TextContent, c.Title)
		assert.Contains(t, msg.HTMLContent, "How is it going?")
	})

	t.Run("no bcc", func(t *testing.T) {
		env.MailSvc.Reset()
		_, err := env.AlertSvc.NotifyInstructors(ctx, admin, Notification{CourseID: c.ID, Subject: "Hi", Message: "Hello"})
		require.NoError(t, err)
		require.Len(t, env.MailSvc.SentMessages, 1)
		assert.Empty(t, env.MailSvc.SentMessages[0].Bcc)
	})

	t.Run("delivery failure", func(t *testing.T) {
		env.MailSvc.Reset()
		env.MailSvc.FailWith = errors.New("provider unavailable")
		a, err := env.AlertSvc.NotifyInstructors(ctx, admin, Notification{CourseID: c.ID, Subject: "Hi", Message: "Hello"})
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, a.Status)
		assert.Equal(t, "provider unavailable", a.Error)
		assert.Nil(t, a.EmailSentAt)
	})

	t.Run("course without instructors", func(t *testing.T) {
		env.MailSvc.Reset()
		a, err := env.AlertSvc.NotifyInstructors(ctx, admin, Notification{CourseID: empty.ID, Subject: "Hi", Message: "Hello"})
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, a.Status)
		assert.NotEmpty(t, a.Error)
	})

	t.Run("query by course", func(t *testing.T) {
		alerts, err := env.AlertSvc.QueryByCourse(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, alerts, 3)
		assert.Equal(t, StatusFailed, alerts[0].Status) // newest first
	})
}

func TestDraft(t *testing.T) {
	d := Draft{Notification: Notification{CourseID: 1, CourseTitle: "Course"}}
	d.SetSubject("Hi")
	d.SetMessage("Hello")
	d.ToggleBcc()
	assert.True(t, d.BccToSalesforce)
	assert.Equal(t, "Hi", d.Subject)

	require.NoError(t, d.Begin())
	assert.True(t, d.Sending())
	assert.Equal(t, ErrDraftSending, d.Begin())

	d.Track(Alert{Status: StatusFailed, Error: "boom"})
	assert.False(t, d.Sending())
	assert.Equal(t, "boom", d.Error)
	assert.Equal(t, "Hello", d.Message)

	// a failed draft can be retried
	require.NoError(t, d.Begin())
	assert.Empty(t, d.Error)
	d.Track(Alert{Status: StatusFailed, Error: "boom"})

	d.Track(Alert{Status: StatusSent})
	assert.Equal(t, StatusSent, d.Status)
	assert.Empty(t, d.Subject)
	assert.Empty(t, d.Error)
	assert.Equal(t, 1, d.CourseID)
}
