package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/alert"
	"github.com/trezcool/coursedash/core/article"
	"github.com/trezcool/coursedash/core/assignment"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
	"github.com/trezcool/coursedash/core/wiki"
	appfs "github.com/trezcool/coursedash/fs"
	"github.com/trezcool/coursedash/services/email"
	"github.com/trezcool/coursedash/services/logger"
	"github.com/trezcool/coursedash/services/wikiedits"
	"github.com/trezcool/coursedash/storage/database/inmem"
)

// Env bundles the services of the application wired on an in-memory database.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Translator ut.Translator
	Validate   *validator.Validate
	MailSvc    *emailsvc.ConsoleServiceMock
	WikiEdits  *wikieditsvc.Recorder

	UserRepo       user.Repository
	CourseRepo     course.Repository
	AssignmentRepo assignment.Repository

	UserSvc       *user.Service
	WikiSvc       *wiki.Service
	ArticleSvc    *article.Service
	CourseSvc     *course.Service
	AssignmentSvc *assignment.Service
	AlertSvc      *alert.Service
}

func NewLogger() core.Logger {
	return logsvc.NewStdLogger(log.New(io.Discard, "", 0))
}

func NewEnv() *Env {
	env := &Env{
		Conf:      core.NewTestConfig(),
		Logger:    NewLogger(),
		WikiEdits: &wikieditsvc.Recorder{},
	}
	env.Translator = core.NewTranslator()
	env.Validate = core.NewValidator(env.Translator)
	user.InitValidators(env.Validate, env.Translator)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true /* strict */, env.Logger)
	env.MailSvc = emailsvc.NewConsoleServiceMock(env.Conf)

	db := inmemdb.Open()
	env.UserRepo = inmemdb.NewUserRepository(db)
	env.CourseRepo = inmemdb.NewCourseRepository(db)
	env.AssignmentRepo = inmemdb.NewAssignmentRepository(db)

	env.UserSvc = user.NewService(env.UserRepo, env.Conf, env.MailSvc)
	env.WikiSvc = wiki.NewService(inmemdb.NewWikiRepository(db), env.Conf)
	env.ArticleSvc = article.NewService(inmemdb.NewArticleRepository(db), article.NewLocalImporter())
	env.CourseSvc = course.NewService(env.CourseRepo, env.WikiSvc, env.UserSvc)
	env.AssignmentSvc = assignment.NewService(
		env.AssignmentRepo, env.CourseSvc, env.WikiSvc, env.ArticleSvc, env.UserSvc, env.WikiEdits, env.Logger,
	)
	env.AlertSvc = alert.NewService(inmemdb.NewAlertRepository(db), env.CourseSvc, env.MailSvc, env.Conf, env.Logger)
	return env
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := core.NowFunc()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateCourse creates a course on the default wiki.
func CreateCourse(t *testing.T, svc *course.Service, slug string, retainAvailableArticles bool) course.Course {
	c, err := svc.Create(context.Background(), course.NewCourse{
		Title:                   slug,
		Slug:                    slug,
		RetainAvailableArticles: retainAvailableArticles,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func Enroll(t *testing.T, svc *course.Service, c course.Course, usr user.User, role int) {
	if _, err := svc.AddUser(context.Background(), c, usr.ID, role); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
}

func CreateAssignment(t *testing.T, repo assignment.Repository, a assignment.Assignment) assignment.Assignment {
	now := core.NowFunc()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Status == "" {
		a.Status = assignment.DefaultStatus(a.Role)
	}
	a, err := repo.CreateAssignment(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}
