package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/coursedash/apps/api/echo"
	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/alert"
	"github.com/trezcool/coursedash/core/article"
	"github.com/trezcool/coursedash/core/assignment"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
	"github.com/trezcool/coursedash/core/wiki"
	emailsvc "github.com/trezcool/coursedash/services/email"
	logsvc "github.com/trezcool/coursedash/services/logger"
	wikieditsvc "github.com/trezcool/coursedash/services/wikiedits"
	"github.com/trezcool/coursedash/storage/database"
	inmemdb "github.com/trezcool/coursedash/storage/database/inmem"
	sqlxrepos "github.com/trezcool/coursedash/storage/database/sqlx"
)

// EngineMemory keeps all data in memory; nothing survives a restart.
const EngineMemory = "memory"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Repositories are backed by postgres, or kept in memory when the configured engine is EngineMemory.
	Repositories struct {
		dig.Out
		Users       user.Repository
		Wikis       wiki.Repository
		Articles    article.Repository
		Courses     course.Repository
		Assignments assignment.Repository
		Alerts      alert.Repository
		Closer      DBCloser
	}

	DBCloser func() error

	// Shutdown receives the errors that must stop the server.
	Shutdown chan error

	ServerParams struct {
		dig.In
		Conf          *core.Config
		Logger        core.Logger
		Translator    ut.Translator
		Validate      *validator.Validate
		UserSvc       *user.Service
		CourseSvc     *course.Service
		AssignmentSvc *assignment.Service
		AlertSvc      *alert.Service
		Shutdown      Shutdown
	}
)

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	if conf.Database.Engine == EngineMemory {
		loggerParam.Logger.Warn("using the in-memory database")
		db := inmemdb.Open()
		return Repositories{
			Users:       inmemdb.NewUserRepository(db),
			Wikis:       inmemdb.NewWikiRepository(db),
			Articles:    inmemdb.NewArticleRepository(db),
			Courses:     inmemdb.NewCourseRepository(db),
			Assignments: inmemdb.NewAssignmentRepository(db),
			Alerts:      inmemdb.NewAlertRepository(db),
			Closer:      func() error { return nil },
		}
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Migrate(db); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}
	return Repositories{
		Users:       sqlxrepos.NewUserRepository(db),
		Wikis:       sqlxrepos.NewWikiRepository(db),
		Articles:    sqlxrepos.NewArticleRepository(db),
		Courses:     sqlxrepos.NewCourseRepository(db),
		Assignments: sqlxrepos.NewAssignmentRepository(db),
		Alerts:      sqlxrepos.NewAlertRepository(db),
		Closer:      db.Close,
	}
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	return validate
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, log.New(os.Stdout, "EMAIL : ", log.LstdFlags))
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newWikiEditor(logger core.Logger) assignment.WikiEditor {
	return wikieditsvc.NewLoggingEditor(logger)
}

func newShutdown() Shutdown {
	return make(Shutdown, 1)
}

func newServer(p ServerParams) (echoapi.Server, error) {
	return echoapi.NewServer(
		&echoapi.Options{
			Conf:          p.Conf,
			Logger:        p.Logger,
			Translator:    p.Translator,
			Validate:      p.Validate,
			UserSvc:       p.UserSvc,
			CourseSvc:     p.CourseSvc,
			AssignmentSvc: p.AssignmentSvc,
			AlertSvc:      p.AlertSvc,
		},
		p.Shutdown,
	)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newEmailService))
	must(c.Provide(newWikiEditor))
	must(c.Provide(article.NewLocalImporter))
	must(c.Provide(user.NewService))
	must(c.Provide(wiki.NewService))
	must(c.Provide(article.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(assignment.NewService))
	must(c.Provide(alert.NewService))
	must(c.Provide(newShutdown))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
