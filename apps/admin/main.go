package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/alert"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
	"github.com/trezcool/coursedash/core/wiki"
	appfs "github.com/trezcool/coursedash/fs"
	"github.com/trezcool/coursedash/services/email"
	"github.com/trezcool/coursedash/services/logger"
	"github.com/trezcool/coursedash/storage/database"
	"github.com/trezcool/coursedash/storage/database/sqlx"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewStdLogger(std)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Error(fmt.Sprintf("creating database: %v", err), err)
		return 1
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Error(fmt.Sprintf("opening database: %v", err), err)
		return 1
	}
	defer db.Close()

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true /* strict */, logger)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, std)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), conf, mailSvc)
	wikiSvc := wiki.NewService(sqlxrepos.NewWikiRepository(db), conf)
	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(db), wikiSvc, usrSvc)

	// start CLI
	cli := commandLine{
		db:        db,
		in:        os.Stdin,
		out:       os.Stdout,
		validate:  validate,
		usrSvc:    usrSvc,
		courseSvc: courseSvc,
		alertSvc:  alert.NewService(sqlxrepos.NewAlertRepository(db), courseSvc, mailSvc, conf, logger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err))
		}
		return 1
	}
	return 0
}
