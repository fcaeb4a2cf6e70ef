package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/coursedash/core/alert"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db  *sqlx.DB
	in  io.Reader
	out io.Writer

	validate  *validator.Validate
	usrSvc    *user.Service
	courseSvc *course.Service
	alertSvc  *alert.Service

	reader *bufio.Reader
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, fix)")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-admin] - create or update a user; the password is prompted next")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  addcourse -title TITLE [-school SCHOOL] [-term TERM] [-slug SLUG] [-wiki LANGUAGE.PROJECT] - create a course")
	fmt.Fprintln(cli.out, "  enroll -course SLUG -user USERNAME|EMAIL [-role ROLE] - add a user to a course")
	fmt.Fprintln(cli.out, "  notifyinstructors -sender USERNAME|EMAIL -course SLUG -subject SUBJECT -message MESSAGE [-bcc] - email the instructors of a course")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// promptPassword reads a password without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// confirm asks a yes/no question; anything but "y" or "yes" is a no.
func (cli *commandLine) confirm(question string) (bool, error) {
	if cli.reader == nil {
		cli.reader = bufio.NewReader(cli.in)
	}
	fmt.Fprintf(cli.out, "%s [y/N] ", question)
	answer, err := cli.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		cmd := cli.newFlagSet("adduser")
		uname := cmd.String("username", "", "The user's username.")
		email := cmd.String("email", "", "The user's email.")
		isAdmin := cmd.Bool("admin", false, "Grant all roles to the user.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *uname == "" && *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addUser(*uname, *email, pwd, *isAdmin)

	case "resetpassword":
		cmd := cli.newFlagSet("resetpassword")
		uname := cmd.String("username", "", "The user's username or email. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *uname == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*uname, pwd)

	case "addcourse":
		cmd := cli.newFlagSet("addcourse")
		nc := course.NewCourse{}
		cmd.StringVar(&nc.Title, "title", "", "The course title.")
		cmd.StringVar(&nc.School, "school", "", "The school giving the course.")
		cmd.StringVar(&nc.Term, "term", "", "The course term.")
		cmd.StringVar(&nc.Slug, "slug", "", "The course slug. Defaults to SCHOOL/TITLE_(TERM).")
		cmd.BoolVar(&nc.RetainAvailableArticles, "retain", false, "Keep available articles listed once claimed.")
		homeWiki := cmd.String("wiki", "", "The course home wiki, as LANGUAGE.PROJECT. Defaults to the configured wiki.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if nc.Title == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addCourse(nc, *homeWiki)

	case "enroll":
		cmd := cli.newFlagSet("enroll")
		slug := cmd.String("course", "", "The course slug.")
		uname := cmd.String("user", "", "The user's username or email.")
		role := cmd.Int("role", course.RoleStudent, "The course role: 0 student, 1 instructor, 2 campus volunteer, 3 online volunteer, 4 staff.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *slug == "" || *uname == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.enroll(*slug, *uname, *role)

	case "notifyinstructors":
		cmd := cli.newFlagSet("notifyinstructors")
		sender := cmd.String("sender", "", "The username or email of the admin sending the notification.")
		slug := cmd.String("course", "", "The course slug.")
		subject := cmd.String("subject", "", "The email subject.")
		message := cmd.String("message", "", "The email body.")
		bcc := cmd.Bool("bcc", false, "Send a blind copy to Salesforce.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *sender == "" || *slug == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.notifyInstructors(*sender, *slug, *subject, *message, *bcc)

	default:
		cli.printUsage()
		return errHelp
	}
}
