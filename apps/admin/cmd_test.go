package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursedash/core/alert"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
	"github.com/trezcool/coursedash/tests"
)

func setup(t *testing.T, input ...string) (*commandLine, *testutil.Env) {
	env := testutil.NewEnv()

	// start CLI
	return &commandLine{
		in:        strings.NewReader(strings.Join(input, "\n")),
		out:       io.Discard,
		validate:  env.Validate,
		usrSvc:    env.UserSvc,
		courseSvc: env.CourseSvc,
		alertSvc:  env.AlertSvc,
	}, env
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func withProgram(args []string) []string {
	return append([]string{"admin"}, args...)
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "bad flag", args: []string{"enroll", "-lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(withProgram(tt.args)))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	runMigrationFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(withProgram(tt.args)))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env := setup(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, env.UserRepo, "Existing", "existing", "existing@test.cd", "Sup3rSecret!", nil, false)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "new"}, wantErr: errHelp},
		{name: "new user", args: []string{"adduser", "-username", "New", "-email", "New@test.cd"}, extra: "n3wPassw0rd"},
		{name: "new admin", args: []string{"adduser", "-email", "boss@test.cd", "-admin"}, extra: "b0ssPassw0rd"},
		{name: "existing user", args: []string{"adduser", "-username", "existing", "-admin"}, extra: "n3wPassw0rd"},
	}
	for _, tt := range tests {
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(withProgram(tt.args)))
		})
	}

	usr, err := env.UserSvc.GetByUsernameOrEmail(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "new@test.cd", usr.Email)
	assert.True(t, usr.Active())
	assert.False(t, usr.IsAdmin())
	assert.NoError(t, usr.CheckPassword("n3wPassw0rd"))

	boss, err := env.UserSvc.GetByUsernameOrEmail(ctx, "boss@test.cd")
	require.NoError(t, err)
	assert.True(t, boss.IsAdmin())

	refreshed, err := env.UserSvc.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.Active())
	assert.True(t, refreshed.IsAdmin())
	assert.NoError(t, refreshed.CheckPassword("n3wPassw0rd"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env := setup(t)

	usr := testutil.CreateUser(t, env.UserRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: "lmao"},
	}
	for _, tt := range tests {
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(withProgram(tt.args))
			tt.check(t, err)
			if err == nil {
				refreshedUsr, err := env.UserSvc.GetByID(context.Background(), usr.ID)
				require.NoError(t, err)
				assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
				assert.NoError(t, refreshedUsr.CheckPassword(pwd))
			}
		})
	}
}

func Test_commandLine_addCourse(t *testing.T) {
	cli, env := setup(t)

	tests := []cliTest{
		{name: "no title", args: []string{"addcourse", "-school", "School"}, wantErr: errHelp},
		{name: "invalid wiki", args: []string{"addcourse", "-title", "Basket weaving", "-wiki", "xx.lolpedia"}, wantErrStr: "invalid wiki"},
		{name: "created", args: []string{"addcourse", "-title", "Basket weaving", "-school", "Wiki U", "-term", "Fall 2021"}},
		{name: "on another wiki", args: []string{"addcourse", "-title", "Cuisine", "-slug", "Ecole/Cuisine", "-wiki", "fr.wikipedia"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(withProgram(tt.args)))
		})
	}

	ctx := context.Background()
	c, err := env.CourseSvc.GetBySlug(ctx, "Wiki_U/Basket_weaving_(Fall_2021)")
	require.NoError(t, err)
	assert.Equal(t, "Basket weaving", c.Title)

	c, err = env.CourseSvc.GetBySlug(ctx, "Ecole/Cuisine")
	require.NoError(t, err)
	w, err := env.CourseSvc.HomeWiki(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "fr", w.Language)
}

func Test_commandLine_enroll(t *testing.T) {
	cli, env := setup(t)
	ctx := context.Background()

	prof := testutil.CreateUser(t, env.UserRepo, "Prof", "prof", "prof@test.cd", "", nil, true)
	c := testutil.CreateCourse(t, env.CourseSvc, "School/Course_(term)", false)

	tests := []cliTest{
		{name: "no args", args: []string{"enroll"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"enroll", "-course", c.Slug, "-user", "prof", "-role", "9"}, wantErrStr: "invalid course role 9"},
		{name: "unknown course", args: []string{"enroll", "-course", "lol", "-user", "prof"}, wantErr: course.ErrNotFound},
		{name: "unknown user", args: []string{"enroll", "-course", c.Slug, "-user", "lol"}, wantErr: user.ErrNotFound},
		{name: "enrolled", args: []string{"enroll", "-course", c.Slug, "-user", "prof@test.cd", "-role", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(withProgram(tt.args)))
		})
	}

	instructors, err := env.CourseSvc.Instructors(ctx, c)
	require.NoError(t, err)
	require.Len(t, instructors, 1)
	assert.Equal(t, prof.ID, instructors[0].ID)
}

func Test_commandLine_notifyInstructors(t *testing.T) {
	ctx := context.Background()

	newEnv := func(t *testing.T, input ...string) (*commandLine, *testutil.Env, course.Course) {
		cli, env := setup(t, input...)
		testutil.CreateUser(t, env.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
		testutil.CreateUser(t, env.UserRepo, "Student", "student", "student@test.cd", "", nil, true)
		prof := testutil.CreateUser(t, env.UserRepo, "Prof", "prof", "prof@test.cd", "", nil, true)
		c := testutil.CreateCourse(t, env.CourseSvc, "School/Course_(term)", false)
		testutil.Enroll(t, env.CourseSvc, c, prof, course.RoleInstructor)
		return cli, env, c
	}
	args := func(c course.Course, sender string, extra ...string) []string {
		return withProgram(append([]string{
			"notifyinstructors", "-sender", sender, "-course", c.Slug, "-subject", "Check-in", "-message", "How is it going?",
		}, extra...))
	}

	t.Run("missing args", func(t *testing.T) {
		cli, _, _ := newEnv(t)
		assert.Equal(t, errHelp, cli.run(withProgram([]string{"notifyinstructors", "-sender", "admin"})))
	})

	t.Run("blank message", func(t *testing.T) {
		cli, env, c := newEnv(t, "y")
		err := cli.run(withProgram([]string{"notifyinstructors", "-sender", "admin", "-course", c.Slug, "-subject", "Hi"}))
		assert.Error(t, err)
		assert.Empty(t, env.MailSvc.SentMessages)
	})

	t.Run("cancelled", func(t *testing.T) {
		cli, env, c := newEnv(t, "n")
		require.NoError(t, cli.run(args(c, "admin")))
		assert.Empty(t, env.MailSvc.SentMessages)
		alerts, err := env.AlertSvc.QueryByCourse(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("not an admin", func(t *testing.T) {
		cli, env, c := newEnv(t, "y")
		assert.Error(t, cli.run(args(c, "student")))
		assert.Empty(t, env.MailSvc.SentMessages)
	})

	t.Run("sent", func(t *testing.T) {
		cli, env, c := newEnv(t, "yes")
		require.NoError(t, cli.run(args(c, "admin", "-bcc")))
		require.Len(t, env.MailSvc.SentMessages, 1)
		msg := env.MailSvc.SentMessages[0]
		assert.Equal(t, "Check-in", msg.Subject)
		assert.Len(t, msg.Bcc, 1)

		alerts, err := env.AlertSvc.QueryByCourse(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, alert.StatusSent, alerts[0].Status)
	})

	t.Run("delivery failure", func(t *testing.T) {
		cli, env, c := newEnv(t, "y")
		env.MailSvc.FailWith = errors.New("provider unavailable")
		err := cli.run(args(c, "admin"))
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "provider unavailable")
		}

		alerts, err := env.AlertSvc.QueryByCourse(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, alert.StatusFailed, alerts[0].Status)
	})
}
