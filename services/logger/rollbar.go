package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/user"
)

// RollbarLogger reports to rollbar and mirrors every entry to a std logger.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	// nothing is reported in debug mode or without a token
	rollbar.SetEnabled(!conf.Debug && conf.RollbarToken != "")
	return &RollbarLogger{std: std}
}

// split separates the acting user from the rollbar arguments (error, map[string]interface{}).
func split(args []interface{}) (*user.User, []interface{}) {
	var actor *user.User
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if actor == nil {
				usr := v
				actor = &usr
			}
		default:
			rest = append(rest, arg)
		}
	}
	return actor, rest
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	actor, rest := split(args)
	if actor != nil {
		rollbar.SetPerson(actor.ID, actor.Username, actor.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, append([]interface{}{msg}, rest...)...)

	l.std.Printf("[%s] %s", level, msg)
	for _, arg := range rest {
		l.std.Printf("%+v", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}

// Close flushes pending rollbar reports.
func (l RollbarLogger) Close() {
	rollbar.Close()
}
