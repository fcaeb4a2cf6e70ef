package logsvc

import (
	"log"

	"github.com/trezcool/coursedash/core"
)

// StdLogger writes every entry to a std logger. Used by the CLI and tests.
type StdLogger struct {
	std *log.Logger
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std}
}

func (l StdLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("[%s] %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v", arg)
	}
}

func (l StdLogger) Debug(msg string, args ...interface{}) { l.print("debug", msg, args) }
func (l StdLogger) Info(msg string, args ...interface{})  { l.print("info", msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { l.print("warning", msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { l.print("error", msg, args) }

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	l.print("critical", msg, args)
	l.std.Fatal(msg)
}
