package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/user"
)

// RollbarLogger mirrors every entry to rollbar and the standard logger. A
// user.User found among the args becomes the rollbar person, so content and
// tutoring failures can be traced back to the affected profile.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetCustom(map[string]interface{}{"app": conf.AppName})
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (rl RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected args: error, map[string]interface{}, user.User
func (rl RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	payload := make([]interface{}, 0, len(args)+1)
	payload = append(payload, msg)

	var personSet bool
	for _, arg := range args {
		usr, ok := arg.(user.User)
		if !ok {
			payload = append(payload, arg)
			continue
		}
		if personSet { // only the first User becomes the person
			continue
		}
		rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
		payload = append(payload, map[string]interface{}{"role": usr.Role})
		personSet = true
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return payload
}

func (rl RollbarLogger) echo(msg string, args []interface{}) {
	rl.std.Println(msg)
	for _, arg := range args {
		rl.std.Printf("%+v\n", arg)
	}
}

func (rl RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(rl.prepare(msg, args)...)
	rl.echo(msg, args)
}

func (rl RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(rl.prepare(msg, args)...)
	rl.echo(msg, args)
}

func (rl RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(rl.prepare(msg, args)...)
	rl.echo(msg, args)
}

func (rl RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(rl.prepare(msg, args)...)
	rl.echo(msg, args)
}

func (rl RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(rl.prepare(msg, args)...)
	rl.echo(msg, args)
	rl.std.Fatal(msg)
}
