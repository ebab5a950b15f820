package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/sheikh"
)

type RollbarReporter struct{}

var _ Reporter = (*RollbarReporter)(nil)

func NewRollbarReporter(conf *core.Config) *RollbarReporter {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Address)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarReporter{}
}

func (r RollbarReporter) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, sheikh.Sheikh
func (r RollbarReporter) prepare(msg string, args []interface{}) []interface{} {
	var personSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		// set logged in Sheikh
		if s, ok := arg.(sheikh.Sheikh); ok {
			if !personSet { // only set one Sheikh
				rollbar.SetPerson(s.ID, s.Name, s.Email)
				personSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (r RollbarReporter) Report(level, msg string, args []interface{}) {
	rollbar.Log(level, r.prepare(msg, args)...)
}

func (r RollbarReporter) Flush() {
	rollbar.Wait()
}
