package logsvc

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/sheikh"
)

type SentryReporter struct{}

var _ Reporter = (*SentryReporter)(nil)

func NewSentryReporter(conf *core.Config) (*SentryReporter, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         conf.SentryDSN,
		Environment: conf.Env,
		Release:     conf.Build,
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing sentry")
	}
	return &SentryReporter{}, nil
}

var sentryLevels = map[string]sentry.Level{
	LevelDebug: sentry.LevelDebug,
	LevelInfo:  sentry.LevelInfo,
	LevelWarn:  sentry.LevelWarning,
	LevelError: sentry.LevelError,
	LevelFatal: sentry.LevelFatal,
}

// Report captures the first error in args, or msg when there is none.
func (r SentryReporter) Report(level, msg string, args []interface{}) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentryLevels[level])
		var captured error
		for _, arg := range args {
			switch a := arg.(type) {
			case sheikh.Sheikh:
				scope.SetUser(sentry.User{ID: a.ID, Email: a.Email, Username: a.Name})
			case map[string]interface{}:
				for k, v := range a {
					scope.SetExtra(k, v)
				}
			case error:
				if captured == nil {
					captured = a
				}
			}
		}
		if captured != nil {
			scope.SetExtra("message", msg)
			sentry.CaptureException(captured)
			return
		}
		sentry.CaptureMessage(msg)
	})
}

func (r SentryReporter) Flush() {
	sentry.Flush(2 * time.Second)
}
