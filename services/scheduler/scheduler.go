package schedulersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/loo7/core"
)

// JobObserver records job runs, for metrics.
type JobObserver interface {
	ObserveJob(job string, d time.Duration, err error)
}

// Scheduler runs named jobs on cron schedules. A job still running when its next
// tick comes is skipped.
type Scheduler struct {
	cron     *cron.Cron
	logger   core.Logger
	observer JobObserver
	timeout  time.Duration
}

// New returns a Scheduler reading cron expressions in loc. Job panics and skipped runs
// are logged through logger.
func New(loc *time.Location, logger core.Logger, observer JobObserver) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:   logger,
		observer: observer,
		timeout:  5 * time.Minute,
	}
}

// Add registers fn under name. spec is a standard 5-field cron expression.
func (s *Scheduler) Add(name, spec string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
	return errors.Wrapf(err, "scheduling job %s (%q)", name, spec)
}

func (s *Scheduler) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	if s.observer != nil {
		s.observer.ObserveJob(name, time.Since(start), err)
	}
	if err != nil {
		s.logger.Error(fmt.Sprintf("job %s: %v", name, err), err)
		return
	}
	s.logger.Debug(fmt.Sprintf("job %s done in %s", name, time.Since(start)))
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running jobs, at most until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keyValues(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Sprintf("cron: %s: %v", msg, err), err, keyValues(keysAndValues))
}

func keyValues(kvs []interface{}) map[string]interface{} {
	extras := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		extras[fmt.Sprint(kvs[i])] = kvs[i+1]
	}
	return extras
}
