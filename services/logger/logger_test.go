package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/loo7/core/sheikh"
)

type reported struct {
	level, msg string
	args       []interface{}
}

type fakeReporter struct {
	entries []reported
	flushed int
}

func (r *fakeReporter) Report(level, msg string, args []interface{}) {
	r.entries = append(r.entries, reported{level, msg, args})
}

func (r *fakeReporter) Flush() { r.flushed++ }

func newTestLogger() (*Logger, *observer.ObservedLogs, *fakeReporter) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	rep := new(fakeReporter)
	return NewZapLogger(zap.New(obsCore), rep), logs, rep
}

func TestLogger_Fields(t *testing.T) {
	l, logs, rep := newTestLogger()
	s := sheikh.Sheikh{ID: "sheikh-1", Name: "Ahmad"}

	l.Info("evaluated", map[string]interface{}{"loo7": "l-1"}, s)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "evaluated", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "l-1", ctx["loo7"])
	assert.Equal(t, "sheikh-1", ctx["sheikh"])
	// info is not reported
	assert.Empty(t, rep.entries)
}

func TestLogger_ReportsWarningsAndErrors(t *testing.T) {
	l, logs, rep := newTestLogger()
	err := errors.New("boom")

	l.Debug("debug")
	l.Warn("careful")
	l.Error("failed", err)

	assert.Equal(t, 3, logs.Len())
	require.Len(t, rep.entries, 2)
	assert.Equal(t, LevelWarn, rep.entries[0].level)
	assert.Equal(t, LevelError, rep.entries[1].level)
	assert.Equal(t, "failed", rep.entries[1].msg)
	assert.Equal(t, []interface{}{err}, rep.entries[1].args)
	assert.Equal(t, "boom", logs.FilterMessage("failed").All()[0].ContextMap()["error"])
}

func TestLogger_Fatal(t *testing.T) {
	l, logs, rep := newTestLogger()
	var code int
	l.exit = func(c int) { code = c }

	l.Fatal("cannot start")

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, logs.FilterMessage("cannot start").Len())
	require.Len(t, rep.entries, 1)
	assert.Equal(t, LevelFatal, rep.entries[0].level)
	assert.Equal(t, 1, rep.flushed)
}
