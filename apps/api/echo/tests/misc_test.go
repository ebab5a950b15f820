package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	echoapi "github.com/trezcool/loo7/apps/api/echo"
	"github.com/trezcool/loo7/core/backup"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/tests"
)

func Test_home(t *testing.T) {
	e := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	e.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Loo7 API!", rec.Body.String())
}

func Test_health(t *testing.T) {
	e := setup(t)

	runHTTPTests(t, e.app, []httpTest{
		{name: "store up", path: "/healthz", wantData: marchallObj(t, echoapi.HealthResponse{Status: "ok"})},
	})

	e.health.err = errors.New("connection refused")
	runHTTPTests(t, e.app, []httpTest{
		{
			name: "store down", path: "/healthz", wantCode: http.StatusServiceUnavailable,
			wantData: marchallObj(t, echoapi.HealthResponse{Status: "unavailable", Error: "store unreachable"}),
		},
	})
}

func Test_metrics(t *testing.T) {
	e := setup(t)

	// one unauthenticated call, so the request counter has a sample
	req, rec := newRequest(http.MethodGet, "/api/students")
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req, rec = newRequest(http.MethodGet, "/metrics")
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `loo7_http_requests_total{method="GET",route="/api/students",status="401"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func Test_backupApi_export(t *testing.T) {
	e := setup(t)
	sh := testutil.CreateSheikh(t, e.sheikhs, "g-1", "Sheikh Omar", "omar@test.cd")
	other := testutil.CreateSheikh(t, e.sheikhs, "g-2", "Sheikh Zaid", "zaid@test.cd")

	s := testutil.CreateStudent(t, e.students, sh.ID, "Ali", at(0))
	l1 := testutil.CreateLoo7(t, e.loo7s, s, loo7.TypeNew, thursday, at(1))
	l2 := testutil.CreateLoo7(t, e.loo7s, s, loo7.TypeFarPast, saturday, at(2))
	hidden := testutil.CreateStudent(t, e.students, other.ID, "Hidden", at(3))
	testutil.CreateLoo7(t, e.loo7s, hidden, loo7.TypeNew, thursday, at(4))

	req, rec := newAuthRequest(http.MethodGet, "/api/backup", getToken(t, e.conf, sh))
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=\"loo7-backup-")

	var snap backup.Snapshot
	decode(t, rec, &snap)
	require.Len(t, snap.Students, 1)
	assert.Equal(t, s.ID, snap.Students[0].ID)
	require.Len(t, snap.Loo7s, 2)
	assert.Equal(t, l1.ID, snap.Loo7s[0].ID)
	assert.Equal(t, l2.ID, snap.Loo7s[1].ID)

	// the listing is scoped: the other sheikh only sees their own records
	ls, err := e.loo7s.GetAllLoo7(context.Background(), other.ID, loo7.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, ls, 1)
}

func Test_backupApi_exportXLSX(t *testing.T) {
	e := setup(t)
	sh := testutil.CreateSheikh(t, e.sheikhs, "g-1", "Sheikh Omar", "omar@test.cd")
	token := getToken(t, e.conf, sh)

	s := testutil.CreateStudent(t, e.students, sh.ID, "Ali", at(0))
	l := testutil.CreateLoo7(t, e.loo7s, s, loo7.TypeNearPast, thursday, at(1))

	req, rec := newAuthRequest(http.MethodGet, "/api/backup?format=xlsx", token)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(backup.Loo7Sheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{l.ID, "Ali", "near_past", thursday}, rows[1][:4])

	runHTTPTests(t, e.app, []httpTest{
		{name: "unknown format", path: "/api/backup?format=pdf", token: token, wantCode: http.StatusBadRequest},
	})
}
