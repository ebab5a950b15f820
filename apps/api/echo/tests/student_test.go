package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/student"
	"github.com/trezcool/loo7/tests"
)

func Test_studentApi_query(t *testing.T) {
	e := setup(t)
	sh := testutil.CreateSheikh(t, e.sheikhs, "g-1", "Sheikh Omar", "omar@test.cd")
	other := testutil.CreateSheikh(t, e.sheikhs, "g-2", "Sheikh Zaid", "zaid@test.cd")

	zaid := testutil.CreateStudent(t, e.students, sh.ID, "Zaid")
	ahmad := testutil.CreateStudent(t, e.students, sh.ID, "Ahmad")
	testutil.CreateStudent(t, e.students, other.ID, "Bilal")

	runHTTPTests(t, e.app, []httpTest{
		{name: "Auth required", path: "/api/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "sorted by name, own students only", path: "/api/students", token: getToken(t, e.conf, sh), wantData: marchallList(t, ahmad, zaid)},
		{name: "no students", path: "/api/students", token: getToken(t, e.conf, testutil.UnsavedSheikh("new")), wantData: marchallList(t)},
	})
}

func Test_studentApi_create(t *testing.T) {
	e := setup(t)
	sh := testutil.CreateSheikh(t, e.sheikhs, "g-1", "Sheikh Omar", "omar@test.cd")
	token := getToken(t, e.conf, sh)

	t.Run("invalid input", func(t *testing.T) {
		age := -3
		req, rec := newAuthRequest(http.MethodPost, "/api/students", token, marchallObj(t, student.NewStudent{Name: "   ", Age: &age}))
		e.app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp kindErr
		decode(t, rec, &resp)
		assert.Equal(t, core.KindValidation, resp.Kind)
		assert.Contains(t, resp.Fields, "name")
		assert.Contains(t, resp.Fields, "age")
	})

	t.Run("malformed body", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/students", token, []byte(`{"name": 42`))
		e.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("created", func(t *testing.T) {
		contact := " 0999 "
		req, rec := newAuthRequest(http.MethodPost, "/api/students", token, marchallObj(t, student.NewStudent{Name: " Yusuf ", Contact: &contact}))
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got student.Student
		decode(t, rec, &got)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Yusuf", got.Name)
		require.NotNil(t, got.Contact)
		assert.Equal(t, "0999", *got.Contact)

		saved, err := e.students.GetStudent(context.Background(), sh.ID, got.ID)
		require.NoError(t, err)
		assert.Equal(t, sh.ID, saved.OwnerID)
	})
}

func Test_studentApi_retrieveUpdate(t *testing.T) {
	e := setup(t)
	sh := testutil.CreateSheikh(t, e.sheikhs, "g-1", "Sheikh Omar", "omar@test.cd")
	other := testutil.CreateSheikh(t, e.sheikhs, "g-2", "Sheikh Zaid", "zaid@test.cd")
	s := testutil.CreateStudent(t, e.students, sh.ID, "Ali")
	token := getToken(t, e.conf, sh)
	notFound := marchallObj(t, kindErr{Kind: core.KindNotFound, Error: "student not found"})

	runHTTPTests(t, e.app, []httpTest{
		{name: "retrieve", path: "/api/students/" + s.ID, token: token, wantData: marchallObj(t, s)},
		{name: "unknown id", path: "/api/students/nope", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "other sheikh", path: "/api/students/" + s.ID, token: getToken(t, e.conf, other), wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "update unknown id", method: http.MethodPatch, path: "/api/students/nope", token: token,
			body: []byte(`{"name": "X"}`), wantCode: http.StatusNotFound, wantData: notFound,
		},
	})

	t.Run("partial update", func(t *testing.T) {
		updatedAt := time.Now().UTC().Add(time.Hour)
		restore := core.NowFunc
		core.NowFunc = func() time.Time { return updatedAt }
		defer func() { core.NowFunc = restore }()

		req, rec := newAuthRequest(http.MethodPatch, "/api/students/"+s.ID, token, []byte(`{"age": 12, "notes": "  hafiz juz 30 "}`))
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got student.Student
		decode(t, rec, &got)
		assert.Equal(t, "Ali", got.Name)
		require.NotNil(t, got.Age)
		assert.Equal(t, 12, *got.Age)
		require.NotNil(t, got.Notes)
		assert.Equal(t, "hafiz juz 30", *got.Notes)
		assert.True(t, got.UpdatedAt.Equal(updatedAt))
		assert.True(t, got.CreatedAt.Equal(s.CreatedAt))
	})

	t.Run("blank name rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/api/students/"+s.ID, token, []byte(`{"name": "  "}`))
		e.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_studentApi_destroy(t *testing.T) {
	e := setup(t)
	sh := testutil.CreateSheikh(t, e.sheikhs, "g-1", "Sheikh Omar", "omar@test.cd")
	token := getToken(t, e.conf, sh)
	ctx := context.Background()

	gone := testutil.CreateStudent(t, e.students, sh.ID, "Ali")
	kept := testutil.CreateStudent(t, e.students, sh.ID, "Umar")
	for _, typ := range loo7.Types {
		testutil.CreateLoo7(t, e.loo7s, gone, typ, "2026-10-17")
	}
	keptLoo7 := testutil.CreateLoo7(t, e.loo7s, kept, loo7.TypeNew, "2026-10-17")

	req, rec := newAuthRequest(http.MethodDelete, "/api/students/"+gone.ID, token)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := e.students.GetStudent(ctx, sh.ID, gone.ID)
	assert.True(t, core.IsNotFound(err))

	remaining, err := e.loo7s.GetAllLoo7(ctx, sh.ID, loo7.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []loo7.Loo7{keptLoo7}, remaining)

	req, rec = newAuthRequest(http.MethodDelete, "/api/students/"+gone.ID, token)
	e.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
