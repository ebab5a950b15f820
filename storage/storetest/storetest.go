// Package storetest holds the behaviour every storage backend must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/sheikh"
	"github.com/trezcool/loo7/core/student"
	testutil "github.com/trezcool/loo7/tests"
)

type Repos struct {
	Sheikhs  sheikh.Repository
	Students student.Repository
	Loo7s    loo7.Repository
}

// Run runs the suite. newRepos must return repositories over an empty store.
func Run(t *testing.T, newRepos func(t *testing.T) Repos) {
	tests := []struct {
		name string
		fn   func(t *testing.T, r Repos)
	}{
		{"Sheikhs", testSheikhs},
		{"StudentsAreScopedByOwner", testStudentsScoped},
		{"UpdateStudent", testUpdateStudent},
		{"CreateLoo7UnknownStudent", testCreateLoo7UnknownStudent},
		{"Loo7IsScopedByOwner", testLoo7Scoped},
		{"ListByDate", testListByDate},
		{"ListByStudentAndDate", testListByStudentAndDate},
		{"SameCreatedAtKeepsInsertionOrder", testSameCreatedAt},
		{"QueryFilter", testQueryFilter},
		{"ConditionalUpdate", testConditionalUpdate},
		{"ConcurrentConditionalUpdate", testConcurrentConditionalUpdate},
		{"DeleteLoo7", testDeleteLoo7},
		{"DeleteStudentCascades", testDeleteStudentCascades},
		{"WithinTx", testWithinTx},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newRepos(t))
		})
	}
}

var (
	ctx  = context.Background()
	base = time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func ids(loo7s []loo7.Loo7) []string {
	out := make([]string, 0, len(loo7s))
	for _, l := range loo7s {
		out = append(out, l.ID)
	}
	return out
}

func testSheikhs(t *testing.T, r Repos) {
	s := testutil.CreateSheikh(t, r.Sheikhs, "google-1", "Sheikh Ahmad", "ahmad@example.com")

	got, err := r.Sheikhs.GetSheikhByGoogleID(ctx, "google-1")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "google-1", got.GoogleID)

	_, err = r.Sheikhs.GetSheikhByGoogleID(ctx, "google-2")
	assert.Equal(t, sheikh.ErrNotFound, err)
	_, err = r.Sheikhs.GetSheikh(ctx, "nope")
	assert.Equal(t, sheikh.ErrNotFound, err)

	got.Name = "Sheikh Ahmad Ali"
	got.UpdatedAt = time.Now().UTC()
	upd, err := r.Sheikhs.UpdateSheikh(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Sheikh Ahmad Ali", upd.Name)

	all, err := r.Sheikhs.QuerySheikhs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Sheikh Ahmad Ali", all[0].Name)
}

func testStudentsScoped(t *testing.T, r Repos) {
	a := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar", at(0))
	b := testutil.CreateStudent(t, r.Students, "sheikh-a", "Ali", at(1))
	testutil.CreateStudent(t, r.Students, "sheikh-b", "Yusuf", at(2))

	got, err := r.Students.GetStudent(ctx, "sheikh-a", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Omar", got.Name)
	assert.True(t, at(0).Equal(got.CreatedAt))

	_, err = r.Students.GetStudent(ctx, "sheikh-b", a.ID)
	assert.Equal(t, student.ErrNotFound, err)

	list, err := r.Students.QueryStudents(ctx, "sheikh-a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	list, err = r.Students.QueryStudents(ctx, "sheikh-c")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testUpdateStudent(t *testing.T, r Repos) {
	s := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar", at(0))
	age := 12
	notes := "memorizing Juz Amma"
	s.Name = "Omar Farouk"
	s.Age = &age
	s.Notes = &notes
	s.UpdatedAt = at(5)

	upd, err := r.Students.UpdateStudent(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "Omar Farouk", upd.Name)
	require.NotNil(t, upd.Age)
	assert.Equal(t, 12, *upd.Age)
	require.NotNil(t, upd.Notes)
	assert.Nil(t, upd.Contact)

	s.OwnerID = "sheikh-b"
	_, err = r.Students.UpdateStudent(ctx, s)
	assert.Equal(t, student.ErrNotFound, err)
}

func testCreateLoo7UnknownStudent(t *testing.T, r Repos) {
	s := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	other := s
	other.OwnerID = "sheikh-b"

	for _, st := range []student.Student{{ID: "missing", OwnerID: "sheikh-a"}, other} {
		_, err := r.Loo7s.CreateLoo7(ctx, loo7.Loo7{
			ID:             "l-" + st.OwnerID + st.ID,
			OwnerID:        st.OwnerID,
			StudentID:      st.ID,
			Type:           loo7.TypeNew,
			RecitationDate: "2024-03-05",
			SurahNumber:    1,
			SurahName:      "الفاتحة",
			StartAyaNumber: 1,
			EndAyaNumber:   7,
			Status:         loo7.StatusPending,
			CreatedAt:      base,
		})
		assert.True(t, core.IsNotFound(err), "got %v", err)
	}
}

func testLoo7Scoped(t *testing.T, r Repos) {
	s := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	l := testutil.CreateLoo7(t, r.Loo7s, s, loo7.TypeNew, "2024-03-05", at(0))

	got, err := r.Loo7s.GetLoo7(ctx, "sheikh-a", l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
	assert.Equal(t, s.ID, got.StudentID)
	assert.Equal(t, loo7.StatusPending, got.Status)
	assert.Nil(t, got.Score)
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.RepeatOf)
	assert.True(t, at(0).Equal(got.CreatedAt))

	_, err = r.Loo7s.GetLoo7(ctx, "sheikh-b", l.ID)
	assert.Equal(t, loo7.ErrNotFound, err)

	list, err := r.Loo7s.GetLoo7ByDate(ctx, "sheikh-b", "2024-03-05")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testListByDate(t *testing.T, r Repos) {
	omar := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	ali := testutil.CreateStudent(t, r.Students, "sheikh-a", "Ali")
	l1 := testutil.CreateLoo7(t, r.Loo7s, omar, loo7.TypeFarPast, "2024-03-05", at(0))
	l2 := testutil.CreateLoo7(t, r.Loo7s, ali, loo7.TypeNew, "2024-03-05", at(1))
	testutil.CreateLoo7(t, r.Loo7s, ali, loo7.TypeNew, "2024-03-06", at(2))
	l4 := testutil.CreateLoo7(t, r.Loo7s, omar, loo7.TypeNew, "2024-03-05", at(3))

	list, err := r.Loo7s.GetLoo7ByDate(ctx, "sheikh-a", "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, []string{l1.ID, l2.ID, l4.ID}, ids(list))

	list, err = r.Loo7s.GetLoo7ByDate(ctx, "sheikh-a", "2024-03-07")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func testListByStudentAndDate(t *testing.T, r Repos) {
	s := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	far := testutil.CreateLoo7(t, r.Loo7s, s, loo7.TypeFarPast, "2024-03-05", at(0))
	new1 := testutil.CreateLoo7(t, r.Loo7s, s, loo7.TypeNew, "2024-03-05", at(1))
	near := testutil.CreateLoo7(t, r.Loo7s, s, loo7.TypeNearPast, "2024-03-05", at(2))
	new2 := testutil.CreateLoo7(t, r.Loo7s, s, loo7.TypeNew, "2024-03-05", at(3))
	testutil.CreateLoo7(t, r.Loo7s, s, loo7.TypeNew, "2024-03-06", at(4))

	list, err := r.Loo7s.GetLoo7ByStudentAndDate(ctx, "sheikh-a", s.ID, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, []string{new1.ID, new2.ID, near.ID, far.ID}, ids(list))
}

func testSameCreatedAt(t *testing.T, r Repos) {
	s := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	// a follow-up chain is written within one instant
	var want []string
	for i := 0; i < 6; i++ {
		typ := loo7.TypeNew
		if i%2 == 1 {
			typ = loo7.TypeNearPast
		}
		want = append(want, testutil.CreateLoo7(t, r.Loo7s, s, typ, "2024-03-05", at(0)).ID)
	}

	list, err := r.Loo7s.GetLoo7ByDate(ctx, "sheikh-a", "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, want, ids(list))

	list, err = r.Loo7s.GetAllLoo7(ctx, "sheikh-a", loo7.QueryFilter{StudentID: s.ID})
	require.NoError(t, err)
	assert.Equal(t, want, ids(list))

	// an evaluation keeps the loo7 in place
	l, err := r.Loo7s.GetLoo7(ctx, "sheikh-a", want[0])
	require.NoError(t, err)
	_, err = r.Loo7s.UpdateLoo7(ctx, testutil.Completed(l, loo7.ScoreGood), loo7.StatusPending)
	require.NoError(t, err)

	list, err = r.Loo7s.GetLoo7ByStudentAndDate(ctx, "sheikh-a", s.ID, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, []string{want[0], want[2], want[4], want[1], want[3], want[5]}, ids(list))
}

func testQueryFilter(t *testing.T, r Repos) {
	omar := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	ali := testutil.CreateStudent(t, r.Students, "sheikh-a", "Ali")
	l1 := testutil.CreateLoo7(t, r.Loo7s, omar, loo7.TypeNew, "2024-03-02", at(0))
	l2 := testutil.CreateLoo7(t, r.Loo7s, omar, loo7.TypeNew, "2024-03-04", at(1))
	l3 := testutil.CreateLoo7(t, r.Loo7s, ali, loo7.TypeNew, "2024-03-05", at(2))
	_, err := r.Loo7s.UpdateLoo7(ctx, testutil.Completed(l2, loo7.ScoreGood))
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter loo7.QueryFilter
		want   []string
	}{
		{"all", loo7.QueryFilter{}, []string{l1.ID, l2.ID, l3.ID}},
		{"student", loo7.QueryFilter{StudentID: omar.ID}, []string{l1.ID, l2.ID}},
		{"from", loo7.QueryFilter{From: "2024-03-04"}, []string{l2.ID, l3.ID}},
		{"to", loo7.QueryFilter{To: "2024-03-04"}, []string{l1.ID, l2.ID}},
		{"range", loo7.QueryFilter{From: "2024-03-03", To: "2024-03-04"}, []string{l2.ID}},
		{"pending", loo7.QueryFilter{Status: loo7.StatusPending}, []string{l1.ID, l3.ID}},
		{"completed", loo7.QueryFilter{Status: loo7.StatusCompleted, StudentID: omar.ID}, []string{l2.ID}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			list, err := r.Loo7s.GetAllLoo7(ctx, "sheikh-a", tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(list))
		})
	}
}

func testConditionalUpdate(t *testing.T, r Repos) {
	s := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	l := testutil.CreateLoo7(t, r.Loo7s, s, loo7.TypeNew, "2024-03-05", at(0))
	notes := "smooth"
	done := testutil.Completed(l, loo7.ScoreExcellent)
	done.ScoreNotes = &notes

	upd, err := r.Loo7s.UpdateLoo7(ctx, done, loo7.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, loo7.StatusCompleted, upd.Status)
	require.NotNil(t, upd.Score)
	assert.Equal(t, loo7.ScoreExcellent, *upd.Score)
	require.NotNil(t, upd.CompletedAt)
	assert.True(t, at(0).Equal(upd.CreatedAt))

	_, err = r.Loo7s.UpdateLoo7(ctx, done, loo7.StatusPending)
	assert.Equal(t, loo7.ErrAlreadyEvaluated, err)

	missing := done
	missing.ID = "missing"
	_, err = r.Loo7s.UpdateLoo7(ctx, missing, loo7.StatusPending)
	assert.Equal(t, loo7.ErrNotFound, err)

	foreign := done
	foreign.OwnerID = "sheikh-b"
	_, err = r.Loo7s.UpdateLoo7(ctx, foreign, loo7.StatusPending)
	assert.Equal(t, loo7.ErrNotFound, err)
}

func testConcurrentConditionalUpdate(t *testing.T, r Repos) {
	s := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	l := testutil.CreateLoo7(t, r.Loo7s, s, loo7.TypeNew, "2024-03-05", at(0))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Loo7s.UpdateLoo7(ctx, testutil.Completed(l, loo7.ScoreGood), loo7.StatusPending)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.Equal(t, loo7.ErrAlreadyEvaluated, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}

func testDeleteLoo7(t *testing.T, r Repos) {
	s := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	l := testutil.CreateLoo7(t, r.Loo7s, s, loo7.TypeNew, "2024-03-05")

	assert.Equal(t, loo7.ErrNotFound, r.Loo7s.DeleteLoo7(ctx, "sheikh-b", l.ID))
	require.NoError(t, r.Loo7s.DeleteLoo7(ctx, "sheikh-a", l.ID))
	assert.Equal(t, loo7.ErrNotFound, r.Loo7s.DeleteLoo7(ctx, "sheikh-a", l.ID))

	_, err := r.Loo7s.GetLoo7(ctx, "sheikh-a", l.ID)
	assert.Equal(t, loo7.ErrNotFound, err)
}

func testDeleteStudentCascades(t *testing.T, r Repos) {
	omar := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	ali := testutil.CreateStudent(t, r.Students, "sheikh-a", "Ali")
	gone1 := testutil.CreateLoo7(t, r.Loo7s, omar, loo7.TypeNew, "2024-03-05", at(0))
	gone2 := testutil.CreateLoo7(t, r.Loo7s, omar, loo7.TypeFarPast, "2024-03-06", at(1))
	kept := testutil.CreateLoo7(t, r.Loo7s, ali, loo7.TypeNew, "2024-03-05", at(2))

	assert.Equal(t, student.ErrNotFound, r.Students.DeleteStudent(ctx, "sheikh-b", omar.ID))
	require.NoError(t, r.Students.DeleteStudent(ctx, "sheikh-a", omar.ID))
	assert.Equal(t, student.ErrNotFound, r.Students.DeleteStudent(ctx, "sheikh-a", omar.ID))

	for _, id := range []string{gone1.ID, gone2.ID} {
		_, err := r.Loo7s.GetLoo7(ctx, "sheikh-a", id)
		assert.Equal(t, loo7.ErrNotFound, err)
	}
	list, err := r.Loo7s.GetAllLoo7(ctx, "sheikh-a", loo7.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, ids(list))
}

func testWithinTx(t *testing.T, r Repos) {
	tx, ok := r.Loo7s.(loo7.Transactor)
	if !ok {
		t.Skip("backend has no transactions")
	}
	s := testutil.CreateStudent(t, r.Students, "sheikh-a", "Omar")
	l := testutil.CreateLoo7(t, r.Loo7s, s, loo7.TypeNew, "2024-03-05", at(0))

	// the follow-up fails on an unknown student so the evaluation must roll back
	err := tx.WithinTx(ctx, func(repo loo7.Repository) error {
		if _, err := repo.UpdateLoo7(ctx, testutil.Completed(l, loo7.ScoreRepeat), loo7.StatusPending); err != nil {
			return err
		}
		followUp := l
		followUp.ID = "follow-up"
		followUp.StudentID = "missing"
		_, err := repo.CreateLoo7(ctx, followUp)
		return err
	})
	assert.True(t, core.IsNotFound(err), "got %v", err)

	got, err := r.Loo7s.GetLoo7(ctx, "sheikh-a", l.ID)
	require.NoError(t, err)
	assert.Equal(t, loo7.StatusPending, got.Status)
}
