package loo7_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/student"
	inmemdb "github.com/trezcool/loo7/storage/database/inmem"
	"github.com/trezcool/loo7/tests"
)

const owner = "sheikh-1"

var ctx = context.Background()

type env struct {
	svc      loo7.Service
	repo     loo7.Repository
	students student.Repository
	recorder *fakeRecorder
}

func setup(t *testing.T, wrap ...func(loo7.Repository) loo7.Repository) *env {
	t.Helper()
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	loo7.InitValidators(validate, translator)

	db := inmemdb.Open()
	e := &env{
		repo:     inmemdb.NewLoo7Repository(db),
		students: inmemdb.NewStudentRepository(db),
		recorder: new(fakeRecorder),
	}
	repo := e.repo
	for _, w := range wrap {
		repo = w(repo)
	}
	e.svc = loo7.NewService(repo, e.students, validate, core.NewNopLogger(), e.recorder)
	return e
}

type fakeRecorder struct {
	mu        sync.Mutex
	created   []loo7.Type
	evaluated []loo7.Score
	failed    int
}

func (r *fakeRecorder) Loo7Created(typ loo7.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, typ)
}

func (r *fakeRecorder) Loo7Evaluated(score loo7.Score) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluated = append(r.evaluated, score)
}

func (r *fakeRecorder) FollowUpFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

// failingFollowUps refuses to create repeat loo7, like a store going down between two writes.
type failingFollowUps struct {
	loo7.Repository
}

func (r failingFollowUps) CreateLoo7(ctx context.Context, l loo7.Loo7) (loo7.Loo7, error) {
	if l.RepeatOf != nil {
		return loo7.Loo7{}, errors.New("connection reset")
	}
	return r.Repository.CreateLoo7(ctx, l)
}

func fatiha(studentID, date string) loo7.NewLoo7 {
	return loo7.NewLoo7{
		StudentID:      studentID,
		Type:           loo7.TypeNew,
		RecitationDate: date,
		SurahNumber:    1,
		SurahName:      "الفاتحة",
		StartAyaNumber: 1,
		EndAyaNumber:   7,
	}
}

func (e *env) all(t *testing.T) []loo7.Loo7 {
	t.Helper()
	all, err := e.repo.GetAllLoo7(ctx, owner, loo7.QueryFilter{})
	require.NoError(t, err)
	return all
}

func TestService_Create(t *testing.T) {
	e := setup(t)
	s := testutil.CreateStudent(t, e.students, owner, "S1")

	l, err := e.svc.Create(ctx, owner, fatiha(s.ID, "2024-03-10"))
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, loo7.StatusPending, l.Status)
	assert.Nil(t, l.Score)
	assert.Nil(t, l.CompletedAt)
	assert.Nil(t, l.RepeatOf)
	assert.Equal(t, []loo7.Type{loo7.TypeNew}, e.recorder.created)

	t.Run("unknown student", func(t *testing.T) {
		_, err := e.svc.Create(ctx, owner, fatiha("nope", "2024-03-10"))
		assert.Equal(t, core.KindNotFound, core.ErrorKind(err))
	})

	t.Run("student of another sheikh", func(t *testing.T) {
		other := testutil.CreateStudent(t, e.students, "sheikh-2", "S2")
		_, err := e.svc.Create(ctx, owner, fatiha(other.ID, "2024-03-10"))
		assert.Equal(t, core.KindNotFound, core.ErrorKind(err))
	})

	t.Run("invalid input", func(t *testing.T) {
		inverted := fatiha(s.ID, "2024-03-10")
		inverted.StartAyaNumber, inverted.EndAyaNumber = 7, 1

		badType := fatiha(s.ID, "2024-03-10")
		badType.Type = "old"

		badDate := fatiha(s.ID, "10-03-2024")

		badSurah := fatiha(s.ID, "2024-03-10")
		badSurah.SurahNumber = 115

		for name, nl := range map[string]loo7.NewLoo7{
			"inverted range": inverted,
			"bad type":       badType,
			"bad date":       badDate,
			"bad surah":      badSurah,
			"missing fields": {},
		} {
			_, err := e.svc.Create(ctx, owner, nl)
			assert.Equal(t, core.KindValidation, core.ErrorKind(err), name)
		}
		assert.Len(t, e.all(t), 1)
	})

	t.Run("type is normalized", func(t *testing.T) {
		nl := fatiha(s.ID, "2024-03-10")
		nl.Type = " Far_Past "
		l, err := e.svc.Create(ctx, owner, nl)
		require.NoError(t, err)
		assert.Equal(t, loo7.TypeFarPast, l.Type)
	})
}

func TestService_Evaluate(t *testing.T) {
	t.Run("non repeat score", func(t *testing.T) {
		e := setup(t)
		s := testutil.CreateStudent(t, e.students, owner, "S1")
		l, err := e.svc.Create(ctx, owner, fatiha(s.ID, "2024-03-10"))
		require.NoError(t, err)

		got, err := e.svc.Evaluate(ctx, owner, l.ID, loo7.Evaluation{Score: loo7.ScoreWeak})
		require.NoError(t, err)
		assert.Equal(t, loo7.StatusCompleted, got.Status)
		require.NotNil(t, got.Score)
		assert.Equal(t, loo7.ScoreWeak, *got.Score)
		assert.NotNil(t, got.CompletedAt)
		assert.Nil(t, got.ScoreNotes)
		assert.Len(t, e.all(t), 1)
		assert.Equal(t, []loo7.Score{loo7.ScoreWeak}, e.recorder.evaluated)
	})

	tests := []struct {
		name     string
		date     string
		wantDate string
	}{
		{name: "repeat on sunday", date: "2024-03-10", wantDate: "2024-03-11"},
		{name: "repeat on thursday", date: "2024-03-14", wantDate: "2024-03-16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t)
			s := testutil.CreateStudent(t, e.students, owner, "S1")
			nl := fatiha(s.ID, tt.date)
			nl.Type = loo7.TypeNearPast
			l, err := e.svc.Create(ctx, owner, nl)
			require.NoError(t, err)

			notes := "  stumbled on aya 4 "
			got, err := e.svc.Evaluate(ctx, owner, l.ID, loo7.Evaluation{Score: "Repeat", ScoreNotes: &notes})
			require.NoError(t, err)
			require.NotNil(t, got.ScoreNotes)
			assert.Equal(t, "stumbled on aya 4", *got.ScoreNotes)

			followUps, err := e.repo.GetLoo7ByDate(ctx, owner, tt.wantDate)
			require.NoError(t, err)
			require.Len(t, followUps, 1)
			f := followUps[0]
			assert.Equal(t, loo7.StatusPending, f.Status)
			assert.Nil(t, f.Score)
			assert.Equal(t, s.ID, f.StudentID)
			assert.Equal(t, loo7.TypeNearPast, f.Type)
			assert.Equal(t, 1, f.SurahNumber)
			assert.Equal(t, "الفاتحة", f.SurahName)
			assert.Equal(t, 1, f.StartAyaNumber)
			assert.Equal(t, 7, f.EndAyaNumber)
			require.NotNil(t, f.RepeatOf)
			assert.Equal(t, l.ID, *f.RepeatOf)
			assert.Equal(t, []loo7.Type{loo7.TypeNearPast, loo7.TypeNearPast}, e.recorder.created)
		})
	}

	t.Run("repeat chains are unbounded", func(t *testing.T) {
		e := setup(t)
		s := testutil.CreateStudent(t, e.students, owner, "S1")
		l, err := e.svc.Create(ctx, owner, fatiha(s.ID, "2024-03-10"))
		require.NoError(t, err)

		id := l.ID
		for i := 0; i < 5; i++ {
			_, err := e.svc.Evaluate(ctx, owner, id, loo7.Evaluation{Score: loo7.ScoreRepeat})
			require.NoError(t, err)
			pending, err := e.repo.GetAllLoo7(ctx, owner, loo7.QueryFilter{Status: loo7.StatusPending})
			require.NoError(t, err)
			require.Len(t, pending, 1)
			require.Equal(t, id, *pending[0].RepeatOf)
			id = pending[0].ID
		}
		assert.Len(t, e.all(t), 6)
	})

	t.Run("already evaluated", func(t *testing.T) {
		e := setup(t)
		s := testutil.CreateStudent(t, e.students, owner, "S1")
		l, err := e.svc.Create(ctx, owner, fatiha(s.ID, "2024-03-10"))
		require.NoError(t, err)
		first, err := e.svc.Evaluate(ctx, owner, l.ID, loo7.Evaluation{Score: loo7.ScoreGood})
		require.NoError(t, err)

		_, err = e.svc.Evaluate(ctx, owner, l.ID, loo7.Evaluation{Score: loo7.ScoreRepeat})
		assert.Equal(t, core.KindInvalidState, core.ErrorKind(err))
		// an invalid score does not hide the state error
		_, err = e.svc.Evaluate(ctx, owner, l.ID, loo7.Evaluation{Score: "meh"})
		assert.Equal(t, core.KindInvalidState, core.ErrorKind(err))

		stored, err := e.repo.GetLoo7(ctx, owner, l.ID)
		require.NoError(t, err)
		assert.Equal(t, first, stored)
		assert.Len(t, e.all(t), 1)
	})

	t.Run("bad score leaves the loo7 pending", func(t *testing.T) {
		e := setup(t)
		s := testutil.CreateStudent(t, e.students, owner, "S1")
		l, err := e.svc.Create(ctx, owner, fatiha(s.ID, "2024-03-10"))
		require.NoError(t, err)

		_, err = e.svc.Evaluate(ctx, owner, l.ID, loo7.Evaluation{Score: "meh"})
		assert.Equal(t, core.KindValidation, core.ErrorKind(err))

		stored, err := e.repo.GetLoo7(ctx, owner, l.ID)
		require.NoError(t, err)
		assert.Equal(t, loo7.StatusPending, stored.Status)
		assert.Empty(t, e.recorder.evaluated)
	})

	t.Run("unknown or foreign loo7", func(t *testing.T) {
		e := setup(t)
		s := testutil.CreateStudent(t, e.students, owner, "S1")
		l, err := e.svc.Create(ctx, owner, fatiha(s.ID, "2024-03-10"))
		require.NoError(t, err)

		_, err = e.svc.Evaluate(ctx, owner, "nope", loo7.Evaluation{Score: "meh"})
		assert.Equal(t, core.KindNotFound, core.ErrorKind(err))
		_, err = e.svc.Evaluate(ctx, "sheikh-2", l.ID, loo7.Evaluation{Score: loo7.ScoreGood})
		assert.Equal(t, core.KindNotFound, core.ErrorKind(err))
	})

	t.Run("concurrent evaluations", func(t *testing.T) {
		e := setup(t)
		s := testutil.CreateStudent(t, e.students, owner, "S1")
		l, err := e.svc.Create(ctx, owner, fatiha(s.ID, "2024-03-10"))
		require.NoError(t, err)

		const n = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			oks  int
			errs []error
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := e.svc.Evaluate(ctx, owner, l.ID, loo7.Evaluation{Score: loo7.ScoreRepeat})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					oks++
				} else {
					errs = append(errs, err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, oks)
		for _, err := range errs {
			assert.Equal(t, core.KindInvalidState, core.ErrorKind(err))
		}
		// exactly one follow-up
		assert.Len(t, e.all(t), 2)
	})

	t.Run("follow-up failure keeps the evaluation", func(t *testing.T) {
		e := setup(t, func(r loo7.Repository) loo7.Repository { return failingFollowUps{r} })
		s := testutil.CreateStudent(t, e.students, owner, "S1")
		l, err := e.svc.Create(ctx, owner, fatiha(s.ID, "2024-03-10"))
		require.NoError(t, err)

		got, err := e.svc.Evaluate(ctx, owner, l.ID, loo7.Evaluation{Score: loo7.ScoreRepeat})
		require.NoError(t, err)
		assert.Equal(t, loo7.StatusCompleted, got.Status)
		assert.Len(t, e.all(t), 1)
		assert.Equal(t, 1, e.recorder.failed)
		assert.Equal(t, []loo7.Type{loo7.TypeNew}, e.recorder.created)
	})
}

func TestService_listings(t *testing.T) {
	e := setup(t)
	ali := testutil.CreateStudent(t, e.students, owner, "Ali")
	bilal := testutil.CreateStudent(t, e.students, owner, "Bilal")
	date := "2024-03-10"

	farPast := testutil.CreateLoo7(t, e.repo, ali, loo7.TypeFarPast, date)
	newL := testutil.CreateLoo7(t, e.repo, ali, loo7.TypeNew, date)
	nearPast := testutil.CreateLoo7(t, e.repo, ali, loo7.TypeNearPast, date)
	testutil.CreateLoo7(t, e.repo, ali, loo7.TypeNew, "2024-03-11")

	t.Run("by student and date is ordered by type", func(t *testing.T) {
		got, err := e.svc.ListByStudentAndDate(ctx, owner, ali.ID, date)
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, l := range got {
			ids = append(ids, l.ID)
		}
		assert.Equal(t, []string{newL.ID, nearPast.ID, farPast.ID}, ids)

		got, err = e.svc.ListByStudentAndDate(ctx, owner, bilal.ID, date)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := e.svc.ListByDate(ctx, owner, "yesterday")
		assert.Equal(t, core.KindValidation, core.ErrorKind(err))
		_, err = e.svc.ListByStudentAndDate(ctx, owner, ali.ID, "yesterday")
		assert.Equal(t, core.KindValidation, core.ErrorKind(err))
	})

	t.Run("daily rollup", func(t *testing.T) {
		_, err := e.svc.Evaluate(ctx, owner, newL.ID, loo7.Evaluation{Score: loo7.ScoreExcellent})
		require.NoError(t, err)
		_, err = e.svc.Evaluate(ctx, owner, nearPast.ID, loo7.Evaluation{Score: loo7.ScoreGood})
		require.NoError(t, err)

		rollup, err := e.svc.DailyRollup(ctx, owner, date)
		require.NoError(t, err)
		require.Len(t, rollup, 1)
		assert.Equal(t, ali.ID, rollup[0].Student.ID)
		assert.Equal(t, 3, rollup[0].Loo7Count)
		assert.Equal(t, 1, rollup[0].PendingCount)
		assert.False(t, rollup[0].Done())

		empty, err := e.svc.DailyRollup(ctx, owner, "2024-03-12")
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("query", func(t *testing.T) {
		got, err := e.svc.Query(ctx, owner, loo7.QueryFilter{Status: " PENDING ", From: date, To: date})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, farPast.ID, got[0].ID)

		_, err = e.svc.Query(ctx, owner, loo7.QueryFilter{From: "soon"})
		assert.Equal(t, core.KindValidation, core.ErrorKind(err))
		_, err = e.svc.Query(ctx, owner, loo7.QueryFilter{Status: "lost"})
		assert.Equal(t, core.KindValidation, core.ErrorKind(err))
	})
}

// Two loo7 for A on the same date (one pending, one completed) and none for B.
func TestService_DailyRollup_onlyStudentsWithLoo7(t *testing.T) {
	e := setup(t)
	a := testutil.CreateStudent(t, e.students, owner, "A")
	testutil.CreateStudent(t, e.students, owner, "B")

	done, err := e.svc.Create(ctx, owner, fatiha(a.ID, "2024-03-10"))
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, owner, fatiha(a.ID, "2024-03-10"))
	require.NoError(t, err)
	_, err = e.svc.Evaluate(ctx, owner, done.ID, loo7.Evaluation{Score: loo7.ScoreGood})
	require.NoError(t, err)

	rollup, err := e.svc.DailyRollup(ctx, owner, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, rollup, 1)
	assert.Equal(t, "A", rollup[0].Student.Name)
	assert.Equal(t, 2, rollup[0].Loo7Count)
	assert.Equal(t, 1, rollup[0].PendingCount)
}
