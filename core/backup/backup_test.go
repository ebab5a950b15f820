package backup_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/backup"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/student"
	inmemdb "github.com/trezcool/loo7/storage/database/inmem"
	"github.com/trezcool/loo7/tests"
)

func TestTakeAndWorkbook(t *testing.T) {
	exported := time.Date(2026, time.October, 17, 22, 30, 0, 0, time.UTC)
	restore := core.NowFunc
	core.NowFunc = func() time.Time { return exported }
	defer func() { core.NowFunc = restore }()

	db := inmemdb.Open()
	students := inmemdb.NewStudentRepository(db)
	loo7s := inmemdb.NewLoo7Repository(db)

	ali := testutil.CreateStudent(t, students, "sheikh-1", "Ali", exported.Add(-time.Hour))
	testutil.CreateStudent(t, students, "sheikh-2", "Hidden")
	pending := testutil.CreateLoo7(t, loo7s, ali, loo7.TypeNew, "2026-10-17")
	done := testutil.Completed(testutil.CreateLoo7(t, loo7s, ali, loo7.TypeFarPast, "2026-10-17"), loo7.ScoreGood)
	_, err := loo7s.UpdateLoo7(context.Background(), done)
	require.NoError(t, err)

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	loo7.InitValidators(validate, translator)

	snap, err := backup.Take(
		context.Background(),
		student.NewService(students),
		loo7.NewService(loo7s, students, validate, core.NewNopLogger(), nil),
		"sheikh-1",
	)
	require.NoError(t, err)
	assert.Equal(t, exported, snap.ExportedAt)
	require.Len(t, snap.Students, 1)
	require.Len(t, snap.Loo7s, 2)
	assert.Equal(t, "loo7-backup-2026-10-17", snap.Filename())

	kinshasa := time.FixedZone("WAT", 60*60)
	f, err := snap.Workbook(kinshasa)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{backup.StudentsSheet, backup.Loo7Sheet}, f.GetSheetList())

	rows, err := f.GetRows(backup.StudentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ID", "Name", "Age", "Contact", "Notes", "Created"}, rows[0])
	// created 21:30 UTC is 22:30 in Kinshasa
	assert.Equal(t, []string{ali.ID, "Ali", "", "", "", "2026-10-17 22:30:00"}, rows[1])

	rows, err = f.GetRows(backup.Loo7Sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	byID := map[string][]string{rows[1][0]: rows[1], rows[2][0]: rows[2]}

	p := byID[pending.ID]
	require.NotNil(t, p)
	assert.Equal(t, []string{pending.ID, "Ali", "new", "2026-10-17", "1", "الفاتحة", "1", "7", "pending"}, p)

	c := byID[done.ID]
	require.Len(t, c, 12)
	assert.Equal(t, "completed", c[8])
	assert.Equal(t, "good", c[9])
	assert.NotEmpty(t, c[11])
}
