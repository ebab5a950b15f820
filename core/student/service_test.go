package student_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/student"
	inmemdb "github.com/trezcool/loo7/storage/database/inmem"
)

func names(students []student.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.Name)
	}
	return out
}

func TestSortByName(t *testing.T) {
	latin := []student.Student{{Name: "zaid"}, {Name: "Ahmad"}, {Name: "bilal"}}
	student.SortByName(latin)
	assert.Equal(t, []string{"Ahmad", "bilal", "zaid"}, names(latin))

	arabic := []student.Student{{Name: "عمر"}, {Name: "يوسف"}, {Name: "أحمد"}, {Name: "بلال"}}
	student.SortByName(arabic)
	assert.Equal(t, []string{"أحمد", "بلال", "عمر", "يوسف"}, names(arabic))
}

func TestNewStudent_Validate(t *testing.T) {
	validate := validator.New()
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool { return fl.Field().String() != "" })

	blank := "   "
	ns := student.NewStudent{Name: "  Yusuf ", Contact: &blank}
	require.NoError(t, ns.Validate(validate))
	assert.Equal(t, "Yusuf", ns.Name)
	assert.Nil(t, ns.Contact)

	age := 151
	ns = student.NewStudent{Name: "Yusuf", Age: &age}
	assert.Error(t, ns.Validate(validate))
}

func TestService(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	svc := student.NewService(inmemdb.NewStudentRepository(db))

	created := time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
	restore := core.NowFunc
	core.NowFunc = func() time.Time { return created }
	defer func() { core.NowFunc = restore }()

	notes := "juz amma"
	s, err := svc.Create(ctx, "sheikh-1", student.NewStudent{Name: "Umar", Notes: &notes})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "sheikh-1", student.NewStudent{Name: "Ali"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "sheikh-2", student.NewStudent{Name: "Bilal"})
	require.NoError(t, err)

	t.Run("query is sorted and scoped", func(t *testing.T) {
		all, err := svc.QueryAll(ctx, "sheikh-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"Ali", "Umar"}, names(all))
	})

	t.Run("partial update", func(t *testing.T) {
		updated := created.Add(time.Hour)
		core.NowFunc = func() time.Time { return updated }

		empty := ""
		age := 9
		got, err := svc.Update(ctx, "sheikh-1", s.ID, student.UpdateStudent{Age: &age, Notes: &empty})
		require.NoError(t, err)
		assert.Equal(t, "Umar", got.Name)
		require.NotNil(t, got.Age)
		assert.Equal(t, 9, *got.Age)
		assert.Nil(t, got.Notes)
		assert.Equal(t, created, got.CreatedAt)
		assert.Equal(t, updated, got.UpdatedAt)
	})

	t.Run("other sheikh", func(t *testing.T) {
		_, err := svc.Get(ctx, "sheikh-2", s.ID)
		assert.True(t, core.IsNotFound(err))
		_, err = svc.Update(ctx, "sheikh-2", s.ID, student.UpdateStudent{})
		assert.True(t, core.IsNotFound(err))
		assert.True(t, core.IsNotFound(svc.Delete(ctx, "sheikh-2", s.ID)))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, "sheikh-1", s.ID))
		_, err := svc.Get(ctx, "sheikh-1", s.ID)
		assert.True(t, core.IsNotFound(err))
	})
}
