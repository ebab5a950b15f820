package student

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/trezcool/loo7/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("student not found")
)

type (
	// Repository persists students. Every method is scoped by the owning sheikh.
	Repository interface {
		GetStudent(ctx context.Context, ownerID, id string) (Student, error)
		QueryStudents(ctx context.Context, ownerID string) ([]Student, error)
		CreateStudent(ctx context.Context, s Student) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		// DeleteStudent deletes the student and all of its loo7.
		DeleteStudent(ctx context.Context, ownerID, id string) error
	}

	Service interface {
		Create(ctx context.Context, ownerID string, ns NewStudent) (Student, error)
		Get(ctx context.Context, ownerID, id string) (Student, error)
		QueryAll(ctx context.Context, ownerID string) ([]Student, error)
		Update(ctx context.Context, ownerID, id string, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, ownerID, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ownerID string, ns NewStudent) (Student, error) {
	now := core.NowFunc().UTC()
	s := Student{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      ns.Name,
		Age:       ns.Age,
		Contact:   ns.Contact,
		Notes:     ns.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s, err := svc.repo.CreateStudent(ctx, s)
	return s, errors.Wrap(err, "creating student")
}

func (svc *service) Get(ctx context.Context, ownerID, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, ownerID, id)
}

// QueryAll returns the owner's students sorted by name.
func (svc *service) QueryAll(ctx context.Context, ownerID string) ([]Student, error) {
	students, err := svc.repo.QueryStudents(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	SortByName(students)
	return students, nil
}

func (svc *service) Update(ctx context.Context, ownerID, id string, us UpdateStudent) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, ownerID, id)
	if err != nil {
		return Student{}, err
	}
	us.apply(&s)
	s.UpdatedAt = core.NowFunc().UTC()
	s, err = svc.repo.UpdateStudent(ctx, s)
	return s, errors.Wrap(err, "updating student")
}

func (svc *service) Delete(ctx context.Context, ownerID, id string) error {
	return svc.repo.DeleteStudent(ctx, ownerID, id)
}

// SortByName sorts students by name using Arabic collation, which also orders Latin names sensibly.
func SortByName(students []Student) {
	col := collate.New(language.Arabic, collate.IgnoreCase)
	sort.SliceStable(students, func(i, j int) bool {
		return col.CompareString(students[i].Name, students[j].Name) < 0
	})
}
