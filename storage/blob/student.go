package blob

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core/student"
)

type (
	studentRepository struct {
		store *Store
	}

	studentRecord struct {
		ID        string    `json:"id"`
		OwnerID   string    `json:"ownerId"`
		Name      string    `json:"name"`
		Age       *int      `json:"age,omitempty"`
		Contact   *string   `json:"contact,omitempty"`
		Notes     *string   `json:"notes,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(store *Store) student.Repository {
	return &studentRepository{store: store}
}

func (repo *studentRepository) GetStudent(ctx context.Context, ownerID, id string) (student.Student, error) {
	var rec studentRecord
	if err := repo.store.get(ctx, studentKey(ownerID, id), &rec); err != nil {
		if err == ErrNotExist {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, err
	}
	return student.Student(rec), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, ownerID string) ([]student.Student, error) {
	students := make([]student.Student, 0)
	err := scan(ctx, repo.store, studentPrefix(ownerID), func(rec studentRecord) error {
		students = append(students, student.Student(rec))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning students")
	}
	sort.SliceStable(students, func(i, j int) bool {
		if !students[i].CreatedAt.Equal(students[j].CreatedAt) {
			return students[i].CreatedAt.Before(students[j].CreatedAt)
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if err := repo.store.put(ctx, studentKey(s.OwnerID, s.ID), studentRecord(s)); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	old, err := repo.GetStudent(ctx, s.OwnerID, s.ID)
	if err != nil {
		return student.Student{}, err
	}
	s.CreatedAt = old.CreatedAt
	if err = repo.store.put(ctx, studentKey(s.OwnerID, s.ID), studentRecord(s)); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

// DeleteStudent removes the student first so no new loo7 can reference it, then its loo7.
func (repo *studentRepository) DeleteStudent(ctx context.Context, ownerID, id string) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	key := studentKey(ownerID, id)
	ok, err := repo.store.exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return student.ErrNotFound
	}
	if err = repo.store.bucket.Delete(ctx, key); err != nil {
		return errors.Wrap(err, "deleting student")
	}

	var orphans []string
	err = scan(ctx, repo.store, loo7Prefix(ownerID), func(rec loo7Record) error {
		if rec.StudentID == id {
			orphans = append(orphans, loo7Key(ownerID, rec.ID))
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "scanning student loo7")
	}
	for _, k := range orphans {
		if err = repo.store.bucket.Delete(ctx, k); err != nil {
			return errors.Wrap(err, "deleting student loo7")
		}
	}
	return nil
}
