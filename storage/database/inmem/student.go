package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/loo7/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) GetStudent(_ context.Context, ownerID, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.student[id]; ok && r.OwnerID == ownerID {
		return r.Student, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, ownerID string) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]*studentRow, 0)
	for _, r := range repo.db.student {
		if r.OwnerID == ownerID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.Student)
	}
	return students, nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.student[s.ID] = &studentRow{seq: repo.db.next(), Student: s}
	return s, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r, ok := repo.db.student[s.ID]
	if !ok || r.OwnerID != s.OwnerID {
		return student.Student{}, student.ErrNotFound
	}
	s.CreatedAt = r.CreatedAt
	r.Student = s
	return s, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, ownerID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	r, ok := repo.db.student[id]
	if !ok || r.OwnerID != ownerID {
		return student.ErrNotFound
	}
	delete(repo.db.student, id)
	for lid, l := range repo.db.loo7 {
		if l.StudentID == id {
			delete(repo.db.loo7, lid)
		}
	}
	return nil
}
