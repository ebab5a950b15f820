package inmemdb

import (
	"context"

	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/student"
)

type loo7Repository struct {
	db *DB
}

var _ loo7.Repository = (*loo7Repository)(nil)

func NewLoo7Repository(db *DB) loo7.Repository {
	return &loo7Repository{db: db}
}

func (repo *loo7Repository) GetLoo7(_ context.Context, ownerID, id string) (loo7.Loo7, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.loo7[id]; ok && r.OwnerID == ownerID {
		return r.Loo7, nil
	}
	return loo7.Loo7{}, loo7.ErrNotFound
}

func (repo *loo7Repository) GetAllLoo7(_ context.Context, ownerID string, filter loo7.QueryFilter) ([]loo7.Loo7, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.loo7Where(func(l loo7.Loo7) bool {
		return l.OwnerID == ownerID && filter.Match(l)
	}), nil
}

func (repo *loo7Repository) GetLoo7ByDate(_ context.Context, ownerID, date string) ([]loo7.Loo7, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.loo7Where(func(l loo7.Loo7) bool {
		return l.OwnerID == ownerID && l.RecitationDate == date
	}), nil
}

func (repo *loo7Repository) GetLoo7ByStudentAndDate(_ context.Context, ownerID, studentID, date string) ([]loo7.Loo7, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	loo7s := repo.db.loo7Where(func(l loo7.Loo7) bool {
		return l.OwnerID == ownerID && l.StudentID == studentID && l.RecitationDate == date
	})
	loo7.SortByType(loo7s)
	return loo7s, nil
}

func (repo *loo7Repository) CreateLoo7(_ context.Context, l loo7.Loo7) (loo7.Loo7, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s, ok := repo.db.student[l.StudentID]; !ok || s.OwnerID != l.OwnerID {
		return loo7.Loo7{}, student.ErrNotFound
	}
	repo.db.loo7[l.ID] = &loo7Row{seq: repo.db.next(), Loo7: l}
	return l, nil
}

func (repo *loo7Repository) UpdateLoo7(_ context.Context, l loo7.Loo7, ifStatus ...loo7.Status) (loo7.Loo7, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r, ok := repo.db.loo7[l.ID]
	if !ok || r.OwnerID != l.OwnerID {
		return loo7.Loo7{}, loo7.ErrNotFound
	}
	if !r.Status.In(ifStatus...) {
		return loo7.Loo7{}, loo7.ErrAlreadyEvaluated
	}
	l.CreatedAt = r.CreatedAt
	r.Loo7 = l
	return l, nil
}

func (repo *loo7Repository) DeleteLoo7(_ context.Context, ownerID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if r, ok := repo.db.loo7[id]; !ok || r.OwnerID != ownerID {
		return loo7.ErrNotFound
	}
	delete(repo.db.loo7, id)
	return nil
}
