package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/loo7/core/sheikh"
)

type sheikhRepository struct {
	db *DB
}

var _ sheikh.Repository = (*sheikhRepository)(nil)

func NewSheikhRepository(db *DB) sheikh.Repository {
	return &sheikhRepository{db: db}
}

func (repo *sheikhRepository) GetSheikh(_ context.Context, id string) (sheikh.Sheikh, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.sheikh[id]; ok {
		return r.Sheikh, nil
	}
	return sheikh.Sheikh{}, sheikh.ErrNotFound
}

func (repo *sheikhRepository) GetSheikhByGoogleID(_ context.Context, googleID string) (sheikh.Sheikh, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, r := range repo.db.sheikh {
		if r.GoogleID == googleID {
			return r.Sheikh, nil
		}
	}
	return sheikh.Sheikh{}, sheikh.ErrNotFound
}

func (repo *sheikhRepository) QuerySheikhs(_ context.Context) ([]sheikh.Sheikh, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]*sheikhRow, 0, len(repo.db.sheikh))
	for _, r := range repo.db.sheikh {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	sheikhs := make([]sheikh.Sheikh, 0, len(rows))
	for _, r := range rows {
		sheikhs = append(sheikhs, r.Sheikh)
	}
	return sheikhs, nil
}

func (repo *sheikhRepository) CreateSheikh(_ context.Context, s sheikh.Sheikh) (sheikh.Sheikh, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.sheikh[s.ID] = &sheikhRow{seq: repo.db.next(), Sheikh: s}
	return s, nil
}

func (repo *sheikhRepository) UpdateSheikh(_ context.Context, s sheikh.Sheikh) (sheikh.Sheikh, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r, ok := repo.db.sheikh[s.ID]
	if !ok {
		return sheikh.Sheikh{}, sheikh.ErrNotFound
	}
	s.CreatedAt = r.CreatedAt
	r.Sheikh = s
	return s, nil
}
