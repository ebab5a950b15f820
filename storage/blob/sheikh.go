package blob

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core/sheikh"
)

type (
	sheikhRepository struct {
		store *Store
	}

	sheikhRecord struct {
		ID              string    `json:"id"`
		GoogleID        string    `json:"googleId"`
		Email           string    `json:"email"`
		Name            string    `json:"name"`
		ProfileImageURL *string   `json:"profileImageUrl,omitempty"`
		CreatedAt       time.Time `json:"createdAt"`
		UpdatedAt       time.Time `json:"updatedAt"`
	}
)

var _ sheikh.Repository = (*sheikhRepository)(nil)

func NewSheikhRepository(store *Store) sheikh.Repository {
	return &sheikhRepository{store: store}
}

func (r sheikhRecord) toSheikh() sheikh.Sheikh {
	return sheikh.Sheikh(r)
}

func (repo *sheikhRepository) GetSheikh(ctx context.Context, id string) (sheikh.Sheikh, error) {
	var rec sheikhRecord
	if err := repo.store.get(ctx, sheikhKey(id), &rec); err != nil {
		if err == ErrNotExist {
			return sheikh.Sheikh{}, sheikh.ErrNotFound
		}
		return sheikh.Sheikh{}, err
	}
	return rec.toSheikh(), nil
}

func (repo *sheikhRepository) GetSheikhByGoogleID(ctx context.Context, googleID string) (sheikh.Sheikh, error) {
	var found *sheikhRecord
	err := scan(ctx, repo.store, sheikhKey(""), func(rec sheikhRecord) error {
		if rec.GoogleID == googleID {
			found = &rec
		}
		return nil
	})
	if err != nil {
		return sheikh.Sheikh{}, errors.Wrap(err, "scanning sheikhs")
	}
	if found == nil {
		return sheikh.Sheikh{}, sheikh.ErrNotFound
	}
	return found.toSheikh(), nil
}

func (repo *sheikhRepository) QuerySheikhs(ctx context.Context) ([]sheikh.Sheikh, error) {
	sheikhs := make([]sheikh.Sheikh, 0)
	err := scan(ctx, repo.store, sheikhKey(""), func(rec sheikhRecord) error {
		sheikhs = append(sheikhs, rec.toSheikh())
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning sheikhs")
	}
	sort.SliceStable(sheikhs, func(i, j int) bool {
		if !sheikhs[i].CreatedAt.Equal(sheikhs[j].CreatedAt) {
			return sheikhs[i].CreatedAt.Before(sheikhs[j].CreatedAt)
		}
		return sheikhs[i].ID < sheikhs[j].ID
	})
	return sheikhs, nil
}

func (repo *sheikhRepository) CreateSheikh(ctx context.Context, s sheikh.Sheikh) (sheikh.Sheikh, error) {
	if err := repo.store.put(ctx, sheikhKey(s.ID), sheikhRecord(s)); err != nil {
		return sheikh.Sheikh{}, err
	}
	return s, nil
}

func (repo *sheikhRepository) UpdateSheikh(ctx context.Context, s sheikh.Sheikh) (sheikh.Sheikh, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	old, err := repo.GetSheikh(ctx, s.ID)
	if err != nil {
		return sheikh.Sheikh{}, err
	}
	s.GoogleID = old.GoogleID
	s.CreatedAt = old.CreatedAt
	if err = repo.store.put(ctx, sheikhKey(s.ID), sheikhRecord(s)); err != nil {
		return sheikh.Sheikh{}, err
	}
	return s, nil
}
