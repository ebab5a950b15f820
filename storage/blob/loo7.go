package blob

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/student"
)

type (
	loo7Repository struct {
		store *Store
	}

	loo7Record struct {
		ID             string      `json:"id"`
		OwnerID        string      `json:"ownerId"`
		StudentID      string      `json:"studentId"`
		Type           loo7.Type   `json:"type"`
		RecitationDate string      `json:"recitationDate"`
		SurahNumber    int         `json:"surahNumber"`
		SurahName      string      `json:"surahName"`
		StartAyaNumber int         `json:"startAyaNumber"`
		EndAyaNumber   int         `json:"endAyaNumber"`
		Status         loo7.Status `json:"status"`
		Score          *loo7.Score `json:"score,omitempty"`
		ScoreNotes     *string     `json:"scoreNotes,omitempty"`
		CreatedAt      time.Time   `json:"createdAt"`
		CompletedAt    *time.Time  `json:"completedAt,omitempty"`
		RepeatOf       *string     `json:"repeatOf,omitempty"`
		Seq            uint64      `json:"seq,omitempty"` // insertion order
	}
)

var _ loo7.Repository = (*loo7Repository)(nil)

func NewLoo7Repository(store *Store) loo7.Repository {
	return &loo7Repository{store: store}
}

func newLoo7Record(l loo7.Loo7, seq uint64) loo7Record {
	return loo7Record{
		ID:             l.ID,
		OwnerID:        l.OwnerID,
		StudentID:      l.StudentID,
		Type:           l.Type,
		RecitationDate: l.RecitationDate,
		SurahNumber:    l.SurahNumber,
		SurahName:      l.SurahName,
		StartAyaNumber: l.StartAyaNumber,
		EndAyaNumber:   l.EndAyaNumber,
		Status:         l.Status,
		Score:          l.Score,
		ScoreNotes:     l.ScoreNotes,
		CreatedAt:      l.CreatedAt,
		CompletedAt:    l.CompletedAt,
		RepeatOf:       l.RepeatOf,
		Seq:            seq,
	}
}

func (rec loo7Record) toLoo7() loo7.Loo7 {
	return loo7.Loo7{
		ID:             rec.ID,
		OwnerID:        rec.OwnerID,
		StudentID:      rec.StudentID,
		Type:           rec.Type,
		RecitationDate: rec.RecitationDate,
		SurahNumber:    rec.SurahNumber,
		SurahName:      rec.SurahName,
		StartAyaNumber: rec.StartAyaNumber,
		EndAyaNumber:   rec.EndAyaNumber,
		Status:         rec.Status,
		Score:          rec.Score,
		ScoreNotes:     rec.ScoreNotes,
		CreatedAt:      rec.CreatedAt,
		CompletedAt:    rec.CompletedAt,
		RepeatOf:       rec.RepeatOf,
	}
}

// where returns the owner's loo7 kept by keep, in creation order.
func (repo *loo7Repository) where(ctx context.Context, ownerID string, keep func(l loo7.Loo7) bool) ([]loo7.Loo7, error) {
	recs := make([]loo7Record, 0)
	err := scan(ctx, repo.store, loo7Prefix(ownerID), func(rec loo7Record) error {
		if keep(rec.toLoo7()) {
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning loo7")
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		if recs[i].Seq != recs[j].Seq {
			return recs[i].Seq < recs[j].Seq
		}
		return recs[i].ID < recs[j].ID
	})
	loo7s := make([]loo7.Loo7, 0, len(recs))
	for _, rec := range recs {
		loo7s = append(loo7s, rec.toLoo7())
	}
	return loo7s, nil
}

func (repo *loo7Repository) getRecord(ctx context.Context, ownerID, id string) (loo7Record, error) {
	var rec loo7Record
	if err := repo.store.get(ctx, loo7Key(ownerID, id), &rec); err != nil {
		if err == ErrNotExist {
			return loo7Record{}, loo7.ErrNotFound
		}
		return loo7Record{}, err
	}
	return rec, nil
}

func (repo *loo7Repository) GetLoo7(ctx context.Context, ownerID, id string) (loo7.Loo7, error) {
	rec, err := repo.getRecord(ctx, ownerID, id)
	if err != nil {
		return loo7.Loo7{}, err
	}
	return rec.toLoo7(), nil
}

func (repo *loo7Repository) GetAllLoo7(ctx context.Context, ownerID string, filter loo7.QueryFilter) ([]loo7.Loo7, error) {
	return repo.where(ctx, ownerID, filter.Match)
}

func (repo *loo7Repository) GetLoo7ByDate(ctx context.Context, ownerID, date string) ([]loo7.Loo7, error) {
	return repo.where(ctx, ownerID, func(l loo7.Loo7) bool {
		return l.RecitationDate == date
	})
}

func (repo *loo7Repository) GetLoo7ByStudentAndDate(ctx context.Context, ownerID, studentID, date string) ([]loo7.Loo7, error) {
	loo7s, err := repo.where(ctx, ownerID, func(l loo7.Loo7) bool {
		return l.StudentID == studentID && l.RecitationDate == date
	})
	if err != nil {
		return nil, err
	}
	loo7.SortByType(loo7s)
	return loo7s, nil
}

func (repo *loo7Repository) CreateLoo7(ctx context.Context, l loo7.Loo7) (loo7.Loo7, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	ok, err := repo.store.exists(ctx, studentKey(l.OwnerID, l.StudentID))
	if err != nil {
		return loo7.Loo7{}, err
	}
	if !ok {
		return loo7.Loo7{}, student.ErrNotFound
	}
	seq, err := repo.store.nextSeq(ctx, "loo7")
	if err != nil {
		return loo7.Loo7{}, err
	}
	if err = repo.store.put(ctx, loo7Key(l.OwnerID, l.ID), newLoo7Record(l, seq)); err != nil {
		return loo7.Loo7{}, err
	}
	return l, nil
}

func (repo *loo7Repository) UpdateLoo7(ctx context.Context, l loo7.Loo7, ifStatus ...loo7.Status) (loo7.Loo7, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	old, err := repo.getRecord(ctx, l.OwnerID, l.ID)
	if err != nil {
		return loo7.Loo7{}, err
	}
	if !old.Status.In(ifStatus...) {
		return loo7.Loo7{}, loo7.ErrAlreadyEvaluated
	}
	l.CreatedAt = old.CreatedAt
	if err = repo.store.put(ctx, loo7Key(l.OwnerID, l.ID), newLoo7Record(l, old.Seq)); err != nil {
		return loo7.Loo7{}, err
	}
	return l, nil
}

func (repo *loo7Repository) DeleteLoo7(ctx context.Context, ownerID, id string) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()

	key := loo7Key(ownerID, id)
	ok, err := repo.store.exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return loo7.ErrNotFound
	}
	return errors.Wrap(repo.store.bucket.Delete(ctx, key), "deleting loo7")
}
