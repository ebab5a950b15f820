package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/sheikh"
	"github.com/trezcool/loo7/core/student"
)

func CreateSheikh(t *testing.T, repo sheikh.Repository, googleID, name, email string) sheikh.Sheikh {
	t.Helper()
	now := time.Now().UTC()
	s, err := repo.CreateSheikh(context.Background(), sheikh.Sheikh{
		ID:        uuid.NewString(),
		GoogleID:  googleID,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createSheikh() failed: %v", err)
	}
	return s
}

// UnsavedSheikh returns a sheikh that is not persisted, for minting tokens or owner ids.
func UnsavedSheikh(id string) sheikh.Sheikh {
	return sheikh.Sheikh{ID: id, Name: id}
}

func CreateStudent(t *testing.T, repo student.Repository, ownerID, name string, createdAt ...time.Time) student.Student {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	s, err := repo.CreateStudent(context.Background(), student.Student{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return s
}

// CreateLoo7 saves a pending loo7 of surah Al-Fatiha 1-7.
func CreateLoo7(
	t *testing.T,
	repo loo7.Repository,
	s student.Student,
	typ loo7.Type,
	date string,
	createdAt ...time.Time,
) loo7.Loo7 {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	l, err := repo.CreateLoo7(context.Background(), loo7.Loo7{
		ID:             uuid.NewString(),
		OwnerID:        s.OwnerID,
		StudentID:      s.ID,
		Type:           typ,
		RecitationDate: date,
		SurahNumber:    1,
		SurahName:      "الفاتحة",
		StartAyaNumber: 1,
		EndAyaNumber:   7,
		Status:         loo7.StatusPending,
		CreatedAt:      tstamp,
	})
	if err != nil {
		t.Fatalf("createLoo7() failed: %v", err)
	}
	return l
}

// Completed returns l evaluated with score.
func Completed(l loo7.Loo7, score loo7.Score) loo7.Loo7 {
	now := time.Now().UTC()
	l.Status = loo7.StatusCompleted
	l.Score = &score
	l.CompletedAt = &now
	return l
}
