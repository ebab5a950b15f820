package loo7

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/student"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("loo7 not found")
	ErrAlreadyEvaluated = core.NewStateError("loo7 already evaluated")
)

type (
	// Repository persists loo7. Every method is scoped by the owning sheikh.
	Repository interface {
		GetLoo7(ctx context.Context, ownerID, id string) (Loo7, error)
		GetAllLoo7(ctx context.Context, ownerID string, filter QueryFilter) ([]Loo7, error)
		GetLoo7ByDate(ctx context.Context, ownerID, date string) ([]Loo7, error)
		// GetLoo7ByStudentAndDate returns the student's loo7 of the date ordered new, near_past, far_past.
		GetLoo7ByStudentAndDate(ctx context.Context, ownerID, studentID, date string) ([]Loo7, error)
		// CreateLoo7 fails with student.ErrNotFound when the student does not exist for the owner.
		CreateLoo7(ctx context.Context, l Loo7) (Loo7, error)
		// UpdateLoo7 saves l. When ifStatus is given, the update only happens if the stored status
		// is one of them; otherwise ErrAlreadyEvaluated is returned.
		UpdateLoo7(ctx context.Context, l Loo7, ifStatus ...Status) (Loo7, error)
		DeleteLoo7(ctx context.Context, ownerID, id string) error
	}

	// Transactor is implemented by repositories able to run several writes atomically.
	Transactor interface {
		WithinTx(ctx context.Context, fn func(repo Repository) error) error
	}

	// Recorder receives business events, for metrics.
	Recorder interface {
		Loo7Created(typ Type)
		Loo7Evaluated(score Score)
		FollowUpFailed()
	}

	Service interface {
		Create(ctx context.Context, ownerID string, nl NewLoo7) (Loo7, error)
		Evaluate(ctx context.Context, ownerID, id string, ev Evaluation) (Loo7, error)
		Get(ctx context.Context, ownerID, id string) (Loo7, error)
		Delete(ctx context.Context, ownerID, id string) error
		Query(ctx context.Context, ownerID string, filter QueryFilter) ([]Loo7, error)
		ListByDate(ctx context.Context, ownerID, date string) ([]Loo7, error)
		ListByStudentAndDate(ctx context.Context, ownerID, studentID, date string) ([]Loo7, error)
		DailyRollup(ctx context.Context, ownerID, date string) ([]StudentDay, error)
	}

	service struct {
		repo       Repository
		studentRep student.Repository
		validate   *validator.Validate
		logger     core.Logger
		recorder   Recorder
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	studentRepo student.Repository,
	validate *validator.Validate,
	logger core.Logger,
	recorder Recorder,
) Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &service{
		repo:       repo,
		studentRep: studentRepo,
		validate:   validate,
		logger:     logger,
		recorder:   recorder,
	}
}

// Create validates nl and persists a pending Loo7 for one of the owner's students.
func (svc *service) Create(ctx context.Context, ownerID string, nl NewLoo7) (Loo7, error) {
	if err := nl.Validate(svc.validate); err != nil {
		return Loo7{}, err
	}
	if _, err := svc.studentRep.GetStudent(ctx, ownerID, nl.StudentID); err != nil {
		return Loo7{}, err
	}

	l, err := svc.repo.CreateLoo7(ctx, Loo7{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		StudentID:      nl.StudentID,
		Type:           nl.Type,
		RecitationDate: nl.RecitationDate,
		SurahNumber:    nl.SurahNumber,
		SurahName:      nl.SurahName,
		StartAyaNumber: nl.StartAyaNumber,
		EndAyaNumber:   nl.EndAyaNumber,
		Status:         StatusPending,
		CreatedAt:      core.NowFunc().UTC(),
	})
	if err != nil {
		return Loo7{}, errors.Wrap(err, "creating loo7")
	}
	svc.recorder.Loo7Created(l.Type)
	return l, nil
}

// Evaluate completes a pending Loo7. A "repeat" score also schedules a new pending Loo7
// for the same verses on the next recitation date.
// Lookup, state and score are all checked before anything is written.
func (svc *service) Evaluate(ctx context.Context, ownerID, id string, ev Evaluation) (Loo7, error) {
	orig, err := svc.repo.GetLoo7(ctx, ownerID, id)
	if err != nil {
		return Loo7{}, err
	}
	if orig.IsCompleted() {
		return Loo7{}, ErrAlreadyEvaluated
	}
	if err := ev.Validate(svc.validate); err != nil {
		return Loo7{}, err
	}

	now := core.NowFunc().UTC()
	score := ev.Score
	evaluated := orig
	evaluated.Status = StatusCompleted
	evaluated.Score = &score
	evaluated.ScoreNotes = ev.ScoreNotes
	evaluated.CompletedAt = &now

	var followUp *Loo7
	if score == ScoreRepeat {
		date, err := Reschedule(orig.RecitationDate)
		if err != nil {
			return Loo7{}, err
		}
		origID := orig.ID
		followUp = &Loo7{
			ID:             uuid.NewString(),
			OwnerID:        orig.OwnerID,
			StudentID:      orig.StudentID,
			Type:           orig.Type,
			RecitationDate: date,
			SurahNumber:    orig.SurahNumber,
			SurahName:      orig.SurahName,
			StartAyaNumber: orig.StartAyaNumber,
			EndAyaNumber:   orig.EndAyaNumber,
			Status:         StatusPending,
			CreatedAt:      now,
			RepeatOf:       &origID,
		}
	}

	if tx, ok := svc.repo.(Transactor); ok {
		err = tx.WithinTx(ctx, func(repo Repository) error {
			var err error
			if evaluated, err = repo.UpdateLoo7(ctx, evaluated, StatusPending); err != nil {
				return err
			}
			if followUp != nil {
				if _, err = repo.CreateLoo7(ctx, *followUp); err != nil {
					return errors.Wrap(err, "creating follow-up loo7")
				}
			}
			return nil
		})
		if err != nil {
			return Loo7{}, errors.Wrap(err, "evaluating loo7")
		}
	} else {
		if evaluated, err = svc.repo.UpdateLoo7(ctx, evaluated, StatusPending); err != nil {
			return Loo7{}, errors.Wrap(err, "evaluating loo7")
		}
		// the evaluation stands even if the follow-up cannot be saved
		if followUp != nil {
			if _, err = svc.repo.CreateLoo7(ctx, *followUp); err != nil {
				svc.recorder.FollowUpFailed()
				svc.logger.Error(
					fmt.Sprintf("creating follow-up of loo7 %s: %v", orig.ID, err),
					errors.Wrap(err, "creating follow-up loo7"),
					map[string]interface{}{"loo7": orig.ID, "owner": ownerID, "date": followUp.RecitationDate},
				)
				followUp = nil
			}
		}
	}

	svc.recorder.Loo7Evaluated(score)
	if followUp != nil {
		svc.recorder.Loo7Created(followUp.Type)
	}
	return evaluated, nil
}

func (svc *service) Get(ctx context.Context, ownerID, id string) (Loo7, error) {
	return svc.repo.GetLoo7(ctx, ownerID, id)
}

func (svc *service) Delete(ctx context.Context, ownerID, id string) error {
	return svc.repo.DeleteLoo7(ctx, ownerID, id)
}

func (svc *service) Query(ctx context.Context, ownerID string, filter QueryFilter) ([]Loo7, error) {
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	loo7s, err := svc.repo.GetAllLoo7(ctx, ownerID, filter)
	return loo7s, errors.Wrap(err, "querying loo7")
}

func (svc *service) ListByDate(ctx context.Context, ownerID, date string) ([]Loo7, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	loo7s, err := svc.repo.GetLoo7ByDate(ctx, ownerID, date)
	return loo7s, errors.Wrap(err, "listing loo7 by date")
}

// ListByStudentAndDate returns the student's loo7 of the date, ordered new, near_past, far_past.
func (svc *service) ListByStudentAndDate(ctx context.Context, ownerID, studentID, date string) ([]Loo7, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	loo7s, err := svc.repo.GetLoo7ByStudentAndDate(ctx, ownerID, studentID, date)
	if err != nil {
		return nil, errors.Wrap(err, "listing loo7 by student and date")
	}
	SortByType(loo7s)
	return loo7s, nil
}

// DailyRollup counts, per student, the loo7 of the date and how many are still pending.
// Students without loo7 on that date are left out.
func (svc *service) DailyRollup(ctx context.Context, ownerID, date string) ([]StudentDay, error) {
	loo7s, err := svc.ListByDate(ctx, ownerID, date)
	if err != nil {
		return nil, err
	}
	if len(loo7s) == 0 {
		return []StudentDay{}, nil
	}

	counts := make(map[string]*StudentDay, len(loo7s))
	for _, l := range loo7s {
		day, ok := counts[l.StudentID]
		if !ok {
			day = new(StudentDay)
			counts[l.StudentID] = day
		}
		day.Loo7Count++
		if l.Status == StatusPending {
			day.PendingCount++
		}
	}

	students, err := svc.studentRep.QueryStudents(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	student.SortByName(students)

	rollup := make([]StudentDay, 0, len(counts))
	for _, s := range students {
		if day, ok := counts[s.ID]; ok {
			day.Student = s
			rollup = append(rollup, *day)
		}
	}
	return rollup, nil
}

// SortByType orders loo7 new, near_past, far_past, keeping the current order within a type.
func SortByType(loo7s []Loo7) {
	sort.SliceStable(loo7s, func(i, j int) bool {
		return typeOrder[loo7s[i].Type] < typeOrder[loo7s[j].Type]
	})
}

type nopRecorder struct{}

func (nopRecorder) Loo7Created(Type)    {}
func (nopRecorder) Loo7Evaluated(Score) {}
func (nopRecorder) FollowUpFailed()     {}
