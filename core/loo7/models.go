package loo7

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/student"
)

type (
	Type   string
	Status string
	Score  string
)

// Types
const (
	TypeNew      Type = "new"       // first-time memorization
	TypeNearPast Type = "near_past" // recent review
	TypeFarPast  Type = "far_past"  // distant review
)

// Statuses
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Scores
const (
	ScoreExcellent Score = "excellent"
	ScoreGood      Score = "good"
	ScoreWeak      Score = "weak"
	ScoreRepeat    Score = "repeat"
)

var (
	Types  = []Type{TypeNew, TypeNearPast, TypeFarPast}
	Scores = []Score{ScoreExcellent, ScoreGood, ScoreWeak, ScoreRepeat}

	typeOrder = map[Type]int{TypeNew: 0, TypeNearPast: 1, TypeFarPast: 2}
)

func (t Type) Valid() bool {
	_, ok := typeOrder[t]
	return ok
}

func (s Score) Valid() bool {
	for _, score := range Scores {
		if s == score {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// In reports whether s is one of allowed. An empty allowed list matches any status.
func (s Status) In(allowed ...Status) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// Loo7 is a recitation assignment: a verse range a student recites on a given date.
type Loo7 struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"-"`
	StudentID      string     `json:"studentId"`
	Type           Type       `json:"type"`
	RecitationDate string     `json:"recitationDate"` // YYYY-MM-DD
	SurahNumber    int        `json:"surahNumber"`
	SurahName      string     `json:"surahName"`
	StartAyaNumber int        `json:"startAyaNumber"`
	EndAyaNumber   int        `json:"endAyaNumber"`
	Status         Status     `json:"status"`
	Score          *Score     `json:"score"`
	ScoreNotes     *string    `json:"scoreNotes"`
	CreatedAt      time.Time  `json:"createdAt"` // UTC
	CompletedAt    *time.Time `json:"completedAt"`
	RepeatOf       *string    `json:"repeatOf"`
}

func (l Loo7) IsCompleted() bool {
	return l.Status == StatusCompleted
}

// NewLoo7 contains information needed to create a new Loo7.
type NewLoo7 struct {
	StudentID      string `json:"studentId" validate:"required,notblank"`
	Type           Type   `json:"type" validate:"required,loo7type"`
	RecitationDate string `json:"recitationDate" validate:"required,isodate"`
	SurahNumber    int    `json:"surahNumber" validate:"required,min=1,max=114"`
	SurahName      string `json:"surahName" validate:"required,notblank,max=100"`
	StartAyaNumber int    `json:"startAyaNumber" validate:"required,min=1,max=286"`
	EndAyaNumber   int    `json:"endAyaNumber" validate:"required,min=1,max=286"`
}

func (nl *NewLoo7) Validate(validate *validator.Validate) error {
	nl.StudentID = core.CleanString(nl.StudentID)
	nl.RecitationDate = core.CleanString(nl.RecitationDate)
	nl.SurahName = core.CleanString(nl.SurahName)
	nl.Type = Type(core.CleanString(string(nl.Type), true /* lower */))
	return validate.Struct(nl)
}

// Evaluation is a sheikh's assessment of a pending Loo7.
type Evaluation struct {
	Score      Score   `json:"score" validate:"required,loo7score"`
	ScoreNotes *string `json:"scoreNotes" validate:"omitempty,max=2000"`
}

func (ev *Evaluation) Validate(validate *validator.Validate) error {
	ev.Score = Score(core.CleanString(string(ev.Score), true /* lower */))
	ev.ScoreNotes = core.CleanStringPtr(ev.ScoreNotes)
	return validate.Struct(ev)
}

// QueryFilter narrows GetAllLoo7. Zero fields are ignored; dates are inclusive.
type QueryFilter struct {
	StudentID string `query:"studentId"`
	From      string `query:"from" validate:"omitempty,isodate"`
	To        string `query:"to" validate:"omitempty,isodate"`
	Status    Status `query:"status" validate:"omitempty,oneof=pending completed"`
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.From = core.CleanString(qf.From)
	qf.To = core.CleanString(qf.To)
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
}

func (qf QueryFilter) Match(l Loo7) bool {
	if qf.StudentID != "" && l.StudentID != qf.StudentID {
		return false
	}
	if qf.From != "" && l.RecitationDate < qf.From {
		return false
	}
	if qf.To != "" && l.RecitationDate > qf.To {
		return false
	}
	if qf.Status != "" && l.Status != qf.Status {
		return false
	}
	return true
}

// StudentDay is a student's roll-up for a single date.
type StudentDay struct {
	Student      student.Student `json:"student"`
	Loo7Count    int             `json:"loo7Count"`
	PendingCount int             `json:"pendingCount"`
}

// Done reports whether every loo7 of the day was evaluated.
func (sd StudentDay) Done() bool {
	return sd.Loo7Count > 0 && sd.PendingCount == 0
}
