package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/student"
)

const loo7Columns = "id, owner_id, student_id, type, recitation_date, surah_number, surah_name, " +
	"start_aya_number, end_aya_number, status, score, score_notes, created_at, completed_at, repeat_of"

// creation order; seq breaks created_at ties in insertion order
const byCreationOrdering = "created_at, seq, id"

// new, near_past, far_past; creation order within a type
const byTypeOrdering = "CASE type WHEN 'new' THEN 0 WHEN 'near_past' THEN 1 ELSE 2 END, " + byCreationOrdering

type (
	loo7Repository struct {
		db  *sqlx.DB // nil inside a transaction
		ext sqlx.ExtContext
	}

	loo7Row struct {
		ID             string         `db:"id"`
		OwnerID        string         `db:"owner_id"`
		StudentID      string         `db:"student_id"`
		Type           string         `db:"type"`
		RecitationDate string         `db:"recitation_date"`
		SurahNumber    int            `db:"surah_number"`
		SurahName      string         `db:"surah_name"`
		StartAyaNumber int            `db:"start_aya_number"`
		EndAyaNumber   int            `db:"end_aya_number"`
		Status         string         `db:"status"`
		Score          sql.NullString `db:"score"`
		ScoreNotes     sql.NullString `db:"score_notes"`
		CreatedAt      string         `db:"created_at"`
		CompletedAt    sql.NullString `db:"completed_at"`
		RepeatOf       sql.NullString `db:"repeat_of"`
	}
)

var (
	_ loo7.Repository = (*loo7Repository)(nil)
	_ loo7.Transactor = (*loo7Repository)(nil)
)

func NewLoo7Repository(db *sqlx.DB) loo7.Repository {
	return &loo7Repository{db: db, ext: db}
}

func newLoo7Row(l loo7.Loo7) loo7Row {
	var score sql.NullString
	if l.Score != nil {
		score = sql.NullString{String: string(*l.Score), Valid: true}
	}
	return loo7Row{
		ID:             l.ID,
		OwnerID:        l.OwnerID,
		StudentID:      l.StudentID,
		Type:           string(l.Type),
		RecitationDate: l.RecitationDate,
		SurahNumber:    l.SurahNumber,
		SurahName:      l.SurahName,
		StartAyaNumber: l.StartAyaNumber,
		EndAyaNumber:   l.EndAyaNumber,
		Status:         string(l.Status),
		Score:          score,
		ScoreNotes:     nullString(l.ScoreNotes),
		CreatedAt:      formatTime(l.CreatedAt),
		CompletedAt:    formatNullTime(l.CompletedAt),
		RepeatOf:       nullString(l.RepeatOf),
	}
}

func (r loo7Row) toLoo7() loo7.Loo7 {
	var score *loo7.Score
	if r.Score.Valid {
		s := loo7.Score(r.Score.String)
		score = &s
	}
	return loo7.Loo7{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		StudentID:      r.StudentID,
		Type:           loo7.Type(r.Type),
		RecitationDate: r.RecitationDate,
		SurahNumber:    r.SurahNumber,
		SurahName:      r.SurahName,
		StartAyaNumber: r.StartAyaNumber,
		EndAyaNumber:   r.EndAyaNumber,
		Status:         loo7.Status(r.Status),
		Score:          score,
		ScoreNotes:     stringPtr(r.ScoreNotes),
		CreatedAt:      parseTime(r.CreatedAt),
		CompletedAt:    parseNullTime(r.CompletedAt),
		RepeatOf:       stringPtr(r.RepeatOf),
	}
}

// WithinTx runs fn against a repository bound to a single transaction.
func (repo *loo7Repository) WithinTx(ctx context.Context, fn func(repo loo7.Repository) error) error {
	if repo.db == nil {
		// already in a transaction
		return fn(repo)
	}
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(&loo7Repository{ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo *loo7Repository) selectWhere(ctx context.Context, where, orderBy string, args ...interface{}) ([]loo7.Loo7, error) {
	var rows []loo7Row
	q := repo.ext.Rebind("SELECT " + loo7Columns + " FROM loo7s WHERE " + where + " ORDER BY " + orderBy)
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting loo7")
	}
	loo7s := make([]loo7.Loo7, 0, len(rows))
	for _, r := range rows {
		loo7s = append(loo7s, r.toLoo7())
	}
	return loo7s, nil
}

func (repo *loo7Repository) GetLoo7(ctx context.Context, ownerID, id string) (loo7.Loo7, error) {
	var row loo7Row
	q := repo.ext.Rebind("SELECT " + loo7Columns + " FROM loo7s WHERE id = ? AND owner_id = ?")
	if err := sqlx.GetContext(ctx, repo.ext, &row, q, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return loo7.Loo7{}, loo7.ErrNotFound
		}
		return loo7.Loo7{}, errors.Wrap(err, "selecting loo7")
	}
	return row.toLoo7(), nil
}

func (repo *loo7Repository) GetAllLoo7(ctx context.Context, ownerID string, filter loo7.QueryFilter) ([]loo7.Loo7, error) {
	conds := []string{"owner_id = ?"}
	args := []interface{}{ownerID}
	if filter.StudentID != "" {
		conds = append(conds, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.From != "" {
		conds = append(conds, "recitation_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conds = append(conds, "recitation_date <= ?")
		args = append(args, filter.To)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	return repo.selectWhere(ctx, strings.Join(conds, " AND "), byCreationOrdering, args...)
}

func (repo *loo7Repository) GetLoo7ByDate(ctx context.Context, ownerID, date string) ([]loo7.Loo7, error) {
	return repo.selectWhere(ctx, "owner_id = ? AND recitation_date = ?", byCreationOrdering, ownerID, date)
}

func (repo *loo7Repository) GetLoo7ByStudentAndDate(ctx context.Context, ownerID, studentID, date string) ([]loo7.Loo7, error) {
	return repo.selectWhere(
		ctx,
		"owner_id = ? AND student_id = ? AND recitation_date = ?",
		byTypeOrdering,
		ownerID, studentID, date,
	)
}

func (repo *loo7Repository) CreateLoo7(ctx context.Context, l loo7.Loo7) (loo7.Loo7, error) {
	var n int
	q := repo.ext.Rebind("SELECT COUNT(*) FROM students WHERE id = ? AND owner_id = ?")
	if err := sqlx.GetContext(ctx, repo.ext, &n, q, l.StudentID, l.OwnerID); err != nil {
		return loo7.Loo7{}, errors.Wrap(err, "checking student")
	}
	if n == 0 {
		return loo7.Loo7{}, student.ErrNotFound
	}

	// concurrent inserts may share a seq; their order is then decided by id
	ins := `INSERT INTO loo7s (` + loo7Columns + `, seq)
		VALUES (:id, :owner_id, :student_id, :type, :recitation_date, :surah_number, :surah_name,
			:start_aya_number, :end_aya_number, :status, :score, :score_notes, :created_at, :completed_at, :repeat_of,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM loo7s))`
	if _, err := sqlx.NamedExecContext(ctx, repo.ext, ins, newLoo7Row(l)); err != nil {
		return loo7.Loo7{}, errors.Wrap(err, "inserting loo7")
	}
	return l, nil
}

// UpdateLoo7 is a compare-and-set on status when ifStatus is given, so that concurrent
// evaluations of the same loo7 cannot both succeed.
func (repo *loo7Repository) UpdateLoo7(ctx context.Context, l loo7.Loo7, ifStatus ...loo7.Status) (loo7.Loo7, error) {
	row := newLoo7Row(l)
	q := `UPDATE loo7s SET status = ?, score = ?, score_notes = ?, completed_at = ?
		WHERE id = ? AND owner_id = ?`
	args := []interface{}{row.Status, row.Score, row.ScoreNotes, row.CompletedAt, row.ID, row.OwnerID}
	if len(ifStatus) > 0 {
		q += " AND status IN (" + placeholders(len(ifStatus)) + ")"
		for _, s := range ifStatus {
			args = append(args, string(s))
		}
	}

	res, err := repo.ext.ExecContext(ctx, repo.ext.Rebind(q), args...)
	if err != nil {
		return loo7.Loo7{}, errors.Wrap(err, "updating loo7")
	}
	ok, err := affected(res)
	if err != nil {
		return loo7.Loo7{}, err
	}
	if !ok {
		if _, err := repo.GetLoo7(ctx, l.OwnerID, l.ID); err != nil {
			return loo7.Loo7{}, err
		}
		return loo7.Loo7{}, loo7.ErrAlreadyEvaluated
	}
	return repo.GetLoo7(ctx, l.OwnerID, l.ID)
}

func (repo *loo7Repository) DeleteLoo7(ctx context.Context, ownerID, id string) error {
	q := repo.ext.Rebind("DELETE FROM loo7s WHERE id = ? AND owner_id = ?")
	res, err := repo.ext.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return errors.Wrap(err, "deleting loo7")
	}
	if ok, err := affected(res); err != nil {
		return err
	} else if !ok {
		return loo7.ErrNotFound
	}
	return nil
}
