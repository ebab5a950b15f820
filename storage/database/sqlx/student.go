package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core/student"
)

const studentColumns = "id, owner_id, name, age, contact, notes, created_at, updated_at"

type (
	studentRepository struct {
		db *sqlx.DB
	}

	studentRow struct {
		ID        string         `db:"id"`
		OwnerID   string         `db:"owner_id"`
		Name      string         `db:"name"`
		Age       sql.NullInt64  `db:"age"`
		Contact   sql.NullString `db:"contact"`
		Notes     sql.NullString `db:"notes"`
		CreatedAt string         `db:"created_at"`
		UpdatedAt string         `db:"updated_at"`
	}
)

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func newStudentRow(s student.Student) studentRow {
	return studentRow{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Name:      s.Name,
		Age:       nullInt(s.Age),
		Contact:   nullString(s.Contact),
		Notes:     nullString(s.Notes),
		CreatedAt: formatTime(s.CreatedAt),
		UpdatedAt: formatTime(s.UpdatedAt),
	}
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Age:       intPtr(r.Age),
		Contact:   stringPtr(r.Contact),
		Notes:     stringPtr(r.Notes),
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}
}

func (repo *studentRepository) GetStudent(ctx context.Context, ownerID, id string) (student.Student, error) {
	var row studentRow
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students WHERE id = ? AND owner_id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "selecting student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, ownerID string) ([]student.Student, error) {
	var rows []studentRow
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students WHERE owner_id = ? ORDER BY created_at, id")
	if err := repo.db.SelectContext(ctx, &rows, q, ownerID); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `INSERT INTO students (` + studentColumns + `)
		VALUES (:id, :owner_id, :name, :age, :contact, :notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, newStudentRow(s)); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `UPDATE students SET name = :name, age = :age, contact = :contact, notes = :notes, updated_at = :updated_at
		WHERE id = :id AND owner_id = :owner_id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, newStudentRow(s))
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if ok, err := affected(res); err != nil {
		return student.Student{}, err
	} else if !ok {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudent(ctx, s.OwnerID, s.ID)
}

// DeleteStudent relies on the loo7s foreign key to cascade.
func (repo *studentRepository) DeleteStudent(ctx context.Context, ownerID, id string) error {
	q := repo.db.Rebind("DELETE FROM students WHERE id = ? AND owner_id = ?")
	res, err := repo.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if ok, err := affected(res); err != nil {
		return err
	} else if !ok {
		return student.ErrNotFound
	}
	return nil
}
