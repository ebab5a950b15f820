package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core/sheikh"
)

const sheikhColumns = "id, google_id, email, name, profile_image_url, created_at, updated_at"

type (
	sheikhRepository struct {
		db *sqlx.DB
	}

	sheikhRow struct {
		ID              string         `db:"id"`
		GoogleID        string         `db:"google_id"`
		Email           string         `db:"email"`
		Name            string         `db:"name"`
		ProfileImageURL sql.NullString `db:"profile_image_url"`
		CreatedAt       string         `db:"created_at"`
		UpdatedAt       string         `db:"updated_at"`
	}
)

var _ sheikh.Repository = (*sheikhRepository)(nil)

func NewSheikhRepository(db *sqlx.DB) sheikh.Repository {
	return &sheikhRepository{db: db}
}

func newSheikhRow(s sheikh.Sheikh) sheikhRow {
	return sheikhRow{
		ID:              s.ID,
		GoogleID:        s.GoogleID,
		Email:           s.Email,
		Name:            s.Name,
		ProfileImageURL: nullString(s.ProfileImageURL),
		CreatedAt:       formatTime(s.CreatedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
}

func (r sheikhRow) toSheikh() sheikh.Sheikh {
	return sheikh.Sheikh{
		ID:              r.ID,
		GoogleID:        r.GoogleID,
		Email:           r.Email,
		Name:            r.Name,
		ProfileImageURL: stringPtr(r.ProfileImageURL),
		CreatedAt:       parseTime(r.CreatedAt),
		UpdatedAt:       parseTime(r.UpdatedAt),
	}
}

func (repo *sheikhRepository) getWhere(ctx context.Context, where string, args ...interface{}) (sheikh.Sheikh, error) {
	var row sheikhRow
	q := repo.db.Rebind("SELECT " + sheikhColumns + " FROM sheikhs WHERE " + where)
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sheikh.Sheikh{}, sheikh.ErrNotFound
		}
		return sheikh.Sheikh{}, errors.Wrap(err, "selecting sheikh")
	}
	return row.toSheikh(), nil
}

func (repo *sheikhRepository) GetSheikh(ctx context.Context, id string) (sheikh.Sheikh, error) {
	return repo.getWhere(ctx, "id = ?", id)
}

func (repo *sheikhRepository) GetSheikhByGoogleID(ctx context.Context, googleID string) (sheikh.Sheikh, error) {
	return repo.getWhere(ctx, "google_id = ?", googleID)
}

func (repo *sheikhRepository) QuerySheikhs(ctx context.Context) ([]sheikh.Sheikh, error) {
	var rows []sheikhRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+sheikhColumns+" FROM sheikhs ORDER BY created_at, id"); err != nil {
		return nil, errors.Wrap(err, "selecting sheikhs")
	}
	sheikhs := make([]sheikh.Sheikh, 0, len(rows))
	for _, r := range rows {
		sheikhs = append(sheikhs, r.toSheikh())
	}
	return sheikhs, nil
}

func (repo *sheikhRepository) CreateSheikh(ctx context.Context, s sheikh.Sheikh) (sheikh.Sheikh, error) {
	q := `INSERT INTO sheikhs (` + sheikhColumns + `)
		VALUES (:id, :google_id, :email, :name, :profile_image_url, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, newSheikhRow(s)); err != nil {
		return sheikh.Sheikh{}, errors.Wrap(err, "inserting sheikh")
	}
	return s, nil
}

func (repo *sheikhRepository) UpdateSheikh(ctx context.Context, s sheikh.Sheikh) (sheikh.Sheikh, error) {
	q := `UPDATE sheikhs SET email = :email, name = :name, profile_image_url = :profile_image_url, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, newSheikhRow(s))
	if err != nil {
		return sheikh.Sheikh{}, errors.Wrap(err, "updating sheikh")
	}
	if ok, err := affected(res); err != nil {
		return sheikh.Sheikh{}, err
	} else if !ok {
		return sheikh.Sheikh{}, sheikh.ErrNotFound
	}
	return repo.GetSheikh(ctx, s.ID)
}
