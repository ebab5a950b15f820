package sqlxrepos

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/loo7/storage/database"
	"github.com/trezcool/loo7/storage/storetest"
)

func repos(db *sqlx.DB) storetest.Repos {
	return storetest.Repos{
		Sheikhs:  NewSheikhRepository(db),
		Students: NewStudentRepository(db),
		Loo7s:    NewLoo7Repository(db),
	}
}

func TestSQLiteRepositories(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Repos {
		db, err := database.OpenDriver(database.DriverSQLite, filepath.Join(t.TempDir(), "loo7.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		require.NoError(t, database.Migrate(context.Background(), db))
		return repos(db)
	})
}
