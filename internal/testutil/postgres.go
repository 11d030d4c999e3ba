package testutil

import (
	"os"
	"testing"

	"supermarket-pos/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresEnv names the DSN of a throwaway database. Its tables are truncated.
const PostgresEnv = "TEST_DATABASE_URL"

// NewPostgresDB returns a migrated, empty Postgres database, or skips t when
// TEST_DATABASE_URL is unset. Row locks and advisory locks only run here.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresEnv)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)

	require.NoError(t, database.Migrate(db))
	truncate := func() error {
		return db.Exec("TRUNCATE sale_items, sales, products, categories, users RESTART IDENTITY CASCADE").Error
	}
	require.NoError(t, truncate())
	t.Cleanup(func() {
		_ = truncate()
		_ = sqlDB.Close()
	})
	return db
}
