package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/engdata/equipsync/pkg/logger"
)

// openTestDB opens a fresh in-memory SQLite store per test. The DSN is keyed
// by test name so parallel tests never share a database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(&Config{
		Dialect: DialectSQLite,
		DSN:     "file:" + t.Name() + "?mode=memory&cache=shared",
	}, logger.NewTestLogger())
	require.NoError(t, err)
	return db
}
