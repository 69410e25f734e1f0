// Package dbtest opens throwaway in-memory databases for service tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/internal/platform/db"
)

// New returns a migrated sqlite database private to t. The pool is capped at
// one connection so concurrent callers queue instead of hitting SQLITE_BUSY.
func New(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=off"
	gdb, err := gorm.Open(sqlite.Open(dsn), db.Config(zap.NewNop().Sugar()))
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(zap.NewNop().Sugar(), gdb))
	return gdb
}

// SeedUser inserts a student.
func SeedUser(t *testing.T, gdb *gorm.DB, id string) *models.User {
	t.Helper()
	u := &models.User{ID: id, Name: "user " + id, Email: id + "@example.com", Role: models.UserRoleStudent}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

// SeedSubject inserts a subject with the given price.
func SeedSubject(t *testing.T, gdb *gorm.DB, id string, price int64) *models.Subject {
	t.Helper()
	s := &models.Subject{ID: id, Name: "subject " + id, Price: price}
	require.NoError(t, gdb.Create(s).Error)
	return s
}
