// Package dbtest opens isolated in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/dating-api/internal/db"
)

// Open spins up a migrated in-memory SQLite DB private to t.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// Day returns midnight UTC of the given date.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// User inserts a user with sane defaults; fields set on u win.
func User(t *testing.T, gdb *gorm.DB, u db.User) db.User {
	t.Helper()
	if u.PasswordHash == "" {
		u.PasswordHash = "x"
	}
	if u.KnownAs == "" {
		u.KnownAs = u.Username
	}
	if u.Gender == "" {
		u.Gender = db.GenderFemale
	}
	if u.DateOfBirth.IsZero() {
		u.DateOfBirth = Day(1995, time.June, 1)
	}
	if u.LastActive.IsZero() {
		u.LastActive = time.Now().UTC().Truncate(time.Millisecond)
	}
	require.NoError(t, gdb.Omit("Photos").Create(&u).Error)
	return u
}

// Photo inserts a photo row directly, bypassing the main-photo bookkeeping.
func Photo(t *testing.T, gdb *gorm.DB, userID uint64, url string, main bool) db.Photo {
	t.Helper()
	p := db.Photo{UserID: userID, URL: url, IsMain: main}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}
