package db_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oggyb/dating-api/internal/db"
	"github.com/oggyb/dating-api/internal/db/dbtest"
	"github.com/oggyb/dating-api/internal/utils/age"
)

func TestSeedTestData(t *testing.T) {
	gdb := dbtest.Open(t)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	// runs twice to prove it starts from a clean slate
	require.NoError(t, db.SeedTestData(gdb, now))
	require.NoError(t, db.SeedTestData(gdb, now))

	var users []db.User
	require.NoError(t, gdb.Find(&users).Error)
	require.Len(t, users, 20)

	genders := map[string]int{}
	for _, u := range users {
		genders[u.Gender]++
		years := age.Years(u.DateOfBirth, now)
		assert.GreaterOrEqual(t, years, 18, u.Username)
		assert.LessOrEqual(t, years, 61, u.Username)

		var mains int64
		gdb.Model(&db.Photo{}).Where("user_id = ? AND is_main = ?", u.ID, true).Count(&mains)
		assert.Equal(t, int64(1), mains, u.Username)
	}
	assert.Equal(t, 10, genders[db.GenderMale])
	assert.Equal(t, 10, genders[db.GenderFemale])

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte(db.SeedPassword)))

	var likes int64
	gdb.Model(&db.Like{}).Count(&likes)
	assert.Positive(t, likes)

	var msgs []db.Message
	require.NoError(t, gdb.Find(&msgs).Error)
	for _, m := range msgs {
		assert.NotEqual(t, m.SenderID, m.RecipientID)
	}
}
