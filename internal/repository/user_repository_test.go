package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/dating-api/internal/db"
	"github.com/oggyb/dating-api/internal/db/dbtest"
	"github.com/oggyb/dating-api/internal/repository"
	"github.com/oggyb/dating-api/internal/utils/pagination"
)

func TestUserCreateDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := repository.NewUserRepository(gdb)

	u := db.User{Username: "alia", PasswordHash: "h", KnownAs: "Alia", Gender: "female", DateOfBirth: dbtest.Day(1990, 1, 1)}
	require.NoError(t, repo.Create(ctx, &u))

	dup := db.User{Username: "alia", PasswordHash: "h", KnownAs: "Other", Gender: "male", DateOfBirth: dbtest.Day(1990, 1, 1)}
	err := repo.Create(ctx, &dup)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	taken, err := repo.UsernameTaken(ctx, "alia")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUserListFiltersAndWindow(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := repository.NewUserRepository(gdb)

	me := dbtest.User(t, gdb, db.User{Username: "me", Gender: "male"})
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var women []db.User
	for i := 0; i < 5; i++ {
		women = append(women, dbtest.User(t, gdb, db.User{
			Username:   "w" + string(rune('a'+i)),
			Gender:     "female",
			LastActive: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	dbtest.User(t, gdb, db.User{Username: "m2", Gender: "male"})
	dbtest.Photo(t, gdb, women[4].ID, "http://img/w4.jpg", true)
	dbtest.Photo(t, gdb, women[4].ID, "http://img/w4-b.jpg", false)

	f := repository.UserFilter{ExcludeID: me.ID, Gender: "female"}
	users, total, err := repo.List(ctx, f, pagination.Params{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, users, 2)

	// lastActive DESC: newest first
	assert.Equal(t, women[4].ID, users[0].ID)
	assert.Equal(t, women[3].ID, users[1].ID)
	require.NotNil(t, users[0].PhotoURL)
	assert.Equal(t, "http://img/w4.jpg", *users[0].PhotoURL)
	assert.Nil(t, users[1].PhotoURL)

	// last page is partial, past the end is empty
	users, _, err = repo.List(ctx, f, pagination.Params{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	users, total, err = repo.List(ctx, f, pagination.Params{Page: 4, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Equal(t, int64(5), total)

	// caller is never listed
	all, _, err := repo.List(ctx, repository.UserFilter{ExcludeID: me.ID}, pagination.Params{Page: 1, PageSize: 50})
	require.NoError(t, err)
	for _, u := range all {
		assert.NotEqual(t, me.ID, u.ID)
	}
	assert.Len(t, all, 6)
}

func TestUserListBirthBounds(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := repository.NewUserRepository(gdb)

	exactly := dbtest.User(t, gdb, db.User{Username: "exact", DateOfBirth: dbtest.Day(2008, 10, 15)})
	dbtest.User(t, gdb, db.User{Username: "short", DateOfBirth: dbtest.Day(2008, 10, 16)})

	users, total, err := repo.List(ctx, repository.UserFilter{
		BornAfter:  dbtest.Day(1926, 10, 16),
		BornBefore: dbtest.Day(2008, 10, 15),
	}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, exactly.ID, users[0].ID)
}

func TestUserListOrderByCreated(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := repository.NewUserRepository(gdb)

	old := dbtest.User(t, gdb, db.User{Username: "old", CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), LastActive: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	fresh := dbtest.User(t, gdb, db.User{Username: "fresh", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), LastActive: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)})

	users, _, err := repo.List(ctx, repository.UserFilter{OrderBy: repository.OrderByCreated}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, fresh.ID, users[0].ID)

	users, _, err = repo.List(ctx, repository.UserFilter{OrderBy: repository.OrderByLastActive}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, old.ID, users[0].ID)
}

func TestUserListLikersAndLikees(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	users := repository.NewUserRepository(gdb)
	likes := repository.NewLikeRepository(gdb)

	a := dbtest.User(t, gdb, db.User{Username: "a"})
	b := dbtest.User(t, gdb, db.User{Username: "b"})
	c := dbtest.User(t, gdb, db.User{Username: "c"})

	require.NoError(t, likes.Create(ctx, b.ID, a.ID))
	require.NoError(t, likes.Create(ctx, c.ID, a.ID))
	require.NoError(t, likes.Create(ctx, a.ID, c.ID))

	likers, total, err := users.List(ctx, repository.UserFilter{LikersOf: a.ID}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.ElementsMatch(t, []uint64{b.ID, c.ID}, []uint64{likers[0].ID, likers[1].ID})

	likees, total, err := users.List(ctx, repository.UserFilter{LikeesOf: a.ID}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, c.ID, likees[0].ID)
}

func TestUserUpdateProfileAndTouch(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := repository.NewUserRepository(gdb)

	u := dbtest.User(t, gdb, db.User{Username: "u", City: "Oslo"})
	bio := "hello"
	require.NoError(t, repo.UpdateProfile(ctx, u.ID, repository.ProfileUpdate{Bio: &bio}))

	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastActive(ctx, u.ID, at))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, "Oslo", got.City)
	assert.True(t, got.LastActive.Equal(at))

	err = repo.UpdateProfile(ctx, 9999, repository.ProfileUpdate{Bio: &bio})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
