package photos_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/dating-api/internal/app/apptest"
	"github.com/oggyb/dating-api/internal/db"
	"github.com/oggyb/dating-api/internal/db/dbtest"
	svcErr "github.com/oggyb/dating-api/internal/errors"
	"github.com/oggyb/dating-api/internal/service/photos"
)

func setupService(t *testing.T) (*photos.Service, *apptest.Env) {
	t.Helper()
	env := apptest.New(t)
	return photos.NewPhotosService(env.AppContext), env
}

func upload(t *testing.T, svc *photos.Service, userID uint64, name string) uint64 {
	t.Helper()
	p, err := svc.Upload(context.Background(), userID, photos.UploadRequest{
		Filename: name,
		Body:     strings.NewReader("image-bytes"),
	})
	require.NoError(t, err)
	return p.ID
}

// mainPhotos counts a user's main photos straight from the table.
func mainPhotos(t *testing.T, env *apptest.Env, userID uint64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(&db.Photo{}).Where("user_id = ? AND is_main = ?", userID, true).Count(&n).Error)
	return n
}

func TestUploadFirstPhotoIsMain(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	u := dbtest.User(t, env.DB, db.User{Username: "u"})

	first, err := svc.Upload(ctx, u.ID, photos.UploadRequest{
		Filename:    "a.jpg",
		Description: "beach",
		Body:        strings.NewReader("x"),
	})
	require.NoError(t, err)
	assert.True(t, first.IsMain)
	assert.Equal(t, "beach", first.Description)
	assert.True(t, strings.HasPrefix(first.URL, "mem://"))

	second := upload(t, svc, u.ID, "b.jpg")
	got, err := svc.Get(ctx, u.ID, second)
	require.NoError(t, err)
	assert.False(t, got.IsMain)

	assert.Equal(t, int64(1), mainPhotos(t, env, u.ID))
	assert.Len(t, env.Store.Objects, 2)
}

func TestUploadStorageFailureIsDependency(t *testing.T) {
	svc, env := setupService(t)
	u := dbtest.User(t, env.DB, db.User{Username: "u"})
	env.Store.FailUpload = errors.New("bucket down")

	_, err := svc.Upload(context.Background(), u.ID, photos.UploadRequest{Filename: "a.jpg", Body: strings.NewReader("x")})
	assert.True(t, svcErr.Is(err, svcErr.KindDependency), "got %v", err)

	var n int64
	env.DB.Model(&db.Photo{}).Count(&n)
	assert.Zero(t, n)
}

func TestUploadCleansUpStorageWhenInsertFails(t *testing.T) {
	svc, env := setupService(t)

	_, err := svc.Upload(context.Background(), 4242, photos.UploadRequest{Filename: "a.jpg", Body: strings.NewReader("x")})
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound), "got %v", err)
	assert.Empty(t, env.Store.Objects)
}

func TestSetMain(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	u := dbtest.User(t, env.DB, db.User{Username: "u"})
	other := dbtest.User(t, env.DB, db.User{Username: "other"})

	a := upload(t, svc, u.ID, "a.jpg")
	b := upload(t, svc, u.ID, "b.jpg")
	theirs := upload(t, svc, other.ID, "c.jpg")

	require.NoError(t, svc.SetMain(ctx, u.ID, b))
	assert.Equal(t, int64(1), mainPhotos(t, env, u.ID))

	got, _ := svc.Get(ctx, u.ID, a)
	assert.False(t, got.IsMain)

	err := svc.SetMain(ctx, u.ID, b)
	assert.True(t, svcErr.Is(err, svcErr.KindConflict))

	err = svc.SetMain(ctx, u.ID, theirs)
	assert.True(t, svcErr.Is(err, svcErr.KindUnauthorized))

	err = svc.SetMain(ctx, u.ID, 9999)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	assert.Equal(t, int64(1), mainPhotos(t, env, u.ID))
	assert.Equal(t, int64(1), mainPhotos(t, env, other.ID))
}

func TestDeletePhoto(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	u := dbtest.User(t, env.DB, db.User{Username: "u"})
	other := dbtest.User(t, env.DB, db.User{Username: "other"})

	mainID := upload(t, svc, u.ID, "a.jpg")
	extra := upload(t, svc, u.ID, "b.jpg")
	theirs := upload(t, svc, other.ID, "c.jpg")

	_, err := svc.Delete(ctx, u.ID, mainID)
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	_, err = svc.Delete(ctx, u.ID, theirs)
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	res, err := svc.Delete(ctx, u.ID, extra)
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.Len(t, env.Store.Objects, 2)

	// last photo: deletable even though main
	_, err = svc.Delete(ctx, u.ID, mainID)
	require.NoError(t, err)
	assert.Zero(t, mainPhotos(t, env, u.ID))

	_, err = svc.Get(ctx, u.ID, mainID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestDeletePhotoStorageFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	u := dbtest.User(t, env.DB, db.User{Username: "u"})

	upload(t, svc, u.ID, "a.jpg")
	extra := upload(t, svc, u.ID, "b.jpg")

	env.Store.FailDelete = errors.New("bucket down")
	res, err := svc.Delete(ctx, u.ID, extra)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warning)

	_, err = svc.Get(ctx, u.ID, extra)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound), "row removed despite storage failure")
}

func TestDeleteSeededPhotoSkipsStorage(t *testing.T) {
	svc, env := setupService(t)
	u := dbtest.User(t, env.DB, db.User{Username: "u"})
	p := dbtest.Photo(t, env.DB, u.ID, "https://randomuser.me/api/portraits/women/1.jpg", true)

	env.Store.FailDelete = errors.New("should not be called")
	res, err := svc.Delete(context.Background(), u.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
}

func TestListPhotosMainFirst(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	u := dbtest.User(t, env.DB, db.User{Username: "u"})

	empty, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := upload(t, svc, u.ID, "a.jpg")
	second := upload(t, svc, u.ID, "b.jpg")
	require.NoError(t, svc.SetMain(ctx, u.ID, second))

	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.True(t, list[0].IsMain)
	assert.Equal(t, first, list[1].ID)
	assert.False(t, list[1].IsMain)
}
