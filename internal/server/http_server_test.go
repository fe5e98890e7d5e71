package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/dating-api/internal/app/apptest"
	"github.com/oggyb/dating-api/internal/db"
	"github.com/oggyb/dating-api/internal/db/dbtest"
	"github.com/oggyb/dating-api/internal/server"
	authsvc "github.com/oggyb/dating-api/internal/service/auth"
	"github.com/oggyb/dating-api/internal/service/members"
	"github.com/oggyb/dating-api/internal/service/messages"
	"github.com/oggyb/dating-api/internal/service/photos"
	"github.com/oggyb/dating-api/internal/utils/pagination"
)

//
// Test helpers
//

func setupApp(t *testing.T) (*fiber.App, *apptest.Env) {
	t.Helper()
	env := apptest.New(t)
	f := server.NewHTTPApp(env.Config, env.AppContext,
		authsvc.NewRegistrar(env.AppContext),
		members.NewRegistrar(env.AppContext),
		photos.NewRegistrar(env.AppContext),
		messages.NewRegistrar(env.AppContext),
	)
	return f, env
}

func do(t *testing.T, f *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := f.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func tokenFor(t *testing.T, env *apptest.Env, u db.User) string {
	t.Helper()
	tok, err := env.Tokens.Issue(u.ID, u.Username)
	require.NoError(t, err)
	return tok
}

//
// Tests
//

// TestRegisterLoginAndBrowse walks the happy path: register, log in, then
// list members as a male caller with no gender override.
func TestRegisterLoginAndBrowse(t *testing.T) {
	f, env := setupApp(t)

	dbtest.User(t, env.DB, db.User{Username: "fiona", Gender: db.GenderFemale})
	dbtest.User(t, env.DB, db.User{Username: "greta", Gender: db.GenderFemale, DateOfBirth: dbtest.Day(1950, 5, 5)})
	dbtest.User(t, env.DB, db.User{Username: "hank", Gender: db.GenderMale})
	dbtest.User(t, env.DB, db.User{Username: "kid", Gender: db.GenderFemale, DateOfBirth: dbtest.Day(2012, 1, 1)})

	resp := do(t, f, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":    "alia",
		"password":    "pw123",
		"knownAs":     "Alia",
		"gender":      "male",
		"dateOfBirth": "1996-02-10",
		"city":        "Lisbon",
		"country":     "Portugal",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, f, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alia", "password": "pw123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
		User  struct {
			ID       uint64 `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	decode(t, resp, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "alia", login.User.Username)

	resp = do(t, f, http.MethodGet, "/api/users?gender=female", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var users []struct {
		Username string `json:"username"`
		Gender   string `json:"gender"`
		Age      int    `json:"age"`
	}
	decode(t, resp, &users)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Equal(t, "female", u.Gender)
		assert.GreaterOrEqual(t, u.Age, 18)
		assert.LessOrEqual(t, u.Age, 99)
	}

	var w pagination.Window
	require.NoError(t, json.Unmarshal([]byte(resp.Header.Get(pagination.HeaderName)), &w))
	assert.Equal(t, pagination.Window{CurrentPage: 1, ItemsPerPage: 10, TotalItems: 2, TotalPages: 1}, w)
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlExposeHeaders), pagination.HeaderName)
}

func TestDuplicateRegisterAndBadLogin(t *testing.T) {
	f, _ := setupApp(t)
	body := map[string]string{
		"username": "alia", "password": "pw123", "knownAs": "Alia", "gender": "female",
		"dateOfBirth": "1996-02-10", "city": "Lisbon", "country": "Portugal",
	}
	require.Equal(t, http.StatusCreated, do(t, f, http.MethodPost, "/api/auth/register", "", body).StatusCode)

	resp := do(t, f, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	decode(t, resp, &e)
	assert.Equal(t, "error", e.Status)
	assert.Equal(t, "username already exists", e.Message)

	resp = do(t, f, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alia", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	f, _ := setupApp(t)

	assert.Equal(t, http.StatusUnauthorized, do(t, f, http.MethodGet, "/api/users", "", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, f, http.MethodGet, "/api/users", "garbage", nil).StatusCode)
}

func TestOwnershipEnforced(t *testing.T) {
	f, env := setupApp(t)
	me := dbtest.User(t, env.DB, db.User{Username: "me"})
	other := dbtest.User(t, env.DB, db.User{Username: "other"})
	tok := tokenFor(t, env, me)

	resp := do(t, f, http.MethodPut, fmt.Sprintf("/api/users/%d", other.ID), tok, map[string]string{"bio": "hacked"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, f, http.MethodGet, fmt.Sprintf("/api/users/%d/messages", other.ID), tok, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, f, http.MethodPut, fmt.Sprintf("/api/users/%d", me.ID), tok, map[string]string{"bio": "hello"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, f, http.MethodGet, fmt.Sprintf("/api/users/%d", me.ID), tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		Bio string `json:"bio"`
	}
	decode(t, resp, &detail)
	assert.Equal(t, "hello", detail.Bio)

	var stored db.User
	require.NoError(t, env.DB.First(&stored, me.ID).Error)
	assert.True(t, stored.LastActive.Equal(apptest.Today), "activity tracked")
}

func TestLikeEndpoints(t *testing.T) {
	f, env := setupApp(t)
	me := dbtest.User(t, env.DB, db.User{Username: "me"})
	her := dbtest.User(t, env.DB, db.User{Username: "her"})
	tok := tokenFor(t, env, me)

	path := fmt.Sprintf("/api/users/%d/like/%d", me.ID, her.ID)
	assert.Equal(t, http.StatusOK, do(t, f, http.MethodPost, path, tok, nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, f, http.MethodPost, path, tok, nil).StatusCode)

	missing := fmt.Sprintf("/api/users/%d/like/%d", me.ID, 9999)
	assert.Equal(t, http.StatusNotFound, do(t, f, http.MethodPost, missing, tok, nil).StatusCode)

	resp := do(t, f, http.MethodGet, fmt.Sprintf("/api/users/%d/likes?predicate=likees", me.ID), tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var likees []struct {
		Username string `json:"username"`
	}
	decode(t, resp, &likees)
	require.Len(t, likees, 1)
	assert.Equal(t, "her", likees[0].Username)

	assert.Equal(t, http.StatusNoContent, do(t, f, http.MethodDelete, path, tok, nil).StatusCode)
	assert.Equal(t, http.StatusNoContent, do(t, f, http.MethodDelete, path, tok, nil).StatusCode)
}

func TestMessageEndpoints(t *testing.T) {
	f, env := setupApp(t)
	a := dbtest.User(t, env.DB, db.User{Username: "a"})
	b := dbtest.User(t, env.DB, db.User{Username: "b"})
	ta, tb := tokenFor(t, env, a), tokenFor(t, env, b)

	resp := do(t, f, http.MethodPost, fmt.Sprintf("/api/users/%d/messages", a.ID), ta,
		map[string]any{"recipientId": b.ID, "content": "hi"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sent struct {
		ID uint64 `json:"id"`
	}
	decode(t, resp, &sent)

	resp = do(t, f, http.MethodPost, fmt.Sprintf("/api/users/%d/messages", a.ID), ta,
		map[string]any{"recipientId": 9999, "content": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, f, http.MethodGet, fmt.Sprintf("/api/users/%d/messages/unread/count", b.ID), tb, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var count struct {
		Count int64 `json:"count"`
	}
	decode(t, resp, &count)
	assert.Equal(t, int64(1), count.Count)

	read := fmt.Sprintf("/api/users/%d/messages/%d/read", a.ID, sent.ID)
	assert.Equal(t, http.StatusUnauthorized, do(t, f, http.MethodPost, read, ta, nil).StatusCode, "sender")

	read = fmt.Sprintf("/api/users/%d/messages/%d/read", b.ID, sent.ID)
	assert.Equal(t, http.StatusNoContent, do(t, f, http.MethodPost, read, tb, nil).StatusCode)

	resp = do(t, f, http.MethodGet, fmt.Sprintf("/api/users/%d/messages?container=Inbox", b.ID), tb, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(pagination.HeaderName))

	resp = do(t, f, http.MethodGet, fmt.Sprintf("/api/users/%d/messages/thread/%d", a.ID, b.ID), ta, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var thread []struct {
		ID     uint64 `json:"id"`
		IsRead bool   `json:"isRead"`
	}
	decode(t, resp, &thread)
	require.Len(t, thread, 1)
	assert.True(t, thread[0].IsRead)

	del := fmt.Sprintf("/api/users/%d/messages/%d", a.ID, sent.ID)
	assert.Equal(t, http.StatusNoContent, do(t, f, http.MethodDelete, del, ta, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, f, http.MethodGet, del, ta, nil).StatusCode)
}

func TestPhotoEndpoints(t *testing.T) {
	f, env := setupApp(t)
	me := dbtest.User(t, env.DB, db.User{Username: "me"})
	tok := tokenFor(t, env, me)

	uploadOne := func(name string) uint64 {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte("image-bytes"))
		require.NoError(t, mw.WriteField("description", "at the beach"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/users/%d/photos", me.ID), &buf)
		req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
		resp, err := f.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var p struct {
			ID          uint64 `json:"id"`
			Description string `json:"description"`
		}
		decode(t, resp, &p)
		assert.Equal(t, "at the beach", p.Description)
		return p.ID
	}

	first := uploadOne("a.jpg")
	second := uploadOne("b.jpg")

	resp := do(t, f, http.MethodDelete, fmt.Sprintf("/api/users/%d/photos/%d", me.ID, first), tok, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "main photo")

	setMain := fmt.Sprintf("/api/users/%d/photos/%d/setMain", me.ID, second)
	assert.Equal(t, http.StatusNoContent, do(t, f, http.MethodPost, setMain, tok, nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, f, http.MethodPost, setMain, tok, nil).StatusCode)

	resp = do(t, f, http.MethodDelete, fmt.Sprintf("/api/users/%d/photos/%d", me.ID, first), tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]any
	decode(t, resp, &result)
	assert.Empty(t, result)
}
