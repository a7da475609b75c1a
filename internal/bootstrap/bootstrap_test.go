package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/middleware"
)

type apiEnv struct {
	router *gin.Engine
	deps   *Dependencies
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("SERVER_STORAGE_PATH", t.TempDir())
	t.Setenv("SERVER_MODE", "production")
	t.Setenv("LOG_LEVEL", "error")

	cfg, lgr, err := LoadConfigAndSetupLogger(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	deps, err := BuildDependencies(ctx, cfg, lgr)
	require.NoError(t, err)
	go deps.Hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		deps.Close()
	})

	return &apiEnv{router: SetupRouter(cfg, deps, lgr), deps: deps}
}

func (e *apiEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) upload(t *testing.T, token, sharedWith string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "sunset.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a jpeg"))
	require.NoError(t, err)
	if sharedWith != "" {
		require.NoError(t, mw.WriteField("sharedWith", sharedWith))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unwraps the data field of an APIResponse into out
func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env struct {
		Data  json.RawMessage  `json:"data"`
		Error *dto.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Nil(t, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func (e *apiEnv) signUp(t *testing.T, login string) (dto.UserResponse, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		LoginName: login, Password: "secret1", FirstName: login, LastName: "Tester",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{LoginName: login, Password: "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var auth dto.AuthResponse
	decode(t, w, &auth)
	return auth.User, auth.Token
}

func TestAPI_Ping(t *testing.T) {
	env := newAPIEnv(t)
	w := env.do(t, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_RegisterValidation(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{"loginName": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.signUp(t, "ada")
	w = env.do(t, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		LoginName: "ada", Password: "secret1", FirstName: "A", LastName: "B",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAPI_LoginSetsSessionCookie(t *testing.T) {
	env := newAPIEnv(t)
	env.signUp(t, "ada")

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{LoginName: "ada", Password: "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A revoked session no longer works.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{LoginName: "ada", Password: "nope!!"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_WritesRequireSession(t *testing.T) {
	env := newAPIEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/photos"},
		{http.MethodPost, "/api/v1/photos/p1/like"},
		{http.MethodPost, "/api/v1/photos/p1/comments"},
		{http.MethodDelete, "/api/v1/photos/p1"},
		{http.MethodDelete, "/api/v1/photos/p1/comments/c1"},
		{http.MethodDelete, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/auth/logout"},
	} {
		w := env.do(t, tc.method, tc.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}

	w := env.do(t, http.MethodPost, "/api/v1/photos/p1/like", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_PhotoLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	alice, aliceToken := env.signUp(t, "alice")
	bob, bobToken := env.signUp(t, "bob")
	_, carolToken := env.signUp(t, "carol")

	w := env.upload(t, aliceToken, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var public dto.PhotoResponse
	decode(t, w, &public)
	assert.Equal(t, alice.ID, public.OwnerID)
	assert.Contains(t, public.URL, "/uploads/")

	w = env.upload(t, aliceToken, `["`+bob.ID+`"]`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var restricted dto.PhotoResponse
	decode(t, w, &restricted)
	assert.Equal(t, []string{bob.ID}, restricted.SharedWith)

	w = env.upload(t, aliceToken, "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Anonymous and carol see only the public photo; bob sees both.
	for token, want := range map[string]int{"": 1, carolToken: 1, bobToken: 2, aliceToken: 2} {
		w = env.do(t, http.MethodGet, "/api/v1/users/"+alice.ID+"/photos", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		var photos []dto.PhotoResponse
		decode(t, w, &photos)
		assert.Len(t, photos, want)
	}
	w = env.do(t, http.MethodGet, "/api/v1/photos/"+restricted.ID, nil, carolToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/photos/"+public.ID+"/like", nil, bobToken)
	require.Equal(t, http.StatusOK, w.Code)
	var like dto.LikeResponse
	decode(t, w, &like)
	assert.Equal(t, dto.LikeResponse{PhotoID: public.ID, LikeCount: 1, Liked: true}, like)

	w = env.do(t, http.MethodPost, "/api/v1/photos/"+public.ID+"/comments", dto.AddCommentRequest{Text: "lovely"}, bobToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment dto.CommentResponse
	decode(t, w, &comment)
	assert.Equal(t, "bob", comment.Author.FirstName)

	w = env.do(t, http.MethodPost, "/api/v1/photos/"+public.ID+"/comments", dto.AddCommentRequest{Text: "   "}, bobToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/users/"+bob.ID+"/comments", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var comments []dto.CommentResponse
	decode(t, w, &comments)
	require.Len(t, comments, 1)

	w = env.do(t, http.MethodGet, "/api/v1/users/"+alice.ID+"/stats", nil, bobToken)
	require.Equal(t, http.StatusOK, w.Code)
	var stats dto.UserStatsResponse
	decode(t, w, &stats)
	assert.Equal(t, public.ID, stats.MostCommentedPhoto.ID)
	assert.Equal(t, restricted.ID, stats.MostRecentPhoto.ID)

	w = env.do(t, http.MethodDelete, "/api/v1/photos/"+public.ID+"/comments/"+comment.ID, nil, aliceToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/photos/"+public.ID+"/comments/"+comment.ID, nil, bobToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/photos/"+public.ID, nil, bobToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/photos/"+public.ID, nil, aliceToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/photos/"+public.ID, nil, aliceToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_ActivitiesAndUsers(t *testing.T) {
	env := newAPIEnv(t)
	alice, token := env.signUp(t, "alice")
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, env.upload(t, token, "").Code)
	}

	w := env.do(t, http.MethodGet, "/api/v1/activities", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var feed []dto.ActivityResponse
	decode(t, w, &feed)
	assert.Len(t, feed, 5) // register, login and three uploads

	w = env.do(t, http.MethodGet, "/api/v1/activities?limit=2", nil, "")
	decode(t, w, &feed)
	assert.Len(t, feed, 2)

	w = env.do(t, http.MethodGet, "/api/v1/activities?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/users", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var users []dto.UserSummaryResponse
	decode(t, w, &users)
	require.Len(t, users, 1)
	require.NotNil(t, users[0].LastActivity)
	assert.Equal(t, "PHOTO_UPLOAD", string(users[0].LastActivity.Type))

	w = env.do(t, http.MethodGet, "/api/v1/users/"+alice.ID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/users/ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_DeleteAccount(t *testing.T) {
	env := newAPIEnv(t)
	alice, token := env.signUp(t, "alice")
	require.Equal(t, http.StatusCreated, env.upload(t, token, "").Code)

	w := env.do(t, http.MethodDelete, "/api/v1/users/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/users/"+alice.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/users/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_DemoData(t *testing.T) {
	t.Setenv("SEED_DEMO_DATA", "true")
	env := newAPIEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/users", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var users []dto.UserSummaryResponse
	decode(t, w, &users)
	assert.Len(t, users, 4)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{LoginName: "ada", Password: "photoshare"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
