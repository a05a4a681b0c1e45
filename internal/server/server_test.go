package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/tutorhub/internal/config"
	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/internal/session"
	"anoa.com/tutorhub/internal/testutil"
	"anoa.com/tutorhub/pkg/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	return newTestServerWith(t, nil, nil)
}

func newTestServerWith(t *testing.T, rdb *redis.Client, tweak func(*config.Config)) (http.Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:                "test",
		AllowedOrigins:        []string{"http://localhost:3000"},
		JWTSecret:             "integration-secret",
		JWTTTL:                time.Hour,
		RememberTTL:           24 * time.Hour,
		ConsentTTL:            24 * time.Hour,
		MaxUploadMB:           5,
		RateLimitRegister:     10,
		RateLimitLogin:        20,
		RateLimitWindow:       time.Hour,
		OrphanCleanupSchedule: "@hourly",
	}
	if tweak != nil {
		tweak(cfg)
	}

	srv, err := NewServer(Deps{Config: cfg, DB: db, Redis: rdb, Files: files, Log: testutil.Logger(t)})
	require.NoError(t, err)
	return srv.Handler(), db
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func login(t *testing.T, h http.Handler, email string, remember bool) *httptest.ResponseRecorder {
	t.Helper()
	w := do(t, h, http.MethodPost, "/login", gin.H{"email": email, "password": testutil.Password, "remember": remember})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return w
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	w := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := newTestServer(t)

	w := do(t, h, http.MethodPost, "/register", gin.H{
		"email":         "new.tutor@example.com",
		"password":      testutil.Password,
		"full_name":     "Marie Curie",
		"date_of_birth": "1990-11-07",
		"role":          entity.RoleTutor,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/register", gin.H{
		"email":         "new.tutor@example.com",
		"password":      testutil.Password,
		"full_name":     "Marie Curie",
		"date_of_birth": "1990-11-07",
		"role":          entity.RoleTutor,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/login", gin.H{"email": "new.tutor@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = login(t, h, "new.tutor@example.com", false)
	sess := cookie(w, session.SessionCookie)
	require.NotNil(t, sess)
	assert.True(t, sess.HttpOnly)
	assert.Nil(t, cookie(w, session.RememberCookie))

	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.AccessToken)

	w = do(t, h, http.MethodGet, "/tutor/dashboard", nil, sess)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRoleGuards(t *testing.T) {
	h, db := newTestServer(t)
	ctx := context.Background()
	testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)
	testutil.SeedUser(t, ctx, db, "learner@example.com", entity.RoleLearner)

	tutor := cookie(login(t, h, "tutor@example.com", false), session.SessionCookie)
	learner := cookie(login(t, h, "learner@example.com", false), session.SessionCookie)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/account", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/learner/dashboard", nil, tutor).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/classes", nil, learner).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/learner/dashboard", nil, learner).Code)

	w := do(t, h, http.MethodPost, "/classes/new", gin.H{"title": "Algebra", "subject": "Maths", "year_group": 9}, tutor)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/classes/new", gin.H{"title": "Algebra", "subject": "Maths", "year_group": 14}, tutor)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRememberCookieResumesSession(t *testing.T) {
	h, db := newTestServer(t)
	testutil.SeedUser(t, context.Background(), db, "learner@example.com", entity.RoleLearner)

	w := login(t, h, "learner@example.com", true)
	remember := cookie(w, session.RememberCookie)
	require.NotNil(t, remember)

	w = do(t, h, http.MethodGet, "/account", nil, remember)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, cookie(w, session.SessionCookie), "a fresh session cookie is issued")

	// a remember token is not accepted as a session token
	forged := &http.Cookie{Name: session.SessionCookie, Value: remember.Value}
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/account", nil, forged).Code)

	w = do(t, h, http.MethodGet, "/logout", nil, remember)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := cookie(w, session.RememberCookie)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)
}

func TestNotificationsAndConsent(t *testing.T) {
	h, db := newTestServer(t)
	u := testutil.SeedUser(t, context.Background(), db, "learner@example.com", entity.RoleLearner)
	require.NoError(t, db.Create(&entity.Notification{UserID: u.ID, Type: entity.NotificationGraded, Message: "Week 1 was graded"}).Error)

	sess := cookie(login(t, h, "learner@example.com", false), session.SessionCookie)

	w := do(t, h, http.MethodGet, "/notifications", nil, sess)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []entity.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Week 1 was graded", list.Data[0].Message)

	w = do(t, h, http.MethodGet, "/notifications/ws", nil, sess)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no redis configured")

	w = do(t, h, http.MethodGet, "/consent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	consent := cookie(w, session.ConsentCookie)
	require.NotNil(t, consent)
	assert.Equal(t, "yes", consent.Value)
	assert.False(t, consent.HttpOnly)
}

func TestUploadsRequireKnownResource(t *testing.T) {
	h, db := newTestServer(t)
	testutil.SeedUser(t, context.Background(), db, "tutor@example.com", entity.RoleTutor)
	sess := cookie(login(t, h, "tutor@example.com", false), session.SessionCookie)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/uploads/unknown.pdf", nil, sess).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/uploads/unknown.pdf", nil).Code)
}

func TestDeleteAccountNeedsConfirmation(t *testing.T) {
	h, db := newTestServer(t)
	testutil.SeedUser(t, context.Background(), db, "tutor@example.com", entity.RoleTutor)
	sess := cookie(login(t, h, "tutor@example.com", false), session.SessionCookie)

	w := do(t, h, http.MethodDelete, "/account", gin.H{"password": testutil.Password}, sess)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "confirm_deletion")

	var users int64
	db.Model(&entity.User{}).Count(&users)
	assert.Equal(t, int64(1), users)

	w = do(t, h, http.MethodDelete, "/account", gin.H{"password": testutil.Password, "confirm_deletion": true}, sess)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the session token outlives the account but is no longer accepted
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/tutor/dashboard", nil, sess).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/account", nil, sess).Code)
}

func TestLoginRateLimitResetsOnSuccess(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h, db := newTestServerWith(t, rdb, func(cfg *config.Config) { cfg.RateLimitLogin = 2 })
	testutil.SeedUser(t, context.Background(), db, "learner@example.com", entity.RoleLearner)

	wrong := gin.H{"email": "learner@example.com", "password": "Wrong-pass1!"}
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/login", wrong).Code)
	login(t, h, "learner@example.com", false)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/login", wrong).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/login", wrong).Code)

	w := do(t, h, http.MethodPost, "/login", wrong)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
