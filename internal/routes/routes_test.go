package routes

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-dogwalks/internal/app/middleware"
	"github.com/FACorreiaa/go-dogwalks/internal/app/session"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func newTestEngine(t *testing.T, pinger Pinger) (*gin.Engine, pgxmock.PgxPoolIface) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(db.Close)

	deps := Deps{
		DB:     db,
		Pinger: pinger,
		Sessions: session.NewManager(session.NewMemoryStore(time.Minute), []byte("0123456789abcdef0123456789abcdef"),
			session.Options{CookieName: "dogwalk_session", TTL: 24 * time.Hour}, zap.NewNop()),
		LoginLimiter: middleware.NewLoginLimiter(60, 10, zap.NewNop()),
		QueryTimeout: time.Second,
		Logger:       zap.NewNop(),
	}
	r := gin.New()
	Setup(r, deps)
	return r, db
}

func serve(r http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	r, _ := newTestEngine(t, stubPinger{})
	rec := serve(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	r, _ = newTestEngine(t, stubPinger{err: errors.New("down")})
	rec = serve(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPublicDogDirectory(t *testing.T) {
	r, db := newTestEngine(t, stubPinger{})
	db.ExpectQuery("SELECT d.name, d.size, u.username FROM dogs d").
		WillReturnRows(pgxmock.NewRows([]string{"name", "size", "username"}).AddRow("Max", "medium", "alice123"))

	rec := serve(r, http.MethodGet, "/api/dogs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"dog_name":"Max","size":"medium","owner_username":"alice123"}]`, rec.Body.String())
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	r, _ := newTestEngine(t, stubPinger{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/users/my-dogs"},
		{http.MethodPost, "/api/dogs"},
		{http.MethodPost, "/api/walks"},
		{http.MethodPost, "/api/walks/1/apply"},
		{http.MethodPost, "/api/walks/applications/1/accept"},
	} {
		rec := serve(r, tc.method, tc.path, "{}")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
		assert.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String(), tc.path)
	}
}

func TestLoginFlowAgainstDatabase(t *testing.T) {
	r, db := newTestEngine(t, stubPinger{})
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed123"), bcrypt.MinCost)
	require.NoError(t, err)

	credRows := func() *pgxmock.Rows {
		return pgxmock.NewRows([]string{"user_id", "username", "email", "role", "password_hash"}).
			AddRow(int64(1), "alice123", "alice@example.com", "owner", string(hash))
	}

	db.ExpectQuery("FROM users WHERE username").WithArgs("alice123").WillReturnRows(credRows())
	rec := serve(r, http.MethodPost, "/api/users/login", `{"username":"alice123","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())

	db.ExpectQuery("FROM users WHERE username").WithArgs("alice123").WillReturnRows(credRows())
	rec = serve(r, http.MethodPost, "/api/users/login", `{"username":"alice123","password":"hashed123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Login successful","user":{"username":"alice123","role":"owner"}}`, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	db.ExpectQuery("SELECT dog_id, name, size FROM dogs WHERE owner_id").WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"dog_id", "name", "size"}).AddRow(int64(1), "Max", "medium"))
	rec = serve(r, http.MethodGet, "/api/users/my-dogs", "", cookies[0])
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"dog_id":1,"name":"Max","size":"medium"}]`, rec.Body.String())

	// walkers only
	rec = serve(r, http.MethodPost, "/api/walks/1/apply", "", cookies[0])
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.NoError(t, db.ExpectationsWereMet())
}
