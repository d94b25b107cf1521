package dogs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	"github.com/FACorreiaa/go-dogwalks/internal/app/session"
)

func TestRepository_ListAll(t *testing.T) {
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer db.Close()

	db.ExpectQuery(regexp.QuoteMeta("SELECT d.name, d.size, u.username FROM dogs d JOIN users u ON u.user_id = d.owner_id ORDER BY d.name ASC, d.dog_id ASC")).
		WillReturnRows(pgxmock.NewRows([]string{"name", "size", "username"}).
			AddRow("Bella", "small", "carol123").
			AddRow("Max", "medium", "alice123"))

	dogs, err := NewRepository(db, zap.NewNop(), time.Second).ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.DogListing{
		{DogName: "Bella", Size: models.DogSizeSmall, OwnerUsername: "carol123"},
		{DogName: "Max", Size: models.DogSizeMedium, OwnerUsername: "alice123"},
	}, dogs)
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestRepository_ListByOwner(t *testing.T) {
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer db.Close()

	db.ExpectQuery(regexp.QuoteMeta("SELECT dog_id, name, size FROM dogs WHERE owner_id = $1 ORDER BY name ASC, dog_id ASC")).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"dog_id", "name", "size"}).AddRow(int64(1), "Max", "medium"))

	dogs, err := NewRepository(db, zap.NewNop(), time.Second).ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []models.OwnedDog{{ID: 1, Name: "Max", Size: models.DogSizeMedium}}, dogs)
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestRepository_Create(t *testing.T) {
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer db.Close()

	db.ExpectQuery(regexp.QuoteMeta("INSERT INTO dogs (owner_id,name,size) VALUES ($1,$2,$3) RETURNING dog_id")).
		WithArgs(int64(1), "Rex", "large").
		WillReturnRows(pgxmock.NewRows([]string{"dog_id"}).AddRow(int64(4)))

	id, err := NewRepository(db, zap.NewNop(), time.Second).Create(context.Background(),
		models.CreateDogParams{OwnerID: 1, Name: "Rex", Size: models.DogSizeLarge})
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
	assert.NoError(t, db.ExpectationsWereMet())
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) ListAll(ctx context.Context) ([]models.DogListing, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.DogListing), args.Error(1)
}

func (m *mockRepo) ListByOwner(ctx context.Context, ownerID int64) ([]models.OwnedDog, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]models.OwnedDog), args.Error(1)
}

func (m *mockRepo) Create(ctx context.Context, params models.CreateDogParams) (int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(int64), args.Error(1)
}

var (
	alice = models.SessionUser{UserID: 1, Username: "alice123", Email: "alice@example.com", Role: models.RoleOwner}
	bob   = models.SessionUser{UserID: 2, Username: "bobwalker", Email: "bob@example.com", Role: models.RoleWalker}
)

func newRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	mgr := session.NewManager(session.NewMemoryStore(time.Minute), []byte("0123456789abcdef0123456789abcdef"),
		session.Options{CookieName: "dogwalk_session", TTL: time.Hour}, zap.NewNop())
	h := NewHandler(repo, zap.NewNop())

	r := gin.New()
	r.Use(mgr.LoadSession())
	r.POST("/test/login/:who", func(c *gin.Context) {
		u := alice
		if c.Param("who") == "bob" {
			u = bob
		}
		if _, err := mgr.Create(c, u); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/api/dogs", h.List)
	r.POST("/api/dogs", session.RequireRole(models.RoleOwner), h.Create)
	r.GET("/api/users/my-dogs", session.RequireAuth(), h.MyDogs)
	return r
}

func login(t *testing.T, r http.Handler, who string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test/login/"+who, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func send(r http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestList_Public(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ListAll", mock.Anything).Return([]models.DogListing{
		{DogName: "Max", Size: models.DogSizeMedium, OwnerUsername: "alice123"},
	}, nil)

	rec := send(newRouter(repo), http.MethodGet, "/api/dogs", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"dog_name":"Max","size":"medium","owner_username":"alice123"}]`, rec.Body.String())
}

func TestList_EmptyIsArray(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ListAll", mock.Anything).Return([]models.DogListing(nil), nil)

	rec := send(newRouter(repo), http.MethodGet, "/api/dogs", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestList_Failure(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ListAll", mock.Anything).Return([]models.DogListing(nil), errors.New("timeout"))

	rec := send(newRouter(repo), http.MethodGet, "/api/dogs", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch dogs"}`, rec.Body.String())
}

func TestMyDogs(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ListByOwner", mock.Anything, int64(1)).Return([]models.OwnedDog{{ID: 1, Name: "Max", Size: models.DogSizeMedium}}, nil)
	r := newRouter(repo)

	rec := send(r, http.MethodGet, "/api/users/my-dogs", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	repo.AssertNotCalled(t, "ListByOwner", mock.Anything, mock.Anything)

	rec = send(r, http.MethodGet, "/api/users/my-dogs", nil, login(t, r, "alice"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"dog_id":1,"name":"Max","size":"medium"}]`, rec.Body.String())
}

func TestCreate(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Create", mock.Anything, models.CreateDogParams{OwnerID: 1, Name: "Rex", Size: models.DogSizeLarge}).Return(int64(7), nil)
	r := newRouter(repo)
	owner := login(t, r, "alice")

	rec := send(r, http.MethodPost, "/api/dogs", CreateDogRequest{Name: " Rex ", Size: "large"}, owner)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Dog created","dog_id":7}`, rec.Body.String())

	rec = send(r, http.MethodPost, "/api/dogs", CreateDogRequest{Name: "Rex", Size: "huge"}, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(r, http.MethodPost, "/api/dogs", CreateDogRequest{Name: "", Size: "small"}, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(r, http.MethodPost, "/api/dogs", CreateDogRequest{Name: "Rex", Size: "large"}, login(t, r, "bob"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	repo.AssertNumberOfCalls(t, "Create", 1)
}
