package walks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	"github.com/FACorreiaa/go-dogwalks/internal/app/session"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListOpen(ctx context.Context) ([]models.OpenWalkRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.OpenWalkRequest), args.Error(1)
}

func (m *mockService) WalkerSummaries(ctx context.Context) ([]models.WalkerSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.WalkerSummary), args.Error(1)
}

func (m *mockService) CreateRequest(ctx context.Context, params models.CreateWalkRequestParams) (int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockService) Apply(ctx context.Context, requestID, walkerID int64) (int64, error) {
	args := m.Called(ctx, requestID, walkerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockService) ListApplications(ctx context.Context, requestID, ownerID int64) ([]models.WalkApplication, error) {
	args := m.Called(ctx, requestID, ownerID)
	return args.Get(0).([]models.WalkApplication), args.Error(1)
}

func (m *mockService) AcceptApplication(ctx context.Context, applicationID, ownerID int64) error {
	return m.Called(ctx, applicationID, ownerID).Error(0)
}

func (m *mockService) Complete(ctx context.Context, requestID, ownerID int64) error {
	return m.Called(ctx, requestID, ownerID).Error(0)
}

func (m *mockService) Rate(ctx context.Context, params models.CreateRatingParams) (int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(int64), args.Error(1)
}

var (
	alice = models.SessionUser{UserID: 1, Username: "alice123", Email: "alice@example.com", Role: models.RoleOwner}
	bob   = models.SessionUser{UserID: 2, Username: "bobwalker", Email: "bob@example.com", Role: models.RoleWalker}
)

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	mgr := session.NewManager(session.NewMemoryStore(time.Minute), []byte("0123456789abcdef0123456789abcdef"),
		session.Options{CookieName: "dogwalk_session", TTL: time.Hour}, zap.NewNop())
	h := NewHandler(svc, zap.NewNop())

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

	r.GET("/api/walkrequests/open", h.ListOpen)
	r.GET("/api/walkers/summary", h.WalkerSummary)

	owner := session.RequireRole(models.RoleOwner)
	walker := session.RequireRole(models.RoleWalker)
	r.POST("/api/walks", owner, h.CreateRequest)
	r.POST("/api/walks/:id/apply", walker, h.Apply)
	r.GET("/api/walks/:id/applications", owner, h.Applications)
	r.POST("/api/walks/applications/:id/accept", owner, h.Accept)
	r.POST("/api/walks/:id/complete", owner, h.Complete)
	r.POST("/api/walks/:id/rating", owner, h.Rate)
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

func TestWalkerSummary_NullAverage(t *testing.T) {
	avg := 4.5
	svc := new(mockService)
	svc.On("WalkerSummaries", mock.Anything).Return([]models.WalkerSummary{
		{WalkerUsername: "bobwalker", TotalRatings: 2, AverageRating: &avg, CompletedWalks: 2},
		{WalkerUsername: "newwalker"},
	}, nil)

	rec := send(newRouter(svc), http.MethodGet, "/api/walkers/summary", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"walker_username":"bobwalker","total_ratings":2,"average_rating":4.5,"completed_walks":2},
		{"walker_username":"newwalker","total_ratings":0,"average_rating":null,"completed_walks":0}
	]`, rec.Body.String())
}

func TestListOpen(t *testing.T) {
	when := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	svc := new(mockService)
	svc.On("ListOpen", mock.Anything).Return([]models.OpenWalkRequest{
		{RequestID: 1, DogName: "Max", RequestedTime: when, DurationMinutes: 30, Location: "Parklands", OwnerUsername: "alice123"},
	}, nil)

	rec := send(newRouter(svc), http.MethodGet, "/api/walkrequests/open", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"request_id":1,"dog_name":"Max","requested_time":"2025-06-10T09:00:00Z","duration_minutes":30,"location":"Parklands","owner_username":"alice123"}]`, rec.Body.String())
}

func TestListOpen_Failure(t *testing.T) {
	svc := new(mockService)
	svc.On("ListOpen", mock.Anything).Return([]models.OpenWalkRequest{}, errors.New("timeout"))

	rec := send(newRouter(svc), http.MethodGet, "/api/walkrequests/open", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch walk requests"}`, rec.Body.String())
}

func TestCreateRequest(t *testing.T) {
	when := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	svc := new(mockService)
	svc.On("CreateRequest", mock.Anything, models.CreateWalkRequestParams{
		OwnerID: 1, DogID: 1, RequestedTime: when, DurationMinutes: 30, Location: "Parklands",
	}).Return(int64(11), nil)
	r := newRouter(svc)

	body := CreateRequestBody{DogID: 1, RequestedTime: when, DurationMinutes: 30, Location: "Parklands"}
	rec := send(r, http.MethodPost, "/api/walks", body, login(t, r, "alice"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Walk request created","request_id":11}`, rec.Body.String())

	rec = send(r, http.MethodPost, "/api/walks", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(r, http.MethodPost, "/api/walks", body, login(t, r, "bob"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	svc.AssertNumberOfCalls(t, "CreateRequest", 1)
}

func TestApply(t *testing.T) {
	svc := new(mockService)
	svc.On("Apply", mock.Anything, int64(1), int64(2)).Return(int64(21), nil).Once()
	svc.On("Apply", mock.Anything, int64(1), int64(2)).
		Return(int64(0), models.NewError(models.ErrConflict, "Already applied to this walk")).Once()
	r := newRouter(svc)
	walker := login(t, r, "bob")

	rec := send(r, http.MethodPost, "/api/walks/1/apply", nil, walker)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Application submitted","application_id":21}`, rec.Body.String())

	rec = send(r, http.MethodPost, "/api/walks/1/apply", nil, walker)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Already applied to this walk"}`, rec.Body.String())

	rec = send(r, http.MethodPost, "/api/walks/abc/apply", nil, walker)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(r, http.MethodPost, "/api/walks/1/apply", nil, login(t, r, "alice"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApplications(t *testing.T) {
	svc := new(mockService)
	svc.On("ListApplications", mock.Anything, int64(1), int64(1)).Return([]models.WalkApplication{
		{ID: 21, RequestID: 1, WalkerID: 2, WalkerUsername: "bobwalker", AppliedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), Status: models.ApplicationPending},
	}, nil)
	svc.On("ListApplications", mock.Anything, int64(9), int64(1)).
		Return([]models.WalkApplication(nil), models.NewError(models.ErrNotFound, "Walk request not found"))
	r := newRouter(svc)
	owner := login(t, r, "alice")

	rec := send(r, http.MethodGet, "/api/walks/1/applications", nil, owner)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"application_id":21,"request_id":1,"walker_id":2,"walker_username":"bobwalker","applied_at":"2025-06-01T12:00:00Z","status":"pending"}]`, rec.Body.String())

	rec = send(r, http.MethodGet, "/api/walks/9/applications", nil, owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Walk request not found"}`, rec.Body.String())
}

func TestAcceptCompleteRate(t *testing.T) {
	svc := new(mockService)
	svc.On("AcceptApplication", mock.Anything, int64(21), int64(1)).Return(nil)
	svc.On("AcceptApplication", mock.Anything, int64(22), int64(1)).
		Return(models.NewError(models.ErrConflict, "Walk request is not open"))
	svc.On("Complete", mock.Anything, int64(1), int64(1)).Return(nil)
	svc.On("Rate", mock.Anything, models.CreateRatingParams{RequestID: 1, OwnerID: 1, Rating: 5, Comments: "Great walk"}).
		Return(int64(31), nil)
	svc.On("Rate", mock.Anything, models.CreateRatingParams{RequestID: 1, OwnerID: 1, Rating: 9}).
		Return(int64(0), models.NewError(models.ErrValidation, "rating must be between 1 and 5"))
	r := newRouter(svc)
	owner := login(t, r, "alice")

	rec := send(r, http.MethodPost, "/api/walks/applications/21/accept", nil, owner)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Application accepted"}`, rec.Body.String())

	rec = send(r, http.MethodPost, "/api/walks/applications/22/accept", nil, owner)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = send(r, http.MethodPost, "/api/walks/1/complete", nil, owner)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(r, http.MethodPost, "/api/walks/1/rating", RatingBody{Rating: 5, Comments: "Great walk"}, owner)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Rating submitted","rating_id":31}`, rec.Body.String())

	rec = send(r, http.MethodPost, "/api/walks/1/rating", RatingBody{Rating: 9}, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"rating must be between 1 and 5"}`, rec.Body.String())
}

func TestService_Validation(t *testing.T) {
	svc := NewService(nil, zap.NewNop())
	ctx := context.Background()
	when := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	bad := []models.CreateWalkRequestParams{
		{OwnerID: 1, RequestedTime: when, DurationMinutes: 30, Location: "Parklands"},
		{OwnerID: 1, DogID: 1, DurationMinutes: 30, Location: "Parklands"},
		{OwnerID: 1, DogID: 1, RequestedTime: when, DurationMinutes: 0, Location: "Parklands"},
		{OwnerID: 1, DogID: 1, RequestedTime: when, DurationMinutes: 30, Location: "   "},
	}
	for _, p := range bad {
		_, err := svc.CreateRequest(ctx, p)
		assert.ErrorIs(t, err, models.ErrValidation)
	}

	for _, rating := range []int{0, 6} {
		_, err := svc.Rate(ctx, models.CreateRatingParams{RequestID: 1, OwnerID: 1, Rating: rating})
		assert.ErrorIs(t, err, models.ErrValidation)
	}
}
