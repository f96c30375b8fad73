package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-discovery-sinema/internal/models"
	"movie-discovery-sinema/internal/repository"
	"movie-discovery-sinema/internal/service"
)

type stubCatalog struct {
	mu      sync.Mutex
	block   chan struct{}
	recCall int
}

func (s *stubCatalog) SearchCatalog(_ context.Context, query string) []models.Movie {
	if s.block != nil {
		<-s.block
	}
	return []models.Movie{{ID: "m1", Title: query, Year: "2016", Genre: []string{"Drama"}, Description: "d"}}
}

func (s *stubCatalog) RecommendFor(_ context.Context, ratings []models.UserRating) []models.Movie {
	s.mu.Lock()
	s.recCall++
	s.mu.Unlock()
	return []models.Movie{{ID: "r1", Title: "Enemy", Year: "2013", Genre: []string{"Thriller"}, Description: "d"}}
}

func newTestApp(t *testing.T, catalog *stubCatalog) (*fiber.App, *service.SessionService) {
	t.Helper()
	repo := repository.NewProfileRepository(repository.NewMemoryStore(), "")
	svc := service.NewSessionService(repo, catalog)

	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	RegisterRoutes(app, NewSessionHandler(svc))
	return app, svc
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","service":"sinema"}`, string(body))
}

func TestLoginFlow(t *testing.T) {
	app, _ := newTestApp(t, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/session", `{"username":"alice"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var state models.SessionState
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, "alice", state.User.Username)
	assert.Equal(t, models.ViewHome, state.View)
	require.Len(t, state.Movies, 1)
	assert.Equal(t, models.SearchQueryDefault, state.Movies[0].Title)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/session", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Nil(t, state.User)
	assert.Equal(t, models.ViewAuth, state.View)
}

func TestLogin_InvalidBody(t *testing.T) {
	app, _ := newTestApp(t, &stubCatalog{})

	for _, body := range []string{`{"username":""}`, `not json`} {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/session", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/session", `{"username":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), service.ErrUsernameRequired.Error())
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app, _ := newTestApp(t, &stubCatalog{})

	routes := []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/catalog?q=heat", ""},
		{http.MethodPost, "/api/v1/ratings", `{"movieId":"m1","movieTitle":"Arrival","rating":4}`},
		{http.MethodGet, "/api/v1/profile", ""},
		{http.MethodGet, "/api/v1/recommendations", ""},
		{http.MethodPost, "/api/v1/recommendations", ""},
		{http.MethodPut, "/api/v1/session/view", `{"view":"PROFILE"}`},
	}
	for _, r := range routes {
		resp, _ := doJSON(t, app, r.method, r.path, r.body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", r.method, r.path)
	}
}

func TestRateAndProfile(t *testing.T) {
	app, _ := newTestApp(t, &stubCatalog{})
	doJSON(t, app, http.MethodPost, "/api/v1/session", `{"username":"alice"}`)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/ratings", `{"movieId":"m1","movieTitle":"Arrival","rating":7}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/ratings", `{"movieId":"m1","movieTitle":"Arrival","rating":4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/ratings", `{"movieId":"m2","movieTitle":"Sicario","rating":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/ratings", `{"movieId":"m1","movieTitle":"Arrival","rating":5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile models.UserProfile
	require.NoError(t, json.Unmarshal(body, &profile))
	require.Len(t, profile.Ratings, 2)
	assert.Equal(t, 5, profile.RatingFor("m1"))

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/profile", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view models.ProfileResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, "m2", view.Ratings[0].MovieID, "newest insertion first")
	assert.Equal(t, "m1", view.Ratings[1].MovieID)
}

func TestRecommendations_Gate(t *testing.T) {
	catalog := &stubCatalog{}
	app, _ := newTestApp(t, catalog)
	doJSON(t, app, http.MethodPost, "/api/v1/session", `{"username":"alice"}`)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/recommendations", "")
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	for _, id := range []string{"m1", "m2", "m3"} {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/ratings", `{"movieId":"`+id+`","movieTitle":"Movie `+id+`","rating":4}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/recommendations", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list models.MovieListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "r1", list.Data[0].ID)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/recommendations", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Data, 1)
	assert.Equal(t, 1, catalog.recCall)
}

func TestChangeView(t *testing.T) {
	app, _ := newTestApp(t, &stubCatalog{})
	doJSON(t, app, http.MethodPost, "/api/v1/session", `{"username":"alice"}`)

	resp, _ := doJSON(t, app, http.MethodPut, "/api/v1/session/view", `{"view":"SETTINGS"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/session/view", `{"view":"AUTH"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "logout is the only way back to AUTH")

	resp, body := doJSON(t, app, http.MethodPut, "/api/v1/session/view", `{"view":"PROFILE"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state models.SessionState
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, models.ViewProfile, state.View)
}

func TestSearchCatalog(t *testing.T) {
	app, _ := newTestApp(t, &stubCatalog{})
	doJSON(t, app, http.MethodPost, "/api/v1/session", `{"username":"alice"}`)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/catalog?q=heat", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list models.MovieListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, "heat", list.Query)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "heat", list.Data[0].Title)
}

func TestSearchCatalog_ConflictWhileBusy(t *testing.T) {
	catalog := &stubCatalog{block: make(chan struct{})}
	app, svc := newTestApp(t, catalog)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Login(context.Background(), "alice")
	}()
	require.Eventually(t, svc.Busy, time.Second, 5*time.Millisecond)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/catalog?q=heat", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(catalog.block)
	<-done
	assert.False(t, svc.Busy())
}

func TestSwagger(t *testing.T) {
	app := fiber.New()
	RegisterSwagger(app, []byte("openapi: 3.0.3\n"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/swagger/doc.yaml", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
