package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"playcafe/internal/auth"
	"playcafe/internal/config"
	"playcafe/internal/database"
	"playcafe/internal/events"
	"playcafe/internal/live"
	"playcafe/internal/models"
	"playcafe/internal/repository"
	"playcafe/internal/service"
	"playcafe/internal/storage"
	"playcafe/internal/worker"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testNow is Thursday 2026-10-15 19:05 UTC.
var testNow = time.Date(2026, 10, 15, 19, 5, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type testAPI struct {
	server *HTTPServer
	db     *database.DB
	hub    *events.Hub
}

func newTestAPI(t *testing.T, rateLimit config.APIRateLimitConfig) *testAPI {
	t.Helper()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	uploads := t.TempDir()
	objects, err := storage.NewLocalStore(uploads, "/uploads")
	require.NoError(t, err)

	ttl := 24 * time.Hour
	manager := auth.NewManager(
		auth.NewTokenIssuer("test-secret-test-secret-test-secret", ttl, "playcafe"),
		repository.NewMemorySessionRepository(ttl),
		&logger,
	)
	hub := events.NewHub(nil, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	views := live.NewRegistry(ctx, db, hub, live.Options{RefreshInterval: time.Hour, Clock: testClock}, &logger)
	t.Cleanup(func() {
		cancel()
		views.Wait()
	})
	sweeper := worker.NewSweeper(db, hub, time.Minute, testClock, &logger)

	owners := service.NewOwnerService(db, manager, &logger)
	require.NoError(t, owners.SeedOwners(context.Background(), []service.SeedOwner{
		{Username: "meera", Password: "meera-pass"},
		{Username: "arjun", Password: "arjun-pass"},
	}))

	svc := Services{
		Owners:      owners,
		Cafes:       service.NewCafeService(db, objects, &logger),
		Bookings:    service.NewBookingService(db, hub, nil, testClock, &logger),
		Pricing:     service.NewPricingService(db, &logger),
		Memberships: service.NewMembershipService(db, &logger),
		Dashboard:   service.NewDashboardService(db, views, sweeper, testClock, &logger),
		Hub:         hub,
		Health:      db,
		UploadsDir:  uploads,
	}
	cfg := config.APIConfig{
		HTTP:      config.APIHTTPConfig{Enabled: true},
		RateLimit: rateLimit,
		CORS:      []string{"https://owner.example"},
	}
	return &testAPI{server: NewHTTPServer(cfg, svc, &logger), db: db, hub: hub}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:4321"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	return session.Token
}

func (a *testAPI) createCafe(t *testing.T, token string) *models.Cafe {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/owner/cafes", token, map[string]any{
		"name":        "Pixel Den",
		"address":     "12 MG Road",
		"hourly_rate": 100,
		"inventory":   map[string]int{"PS5": 2, "pc": 4},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cafe models.Cafe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cafe))
	return &cafe
}

func (a *testAPI) createProfile(t *testing.T, name string) *models.UserProfile {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/profiles", "", map[string]string{"full_name": name, "phone": "+91 90000 00000"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p models.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return &p
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
