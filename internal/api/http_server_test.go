package api

import (
	"bufio"
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"playcafe/internal/config"
	"playcafe/internal/models"
	"playcafe/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})

	rec := api.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = api.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicCafeRoutes(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	token := api.login(t, "meera", "meera-pass")
	cafe := api.createCafe(t, token)
	assert.Equal(t, 2, cafe.Inventory[models.ConsolePS5])

	rec := api.do(t, http.MethodPut, "/api/v1/owner/cafes/"+cafe.ID+"/pricing/tiers", token, map[string]any{
		"tiers": []map[string]any{{"console_type": "ps5", "quantity": 1, "duration": 60, "price": 150}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	list := decode[struct {
		Cafes []models.Cafe `json:"cafes"`
	}](t, api.do(t, http.MethodGet, "/api/v1/cafes", "", nil))
	require.Len(t, list.Cafes, 1)
	assert.Equal(t, "Pixel Den", list.Cafes[0].Name)

	rec = api.do(t, http.MethodGet, "/api/v1/cafes/"+cafe.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/cafes/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stations := decode[struct {
		Stations []service.StationView `json:"stations"`
	}](t, api.do(t, http.MethodGet, "/api/v1/cafes/"+cafe.ID+"/stations", "", nil))
	assert.Len(t, stations.Stations, 6)

	quote := decode[service.Quote](t, api.do(t, http.MethodPost, "/api/v1/cafes/"+cafe.ID+"/quote", "", map[string]any{
		"duration": 60,
		"items":    []map[string]any{{"console_type": "PS5", "quantity": 1}},
	}))
	assert.EqualValues(t, 150, quote.Total)

	station := decode[map[string]any](t, api.do(t, http.MethodPost, "/api/v1/cafes/"+cafe.ID+"/quote", "", map[string]any{
		"duration": 60,
		"station":  "PC-01",
	}))
	assert.EqualValues(t, 100, station["total"])

	rec = api.do(t, http.MethodPost, "/api/v1/cafes/"+cafe.ID+"/quote", "", map[string]any{"duration": 60})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOnlineBookingRoutes(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	token := api.login(t, "meera", "meera-pass")
	cafe := api.createCafe(t, token)
	user := api.createProfile(t, "Kiran")

	body := map[string]any{
		"cafe_id":      cafe.ID,
		"user_id":      user.ID,
		"booking_date": "2026-10-16",
		"start_time":   "6:30 PM",
		"duration":     60,
		"items":        []map[string]any{{"console_type": "PS5", "quantity": 1}},
	}
	rec := api.do(t, http.MethodPost, "/api/v1/bookings", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[models.Booking](t, rec)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, "6:30 pm", booking.StartTime)

	mine := decode[struct {
		Bookings []models.Booking `json:"bookings"`
	}](t, api.do(t, http.MethodGet, "/api/v1/profiles/"+user.ID+"/bookings", "", nil))
	require.Len(t, mine.Bookings, 1)
	assert.Equal(t, booking.ID, mine.Bookings[0].ID)

	tests := []struct {
		name   string
		mutate func(map[string]any)
		status int
	}{
		{"no items", func(b map[string]any) { delete(b, "items") }, http.StatusBadRequest},
		{"unknown field", func(b map[string]any) { b["coupon"] = "FREE" }, http.StatusBadRequest},
		{"unknown user", func(b map[string]any) { b["user_id"] = "ghost" }, http.StatusBadRequest},
		{"bad time", func(b map[string]any) { b["start_time"] = "25:99" }, http.StatusBadRequest},
		{"unknown cafe", func(b map[string]any) { b["cafe_id"] = "missing" }, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := make(map[string]any, len(body))
			for k, v := range body {
				b[k] = v
			}
			tt.mutate(b)
			rec := api.do(t, http.MethodPost, "/api/v1/bookings", "", b)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestOwnerAuthentication(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})

	rec := api.do(t, http.MethodGet, "/api/v1/owner/cafes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/owner/cafes", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "meera", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "meera"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token := api.login(t, "meera", "meera-pass")
	rec = api.do(t, http.MethodGet, "/api/v1/owner/cafes", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/owner/cafes", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnerBookingRoutes(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	token := api.login(t, "meera", "meera-pass")
	other := api.login(t, "arjun", "arjun-pass")
	cafe := api.createCafe(t, token)
	user := api.createProfile(t, "Kiran")

	rec := api.do(t, http.MethodPost, "/api/v1/owner/cafes/"+cafe.ID+"/bookings/walk-in", token, map[string]any{
		"customer_name": "Asha",
		"start_time":    "8:00 pm",
		"duration":      60,
		"items":         []map[string]any{{"console_type": "pc", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	walkIn := decode[models.Booking](t, rec)
	assert.Equal(t, models.StatusConfirmed, walkIn.Status)
	assert.Equal(t, "2026-10-15", walkIn.BookingDate)

	rec = api.do(t, http.MethodPost, "/api/v1/owner/bookings/"+walkIn.ID+"/confirm", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "walk-ins are never pending")

	rec = api.do(t, http.MethodPost, "/api/v1/bookings", "", map[string]any{
		"cafe_id": cafe.ID, "user_id": user.ID, "booking_date": "2026-10-15", "start_time": "7:00 pm",
		"duration": 120, "items": []map[string]any{{"console_type": "PS5", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	online := decode[models.Booking](t, rec)

	rec = api.do(t, http.MethodPost, "/api/v1/owner/bookings/"+online.ID+"/confirm", other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/owner/bookings/"+online.ID+"/start", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "pending bookings must be confirmed first")

	rec = api.do(t, http.MethodPost, "/api/v1/owner/bookings/"+online.ID+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusConfirmed, decode[models.Booking](t, rec).Status)

	rec = api.do(t, http.MethodPost, "/api/v1/owner/bookings/"+online.ID+"/start", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	started := decode[models.Booking](t, rec)
	assert.Equal(t, models.StatusInProgress, started.Status)
	assert.Equal(t, "7:05 pm", started.StartTime)

	rec = api.do(t, http.MethodPut, "/api/v1/owner/bookings/"+online.ID, token, map[string]any{
		"status": "cancelled", "version": started.Version,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusCancelled, decode[models.Booking](t, rec).Status)

	rec = api.do(t, http.MethodPut, "/api/v1/owner/bookings/"+online.ID, token, map[string]any{
		"status": "confirmed", "version": started.Version,
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "stale version")

	rec = api.do(t, http.MethodDelete, "/api/v1/owner/bookings/"+walkIn.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/owner/bookings/"+walkIn.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardRoutes(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	token := api.login(t, "meera", "meera-pass")
	cafe := api.createCafe(t, token)
	base := "/api/v1/owner/cafes/" + cafe.ID

	rec := api.do(t, http.MethodPost, base+"/bookings/walk-in", token, map[string]any{
		"customer_name": "Asha", "customer_phone": "98765 43210", "start_now": true,
		"duration": 60, "total_amount": 120, "items": []map[string]any{{"console_type": "pc", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusInProgress, decode[models.Booking](t, rec).Status)

	rec = api.do(t, http.MethodGet, base+"/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dash := decode[service.Dashboard](t, rec)
	assert.Equal(t, 1, dash.Summary.TotalCount)
	assert.EqualValues(t, 120, dash.Summary.RevenueToday)
	require.Len(t, dash.Active, 1)
	assert.Equal(t, 60, dash.Active[0].MinutesRemaining)

	customers := decode[struct {
		Customers []models.CustomerSummary `json:"customers"`
	}](t, api.do(t, http.MethodGet, base+"/customers", token, nil))
	require.Len(t, customers.Customers, 1)
	assert.Equal(t, "Asha", customers.Customers[0].Name)

	rows := decode[struct {
		Bookings []service.BookingRow `json:"bookings"`
	}](t, api.do(t, http.MethodGet, base+"/bookings?status=in-progress&limit=10", token, nil))
	assert.Len(t, rows.Bookings, 1)

	rec = api.do(t, http.MethodGet, base+"/bookings?limit=ten", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, base+"/bookings/export?from=2026-10-01&to=2026-10-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "2026-10-01_to_2026-10-31.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	rec = api.do(t, http.MethodGet, base+"/bookings/export?from=2026-10-31&to=2026-10-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	other := api.login(t, "arjun", "arjun-pass")
	rec = api.do(t, http.MethodGet, base+"/dashboard", other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMembershipRoutes(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	token := api.login(t, "meera", "meera-pass")
	cafe := api.createCafe(t, token)

	rec := api.do(t, http.MethodPost, "/api/v1/owner/cafes/"+cafe.ID+"/memberships", token, map[string]any{
		"name": "10 hours", "type": "hourly_package", "console_type": "ps5", "price": 900, "validity_days": 30,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "hourly packages need hours")

	rec = api.do(t, http.MethodPost, "/api/v1/owner/cafes/"+cafe.ID+"/memberships", token, map[string]any{
		"name": "10 hours", "type": "hourly_package", "console_type": "ps5", "hours": 10, "price": 900, "validity_days": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plan := decode[models.MembershipPlan](t, rec)

	type plans struct {
		Plans []models.MembershipPlan `json:"plans"`
	}
	assert.Len(t, decode[plans](t, api.do(t, http.MethodGet, "/api/v1/cafes/"+cafe.ID+"/memberships", "", nil)).Plans, 1)

	rec = api.do(t, http.MethodDelete, "/api/v1/owner/memberships/"+plan.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Empty(t, decode[plans](t, api.do(t, http.MethodGet, "/api/v1/cafes/"+cafe.ID+"/memberships", "", nil)).Plans)
	assert.Len(t, decode[plans](t, api.do(t, http.MethodGet, "/api/v1/owner/cafes/"+cafe.ID+"/memberships", token, nil)).Plans, 1)
}

func TestCoverAndGalleryUpload(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	token := api.login(t, "meera", "meera-pass")
	cafe := api.createCafe(t, token)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	upload := func(path, caption string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "front.png")
		require.NoError(t, err)
		_, err = part.Write(png)
		require.NoError(t, err)
		if caption != "" {
			require.NoError(t, mw.WriteField("caption", caption))
		}
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		api.server.Handler().ServeHTTP(rec, req)
		return rec
	}

	rec := upload("/api/v1/owner/cafes/"+cafe.ID+"/cover", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	url := decode[map[string]string](t, rec)["cover_image_url"]
	assert.True(t, strings.HasPrefix(url, "/uploads/cafes/"+cafe.ID+"/cover/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	served := api.do(t, http.MethodGet, url, "", nil)
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, png, served.Body.Bytes())

	rec = upload("/api/v1/owner/cafes/"+cafe.ID+"/gallery", "Lounge")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	img := decode[models.GalleryImage](t, rec)
	assert.Equal(t, "Lounge", img.Caption)

	type gallery struct {
		Images []models.GalleryImage `json:"images"`
	}
	assert.Len(t, decode[gallery](t, api.do(t, http.MethodGet, "/api/v1/cafes/"+cafe.ID+"/gallery", "", nil)).Images, 1)

	rec = api.do(t, http.MethodDelete, "/api/v1/owner/cafes/"+cafe.ID+"/gallery/"+img.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, decode[gallery](t, api.do(t, http.MethodGet, "/api/v1/cafes/"+cafe.ID+"/gallery", "", nil)).Images)
}

func TestRateLimitAndCORS(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{RPS: 0.001, Burst: 2})

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, api.do(t, http.MethodGet, "/healthz", "", nil).Code)

	open := newTestAPI(t, config.APIRateLimitConfig{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cafes", nil)
	req.Header.Set("Origin", "https://owner.example")
	rec := httptest.NewRecorder()
	open.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://owner.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cafes", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	open.server.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStream(t *testing.T) {
	api := newTestAPI(t, config.APIRateLimitConfig{})
	token := api.login(t, "meera", "meera-pass")
	cafe := api.createCafe(t, token)

	ts := httptest.NewServer(api.server.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/owner/stream?access_token="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "event: ") {
				events <- strings.TrimPrefix(line, "event: ")
			}
		}
		close(events)
	}()

	next := func() string {
		select {
		case ev := <-events:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("no event received")
			return ""
		}
	}
	require.Equal(t, "ready", next())

	rec := api.do(t, http.MethodPost, "/api/v1/owner/cafes/"+cafe.ID+"/bookings/walk-in", token, map[string]any{
		"customer_name": "Asha", "start_time": "9:00 pm", "duration": 30,
		"items": []map[string]any{{"console_type": "pc", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "insert", next())

	booking := decode[models.Booking](t, rec)
	rec = api.do(t, http.MethodDelete, "/api/v1/owner/bookings/"+booking.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "delete", next())

	rec = api.do(t, http.MethodGet, "/api/v1/owner/stream?cafe_id=someone-elses", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
