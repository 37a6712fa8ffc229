package api

import (
	"net/http"

	"playcafe/internal/models"
	"playcafe/internal/service"

	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type bookingItemRequest struct {
	ConsoleType models.ConsoleType `json:"console_type" validate:"required"`
	Quantity    int                `json:"quantity" validate:"min=1"`
}

type onlineBookingRequest struct {
	CafeID      string               `json:"cafe_id" validate:"required"`
	UserID      string               `json:"user_id" validate:"required"`
	BookingDate string               `json:"booking_date" validate:"required"`
	StartTime   string               `json:"start_time" validate:"required"`
	Duration    int                  `json:"duration" validate:"min=1,max=1440"`
	Items       []bookingItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount *int64               `json:"total_amount" validate:"omitempty,min=0"`
	PaymentMode models.PaymentMode   `json:"payment_mode"`
}

type quoteRequest struct {
	Duration    int                  `json:"duration" validate:"min=1,max=1440"`
	Items       []bookingItemRequest `json:"items" validate:"required_without=Station,dive"`
	Station     string               `json:"station"`
	Controllers int                  `json:"controllers" validate:"omitempty,min=1,max=4"`
}

func toItems(in []bookingItemRequest) []models.BookingItem {
	out := make([]models.BookingItem, len(in))
	for i, it := range in {
		out[i] = models.BookingItem{ConsoleType: it.ConsoleType, Quantity: it.Quantity}
	}
	return out
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	session, err := s.svc.Owners.Login(r.Context(), req.Username, req.Password, clientKey(r))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleListCafes(w http.ResponseWriter, r *http.Request) {
	cafes, err := s.svc.Cafes.List(r.Context())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cafes": cafes})
}

func (s *HTTPServer) handleGetCafe(w http.ResponseWriter, r *http.Request) {
	cafe, err := s.svc.Cafes.Get(r.Context(), chi.URLParam(r, "cafeID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cafe)
}

func (s *HTTPServer) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.svc.Cafes.Stations(r.Context(), chi.URLParam(r, "cafeID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stations": stations})
}

func (s *HTTPServer) handlePublicPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.svc.Memberships.List(r.Context(), chi.URLParam(r, "cafeID"), true)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (s *HTTPServer) handleGallery(w http.ResponseWriter, r *http.Request) {
	images, err := s.svc.Cafes.Gallery(r.Context(), chi.URLParam(r, "cafeID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

// handleQuote prices either a list of items or a single named station.
func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	cafeID := chi.URLParam(r, "cafeID")

	if req.Station != "" {
		controllers := req.Controllers
		if controllers == 0 {
			controllers = 1
		}
		price, err := s.svc.Pricing.QuoteStation(r.Context(), cafeID, req.Station, controllers, req.Duration)
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"station":     req.Station,
			"controllers": controllers,
			"duration":    req.Duration,
			"total":       price,
		})
		return
	}

	quote, err := s.svc.Pricing.Quote(r.Context(), cafeID, toItems(req.Items), req.Duration)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	p := &models.UserProfile{FullName: req.FullName, Phone: req.Phone, Email: req.Email}
	if err := s.svc.Owners.CreateProfile(r.Context(), p); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *HTTPServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Owners.GetProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *HTTPServer) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.svc.Bookings.ListForUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req onlineBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	booking, err := s.svc.Bookings.CreateOnline(r.Context(), service.OnlineBookingInput{
		CafeID:      req.CafeID,
		UserID:      req.UserID,
		BookingDate: req.BookingDate,
		StartTime:   req.StartTime,
		Duration:    req.Duration,
		Items:       toItems(req.Items),
		TotalAmount: req.TotalAmount,
		PaymentMode: req.PaymentMode,
	})
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}
