package api

import (
	"bytes"
	"net/http"
	"strconv"

	"playcafe/internal/export"
	"playcafe/internal/lifecycle"
	"playcafe/internal/models"
	"playcafe/internal/service"

	"github.com/go-chi/chi/v5"
)

// maxUploadBytes caps cover and gallery uploads.
const maxUploadBytes = 10 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type cafeRequest struct {
	Name           string                     `json:"name" validate:"required"`
	Address        string                     `json:"address"`
	Phone          string                     `json:"phone"`
	Email          string                     `json:"email" validate:"omitempty,email"`
	OpeningHours   string                     `json:"opening_hours"`
	Description    string                     `json:"description"`
	Inventory      map[models.ConsoleType]int `json:"inventory"`
	HourlyRate     int64                      `json:"hourly_rate" validate:"min=0"`
	TechSpecs      map[string]string          `json:"tech_specs"`
	TelegramChatID int64                      `json:"telegram_chat_id"`
}

func (req cafeRequest) input() service.CafeInput {
	return service.CafeInput{
		Name:           req.Name,
		Address:        req.Address,
		Phone:          req.Phone,
		Email:          req.Email,
		OpeningHours:   req.OpeningHours,
		Description:    req.Description,
		Inventory:      req.Inventory,
		HourlyRate:     req.HourlyRate,
		TechSpecs:      req.TechSpecs,
		TelegramChatID: req.TelegramChatID,
	}
}

type walkInRequest struct {
	CustomerName  string               `json:"customer_name" validate:"required"`
	CustomerPhone string               `json:"customer_phone"`
	BookingDate   string               `json:"booking_date"`
	StartTime     string               `json:"start_time" validate:"required_without=StartNow"`
	StartNow      bool                 `json:"start_now"`
	Duration      int                  `json:"duration" validate:"min=1,max=1440"`
	Items         []bookingItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount   *int64               `json:"total_amount" validate:"omitempty,min=0"`
	PaymentMode   models.PaymentMode   `json:"payment_mode"`
}

type editBookingRequest struct {
	BookingDate   *string               `json:"booking_date"`
	StartTime     *string               `json:"start_time"`
	Duration      *int                  `json:"duration" validate:"omitempty,min=1,max=1440"`
	Items         []bookingItemRequest  `json:"items" validate:"omitempty,dive"`
	TotalAmount   *int64                `json:"total_amount" validate:"omitempty,min=0"`
	Status        *models.BookingStatus `json:"status"`
	PaymentMode   *models.PaymentMode   `json:"payment_mode"`
	CustomerName  *string               `json:"customer_name"`
	CustomerPhone *string               `json:"customer_phone"`
	Version       *int64                `json:"version" validate:"omitempty,min=1"`
}

type tiersRequest struct {
	Tiers []models.PricingTier `json:"tiers" validate:"required"`
}

type stationPricingRequest struct {
	Stations []models.StationPricing `json:"stations" validate:"required"`
}

type planRequest struct {
	Name         string             `json:"name" validate:"required"`
	Type         models.PlanType    `json:"type" validate:"required,oneof=day_pass hourly_package"`
	ConsoleType  models.ConsoleType `json:"console_type" validate:"required"`
	PlayerCount  models.PlayerCount `json:"player_count" validate:"omitempty,oneof=single double"`
	Price        int64              `json:"price" validate:"min=0"`
	Hours        *int               `json:"hours" validate:"omitempty,min=1"`
	ValidityDays int                `json:"validity_days" validate:"min=1"`
	IsActive     *bool              `json:"is_active"`
}

func (req planRequest) input() service.PlanInput {
	return service.PlanInput{
		Name:         req.Name,
		Type:         req.Type,
		ConsoleType:  req.ConsoleType,
		PlayerCount:  req.PlayerCount,
		Price:        req.Price,
		Hours:        req.Hours,
		ValidityDays: req.ValidityDays,
		IsActive:     req.IsActive,
	}
}

func ownerID(r *http.Request) string {
	if s := sessionFrom(r.Context()); s != nil {
		return s.OwnerID
	}
	return ""
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Owners.Logout(r.Context(), bearerToken(r)); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleOwnerCafes(w http.ResponseWriter, r *http.Request) {
	cafes, err := s.svc.Cafes.ListOwned(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cafes": cafes})
}

func (s *HTTPServer) handleCreateCafe(w http.ResponseWriter, r *http.Request) {
	var req cafeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	cafe, err := s.svc.Cafes.Create(r.Context(), ownerID(r), req.input())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, cafe)
}

func (s *HTTPServer) handleUpdateCafe(w http.ResponseWriter, r *http.Request) {
	var req cafeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	cafe, err := s.svc.Cafes.Update(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"), req.input())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cafe)
}

func (s *HTTPServer) handleDeleteCafe(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Cafes.Delete(r.Context(), ownerID(r), chi.URLParam(r, "cafeID")); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadedFile pulls the "file" part out of a multipart form.
type uploadedFile struct {
	name        string
	contentType string
	body        *bytes.Reader
}

func readUpload(w http.ResponseWriter, r *http.Request) (*uploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, service.ErrValidation
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, service.ErrValidation
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		return nil, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(buf.Bytes())
	}
	return &uploadedFile{name: header.Filename, contentType: contentType, body: bytes.NewReader(buf.Bytes())}, nil
}

func (s *HTTPServer) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	url, err := s.svc.Cafes.UploadCover(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"), up.name, up.contentType, up.body)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cover_image_url": url})
}

func (s *HTTPServer) handleAddGalleryImage(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	img, err := s.svc.Cafes.AddGalleryImage(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"),
		up.name, up.contentType, r.FormValue("caption"), up.body)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func (s *HTTPServer) handleDeleteGalleryImage(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Cafes.DeleteGalleryImage(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"), chi.URLParam(r, "imageID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard.Dashboard(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *HTTPServer) handleCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.svc.Dashboard.Customers(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (s *HTTPServer) handleCafeBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.BookingQuery{From: q.Get("from"), To: q.Get("to")}
	for _, st := range splitCSV(q.Get("status")) {
		query.Statuses = append(query.Statuses, models.BookingStatus(st))
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		query.Limit = limit
	}

	rows, err := s.svc.Dashboard.Bookings(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"), query)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": rows})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := s.svc.Dashboard.ExportReport(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, report); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(report)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) handleWalkIn(w http.ResponseWriter, r *http.Request) {
	var req walkInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	booking, err := s.svc.Bookings.CreateWalkIn(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"), service.WalkInInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		BookingDate:   req.BookingDate,
		StartTime:     req.StartTime,
		StartNow:      req.StartNow,
		Duration:      req.Duration,
		Items:         toItems(req.Items),
		TotalAmount:   req.TotalAmount,
		PaymentMode:   req.PaymentMode,
	})
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.svc.Bookings.Get(r.Context(), ownerID(r), chi.URLParam(r, "bookingID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleEditBooking(w http.ResponseWriter, r *http.Request) {
	var req editBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	in := service.EditInput{
		Patch: lifecycle.Patch{
			BookingDate:   req.BookingDate,
			StartTime:     req.StartTime,
			Duration:      req.Duration,
			TotalAmount:   req.TotalAmount,
			Status:        req.Status,
			PaymentMode:   req.PaymentMode,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
		},
		Version: req.Version,
	}
	if req.Items != nil {
		in.Patch.Items = toItems(req.Items)
	}
	booking, err := s.svc.Bookings.Edit(r.Context(), ownerID(r), chi.URLParam(r, "bookingID"), in)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Bookings.Delete(r.Context(), ownerID(r), chi.URLParam(r, "bookingID")); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleConfirm(w http.ResponseWriter, r *http.Request) {
	booking, err := s.svc.Bookings.Confirm(r.Context(), ownerID(r), chi.URLParam(r, "bookingID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleStart(w http.ResponseWriter, r *http.Request) {
	booking, err := s.svc.Bookings.Start(r.Context(), ownerID(r), chi.URLParam(r, "bookingID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := s.svc.Pricing.Tiers(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiers": tiers})
}

func (s *HTTPServer) handlePutTiers(w http.ResponseWriter, r *http.Request) {
	var req tiersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	tiers, err := s.svc.Pricing.PutTiers(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"), req.Tiers)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiers": tiers})
}

func (s *HTTPServer) handleDeleteTier(w http.ResponseWriter, r *http.Request) {
	tierID, err := strconv.ParseInt(chi.URLParam(r, "tierID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tier id must be a number")
		return
	}
	if err := s.svc.Pricing.DeleteTier(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"), tierID); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleStationPricing(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.Pricing.StationPricing(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stations": records})
}

func (s *HTTPServer) handlePutStationPricing(w http.ResponseWriter, r *http.Request) {
	var req stationPricingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	records, err := s.svc.Pricing.PutStationPricing(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"), req.Stations)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stations": records})
}

func (s *HTTPServer) handleOwnerPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.svc.Memberships.ListOwned(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (s *HTTPServer) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	plan, err := s.svc.Memberships.Create(r.Context(), ownerID(r), chi.URLParam(r, "cafeID"), req.input())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *HTTPServer) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	plan, err := s.svc.Memberships.Update(r.Context(), ownerID(r), chi.URLParam(r, "planID"), req.input())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *HTTPServer) handleDeactivatePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Memberships.Deactivate(r.Context(), ownerID(r), chi.URLParam(r, "planID")); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
