package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"playcafe/internal/config"
	"playcafe/internal/events"
	"playcafe/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services is everything the HTTP layer dispatches to.
type Services struct {
	Owners      *service.OwnerService
	Cafes       *service.CafeService
	Bookings    *service.BookingService
	Pricing     *service.PricingService
	Memberships *service.MembershipService
	Dashboard   *service.DashboardService
	Hub         *events.Hub
	Health      Pinger
	// UploadsDir is served under /uploads when images are stored locally.
	UploadsDir string
}

// HTTPServer exposes the customer and owner JSON API.
type HTTPServer struct {
	cfg    config.APIConfig
	svc    Services
	router chi.Router
	server *http.Server
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	httpLogger := logger.With().Str("component", "http").Logger()

	s := &HTTPServer{cfg: cfg, svc: svc, logger: &httpLogger}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(loggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(s.cfg.CORS))
	r.Use(newRateLimiter(s.cfg.RateLimit).Middleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.svc.UploadsDir != "" {
		fileServer(r, "/uploads", http.Dir(s.svc.UploadsDir))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Get("/cafes", s.handleListCafes)
		r.Route("/cafes/{cafeID}", func(r chi.Router) {
			r.Get("/", s.handleGetCafe)
			r.Get("/stations", s.handleStations)
			r.Get("/memberships", s.handlePublicPlans)
			r.Get("/gallery", s.handleGallery)
			r.Post("/quote", s.handleQuote)
		})

		r.Post("/profiles", s.handleCreateProfile)
		r.Get("/profiles/{userID}", s.handleGetProfile)
		r.Get("/profiles/{userID}/bookings", s.handleUserBookings)
		r.Post("/bookings", s.handleCreateBooking)

		r.Group(func(r chi.Router) {
			r.Use(ownerAuth(s.svc.Owners, s.logger))

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/owner/stream", s.handleStream)

			r.Route("/owner/cafes", func(r chi.Router) {
				r.Get("/", s.handleOwnerCafes)
				r.Post("/", s.handleCreateCafe)
				r.Route("/{cafeID}", func(r chi.Router) {
					r.Put("/", s.handleUpdateCafe)
					r.Delete("/", s.handleDeleteCafe)
					r.Post("/cover", s.handleUploadCover)
					r.Post("/gallery", s.handleAddGalleryImage)
					r.Delete("/gallery/{imageID}", s.handleDeleteGalleryImage)

					r.Get("/dashboard", s.handleDashboard)
					r.Get("/customers", s.handleCustomers)
					r.Get("/bookings", s.handleCafeBookings)
					r.Get("/bookings/export", s.handleExport)
					r.Post("/bookings/walk-in", s.handleWalkIn)

					r.Get("/pricing/tiers", s.handleTiers)
					r.Put("/pricing/tiers", s.handlePutTiers)
					r.Delete("/pricing/tiers/{tierID}", s.handleDeleteTier)
					r.Get("/pricing/stations", s.handleStationPricing)
					r.Put("/pricing/stations", s.handlePutStationPricing)

					r.Get("/memberships", s.handleOwnerPlans)
					r.Post("/memberships", s.handleCreatePlan)
				})
			})

			r.Route("/owner/bookings/{bookingID}", func(r chi.Router) {
				r.Get("/", s.handleGetBooking)
				r.Put("/", s.handleEditBooking)
				r.Delete("/", s.handleDeleteBooking)
				r.Post("/confirm", s.handleConfirm)
				r.Post("/start", s.handleStart)
			})

			r.Put("/owner/memberships/{planID}", s.handleUpdatePlan)
			r.Delete("/owner/memberships/{planID}", s.handleDeactivatePlan)
		})
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.Health.PingContext(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// fileServer mounts a static directory under path.
func fileServer(r chi.Router, path string, root http.FileSystem) {
	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		prefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		http.StripPrefix(prefix, http.FileServer(root)).ServeHTTP(w, r)
	})
}
