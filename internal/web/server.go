package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/homeinspect/internal/auth"
	"github.com/vbonduro/homeinspect/internal/metrics"
	"github.com/vbonduro/homeinspect/internal/service"
)

type Server struct {
	auth          *auth.Authenticator
	houses        *service.HouseService
	inspections   *service.InspectionService
	images        *service.ImageService
	metrics       *metrics.Metrics
	mux           *http.ServeMux
	secureCookies bool
	logger        *slog.Logger
}

// Services bundles what the API needs from the service layer.
type Services struct {
	Auth        *auth.Authenticator
	Houses      *service.HouseService
	Inspections *service.InspectionService
	Images      *service.ImageService
	Metrics     *metrics.Metrics
}

// NewServer builds the API. secureCookies marks the session cookie Secure
// and should be set when the server is reached over HTTPS.
func NewServer(svc Services, secureCookies bool, logger *slog.Logger) *Server {
	m := svc.Metrics
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		auth:          svc.Auth,
		houses:        svc.Houses,
		inspections:   svc.Inspections,
		images:        svc.Images,
		metrics:       m,
		mux:           http.NewServeMux(),
		secureCookies: secureCookies,
		logger:        logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	s.mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	s.mux.HandleFunc("POST /api/auth/signout", s.handleSignOut)
	s.mux.HandleFunc("GET /api/auth/user", s.handleCurrentUser)

	s.mux.HandleFunc("GET /api/houses", s.handleListHouses)
	s.mux.HandleFunc("POST /api/houses", s.handleCreateHouse)
	s.mux.HandleFunc("GET /api/houses/{id}", s.handleGetHouse)
	s.mux.HandleFunc("PATCH /api/houses/{id}", s.handleUpdateHouse)
	s.mux.HandleFunc("DELETE /api/houses/{id}", s.handleDeleteHouse)

	s.mux.HandleFunc("GET /api/houses/{id}/inspections", s.handleListInspections)
	s.mux.HandleFunc("POST /api/houses/{id}/inspections", s.handleCreateInspection)
	s.mux.HandleFunc("GET /api/houses/{id}/inspections/{inspectionID}", s.handleGetInspection)
	s.mux.HandleFunc("PATCH /api/inspections/{id}", s.handleUpdateInspection)
	s.mux.HandleFunc("DELETE /api/inspections/{id}", s.handleDeleteInspection)

	s.mux.HandleFunc("PUT /api/objects/{path...}", s.handlePutObject)
	s.mux.HandleFunc("DELETE /api/objects/{path...}", s.handleDeleteObject)
	s.mux.HandleFunc("GET /api/objects", s.handleListObjects)
	s.mux.HandleFunc("GET /api/urls/{path...}", s.handleObjectURL)
	s.mux.HandleFunc("GET /files/{path...}", s.handleGetFile)

	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		_, pattern := s.mux.Handler(r)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)
		s.metrics.ObserveRequest(pattern, r.Method, rec.status, elapsed)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requestLogger(securityHeaders(s.auth.Middleware(s.mux))).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
