package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"registration-sync-go/internal/dispatch"
	"registration-sync-go/internal/models"
	"registration-sync-go/internal/reconcile"
	"registration-sync-go/internal/store"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server exposes the admin and sync endpoints. Handlers return as soon as
// the primary state change is durable; propagation runs in the background
// via the dispatcher and its failures are never surfaced here.
type Server struct {
	storage    store.Storage
	engine     *reconcile.Engine
	dispatcher *dispatch.Dispatcher
	cfg        *models.Config
}

func NewServer(storage store.Storage, engine *reconcile.Engine, dispatcher *dispatch.Dispatcher, cfg *models.Config) *Server {
	return &Server{storage: storage, engine: engine, dispatcher: dispatcher, cfg: cfg}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)

		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/due-payments", s.handleDuePayments)
			r.Patch("/users/{id}", s.handleUserPatch)
			r.Get("/registrations/{id}", s.handleRegistrationGet)
			r.Patch("/registrations/{id}", s.handleRegistrationPatch)
		})

		r.Post("/api/sync/due-payments", s.handleSyncDuePayments)
		r.Post("/api/form/complete-registration", s.handleCompleteRegistration)
		r.Post("/api/payments/verify", s.handleVerifyPayment)
		r.Get("/api/debug/config", s.handleDebugConfig)
	})

	return r
}

// requireAPIKey guards admin routes with the configured static key. Session
// issuance is an external collaborator; this service only checks the key.
// An unset key fails closed: every guarded route is denied.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.cfg.Server.AdminAPIKey
		if key == "" {
			respondError(w, http.StatusServiceUnavailable, "admin API key not configured")
			return
		}
		provided := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
