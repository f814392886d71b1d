package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/comigor/atlas-go/internal/alexa"
	"github.com/comigor/atlas-go/internal/config"
	"github.com/comigor/atlas-go/internal/logger"
)

const (
	maxBodyBytes    = 2 << 20
	healthBody      = "OK: Atlas up"
	requestIDHeader = "X-Request-Id"
)

// Handler answers one voice-platform request.
type Handler interface {
	Handle(ctx context.Context, env *alexa.RequestEnvelope) alexa.ResponseEnvelope
}

type Server struct {
	router *chi.Mux
	skill  Handler
	cfg    config.ServerConfig
}

func New(cfg config.ServerConfig, skill Handler) *Server {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	s := &Server{router: r, skill: skill, cfg: cfg}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Post("/alexa", s.handleAlexa)
	s.router.Get("/health", s.handleHealth)
}

func (s *Server) Router() http.Handler { return s.router }

// HTTPServer returns an *http.Server bound to the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(healthBody))
}

func (s *Server) handleAlexa(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var env alexa.RequestEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		logger.L.Warn("invalid webhook body", "error", err, "request_id", w.Header().Get(requestIDHeader))
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// The completion call is not cancelled when the caller goes away.
	resp := s.skill.Handle(context.WithoutCancel(r.Context()), &env)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// requestID tags every request with an id, reusing the caller's when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		logger.L.Debug("http request", "method", r.Method, "path", r.URL.Path, "request_id", id)
		next.ServeHTTP(w, r)
	})
}
