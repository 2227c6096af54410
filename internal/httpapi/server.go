// Package httpapi serves the enrollment portal on the local network.
package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"doorlatch/internal/service"
	"doorlatch/internal/store"
)

//go:embed portal.html
var portalHTML []byte

type Dependencies struct {
	Logger       *log.Logger
	Addr         string
	Registration *service.RegistrationService
	Events       store.AccessEventStore
}

type Server struct {
	httpServer   *http.Server
	logger       *log.Logger
	mux          *http.ServeMux
	registration *service.RegistrationService
	events       store.AccessEventStore
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:       d.Logger,
		mux:          mux,
		registration: d.Registration,
		events:       d.Events,
	}

	mux.HandleFunc("GET /{$}", s.handlePortal)
	mux.HandleFunc("GET /getuid", s.handleGetUID)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(portalHTML)
}

func (s *Server) handleGetUID(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, s.registration.LastObserved())
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "bad form data")
		return
	}

	uid := r.FormValue("uid")
	name := r.FormValue("name")
	role := r.FormValue("role")

	err := s.registration.Register(r.Context(), uid, name, role)
	switch {
	case err == nil:
		writeText(w, http.StatusOK, "UID registered successfully!")
	case errors.Is(err, service.ErrInvalidUID):
		writeText(w, http.StatusBadRequest, "No UID scanned!")
	case errors.Is(err, service.ErrDuplicateUID):
		writeText(w, http.StatusOK, "UID already exists")
	default:
		s.logger.Printf("register error: %v", err)
		writeText(w, http.StatusInternalServerError, "Failed to save UID!")
	}
}

type eventDTO struct {
	UID        string `json:"uid"`
	HolderName string `json:"holder_name,omitempty"`
	Granted    bool   `json:"granted"`
	Reason     string `json:"reason"`
	DecidedAt  string `json:"decided_at"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeText(w, http.StatusBadRequest, "bad limit")
			return
		}
		limit = min(n, 100)
	}

	events, err := s.events.RecentEvents(r.Context(), limit)
	if err != nil {
		s.logger.Printf("events error: %v", err)
		writeText(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, eventDTO{
			UID:        ev.UID,
			HolderName: ev.HolderName,
			Granted:    ev.Granted,
			Reason:     ev.Reason,
			DecidedAt:  ev.DecidedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
