package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"voice-quiz/internal/domain"
)

// Controller is the command surface of the quiz orchestrator.
type Controller interface {
	Start()
	SubmitAnswer(token string)
	RequestRepeat()
	RequestCapture()
	StopCapture()
	Reset()
	Snapshot() domain.Snapshot
}

// Server exposes the quiz over a small JSON API so it can be driven from a
// phone, a script or a smart speaker.
type Server struct {
	addr        string
	server      *http.Server
	ctrl        Controller
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	mux         *http.ServeMux
	rateLimiter *RateLimiter
	authToken   string
}

// Option customizes a Server.
type Option func(*Server)

// WithTrustedProxy keys rate limiting on X-Forwarded-For / X-Real-IP. Only use
// it behind a reverse proxy that overwrites those headers.
func WithTrustedProxy() Option {
	return func(s *Server) { s.rateLimiter.trustProxy = true }
}

func NewServer(addr, authToken string, ctrl Controller, metrics http.Handler, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		addr:        addr,
		ctrl:        ctrl,
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute),
		authToken:   authToken,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("POST /start", s.command("start", func(*http.Request) error { ctrl.Start(); return nil }))
	s.mux.HandleFunc("POST /answer", s.command("answer", s.answer))
	s.mux.HandleFunc("POST /repeat", s.command("repeat", func(*http.Request) error { ctrl.RequestRepeat(); return nil }))
	s.mux.HandleFunc("POST /capture", s.command("capture", func(*http.Request) error { ctrl.RequestCapture(); return nil }))
	s.mux.HandleFunc("POST /stop", s.command("stop", func(*http.Request) error { ctrl.StopCapture(); return nil }))
	s.mux.HandleFunc("POST /reset", s.command("reset", func(*http.Request) error { ctrl.Reset(); return nil }))

	s.mux.HandleFunc("GET /state", s.handleState)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("control server starting", "addr", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}

	s.running = false
	return nil
}

type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string { return e.message }

// command wraps a state-changing endpoint with rate limiting and token auth.
func (s *Server) command(name string, fn func(*http.Request) error) http.HandlerFunc {
	return s.rateLimiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			s.logger.Warn("unauthorized control request", "command", name, "remote_addr", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := fn(r); err != nil {
			status := http.StatusBadRequest
			if he, ok := err.(*httpError); ok {
				status = he.status
			}
			http.Error(w, err.Error(), status)
			return
		}

		s.logger.Info("control command", "command", name)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "command": name})
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	token := r.Header.Get("X-Auth-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return token == s.authToken
}

func (s *Server) answer(r *http.Request) error {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, 256))
	if err != nil {
		return &httpError{status: http.StatusBadRequest, message: "failed to read body"}
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return &httpError{status: http.StatusBadRequest, message: "empty answer"}
	}
	s.ctrl.SubmitAnswer(token)
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": running,
		"phase":   s.ctrl.Snapshot().Phase,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
