package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/audiolibrelab/sweepbench/internal/service"
	"github.com/audiolibrelab/sweepbench/internal/sweep"
)

// Server is the web control panel for sweepbench
type Server struct {
	svc  service.Service
	port string
}

// TriggerResponse is the JSON response for a trigger request
type TriggerResponse struct {
	RunID   string `json:"run_id,omitempty"`
	Message string `json:"message"`
}

// PlanResponse is the JSON response for the plan endpoint
type PlanResponse struct {
	Steps             []string `json:"steps"`
	EstimatedDuration string   `json:"estimated_duration"`
}

// New creates a web control panel around a service
func New(svc service.Service, port string) *Server {
	return &Server{svc: svc, port: port}
}

// Router builds the HTTP routing table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/trigger", s.handleTrigger)
		r.Post("/cancel", s.handleCancel)
		r.Get("/status", s.handleStatus)
		r.Get("/plan", s.handlePlan)
	})

	return r
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully with a 5 second deadline.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + s.port,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	localIP := getLocalIP()
	slog.Info("Starting sweepbench web server",
		"port", s.port,
		"local_url", fmt.Sprintf("http://%s:%s", localIP, s.port),
		"localhost_url", fmt.Sprintf("http://localhost:%s", s.port))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	runID, err := s.svc.TriggerAsync()
	if err != nil {
		if errors.Is(err, sweep.ErrBusy) {
			writeJSON(w, http.StatusConflict, TriggerResponse{Message: "a sweep sequence is already running"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, TriggerResponse{Message: err.Error()})
		return
	}

	slog.Info("sweep sequence triggered", "run_id", runID, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusAccepted, TriggerResponse{RunID: runID, Message: "sweep sequence started"})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Cancel(); err != nil {
		writeJSON(w, http.StatusConflict, TriggerResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, TriggerResponse{Message: "cancellation requested"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.svc.Plan()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, TriggerResponse{Message: err.Error()})
		return
	}

	resp := PlanResponse{
		Steps:             make([]string, 0, len(plan)),
		EstimatedDuration: plan.EstimatedDuration().String(),
	}
	for _, step := range plan {
		resp.Steps = append(resp.Steps, step.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// getLocalIP returns the non-loopback local IP of the host
func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return "localhost"
}
