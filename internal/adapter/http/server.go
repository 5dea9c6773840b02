package http

import (
	"log/slog"
	"net/http"

	"github.com/bnema/retell/internal/adapter/http/middleware"
)

type Server struct {
	mux        *http.ServeMux
	handlers   *Handlers
	sseHandler *SSEHandler
	logger     *slog.Logger
}

func NewServer(jobs JobService, events EventSource, maxSizeMB int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mux:        http.NewServeMux(),
		handlers:   NewHandlers(jobs, maxSizeMB, logger),
		sseHandler: NewSSEHandler(events, jobs, logger),
		logger:     logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/jobs", s.handlers.CreateJob())
	s.mux.HandleFunc("GET /api/jobs", s.handlers.ListJobs())
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handlers.GetJob())
	s.mux.HandleFunc("GET /api/jobs/{id}/result", s.handlers.Result())
	s.mux.HandleFunc("GET /api/jobs/{id}/artifacts/{kind}", s.handlers.Artifact())
	s.mux.HandleFunc("POST /api/jobs/{id}/stages/{stage}", s.handlers.RerunStage())
	s.mux.HandleFunc("GET /api/jobs/{id}/events", s.sseHandler.Events())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.RequestLog(s.logger, middleware.SecurityHeaders(s.mux)).ServeHTTP(w, r)
}
