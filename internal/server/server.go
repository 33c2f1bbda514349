// Package server is the HTTP + WebSocket API surface over the comparison
// pipeline and the history store.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/stagediff/stagediff/internal/app"
	"github.com/stagediff/stagediff/internal/history"
	"github.com/stagediff/stagediff/internal/logging"
)

// Server exposes comparisons over REST and streams run progress over
// WebSockets.
type Server struct {
	cfg      Config
	app      *app.App
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer creates a new Server with its own pipeline.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	a, err := app.New(cfg.AppConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		app:    a,
		router: chi.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// App returns the underlying pipeline for advanced use (tests, etc.).
func (s *Server) App() *app.App {
	return s.app
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/compare", s.optionsHandler("POST"))
	r.Options("/history", s.optionsHandler("GET"))
	r.Options("/history/stats", s.optionsHandler("GET"))
	r.Options("/history/export", s.optionsHandler("GET"))
	r.Options("/history/{id}", s.optionsHandler("GET"))

	r.Post("/compare", s.handleCompare)

	r.Get("/history", s.handleListHistory)
	r.Get("/history/stats", s.handleHistoryStats)
	r.Get("/history/export", s.handleHistoryExport)
	r.Get("/history/{id}", s.handleGetHistory)

	r.Get("/healthz", s.handleHealthz)

	// WebSocket for run progress
	r.Get("/ws/compare", s.handleCompareWS)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}
	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the pipeline and underlying resources.
func (s *Server) Close() {
	if s.app != nil {
		if err := s.app.Close(); err != nil {
			s.logger.Warn("closing app", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req app.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.DevURL == "" || req.ProdURL == "" {
		writeError(w, http.StatusBadRequest, "dev_url and prod_url are required")
		return
	}

	record, err := s.app.Run(r.Context(), req, nil)
	if err != nil {
		s.logger.Warn("running comparison", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.logger.Info("comparison run",
		logging.Field{Key: "id", Value: record.ID},
		logging.Field{Key: "alerts", Value: len(record.Alerts)})
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	records, err := s.app.Store().List(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*history.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := s.app.Store().Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "comparison not found")
		return
	}
	if err != nil {
		s.logger.Warn("getting comparison", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.Store().Stats(r.Context())
	if err != nil {
		s.logger.Warn("computing stats", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="history.json"`)
		if err := history.ExportJSON(r.Context(), s.app.Store(), w); err != nil {
			s.logger.Warn("exporting history", logging.Field{Key: "error", Value: err.Error()})
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="history.csv"`)
		if err := history.ExportCSV(r.Context(), s.app.Store(), w); err != nil {
			s.logger.Warn("exporting history", logging.Field{Key: "error", Value: err.Error()})
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be json or csv")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- WebSockets ---

// handleCompareWS runs a comparison identified by dev/prod query parameters
// and streams stage transitions, followed by the stored record.
func (s *Server) handleCompareWS(w http.ResponseWriter, r *http.Request) {
	devURL := r.URL.Query().Get("dev")
	prodURL := r.URL.Query().Get("prod")
	if devURL == "" || prodURL == "" {
		writeError(w, http.StatusBadRequest, "dev and prod query parameters are required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ctx := r.Context()
	events := make(chan ProgressEvent, 16)

	type runResult struct {
		record *history.Record
		err    error
	}
	done := make(chan runResult, 1)

	go func() {
		record, err := s.app.Run(ctx, app.RunRequest{DevURL: devURL, ProdURL: prodURL},
			func(stage app.Stage, detail string) {
				select {
				case events <- ProgressEvent{Stage: string(stage), Detail: detail}:
				default:
					// A slow client never blocks the run.
				}
			})
		close(events)
		done <- runResult{record: record, err: err}
	}()

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; drain the run in the background.
			go func() {
				for range events {
				}
				<-done
			}()
			return
		}
	}

	res := <-done
	if res.err != nil {
		s.logger.Warn("websocket comparison failed", logging.Field{Key: "error", Value: res.err.Error()})
		_ = conn.WriteJSON(map[string]string{"error": res.err.Error()})
		return
	}
	_ = conn.WriteJSON(res.record)
}
