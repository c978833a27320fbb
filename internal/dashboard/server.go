package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// Server exposes the results dashboard: the JSON API plus the static
// comparison page.
type Server struct {
	scanner    *Scanner
	logger     *logger.Logger
	httpServer *http.Server
}

// NewServer creates a dashboard server over resultsDir.
func NewServer(resultsDir string, log *logger.Logger) *Server {
	return &Server{
		scanner: NewScanner(resultsDir, log),
		logger:  log,
	}
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/api/results", s.handleResults).Methods("GET")
	router.HandleFunc("/api/equity/{strategy}/{asset}", s.handleEquity).Methods("GET")
	router.HandleFunc("/", s.handleIndex).Methods("GET")

	return router
}

// Start serves the dashboard on address until Shutdown is called.
func (s *Server) Start(address string) error {
	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Dashboard listening", zap.String("address", address))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	entries, err := s.scanner.Scan()
	if err != nil {
		s.writeError(w, err)

		return
	}

	if entries == nil {
		entries = []ResultEntry{}
	}

	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	strategy := vars["strategy"]
	asset := vars["asset"]

	if !safeSegment(strategy) || !safeSegment(asset) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid path segment"})

		return
	}

	curve, err := s.scanner.EquityCurve(strategy, asset)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, curve)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.HasCode(err, errors.ErrCodeResultsNotFound) {
		status = http.StatusNotFound
	}

	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// safeSegment rejects path components that could escape the results
// directory.
func safeSegment(segment string) bool {
	return segment != "" && segment != "." && segment != ".." &&
		!strings.ContainsAny(segment, "/\\")
}
