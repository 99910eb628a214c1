package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/handling"
	"github.com/vietddude/resilience/internal/handling/metrics"
	"github.com/vietddude/resilience/internal/handling/report"
	"github.com/vietddude/resilience/internal/infra/storage"
)

// DefaultListLimit caps GET /errors when no limit is given.
const DefaultListLimit = 50

// MetricsStore reads and resets the dispatcher's error metrics.
type MetricsStore interface {
	ErrorMetrics() metrics.ErrorMetrics
	ResetErrorMetrics()
}

// ErrorLog is the read side of the persisted error log.
type ErrorLog interface {
	Get(ctx context.Context, id string) (*storage.ErrorRecord, error)
	List(ctx context.Context, f storage.Filter) ([]*storage.ErrorRecord, error)
}

// Dispatcher receives the server's own storage failures.
type Dispatcher interface {
	Handle(ctx context.Context, err error, scope apperr.Scope, opts handling.Options) bool
}

// Server provides HTTP endpoints for health and error monitoring.
type Server struct {
	monitor    *Monitor
	store      MetricsStore
	errorLog   ErrorLog
	gatherer   prometheus.Gatherer
	dispatcher Dispatcher
	server     *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithDispatcher sends error log failures through d. Recovery is skipped so
// that requests are never held by strategy backoff.
func WithDispatcher(d Dispatcher) ServerOption {
	return func(s *Server) { s.dispatcher = d }
}

// NewServer creates a new health server. errorLog may be nil, in which case
// the /errors routes are not mounted. A nil gatherer serves the default
// Prometheus registry.
func NewServer(monitor *Monitor, store MetricsStore, errorLog ErrorLog, gatherer prometheus.Gatherer, port int, opts ...ServerOption) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		monitor:  monitor,
		store:    store,
		errorLog: errorLog,
		gatherer: gatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/health/detailed", s.handleDetailed)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/errors", func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
		r.Post("/metrics/reset", s.handleReset)
		if s.errorLog != nil {
			r.Get("/", s.handleList)
			r.Get("/{id}", s.handleGet)
		}
	})
	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rep := s.monitor.CheckHealth(r.Context())

	code := http.StatusOK
	if rep.Status == StatusCritical {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": string(rep.Status)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.CheckHealth(r.Context()))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ErrorMetrics())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.ResetErrorMetrics()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	f, invalid := parseFilter(r)
	if invalid != nil {
		writeError(w, http.StatusBadRequest, invalid)
		return
	}

	recs, err := s.errorLog.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, s.storageFailure(r, "list", err))
		return
	}
	if recs == nil {
		recs = []*storage.ErrorRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.errorLog.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, apperr.NewDatabaseError(apperr.DatabaseNotFound, apperr.WithCause(err)))
	case err != nil:
		writeError(w, http.StatusInternalServerError, s.storageFailure(r, "get", err))
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) storageFailure(r *http.Request, action string, err error) apperr.Error {
	appErr := apperr.NewDatabaseError(apperr.DatabaseQueryFailed,
		apperr.WithCause(err),
		apperr.WithTable("error_log"),
	)
	if s.dispatcher != nil {
		scope := apperr.Scope{
			Component: "health-server",
			Action:    action,
			Data:      apperr.Fields{"path": r.URL.Path, "requestId": middleware.GetReqID(r.Context())},
		}
		s.dispatcher.Handle(r.Context(), appErr, scope, handling.Options{SkipRecovery: true})
	}
	return appErr
}

func parseFilter(r *http.Request) (storage.Filter, apperr.Error) {
	q := r.URL.Query()
	f := storage.Filter{Limit: DefaultListLimit}

	if v := q.Get("kind"); v != "" {
		if !slices.Contains(apperr.Kinds, apperr.Kind(v)) {
			return f, invalidParam("kind", v)
		}
		f.Kind = apperr.Kind(v)
	}
	if v := q.Get("min_severity"); v != "" {
		if !slices.Contains(apperr.Severities, apperr.Severity(v)) {
			return f, invalidParam("min_severity", v)
		}
		f.MinSeverity = apperr.Severity(v)
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, invalidParam("since", v)
		}
		f.Since = since
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, invalidParam("limit", v)
		}
		f.Limit = n
	}
	return f, nil
}

func invalidParam(name, value string) apperr.Error {
	return apperr.NewValidationError(apperr.ValidationInvalidFormat,
		apperr.WithField(name),
		apperr.WithValue(value),
		apperr.WithMessagef("Invalid %s parameter", name),
	)
}

func writeError(w http.ResponseWriter, code int, err apperr.Error) {
	env := report.NewEnvelope(err, apperr.Scope{Component: "health"})
	env.Message = report.UserMessage(err)
	writeJSON(w, code, env)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
