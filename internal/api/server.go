package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"ubike-availability/internal/classify"
	"ubike-availability/internal/logger"
	"ubike-availability/internal/metrics"
	"ubike-availability/internal/present"
	"ubike-availability/internal/reconcile"
	"ubike-availability/internal/registry"
)

// Server represents the API server over the reconciliation core.
type Server struct {
	registry    *registry.Registry
	reconciler  *reconcile.Reconciler
	classifier  *classify.Classifier
	formatter   *present.Formatter
	metrics     *metrics.Metrics
	log         logger.Logger
	defaultHour int
}

// NewServer creates a new API server.
func NewServer(reg *registry.Registry, rec *reconcile.Reconciler, cls *classify.Classifier, fmtr *present.Formatter, m *metrics.Metrics, log logger.Logger, defaultHour int) *Server {
	return &Server{
		registry:    reg,
		reconciler:  rec,
		classifier:  cls,
		formatter:   fmtr,
		metrics:     m,
		log:         log,
		defaultHour: defaultHour,
	}
}

// Router creates and returns the HTTP router.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/stations", s.handleStations).Methods("GET")
	r.HandleFunc("/stations/{id}", s.handleStation).Methods("GET")
	r.HandleFunc("/stations/{id}/live", s.handleLive).Methods("GET")
	r.HandleFunc("/hourly", s.handleHourly).Methods("GET")
	r.HandleFunc("/rankings", s.handleRankings).Methods("GET")
	r.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	return s.corsMiddleware(r)
}

// corsMiddleware adds CORS headers to all responses.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
