// Package api serves stored pipeline results and ad-hoc predictions over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/scoring"
	"github.com/okian/titlerace/internal/domain/types"
	"github.com/okian/titlerace/pkg/logger"
	"github.com/okian/titlerace/pkg/metrics"
)

// Reader is the read side of the result store.
type Reader interface {
	Predictions(ctx context.Context, season int) (types.SeasonPredictions, error)
	Latest(ctx context.Context) (types.SeasonPredictions, error)
	Seasons(ctx context.Context) ([]int, error)
	Historical(ctx context.Context) ([]types.HistoricalRecord, error)
	Champion(ctx context.Context, season int) (types.HistoricalRecord, error)
	Teams(ctx context.Context) ([]model.Team, error)
	Importance(ctx context.Context) ([]types.FeatureImportance, error)
	Stats(ctx context.Context) (types.RunStats, error)
}

// Predictor scores a named feature map.
type Predictor interface {
	PredictNamed(ctx context.Context, named map[string]float64) (scoring.EnsembleScore, error)
	ScorerNames() []string
	SchemaVersion() string
}

// PredictorSource returns the predictor of the latest run, if any.
type PredictorSource interface {
	CurrentPredictor() (Predictor, bool)
}

// Refresher queues a pipeline re-run and returns the request id.
type Refresher interface {
	RequestRefresh(ctx context.Context, reason string) (string, error)
}

// Server wires HTTP routes for the API.
type Server struct {
	store      Reader
	predictors PredictorSource
	refresher  Refresher
	version    string
	logger     logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by the index route.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithRefresher enables POST /refresh.
func WithRefresher(r Refresher) Option {
	return func(s *Server) {
		s.refresher = r
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates an API server over store and predictors.
func NewServer(store Reader, predictors PredictorSource, opts ...Option) *Server {
	s := &Server{store: store, predictors: predictors, version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Register attaches every route to r.
func (s *Server) Register(r *mux.Router) {
	r.Use(RecoveryMiddleware(s.logger))

	route := func(path, name, method string, h http.HandlerFunc) {
		r.HandleFunc(path, MetricsMiddleware(h, name)).Methods(method)
	}
	route("/", "index", http.MethodGet, s.handleIndex)
	route("/health", "health", http.MethodGet, s.handleHealth)
	route("/predictions", "predictions", http.MethodGet, s.handleLatest)
	route("/predictions/{season:[0-9]+}", "predictions_season", http.MethodGet, s.handleSeason)
	route("/seasons", "seasons", http.MethodGet, s.handleSeasons)
	route("/historical", "historical", http.MethodGet, s.handleHistorical)
	route("/actual-champion/{season:[0-9]+}", "actual_champion", http.MethodGet, s.handleActualChampion)
	route("/teams", "teams", http.MethodGet, s.handleTeams)
	route("/features", "features", http.MethodGet, s.handleFeatures)
	route("/stats", "stats", http.MethodGet, s.handleStats)
	route("/predict", "predict", http.MethodPost, s.handlePredict)
	if s.refresher != nil {
		route("/refresh", "refresh", http.MethodPost, s.handleRefresh)
	}

	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Handler returns a router with every route registered.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func seasonParam(r *http.Request) (int, error) {
	season, err := strconv.Atoi(mux.Vars(r)["season"])
	if err != nil || season <= 0 {
		return 0, ErrBadRequest
	}
	return season, nil
}
