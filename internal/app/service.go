// Package service wires the pipeline to its source, its result store and the
// refresh worker, and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/titlerace/internal/adapters/http/api"
	"github.com/okian/titlerace/internal/adapters/mq/queue"
	"github.com/okian/titlerace/internal/adapters/mq/worker"
	"github.com/okian/titlerace/internal/adapters/repository"
	"github.com/okian/titlerace/internal/adapters/source"
	"github.com/okian/titlerace/internal/config"
	"github.com/okian/titlerace/internal/domain/groundtruth"
	"github.com/okian/titlerace/internal/domain/scaler"
	"github.com/okian/titlerace/internal/domain/scoring"
	"github.com/okian/titlerace/internal/pipeline"
	"github.com/okian/titlerace/internal/testgames"
	"github.com/okian/titlerace/pkg/logger"
)

var (
	// ErrNotStarted is returned by operations that need a started service.
	ErrNotStarted = errors.New("service not started")
	// ErrStopped is returned by Start once the service has been stopped.
	ErrStopped = errors.New("service stopped")
)

// Service owns one pipeline and publishes the result of its latest run.
type Service struct {
	mu sync.Mutex

	cfg    *config.Config
	logger logger.Logger

	// Injected collaborators; anything nil is built from cfg on Start.
	source   pipeline.Source
	ensemble *scoring.Ensemble
	store    repository.Store
	truth    *groundtruth.Table

	pipe      *pipeline.Pipeline
	predictor atomic.Pointer[pipeline.Predictor]
	queue     *queue.InMemoryQueue
	worker    *worker.Worker
	closers   []func() error

	started bool
	stopped bool
	cancel  context.CancelFunc
	ticker  sync.WaitGroup
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the service is built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource replaces the configured game source.
func WithSource(src pipeline.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithEnsemble replaces the configured scorers.
func WithEnsemble(e *scoring.Ensemble) Option {
	return func(s *Service) {
		s.ensemble = e
	}
}

// WithStore replaces the configured result store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithGroundTruth replaces the configured champion table.
func WithGroundTruth(t *groundtruth.Table) Option {
	return func(s *Service) {
		s.truth = t
	}
}

// New constructs a Service. Nothing is opened until Start.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New(context.Background())}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the collaborators, runs the pipeline once and starts the
// refresh worker. A failed first run fails Start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return ErrStopped
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting title race service...")

	// Collaborators built below are discarded if Start fails.
	src, ens, st, truth := s.source, s.ensemble, s.store, s.truth
	fail := func(err error) error {
		s.closeAll(ctx)
		s.source, s.ensemble, s.store, s.truth = src, ens, st, truth
		s.pipe = nil
		return err
	}

	if err := s.build(ctx); err != nil {
		return fail(err)
	}

	first := queue.Request{ID: uuid.NewString(), Reason: "startup", RequestedAt: time.Now()}
	if err := s.Refresh(ctx, first); err != nil {
		return fail(fmt.Errorf("initial run: %w", err))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.RefreshQueueSize))
	s.worker = worker.New(s.queue, s, worker.WithLogger(s.logger.Named("refresh")))
	go s.worker.Run(runCtx)

	if every := time.Duration(s.cfg.RefreshIntervalSeconds) * time.Second; every > 0 {
		s.ticker.Add(1)
		go s.schedule(runCtx, s.queue, every)
	}

	s.started = true
	s.logger.Info(ctx, "title race service started",
		logger.Int("refresh_interval_seconds", s.cfg.RefreshIntervalSeconds),
		logger.Int("refresh_queue_size", s.cfg.RefreshQueueSize))
	return nil
}

// Stop cancels a refresh in flight, waits for the worker to exit and closes
// every connection Start opened. A stopped service cannot be started again.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping title race service...")

	s.cancel()
	s.ticker.Wait()
	_ = s.queue.Close()
	if err := s.worker.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "refresh worker did not stop cleanly", logger.Error(err))
	}
	s.queue = nil
	s.closeAll(ctx)

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "title race service stopped")
}

// Refresh runs the pipeline and publishes its result. The predictor is
// swapped only after the store accepted the run.
func (s *Service) Refresh(ctx context.Context, r queue.Request) error {
	if s.pipe == nil {
		return ErrNotStarted
	}
	res, err := s.pipe.Run(ctx)
	if err != nil {
		return err
	}
	run := repository.Run{
		Stats:      res.Stats,
		Seasons:    res.Seasons,
		Historical: res.Historical,
		Teams:      res.Teams,
		Importance: res.Importance,
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run %s: %w", res.RunID, err)
	}
	s.predictor.Store(res.Predictor)
	s.logger.Info(ctx, "run published",
		logger.String("run_id", res.RunID),
		logger.String("request_id", r.ID),
		logger.Int("seasons", len(res.Seasons)))
	return nil
}

// RequestRefresh queues a background run. It fails with api.ErrBusy when the
// queue is full.
func (s *Service) RequestRefresh(ctx context.Context, reason string) (string, error) {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		return "", ErrNotStarted
	}
	return enqueue(ctx, q, reason)
}

func enqueue(ctx context.Context, q queue.Queue, reason string) (string, error) {
	r := queue.Request{ID: uuid.NewString(), Reason: reason, RequestedAt: time.Now()}
	if !q.Enqueue(ctx, r) {
		return "", fmt.Errorf("%w: %d pending", api.ErrBusy, q.Len(ctx))
	}
	return r.ID, nil
}

// CurrentPredictor returns the predictor of the last published run.
func (s *Service) CurrentPredictor() (api.Predictor, bool) {
	p := s.predictor.Load()
	if p == nil {
		return nil, false
	}
	return p, true
}

// Store returns the result store. It is nil before Start.
func (s *Service) Store() repository.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

func (s *Service) schedule(ctx context.Context, q queue.Queue, every time.Duration) {
	defer s.ticker.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := enqueue(ctx, q, "schedule"); err != nil {
				s.logger.Warn(ctx, "scheduled refresh skipped", logger.Error(err))
			}
		}
	}
}

func (s *Service) build(ctx context.Context) error {
	synthetic := s.cfg.SourceDSN == ""
	if synthetic && s.source == nil {
		s.logger.Warn(ctx, "no source_dsn configured, running on a generated league")
	}

	if s.source == nil {
		src, err := s.openSource(ctx, synthetic)
		if err != nil {
			return err
		}
		s.source = src
	}
	if s.ensemble == nil {
		ens, err := s.buildEnsemble(synthetic)
		if err != nil {
			return err
		}
		s.ensemble = ens
	}
	if s.truth == nil {
		truth := groundtruth.Default()
		if s.cfg.ChampionsFile != "" {
			var err error
			if truth, err = groundtruth.LoadFile(truth, s.cfg.ChampionsFile); err != nil {
				return err
			}
		}
		s.truth = truth
	}
	if s.store == nil {
		st, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = st
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(s.logger.Named("pipeline")),
		pipeline.WithWorkerCount(s.cfg.WorkerCount),
		pipeline.WithRecentWindow(s.cfg.RecentWindow),
		pipeline.WithSeasonFilter(s.cfg.SeasonType, s.cfg.MinSeasonID),
		pipeline.WithGroundTruth(s.truth),
		pipeline.WithArtifactDir(s.cfg.ArtifactDir),
	}
	if s.cfg.ScalerPath != "" {
		fitted, err := scaler.Load(s.cfg.ScalerPath)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithScaler(fitted))
		s.logger.Info(ctx, "using preloaded scaler", logger.String("path", s.cfg.ScalerPath))
	}
	s.pipe = pipeline.New(s.source, s.ensemble, opts...)
	return nil
}

func (s *Service) openSource(ctx context.Context, synthetic bool) (pipeline.Source, error) {
	if synthetic {
		return source.NewMemory(testgames.Generate(testgames.DefaultConfig())), nil
	}
	pg, err := source.OpenPostgres(ctx, s.cfg.SourceDSN,
		source.WithSeasonFilter(s.cfg.SeasonType, s.cfg.MinSeasonID))
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, pg.Close)
	s.logger.Info(ctx, "using postgres game source")
	return pg, nil
}

func (s *Service) buildEnsemble(synthetic bool) (*scoring.Ensemble, error) {
	if synthetic {
		return testgames.Ensemble()
	}
	scorers := make([]scoring.Scorer, 0, len(s.cfg.Scorers))
	for _, sc := range s.cfg.Scorers {
		scorer, err := newScorer(sc)
		if err != nil {
			return nil, fmt.Errorf("scorer %s: %w", sc.Name, err)
		}
		scorers = append(scorers, scorer)
	}
	return scoring.NewEnsemble(scorers...)
}

func newScorer(sc config.ScorerConfig) (scoring.Scorer, error) {
	switch sc.Kind {
	case config.ScorerKindLogistic:
		return scoring.LoadLogisticScorer(sc.Name, sc.Path)
	case config.ScorerKindTree:
		return scoring.LoadTreeEnsembleScorer(sc.Name, sc.Path)
	case config.ScorerKindRemote:
		var opts []scoring.RemoteOption
		if sc.TimeoutMS > 0 {
			opts = append(opts, scoring.WithTimeout(time.Duration(sc.TimeoutMS)*time.Millisecond))
		}
		return scoring.NewRemoteScorer(sc.Name, sc.Endpoint, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown scorer kind %q", config.ErrInvalidConfig, sc.Kind)
	}
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	var st repository.Store = repository.NewMemoryStore()
	if s.cfg.StoreDSN != "" {
		g, err := repository.OpenGormStore(s.cfg.StoreDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, g.Close)
		st = g
		s.logger.Info(ctx, "using postgres result store")
	}
	if s.cfg.RedisURL != "" {
		cache, err := repository.NewRedisCache(ctx, s.cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, cache.Close)
		st = repository.NewCachedStore(st, cache,
			repository.WithTTL(time.Duration(s.cfg.CacheTTLSeconds)*time.Second),
			repository.WithCacheLogger(s.logger.Named("cache")))
		s.logger.Info(ctx, "redis read cache enabled")
	}
	return st, nil
}

func (s *Service) closeAll(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn(ctx, "close failed", logger.Error(err))
		}
	}
	s.closers = nil
}
