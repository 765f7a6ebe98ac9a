// Package pipeline runs the championship pipeline end to end: games in,
// ranked seasons and a historical accuracy report out.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/titlerace/internal/domain/aggregate"
	"github.com/okian/titlerace/internal/domain/features"
	"github.com/okian/titlerace/internal/domain/groundtruth"
	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/normalize"
	"github.com/okian/titlerace/internal/domain/ranking"
	"github.com/okian/titlerace/internal/domain/scaler"
	"github.com/okian/titlerace/internal/domain/scoring"
	"github.com/okian/titlerace/internal/domain/types"
	"github.com/okian/titlerace/pkg/logger"
	"github.com/okian/titlerace/pkg/metrics"
)

// Source supplies the raw input of a run.
type Source interface {
	LoadGames(ctx context.Context) ([]model.GameRow, error)
	LoadTeams(ctx context.Context) ([]model.Team, error)
}

// Result is everything one run produced.
type Result struct {
	RunID       string
	GeneratedAt time.Time

	Predictor *Predictor
	// ScalerFitted is false when a preloaded scaler was used.
	ScalerFitted bool

	Teams []model.Team
	// Seasons is ordered by season, ascending.
	Seasons    []types.SeasonPredictions
	Historical []types.HistoricalRecord
	Outcomes   []ranking.Outcome
	Importance []types.FeatureImportance
	Stats      types.RunStats
}

// Pipeline turns raw games into ranked seasons. A Pipeline holds no state
// between runs; Run may be called repeatedly.
type Pipeline struct {
	source   Source
	ensemble *scoring.Ensemble

	workers     int
	window      int
	seasonType  string
	minSeasonID int
	truth       *groundtruth.Table
	preloaded   *scaler.Fitted
	artifactDir string
	now         func() time.Time

	logger logger.Logger
}

// New returns a Pipeline reading from src and scoring with ens.
func New(src Source, ens *scoring.Ensemble, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:      src,
		ensemble:    ens,
		workers:     runtime.NumCPU() * 2,
		window:      features.DefaultWindow,
		seasonType:  "Regular Season",
		minSeasonID: 22003,
		truth:       groundtruth.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("pipeline")
	}
	return p
}

// Run executes every stage once. Any stage error aborts the run and no
// partial result is returned.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res, err := p.run(ctx)
	if err != nil {
		metrics.RecordPipelineRun("failed")
		p.logger.Error(ctx, "pipeline run failed", logger.Error(err))
		return nil, err
	}
	metrics.RecordPipelineRun("success")
	metrics.UpdateLastSuccess(float64(res.GeneratedAt.Unix()))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), GeneratedAt: p.now().UTC()}
	log := p.logger.With(logger.String("run_id", res.RunID))
	log.Info(ctx, "pipeline run started")

	var rows []model.GameRow
	err := p.stage(ctx, "load", func() error {
		var err error
		if rows, err = p.source.LoadGames(ctx); err != nil {
			return fmt.Errorf("load games: %w", err)
		}
		if res.Teams, err = p.source.LoadTeams(ctx); err != nil {
			return fmt.Errorf("load teams: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "source loaded", logger.Int("rows", len(rows)), logger.Int("teams", len(res.Teams)))

	var norm normalize.Result
	err = p.stage(ctx, "normalize", func() error {
		n := normalize.New(
			normalize.WithSeasonType(p.seasonType),
			normalize.WithMinSeasonID(p.minSeasonID),
			normalize.WithDuplicateHook(func(gameID string) {
				metrics.RecordDuplicateGame()
				log.Debug(ctx, "duplicate game dropped", logger.String("game_id", gameID))
			}),
		)
		var err error
		norm, err = n.NormalizeAll(ctx, rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	metrics.RecordGamesIngested(norm.Accepted)
	log.Info(ctx, "games normalized",
		logger.Int("accepted", norm.Accepted),
		logger.Int("duplicates", norm.Duplicates),
		logger.Int("filtered", norm.Filtered))

	var groups []model.TeamSeasonAggregate
	err = p.stage(ctx, "aggregate", func() error {
		var (
			report aggregate.Report
			err    error
		)
		groups, report, err = aggregate.Aggregate(norm.Records)
		if err != nil {
			return err
		}
		for f, n := range report.Imputed {
			for i := 0; i < n; i++ {
				metrics.RecordImputedValue(f.String())
			}
		}
		for f, n := range report.EmptyStats {
			metrics.RecordDegenerateStatistic("empty_" + f.String())
			log.Debug(ctx, "stat null in every game of a team-season, using 0",
				logger.String("field", f.String()), logger.Int("team_seasons", n))
		}
		for _, f := range report.Degenerate {
			metrics.RecordDegenerateStatistic("hustle_" + f.String())
			log.Debug(ctx, "hustle field has no data, using 0", logger.String("field", f.String()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no team-seasons after normalization", model.ErrData)
	}
	metrics.UpdateTeamSeasons(len(groups))
	log.Info(ctx, "team-seasons aggregated", logger.Int("team_seasons", len(groups)))

	var vectors []features.Vector
	err = p.stage(ctx, "features", func() error {
		var err error
		vectors, err = p.derive(ctx, groups)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}

	var fitted *scaler.Fitted
	err = p.stage(ctx, "scale", func() error {
		if p.preloaded != nil {
			fitted = p.preloaded
			return nil
		}
		var err error
		if fitted, err = scaler.Fit(vectors); err != nil {
			return err
		}
		res.ScalerFitted = true
		for _, f := range fitted.Degenerate() {
			metrics.RecordDegenerateStatistic("zero_std")
			log.Debug(ctx, "feature has zero variance, std set to 1", logger.String("feature", f.String()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}

	if res.Predictor, err = NewPredictor(fitted, p.ensemble); err != nil {
		return nil, err
	}

	var scores []scoring.EnsembleScore
	err = p.stage(ctx, "score", func() error {
		var err error
		scores, err = p.score(ctx, res.Predictor, vectors)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	err = p.stage(ctx, "rank", func() error {
		p.rank(res, groups, scores)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Importance = res.Predictor.Importance()
	metrics.UpdateChampionAccuracy(res.Stats.Accuracy, res.Stats.SeasonsEvaluated)

	if p.artifactDir != "" {
		if err := writeArtifacts(p.artifactDir, res); err != nil {
			return nil, fmt.Errorf("artifacts: %w", err)
		}
		log.Info(ctx, "artifacts written", logger.String("dir", p.artifactDir))
	}

	log.Info(ctx, "pipeline run finished",
		logger.Int("seasons", res.Stats.Seasons),
		logger.Int("evaluated", res.Stats.SeasonsEvaluated),
		logger.Float64("accuracy", res.Stats.Accuracy))
	return res, nil
}

// stage times fn and records it under name.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	metrics.RecordStageDuration(name, float64(time.Since(start).Microseconds())/1000)
	return err
}

// derive builds one vector per group. Workers write by index only.
func (p *Pipeline) derive(ctx context.Context, groups []model.TeamSeasonAggregate) ([]features.Vector, error) {
	vectors := make([]features.Vector, len(groups))
	fallbacks := make([][]features.Feature, len(groups))
	window := features.NewWindow(p.window)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			agg := &groups[i]
			form := window.Compute(agg.Key, agg.Records, time.Time{})
			vectors[i], fallbacks[i] = features.Derive(agg, form)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, fs := range fallbacks {
		for _, f := range fs {
			metrics.RecordDegenerateStatistic("zero_denominator")
			p.logger.Debug(ctx, "zero denominator, feature set to 0",
				logger.String("feature", f.String()),
				logger.Int("season_id", groups[i].Key.SeasonID),
				logger.String("team_id", groups[i].Key.TeamID))
		}
	}
	return vectors, nil
}

// score runs the ensemble over every vector. The first error cancels the rest.
func (p *Pipeline) score(ctx context.Context, pred *Predictor, vectors []features.Vector) ([]scoring.EnsembleScore, error) {
	scores := make([]scoring.EnsembleScore, len(vectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range vectors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := pred.Predict(gctx, vectors[i])
			if err != nil {
				return err
			}
			scores[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// rank groups scored team-seasons by season, ranks each season and checks it
// against the ground truth. groups are sorted by season, then team.
func (p *Pipeline) rank(res *Result, groups []model.TeamSeasonAggregate, scores []scoring.EnsembleScore) {
	teams := make(map[string]model.Team, len(res.Teams))
	for _, t := range res.Teams {
		teams[t.ID] = t
	}

	for start := 0; start < len(groups); {
		season := groups[start].Key.SeasonID
		end := start
		for end < len(groups) && groups[end].Key.SeasonID == season {
			end++
		}

		candidates := make([]ranking.Candidate, 0, end-start)
		for i := start; i < end; i++ {
			id := groups[i].Key.TeamID
			name := id
			if t, ok := teams[id]; ok && t.FullName != "" {
				name = t.FullName
			}
			candidates = append(candidates, ranking.Candidate{TeamID: id, TeamName: name, Score: scores[i].Probability})
		}
		r := ranking.Rank(model.SeasonYear(season), candidates)

		preds := make([]types.PredictionEntry, 0, r.Len())
		for _, e := range r.Entries {
			agg := &groups[start+e.Input]
			sc := scores[start+e.Input]
			byScorer := make(map[string]float64, scoring.Size)
			for _, c := range sc.Components {
				byScorer[c.Scorer] = c.Probability
			}
			var winPct float64
			if agg.Games > 0 {
				winPct = float64(agg.Wins) / float64(agg.Games)
			}
			preds = append(preds, types.PredictionEntry{
				Rank:                    e.Rank,
				TeamID:                  e.TeamID,
				TeamName:                e.TeamName,
				Abbreviation:            teams[e.TeamID].Abbreviation,
				Wins:                    agg.Wins,
				WinPct:                  winPct,
				Ppg:                     agg.Mean.Pts,
				PointDiff:               agg.Mean.Pts - agg.Mean.OppPts,
				ChampionshipProbability: sc.Probability,
				ScorerProbabilities:     byScorer,
			})
		}
		res.Seasons = append(res.Seasons, types.SeasonPredictions{
			Season:      r.Season,
			RunID:       res.RunID,
			GeneratedAt: res.GeneratedAt,
			Predictions: preds,
		})

		champion, _ := p.truth.Champion(season)
		outcome := ranking.Evaluate(r, champion)
		res.Outcomes = append(res.Outcomes, outcome)
		if outcome.HasGroundTruth {
			res.Historical = append(res.Historical, types.HistoricalRecord{
				Season:                    outcome.Season,
				ActualChampion:            outcome.ActualChampion,
				PredictedChampion:         outcome.PredictedChampion,
				PredictedProbability:      outcome.PredictedProbability,
				Correct:                   outcome.Correct,
				ActualChampionRank:        outcome.ActualRank,
				ActualChampionProbability: outcome.ActualProbability,
			})
		}
		start = end
	}

	sum := ranking.Summarize(res.Outcomes)
	res.Stats = types.RunStats{
		RunID:              res.RunID,
		GeneratedAt:        res.GeneratedAt,
		Seasons:            sum.Seasons,
		TeamSeasons:        len(groups),
		SeasonsEvaluated:   sum.Evaluated,
		CorrectPredictions: sum.Correct,
		Accuracy:           sum.Accuracy,
		MeanChampionRank:   sum.MeanChampionRank,
		Top3HitRate:        sum.Top3HitRate,
	}
}
