package pipeline_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/titlerace/internal/adapters/source"
	"github.com/okian/titlerace/internal/domain/features"
	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/scaler"
	"github.com/okian/titlerace/internal/domain/scoring"
	"github.com/okian/titlerace/internal/pipeline"
	"github.com/okian/titlerace/internal/testgames"
	"github.com/okian/titlerace/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.WithOutput(io.Discard))
	os.Exit(m.Run())
}

type constScorer struct {
	name string
	p    float64
	err  error
}

func (s constScorer) Name() string { return s.name }

func (s constScorer) Predict(context.Context, scaler.Scaled) (float64, error) {
	return s.p, s.err
}

type failingSource struct{}

func (failingSource) LoadGames(context.Context) ([]model.GameRow, error) {
	return nil, source.ErrUnavailable
}

func (failingSource) LoadTeams(context.Context) ([]model.Team, error) { return nil, nil }

func fixture(cfg testgames.Config) *source.Memory {
	rows, teams := testgames.Generate(cfg)
	return source.NewMemory(rows, teams)
}

func TestRun(t *testing.T) {
	Convey("Given four synthetic seasons and a win-driven ensemble", t, func() {
		cfg := testgames.DefaultConfig()
		cfg.Duplicates = 2
		cfg.Playoffs = 1
		ens, err := testgames.Ensemble()
		So(err, ShouldBeNil)
		fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		dir := t.TempDir()

		p := pipeline.New(fixture(cfg), ens,
			pipeline.WithWorkerCount(3),
			pipeline.WithClock(func() time.Time { return fixed }),
			pipeline.WithArtifactDir(dir),
		)

		Convey("When the pipeline runs", func() {
			res, err := p.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then every season should be ranked in order", func() {
				So(res.RunID, ShouldNotBeEmpty)
				So(res.GeneratedAt, ShouldEqual, fixed)
				So(res.Seasons, ShouldHaveLength, 4)
				So(res.Seasons[0].Season, ShouldEqual, 2009)
				So(res.Seasons[3].Season, ShouldEqual, 2024)
				for _, s := range res.Seasons {
					So(s.Predictions, ShouldHaveLength, 4)
					So(s.Predictions[0].TeamName, ShouldEqual, "Los Angeles Lakers")
					So(s.Predictions[0].Abbreviation, ShouldEqual, "LAL")
					So(s.Predictions[0].WinPct, ShouldEqual, 1.0)
					So(s.Predictions[3].TeamName, ShouldEqual, "Toronto Raptors")
					for i, e := range s.Predictions {
						So(e.Rank, ShouldEqual, i+1)
						So(e.ScorerProbabilities, ShouldHaveLength, 3)
						if i > 0 {
							So(e.ChampionshipProbability, ShouldBeLessThanOrEqualTo, s.Predictions[i-1].ChampionshipProbability)
						}
					}
				}
			})

			Convey("Then duplicates and playoff games should not count", func() {
				lal := res.Seasons[0].Predictions[0]
				So(lal.Wins, ShouldEqual, cfg.Rounds*3)
			})

			Convey("Then the ensemble probability should be the mean of the scorers", func() {
				e := res.Seasons[1].Predictions[0]
				var sum float64
				for _, p := range e.ScorerProbabilities {
					sum += p
				}
				So(e.ChampionshipProbability, ShouldAlmostEqual, sum/3, 1e-12)
			})

			Convey("Then only seasons with a known champion should be in the history", func() {
				So(res.Historical, ShouldHaveLength, 3)
				So(res.Historical[0].Season, ShouldEqual, 2009)
				So(res.Historical[0].Correct, ShouldBeTrue)
				raptors := res.Historical[2]
				So(raptors.Season, ShouldEqual, 2019)
				So(raptors.ActualChampion, ShouldEqual, "Toronto Raptors")
				So(raptors.Correct, ShouldBeFalse)
				So(*raptors.ActualChampionRank, ShouldEqual, 4)
			})

			Convey("Then the run stats should summarize the outcomes", func() {
				So(res.Stats.Seasons, ShouldEqual, 4)
				So(res.Stats.TeamSeasons, ShouldEqual, 16)
				So(res.Stats.SeasonsEvaluated, ShouldEqual, 3)
				So(res.Stats.CorrectPredictions, ShouldEqual, 2)
				So(res.Stats.Accuracy, ShouldAlmostEqual, 2.0/3, 1e-12)
				So(res.Stats.MeanChampionRank, ShouldAlmostEqual, 2.0, 1e-12)
			})

			Convey("Then importance should cover the whole schema", func() {
				So(res.Importance, ShouldHaveLength, features.Count)
				So(res.Importance[0].Feature, ShouldEqual, "win_pct")
			})

			Convey("Then the scaler and metadata artifacts should be written", func() {
				So(res.ScalerFitted, ShouldBeTrue)
				loaded, err := scaler.Load(filepath.Join(dir, "scaler.json"))
				So(err, ShouldBeNil)
				So(loaded.Params(features.Wins), ShouldResemble, res.Predictor.Scaler().Params(features.Wins))

				meta, err := pipeline.ReadMetadata(dir)
				So(err, ShouldBeNil)
				So(meta.RunID, ShouldEqual, res.RunID)
				So(meta.FeatureCount, ShouldEqual, 42)
				So(meta.SchemaVersion, ShouldEqual, features.SchemaVersion)
				So(meta.Scorers, ShouldResemble, testgames.ScorerNames)
			})

			Convey("Then the predictor should score a named feature map", func() {
				named := features.Vector{}.Map()
				out, err := res.Predictor.PredictNamed(context.Background(), named)
				So(err, ShouldBeNil)
				So(out.Probability, ShouldBeBetween, 0.0, 1.0)

				delete(named, "wins")
				_, err = res.Predictor.PredictNamed(context.Background(), named)
				So(errors.Is(err, features.ErrFeatureOrderMismatch), ShouldBeTrue)
			})
		})

		Convey("When a preloaded scaler is given", func() {
			first, err := p.Run(context.Background())
			So(err, ShouldBeNil)

			again := pipeline.New(fixture(cfg), ens, pipeline.WithScaler(first.Predictor.Scaler()))
			res, err := again.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then it should be used instead of fitting", func() {
				So(res.ScalerFitted, ShouldBeFalse)
				So(res.Predictor.Scaler(), ShouldEqual, first.Predictor.Scaler())
				So(res.Seasons[0].Predictions[0].ChampionshipProbability, ShouldEqual, first.Seasons[0].Predictions[0].ChampionshipProbability)
			})
		})
	})
}

func TestRunFailures(t *testing.T) {
	Convey("Given a source that cannot be read", t, func() {
		ens, _ := testgames.Ensemble()
		_, err := pipeline.New(failingSource{}, ens).Run(context.Background())

		Convey("Then the run should fail with the source error", func() {
			So(errors.Is(err, source.ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a source with no regular-season games", t, func() {
		ens, _ := testgames.Ensemble()
		_, err := pipeline.New(source.NewMemory(nil, nil), ens).Run(context.Background())

		Convey("Then the run should be a data error", func() {
			So(errors.Is(err, model.ErrData), ShouldBeTrue)
		})
	})

	Convey("Given a scorer returning an out-of-range probability", t, func() {
		ens, err := scoring.NewEnsemble(
			constScorer{name: "a", p: 0.5},
			constScorer{name: "b", p: 1.5},
			constScorer{name: "c", p: 0.5},
		)
		So(err, ShouldBeNil)
		_, err = pipeline.New(fixture(testgames.DefaultConfig()), ens).Run(context.Background())

		Convey("Then the run should abort with a data error", func() {
			So(errors.Is(err, model.ErrData), ShouldBeTrue)
		})
	})

	Convey("Given a scorer that fails", t, func() {
		boom := errors.New("boom")
		ens, _ := scoring.NewEnsemble(
			constScorer{name: "a", p: 0.5},
			constScorer{name: "b", p: 0.5},
			constScorer{name: "c", err: boom},
		)
		_, err := pipeline.New(fixture(testgames.DefaultConfig()), ens, pipeline.WithWorkerCount(1)).Run(context.Background())

		Convey("Then the run should abort with that error", func() {
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ens, _ := testgames.Ensemble()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := pipeline.New(fixture(testgames.DefaultConfig()), ens).Run(ctx)

		Convey("Then the run should stop", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
