package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/types"
)

type runRow struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	GeneratedAt        time.Time `gorm:"index;not null"`
	Seasons            int       `gorm:"not null"`
	TeamSeasons        int       `gorm:"not null"`
	SeasonsEvaluated   int       `gorm:"not null"`
	CorrectPredictions int       `gorm:"not null"`
	Accuracy           float64   `gorm:"not null"`
	MeanChampionRank   float64   `gorm:"not null"`
	Top3HitRate        float64   `gorm:"not null"`
	Importance         []byte    `gorm:"type:jsonb"`
}

func (runRow) TableName() string { return "titlerace_runs" }

type predictionRow struct {
	ID                  int64   `gorm:"primaryKey;autoIncrement"`
	RunID               string  `gorm:"size:36;index:idx_prediction_run_season;not null"`
	Season              int     `gorm:"index:idx_prediction_run_season;not null"`
	Rank                int     `gorm:"not null"`
	TeamID              string  `gorm:"size:32;not null"`
	TeamName            string  `gorm:"size:128;not null"`
	Abbreviation        string  `gorm:"size:8"`
	Wins                int     `gorm:"not null"`
	WinPct              float64 `gorm:"not null"`
	Ppg                 float64 `gorm:"not null"`
	PointDiff           float64 `gorm:"not null"`
	Probability         float64 `gorm:"not null"`
	ScorerProbabilities []byte  `gorm:"type:jsonb"`
}

func (predictionRow) TableName() string { return "titlerace_predictions" }

type historicalRow struct {
	ID                   int64    `gorm:"primaryKey;autoIncrement"`
	RunID                string   `gorm:"size:36;index:idx_historical_run_season;not null"`
	Season               int      `gorm:"index:idx_historical_run_season;not null"`
	ActualChampion       string   `gorm:"size:128;not null"`
	PredictedChampion    string   `gorm:"size:128"`
	PredictedProbability float64  `gorm:"not null"`
	Correct              bool     `gorm:"not null"`
	ActualRank           *int
	ActualProbability    *float64
}

func (historicalRow) TableName() string { return "titlerace_historical" }

type teamRow struct {
	ID           string `gorm:"primaryKey;size:32"`
	FullName     string `gorm:"size:128;not null"`
	Abbreviation string `gorm:"size:8"`
	Nickname     string `gorm:"size:64"`
	City         string `gorm:"size:64"`
}

func (teamRow) TableName() string { return "titlerace_teams" }

// GormStore keeps runs in Postgres. Every run is kept; reads serve the most
// recent one.
type GormStore struct {
	db *gorm.DB
}

// OpenGormStore connects to dsn and migrates the schema.
func OpenGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps db and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&runRow{}, &predictionRow{}, &historicalRow{}, &teamRow{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun writes the whole run in one transaction.
func (g *GormStore) SaveRun(ctx context.Context, run Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	importance, err := json.Marshal(run.Importance)
	if err != nil {
		return fmt.Errorf("encode importance: %w", err)
	}
	s := run.Stats
	rr := runRow{
		ID:                 s.RunID,
		GeneratedAt:        s.GeneratedAt,
		Seasons:            s.Seasons,
		TeamSeasons:        s.TeamSeasons,
		SeasonsEvaluated:   s.SeasonsEvaluated,
		CorrectPredictions: s.CorrectPredictions,
		Accuracy:           s.Accuracy,
		MeanChampionRank:   s.MeanChampionRank,
		Top3HitRate:        s.Top3HitRate,
		Importance:         importance,
	}

	var preds []predictionRow
	for _, sp := range run.Seasons {
		for _, e := range sp.Predictions {
			byScorer, err := json.Marshal(e.ScorerProbabilities)
			if err != nil {
				return fmt.Errorf("encode scorer probabilities: %w", err)
			}
			preds = append(preds, predictionRow{
				RunID:               s.RunID,
				Season:              sp.Season,
				Rank:                e.Rank,
				TeamID:              e.TeamID,
				TeamName:            e.TeamName,
				Abbreviation:        e.Abbreviation,
				Wins:                e.Wins,
				WinPct:              e.WinPct,
				Ppg:                 e.Ppg,
				PointDiff:           e.PointDiff,
				Probability:         e.ChampionshipProbability,
				ScorerProbabilities: byScorer,
			})
		}
	}
	hist := make([]historicalRow, 0, len(run.Historical))
	for _, h := range run.Historical {
		hist = append(hist, historicalRow{
			RunID:                s.RunID,
			Season:               h.Season,
			ActualChampion:       h.ActualChampion,
			PredictedChampion:    h.PredictedChampion,
			PredictedProbability: h.PredictedProbability,
			Correct:              h.Correct,
			ActualRank:           h.ActualChampionRank,
			ActualProbability:    h.ActualChampionProbability,
		})
	}
	teams := make([]teamRow, 0, len(run.Teams))
	for _, t := range run.Teams {
		teams = append(teams, teamRow(t))
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(preds) > 0 {
			if err := tx.CreateInBatches(preds, 500).Error; err != nil {
				return fmt.Errorf("insert predictions: %w", err)
			}
		}
		if len(hist) > 0 {
			if err := tx.Create(&hist).Error; err != nil {
				return fmt.Errorf("insert historical: %w", err)
			}
		}
		if len(teams) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&teams).Error; err != nil {
				return fmt.Errorf("upsert teams: %w", err)
			}
		}
		// The run row goes last so readers never see a run without its rows.
		if err := tx.Create(&rr).Error; err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

func (g *GormStore) latest(ctx context.Context) (runRow, error) {
	var rr runRow
	err := g.db.WithContext(ctx).Order("generated_at DESC").Take(&rr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rr, fmt.Errorf("%w: no run stored", ErrNotFound)
	}
	if err != nil {
		return rr, fmt.Errorf("query latest run: %w", err)
	}
	return rr, nil
}

func (g *GormStore) Predictions(ctx context.Context, season int) (types.SeasonPredictions, error) {
	rr, err := g.latest(ctx)
	if err != nil {
		return types.SeasonPredictions{}, err
	}
	year := model.SeasonYear(season)
	var rows []predictionRow
	if err := g.db.WithContext(ctx).
		Where("run_id = ? AND season = ?", rr.ID, year).
		Order("rank ASC").
		Find(&rows).Error; err != nil {
		return types.SeasonPredictions{}, fmt.Errorf("query predictions: %w", err)
	}
	if len(rows) == 0 {
		return types.SeasonPredictions{}, fmt.Errorf("%w: season %d", ErrNotFound, season)
	}

	out := types.SeasonPredictions{
		Season:      year,
		RunID:       rr.ID,
		GeneratedAt: rr.GeneratedAt,
		Predictions: make([]types.PredictionEntry, 0, len(rows)),
	}
	for _, r := range rows {
		var byScorer map[string]float64
		if len(r.ScorerProbabilities) > 0 {
			if err := json.Unmarshal(r.ScorerProbabilities, &byScorer); err != nil {
				return types.SeasonPredictions{}, fmt.Errorf("decode scorer probabilities: %w", err)
			}
		}
		out.Predictions = append(out.Predictions, types.PredictionEntry{
			Rank:                    r.Rank,
			TeamID:                  r.TeamID,
			TeamName:                r.TeamName,
			Abbreviation:            r.Abbreviation,
			Wins:                    r.Wins,
			WinPct:                  r.WinPct,
			Ppg:                     r.Ppg,
			PointDiff:               r.PointDiff,
			ChampionshipProbability: r.Probability,
			ScorerProbabilities:     byScorer,
		})
	}
	return out, nil
}

func (g *GormStore) Latest(ctx context.Context) (types.SeasonPredictions, error) {
	seasons, err := g.Seasons(ctx)
	if err != nil {
		return types.SeasonPredictions{}, err
	}
	return g.Predictions(ctx, seasons[0])
}

func (g *GormStore) Seasons(ctx context.Context) ([]int, error) {
	rr, err := g.latest(ctx)
	if err != nil {
		return nil, err
	}
	var seasons []int
	if err := g.db.WithContext(ctx).Model(&predictionRow{}).
		Where("run_id = ?", rr.ID).
		Distinct("season").
		Order("season DESC").
		Pluck("season", &seasons).Error; err != nil {
		return nil, fmt.Errorf("query seasons: %w", err)
	}
	if len(seasons) == 0 {
		return nil, fmt.Errorf("%w: run %s has no seasons", ErrNotFound, rr.ID)
	}
	return seasons, nil
}

func (g *GormStore) historical(ctx context.Context, where string, args ...any) ([]types.HistoricalRecord, error) {
	rr, err := g.latest(ctx)
	if err != nil {
		return nil, err
	}
	var rows []historicalRow
	q := g.db.WithContext(ctx).Where("run_id = ?", rr.ID)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Order("season ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query historical: %w", err)
	}
	out := make([]types.HistoricalRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.HistoricalRecord{
			Season:                    r.Season,
			ActualChampion:            r.ActualChampion,
			PredictedChampion:         r.PredictedChampion,
			PredictedProbability:      r.PredictedProbability,
			Correct:                   r.Correct,
			ActualChampionRank:        r.ActualRank,
			ActualChampionProbability: r.ActualProbability,
		})
	}
	return out, nil
}

func (g *GormStore) Historical(ctx context.Context) ([]types.HistoricalRecord, error) {
	return g.historical(ctx, "")
}

func (g *GormStore) Champion(ctx context.Context, season int) (types.HistoricalRecord, error) {
	out, err := g.historical(ctx, "season = ?", model.SeasonYear(season))
	if err != nil {
		return types.HistoricalRecord{}, err
	}
	if len(out) == 0 {
		return types.HistoricalRecord{}, fmt.Errorf("%w: no champion for season %d", ErrNotFound, season)
	}
	return out[0], nil
}

func (g *GormStore) Teams(ctx context.Context) ([]model.Team, error) {
	if _, err := g.latest(ctx); err != nil {
		return nil, err
	}
	var rows []teamRow
	if err := g.db.WithContext(ctx).Order("full_name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	out := make([]model.Team, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Team(r))
	}
	return out, nil
}

func (g *GormStore) Importance(ctx context.Context) ([]types.FeatureImportance, error) {
	rr, err := g.latest(ctx)
	if err != nil {
		return nil, err
	}
	var out []types.FeatureImportance
	if len(rr.Importance) > 0 {
		if err := json.Unmarshal(rr.Importance, &out); err != nil {
			return nil, fmt.Errorf("decode importance: %w", err)
		}
	}
	return out, nil
}

func (g *GormStore) Stats(ctx context.Context) (types.RunStats, error) {
	rr, err := g.latest(ctx)
	if err != nil {
		return types.RunStats{}, err
	}
	return types.RunStats{
		RunID:              rr.ID,
		GeneratedAt:        rr.GeneratedAt,
		Seasons:            rr.Seasons,
		TeamSeasons:        rr.TeamSeasons,
		SeasonsEvaluated:   rr.SeasonsEvaluated,
		CorrectPredictions: rr.CorrectPredictions,
		Accuracy:           rr.Accuracy,
		MeanChampionRank:   rr.MeanChampionRank,
		Top3HitRate:        rr.Top3HitRate,
	}, nil
}
