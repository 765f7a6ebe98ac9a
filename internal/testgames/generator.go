// Package testgames generates deterministic synthetic seasons for tests,
// local runs and the backtest tool when no database is configured.
package testgames

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/titlerace/internal/domain/model"
)

// Team is a synthetic franchise. Higher Strength wins more.
type Team struct {
	model.Team
	Strength float64
}

// Config controls Generate.
type Config struct {
	// Seasons are source season ids (22010).
	Seasons []int
	Teams   []Team
	// Rounds is how many times each pair of teams meets per season.
	Rounds int
	Seed   int64
	// HustleFrom is the first season year with hustle stats; earlier seasons have none.
	HustleFrom int
	// Duplicates re-emits the first n games of every season under the same id.
	Duplicates int
	// Playoffs appends n playoff games per season.
	Playoffs int
}

const (
	basePoints    = 100.0
	strengthScale = 12.0
	noise         = 1.5
)

// DefaultTeams returns four teams whose strengths are far enough apart that
// the stronger side always wins.
func DefaultTeams() []Team {
	return []Team{
		{Team: model.Team{ID: "1610612747", FullName: "Los Angeles Lakers", Abbreviation: "LAL", Nickname: "Lakers", City: "Los Angeles"}, Strength: 1.2},
		{Team: model.Team{ID: "1610612738", FullName: "Boston Celtics", Abbreviation: "BOS", Nickname: "Celtics", City: "Boston"}, Strength: 0.8},
		{Team: model.Team{ID: "1610612744", FullName: "Golden State Warriors", Abbreviation: "GSW", Nickname: "Warriors", City: "Golden State"}, Strength: 0.4},
		{Team: model.Team{ID: "1610612761", FullName: "Toronto Raptors", Abbreviation: "TOR", Nickname: "Raptors", City: "Toronto"}, Strength: 0},
	}
}

// DefaultConfig is four teams over seasons 2009, 2010, 2019 and 2024.
func DefaultConfig() Config {
	return Config{
		Seasons:    []int{22009, 22010, 22019, 22024},
		Teams:      DefaultTeams(),
		Rounds:     4,
		Seed:       7,
		HustleFrom: 2016,
	}
}

// Generate returns game rows and the team list for cfg.
func Generate(cfg Config) ([]model.GameRow, []model.Team) {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic league, not security sensitive
	if cfg.Rounds <= 0 {
		cfg.Rounds = 1
	}

	var rows []model.GameRow
	for _, season := range cfg.Seasons {
		year := model.SeasonYear(season)
		day := time.Date(year, time.October, 20, 19, 0, 0, 0, time.UTC)
		hustle := year >= cfg.HustleFrom
		var seasonRows []model.GameRow

		n := 0
		for r := 0; r < cfg.Rounds; r++ {
			for i := range cfg.Teams {
				for j := i + 1; j < len(cfg.Teams); j++ {
					home, away := cfg.Teams[i], cfg.Teams[j]
					if r%2 == 1 {
						home, away = away, home
					}
					n++
					seasonRows = append(seasonRows, game(rng, fmt.Sprintf("%d%05d", season, n), season, "Regular Season", day, home, away, hustle))
					day = day.Add(24 * time.Hour)
				}
			}
		}
		for k := 0; k < cfg.Duplicates && k < len(seasonRows); k++ {
			seasonRows = append(seasonRows, seasonRows[k])
		}
		for k := 0; k < cfg.Playoffs && len(cfg.Teams) > 1; k++ {
			n++
			seasonRows = append(seasonRows, game(rng, fmt.Sprintf("%d%05d", season+20000, n), season, "Playoffs", day, cfg.Teams[0], cfg.Teams[1], hustle))
			day = day.Add(24 * time.Hour)
		}
		rows = append(rows, seasonRows...)
	}

	teams := make([]model.Team, len(cfg.Teams))
	for i, t := range cfg.Teams {
		teams[i] = t.Team
	}
	return rows, teams
}

func game(rng *rand.Rand, id string, season int, seasonType string, date time.Time, home, away Team, hustle bool) model.GameRow {
	row := model.GameRow{
		GameID:     id,
		SeasonID:   season,
		SeasonType: seasonType,
		GameDate:   date,
		Home:       side(rng, home),
		Away:       side(rng, away),
	}
	if hustle {
		row.HomeHustle = hustleLine(rng, row.Home)
		row.AwayHustle = hustleLine(rng, row.Away)
	}
	return row
}

func side(rng *rand.Rand, t Team) model.SideStats {
	jitter := func(scale float64) float64 { return (rng.Float64()*2 - 1) * scale }
	pts := float64(int(basePoints + strengthScale*t.Strength + jitter(noise) + 0.5))
	return model.SideStats{
		TeamID: t.ID,
		Pts:    valid(pts),
		FgPct:  valid(0.44 + 0.02*t.Strength + jitter(0.01)),
		FtPct:  valid(0.76 + jitter(0.02)),
		Fg3Pct: valid(0.35 + 0.01*t.Strength + jitter(0.01)),
		Fg3m:   valid(11 + jitter(2)),
		Ast:    valid(22 + 2*t.Strength + jitter(2)),
		Reb:    valid(43 + jitter(3)),
		Oreb:   valid(10 + jitter(2)),
		Dreb:   valid(33 + jitter(2)),
		Stl:    valid(7 + jitter(1)),
		Blk:    valid(5 + jitter(1)),
		Tov:    valid(14 - t.Strength + jitter(1)),
		Pf:     valid(20 + jitter(2)),
		Fga:    valid(86 + jitter(3)),
		Fta:    valid(22 + jitter(3)),
	}
}

func valid(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func hustleLine(rng *rand.Rand, s model.SideStats) model.HustleLine {
	v := func(f float64) sql.NullFloat64 {
		return sql.NullFloat64{Float64: float64(int(f + rng.Float64()*2)), Valid: true}
	}
	return model.HustleLine{
		PtsPaint:     v(s.Pts.Float64 * 0.44),
		Pts2ndChance: v(s.Oreb.Float64 * 1.2),
		PtsFb:        v(13),
		PtsOffTo:     v(16),
	}
}
