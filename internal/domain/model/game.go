// Package model contains domain models passed between layers.
package model

import (
	"database/sql"
	"time"
)

// SideStats is one side of a raw game row. Every stat is nullable: a missing
// score rejects the game, any other missing stat is left out of its mean.
type SideStats struct {
	TeamID string
	Pts    sql.NullFloat64
	FgPct  sql.NullFloat64
	FtPct  sql.NullFloat64
	Fg3Pct sql.NullFloat64
	Fg3m   sql.NullFloat64
	Ast    sql.NullFloat64
	Reb    sql.NullFloat64
	Oreb   sql.NullFloat64
	Dreb   sql.NullFloat64
	Stl    sql.NullFloat64
	Blk    sql.NullFloat64
	Tov    sql.NullFloat64
	Pf     sql.NullFloat64
	Fga    sql.NullFloat64
	Fta    sql.NullFloat64
}

// HustleLine holds the auxiliary per-side scoring breakdown. Older seasons
// have no row at all, so every field is nullable.
type HustleLine struct {
	PtsPaint     sql.NullFloat64
	Pts2ndChance sql.NullFloat64
	PtsFb        sql.NullFloat64
	PtsOffTo     sql.NullFloat64
}

// GameRow is one raw two-sided game as read from the source.
type GameRow struct {
	GameID     string
	SeasonID   int
	SeasonType string
	GameDate   time.Time
	Home       SideStats
	Away       SideStats
	HomeHustle HustleLine
	AwayHustle HustleLine
}

// BoxScore holds the per-game stats that are averaged per team-season.
type BoxScore struct {
	Pts       float64
	OppPts    float64
	FgPct     float64
	FtPct     float64
	Fg3Pct    float64
	Fg3m      float64
	OppFg3Pct float64
	Ast       float64
	Reb       float64
	Oreb      float64
	Dreb      float64
	OppDreb   float64
	Stl       float64
	Blk       float64
	Tov       float64
	Pf        float64
	Fga       float64
	Fta       float64
}

// StatField indexes the fields of a BoxScore.
type StatField int

const (
	StatPts StatField = iota
	StatOppPts
	StatFgPct
	StatFtPct
	StatFg3Pct
	StatFg3m
	StatOppFg3Pct
	StatAst
	StatReb
	StatOreb
	StatDreb
	StatOppDreb
	StatStl
	StatBlk
	StatTov
	StatPf
	StatFga
	StatFta
	NumStatFields
)

var statFieldNames = [NumStatFields]string{
	StatPts:       "pts",
	StatOppPts:    "opp_pts",
	StatFgPct:     "fg_pct",
	StatFtPct:     "ft_pct",
	StatFg3Pct:    "fg3_pct",
	StatFg3m:      "fg3m",
	StatOppFg3Pct: "opp_fg3_pct",
	StatAst:       "ast",
	StatReb:       "reb",
	StatOreb:      "oreb",
	StatDreb:      "dreb",
	StatOppDreb:   "opp_dreb",
	StatStl:       "stl",
	StatBlk:       "blk",
	StatTov:       "tov",
	StatPf:        "pf",
	StatFga:       "fga",
	StatFta:       "fta",
}

func (f StatField) String() string {
	if f < 0 || f >= NumStatFields {
		return "unknown"
	}
	return statFieldNames[f]
}

func (b *BoxScore) field(f StatField) *float64 {
	switch f {
	case StatPts:
		return &b.Pts
	case StatOppPts:
		return &b.OppPts
	case StatFgPct:
		return &b.FgPct
	case StatFtPct:
		return &b.FtPct
	case StatFg3Pct:
		return &b.Fg3Pct
	case StatFg3m:
		return &b.Fg3m
	case StatOppFg3Pct:
		return &b.OppFg3Pct
	case StatAst:
		return &b.Ast
	case StatReb:
		return &b.Reb
	case StatOreb:
		return &b.Oreb
	case StatDreb:
		return &b.Dreb
	case StatOppDreb:
		return &b.OppDreb
	case StatStl:
		return &b.Stl
	case StatBlk:
		return &b.Blk
	case StatTov:
		return &b.Tov
	case StatPf:
		return &b.Pf
	case StatFga:
		return &b.Fga
	case StatFta:
		return &b.Fta
	default:
		return nil
	}
}

// Stat returns field f, or 0 for an unknown field.
func (b BoxScore) Stat(f StatField) float64 {
	if p := b.field(f); p != nil {
		return *p
	}
	return 0
}

// SetStat sets field f. Unknown fields are ignored.
func (b *BoxScore) SetStat(f StatField, v float64) {
	if p := b.field(f); p != nil {
		*p = v
	}
}

// HustleField indexes the nullable hustle stats of a GameRecord.
type HustleField int

const (
	PtsPaint HustleField = iota
	Pts2ndChance
	PtsFb
	PtsOffTo
	OppPtsPaint
	OppPtsFb
	NumHustleFields
)

var hustleFieldNames = [NumHustleFields]string{
	PtsPaint:     "pts_paint",
	Pts2ndChance: "pts_2nd_chance",
	PtsFb:        "pts_fb",
	PtsOffTo:     "pts_off_to",
	OppPtsPaint:  "opp_pts_paint",
	OppPtsFb:     "opp_pts_fb",
}

func (f HustleField) String() string {
	if f < 0 || f >= NumHustleFields {
		return "unknown"
	}
	return hustleFieldNames[f]
}

// GameRecord is one game from one team's perspective. It is never mutated
// after the normalizer emits it.
type GameRecord struct {
	GameID     string
	SeasonID   int
	TeamID     string
	OpponentID string
	Home       bool
	GameDate   time.Time

	BoxScore
	// Missing marks box-score fields the source left null; they read as 0.
	Missing [NumStatFields]bool
	Hustle  [NumHustleFields]sql.NullFloat64

	// Won is Pts > OppPts.
	Won bool
}

// PointDiff is the record's scoring margin.
func (r GameRecord) PointDiff() float64 {
	return r.Pts - r.OppPts
}

// Has reports whether the source supplied field f for this game.
func (r GameRecord) Has(f StatField) bool {
	return f >= 0 && f < NumStatFields && !r.Missing[f]
}

// Key returns the team-season the record belongs to.
func (r GameRecord) Key() TeamSeasonKey {
	return TeamSeasonKey{SeasonID: r.SeasonID, TeamID: r.TeamID}
}

// TeamSeasonKey identifies one team's season.
type TeamSeasonKey struct {
	SeasonID int
	TeamID   string
}

// Less orders keys by season, then team.
func (k TeamSeasonKey) Less(o TeamSeasonKey) bool {
	if k.SeasonID != o.SeasonID {
		return k.SeasonID < o.SeasonID
	}
	return k.TeamID < o.TeamID
}

// TeamSeasonAggregate summarizes one team-season.
type TeamSeasonAggregate struct {
	Key   TeamSeasonKey
	Games int
	Wins  int

	// Mean is the per-game average of every box-score field over the games
	// that have it.
	Mean BoxScore

	// Empty lists box-score fields null in every game; their mean is 0.
	Empty []StatField

	// Hustle holds per-game hustle means after imputation.
	Hustle [NumHustleFields]float64

	// Imputed lists hustle fields filled from the population mean.
	Imputed []HustleField

	// Records are the team-season's games in chronological order.
	Records []GameRecord
}

// IsImputed reports whether f was filled from the population mean.
func (a *TeamSeasonAggregate) IsImputed(f HustleField) bool {
	for _, g := range a.Imputed {
		if g == f {
			return true
		}
	}
	return false
}
