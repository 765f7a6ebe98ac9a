package features

import (
	"github.com/okian/titlerace/internal/domain/model"
)

// possessionFTWeight approximates the share of free-throw attempts that end a possession.
const possessionFTWeight = 0.44

// astTovEpsilon keeps the assist/turnover ratio finite for a team without turnovers.
const astTovEpsilon = 0.1

// Derive computes the feature vector of one team-season. form carries the
// recency features. Divisions by zero yield 0; the affected features are
// returned so callers can count them.
func Derive(agg *model.TeamSeasonAggregate, form Form) (Vector, []Feature) {
	var (
		v         Vector
		fallbacks []Feature
	)
	div := func(f Feature, num, den float64) float64 {
		if den == 0 {
			fallbacks = append(fallbacks, f)
			return 0
		}
		return num / den
	}

	m := agg.Mean
	h := agg.Hustle
	x := &v.values

	x[Wins] = float64(agg.Wins)
	x[WinPct] = div(WinPct, float64(agg.Wins), float64(agg.Games))
	x[Ppg] = m.Pts
	x[OppPpg] = m.OppPts
	x[PointDiff] = m.Pts - m.OppPts

	x[FgPct] = m.FgPct
	x[FtPct] = m.FtPct
	x[Fg3Pct] = m.Fg3Pct
	x[Fg3m] = m.Fg3m
	x[OppFg3Pct] = m.OppFg3Pct
	x[Fg3Diff] = m.Fg3Pct - m.OppFg3Pct

	x[Apg] = m.Ast
	x[Rpg] = m.Reb
	x[Spg] = m.Stl
	x[Bpg] = m.Blk

	x[Oreb] = m.Oreb
	x[Dreb] = m.Dreb
	x[RebDiff] = m.Reb - (m.OppDreb + m.Oreb)
	x[OrebRate] = div(OrebRate, m.Oreb, m.Oreb+m.OppDreb)
	x[DrebRate] = div(DrebRate, m.Dreb, m.Dreb+m.Oreb)

	x[Tov] = m.Tov
	// Turnovers against the team's own season mean, which is the value itself.
	x[TovDiff] = 0
	x[AstTovRatio] = m.Ast / (m.Tov + astTovEpsilon)

	x[DefensivePressure] = m.Stl + m.Blk
	x[PressureDiff] = x[DefensivePressure]

	possessions := m.Fga + possessionFTWeight*m.Fta + m.Tov
	x[OffEfficiency] = div(OffEfficiency, m.Pts, possessions)
	x[DefEfficiency] = div(DefEfficiency, m.OppPts, possessions)
	x[EfficiencyDiff] = x[OffEfficiency] - x[DefEfficiency]

	x[FtRate] = div(FtRate, m.Fta, m.Fga)
	x[Discipline] = -m.Pf

	x[RecentWinPct] = form.WinPct
	x[RecentPointDiff] = form.PointDiff
	x[Momentum] = form.Momentum

	x[PtsPaint] = h[model.PtsPaint]
	x[Pts2ndChance] = h[model.Pts2ndChance]
	x[PtsFb] = h[model.PtsFb]
	x[PtsOffTo] = h[model.PtsOffTo]
	x[PaintDominance] = h[model.PtsPaint] - h[model.OppPtsPaint]
	x[SecondChanceEdge] = h[model.Pts2ndChance]
	x[TransitionEdge] = h[model.PtsFb] - h[model.OppPtsFb]
	x[DefensivePoints] = h[model.PtsOffTo]
	x[PaintPct] = div(PaintPct, h[model.PtsPaint], m.Pts)

	return v, fallbacks
}
