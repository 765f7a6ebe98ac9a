// Package features owns the canonical feature schema shared by training and
// inference, and derives feature vectors from team-season aggregates.
//
// Vectors are always bound by feature name. Positional slices from the
// outside world go through FromOrdered, which checks them against the schema
// and reorders them; there is no way to build a Vector from bare values.
package features

// SchemaVersion identifies the feature list below. Bump it whenever a name is
// added, removed or moved.
const SchemaVersion = "team-season-42/v1"

// Feature indexes the canonical schema.
type Feature int

const (
	Wins Feature = iota
	WinPct
	Ppg
	OppPpg
	PointDiff
	FgPct
	FtPct
	Fg3Pct
	Fg3m
	OppFg3Pct
	Fg3Diff
	Apg
	Rpg
	Spg
	Bpg
	Oreb
	Dreb
	RebDiff
	OrebRate
	DrebRate
	Tov
	TovDiff
	AstTovRatio
	DefensivePressure
	PressureDiff
	OffEfficiency
	DefEfficiency
	EfficiencyDiff
	FtRate
	Discipline
	RecentWinPct
	RecentPointDiff
	Momentum
	PtsPaint
	Pts2ndChance
	PtsFb
	PtsOffTo
	PaintDominance
	SecondChanceEdge
	TransitionEdge
	DefensivePoints
	PaintPct

	// Count is the schema length.
	Count int = iota
)

var names = [Count]string{
	Wins:              "wins",
	WinPct:            "win_pct",
	Ppg:               "ppg",
	OppPpg:            "opp_ppg",
	PointDiff:         "point_diff",
	FgPct:             "fg_pct",
	FtPct:             "ft_pct",
	Fg3Pct:            "fg3_pct",
	Fg3m:              "fg3m",
	OppFg3Pct:         "opp_fg3_pct",
	Fg3Diff:           "fg3_diff",
	Apg:               "apg",
	Rpg:               "rpg",
	Spg:               "spg",
	Bpg:               "bpg",
	Oreb:              "oreb",
	Dreb:              "dreb",
	RebDiff:           "reb_diff",
	OrebRate:          "oreb_rate",
	DrebRate:          "dreb_rate",
	Tov:               "tov",
	TovDiff:           "tov_diff",
	AstTovRatio:       "ast_tov_ratio",
	DefensivePressure: "defensive_pressure",
	PressureDiff:      "pressure_diff",
	OffEfficiency:     "off_efficiency",
	DefEfficiency:     "def_efficiency",
	EfficiencyDiff:    "efficiency_diff",
	FtRate:            "ft_rate",
	Discipline:        "discipline",
	RecentWinPct:      "recent_win_pct",
	RecentPointDiff:   "recent_point_diff",
	Momentum:          "momentum",
	PtsPaint:          "pts_paint",
	Pts2ndChance:      "pts_2nd_chance",
	PtsFb:             "pts_fb",
	PtsOffTo:          "pts_off_to",
	PaintDominance:    "paint_dominance",
	SecondChanceEdge:  "2nd_chance_edge",
	TransitionEdge:    "transition_edge",
	DefensivePoints:   "defensive_points",
	PaintPct:          "paint_pct",
}

var byName = func() map[string]Feature {
	m := make(map[string]Feature, Count)
	for i, n := range names {
		m[n] = Feature(i)
	}
	return m
}()

func (f Feature) String() string {
	if f < 0 || int(f) >= Count {
		return "unknown"
	}
	return names[f]
}

// Names returns the canonical feature names in schema order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Lookup returns the feature with the given name.
func Lookup(name string) (Feature, bool) {
	f, ok := byName[name]
	return f, ok
}
