package ranking

// Outcome is a season's ranking checked against the real champion.
type Outcome struct {
	Season int

	// HasGroundTruth is false when the champion of the season is unknown.
	HasGroundTruth bool
	ActualChampion string

	PredictedChampion    string
	PredictedProbability float64

	Correct bool

	// ActualRank and ActualProbability are nil when the champion was not
	// among the ranked teams.
	ActualRank        *int
	ActualProbability *float64
}

// Evaluate compares r with champion. An empty champion means the season has
// no ground truth; the outcome then carries only the prediction.
func Evaluate(r Ranking, champion string) Outcome {
	out := Outcome{
		Season:         r.Season,
		HasGroundTruth: champion != "",
		ActualChampion: champion,
	}
	if leader, ok := r.Leader(); ok {
		out.PredictedChampion = leader.TeamName
		out.PredictedProbability = leader.Score
	}
	if !out.HasGroundTruth {
		return out
	}
	if e, ok := r.Lookup(champion); ok {
		rank, prob := e.Rank, e.Score
		out.ActualRank = &rank
		out.ActualProbability = &prob
		out.Correct = rank == 1
	}
	return out
}

// Summary aggregates outcomes across seasons. Seasons without ground truth
// are skipped, not counted as misses.
type Summary struct {
	Seasons   int
	Evaluated int
	Correct   int

	// Accuracy is Correct / Evaluated.
	Accuracy float64

	// MeanChampionRank averages the champion's rank over seasons where it was ranked.
	MeanChampionRank float64

	// Top3HitRate is the share of evaluated seasons with the champion ranked 1 to 3.
	Top3HitRate float64
}

// Summarize folds outcomes into a Summary.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Seasons: len(outcomes)}
	var rankSum, ranked, top3 int
	for _, o := range outcomes {
		if !o.HasGroundTruth {
			continue
		}
		s.Evaluated++
		if o.Correct {
			s.Correct++
		}
		if o.ActualRank != nil {
			rankSum += *o.ActualRank
			ranked++
			if *o.ActualRank <= 3 {
				top3++
			}
		}
	}
	if s.Evaluated > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Evaluated)
		s.Top3HitRate = float64(top3) / float64(s.Evaluated)
	}
	if ranked > 0 {
		s.MeanChampionRank = float64(rankSum) / float64(ranked)
	}
	return s
}
