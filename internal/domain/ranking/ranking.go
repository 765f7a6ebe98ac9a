// Package ranking orders a season's teams by championship probability and
// checks the order against the real champion.
package ranking

import (
	"sort"
)

// Candidate is one team-season offered to the ranker.
type Candidate struct {
	TeamID   string
	TeamName string
	Score    float64
}

// Entry is a ranked candidate. Input is the candidate's position in the
// slice passed to Rank.
type Entry struct {
	Rank int
	Candidate
	Input int
}

// Ranking is one season's candidates sorted by score, highest first.
type Ranking struct {
	Season  int
	Entries []Entry
}

// Rank sorts candidates by score descending. Equal scores keep their input
// order. Ranks are 1-based and distinct, so rank 1 is the predicted champion.
// candidates is not modified.
func Rank(season int, candidates []Candidate) Ranking {
	entries := make([]Entry, len(candidates))
	for i, c := range candidates {
		entries[i] = Entry{Candidate: c, Input: i}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return Ranking{Season: season, Entries: entries}
}

// Len returns the number of ranked teams.
func (r Ranking) Len() int {
	return len(r.Entries)
}

// Leader returns the rank-1 entry, if any.
func (r Ranking) Leader() (Entry, bool) {
	if len(r.Entries) == 0 {
		return Entry{}, false
	}
	return r.Entries[0], true
}

// Lookup finds a team by name or id.
func (r Ranking) Lookup(team string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.TeamName == team || e.TeamID == team {
			return e, true
		}
	}
	return Entry{}, false
}
