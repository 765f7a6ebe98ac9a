// Package normalize turns raw two-sided game rows into per-team game records.
package normalize

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/okian/titlerace/internal/domain/dedupe"
	"github.com/okian/titlerace/internal/domain/model"
)

// Split returns the home and away perspective of row, in that order. Each
// record's opponent fields come from the other side.
func Split(row model.GameRow) ([2]model.GameRecord, error) {
	var out [2]model.GameRecord
	if row.GameID == "" {
		return out, fmt.Errorf("%w: game without id", model.ErrData)
	}
	if row.Home.TeamID == "" || row.Away.TeamID == "" {
		return out, fmt.Errorf("%w: game %s: missing team id", model.ErrData, row.GameID)
	}
	if row.GameDate.IsZero() {
		return out, fmt.Errorf("%w: game %s: missing game date", model.ErrData, row.GameID)
	}
	if !row.Home.Pts.Valid || !row.Away.Pts.Valid {
		return out, fmt.Errorf("%w: game %s: missing score", model.ErrData, row.GameID)
	}

	out[0] = perspective(row, row.Home, row.Away, row.HomeHustle, row.AwayHustle, true)
	out[1] = perspective(row, row.Away, row.Home, row.AwayHustle, row.HomeHustle, false)
	return out, nil
}

func perspective(row model.GameRow, own, opp model.SideStats, ownH, oppH model.HustleLine, home bool) model.GameRecord {
	rec := model.GameRecord{
		GameID:     row.GameID,
		SeasonID:   row.SeasonID,
		TeamID:     own.TeamID,
		OpponentID: opp.TeamID,
		Home:       home,
		GameDate:   row.GameDate,
	}
	for _, s := range []struct {
		f model.StatField
		v sql.NullFloat64
	}{
		{model.StatPts, own.Pts},
		{model.StatOppPts, opp.Pts},
		{model.StatFgPct, own.FgPct},
		{model.StatFtPct, own.FtPct},
		{model.StatFg3Pct, own.Fg3Pct},
		{model.StatFg3m, own.Fg3m},
		{model.StatOppFg3Pct, opp.Fg3Pct},
		{model.StatAst, own.Ast},
		{model.StatReb, own.Reb},
		{model.StatOreb, own.Oreb},
		{model.StatDreb, own.Dreb},
		{model.StatOppDreb, opp.Dreb},
		{model.StatStl, own.Stl},
		{model.StatBlk, own.Blk},
		{model.StatTov, own.Tov},
		{model.StatPf, own.Pf},
		{model.StatFga, own.Fga},
		{model.StatFta, own.Fta},
	} {
		rec.SetStat(s.f, s.v.Float64)
		rec.Missing[s.f] = !s.v.Valid
	}
	rec.Hustle[model.PtsPaint] = ownH.PtsPaint
	rec.Hustle[model.Pts2ndChance] = ownH.Pts2ndChance
	rec.Hustle[model.PtsFb] = ownH.PtsFb
	rec.Hustle[model.PtsOffTo] = ownH.PtsOffTo
	rec.Hustle[model.OppPtsPaint] = oppH.PtsPaint
	rec.Hustle[model.OppPtsFb] = oppH.PtsFb
	rec.Won = rec.Pts > rec.OppPts
	return rec
}

// Result is the output of NormalizeAll.
type Result struct {
	// Records are sorted by game date, then game id, home side first.
	Records []model.GameRecord

	Accepted   int
	Duplicates int
	Filtered   int
}

// Normalizer filters, deduplicates and splits a batch of game rows.
type Normalizer struct {
	seasonType  string
	minSeasonID int
	onDuplicate func(gameID string)
}

// New creates a Normalizer. Without options every row is kept.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeAll splits every accepted row and returns the records in
// chronological order. The first bad row aborts the batch.
func (n *Normalizer) NormalizeAll(ctx context.Context, rows []model.GameRow) (Result, error) {
	seen := dedupe.NewInMemoryDeduper()
	res := Result{Records: make([]model.GameRecord, 0, 2*len(rows))}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if !n.accepts(row) {
			res.Filtered++
			continue
		}
		if seen.SeenAndRecord(ctx, row.GameID) {
			res.Duplicates++
			if n.onDuplicate != nil {
				n.onDuplicate(row.GameID)
			}
			continue
		}
		pair, err := Split(row)
		if err != nil {
			return Result{}, err
		}
		res.Records = append(res.Records, pair[0], pair[1])
		res.Accepted++
	}

	sort.SliceStable(res.Records, func(i, j int) bool {
		a, b := res.Records[i], res.Records[j]
		if !a.GameDate.Equal(b.GameDate) {
			return a.GameDate.Before(b.GameDate)
		}
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		return a.Home && !b.Home
	})
	return res, nil
}

func (n *Normalizer) accepts(row model.GameRow) bool {
	if n.seasonType != "" && row.SeasonType != n.seasonType {
		return false
	}
	return row.SeasonID >= n.minSeasonID
}
