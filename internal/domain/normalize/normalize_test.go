package normalize_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func pts(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func row(id string, season int, day int, home, away string, homePts, awayPts float64) model.GameRow {
	return model.GameRow{
		GameID:     id,
		SeasonID:   season,
		SeasonType: "Regular Season",
		GameDate:   time.Date(2010, time.November, day, 0, 0, 0, 0, time.UTC),
		Home:       model.SideStats{TeamID: home, Pts: pts(homePts), Fg3Pct: pts(0.36), Dreb: pts(33), Fga: pts(84)},
		Away:       model.SideStats{TeamID: away, Pts: pts(awayPts), Fg3Pct: pts(0.31), Dreb: pts(30), Fga: pts(88)},
	}
}

func TestSplit(t *testing.T) {
	Convey("Given a game with hustle stats on both sides", t, func() {
		r := row("g1", 22010, 2, "LAL", "BOS", 101, 96)
		r.HomeHustle = model.HustleLine{PtsPaint: pts(44), PtsFb: pts(12), PtsOffTo: pts(15), Pts2ndChance: pts(9)}
		r.AwayHustle = model.HustleLine{PtsPaint: pts(38), PtsFb: pts(8)}

		Convey("When splitting it", func() {
			pair, err := normalize.Split(r)
			So(err, ShouldBeNil)
			home, away := pair[0], pair[1]

			Convey("Then the home record should carry the away side as opponent", func() {
				So(home.TeamID, ShouldEqual, "LAL")
				So(home.OpponentID, ShouldEqual, "BOS")
				So(home.Home, ShouldBeTrue)
				So(home.Pts, ShouldEqual, 101)
				So(home.OppPts, ShouldEqual, 96)
				So(home.OppFg3Pct, ShouldEqual, 0.31)
				So(home.OppDreb, ShouldEqual, 30)
				So(home.Hustle[model.OppPtsPaint].Float64, ShouldEqual, 38)
				So(home.Hustle[model.OppPtsFb].Float64, ShouldEqual, 8)
				So(home.Won, ShouldBeTrue)
			})

			Convey("Then the away record should mirror it", func() {
				So(away.TeamID, ShouldEqual, "BOS")
				So(away.Home, ShouldBeFalse)
				So(away.Pts, ShouldEqual, 96)
				So(away.OppPts, ShouldEqual, 101)
				So(away.Hustle[model.PtsPaint].Float64, ShouldEqual, 38)
				So(away.Hustle[model.Pts2ndChance].Valid, ShouldBeFalse)
				So(away.Hustle[model.OppPtsPaint].Float64, ShouldEqual, 44)
				So(away.Won, ShouldBeFalse)
			})

			Convey("Then null stats should be marked missing on the right side", func() {
				So(home.Has(model.StatFga), ShouldBeTrue)
				So(home.Fga, ShouldEqual, 84)
				So(home.Has(model.StatAst), ShouldBeFalse)
				So(home.Has(model.StatOppDreb), ShouldBeTrue)
				So(away.Has(model.StatOppFg3Pct), ShouldBeTrue)
				So(away.OppFg3Pct, ShouldEqual, 0.36)
			})
		})
	})

	Convey("Given a game whose away three-point percentage is null", t, func() {
		r := row("g5", 22010, 4, "LAL", "BOS", 101, 96)
		r.Away.Fg3Pct = sql.NullFloat64{}

		Convey("Then the away record misses fg3_pct and the home record its opponent's", func() {
			pair, err := normalize.Split(r)
			So(err, ShouldBeNil)
			So(pair[1].Has(model.StatFg3Pct), ShouldBeFalse)
			So(pair[0].Has(model.StatOppFg3Pct), ShouldBeFalse)
			So(pair[0].Has(model.StatFg3Pct), ShouldBeTrue)
		})
	})

	Convey("Given rows missing required fields", t, func() {
		noScore := row("g2", 22010, 3, "LAL", "BOS", 0, 90)
		noScore.Home.Pts = sql.NullFloat64{}
		noTeam := row("g3", 22010, 3, "", "BOS", 100, 90)
		noDate := row("g4", 22010, 3, "LAL", "BOS", 100, 90)
		noDate.GameDate = time.Time{}
		noID := row("", 22010, 3, "LAL", "BOS", 100, 90)

		Convey("Then each should fail with a data error", func() {
			for _, r := range []model.GameRow{noScore, noTeam, noDate, noID} {
				_, err := normalize.Split(r)
				So(errors.Is(err, model.ErrData), ShouldBeTrue)
			}
		})
	})
}

func TestNormalizeAll(t *testing.T) {
	ctx := context.Background()

	Convey("Given an unordered batch with a duplicate and foreign rows", t, func() {
		playoff := row("p1", 22010, 1, "LAL", "BOS", 90, 80)
		playoff.SeasonType = "Playoffs"
		rows := []model.GameRow{
			row("g3", 22010, 5, "MIA", "LAL", 99, 100),
			row("g1", 22010, 2, "LAL", "BOS", 101, 96),
			row("g2", 22010, 2, "BOS", "MIA", 88, 90),
			row("g1", 22010, 2, "LAL", "BOS", 101, 96),
			row("old", 22002, 1, "LAL", "BOS", 90, 80),
			playoff,
		}

		var dupes []string
		n := normalize.New(
			normalize.WithSeasonType("Regular Season"),
			normalize.WithMinSeasonID(22003),
			normalize.WithDuplicateHook(func(id string) { dupes = append(dupes, id) }),
		)

		Convey("When normalizing the batch", func() {
			res, err := n.NormalizeAll(ctx, rows)
			So(err, ShouldBeNil)

			Convey("Then counts should reflect filtering and deduplication", func() {
				So(res.Accepted, ShouldEqual, 3)
				So(res.Duplicates, ShouldEqual, 1)
				So(res.Filtered, ShouldEqual, 2)
				So(dupes, ShouldResemble, []string{"g1"})
				So(res.Records, ShouldHaveLength, 6)
			})

			Convey("Then records should be chronological with home first", func() {
				ids := make([]string, 0, len(res.Records))
				for _, r := range res.Records {
					ids = append(ids, r.GameID+":"+r.TeamID)
				}
				So(ids, ShouldResemble, []string{
					"g1:LAL", "g1:BOS",
					"g2:BOS", "g2:MIA",
					"g3:MIA", "g3:LAL",
				})
			})
		})
	})

	Convey("Given a repeated game far apart in a long batch", t, func() {
		rows := make([]model.GameRow, 0, 2002)
		for i := 0; i < 2000; i++ {
			rows = append(rows, row(fmt.Sprintf("g%04d", i), 22010, 1+i%28, "LAL", "BOS", 101, 96))
		}
		rows = append(rows, row("g0000", 22010, 1, "LAL", "BOS", 101, 96))

		Convey("Then the repeat should still be dropped", func() {
			res, err := normalize.New().NormalizeAll(ctx, rows)
			So(err, ShouldBeNil)
			So(res.Accepted, ShouldEqual, 2000)
			So(res.Duplicates, ShouldEqual, 1)
			So(res.Records, ShouldHaveLength, 4000)
		})
	})

	Convey("Given a batch containing a row without a score", t, func() {
		bad := row("g9", 22010, 4, "LAL", "BOS", 0, 0)
		bad.Away.Pts = sql.NullFloat64{}
		rows := []model.GameRow{row("g1", 22010, 2, "LAL", "BOS", 101, 96), bad}

		Convey("Then the batch should be rejected", func() {
			res, err := normalize.New().NormalizeAll(ctx, rows)
			So(errors.Is(err, model.ErrData), ShouldBeTrue)
			So(res.Records, ShouldBeNil)
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		Convey("Then normalization should stop", func() {
			_, err := normalize.New().NormalizeAll(cctx, []model.GameRow{row("g1", 22010, 2, "LAL", "BOS", 1, 0)})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
