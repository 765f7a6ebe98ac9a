package model_test

import (
	"testing"

	model "github.com/okian/titlerace/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestBoxScore(t *testing.T) {
	convey.Convey("Given a box score", t, func() {
		b := model.BoxScore{Pts: 100, OppPts: 90, Tov: 12, Fga: 85}

		convey.Convey("Then Stat should read fields by index", func() {
			convey.So(b.Stat(model.StatPts), convey.ShouldEqual, 100)
			convey.So(b.Stat(model.StatOppPts), convey.ShouldEqual, 90)
			convey.So(b.Stat(model.StatTov), convey.ShouldEqual, 12)
			convey.So(b.Stat(model.StatAst), convey.ShouldEqual, 0)
			convey.So(b.Stat(model.NumStatFields), convey.ShouldEqual, 0)
		})

		convey.Convey("Then SetStat should write only the named field", func() {
			b.SetStat(model.StatFg3Pct, 0.37)
			b.SetStat(model.NumStatFields, 1)
			convey.So(b.Fg3Pct, convey.ShouldEqual, 0.37)
			convey.So(b.Pts, convey.ShouldEqual, 100)
		})

		convey.Convey("Then every field should round-trip through its index", func() {
			var c model.BoxScore
			for f := model.StatField(0); f < model.NumStatFields; f++ {
				c.SetStat(f, float64(f)+1)
			}
			for f := model.StatField(0); f < model.NumStatFields; f++ {
				convey.So(c.Stat(f), convey.ShouldEqual, float64(f)+1)
			}
			convey.So(c.Fta, convey.ShouldEqual, float64(model.StatFta)+1)
		})
	})
}

func TestStatField(t *testing.T) {
	convey.Convey("Given the box-score field indexes", t, func() {
		convey.Convey("Then each should render its column name", func() {
			convey.So(model.StatFg3Pct.String(), convey.ShouldEqual, "fg3_pct")
			convey.So(model.StatOppDreb.String(), convey.ShouldEqual, "opp_dreb")
			convey.So(model.NumStatFields.String(), convey.ShouldEqual, "unknown")
		})

		convey.Convey("Then a record should report the fields it is missing", func() {
			var r model.GameRecord
			r.Missing[model.StatOreb] = true
			convey.So(r.Has(model.StatOreb), convey.ShouldBeFalse)
			convey.So(r.Has(model.StatDreb), convey.ShouldBeTrue)
			convey.So(r.Has(model.NumStatFields), convey.ShouldBeFalse)
		})
	})
}

func TestHustleField(t *testing.T) {
	convey.Convey("Given the hustle field indexes", t, func() {
		convey.Convey("Then each should render its column name", func() {
			convey.So(model.PtsPaint.String(), convey.ShouldEqual, "pts_paint")
			convey.So(model.Pts2ndChance.String(), convey.ShouldEqual, "pts_2nd_chance")
			convey.So(model.OppPtsFb.String(), convey.ShouldEqual, "opp_pts_fb")
			convey.So(model.NumHustleFields.String(), convey.ShouldEqual, "unknown")
		})
	})
}

func TestTeamSeasonKey(t *testing.T) {
	convey.Convey("Given team-season keys", t, func() {
		early := model.TeamSeasonKey{SeasonID: 22003, TeamID: "B"}
		sameSeason := model.TeamSeasonKey{SeasonID: 22003, TeamID: "C"}
		late := model.TeamSeasonKey{SeasonID: 22004, TeamID: "A"}

		convey.Convey("Then they should order by season then team", func() {
			convey.So(early.Less(late), convey.ShouldBeTrue)
			convey.So(early.Less(sameSeason), convey.ShouldBeTrue)
			convey.So(late.Less(early), convey.ShouldBeFalse)
			convey.So(early.Less(early), convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given a game record", t, func() {
		rec := model.GameRecord{SeasonID: 22010, TeamID: "1610612747", BoxScore: model.BoxScore{Pts: 101, OppPts: 99}}

		convey.Convey("Then its key and margin should follow its fields", func() {
			convey.So(rec.Key(), convey.ShouldResemble, model.TeamSeasonKey{SeasonID: 22010, TeamID: "1610612747"})
			convey.So(rec.PointDiff(), convey.ShouldEqual, 2)
		})
	})
}

func TestTeamSeasonAggregate(t *testing.T) {
	convey.Convey("Given an aggregate with an imputed field", t, func() {
		agg := &model.TeamSeasonAggregate{Imputed: []model.HustleField{model.PtsFb}}

		convey.Convey("Then only that field should report imputed", func() {
			convey.So(agg.IsImputed(model.PtsFb), convey.ShouldBeTrue)
			convey.So(agg.IsImputed(model.PtsPaint), convey.ShouldBeFalse)
		})
	})
}

func TestSeasonYear(t *testing.T) {
	convey.Convey("Given season identifiers", t, func() {
		convey.Convey("Then source ids should map to years and years pass through", func() {
			convey.So(model.SeasonYear(22003), convey.ShouldEqual, 2003)
			convey.So(model.SeasonYear(22022), convey.ShouldEqual, 2022)
			convey.So(model.SeasonYear(2015), convey.ShouldEqual, 2015)
		})
	})
}
