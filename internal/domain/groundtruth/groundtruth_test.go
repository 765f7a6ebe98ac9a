package groundtruth_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/titlerace/internal/domain/groundtruth"
	"github.com/okian/titlerace/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultTable(t *testing.T) {
	Convey("Given the built-in champions table", t, func() {
		tbl := groundtruth.Default()

		Convey("Then lookups should accept season ids and years", func() {
			team, ok := tbl.Champion(22015)
			So(ok, ShouldBeTrue)
			So(team, ShouldEqual, "Golden State Warriors")

			team, ok = tbl.Champion(2011)
			So(ok, ShouldBeTrue)
			So(team, ShouldEqual, "Dallas Mavericks")
		})

		Convey("Then unknown seasons should report no ground truth", func() {
			_, ok := tbl.Champion(22030)
			So(ok, ShouldBeFalse)
		})

		Convey("Then seasons should span 2003 to 2022", func() {
			seasons := tbl.Seasons()
			So(seasons, ShouldHaveLength, 20)
			So(seasons[0], ShouldEqual, 2003)
			So(seasons[19], ShouldEqual, 2022)
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a champions file extending the built-in table", t, func() {
		path := filepath.Join(t.TempDir(), "champions.yaml")
		So(os.WriteFile(path, []byte("champions:\n  2023: \"Denver Nuggets\"\n  22022: \"Golden State Warriors\"\n"), 0o644), ShouldBeNil)
		base := groundtruth.Default()

		Convey("When loading it", func() {
			tbl, err := groundtruth.LoadFile(base, path)
			So(err, ShouldBeNil)

			Convey("Then new seasons should be added and old ones kept", func() {
				team, ok := tbl.Champion(22023)
				So(ok, ShouldBeTrue)
				So(team, ShouldEqual, "Denver Nuggets")
				So(tbl.Seasons(), ShouldHaveLength, 21)

				_, ok = base.Champion(2023)
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a file with an empty team", t, func() {
		path := filepath.Join(t.TempDir(), "champions.yaml")
		So(os.WriteFile(path, []byte("champions:\n  2023: \"\"\n"), 0o644), ShouldBeNil)

		Convey("Then loading should be a data error", func() {
			_, err := groundtruth.LoadFile(groundtruth.Default(), path)
			So(errors.Is(err, model.ErrData), ShouldBeTrue)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := groundtruth.LoadFile(groundtruth.Default(), "/non/existent/champions.yaml")
		So(err, ShouldNotBeNil)
	})

	Convey("Given a table built from season ids", t, func() {
		tbl := groundtruth.New(map[int]string{22010: "Los Angeles Lakers"})

		Convey("Then it should answer by year", func() {
			team, ok := tbl.Champion(2010)
			So(ok, ShouldBeTrue)
			So(team, ShouldEqual, "Los Angeles Lakers")
		})
	})
}
