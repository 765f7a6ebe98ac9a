package scaler_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/titlerace/internal/domain/features"
	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/scaler"
	. "github.com/smartystreets/goconvey/convey"
)

// vec builds a vector whose feature i is base*(i+1), except wins which is constant.
func vec(base float64) features.Vector {
	m := make(map[string]float64, features.Count)
	for i, n := range features.Names() {
		m[n] = base * float64(i+1)
	}
	m["wins"] = 41
	v, err := features.Bind(m)
	if err != nil {
		panic(err)
	}
	return v
}

func TestFit(t *testing.T) {
	Convey("Given a population of three vectors", t, func() {
		pop := []features.Vector{vec(1), vec(2), vec(3)}

		Convey("When fitting the scaler", func() {
			fitted, err := scaler.Fit(pop)
			So(err, ShouldBeNil)

			Convey("Then means and population std should be per feature", func() {
				p := fitted.Params(features.WinPct)
				So(p.Mean, ShouldAlmostEqual, 4, 1e-9)
				So(p.Std, ShouldAlmostEqual, 2*math.Sqrt(2.0/3), 1e-9)
			})

			Convey("Then a zero-variance feature should get std 1 and be reported", func() {
				So(fitted.Params(features.Wins).Std, ShouldEqual, 1)
				So(fitted.Degenerate(), ShouldResemble, []features.Feature{features.Wins})
			})

			Convey("Then transform should standardize", func() {
				s := fitted.Transform(vec(2))
				So(s.At(features.WinPct), ShouldAlmostEqual, 0, 1e-9)
				So(s.At(features.Wins), ShouldEqual, 0)
				So(s.Values(), ShouldHaveLength, features.Count)
				So(s.Map(), ShouldContainKey, "paint_pct")
			})

			Convey("Then inverse should recover the original vector", func() {
				orig := vec(3)
				back := fitted.Inverse(fitted.Transform(orig))
				want := orig.Values()
				for i, x := range back.Values() {
					So(x, ShouldAlmostEqual, want[i], 1e-9)
				}
			})

			Convey("Then later transforms should reuse the same statistics", func() {
				before := fitted.Params(features.Ppg)
				_ = fitted.Transform(vec(100))
				So(fitted.Params(features.Ppg), ShouldResemble, before)
			})
		})
	})

	Convey("Given an empty population", t, func() {
		_, err := scaler.Fit(nil)

		Convey("Then fitting should be a data error", func() {
			So(errors.Is(err, model.ErrData), ShouldBeTrue)
		})
	})
}

func TestPersistence(t *testing.T) {
	Convey("Given a fitted scaler saved to disk", t, func() {
		fitted, err := scaler.Fit([]features.Vector{vec(1), vec(5)})
		So(err, ShouldBeNil)
		path := filepath.Join(t.TempDir(), "nested", "scaler.json")
		So(fitted.Save(path), ShouldBeNil)

		Convey("When loading it back", func() {
			loaded, err := scaler.Load(path)

			Convey("Then it should transform identically", func() {
				So(err, ShouldBeNil)
				a := fitted.Transform(vec(3)).Values()
				b := loaded.Transform(vec(3)).Values()
				So(b, ShouldResemble, a)
				So(loaded.Params(features.Wins).Std, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a scaler file missing a feature", t, func() {
		fitted, _ := scaler.Fit([]features.Vector{vec(1), vec(2)})
		file := fitted.ToFile()
		delete(file, "momentum")

		Convey("Then binding should fail with a feature order mismatch", func() {
			_, err := scaler.FromParams(file)
			So(errors.Is(err, features.ErrFeatureOrderMismatch), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "momentum")
		})
	})

	Convey("Given a corrupt scaler file", t, func() {
		path := filepath.Join(t.TempDir(), "scaler.json")
		So(os.WriteFile(path, []byte("{not json"), 0o644), ShouldBeNil)

		Convey("Then loading should fail", func() {
			_, err := scaler.Load(path)
			So(err, ShouldNotBeNil)
		})
	})
}
