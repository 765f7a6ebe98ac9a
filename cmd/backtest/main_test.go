package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestBacktest(t *testing.T) {
	convey.Convey("Given no source configured", t, func() {
		_ = os.Unsetenv("TITLERACE_SOURCE_DSN")
		ctx := context.Background()
		var out bytes.Buffer

		convey.Convey("When the table report is requested", func() {
			err := run(ctx, nil, &out, io.Discard)

			convey.Convey("Then every evaluated season and the summary should be printed", func() {
				convey.So(err, convey.ShouldBeNil)
				s := out.String()
				convey.So(s, convey.ShouldContainSubstring, "SEASON")
				convey.So(s, convey.ShouldContainSubstring, "Toronto Raptors")
				convey.So(s, convey.ShouldContainSubstring, "accuracy 66.7% (2/3)")
				convey.So(s, convey.ShouldContainSubstring, "mean champion rank 2.00")
			})
		})

		convey.Convey("When the JSON report is requested with artifacts", func() {
			dir := t.TempDir()
			err := run(ctx, []string{"-json", "-artifacts", dir}, &out, io.Discard)

			convey.Convey("Then the report should decode and artifacts exist", func() {
				convey.So(err, convey.ShouldBeNil)
				var rep report
				convey.So(json.Unmarshal(out.Bytes(), &rep), convey.ShouldBeNil)
				convey.So(rep.Historical, convey.ShouldHaveLength, 3)
				convey.So(rep.Stats.CorrectPredictions, convey.ShouldEqual, 2)
				_, err := os.Stat(filepath.Join(dir, "metadata.json"))
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When an unknown flag is passed", func() {
			err := run(ctx, []string{"-nope"}, &out, io.Discard)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
