package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWriter(&buf), ShouldBeNil)
		ctx := context.Background()

		Convey("Info records carry fields and the caller", func() {
			Get().Info(ctx, "fetched season", String("competition", "mls"), Int("season", 2022))
			out := buf.String()
			So(out, ShouldContainSubstring, "fetched season")
			So(out, ShouldContainSubstring, "competition=mls")
			So(out, ShouldContainSubstring, "season=2022")
			So(out, ShouldContainSubstring, "logger_test.go")
		})

		Convey("Debug is suppressed at the default level", func() {
			Get().Debug(ctx, "hidden")
			So(buf.String(), ShouldNotContainSubstring, "hidden")

			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(ctx, "visible")
			So(buf.String(), ShouldContainSubstring, "visible")
		})

		Convey("Named and With loggers keep their context", func() {
			Named("zones").With(String("run_id", "r1")).Warn(ctx, "mirror missing", Error(errors.New("boom")))
			out := buf.String()
			So(out, ShouldContainSubstring, "run_id=r1")
			So(out, ShouldContainSubstring, "zones.error=boom")
		})

		Convey("Unknown levels are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "discarded")
	if l.Named("x") == nil {
		t.Fatal("Named returned nil")
	}
}
