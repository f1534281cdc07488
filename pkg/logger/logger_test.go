package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When Init is called", func() {
			So(Init(), ShouldBeNil)
			defer func() { So(Sync(), ShouldBeNil) }()

			Convey("Then Get returns a logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
			})
		})

		Convey("When Init is called with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Named("batch").Info(ctx, "run finished",
				String("k", "v"), Int("n", 3), Bool("ok", true),
				Duration("took", time.Second), Error(errors.New("boom")))

			Convey("Then the fields and component appear", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "run finished")
				So(out, ShouldContainSubstring, "component=batch")
				So(out, ShouldContainSubstring, "k=v")
				So(out, ShouldContainSubstring, "n=3")
				So(out, ShouldContainSubstring, "error=boom")
				So(out, ShouldContainSubstring, "source=")
			})
		})

		Convey("When debug is below the level", func() {
			Get().Debug(ctx, "hidden")
			So(buf.String(), ShouldBeEmpty)

			SetLevel(slog.LevelDebug)
			Get().Debug(ctx, "shown")
			So(buf.String(), ShouldContainSubstring, "shown")
		})

		Convey("When switching to json", func() {
			So(SetFormat(FormatJSON), ShouldBeNil)
			Get().Warn(ctx, "json line", Float64("score", 0.5))

			Convey("Then each line decodes", func() {
				line := strings.TrimSpace(buf.String())
				var rec map[string]any
				So(json.Unmarshal([]byte(line), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "json line")
				So(rec["score"], ShouldEqual, 0.5)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		So(Init(), ShouldBeNil)
		for _, lvl := range []string{"debug", "info", "", "WARN", "warning", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}
