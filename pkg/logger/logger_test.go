package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, "text"), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()
		ctx := context.Background()

		Convey("When logging at info", func() {
			Get().Info(ctx, "windows built", String("user", "alice"), Int("days", 7))

			Convey("Then fields and caller are rendered", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "windows built")
				So(out, ShouldContainSubstring, "user=alice")
				So(out, ShouldContainSubstring, "days=7")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When debug is below the level", func() {
			Get().Debug(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the level is lowered to debug", func() {
			So(SetLevelString("DEBUG"), ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			Get().Debug(ctx, "visible")

			Convey("Then debug entries are written", func() {
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})

		Convey("When using a named logger with bound fields", func() {
			Named("sync").With(String("source", "work")).Warn(ctx, "retrying", Duration("after", time.Second), Bool("cached", true))

			Convey("Then component and bound fields appear", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "component=sync")
				So(out, ShouldContainSubstring, "source=work")
				So(out, ShouldContainSubstring, "cached=true")
			})
		})

		Convey("When the context carries request fields", func() {
			rctx := ContextWith(ctx, String("request_id", "r-1"))
			rctx = ContextWith(rctx, String("endpoint", "suggestions"))
			Get().Info(rctx, "served")

			Convey("Then every entry logged with it includes them", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "request_id=r-1")
				So(out, ShouldContainSubstring, "endpoint=suggestions")
				So(FieldsFrom(ctx), ShouldBeEmpty)
			})
		})

		Convey("When logging an error field", func() {
			Get().Error(ctx, "failed", Error(errors.New("boom")))

			Convey("Then the error text is included", func() {
				So(buf.String(), ShouldContainSubstring, "error=boom")
			})
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, "json"), ShouldBeNil)

		Get().Info(context.Background(), "ranked", Int("count", 3))

		Convey("Then each line is a JSON object", func() {
			var entry map[string]any
			So(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry), ShouldBeNil)
			So(entry["msg"], ShouldEqual, "ranked")
			So(entry["count"], ShouldEqual, float64(3))
		})
	})

	Convey("Given an unknown format", t, func() {
		So(InitWith(&bytes.Buffer{}, "xml"), ShouldNotBeNil)
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)
		So(SetLevelString("warning"), ShouldBeNil)
		So(SetLevelString("error"), ShouldBeNil)
		So(SetLevelString(""), ShouldBeNil)
		So(SetLevelString("verbose"), ShouldNotBeNil)
	})
}
