package preferences

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/internal/domain/types"
)

func fieldOf(err error) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}

func TestCompile(t *testing.T) {
	Convey("Given valid preferences", t, func() {
		p := model.AvailabilityPreferences{
			PreferredDays:       []time.Weekday{time.Friday, time.Saturday},
			PreferredTimeStart:  "18:00",
			PreferredTimeEnd:    "23:00",
			MinimumSlotMinutes:  90,
			ExcludeWorkHours:    true,
			WorkHoursStart:      "09:00",
			WorkHoursEnd:        "17:30",
			BufferBeforeMinutes: 15,
			BufferAfterMinutes:  30,
		}

		Convey("Compile parses every field", func() {
			c, err := Compile(p)
			So(err, ShouldBeNil)
			So(c.WindowStart.String(), ShouldEqual, "18:00")
			So(c.WindowEnd.String(), ShouldEqual, "23:00")
			So(c.WorkEnd.String(), ShouldEqual, "17:30")
			So(c.MinimumSlot, ShouldEqual, 90*time.Minute)
			So(c.BufferBefore, ShouldEqual, 15*time.Minute)
			So(c.BufferAfter, ShouldEqual, 30*time.Minute)
		})

		Convey("Matches checks both the day and the time window", func() {
			c, _ := Compile(p)
			fri := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
			So(c.Matches(fri.Add(19*time.Hour), fri.Add(21*time.Hour)), ShouldBeTrue)
			So(c.Matches(fri.Add(17*time.Hour), fri.Add(19*time.Hour)), ShouldBeFalse)
			So(c.Matches(fri.Add(22*time.Hour), fri.Add(24*time.Hour)), ShouldBeFalse)

			mon := fri.AddDate(0, 0, 3)
			So(c.Matches(mon.Add(19*time.Hour), mon.Add(20*time.Hour)), ShouldBeFalse)
		})
	})

	Convey("Given minimal preferences", t, func() {
		c, err := Compile(model.DefaultPreferences())

		Convey("every day and the whole day match", func() {
			So(err, ShouldBeNil)
			So(c.DayMatches(time.Tuesday), ShouldBeTrue)
			So(c.WindowStart, ShouldEqual, types.ClockTime(0))
			So(c.WindowEnd, ShouldEqual, types.EndOfDay)
			day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
			So(c.Matches(day, day.Add(24*time.Hour)), ShouldBeTrue)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given invalid preferences", t, func() {
		base := model.DefaultPreferences()

		Convey("a non-positive minimum is rejected", func() {
			p := base
			p.MinimumSlotMinutes = 0
			err := Validate(p)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			So(fieldOf(err), ShouldEqual, "minimumSlotMinutes")
		})

		Convey("malformed clock strings are rejected, not coerced", func() {
			p := base
			p.PreferredTimeStart, p.PreferredTimeEnd = "7:00", "23:00"
			err := Validate(p)
			So(fieldOf(err), ShouldEqual, "preferredTimeStart")
			So(err.Error(), ShouldContainSubstring, "HH:mm")
		})

		Convey("a window needs both ends", func() {
			p := base
			p.PreferredTimeStart = "18:00"
			So(fieldOf(Validate(p)), ShouldEqual, "preferredTimeEnd")
		})

		Convey("a window must not be inverted or cross midnight", func() {
			p := base
			p.PreferredTimeStart, p.PreferredTimeEnd = "22:00", "02:00"
			So(fieldOf(Validate(p)), ShouldEqual, "preferredTimeEnd")
		})

		Convey("excluding work hours requires them", func() {
			p := base
			p.ExcludeWorkHours = true
			So(fieldOf(Validate(p)), ShouldEqual, "workHoursStart")

			p.WorkHoursStart, p.WorkHoursEnd = "17:00", "09:00"
			So(fieldOf(Validate(p)), ShouldEqual, "workHoursEnd")
		})

		Convey("negative buffers and bad weekdays are rejected", func() {
			p := base
			p.BufferAfterMinutes = -5
			So(fieldOf(Validate(p)), ShouldEqual, "bufferAfterMinutes")

			p = base
			p.PreferredDays = []time.Weekday{7}
			So(fieldOf(Validate(p)), ShouldEqual, "preferredDays[0]")
		})
	})
}

func TestValidateStruct(t *testing.T) {
	Convey("Given a calendar source", t, func() {
		Convey("a relative URL is rejected", func() {
			err := ValidateStruct(model.CalendarSource{ID: "work", URL: "calendar.ics"})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			So(fieldOf(err), ShouldEqual, "url")
		})

		Convey("a missing id is rejected", func() {
			err := ValidateStruct(model.CalendarSource{URL: "https://example.com/a.ics"})
			So(fieldOf(err), ShouldEqual, "id")
		})

		Convey("a complete source passes", func() {
			So(ValidateStruct(model.CalendarSource{ID: "work", URL: "https://example.com/a.ics"}), ShouldBeNil)
		})
	})
}
