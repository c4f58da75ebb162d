package mutual

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/internal/domain/types"
)

// 2025-03-07 is a Friday.
var friday = time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

func slot(day time.Time, from, to float64) model.TimeSlot {
	return model.TimeSlot{
		Start: day.Add(time.Duration(from * float64(time.Hour))),
		End:   day.Add(time.Duration(to * float64(time.Hour))),
	}
}

func window(day time.Time, slots ...model.TimeSlot) model.AvailabilityWindow {
	return model.AvailabilityWindow{Date: day, DayOfWeek: day.Weekday(), Slots: slots, IsWeekend: types.IsWeekend(day.Weekday())}
}

func prefs(days []time.Weekday, from, to string, minimum int) model.AvailabilityPreferences {
	return model.AvailabilityPreferences{PreferredDays: days, PreferredTimeStart: from, PreferredTimeEnd: to, MinimumSlotMinutes: minimum}
}

func user(id string, p model.AvailabilityPreferences, ws ...model.AvailabilityWindow) model.UserAvailability {
	return model.UserAvailability{UserID: id, Preferences: p, Windows: ws}
}

func TestIntersect(t *testing.T) {
	Convey("Given two users' free windows", t, func() {
		fridays := []time.Weekday{time.Friday}
		saturdays := []time.Weekday{time.Saturday}

		Convey("a slot preferred by one side only is good", func() {
			a := user("a", prefs(fridays, "18:00", "23:00", 60), window(friday, slot(friday, 18, 23)))
			b := user("b", prefs(saturdays, "18:00", "23:00", 60), window(friday, slot(friday, 19, 21)))

			got, err := Intersect(a, b)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].Slots, ShouldHaveLength, 1)
			s := got[0].Slots[0]
			So(s.Start, ShouldEqual, friday.Add(19*time.Hour))
			So(s.End, ShouldEqual, friday.Add(21*time.Hour))
			So(s.Quality, ShouldEqual, types.QualityGood)
			So(s.MatchesPreferences, ShouldResemble, model.PreferenceMatch{User1: true, User2: false})
			So(got[0].IsIdeal, ShouldBeFalse)
			So(got[0].DayOfWeek, ShouldEqual, time.Friday)
		})

		Convey("an overlap shorter than the stricter minimum produces no entry", func() {
			a := user("a", prefs(fridays, "18:00", "23:00", 60), window(friday, slot(friday, 18, 20)))
			b := user("b", prefs(fridays, "18:00", "23:00", 120), window(friday, slot(friday, 19, 23)))

			got, err := Intersect(a, b)
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("identical windows preferred by both are ideal", func() {
			p := prefs(fridays, "18:00", "23:00", 60)
			a := user("a", p, window(friday, slot(friday, 18, 23)))
			b := user("b", p, window(friday, slot(friday, 18, 23)))

			got, err := Intersect(a, b)
			So(err, ShouldBeNil)
			So(got[0].Slots[0].Quality, ShouldEqual, types.QualityIdeal)
			So(got[0].Slots[0].DurationMinutes(), ShouldEqual, 300)
			So(got[0].IsIdeal, ShouldBeTrue)
		})

		Convey("a slot neither side prefers is possible", func() {
			p := prefs([]time.Weekday{time.Monday}, "", "", 60)
			a := user("a", p, window(friday, slot(friday, 10, 12)))
			b := user("b", p, window(friday, slot(friday, 10, 12)))

			got, err := Intersect(a, b)
			So(err, ShouldBeNil)
			So(got[0].Slots[0].Quality, ShouldEqual, types.QualityPossible)
			So(got[0].IsIdeal, ShouldBeFalse)
		})

		Convey("dates known to only one side are omitted", func() {
			sat := friday.AddDate(0, 0, 1)
			p := model.DefaultPreferences()
			a := user("a", p, window(friday, slot(friday, 9, 12)), window(sat, slot(sat, 9, 12)))
			b := user("b", p, window(sat, slot(sat, 10, 12)))

			got, err := Intersect(a, b)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].Date, ShouldEqual, sat)
		})

		Convey("unsorted slots are handled and touching results merged", func() {
			p := model.DefaultPreferences()
			a := user("a", p, window(friday, slot(friday, 20, 22), slot(friday, 8, 10), slot(friday, 18, 20)))
			b := user("b", p, window(friday, slot(friday, 19, 21), slot(friday, 9, 9.5)))

			got, err := Intersect(a, b)
			So(err, ShouldBeNil)
			So(got[0].Slots, ShouldHaveLength, 1)
			So(got[0].Slots[0].Start, ShouldEqual, friday.Add(19*time.Hour))
			So(got[0].Slots[0].End, ShouldEqual, friday.Add(21*time.Hour))
		})

		Convey("results are ordered by date and contained in both sides", func() {
			sat, sun := friday.AddDate(0, 0, 1), friday.AddDate(0, 0, 2)
			p := model.DefaultPreferences()
			a := user("a", p,
				window(sun, slot(sun, 12, 18)),
				window(friday, slot(friday, 7, 9), slot(friday, 17, 23)),
				window(sat, slot(sat, 0, 24)),
			)
			b := user("b", p,
				window(friday, slot(friday, 6, 8.5), slot(friday, 18, 20)),
				window(sat, slot(sat, 10, 11), slot(sat, 15, 19)),
				window(sun, slot(sun, 11, 13)),
			)

			got, err := Intersect(a, b)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 3)
			So(got[0].Date.Before(got[1].Date), ShouldBeTrue)
			So(got[1].Date.Before(got[2].Date), ShouldBeTrue)

			within := func(s model.MutualTimeSlot, ws []model.AvailabilityWindow) bool {
				for _, w := range ws {
					for _, f := range w.Slots {
						if !s.Start.Before(f.Start) && !s.End.After(f.End) {
							return true
						}
					}
				}
				return false
			}
			for _, day := range got {
				for _, s := range day.Slots {
					So(within(s, a.Windows), ShouldBeTrue)
					So(within(s, b.Windows), ShouldBeTrue)
				}
			}
		})

		Convey("invalid preferences are a validation error", func() {
			bad := prefs(nil, "", "", 0)
			_, err := Intersect(user("a", bad), user("b", model.DefaultPreferences()))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}
