package memo

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/datesync/internal/domain/model"
)

var day = time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

func windows(n int) []model.AvailabilityWindow {
	out := make([]model.AvailabilityWindow, n)
	for i := range out {
		d := day.AddDate(0, 0, i)
		out[i] = model.AvailabilityWindow{Date: d, Slots: []model.TimeSlot{{Start: d, End: d.Add(time.Hour)}}}
	}
	return out
}

func TestCache(t *testing.T) {
	Convey("Given a bounded cache", t, func() {
		ctx := context.Background()
		c := NewInMemoryCache(WithMaxSize(2))

		Convey("stored windows come back", func() {
			c.Put(ctx, "k1", windows(2))
			got, ok := c.Get(ctx, "k1")
			So(ok, ShouldBeTrue)
			So(got, ShouldResemble, windows(2))
			So(c.Size(), ShouldEqual, 1)
		})

		Convey("callers cannot mutate cached entries", func() {
			in := windows(1)
			c.Put(ctx, "k1", in)
			in[0].Slots[0].End = day

			got, _ := c.Get(ctx, "k1")
			got[0].Slots = nil

			again, _ := c.Get(ctx, "k1")
			So(again[0].Slots, ShouldHaveLength, 1)
			So(again[0].Slots[0].End, ShouldEqual, day.Add(time.Hour))
		})

		Convey("the oldest entry is evicted first", func() {
			c.Put(ctx, "k1", windows(1))
			c.Put(ctx, "k2", windows(1))
			c.Put(ctx, "k3", windows(1))

			_, ok := c.Get(ctx, "k1")
			So(ok, ShouldBeFalse)
			_, ok = c.Get(ctx, "k3")
			So(ok, ShouldBeTrue)
			So(c.Size(), ShouldEqual, 2)
		})

		Convey("replacing a key does not grow the cache", func() {
			c.Put(ctx, "k1", windows(1))
			c.Put(ctx, "k1", windows(3))
			got, _ := c.Get(ctx, "k1")
			So(got, ShouldHaveLength, 3)
			So(c.Size(), ShouldEqual, 1)
		})

		Convey("removed keys miss", func() {
			c.Put(ctx, "k1", windows(1))
			c.Remove(ctx, "k1")
			c.Remove(ctx, "missing")
			_, ok := c.Get(ctx, "k1")
			So(ok, ShouldBeFalse)
			So(c.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given an unbounded cache", t, func() {
		ctx := context.Background()
		c := NewInMemoryCache(WithMaxSize(0))

		Convey("nothing is evicted", func() {
			for i := 0; i < 100; i++ {
				c.Put(ctx, strconv.Itoa(i), windows(1))
			}
			So(c.Size(), ShouldEqual, 100)
		})
	})

	Convey("Given concurrent writers", t, func() {
		ctx := context.Background()
		c := NewInMemoryCache(WithMaxSize(16))

		Convey("the size never exceeds the bound", func() {
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 50; i++ {
						key := strconv.Itoa(g*1000 + i)
						c.Put(ctx, key, windows(1))
						_, _ = c.Get(ctx, key)
					}
				}(g)
			}
			wg.Wait()
			So(c.Size(), ShouldEqual, 16)
		})
	})
}

func TestKey(t *testing.T) {
	Convey("Given the inputs of a computation", t, func() {
		prefs := model.DefaultPreferences()
		events := []model.CalendarEvent{{ID: "e1", StartDate: day.Add(9 * time.Hour), EndDate: day.Add(10 * time.Hour), IsBusy: true}}
		end := day.AddDate(0, 0, 6)
		key := Key("ana", time.UTC, day, end, prefs, events)

		Convey("the same inputs give the same key", func() {
			So(Key("ana", time.UTC, day, end, prefs, events), ShouldEqual, key)
		})

		Convey("any input change gives a new key", func() {
			So(Key("ben", time.UTC, day, end, prefs, events), ShouldNotEqual, key)
			So(Key("ana", time.UTC, day, end.AddDate(0, 0, 1), prefs, events), ShouldNotEqual, key)

			p := prefs
			p.BufferAfterMinutes = 15
			So(Key("ana", time.UTC, day, end, p, events), ShouldNotEqual, key)

			moved := []model.CalendarEvent{events[0]}
			moved[0].EndDate = moved[0].EndDate.Add(time.Minute)
			So(Key("ana", time.UTC, day, end, prefs, moved), ShouldNotEqual, key)

			free := []model.CalendarEvent{events[0]}
			free[0].IsBusy = false
			So(Key("ana", time.UTC, day, end, prefs, free), ShouldNotEqual, key)
		})

		Convey("titles do not affect the key", func() {
			renamed := []model.CalendarEvent{events[0]}
			renamed[0].Title = "Dentist"
			So(Key("ana", time.UTC, day, end, prefs, renamed), ShouldEqual, key)
		})

		Convey("the range is keyed by calendar day in the given zone", func() {
			ny, err := time.LoadLocation("America/New_York")
			So(err, ShouldBeNil)
			// 22:00 in New York is already the next day in UTC.
			late := time.Date(2025, 3, 7, 22, 0, 0, 0, ny)
			morning := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
			So(Key("ana", time.UTC, late, late, prefs, events), ShouldNotEqual, Key("ana", time.UTC, morning, morning, prefs, events))
			So(Key("ana", ny, late, late, prefs, events), ShouldEqual, Key("ana", ny, morning, morning, prefs, events))

			sameDay := time.Date(2025, 3, 8, 1, 0, 0, 0, time.UTC)
			So(Key("ana", time.UTC, late, late, prefs, events), ShouldEqual, Key("ana", time.UTC, sameDay, sameDay, prefs, events))
		})

		Convey("event fields are hashed with clear boundaries", func() {
			end := time.Unix(0, 1000)
			a := []model.CalendarEvent{{ID: "x1", StartDate: time.Unix(0, 0), EndDate: end, IsBusy: true}}
			b := []model.CalendarEvent{{ID: "x", StartDate: time.Unix(0, 36), EndDate: end, IsBusy: true}}
			So(EventsHash(a), ShouldNotEqual, EventsHash(b))
		})

		Convey("preferred days are part of the hash", func() {
			a, b := prefs, prefs
			a.PreferredDays = []time.Weekday{time.Monday, time.Tuesday}
			b.PreferredDays = []time.Weekday{time.Monday}
			So(PreferencesHash(a), ShouldNotEqual, PreferencesHash(b))
		})
	})
}
