// Package preferences validates AvailabilityPreferences at the boundary and
// compiles them into the parsed form the builders work with.
package preferences

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/datesync/internal/domain/interval"
	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/internal/domain/types"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := types.ParseClock(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// Compiled is a validated preference set with parsed clock values.
type Compiled struct {
	Days         map[time.Weekday]bool // empty means every day is acceptable
	WindowStart  types.ClockTime
	WindowEnd    types.ClockTime
	MinimumSlot  time.Duration
	ExcludeWork  bool
	WorkStart    types.ClockTime
	WorkEnd      types.ClockTime
	BufferBefore time.Duration
	BufferAfter  time.Duration
}

// Validate checks p and returns a *model.ValidationError for the first
// offending field. Values are never coerced.
func Validate(p model.AvailabilityPreferences) error {
	_, err := Compile(p)
	return err
}

// ValidateStruct runs the shared validator over any tagged boundary struct
// and reports the first failure as a *model.ValidationError.
func ValidateStruct(v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		return toValidationError(err)
	}
	return nil
}

// Compile validates p and parses it.
func Compile(p model.AvailabilityPreferences) (Compiled, error) {
	if err := validatorInstance().Struct(p); err != nil {
		return Compiled{}, toValidationError(err)
	}

	c := Compiled{
		Days:         make(map[time.Weekday]bool, len(p.PreferredDays)),
		WindowStart:  0,
		WindowEnd:    types.EndOfDay,
		MinimumSlot:  time.Duration(p.MinimumSlotMinutes) * time.Minute,
		ExcludeWork:  p.ExcludeWorkHours,
		BufferBefore: time.Duration(p.BufferBeforeMinutes) * time.Minute,
		BufferAfter:  time.Duration(p.BufferAfterMinutes) * time.Minute,
	}
	for _, d := range p.PreferredDays {
		c.Days[d] = true
	}

	if p.PreferredTimeStart != "" {
		// Format already checked by the hhmm tag.
		c.WindowStart, _ = types.ParseClock(p.PreferredTimeStart)
		c.WindowEnd, _ = types.ParseClock(p.PreferredTimeEnd)
		if c.WindowEnd <= c.WindowStart {
			return Compiled{}, &model.ValidationError{Field: "preferredTimeEnd", Reason: "must be after preferredTimeStart"}
		}
	}
	if p.ExcludeWorkHours {
		c.WorkStart, _ = types.ParseClock(p.WorkHoursStart)
		c.WorkEnd, _ = types.ParseClock(p.WorkHoursEnd)
		if c.WorkEnd <= c.WorkStart {
			return Compiled{}, &model.ValidationError{Field: "workHoursEnd", Reason: "must be after workHoursStart"}
		}
	}
	return c, nil
}

// DayMatches reports whether d is one of the preferred days.
func (c Compiled) DayMatches(d time.Weekday) bool {
	return len(c.Days) == 0 || c.Days[d]
}

// WindowContains reports whether [start, end) lies inside the preferred
// time-of-day window of start's calendar day.
func (c Compiled) WindowContains(start, end time.Time) bool {
	window := interval.New(c.WindowStart.On(start), c.WindowEnd.On(start))
	return window.Contains(interval.New(start, end))
}

// Matches reports whether a slot satisfies both the day and time-of-day preference.
func (c Compiled) Matches(start, end time.Time) bool {
	return c.DayMatches(start.Weekday()) && c.WindowContains(start, end)
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &model.ValidationError{Field: "preferences", Reason: err.Error()}
	}
	fe := verrs[0]
	field := fe.Field()
	if i := strings.Index(fe.Namespace(), "."); i >= 0 {
		field = fe.Namespace()[i+1:]
	}
	return &model.ValidationError{Field: field, Reason: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "hhmm":
		return fmt.Sprintf("%q is not a valid HH:mm time", fe.Value())
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "required", "required_with", "required_if":
		return "is required"
	case "url":
		return "must be an absolute URL"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
