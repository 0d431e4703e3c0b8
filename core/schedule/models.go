// Package schedule manages the engineers and the weekly time slots they hold sessions at.
package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

// Weekdays in display order.
var Weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

type Engineer struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
	Times     []TimeSlot `json:"times"`
}

type TimeSlot struct {
	ID         string    `json:"id"`
	EngineerID string    `json:"engineer_id"`
	Day        string    `json:"day"`
	Time       string    `json:"time"` // HH:MM, 24-hour
	Place      string    `json:"place"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// ParseDay returns the canonical name of a weekday, matched case-insensitively.
func ParseDay(s string) (string, bool) {
	s = core.CleanString(s)
	for _, day := range Weekdays {
		if strings.EqualFold(s, day) {
			return day, true
		}
	}
	return s, false
}

func dayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return len(Weekdays)
}

// SortSlots orders slots by weekday, then time.
func SortSlots(slots []TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if di, dj := dayIndex(slots[i].Day), dayIndex(slots[j].Day); di != dj {
			return di < dj
		}
		return slots[i].Time < slots[j].Time
	})
}

type NewTimeSlot struct {
	Day   string `json:"day" validate:"required,weekday_"`
	Time  string `json:"time" validate:"required,clock_"`
	Place string `json:"place" validate:"required"`
}

func (nts *NewTimeSlot) clean() {
	nts.Day, _ = ParseDay(nts.Day)
	nts.Time = core.CleanString(nts.Time)
	nts.Place = core.CleanString(nts.Place)
}

func (nts *NewTimeSlot) Validate(validate *validator.Validate) error {
	nts.clean()
	return validate.Struct(nts)
}

// NewEngineer registers an engineer, optionally with its first time slots.
type NewEngineer struct {
	Name  string        `json:"name" validate:"required"`
	Times []NewTimeSlot `json:"times" validate:"dive"`
}

func (ne *NewEngineer) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	for i := range ne.Times {
		ne.Times[i].clean()
	}
	return validate.Struct(ne)
}

type UpdateEngineer struct {
	Name *string `json:"name" validate:"omitempty,notblank_"`
}

func (ue *UpdateEngineer) Validate(validate *validator.Validate) error {
	if ue.Name != nil {
		*ue.Name = core.CleanString(*ue.Name)
	}
	return validate.Struct(ue)
}

// UpdateTimeSlot modifies a TimeSlot. Nil fields are left unchanged.
type UpdateTimeSlot struct {
	Day   *string `json:"day" validate:"omitempty,weekday_"`
	Time  *string `json:"time" validate:"omitempty,clock_"`
	Place *string `json:"place" validate:"omitempty,notblank_"`
}

func (uts *UpdateTimeSlot) Validate(validate *validator.Validate) error {
	if uts.Day != nil {
		*uts.Day, _ = ParseDay(*uts.Day)
	}
	if uts.Time != nil {
		*uts.Time = core.CleanString(*uts.Time)
	}
	if uts.Place != nil {
		*uts.Place = core.CleanString(*uts.Place)
	}
	return validate.Struct(uts)
}

func (uts UpdateTimeSlot) apply(ts *TimeSlot) {
	if uts.Day != nil {
		ts.Day = *uts.Day
	}
	if uts.Time != nil {
		ts.Time = *uts.Time
	}
	if uts.Place != nil {
		ts.Place = *uts.Place
	}
}
