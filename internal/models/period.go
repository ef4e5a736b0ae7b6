package models

import (
	"fmt"
	"math"
	"time"

	"github.com/noah-isme/timetable-balancer/internal/timetable"
)

const (
	// MinPeriodWeeks and MaxPeriodWeeks bound the teaching weeks of a period.
	MinPeriodWeeks = 3
	MaxPeriodWeeks = 24
)

// Period is a teaching term whose weeks the balancer distributes meetings over.
type Period struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Start returns the Monday of the first week.
func (p Period) Start() time.Time {
	return timetable.MondayOf(p.StartDate)
}

// End returns the Saturday of the last week.
func (p Period) End() time.Time {
	end := timetable.DateOnly(p.EndDate)
	return end.AddDate(0, 0, 5-timetable.WeekdayIndex(end))
}

// NumberOfWeeks counts the weeks between Start and End.
func (p Period) NumberOfWeeks() int {
	days := p.End().Sub(p.Start()).Hours()/24 + 2
	return int(math.Ceil(days / 7))
}

// NumberOfWeeksExcludingUnavailable counts the period weeks whose teaching days
// are not all covered by blackout ranges, matching the weeks the calendar schedules.
func (p Period) NumberOfWeeksExcludingUnavailable(blackouts []WeekNotAvailable) int {
	cal := p.Calendar(nil, blackouts)
	usable := 0
	for k := 0; k < p.NumberOfWeeks(); k++ {
		if !cal.WeekClosed(cal.Monday().AddDate(0, 0, 7*k)) {
			usable++
		}
	}
	return usable
}

// Validate checks ordering, Sunday boundaries and the week range.
func (p Period) Validate() error {
	start, end := timetable.DateOnly(p.StartDate), timetable.DateOnly(p.EndDate)
	if !start.Before(end) {
		return fmt.Errorf("start date must be before end date")
	}
	if start.Weekday() == time.Sunday || end.Weekday() == time.Sunday {
		return fmt.Errorf("period cannot start or end on a Sunday")
	}
	weeks := p.NumberOfWeeks()
	if weeks < MinPeriodWeeks || weeks > MaxPeriodWeeks {
		return fmt.Errorf("period spans %d weeks, expected between %d and %d", weeks, MinPeriodWeeks, MaxPeriodWeeks)
	}
	return nil
}

// DayNotAvailable is a single closed date within a period.
type DayNotAvailable struct {
	ID        string    `db:"id" json:"id"`
	PeriodID  string    `db:"period_id" json:"period_id"`
	Day       time.Time `db:"day" json:"day"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WeekNotAvailable is a closed date range. Weeks it covers from Monday to Friday are
// skipped; the covered weekdays of other weeks are closed.
type WeekNotAvailable struct {
	ID        string    `db:"id" json:"id"`
	PeriodID  string    `db:"period_id" json:"period_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Calendar builds the engine calendar for the period and its blackouts.
func (p Period) Calendar(days []DayNotAvailable, weeks []WeekNotAvailable) timetable.Calendar {
	cal := timetable.Calendar{Start: p.Start()}
	for _, d := range days {
		cal.BlackoutDays = append(cal.BlackoutDays, d.Day)
	}
	for _, w := range weeks {
		cal.BlackoutWeeks = append(cal.BlackoutWeeks, timetable.DateRange{Start: w.StartDate, End: w.EndDate})
	}
	return cal
}
