package timetable

import (
	"sort"
	"strings"
	"time"
)

const (
	// WorkDays is the number of teaching weekdays, Monday through Friday.
	WorkDays = 5
	// MaxShiftsPerDay is the largest shift count ShiftsPerDay will propose.
	MaxShiftsPerDay = 6
	// FallbackShiftsPerDay is used when no shift count covers the required hours.
	FallbackShiftsPerDay = 3
)

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Contains reports whether day falls within the range.
func (r DateRange) Contains(day time.Time) bool {
	d := DateOnly(day)
	return !d.Before(DateOnly(r.Start)) && !d.After(DateOnly(r.End))
}

// WeekdayBlackout marks a weekday closed in a given week.
// Week is 1-based and counts only usable weeks; Weekday is 0 for Monday.
type WeekdayBlackout struct {
	Week    int `json:"week"`
	Weekday int `json:"weekday"`
}

// Calendar describes the dates of a period that teaching can use.
type Calendar struct {
	Start         time.Time
	BlackoutDays  []time.Time
	BlackoutWeeks []DateRange
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekdayIndex returns 0 for Monday through 6 for Sunday.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// MondayOf returns the Monday on or before t.
func MondayOf(t time.Time) time.Time {
	d := DateOnly(t)
	return d.AddDate(0, 0, -WeekdayIndex(d))
}

// Monday returns the first day of the calendar's first week.
func (c Calendar) Monday() time.Time {
	return MondayOf(c.Start)
}

// InBlackoutWeek reports whether day falls in any blacked-out week range.
func (c Calendar) InBlackoutWeek(day time.Time) bool {
	for _, r := range c.BlackoutWeeks {
		if r.Contains(day) {
			return true
		}
	}
	return false
}

// IsBlackoutDay reports whether day is an individually closed date.
func (c Calendar) IsBlackoutDay(day time.Time) bool {
	d := DateOnly(day)
	for _, b := range c.BlackoutDays {
		if DateOnly(b).Equal(d) {
			return true
		}
	}
	return false
}

// WeekClosed reports whether every teaching day of the week starting at
// monday lies in a blackout range. Closed weeks are skipped entirely.
func (c Calendar) WeekClosed(monday time.Time) bool {
	if len(c.BlackoutWeeks) == 0 {
		return false
	}
	monday = MondayOf(monday)
	for d := 0; d < WorkDays; d++ {
		if !c.InBlackoutWeek(monday.AddDate(0, 0, d)) {
			return false
		}
	}
	return true
}

// WeekStarts returns the Monday of each of the first n usable weeks.
func (c Calendar) WeekStarts(n int) []time.Time {
	starts := make([]time.Time, 0, n)
	for ws := c.Monday(); len(starts) < n; ws = ws.AddDate(0, 0, 7) {
		if !c.WeekClosed(ws) {
			starts = append(starts, ws)
		}
	}
	return starts
}

// UsableWeek returns the 1-based usable week that day falls in, counted the
// way WeekStarts counts. It reports false for days before the calendar start
// and days inside a closed week.
func (c Calendar) UsableWeek(day time.Time) (int, bool) {
	target := MondayOf(day)
	if target.Before(c.Monday()) || c.WeekClosed(target) {
		return 0, false
	}
	week := 0
	for ws := c.Monday(); !ws.After(target); ws = ws.AddDate(0, 0, 7) {
		if !c.WeekClosed(ws) {
			week++
		}
	}
	return week, true
}

// BlackoutByWeek lists the closed teaching weekdays of every usable week,
// sorted by week then weekday. It joins the individually closed dates with the
// weekdays of partially covered weeks that fall inside a blackout range.
func (c Calendar) BlackoutByWeek() []WeekdayBlackout {
	seen := make(map[WeekdayBlackout]bool)
	var out []WeekdayBlackout
	add := func(day time.Time) {
		if WeekdayIndex(day) >= WorkDays {
			return
		}
		week, ok := c.UsableWeek(day)
		if !ok {
			return
		}
		b := WeekdayBlackout{Week: week, Weekday: WeekdayIndex(day)}
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}

	for _, d := range c.BlackoutDays {
		add(DateOnly(d))
	}
	for _, r := range c.BlackoutWeeks {
		from, to := DateOnly(r.Start), DateOnly(r.End)
		if first := c.Monday(); from.Before(first) {
			from = first
		}
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			add(d)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].Weekday < out[j].Weekday
	})
	return out
}

// ShiftsPerDay returns the smallest number of daily shifts whose capacity over
// the period covers every required meeting. The second result is false when
// no count up to MaxShiftsPerDay is enough, in which case the fallback is returned.
func ShiftsPerDay(totalMeetings, weeks, blackoutDays int) (int, bool) {
	required := totalMeetings * HoursPerMeeting
	for t := 1; t <= MaxShiftsPerDay; t++ {
		capacity := t*WorkDays*HoursPerMeeting*weeks - blackoutDays*HoursPerMeeting*t
		if capacity >= required {
			return t, true
		}
	}
	return FallbackShiftsPerDay, false
}

// Slot is one meeting placed on a calendar date.
type Slot struct {
	Week       int       `json:"week"`
	Date       time.Time `json:"date"`
	Weekday    int       `json:"weekday"`
	Number     int       `json:"number"`
	Subject    int       `json:"subject"`
	Activities []string  `json:"activities,omitempty"`
}

// Place maps a weekly plan onto calendar dates and attaches activity tags.
//
// activities[i] is the tag sequence of subject i; entry k belongs to that
// subject's k-th placed meeting. An empty entry means no tag and an entry may
// list several tags separated by commas. Meetings that land on a closed date
// or inside a blackout range are reported as overflow.
func (c Calendar) Place(plan Plan, activities [][]string) ([]Slot, []Overflow) {
	starts := c.WeekStarts(len(plan.Weeks))
	cursor := make(map[int]int)
	slots := make([]Slot, 0, plan.Meetings())
	var dropped []Overflow

	for w, week := range plan.Weeks {
		for d, subjects := range week {
			date := starts[w].AddDate(0, 0, d)
			if WeekdayIndex(date) >= WorkDays {
				continue
			}
			if c.IsBlackoutDay(date) {
				dropped = append(dropped, overflowFor(w, subjects, OverflowBlackoutDay, &date)...)
				continue
			}
			if c.InBlackoutWeek(date) {
				dropped = append(dropped, overflowFor(w, subjects, OverflowBlackoutWeek, &date)...)
				continue
			}
			for n, subject := range subjects {
				slot := Slot{Week: w, Date: date, Weekday: d, Number: n + 1, Subject: subject}
				if subject < len(activities) && cursor[subject] < len(activities[subject]) {
					slot.Activities = splitTags(activities[subject][cursor[subject]])
					cursor[subject]++
				}
				slots = append(slots, slot)
			}
		}
	}
	return slots, dropped
}

func overflowFor(week int, subjects []int, reason OverflowReason, date *time.Time) []Overflow {
	counts := make(map[int]int)
	order := make([]int, 0, len(subjects))
	for _, s := range subjects {
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	out := make([]Overflow, 0, len(order))
	for _, s := range order {
		out = append(out, Overflow{Week: week, Subject: s, Count: counts[s], Reason: reason, Date: date})
	}
	return out
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
