package timetable

import (
	"math/rand"
	"time"
)

// FillOrder selects how shifts of a week are visited.
type FillOrder string

const (
	// FillByShift visits shift 1 on every open weekday, then shift 2, and so on.
	FillByShift FillOrder = "shift"
	// FillByDay fills every shift of a weekday before moving to the next weekday.
	FillByDay FillOrder = "day"
)

// OverflowReason explains why meetings were not placed.
type OverflowReason string

const (
	// OverflowNoShift means the week ran out of open shifts.
	OverflowNoShift OverflowReason = "no_shift"
	// OverflowBlackoutDay means the meetings were planned on a date that is closed.
	OverflowBlackoutDay OverflowReason = "blackout_day"
	// OverflowBlackoutWeek means the meetings were planned inside a blackout range.
	OverflowBlackoutWeek OverflowReason = "blackout_week"
)

// Overflow reports meetings of one subject that could not be placed in a week.
type Overflow struct {
	Week    int            `json:"week"`
	Subject int            `json:"subject"`
	Count   int            `json:"count"`
	Reason  OverflowReason `json:"reason"`
	Date    *time.Time     `json:"date,omitempty"`
}

// WeekPlan lists, for each weekday, the subjects in shift order.
type WeekPlan [][]int

// Plan is the expander's output before calendar dates are attached.
type Plan struct {
	ShiftsPerDay int
	Weeks        []WeekPlan
	Overflow     []Overflow
	// Duplicates counts placements that repeated a subject on a day because
	// every subject with meetings left was already scheduled there.
	Duplicates int
}

// Meetings counts placed meetings.
func (p Plan) Meetings() int {
	total := 0
	for _, w := range p.Weeks {
		for _, d := range w {
			total += len(d)
		}
	}
	return total
}

// ExpandOptions configures the expander.
type ExpandOptions struct {
	ShiftsPerDay int
	Blackouts    []WeekdayBlackout
	Order        FillOrder
}

// Expand distributes each week's meetings over open weekdays and shifts.
//
// For every shift the candidates are the subjects with meetings left that
// are not yet on that day; when there are none, any subject with meetings
// left is allowed. The pick is uniform over candidates using rng.
func Expand(m *Matrix, opts ExpandOptions, rng *rand.Rand) Plan {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if opts.ShiftsPerDay <= 0 {
		opts.ShiftsPerDay = FallbackShiftsPerDay
	}
	if opts.Order == "" {
		opts.Order = FillByShift
	}

	closed := make(map[int]map[int]bool)
	for _, b := range opts.Blackouts {
		if closed[b.Week] == nil {
			closed[b.Week] = make(map[int]bool)
		}
		closed[b.Week][b.Weekday] = true
	}

	plan := Plan{ShiftsPerDay: opts.ShiftsPerDay, Weeks: make([]WeekPlan, m.Weeks())}
	for w := 0; w < m.Weeks(); w++ {
		e := weekExpander{
			remaining: make([]int, m.Subjects()),
			days:      make(WeekPlan, WorkDays),
			rng:       rng,
		}
		for i := range e.remaining {
			e.remaining[i] = m.At(i, w)
			e.left += e.remaining[i]
		}
		open := func(d int) bool { return !closed[w+1][d] }

		switch opts.Order {
		case FillByDay:
			for d := 0; d < WorkDays && e.left > 0; d++ {
				if !open(d) {
					continue
				}
				for s := 1; s <= opts.ShiftsPerDay && e.left > 0; s++ {
					e.place(d)
				}
			}
		default:
			for s := 1; s <= opts.ShiftsPerDay && e.left > 0; s++ {
				for d := 0; d < WorkDays && e.left > 0; d++ {
					if open(d) {
						e.place(d)
					}
				}
			}
		}

		for i, r := range e.remaining {
			if r > 0 {
				plan.Overflow = append(plan.Overflow, Overflow{Week: w, Subject: i, Count: r, Reason: OverflowNoShift})
			}
		}
		plan.Duplicates += e.duplicates
		plan.Weeks[w] = e.days
	}
	return plan
}

type weekExpander struct {
	remaining  []int
	left       int
	days       WeekPlan
	duplicates int
	rng        *rand.Rand
}

func (e *weekExpander) place(day int) {
	onDay := make(map[int]bool, len(e.days[day]))
	for _, s := range e.days[day] {
		onDay[s] = true
	}
	candidates := make([]int, 0, len(e.remaining))
	for i, r := range e.remaining {
		if r > 0 && !onDay[i] {
			candidates = append(candidates, i)
		}
	}
	duplicate := false
	if len(candidates) == 0 {
		for i, r := range e.remaining {
			if r > 0 {
				candidates = append(candidates, i)
			}
		}
		duplicate = true
	}
	if len(candidates) == 0 {
		return
	}
	pick := candidates[e.rng.Intn(len(candidates))]
	e.days[day] = append(e.days[day], pick)
	e.remaining[pick]--
	e.left--
	if duplicate {
		e.duplicates++
	}
}
