package timetable

import (
	"context"
	"math/rand"

	"go.uber.org/zap"
)

// Request is a full engine invocation.
type Request struct {
	Instance   Instance
	Activities [][]string
	Calendar   Calendar
	// Blackouts overrides the per-week closed weekdays derived from Calendar.
	Blackouts []WeekdayBlackout
	Balancer  BalancerConfig
	Order     FillOrder
}

// Result collects every stage's output.
type Result struct {
	Allocation   Allocation
	Balance      BalanceResult
	ShiftsPerDay int
	// ShiftsCover is false when even MaxShiftsPerDay cannot hold every meeting.
	ShiftsCover bool
	Plan        Plan
	Slots       []Slot
	// Overflow joins meetings the expander could not fit and meetings that fell on blackout dates.
	Overflow []Overflow
	// BalanceVector is the final matrix in week-major order.
	BalanceVector [][]int
}

// Run executes construction, balancing, expansion and calendar placement in order.
// One rng drives both the balancer and the expander.
func Run(ctx context.Context, req Request, rng *rand.Rand, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if err := req.Instance.Check(); err != nil {
		return Result{}, err
	}
	in := req.Instance.WithDefaults()
	if err := ValidateBounds(in.Lower, in.Upper); err != nil {
		return Result{}, err
	}

	alloc := Allocate(in)
	if alloc.Unplaced > 0 {
		logger.Warn("initial allocation left meetings unplaced",
			zap.Int("unplaced", alloc.Unplaced),
			zap.Int("passes", alloc.Passes),
		)
	}

	balanced, err := NewBalancer(req.Balancer, rng, logger).Balance(ctx, alloc.Matrix, in)
	if err != nil {
		return Result{}, err
	}

	blackouts := req.Blackouts
	if blackouts == nil {
		blackouts = req.Calendar.BlackoutByWeek()
	}
	total := 0
	for _, n := range in.Meetings {
		total += n
	}
	shifts, covered := ShiftsPerDay(total, in.Weeks(), ClosedDays(blackouts, in.Weeks()))
	plan := Expand(balanced.Matrix, ExpandOptions{ShiftsPerDay: shifts, Blackouts: blackouts, Order: req.Order}, rng)
	slots, dropped := req.Calendar.Place(plan, req.Activities)

	overflow := make([]Overflow, 0, len(plan.Overflow)+len(dropped))
	overflow = append(overflow, plan.Overflow...)
	overflow = append(overflow, dropped...)
	if len(overflow) > 0 {
		logger.Warn("calendar expansion could not place every meeting", zap.Int("entries", len(overflow)))
	}

	return Result{
		Allocation:    alloc,
		Balance:       balanced,
		ShiftsPerDay:  shifts,
		ShiftsCover:   covered,
		Plan:          plan,
		Slots:         slots,
		Overflow:      overflow,
		BalanceVector: balanced.Matrix.Transpose(),
	}, nil
}

// ClosedDays counts the distinct teaching weekdays that blackouts close within
// the first weeks usable weeks.
func ClosedDays(blackouts []WeekdayBlackout, weeks int) int {
	seen := make(map[WeekdayBlackout]bool, len(blackouts))
	for _, b := range blackouts {
		if b.Week < 1 || b.Week > weeks || b.Weekday < 0 || b.Weekday >= WorkDays {
			continue
		}
		seen[b] = true
	}
	return len(seen)
}
