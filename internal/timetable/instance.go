package timetable

import "fmt"

const (
	// HoursPerMeeting is the constant duration of one meeting.
	HoursPerMeeting = 2
	// DefaultLowerBound applies to cells without an explicit lower bound.
	DefaultLowerBound = 0
	// DefaultUpperBound applies to cells without an explicit upper bound.
	DefaultUpperBound = 6
)

// Hours maps subject and meeting index to the hours that meeting consumes.
type Hours [][]int

// UniformHours builds an hours table where every meeting lasts perMeeting hours.
func UniformHours(meetings []int, perMeeting int) Hours {
	h := make(Hours, len(meetings))
	for i, count := range meetings {
		if count < 0 {
			count = 0
		}
		row := make([]int, count)
		for k := range row {
			row[k] = perMeeting
		}
		h[i] = row
	}
	return h
}

// Instance carries everything the constructor and balancer read.
// Lower and Upper may be nil, in which case the package defaults apply.
type Instance struct {
	Meetings []int
	Capacity []int
	Hours    Hours
	Lower    *Matrix
	Upper    *Matrix
}

// Subjects returns the number of subjects in the instance.
func (in Instance) Subjects() int { return len(in.Meetings) }

// Weeks returns the number of weeks in the instance.
func (in Instance) Weeks() int { return len(in.Capacity) }

// DefaultBounds returns the lower and upper bound matrices used when none are given.
func DefaultBounds(subjects, weeks int) (lower, upper *Matrix) {
	return FilledMatrix(subjects, weeks, DefaultLowerBound), FilledMatrix(subjects, weeks, DefaultUpperBound)
}

// WithDefaults fills missing bounds and hours.
func (in Instance) WithDefaults() Instance {
	lower, upper := DefaultBounds(in.Subjects(), in.Weeks())
	if in.Lower == nil {
		in.Lower = lower
	}
	if in.Upper == nil {
		in.Upper = upper
	}
	if in.Hours == nil {
		in.Hours = UniformHours(in.Meetings, HoursPerMeeting)
	}
	return in
}

// Check verifies the instance tables agree on shape.
func (in Instance) Check() error {
	n, m := in.Subjects(), in.Weeks()
	if n == 0 || m == 0 {
		return ErrEmptyInstance
	}
	if len(in.Hours) != 0 && len(in.Hours) != n {
		return fmt.Errorf("%w: hours table has %d subjects, expected %d", ErrDimensionMismatch, len(in.Hours), n)
	}
	for _, b := range []*Matrix{in.Lower, in.Upper} {
		if b != nil && (b.Subjects() != n || b.Weeks() != m) {
			return fmt.Errorf("%w: bounds are %dx%d, expected %dx%d", ErrDimensionMismatch, b.Subjects(), b.Weeks(), n, m)
		}
	}
	return nil
}

// ValidateBounds reports the first cell whose lower bound exceeds the upper bound.
// Allocate assumes bounds already passed this check; Run performs it.
func ValidateBounds(lower, upper *Matrix) error {
	if lower == nil || upper == nil {
		return nil
	}
	if lower.Subjects() != upper.Subjects() || lower.Weeks() != upper.Weeks() {
		return ErrDimensionMismatch
	}
	for i := 0; i < lower.Subjects(); i++ {
		for j := 0; j < lower.Weeks(); j++ {
			if lower.At(i, j) > upper.At(i, j) {
				return fmt.Errorf("%w: subject %d week %d (%d > %d)", ErrInfeasibleBounds, i, j, lower.At(i, j), upper.At(i, j))
			}
		}
	}
	return nil
}
