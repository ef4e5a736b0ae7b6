package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekLoadCumulativeRanges(t *testing.T) {
	x, err := MatrixFromRows([][]int{{2, 1}, {0, 3}})
	require.NoError(t, err)
	h := Hours{{1, 2, 3}, {2, 2, 2}}

	assert.Equal(t, 3, WeekLoad(x, 0, h), "subject 0 meetings 0..1")
	assert.Equal(t, 9, WeekLoad(x, 1, h), "subject 0 meeting 2 plus subject 1 meetings 0..2")
	assert.Equal(t, []int{3, 9}, Loads(x, h))
}

func TestWeekLoadIgnoresMeetingsBeyondHoursTable(t *testing.T) {
	x, err := MatrixFromRows([][]int{{1, 4}})
	require.NoError(t, err)

	assert.Equal(t, 4, WeekLoad(x, 1, Hours{{2, 2, 2}}))
	assert.Equal(t, 0, WeekLoad(x, 0, Hours{}))
}

func TestWeekLoadIsDeterministic(t *testing.T) {
	x, err := MatrixFromRows([][]int{{2, 2, 1, 1}, {1, 1, 1, 1}})
	require.NoError(t, err)
	h := UniformHours([]int{6, 4}, HoursPerMeeting)

	for j := 0; j < x.Weeks(); j++ {
		assert.Equal(t, WeekLoad(x, j, h), WeekLoad(x, j, h))
	}
	assert.Equal(t, []int{6, 6, 4, 4}, Loads(x, h))
}

func TestObjective(t *testing.T) {
	assert.Equal(t, 8.0, Objective([]int{4, 8}))
	assert.Equal(t, 0.0, Objective([]int{5, 5, 5}))
	assert.Equal(t, 0.0, Objective(nil))
	assert.Equal(t, 4.0, Objective([]int{6, 6, 4, 4}))
}

func TestMatrixHelpers(t *testing.T) {
	x, err := MatrixFromRows([][]int{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	clone := x.Clone()
	clone.Add(0, 0, 10)
	assert.Equal(t, 1, x.At(0, 0), "clone must not alias")
	assert.False(t, x.Equal(clone))

	assert.Equal(t, 6, x.RowSum(0))
	assert.Equal(t, 21, x.Total())
	assert.Equal(t, [][]int{{1, 4}, {2, 5}, {3, 6}}, x.Transpose())
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}}, x.Rows())

	_, err = MatrixFromRows([][]int{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestValidateBounds(t *testing.T) {
	lower, _ := MatrixFromRows([][]int{{0, 2}})
	upper, _ := MatrixFromRows([][]int{{1, 1}})
	assert.ErrorIs(t, ValidateBounds(lower, upper), ErrInfeasibleBounds)

	upper.Set(0, 1, 2)
	assert.NoError(t, ValidateBounds(lower, upper))
	assert.NoError(t, ValidateBounds(nil, upper))
}

func TestDefaultBounds(t *testing.T) {
	lower, upper := DefaultBounds(2, 3)
	assert.Equal(t, [][]int{{0, 0, 0}, {0, 0, 0}}, lower.Rows())
	assert.Equal(t, [][]int{{6, 6, 6}, {6, 6, 6}}, upper.Rows())
}
