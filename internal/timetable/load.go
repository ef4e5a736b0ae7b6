package timetable

// WeekLoad returns the instructional hours scheduled in week j.
// A subject's meetings are numbered cumulatively across weeks, so week j
// covers meeting indexes [sum(x[i][:j]), sum(x[i][:j+1])).
func WeekLoad(m *Matrix, j int, h Hours) int {
	load := 0
	for i := 0; i < m.Subjects(); i++ {
		from := 0
		for k := 0; k < j; k++ {
			from += m.At(i, k)
		}
		to := from + m.At(i, j)
		var row []int
		if i < len(h) {
			row = h[i]
		}
		if to > len(row) {
			to = len(row)
		}
		for k := from; k < to; k++ {
			load += row[k]
		}
	}
	return load
}

// Loads evaluates every week.
func Loads(m *Matrix, h Hours) []int {
	loads := make([]int, m.Weeks())
	for j := range loads {
		loads[j] = WeekLoad(m, j, h)
	}
	return loads
}

// Objective is the sum of squared deviations of each week's load from the mean.
func Objective(loads []int) float64 {
	if len(loads) == 0 {
		return 0
	}
	total := 0
	for _, l := range loads {
		total += l
	}
	mean := float64(total) / float64(len(loads))
	score := 0.0
	for _, l := range loads {
		d := float64(l) - mean
		score += d * d
	}
	return score
}
