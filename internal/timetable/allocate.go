package timetable

// Allocation is the constructor's output.
type Allocation struct {
	Matrix *Matrix
	// Unplaced counts required meetings that no week could absorb.
	Unplaced int
	// Passes is the number of full round-robin scans performed.
	Passes int
}

// Allocate builds a feasible starting matrix.
//
// Every cell starts at its lower bound. Outstanding meetings are then handed
// out one at a time in ascending (subject, week) order, and only where the
// cell stays within its upper bound and the week's load stays within
// capacity. Scanning repeats until nothing is outstanding or a full scan
// places nothing.
func Allocate(in Instance) Allocation {
	in = in.WithDefaults()
	n, m := in.Subjects(), in.Weeks()
	x := NewMatrix(n, m)
	outstanding := make([]int, n)

	for i := 0; i < n; i++ {
		outstanding[i] = in.Meetings[i]
		for j := 0; j < m; j++ {
			lb := in.Lower.At(i, j)
			x.Set(i, j, lb)
			outstanding[i] -= lb
		}
		if outstanding[i] < 0 {
			outstanding[i] = 0
		}
	}

	remaining := 0
	for _, o := range outstanding {
		remaining += o
	}

	passes := 0
	for remaining > 0 {
		passes++
		placed := 0
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				if outstanding[i] == 0 {
					break
				}
				if x.At(i, j) >= in.Upper.At(i, j) {
					continue
				}
				x.Add(i, j, 1)
				if WeekLoad(x, j, in.Hours) > in.Capacity[j] {
					x.Add(i, j, -1)
					continue
				}
				outstanding[i]--
				remaining--
				placed++
			}
		}
		if placed == 0 {
			break
		}
	}

	return Allocation{Matrix: x, Unplaced: remaining, Passes: passes}
}
