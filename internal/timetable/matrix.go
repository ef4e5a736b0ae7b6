package timetable

import "fmt"

// Matrix is a dense subject × week table of meeting counts.
// Cells are stored subject-major so a subject's row is contiguous.
type Matrix struct {
	subjects int
	weeks    int
	cells    []int
}

// NewMatrix allocates a zeroed matrix.
func NewMatrix(subjects, weeks int) *Matrix {
	if subjects < 0 {
		subjects = 0
	}
	if weeks < 0 {
		weeks = 0
	}
	return &Matrix{subjects: subjects, weeks: weeks, cells: make([]int, subjects*weeks)}
}

// FilledMatrix returns a matrix whose cells all hold value.
func FilledMatrix(subjects, weeks, value int) *Matrix {
	m := NewMatrix(subjects, weeks)
	for i := range m.cells {
		m.cells[i] = value
	}
	return m
}

// MatrixFromRows builds a matrix from a jagged-free slice of rows.
func MatrixFromRows(rows [][]int) (*Matrix, error) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), nil
	}
	weeks := len(rows[0])
	m := NewMatrix(len(rows), weeks)
	for i, row := range rows {
		if len(row) != weeks {
			return nil, fmt.Errorf("%w: row %d has %d weeks, expected %d", ErrDimensionMismatch, i, len(row), weeks)
		}
		copy(m.cells[i*weeks:(i+1)*weeks], row)
	}
	return m, nil
}

// Subjects returns the row count.
func (m *Matrix) Subjects() int { return m.subjects }

// Weeks returns the column count.
func (m *Matrix) Weeks() int { return m.weeks }

// At returns the meeting count of subject i in week j.
func (m *Matrix) At(i, j int) int { return m.cells[i*m.weeks+j] }

// Set overwrites a cell.
func (m *Matrix) Set(i, j, v int) { m.cells[i*m.weeks+j] = v }

// Add adjusts a cell by delta.
func (m *Matrix) Add(i, j, delta int) { m.cells[i*m.weeks+j] += delta }

// Clone returns an independent copy.
func (m *Matrix) Clone() *Matrix {
	cells := make([]int, len(m.cells))
	copy(cells, m.cells)
	return &Matrix{subjects: m.subjects, weeks: m.weeks, cells: cells}
}

// Equal reports whether both matrices have the same shape and cells.
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil || m.subjects != other.subjects || m.weeks != other.weeks {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// RowSum returns the total meetings allocated to subject i.
func (m *Matrix) RowSum(i int) int {
	total := 0
	for _, v := range m.cells[i*m.weeks : (i+1)*m.weeks] {
		total += v
	}
	return total
}

// Total returns the sum of every cell.
func (m *Matrix) Total() int {
	total := 0
	for _, v := range m.cells {
		total += v
	}
	return total
}

// Rows copies the matrix into subject-major nested slices.
func (m *Matrix) Rows() [][]int {
	rows := make([][]int, m.subjects)
	for i := range rows {
		rows[i] = make([]int, m.weeks)
		copy(rows[i], m.cells[i*m.weeks:(i+1)*m.weeks])
	}
	return rows
}

// Transpose returns week-major nested slices, the layout stored as the balance record.
func (m *Matrix) Transpose() [][]int {
	cols := make([][]int, m.weeks)
	for j := range cols {
		cols[j] = make([]int, m.subjects)
		for i := 0; i < m.subjects; i++ {
			cols[j][i] = m.At(i, j)
		}
	}
	return cols
}
