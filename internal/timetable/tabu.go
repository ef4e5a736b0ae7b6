package timetable

import "fmt"

// Move shifts one meeting of Subject from week From to week To.
type Move struct {
	Subject int `json:"subject"`
	From    int `json:"from"`
	To      int `json:"to"`
}

// Reverse returns the move that undoes m.
func (m Move) Reverse() Move {
	return Move{Subject: m.Subject, From: m.To, To: m.From}
}

func (m Move) String() string {
	return fmt.Sprintf("subject %d: week %d -> week %d", m.Subject, m.From, m.To)
}

// TabuList is a bounded FIFO of recently applied moves, newest first.
type TabuList struct {
	moves   []Move
	members map[Move]int
	size    int
}

// NewTabuList returns an empty list holding at most size moves.
func NewTabuList(size int) *TabuList {
	if size <= 0 {
		size = 1
	}
	return &TabuList{
		moves:   make([]Move, 0, size+1),
		members: make(map[Move]int, size+1),
		size:    size,
	}
}

// Push records m at the front and evicts the oldest entry once over capacity.
func (t *TabuList) Push(m Move) {
	t.moves = append([]Move{m}, t.moves...)
	t.members[m]++
	if len(t.moves) > t.size {
		oldest := t.moves[len(t.moves)-1]
		t.moves = t.moves[:len(t.moves)-1]
		if t.members[oldest]--; t.members[oldest] <= 0 {
			delete(t.members, oldest)
		}
	}
}

// Contains reports whether m is currently forbidden.
func (t *TabuList) Contains(m Move) bool {
	return t.members[m] > 0
}

// Len returns the number of stored moves.
func (t *TabuList) Len() int { return len(t.moves) }

// Moves returns a copy of the list, newest first.
func (t *TabuList) Moves() []Move {
	out := make([]Move, len(t.moves))
	copy(out, t.moves)
	return out
}
