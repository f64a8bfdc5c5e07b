// Package layout positions overlapping time blocks of a single day side by side.
package layout

import "sort"

// DaysPerWeek is the number of day columns in a weekly calendar. Day 0 is Monday.
const DaysPerWeek = 7

// Block is a time interval within one day. Start and End are decimal hours (9:30 -> 9.5).
// Payload is never read by the engine.
type Block[T any] struct {
	ID      string  `json:"id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Payload T       `json:"payload"`
}

// Placement is a Block positioned inside its overlap cluster.
// Column is zero-based and Columns is shared by every block of the cluster.
type Placement[T any] struct {
	Block[T]
	Column  int `json:"column"`
	Columns int `json:"columns"`
}

// Arrange partitions blocks into overlap clusters and assigns each block the first column
// whose last block ends at or before its start. Blocks sharing a start keep the caller's order.
// The result follows start order; blocks is not modified.
//
// Blocks must satisfy End > Start; anything else yields a meaningless placement for that block.
func Arrange[T any](blocks []Block[T]) []Placement[T] {
	placements := make([]Placement[T], 0, len(blocks))
	if len(blocks) == 0 {
		return placements
	}

	sorted := make([]Block[T], len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for _, cluster := range clusters(sorted) {
		placements = append(placements, assignColumns(cluster)...)
	}
	return placements
}

// clusters splits start-sorted blocks into maximal runs connected by overlap.
func clusters[T any](sorted []Block[T]) [][]Block[T] {
	var (
		runs   [][]Block[T]
		first  int
		maxEnd float64
	)
	for i, b := range sorted {
		switch {
		case i == 0:
			maxEnd = b.End
		case b.Start >= maxEnd:
			runs = append(runs, sorted[first:i])
			first = i
			maxEnd = b.End
		case b.End > maxEnd:
			maxEnd = b.End
		}
	}
	return append(runs, sorted[first:])
}

func assignColumns[T any](cluster []Block[T]) []Placement[T] {
	lastInColumn := make([]Block[T], 0, 1)
	placements := make([]Placement[T], len(cluster))

	for i, b := range cluster {
		col := len(lastInColumn)
		for c, last := range lastInColumn {
			if last.End <= b.Start {
				col = c
				break
			}
		}
		if col == len(lastInColumn) {
			lastInColumn = append(lastInColumn, b)
		} else {
			lastInColumn[col] = b
		}
		placements[i] = Placement[T]{Block: b, Column: col}
	}

	for i := range placements {
		placements[i].Columns = len(lastInColumn)
	}
	return placements
}

// ArrangeWeek groups blocks by the day returned by dayOf and arranges each day on its own.
// Blocks whose day is outside [0, DaysPerWeek) are dropped.
func ArrangeWeek[T any](blocks []Block[T], dayOf func(Block[T]) int) [DaysPerWeek][]Placement[T] {
	var days [DaysPerWeek][]Block[T]
	for _, b := range blocks {
		if d := dayOf(b); d >= 0 && d < DaysPerWeek {
			days[d] = append(days[d], b)
		}
	}

	var week [DaysPerWeek][]Placement[T]
	for d := range days {
		week[d] = Arrange(days[d])
	}
	return week
}
