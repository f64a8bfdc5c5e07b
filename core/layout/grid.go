package layout

// Grid describes the pixel geometry of a weekly calendar.
type Grid struct {
	FirstHour  float64 `json:"first_hour" yaml:"first_hour"`
	Hours      int     `json:"hours" yaml:"hours"`
	HourHeight float64 `json:"hour_height" yaml:"hour_height"`
}

// DefaultGrid shows 6 AM to 10 PM at 56px per hour.
var DefaultGrid = Grid{FirstHour: 6, Hours: 16, HourHeight: 56}

// Frame is where a placement is drawn. Top and Height are pixels from the top of the grid,
// Left and Width are fractions of the day column.
type Frame struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// Height returns the pixel height of the whole grid.
func (g Grid) Height() float64 {
	return float64(g.Hours) * g.HourHeight
}

// HourLabels returns the hour of each grid row.
func (g Grid) HourLabels() []int {
	labels := make([]int, 0, g.Hours)
	for i := 0; i < g.Hours; i++ {
		labels = append(labels, int(g.FirstHour)+i)
	}
	return labels
}

// Frame computes the drawing frame of an interval laid out in column out of columns. ok is false when the block starts before the
// first hour of the grid or has no height; such blocks are not drawn.
func (g Grid) Frame(start, end float64, column, columns int) (f Frame, ok bool) {
	top := (start - g.FirstHour) * g.HourHeight
	height := (end - start) * g.HourHeight
	if !(top >= 0) || !(height > 0) || columns <= 0 {
		return Frame{}, false
	}

	width := 1 / float64(columns)
	return Frame{
		Top:    top,
		Height: height,
		Left:   width * float64(column),
		Width:  width,
	}, true
}

// PlacementFrame is Frame for an arranged block.
func PlacementFrame[T any](g Grid, p Placement[T]) (Frame, bool) {
	return g.Frame(p.Start, p.End, p.Column, p.Columns)
}
