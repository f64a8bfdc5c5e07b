package calendar

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/freetime/core/layout"
)

func TestRenderSVG(t *testing.T) {
	theme, err := DefaultTheme()
	require.NoError(t, err)

	grid := layout.DefaultGrid
	week := Week{GroupID: "g", Grid: grid, Hours: grid.HourLabels()}
	for d := range week.Days {
		week.Days[d] = Day{Index: d, Short: [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}[d]}
	}
	frame, ok := grid.Frame(8, 10, 1, 2)
	require.True(t, ok)
	week.Days[0].Entries = []Entry{{
		Slot: Slot{
			ScheduleID: "s1",
			Label:      "Tom & Jerry",
			ClassName:  `"Maths" <advanced>`,
			StartTime:  "08:00",
			EndTime:    "10:00",
			ColorIndex: 2,
		},
		Column:  1,
		Columns: 2,
		Frame:   frame,
	}}

	var buf bytes.Buffer
	require.NoError(t, RenderSVG(&buf, week, theme))
	svg := buf.String()

	assert.True(t, strings.HasPrefix(svg, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, svg, `width="1036"`, "gutter + 7 days")
	assert.Contains(t, svg, ">Mon<")
	assert.Contains(t, svg, ">6:00 AM<")
	assert.Contains(t, svg, "&quot;Maths&quot; &lt;advanced&gt;")
	assert.Contains(t, svg, "Tom &amp; Jerry")
	assert.Contains(t, svg, "8:00 AM - 10:00 AM")
	assert.Contains(t, svg, theme.Swatch(2).Border)

	// well-formed
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestRenderSVG_writeError(t *testing.T) {
	theme, err := DefaultTheme()
	require.NoError(t, err)

	err = RenderSVG(brokenWriter{}, Week{Grid: layout.DefaultGrid}, theme)
	assert.EqualError(t, err, "connection reset")
}

func TestColorIndexes(t *testing.T) {
	ids := []string{"c", "a", "b", "j", "i", "h", "g", "f", "e", "d"}
	colors := ColorIndexes(ids)

	assert.Equal(t, 0, colors["a"])
	assert.Equal(t, 2, colors["c"])
	assert.Equal(t, 7, colors["h"])
	assert.Equal(t, 0, colors["i"], "wraps around the palette")
	assert.Equal(t, 1, colors["j"])
	assert.Equal(t, []string{"c", "a", "b", "j", "i", "h", "g", "f", "e", "d"}, ids, "input is left untouched")
}
