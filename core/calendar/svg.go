package calendar

import (
	"fmt"
	"io"
	"strings"

	"github.com/trezcool/freetime/core/layout"
)

// RenderSVG draws week as a standalone SVG document.
func RenderSVG(w io.Writer, week Week, theme Theme) error {
	var (
		gutter  = float64(theme.Layout.GutterWidth)
		dayW    = float64(theme.Layout.DayWidth)
		header  = float64(theme.Layout.HeaderHeight)
		pad     = float64(theme.Layout.BlockPadding)
		width   = gutter + dayW*layout.DaysPerWeek
		height  = header + week.Grid.Height()
		fontPx  = theme.Font.Size
		lineGap = float64(fontPx) + 3
	)
	var svg strings.Builder

	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" xmlns="http://www.w3.org/2000/svg">
<defs>
<style>
.hour { font-family: %s; font-size: %dpx; fill: %s; text-anchor: end; }
.day { font-family: %s; font-size: %dpx; font-weight: bold; fill: %s; text-anchor: middle; }
.cls { font-family: %s; font-size: %dpx; font-weight: bold; }
.who { font-family: %s; font-size: %dpx; }
</style>
</defs>
<rect width="100%%" height="100%%" fill="%s"/>
<rect x="%.0f" y="%.0f" width="%.0f" height="%.0f" fill="%s"/>
`, width, height, width, height,
		theme.Font.Family, fontPx-1, theme.Colors.Muted,
		theme.Font.Family, fontPx+1, theme.Colors.Text,
		theme.Font.Family, fontPx,
		theme.Font.Family, fontPx-1,
		theme.Colors.Background,
		gutter, header, dayW*layout.DaysPerWeek, week.Grid.Height(), theme.Colors.Panel))

	// hour rows
	for i, h := range week.Hours {
		y := header + float64(i)*week.Grid.HourHeight
		svg.WriteString(fmt.Sprintf(`<line x1="%.0f" y1="%.1f" x2="%.0f" y2="%.1f" stroke="%s" stroke-width="1"/>`+"\n",
			gutter, y, width, y, theme.Colors.Grid))
		svg.WriteString(fmt.Sprintf(`<text class="hour" x="%.0f" y="%.1f">%s</text>`+"\n",
			gutter-6, y+float64(fontPx), escapeXML(layout.FormatClock12(fmt.Sprintf("%02d:00", h)))))
	}

	// day columns
	for _, day := range week.Days {
		x := gutter + float64(day.Index)*dayW
		svg.WriteString(fmt.Sprintf(`<line x1="%.0f" y1="%.0f" x2="%.0f" y2="%.0f" stroke="%s" stroke-width="1"/>`+"\n",
			x, header, x, height, theme.Colors.Grid))
		svg.WriteString(fmt.Sprintf(`<text class="day" x="%.1f" y="%.1f">%s</text>`+"\n",
			x+dayW/2, header/2+float64(fontPx)/2, escapeXML(day.Short)))
	}

	// classes
	for _, day := range week.Days {
		dayX := gutter + float64(day.Index)*dayW
		for _, e := range day.Entries {
			sw := theme.Swatch(e.ColorIndex)
			x := dayX + e.Frame.Left*dayW + pad
			y := header + e.Frame.Top + pad/2
			bw := e.Frame.Width*dayW - 2*pad
			bh := e.Frame.Height - pad
			if bw <= 0 || bh <= 0 {
				continue
			}

			svg.WriteString(fmt.Sprintf(`<g><title>%s</title>`+"\n", escapeXML(fmt.Sprintf("%s (%s) %s - %s",
				e.ClassName, e.Label, layout.FormatClock12(e.StartTime), layout.FormatClock12(e.EndTime)))))
			svg.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%d" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
				x, y, bw, bh, theme.Layout.CornerRadius, sw.Bg, sw.Border))
			textY := y + lineGap
			svg.WriteString(fmt.Sprintf(`<text class="cls" x="%.1f" y="%.1f" fill="%s">%s</text>`+"\n",
				x+4, textY, sw.Text, escapeXML(e.ClassName)))
			if bh >= 2*lineGap+pad {
				svg.WriteString(fmt.Sprintf(`<text class="who" x="%.1f" y="%.1f" fill="%s">%s</text>`+"\n",
					x+4, textY+lineGap, theme.Colors.Text, escapeXML(e.Label)))
			}
			svg.WriteString("</g>\n")
		}
	}

	svg.WriteString("</svg>\n")
	_, err := io.WriteString(w, svg.String())
	return err
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
