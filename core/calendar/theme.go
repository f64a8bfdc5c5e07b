package calendar

import (
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/trezcool/freetime/fs"
)

const defaultThemePath = "assets/calendar/theme.yaml"

// Swatch is the colour set of one member.
type Swatch struct {
	Bg     string `yaml:"bg" json:"bg"`
	Border string `yaml:"border" json:"border"`
	Text   string `yaml:"text" json:"text"`
}

// Theme controls the look of RenderSVG.
type Theme struct {
	Font struct {
		Family string `yaml:"family"`
		Size   int    `yaml:"size"`
	} `yaml:"font"`
	Colors struct {
		Background string `yaml:"background"`
		Panel      string `yaml:"panel"`
		Grid       string `yaml:"grid"`
		Text       string `yaml:"text"`
		Muted      string `yaml:"muted"`
	} `yaml:"colors"`
	Layout struct {
		GutterWidth  int `yaml:"gutter_width"`
		DayWidth     int `yaml:"day_width"`
		HeaderHeight int `yaml:"header_height"`
		BlockPadding int `yaml:"block_padding"`
		CornerRadius int `yaml:"corner_radius"`
	} `yaml:"layout"`
	Palette []Swatch `yaml:"palette"`
}

// Swatch returns the palette entry of a colour index.
func (t Theme) Swatch(colorIndex int) Swatch {
	if len(t.Palette) == 0 {
		return Swatch{Bg: t.Colors.Panel, Border: t.Colors.Grid, Text: t.Colors.Text}
	}
	if colorIndex < 0 {
		colorIndex = -colorIndex
	}
	return t.Palette[colorIndex%len(t.Palette)]
}

// DefaultTheme returns the embedded theme.
func DefaultTheme() (Theme, error) {
	data, err := fs.ReadFile(appfs.FS, defaultThemePath)
	if err != nil {
		return Theme{}, errors.Wrap(err, "reading default theme")
	}
	var theme Theme
	if err = yaml.Unmarshal(data, &theme); err != nil {
		return Theme{}, errors.Wrap(err, "parsing default theme")
	}
	return theme, nil
}

// LoadTheme returns the default theme overridden by the values set in the YAML file at path.
// An empty path returns the default theme.
func LoadTheme(path string) (Theme, error) {
	theme, err := DefaultTheme()
	if err != nil || path == "" {
		return theme, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, errors.Wrapf(err, "reading theme %s", path)
	}
	if err = yaml.Unmarshal(data, &theme); err != nil {
		return Theme{}, errors.Wrapf(err, "parsing theme %s", path)
	}
	return theme, nil
}
