package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var errInvalidClock = errors.New("invalid wall-clock time")

// parseClock splits "HH:MM" or "HH:MM:SS" into hours, minutes and seconds.
func parseClock(s string) (h, m, sec int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, errors.Wrapf(errInvalidClock, "%q", s)
	}

	vals := [3]int{}
	for i, p := range parts {
		if len(p) != 2 {
			return 0, 0, 0, errors.Wrapf(errInvalidClock, "%q", s)
		}
		v, convErr := strconv.Atoi(p)
		if convErr != nil || v < 0 {
			return 0, 0, 0, errors.Wrapf(errInvalidClock, "%q", s)
		}
		vals[i] = v
	}
	if vals[0] > 23 || vals[1] > 59 || vals[2] > 59 {
		return 0, 0, 0, errors.Wrapf(errInvalidClock, "%q", s)
	}
	return vals[0], vals[1], vals[2], nil
}

// ParseClock converts an "HH:MM" (or "HH:MM:SS") wall-clock string to decimal hours.
func ParseClock(s string) (float64, error) {
	h, m, sec, err := parseClock(s)
	if err != nil {
		return 0, err
	}
	return float64(h) + float64(m)/60 + float64(sec)/3600, nil
}

// IsClock reports whether s is a valid "HH:MM" string.
func IsClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, _, _, err := parseClock(s)
	return err == nil
}

// FormatClock12 renders "13:05" as "1:05 PM". Invalid input yields "".
func FormatClock12(s string) string {
	h, m, _, err := parseClock(s)
	if err != nil {
		return ""
	}
	ampm := "AM"
	if h >= 12 {
		ampm = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, ampm)
}
