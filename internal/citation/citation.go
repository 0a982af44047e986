package citation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ID identifies an inline citation marker such as [1] in the analysis text.
type ID int

// HighlightArea is a rectangle in page-relative fractions: Top and Height are
// ratios of the rendered page height, Left and Width of the rendered width.
type HighlightArea struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Target is the document location a citation points at.
type Target struct {
	PageNumber int           `json:"page_number"`
	Area       HighlightArea `json:"highlight_area"`
}

// Validate checks that the area lies within the unit square.
func (a HighlightArea) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"top", a.Top}, {"left", a.Left}, {"width", a.Width}, {"height", a.Height},
	} {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			return fmt.Errorf("%s %v outside [0,1]", f.name, f.v)
		}
	}
	// Small epsilon so areas declared in percent (e.g. 21.5% + 78.5%) still fit.
	const eps = 1e-9
	if a.Top+a.Height > 1+eps {
		return fmt.Errorf("top+height %v exceeds page height", a.Top+a.Height)
	}
	if a.Left+a.Width > 1+eps {
		return fmt.Errorf("left+width %v exceeds page width", a.Left+a.Width)
	}
	return nil
}

// Validate checks the page number and the area.
func (t Target) Validate() error {
	if t.PageNumber < 1 {
		return fmt.Errorf("page number %d must be >= 1", t.PageNumber)
	}
	if err := t.Area.Validate(); err != nil {
		return fmt.Errorf("highlight area: %w", err)
	}
	return nil
}

// ParsePercent converts a percentage string like "21.5%" into a fraction.
// A bare number is treated as a percentage as well.
func ParsePercent(s string) (float64, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimSuffix(v, "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse percent %q: %w", s, err)
	}
	return f / 100, nil
}

// Area builds a HighlightArea from percentage strings. It panics on malformed
// input and is meant for declaring static tables.
func Area(top, left, width, height string) HighlightArea {
	vals := make([]float64, 4)
	for i, s := range []string{top, left, width, height} {
		f, err := ParsePercent(s)
		if err != nil {
			panic(err)
		}
		vals[i] = f
	}
	return HighlightArea{Top: vals[0], Left: vals[1], Width: vals[2], Height: vals[3]}
}

// sortIDs sorts ids ascending in place.
func sortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
