// Package highlight turns a citation's page-relative area into overlay
// geometry for a rendered page.
package highlight

import (
	"math"

	"github.com/dgallion1/citeview/internal/citation"
)

// Rect is an overlay rectangle in the rendered page's length units, with the
// origin at the page's top-left corner.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Project scales t's area to a page rendered at pageWidth x pageHeight.
// ok is false when either dimension is unknown (zero, negative or NaN); the
// overlay must then be suppressed rather than drawn degenerate.
func Project(t citation.Target, pageWidth, pageHeight float64) (Rect, bool) {
	if !measured(pageWidth) || !measured(pageHeight) {
		return Rect{}, false
	}
	a := t.Area
	return Rect{
		Top:    a.Top * pageHeight,
		Left:   a.Left * pageWidth,
		Width:  a.Width * pageWidth,
		Height: a.Height * pageHeight,
	}, true
}

func measured(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Center returns the rectangle's center point, used as the scroll anchor.
func (r Rect) Center() (x, y float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}
