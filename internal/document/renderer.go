package document

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned by RenderPage before a successful Load.
	ErrNotLoaded = errors.New("document not loaded")
	// ErrPageOutOfRange is returned for page numbers outside [1, PageCount].
	ErrPageOutOfRange = errors.New("page out of range")
)

// Renderer is the document-rendering collaborator. The controller calls
// Load once at startup and RenderPage whenever the page or width changes.
// Implementations must be safe for concurrent RenderPage calls.
type Renderer interface {
	Load(ctx context.Context, source string) (Info, error)
	RenderPage(ctx context.Context, page int, width float64) (Surface, error)
	Close() error
}

// Info describes a loaded document.
type Info struct {
	Source    string `json:"source"`
	PageCount int    `json:"page_count"`
}

// Surface is the observable result of rendering a page at a width.
type Surface struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LoadError reports that a document source could not be loaded.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Box is a page box in PDF user space units ([llx lly urx ury]).
type Box struct {
	LLX, LLY, URX, URY float64
}

// Width returns the box width.
func (b Box) Width() float64 { return b.URX - b.LLX }

// Height returns the box height.
func (b Box) Height() float64 { return b.URY - b.LLY }

// letterBox is used when a page carries no usable MediaBox.
var letterBox = Box{URX: 612, URY: 792}

// pageGeometry is the displayed size of one page after rotation.
type pageGeometry struct {
	width, height float64
}

func geometryFor(box Box, rotate int) pageGeometry {
	w, h := box.Width(), box.Height()
	if w < 0 {
		w = -w
	}
	if h < 0 {
		h = -h
	}
	if w == 0 || h == 0 {
		w, h = letterBox.Width(), letterBox.Height()
	}
	switch ((rotate % 360) + 360) % 360 {
	case 90, 270:
		w, h = h, w
	}
	return pageGeometry{width: w, height: h}
}

// scale renders g at width. A width <= 0 renders at natural size.
func (g pageGeometry) scale(page int, width float64) Surface {
	if width <= 0 {
		return Surface{Page: page, Width: g.width, Height: g.height}
	}
	return Surface{Page: page, Width: width, Height: g.height * width / g.width}
}
