package document

import (
	"context"
	"fmt"
	"sync"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFRenderer reads page geometry from a PDF file. It tries the Go library
// first, then falls back to pdfinfo if enabled.
type PDFRenderer struct {
	FallbackPdfinfo bool

	mu     sync.RWMutex
	source string
	pages  []pageGeometry
}

// NewPDFRenderer returns a renderer with the pdfinfo fallback configured.
func NewPDFRenderer(fallbackPdfinfo bool) *PDFRenderer {
	return &PDFRenderer{FallbackPdfinfo: fallbackPdfinfo}
}

// Load opens the PDF at source and records every page's size.
func (p *PDFRenderer) Load(ctx context.Context, source string) (Info, error) {
	pages, err := readPDFGeometry(ctx, source)
	if err != nil && p.FallbackPdfinfo && ctx.Err() == nil {
		pages, err = readPdfinfoGeometry(ctx, source)
	}
	if err != nil {
		return Info{}, &LoadError{Source: source, Err: err}
	}
	if len(pages) == 0 {
		return Info{}, &LoadError{Source: source, Err: fmt.Errorf("document has no pages")}
	}

	p.mu.Lock()
	p.source = source
	p.pages = pages
	p.mu.Unlock()

	return Info{Source: source, PageCount: len(pages)}, nil
}

// RenderPage reports the size page occupies when laid out at width.
func (p *PDFRenderer) RenderPage(ctx context.Context, page int, width float64) (Surface, error) {
	if err := ctx.Err(); err != nil {
		return Surface{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.pages == nil {
		return Surface{}, ErrNotLoaded
	}
	if page < 1 || page > len(p.pages) {
		return Surface{}, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, len(p.pages))
	}
	return p.pages[page-1].scale(page, width), nil
}

// Close drops the loaded geometry.
func (p *PDFRenderer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = nil
	return nil
}

func readPDFGeometry(ctx context.Context, path string) (pages []pageGeometry, err error) {
	// The reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages = make([]pageGeometry, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, geometryFor(letterBox, 0))
			continue
		}
		box, rotate := pageBox(page.V)
		pages = append(pages, geometryFor(box, rotate))
	}
	return pages, nil
}

// pageBox resolves /MediaBox and /Rotate, walking /Parent for inherited
// attributes.
func pageBox(v pdflib.Value) (Box, int) {
	box, haveBox := Box{}, false
	rotate, haveRotate := 0, false
	for depth := 0; !v.IsNull() && depth < 32; depth++ {
		if !haveBox {
			if mb := v.Key("MediaBox"); mb.Kind() == pdflib.Array && mb.Len() == 4 {
				box = Box{
					LLX: mb.Index(0).Float64(),
					LLY: mb.Index(1).Float64(),
					URX: mb.Index(2).Float64(),
					URY: mb.Index(3).Float64(),
				}
				haveBox = true
			}
		}
		if !haveRotate {
			if r := v.Key("Rotate"); r.Kind() == pdflib.Integer {
				rotate = int(r.Int64())
				haveRotate = true
			}
		}
		if haveBox && haveRotate {
			break
		}
		v = v.Key("Parent")
	}
	if !haveBox {
		box = letterBox
	}
	return box, rotate
}
