package viewer

import (
	"errors"
	"fmt"
	"math"

	"github.com/dgallion1/citeview/internal/citation"
)

var (
	// ErrInvalidPageCount is returned when a load reports fewer than one page.
	ErrInvalidPageCount = errors.New("page count must be >= 1")

	// ErrPageCountChanged reports a second load with a different page count.
	// The new count is applied; documents are static so this is an anomaly.
	ErrPageCountChanged = errors.New("page count changed after load")
)

// State holds the viewer's page position, active citation and measured
// container width. It is not safe for concurrent use; the controller owns
// the single instance and mutates it from its event loop only.
type State struct {
	currentPage int
	totalPages  int // 0 until the document reports its page count

	active    citation.Target
	hasActive bool

	// activations counts ActivateCitation calls. The controller keys the
	// scroll-into-view side effect off it.
	activations uint64

	viewportWidth float64
	hasWidth      bool
}

// New returns an initialized State.
func New() *State {
	s := &State{}
	s.Initialize()
	return s
}

// Initialize resets to page 1 with nothing known.
func (s *State) Initialize() {
	*s = State{currentPage: 1}
}

// OnDocumentLoaded records the page count and re-clamps the current page.
func (s *State) OnDocumentLoaded(pageCount int) error {
	if pageCount < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPageCount, pageCount)
	}
	prev := s.totalPages
	s.totalPages = pageCount
	s.currentPage = s.clamp(s.currentPage)
	if prev != 0 && prev != pageCount {
		return fmt.Errorf("%w: %d -> %d", ErrPageCountChanged, prev, pageCount)
	}
	return nil
}

// GoToPage moves to page n, saturating into [1, totalPages]. The active
// citation is kept; its highlight simply stops being visible.
func (s *State) GoToPage(n int) {
	s.currentPage = s.clamp(n)
}

// ActivateCitation sets the active target and jumps to its page in one step.
func (s *State) ActivateCitation(t citation.Target) {
	s.active = t
	s.hasActive = true
	s.currentPage = s.clamp(t.PageNumber)
	s.activations++
}

// ClearCitation drops the active target.
func (s *State) ClearCitation() {
	s.active = citation.Target{}
	s.hasActive = false
}

// SetViewportWidth records the latest container measurement. Negative and
// NaN widths are stored as zero.
func (s *State) SetViewportWidth(w float64) {
	if math.IsNaN(w) || w < 0 {
		w = 0
	}
	s.viewportWidth = w
	s.hasWidth = true
}

func (s *State) clamp(n int) int {
	if n < 1 {
		n = 1
	}
	if s.totalPages > 0 && n > s.totalPages {
		n = s.totalPages
	}
	return n
}

// CurrentPage returns the 1-indexed page on display.
func (s *State) CurrentPage() int { return s.currentPage }

// TotalPages returns the page count, or ok=false before load.
func (s *State) TotalPages() (int, bool) { return s.totalPages, s.totalPages > 0 }

// ActiveCitation returns the highlighted target, if any.
func (s *State) ActiveCitation() (citation.Target, bool) { return s.active, s.hasActive }

// ViewportWidth returns the last measured container width, if any.
func (s *State) ViewportWidth() (float64, bool) { return s.viewportWidth, s.hasWidth }

// Activations returns how many times a citation has been activated.
func (s *State) Activations() uint64 { return s.activations }

// HighlightVisible reports whether the active citation is on the current
// page. Computed on every call so manual navigation cannot desynchronize it.
func (s *State) HighlightVisible() bool {
	return s.hasActive && s.active.PageNumber == s.currentPage
}

// IsActive reports whether t is the active citation target.
func (s *State) IsActive(t citation.Target) bool {
	return s.hasActive && s.active == t
}

// CanPrev reports whether Prev would move.
func (s *State) CanPrev() bool { return s.currentPage > 1 }

// CanNext reports whether Next would move. Unknown page counts disable it.
func (s *State) CanNext() bool { return s.totalPages > 0 && s.currentPage < s.totalPages }

// Prev moves one page back when possible and reports whether it moved.
func (s *State) Prev() bool {
	if !s.CanPrev() {
		return false
	}
	s.GoToPage(s.currentPage - 1)
	return true
}

// Next moves one page forward when possible and reports whether it moved.
func (s *State) Next() bool {
	if !s.CanNext() {
		return false
	}
	s.GoToPage(s.currentPage + 1)
	return true
}
