package viewer

import (
	"errors"
	"testing"

	"github.com/dgallion1/citeview/internal/citation"
)

var page3 = citation.Target{
	PageNumber: 3,
	Area:       citation.HighlightArea{Top: 0.215, Left: 0.1, Width: 0.8, Height: 0.05},
}

func TestState_Initialize(t *testing.T) {
	s := New()
	if s.CurrentPage() != 1 {
		t.Errorf("expected page 1, got %d", s.CurrentPage())
	}
	if _, ok := s.TotalPages(); ok {
		t.Error("expected total pages to be unknown")
	}
	if _, ok := s.ActiveCitation(); ok {
		t.Error("expected no active citation")
	}
	if _, ok := s.ViewportWidth(); ok {
		t.Error("expected viewport width to be unknown")
	}

	s.ActivateCitation(page3)
	s.SetViewportWidth(800)
	s.Initialize()
	if s.CurrentPage() != 1 || s.HighlightVisible() || s.Activations() != 0 {
		t.Errorf("expected Initialize to reset state, got page=%d visible=%v activations=%d",
			s.CurrentPage(), s.HighlightVisible(), s.Activations())
	}
}

func TestState_GoToPageClampsWhenLoaded(t *testing.T) {
	s := New()
	if err := s.OnDocumentLoaded(20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, n := range []int{-100, -1, 0, 1, 2, 10, 19, 20, 21, 1000} {
		s.GoToPage(n)
		got := s.CurrentPage()
		if got < 1 || got > 20 {
			t.Errorf("GoToPage(%d): page %d outside [1,20]", n, got)
		}
		want := n
		if want < 1 {
			want = 1
		}
		if want > 20 {
			want = 20
		}
		if got != want {
			t.Errorf("GoToPage(%d): expected %d, got %d", n, want, got)
		}
	}
}

func TestState_GoToPageBeforeLoad(t *testing.T) {
	s := New()
	s.GoToPage(50)
	if s.CurrentPage() != 50 {
		t.Errorf("expected page 50 before load, got %d", s.CurrentPage())
	}
	s.GoToPage(-3)
	if s.CurrentPage() != 1 {
		t.Errorf("expected page 1, got %d", s.CurrentPage())
	}

	s.GoToPage(50)
	if err := s.OnDocumentLoaded(20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CurrentPage() != 20 {
		t.Errorf("expected load to clamp page to 20, got %d", s.CurrentPage())
	}
}

func TestState_OnDocumentLoaded(t *testing.T) {
	s := New()
	if err := s.OnDocumentLoaded(0); !errors.Is(err, ErrInvalidPageCount) {
		t.Errorf("expected ErrInvalidPageCount, got %v", err)
	}
	if _, ok := s.TotalPages(); ok {
		t.Error("expected invalid count to be ignored")
	}

	if err := s.OnDocumentLoaded(20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.OnDocumentLoaded(20); err != nil {
		t.Errorf("expected repeated identical load to be idempotent, got %v", err)
	}

	err := s.OnDocumentLoaded(12)
	if !errors.Is(err, ErrPageCountChanged) {
		t.Errorf("expected ErrPageCountChanged, got %v", err)
	}
	if n, _ := s.TotalPages(); n != 12 {
		t.Errorf("expected later load to win with 12 pages, got %d", n)
	}
}

func TestState_ActivateCitationIsAtomic(t *testing.T) {
	s := New()
	if err := s.OnDocumentLoaded(20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.ActivateCitation(page3)

	got, ok := s.ActiveCitation()
	if !ok || got != page3 {
		t.Fatalf("expected active citation %+v, got %+v (ok=%v)", page3, got, ok)
	}
	if s.CurrentPage() != 3 {
		t.Errorf("expected page 3, got %d", s.CurrentPage())
	}
	if !s.HighlightVisible() {
		t.Error("expected highlight to be visible")
	}
	if !s.IsActive(page3) {
		t.Error("expected IsActive to match the target")
	}
}

func TestState_ActivateTwiceSameState(t *testing.T) {
	once := New()
	_ = once.OnDocumentLoaded(20)
	once.ActivateCitation(page3)

	twice := New()
	_ = twice.OnDocumentLoaded(20)
	twice.ActivateCitation(page3)
	twice.ActivateCitation(page3)

	if once.CurrentPage() != twice.CurrentPage() {
		t.Errorf("expected same page, got %d and %d", once.CurrentPage(), twice.CurrentPage())
	}
	a, _ := once.ActiveCitation()
	b, _ := twice.ActiveCitation()
	if a != b {
		t.Errorf("expected same active citation, got %+v and %+v", a, b)
	}
	if twice.Activations() != 2 {
		t.Errorf("expected 2 activations, got %d", twice.Activations())
	}
}

func TestState_ActivateClampsToShortDocument(t *testing.T) {
	s := New()
	_ = s.OnDocumentLoaded(2)
	s.ActivateCitation(page3)
	if s.CurrentPage() != 2 {
		t.Errorf("expected clamped page 2, got %d", s.CurrentPage())
	}
	if s.HighlightVisible() {
		t.Error("expected highlight hidden when its page does not exist")
	}
}

func TestState_ManualNavigationKeepsCitation(t *testing.T) {
	s := New()
	_ = s.OnDocumentLoaded(20)
	s.ActivateCitation(page3)

	if !s.Next() {
		t.Fatal("expected Next to move")
	}
	if s.HighlightVisible() {
		t.Error("expected highlight hidden on page 4")
	}
	if _, ok := s.ActiveCitation(); !ok {
		t.Error("expected active citation to survive manual navigation")
	}

	if !s.Prev() {
		t.Fatal("expected Prev to move")
	}
	if !s.HighlightVisible() {
		t.Error("expected highlight visible again after returning to page 3")
	}
}

func TestState_PrevNextBounds(t *testing.T) {
	s := New()
	if s.CanNext() {
		t.Error("expected Next disabled while page count is unknown")
	}
	if s.Next() {
		t.Error("expected Next to be a no-op while page count is unknown")
	}

	_ = s.OnDocumentLoaded(20)
	if s.CanPrev() || s.Prev() {
		t.Error("expected Prev to be a no-op on page 1")
	}
	if s.CurrentPage() != 1 {
		t.Errorf("expected page 1, got %d", s.CurrentPage())
	}

	s.GoToPage(20)
	if s.CanNext() || s.Next() {
		t.Error("expected Next to be a no-op on the last page")
	}
	if s.CurrentPage() != 20 {
		t.Errorf("expected page 20, got %d", s.CurrentPage())
	}
}

func TestState_ClearCitation(t *testing.T) {
	s := New()
	_ = s.OnDocumentLoaded(20)
	s.ActivateCitation(page3)
	s.ClearCitation()
	if _, ok := s.ActiveCitation(); ok {
		t.Error("expected no active citation")
	}
	if s.CurrentPage() != 3 {
		t.Errorf("expected clear to keep page 3, got %d", s.CurrentPage())
	}
}

func TestState_SetViewportWidth(t *testing.T) {
	s := New()
	s.SetViewportWidth(812.5)
	if w, ok := s.ViewportWidth(); !ok || w != 812.5 {
		t.Errorf("expected width 812.5, got %v (ok=%v)", w, ok)
	}
	s.SetViewportWidth(-4)
	if w, _ := s.ViewportWidth(); w != 0 {
		t.Errorf("expected negative width stored as 0, got %v", w)
	}
}

func TestDerivePhase(t *testing.T) {
	s := New()
	_ = s.OnDocumentLoaded(20)

	if p := DerivePhase(s, PhaseInput{}); p != PhaseIdle {
		t.Errorf("expected %q, got %q", PhaseIdle, p)
	}

	s.ActivateCitation(page3)
	transitions := []struct {
		in   PhaseInput
		want Phase
	}{
		{PhaseInput{}, PhaseNavigating},
		{PhaseInput{PageRendered: true}, PhaseHighlighted},
		{PhaseInput{PageRendered: true, Settled: true}, PhaseSettled},
	}
	for _, tr := range transitions {
		if p := DerivePhase(s, tr.in); p != tr.want {
			t.Errorf("input %+v: expected %q, got %q", tr.in, tr.want, p)
		}
	}

	s.Next()
	if p := DerivePhase(s, PhaseInput{PageRendered: true}); p != PhaseStale {
		t.Errorf("expected %q after paging away, got %q", PhaseStale, p)
	}
}
