package viewer

// Phase is the per-activation display state of the citation highlight.
type Phase string

const (
	PhaseIdle        Phase = "idle"        // no active citation
	PhaseNavigating  Phase = "navigating"  // target page requested, not rendered yet
	PhaseHighlighted Phase = "highlighted" // overlay visible, scroll not acknowledged
	PhaseSettled     Phase = "settled"     // overlay visible and scrolled into view
	PhaseStale       Phase = "stale"       // user paged away from the target page
)

// PhaseInput is the bookkeeping the controller keeps next to State.
type PhaseInput struct {
	// PageRendered is true when the latest applied render completion is for
	// the current page.
	PageRendered bool
	// Settled is true when the UI acknowledged the scroll for the current
	// activation and the user has not paged away since.
	Settled bool
}

// DerivePhase computes the phase from state. It is never stored.
func DerivePhase(s *State, in PhaseInput) Phase {
	t, ok := s.ActiveCitation()
	switch {
	case !ok:
		return PhaseIdle
	case t.PageNumber != s.CurrentPage():
		// Either a manual page change or an activation whose page was
		// clamped by a shorter document.
		return PhaseStale
	case !in.PageRendered:
		return PhaseNavigating
	case in.Settled:
		return PhaseSettled
	default:
		return PhaseHighlighted
	}
}
