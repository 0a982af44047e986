package controller

import (
	"github.com/dgallion1/citeview/internal/citation"
	"github.com/dgallion1/citeview/internal/document"
	"github.com/dgallion1/citeview/internal/highlight"
	"github.com/dgallion1/citeview/internal/viewer"
)

// EventType names what a published Event carries.
type EventType string

const (
	EventState  EventType = "state"
	EventScroll EventType = "scroll"
	EventError  EventType = "error"
)

// Event is pushed to the presentation layer after every transition.
type Event struct {
	Type   EventType      `json:"type"`
	State  *Snapshot      `json:"state,omitempty"`
	Scroll *ScrollCommand `json:"scroll,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// ScrollCommand asks the UI to bring the highlight overlay into view. One is
// issued per activation; the UI acknowledges it with ScrollCompleted.
type ScrollCommand struct {
	Activation uint64         `json:"activation"`
	CitationID citation.ID    `json:"citation_id"`
	Page       int            `json:"page"`
	Rect       highlight.Rect `json:"rect"`
	Block      string         `json:"block"`
	Behavior   string         `json:"behavior"`
}

// Notifier receives controller events. Publish is called from the event loop
// and must not block.
type Notifier interface {
	Publish(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Publish(e Event) { f(e) }

type discard struct{}

func (discard) Publish(Event) {}

// Marker is the presentation state of one citation marker.
type Marker struct {
	ID         citation.ID `json:"id"`
	PageNumber int         `json:"page_number"`
	Active     bool        `json:"active"`
}

// ActiveCitation pairs the activated id with its target.
type ActiveCitation struct {
	ID     citation.ID     `json:"id"`
	Target citation.Target `json:"target"`
}

// Snapshot is a read-only, JSON-safe copy of the viewer session.
type Snapshot struct {
	SessionID      string            `json:"session_id"`
	CurrentPage    int               `json:"current_page"`
	TotalPages     *int              `json:"total_pages"`
	CanPrev        bool              `json:"can_prev"`
	CanNext        bool              `json:"can_next"`
	ViewportWidth  *float64          `json:"viewport_width"`
	ActiveCitation *ActiveCitation   `json:"active_citation"`
	Activation     uint64            `json:"activation"`
	Phase          viewer.Phase      `json:"phase"`
	Rendered       *document.Surface `json:"rendered"`
	Highlight      *highlight.Rect   `json:"highlight"`
	Markers        []Marker          `json:"markers"`
	Loaded         bool              `json:"loaded"`
	LoadError      string            `json:"load_error,omitempty"`
	RenderError    string            `json:"render_error,omitempty"`
}

// IsActive reports whether the marker for id is drawn active.
func (s Snapshot) IsActive(id citation.ID) bool {
	for _, m := range s.Markers {
		if m.ID == id {
			return m.Active
		}
	}
	return false
}
