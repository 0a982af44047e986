package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/citeview/internal/citation"
	"github.com/dgallion1/citeview/internal/document"
	"github.com/dgallion1/citeview/internal/highlight"
	"github.com/dgallion1/citeview/internal/viewer"
	"github.com/google/uuid"
)

// ErrStopped is returned by entry points once the controller has stopped.
var ErrStopped = errors.New("controller stopped")

// Options tunes the controller.
type Options struct {
	Source        string        // document source passed to Renderer.Load
	FrameInterval time.Duration // resize throttle window; 0 disables throttling
	RenderTimeout time.Duration
	QueueSize     int
}

// Controller owns the single viewer session. Every input (citation click,
// paging, resize, load and render callbacks) is posted onto one channel and
// applied by one goroutine, so the viewer state is never mutated concurrently.
type Controller struct {
	reg      *citation.Registry
	renderer document.Renderer
	notify   Notifier
	log      *slog.Logger
	stats    *document.Stats
	opts     Options

	sessionID string
	events    chan func(*Controller)
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once

	// Owned by the event loop.
	state     *viewer.State
	activeID  citation.ID
	loaded    bool
	loadErr   error
	renderErr error

	surface    document.Surface
	hasSurface bool
	renderSeq  uint64
	appliedSeq uint64

	activationSeq uint64 // first render seq that can show the latest activation

	scrollOwed  uint64 // activation whose scroll has not been issued yet
	scrolledFor uint64 // activation whose scroll was issued
	settled     bool

	lastResize   time.Time
	pendingWidth float64
	frameArmed   bool
}

// New creates a controller. Call Start to load the document and begin
// processing events.
func New(reg *citation.Registry, renderer document.Renderer, notify Notifier, stats *document.Stats, log *slog.Logger, opts Options) *Controller {
	if notify == nil {
		notify = discard{}
	}
	if stats == nil {
		stats = document.NewStats(time.Hour)
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 30 * time.Second
	}
	sessionID := uuid.New().String()
	return &Controller{
		reg:       reg,
		renderer:  renderer,
		notify:    notify,
		log:       log.With("session_id", sessionID),
		stats:     stats,
		opts:      opts,
		sessionID: sessionID,
		events:    make(chan func(*Controller), opts.QueueSize),
		done:      make(chan struct{}),
		state:     viewer.New(),
	}
}

// Start launches the event loop and the one-shot document load.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		select {
		case <-c.done:
			return
		default:
		}
		c.ctx, c.cancel = context.WithCancel(ctx)

		go c.run()

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			loadCtx, cancel := context.WithTimeout(c.ctx, c.opts.RenderTimeout)
			start := time.Now()
			info, err := c.renderer.Load(loadCtx, c.opts.Source)
			cancel()
			if err != nil {
				_ = c.post(func(c *Controller) { c.onDocumentRenderError(err) })
				return
			}
			c.log.Info("document loaded", "source", info.Source, "pages", info.PageCount,
				"duration_ms", time.Since(start).Milliseconds())
			_ = c.post(func(c *Controller) { c.onDocumentLoaded(info) })
		}()
	})
}

// Stop ends the session and waits for in-flight renders to return.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		if c.cancel == nil {
			close(c.done)
			return
		}
		c.cancel()
		<-c.done
		c.wg.Wait()
	})
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case fn := <-c.events:
			fn(c)
		}
	}
}

// post enqueues fn for the event loop.
func (c *Controller) post(fn func(*Controller)) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.events <- fn:
		return nil
	case <-c.done:
		return ErrStopped
	}
}

// ActivateCitation handles a click on citation marker id.
func (c *Controller) ActivateCitation(id citation.ID) error {
	return c.post(func(c *Controller) { c.onCitationActivated(id) })
}

// Prev moves one page back; a no-op on the first page.
func (c *Controller) Prev() error {
	return c.post(func(c *Controller) { c.navigate(c.state.Prev) })
}

// Next moves one page forward; a no-op on the last page or before load.
func (c *Controller) Next() error {
	return c.post(func(c *Controller) { c.navigate(c.state.Next) })
}

// GoToPage jumps to page n, clamped into the document.
func (c *Controller) GoToPage(n int) error {
	return c.post(func(c *Controller) {
		c.navigate(func() bool {
			before := c.state.CurrentPage()
			c.state.GoToPage(n)
			return c.state.CurrentPage() != before
		})
	})
}

// Resize reports a new container width measurement.
func (c *Controller) Resize(width float64) error {
	return c.post(func(c *Controller) { c.onContainerResized(width) })
}

// ScrollCompleted acknowledges the scroll issued for activation.
func (c *Controller) ScrollCompleted(activation uint64) error {
	return c.post(func(c *Controller) { c.onScrollCompleted(activation) })
}

// Snapshot returns the session state as seen after all previously posted
// events.
func (c *Controller) Snapshot() (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := c.post(func(c *Controller) { reply <- c.snapshot() }); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-c.done:
		return Snapshot{}, ErrStopped
	}
}

// Resync republishes the current state. Subscribers that attach late call
// it so their first state event is ordered with every later one.
func (c *Controller) Resync() error {
	return c.post(func(c *Controller) { c.publishState() })
}

// Registry returns the citation table the controller resolves ids against.
func (c *Controller) Registry() *citation.Registry { return c.reg }

// Stats returns render latency stats.
func (c *Controller) Stats() *document.Stats { return c.stats }

func (c *Controller) onDocumentLoaded(info document.Info) {
	if err := c.state.OnDocumentLoaded(info.PageCount); err != nil {
		if errors.Is(err, viewer.ErrInvalidPageCount) {
			c.onDocumentRenderError(&document.LoadError{Source: c.opts.Source, Err: err})
			return
		}
		c.log.Warn("document page count anomaly", "error", err)
	}
	c.loaded = true
	c.loadErr = nil
	c.requestRender()
	c.publishState()
}

// onDocumentRenderError records a load failure. It is shown in place of the
// viewer and never retried.
func (c *Controller) onDocumentRenderError(err error) {
	c.log.Error("document load failed", "source", c.opts.Source, "error", err)
	c.loadErr = err
	c.notify.Publish(Event{Type: EventError, Error: err.Error()})
	c.publishState()
}

func (c *Controller) onCitationActivated(id citation.ID) {
	target, ok := c.reg.Lookup(id)
	if !ok {
		c.log.Warn("unknown citation", "citation_id", int(id))
		c.state.ClearCitation()
		c.activeID = 0
		c.scrollOwed = 0
		c.settled = false
		c.publishState()
		return
	}

	c.state.ActivateCitation(target)
	c.activeID = id
	c.scrollOwed = c.state.Activations()
	c.settled = false
	c.activationSeq = c.renderSeq + 1
	c.log.Info("citation activated", "citation_id", int(id), "page", c.state.CurrentPage(),
		"activation", c.scrollOwed)
	c.requestRender()
	c.publishState()
}

// navigate applies a manual page move. Leaving the target page drops any
// scroll still owed and the settled flag; returning does not scroll again.
func (c *Controller) navigate(move func() bool) {
	if !move() {
		c.publishState()
		return
	}
	if !c.state.HighlightVisible() {
		c.scrollOwed = 0
		c.settled = false
	}
	c.requestRender()
	c.publishState()
}

func (c *Controller) onContainerResized(width float64) {
	now := time.Now()
	interval := c.opts.FrameInterval
	if interval <= 0 || (!c.frameArmed && now.Sub(c.lastResize) >= interval) {
		c.applyWidth(width, now)
		return
	}

	c.pendingWidth = width
	if c.frameArmed {
		return
	}
	c.frameArmed = true
	wait := interval - now.Sub(c.lastResize)
	time.AfterFunc(wait, func() {
		_ = c.post(func(c *Controller) {
			c.frameArmed = false
			c.applyWidth(c.pendingWidth, time.Now())
		})
	})
}

func (c *Controller) applyWidth(width float64, now time.Time) {
	c.lastResize = now
	prev, had := c.state.ViewportWidth()
	c.state.SetViewportWidth(width)
	if cur, _ := c.state.ViewportWidth(); had && cur == prev {
		return
	}
	c.requestRender()
	c.publishState()
}

type renderRequest struct {
	seq   uint64
	page  int
	width float64
}

// requestRender asks the renderer for the current page at the current width.
// The result comes back through the event loop as onRenderComplete.
func (c *Controller) requestRender() {
	if !c.loaded {
		return
	}
	c.renderSeq++
	width, _ := c.state.ViewportWidth()
	req := renderRequest{seq: c.renderSeq, page: c.state.CurrentPage(), width: width}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, c.opts.RenderTimeout)
		start := time.Now()
		surface, err := c.renderer.RenderPage(ctx, req.page, req.width)
		cancel()
		if err == nil {
			c.stats.Record(req.page, time.Since(start))
		} else {
			c.stats.RecordFailure(req.page)
		}
		_ = c.post(func(c *Controller) { c.onRenderComplete(req, surface, err) })
	}()
}

func (c *Controller) onRenderComplete(req renderRequest, surface document.Surface, err error) {
	if req.page != c.state.CurrentPage() || req.seq < c.appliedSeq {
		c.log.Debug("discarding stale render", "page", req.page, "current_page", c.state.CurrentPage(), "seq", req.seq)
		return
	}
	if err != nil {
		c.log.Error("page render failed", "page", req.page, "width", req.width, "error", err)
		c.renderErr = err
		c.notify.Publish(Event{Type: EventError, Error: err.Error()})
		c.publishState()
		return
	}

	c.appliedSeq = req.seq
	c.surface = surface
	c.hasSurface = true
	c.renderErr = nil

	if c.scrollOwed != 0 && c.scrollOwed == c.state.Activations() && c.state.HighlightVisible() && c.pageRendered() {
		c.onHighlightRendered()
	}
	c.publishState()
}

// onHighlightRendered issues the scroll-into-view command for the owed
// activation once the overlay can be projected.
func (c *Controller) onHighlightRendered() {
	target, ok := c.state.ActiveCitation()
	if !ok {
		return
	}
	rect, ok := highlight.Project(target, c.surface.Width, c.surface.Height)
	if !ok {
		return
	}
	cmd := ScrollCommand{
		Activation: c.scrollOwed,
		CitationID: c.activeID,
		Page:       target.PageNumber,
		Rect:       rect,
		Block:      "center",
		Behavior:   "smooth",
	}
	c.scrolledFor = c.scrollOwed
	c.scrollOwed = 0
	c.notify.Publish(Event{Type: EventScroll, Scroll: &cmd})
}

func (c *Controller) onScrollCompleted(activation uint64) {
	if activation == 0 || activation != c.scrolledFor || activation != c.state.Activations() {
		return
	}
	if !c.state.HighlightVisible() {
		return
	}
	c.settled = true
	c.publishState()
}

func (c *Controller) pageRendered() bool {
	return c.hasSurface && c.surface.Page == c.state.CurrentPage() && c.appliedSeq >= c.activationSeq
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		SessionID:   c.sessionID,
		CurrentPage: c.state.CurrentPage(),
		CanPrev:     c.state.CanPrev(),
		CanNext:     c.state.CanNext(),
		Activation:  c.state.Activations(),
		Loaded:      c.loaded,
		Phase: viewer.DerivePhase(c.state, viewer.PhaseInput{
			PageRendered: c.pageRendered(),
			Settled:      c.settled,
		}),
	}
	if n, ok := c.state.TotalPages(); ok {
		s.TotalPages = &n
	}
	if w, ok := c.state.ViewportWidth(); ok {
		s.ViewportWidth = &w
	}
	if c.hasSurface {
		surface := c.surface
		s.Rendered = &surface
	}
	if t, ok := c.state.ActiveCitation(); ok {
		s.ActiveCitation = &ActiveCitation{ID: c.activeID, Target: t}
		if c.state.HighlightVisible() && c.pageRendered() {
			if rect, ok := highlight.Project(t, c.surface.Width, c.surface.Height); ok {
				s.Highlight = &rect
			}
		}
	}
	if c.loadErr != nil {
		s.LoadError = c.loadErr.Error()
	}
	if c.renderErr != nil {
		s.RenderError = c.renderErr.Error()
	}

	ids := c.reg.IDs()
	s.Markers = make([]Marker, 0, len(ids))
	for _, id := range ids {
		t, _ := c.reg.Lookup(id)
		s.Markers = append(s.Markers, Marker{ID: id, PageNumber: t.PageNumber, Active: c.state.IsActive(t)})
	}
	return s
}

func (c *Controller) publishState() {
	s := c.snapshot()
	c.notify.Publish(Event{Type: EventState, State: &s})
}
