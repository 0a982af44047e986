package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dgallion1/citeview/internal/citation"
	"github.com/dgallion1/citeview/internal/controller"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer and the API key.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsCommand is a message from the browser.
type wsCommand struct {
	Type       string  `json:"type"` // activate, prev, next, page, resize, scrolled
	ID         *int    `json:"id,omitempty"`
	Page       int     `json:"page,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Activation uint64  `json:"activation,omitempty"`
}

type wsClient struct {
	id   string
	send chan controller.Event
}

// Hub fans controller events out to connected websocket clients. It is the
// controller's Notifier, so Publish must never block the event loop: a client
// whose buffer is full misses the event and catches up on the next state.
type Hub struct {
	log        *slog.Logger
	bufferSize int

	mu      sync.Mutex
	clients map[string]*wsClient
}

// NewHub creates a hub with a per-client buffer of bufferSize events.
func NewHub(log *slog.Logger, bufferSize int) *Hub {
	if bufferSize < 1 {
		bufferSize = 16
	}
	return &Hub{
		log:        log,
		bufferSize: bufferSize,
		clients:    make(map[string]*wsClient),
	}
}

// Publish implements controller.Notifier.
func (h *Hub) Publish(e controller.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- e:
		default:
			h.log.Warn("dropping event for slow client", "client_id", c.id, "type", e.Type)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() *wsClient {
	c := &wsClient{id: uuid.NewString(), send: make(chan controller.Event, h.bufferSize)}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

// sendTo delivers e to one client only, dropping it if the buffer is full.
func (h *Hub) sendTo(c *wsClient, e controller.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- e:
	default:
	}
}

// ServeWS upgrades the request and relays commands to ctrl until the
// client disconnects.
func (h *Hub) ServeWS(ctrl *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("websocket upgrade", "error", err)
			return
		}
		defer conn.Close()

		client := h.register()
		log := h.log.With("client_id", client.id)
		log.Info("websocket connected")

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.writeLoop(conn, client, log)
		}()

		if err := ctrl.Resync(); err != nil {
			h.sendTo(client, controller.Event{Type: controller.EventError, Error: err.Error()})
		}

		for {
			var cmd wsCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("websocket read", "error", err)
				}
				break
			}
			if err := dispatchCommand(ctrl, cmd); err != nil {
				h.sendTo(client, controller.Event{Type: controller.EventError, Error: err.Error()})
				if errors.Is(err, controller.ErrStopped) {
					break
				}
			}
		}

		h.unregister(client)
		wg.Wait()
		log.Info("websocket disconnected")
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, c *wsClient, log *slog.Logger) {
	for e := range c.send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(e); err != nil {
			log.Warn("websocket write", "error", err)
			conn.Close()
			// Drain so unregister's close ends the loop.
			for range c.send {
			}
			return
		}
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

var (
	errUnknownCommand  = errors.New("unknown command type")
	errMissingCitation = errors.New("activate requires a citation id")
	errNegativeWidth   = errors.New("width must be non-negative")
)

func dispatchCommand(ctrl *controller.Controller, cmd wsCommand) error {
	switch cmd.Type {
	case "activate":
		if cmd.ID == nil {
			return errMissingCitation
		}
		return ctrl.ActivateCitation(citation.ID(*cmd.ID))
	case "prev":
		return ctrl.Prev()
	case "next":
		return ctrl.Next()
	case "page":
		return ctrl.GoToPage(cmd.Page)
	case "resize":
		if cmd.Width < 0 {
			return errNegativeWidth
		}
		return ctrl.Resize(cmd.Width)
	case "scrolled":
		return ctrl.ScrollCompleted(cmd.Activation)
	default:
		return errUnknownCommand
	}
}
