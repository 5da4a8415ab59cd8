// Package notify delivers lock announcements ("results" and "leader" notifications).
// The Hub keeps every live subscriber (an SSE connection on the notifications stream)
// grouped by the notification kind it asked for, and pushes each announcement to the
// matching group the moment an event is locked, so watchers never have to poll.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/trentd187/league-scoring/internal/models"
)

// ErrBacklogFull is returned by Notify when the Hub's queue is full. The lock that
// triggered the notification has already committed, so callers only log it.
var ErrBacklogFull = errors.New("notification backlog is full")

// ErrClosed is returned by Notify after the Hub's Run loop has stopped.
var ErrClosed = errors.New("notification hub is closed")

// Client is one connected subscriber.
type Client struct {
	Kind models.NotificationKind // "" subscribes to every kind
	Send chan []byte            // Buffered; the stream writer drains it
}

// NewClient creates a subscriber with a small outgoing buffer.
func NewClient(kind models.NotificationKind) *Client {
	return &Client{Kind: kind, Send: make(chan []byte, 16)}
}

type message struct {
	kind models.NotificationKind
	data []byte
}

// Hub tracks subscribers by kind. All map writes happen on the Run goroutine; the
// mutex lets Subscribers read the count from other goroutines.
type Hub struct {
	clients map[models.NotificationKind]map[*Client]bool

	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// OnChange, when set, is called with the subscriber count after every change.
	OnChange func(n int)

	mu sync.RWMutex
}

// NewHub creates a Hub. The broadcast channel is buffered so Notify never blocks on a
// busy Run loop; register and unregister are unbuffered and complete synchronously.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[models.NotificationKind]map[*Client]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the Hub's event loop. Start it with "go hub.Run(ctx)"; it returns when ctx is
// cancelled, closing every subscriber's Send channel on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, group := range h.clients {
				for c := range group {
					close(c.Send)
				}
			}
			h.clients = map[models.NotificationKind]map[*Client]bool{}
			h.mu.Unlock()
			h.changed()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.Kind] == nil {
				h.clients[c.Kind] = make(map[*Client]bool)
			}
			h.clients[c.Kind][c] = true
			h.mu.Unlock()
			h.changed()

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var targets []*Client
			for c := range h.clients[msg.kind] {
				targets = append(targets, c)
			}
			for c := range h.clients[""] {
				targets = append(targets, c)
			}
			h.mu.RUnlock()

			for _, c := range targets {
				select {
				case c.Send <- msg.data:
				default:
					// Slow subscriber: drop it rather than stall everyone else.
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	group, ok := h.clients[c.Kind]
	if ok && group[c] {
		delete(group, c)
		close(c.Send)
		if len(group) == 0 {
			delete(h.clients, c.Kind)
		}
	}
	h.mu.Unlock()
	h.changed()
}

func (h *Hub) changed() {
	if h.OnChange != nil {
		h.OnChange(h.Subscribers())
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, group := range h.clients {
		n += len(group)
	}
	return n
}

// Register adds a client. It returns false when the Hub has already stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Notify queues n for every subscriber of n.Kind. It never blocks.
func (h *Hub) Notify(_ context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return ErrClosed
	default:
	}
	select {
	case h.broadcast <- message{kind: n.Kind, data: data}:
		return nil
	default:
		return ErrBacklogFull
	}
}
