// Package broadcast fans out Snapshots to WebSocket subscribers filtered
// by symbol. Sends are non-blocking per client; a subscriber that falls
// behind is dropped rather than allowed to stall the publisher.
package broadcast

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/collapsefield/marketfield/internal/symbolproc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub owns the subscription registry. Register/unregister and Publish are
// the only entry points; all three are channel ops so concurrent callers
// never touch the client map directly.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	publish    chan published
	done       chan struct{}
	onDrop     func()
}

type published struct {
	symbol string
	frame  []byte
}

// NewHub builds an idle Hub; call Run to start its driver loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		publish:    make(chan published, 256),
		done:       make(chan struct{}),
	}
}

// OnDrop installs a callback invoked each time a slow subscriber is
// removed, before Run starts. Used to feed the broadcast-drop counter.
func (h *Hub) OnDrop(fn func()) *Hub {
	h.onDrop = fn
	return h
}

// Run drives the registration and fan-out loop until Stop is called. It is
// meant to run in its own goroutine for the lifetime of the process.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.publish:
			for c := range h.clients {
				if !c.subscribes(msg.symbol) {
					continue
				}
				select {
				case c.send <- msg.frame:
				default:
					// Slow subscriber: drop it rather than back-pressure
					// the driver.
					delete(h.clients, c)
					close(c.send)
					log.Warn().Str("client_id", c.id).Str("symbol", c.symbol).Msg("broadcast: dropped slow subscriber")
					if h.onDrop != nil {
						h.onDrop()
					}
				}
			}
		case <-h.done:
			return
		}
	}
}

// Stop halts the driver loop. Registered clients are left to their own
// readPump/writePump goroutines to unwind.
func (h *Hub) Stop() { close(h.done) }

// Publish marshals one Snapshot and fans it out to every subscriber of
// that symbol. Failure to reach any single subscriber only drops that
// subscriber; everyone else still receives the frame.
func (h *Hub) Publish(snap symbolproc.Snapshot) error {
	frame, err := snap.MarshalJSON()
	if err != nil {
		return err
	}
	h.publish <- published{symbol: snap.Symbol, frame: frame}
	return nil
}

// ServeWS upgrades an HTTP request to a WebSocket subscriber. A query
// parameter `symbol` restricts the connection to one symbol's ticks; an
// empty value subscribes to all symbols.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("broadcast: upgrade failed")
		return
	}

	c := &client{
		id:     uuid.NewString(),
		symbol: r.URL.Query().Get("symbol"),
		conn:   conn,
		send:   make(chan []byte, 64),
	}

	h.register <- c
	go c.writePump(h)
	go c.readPump(h)
}

type client struct {
	id     string
	symbol string // empty means "all symbols"
	conn   *websocket.Conn
	send   chan []byte
}

func (c *client) subscribes(symbol string) bool {
	return c.symbol == "" || c.symbol == symbol
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump(h *Hub) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
