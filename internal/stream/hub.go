// Package stream broadcasts completed frames to websocket viewers.
package stream

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
)

// Message types, sent as the first byte of every binary message.
const (
	MsgFrame byte = 0x01 // followed by 160*144 shade bytes (0..3)
)

const (
	sendBuffer   = 4
	writeTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: ppu.Width*ppu.Height + 1,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub fans frames out to every connected viewer. Slow viewers are
// disconnected rather than allowed to stall the emulator.
type Hub struct {
	log logrus.FieldLogger

	clients              map[*client]struct{}
	register, unregister chan *client
	broadcast            chan []byte
	done                 chan struct{}

	mu     sync.Mutex
	latest []byte
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run services the hub until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.WithField("remote", c.remote).Info("viewer connected")
			h.mu.Lock()
			latest := h.latest
			h.mu.Unlock()
			if latest != nil {
				c.send <- latest
			}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.WithField("remote", c.remote).Info("viewer disconnected")
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.log.WithField("remote", c.remote).Warn("viewer too slow, dropping")
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// Publish queues a frame for every viewer. It never blocks; when the hub
// is behind the frame is dropped, though new viewers still receive it.
func (h *Hub) Publish(f *ppu.Frame) {
	msg := make([]byte, 1+len(f.Pix))
	msg[0] = MsgFrame
	copy(msg[1:], f.Pix[:])

	h.mu.Lock()
	h.latest = msg
	h.mu.Unlock()

	select {
	case h.broadcast <- msg:
	default:
	}
}

// ServeHTTP upgrades the request to a websocket viewer connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), remote: r.RemoteAddr}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	c.readPump()
}

// ListenAndServe serves viewers on addr until ctx is cancelled.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
	h.log.WithField("addr", addr).Info("frame stream listening")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string
}

// readPump discards incoming messages and unregisters on disconnect.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
