package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"room-relay/internal/relay"
)

// Conn wraps one client's websocket for the lifetime of its room session.
// It is bound to exactly one room; there is no mid-session switching.
type Conn struct {
	id     string
	roomID string
	ws     *websocket.Conn
	out    chan relay.Message
	closed chan struct{}
	once   sync.Once
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

func newConn(sock *websocket.Conn, roomID string, queue int) *Conn {
	return &Conn{
		id:     uuid.NewString(),
		roomID: roomID,
		ws:     sock,
		out:    make(chan relay.Message, queue),
		closed: make(chan struct{}),
	}
}

// ID returns the connection id generated at accept time.
func (c *Conn) ID() string { return c.id }

// Enqueue offers a message without blocking. A full queue means the
// message is dropped for this connection only; a stalled client never
// holds up delivery to its peers.
func (c *Conn) Enqueue(m relay.Message) bool {
	select {
	case c.out <- m:
		return true
	default:
		return false
	}
}

// read blocks until the next data frame. Pings are answered by the
// library inside Read, so a busy send queue cannot starve liveness.
// Returns false on close or transport error.
func (c *Conn) read(ctx context.Context) (relay.Message, bool) {
	typ, data, err := c.ws.Read(ctx)
	if err != nil {
		return relay.Message{}, false
	}
	kind := relay.KindBinary
	if typ == websocket.MessageText {
		kind = relay.KindText
	}
	return relay.Message{Payload: data, Kind: kind, Origin: c.id}, true
}

// writeLoop drains the send queue to the transport and pings on an
// interval. Exits on write failure, teardown, or context cancellation.
func (c *Conn) writeLoop(ctx context.Context, ping time.Duration) {
	t := time.NewTicker(ping)
	defer t.Stop()

	for {
		select {
		case m := <-c.out:
			typ := websocket.MessageBinary
			if m.Kind == relay.KindText {
				typ = websocket.MessageText
			}
			if err := c.ws.Write(ctx, typ, m.Payload); err != nil {
				return
			}
		case <-t.C:
			if err := c.ws.Ping(ctx); err != nil {
				return
			}
		case <-c.closed:
			return
		case <-ctx.Done():
			return
		}
	}
}
