package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"log/slog"
	"room-relay/internal/app"
	"room-relay/internal/relay"
	"room-relay/pkg/metrics"
)

// Handler serves the /ws/{room} endpoint: resolve the room, admit the
// connection, then run the two session loops until either one fails.
type Handler struct {
	log   *slog.Logger
	reg   *relay.Registry
	queue int
	ping  time.Duration
}

func NewHandler(logger *slog.Logger, reg *relay.Registry, cfg app.Config) *Handler {
	return &Handler{
		log:   logger,
		reg:   reg,
		queue: cfg.SendQueue,
		ping:  cfg.PingInterval,
	}
}

// ServeWS handles a new websocket connection for a room. Unknown and
// ended rooms are rejected before the upgrade so the client gets an HTTP
// status instead of a silent close.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")
	if roomID == "" {
		http.Error(w, "room required", http.StatusBadRequest)
		return
	}

	rm, err := h.reg.Resolve(r.Context(), roomID)
	switch {
	case errors.Is(err, relay.ErrRoomNotFound):
		http.Error(w, "room not found", http.StatusNotFound)
		return
	case errors.Is(err, relay.ErrRoomEnded):
		http.Error(w, "room has ended", http.StatusGone)
		return
	case err != nil:
		http.Error(w, "room lookup failed", http.StatusServiceUnavailable)
		return
	}
	if rm.Ended() {
		http.Error(w, "room has ended", http.StatusGone)
		return
	}

	sock, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	c := newConn(sock, roomID, h.queue)
	if err := h.reg.Join(roomID, c); err != nil {
		// Room ended or was evicted between the check and the upgrade.
		_ = sock.Close(websocket.StatusPolicyViolation, "room unavailable")
		return
	}
	metrics.ConnectionsOpen.Inc()
	h.log.Info("ws.join", "room", roomID, "conn", c.id)

	ctx, cancel := context.WithCancel(r.Context())

	// Both loops converge here; the Once guarantees a single teardown
	// no matter which loop detects the failure first.
	teardown := func() {
		c.once.Do(func() {
			cancel()
			close(c.closed)
			h.reg.Leave(c.roomID, c.id)
			_ = sock.Close(websocket.StatusNormalClosure, "")
			metrics.ConnectionsOpen.Dec()
			h.log.Info("ws.leave", "room", roomID, "conn", c.id)
		})
	}
	defer teardown()

	go func() {
		defer teardown()
		c.writeLoop(ctx, h.ping)
	}()

	for {
		msg, ok := c.read(ctx)
		if !ok {
			return
		}
		if err := h.reg.Broadcast(roomID, msg); err != nil {
			return
		}
	}
}
