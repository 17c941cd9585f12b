package httpx

import (
	"net/http"

	"log/slog"
	"room-relay/internal/app"
	"room-relay/internal/relay"
	"room-relay/internal/store"
	"room-relay/internal/ws"
	"room-relay/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, wsh *ws.Handler, reg *relay.Registry, gw store.Gateway) http.Handler {
	mw := NewMiddleware(cfg)
	api := NewRoomsAPI(logger, reg, gw)

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint, room bound by path
	mux.Handle("GET /ws/{room}", http.HandlerFunc(wsh.ServeWS))

	// Rooms API
	mux.Handle("POST /api/rooms", http.HandlerFunc(api.Create))
	mux.Handle("GET /api/rooms", http.HandlerFunc(api.List))
	mux.Handle("GET /api/rooms/{id}", http.HandlerFunc(api.Get))
	mux.Handle("POST /api/rooms/{id}/end", http.HandlerFunc(api.End))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
