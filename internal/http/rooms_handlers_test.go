package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"log/slog"
	"room-relay/internal/app"
	"room-relay/internal/relay"
	"room-relay/internal/store"
	"room-relay/internal/ws"
)

func newTestRouter(t *testing.T) (http.Handler, *relay.Registry, *store.Memory) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := store.NewMemory()
	reg := relay.NewRegistry(logger, gw, 0)
	cfg := app.Config{
		Env:          "test",
		CORSAllow:    []string{"*"},
		SendQueue:    16,
		PingInterval: time.Minute,
	}
	wsh := ws.NewHandler(logger, reg, cfg)
	return NewRouter(cfg, logger, wsh, reg, gw), reg, gw
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateRoom(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/rooms", `{"id":"abc","name":"Team Standup"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		CreatedAt time.Time  `json:"createdAt"`
		EndedAt   *time.Time `json:"endedAt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "abc", resp.ID)
	require.Equal(t, "Team Standup", resp.Name)
	require.False(t, resp.CreatedAt.IsZero())
	require.Nil(t, resp.EndedAt)
}

func TestCreateRoomDuplicate(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/rooms", `{"id":"abc","name":"first"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/rooms", `{"id":"abc","name":"second"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateRoomValidation(t *testing.T) {
	h, _, _ := newTestRouter(t)

	for name, body := range map[string]string{
		"not json":   `{{`,
		"id short":   `{"id":"ab","name":"Team Standup"}`,
		"name short": `{"id":"abc","name":"ab"}`,
		"id long":    `{"id":"` + strings.Repeat("x", 31) + `","name":"Team Standup"}`,
		"missing":    `{"id":"abc"}`,
	} {
		rec := doJSON(t, h, http.MethodPost, "/api/rooms", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestCreateRoomStoreFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := relay.NewRegistry(logger, unavailableGateway{}, 0)
	cfg := app.Config{CORSAllow: []string{"*"}, SendQueue: 16, PingInterval: time.Minute}
	wsh := ws.NewHandler(logger, reg, cfg)
	h := NewRouter(cfg, logger, wsh, reg, unavailableGateway{})

	rec := doJSON(t, h, http.MethodPost, "/api/rooms", `{"id":"abc","name":"Team Standup"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type unavailableGateway struct{}

func (unavailableGateway) Create(context.Context, string, string) (store.RoomRecord, error) {
	return store.RoomRecord{}, store.ErrUnavailable
}

func (unavailableGateway) FindByID(context.Context, string) (store.RoomRecord, error) {
	return store.RoomRecord{}, store.ErrUnavailable
}

func (unavailableGateway) FindAll(context.Context) ([]store.RoomRecord, error) {
	return nil, store.ErrUnavailable
}

func (unavailableGateway) MarkEnded(context.Context, string, time.Time) (store.RoomRecord, error) {
	return store.RoomRecord{}, store.ErrUnavailable
}

func TestGetAndListRooms(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/rooms", `{"id":"abc","name":"Team Standup"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/rooms/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/rooms/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/rooms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
}

func TestEndRoom(t *testing.T) {
	h, reg, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/rooms", `{"id":"abc","name":"Team Standup"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/rooms/abc/end", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp["endedAt"])

	// ending twice conflicts
	rec = doJSON(t, h, http.MethodPost, "/api/rooms/abc/end", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	// an ended room rejects joins
	_, err := reg.Resolve(context.Background(), "abc")
	require.ErrorIs(t, err, relay.ErrRoomEnded)

	rec = doJSON(t, h, http.MethodPost, "/api/rooms/nope/end", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
