package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"log/slog"
	"room-relay/internal/relay"
	"room-relay/internal/store"
)

type RoomsAPI struct {
	reg      *relay.Registry
	store    store.Gateway
	log      *slog.Logger
	validate *validator.Validate
}

func NewRoomsAPI(logger *slog.Logger, reg *relay.Registry, gw store.Gateway) *RoomsAPI {
	return &RoomsAPI{
		reg:      reg,
		store:    gw,
		log:      logger,
		validate: validator.New(),
	}
}

type createRoomReq struct {
	ID   string `json:"id" validate:"required,min=3,max=30"`
	Name string `json:"name" validate:"required,min=3,max=30"`
}

type roomResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

func fromRecord(r store.RoomRecord) roomResponse {
	return roomResponse{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, EndedAt: r.EndedAt}
}

// Create handles POST /api/rooms. Duplicate ids conflict; a failed
// durable write fails the whole request, the room is not created.
func (a *RoomsAPI) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		http.Error(w, "id and name must be 3-30 characters", http.StatusBadRequest)
		return
	}

	rm, err := a.reg.Create(r.Context(), req.ID, req.Name)
	switch {
	case errors.Is(err, relay.ErrRoomExists):
		http.Error(w, "room already exists", http.StatusConflict)
		return
	case errors.Is(err, store.ErrUnavailable):
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	case err != nil:
		a.log.Error("room.create", "err", err)
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(roomResponse{ID: rm.ID, Name: rm.Name, CreatedAt: rm.CreatedAt})
}

// List returns every room record.
func (a *RoomsAPI) List(w http.ResponseWriter, r *http.Request) {
	recs, err := a.store.FindAll(r.Context())
	if err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	resp := make([]roomResponse, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, fromRecord(rec))
	}
	writeJSON(w, resp)
}

// Get returns one room record by id.
func (a *RoomsAPI) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	rec, err := a.store.FindByID(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "room not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, fromRecord(rec))
}

// End handles POST /api/rooms/{id}/end. Members already connected keep
// draining; only new joins are rejected from here on.
func (a *RoomsAPI) End(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	rec, err := a.reg.End(r.Context(), id, time.Now().UTC())
	switch {
	case errors.Is(err, relay.ErrRoomNotFound):
		http.Error(w, "room not found", http.StatusNotFound)
		return
	case errors.Is(err, relay.ErrRoomEnded):
		http.Error(w, "room already ended", http.StatusConflict)
		return
	case errors.Is(err, store.ErrUnavailable):
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	case err != nil:
		a.log.Error("room.end", "err", err)
		http.Error(w, "failed to end room", http.StatusInternalServerError)
		return
	}
	writeJSON(w, fromRecord(rec))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
