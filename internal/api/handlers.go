// Package api serves live simulation sessions over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/cxd309/minimetro/internal/network"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotFound        = errors.New("not found")
	ErrRefused         = errors.New("refused")
)

// maxTicksPerRequest bounds a manual tick request.
const maxTicksPerRequest = 60 * 60

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// SessionResponse describes a session and its current state.
type SessionResponse struct {
	SessionID uuid.UUID        `json:"session_id"`
	Seed      uint64           `json:"seed"`
	Snapshot  network.Snapshot `json:"snapshot"`
}

// ActionResponse is returned by every accepted mutation.
type ActionResponse struct {
	Click    network.Click    `json:"click,omitempty"`
	Snapshot network.Snapshot `json:"snapshot"`
}

type createSessionRequest struct {
	Seed *uint64 `json:"seed"`
}

type stationRequest struct {
	X           *int                 `json:"x"`
	Y           *int                 `json:"y"`
	StationType *catalog.StationType `json:"station_type"`
}

type connectRequest struct {
	From uuid.UUID `json:"from"`
	To   uuid.UUID `json:"to"`
}

type clickRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type trainRequest struct {
	TrainType catalog.TrainType `json:"train_type"`
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

type tickRequest struct {
	Ticks int `json:"ticks"`
}

// Handler serves the session API.
type Handler struct {
	ctx      context.Context
	sessions *Sessions
	seeds    func() uint64
}

// NewHandler returns a handler whose session clocks stop when ctx is done.
// seeds supplies the seed of sessions created without one.
func NewHandler(ctx context.Context, sessions *Sessions, seeds func() uint64) *Handler {
	return &Handler{ctx: ctx, sessions: sessions, seeds: seeds}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decode(w, r, &req) {
		return
	}
	seed := h.seeds()
	if req.Seed != nil {
		seed = *req.Seed
	}
	s := h.sessions.Create(h.ctx, seed)
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: s.ID, Seed: s.Seed, Snapshot: s.Snapshot()})
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: s.ID, Seed: s.Seed, Snapshot: s.Snapshot()})
}

// DeleteSession handles DELETE /api/sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if !h.sessions.Delete(id) {
		writeError(w, http.StatusNotFound, ErrSessionNotFound, map[string]any{"session_id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateStation handles POST /api/sessions/{id}/stations. Without a body the
// station goes to a random free spot; otherwise at the given position.
func (h *Handler) CreateStation(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if !decode(w, r, &req) {
		return
	}
	if (req.X == nil) != (req.Y == nil) {
		writeError(w, http.StatusBadRequest, errors.New("x and y must be given together"), nil)
		return
	}
	if req.StationType != nil && req.X == nil {
		writeError(w, http.StatusBadRequest, errors.New("station_type requires a position"), nil)
		return
	}
	h.mutate(w, r, http.StatusCreated, func(n *network.Network) (network.Click, error) {
		if req.X == nil {
			n.CreateStation()
			return "", nil
		}
		st := catalog.Circle
		if req.StationType != nil {
			st = *req.StationType
		}
		n.AddStation(*req.X, *req.Y, st)
		return "", nil
	})
}

// Connect handles POST /api/sessions/{id}/connect.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(n *network.Network) (network.Click, error) {
		for _, id := range []uuid.UUID{req.From, req.To} {
			if _, ok := n.Station(id); !ok {
				return "", notFound("station", id)
			}
		}
		if !n.Connect(req.From, req.To) {
			return "", ErrRefused
		}
		return "", nil
	})
}

// Click handles POST /api/sessions/{id}/click.
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(n *network.Network) (network.Click, error) {
		return n.CheckLocation(req.X, req.Y), nil
	})
}

// AddTrain handles POST /api/sessions/{id}/lines/{lineID}/trains.
func (h *Handler) AddTrain(w http.ResponseWriter, r *http.Request) {
	lineID, ok := parseID(w, r, "lineID")
	if !ok {
		return
	}
	var req trainRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusCreated, func(n *network.Network) (network.Click, error) {
		if _, ok := n.Line(lineID); !ok {
			return "", notFound("line", lineID)
		}
		if !n.AddTrain(lineID, req.TrainType) {
			return "", ErrRefused
		}
		return "", nil
	})
}

// DeleteLine handles DELETE /api/sessions/{id}/lines/{lineID}.
func (h *Handler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := parseID(w, r, "lineID")
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusOK, func(n *network.Network) (network.Click, error) {
		if !n.DeleteLine(lineID) {
			return "", notFound("line", lineID)
		}
		return "", nil
	})
}

// DeleteTrain handles DELETE /api/sessions/{id}/trains/{trainID}.
func (h *Handler) DeleteTrain(w http.ResponseWriter, r *http.Request) {
	trainID, ok := parseID(w, r, "trainID")
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusOK, func(n *network.Network) (network.Click, error) {
		if !n.DeleteTrain(trainID) {
			return "", notFound("train", trainID)
		}
		return "", nil
	})
}

// SpawnRider handles POST /api/sessions/{id}/stations/{stationID}/riders.
func (h *Handler) SpawnRider(w http.ResponseWriter, r *http.Request) {
	stationID, ok := parseID(w, r, "stationID")
	if !ok {
		return
	}
	h.mutate(w, r, http.StatusCreated, func(n *network.Network) (network.Click, error) {
		if _, ok := n.Station(stationID); !ok {
			return "", notFound("station", stationID)
		}
		if !n.SpawnRider(stationID) {
			return "", ErrRefused
		}
		return "", nil
	})
}

// Pause handles POST /api/sessions/{id}/pause.
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(n *network.Network) (network.Click, error) {
		n.SetPaused(req.Paused)
		return "", nil
	})
}

// Tick handles POST /api/sessions/{id}/tick.
func (h *Handler) Tick(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req := tickRequest{Ticks: 1}
	if !decode(w, r, &req) {
		return
	}
	if req.Ticks < 1 || req.Ticks > maxTicksPerRequest {
		writeError(w, http.StatusBadRequest, errors.New("ticks out of range"), map[string]any{"max": maxTicksPerRequest})
		return
	}
	s.Advance(req.Ticks)
	writeJSON(w, http.StatusOK, ActionResponse{Snapshot: s.Snapshot()})
}

// Reset handles POST /api/sessions/{id}/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Reset()
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: s.ID, Seed: s.Seed, Snapshot: s.Snapshot()})
}

// mutate runs fn under the session lock and answers with the new snapshot,
// or maps its error to a status.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(*network.Network) (network.Click, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var (
		resp ActionResponse
		err  error
	)
	s.Update(func(n *network.Network) {
		resp.Click, err = fn(n)
		if err == nil {
			resp.Snapshot = n.Snapshot()
		}
	})
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err, nil)
	case errors.Is(err, ErrRefused):
		writeError(w, http.StatusConflict, err, nil)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err, nil)
	default:
		writeJSON(w, status, resp)
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return nil, false
	}
	s, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrSessionNotFound, map[string]any{"session_id": id})
		return nil, false
	}
	return s, true
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, map[string]any{param: raw})
		return uuid.Nil, false
	}
	return id, true
}

// decode reads an optional JSON body into v. An empty body leaves v as is.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, err, nil)
	return false
}

func notFound(kind string, id uuid.UUID) error {
	return &notFoundError{kind: kind, id: id}
}

type notFoundError struct {
	kind string
	id   uuid.UUID
}

func (e *notFoundError) Error() string { return e.kind + " " + e.id.String() + " not found" }
func (e *notFoundError) Unwrap() error { return ErrNotFound }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, err error, details map[string]any) {
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	} else {
		log.WithError(err).Debugf("request rejected with %d", status)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Details: details})
}
