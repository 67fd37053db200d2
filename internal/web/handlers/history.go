package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/memory-mirror/internal/history"
)

// HistoryHandler exposes the persisted recognition history. The store is
// optional; without a database the endpoints report empty results.
type HistoryHandler struct {
	store *history.Store
}

func NewHistoryHandler(store *history.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// List handles GET /api/v1/history?person=&limit=.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondJSON(w, http.StatusOK, []history.Event{})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.store.Recent(r.Context(), r.URL.Query().Get("person"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not query history")
		return
	}
	if events == nil {
		events = []history.Event{}
	}
	respondJSON(w, http.StatusOK, events)
}

// Stats handles GET /api/v1/history/stats?hours=.
func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondJSON(w, http.StatusOK, []history.PersonStats{})
		return
	}

	hours, err := strconv.Atoi(r.URL.Query().Get("hours"))
	if err != nil || hours <= 0 {
		hours = 24
	}

	stats, err := h.store.Stats(r.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not query history stats")
		return
	}
	if stats == nil {
		stats = []history.PersonStats{}
	}
	respondJSON(w, http.StatusOK, stats)
}

type similarRequest struct {
	Embedding []float32 `json:"embedding"`
	Limit     int       `json:"limit"`
}

// Similar handles POST /api/v1/history/similar: past events whose stored
// face embedding is closest to the query embedding.
func (h *HistoryHandler) Similar(w http.ResponseWriter, r *http.Request) {
	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) == 0 {
		respondError(w, http.StatusBadRequest, "embedding is required")
		return
	}

	if h.store == nil {
		respondJSON(w, http.StatusOK, []history.Event{})
		return
	}

	events, err := h.store.SimilarEvents(r.Context(), req.Embedding, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not query similar events")
		return
	}
	if events == nil {
		events = []history.Event{}
	}
	respondJSON(w, http.StatusOK, events)
}
