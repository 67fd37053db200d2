package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kozaktomas/memory-mirror/internal/kiosk"
)

// EventsHandler streams kiosk events to the UI over SSE.
type EventsHandler struct {
	events *kiosk.Events
}

func NewEventsHandler(events *kiosk.Events) *EventsHandler {
	return &EventsHandler{events: events}
}

// Stream handles GET /api/v1/events.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch, cancel := h.events.Subscribe()
	defer cancel()

	fmt.Fprint(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
