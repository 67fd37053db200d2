package handlers

import (
	"net/http"

	"github.com/kozaktomas/memory-mirror/internal/audio"
	"github.com/kozaktomas/memory-mirror/internal/gallery"
	"github.com/kozaktomas/memory-mirror/internal/kiosk"
	"github.com/kozaktomas/memory-mirror/internal/recognize"
)

// StatusHandler reports the kiosk pipeline state.
type StatusHandler struct {
	orchestrator *kiosk.Orchestrator
	matcher      *recognize.Matcher
	gallery      *gallery.Store
	audio        *audio.Manager
}

func NewStatusHandler(o *kiosk.Orchestrator, m *recognize.Matcher, g *gallery.Store, a *audio.Manager) *StatusHandler {
	return &StatusHandler{
		orchestrator: o,
		matcher:      m,
		gallery:      g,
		audio:        a,
	}
}

// Get handles GET /api/v1/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	tick := h.orchestrator.LastTick()

	respondJSON(w, http.StatusOK, map[string]any{
		"last_tick":            tick,
		"cache":                h.orchestrator.Cache().Stats(),
		"gallery":              h.gallery.Stats(),
		"known_persons":        h.matcher.KnownPersons(),
		"confidence_threshold": h.matcher.ConfidenceThreshold(),
		"audio_enabled":        h.audio.Enabled(),
		"audio_busy":           h.audio.Busy(),
	})
}
