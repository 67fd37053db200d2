package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/memory-mirror/internal/audio"
	"github.com/kozaktomas/memory-mirror/internal/gallery"
)

// AnnounceHandler triggers manual announcements, used by caregivers to test
// speaker volume and greetings.
type AnnounceHandler struct {
	audio   *audio.Manager
	gallery *gallery.Store
}

func NewAnnounceHandler(a *audio.Manager, g *gallery.Store) *AnnounceHandler {
	return &AnnounceHandler{
		audio:   a,
		gallery: g,
	}
}

type announceRequest struct {
	PersonID string `json:"person_id"`
	Message  string `json:"message"`
	Language string `json:"language"`
}

// Announce handles POST /api/v1/announce. Either a person id (speaks their
// configured greeting) or a free-form message is required.
func (h *AnnounceHandler) Announce(w http.ResponseWriter, r *http.Request) {
	var req announceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if !h.audio.Enabled() {
		respondError(w, http.StatusConflict, "audio is disabled")
		return
	}

	message := req.Message
	lang := req.Language
	if message == "" && req.PersonID != "" {
		profile, ok := h.gallery.Profile(req.PersonID)
		if !ok {
			respondError(w, http.StatusNotFound, "person not found")
			return
		}
		if lang == "" {
			lang = profile.Language
		}
		message = profile.VoiceMessageFor(lang)
	}
	if message == "" {
		respondError(w, http.StatusBadRequest, "person_id or message is required")
		return
	}

	a := h.audio.Announce(req.PersonID, message, lang)
	if a == nil {
		respondError(w, http.StatusConflict, "announcement could not be started")
		return
	}
	respondJSON(w, http.StatusAccepted, a)
}

// Stop handles POST /api/v1/announce/stop.
func (h *AnnounceHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.audio.Stop()
	respondJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}
