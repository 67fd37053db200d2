package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/memory-mirror/internal/gallery"
	"github.com/kozaktomas/memory-mirror/internal/kiosk"
)

// PersonsHandler exposes the enrolled persons and their profiles.
type PersonsHandler struct {
	gallery      *gallery.Store
	orchestrator *kiosk.Orchestrator
}

func NewPersonsHandler(g *gallery.Store, o *kiosk.Orchestrator) *PersonsHandler {
	return &PersonsHandler{
		gallery:      g,
		orchestrator: o,
	}
}

type personResponse struct {
	gallery.Profile
	ImageCount int `json:"image_count"`
}

// List handles GET /api/v1/persons.
func (h *PersonsHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles := h.gallery.Profiles()

	persons := make([]personResponse, 0, len(profiles))
	for _, p := range profiles {
		persons = append(persons, personResponse{
			Profile:    p,
			ImageCount: len(h.gallery.Images(p.ID)),
		})
	}
	respondJSON(w, http.StatusOK, persons)
}

// Get handles GET /api/v1/persons/{id}.
func (h *PersonsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	profile, ok := h.gallery.Profile(id)
	if !ok {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	respondJSON(w, http.StatusOK, personResponse{
		Profile:    profile,
		ImageCount: len(h.gallery.Images(id)),
	})
}

// Update handles PUT /api/v1/persons/{id}. The person's cache entries and
// cooldown are dropped so the new greeting takes effect immediately.
func (h *PersonsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var profile gallery.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	profile.ID = id

	if err := h.gallery.SaveProfile(profile); err != nil {
		log.Printf("web: could not save profile %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "could not save profile")
		return
	}

	h.orchestrator.InvalidateCache(id)
	respondJSON(w, http.StatusOK, profile)
}

// Refresh handles POST /api/v1/persons/refresh: rescan the gallery
// directory and profile metadata from disk.
func (h *PersonsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.gallery.Refresh(); err != nil {
		log.Printf("web: gallery refresh failed: %v", err)
		respondError(w, http.StatusInternalServerError, "gallery refresh failed")
		return
	}

	h.orchestrator.InvalidateCache("")
	respondJSON(w, http.StatusOK, h.gallery.Stats())
}
