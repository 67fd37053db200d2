package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/memory-mirror/internal/recognize"
)

// FacesHandler exposes gallery embedding diagnostics.
type FacesHandler struct {
	index *recognize.Index
}

func NewFacesHandler(index *recognize.Index) *FacesHandler {
	return &FacesHandler{index: index}
}

type neighborsRequest struct {
	Embedding []float32 `json:"embedding"`
	K         int       `json:"k"`
}

// Neighbors handles POST /api/v1/faces/neighbors: find the gallery images
// closest to a query embedding. Useful for spotting lookalikes and mislabeled
// enrollment photos.
func (h *FacesHandler) Neighbors(w http.ResponseWriter, r *http.Request) {
	var req neighborsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) == 0 {
		respondError(w, http.StatusBadRequest, "embedding is required")
		return
	}

	neighbors, err := h.index.Nearest(req.Embedding, req.K)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, neighbors)
}
