package handlers

import (
	"net/http"

	"github.com/kozaktomas/memory-mirror/internal/kiosk"
)

// CacheHandler exposes the recognition cache.
type CacheHandler struct {
	orchestrator *kiosk.Orchestrator
}

func NewCacheHandler(o *kiosk.Orchestrator) *CacheHandler {
	return &CacheHandler{orchestrator: o}
}

// Stats handles GET /api/v1/cache/stats.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.orchestrator.Cache().Stats())
}

// Invalidate handles DELETE /api/v1/cache. An optional person query
// parameter limits the invalidation to one person; without it the whole
// cache and all cooldowns are dropped.
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	personID := r.URL.Query().Get("person")
	h.orchestrator.InvalidateCache(personID)

	respondJSON(w, http.StatusOK, map[string]any{
		"invalidated": true,
		"person_id":   personID,
		"cache":       h.orchestrator.Cache().Stats(),
	})
}
