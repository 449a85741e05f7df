package handlers

import (
	"net/http"

	"github.com/petermazzocco/go-pereval-api/internal/cache"
	"github.com/petermazzocco/go-pereval-api/internal/logger"
	"github.com/petermazzocco/go-pereval-api/models"
)

type ActivitiesResponse struct {
	Activities []models.ActivityType `json:"activities"`
}

// ListActivitiesHandler serves the activity lookup set, from redis when
// it is warm. Cache failures fall through to the database.
func ListActivitiesHandler(w http.ResponseWriter, r *http.Request, store PerevalStore, c *cache.ActivityCache, log *logger.Logger) {
	ctx := r.Context()

	types, ok, err := c.Get(ctx)
	if err != nil {
		log.Warn("Activity cache read failed", "error", err)
	}
	if ok {
		writeJSON(w, http.StatusOK, ActivitiesResponse{Activities: types})
		return
	}

	types, err = store.ActivityTypes(ctx)
	if err != nil {
		log.Error("Failed to list activity types", "error", err)
		respondError(w, http.StatusInternalServerError, "internal", msgServerError)
		return
	}
	if err := c.Set(ctx, types); err != nil {
		log.Warn("Activity cache write failed", "error", err)
	}
	writeJSON(w, http.StatusOK, ActivitiesResponse{Activities: types})
}
