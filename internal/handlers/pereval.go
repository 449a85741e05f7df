package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/go-pereval-api/internal/database"
	"github.com/petermazzocco/go-pereval-api/internal/logger"
	"github.com/petermazzocco/go-pereval-api/models"
)

const (
	msgServerError = "Internal server error"
	msgAdded       = "Record added"
	msgUpdated     = "Record updated"
)

type PerevalStore interface {
	Create(ctx context.Context, in models.Submission) (uint, error)
	GetByID(ctx context.Context, id uint) (*models.PerevalView, error)
	Update(ctx context.Context, id uint, in models.Submission) error
	ListByEmail(ctx context.Context, email string) ([]models.PerevalSummary, error)
	ActivityTypes(ctx context.Context) ([]models.ActivityType, error)
	Ping(ctx context.Context) error
}

type SubmitResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	ID      *uint  `json:"id"`
}

type UpdateResponse struct {
	State   int    `json:"state"`
	Message string `json:"message"`
}

type PerevalListResponse struct {
	Perevals []models.PerevalSummary `json:"perevals"`
}

func SubmitDataHandler(w http.ResponseWriter, r *http.Request, store PerevalStore, log *logger.Logger) {
	sub, err := decodeSubmission(r, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	id, err := store.Create(r.Context(), sub)
	if err != nil {
		if errors.Is(err, database.ErrInvalidReference) {
			writeJSON(w, http.StatusBadRequest, SubmitResponse{Status: http.StatusBadRequest, Message: database.ErrInvalidReference.Error()})
			return
		}
		log.Error("Failed to submit pereval", "error", err)
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Status: http.StatusInternalServerError, Message: msgServerError})
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{Status: http.StatusOK, Message: msgAdded, ID: &id})
}

func GetPerevalHandler(w http.ResponseWriter, r *http.Request, store PerevalStore, log *logger.Logger) {
	id, ok := perevalID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "Pereval not found")
		return
	}

	view, err := store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "Pereval with id "+strconv.FormatUint(uint64(id), 10)+" not found")
			return
		}
		log.Error("Failed to get pereval", "pereval_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal", msgServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func UpdatePerevalHandler(w http.ResponseWriter, r *http.Request, store PerevalStore, log *logger.Logger) {
	id, ok := perevalID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, UpdateResponse{State: 0, Message: database.ErrNotFound.Error()})
		return
	}

	sub, err := decodeSubmission(r, false)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, UpdateResponse{State: 0, Message: err.Error()})
		return
	}

	err = store.Update(r.Context(), id, sub)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, UpdateResponse{State: 1, Message: msgUpdated})
	case errors.Is(err, database.ErrGuardRejected):
		writeJSON(w, http.StatusBadRequest, UpdateResponse{State: 0, Message: "Editing is allowed only for records with status 'new'"})
	case errors.Is(err, database.ErrNotFound):
		writeJSON(w, http.StatusNotFound, UpdateResponse{State: 0, Message: database.ErrNotFound.Error()})
	case errors.Is(err, database.ErrInvalidReference):
		writeJSON(w, http.StatusBadRequest, UpdateResponse{State: 0, Message: database.ErrInvalidReference.Error()})
	default:
		log.Error("Failed to update pereval", "pereval_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, UpdateResponse{State: 0, Message: msgServerError})
	}
}

func ListPerevalsHandler(w http.ResponseWriter, r *http.Request, store PerevalStore, log *logger.Logger) {
	email := strings.TrimSpace(r.URL.Query().Get("user__email"))

	perevals, err := store.ListByEmail(r.Context(), email)
	if err != nil {
		log.Error("Failed to list perevals", "user_email", email, "error", err)
		respondError(w, http.StatusInternalServerError, "internal", msgServerError)
		return
	}
	writeJSON(w, http.StatusOK, PerevalListResponse{Perevals: perevals})
}

func HealthHandler(w http.ResponseWriter, r *http.Request, store PerevalStore) {
	if err := store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func perevalID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
