package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xilidan/lingua/gateways/web/storage"
	"github.com/xilidan/lingua/pkg/json"
	"github.com/xilidan/lingua/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ListHistoryHandler lists the records archived by the caller's session.
func (h *Handler) ListHistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			json.WriteError(w, http.StatusBadRequest, fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.history.List(r.Context(), subjectFrom(r.Context()), limit)
	if err != nil {
		logger.ErrorErr(r.Context(), "failed to list history", err)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to list history"))
		return
	}
	if records == nil {
		records = []*storage.Record{}
	}

	json.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid history id"))
		return
	}

	rec, err := h.history.Get(r.Context(), subjectFrom(r.Context()), id)
	if errors.Is(err, storage.ErrNotFound) {
		json.WriteError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		logger.ErrorErr(r.Context(), "failed to get history record", err)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to get history record"))
		return
	}

	json.WriteJSON(w, http.StatusOK, rec)
}
