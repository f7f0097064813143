package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GetState returns the full aggregate.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, h.state.Load(r.Context(), userID))
}

// ExportState returns the aggregate as a JSON download.
func (h *Handler) ExportState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	data, err := h.state.Load(r.Context(), userID).Encode()
	if err != nil {
		h.writeError(w, err)
		return
	}
	filename := fmt.Sprintf("coach-state-%s.json", time.Now().Format(time.DateOnly))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ImportState replaces the aggregate with an uploaded export. Older exports
// are backfilled the same way stored state is.
func (h *Handler) ImportState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	state, err := h.state.Import(r.Context(), userID, data)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("State imported", "user_id", userID, "entries", len(state.Entries))
	JSON(w, http.StatusOK, state)
}

// ListEntries returns saved conversations grouped by date, newest first.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"days": h.state.Load(r.Context(), userID).EntriesByDate(),
	})
}
