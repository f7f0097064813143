package api

import (
	"net/http"
	"strconv"

	"github.com/ashureev/coachd/internal/curriculum"
	"github.com/ashureev/coachd/internal/domain"
	"github.com/ashureev/coachd/internal/prompts"
	"github.com/go-chi/chi/v5"
)

// PreviewPrompt renders the system prompt a conversation in mode would use.
func (h *Handler) PreviewPrompt(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	mode, err := prompts.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	n := 0
	if mode == prompts.ModeChallenge {
		n, err = strconv.Atoi(r.URL.Query().Get("challenge"))
		if err != nil || !curriculum.Valid(n) {
			Error(w, http.StatusBadRequest, domain.ErrChallengeNotFound.Error())
			return
		}
	}
	JSON(w, http.StatusOK, map[string]any{
		"mode":   mode,
		"prompt": h.controller.SystemPrompt(r.Context(), userID, mode, n),
	})
}
