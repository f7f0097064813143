package api

import (
	"net/http"

	"github.com/ashureev/coachd/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ListGoals returns the current week's goals.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	state := h.state.Load(r.Context(), userID)
	JSON(w, http.StatusOK, map[string]any{
		"weekOf": domain.CurrentWeekKey(),
		"goals":  state.CurrentWeekGoals(),
	})
}

type addTextRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// AddGoal adds a goal for the current week.
func (h *Handler) AddGoal(w http.ResponseWriter, r *http.Request) {
	var req addTextRequest
	if !h.decode(w, r, &req) {
		return
	}
	var goal domain.WeeklyGoal
	if _, ok := h.update(w, r, func(s *domain.UserState) (err error) {
		goal, err = s.AddWeeklyGoal(req.Text)
		return err
	}); !ok {
		return
	}
	JSON(w, http.StatusCreated, goal)
}

// UpdateGoal applies a partial update to a goal.
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req domain.GoalUpdate
	if !h.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	var goal domain.WeeklyGoal
	if _, ok := h.update(w, r, func(s *domain.UserState) (err error) {
		goal, err = s.UpdateWeeklyGoal(id, req)
		return err
	}); !ok {
		return
	}
	JSON(w, http.StatusOK, goal)
}

// DeleteGoal removes a goal.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.update(w, r, func(s *domain.UserState) error {
		return s.DeleteWeeklyGoal(id)
	}); !ok {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
