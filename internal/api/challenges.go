package api

import (
	"net/http"
	"time"

	"github.com/ashureev/coachd/internal/curriculum"
	"github.com/ashureev/coachd/internal/domain"
	"github.com/ashureev/coachd/internal/identity"
	"github.com/ashureev/coachd/internal/prompts"
	"github.com/ashureev/coachd/internal/store"
)

type challengeView struct {
	Number   int                      `json:"number"`
	Title    string                   `json:"title"`
	Part     int                      `json:"part"`
	PartName string                   `json:"partName"`
	Progress domain.ChallengeProgress `json:"progress"`
}

// ListChallenges returns the curriculum with the caller's progress.
func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	state := h.state.Load(r.Context(), userID)

	views := make([]challengeView, 0, curriculum.Size)
	for _, def := range curriculum.All() {
		views = append(views, challengeView{
			Number:   def.Number,
			Title:    def.Title,
			Part:     def.Part,
			PartName: curriculum.PartName(def.Part),
			Progress: *state.Challenge(def.Number),
		})
	}
	JSON(w, http.StatusOK, map[string]any{
		"currentChallenge": state.CurrentChallenge,
		"completedCount":   state.CompletedCount(),
		"hotspotComplete":  state.HotspotComplete(),
		"challenges":       views,
	})
}

// GetChallenge returns one challenge with its reference content.
func (h *Handler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, ok := challengeParam(w, r)
	if !ok {
		return
	}
	def, found := curriculum.Lookup(n)
	if !found {
		Error(w, http.StatusNotFound, domain.ErrChallengeNotFound.Error())
		return
	}
	content, err := curriculum.ContentFor(n)
	if err != nil {
		h.writeError(w, err)
		return
	}
	state := h.state.Load(r.Context(), userID)
	JSON(w, http.StatusOK, map[string]any{
		"challenge": challengeView{
			Number:   def.Number,
			Title:    def.Title,
			Part:     def.Part,
			PartName: curriculum.PartName(def.Part),
			Progress: *state.Challenge(n),
		},
		"description": prompts.Description(n),
		"content":     content,
		"isCurrent":   state.CurrentChallenge == n,
	})
}

type challengeStatusRequest struct {
	Status domain.ChallengeStatus `json:"status"`
	Notes  string                 `json:"notes,omitempty"`
}

// UpdateChallengeStatus applies a status transition.
func (h *Handler) UpdateChallengeStatus(w http.ResponseWriter, r *http.Request) {
	n, ok := challengeParam(w, r)
	if !ok {
		return
	}
	var req challengeStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	state, ok := h.update(w, r, func(s *domain.UserState) error {
		return s.UpdateChallengeProgress(n, req.Status, req.Notes)
	})
	if !ok {
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"challenge":        state.Challenge(n),
		"currentChallenge": state.CurrentChallenge,
	})
}

type currentChallengeRequest struct {
	ChallengeNumber int `json:"challengeNumber"`
}

// SetCurrentChallenge moves the current pointer.
func (h *Handler) SetCurrentChallenge(w http.ResponseWriter, r *http.Request) {
	var req currentChallengeRequest
	if !h.decode(w, r, &req) {
		return
	}
	state, ok := h.update(w, r, func(s *domain.UserState) error {
		return s.SetCurrentChallenge(req.ChallengeNumber)
	})
	if !ok {
		return
	}
	JSON(w, http.StatusOK, map[string]any{"currentChallenge": state.CurrentChallenge})
}

// RequestChallengeConversation records that the caller's tab should open a
// conversation about a challenge. The next pending-conversation call from
// the same tab consumes it.
func (h *Handler) RequestChallengeConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, ok := challengeParam(w, r)
	if !ok {
		return
	}
	if !curriculum.Valid(n) {
		Error(w, http.StatusNotFound, domain.ErrChallengeNotFound.Error())
		return
	}
	sessionID := identity.SessionIDFromContext(r.Context())
	err := h.repo.PutSignal(r.Context(), store.Signal{
		UserID:          userID,
		SessionID:       sessionID,
		ChallengeNumber: n,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	JSON(w, http.StatusAccepted, map[string]any{"pending": true, "challengeNumber": n})
}
