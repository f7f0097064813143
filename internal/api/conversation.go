package api

import (
	"net/http"
	"time"

	"github.com/ashureev/coachd/internal/coach"
	"github.com/ashureev/coachd/internal/curriculum"
	"github.com/ashureev/coachd/internal/identity"
	"github.com/ashureev/coachd/internal/prompts"
)

type startRequest struct {
	Mode            string `json:"mode,omitempty"`
	ChallengeNumber int    `json:"challengeNumber,omitempty"`
}

type messageRequest struct {
	Content string `json:"content"`
}

// GetConversation returns the conversation of the caller's tab.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	conv, err := h.controller.Current(userID, identity.SessionIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, conv)
}

// StartConversation begins a new conversation. The body is optional; without
// a mode the default for the time of day is used.
func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req startRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	mode := coach.DefaultMode(time.Now())
	if req.Mode != "" {
		var err error
		if mode, err = prompts.ParseMode(req.Mode); err != nil {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	conv, err := h.controller.Start(r.Context(), userID, identity.SessionIDFromContext(r.Context()), mode, req.ChallengeNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, conv)
}

// SendMessage adds a user turn and returns the updated conversation.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if !h.decode(w, r, &req) {
		return
	}
	conv, err := h.controller.Send(r.Context(), userID, identity.SessionIDFromContext(r.Context()), req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, conv)
}

// StartPendingConversation consumes the tab's pending challenge signal and,
// if one is present and fresh, starts that challenge's conversation.
func (h *Handler) StartPendingConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	sessionID := identity.SessionIDFromContext(r.Context())
	signal, err := h.repo.TakeSignal(r.Context(), userID, sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if signal == nil || time.Since(signal.CreatedAt) > h.signalTTL || !curriculum.Valid(signal.ChallengeNumber) {
		JSON(w, http.StatusOK, map[string]any{"started": false})
		return
	}
	conv, err := h.controller.Start(r.Context(), userID, sessionID, prompts.ModeChallenge, signal.ChallengeNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"started": true, "conversation": conv})
}

// ResetConversation discards the tab's conversation.
func (h *Handler) ResetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.controller.Reset(userID, identity.SessionIDFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
