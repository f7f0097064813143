// Package api provides the HTTP handlers of the coaching API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ashureev/coachd/internal/coach"
	"github.com/ashureev/coachd/internal/domain"
	"github.com/ashureev/coachd/internal/identity"
	"github.com/ashureev/coachd/internal/persistence"
	"github.com/ashureev/coachd/internal/store"
	"github.com/go-chi/chi/v5"
)

const defaultMaxBodySize = 1 << 20

// Options tunes a Handler.
type Options struct {
	// SignalTTL bounds how long a pending challenge conversation stays valid.
	SignalTTL time.Duration
	// MaxBodySize caps request bodies, including state imports.
	MaxBodySize int64
	Logger      *slog.Logger
}

// Handler serves the state, curriculum and conversation endpoints.
type Handler struct {
	repo       store.Repository
	state      *persistence.Layer
	controller *coach.Controller
	signalTTL  time.Duration
	maxBody    int64
	logger     *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(repo store.Repository, state *persistence.Layer, controller *coach.Controller, opts Options) *Handler {
	if opts.SignalTTL <= 0 {
		opts.SignalTTL = 10 * time.Minute
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		repo:       repo,
		state:      state,
		controller: controller,
		signalTTL:  opts.SignalTTL,
		maxBody:    opts.MaxBodySize,
		logger:     opts.Logger,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Get("/state/export", h.ExportState)
		r.Post("/state/import", h.ImportState)

		r.Get("/challenges", h.ListChallenges)
		r.Put("/challenges/current", h.SetCurrentChallenge)
		r.Get("/challenges/{number}", h.GetChallenge)
		r.Put("/challenges/{number}/status", h.UpdateChallengeStatus)
		r.Post("/challenges/{number}/conversation", h.RequestChallengeConversation)

		r.Get("/goals", h.ListGoals)
		r.Post("/goals", h.AddGoal)
		r.Patch("/goals/{id}", h.UpdateGoal)
		r.Delete("/goals/{id}", h.DeleteGoal)

		r.Get("/parking-lot", h.ListParkingLot)
		r.Post("/parking-lot", h.AddParkingLotItem)
		r.Post("/parking-lot/{id}/promote", h.PromoteParkingLotItem)
		r.Post("/parking-lot/{id}/resolve", h.ResolveParkingLotItem)
		r.Delete("/parking-lot/{id}", h.DeleteParkingLotItem)

		r.Get("/entries", h.ListEntries)
		r.Get("/prompts/{mode}", h.PreviewPrompt)

		r.Get("/conversation", h.GetConversation)
		r.Delete("/conversation", h.ResetConversation)
		r.Post("/conversation/start", h.StartConversation)
		r.Post("/conversation/message", h.SendMessage)
		r.Post("/conversation/pending", h.StartPendingConversation)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// requireUser returns the caller's user ID, writing 401 when there is none.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// decode reads a JSON body into v, writing the error response on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			Error(w, http.StatusBadRequest, "request body required")
		default:
			Error(w, http.StatusBadRequest, "invalid request body")
		}
		return false
	}
	return true
}

// update runs fn against the caller's state and writes the error response
// if it fails.
func (h *Handler) update(w http.ResponseWriter, r *http.Request, fn func(*domain.UserState) error) (*domain.UserState, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	state, err := h.state.Update(r.Context(), userID, fn)
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return state, true
}

// writeError maps domain and controller errors to HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalid), errors.Is(err, coach.ErrEmptyMessage):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrGoalNotFound),
		errors.Is(err, domain.ErrParkingItemNotFound),
		errors.Is(err, coach.ErrNoConversation):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, coach.ErrBusy):
		Error(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Request failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

func challengeParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		Error(w, http.StatusNotFound, domain.ErrChallengeNotFound.Error())
		return 0, false
	}
	return n, true
}
