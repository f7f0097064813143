package agent

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/coachd/internal/identity"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// Handler serves the chat relay endpoint.
type Handler struct {
	service     *Service
	rateLimiter *RateLimiter
	maxBodySize int64
	logger      *slog.Logger
}

// NewHandler creates the relay handler. limiter may be shared with other
// callers of the service.
func NewHandler(service *Service, limiter *RateLimiter, maxBodySize int64, logger *slog.Logger) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxRequestBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:     service,
		rateLimiter: limiter,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// RegisterRoutes registers the relay route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)
}

// HandleChat handles POST /api/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	key := userID
	if key == "" {
		key = identity.IPFromRequest(r)
	}
	if h.rateLimiter != nil && !h.rateLimiter.Allow(key) {
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Messages == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Messages array required"})
		return
	}

	req.UserID = userID
	req.SessionID = identity.SessionIDFromContext(r.Context())

	reply, err := h.service.Reply(r.Context(), req)
	if err != nil {
		status, body := h.errorResponse(err)
		h.logger.Warn("Chat relay request failed",
			"user_id", userID,
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"status", status,
			"error", err)
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Message: reply})
}

// errorResponse maps relay errors onto the three client-visible classes.
func (h *Handler) errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, ErrMissingCredential):
		return http.StatusInternalServerError, ErrorResponse{
			Error: "API key not configured",
			Code:  "configuration_error",
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to get response from " + h.service.ProviderName(),
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
