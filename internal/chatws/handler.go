package chatws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/ashureev/coachd/internal/coach"
	"github.com/ashureev/coachd/internal/identity"
	"github.com/ashureev/coachd/internal/prompts"
	"github.com/coder/websocket"
)

const lastSeenTimeout = 5 * time.Second

// LastSeenUpdater records user activity.
type LastSeenUpdater interface {
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error
}

// Handler upgrades requests to websocket conversation sessions.
type Handler struct {
	controller     *coach.Controller
	registry       *Registry
	users          LastSeenUpdater
	allowedOrigins []string
	isDev          bool
	logger         *slog.Logger
}

// NewHandler creates a websocket handler. users may be nil.
func NewHandler(controller *coach.Controller, registry *Registry, users LastSeenUpdater, allowedOrigins []string, isDev bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		controller:     controller,
		registry:       registry,
		users:          users,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
		logger:         logger,
	}
}

// clientMessage is a frame sent by the client.
type clientMessage struct {
	Type            string `json:"type"`
	Mode            string `json:"mode,omitempty"`
	ChallengeNumber int    `json:"challengeNumber,omitempty"`
	Content         string `json:"content,omitempty"`
}

// serverMessage is a frame sent to the client.
type serverMessage struct {
	Type         string              `json:"type"`
	Conversation *coach.Conversation `json:"conversation,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("Failed to accept websocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		_ = ws.Close(websocket.StatusNormalClosure, "session ended")
	}()

	h.registry.Register(userID, sessionID, ws)
	defer h.registry.Unregister(userID, sessionID, ws)

	ctx := r.Context()
	if conv, err := h.controller.Current(userID, sessionID); err == nil {
		_ = h.write(ctx, ws, serverMessage{Type: "conversation", Conversation: &conv})
	}

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("Websocket closed by client", "user_id", userID)
			} else if !errors.Is(err, context.Canceled) {
				h.logger.Warn("Websocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = h.write(ctx, ws, serverMessage{Type: "error", Error: "invalid message"})
			continue
		}
		if msg.Type == "close" {
			return
		}
		if err := h.write(ctx, ws, h.dispatch(ctx, ws, userID, sessionID, msg)); err != nil {
			h.logger.Debug("Websocket write error", "error", err, "user_id", userID)
			return
		}
		h.touch(userID)
	}
}

func (h *Handler) dispatch(ctx context.Context, ws *websocket.Conn, userID, sessionID string, msg clientMessage) serverMessage {
	switch msg.Type {
	case "ping":
		return serverMessage{Type: "pong"}
	case "get":
		conv, err := h.controller.Current(userID, sessionID)
		return conversationOrError(conv, err)
	case "start":
		mode, err := prompts.ParseMode(msg.Mode)
		if msg.Mode == "" {
			mode, err = coach.DefaultMode(time.Now()), nil
		}
		if err != nil {
			return serverMessage{Type: "error", Error: err.Error()}
		}
		_ = h.write(ctx, ws, serverMessage{Type: "loading"})
		conv, err := h.controller.Start(ctx, userID, sessionID, mode, msg.ChallengeNumber)
		return conversationOrError(conv, err)
	case "send":
		_ = h.write(ctx, ws, serverMessage{Type: "loading"})
		conv, err := h.controller.Send(ctx, userID, sessionID, msg.Content)
		return conversationOrError(conv, err)
	case "reset":
		h.controller.Reset(userID, sessionID)
		return serverMessage{Type: "reset"}
	default:
		return serverMessage{Type: "error", Error: "unknown message type"}
	}
}

func conversationOrError(conv coach.Conversation, err error) serverMessage {
	if err != nil {
		return serverMessage{Type: "error", Error: err.Error()}
	}
	return serverMessage{Type: "conversation", Conversation: &conv}
}

func (h *Handler) touch(userID string) {
	if h.users == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), lastSeenTimeout)
		defer cancel()
		if err := h.users.UpdateLastSeen(ctx, userID, time.Now()); err != nil {
			h.logger.Warn("Failed to update last seen", "error", err)
		}
	}()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	h.logger.Warn("Websocket origin rejected", "origin", origin)
	return false
}

func (h *Handler) write(ctx context.Context, ws *websocket.Conn, msg serverMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
