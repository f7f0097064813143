// Package coach runs coaching conversations: it renders the system prompt
// from stored state, relays the transcript, and records each completed
// exchange as the day's entry.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/coachd/internal/agent"
	"github.com/ashureev/coachd/internal/curriculum"
	"github.com/ashureev/coachd/internal/domain"
	"github.com/ashureev/coachd/internal/persistence"
	"github.com/ashureev/coachd/internal/prompts"
)

var (
	// ErrBusy is returned when a reply is already outstanding for the session.
	ErrBusy = errors.New("a reply is already in progress")
	// ErrNoConversation is returned when the session has no conversation.
	ErrNoConversation = errors.New("no conversation in progress")
	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("message is empty")
)

const (
	startFailureMessage = "Hi! I'm having trouble connecting right now. Please check your API key and try again."
	sendFailureMessage  = "I'm having trouble responding. Please try again."
)

// eveningStartHour is the local hour from which the default mode is evening.
const eveningStartHour = 15

// timeNow is replaced in tests.
var timeNow = time.Now

// Conversation is a snapshot of one session's conversation.
type Conversation struct {
	Mode            prompts.Mode     `json:"mode"`
	ChallengeNumber int              `json:"challengeNumber,omitempty"`
	ChallengeTitle  string           `json:"challengeTitle,omitempty"`
	Date            string           `json:"date"`
	Messages        []domain.Message `json:"messages"`
	Loading         bool             `json:"loading"`
	StartedAt       time.Time        `json:"startedAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type session struct {
	inFlight sync.Mutex // held for the duration of a relay call

	mu         sync.Mutex
	conv       *Conversation
	loading    bool
	lastActive time.Time
}

// Controller owns the live conversations of all user sessions.
type Controller struct {
	state   *persistence.Layer
	replier agent.Replier
	log     agent.ConversationLogger
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewController creates a controller.
func NewController(state *persistence.Layer, replier agent.Replier, log agent.ConversationLogger, logger *slog.Logger) *Controller {
	if log == nil {
		log = agent.NoopConversationLogger()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		state:    state,
		replier:  replier,
		log:      log,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// DefaultMode picks morning before 15:00 local time and evening after.
func DefaultMode(t time.Time) prompts.Mode {
	if t.Hour() < eveningStartHour {
		return prompts.ModeMorning
	}
	return prompts.ModeEvening
}

// SystemPrompt renders the prompt for a mode from the user's current state.
func (c *Controller) SystemPrompt(ctx context.Context, userID string, mode prompts.Mode, challengeNumber int) string {
	if mode == prompts.ModeChallenge {
		return prompts.ChallengeConversation(challengeNumber)
	}
	state := c.state.Load(ctx, userID)
	return prompts.Render(mode, prompts.ConfigFromState(state, timeNow()), challengeNumber)
}

// Start begins a fresh conversation for the session, replacing any previous
// one, and returns it with the assistant's opening turn. A relay failure is
// not an error: a fallback assistant turn is recorded instead.
func (c *Controller) Start(ctx context.Context, userID, sessionID string, mode prompts.Mode, challengeNumber int) (Conversation, error) {
	conv := &Conversation{Mode: mode, Messages: []domain.Message{}}
	if mode == prompts.ModeChallenge {
		def, ok := curriculum.Lookup(challengeNumber)
		if !ok {
			return Conversation{}, fmt.Errorf("%w: %d", domain.ErrChallengeNotFound, challengeNumber)
		}
		conv.ChallengeNumber = def.Number
		conv.ChallengeTitle = def.Title
	}

	s := c.session(userID, sessionID)
	if !s.inFlight.TryLock() {
		return Conversation{}, ErrBusy
	}
	defer s.inFlight.Unlock()

	now := timeNow()
	conv.Date = domain.DateKey(now)
	conv.StartedAt = now
	conv.UpdatedAt = now
	s.begin(conv)
	defer s.finish()

	c.log.Log(agent.ConversationLogEvent{
		UserID:    userID,
		SessionID: sessionID,
		Channel:   "controller",
		Direction: "internal",
		EventType: "conversation_started",
		Mode:      string(mode),
	})

	reply, err := c.replier.Reply(ctx, agent.ChatRequest{
		Messages:     []agent.ChatMessage{},
		SystemPrompt: c.SystemPrompt(ctx, userID, mode, conv.ChallengeNumber),
		UserID:       userID,
		SessionID:    sessionID,
	})
	if err != nil {
		c.logger.Warn("Failed to start conversation", "user_id", userID, "session_id", sessionID, "mode", mode, "error", err)
		reply = startFallback(mode, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == conv {
		conv.Messages = append(conv.Messages, domain.NewMessage(domain.RoleAssistant, reply))
		conv.UpdatedAt = timeNow()
	}
	return conv.snapshot(false), nil
}

// Send appends a user turn, relays the transcript and appends the reply.
// After a successful exchange the transcript is saved as the day's entry.
// A relay failure appends a fallback assistant turn and is not an error.
func (c *Controller) Send(ctx context.Context, userID, sessionID, content string) (Conversation, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Conversation{}, ErrEmptyMessage
	}

	s := c.session(userID, sessionID)
	if !s.inFlight.TryLock() {
		return Conversation{}, ErrBusy
	}
	defer s.inFlight.Unlock()

	s.mu.Lock()
	conv := s.conv
	if conv == nil {
		s.mu.Unlock()
		return Conversation{}, ErrNoConversation
	}
	conv.Messages = append(conv.Messages, domain.NewMessage(domain.RoleUser, content))
	conv.UpdatedAt = timeNow()
	transcript := toChatMessages(conv.Messages)
	mode, number := conv.Mode, conv.ChallengeNumber
	s.loading = true
	s.lastActive = timeNow()
	s.mu.Unlock()
	defer s.finish()

	reply, err := c.replier.Reply(ctx, agent.ChatRequest{
		Messages:     transcript,
		SystemPrompt: c.SystemPrompt(ctx, userID, mode, number),
		UserID:       userID,
		SessionID:    sessionID,
	})

	s.mu.Lock()
	if s.conv != conv {
		// Reset while the reply was outstanding.
		s.mu.Unlock()
		return Conversation{}, ErrNoConversation
	}
	if err != nil {
		c.logger.Warn("Failed to get reply", "user_id", userID, "session_id", sessionID, "mode", mode, "error", err)
		conv.Messages = append(conv.Messages, domain.NewMessage(domain.RoleAssistant, sendFailureMessage))
		conv.UpdatedAt = timeNow()
		snap := conv.snapshot(false)
		s.mu.Unlock()
		return snap, nil
	}
	conv.Messages = append(conv.Messages, domain.NewMessage(domain.RoleAssistant, reply))
	conv.UpdatedAt = timeNow()
	snap := conv.snapshot(false)
	s.mu.Unlock()

	if err := c.saveEntry(ctx, userID, snap); err != nil {
		c.logger.Error("Failed to save conversation entry", "user_id", userID, "session_id", sessionID, "error", err)
	}
	return snap, nil
}

// Current returns the session's conversation.
func (c *Controller) Current(userID, sessionID string) (Conversation, error) {
	s := c.existingSession(userID, sessionID)
	if s == nil {
		return Conversation{}, ErrNoConversation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil {
		return Conversation{}, ErrNoConversation
	}
	return s.conv.snapshot(s.loading), nil
}

// Reset discards the session's conversation. Saved entries are kept.
func (c *Controller) Reset(userID, sessionID string) {
	c.mu.Lock()
	s, ok := c.sessions[sessionKey(userID, sessionID)]
	c.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.conv = nil
	s.lastActive = timeNow()
	s.mu.Unlock()

	c.log.Log(agent.ConversationLogEvent{
		UserID:    userID,
		SessionID: sessionID,
		Channel:   "controller",
		Direction: "internal",
		EventType: "conversation_reset",
	})
}

// PruneIdle drops sessions idle for longer than ttl that have no reply
// outstanding. It returns the number removed.
func (c *Controller) PruneIdle(now time.Time, ttl time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, s := range c.sessions {
		if !s.inFlight.TryLock() {
			continue
		}
		s.mu.Lock()
		idle := now.Sub(s.lastActive) > ttl
		s.mu.Unlock()
		if idle {
			delete(c.sessions, key)
			removed++
		}
		s.inFlight.Unlock()
	}
	return removed
}

func (c *Controller) saveEntry(ctx context.Context, userID string, conv Conversation) error {
	_, err := c.state.Update(ctx, userID, func(state *domain.UserState) error {
		typ := conv.Mode.EntryType()
		entry := domain.NewEntry(conv.Date, typ)
		if existing := state.EntryFor(conv.Date, typ, conv.ChallengeNumber); existing != nil {
			entry = *existing
		}
		entry.ChallengeNumber = conv.ChallengeNumber
		entry.ChallengeTitle = conv.ChallengeTitle
		entry.Messages = conv.Messages
		entry.UpdatedAt = timeNow()
		state.SaveEntry(entry)
		return nil
	})
	return err
}

func (c *Controller) session(userID, sessionID string) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := sessionKey(userID, sessionID)
	s, ok := c.sessions[key]
	if !ok {
		s = &session{lastActive: timeNow()}
		c.sessions[key] = s
	}
	return s
}

func (c *Controller) existingSession(userID, sessionID string) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[sessionKey(userID, sessionID)]
}

func (s *session) begin(conv *Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv = conv
	s.loading = true
	s.lastActive = timeNow()
}

func (s *session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastActive = timeNow()
}

func (c *Conversation) snapshot(loading bool) Conversation {
	out := *c
	out.Messages = append([]domain.Message(nil), c.Messages...)
	if out.Messages == nil {
		out.Messages = []domain.Message{}
	}
	out.Loading = loading
	return out
}

func startFallback(mode prompts.Mode, err error) string {
	if mode != prompts.ModeChallenge {
		return startFailureMessage
	}
	reason := "Failed to start challenge conversation"
	if errors.Is(err, agent.ErrMissingCredential) {
		reason = "API key not configured"
	}
	return "Connection error: " + reason
}

func toChatMessages(msgs []domain.Message) []agent.ChatMessage {
	out := make([]agent.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, agent.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func sessionKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}
