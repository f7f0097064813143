// Package prompts renders the system prompts that steer each coaching
// conversation. Every renderer is a pure function of its Config.
package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/coachd/internal/curriculum"
	"github.com/ashureev/coachd/internal/domain"
)

// Mode names a conversation type.
type Mode string

const (
	ModeMorning   Mode = "morning"
	ModeEvening   Mode = "evening"
	ModeChallenge Mode = "challenge"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeMorning, ModeEvening, ModeChallenge:
		return m, nil
	}
	return "", fmt.Errorf("unknown conversation mode %q", s)
}

// EntryType maps a mode to the entry type its transcript is stored under.
func (m Mode) EntryType() domain.EntryType {
	switch m {
	case ModeEvening:
		return domain.EntryEvening
	case ModeChallenge:
		return domain.EntryChallenge
	default:
		return domain.EntryMorning
	}
}

// Config is everything a renderer may interpolate.
type Config struct {
	CurrentChallenge *domain.ChallengeProgress
	HotspotComplete  bool
	IsStartOfWeek    bool
	IsEndOfWeek      bool
	WeeklyGoals      []domain.WeeklyGoal
	ParkingLotItems  []domain.ParkingLotItem
}

// ConfigFromState snapshots the parts of state the renderers use. The
// start-of-week window is Sunday and Monday; the end-of-week window is
// Friday and Saturday.
func ConfigFromState(state *domain.UserState, now time.Time) Config {
	cfg := Config{
		HotspotComplete: state.HotspotComplete(),
		IsStartOfWeek:   now.Weekday() == time.Sunday || now.Weekday() == time.Monday,
		IsEndOfWeek:     now.Weekday() == time.Friday || now.Weekday() == time.Saturday,
		WeeklyGoals:     state.GoalsForWeek(domain.WeekKey(now)),
		ParkingLotItems: state.ActiveParkingLotItems(),
	}
	if current := state.CurrentChallengeProgress(); current != nil {
		c := *current
		cfg.CurrentChallenge = &c
	}
	return cfg
}

// Render dispatches to the renderer for mode. challengeNumber is only used
// by ModeChallenge.
func Render(mode Mode, cfg Config, challengeNumber int) string {
	switch mode {
	case ModeEvening:
		return Evening(cfg)
	case ModeChallenge:
		return ChallengeConversation(challengeNumber)
	default:
		return Morning(cfg)
	}
}

// Description returns the coaching description for a challenge, or "" for
// numbers outside the curriculum.
func Description(number int) string {
	if !curriculum.Valid(number) {
		return ""
	}
	return descriptions[number-1]
}

func writeGoals(b *strings.Builder, goals []domain.WeeklyGoal) {
	for _, g := range goals {
		fmt.Fprintf(b, "- %s [%s]\n", g.Text, goalStatusLabel(g.Status))
	}
}

func writeParkingLot(b *strings.Builder, items []domain.ParkingLotItem) {
	for _, item := range items {
		if item.Source != "" {
			fmt.Fprintf(b, "- %s (from %s)\n", item.Text, item.Source)
			continue
		}
		fmt.Fprintf(b, "- %s\n", item.Text)
	}
}

func goalStatusLabel(s domain.GoalStatus) string {
	switch s {
	case domain.GoalInProgress:
		return "in progress"
	case domain.GoalCompleted:
		return "completed"
	default:
		return "not started"
	}
}

func hotspotAreas() string {
	return strings.Join(curriculum.HotspotAreas, ", ")
}
