package prompts

import (
	"strings"
	"testing"
	"time"

	"github.com/ashureev/coachd/internal/domain"
)

func sampleConfig() Config {
	return Config{
		CurrentChallenge: &domain.ChallengeProgress{ChallengeNumber: 3, Title: "The Rule of 3 Challenge", Status: domain.ChallengeInProgress},
		HotspotComplete:  true,
		IsStartOfWeek:    true,
		WeeklyGoals: []domain.WeeklyGoal{
			{ID: "g1", Text: "Finish the report", Status: domain.GoalInProgress, WeekOf: "2026-10-12"},
		},
		ParkingLotItems: []domain.ParkingLotItem{
			{ID: "p1", Text: "Book dentist", Source: "morning check-in"},
		},
	}
}

func TestMorningIsDeterministic(t *testing.T) {
	cfg := sampleConfig()
	if Morning(cfg) != Morning(cfg) {
		t.Fatal("morning prompt differs between calls with identical config")
	}
	if Evening(cfg) != Evening(cfg) {
		t.Fatal("evening prompt differs between calls with identical config")
	}
}

func TestMorningIncludesState(t *testing.T) {
	out := Morning(sampleConfig())
	for _, want := range []string{
		"CURRENT CHALLENGE: The Rule of 3 Challenge (Challenge 3 of 22)",
		"THE RULE OF 3 CHALLENGE:",
		"- Finish the report [in progress]",
		"- Book dentist (from morning check-in)",
		"hot spots (Mind, Body, Emotions, Career, Finances, Relationships, Fun)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("morning prompt missing %q", want)
		}
	}
}

func TestHotspotGate(t *testing.T) {
	tests := []struct {
		name     string
		complete bool
		start    bool
		end      bool
		morning  bool
		evening  bool
	}{
		{"not completed", false, true, true, false, false},
		{"completed start of week", true, true, false, true, false},
		{"completed end of week", true, false, true, false, true},
		{"completed midweek", true, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{HotspotComplete: tt.complete, IsStartOfWeek: tt.start, IsEndOfWeek: tt.end}
			if got := strings.Contains(Morning(cfg), "hot spots"); got != tt.morning {
				t.Errorf("morning hotspot section = %v, want %v", got, tt.morning)
			}
			if got := strings.Contains(Evening(cfg), "hot spots"); got != tt.evening {
				t.Errorf("evening hotspot section = %v, want %v", got, tt.evening)
			}
		})
	}
}

func TestMorningWithoutState(t *testing.T) {
	out := Morning(Config{})
	if strings.Contains(out, "CURRENT CHALLENGE") || strings.Contains(out, "PARKING LOT (") {
		t.Fatal("empty config should not render state sections")
	}
	if !strings.Contains(out, "no goals set for this week") {
		t.Fatal("expected prompt to invite setting weekly goals")
	}
	if !strings.HasPrefix(out, "You are a warm, supportive productivity coach having a morning check-in") {
		t.Fatalf("unexpected opening: %.80q", out)
	}
}

func TestEveningMirrorsMorningSections(t *testing.T) {
	out := Evening(sampleConfig())
	for _, want := range []string{
		"THE EVENING REFLECTION FLOW:",
		"Review the top 3 priorities",
		"Glance at the parking lot",
		"weekly goals forward",
		"What are you grateful for today?",
		"- Finish the report [in progress]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("evening prompt missing %q", want)
		}
	}
}

func TestFlowStepsAreNumberedSequentially(t *testing.T) {
	out := Morning(sampleConfig())
	for i := 1; i <= 7; i++ {
		if !strings.Contains(out, "\n"+string(rune('0'+i))+". ") {
			t.Fatalf("morning flow missing step %d", i)
		}
	}
	if strings.Contains(out, "\n8. ") {
		t.Fatal("morning flow has more steps than expected")
	}
}

func TestChallengeConversation(t *testing.T) {
	out := ChallengeConversation(14)
	for _, want := range []string{
		`"The Hot Spot Challenge"`,
		"THE HOT SPOT CHALLENGE:",
		"STEPS TO COVER:",
		"mark this challenge as complete",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("challenge prompt missing %q", want)
		}
	}
	if ChallengeConversation(14) != out {
		t.Fatal("challenge prompt is not deterministic")
	}
}

func TestChallengeConversationFallsBackToMorning(t *testing.T) {
	for _, n := range []int{0, 23, -4} {
		if got := ChallengeConversation(n); got != Morning(Config{}) {
			t.Fatalf("ChallengeConversation(%d) should fall back to the morning prompt", n)
		}
	}
}

func TestDescriptionsCoverCurriculum(t *testing.T) {
	for n := 1; n <= 22; n++ {
		if Description(n) == "" {
			t.Fatalf("missing description for %d", n)
		}
	}
	if Description(23) != "" {
		t.Fatal("expected no description outside the curriculum")
	}
}

func TestConfigFromState(t *testing.T) {
	state := domain.DefaultState()
	if err := state.UpdateChallengeProgress(14, domain.ChallengeCompleted, ""); err != nil {
		t.Fatal(err)
	}
	state.WeeklyGoals = append(state.WeeklyGoals,
		domain.WeeklyGoal{ID: "this", Text: "this week", Status: domain.GoalPending, WeekOf: "2026-10-12"},
		domain.WeeklyGoal{ID: "last", Text: "last week", Status: domain.GoalPending, WeekOf: "2026-10-05"},
	)
	if _, err := state.AddParkingLotItem("someday", ""); err != nil {
		t.Fatal(err)
	}

	sunday := time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC)
	cfg := ConfigFromState(state, sunday)
	if !cfg.HotspotComplete || !cfg.IsStartOfWeek || cfg.IsEndOfWeek {
		t.Fatalf("unexpected flags for sunday: %+v", cfg)
	}
	if len(cfg.WeeklyGoals) != 1 || cfg.WeeklyGoals[0].ID != "this" {
		t.Fatalf("expected only this week's goal, got %+v", cfg.WeeklyGoals)
	}
	if len(cfg.ParkingLotItems) != 1 {
		t.Fatalf("expected one parking lot item, got %d", len(cfg.ParkingLotItems))
	}
	if cfg.CurrentChallenge == nil || cfg.CurrentChallenge.ChallengeNumber != 1 {
		t.Fatalf("unexpected current challenge: %+v", cfg.CurrentChallenge)
	}

	cfg.CurrentChallenge.Title = "mutated"
	if state.Challenge(1).Title == "mutated" {
		t.Fatal("config should not alias state")
	}

	friday := time.Date(2026, time.October, 16, 20, 0, 0, 0, time.UTC)
	cfg = ConfigFromState(state, friday)
	if cfg.IsStartOfWeek || !cfg.IsEndOfWeek {
		t.Fatalf("unexpected flags for friday: %+v", cfg)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" Evening "); err != nil || m != ModeEvening {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode("lunch"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if ModeChallenge.EntryType() != domain.EntryChallenge {
		t.Fatal("challenge mode should map to challenge entries")
	}
}
