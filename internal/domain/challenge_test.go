package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCompletingCurrentAdvancesPointer(t *testing.T) {
	s := DefaultState()
	if err := s.UpdateChallengeProgress(1, ChallengeCompleted, ""); err != nil {
		t.Fatal(err)
	}
	if s.CurrentChallenge != 2 {
		t.Fatalf("expected current challenge 2, got %d", s.CurrentChallenge)
	}
}

func TestCompletingOtherChallengeKeepsPointer(t *testing.T) {
	s := DefaultState()
	if err := s.UpdateChallengeProgress(5, ChallengeCompleted, ""); err != nil {
		t.Fatal(err)
	}
	if s.CurrentChallenge != 1 {
		t.Fatalf("expected current challenge 1, got %d", s.CurrentChallenge)
	}
}

func TestAdvanceUsesLowestIncomplete(t *testing.T) {
	s := DefaultState()
	// 2 completed out of order; completing 1 must skip past it.
	mustUpdate(t, s, 2, ChallengeCompleted)
	mustUpdate(t, s, 1, ChallengeCompleted)
	if s.CurrentChallenge != 3 {
		t.Fatalf("expected current challenge 3, got %d", s.CurrentChallenge)
	}

	// Jumping ahead and completing does not skip an earlier incomplete one.
	if err := s.SetCurrentChallenge(10); err != nil {
		t.Fatal(err)
	}
	mustUpdate(t, s, 10, ChallengeCompleted)
	if s.CurrentChallenge != 3 {
		t.Fatalf("expected pointer to return to 3, got %d", s.CurrentChallenge)
	}
}

func TestAllCompletedLeavesPointer(t *testing.T) {
	s := DefaultState()
	for n := 1; n <= 21; n++ {
		mustUpdate(t, s, n, ChallengeCompleted)
	}
	if s.CurrentChallenge != 22 {
		t.Fatalf("expected current challenge 22, got %d", s.CurrentChallenge)
	}
	mustUpdate(t, s, 22, ChallengeCompleted)
	if s.CurrentChallenge != 22 {
		t.Fatalf("expected pointer to stay on 22, got %d", s.CurrentChallenge)
	}
	if s.CompletedCount() != 22 {
		t.Fatalf("expected 22 completed, got %d", s.CompletedCount())
	}
}

func TestStartedAtIsIdempotent(t *testing.T) {
	first := date(2026, time.October, 12)
	pinNow(t, first)
	s := DefaultState()
	mustUpdate(t, s, 3, ChallengeInProgress)

	pinNow(t, first.Add(48*time.Hour))
	mustUpdate(t, s, 3, ChallengeInProgress)

	c := s.Challenge(3)
	if c.StartedAt == nil || !c.StartedAt.Equal(first) {
		t.Fatalf("startedAt overwritten: %v", c.StartedAt)
	}
}

func TestCompletedAtIsRestamped(t *testing.T) {
	first := date(2026, time.October, 12)
	pinNow(t, first)
	s := DefaultState()
	mustUpdate(t, s, 4, ChallengeCompleted)

	mustUpdate(t, s, 4, ChallengeNotStarted)
	later := first.Add(24 * time.Hour)
	pinNow(t, later)
	mustUpdate(t, s, 4, ChallengeCompleted)

	c := s.Challenge(4)
	if c.CompletedAt == nil || !c.CompletedAt.Equal(later) {
		t.Fatalf("completedAt not restamped: %v", c.CompletedAt)
	}
}

func TestNotesAttachOnAnyTransition(t *testing.T) {
	s := DefaultState()
	if err := s.UpdateChallengeProgress(6, ChallengeInProgress, "future me says thanks"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateChallengeProgress(6, ChallengeCompleted, ""); err != nil {
		t.Fatal(err)
	}
	if got := s.Challenge(6).Notes; got != "future me says thanks" {
		t.Fatalf("empty notes should not clear existing notes, got %q", got)
	}
}

func TestUpdateChallengeProgressErrors(t *testing.T) {
	s := DefaultState()
	if err := s.UpdateChallengeProgress(23, ChallengeCompleted, ""); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
	if err := s.UpdateChallengeProgress(1, ChallengeStatus("done"), ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if err := s.SetCurrentChallenge(0); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestHotspotComplete(t *testing.T) {
	s := DefaultState()
	if s.HotspotComplete() {
		t.Fatal("hotspot should not be complete initially")
	}
	mustUpdate(t, s, 14, ChallengeCompleted)
	if !s.HotspotComplete() {
		t.Fatal("hotspot should be complete")
	}
}

func mustUpdate(t *testing.T, s *UserState, n int, status ChallengeStatus) {
	t.Helper()
	if err := s.UpdateChallengeProgress(n, status, ""); err != nil {
		t.Fatalf("UpdateChallengeProgress(%d, %s): %v", n, status, err)
	}
}
