package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/ashureev/coachd/internal/curriculum"
)

var (
	// ErrChallengeNotFound is returned for numbers outside the curriculum.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrInvalid wraps rejected user input.
	ErrInvalid = errors.New("invalid input")
)

// ChallengeStatus is the progress state of one curriculum item.
type ChallengeStatus string

const (
	ChallengeNotStarted ChallengeStatus = "not_started"
	ChallengeInProgress ChallengeStatus = "in_progress"
	ChallengeCompleted  ChallengeStatus = "completed"
)

// Valid reports whether s is a known status.
func (s ChallengeStatus) Valid() bool {
	switch s {
	case ChallengeNotStarted, ChallengeInProgress, ChallengeCompleted:
		return true
	}
	return false
}

// ChallengeProgress tracks the user's progress on one curriculum item.
type ChallengeProgress struct {
	ChallengeNumber int             `json:"challengeNumber"`
	Title           string          `json:"title"`
	Status          ChallengeStatus `json:"status"`
	StartedAt       *time.Time      `json:"startedAt,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// Challenge returns the progress record for number.
func (s *UserState) Challenge(number int) *ChallengeProgress {
	for i := range s.Challenges {
		if s.Challenges[i].ChallengeNumber == number {
			return &s.Challenges[i]
		}
	}
	return nil
}

// CurrentChallengeProgress returns the record the current pointer refers to.
func (s *UserState) CurrentChallengeProgress() *ChallengeProgress {
	return s.Challenge(s.CurrentChallenge)
}

// SetCurrentChallenge moves the current pointer explicitly.
func (s *UserState) SetCurrentChallenge(number int) error {
	if !curriculum.Valid(number) || s.Challenge(number) == nil {
		return fmt.Errorf("%w: %d", ErrChallengeNotFound, number)
	}
	s.CurrentChallenge = number
	return nil
}

// UpdateChallengeProgress applies a status transition to a challenge.
//
// Entering in_progress stamps StartedAt only the first time. Entering
// completed always restamps CompletedAt. Non-empty notes replace the
// existing notes. Completing the current challenge advances the pointer to
// the lowest-numbered challenge that is not completed; if every challenge is
// completed the pointer stays where it is.
func (s *UserState) UpdateChallengeProgress(number int, status ChallengeStatus, notes string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: challenge status %q", ErrInvalid, status)
	}
	c := s.Challenge(number)
	if c == nil {
		return fmt.Errorf("%w: %d", ErrChallengeNotFound, number)
	}

	now := timeNow()
	c.Status = status
	if status == ChallengeInProgress && c.StartedAt == nil {
		c.StartedAt = &now
	}
	if status == ChallengeCompleted {
		c.CompletedAt = &now
	}
	if notes != "" {
		c.Notes = notes
	}

	if status == ChallengeCompleted && number == s.CurrentChallenge {
		if next := s.lowestIncomplete(); next != nil {
			s.CurrentChallenge = next.ChallengeNumber
		}
	}
	return nil
}

// CompletedCount returns how many challenges are completed.
func (s *UserState) CompletedCount() int {
	n := 0
	for _, c := range s.Challenges {
		if c.Status == ChallengeCompleted {
			n++
		}
	}
	return n
}

// HotspotComplete reports whether the seven-area hot spot challenge is done.
func (s *UserState) HotspotComplete() bool {
	c := s.Challenge(curriculum.HotspotChallenge)
	return c != nil && c.Status == ChallengeCompleted
}

func (s *UserState) lowestIncomplete() *ChallengeProgress {
	var best *ChallengeProgress
	for i := range s.Challenges {
		c := &s.Challenges[i]
		if c.Status == ChallengeCompleted {
			continue
		}
		if best == nil || c.ChallengeNumber < best.ChallengeNumber {
			best = c
		}
	}
	return best
}
