package domain

import (
	"encoding/json"
	"fmt"

	"github.com/ashureev/coachd/internal/curriculum"
)

// UserState is the aggregate root persisted as a single blob.
type UserState struct {
	CurrentChallenge int                 `json:"currentChallenge"`
	Challenges       []ChallengeProgress `json:"challenges"`
	Entries          []DailyEntry        `json:"entries"`
	WeeklyGoals      []WeeklyGoal        `json:"weeklyGoals"`
	ParkingLot       []ParkingLotItem    `json:"parkingLot"`
}

// DefaultState returns the state of a user who has never saved anything.
func DefaultState() *UserState {
	s := &UserState{
		CurrentChallenge: 1,
		Entries:          []DailyEntry{},
		WeeklyGoals:      []WeeklyGoal{},
		ParkingLot:       []ParkingLotItem{},
	}
	s.Challenges = seedChallenges(nil)
	return s
}

// DecodeState parses a stored blob and backfills fields added after it was
// written. A parse failure is returned as-is; callers decide how to degrade.
func DecodeState(data []byte) (*UserState, error) {
	var s UserState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode user state: %w", err)
	}
	s.Normalize()
	return &s, nil
}

// Encode serializes the full aggregate.
func (s *UserState) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode user state: %w", err)
	}
	return data, nil
}

// Normalize restores the structural invariants: one progress record per
// curriculum number, a valid current pointer, and non-nil collections.
func (s *UserState) Normalize() {
	s.Challenges = seedChallenges(s.Challenges)
	if !curriculum.Valid(s.CurrentChallenge) {
		s.CurrentChallenge = 1
		if next := s.lowestIncomplete(); next != nil {
			s.CurrentChallenge = next.ChallengeNumber
		}
	}
	if s.Entries == nil {
		s.Entries = []DailyEntry{}
	}
	for i := range s.Entries {
		if s.Entries[i].Messages == nil {
			s.Entries[i].Messages = []Message{}
		}
	}
	if s.WeeklyGoals == nil {
		s.WeeklyGoals = []WeeklyGoal{}
	}
	if s.ParkingLot == nil {
		s.ParkingLot = []ParkingLotItem{}
	}
}

// seedChallenges returns exactly one record per curriculum number in order,
// keeping the first existing record for each number.
func seedChallenges(existing []ChallengeProgress) []ChallengeProgress {
	byNumber := make(map[int]ChallengeProgress, len(existing))
	for _, c := range existing {
		if _, seen := byNumber[c.ChallengeNumber]; !seen {
			byNumber[c.ChallengeNumber] = c
		}
	}

	out := make([]ChallengeProgress, 0, curriculum.Size)
	for _, def := range curriculum.All() {
		c, ok := byNumber[def.Number]
		if !ok {
			c = ChallengeProgress{ChallengeNumber: def.Number, Status: ChallengeNotStarted}
		}
		if c.Title == "" {
			c.Title = def.Title
		}
		if !c.Status.Valid() {
			c.Status = ChallengeNotStarted
		}
		out = append(out, c)
	}
	return out
}
