package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrGoalNotFound is returned when no goal has the requested ID.
var ErrGoalNotFound = errors.New("weekly goal not found")

// GoalStatus is the progress state of a weekly goal.
type GoalStatus string

const (
	GoalPending    GoalStatus = "pending"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
)

// Valid reports whether s is a known status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalPending, GoalInProgress, GoalCompleted:
		return true
	}
	return false
}

// WeeklyGoal is a goal scoped to one Monday-start week.
type WeeklyGoal struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Status      GoalStatus `json:"status"`
	WeekOf      string     `json:"weekOf"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// GoalUpdate is a partial update; nil fields are left unchanged.
type GoalUpdate struct {
	Text   *string     `json:"text,omitempty"`
	Status *GoalStatus `json:"status,omitempty"`
}

// AddWeeklyGoal appends a pending goal for the current week.
func (s *UserState) AddWeeklyGoal(text string) (WeeklyGoal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return WeeklyGoal{}, fmt.Errorf("%w: goal text is required", ErrInvalid)
	}
	now := timeNow()
	goal := WeeklyGoal{
		ID:        uuid.NewString(),
		Text:      text,
		Status:    GoalPending,
		WeekOf:    WeekKey(now),
		CreatedAt: now,
	}
	s.WeeklyGoals = append(s.WeeklyGoals, goal)
	return goal, nil
}

// UpdateWeeklyGoal applies a partial update in place. Moving to completed
// stamps CompletedAt; moving away from completed clears it.
func (s *UserState) UpdateWeeklyGoal(id string, update GoalUpdate) (WeeklyGoal, error) {
	goal := s.goal(id)
	if goal == nil {
		return WeeklyGoal{}, fmt.Errorf("%w: %s", ErrGoalNotFound, id)
	}
	if update.Status != nil && !update.Status.Valid() {
		return WeeklyGoal{}, fmt.Errorf("%w: goal status %q", ErrInvalid, *update.Status)
	}
	if update.Text != nil {
		text := strings.TrimSpace(*update.Text)
		if text == "" {
			return WeeklyGoal{}, fmt.Errorf("%w: goal text is required", ErrInvalid)
		}
		goal.Text = text
	}
	if update.Status != nil {
		goal.Status = *update.Status
		if goal.Status == GoalCompleted {
			now := timeNow()
			goal.CompletedAt = &now
		} else {
			goal.CompletedAt = nil
		}
	}
	return *goal, nil
}

// DeleteWeeklyGoal removes a goal.
func (s *UserState) DeleteWeeklyGoal(id string) error {
	for i := range s.WeeklyGoals {
		if s.WeeklyGoals[i].ID == id {
			s.WeeklyGoals = append(s.WeeklyGoals[:i], s.WeeklyGoals[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrGoalNotFound, id)
}

// GoalsForWeek returns the goals whose week key equals weekKey exactly.
func (s *UserState) GoalsForWeek(weekKey string) []WeeklyGoal {
	out := []WeeklyGoal{}
	for _, g := range s.WeeklyGoals {
		if g.WeekOf == weekKey {
			out = append(out, g)
		}
	}
	return out
}

// CurrentWeekGoals returns the goals of the week containing today.
func (s *UserState) CurrentWeekGoals() []WeeklyGoal {
	return s.GoalsForWeek(CurrentWeekKey())
}

func (s *UserState) goal(id string) *WeeklyGoal {
	for i := range s.WeeklyGoals {
		if s.WeeklyGoals[i].ID == id {
			return &s.WeeklyGoals[i]
		}
	}
	return nil
}
