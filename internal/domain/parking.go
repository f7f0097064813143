package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrParkingItemNotFound is returned when no parking-lot item has the requested ID.
var ErrParkingItemNotFound = errors.New("parking lot item not found")

// ParkingLotItem is something deliberately deferred from today's priorities.
// Promoted and Resolved are independent flags.
type ParkingLotItem struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	AddedAt    time.Time  `json:"addedAt"`
	Source     string     `json:"source,omitempty"`
	Promoted   bool       `json:"promoted,omitempty"`
	PromotedAt *time.Time `json:"promotedAt,omitempty"`
	Resolved   bool       `json:"resolved,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// Active reports whether the item is neither promoted nor resolved.
func (p ParkingLotItem) Active() bool {
	return !p.Promoted && !p.Resolved
}

// AddParkingLotItem appends a new active item.
func (s *UserState) AddParkingLotItem(text, source string) (ParkingLotItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParkingLotItem{}, fmt.Errorf("%w: parking lot text is required", ErrInvalid)
	}
	item := ParkingLotItem{
		ID:      uuid.NewString(),
		Text:    text,
		AddedAt: timeNow(),
		Source:  strings.TrimSpace(source),
	}
	s.ParkingLot = append(s.ParkingLot, item)
	return item, nil
}

// PromoteParkingLotItem marks an item as turned into a priority.
func (s *UserState) PromoteParkingLotItem(id string) (ParkingLotItem, error) {
	item := s.parkingItem(id)
	if item == nil {
		return ParkingLotItem{}, fmt.Errorf("%w: %s", ErrParkingItemNotFound, id)
	}
	now := timeNow()
	item.Promoted = true
	item.PromotedAt = &now
	return *item, nil
}

// ResolveParkingLotItem marks an item as dealt with.
func (s *UserState) ResolveParkingLotItem(id string) (ParkingLotItem, error) {
	item := s.parkingItem(id)
	if item == nil {
		return ParkingLotItem{}, fmt.Errorf("%w: %s", ErrParkingItemNotFound, id)
	}
	now := timeNow()
	item.Resolved = true
	item.ResolvedAt = &now
	return *item, nil
}

// DeleteParkingLotItem removes an item from the list.
func (s *UserState) DeleteParkingLotItem(id string) error {
	for i := range s.ParkingLot {
		if s.ParkingLot[i].ID == id {
			s.ParkingLot = append(s.ParkingLot[:i], s.ParkingLot[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrParkingItemNotFound, id)
}

// ActiveParkingLotItems returns items that are neither promoted nor resolved.
func (s *UserState) ActiveParkingLotItems() []ParkingLotItem {
	out := []ParkingLotItem{}
	for _, item := range s.ParkingLot {
		if item.Active() {
			out = append(out, item)
		}
	}
	return out
}

func (s *UserState) parkingItem(id string) *ParkingLotItem {
	for i := range s.ParkingLot {
		if s.ParkingLot[i].ID == id {
			return &s.ParkingLot[i]
		}
	}
	return nil
}
