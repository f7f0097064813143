package domain

import (
	"errors"
	"testing"
)

func TestParkingLotLifecycle(t *testing.T) {
	s := DefaultState()
	a, err := s.AddParkingLotItem("renew passport", "manual entry")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.AddParkingLotItem("fix bike", "")
	c, _ := s.AddParkingLotItem("plan trip", "")

	if got := activeIDs(s); len(got) != 3 {
		t.Fatalf("expected 3 active items, got %v", got)
	}

	promoted, err := s.PromoteParkingLotItem(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !promoted.Promoted || promoted.PromotedAt == nil {
		t.Fatalf("promote not applied: %+v", promoted)
	}
	if _, err := s.ResolveParkingLotItem(b.ID); err != nil {
		t.Fatal(err)
	}

	got := activeIDs(s)
	if len(got) != 1 || got[0] != c.ID {
		t.Fatalf("expected only %s active, got %v", c.ID, got)
	}

	// Flags are independent: a promoted item may also be resolved.
	both, err := s.ResolveParkingLotItem(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !both.Promoted || !both.Resolved {
		t.Fatalf("expected both flags set: %+v", both)
	}

	if err := s.DeleteParkingLotItem(c.ID); err != nil {
		t.Fatal(err)
	}
	if len(s.ParkingLot) != 2 || len(s.ActiveParkingLotItems()) != 0 {
		t.Fatalf("delete should remove the item entirely: %+v", s.ParkingLot)
	}
}

func TestParkingLotErrors(t *testing.T) {
	s := DefaultState()
	if _, err := s.AddParkingLotItem(" ", ""); err == nil {
		t.Fatal("expected blank text to be rejected")
	}
	if _, err := s.PromoteParkingLotItem("x"); !errors.Is(err, ErrParkingItemNotFound) {
		t.Fatalf("expected ErrParkingItemNotFound, got %v", err)
	}
	if _, err := s.ResolveParkingLotItem("x"); !errors.Is(err, ErrParkingItemNotFound) {
		t.Fatalf("expected ErrParkingItemNotFound, got %v", err)
	}
	if err := s.DeleteParkingLotItem("x"); !errors.Is(err, ErrParkingItemNotFound) {
		t.Fatalf("expected ErrParkingItemNotFound, got %v", err)
	}
}

func activeIDs(s *UserState) []string {
	var ids []string
	for _, item := range s.ActiveParkingLotItems() {
		ids = append(ids, item.ID)
	}
	return ids
}
