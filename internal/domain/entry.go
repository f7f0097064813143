package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// EntryType is the kind of conversation an entry records.
type EntryType string

const (
	EntryMorning   EntryType = "morning"
	EntryEvening   EntryType = "evening"
	EntryChallenge EntryType = "challenge"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryMorning, EntryEvening, EntryChallenge:
		return true
	}
	return false
}

// EntrySummary holds the distilled outcome of a check-in.
type EntrySummary struct {
	BrainDump   string   `json:"brainDump,omitempty"`
	Top3        []string `json:"top3,omitempty"`
	WhatGotDone []string `json:"whatGotDone,omitempty"`
	Gratitude   []string `json:"gratitude,omitempty"`
	Insights    string   `json:"insights,omitempty"`
}

// DailyEntry is the persisted transcript of one conversation on one day.
type DailyEntry struct {
	ID              string        `json:"id"`
	Date            string        `json:"date"`
	Type            EntryType     `json:"type"`
	ChallengeNumber int           `json:"challengeNumber,omitempty"`
	ChallengeTitle  string        `json:"challengeTitle,omitempty"`
	Messages        []Message     `json:"messages"`
	Summary         *EntrySummary `json:"summary,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// NewEntry creates an empty entry for date.
func NewEntry(date string, typ EntryType) DailyEntry {
	now := timeNow()
	return DailyEntry{
		ID:        uuid.NewString(),
		Date:      date,
		Type:      typ,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (e *DailyEntry) sameSlot(date string, typ EntryType, challengeNumber int) bool {
	if e.Date != date || e.Type != typ {
		return false
	}
	return typ != EntryChallenge || e.ChallengeNumber == challengeNumber
}

// EntryFor returns the entry for a (date, type) slot. Challenge entries are
// additionally keyed by challenge number; pass 0 for other types.
func (s *UserState) EntryFor(date string, typ EntryType, challengeNumber int) *DailyEntry {
	for i := range s.Entries {
		if s.Entries[i].sameSlot(date, typ, challengeNumber) {
			return &s.Entries[i]
		}
	}
	return nil
}

// SaveEntry inserts or replaces an entry. An entry with a known ID replaces
// that entry; otherwise an existing entry in the same slot is replaced, so a
// slot never holds two entries.
func (s *UserState) SaveEntry(entry DailyEntry) {
	if entry.Messages == nil {
		entry.Messages = []Message{}
	}
	for i := range s.Entries {
		if s.Entries[i].ID == entry.ID {
			s.Entries[i] = entry
			return
		}
	}
	if existing := s.EntryFor(entry.Date, entry.Type, entry.ChallengeNumber); existing != nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		*existing = entry
		return
	}
	s.Entries = append(s.Entries, entry)
}

// DayEntries groups the entries recorded on one date.
type DayEntries struct {
	Date    string       `json:"date"`
	Entries []DailyEntry `json:"entries"`
}

// EntriesByDate groups entries by date, newest date first. Within a day the
// original insertion order is kept.
func (s *UserState) EntriesByDate() []DayEntries {
	index := make(map[string]int)
	var days []DayEntries
	for _, e := range s.Entries {
		i, ok := index[e.Date]
		if !ok {
			i = len(days)
			index[e.Date] = i
			days = append(days, DayEntries{Date: e.Date})
		}
		days[i].Entries = append(days[i].Entries, e)
	}
	sort.SliceStable(days, func(a, b int) bool {
		return days[a].Date > days[b].Date
	})
	return days
}
