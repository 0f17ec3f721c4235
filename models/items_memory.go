package models

import (
	"context"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MemoryStore keeps items in process. It is always connected and loses
// everything on restart.
type MemoryStore struct {
	mu    sync.Mutex
	items []ItemType
	now   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Connected is always true
func (s *MemoryStore) Connected() bool {
	return true
}

// Check is always true
func (s *MemoryStore) Check(context.Context) bool {
	return true
}

// Ping never fails
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// ListItems returns a copy of every item, newest first
func (s *MemoryStore) ListItems(context.Context) ([]ItemType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ems := make([]ItemType, len(s.items))
	copy(ems, s.items)

	sort.SliceStable(ems, func(i, j int) bool {
		if ems[i].Created.Equal(ems[j].Created) {
			return ems[i].ID < ems[j].ID
		}
		return ems[i].Created.After(ems[j].Created)
	})

	return ems, nil
}

// InsertItem stores m, assigning its ID and Created time
func (s *MemoryStore) InsertItem(_ context.Context, m *ItemType) error {
	id, err := gonanoid.New()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = id
	m.Created = s.now().UTC()
	s.items = append(s.items, *m)

	return nil
}

// DeleteItem removes the item with the given ID
func (s *MemoryStore) DeleteItem(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.items {
		if m.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, nil
		}
	}

	return false, nil
}
