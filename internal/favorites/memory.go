package favorites

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps favorites for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	order []int
	items map[int]Favorite
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[int]Favorite),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id int) (Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fav, ok := s.items[id]
	if !ok {
		return Favorite{}, ErrNotFound
	}
	return fav, nil
}

func (s *MemoryStore) Put(_ context.Context, fav Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[fav.Movie.ID]; ok {
		return nil
	}
	if fav.AddedAt.IsZero() {
		fav.AddedAt = s.now()
	}
	s.items[fav.Movie.ID] = fav
	s.order = append(s.order, fav.Movie.ID)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Favorite, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}

func (s *MemoryStore) Contains(_ context.Context, id int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items[id]
	return ok, nil
}
