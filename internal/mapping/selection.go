package mapping

import (
	"sync"

	"coinoswap_admin/internal/domain"
)

// Selection is the set of merge candidates: unique by coin id, ordered by
// first selection.
type Selection struct {
	mu    sync.Mutex
	coins []domain.Coin
	index map[int64]int
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{index: make(map[int64]int)}
}

// Add selects c. It reports false if a coin with the same id is already selected.
func (s *Selection) Add(c domain.Coin) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(c)
}

func (s *Selection) add(c domain.Coin) bool {
	if _, ok := s.index[c.ID]; ok {
		return false
	}
	s.index[c.ID] = len(s.coins)
	s.coins = append(s.coins, c)
	return true
}

// Remove deselects the coin with id.
func (s *Selection) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

func (s *Selection) remove(id int64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.coins = append(s.coins[:i], s.coins[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.coins); j++ {
		s.index[s.coins[j].ID] = j
	}
	return true
}

// Toggle flips the selection state of c and returns the new state.
func (s *Selection) Toggle(c domain.Coin) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remove(c.ID) {
		return false
	}
	return s.add(c)
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.coins)
}

// Coins returns a copy of the selected coins in selection order.
func (s *Selection) Coins() []domain.Coin {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Coin, len(s.coins))
	copy(out, s.coins)
	return out
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coins = nil
	s.index = make(map[int64]int)
}
