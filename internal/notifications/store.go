package notifications

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MaxStored caps how many notifications a session keeps in memory.
const MaxStored = 50

// Store is the in-memory notification list for one session. All mutations
// happen through write-through confirmation or realtime events; readers get
// copies. Fetch results carry a sequence so a slow fetch that loses the
// race to a newer one is discarded instead of clobbering fresher state.
type Store struct {
	mu           sync.Mutex
	items        []Notification
	nextFetchSeq uint64
	appliedSeq   uint64
}

func NewStore() *Store {
	return &Store{}
}

// BeginFetch reserves a sequence number for a fetch that is about to run.
// Call it before issuing the query so overlapping fetches order correctly.
func (s *Store) BeginFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextFetchSeq++
	return s.nextFetchSeq
}

// ApplyFetch replaces the list with the fetch result unless a later fetch
// already landed. Returns whether the result was applied.
func (s *Store) ApplyFetch(seq uint64, items []Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.appliedSeq {
		return false
	}
	s.appliedSeq = seq
	s.items = sortAndCap(append([]Notification(nil), items...))
	return true
}

// List returns a copy of the current notification list.
func (s *Store) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.items...)
}

// UnreadCount is derived from the list, never tracked separately.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.items {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// Upsert inserts a new notification or replaces the stored copy when the
// id is already present, re-sorting and re-capping afterwards.
func (s *Store) Upsert(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.items {
		if s.items[i].ID == n.ID {
			s.items[i] = n
			replaced = true
			break
		}
	}
	if !replaced {
		s.items = append(s.items, n)
	}
	s.items = sortAndCap(s.items)
}

// Patch updates the stored copy if present. Unknown ids are ignored;
// the row may have been capped out or deleted meanwhile.
func (s *Store) Patch(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == n.ID {
			s.items[i] = n
			return
		}
	}
}

// MarkRead flips the read flag on one notification.
func (s *Store) MarkRead(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsRead = true
			return
		}
	}
}

// MarkAllRead flips the read flag on every stored notification.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].IsRead = true
	}
}

// Remove drops the notification with the given id, if present.
func (s *Store) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// sortAndCap orders newest first with the id as the deterministic
// tie-break, then trims to the storage cap.
func sortAndCap(items []Notification) []Notification {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID.String() > items[j].ID.String()
	})
	if len(items) > MaxStored {
		items = items[:MaxStored]
	}
	return items
}
