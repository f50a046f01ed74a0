package preset

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a named preset in the library.
type Entry struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Preset    *Preset
}

// Store persists the preset library. Implementations: MemoryStore,
// SQLiteStore.
type Store interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, entry Entry) error
	Get(ctx context.Context, id string) (Entry, bool, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewEntry wraps a preset snapshot under a fresh ID.
func NewEntry(name string, p *Preset) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Preset:    p.Clone(),
	}
}

// MemoryStore is an in-process Store used when no library path is
// configured, and by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Entry{}}
}

func (s *MemoryStore) Init(ctx context.Context) error { return nil }

func (s *MemoryStore) Save(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Preset = entry.Preset.Clone()
	s.entries[entry.ID] = entry
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false, nil
	}
	e.Preset = e.Preset.Clone()
	return e, true, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		e.Preset = e.Preset.Clone()
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
