package memory

import (
	"context"
	"sync"

	"sarsim/internal/app/ports"
	"sarsim/internal/app/shared/session"
	"sarsim/internal/domain/rescue"
)

// Store backs every in-memory repository. tx serialises RunInTx callers; mu
// guards the maps themselves so reads outside a transaction stay safe.
type Store struct {
	tx       sync.Mutex
	mu       sync.RWMutex
	episodes map[string]ports.EpisodeRecord
	events   map[string][]rescue.Event
	sessions map[string]*session.Session

	// undo is only touched by the goroutine holding tx. Entries run with mu held.
	undo []func()
}

func NewStore() *Store {
	return &Store{
		episodes: make(map[string]ports.EpisodeRecord),
		events:   make(map[string][]rescue.Event),
		sessions: make(map[string]*session.Session),
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// journal records how to revert a write made under mu. Writes outside a
// transaction are not journaled.
func (s *Store) journal(ctx context.Context, fn func()) {
	if inTx(ctx) {
		s.undo = append(s.undo, fn)
	}
}

func (s *Store) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
	s.undo = nil
}
