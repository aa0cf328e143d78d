package memory

import (
	"context"

	"sarsim/internal/domain/rescue"
)

type EventRepo struct {
	store *Store
}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func (r EventRepo) Append(ctx context.Context, episodeID string, events []rescue.Event) error {
	if len(events) == 0 {
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	n := len(r.store.events[episodeID])
	r.store.events[episodeID] = append(r.store.events[episodeID], events...)
	r.store.journal(ctx, func() { r.store.events[episodeID] = r.store.events[episodeID][:n] })
	return nil
}

func (r EventRepo) ListByEpisodeID(_ context.Context, episodeID string, limit int) ([]rescue.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	all := r.store.events[episodeID]
	if limit > 0 && limit < len(all) {
		all = all[len(all)-limit:]
	}
	return append([]rescue.Event(nil), all...), nil
}
