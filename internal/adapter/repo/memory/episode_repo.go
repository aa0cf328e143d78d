package memory

import (
	"context"

	"sarsim/internal/app/ports"
)

type EpisodeRepo struct {
	store *Store
}

func NewEpisodeRepo(store *Store) EpisodeRepo {
	return EpisodeRepo{store: store}
}

func (r EpisodeRepo) Create(ctx context.Context, rec ports.EpisodeRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.episodes[rec.EpisodeID]; exists {
		return ports.ErrConflict
	}
	r.store.episodes[rec.EpisodeID] = rec
	r.store.journal(ctx, func() { delete(r.store.episodes, rec.EpisodeID) })
	return nil
}

func (r EpisodeRepo) GetByID(_ context.Context, episodeID string) (ports.EpisodeRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.episodes[episodeID]
	if !ok {
		return ports.EpisodeRecord{}, ports.ErrNotFound
	}
	return rec, nil
}

func (r EpisodeRepo) SaveWithVersion(ctx context.Context, rec ports.EpisodeRecord, expectedVersion int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.episodes[rec.EpisodeID]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrConflict
		}
		r.store.episodes[rec.EpisodeID] = rec
		r.store.journal(ctx, func() { delete(r.store.episodes, rec.EpisodeID) })
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrConflict
	}
	r.store.episodes[rec.EpisodeID] = rec
	r.store.journal(ctx, func() { r.store.episodes[rec.EpisodeID] = current })
	return nil
}
