package memory

import (
	"sarsim/internal/app/ports"
	"sarsim/internal/app/shared/session"
)

type SessionStore struct {
	store *Store
}

func NewSessionStore(store *Store) SessionStore {
	return SessionStore{store: store}
}

func (s SessionStore) Put(sess *session.Session) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.sessions[sess.ID] = sess
}

func (s SessionStore) Get(episodeID string) (*session.Session, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	sess, ok := s.store.sessions[episodeID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return sess, nil
}

func (s SessionStore) Delete(episodeID string) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.sessions, episodeID)
}
