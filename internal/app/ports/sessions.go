package ports

import "sarsim/internal/app/shared/session"

// SessionStore holds the live engine of every running episode.
type SessionStore interface {
	Put(s *session.Session)
	Get(episodeID string) (*session.Session, error)
	Delete(episodeID string)
}
