package ports

import (
	"context"
	"time"

	"sarsim/internal/config"
	"sarsim/internal/domain/rescue"
)

type EpisodeStatus string

const (
	EpisodeRunning    EpisodeStatus = "running"
	EpisodeTerminated EpisodeStatus = "terminated"
	EpisodeExhausted  EpisodeStatus = "exhausted"
	EpisodeStopped    EpisodeStatus = "stopped"
)

func (s EpisodeStatus) Final() bool {
	return s != EpisodeRunning
}

type EpisodeRecord struct {
	EpisodeID   string        `json:"episode_id"`
	Status      EpisodeStatus `json:"status"`
	Seed        int64         `json:"seed"`
	Config      config.Config `json:"config"`
	Tick        int           `json:"tick"`
	TotalReward int           `json:"total_reward"`
	Rescued     int           `json:"rescued"`
	Version     int64         `json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Progress copies live counters into the record, settles a final status when
// the episode is done or out of ticks, and bumps the version.
func (r EpisodeRecord) Progress(tick, reward, rescued int, done bool, now time.Time) EpisodeRecord {
	r.Tick = tick
	r.TotalReward = reward
	r.Rescued = rescued
	switch {
	case done:
		r.Status = EpisodeTerminated
	case r.Config.MaxSteps > 0 && tick >= r.Config.MaxSteps:
		r.Status = EpisodeExhausted
	}
	r.Version++
	r.UpdatedAt = now
	return r
}

type EpisodeRepository interface {
	Create(ctx context.Context, rec EpisodeRecord) error
	GetByID(ctx context.Context, episodeID string) (EpisodeRecord, error)
	SaveWithVersion(ctx context.Context, rec EpisodeRecord, expectedVersion int64) error
}

// EventRepository returns the latest limit events of an episode in the
// order they were appended. limit <= 0 returns all of them.
type EventRepository interface {
	Append(ctx context.Context, episodeID string, events []rescue.Event) error
	ListByEpisodeID(ctx context.Context, episodeID string, limit int) ([]rescue.Event, error)
}
