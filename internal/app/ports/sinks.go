package ports

import (
	"context"

	"sarsim/internal/config"
	"sarsim/internal/domain/grid"
	"sarsim/internal/domain/rescue"
)

// MapSource builds the padded walkability grid for an episode.
type MapSource interface {
	Load(ctx context.Context, cfg config.Config) (grid.Grid, error)
}

// SnapshotPublisher hands render snapshots to observers. Publish must not
// block the caller.
type SnapshotPublisher interface {
	Publish(episodeID string, snap rescue.Snapshot)
}

type TraceEntry struct {
	EpisodeID string        `json:"episode_id"`
	Tick      int           `json:"tick"`
	AgentID   int           `json:"agent_id"`
	Action    rescue.Action `json:"action"`
	Reward    int           `json:"reward"`
	Done      bool          `json:"done"`
}

// TraceSink records per-step traces and finished episodes.
type TraceSink interface {
	WriteStep(entry TraceEntry) error
	WriteEpisode(rec EpisodeRecord) error
}
