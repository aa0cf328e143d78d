package episode

import (
	"sarsim/internal/app/ports"
	"sarsim/internal/config"
	"sarsim/internal/domain/rescue"
)

type StartRequest struct {
	Overrides config.Overrides
}

type StartResponse struct {
	Episode      ports.EpisodeRecord  `json:"episode"`
	Observations []rescue.Observation `json:"observations"`
}

type RunRequest struct {
	EpisodeID string
	// MaxSteps bounds this call only; the episode keeps its configured cap.
	MaxSteps int
}

type RunResponse struct {
	Episode ports.EpisodeRecord `json:"episode"`
	Steps   int                 `json:"steps"`
}

type StopRequest struct {
	EpisodeID string
}

type GetRequest struct {
	EpisodeID string
}
