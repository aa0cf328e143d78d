package status

import (
	"sarsim/internal/app/ports"
	"sarsim/internal/domain/rescue"
)

type Request struct {
	EpisodeID string
}

type Response struct {
	Episode  ports.EpisodeRecord `json:"episode"`
	Snapshot *rescue.Snapshot    `json:"snapshot,omitempty"`
}
