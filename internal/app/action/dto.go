package action

import (
	"sarsim/internal/app/ports"
	"sarsim/internal/domain/rescue"
)

type Request struct {
	EpisodeID string
	AgentID   int
	Action    string
}

type Response struct {
	Observation rescue.Observation  `json:"observation"`
	Reward      int                 `json:"reward"`
	Done        bool                `json:"done"`
	Events      []rescue.Event      `json:"events"`
	Status      ports.EpisodeStatus `json:"status"`
}

type ResetRequest struct {
	EpisodeID string
	AgentID   int
}

type ResetResponse struct {
	Observation rescue.Observation `json:"observation"`
	Events      []rescue.Event     `json:"events"`
}
