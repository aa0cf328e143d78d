package observe

import "sarsim/internal/domain/rescue"

type Request struct {
	EpisodeID string
	AgentID   int
}

type Response struct {
	Observation  rescue.Observation `json:"observation"`
	LegalActions []rescue.Action    `json:"legal_actions"`
}

type SuggestResponse struct {
	Observation rescue.Observation `json:"observation"`
	Action      rescue.Action      `json:"action"`
}
