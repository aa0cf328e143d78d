package replay

import (
	"sarsim/internal/domain/grid"
	"sarsim/internal/domain/rescue"
)

type Request struct {
	EpisodeID string
	Limit     int
	FromTick  int
	ToTick    int
}

// LatestState is what the event stream says about the last known positions.
type LatestState struct {
	Tick       int               `json:"tick"`
	Agents     map[int]grid.Cell `json:"agents"`
	Victims    map[int]grid.Cell `json:"victims"`
	Carrying   map[int]int       `json:"carrying"`
	Terminated bool              `json:"terminated"`
}

type Response struct {
	Events      []rescue.Event `json:"events"`
	LatestState LatestState    `json:"latest_state"`
}
