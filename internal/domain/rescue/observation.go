package rescue

import "sarsim/internal/domain/grid"

type CellVisits struct {
	Cell  grid.Cell `json:"cell"`
	Count int       `json:"count"`
}

// Observation is what one agent knows after acting. Field order matches the
// tuple policies are written against.
type Observation struct {
	AgentID       int          `json:"agent_id"`
	AgentCells    []grid.Cell  `json:"agent_cells"`
	VictimCells   []grid.Cell  `json:"victim_cells"`
	LastContact   []int        `json:"last_contact"`
	VisibleVisits []CellVisits `json:"visible_visits"`
	Carrying      bool         `json:"carrying"`
	Goals         []grid.Cell  `json:"goals"`

	Tick int  `json:"tick"`
	Role Role `json:"role"`
}

func (o Observation) Self() grid.Cell {
	if o.AgentID < 0 || o.AgentID >= len(o.AgentCells) {
		return Unknown
	}
	return o.AgentCells[o.AgentID]
}

// Visits looks up the visit count of a visible cell.
func (o Observation) Visits(c grid.Cell) (int, bool) {
	for _, v := range o.VisibleVisits {
		if v.Cell == c {
			return v.Count, true
		}
	}
	return 0, false
}

func (o Observation) IsGoal(c grid.Cell) bool {
	for _, g := range o.Goals {
		if g == c {
			return true
		}
	}
	return false
}

// Observe builds agent id's observation from its own tables. Every slice is a
// copy.
func (w *World) Observe(id int) Observation {
	a := w.agents[id]
	visible := w.VisibleCells(id)
	visits := make([]CellVisits, 0, len(visible))
	for _, c := range visible {
		visits = append(visits, CellVisits{Cell: c, Count: w.visits[id][c]})
	}
	return Observation{
		AgentID:       id,
		AgentCells:    append([]grid.Cell(nil), w.knownAgents[id]...),
		VictimCells:   append([]grid.Cell(nil), w.knownVictims[id]...),
		LastContact:   append([]int(nil), w.lastContact[id]...),
		VisibleVisits: visits,
		Carrying:      a.IsCarrying(),
		Goals:         w.Goals(),
		Tick:          w.tick,
		Role:          a.Role,
	}
}
