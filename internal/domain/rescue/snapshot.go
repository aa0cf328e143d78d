package rescue

import "sarsim/internal/domain/grid"

type AgentSnapshot struct {
	ID           int         `json:"id"`
	Role         Role        `json:"role"`
	Cell         grid.Cell   `json:"cell"`
	Position     grid.Point  `json:"position"`
	Carrying     int         `json:"carrying"`
	VisibleRange int         `json:"visible_range"`
	KnownAgents  []grid.Cell `json:"known_agents"`
	KnownVictims []grid.Cell `json:"known_victims"`
	LastContact  []int       `json:"last_contact"`
}

type VictimSnapshot struct {
	ID        int        `json:"id"`
	Cell      grid.Cell  `json:"cell"`
	Position  grid.Point `json:"position"`
	CarriedBy int        `json:"carried_by"`
	AtGoal    bool       `json:"at_goal"`
}

// Snapshot is the full render-side view of a world at one tick. Visits sums
// every agent's counter per cell; walls read -1.
type Snapshot struct {
	Tick     int              `json:"tick"`
	Done     bool             `json:"done"`
	GridSize int              `json:"grid_size"`
	Walls    []grid.Cell      `json:"walls"`
	Goals    []grid.Cell      `json:"goals"`
	Agents   []AgentSnapshot  `json:"agents"`
	Victims  []VictimSnapshot `json:"victims"`
	Visits   []int            `json:"visits"`
}

func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Tick:     w.tick,
		GridSize: w.grid.Size(),
		Goals:    w.Goals(),
		Agents:   make([]AgentSnapshot, len(w.agents)),
		Victims:  make([]VictimSnapshot, len(w.victims)),
		Visits:   make([]int, w.grid.Len()),
	}
	for i := range s.Visits {
		c := grid.Cell(i)
		if !w.grid.IsWalkable(c) {
			s.Walls = append(s.Walls, c)
			s.Visits[i] = -1
			continue
		}
		for id := range w.agents {
			s.Visits[i] += w.visits[id][i]
		}
	}
	for i, a := range w.agents {
		s.Agents[i] = AgentSnapshot{
			ID:           a.ID,
			Role:         a.Role,
			Cell:         a.Cell,
			Position:     w.grid.To2D(a.Cell),
			Carrying:     a.Carrying,
			VisibleRange: w.opts.Range(a.Role),
			KnownAgents:  append([]grid.Cell(nil), w.knownAgents[i]...),
			KnownVictims: append([]grid.Cell(nil), w.knownVictims[i]...),
			LastContact:  append([]int(nil), w.lastContact[i]...),
		}
	}
	for i, v := range w.victims {
		s.Victims[i] = VictimSnapshot{
			ID:        v.ID,
			Cell:      v.Cell,
			Position:  w.grid.To2D(v.Cell),
			CarriedBy: v.CarriedBy,
			AtGoal:    w.IsGoal(v.Cell),
		}
	}
	return s
}
