package rescue

import "sarsim/internal/domain/grid"

func (w *World) VisibleCells(id int) []grid.Cell {
	a := w.agents[id]
	return w.grid.CellsWithinRange(a.Cell, w.opts.Range(a.Role))
}

func (w *World) visibleSet(id int) map[grid.Cell]struct{} {
	cells := w.VisibleCells(id)
	set := make(map[grid.Cell]struct{}, len(cells))
	for _, c := range cells {
		set[c] = struct{}{}
	}
	return set
}

// UpdateKnowledge overwrites what agent id believes about every agent and
// victim currently in sight, itself included. A belief pointing at a visible
// cell the agent or victim is no longer on is reset to Unknown.
func (w *World) UpdateKnowledge(id int) {
	visible := w.visibleSet(id)
	known := w.knownAgents[id]
	for j, other := range w.agents {
		known[j] = sighted(visible, known[j], other.Cell)
	}
	knownV := w.knownVictims[id]
	for v, victim := range w.victims {
		knownV[v] = sighted(visible, knownV[v], victim.Cell)
	}
	w.lastContact[id][id] = w.tick
}

func sighted(visible map[grid.Cell]struct{}, belief, actual grid.Cell) grid.Cell {
	if _, ok := visible[actual]; ok {
		return actual
	}
	if _, ok := visible[belief]; ok {
		return Unknown
	}
	return belief
}

// Communicate exchanges with every other agent in sight. Victim cells unknown
// to id are filled from the partner; known cells are never overwritten. Both
// sides of each pair log the current tick.
func (w *World) Communicate(id int) bool {
	visible := w.visibleSet(id)
	found := false
	for j, other := range w.agents {
		if j == id {
			continue
		}
		if _, ok := visible[other.Cell]; !ok {
			continue
		}
		found = true
		mine, theirs := w.knownVictims[id], w.knownVictims[j]
		for v := range mine {
			if mine[v] == Unknown && theirs[v] != Unknown {
				mine[v] = theirs[v]
			}
		}
		w.lastContact[id][j] = w.tick
		w.lastContact[j][id] = w.tick
	}
	return found
}
