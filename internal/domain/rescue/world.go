package rescue

import (
	"fmt"

	"sarsim/internal/domain/grid"
	"sarsim/internal/domain/rng"
)

// Layout fixes the initial placement of an episode.
type Layout struct {
	Agents  []grid.Cell
	Victims []grid.Cell
	Goals   []grid.Cell
}

// World is the ground truth of one episode. It is not safe for concurrent use.
type World struct {
	grid grid.Grid
	opts Options
	tick int

	agents  []Agent
	victims []Victim
	goals   []grid.Cell
	goalSet map[grid.Cell]struct{}

	visits       [][]int
	knownAgents  [][]grid.Cell
	knownVictims [][]grid.Cell
	lastContact  [][]int
}

// NewWorld places agents on random walkable cells, victims on random accident
// cells and goals on the last walkable cells, then resets every agent.
func NewWorld(g grid.Grid, opts Options, r rng.Source) (*World, error) {
	layout, err := RandomLayout(g, opts, r)
	if err != nil {
		return nil, err
	}
	return NewWorldWithLayout(g, opts, layout)
}

func RandomLayout(g grid.Grid, opts Options, r rng.Source) (Layout, error) {
	if err := opts.Validate(); err != nil {
		return Layout{}, err
	}
	walkable := g.Walkable()
	if len(walkable) < opts.NumGoals {
		return Layout{}, fmt.Errorf("%w: %d walkable cells, need at least %d goals", ErrInvalidLayout, len(walkable), opts.NumGoals)
	}
	layout := Layout{
		Agents:  make([]grid.Cell, opts.NumAgents),
		Victims: make([]grid.Cell, opts.NumVictims),
		Goals:   append([]grid.Cell(nil), walkable[len(walkable)-opts.NumGoals:]...),
	}
	accidents := make([]grid.Cell, opts.NumAccidents)
	for i := range accidents {
		accidents[i] = rng.Pick(r, walkable)
	}
	for i := range layout.Victims {
		layout.Victims[i] = rng.Pick(r, accidents)
	}
	for i := range layout.Agents {
		layout.Agents[i] = rng.Pick(r, walkable)
	}
	return layout, nil
}

func NewWorldWithLayout(g grid.Grid, opts Options, layout Layout) (*World, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(layout.Agents) != opts.NumAgents || len(layout.Victims) != opts.NumVictims || len(layout.Goals) == 0 {
		return nil, fmt.Errorf("%w: layout has %d agents, %d victims, %d goals", ErrInvalidLayout, len(layout.Agents), len(layout.Victims), len(layout.Goals))
	}
	for _, cells := range [][]grid.Cell{layout.Agents, layout.Victims, layout.Goals} {
		for _, c := range cells {
			if !g.IsWalkable(c) {
				return nil, fmt.Errorf("%w: cell %d is not walkable", ErrInvalidLayout, c)
			}
		}
	}

	w := &World{
		grid:         g,
		opts:         opts,
		agents:       make([]Agent, opts.NumAgents),
		victims:      make([]Victim, opts.NumVictims),
		goals:        append([]grid.Cell(nil), layout.Goals...),
		goalSet:      make(map[grid.Cell]struct{}, len(layout.Goals)),
		visits:       make([][]int, opts.NumAgents),
		knownAgents:  make([][]grid.Cell, opts.NumAgents),
		knownVictims: make([][]grid.Cell, opts.NumAgents),
		lastContact:  make([][]int, opts.NumAgents),
	}
	for _, c := range w.goals {
		w.goalSet[c] = struct{}{}
	}
	for i, c := range layout.Agents {
		w.agents[i] = Agent{ID: i, Role: opts.RoleOf(i), Cell: c, Carrying: NoVictim}
		w.visits[i] = make([]int, g.Len())
		w.knownAgents[i] = make([]grid.Cell, opts.NumAgents)
		w.knownVictims[i] = make([]grid.Cell, opts.NumVictims)
		w.lastContact[i] = make([]int, opts.NumAgents)
	}
	for i, c := range layout.Victims {
		w.victims[i] = Victim{ID: i, Cell: c, CarriedBy: NoAgent}
	}
	for i := range w.agents {
		w.resetTables(i)
		w.UpdateKnowledge(i)
	}
	return w, nil
}

func (w *World) Grid() grid.Grid    { return w.grid }
func (w *World) Options() Options   { return w.opts }
func (w *World) Tick() int          { return w.tick }
func (w *World) NumAgents() int     { return len(w.agents) }
func (w *World) NumVictims() int    { return len(w.victims) }
func (w *World) Goals() []grid.Cell { return append([]grid.Cell(nil), w.goals...) }

func (w *World) IsGoal(c grid.Cell) bool {
	_, ok := w.goalSet[c]
	return ok
}

func (w *World) Agent(id int) (Agent, error) {
	if !w.validAgent(id) {
		return Agent{}, fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}
	return w.agents[id], nil
}

func (w *World) Victim(id int) (Victim, error) {
	if id < 0 || id >= len(w.victims) {
		return Victim{}, fmt.Errorf("%w: %d", ErrUnknownVictim, id)
	}
	return w.victims[id], nil
}

// PlaceAgent teleports an agent and the victim it carries.
func (w *World) PlaceAgent(id int, c grid.Cell) error {
	if !w.validAgent(id) {
		return fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}
	if !w.grid.IsWalkable(c) {
		return fmt.Errorf("%w: cell %d is not walkable", ErrInvalidLayout, c)
	}
	w.agents[id].Cell = c
	if v := w.agents[id].Carrying; v != NoVictim {
		w.victims[v].Cell = c
	}
	return nil
}

func (w *World) PlaceVictim(id int, c grid.Cell) error {
	if id < 0 || id >= len(w.victims) {
		return fmt.Errorf("%w: %d", ErrUnknownVictim, id)
	}
	if !w.grid.IsWalkable(c) {
		return fmt.Errorf("%w: cell %d is not walkable", ErrInvalidLayout, c)
	}
	if w.victims[id].IsCarried() {
		return fmt.Errorf("%w: victim %d is carried", ErrInvalidLayout, id)
	}
	w.victims[id].Cell = c
	return nil
}

// MoveAgent displaces an agent by (dx, dy). An off-grid component leaves that
// axis unchanged; a wall destination leaves the agent where it is.
func (w *World) MoveAgent(id, dx, dy int) (grid.Cell, bool) {
	a := &w.agents[id]
	p := w.grid.To2D(a.Cell)
	x, y := p.X+dx, p.Y+dy
	if x < 0 || x >= w.grid.Size() {
		x = p.X
	}
	if y < 0 || y >= w.grid.Size() {
		y = p.Y
	}
	dest, _ := w.grid.From2D(x, y)
	if dest == a.Cell || !w.grid.IsWalkable(dest) {
		return a.Cell, false
	}
	a.Cell = dest
	if a.Carrying != NoVictim {
		w.victims[a.Carrying].Cell = dest
	}
	return dest, true
}

// AttemptPickup returns the victim id picked up, or NoVictim.
func (w *World) AttemptPickup(id int) (int, bool) {
	a := &w.agents[id]
	if a.Carrying != NoVictim {
		return NoVictim, false
	}
	for i := range w.victims {
		v := &w.victims[i]
		if v.Cell == a.Cell && !v.IsCarried() {
			v.CarriedBy = id
			a.Carrying = i
			return i, true
		}
	}
	return NoVictim, false
}

// AttemptDropoff returns the victim id released, or NoVictim.
func (w *World) AttemptDropoff(id int) (int, bool) {
	a := &w.agents[id]
	if a.Carrying == NoVictim {
		return NoVictim, false
	}
	v := a.Carrying
	w.victims[v].CarriedBy = NoAgent
	a.Carrying = NoVictim
	return v, true
}

func (w *World) IsTerminated() bool {
	for _, v := range w.victims {
		if !w.IsGoal(v.Cell) {
			return false
		}
	}
	return true
}

// Rescued counts victims resting on a goal cell.
func (w *World) Rescued() int {
	n := 0
	for _, v := range w.victims {
		if !v.IsCarried() && w.IsGoal(v.Cell) {
			n++
		}
	}
	return n
}

func (w *World) RecordVisit(id int, c grid.Cell) {
	counts := w.visits[id]
	if !w.grid.Contains(c) || counts[c] == Unreachable {
		return
	}
	if counts[c] < w.opts.MaxPheromone {
		counts[c]++
	}
}

func (w *World) Visits(id int, c grid.Cell) int {
	return w.visits[id][c]
}

// ResetAgent clears the agent's visit counts, knowledge and communication
// log. Position and carrying state are kept.
func (w *World) ResetAgent(id int) error {
	if !w.validAgent(id) {
		return fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}
	w.resetTables(id)
	return nil
}

func (w *World) resetTables(id int) {
	counts := w.visits[id]
	for i := range counts {
		if w.grid.IsWalkable(grid.Cell(i)) {
			counts[i] = 0
		} else {
			counts[i] = Unreachable
		}
	}
	for j := range w.knownAgents[id] {
		w.knownAgents[id][j] = Unknown
	}
	for v := range w.knownVictims[id] {
		w.knownVictims[id][v] = Unknown
	}
	for j := range w.lastContact[id] {
		w.lastContact[id][j] = 0
	}
}

func (w *World) advance() { w.tick++ }

func (w *World) validAgent(id int) bool {
	return id >= 0 && id < len(w.agents)
}
