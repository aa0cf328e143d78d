// Package policy holds the rule-based decision policies for scouts and
// rescuers. Policies only read the observation they are handed.
package policy

import (
	"math"

	"sarsim/internal/domain/grid"
	"sarsim/internal/domain/rescue"
	"sarsim/internal/domain/rng"
)

type Engine struct {
	Grid         grid.Grid
	Rand         rng.Source
	ScoutRange   int
	RescuerRange int
}

func New(g grid.Grid, opts rescue.Options, r rng.Source) Engine {
	return Engine{Grid: g, Rand: r, ScoutRange: opts.ScoutRange, RescuerRange: opts.RescuerRange}
}

// SelectAction never fails: when no direction is eligible it returns
// Communicate.
func (e Engine) SelectAction(obs rescue.Observation, role rescue.Role) rescue.Action {
	switch role {
	case rescue.RoleRescuer:
		return e.rescue(obs, role)
	default:
		return e.scout(obs, role)
	}
}

func (e Engine) sensorRange(role rescue.Role) int {
	if role == rescue.RoleRescuer {
		return e.RescuerRange
	}
	return e.ScoutRange
}

func (e Engine) scout(obs rescue.Observation, role rescue.Role) rescue.Action {
	self := obs.Self()
	if self == rescue.Unknown {
		return rescue.ActionCommunicate
	}
	if e.shouldCommunicate(obs, self, role) {
		return rescue.ActionCommunicate
	}
	return e.choose(self, func(dest grid.Cell) int {
		if n, ok := obs.Visits(dest); ok {
			return n
		}
		// unseen neighbours rank behind every seen one
		return rescue.Unreachable
	})
}

// shouldCommunicate reports whether some other agent the observer can see
// right now was last contacted before the observer's own latest tick. A
// remembered cell outside the visible area does not count.
func (e Engine) shouldCommunicate(obs rescue.Observation, self grid.Cell, role rescue.Role) bool {
	if obs.AgentID < 0 || obs.AgentID >= len(obs.LastContact) {
		return false
	}
	own := obs.LastContact[obs.AgentID]
	radius := e.sensorRange(role)
	for j, cell := range obs.AgentCells {
		if j == obs.AgentID || cell == rescue.Unknown || j >= len(obs.LastContact) {
			continue
		}
		if _, seen := obs.Visits(cell); !seen || e.Grid.Manhattan(self, cell) > radius {
			continue
		}
		if obs.LastContact[j] < own {
			return true
		}
	}
	return false
}

func (e Engine) rescue(obs rescue.Observation, role rescue.Role) rescue.Action {
	self := obs.Self()
	if self == rescue.Unknown {
		return e.scout(obs, role)
	}
	if obs.Carrying {
		if obs.IsGoal(self) {
			return rescue.ActionDropoff
		}
		target, ok := e.nearest(self, obs.Goals)
		if !ok {
			return e.scout(obs, role)
		}
		return e.stepToward(self, target)
	}

	candidates := make([]grid.Cell, 0, len(obs.VictimCells))
	for _, c := range obs.VictimCells {
		if c == rescue.Unknown || obs.IsGoal(c) {
			continue
		}
		candidates = append(candidates, c)
	}
	target, ok := e.nearest(self, candidates)
	if !ok {
		return e.scout(obs, role)
	}
	if target == self {
		return rescue.ActionPickup
	}
	return e.stepToward(self, target)
}

func (e Engine) nearest(from grid.Cell, cells []grid.Cell) (grid.Cell, bool) {
	best := math.MaxInt
	var ties []grid.Cell
	for _, c := range cells {
		if !e.Grid.Contains(c) {
			continue
		}
		d := e.Grid.Manhattan(from, c)
		switch {
		case d < best:
			best = d
			ties = append(ties[:0], c)
		case d == best:
			ties = append(ties, c)
		}
	}
	if len(ties) == 0 {
		return 0, false
	}
	return pick(e.Rand, ties), true
}

func (e Engine) stepToward(from, target grid.Cell) rescue.Action {
	return e.choose(from, func(dest grid.Cell) int {
		return e.Grid.Manhattan(dest, target)
	})
}

// choose returns the eligible move with the lowest score, ties broken at
// random. Off-grid and wall destinations are never eligible.
func (e Engine) choose(from grid.Cell, score func(grid.Cell) int) rescue.Action {
	p := e.Grid.To2D(from)
	best := math.MaxInt
	var ties []rescue.Action
	for _, move := range rescue.Moves {
		dx, dy, _ := move.Delta()
		dest, err := e.Grid.From2D(p.X+dx, p.Y+dy)
		if err != nil || !e.Grid.IsWalkable(dest) {
			continue
		}
		s := score(dest)
		switch {
		case s < best:
			best = s
			ties = append(ties[:0], move)
		case s == best:
			ties = append(ties, move)
		}
	}
	if len(ties) == 0 {
		return rescue.ActionCommunicate
	}
	return pick(e.Rand, ties)
}

// pick only consumes randomness when there is an actual tie.
func pick[T any](r rng.Source, items []T) T {
	if len(items) == 1 {
		return items[0]
	}
	return rng.Pick(r, items)
}
