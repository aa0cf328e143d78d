package rescue

import (
	"errors"
	"testing"

	"sarsim/internal/domain/grid"
	"sarsim/internal/domain/rng"
)

func testOptions(agents, rescuers, victims int) Options {
	o := DefaultOptions()
	o.NumAgents = agents
	o.NumRescuers = rescuers
	o.NumVictims = victims
	return o
}

func at(t *testing.T, g grid.Grid, x, y int) grid.Cell {
	t.Helper()
	c, err := g.From2D(x, y)
	if err != nil {
		t.Fatalf("From2D(%d,%d): %v", x, y, err)
	}
	return c
}

func openGrid(t *testing.T) grid.Grid {
	t.Helper()
	g, err := grid.Open(10)
	if err != nil {
		t.Fatalf("open grid: %v", err)
	}
	return g
}

func newTestEngine(t *testing.T, g grid.Grid, opts Options, layout Layout) *Engine {
	t.Helper()
	w, err := NewWorldWithLayout(g, opts, layout)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return NewEngine(w)
}

func TestNewWorld_IsReproducibleFromSeed(t *testing.T) {
	g := openGrid(t)
	opts := DefaultOptions()
	a, err := NewWorld(g, opts, rng.New(7))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	b, err := NewWorld(g, opts, rng.New(7))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	sa, sb := a.Snapshot(), b.Snapshot()
	for i := range sa.Agents {
		if sa.Agents[i].Cell != sb.Agents[i].Cell {
			t.Fatalf("agent %d placement differs: got=%d want=%d", i, sb.Agents[i].Cell, sa.Agents[i].Cell)
		}
	}
	for i := range sa.Victims {
		if sa.Victims[i].Cell != sb.Victims[i].Cell {
			t.Fatalf("victim %d placement differs: got=%d want=%d", i, sb.Victims[i].Cell, sa.Victims[i].Cell)
		}
	}
}

func TestNewWorld_AssignsRolesGoalsAndFirstObservation(t *testing.T) {
	g := openGrid(t)
	w, err := NewWorld(g, DefaultOptions(), rng.New(3))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	goals := w.Goals()
	if len(goals) != 2 || goals[0] != 98 || goals[1] != 99 {
		t.Fatalf("unexpected goals: %v", goals)
	}
	for id := 0; id < w.NumAgents(); id++ {
		a, _ := w.Agent(id)
		want := RoleScout
		if id < 2 {
			want = RoleRescuer
		}
		if a.Role != want {
			t.Fatalf("agent %d role got=%s want=%s", id, a.Role, want)
		}
		obs := w.Observe(id)
		if obs.Self() != a.Cell {
			t.Fatalf("agent %d does not know its own cell: got=%d want=%d", id, obs.Self(), a.Cell)
		}
	}
}

func TestNewWorld_RejectsInvalidOptions(t *testing.T) {
	g := openGrid(t)
	cases := []Options{
		testOptions(0, 0, 1),
		testOptions(2, 3, 1),
		testOptions(2, 1, 0),
		func() Options { o := DefaultOptions(); o.MaxPheromone = 0; return o }(),
		func() Options { o := DefaultOptions(); o.ScoutRange = -1; return o }(),
	}
	for i, opts := range cases {
		if _, err := NewWorld(g, opts, rng.New(1)); !errors.Is(err, ErrInvalidOptions) {
			t.Fatalf("case %d: expected ErrInvalidOptions, got %v", i, err)
		}
	}
}

func TestNewWorldWithLayout_RejectsWallPlacement(t *testing.T) {
	flat := make([]int, 9)
	for i := range flat {
		flat[i] = grid.Walkable
	}
	flat[4] = grid.Wall
	g, err := grid.New(3, flat)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	_, err = NewWorldWithLayout(g, testOptions(1, 0, 1), Layout{
		Agents:  []grid.Cell{4},
		Victims: []grid.Cell{0},
		Goals:   []grid.Cell{8},
	})
	if !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("expected ErrInvalidLayout, got %v", err)
	}
}

func TestMoveAgent_ClampsOffGridAxis(t *testing.T) {
	g := openGrid(t)
	w, err := NewWorldWithLayout(g, testOptions(2, 0, 1), Layout{
		Agents:  []grid.Cell{at(t, g, 0, 0), at(t, g, 9, 9)},
		Victims: []grid.Cell{at(t, g, 5, 5)},
		Goals:   []grid.Cell{at(t, g, 9, 0)},
	})
	if err != nil {
		t.Fatalf("new world: %v", err)
	}

	if c, moved := w.MoveAgent(0, -1, 0); moved || c != at(t, g, 0, 0) {
		t.Fatalf("left off grid: got=%d moved=%v", c, moved)
	}
	if c, moved := w.MoveAgent(0, 0, -1); moved || c != at(t, g, 0, 0) {
		t.Fatalf("up off grid: got=%d moved=%v", c, moved)
	}
	if c, moved := w.MoveAgent(0, -1, 1); !moved || c != at(t, g, 0, 1) {
		t.Fatalf("combined move should keep x and apply y: got=%v moved=%v", g.To2D(c), moved)
	}
	if c, moved := w.MoveAgent(1, 1, 0); moved || c != at(t, g, 9, 9) {
		t.Fatalf("right off grid: got=%d moved=%v", c, moved)
	}
	if c, moved := w.MoveAgent(1, 0, 1); moved || c != at(t, g, 9, 9) {
		t.Fatalf("down off grid: got=%d moved=%v", c, moved)
	}
}

func TestMoveAgent_WallIsNoOp(t *testing.T) {
	flat := make([]int, 16)
	for i := range flat {
		flat[i] = grid.Walkable
	}
	flat[1] = grid.Wall
	g, err := grid.New(4, flat)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	e := newTestEngine(t, g, testOptions(1, 0, 1), Layout{
		Agents:  []grid.Cell{0},
		Victims: []grid.Cell{15},
		Goals:   []grid.Cell{14},
	})
	res, err := e.StepAgent(0, ActionRight)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if res.Reward != RewardStep {
		t.Fatalf("reward got=%d want=%d", res.Reward, RewardStep)
	}
	if res.Observation.Self() != 0 {
		t.Fatalf("agent walked into wall: cell=%d", res.Observation.Self())
	}
	if got := e.World().Visits(0, 1); got != Unreachable {
		t.Fatalf("wall visit count got=%d want=Unreachable", got)
	}
	if _, ok := res.Observation.Visits(1); ok {
		t.Fatalf("wall should not appear in visible visits")
	}
}

func TestRecordVisit_SaturatesAtMaxPheromone(t *testing.T) {
	g := openGrid(t)
	opts := testOptions(1, 0, 1)
	opts.MaxPheromone = 2
	e := newTestEngine(t, g, opts, Layout{
		Agents:  []grid.Cell{at(t, g, 0, 0)},
		Victims: []grid.Cell{at(t, g, 9, 9)},
		Goals:   []grid.Cell{at(t, g, 9, 0)},
	})
	for i := 0; i < 6; i++ {
		a := ActionRight
		if i%2 == 1 {
			a = ActionLeft
		}
		if _, err := e.StepAgent(0, a); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if got := e.World().Visits(0, at(t, g, 1, 0)); got != 2 {
		t.Fatalf("visits at (1,0) got=%d want=2", got)
	}
	if got := e.World().Visits(0, at(t, g, 0, 0)); got != 2 {
		t.Fatalf("visits at (0,0) got=%d want=2", got)
	}
}

func TestResetAgent_ClearsTablesButKeepsPositionAndCargo(t *testing.T) {
	g := openGrid(t)
	e := newTestEngine(t, g, testOptions(2, 1, 1), Layout{
		Agents:  []grid.Cell{at(t, g, 2, 2), at(t, g, 2, 3)},
		Victims: []grid.Cell{at(t, g, 2, 2)},
		Goals:   []grid.Cell{at(t, g, 9, 9)},
	})
	if _, err := e.StepAgent(0, ActionPickup); err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if _, err := e.StepAgent(0, ActionRight); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := e.StepAgent(0, ActionCommunicate); err != nil {
		t.Fatalf("communicate: %v", err)
	}

	obs, events, err := e.ResetAgent(0)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventAgentReset {
		t.Fatalf("unexpected reset events: %+v", events)
	}
	if obs.Self() != at(t, g, 3, 2) || !obs.Carrying {
		t.Fatalf("reset moved agent or dropped cargo: cell=%v carrying=%v", g.To2D(obs.Self()), obs.Carrying)
	}
	if e.World().Visits(0, at(t, g, 3, 2)) != 0 {
		t.Fatalf("visit counts not cleared")
	}
	if obs.LastContact[1] != 0 || obs.LastContact[0] != e.Tick() {
		t.Fatalf("unexpected last contact after reset: %v", obs.LastContact)
	}
	if obs.AgentCells[1] != Unknown {
		t.Fatalf("agent 1 out of range should be unknown, got=%d", obs.AgentCells[1])
	}
	if _, _, err := e.ResetAgent(5); !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestObserve_ReturnsCopies(t *testing.T) {
	g := openGrid(t)
	e := newTestEngine(t, g, testOptions(1, 0, 1), Layout{
		Agents:  []grid.Cell{at(t, g, 4, 4)},
		Victims: []grid.Cell{at(t, g, 4, 5)},
		Goals:   []grid.Cell{at(t, g, 9, 9)},
	})
	obs, err := e.Observe(0)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	obs.AgentCells[0] = 0
	obs.VictimCells[0] = Unknown
	again, _ := e.Observe(0)
	if again.AgentCells[0] != at(t, g, 4, 4) || again.VictimCells[0] != at(t, g, 4, 5) {
		t.Fatalf("observation aliases world state: %+v", again)
	}
}
