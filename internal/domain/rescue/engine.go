package rescue

import "fmt"

// Engine applies agent actions to a World one at a time.
type Engine struct {
	world *World
	done  bool
}

// NewEngine starts an episode over w. Termination is only checked after a
// successful dropoff, so a world whose victims already sit on goals still runs.
func NewEngine(w *World) *Engine {
	return &Engine{world: w}
}

func (e *Engine) World() *World { return e.world }
func (e *Engine) Done() bool    { return e.done }
func (e *Engine) Tick() int     { return e.world.Tick() }

func (e *Engine) Observe(id int) (Observation, error) {
	if !e.world.validAgent(id) {
		return Observation{}, fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}
	return e.world.Observe(id), nil
}

func (e *Engine) Snapshot() Snapshot {
	s := e.world.Snapshot()
	s.Done = e.done
	return s
}

// ResetAgent clears one agent's tables and returns its fresh observation.
func (e *Engine) ResetAgent(id int) (Observation, []Event, error) {
	if err := e.world.ResetAgent(id); err != nil {
		return Observation{}, nil, err
	}
	e.world.UpdateKnowledge(id)
	evt := Event{Type: EventAgentReset, Tick: e.world.Tick(), AgentID: id, Payload: map[string]any{
		"cell": int(e.world.agents[id].Cell),
	}}
	return e.world.Observe(id), []Event{evt}, nil
}

// StepAgent applies one action for one agent and advances the tick. Unknown or
// role-illegal actions are rejected before anything changes.
func (e *Engine) StepAgent(id int, action Action) (StepResult, error) {
	w := e.world
	if !w.validAgent(id) {
		return StepResult{}, fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}
	if e.done {
		return StepResult{}, ErrEpisodeDone
	}
	parsed, err := ParseAction(string(action))
	if err != nil {
		return StepResult{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	action = parsed
	role := w.agents[id].Role
	if !IsLegal(role, action) {
		return StepResult{}, fmt.Errorf("%w: %s cannot %s", ErrIllegalAction, role, action)
	}

	w.advance()
	tick := w.Tick()
	var (
		reward int
		events []Event
	)
	emit := func(kind string, payload map[string]any) {
		events = append(events, Event{Type: kind, Tick: tick, AgentID: id, Payload: payload})
	}

	switch action {
	case ActionPickup:
		if v, ok := w.AttemptPickup(id); ok {
			reward = RewardTaskSuccess
			emit(EventVictimPickedUp, map[string]any{"victim_id": v, "cell": int(w.agents[id].Cell)})
		} else {
			reward = RewardTaskFailure
			emit(EventPickupFailed, map[string]any{"cell": int(w.agents[id].Cell)})
		}
	case ActionDropoff:
		if v, ok := w.AttemptDropoff(id); ok {
			reward = RewardTaskSuccess
			cell := w.agents[id].Cell
			emit(EventVictimDroppedOff, map[string]any{"victim_id": v, "cell": int(cell), "at_goal": w.IsGoal(cell)})
			if w.IsTerminated() {
				e.done = true
				emit(EventEpisodeTerminated, map[string]any{"rescued": w.Rescued()})
			}
		} else {
			reward = RewardTaskFailure
			emit(EventDropoffFailed, nil)
		}
	case ActionCommunicate:
		if w.Communicate(id) {
			reward = RewardCommunicate
			emit(EventCommunicated, nil)
		} else {
			reward = RewardCommunicateFailed
			emit(EventCommunicationFailed, nil)
		}
	default:
		dx, dy, _ := action.Delta()
		reward = RewardStep
		from := w.agents[id].Cell
		if to, moved := w.MoveAgent(id, dx, dy); moved {
			w.RecordVisit(id, to)
			payload := map[string]any{"from": int(from), "to": int(to), "action": string(action)}
			if v := w.agents[id].Carrying; v != NoVictim {
				payload["victim_id"] = v
			}
			emit(EventAgentMoved, payload)
		}
	}

	w.UpdateKnowledge(id)
	return StepResult{
		Observation: w.Observe(id),
		Reward:      reward,
		Done:        e.done,
		Events:      events,
	}, nil
}
