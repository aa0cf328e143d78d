// Package session wraps a live episode engine with its policy and the last
// observation of every agent. All methods are safe for concurrent use.
package session

import (
	"sync"
	"sync/atomic"

	"sarsim/internal/domain/policy"
	"sarsim/internal/domain/rescue"
)

type Session struct {
	ID string

	mu      sync.Mutex
	engine  *rescue.Engine
	policy  policy.Engine
	last    []rescue.Observation
	next    []rescue.Action
	cursor  int
	reward  int
	stopped atomic.Bool
	driving atomic.Bool
}

// Turn is one policy-driven step taken by Advance.
type Turn struct {
	AgentID int
	Action  rescue.Action
	Result  rescue.StepResult
}

// New resets every agent and computes its first action.
func New(id string, engine *rescue.Engine, pol policy.Engine) (*Session, []rescue.Event) {
	s := &Session{ID: id, engine: engine, policy: pol}
	n := engine.World().NumAgents()
	s.last = make([]rescue.Observation, n)
	s.next = make([]rescue.Action, n)
	var events []rescue.Event
	for i := 0; i < n; i++ {
		obs, evts, err := engine.ResetAgent(i)
		if err != nil {
			continue
		}
		events = append(events, evts...)
		s.remember(i, obs)
	}
	return s, events
}

func (s *Session) remember(id int, obs rescue.Observation) {
	s.last[id] = obs
	s.next[id] = s.policy.SelectAction(obs, obs.Role)
}

// Step applies an externally chosen action.
func (s *Session) Step(id int, action rescue.Action) (rescue.StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(id, action)
}

func (s *Session) step(id int, action rescue.Action) (rescue.StepResult, error) {
	res, err := s.engine.StepAgent(id, action)
	if err != nil {
		return rescue.StepResult{}, err
	}
	s.reward += res.Reward
	s.remember(id, res.Observation)
	return res, nil
}

// Advance steps the next agent in round-robin order with the action its
// policy chose from its previous observation.
func (s *Session) Advance() (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.cursor
	action := s.next[id]
	res, err := s.step(id, action)
	if err != nil {
		return Turn{}, err
	}
	s.cursor = (s.cursor + 1) % len(s.next)
	return Turn{AgentID: id, Action: action, Result: res}, nil
}

func (s *Session) Reset(id int) (rescue.Observation, []rescue.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obs, events, err := s.engine.ResetAgent(id)
	if err != nil {
		return rescue.Observation{}, nil, err
	}
	s.remember(id, obs)
	return obs, events, nil
}

func (s *Session) Observe(id int) (rescue.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Observe(id)
}

// Suggest returns the current observation and the action the policy picks
// for it. The suggestion also becomes the agent's queued action.
func (s *Session) Suggest(id int) (rescue.Observation, rescue.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obs, err := s.engine.Observe(id)
	if err != nil {
		return rescue.Observation{}, "", err
	}
	s.remember(id, obs)
	return obs, s.next[id], nil
}

func (s *Session) Snapshot() rescue.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Done()
}

func (s *Session) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Tick()
}

func (s *Session) TotalReward() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reward
}

func (s *Session) Rescued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.World().Rescued()
}

func (s *Session) NumAgents() int { return len(s.next) }

func (s *Session) Stop()         { s.stopped.Store(true) }
func (s *Session) Stopped() bool { return s.stopped.Load() }

// Begin claims the session for one driver (a run loop or a remote step).
// It returns false while another driver holds it.
func (s *Session) Begin() bool { return s.driving.CompareAndSwap(false, true) }
func (s *Session) End()        { s.driving.Store(false) }
