package replay

import (
	"context"
	"errors"
	"testing"

	"sarsim/internal/domain/rescue"
)

func TestUseCase_ReconstructsLatestStateFromEvents(t *testing.T) {
	repo := fakeRepo{events: []rescue.Event{
		{Type: rescue.EventAgentReset, Tick: 0, AgentID: 0, Payload: map[string]any{"cell": 11.0}},
		{Type: rescue.EventVictimPickedUp, Tick: 1, AgentID: 0, Payload: map[string]any{"victim_id": 0.0, "cell": 11.0}},
		{Type: rescue.EventAgentMoved, Tick: 2, AgentID: 0, Payload: map[string]any{"from": 11.0, "to": 12.0, "victim_id": 0.0}},
		{Type: rescue.EventVictimDroppedOff, Tick: 3, AgentID: 0, Payload: map[string]any{"victim_id": 0, "cell": 12}},
		{Type: rescue.EventEpisodeTerminated, Tick: 3, AgentID: 0},
	}}

	uc := UseCase{Events: repo}
	out, err := uc.Execute(context.Background(), Request{EpisodeID: "ep-1", Limit: 10})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	s := out.LatestState
	if s.Agents[0] != 12 || s.Victims[0] != 12 {
		t.Fatalf("expected agent and victim at 12, got %+v", s)
	}
	if _, carrying := s.Carrying[0]; carrying || !s.Terminated || s.Tick != 3 {
		t.Fatalf("unexpected latest state: %+v", s)
	}
	if len(out.Events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(out.Events))
	}
}

func TestUseCase_AppliesTickWindowBeforeLimit(t *testing.T) {
	repo := fakeRepo{}
	for tick := 1; tick <= 6; tick++ {
		repo.events = append(repo.events, rescue.Event{Type: rescue.EventCommunicationFailed, Tick: tick})
	}
	out, err := UseCase{Events: repo}.Execute(context.Background(), Request{EpisodeID: "ep-1", FromTick: 2, ToTick: 5, Limit: 2})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out.Events) != 2 || out.Events[0].Tick != 4 || out.Events[1].Tick != 5 {
		t.Fatalf("unexpected window: %+v", out.Events)
	}
}

func TestUseCase_RejectsInvalidRequest(t *testing.T) {
	uc := UseCase{Events: fakeRepo{}}
	for _, req := range []Request{{}, {EpisodeID: "ep-1", Limit: -1}, {EpisodeID: "ep-1", FromTick: 5, ToTick: 2}} {
		if _, err := uc.Execute(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("request %+v: expected ErrInvalidRequest, got %v", req, err)
		}
	}
}

type fakeRepo struct {
	events []rescue.Event
}

func (r fakeRepo) Append(_ context.Context, _ string, _ []rescue.Event) error {
	return nil
}

func (r fakeRepo) ListByEpisodeID(_ context.Context, _ string, _ int) ([]rescue.Event, error) {
	return r.events, nil
}
