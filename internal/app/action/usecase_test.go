package action

import (
	"context"
	"errors"
	"testing"

	"sarsim/internal/app/ports"
	"sarsim/internal/domain/rescue"
)

func TestUseCase_AppliesActionAndPersists(t *testing.T) {
	uc, m := newFixture(t)
	ctx := context.Background()
	out, err := uc.Execute(ctx, Request{EpisodeID: "ep-1", AgentID: 0, Action: "pickup"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Reward != rescue.RewardTaskSuccess || !out.Observation.Carrying || out.Done {
		t.Fatalf("unexpected response: %+v", out)
	}
	rec, _ := uc.Episodes.GetByID(ctx, "ep-1")
	if rec.Version != 2 || rec.Tick != 1 || rec.TotalReward != rescue.RewardTaskSuccess {
		t.Fatalf("record not updated: %+v", rec)
	}
	events, _ := uc.Events.ListByEpisodeID(ctx, "ep-1", 0)
	if len(events) != 1 || events[0].Type != rescue.EventVictimPickedUp {
		t.Fatalf("unexpected events: %+v", events)
	}
	if m.steps != 1 {
		t.Fatalf("metrics steps got=%d want=1", m.steps)
	}
}

func TestUseCase_TerminatesOnFinalDropoff(t *testing.T) {
	uc, m := newFixture(t)
	ctx := context.Background()
	for _, a := range []string{"PICKUP", "DOWN"} {
		if _, err := uc.Execute(ctx, Request{EpisodeID: "ep-1", AgentID: 0, Action: a}); err != nil {
			t.Fatalf("%s: %v", a, err)
		}
	}
	out, err := uc.Execute(ctx, Request{EpisodeID: "ep-1", AgentID: 0, Action: "DROPOFF"})
	if err != nil {
		t.Fatalf("dropoff: %v", err)
	}
	if !out.Done || out.Status != ports.EpisodeTerminated {
		t.Fatalf("expected terminated, got %+v", out)
	}
	if m.finished != 1 {
		t.Fatalf("finished metric got=%d want=1", m.finished)
	}
	_, err = uc.Execute(ctx, Request{EpisodeID: "ep-1", AgentID: 1, Action: "LEFT"})
	if !errors.Is(err, rescue.ErrEpisodeDone) {
		t.Fatalf("expected ErrEpisodeDone, got %v", err)
	}
}

func TestUseCase_RejectsUnknownAndIllegalActions(t *testing.T) {
	uc, m := newFixture(t)
	ctx := context.Background()
	if _, err := uc.Execute(ctx, Request{EpisodeID: "ep-1", AgentID: 0, Action: "fly"}); !errors.Is(err, rescue.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if _, err := uc.Execute(ctx, Request{EpisodeID: "ep-1", AgentID: 1, Action: "PICKUP"}); !errors.Is(err, rescue.ErrIllegalAction) {
		t.Fatalf("expected ErrIllegalAction, got %v", err)
	}
	if _, err := uc.Execute(ctx, Request{EpisodeID: "ep-1", AgentID: 9, Action: "LEFT"}); !errors.Is(err, rescue.ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
	if m.rejected != 3 {
		t.Fatalf("rejected metric got=%d want=3", m.rejected)
	}
	rec, _ := uc.Episodes.GetByID(ctx, "ep-1")
	if rec.Version != 1 || rec.Tick != 0 {
		t.Fatalf("rejected actions changed record: %+v", rec)
	}
}

func TestUseCase_RejectsEmptyEpisodeAndMissingEpisode(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()
	if _, err := uc.Execute(ctx, Request{EpisodeID: " ", Action: "LEFT"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := uc.Execute(ctx, Request{EpisodeID: "ep-x", Action: "LEFT"}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUseCase_ConflictsWithActiveDriver(t *testing.T) {
	uc, _ := newFixture(t)
	sess, _ := uc.Sessions.Get("ep-1")
	sess.Begin()
	defer sess.End()
	if _, err := uc.Execute(context.Background(), Request{EpisodeID: "ep-1", AgentID: 0, Action: "LEFT"}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestReset_ReturnsFreshObservation(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()
	if _, err := uc.Execute(ctx, Request{EpisodeID: "ep-1", AgentID: 1, Action: "LEFT"}); err != nil {
		t.Fatalf("move: %v", err)
	}
	out, err := uc.Reset(ctx, ResetRequest{EpisodeID: "ep-1", AgentID: 1})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if out.Observation.Self() != 76 || len(out.Events) != 1 {
		t.Fatalf("unexpected reset: %+v", out)
	}
	if n, ok := out.Observation.Visits(76); !ok || n != 0 {
		t.Fatalf("visits not cleared: n=%d ok=%v", n, ok)
	}
	if _, err := uc.Reset(ctx, ResetRequest{EpisodeID: "ep-1", AgentID: 5}); !errors.Is(err, rescue.ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}
