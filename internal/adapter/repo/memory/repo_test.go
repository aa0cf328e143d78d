package memory

import (
	"context"
	"errors"
	"testing"

	"sarsim/internal/app/ports"
	"sarsim/internal/domain/rescue"
)

func TestEpisodeRepo_OptimisticVersioning(t *testing.T) {
	ctx := context.Background()
	repo := NewEpisodeRepo(NewStore())
	rec := ports.EpisodeRecord{EpisodeID: "ep-1", Status: ports.EpisodeRunning, Version: 1}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, rec); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate create, got %v", err)
	}
	rec.Version = 2
	rec.Tick = 10
	if err := repo.SaveWithVersion(ctx, rec, 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveWithVersion(ctx, rec, 1); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict on stale version, got %v", err)
	}
	got, err := repo.GetByID(ctx, "ep-1")
	if err != nil || got.Tick != 10 || got.Version != 2 {
		t.Fatalf("get got=%+v err=%v", got, err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEventRepo_ListReturnsLatestInOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepo(NewStore())
	for tick := 1; tick <= 5; tick++ {
		if err := repo.Append(ctx, "ep-1", []rescue.Event{{Type: rescue.EventAgentMoved, Tick: tick}}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := repo.ListByEpisodeID(ctx, "ep-1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Tick != 4 || got[1].Tick != 5 {
		t.Fatalf("unexpected events: %+v", got)
	}
	all, _ := repo.ListByEpisodeID(ctx, "ep-1", 0)
	if len(all) != 5 {
		t.Fatalf("expected all 5 events, got %d", len(all))
	}
}

func TestSessionStore_GetMissing(t *testing.T) {
	s := NewSessionStore(NewStore())
	if _, err := s.Get("nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	episodes, events := NewEpisodeRepo(store), NewEventRepo(store)
	rec := ports.EpisodeRecord{EpisodeID: "ep-1", Status: ports.EpisodeRunning, Version: 1}
	if err := episodes.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := events.Append(ctx, "ep-1", []rescue.Event{{Type: rescue.EventAgentReset}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	boom := errors.New("boom")
	err := NewTxManager(store).RunInTx(ctx, func(txCtx context.Context) error {
		next := rec
		next.Version, next.Tick = 2, 1
		if err := episodes.SaveWithVersion(txCtx, next, 1); err != nil {
			return err
		}
		if err := events.Append(txCtx, "ep-1", []rescue.Event{{Type: rescue.EventAgentMoved, Tick: 1}}); err != nil {
			return err
		}
		if err := episodes.Create(txCtx, ports.EpisodeRecord{EpisodeID: "ep-2", Version: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := episodes.GetByID(ctx, "ep-1")
	if got.Version != 1 || got.Tick != 0 {
		t.Fatalf("episode not rolled back: %+v", got)
	}
	if _, err := episodes.GetByID(ctx, "ep-2"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("created episode not rolled back: %v", err)
	}
	if all, _ := events.ListByEpisodeID(ctx, "ep-1", 0); len(all) != 1 {
		t.Fatalf("events not rolled back: %+v", all)
	}
}

func TestTxManager_NestedCallJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tx := NewTxManager(store)
	events := NewEventRepo(store)

	err := tx.RunInTx(ctx, func(outer context.Context) error {
		return tx.RunInTx(outer, func(inner context.Context) error {
			return events.Append(inner, "ep-1", []rescue.Event{{Type: rescue.EventAgentReset}})
		})
	})
	if err != nil {
		t.Fatalf("nested tx: %v", err)
	}
	if all, _ := events.ListByEpisodeID(ctx, "ep-1", 0); len(all) != 1 {
		t.Fatalf("expected committed event, got %+v", all)
	}
}
