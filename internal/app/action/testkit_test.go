package action

import (
	"context"
	"testing"
	"time"

	"sarsim/internal/adapter/repo/memory"
	"sarsim/internal/app/ports"
	"sarsim/internal/app/shared/session"
	"sarsim/internal/config"
	"sarsim/internal/domain/grid"
	"sarsim/internal/domain/policy"
	"sarsim/internal/domain/rescue"
	"sarsim/internal/domain/rng"
)

type stubMetrics struct {
	steps    int
	rejected int
	finished int
}

func (m *stubMetrics) RecordStep(rescue.Action, int)             { m.steps++ }
func (m *stubMetrics) RecordRejected()                           { m.rejected++ }
func (m *stubMetrics) RecordEpisodeFinished(ports.EpisodeStatus) { m.finished++ }

// fixture: rescuer 0 stands on victim 0 at (3,3), goal at (3,4), scout 1 far away.
func newFixture(t *testing.T) (UseCase, *stubMetrics) {
	t.Helper()
	g, err := grid.Open(10)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	cfg := config.Default()
	cfg.GridSize = 10
	cfg.NumAgents, cfg.NumRescuers, cfg.NumVictims = 2, 1, 1
	opts := cfg.WorldOptions()
	w, err := rescue.NewWorldWithLayout(g, opts, rescue.Layout{
		Agents:  []grid.Cell{33, 77},
		Victims: []grid.Cell{33},
		Goals:   []grid.Cell{43},
	})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	sess, _ := session.New("ep-1", rescue.NewEngine(w), policy.New(g, opts, rng.New(1)))

	store := memory.NewStore()
	sessions := memory.NewSessionStore(store)
	sessions.Put(sess)
	episodes := memory.NewEpisodeRepo(store)
	if err := episodes.Create(context.Background(), ports.EpisodeRecord{
		EpisodeID: "ep-1", Status: ports.EpisodeRunning, Config: cfg, Version: 1,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	m := &stubMetrics{}
	return UseCase{
		TxManager: memory.NewTxManager(store),
		Episodes:  episodes,
		Events:    memory.NewEventRepo(store),
		Sessions:  sessions,
		Metrics:   m,
		Now:       func() time.Time { return time.Unix(1700000000, 0) },
	}, m
}
