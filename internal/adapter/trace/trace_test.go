package trace

import (
	"errors"
	"path/filepath"
	"testing"

	"sarsim/internal/app/ports"
	"sarsim/internal/domain/rescue"
)

func TestSink_RoundTripsThroughZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "run.jsonl.zst")
	s, err := NewSink(path)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := s.WriteStep(ports.TraceEntry{EpisodeID: "ep-1", Tick: 1, AgentID: 0, Action: rescue.ActionPickup, Reward: rescue.RewardTaskSuccess}); err != nil {
		t.Fatalf("write step: %v", err)
	}
	if err := s.WriteStep(ports.TraceEntry{EpisodeID: "ep-1", Tick: 2, AgentID: 1, Action: rescue.ActionUp, Reward: rescue.RewardStep}); err != nil {
		t.Fatalf("write step: %v", err)
	}
	if err := s.WriteEpisode(ports.EpisodeRecord{EpisodeID: "ep-1", Status: ports.EpisodeExhausted, Tick: 2}); err != nil {
		t.Fatalf("write episode: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("line count got=%d want=3", len(lines))
	}
	if lines[0].Kind != KindStep || lines[0].Step.Action != rescue.ActionPickup {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}
	if lines[2].Kind != KindEpisode || lines[2].Episode.Status != ports.EpisodeExhausted {
		t.Fatalf("unexpected last line: %+v", lines[2])
	}
}

func TestSink_WriteAfterCloseFails(t *testing.T) {
	s, err := NewSink(filepath.Join(t.TempDir(), "closed.jsonl.zst"))
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	_ = s.Close()
	if err := s.WriteStep(ports.TraceEntry{}); err == nil {
		t.Fatalf("expected error after close")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

type countingSink struct {
	steps, episodes int
	err             error
}

func (c *countingSink) WriteStep(ports.TraceEntry) error {
	c.steps++
	return c.err
}

func (c *countingSink) WriteEpisode(ports.EpisodeRecord) error {
	c.episodes++
	return c.err
}

func TestMulti_WritesEverySinkAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a, b := &countingSink{}, &countingSink{err: boom}
	m := Multi{a, b}

	if err := m.WriteStep(ports.TraceEntry{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := m.WriteEpisode(ports.EpisodeRecord{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if a.steps != 1 || b.steps != 1 || a.episodes != 1 || b.episodes != 1 {
		t.Fatalf("unexpected counts a=%+v b=%+v", a, b)
	}
}
