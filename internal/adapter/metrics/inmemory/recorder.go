package inmemory

import (
	"sync"

	"sarsim/internal/app/ports"
	"sarsim/internal/domain/rescue"
)

type Snapshot struct {
	StepTotal        uint64            `json:"step_total"`
	StepRejected     uint64            `json:"step_rejected"`
	RewardTotal      int64             `json:"reward_total"`
	ByAction         map[string]uint64 `json:"by_action"`
	EpisodesFinished uint64            `json:"episodes_finished"`
	ByEpisodeStatus  map[string]uint64 `json:"by_episode_status"`
}

type Recorder struct {
	mu       sync.Mutex
	steps    uint64
	rejected uint64
	reward   int64
	byAction map[string]uint64
	finished uint64
	byStatus map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byAction: map[string]uint64{},
		byStatus: map[string]uint64{},
	}
}

func (r *Recorder) RecordStep(action rescue.Action, reward int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps++
	r.reward += int64(reward)
	r.byAction[string(action)]++
}

func (r *Recorder) RecordRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

func (r *Recorder) RecordEpisodeFinished(status ports.EpisodeStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
	r.byStatus[string(status)]++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		StepTotal:        r.steps,
		StepRejected:     r.rejected,
		RewardTotal:      r.reward,
		EpisodesFinished: r.finished,
		ByAction:         make(map[string]uint64, len(r.byAction)),
		ByEpisodeStatus:  make(map[string]uint64, len(r.byStatus)),
	}
	for k, v := range r.byAction {
		out.ByAction[k] = v
	}
	for k, v := range r.byStatus {
		out.ByEpisodeStatus[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
