package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync"
	"time"

	"sarsim/internal/adapter/mapsource"
	metricsinmem "sarsim/internal/adapter/metrics/inmemory"
	"sarsim/internal/adapter/repo/memory"
	sqliterepo "sarsim/internal/adapter/repo/sqlite"
	"sarsim/internal/adapter/trace"
	"sarsim/internal/app/episode"
	"sarsim/internal/app/ports"
	"sarsim/internal/config"
	"sarsim/internal/domain/rescue"
)

type runResult struct {
	EpisodeID   string              `json:"episode_id"`
	Seed        int64               `json:"seed"`
	Status      ports.EpisodeStatus `json:"status"`
	Tick        int                 `json:"tick"`
	TotalReward int                 `json:"total_reward"`
	Rescued     int                 `json:"rescued"`
	Error       string              `json:"error,omitempty"`
}

type summary struct {
	Runs       int                   `json:"runs"`
	Terminated int                   `json:"terminated"`
	Exhausted  int                   `json:"exhausted"`
	Failed     int                   `json:"failed"`
	MeanTick   float64               `json:"mean_tick"`
	MeanReward float64               `json:"mean_reward"`
	Rescued    int                   `json:"rescued"`
	Elapsed    string                `json:"elapsed"`
	KPI        metricsinmem.Snapshot `json:"kpi"`
	Index      *sqliterepo.Stats     `json:"index,omitempty"`
	Results    []runResult           `json:"results"`
}

func main() {
	var (
		cfgPath, out, indexPath, tracePath string
		seed                               int64
		n, workers                         int
	)
	flag.StringVar(&cfgPath, "config", "", "yaml config file")
	flag.Int64Var(&seed, "seed", 0, "base seed (0 keeps the config seed)")
	flag.IntVar(&n, "n", 1, "number of episodes")
	flag.IntVar(&workers, "workers", 4, "concurrent episodes")
	flag.StringVar(&out, "out", "summary.json", "summary file")
	flag.StringVar(&indexPath, "index", "", "sqlite episode index path")
	flag.StringVar(&tracePath, "trace", "", "step trace .jsonl.zst path")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg = cfg.ApplyEnv(os.LookupEnv)
	if seed != 0 {
		cfg.Seed = seed
	}
	// batch runs never render
	cfg.RenderDelayMS = 0
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if n <= 0 || workers <= 0 {
		log.Fatalf("-n and -workers must be positive")
	}

	var (
		sinks trace.Multi
		idx   *sqliterepo.Index
	)
	if tracePath != "" {
		s, err := trace.NewSink(tracePath)
		if err != nil {
			log.Fatalf("open trace: %v", err)
		}
		defer s.Close()
		sinks = append(sinks, s)
	}
	if indexPath != "" {
		idx, err = sqliterepo.Open(indexPath)
		if err != nil {
			log.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		sinks = append(sinks, idx)
	}

	store := memory.NewStore()
	sessions := memory.NewSessionStore(store)
	kpi := metricsinmem.NewRecorder()
	uc := episode.UseCase{
		TxManager: memory.NewTxManager(store),
		Episodes:  memory.NewEpisodeRepo(store),
		Events:    discardEvents{},
		Sessions:  sessions,
		Maps:      mapsource.Source{},
		Metrics:   kpi,
		Base:      cfg,
	}
	if len(sinks) > 0 {
		uc.Trace = sinks
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	started := time.Now()
	results := make([]runResult, n)
	var wg sync.WaitGroup
	jobs := make(chan int, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				runSeed := cfg.Seed + int64(workerID)*7919 + int64(i)
				results[i] = runOne(ctx, uc, sessions, fmt.Sprintf("run-%05d", i), runSeed)
			}
		}(w)
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sum := summarize(results)
	sum.Elapsed = time.Since(started).Round(time.Millisecond).String()
	sum.KPI = kpi.Snapshot()
	if idx != nil {
		// drain queued writes so the stats are final
		if err := idx.Close(); err != nil {
			log.Printf("close index: %v", err)
		}
		st := idx.Stats()
		sum.Index = &st
	}

	b, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		log.Fatalf("encode summary: %v", err)
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		log.Fatalf("write summary: %v", err)
	}
	fmt.Printf("sarsim batch finished: runs=%d terminated=%d exhausted=%d failed=%d mean_tick=%.1f -> %s\n",
		sum.Runs, sum.Terminated, sum.Exhausted, sum.Failed, sum.MeanTick, out)
}

func runOne(ctx context.Context, uc episode.UseCase, sessions ports.SessionStore, id string, seed int64) runResult {
	uc.NewID = func() string { return id }
	res := runResult{EpisodeID: id, Seed: seed}

	if _, err := uc.Start(ctx, episode.StartRequest{Overrides: config.Overrides{Seed: &seed}}); err != nil {
		res.Error = err.Error()
		return res
	}
	defer sessions.Delete(id)

	run, err := uc.Run(ctx, episode.RunRequest{EpisodeID: id})
	if err != nil {
		res.Error = err.Error()
	}
	res.Status = run.Episode.Status
	res.Tick = run.Episode.Tick
	res.TotalReward = run.Episode.TotalReward
	res.Rescued = run.Episode.Rescued
	return res
}

func summarize(results []runResult) summary {
	sum := summary{Runs: len(results), Results: results}
	var ticks, reward, counted int
	for _, r := range results {
		if r.Error != "" {
			sum.Failed++
			continue
		}
		switch r.Status {
		case ports.EpisodeTerminated:
			sum.Terminated++
		case ports.EpisodeExhausted:
			sum.Exhausted++
		}
		ticks += r.Tick
		reward += r.TotalReward
		sum.Rescued += r.Rescued
		counted++
	}
	if counted > 0 {
		sum.MeanTick = float64(ticks) / float64(counted)
		sum.MeanReward = float64(reward) / float64(counted)
	}
	sort.Slice(sum.Results, func(i, j int) bool { return sum.Results[i].EpisodeID < sum.Results[j].EpisodeID })
	return sum
}

// discardEvents keeps batch memory flat; traces carry the step history.
type discardEvents struct{}

func (discardEvents) Append(context.Context, string, []rescue.Event) error { return nil }
func (discardEvents) ListByEpisodeID(context.Context, string, int) ([]rescue.Event, error) {
	return nil, nil
}
