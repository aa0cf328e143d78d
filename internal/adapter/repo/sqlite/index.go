package sqliterepo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"sarsim/internal/app/ports"
)

// Index is a queryable sqlite copy of step traces and finished episodes.
// Writes are queued to a single writer goroutine and dropped when the queue
// is full, so a slow disk never stalls an episode.
type Index struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu guards ch against sends racing Close.
	mu     sync.RWMutex
	closed bool

	dropSteps    atomic.Uint64
	dropEpisodes atomic.Uint64
}

type reqKind int

const (
	reqStep reqKind = iota + 1
	reqEpisode
)

type req struct {
	kind    reqKind
	step    ports.TraceEntry
	episode ports.EpisodeRecord
}

type Stats struct {
	DropStepTotal    uint64 `json:"drop_step_total"`
	DropEpisodeTotal uint64 `json:"drop_episode_total"`
	QueueDepth       int    `json:"queue_depth"`
	QueueCapacity    int    `json:"queue_capacity"`
}

// EpisodeSummary is one row of the episodes table.
type EpisodeSummary struct {
	EpisodeID   string              `json:"episode_id"`
	Status      ports.EpisodeStatus `json:"status"`
	Seed        int64               `json:"seed"`
	Tick        int                 `json:"tick"`
	TotalReward int                 `json:"total_reward"`
	Rescued     int                 `json:"rescued"`
	Steps       int                 `json:"steps"`
	FinishedAt  string              `json:"finished_at"`
}

const (
	queueSize   = 65536
	commitEvery = 2000
	flushEvery  = 2 * time.Second
)

// Open starts the writer. Queries share the single connection with it, so
// an open batch is committed at least every flushEvery even when no further
// writes arrive.
func Open(path string) (*Index, error) {
	return open(path, flushEvery)
}

func open(path string, flush time.Duration) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Index{db: db, ch: make(chan req, queueSize)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(flush)
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
			episode_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			seed INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			total_reward INTEGER NOT NULL,
			rescued INTEGER NOT NULL,
			finished_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS steps (
			episode_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			agent_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			reward INTEGER NOT NULL,
			done INTEGER NOT NULL,
			PRIMARY KEY (episode_id, tick)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_steps_agent ON steps(episode_id, agent_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the queue, commits and closes the database.
func (s *Index) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *Index) WriteStep(entry ports.TraceEntry) error {
	s.enqueue(req{kind: reqStep, step: entry}, &s.dropSteps)
	return nil
}

func (s *Index) WriteEpisode(rec ports.EpisodeRecord) error {
	s.enqueue(req{kind: reqEpisode, episode: rec}, &s.dropEpisodes)
	return nil
}

func (s *Index) enqueue(r req, drops *atomic.Uint64) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

func (s *Index) Stats() Stats {
	return Stats{
		DropStepTotal:    s.dropSteps.Load(),
		DropEpisodeTotal: s.dropEpisodes.Load(),
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
	}
}

// ListEpisodes returns finished episodes, most recently finished first, with
// the number of indexed steps for each.
func (s *Index) ListEpisodes(ctx context.Context, limit int) ([]EpisodeSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.episode_id, e.status, e.seed, e.tick, e.total_reward, e.rescued, e.finished_at,
			(SELECT COUNT(*) FROM steps st WHERE st.episode_id = e.episode_id)
		FROM episodes e
		ORDER BY e.finished_at DESC, e.episode_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EpisodeSummary
	for rows.Next() {
		var (
			e      EpisodeSummary
			status string
		)
		if err := rows.Scan(&e.EpisodeID, &status, &e.Seed, &e.Tick, &e.TotalReward, &e.Rescued, &e.FinishedAt, &e.Steps); err != nil {
			return nil, err
		}
		e.Status = ports.EpisodeStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

type recent struct {
	Episodes []EpisodeSummary `json:"episodes"`
	Stats    Stats            `json:"stats"`
}

// RecentAny pairs the latest indexed episodes with the queue stats.
func (s *Index) RecentAny(ctx context.Context, limit int) (any, error) {
	eps, err := s.ListEpisodes(ctx, limit)
	if err != nil {
		return nil, err
	}
	return recent{Episodes: eps, Stats: s.Stats()}, nil
}

func (s *Index) loop(flush time.Duration) {
	ctx := context.Background()

	insertStep, _ := s.db.Prepare(`INSERT OR REPLACE INTO steps(episode_id,tick,agent_id,action,reward,done) VALUES(?,?,?,?,?,?)`)
	insertEpisode, _ := s.db.Prepare(`INSERT OR REPLACE INTO episodes(episode_id,status,seed,tick,total_reward,rescued,finished_at) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertStep != nil {
			_ = insertStep.Close()
		}
		if insertEpisode != nil {
			_ = insertEpisode.Close()
		}
	}()

	var (
		tx      *sql.Tx
		opCount int
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}
	apply := func(r req) {
		begin()
		if tx == nil {
			return
		}
		switch r.kind {
		case reqStep:
			if insertStep == nil {
				return
			}
			e := r.step
			if _, err := tx.Stmt(insertStep).Exec(e.EpisodeID, e.Tick, e.AgentID, string(e.Action), e.Reward, boolInt(e.Done)); err != nil {
				rollback()
				return
			}
			opCount++
			if opCount >= commitEvery {
				commit()
			}
		case reqEpisode:
			if insertEpisode == nil {
				return
			}
			e := r.episode
			finished := e.UpdatedAt
			if finished.IsZero() {
				finished = time.Now()
			}
			if _, err := tx.Stmt(insertEpisode).Exec(e.EpisodeID, string(e.Status), e.Seed, e.Tick, e.TotalReward, e.Rescued, finished.UTC().Format(time.RFC3339Nano)); err != nil {
				rollback()
				return
			}
			// episodes are rare and worth seeing promptly
			commit()
		}
	}

	ticker := time.NewTicker(flush)
	defer ticker.Stop()
	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			apply(r)
		case <-ticker.C:
			commit()
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
