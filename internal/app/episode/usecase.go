package episode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"sarsim/internal/app/ports"
	"sarsim/internal/app/shared/session"
	"sarsim/internal/config"
	"sarsim/internal/domain/policy"
	"sarsim/internal/domain/rescue"
	"sarsim/internal/domain/rng"
)

var (
	ErrInvalidRequest  = errors.New("invalid episode request")
	ErrEpisodeFinished = errors.New("episode already finished")
)

type UseCase struct {
	TxManager ports.TxManager
	Episodes  ports.EpisodeRepository
	Events    ports.EventRepository
	Sessions  ports.SessionStore
	Maps      ports.MapSource
	Publisher ports.SnapshotPublisher
	Trace     ports.TraceSink
	Metrics   ports.StepMetrics
	Base      config.Config
	NewID     func() string
	Now       func() time.Time
}

func (u UseCase) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}

func (u UseCase) newID() string {
	if u.NewID == nil {
		return uuid.NewString()
	}
	return u.NewID()
}

// Start builds a world from the base config plus overrides and registers a
// live session for it.
func (u UseCase) Start(ctx context.Context, req StartRequest) (StartResponse, error) {
	cfg := u.Base.Merge(req.Overrides)
	if err := cfg.Validate(); err != nil {
		return StartResponse{}, err
	}
	g, err := u.Maps.Load(ctx, cfg)
	if err != nil {
		return StartResponse{}, fmt.Errorf("load map: %w", err)
	}
	r := rng.New(cfg.Seed)
	opts := cfg.WorldOptions()
	world, err := rescue.NewWorld(g, opts, r)
	if err != nil {
		return StartResponse{}, err
	}

	id := u.newID()
	sess, events := session.New(id, rescue.NewEngine(world), policy.New(g, opts, r))
	now := u.now()
	rec := ports.EpisodeRecord{
		EpisodeID: id,
		Status:    ports.EpisodeRunning,
		Seed:      cfg.Seed,
		Config:    cfg,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := u.Episodes.Create(txCtx, rec); err != nil {
			return err
		}
		return u.Events.Append(txCtx, id, events)
	})
	if err != nil {
		return StartResponse{}, err
	}
	u.Sessions.Put(sess)
	u.publish(sess)

	observations := make([]rescue.Observation, 0, sess.NumAgents())
	for i := 0; i < sess.NumAgents(); i++ {
		obs, err := sess.Observe(i)
		if err != nil {
			return StartResponse{}, err
		}
		observations = append(observations, obs)
	}
	return StartResponse{Episode: rec, Observations: observations}, nil
}

// Run drives every agent round-robin with its policy until the episode
// terminates, runs out of ticks, is stopped, the per-call step budget is
// spent or ctx is done. Progress is persisted in every case.
func (u UseCase) Run(ctx context.Context, req RunRequest) (RunResponse, error) {
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	if req.EpisodeID == "" || req.MaxSteps < 0 {
		return RunResponse{}, ErrInvalidRequest
	}
	rec, err := u.Episodes.GetByID(ctx, req.EpisodeID)
	if err != nil {
		return RunResponse{}, err
	}
	if rec.Status.Final() {
		return RunResponse{}, ErrEpisodeFinished
	}
	sess, err := u.Sessions.Get(req.EpisodeID)
	if err != nil {
		return RunResponse{}, err
	}
	if !sess.Begin() {
		return RunResponse{}, ports.ErrConflict
	}
	defer sess.End()

	delay := time.Duration(rec.Config.RenderDelayMS) * time.Millisecond
	var (
		events []rescue.Event
		steps  int
		runErr error
	)
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if sess.Stopped() || sess.Done() || sess.Tick() >= rec.Config.MaxSteps {
			break
		}
		if req.MaxSteps > 0 && steps >= req.MaxSteps {
			break
		}
		turn, err := sess.Advance()
		if err != nil {
			runErr = err
			break
		}
		steps++
		events = append(events, turn.Result.Events...)
		u.record(sess, turn)
		if delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
	}

	next := rec.Progress(sess.Tick(), sess.TotalReward(), sess.Rescued(), sess.Done(), u.now())
	if sess.Stopped() && !next.Status.Final() {
		next.Status = ports.EpisodeStopped
	}
	// Progress is saved even when ctx was cancelled mid-run.
	if err := u.persist(context.WithoutCancel(ctx), rec, next, events); err != nil {
		return RunResponse{}, err
	}
	if next.Status.Final() {
		u.finish(sess, next)
	}
	if runErr != nil {
		return RunResponse{Episode: next, Steps: steps}, runErr
	}
	return RunResponse{Episode: next, Steps: steps}, nil
}

// Stop flags the session. When a run loop holds the session it persists the
// stopped status itself on its next iteration.
func (u UseCase) Stop(ctx context.Context, req StopRequest) (ports.EpisodeRecord, error) {
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	if req.EpisodeID == "" {
		return ports.EpisodeRecord{}, ErrInvalidRequest
	}
	rec, err := u.Episodes.GetByID(ctx, req.EpisodeID)
	if err != nil {
		return ports.EpisodeRecord{}, err
	}
	if rec.Status.Final() {
		return rec, nil
	}
	sess, err := u.Sessions.Get(req.EpisodeID)
	if err != nil {
		return ports.EpisodeRecord{}, err
	}
	sess.Stop()
	if !sess.Begin() {
		rec.Status = ports.EpisodeStopped
		return rec, nil
	}
	defer sess.End()

	next := rec.Progress(sess.Tick(), sess.TotalReward(), sess.Rescued(), sess.Done(), u.now())
	if !next.Status.Final() {
		next.Status = ports.EpisodeStopped
	}
	if err := u.persist(ctx, rec, next, nil); err != nil {
		return ports.EpisodeRecord{}, err
	}
	u.finish(sess, next)
	return next, nil
}

func (u UseCase) Get(ctx context.Context, req GetRequest) (ports.EpisodeRecord, error) {
	if strings.TrimSpace(req.EpisodeID) == "" {
		return ports.EpisodeRecord{}, ErrInvalidRequest
	}
	return u.Episodes.GetByID(ctx, strings.TrimSpace(req.EpisodeID))
}

func (u UseCase) persist(ctx context.Context, prev, next ports.EpisodeRecord, events []rescue.Event) error {
	return u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := u.Events.Append(txCtx, next.EpisodeID, events); err != nil {
			return err
		}
		return u.Episodes.SaveWithVersion(txCtx, next, prev.Version)
	})
}

func (u UseCase) record(sess *session.Session, turn session.Turn) {
	episodeID := sess.ID
	if u.Metrics != nil {
		u.Metrics.RecordStep(turn.Action, turn.Result.Reward)
	}
	if u.Trace != nil {
		err := u.Trace.WriteStep(ports.TraceEntry{
			EpisodeID: episodeID,
			Tick:      turn.Result.Observation.Tick,
			AgentID:   turn.AgentID,
			Action:    turn.Action,
			Reward:    turn.Result.Reward,
			Done:      turn.Result.Done,
		})
		if err != nil {
			log.Printf("trace step %s: %v", episodeID, err)
		}
	}
	if u.Publisher != nil {
		u.Publisher.Publish(episodeID, sess.Snapshot())
	}
}

func (u UseCase) finish(sess *session.Session, rec ports.EpisodeRecord) {
	u.publish(sess)
	if u.Metrics != nil {
		u.Metrics.RecordEpisodeFinished(rec.Status)
	}
	if u.Trace != nil {
		if err := u.Trace.WriteEpisode(rec); err != nil {
			log.Printf("trace episode %s: %v", rec.EpisodeID, err)
		}
	}
	if rec.Status == ports.EpisodeStopped {
		u.Sessions.Delete(rec.EpisodeID)
	}
	log.Printf("episode %s finished: status=%s tick=%d reward=%d rescued=%d", rec.EpisodeID, rec.Status, rec.Tick, rec.TotalReward, rec.Rescued)
}

func (u UseCase) publish(sess *session.Session) {
	if u.Publisher != nil {
		u.Publisher.Publish(sess.ID, sess.Snapshot())
	}
}
