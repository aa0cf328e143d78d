package action

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"sarsim/internal/app/ports"
	"sarsim/internal/app/shared/session"
	"sarsim/internal/domain/rescue"
)

var ErrInvalidRequest = errors.New("invalid action request")

// UseCase applies actions chosen by remote agents to a live episode.
type UseCase struct {
	TxManager ports.TxManager
	Episodes  ports.EpisodeRepository
	Events    ports.EventRepository
	Sessions  ports.SessionStore
	Publisher ports.SnapshotPublisher
	Trace     ports.TraceSink
	Metrics   ports.StepMetrics
	Now       func() time.Time
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	if req.EpisodeID == "" {
		return Response{}, ErrInvalidRequest
	}
	act, err := rescue.ParseAction(req.Action)
	if err != nil {
		u.rejected()
		return Response{}, err
	}

	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	sess, rec, err := u.load(ctx, req.EpisodeID)
	if err != nil {
		return Response{}, err
	}
	if !sess.Begin() {
		return Response{}, ports.ErrConflict
	}
	defer sess.End()

	var out Response
	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		res, err := sess.Step(req.AgentID, act)
		if err != nil {
			return err
		}
		next := rec.Progress(sess.Tick(), sess.TotalReward(), sess.Rescued(), res.Done, nowFn())
		if err := u.Events.Append(txCtx, req.EpisodeID, res.Events); err != nil {
			return err
		}
		if err := u.Episodes.SaveWithVersion(txCtx, next, rec.Version); err != nil {
			return err
		}
		rec = next
		out = Response{
			Observation: res.Observation,
			Reward:      res.Reward,
			Done:        res.Done,
			Events:      res.Events,
			Status:      next.Status,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, rescue.ErrIllegalAction) || errors.Is(err, rescue.ErrUnknownAgent) {
			u.rejected()
		}
		return Response{}, err
	}

	if u.Metrics != nil {
		u.Metrics.RecordStep(act, out.Reward)
		if rec.Status.Final() {
			u.Metrics.RecordEpisodeFinished(rec.Status)
		}
	}
	if u.Trace != nil {
		entry := ports.TraceEntry{EpisodeID: req.EpisodeID, Tick: out.Observation.Tick, AgentID: req.AgentID, Action: act, Reward: out.Reward, Done: out.Done}
		if err := u.Trace.WriteStep(entry); err != nil {
			log.Printf("trace step %s: %v", req.EpisodeID, err)
		}
		if rec.Status.Final() {
			if err := u.Trace.WriteEpisode(rec); err != nil {
				log.Printf("trace episode %s: %v", req.EpisodeID, err)
			}
		}
	}
	if u.Publisher != nil {
		u.Publisher.Publish(req.EpisodeID, sess.Snapshot())
	}
	return out, nil
}

// Reset clears one agent's knowledge, visit counts and contact log.
func (u UseCase) Reset(ctx context.Context, req ResetRequest) (ResetResponse, error) {
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	if req.EpisodeID == "" {
		return ResetResponse{}, ErrInvalidRequest
	}
	sess, _, err := u.load(ctx, req.EpisodeID)
	if err != nil {
		return ResetResponse{}, err
	}
	obs, events, err := sess.Reset(req.AgentID)
	if err != nil {
		return ResetResponse{}, err
	}
	if err := u.Events.Append(ctx, req.EpisodeID, events); err != nil {
		return ResetResponse{}, err
	}
	return ResetResponse{Observation: obs, Events: events}, nil
}

func (u UseCase) load(ctx context.Context, episodeID string) (*session.Session, ports.EpisodeRecord, error) {
	rec, err := u.Episodes.GetByID(ctx, episodeID)
	if err != nil {
		return nil, ports.EpisodeRecord{}, err
	}
	if rec.Status.Final() {
		return nil, ports.EpisodeRecord{}, rescue.ErrEpisodeDone
	}
	sess, err := u.Sessions.Get(episodeID)
	if err != nil {
		return nil, ports.EpisodeRecord{}, err
	}
	return sess, rec, nil
}

func (u UseCase) rejected() {
	if u.Metrics != nil {
		u.Metrics.RecordRejected()
	}
}
