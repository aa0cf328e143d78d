package status

import (
	"context"
	"errors"
	"strings"

	"sarsim/internal/app/ports"
)

var ErrInvalidRequest = errors.New("invalid status request")

// UseCase reports an episode record together with the render snapshot of its
// live session, when one is still held.
type UseCase struct {
	Episodes ports.EpisodeRepository
	Sessions ports.SessionStore
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	if req.EpisodeID == "" {
		return Response{}, ErrInvalidRequest
	}
	rec, err := u.Episodes.GetByID(ctx, req.EpisodeID)
	if err != nil {
		return Response{}, err
	}
	out := Response{Episode: rec}
	sess, err := u.Sessions.Get(req.EpisodeID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return Response{}, err
	}
	if sess != nil {
		snap := sess.Snapshot()
		out.Snapshot = &snap
	}
	return out, nil
}
