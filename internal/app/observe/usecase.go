package observe

import (
	"context"
	"errors"
	"strings"

	"sarsim/internal/app/ports"
	"sarsim/internal/domain/rescue"
)

var ErrInvalidRequest = errors.New("invalid observe request")

type UseCase struct {
	Sessions ports.SessionStore
}

func (u UseCase) Execute(_ context.Context, req Request) (Response, error) {
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	if req.EpisodeID == "" {
		return Response{}, ErrInvalidRequest
	}
	sess, err := u.Sessions.Get(req.EpisodeID)
	if err != nil {
		return Response{}, err
	}
	obs, err := sess.Observe(req.AgentID)
	if err != nil {
		return Response{}, err
	}
	return Response{Observation: obs, LegalActions: rescue.LegalActions(obs.Role)}, nil
}

// Suggest returns what the built-in policy would do with the agent's current
// observation.
func (u UseCase) Suggest(_ context.Context, req Request) (SuggestResponse, error) {
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	if req.EpisodeID == "" {
		return SuggestResponse{}, ErrInvalidRequest
	}
	sess, err := u.Sessions.Get(req.EpisodeID)
	if err != nil {
		return SuggestResponse{}, err
	}
	obs, action, err := sess.Suggest(req.AgentID)
	if err != nil {
		return SuggestResponse{}, err
	}
	return SuggestResponse{Observation: obs, Action: action}, nil
}
