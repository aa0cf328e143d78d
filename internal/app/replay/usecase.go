package replay

import (
	"context"
	"errors"
	"strings"

	"sarsim/internal/app/ports"
	"sarsim/internal/domain/grid"
	"sarsim/internal/domain/rescue"
)

var ErrInvalidRequest = errors.New("invalid replay request")

type UseCase struct {
	Events ports.EventRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	if req.EpisodeID == "" || req.Limit < 0 {
		return Response{}, ErrInvalidRequest
	}
	if req.FromTick > 0 && req.ToTick > 0 && req.FromTick > req.ToTick {
		return Response{}, ErrInvalidRequest
	}
	events, err := u.Events.ListByEpisodeID(ctx, req.EpisodeID, 0)
	if err != nil {
		return Response{}, err
	}
	events = filterByTickWindow(events, req.FromTick, req.ToTick)
	latest := reconstruct(events)
	if req.Limit > 0 && len(events) > req.Limit {
		events = events[len(events)-req.Limit:]
	}
	return Response{Events: events, LatestState: latest}, nil
}

func filterByTickWindow(events []rescue.Event, from, to int) []rescue.Event {
	if from <= 0 && to <= 0 {
		return events
	}
	out := make([]rescue.Event, 0, len(events))
	for _, evt := range events {
		if from > 0 && evt.Tick < from {
			continue
		}
		if to > 0 && evt.Tick > to {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func reconstruct(events []rescue.Event) LatestState {
	state := LatestState{
		Agents:   map[int]grid.Cell{},
		Victims:  map[int]grid.Cell{},
		Carrying: map[int]int{},
	}
	for _, evt := range events {
		if evt.Tick > state.Tick {
			state.Tick = evt.Tick
		}
		switch evt.Type {
		case rescue.EventAgentReset:
			state.Agents[evt.AgentID] = cell(evt.Payload["cell"])
		case rescue.EventAgentMoved:
			to := cell(evt.Payload["to"])
			state.Agents[evt.AgentID] = to
			if v, ok := evt.Payload["victim_id"]; ok {
				state.Victims[int(num(v))] = to
			}
		case rescue.EventVictimPickedUp:
			v := int(num(evt.Payload["victim_id"]))
			state.Victims[v] = cell(evt.Payload["cell"])
			state.Agents[evt.AgentID] = cell(evt.Payload["cell"])
			state.Carrying[evt.AgentID] = v
		case rescue.EventVictimDroppedOff:
			v := int(num(evt.Payload["victim_id"]))
			state.Victims[v] = cell(evt.Payload["cell"])
			delete(state.Carrying, evt.AgentID)
		case rescue.EventEpisodeTerminated:
			state.Terminated = true
		}
	}
	return state
}

func cell(v any) grid.Cell { return grid.Cell(num(v)) }

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
