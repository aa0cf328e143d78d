package rescue

import (
	"strings"

	"sarsim/internal/domain/grid"
)

type Role string

const (
	RoleScout   Role = "scout"
	RoleRescuer Role = "rescuer"
)

type Action string

const (
	ActionLeft        Action = "LEFT"
	ActionDown        Action = "DOWN"
	ActionUp          Action = "UP"
	ActionRight       Action = "RIGHT"
	ActionCommunicate Action = "COMMUNICATE"
	ActionPickup      Action = "PICKUP"
	ActionDropoff     Action = "DROPOFF"
)

// Moves lists the four movement actions in tie-breaking order.
var Moves = []Action{ActionLeft, ActionDown, ActionUp, ActionRight}

// Delta returns the (dx, dy) displacement of a movement action.
func (a Action) Delta() (int, int, bool) {
	switch a {
	case ActionLeft:
		return -1, 0, true
	case ActionRight:
		return 1, 0, true
	case ActionUp:
		return 0, -1, true
	case ActionDown:
		return 0, 1, true
	default:
		return 0, 0, false
	}
}

func (a Action) IsMove() bool {
	_, _, ok := a.Delta()
	return ok
}

func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range allActions() {
		if a == known {
			return a, nil
		}
	}
	return "", ErrInvalidAction
}

func allActions() []Action {
	return []Action{ActionLeft, ActionDown, ActionUp, ActionRight, ActionCommunicate, ActionPickup, ActionDropoff}
}

// LegalActions is the action set an agent of the given role may submit.
func LegalActions(role Role) []Action {
	switch role {
	case RoleRescuer:
		return []Action{ActionLeft, ActionDown, ActionUp, ActionRight, ActionCommunicate, ActionPickup, ActionDropoff}
	default:
		return []Action{ActionLeft, ActionDown, ActionUp, ActionRight, ActionCommunicate}
	}
}

func IsLegal(role Role, a Action) bool {
	for _, legal := range LegalActions(role) {
		if a == legal {
			return true
		}
	}
	return false
}

type Agent struct {
	ID       int       `json:"id"`
	Role     Role      `json:"role"`
	Cell     grid.Cell `json:"cell"`
	Carrying int       `json:"carrying"`
}

func (a Agent) IsCarrying() bool { return a.Carrying != NoVictim }

type Victim struct {
	ID        int       `json:"id"`
	Cell      grid.Cell `json:"cell"`
	CarriedBy int       `json:"carried_by"`
}

func (v Victim) IsCarried() bool { return v.CarriedBy != NoAgent }

type Event struct {
	Type    string         `json:"type"`
	Tick    int            `json:"tick"`
	AgentID int            `json:"agent_id"`
	Payload map[string]any `json:"payload,omitempty"`
}

const (
	EventAgentReset          = "agent_reset"
	EventAgentMoved          = "agent_moved"
	EventVictimPickedUp      = "victim_picked_up"
	EventPickupFailed        = "pickup_failed"
	EventVictimDroppedOff    = "victim_dropped_off"
	EventDropoffFailed       = "dropoff_failed"
	EventCommunicated        = "communicated"
	EventCommunicationFailed = "communication_failed"
	EventEpisodeTerminated   = "episode_terminated"
)

type StepResult struct {
	Observation Observation `json:"observation"`
	Reward      int         `json:"reward"`
	Done        bool        `json:"done"`
	Events      []Event     `json:"events"`
}
