package rescue

import "fmt"

type Options struct {
	NumAgents    int
	NumRescuers  int
	NumVictims   int
	NumAccidents int
	NumGoals     int
	ScoutRange   int
	RescuerRange int
	MaxPheromone int
}

func DefaultOptions() Options {
	return Options{
		NumAgents:    5,
		NumRescuers:  2,
		NumVictims:   1,
		NumAccidents: 4,
		NumGoals:     2,
		ScoutRange:   2,
		RescuerRange: 1,
		MaxPheromone: 10,
	}
}

func (o Options) Validate() error {
	switch {
	case o.NumAgents <= 0:
		return fmt.Errorf("%w: num_agents must be > 0, got %d", ErrInvalidOptions, o.NumAgents)
	case o.NumRescuers < 0 || o.NumRescuers > o.NumAgents:
		return fmt.Errorf("%w: num_rescuers must be in [0,%d], got %d", ErrInvalidOptions, o.NumAgents, o.NumRescuers)
	case o.NumVictims <= 0:
		return fmt.Errorf("%w: num_victims must be > 0, got %d", ErrInvalidOptions, o.NumVictims)
	case o.NumAccidents <= 0:
		return fmt.Errorf("%w: num_accidents must be > 0, got %d", ErrInvalidOptions, o.NumAccidents)
	case o.NumGoals <= 0:
		return fmt.Errorf("%w: num_goals must be > 0, got %d", ErrInvalidOptions, o.NumGoals)
	case o.ScoutRange < 0 || o.RescuerRange < 0:
		return fmt.Errorf("%w: visible ranges must be >= 0, got scout=%d rescuer=%d", ErrInvalidOptions, o.ScoutRange, o.RescuerRange)
	case o.MaxPheromone <= 0:
		return fmt.Errorf("%w: max_pheromone must be > 0, got %d", ErrInvalidOptions, o.MaxPheromone)
	}
	return nil
}

func (o Options) RoleOf(agentID int) Role {
	if agentID < o.NumRescuers {
		return RoleRescuer
	}
	return RoleScout
}

// Range is the sensor radius for role.
func (o Options) Range(role Role) int {
	if role == RoleRescuer {
		return o.RescuerRange
	}
	return o.ScoutRange
}

// MaxRange is the largest sensor radius; maps are padded by it.
func (o Options) MaxRange() int {
	if o.RescuerRange > o.ScoutRange {
		return o.RescuerRange
	}
	return o.ScoutRange
}
