package config

// Overrides is a partial Config supplied per episode. Nil fields keep the
// base value.
type Overrides struct {
	GridSize            *int    `json:"grid_size,omitempty"`
	MapFile             *string `json:"map_file,omitempty"`
	NumAgents           *int    `json:"num_agents,omitempty"`
	NumRescuers         *int    `json:"num_rescuers,omitempty"`
	NumVictims          *int    `json:"num_victums,omitempty"`
	NumAccidents        *int    `json:"num_accidents,omitempty"`
	NumGoals            *int    `json:"num_goals,omitempty"`
	ScoutVisibleRange   *int    `json:"scout_visible_range,omitempty"`
	RescuerVisibleRange *int    `json:"rescuer_visible_range,omitempty"`
	MaxPheromone        *int    `json:"max_pheromone,omitempty"`
	Seed                *int64  `json:"seed,omitempty"`
	MaxSteps            *int    `json:"max_steps,omitempty"`
	RenderDelayMS       *int    `json:"render_delay_ms,omitempty"`
}

func (c Config) Merge(o Overrides) Config {
	setInt(&c.GridSize, o.GridSize)
	if o.MapFile != nil {
		c.MapFile = *o.MapFile
	}
	setInt(&c.NumAgents, o.NumAgents)
	setInt(&c.NumRescuers, o.NumRescuers)
	setInt(&c.NumVictims, o.NumVictims)
	setInt(&c.NumAccidents, o.NumAccidents)
	setInt(&c.NumGoals, o.NumGoals)
	setInt(&c.ScoutVisibleRange, o.ScoutVisibleRange)
	setInt(&c.RescuerVisibleRange, o.RescuerVisibleRange)
	setInt(&c.MaxPheromone, o.MaxPheromone)
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	setInt(&c.MaxSteps, o.MaxSteps)
	setInt(&c.RenderDelayMS, o.RenderDelayMS)
	return c
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
