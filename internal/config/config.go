// Package config holds the validated simulation configuration. Defaults are
// listed once in Default; YAML files and SARSIM_* environment variables
// override them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"sarsim/internal/domain/rescue"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	GridSize            int    `yaml:"grid_size" json:"grid_size"`
	MapFile             string `yaml:"map_file" json:"map_file"`
	NumAgents           int    `yaml:"num_agents" json:"num_agents"`
	NumRescuers         int    `yaml:"num_rescuers" json:"num_rescuers"`
	NumVictims          int    `yaml:"num_victums" json:"num_victums"`
	NumAccidents        int    `yaml:"num_accidents" json:"num_accidents"`
	NumGoals            int    `yaml:"num_goals" json:"num_goals"`
	ScoutVisibleRange   int    `yaml:"scout_visible_range" json:"scout_visible_range"`
	RescuerVisibleRange int    `yaml:"rescuer_visible_range" json:"rescuer_visible_range"`
	MaxPheromone        int    `yaml:"max_pheromone" json:"max_pheromone"`
	Seed                int64  `yaml:"seed" json:"seed"`
	MaxSteps            int    `yaml:"max_steps" json:"max_steps"`
	RenderDelayMS       int    `yaml:"render_delay_ms" json:"render_delay_ms"`

	HTTPAddr    string   `yaml:"http_addr" json:"-"`
	ObserveAddr string   `yaml:"observe_addr" json:"-"`
	DBDSN       string   `yaml:"db_dsn" json:"-"`
	CORSOrigins []string `yaml:"cors_origins" json:"-"`
}

func Default() Config {
	return Config{
		GridSize:            100,
		NumAgents:           5,
		NumRescuers:         2,
		NumVictims:          1,
		NumAccidents:        4,
		NumGoals:            2,
		ScoutVisibleRange:   2,
		RescuerVisibleRange: 1,
		MaxPheromone:        10,
		Seed:                1,
		MaxSteps:            20000,
		RenderDelayMS:       0,
		HTTPAddr:            ":8080",
		ObserveAddr:         ":8081",
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SARSIM_* variables. Values that do not parse
// keep the current setting.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) Config {
	c.GridSize = intEnv(lookup, "SARSIM_GRID_SIZE", c.GridSize)
	c.MapFile = stringEnv(lookup, "SARSIM_MAP_FILE", c.MapFile)
	c.NumAgents = intEnv(lookup, "SARSIM_NUM_AGENTS", c.NumAgents)
	c.NumRescuers = intEnv(lookup, "SARSIM_NUM_RESCUERS", c.NumRescuers)
	c.NumVictims = intEnv(lookup, "SARSIM_NUM_VICTUMS", c.NumVictims)
	c.NumAccidents = intEnv(lookup, "SARSIM_NUM_ACCIDENTS", c.NumAccidents)
	c.NumGoals = intEnv(lookup, "SARSIM_NUM_GOALS", c.NumGoals)
	c.ScoutVisibleRange = intEnv(lookup, "SARSIM_SCOUT_VISIBLE_RANGE", c.ScoutVisibleRange)
	c.RescuerVisibleRange = intEnv(lookup, "SARSIM_RESCUER_VISIBLE_RANGE", c.RescuerVisibleRange)
	c.MaxPheromone = intEnv(lookup, "SARSIM_MAX_PHEROMONE", c.MaxPheromone)
	c.Seed = int64(intEnv(lookup, "SARSIM_SEED", int(c.Seed)))
	c.MaxSteps = intEnv(lookup, "SARSIM_MAX_STEPS", c.MaxSteps)
	c.RenderDelayMS = intEnv(lookup, "SARSIM_RENDER_DELAY_MS", c.RenderDelayMS)
	c.HTTPAddr = stringEnv(lookup, "SARSIM_HTTP_ADDR", c.HTTPAddr)
	c.ObserveAddr = stringEnv(lookup, "SARSIM_OBSERVE_ADDR", c.ObserveAddr)
	c.DBDSN = stringEnv(lookup, "SARSIM_DB_DSN", c.DBDSN)
	if v := stringEnv(lookup, "SARSIM_CORS_ORIGINS", ""); v != "" {
		c.CORSOrigins = splitList(v)
	}
	return c
}

func (c Config) Validate() error {
	checks := []struct {
		field string
		ok    bool
		value any
	}{
		{"grid_size", c.GridSize > 0, c.GridSize},
		{"num_agents", c.NumAgents > 0, c.NumAgents},
		{"num_rescuers", c.NumRescuers >= 0 && c.NumRescuers <= c.NumAgents, c.NumRescuers},
		{"num_victums", c.NumVictims > 0, c.NumVictims},
		{"num_accidents", c.NumAccidents > 0, c.NumAccidents},
		{"num_goals", c.NumGoals > 0, c.NumGoals},
		{"scout_visible_range", c.ScoutVisibleRange >= 0, c.ScoutVisibleRange},
		{"rescuer_visible_range", c.RescuerVisibleRange >= 0, c.RescuerVisibleRange},
		{"max_pheromone", c.MaxPheromone > 0, c.MaxPheromone},
		{"max_steps", c.MaxSteps > 0, c.MaxSteps},
		{"render_delay_ms", c.RenderDelayMS >= 0, c.RenderDelayMS},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s out of range: %v", ErrInvalidConfig, chk.field, chk.value)
		}
	}
	return nil
}

func (c Config) WorldOptions() rescue.Options {
	return rescue.Options{
		NumAgents:    c.NumAgents,
		NumRescuers:  c.NumRescuers,
		NumVictims:   c.NumVictims,
		NumAccidents: c.NumAccidents,
		NumGoals:     c.NumGoals,
		ScoutRange:   c.ScoutVisibleRange,
		RescuerRange: c.RescuerVisibleRange,
		MaxPheromone: c.MaxPheromone,
	}
}

func intEnv(lookup func(string) (string, bool), key string, fallback int) int {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func stringEnv(lookup func(string) (string, bool), key, fallback string) string {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
