package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/mverdier/lineflow/core/balance"
	"github.com/mverdier/lineflow/core/metrics"
	"github.com/mverdier/lineflow/core/model"
	"github.com/mverdier/lineflow/core/throughput"
	"github.com/mverdier/lineflow/infra/mqtt"
)

// TaskSpec declares one work element in the configuration file.
type TaskSpec struct {
	ID           string   `json:"id"`
	BaseTime     float64  `json:"base_time"`
	Predecessors []string `json:"predecessors"`
	UsedBy       []string `json:"used_by"`
}

// ModelSpec declares one product variant in the configuration file.
type ModelSpec struct {
	ID     string  `json:"id"`
	Ratio  float64 `json:"ratio"`
	Length float64 `json:"length_m"`
	Width  float64 `json:"width_m"`
}

// Config is the root configuration.
type Config struct {
	Tasks     []TaskSpec                `json:"tasks"`
	Models    []ModelSpec               `json:"models"`
	Line      throughput.Geometry       `json:"line"`
	Operating throughput.OperatingPoint `json:"operating"`
	Solver    balance.Config            `json:"solver"`
	MQTT      mqtt.Config               `json:"mqtt"`
	Metrics   metrics.Config            `json:"metrics"`
}

// Load reads the configuration from a YAML or JSON file, with optional
// LF_-prefixed environment overrides (LF_SOLVER__MIN_STATIONS=4).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// The callback rewrites LF_SOLVER__MIN_STATIONS to solver.min_stations,
	// so the provider delim must be "." for the key to nest into its section.
	if err := k.Load(env.Provider("LF_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "lf_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Line.SetDefaults()
	cfg.Solver.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Solver.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TaskModel builds the validated task model from the configured tasks and
// models.
func (c *Config) TaskModel() (*model.TaskModel, error) {
	tasks := make([]model.Task, len(c.Tasks))
	for i, t := range c.Tasks {
		tasks[i] = model.Task{
			ID:           t.ID,
			BaseTime:     t.BaseTime,
			Predecessors: t.Predecessors,
			UsedBy:       t.UsedBy,
		}
	}
	models := make([]model.Model, len(c.Models))
	for i, m := range c.Models {
		models[i] = model.Model{ID: m.ID, Ratio: m.Ratio, Length: m.Length, Width: m.Width}
	}
	return model.NewTaskModel(tasks, models)
}
