package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
tasks:
  - id: t1
    base_time: 2
  - id: t2
    base_time: 3
    predecessors: [t1]
    used_by: [super]
models:
  - id: super
    ratio: 0.6
  - id: basic
    ratio: 0.4
line:
  line_length_m: 12
  unit_conversion: 1
operating:
  daily_demand: 50
  op_hours: 8
  employees: 4
solver:
  min_stations: 2
  max_stations: 4
mqtt:
  broker: tcp://localhost:1883
metrics:
  prometheus_enabled: true
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Tasks) != 2 || cfg.Tasks[1].Predecessors[0] != "t1" {
		t.Fatalf("tasks: %+v", cfg.Tasks)
	}
	if len(cfg.Models) != 2 || cfg.Models[0].Ratio != 0.6 {
		t.Fatalf("models: %+v", cfg.Models)
	}
	if cfg.Line.LineLength != 12 {
		t.Fatalf("line: %+v", cfg.Line)
	}
	if cfg.Operating.DailyDemand != 50 || cfg.Operating.OpHours != 8 {
		t.Fatalf("operating: %+v", cfg.Operating)
	}
	if cfg.Solver.MinStations != 2 || cfg.Solver.MaxStations != 4 {
		t.Fatalf("solver: %+v", cfg.Solver)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Fatalf("mqtt: %+v", cfg.MQTT)
	}
	if !cfg.Metrics.PrometheusEnabled {
		t.Fatalf("metrics: %+v", cfg.Metrics)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MQTT.ClientID != "lineflow" {
		t.Fatalf("mqtt client id default: %q", cfg.MQTT.ClientID)
	}
	if cfg.MQTT.RequestTopic != "lineflow/balance/request" {
		t.Fatalf("request topic default: %q", cfg.MQTT.RequestTopic)
	}
	if cfg.Metrics.PrometheusPort != "2112" {
		t.Fatalf("prometheus port default: %q", cfg.Metrics.PrometheusPort)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LF_SOLVER__MIN_STATIONS", "4")
	t.Setenv("LF_MQTT__BROKER", "tcp://broker.example:1883")
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Solver.MinStations != 4 {
		t.Fatalf("env override not applied: %+v", cfg.Solver)
	}
	if cfg.MQTT.Broker != "tcp://broker.example:1883" {
		t.Fatalf("env override not applied: %+v", cfg.MQTT)
	}
}

func TestLoadJSON(t *testing.T) {
	body := `{"solver": {"min_stations": 3, "max_stations": 5}, "mqtt": {"broker": "tcp://localhost:1883"}}`
	cfg, err := Load(writeConfig(t, "config.json", body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Solver.MaxStations != 5 {
		t.Fatalf("solver: %+v", cfg.Solver)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "x = 1")); err == nil {
		t.Fatal("expected format error")
	}
}

func TestLoadRejectsInvalidSolver(t *testing.T) {
	body := `
solver:
  min_stations: 5
  max_stations: 2
mqtt:
  broker: tcp://localhost:1883
`
	if _, err := Load(writeConfig(t, "config.yaml", body)); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestTaskModelConversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tm, err := cfg.TaskModel()
	if err != nil {
		t.Fatalf("task model: %v", err)
	}
	if len(tm.Tasks()) != 2 || len(tm.Models()) != 2 {
		t.Fatalf("conversion: %d tasks, %d models", len(tm.Tasks()), len(tm.Models()))
	}
	// t2 is used only by super (ratio 0.6).
	if et := tm.EffectiveTime("t2"); math.Abs(et-1.8) > 1e-9 {
		t.Fatalf("t2 effective time: %v", et)
	}
}
