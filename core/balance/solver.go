package balance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mverdier/lineflow/core/events"
	"github.com/mverdier/lineflow/core/logger"
	"github.com/mverdier/lineflow/core/metrics"
	"github.com/mverdier/lineflow/core/model"
	"github.com/mverdier/lineflow/internal/eventbus"
)

// MinStations is the smallest station count offered by default.
const MinStations = 3

// Config defines solver parameters loaded from configuration.
type Config struct {
	MinStations int `json:"min_stations" yaml:"min_stations"`
	// MaxStations caps the candidate range; 0 derives
	// ceil(totalWork / maxTaskTime) from the task model.
	MaxStations int `json:"max_stations" yaml:"max_stations"`
	// SolveTimeoutSeconds bounds each per-station-count solve; 0 disables
	// the deadline. MILP solve time is not otherwise bounded.
	SolveTimeoutSeconds int `json:"solve_timeout_seconds" yaml:"solve_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MinStations == 0 {
		c.MinStations = MinStations
	}
}

// Validate checks the configured range.
func (c Config) Validate() error {
	if c.MinStations < 1 {
		return fmt.Errorf("min_stations must be at least 1")
	}
	if c.MaxStations != 0 && c.MaxStations < c.MinStations {
		return fmt.Errorf("max_stations %d below min_stations %d", c.MaxStations, c.MinStations)
	}
	if c.SolveTimeoutSeconds < 0 {
		return fmt.Errorf("solve_timeout_seconds must not be negative")
	}
	return nil
}

// Solver balances the line for a range of candidate station counts. Per-m
// solves are independent and run concurrently; results are merged as they
// complete. Infeasible station counts are omitted from the result map, which
// callers treat as "not offerable" rather than an error.
type Solver struct {
	cfg  Config
	log  logger.Logger
	bus  *eventbus.Bus
	sink metrics.Sink
}

// NewSolver builds a Solver. bus and sink may be nil.
func NewSolver(cfg Config, log logger.Logger, bus *eventbus.Bus, sink metrics.Sink) *Solver {
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Solver{cfg: cfg, log: log, bus: bus, sink: sink}
}

// Range returns the candidate station counts [min, max] for the task model.
func (s *Solver) Range(tm *model.TaskModel) (int, int) {
	min := s.cfg.MinStations
	max := s.cfg.MaxStations
	if max == 0 {
		if mt := tm.MaxTaskTime(); mt > 0 {
			max = int(math.Ceil(tm.TotalWork() / mt))
		}
	}
	if max < min {
		max = min
	}
	return min, max
}

type solveOutcome struct {
	m   int
	cfg model.LineConfig
	err error
}

// Solve balances every candidate station count and returns the feasible
// configurations keyed by station count. Failures other than infeasibility
// are joined into the returned error; configurations completed before a
// failure or cancellation remain valid.
func (s *Solver) Solve(ctx context.Context, tm *model.TaskModel) (map[int]model.LineConfig, error) {
	min, max := s.Range(tm)
	s.log.Infof("balancing %d tasks for station counts %d..%d", len(tm.Tasks()), min, max)

	results := make(chan solveOutcome, max-min+1)
	var wg sync.WaitGroup
	for m := min; m <= max; m++ {
		wg.Add(1)
		go func(m int) {
			defer wg.Done()
			results <- s.solveOne(ctx, tm, m)
		}(m)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	configs := make(map[int]model.LineConfig)
	var errs []error
	for out := range results {
		switch {
		case out.err == nil:
			configs[out.m] = out.cfg
		case errors.Is(out.err, ErrInfeasible):
			// Not offerable at this station count; skip.
		default:
			errs = append(errs, fmt.Errorf("stations %d: %w", out.m, out.err))
		}
	}
	return configs, errors.Join(errs...)
}

func (s *Solver) solveOne(ctx context.Context, tm *model.TaskModel, m int) solveOutcome {
	if s.cfg.SolveTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.SolveTimeoutSeconds)*time.Second)
		defer cancel()
	}
	s.publish(events.SolveEvent{Stations: m, Action: "start"})
	start := time.Now()
	cfg, err := BalanceStations(ctx, tm, m)
	elapsed := time.Since(start)

	rec := metrics.SolveRecord{Stations: m, Duration: elapsed, Time: time.Now()}
	switch {
	case err == nil:
		rec.Outcome = "optimal"
		rec.CycleTime = cfg.CycleTime
		s.log.Debugw("balance solved", map[string]any{
			"stations":   m,
			"cycle_time": cfg.CycleTime,
			"elapsed":    elapsed.String(),
		})
		s.publish(events.SolveEvent{Stations: m, Action: "optimal", CycleTime: cfg.CycleTime})
	case errors.Is(err, ErrInfeasible):
		rec.Outcome = "infeasible"
		s.log.Debugf("no feasible balance for %d stations", m)
		s.publish(events.SolveEvent{Stations: m, Action: "infeasible"})
	default:
		rec.Outcome = "error"
		s.log.Warnf("balance solve for %d stations failed: %v", m, err)
		s.publish(events.SolveEvent{Stations: m, Action: "error", Err: err})
	}
	if serr := s.sink.RecordSolve(rec); serr != nil {
		s.log.Warnf("record solve metric: %v", serr)
	}
	return solveOutcome{m: m, cfg: cfg, err: err}
}

func (s *Solver) publish(e events.SolveEvent) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
