package app

import (
	"context"
	"fmt"

	"github.com/mverdier/lineflow/config"
	"github.com/mverdier/lineflow/core/balance"
	"github.com/mverdier/lineflow/core/events"
	coremetrics "github.com/mverdier/lineflow/core/metrics"
	"github.com/mverdier/lineflow/infra/logger"
	"github.com/mverdier/lineflow/infra/metrics"
	"github.com/mverdier/lineflow/infra/mqtt"
	"github.com/mverdier/lineflow/internal/eventbus"
)

// Service hosts the balancer as a long-running solve service: balance
// requests arrive over MQTT and responses are published back, with metrics
// exposed while the service runs.
type Service struct {
	Solver *balance.Solver

	client      *mqtt.PahoClient
	solveSvc    *mqtt.SolveService
	bus         *eventbus.Bus
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	solver := balance.NewSolver(cfg.Solver, logg, bus, sink)

	if err := cfg.MQTT.Validate(); err != nil {
		return nil, fmt.Errorf("mqtt config: %w", err)
	}
	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	return &Service{
		Solver:      solver,
		client:      client,
		solveSvc:    mqtt.NewSolveService(client, solver, cfg.MQTT, logg),
		bus:         bus,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run starts the solve service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.watchSolves(ctx)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, ":"+s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if err := s.solveSvc.Start(ctx); err != nil {
		return fmt.Errorf("solve service: %w", err)
	}
	s.log.Infof("solve service listening")
	<-ctx.Done()
	return nil
}

// watchSolves logs solver progress published on the event bus.
func (s *Service) watchSolves(ctx context.Context) {
	sub := s.bus.Subscribe(64)
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			if ev, isSolve := e.(events.SolveEvent); isSolve {
				switch ev.Action {
				case "optimal":
					s.log.Infof("balanced %d stations, cycle time %.2f min", ev.Stations, ev.CycleTime)
				case "error":
					s.log.Warnf("solve for %d stations failed: %v", ev.Stations, ev.Err)
				}
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.client != nil {
		s.client.Disconnect()
	}
	if s.bus != nil {
		s.bus.Close()
	}
	return nil
}
