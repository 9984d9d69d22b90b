package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mverdier/lineflow/core/balance"
	"github.com/mverdier/lineflow/core/logger"
)

// SolveService answers balance requests over MQTT: it decodes a request from
// the request topic, runs the solver, and publishes the response. Malformed
// requests and solver failures are surfaced as {success:false, error}
// responses; configurations solved before a failure are not part of a failed
// response, keeping completed results uncorrupted on the caller side.
type SolveService struct {
	client Client
	solver *balance.Solver
	cfg    Config
	log    logger.Logger
}

// NewSolveService wires a solve service on the configured topics.
func NewSolveService(client Client, solver *balance.Solver, cfg Config, log logger.Logger) *SolveService {
	return &SolveService{client: client, solver: solver, cfg: cfg, log: log}
}

// Start subscribes to the request topic. Requests are served until the
// context is cancelled.
func (s *SolveService) Start(ctx context.Context) error {
	return s.client.Subscribe(s.cfg.RequestTopic, func(_ string, payload []byte) {
		if ctx.Err() != nil {
			return
		}
		s.handle(ctx, payload)
	})
}

func (s *SolveService) handle(ctx context.Context, payload []byte) {
	var req balance.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		s.log.Errorf("invalid balance request: %v", err)
		s.respond(balance.ErrorResponse(fmt.Errorf("decode request: %w", err)))
		return
	}
	tm, err := req.TaskModel()
	if err != nil {
		s.log.Errorf("invalid task model: %v", err)
		s.respond(balance.ErrorResponse(err))
		return
	}
	configs, err := s.solver.Solve(ctx, tm)
	if err != nil {
		s.respond(balance.ErrorResponse(err))
		return
	}
	s.respond(balance.NewResponse(configs))
}

func (s *SolveService) respond(resp balance.Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		s.log.Errorf("encode response: %v", err)
		return
	}
	if err := s.client.Publish(s.cfg.ResponseTopic, payload); err != nil {
		s.log.Errorf("publish response: %v", err)
	}
}
