package mqtt

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mverdier/lineflow/core/balance"
	infralogger "github.com/mverdier/lineflow/infra/logger"
)

type fakeClient struct {
	handlers  map[string]func(topic string, payload []byte)
	published []struct {
		topic   string
		payload []byte
	}
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]func(string, []byte))}
}

func (f *fakeClient) Publish(topic string, payload []byte) error {
	f.published = append(f.published, struct {
		topic   string
		payload []byte
	}{topic, payload})
	return nil
}

func (f *fakeClient) Subscribe(topic string, handler func(string, []byte)) error {
	f.handlers[topic] = handler
	return nil
}

func (f *fakeClient) Disconnect() {}

func (f *fakeClient) deliver(t *testing.T, topic string, payload []byte) {
	t.Helper()
	h, ok := f.handlers[topic]
	if !ok {
		t.Fatalf("no subscription on %s", topic)
	}
	h(topic, payload)
}

func (f *fakeClient) lastResponse(t *testing.T, topic string) balance.Response {
	t.Helper()
	if len(f.published) == 0 {
		t.Fatal("no response published")
	}
	last := f.published[len(f.published)-1]
	if last.topic != topic {
		t.Fatalf("published on %s, want %s", last.topic, topic)
	}
	var resp balance.Response
	if err := json.Unmarshal(last.payload, &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func newTestService(t *testing.T) (*SolveService, *fakeClient, Config) {
	t.Helper()
	cfg := Config{Broker: "tcp://test:1883"}
	cfg.SetDefaults()
	client := newFakeClient()
	solver := balance.NewSolver(balance.Config{MinStations: 1, MaxStations: 2}, infralogger.NopLogger{}, nil, nil)
	svc := NewSolveService(client, solver, cfg, infralogger.NopLogger{})
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc, client, cfg
}

func TestSolveServiceRespondsToRequest(t *testing.T) {
	_, client, cfg := newTestService(t)

	req := balance.Request{
		Elements: []balance.Element{
			{ID: "a", BaseTime: 2},
			{ID: "b", BaseTime: 3, Predecessors: []string{"a"}},
		},
	}
	payload, _ := json.Marshal(req)
	client.deliver(t, cfg.RequestTopic, payload)

	resp := client.lastResponse(t, cfg.ResponseTopic)
	if !resp.Success {
		t.Fatalf("response failed: %s", resp.Error)
	}
	one, ok := resp.ConfigData["1"]
	if !ok {
		t.Fatalf("missing single-station configuration: %v", resp.ConfigData)
	}
	if len(one["1"]) != 2 {
		t.Fatalf("single station should hold both tasks: %v", one)
	}
	if _, ok := resp.ConfigData["2"]; !ok {
		t.Fatalf("missing two-station configuration: %v", resp.ConfigData)
	}
}

func TestSolveServiceRejectsMalformedPayload(t *testing.T) {
	_, client, cfg := newTestService(t)

	client.deliver(t, cfg.RequestTopic, []byte("{not json"))

	resp := client.lastResponse(t, cfg.ResponseTopic)
	if resp.Success || resp.Error == "" {
		t.Fatalf("expected error response, got %+v", resp)
	}
}

func TestSolveServiceRejectsInvalidModel(t *testing.T) {
	_, client, cfg := newTestService(t)

	req := balance.Request{
		Elements: []balance.Element{{ID: "a", BaseTime: 2, Predecessors: []string{"missing"}}},
	}
	payload, _ := json.Marshal(req)
	client.deliver(t, cfg.RequestTopic, payload)

	resp := client.lastResponse(t, cfg.ResponseTopic)
	if resp.Success {
		t.Fatal("expected failure for unknown predecessor")
	}
}

func TestSolveServiceStopsAfterCancel(t *testing.T) {
	cfg := Config{Broker: "tcp://test:1883"}
	cfg.SetDefaults()
	client := newFakeClient()
	solver := balance.NewSolver(balance.Config{MinStations: 1, MaxStations: 1}, infralogger.NopLogger{}, nil, nil)
	svc := NewSolveService(client, solver, cfg, infralogger.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	req, _ := json.Marshal(balance.Request{Elements: []balance.Element{{ID: "a", BaseTime: 1}}})
	client.deliver(t, cfg.RequestTopic, req)
	if len(client.published) != 0 {
		t.Fatalf("cancelled service must not respond, published %d", len(client.published))
	}
}
