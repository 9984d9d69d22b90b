package balance

import (
	"strconv"

	"github.com/mverdier/lineflow/core/model"
)

// Element is one work element of a balance request.
type Element struct {
	ID           string   `json:"id"`
	BaseTime     float64  `json:"baseTime"`
	Predecessors []string `json:"predecessors"`
	Usage        []string `json:"usage"`
}

// ModelSpec is one product variant of a balance request.
type ModelSpec struct {
	ID    string  `json:"id"`
	Ratio float64 `json:"ratio"`
}

// Request is the wire-level balance request consumed by the solve service.
type Request struct {
	Elements []Element   `json:"elements"`
	Models   []ModelSpec `json:"models"`
}

// TaskModel converts the request into a validated task model.
func (r Request) TaskModel() (*model.TaskModel, error) {
	tasks := make([]model.Task, len(r.Elements))
	for i, e := range r.Elements {
		tasks[i] = model.Task{
			ID:           e.ID,
			BaseTime:     e.BaseTime,
			Predecessors: e.Predecessors,
			UsedBy:       e.Usage,
		}
	}
	models := make([]model.Model, len(r.Models))
	for i, m := range r.Models {
		models[i] = model.Model{ID: m.ID, Ratio: m.Ratio}
	}
	return model.NewTaskModel(tasks, models)
}

// Response is the wire-level balance result. ConfigData keys station counts
// and station ids as strings, matching the contract consumed by external
// tooling.
type Response struct {
	Success    bool                           `json:"success"`
	ConfigData map[string]map[string][]string `json:"configData,omitempty"`
	Error      string                         `json:"error,omitempty"`
}

// NewResponse converts solved configurations into a success response.
func NewResponse(configs map[int]model.LineConfig) Response {
	data := make(map[string]map[string][]string, len(configs))
	for m, cfg := range configs {
		stations := make(map[string][]string, len(cfg.Stations))
		for sid, tasks := range cfg.Stations {
			stations[strconv.Itoa(sid)] = append([]string(nil), tasks...)
		}
		data[strconv.Itoa(m)] = stations
	}
	return Response{Success: true, ConfigData: data}
}

// ErrorResponse wraps a failure message.
func ErrorResponse(err error) Response {
	return Response{Success: false, Error: err.Error()}
}
