// Package sequence levels the daily model mix: it turns per-model production
// ratios into an interleaved build order using the goal-chasing heuristic,
// so every prefix of the sequence stays close to the ideal cumulative share
// of each model.
package sequence

import (
	"math"

	"github.com/google/uuid"

	"github.com/mverdier/lineflow/core/model"
)

// Demands rounds per-model ratios into integer unit counts summing exactly
// to dailyDemand; the largest model absorbs the rounding residue. When the
// residue exceeds its own count, the remainder is taken from the other
// models, biggest counts first, so the counts always sum to dailyDemand.
func Demands(models []model.Model, dailyDemand int) map[string]int {
	out := make(map[string]int, len(models))
	if dailyDemand <= 0 || len(models) == 0 {
		return out
	}
	total := 0
	largest := 0
	for i, m := range models {
		d := int(math.Round(m.Ratio * float64(dailyDemand)))
		out[m.ID] = d
		total += d
		if m.Ratio > models[largest].Ratio {
			largest = i
		}
	}
	adj := out[models[largest].ID] + dailyDemand - total
	if adj >= 0 {
		out[models[largest].ID] = adj
		return out
	}
	out[models[largest].ID] = 0
	for deficit := -adj; deficit > 0; deficit-- {
		pick := -1
		for i, m := range models {
			if i == largest || out[m.ID] == 0 {
				continue
			}
			if pick < 0 || out[m.ID] > out[models[pick].ID] {
				pick = i
			}
		}
		if pick < 0 {
			break
		}
		out[models[pick].ID]--
	}
	return out
}

// Sequence produces the day's build order of length dailyDemand. Each slot
// goes to the model with the smallest running deviation from its ideal
// cumulative share, Toyota-style level scheduling.
func Sequence(models []model.Model, dailyDemand int) []string {
	demands := Demands(models, dailyDemand)

	type chase struct {
		id        string
		remaining int
		weight    float64
		deviation float64
	}
	chasers := make([]*chase, 0, len(models))
	for _, m := range models {
		d := demands[m.ID]
		if d <= 0 {
			continue
		}
		w := float64(dailyDemand) / float64(d)
		chasers = append(chasers, &chase{id: m.ID, remaining: d, weight: w, deviation: w / 2})
	}

	seq := make([]string, 0, dailyDemand)
	for len(seq) < dailyDemand {
		var pick *chase
		for _, c := range chasers {
			if c.remaining == 0 {
				continue
			}
			if pick == nil || c.deviation < pick.deviation {
				pick = c
			}
		}
		if pick == nil {
			break
		}
		seq = append(seq, pick.id)
		pick.deviation += pick.weight
		pick.remaining--
	}
	return seq
}

// BuildUnits expands the sequence into production units with fresh ids.
// Without a configured mix every unit is unnamed and all tasks apply to it.
func BuildUnits(models []model.Model, dailyDemand int) []model.ProductionUnit {
	if len(models) == 0 {
		if dailyDemand < 0 {
			dailyDemand = 0
		}
		units := make([]model.ProductionUnit, dailyDemand)
		for i := range units {
			units[i] = model.ProductionUnit{ID: uuid.NewString(), Index: i}
		}
		return units
	}
	seq := Sequence(models, dailyDemand)
	units := make([]model.ProductionUnit, len(seq))
	for i, mid := range seq {
		units[i] = model.ProductionUnit{ID: uuid.NewString(), ModelID: mid, Index: i}
	}
	return units
}
