package sequence

import (
	"fmt"
	"math"
	"testing"

	"github.com/mverdier/lineflow/core/model"
)

func mixFixture() []model.Model {
	return []model.Model{
		{ID: "super", Ratio: 0.6},
		{ID: "basic", Ratio: 0.4},
	}
}

func TestDemandsExactSplit(t *testing.T) {
	d := Demands(mixFixture(), 10)
	if d["super"] != 6 || d["basic"] != 4 {
		t.Fatalf("demands: %v", d)
	}
}

func TestDemandsResidueAbsorption(t *testing.T) {
	models := []model.Model{
		{ID: "a", Ratio: 1.0 / 3.0},
		{ID: "b", Ratio: 1.0 / 3.0},
		{ID: "c", Ratio: 1.0 / 3.0},
	}
	for demand := 1; demand <= 50; demand++ {
		d := Demands(models, demand)
		total := 0
		for _, n := range d {
			total += n
		}
		if total != demand {
			t.Fatalf("demand %d: counts %v sum to %d", demand, d, total)
		}
	}
}

func TestDemandsHeavyRoundingDeficit(t *testing.T) {
	// Ten models at ratio 0.1 with demand 5: every count rounds up to 1, so
	// the rounded total overshoots by more than the largest model's own
	// count. The deficit must come out of the other models, never out of
	// the sequence length.
	models := make([]model.Model, 10)
	for i := range models {
		models[i] = model.Model{ID: fmt.Sprintf("m%d", i), Ratio: 0.1}
	}
	d := Demands(models, 5)
	total := 0
	for id, n := range d {
		if n < 0 {
			t.Fatalf("model %s has negative count %d", id, n)
		}
		total += n
	}
	if total != 5 {
		t.Fatalf("counts %v sum to %d", d, total)
	}
	if seq := Sequence(models, 5); len(seq) != 5 {
		t.Fatalf("sequence length: %d", len(seq))
	}
}

func TestDemandsDegenerate(t *testing.T) {
	if d := Demands(mixFixture(), 0); len(d) != 0 {
		t.Fatalf("zero demand: %v", d)
	}
	if d := Demands(nil, 10); len(d) != 0 {
		t.Fatalf("no models: %v", d)
	}
}

func TestSequenceInterleaves(t *testing.T) {
	seq := Sequence(mixFixture(), 10)
	if len(seq) != 10 {
		t.Fatalf("length: %d", len(seq))
	}
	counts := map[string]int{}
	for _, id := range seq {
		counts[id]++
	}
	if counts["super"] != 6 || counts["basic"] != 4 {
		t.Fatalf("counts: %v", counts)
	}
	// Goal chasing keeps every prefix close to the ideal share: no model may
	// drift more than one unit from ratio*prefix.
	run := map[string]int{}
	for i, id := range seq {
		run[id]++
		for _, m := range mixFixture() {
			ideal := m.Ratio * float64(i+1)
			if dev := math.Abs(float64(run[m.ID]) - ideal); dev > 1+1e-9 {
				t.Fatalf("prefix %d: model %s at %d vs ideal %.2f", i+1, m.ID, run[m.ID], ideal)
			}
		}
	}
}

func TestSequenceSingleModel(t *testing.T) {
	seq := Sequence([]model.Model{{ID: "only", Ratio: 1}}, 5)
	if len(seq) != 5 {
		t.Fatalf("length: %d", len(seq))
	}
	for _, id := range seq {
		if id != "only" {
			t.Fatalf("unexpected model %q", id)
		}
	}
}

func TestBuildUnitsWithoutMix(t *testing.T) {
	units := BuildUnits(nil, 3)
	if len(units) != 3 {
		t.Fatalf("units: %d", len(units))
	}
	for i, u := range units {
		if u.ModelID != "" || u.Index != i || u.ID == "" {
			t.Fatalf("unit %d: %+v", i, u)
		}
	}
}

func TestBuildUnits(t *testing.T) {
	units := BuildUnits(mixFixture(), 10)
	if len(units) != 10 {
		t.Fatalf("units: %d", len(units))
	}
	ids := map[string]bool{}
	for i, u := range units {
		if u.Index != i {
			t.Fatalf("unit %d has index %d", i, u.Index)
		}
		if u.ID == "" || ids[u.ID] {
			t.Fatalf("unit id not unique: %q", u.ID)
		}
		ids[u.ID] = true
	}
}
