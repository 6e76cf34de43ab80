package network

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/services/stockmodel"
)

func newScenarioANetwork(t *testing.T) (*FlowNetwork, *entities.UsePhase) {
	t.Helper()
	cfg, err := entities.NewConfiguration(2000, 2004, entities.DefaultLifespan)
	if err != nil {
		t.Fatalf("Failed to create configuration: %v", err)
	}
	up, err := stockmodel.StockDriven(cfg, []float64{0, 0, 100, 100, 100}, stockmodel.RedistributeDeficit)
	if err != nil {
		t.Fatalf("StockDriven failed: %v", err)
	}
	n := New(Carrier, "plastic", cfg)
	if err := n.SetTransferCoefficients(entities.UniformTransferCoefficients(cfg.Nt, 0.1)); err != nil {
		t.Fatalf("SetTransferCoefficients failed: %v", err)
	}
	return n, up
}

func approx(a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, 1e-12, 1e-12)
}

func TestSolveStep_FollowsTopology(t *testing.T) {
	n, up := newScenarioANetwork(t)
	if err := n.Solve(up); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	for tt := 0; tt < 5; tt++ {
		expected := map[entities.FlowID]float64{
			entities.F_1_0:  0.1 * up.Stock[tt],
			entities.F_1_2:  0.1 * up.Outflow[tt],
			entities.F_1_9:  0.1 * up.Outflow[tt],
			entities.F_1_10: 0.1 * up.Outflow[tt],
		}
		f12 := expected[entities.F_1_2]
		for _, id := range []entities.FlowID{entities.F_2_0, entities.F_2_1, entities.F_2_3, entities.F_2_4} {
			expected[id] = 0.1 * f12
		}
		f23, f24 := 0.1*f12, 0.1*f12
		for _, id := range []entities.FlowID{entities.F_3_0, entities.F_3_8, entities.F_3_10} {
			expected[id] = 0.1 * f23
		}
		for _, id := range []entities.FlowID{entities.F_4_0, entities.F_4_1, entities.F_4_3, entities.F_4_10} {
			expected[id] = 0.1 * f24
		}

		for id, want := range expected {
			if got := n.FlowValues(id)[tt]; !approx(got, want) {
				t.Errorf("period %d %s: expected %v, got %v", tt, id, want, got)
			}
		}
	}

	if n.FlowValues(entities.F_1_0)[2] != 10 {
		t.Errorf("Expected air loss of 10 from a stock of 100, got %v", n.FlowValues(entities.F_1_0)[2])
	}
	if n.FlowValues(entities.F_1_2)[2] != 0 {
		t.Errorf("Expected no dismantling in the entry period, got %v", n.FlowValues(entities.F_1_2)[2])
	}
	if !n.Solved() || n.UsePhase() != up {
		t.Error("Expected solved network with attached use phase")
	}
}

func TestSolveStep_SinkSums(t *testing.T) {
	n, up := newScenarioANetwork(t)
	if err := n.Solve(up); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	v := n.FlowValues
	for tt := 0; tt < 5; tt++ {
		air := v(entities.F_1_0)[tt] + v(entities.F_2_0)[tt] + v(entities.F_3_0)[tt] + v(entities.F_4_0)[tt]
		water := v(entities.F_1_10)[tt] + v(entities.F_3_10)[tt] + v(entities.F_4_10)[tt]

		if !approx(n.StockValues(entities.DS_0)[tt], air) {
			t.Errorf("period %d: dS_0 %v != %v", tt, n.StockValues(entities.DS_0)[tt], air)
		}
		if n.StockValues(entities.DS_8)[tt] != v(entities.F_3_8)[tt] {
			t.Errorf("period %d: dS_8 != F_3_8", tt)
		}
		if n.StockValues(entities.DS_9)[tt] != v(entities.F_1_9)[tt] {
			t.Errorf("period %d: dS_9 != F_1_9", tt)
		}
		if !approx(n.StockValues(entities.DS_10)[tt], water) {
			t.Errorf("period %d: dS_10 %v != %v", tt, n.StockValues(entities.DS_10)[tt], water)
		}
	}
}

func TestSolveStep_OutOfOrder(t *testing.T) {
	n, up := newScenarioANetwork(t)

	if err := n.SolveStep(up, 1); !errors.Is(err, entities.ErrOutOfOrderStep) {
		t.Fatalf("Expected ErrOutOfOrderStep when skipping period 0, got %v", err)
	}
	if err := n.SolveStep(up, 0); err != nil {
		t.Fatalf("SolveStep(0) failed: %v", err)
	}
	if err := n.SolveStep(up, 0); !errors.Is(err, entities.ErrOutOfOrderStep) {
		t.Fatalf("Expected ErrOutOfOrderStep when repeating period 0, got %v", err)
	}
	if err := n.Solve(up); err != nil {
		t.Fatalf("Expected Solve to continue from period 1: %v", err)
	}
}

func TestSolve_ZeroInput(t *testing.T) {
	cfg, _ := entities.NewConfiguration(2000, 2009, entities.DefaultLifespan)
	up, err := stockmodel.InflowDriven(cfg, make([]float64, cfg.Nt))
	if err != nil {
		t.Fatalf("InflowDriven failed: %v", err)
	}
	n := New(SubstanceA, "decaBDE", cfg)
	if err := n.SetTransferCoefficients(entities.UniformTransferCoefficients(cfg.Nt, 0.3)); err != nil {
		t.Fatalf("SetTransferCoefficients failed: %v", err)
	}
	if err := n.Solve(up); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	for _, s := range n.Series() {
		for i, v := range s.Values {
			if v != 0 {
				t.Errorf("%s: expected 0 at period %d, got %v", s.Name, i, v)
			}
		}
	}
}

func TestSetTransferCoefficients_Errors(t *testing.T) {
	cfg, _ := entities.NewConfiguration(2000, 2004, entities.DefaultLifespan)
	n := New(Carrier, "plastic", cfg)

	table := entities.UniformTransferCoefficients(cfg.Nt, 0.1)
	table[entities.F_3_10] = []float64{0.1, 0.1}
	if err := n.SetTransferCoefficients(table); !errors.Is(err, entities.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch at assignment time, got %v", err)
	}

	table = entities.UniformTransferCoefficients(cfg.Nt, 0.1)
	delete(table, entities.F_2_4)
	if err := n.SetTransferCoefficients(table); !errors.Is(err, entities.ErrUnknownFlow) {
		t.Errorf("Expected ErrUnknownFlow for missing edge, got %v", err)
	}

	if err := n.SetTransferCoefficient("F_7_7", make([]float64, cfg.Nt)); !errors.Is(err, entities.ErrUnknownFlow) {
		t.Errorf("Expected ErrUnknownFlow for unknown edge, got %v", err)
	}
}

func TestSeries_EnumeratesEveryEntity(t *testing.T) {
	n, up := newScenarioANetwork(t)
	if err := n.Solve(up); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	series := n.Series()
	if len(series) != 19 {
		t.Fatalf("Expected 4 stocks and 15 flows, got %d series", len(series))
	}

	names := make(map[string]entities.SeriesKind)
	for _, s := range series {
		names[s.Name] = s.Kind
		if len(s.Values) != 5 {
			t.Errorf("%s: expected 5 values, got %d", s.Name, len(s.Values))
		}
	}
	for _, id := range entities.DefaultTopology().FlowIDs() {
		if names[string(id)] != entities.KindFlow {
			t.Errorf("Expected flow %s in enumeration", id)
		}
	}
	for _, id := range []entities.StockID{entities.DS_0, entities.DS_8, entities.DS_9, entities.DS_10} {
		if names[string(id)] != entities.KindStock {
			t.Errorf("Expected stock %s in enumeration", id)
		}
	}

	// the enumeration is a snapshot
	series[0].Values[2] = -1
	if n.StockValues(entities.DS_0)[2] == -1 {
		t.Error("Expected Series to return copies")
	}
}

func TestAddToStock(t *testing.T) {
	n, up := newScenarioANetwork(t)
	if err := n.Solve(up); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	before := append([]float64(nil), n.StockValues(entities.DS_0)...)

	if err := n.AddToStock(entities.DS_0, []float64{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("AddToStock failed: %v", err)
	}
	for i, v := range n.StockValues(entities.DS_0) {
		if !approx(v, before[i]+float64(i+1)) {
			t.Errorf("period %d: expected %v, got %v", i, before[i]+float64(i+1), v)
		}
	}

	if err := n.AddToStock(entities.DS_0, []float64{1}); !errors.Is(err, entities.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
	if err := n.AddToStock("dS_5", make([]float64, 5)); !errors.Is(err, entities.ErrUnknownStock) {
		t.Errorf("Expected ErrUnknownStock, got %v", err)
	}
}

func TestShiftSeries_WrapFill(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	shifted, err := ShiftSeries(values, 2)
	if err != nil {
		t.Fatalf("ShiftSeries failed: %v", err)
	}

	expected := []float64{3, 4, 5, 6, 7, 8, 9, 10, 10, 10}
	if !floats.Equal(shifted, expected) {
		t.Errorf("Expected %v, got %v", expected, shifted)
	}
	if values[0] != 1 {
		t.Error("Expected input to be left untouched")
	}
}

func TestShiftSeries_Bounds(t *testing.T) {
	values := []float64{1, 2, 3}

	same, err := ShiftSeries(values, 0)
	if err != nil || !floats.Equal(same, values) {
		t.Errorf("Expected a shift of 0 to be a copy, got %v (%v)", same, err)
	}

	last, err := ShiftSeries(values, 2)
	if err != nil || !floats.Equal(last, []float64{3, 3, 3}) {
		t.Errorf("Expected [3 3 3], got %v (%v)", last, err)
	}

	for _, years := range []int{-1, 3, 10} {
		if _, err := ShiftSeries(values, years); !errors.Is(err, entities.ErrInvalidShift) {
			t.Errorf("shift %d: expected ErrInvalidShift, got %v", years, err)
		}
	}
}

func TestShiftExportFlowAndStock(t *testing.T) {
	cfg, _ := entities.NewConfiguration(2000, 2009, entities.DefaultLifespan)
	n := New(Carrier, "plastic", cfg)

	exports := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	copy(n.FlowValues(entities.F_1_9), exports)
	copy(n.StockValues(entities.DS_9), exports)

	if err := n.ShiftExportFlowAndStock(2); err != nil {
		t.Fatalf("ShiftExportFlowAndStock failed: %v", err)
	}

	expected := []float64{3, 4, 5, 6, 7, 8, 9, 10, 10, 10}
	if !floats.Equal(n.FlowValues(entities.F_1_9), expected) {
		t.Errorf("F_1_9: expected %v, got %v", expected, n.FlowValues(entities.F_1_9))
	}
	if !floats.Equal(n.StockValues(entities.DS_9), expected) {
		t.Errorf("dS_9: expected %v, got %v", expected, n.StockValues(entities.DS_9))
	}

	if err := n.ShiftExportFlowAndStock(10); !errors.Is(err, entities.ErrInvalidShift) {
		t.Errorf("Expected ErrInvalidShift, got %v", err)
	}
}
