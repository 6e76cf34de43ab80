package stockmodel

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

const tolerance = 1e-9

func newTestConfiguration(t *testing.T, start, end entities.Year) *entities.Configuration {
	t.Helper()
	cfg, err := entities.NewConfiguration(start, end, entities.DefaultLifespan)
	if err != nil {
		t.Fatalf("Failed to create configuration: %v", err)
	}
	return cfg
}

func approxEqual(a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, tolerance, tolerance)
}

func assertMassBalance(t *testing.T, up *entities.UsePhase) {
	t.Helper()
	for i := range up.Stock {
		if !approxEqual(up.Inflow[i]-up.Outflow[i], up.StockChange[i]) {
			t.Errorf("period %d: inflow %v - outflow %v != stock change %v",
				i, up.Inflow[i], up.Outflow[i], up.StockChange[i])
		}
	}
}

func TestStockDriven_ReconstructsStock(t *testing.T) {
	cfg := newTestConfiguration(t, 1990, 2030)
	stock := make([]float64, cfg.Nt)
	for i := range stock {
		stock[i] = 100 + 5*float64(i) + 3*math.Sin(float64(i))
	}

	up, err := StockDriven(cfg, stock, RejectNegativeInflow)
	if err != nil {
		t.Fatalf("StockDriven failed: %v", err)
	}

	for tt := 0; tt < cfg.Nt; tt++ {
		reconstructed := 0.0
		for c := 0; c <= tt; c++ {
			reconstructed += up.Inflow[c] * cfg.SurvivalFactor(tt, c)
		}
		if !approxEqual(reconstructed, stock[tt]) {
			t.Errorf("period %d: reconstructed stock %v, expected %v", tt, reconstructed, stock[tt])
		}
		if !approxEqual(up.Stock[tt], stock[tt]) {
			t.Errorf("period %d: aggregated stock %v, expected %v", tt, up.Stock[tt], stock[tt])
		}
	}
	assertMassBalance(t, up)
}

func TestStockDriven_FirstPeriodInflowEqualsStock(t *testing.T) {
	cfg := newTestConfiguration(t, 2000, 2004)
	up, err := StockDriven(cfg, []float64{0, 0, 100, 100, 100}, RedistributeDeficit)
	if err != nil {
		t.Fatalf("StockDriven failed: %v", err)
	}

	expectedInflow := []float64{0, 0, 100, 100 - 100*cfg.SurvivalFactor(3, 2)}
	for i, expected := range expectedInflow {
		if !approxEqual(up.Inflow[i], expected) {
			t.Errorf("period %d: expected inflow %v, got %v", i, expected, up.Inflow[i])
		}
	}
	if up.Outflow[2] != 0 {
		t.Errorf("Expected no outflow in the entry period, got %v", up.Outflow[2])
	}
	if !approxEqual(up.Outflow[3], 100*(1-cfg.SurvivalFactor(3, 2))) {
		t.Errorf("Expected attrition of the 2002 cohort in 2003, got %v", up.Outflow[3])
	}
	assertMassBalance(t, up)
}

func TestStockDriven_StockChangeByCohort(t *testing.T) {
	cfg := newTestConfiguration(t, 2000, 2009)
	stock := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	up, err := StockDriven(cfg, stock, RedistributeDeficit)
	if err != nil {
		t.Fatalf("StockDriven failed: %v", err)
	}

	for c := 0; c < cfg.Nc; c++ {
		if up.StockChangeByCohort.At(0, c) != up.StockByCohort.At(0, c) {
			t.Errorf("Expected DS_C[0,%d] = S_C[0,%d]", c, c)
		}
		for tt := 1; tt < cfg.Nt; tt++ {
			expected := up.StockByCohort.At(tt, c) - up.StockByCohort.At(tt-1, c)
			if !approxEqual(up.StockChangeByCohort.At(tt, c), expected) {
				t.Errorf("DS_C[%d,%d]: expected %v, got %v", tt, c, expected, up.StockChangeByCohort.At(tt, c))
			}
		}
	}
	if !approxEqual(up.StockChange[0], stock[0]) {
		t.Errorf("Expected stock change in the first period to equal the stock, got %v", up.StockChange[0])
	}
}

// shrinkingStock drops far faster than a 15-year lifetime explains
var shrinkingStock = []float64{100, 100, 10, 10, 12}

func TestStockDriven_NegativeInflow_Reject(t *testing.T) {
	cfg := newTestConfiguration(t, 2000, 2004)
	_, err := StockDriven(cfg, shrinkingStock, RejectNegativeInflow)
	if !errors.Is(err, entities.ErrNegativeInflow) {
		t.Fatalf("Expected ErrNegativeInflow, got %v", err)
	}
}

func TestStockDriven_NegativeInflow_Clamp(t *testing.T) {
	cfg := newTestConfiguration(t, 2000, 2004)
	up, err := StockDriven(cfg, shrinkingStock, ClampToZero)
	if err != nil {
		t.Fatalf("StockDriven failed: %v", err)
	}

	for i, v := range up.Inflow {
		if v < 0 {
			t.Errorf("period %d: expected non-negative inflow, got %v", i, v)
		}
	}
	if up.Inflow[2] != 0 {
		t.Errorf("Expected clamped inflow of 0 in 2002, got %v", up.Inflow[2])
	}
	// older cohorts are not touched, so the stock stays above target
	if up.Stock[2] <= shrinkingStock[2] {
		t.Errorf("Expected reconstructed stock above %v, got %v", shrinkingStock[2], up.Stock[2])
	}
	assertMassBalance(t, up)
}

func TestStockDriven_NegativeInflow_Redistribute(t *testing.T) {
	cfg := newTestConfiguration(t, 2000, 2004)
	up, err := StockDriven(cfg, shrinkingStock, RedistributeDeficit)
	if err != nil {
		t.Fatalf("StockDriven failed: %v", err)
	}

	for i, v := range up.Inflow {
		if v < 0 {
			t.Errorf("period %d: expected non-negative inflow, got %v", i, v)
		}
	}
	if up.Inflow[2] != 0 {
		t.Errorf("Expected inflow of 0 in 2002, got %v", up.Inflow[2])
	}
	for i, s := range shrinkingStock {
		if !approxEqual(up.Stock[i], s) {
			t.Errorf("period %d: expected stock %v, got %v", i, s, up.Stock[i])
		}
	}
	// the deficit leaves as outflow in the period where it occurs
	if !approxEqual(up.Outflow[2], 90) {
		t.Errorf("Expected outflow of 90 in 2002, got %v", up.Outflow[2])
	}
	// cohort shares are preserved by the proportional shrink
	before := up.StockByCohort.At(1, 0) / up.StockByCohort.At(1, 1)
	after := up.StockByCohort.At(2, 0) / up.StockByCohort.At(2, 1)
	ratio := cfg.SurvivalFactor(2, 0) / cfg.SurvivalFactor(1, 0) * cfg.SurvivalFactor(1, 1) / cfg.SurvivalFactor(2, 1)
	if !approxEqual(after, before*ratio) {
		t.Errorf("Expected proportional shrink, cohort ratio went from %v to %v", before, after)
	}
	assertMassBalance(t, up)
}

func TestInflowDriven_ScenarioA(t *testing.T) {
	cfg := newTestConfiguration(t, 2000, 2004)
	if cfg.Nt != 5 {
		t.Fatalf("Expected Nt=5, got %d", cfg.Nt)
	}

	inflow := []float64{50, 50, 50, 50, 50}
	up, err := InflowDriven(cfg, inflow)
	if err != nil {
		t.Fatalf("InflowDriven failed: %v", err)
	}

	for tt := 0; tt < cfg.Nt; tt++ {
		for c := 0; c < cfg.Nc; c++ {
			got := up.StockByCohort.At(tt, c)
			if c > tt {
				if got != 0 {
					t.Errorf("S_C[%d,%d]: expected exactly 0, got %v", tt, c, got)
				}
				continue
			}
			if !approxEqual(got, 50*cfg.SurvivalFactor(tt, c)) {
				t.Errorf("S_C[%d,%d]: expected %v, got %v", tt, c, 50*cfg.SurvivalFactor(tt, c), got)
			}
		}
	}
	if up.Outflow[0] != 0 {
		t.Errorf("Expected outflow[0]=0, got %v", up.Outflow[0])
	}
}

func TestInflowDriven_Reconstruction(t *testing.T) {
	cfg := newTestConfiguration(t, 1980, 2020)
	inflow := make([]float64, cfg.Nt)
	for i := range inflow {
		inflow[i] = 20 + float64(i%7)
	}

	up, err := InflowDriven(cfg, inflow)
	if err != nil {
		t.Fatalf("InflowDriven failed: %v", err)
	}

	for tt := 0; tt < cfg.Nt; tt++ {
		if !approxEqual(floats.Sum(up.StockByCohort.RawRowView(tt)), up.Stock[tt]) {
			t.Errorf("period %d: cohort stock does not sum to total", tt)
		}
		if !approxEqual(floats.Sum(up.OutflowByCohort.RawRowView(tt)), up.Outflow[tt]) {
			t.Errorf("period %d: cohort outflow does not sum to total", tt)
		}
		expectedChange := up.Stock[tt]
		if tt > 0 {
			expectedChange -= up.Stock[tt-1]
		}
		if !approxEqual(up.StockChange[tt], expectedChange) {
			t.Errorf("period %d: expected stock change %v, got %v", tt, expectedChange, up.StockChange[tt])
		}
		for c := 0; c <= tt; c++ {
			if c < tt && !approxEqual(up.OutflowByCohort.At(tt, c), up.StockByCohort.At(tt-1, c)-up.StockByCohort.At(tt, c)) {
				t.Errorf("O_C[%d,%d] does not match cohort stock decline", tt, c)
			}
		}
		if up.OutflowByCohort.At(tt, tt) != 0 {
			t.Errorf("O_C[%d,%d]: expected 0 under the diagonal convention", tt, tt)
		}
	}
	assertMassBalance(t, up)

	inflow[0] = 999
	if up.Inflow[0] == 999 {
		t.Error("Expected UsePhase to own a copy of the inflow")
	}
}

func TestInflowDriven_AcceptsNegativeInflow(t *testing.T) {
	cfg := newTestConfiguration(t, 2000, 2002)
	up, err := InflowDriven(cfg, []float64{10, -2, 5})
	if err != nil {
		t.Fatalf("Expected negative inflow to be accepted: %v", err)
	}
	assertMassBalance(t, up)
}

func TestZeroInput(t *testing.T) {
	cfg := newTestConfiguration(t, 2000, 2010)
	zero := make([]float64, cfg.Nt)

	stockDriven, err := StockDriven(cfg, zero, RedistributeDeficit)
	if err != nil {
		t.Fatalf("StockDriven failed: %v", err)
	}
	inflowDriven, err := InflowDriven(cfg, zero)
	if err != nil {
		t.Fatalf("InflowDriven failed: %v", err)
	}

	for name, up := range map[string]*entities.UsePhase{"stock-driven": stockDriven, "inflow-driven": inflowDriven} {
		for _, series := range [][]float64{up.Inflow, up.Stock, up.StockChange, up.Outflow} {
			for i, v := range series {
				if v != 0 {
					t.Errorf("%s: expected 0 at period %d, got %v", name, i, v)
				}
			}
		}
	}
}

func TestInputValidation(t *testing.T) {
	cfg := newTestConfiguration(t, 2000, 2004)

	testCases := []struct {
		name     string
		run      func() error
		expected error
	}{
		{"stock too short", func() error {
			_, err := StockDriven(cfg, []float64{1, 2}, RedistributeDeficit)
			return err
		}, entities.ErrShapeMismatch},
		{"inflow too long", func() error {
			_, err := InflowDriven(cfg, make([]float64, 6))
			return err
		}, entities.ErrShapeMismatch},
		{"negative stock", func() error {
			_, err := StockDriven(cfg, []float64{1, 2, -3, 4, 5}, RedistributeDeficit)
			return err
		}, entities.ErrInvalidSeries},
		{"NaN inflow", func() error {
			_, err := InflowDriven(cfg, []float64{1, math.NaN(), 3, 4, 5})
			return err
		}, entities.ErrInvalidSeries},
		{"infinite stock", func() error {
			_, err := StockDriven(cfg, []float64{1, 2, 3, math.Inf(1), 5}, RedistributeDeficit)
			return err
		}, entities.ErrInvalidSeries},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestParseNegativeInflowPolicy(t *testing.T) {
	for _, policy := range []NegativeInflowPolicy{RedistributeDeficit, ClampToZero, RejectNegativeInflow} {
		parsed, err := ParseNegativeInflowPolicy(policy.String())
		if err != nil || parsed != policy {
			t.Errorf("Expected %v to parse, got %v (%v)", policy, parsed, err)
		}
	}
	if _, err := ParseNegativeInflowPolicy("ignore"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}
