// Package stockmodel implements the cohort-based dynamic stock model.
//
// Both modes are pure functions of a Configuration and an input series.
// Cohort matrices are indexed [t, c]: row t is the period, column c the
// cohort that entered during period c.
package stockmodel

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// NegativeInflowPolicy decides what the stock-driven model does when the stock
// declines faster than attrition of older cohorts explains
type NegativeInflowPolicy int

const (
	// RedistributeDeficit sets the inflow to zero and shrinks every older cohort
	// proportionally so the reconstructed stock matches the target exactly.
	// The removed mass is reported as additional cohort outflow.
	RedistributeDeficit NegativeInflowPolicy = iota
	// ClampToZero sets the inflow to zero and leaves older cohorts untouched.
	// The reconstructed stock then exceeds the target for that period.
	ClampToZero
	// RejectNegativeInflow fails with entities.ErrNegativeInflow
	RejectNegativeInflow
)

// String method for NegativeInflowPolicy enum
func (p NegativeInflowPolicy) String() string {
	switch p {
	case RedistributeDeficit:
		return "redistribute"
	case ClampToZero:
		return "clamp"
	case RejectNegativeInflow:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseNegativeInflowPolicy parses the String form of a policy
func ParseNegativeInflowPolicy(s string) (NegativeInflowPolicy, error) {
	switch strings.ToLower(s) {
	case "redistribute", "":
		return RedistributeDeficit, nil
	case "clamp":
		return ClampToZero, nil
	case "reject":
		return RejectNegativeInflow, nil
	default:
		return RedistributeDeficit, fmt.Errorf("invalid negative inflow policy: %s (expected: redistribute, clamp, or reject)", s)
	}
}

// StockDriven derives inflow and cohort matrices from a total stock series.
// Inflow is solved by forward substitution: since sf[t,t] = 1,
// i[t] = s[t] - sum over c<t of S_C[t,c].
func StockDriven(cfg *entities.Configuration, stock []float64, policy NegativeInflowPolicy) (*entities.UsePhase, error) {
	if err := checkInput(cfg, "stock", stock, false); err != nil {
		return nil, err
	}

	nt := cfg.Nt
	sc := mat.NewDense(nt, nt, nil)
	inflow := make([]float64, nt)

	for m := 0; m < nt; m++ {
		remaining := 0.0
		for c := 0; c < m; c++ {
			remaining += sc.At(m, c)
		}

		i := stock[m] - remaining
		if i < 0 {
			switch policy {
			case RejectNegativeInflow:
				return nil, fmt.Errorf("%w: %v in %d (stock %v, surviving cohorts %v)",
					entities.ErrNegativeInflow, i, cfg.TimeList[m], stock[m], remaining)
			case ClampToZero:
				i = 0
			case RedistributeDeficit:
				i = 0
				if remaining != 0 {
					scale := stock[m] / remaining
					for c := 0; c < m; c++ {
						for t := m; t < nt; t++ {
							sc.Set(t, c, sc.At(t, c)*scale)
						}
					}
				}
			default:
				return nil, fmt.Errorf("unsupported negative inflow policy: %d", policy)
			}
		}

		inflow[m] = i
		for t := m; t < nt; t++ {
			sc.Set(t, m, i*cfg.SurvivalFactor(t, m))
		}
	}

	return assemble(cfg, sc, inflow), nil
}

// InflowDriven derives stock and outflow directly from an inflow series.
// Negative inflow is accepted: a corrected carrier inflow can dip below zero
// when the stock shrinks faster than the lagged outflows account for.
func InflowDriven(cfg *entities.Configuration, inflow []float64) (*entities.UsePhase, error) {
	if err := checkInput(cfg, "inflow", inflow, true); err != nil {
		return nil, err
	}

	nt := cfg.Nt
	sc := mat.NewDense(nt, nt, nil)
	for c := 0; c < nt; c++ {
		for t := c; t < nt; t++ {
			sc.Set(t, c, inflow[c]*cfg.SurvivalFactor(t, c))
		}
	}

	return assemble(cfg, sc, append([]float64(nil), inflow...)), nil
}

// assemble derives stock change, outflow and the aggregates from cohort stock
func assemble(cfg *entities.Configuration, sc *mat.Dense, inflow []float64) *entities.UsePhase {
	nt := cfg.Nt
	dsc := mat.NewDense(nt, nt, nil)
	oc := mat.NewDense(nt, nt, nil)

	for c := 0; c < nt; c++ {
		dsc.Set(0, c, sc.At(0, c))
		for t := 1; t < nt; t++ {
			dsc.Set(t, c, sc.At(t, c)-sc.At(t-1, c))
		}

		oc.Set(c, c, inflow[c]*(1-cfg.SurvivalFactor(c, c)))
		for t := c + 1; t < nt; t++ {
			oc.Set(t, c, sc.At(t-1, c)-sc.At(t, c))
		}
	}

	return &entities.UsePhase{
		StockByCohort:       sc,
		StockChangeByCohort: dsc,
		OutflowByCohort:     oc,
		Inflow:              inflow,
		Stock:               rowSums(sc),
		StockChange:         rowSums(dsc),
		Outflow:             rowSums(oc),
	}
}

func rowSums(m *mat.Dense) []float64 {
	r, _ := m.Dims()
	sums := make([]float64, r)
	for t := 0; t < r; t++ {
		sums[t] = floats.Sum(m.RawRowView(t))
	}
	return sums
}

func checkInput(cfg *entities.Configuration, name string, series []float64, allowNegative bool) error {
	if err := cfg.CheckSeries(name, series); err != nil {
		return err
	}
	for t, v := range series {
		if (v < 0 && !allowNegative) || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v in %d", entities.ErrInvalidSeries, name, v, cfg.TimeList[t])
		}
	}
	return nil
}
