package entities

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// UsePhase is the cohort accounting result of a dynamic stock model.
// Matrices are indexed [t, c]. A UsePhase is never modified after construction;
// corrections produce a new value through WithInflow.
type UsePhase struct {
	StockByCohort       *mat.Dense
	StockChangeByCohort *mat.Dense
	OutflowByCohort     *mat.Dense

	Inflow      []float64
	Stock       []float64
	StockChange []float64
	Outflow     []float64
}

// Periods returns the number of periods covered
func (u *UsePhase) Periods() int {
	return len(u.Stock)
}

// WithInflow returns a copy of the UsePhase carrying a replacement inflow series
func (u *UsePhase) WithInflow(inflow []float64) (*UsePhase, error) {
	if len(inflow) != len(u.Inflow) {
		return nil, fmt.Errorf("%w: inflow has %d values, expected %d", ErrShapeMismatch, len(inflow), len(u.Inflow))
	}
	return &UsePhase{
		StockByCohort:       mat.DenseCopyOf(u.StockByCohort),
		StockChangeByCohort: mat.DenseCopyOf(u.StockChangeByCohort),
		OutflowByCohort:     mat.DenseCopyOf(u.OutflowByCohort),
		Inflow:              append([]float64(nil), inflow...),
		Stock:               append([]float64(nil), u.Stock...),
		StockChange:         append([]float64(nil), u.StockChange...),
		Outflow:             append([]float64(nil), u.Outflow...),
	}, nil
}

// CohortRows converts a cohort matrix to nested slices for serialization
func CohortRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
