package entities

import (
	"fmt"
	"math"
)

// Stock holds the per-period mass leaving the network into a sink
type Stock struct {
	ID          StockID
	Explanation string
	Values      []float64
}

// NewStock creates a zero-filled Stock spanning nt periods
func NewStock(id StockID, nt int, explanation string) *Stock {
	return &Stock{
		ID:          id,
		Explanation: explanation,
		Values:      make([]float64, nt),
	}
}

// Flow holds the per-period mass moving along one edge and the coefficients that route it
type Flow struct {
	ID                  FlowID
	Source              ProcessID
	Target              ProcessID
	Explanation         string
	Values              []float64
	TransferCoefficient []float64
}

// NewFlow creates a zero-filled Flow spanning nt periods
func NewFlow(edge EdgeDescriptor, nt int) *Flow {
	return &Flow{
		ID:                  edge.ID,
		Source:              edge.Source,
		Target:              edge.Target,
		Explanation:         edge.Explanation,
		Values:              make([]float64, nt),
		TransferCoefficient: make([]float64, nt),
	}
}

// SetTransferCoefficient assigns a coefficient series. The series is copied.
func (f *Flow) SetTransferCoefficient(coefficients []float64) error {
	if len(coefficients) != len(f.Values) {
		return fmt.Errorf("%w: transfer coefficient for %s has %d values, expected %d",
			ErrShapeMismatch, f.ID, len(coefficients), len(f.Values))
	}
	for i, v := range coefficients {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: transfer coefficient for %s is %v at period %d", ErrInvalidSeries, f.ID, v, i)
		}
	}
	f.TransferCoefficient = append(f.TransferCoefficient[:0], coefficients...)
	return nil
}

// SeriesKind distinguishes flows from stocks when enumerating a layer
type SeriesKind string

const (
	KindFlow  SeriesKind = "flow"
	KindStock SeriesKind = "stock"
)

// NamedSeries is the generic view of a Stock or Flow used by consumers that
// must not hardcode the edge list
type NamedSeries struct {
	Name        string     `json:"name"`
	Kind        SeriesKind `json:"kind"`
	Explanation string     `json:"explanation"`
	Values      []float64  `json:"values"`
}
