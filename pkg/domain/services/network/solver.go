package network

import (
	"fmt"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// SolveStep computes every flow and stock at period t.
//
// Air loss from the use phase scales the standing stock; every other
// use-phase exit scales the outflow. Downstream edges scale the value of
// their upstream flow, which the edge order guarantees is already known.
// Periods must be solved in increasing order starting at 0.
func (n *FlowNetwork) SolveStep(up *entities.UsePhase, t int) error {
	if t != n.nextStep {
		return fmt.Errorf("%w: layer %s asked for period %d, next is %d", entities.ErrOutOfOrderStep, n.layer, t, n.nextStep)
	}
	if up.Periods() != n.config.Nt {
		return fmt.Errorf("%w: use phase spans %d periods, expected %d", entities.ErrShapeMismatch, up.Periods(), n.config.Nt)
	}

	for i, edge := range n.topology.Edges {
		var base float64
		switch edge.Basis {
		case entities.BasisUsePhaseStock:
			base = up.Stock[t]
		case entities.BasisUsePhaseOutflow:
			base = up.Outflow[t]
		case entities.BasisUpstreamFlow:
			idx, ok := n.flowIndex[edge.Upstream]
			if !ok || idx >= i {
				return fmt.Errorf("%w: %s depends on %s which is not solved before it", entities.ErrUnknownFlow, edge.ID, edge.Upstream)
			}
			base = n.flows[idx].Values[t]
		}
		flow := n.flows[i]
		flow.Values[t] = flow.TransferCoefficient[t] * base
	}

	for s, contributing := range n.sinks {
		total := 0.0
		for _, idx := range contributing {
			total += n.flows[idx].Values[t]
		}
		n.stocks[s].Values[t] = total
	}

	n.nextStep++
	return nil
}

// Solve runs SolveStep for every period and attaches the use phase
func (n *FlowNetwork) Solve(up *entities.UsePhase) error {
	for t := n.nextStep; t < n.config.Nt; t++ {
		if err := n.SolveStep(up, t); err != nil {
			return err
		}
	}
	return n.AttachUsePhase(up)
}

// Solved reports whether every period has been computed
func (n *FlowNetwork) Solved() bool {
	return n.nextStep == n.config.Nt
}

// ShiftExportFlowAndStock delays exports by rotating F_1_9 and dS_9 back in time.
// The periods exposed at the tail repeat the last value before the wrap point.
func (n *FlowNetwork) ShiftExportFlowAndStock(years int) error {
	flow, err := n.Flow(entities.F_1_9)
	if err != nil {
		return err
	}
	stock, err := n.Stock(entities.DS_9)
	if err != nil {
		return err
	}

	shiftedFlow, err := ShiftSeries(flow.Values, years)
	if err != nil {
		return fmt.Errorf("layer %s: %w", n.layer, err)
	}
	shiftedStock, err := ShiftSeries(stock.Values, years)
	if err != nil {
		return fmt.Errorf("layer %s: %w", n.layer, err)
	}

	copy(flow.Values, shiftedFlow)
	copy(stock.Values, shiftedStock)
	return nil
}

// ShiftSeries rotates a series left by years and fills the tail with the value
// at index len-years-1 of the rotated series: [1..10] shifted by 2 gives
// [3 4 5 6 7 8 9 10 10 10]. A shift of 0 returns a copy.
func ShiftSeries(values []float64, years int) ([]float64, error) {
	n := len(values)
	if years < 0 || (years > 0 && years >= n) {
		return nil, fmt.Errorf("%w: cannot shift %d periods by %d", entities.ErrInvalidShift, n, years)
	}

	shifted := make([]float64, n)
	for i := range values {
		shifted[i] = values[(i+years)%n]
	}
	if years == 0 {
		return shifted, nil
	}

	fill := shifted[n-years-1]
	for i := n - years; i < n; i++ {
		shifted[i] = fill
	}
	return shifted, nil
}
