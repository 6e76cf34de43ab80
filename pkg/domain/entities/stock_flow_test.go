package entities

import (
	"errors"
	"math"
	"testing"
)

func TestFlow_SetTransferCoefficient(t *testing.T) {
	edge, _ := DefaultTopology().Edge(F_1_2)
	flow := NewFlow(edge, 4)

	coefficients := []float64{0.1, 0.2, 0.3, 0.4}
	if err := flow.SetTransferCoefficient(coefficients); err != nil {
		t.Fatalf("Expected assignment to succeed: %v", err)
	}

	coefficients[0] = 9
	if flow.TransferCoefficient[0] != 0.1 {
		t.Error("Expected transfer coefficients to be copied on assignment")
	}
	if flow.Source != ProcessUsePhase || flow.Target != ProcessDismantling {
		t.Errorf("Expected 1->2 edge, got %d->%d", flow.Source, flow.Target)
	}
}

func TestFlow_SetTransferCoefficient_ShapeMismatch(t *testing.T) {
	edge, _ := DefaultTopology().Edge(F_3_8)
	flow := NewFlow(edge, 4)

	testCases := []struct {
		name     string
		series   []float64
		expected error
	}{
		{"too short", []float64{0.1, 0.1, 0.1}, ErrShapeMismatch},
		{"too long", []float64{0.1, 0.1, 0.1, 0.1, 0.1}, ErrShapeMismatch},
		{"empty", nil, ErrShapeMismatch},
		{"NaN", []float64{0.1, math.NaN(), 0.1, 0.1}, ErrInvalidSeries},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := flow.SetTransferCoefficient(tc.series)
			if !errors.Is(err, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestDefaultTopology_SolveOrder(t *testing.T) {
	topology := DefaultTopology()
	if len(topology.Edges) != 15 {
		t.Fatalf("Expected 15 edges, got %d", len(topology.Edges))
	}
	if len(topology.Sinks) != 4 {
		t.Fatalf("Expected 4 sinks, got %d", len(topology.Sinks))
	}

	seen := make(map[FlowID]bool)
	for _, edge := range topology.Edges {
		if seen[edge.ID] {
			t.Errorf("Duplicate edge %s", edge.ID)
		}
		if edge.Basis == BasisUpstreamFlow {
			if !seen[edge.Upstream] {
				t.Errorf("Edge %s depends on %s which is not solved earlier", edge.ID, edge.Upstream)
			}
			upstream, _ := topology.Edge(edge.Upstream)
			if upstream.Target != edge.Source {
				t.Errorf("Edge %s leaves %s but its upstream %s ends in %s",
					edge.ID, edge.Source, edge.Upstream, upstream.Target)
			}
		} else if edge.Source != ProcessUsePhase {
			t.Errorf("Edge %s uses a use-phase basis but leaves %s", edge.ID, edge.Source)
		}
		seen[edge.ID] = true
	}

	for _, sink := range topology.Sinks {
		for _, id := range sink.Contributing {
			edge, ok := topology.Edge(id)
			if !ok {
				t.Errorf("Sink %s references unknown edge %s", sink.ID, id)
				continue
			}
			if edge.Target != sink.Process {
				t.Errorf("Sink %s collects %s which ends in %s", sink.ID, id, edge.Target)
			}
		}
	}
}

func TestUniformTransferCoefficients(t *testing.T) {
	table := UniformTransferCoefficients(3, 0.25)
	if len(table) != 15 {
		t.Fatalf("Expected 15 edges, got %d", len(table))
	}
	for id, series := range table {
		if len(series) != 3 {
			t.Errorf("%s: expected 3 periods, got %d", id, len(series))
		}
		for _, v := range series {
			if v != 0.25 {
				t.Errorf("%s: expected 0.25, got %v", id, v)
			}
		}
	}
}
