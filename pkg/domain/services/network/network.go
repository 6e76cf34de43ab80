// Package network holds the single-layer flow network and its per-period solver.
package network

import (
	"fmt"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// LayerID names a material layer
type LayerID string

const (
	Carrier    LayerID = "carrier"
	SubstanceA LayerID = "substance_a"
	SubstanceB LayerID = "substance_b"
)

// FlowNetwork is one material layer: every Stock and Flow of the topology,
// allocated zero-filled for the full horizon and filled left to right in time
type FlowNetwork struct {
	layer    LayerID
	material string
	config   *entities.Configuration
	topology entities.Topology

	flows      []*entities.Flow
	flowIndex  map[entities.FlowID]int
	stocks     []*entities.Stock
	stockIndex map[entities.StockID]int
	sinks      [][]int // flow indexes feeding each stock

	usePhase *entities.UsePhase
	nextStep int
}

// New creates a FlowNetwork over the default topology
func New(layer LayerID, material string, cfg *entities.Configuration) *FlowNetwork {
	return NewWithTopology(layer, material, cfg, entities.DefaultTopology())
}

// NewWithTopology creates a FlowNetwork over a custom edge and sink table.
// Edges must be listed in solve order.
func NewWithTopology(layer LayerID, material string, cfg *entities.Configuration, topology entities.Topology) *FlowNetwork {
	n := &FlowNetwork{
		layer:      layer,
		material:   material,
		config:     cfg,
		topology:   topology,
		flows:      make([]*entities.Flow, 0, len(topology.Edges)),
		flowIndex:  make(map[entities.FlowID]int, len(topology.Edges)),
		stocks:     make([]*entities.Stock, 0, len(topology.Sinks)),
		stockIndex: make(map[entities.StockID]int, len(topology.Sinks)),
		sinks:      make([][]int, 0, len(topology.Sinks)),
	}

	for _, edge := range topology.Edges {
		n.flowIndex[edge.ID] = len(n.flows)
		n.flows = append(n.flows, entities.NewFlow(edge, cfg.Nt))
	}
	for _, sink := range topology.Sinks {
		n.stockIndex[sink.ID] = len(n.stocks)
		n.stocks = append(n.stocks, entities.NewStock(sink.ID, cfg.Nt, sink.Explanation))

		contributing := make([]int, 0, len(sink.Contributing))
		for _, id := range sink.Contributing {
			if idx, ok := n.flowIndex[id]; ok {
				contributing = append(contributing, idx)
			}
		}
		n.sinks = append(n.sinks, contributing)
	}

	return n
}

// Layer returns the layer id
func (n *FlowNetwork) Layer() LayerID { return n.layer }

// Material returns the material or substance name carried by the layer
func (n *FlowNetwork) Material() string { return n.material }

// Configuration returns the shared time grid
func (n *FlowNetwork) Configuration() *entities.Configuration { return n.config }

// Topology returns the edge and sink table the layer was built on
func (n *FlowNetwork) Topology() entities.Topology { return n.topology }

// UsePhase returns the attached use phase, nil before Solve
func (n *FlowNetwork) UsePhase() *entities.UsePhase { return n.usePhase }

// AttachUsePhase replaces the use phase reported by the layer.
// It does not re-solve any flow.
func (n *FlowNetwork) AttachUsePhase(up *entities.UsePhase) error {
	if up.Periods() != n.config.Nt {
		return fmt.Errorf("%w: use phase spans %d periods, expected %d", entities.ErrShapeMismatch, up.Periods(), n.config.Nt)
	}
	n.usePhase = up
	return nil
}

// SetTransferCoefficient assigns the coefficient series of one edge
func (n *FlowNetwork) SetTransferCoefficient(id entities.FlowID, coefficients []float64) error {
	idx, ok := n.flowIndex[id]
	if !ok {
		return fmt.Errorf("%w: %s", entities.ErrUnknownFlow, id)
	}
	if err := n.flows[idx].SetTransferCoefficient(coefficients); err != nil {
		return fmt.Errorf("layer %s: %w", n.layer, err)
	}
	return nil
}

// SetTransferCoefficients assigns every edge of the topology from a table.
// An edge missing from the table is an error; unknown table entries are ignored.
func (n *FlowNetwork) SetTransferCoefficients(table entities.TransferCoefficientTable) error {
	for _, flow := range n.flows {
		series, ok := table[flow.ID]
		if !ok {
			return fmt.Errorf("layer %s: %w: no transfer coefficients for %s", n.layer, entities.ErrUnknownFlow, flow.ID)
		}
		if err := n.SetTransferCoefficient(flow.ID, series); err != nil {
			return err
		}
	}
	return nil
}

// TransferCoefficients returns a copy of the coefficient table
func (n *FlowNetwork) TransferCoefficients() entities.TransferCoefficientTable {
	table := make(entities.TransferCoefficientTable, len(n.flows))
	for _, flow := range n.flows {
		table[flow.ID] = append([]float64(nil), flow.TransferCoefficient...)
	}
	return table
}

// Flow looks up a flow by id
func (n *FlowNetwork) Flow(id entities.FlowID) (*entities.Flow, error) {
	idx, ok := n.flowIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnknownFlow, id)
	}
	return n.flows[idx], nil
}

// Stock looks up a stock by id
func (n *FlowNetwork) Stock(id entities.StockID) (*entities.Stock, error) {
	idx, ok := n.stockIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnknownStock, id)
	}
	return n.stocks[idx], nil
}

// FlowValues returns the value series of a flow, nil when it does not exist
func (n *FlowNetwork) FlowValues(id entities.FlowID) []float64 {
	if idx, ok := n.flowIndex[id]; ok {
		return n.flows[idx].Values
	}
	return nil
}

// StockValues returns the value series of a stock, nil when it does not exist
func (n *FlowNetwork) StockValues(id entities.StockID) []float64 {
	if idx, ok := n.stockIndex[id]; ok {
		return n.stocks[idx].Values
	}
	return nil
}

// Flows returns every flow in registry order
func (n *FlowNetwork) Flows() []*entities.Flow {
	return append([]*entities.Flow(nil), n.flows...)
}

// Stocks returns every stock in registry order
func (n *FlowNetwork) Stocks() []*entities.Stock {
	return append([]*entities.Stock(nil), n.stocks...)
}

// Series enumerates every flow and stock of the layer generically, stocks first
func (n *FlowNetwork) Series() []entities.NamedSeries {
	series := make([]entities.NamedSeries, 0, len(n.stocks)+len(n.flows))
	for _, s := range n.stocks {
		series = append(series, entities.NamedSeries{
			Name:        string(s.ID),
			Kind:        entities.KindStock,
			Explanation: s.Explanation,
			Values:      append([]float64(nil), s.Values...),
		})
	}
	for _, f := range n.flows {
		series = append(series, entities.NamedSeries{
			Name:        string(f.ID),
			Kind:        entities.KindFlow,
			Explanation: f.Explanation,
			Values:      append([]float64(nil), f.Values...),
		})
	}
	return series
}

// AddToStock adds a series to a stock in place
func (n *FlowNetwork) AddToStock(id entities.StockID, delta []float64) error {
	stock, err := n.Stock(id)
	if err != nil {
		return err
	}
	if err := n.config.CheckSeries(string(id)+" correction", delta); err != nil {
		return err
	}
	for t, v := range delta {
		stock.Values[t] += v
	}
	return nil
}
