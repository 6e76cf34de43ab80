package pathway

import (
	"context"
	"fmt"

	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/services/network"
)

// EdgeContext carries what a visitor needs about one edge during traversal
type EdgeContext struct {
	Edge         entities.EdgeDescriptor
	Level        int
	Values       []float64
	Coefficients []float64
}

// EdgeVisitor is called for every edge reached from a use-phase exit.
// VisitEdge returns per-edge data and whether to descend; ProcessChildren
// combines the edge with the results of the edges it feeds.
type EdgeVisitor interface {
	VisitEdge(ctx context.Context, edgeCtx EdgeContext) (any, bool, error)
	ProcessChildren(ctx context.Context, edgeCtx EdgeContext, edgeData any, childResults []any) (any, error)
}

// TopologyTraverser walks a solved layer depth first along upstream links
type TopologyTraverser struct {
	layer    *network.FlowNetwork
	children map[entities.FlowID][]entities.EdgeDescriptor
}

// NewTopologyTraverser indexes the downstream edges of every edge of a layer
func NewTopologyTraverser(layer *network.FlowNetwork) *TopologyTraverser {
	children := make(map[entities.FlowID][]entities.EdgeDescriptor)
	for _, edge := range layer.Topology().Edges {
		if edge.Basis == entities.BasisUpstreamFlow {
			children[edge.Upstream] = append(children[edge.Upstream], edge)
		}
	}
	return &TopologyTraverser{layer: layer, children: children}
}

// Roots returns the edges leaving the use phase, in solve order
func (t *TopologyTraverser) Roots() []entities.EdgeDescriptor {
	roots := make([]entities.EdgeDescriptor, 0)
	for _, edge := range t.layer.Topology().Edges {
		if edge.Basis != entities.BasisUpstreamFlow {
			roots = append(roots, edge)
		}
	}
	return roots
}

// Traverse visits edge and everything downstream of it
func (t *TopologyTraverser) Traverse(ctx context.Context, edge entities.EdgeDescriptor, level int, visitor EdgeVisitor) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// the default topology is three edges deep
	if level > len(t.layer.Topology().Edges) {
		return nil, fmt.Errorf("cycle detected at %s", edge.ID)
	}

	flow, err := t.layer.Flow(edge.ID)
	if err != nil {
		return nil, err
	}
	edgeCtx := EdgeContext{
		Edge:         edge,
		Level:        level,
		Values:       flow.Values,
		Coefficients: flow.TransferCoefficient,
	}

	edgeData, descend, err := visitor.VisitEdge(ctx, edgeCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", edge.ID, err)
	}

	var childResults []any
	if descend {
		for _, child := range t.children[edge.ID] {
			result, err := t.Traverse(ctx, child, level+1, visitor)
			if err != nil {
				return nil, err
			}
			childResults = append(childResults, result)
		}
	}

	return visitor.ProcessChildren(ctx, edgeCtx, edgeData, childResults)
}
