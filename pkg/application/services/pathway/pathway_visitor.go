package pathway

import (
	"context"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// PathwayVisitor implements EdgeVisitor to enumerate pathways ending at
// terminal edges
type PathwayVisitor struct {
	sinkOf     map[entities.FlowID]entities.StockID
	sinkTotals map[entities.StockID]float64
}

// NewPathwayVisitor creates a visitor that attributes terminal edges to the
// sinks they feed
func NewPathwayVisitor(topology entities.Topology, sinkTotals map[entities.StockID]float64) *PathwayVisitor {
	sinkOf := make(map[entities.FlowID]entities.StockID)
	for _, sink := range topology.Sinks {
		for _, id := range sink.Contributing {
			sinkOf[id] = sink.ID
		}
	}
	return &PathwayVisitor{sinkOf: sinkOf, sinkTotals: sinkTotals}
}

// VisitEdge sums the edge over the horizon
func (v *PathwayVisitor) VisitEdge(ctx context.Context, edgeCtx EdgeContext) (any, bool, error) {
	node := entities.PathwayNode{
		Flow:   edgeCtx.Edge.ID,
		Source: edgeCtx.Edge.Source,
		Target: edgeCtx.Edge.Target,
		Level:  edgeCtx.Level,
	}
	for _, value := range edgeCtx.Values {
		node.Mass += value
	}
	if n := len(edgeCtx.Coefficients); n > 0 {
		for _, c := range edgeCtx.Coefficients {
			node.MeanCoefficient += c
		}
		node.MeanCoefficient /= float64(n)
	}

	return node, true, nil
}

// ProcessChildren prepends the edge to every pathway found below it
func (v *PathwayVisitor) ProcessChildren(
	ctx context.Context,
	edgeCtx EdgeContext,
	edgeData any,
	childResults []any,
) (any, error) {
	node := edgeData.(entities.PathwayNode)

	if len(childResults) == 0 {
		path := entities.Pathway{
			Mass:        node.Mass,
			PathLength:  1,
			Path:        []entities.FlowID{node.Flow},
			PathDetails: []entities.PathwayNode{node},
			Terminal:    node.Target,
			Bottleneck:  node.Flow,
		}
		if sink, ok := v.sinkOf[node.Flow]; ok {
			path.Sink = sink
			if total := v.sinkTotals[sink]; total != 0 {
				path.Share = node.Mass / total * 100
			}
		}
		return []entities.Pathway{path}, nil
	}

	var resultPaths []entities.Pathway
	for _, childResult := range childResults {
		for _, childPath := range childResult.([]entities.Pathway) {
			bottleneck := childPath.Bottleneck
			if node.MeanCoefficient < bottleneckCoefficient(childPath) {
				bottleneck = node.Flow
			}

			childPath.PathLength++
			childPath.Path = append([]entities.FlowID{node.Flow}, childPath.Path...)
			childPath.PathDetails = append([]entities.PathwayNode{node}, childPath.PathDetails...)
			childPath.Bottleneck = bottleneck
			resultPaths = append(resultPaths, childPath)
		}
	}
	return resultPaths, nil
}

// bottleneckCoefficient finds the mean coefficient of the path's bottleneck edge
func bottleneckCoefficient(path entities.Pathway) float64 {
	for _, node := range path.PathDetails {
		if node.Flow == path.Bottleneck {
			return node.MeanCoefficient
		}
	}
	return 0
}
