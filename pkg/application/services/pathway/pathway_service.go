// Package pathway ranks the edge chains that carry material from the use
// phase to each sink of a solved layer.
package pathway

import (
	"context"
	"fmt"
	"sort"

	"github.com/vsinha/dmfa/pkg/application/dto"
	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/services/network"
)

// PathwayService performs pathway analysis on solved layers
type PathwayService struct{}

// NewPathwayService creates a new pathway service
func NewPathwayService() *PathwayService {
	return &PathwayService{}
}

// AnalyzePathways enumerates every pathway of a solved layer and returns the
// top N by delivered mass
func (ps *PathwayService) AnalyzePathways(
	ctx context.Context,
	layer *network.FlowNetwork,
	topN int,
) (*entities.PathwayAnalysis, error) {
	if !layer.Solved() {
		return nil, fmt.Errorf("layer %s is not solved", layer.Layer())
	}

	sinkTotals := make(map[entities.StockID]float64)
	for _, stock := range layer.Stocks() {
		total := 0.0
		for _, v := range stock.Values {
			total += v
		}
		sinkTotals[stock.ID] = total
	}

	traverser := NewTopologyTraverser(layer)
	visitor := NewPathwayVisitor(layer.Topology(), sinkTotals)

	var allPaths []entities.Pathway
	for _, root := range traverser.Roots() {
		result, err := traverser.Traverse(ctx, root, 1, visitor)
		if err != nil {
			return nil, fmt.Errorf("failed to traverse layer %s: %w", layer.Layer(), err)
		}
		allPaths = append(allPaths, result.([]entities.Pathway)...)
	}

	analysis := &entities.PathwayAnalysis{
		Layer:      string(layer.Layer()),
		Material:   layer.Material(),
		TotalPaths: len(allPaths),
	}
	if len(allPaths) == 0 {
		return analysis, nil
	}

	sort.SliceStable(allPaths, func(i, j int) bool {
		// Primary sort: delivered mass
		if allPaths[i].Mass != allPaths[j].Mass {
			return allPaths[i].Mass > allPaths[j].Mass
		}
		// Secondary sort: shorter paths first
		return allPaths[i].PathLength < allPaths[j].PathLength
	})

	topPaths := allPaths
	if topN > 0 && len(allPaths) > topN {
		topPaths = allPaths[:topN]
	}
	analysis.DominantPathway = allPaths[0]
	analysis.TopPaths = topPaths
	return analysis, nil
}

// AnalyzeScenario analyzes the carrier and both substance layers
func (ps *PathwayService) AnalyzeScenario(
	ctx context.Context,
	layered *dto.LayeredDMFA,
	topN int,
) ([]*entities.PathwayAnalysis, error) {
	analyses := make([]*entities.PathwayAnalysis, 0, 3)
	for _, layer := range layered.Layers() {
		analysis, err := ps.AnalyzePathways(ctx, layer, topN)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}
