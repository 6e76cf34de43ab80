package entities

import (
	"fmt"
	"strings"
)

// PathwayNode is one edge of a pathway with its mass summed over the horizon
type PathwayNode struct {
	Flow            FlowID
	Source          ProcessID
	Target          ProcessID
	Level           int
	Mass            float64
	MeanCoefficient float64
}

// Pathway is a chain of edges from the use phase to a terminal process.
// Every downstream edge scales exactly one upstream edge, so the mass a
// pathway delivers is the mass of its last edge.
type Pathway struct {
	Mass        float64 // delivered to the terminal process, summed over the horizon
	Share       float64 // percent of the terminal sink's cumulative total
	PathLength  int
	Path        []FlowID
	PathDetails []PathwayNode
	Terminal    ProcessID
	Sink        StockID // empty when the terminal process keeps no stock
	Bottleneck  FlowID  // edge with the smallest mean transfer coefficient
}

// PathwayAnalysis contains the ranked pathways of one layer
type PathwayAnalysis struct {
	Layer           string
	Material        string
	DominantPathway Pathway   // carries the most mass
	TopPaths        []Pathway // top N by mass
	TotalPaths      int
}

// GetDominantPathwaySummary returns a formatted summary of the dominant pathway
func (analysis *PathwayAnalysis) GetDominantPathwaySummary() string {
	if len(analysis.TopPaths) == 0 {
		return "No pathway found"
	}

	p := analysis.DominantPathway
	summary := fmt.Sprintf("Dominant pathway: %s (%.6g kg)", p.PathString(), p.Mass)
	if p.Sink != "" {
		summary += fmt.Sprintf(" | %.2f%% of %s", p.Share, p.Sink)
	}
	return summary
}

// PathString joins the edge ids of the path
func (path *Pathway) PathString() string {
	ids := make([]string, len(path.Path))
	for i, id := range path.Path {
		ids[i] = string(id)
	}
	return strings.Join(ids, " -> ")
}

// GetPathSummary returns a formatted summary for a specific path
func (path *Pathway) GetPathSummary() string {
	return fmt.Sprintf("%.6g kg - %d edges - %s - bottleneck %s",
		path.Mass, path.PathLength, path.Terminal, path.Bottleneck)
}

// GetSinkCoverage returns the percent of a sink's total explained by the top paths
func (analysis *PathwayAnalysis) GetSinkCoverage(sink StockID) float64 {
	coverage := 0.0
	for _, path := range analysis.TopPaths {
		if path.Sink == sink {
			coverage += path.Share
		}
	}
	return coverage
}
