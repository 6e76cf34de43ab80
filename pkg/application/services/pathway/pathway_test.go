package pathway

import (
	"context"
	"math"
	"testing"

	"github.com/vsinha/dmfa/pkg/application/services/layered"
	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/services/network"
	testhelpers "github.com/vsinha/dmfa/pkg/infrastructure/testing"
)

func buildReference(t *testing.T) *network.FlowNetwork {
	t.Helper()
	built, err := layered.NewLayeredDMFAService().Build(context.Background(), testhelpers.BuildReferenceScenario(1))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return built.Carrier
}

func TestPathwayService_EnumeratesTerminalEdges(t *testing.T) {
	carrier := buildReference(t)

	analysis, err := NewPathwayService().AnalyzePathways(context.Background(), carrier, 0)
	if err != nil {
		t.Fatalf("Pathway analysis failed: %v", err)
	}

	// every edge that feeds no other edge ends one pathway
	if analysis.TotalPaths != 12 || len(analysis.TopPaths) != 12 {
		t.Fatalf("Expected 12 pathways, got %d (%d returned)", analysis.TotalPaths, len(analysis.TopPaths))
	}

	for i, path := range analysis.TopPaths {
		last := path.Path[len(path.Path)-1]
		mass := 0.0
		for _, v := range carrier.FlowValues(last) {
			mass += v
		}
		if math.Abs(path.Mass-mass) > 1e-6*math.Max(1, mass) {
			t.Errorf("%s: expected mass %v, got %v", path.PathString(), mass, path.Mass)
		}
		if path.PathLength != len(path.Path) || len(path.PathDetails) != len(path.Path) {
			t.Errorf("%s: inconsistent path length", path.PathString())
		}
		if i > 0 && path.Mass > analysis.TopPaths[i-1].Mass {
			t.Errorf("Expected pathways sorted by mass, %s follows a lighter path", path.PathString())
		}
	}
	if analysis.DominantPathway.Mass != analysis.TopPaths[0].Mass {
		t.Error("Expected the dominant pathway to be the heaviest")
	}
}

func TestPathwayService_PathStructure(t *testing.T) {
	carrier := buildReference(t)

	analysis, err := NewPathwayService().AnalyzePathways(context.Background(), carrier, 0)
	if err != nil {
		t.Fatalf("Pathway analysis failed: %v", err)
	}

	tests := []struct {
		terminal   entities.FlowID
		path       string
		sink       entities.StockID
		bottleneck entities.FlowID
	}{
		{entities.F_3_8, "F_1_2 -> F_2_3 -> F_3_8", entities.DS_8, entities.F_3_8},
		{entities.F_4_10, "F_1_2 -> F_2_4 -> F_4_10", entities.DS_10, entities.F_4_10},
		{entities.F_2_1, "F_1_2 -> F_2_1", "", entities.F_2_1},
		{entities.F_1_9, "F_1_9", entities.DS_9, entities.F_1_9},
	}

	for _, tt := range tests {
		t.Run(string(tt.terminal), func(t *testing.T) {
			var found *entities.Pathway
			for i := range analysis.TopPaths {
				p := &analysis.TopPaths[i]
				if p.Path[len(p.Path)-1] == tt.terminal {
					found = p
				}
			}
			if found == nil {
				t.Fatalf("Expected a pathway ending at %s", tt.terminal)
			}
			if found.PathString() != tt.path {
				t.Errorf("Expected path %s, got %s", tt.path, found.PathString())
			}
			if found.Sink != tt.sink {
				t.Errorf("Expected sink %q, got %q", tt.sink, found.Sink)
			}
			if found.Bottleneck != tt.bottleneck {
				t.Errorf("Expected bottleneck %s, got %s", tt.bottleneck, found.Bottleneck)
			}
		})
	}
}

func TestPathwayService_SinkCoverage(t *testing.T) {
	built, err := layered.NewLayeredDMFAService().Build(context.Background(), testhelpers.BuildReferenceScenario(1))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	analyses, err := NewPathwayService().AnalyzeScenario(context.Background(), built, 0)
	if err != nil {
		t.Fatalf("Pathway analysis failed: %v", err)
	}
	if len(analyses) != 3 {
		t.Fatalf("Expected 3 layer analyses, got %d", len(analyses))
	}

	carrier := analyses[0]
	for _, sink := range []entities.StockID{entities.DS_0, entities.DS_8, entities.DS_9, entities.DS_10} {
		if coverage := carrier.GetSinkCoverage(sink); math.Abs(coverage-100) > 1e-6 {
			t.Errorf("carrier %s: expected pathways to explain 100%%, got %v", sink, coverage)
		}
	}

	// production emissions reach the substance air sink without a pathway
	for _, analysis := range analyses[1:] {
		if coverage := analysis.GetSinkCoverage(entities.DS_0); coverage >= 100 {
			t.Errorf("%s: expected production emissions outside the pathways, got %v%%", analysis.Material, coverage)
		}
	}
}

func TestPathwayService_TopN(t *testing.T) {
	carrier := buildReference(t)

	analysis, err := NewPathwayService().AnalyzePathways(context.Background(), carrier, 3)
	if err != nil {
		t.Fatalf("Pathway analysis failed: %v", err)
	}
	if len(analysis.TopPaths) != 3 || analysis.TotalPaths != 12 {
		t.Errorf("Expected 3 of 12 pathways, got %d of %d", len(analysis.TopPaths), analysis.TotalPaths)
	}
	if analysis.GetDominantPathwaySummary() == "No pathway found" {
		t.Error("Expected a dominant pathway summary")
	}
}

func TestPathwayService_Errors(t *testing.T) {
	cfg, err := entities.NewConfiguration(2000, 2004, entities.DefaultLifespan)
	if err != nil {
		t.Fatalf("Failed to create configuration: %v", err)
	}
	unsolved := network.New(network.Carrier, "plastic", cfg)
	if _, err := NewPathwayService().AnalyzePathways(context.Background(), unsolved, 3); err == nil {
		t.Error("Expected an error for an unsolved layer")
	}

	carrier := buildReference(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewPathwayService().AnalyzePathways(ctx, carrier, 3); err == nil {
		t.Error("Expected an error for a cancelled context")
	}
}
