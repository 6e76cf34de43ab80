package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vsinha/dmfa/pkg/application/dto"
	"github.com/vsinha/dmfa/pkg/application/services/layered"
	"github.com/vsinha/dmfa/pkg/application/services/orchestration"
	"github.com/vsinha/dmfa/pkg/application/services/summary"
	"github.com/vsinha/dmfa/pkg/domain/entities"
	testhelpers "github.com/vsinha/dmfa/pkg/infrastructure/testing"
)

func buildResults(t *testing.T) []*dto.ScenarioResult {
	t.Helper()
	orchestrator := orchestration.NewScenarioOrchestrator(
		orchestration.Config{Workers: 2, TopPathways: 3},
		layered.NewLayeredDMFAService(),
		summary.NewSummarizer(),
	)
	results, err := orchestrator.RunAll(context.Background(), []*entities.ScenarioInput{
		testhelpers.BuildReferenceScenario(1),
		testhelpers.BuildReferenceScenario(2),
	}, nil)
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	return results
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(buildResults(t), Config{Format: "text", Verbose: true, Out: &buf}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	text := buf.String()
	for _, want := range []string{"Scenario 1: reference-1 (2000-2024)", "Scenario 2", "decaBDE", "TPP", "Mass balance residuals", "Pathways:", "Dominant pathway: F_1_"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected text output to contain %q", want)
		}
	}
}

func TestGenerate_JSON(t *testing.T) {
	dir := t.TempDir()
	if err := Generate(buildResults(t), Config{Format: "json", OutputDir: dir, IncludeCohorts: true, Out: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "dmfa_results.json"))
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	var doc struct {
		Scenarios []dto.ScenarioReport `json:"scenarios"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if len(doc.Scenarios) != 2 {
		t.Fatalf("Expected 2 scenarios, got %d", len(doc.Scenarios))
	}

	carrier := doc.Scenarios[0].Layers[0]
	if carrier.Layer != "carrier" || len(carrier.Series) != 19 {
		t.Errorf("Expected carrier layer with 19 series, got %s with %d", carrier.Layer, len(carrier.Series))
	}
	if carrier.UsePhase == nil || len(carrier.UsePhase.StockByCohort) != 25 {
		t.Error("Expected cohort matrices in the JSON report")
	}
	if len(doc.Scenarios[0].Pathways) != 9 {
		t.Errorf("Expected 3 pathways for each of 3 layers, got %d", len(doc.Scenarios[0].Pathways))
	}
	if len(doc.Scenarios[0].Impacts) == 0 {
		t.Error("Expected impacts in the JSON report")
	}
}

func TestGenerate_CSV(t *testing.T) {
	dir := t.TempDir()
	if err := Generate(buildResults(t), Config{Format: "csv", OutputDir: dir, Out: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, "scenario_2_substance_b.csv"))
	if err != nil {
		t.Fatalf("Expected layer CSV: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read layer CSV: %v", err)
	}
	if len(records) != 26 {
		t.Errorf("Expected header and 25 rows, got %d", len(records))
	}
	if records[0][0] != "year" || records[0][1] != "inflow" || records[1][0] != "2000" {
		t.Errorf("Unexpected layout: %v / %v", records[0][:2], records[1][:1])
	}
	// year, four use-phase columns, four stocks, fifteen flows
	if len(records[0]) != 24 {
		t.Errorf("Expected 24 columns, got %d", len(records[0]))
	}

	for _, name := range []string{"scenario_1_impacts.csv", "summary.csv", "scenario_1_carrier.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	if err := Generate(nil, Config{Format: "xml"}); err == nil {
		t.Error("Expected error for unsupported format")
	}
	if err := Generate(nil, Config{Format: "csv"}); err == nil {
		t.Error("Expected error for CSV without output directory")
	}
}
