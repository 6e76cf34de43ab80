package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vsinha/dmfa/pkg/application/dto"
	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format         string
	OutputDir      string
	Verbose        bool
	IncludeCohorts bool
	TotalTime      time.Duration
	// Out receives text output and JSON when no directory is set; defaults to stdout
	Out io.Writer
}

// Generate creates output in the specified format
func Generate(results []*dto.ScenarioResult, config Config) error {
	if config.Out == nil {
		config.Out = os.Stdout
	}

	switch config.Format {
	case "text":
		return generateTextOutput(results, config)
	case "json":
		return generateJSONOutput(results, config)
	case "csv":
		return generateCSVOutput(results, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(results []*dto.ScenarioResult, config Config) error {
	out := config.Out

	fmt.Fprintf(out, "📊 DMFA Results Summary\n")
	fmt.Fprintf(out, "=======================\n\n")
	fmt.Fprintf(out, "Scenarios: %d\n", len(results))
	fmt.Fprintf(out, "Total Time: %v\n\n", config.TotalTime)

	for _, result := range results {
		s := result.Summary
		fmt.Fprintf(out, "🚗 Scenario %d: %s (%d-%d)\n", s.Number, s.Name, s.StartYear, s.EndYear)
		fmt.Fprintf(out, "%-12s %-10s %-16s %-16s %-14s %-14s %-14s %-14s %-10s\n",
			"Layer", "Material", "Total Inflow", "Final Stock", "Air", "Losses", "Exports", "Water", "Recycled%")
		fmt.Fprintf(out, "%-12s %-10s %-16s %-16s %-14s %-14s %-14s %-14s %-10s\n",
			"------------", "----------", "----------------", "----------------",
			"--------------", "--------------", "--------------", "--------------", "----------")

		for _, layer := range s.Layers {
			sinks := make([]string, 4)
			for i := range sinks {
				if i < len(layer.Sinks) {
					sinks[i] = layer.Sinks[i].Total.String()
				}
			}
			fmt.Fprintf(out, "%-12s %-10s %-16s %-16s %-14s %-14s %-14s %-14s %-10s\n",
				layer.Layer,
				layer.Material,
				layer.TotalInflow.String(),
				layer.FinalStock.String(),
				sinks[0], sinks[1], sinks[2], sinks[3],
				layer.RecycledShare.String())
		}

		if result.Impacts != nil {
			fmt.Fprintf(out, "\n🌍 Impacts:\n")
			fmt.Fprintf(out, "  CO2 from incineration: %s kg\n", s.CO2.String())
			fmt.Fprintf(out, "  Human health:          %s DALY\n", s.HumanHealth.String())
			fmt.Fprintf(out, "  Ecosystem health:      %s species.yr\n", s.EcosystemHealth.String())
		}

		if len(result.Pathways) > 0 {
			fmt.Fprintf(out, "\n🛤️  Pathways:\n")
			for _, analysis := range result.Pathways {
				fmt.Fprintf(out, "  %s (%s): %s\n", analysis.Layer, analysis.Material, analysis.GetDominantPathwaySummary())
				for i, path := range analysis.TopPaths {
					fmt.Fprintf(out, "    %d. %-28s %s\n", i+1, path.PathString(), path.GetPathSummary())
				}
			}
		}

		if config.Verbose {
			fmt.Fprintf(out, "\n⚖️  Mass balance residuals:\n")
			for _, layer := range s.Layers {
				fmt.Fprintf(out, "  %-12s %s\n", layer.Layer, layer.MassBalanceResidual.String())
			}
			fmt.Fprintf(out, "  Build time: %v\n", result.BuildTime)
		}
		if result.RunID != "" {
			fmt.Fprintf(out, "\n🧾 Run %s: %d events recorded\n", result.RunID, result.Events)
		}
		fmt.Fprintln(out)
	}

	return nil
}

// jsonOutput is the document written in json format
type jsonOutput struct {
	Scenarios []dto.ScenarioReport `json:"scenarios"`
}

// generateJSONOutput creates JSON output
func generateJSONOutput(results []*dto.ScenarioResult, config Config) error {
	doc := jsonOutput{Scenarios: make([]dto.ScenarioReport, 0, len(results))}
	for _, result := range results {
		doc.Scenarios = append(doc.Scenarios, dto.NewScenarioReport(result, config.IncludeCohorts))
	}

	jsonData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(config.Out, string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "dmfa_results.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.Out, "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one file per scenario and layer, one per
// scenario for impacts, and a summary file
func generateCSVOutput(results []*dto.ScenarioResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, result := range results {
		report := dto.NewScenarioReport(result, false)

		for _, layer := range report.Layers {
			filename := filepath.Join(config.OutputDir, fmt.Sprintf("scenario_%d_%s.csv", report.Number, layer.Layer))
			if err := writeLayerCSV(layer, filename); err != nil {
				return fmt.Errorf("failed to write layer CSV: %w", err)
			}
			written = append(written, filename)
		}

		if len(report.Impacts) > 0 {
			filename := filepath.Join(config.OutputDir, fmt.Sprintf("scenario_%d_impacts.csv", report.Number))
			if err := writeImpactsCSV(report, result.Layered.Configuration.TimeList, filename); err != nil {
				return fmt.Errorf("failed to write impacts CSV: %w", err)
			}
			written = append(written, filename)
		}
	}

	summaryFile := filepath.Join(config.OutputDir, "summary.csv")
	if err := writeSummaryCSV(results, summaryFile); err != nil {
		return fmt.Errorf("failed to write summary CSV: %w", err)
	}
	written = append(written, summaryFile)

	if config.Verbose {
		fmt.Fprintf(config.Out, "💾 CSV results saved to:\n")
		for _, filename := range written {
			fmt.Fprintf(config.Out, "  %s\n", filename)
		}
	}
	return nil
}

func writeLayerCSV(layer dto.LayerReport, filename string) error {
	header := []string{"year"}
	columns := make([][]float64, 0, len(layer.Series)+4)

	if up := layer.UsePhase; up != nil {
		header = append(header, "inflow", "stock", "stock_change", "outflow")
		columns = append(columns, up.Inflow, up.Stock, up.StockChange, up.Outflow)
	}
	for _, s := range layer.Series {
		header = append(header, s.Name)
		columns = append(columns, s.Values)
	}

	records := [][]string{header}
	for t, year := range layer.Years {
		record := []string{strconv.Itoa(int(year))}
		for _, column := range columns {
			record = append(record, formatFloat(column[t]))
		}
		records = append(records, record)
	}
	return writeRecords(filename, records)
}

func writeImpactsCSV(report dto.ScenarioReport, years []entities.Year, filename string) error {
	header := []string{"year"}
	for _, impact := range report.Impacts {
		header = append(header, fmt.Sprintf("%s (%s)", impact.Name, impact.Unit))
	}

	records := [][]string{header}
	for t, year := range years {
		record := []string{strconv.Itoa(int(year))}
		for _, impact := range report.Impacts {
			record = append(record, formatFloat(impact.Values[t]))
		}
		records = append(records, record)
	}
	return writeRecords(filename, records)
}

func writeSummaryCSV(results []*dto.ScenarioResult, filename string) error {
	records := [][]string{{
		"scenario", "name", "layer", "material", "total_inflow", "final_stock",
		"dS_0", "dS_8", "dS_9", "dS_10", "recycled_inflow", "recycled_share_pct", "mass_balance_residual",
	}}

	for _, result := range results {
		s := result.Summary
		for _, layer := range s.Layers {
			record := []string{
				strconv.Itoa(s.Number), s.Name, layer.Layer, layer.Material,
				layer.TotalInflow.String(), layer.FinalStock.String(),
			}
			for _, sink := range layer.Sinks {
				record = append(record, sink.Total.String())
			}
			record = append(record,
				layer.RecycledInflow.String(),
				layer.RecycledShare.String(),
				layer.MassBalanceResidual.String())
			records = append(records, record)
		}
	}
	return writeRecords(filename, records)
}

func writeRecords(filename string, records [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	return writer.WriteAll(records)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
