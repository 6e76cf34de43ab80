package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// Writer writes scenario directories in the layout Loader reads
type Writer struct{}

// NewWriter creates a new CSV writer
func NewWriter() *Writer {
	return &Writer{}
}

// WriteScenario writes a scenario directory. The carrier stock is written as
// a fleet of one vehicle per kg so that it loads back unchanged.
func (w *Writer) WriteScenario(dir string, scenario *entities.ScenarioInput) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scenario directory: %w", err)
	}

	fleet := [][]string{{"year", "vehicle_stock", "plastic_share", "average_vehicle_weight"}}
	for i, year := range scenario.Years {
		fleet = append(fleet, []string{yearString(year), formatFloat(scenario.CarrierStock[i]), "1", "1"})
	}
	if err := writeRecords(filepath.Join(dir, FleetFile), fleet); err != nil {
		return err
	}

	if err := w.writeTransferCoefficients(filepath.Join(dir, CarrierTransferFile), scenario.Years, scenario.CarrierTransferCoefficients); err != nil {
		return err
	}

	substances := [][]string{{"slot", "name", "production_ef", "co2_conversion"}}
	shares := [][]string{{"year", scenario.SubstanceA.Name, scenario.SubstanceB.Name}}
	factors := [][]string{{"substance", "category", "area", "midpoint", "endpoint"}}

	for i, sub := range scenario.Substances() {
		slot := []string{"a", "b"}[i]
		substances = append(substances, []string{slot, sub.Name, formatFloat(sub.ProductionEmissionFactor), formatFloat(sub.CO2Conversion)})

		if err := w.writeTransferCoefficients(filepath.Join(dir, SubstanceTransferFile(sub.Name)), scenario.Years, sub.TransferCoefficients); err != nil {
			return err
		}
		for _, cf := range sub.CharacterizationFactors {
			factors = append(factors, []string{sub.Name, cf.Category, cf.Area.String(), formatFloat(cf.Midpoint), formatFloat(cf.Endpoint)})
		}
	}
	for i, year := range scenario.Years {
		shares = append(shares, []string{yearString(year), formatFloat(scenario.SubstanceA.ContentShare[i]), formatFloat(scenario.SubstanceB.ContentShare[i])})
	}

	if err := writeRecords(filepath.Join(dir, SubstancesFile), substances); err != nil {
		return err
	}
	if err := writeRecords(filepath.Join(dir, ContentSharesFile), shares); err != nil {
		return err
	}
	if len(factors) > 1 {
		if err := writeRecords(filepath.Join(dir, CharacterizationFactorsFile), factors); err != nil {
			return err
		}
	}

	co2 := scenario.CO2EndpointFactors
	return writeRecords(filepath.Join(dir, CO2EndpointFactorsFile), [][]string{
		{"area", "endpoint"},
		{"human_health", formatFloat(co2.HumanHealth)},
		{"terrestrial", formatFloat(co2.Terrestrial)},
		{"freshwater", formatFloat(co2.Freshwater)},
	})
}

func (w *Writer) writeTransferCoefficients(filename string, years []entities.Year, table entities.TransferCoefficientTable) error {
	ids := entities.DefaultTopology().FlowIDs()

	header := []string{"year"}
	for _, id := range ids {
		header = append(header, string(id))
	}
	records := [][]string{header}

	for t, year := range years {
		record := []string{yearString(year)}
		for _, id := range ids {
			series, ok := table[id]
			if !ok || t >= len(series) {
				return fmt.Errorf("%s: %w: no coefficient for %s in %d", filepath.Base(filename), entities.ErrUnknownFlow, id, year)
			}
			record = append(record, formatFloat(series[t]))
		}
		records = append(records, record)
	}
	return writeRecords(filename, records)
}

func writeRecords(filename string, records [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

func yearString(year entities.Year) string {
	return strconv.Itoa(int(year))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
