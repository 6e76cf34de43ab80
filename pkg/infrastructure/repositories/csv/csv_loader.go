package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// File names inside a scenario directory
const (
	FleetFile                   = "fleet.csv"
	CarrierTransferFile         = "carrier_tfs.csv"
	SubstancesFile              = "substances.csv"
	ContentSharesFile           = "content_shares.csv"
	CharacterizationFactorsFile = "characterization_factors.csv"
	CO2EndpointFactorsFile      = "co2_endpoint_factors.csv"
)

// SubstanceTransferFile returns the coefficient file name of a substance
func SubstanceTransferFile(name string) string {
	return name + "_tfs.csv"
}

// Loader handles loading scenario data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenarios loads every subdirectory of root as a scenario, in name order,
// numbered from 1
func (l *Loader) LoadScenarios(root string) ([]*entities.ScenarioInput, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario root %s: %w", root, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no scenario directories in %s", root)
	}

	scenarios := make([]*entities.ScenarioInput, 0, len(dirs))
	for i, dir := range dirs {
		scenario, err := l.LoadScenario(filepath.Join(root, dir), i+1)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

// LoadScenario loads one scenario directory
func (l *Loader) LoadScenario(dir string, number int) (*entities.ScenarioInput, error) {
	fleet, err := l.LoadFleet(filepath.Join(dir, FleetFile))
	if err != nil {
		return nil, err
	}

	carrierTFs, err := l.LoadTransferCoefficients(filepath.Join(dir, CarrierTransferFile), fleet.Years)
	if err != nil {
		return nil, err
	}

	substances, err := l.LoadSubstances(filepath.Join(dir, SubstancesFile))
	if err != nil {
		return nil, err
	}

	names := []string{substances[0].Name, substances[1].Name}
	shares, err := l.LoadContentShares(filepath.Join(dir, ContentSharesFile), fleet.Years, names)
	if err != nil {
		return nil, err
	}

	cfs, err := l.LoadCharacterizationFactors(filepath.Join(dir, CharacterizationFactorsFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	co2, err := l.LoadCO2EndpointFactors(filepath.Join(dir, CO2EndpointFactorsFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	for i := range substances {
		sub := &substances[i]
		sub.TransferCoefficients, err = l.LoadTransferCoefficients(filepath.Join(dir, SubstanceTransferFile(sub.Name)), fleet.Years)
		if err != nil {
			return nil, err
		}
		sub.ContentShare = shares[sub.Name]
		sub.CharacterizationFactors = cfs[sub.Name]
	}

	return &entities.ScenarioInput{
		Number:                      number,
		Name:                        filepath.Base(dir),
		Years:                       fleet.Years,
		CarrierStock:                fleet.CarrierStock(),
		CarrierTransferCoefficients: carrierTFs,
		SubstanceA:                  substances[0],
		SubstanceB:                  substances[1],
		CO2EndpointFactors:          co2,
	}, nil
}

// Fleet is the vehicle fleet a carrier stock is derived from
type Fleet struct {
	Years                []entities.Year
	VehicleStock         []float64
	PlasticShare         []float64
	AverageVehicleWeight []float64 // kg
}

// CarrierStock returns vehicles times plastic share times vehicle weight, in kg
func (f *Fleet) CarrierStock() []float64 {
	stock := make([]float64, len(f.Years))
	for i := range stock {
		stock[i] = f.VehicleStock[i] * f.PlasticShare[i] * f.AverageVehicleWeight[i]
	}
	return stock
}

// LoadFleet loads the fleet file. Empty plastic share and weight cells are
// interpolated linearly between known years.
func (l *Loader) LoadFleet(filename string) (*Fleet, error) {
	expectedHeader := []string{"year", "vehicle_stock", "plastic_share", "average_vehicle_weight"}
	records, err := readRecords(filename, "fleet", expectedHeader)
	if err != nil {
		return nil, err
	}

	n := len(records) - 1
	fleet := &Fleet{
		Years:                make([]entities.Year, n),
		VehicleStock:         make([]float64, n),
		PlasticShare:         make([]float64, n),
		AverageVehicleWeight: make([]float64, n),
	}
	shareKnown := make([]bool, n)
	weightKnown := make([]bool, n)

	for i, record := range records[1:] {
		row := i + 2
		year, err := parseYear(record[0])
		if err != nil {
			return nil, fmt.Errorf("fleet CSV row %d: %w", row, err)
		}
		fleet.Years[i] = year

		fleet.VehicleStock[i], err = parseFloat(record[1], "vehicle_stock")
		if err != nil {
			return nil, fmt.Errorf("fleet CSV row %d: %w", row, err)
		}

		if strings.TrimSpace(record[2]) != "" {
			if fleet.PlasticShare[i], err = parseFloat(record[2], "plastic_share"); err != nil {
				return nil, fmt.Errorf("fleet CSV row %d: %w", row, err)
			}
			shareKnown[i] = true
		}
		if strings.TrimSpace(record[3]) != "" {
			if fleet.AverageVehicleWeight[i], err = parseFloat(record[3], "average_vehicle_weight"); err != nil {
				return nil, fmt.Errorf("fleet CSV row %d: %w", row, err)
			}
			weightKnown[i] = true
		}
	}

	if err := Interpolate(fleet.PlasticShare, shareKnown); err != nil {
		return nil, fmt.Errorf("fleet CSV plastic_share: %w", err)
	}
	if err := Interpolate(fleet.AverageVehicleWeight, weightKnown); err != nil {
		return nil, fmt.Errorf("fleet CSV average_vehicle_weight: %w", err)
	}
	return fleet, nil
}

// Interpolate fills unknown entries linearly between the nearest known
// neighbours; leading and trailing gaps take the nearest known value
func Interpolate(values []float64, known []bool) error {
	last := -1
	for i := range values {
		if !known[i] {
			continue
		}
		if last == -1 {
			for j := 0; j < i; j++ {
				values[j] = values[i]
			}
		} else {
			span := float64(i - last)
			for j := last + 1; j < i; j++ {
				frac := float64(j-last) / span
				values[j] = values[last] + frac*(values[i]-values[last])
			}
		}
		last = i
	}
	if last == -1 {
		return fmt.Errorf("no known values to interpolate from")
	}
	for j := last + 1; j < len(values); j++ {
		values[j] = values[last]
	}
	return nil
}

// LoadTransferCoefficients loads a table with a year column and one column per edge
func (l *Loader) LoadTransferCoefficients(filename string, years []entities.Year) (entities.TransferCoefficientTable, error) {
	records, err := readRecords(filename, "transfer coefficients", nil)
	if err != nil {
		return nil, err
	}

	header := records[0]
	if strings.TrimSpace(header[0]) != "year" {
		return nil, fmt.Errorf("%s: first column must be year, got %q", filepath.Base(filename), header[0])
	}

	topology := entities.DefaultTopology()
	columns := make([]entities.FlowID, len(header))
	table := make(entities.TransferCoefficientTable, len(topology.Edges))
	for c, name := range header[1:] {
		id := entities.FlowID(strings.TrimSpace(name))
		if _, ok := topology.Edge(id); !ok {
			return nil, fmt.Errorf("%s: %w: unknown edge column %q", filepath.Base(filename), entities.ErrUnknownFlow, name)
		}
		if _, dup := table[id]; dup {
			return nil, fmt.Errorf("%s: duplicate edge column %s", filepath.Base(filename), id)
		}
		columns[c+1] = id
		table[id] = make([]float64, 0, len(years))
	}
	for _, id := range topology.FlowIDs() {
		if _, ok := table[id]; !ok {
			return nil, fmt.Errorf("%s: %w: missing edge column %s", filepath.Base(filename), entities.ErrUnknownFlow, id)
		}
	}

	fileYears := make([]entities.Year, 0, len(records)-1)
	for i, record := range records[1:] {
		row := i + 2
		year, err := parseYear(record[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", filepath.Base(filename), row, err)
		}
		fileYears = append(fileYears, year)

		for c := 1; c < len(record); c++ {
			v, err := parseFloat(record[c], string(columns[c]))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", filepath.Base(filename), row, err)
			}
			table[columns[c]] = append(table[columns[c]], v)
		}
	}

	if err := checkYears(filename, fileYears, years); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadSubstances loads the two substance definitions, slot a first
func (l *Loader) LoadSubstances(filename string) ([]entities.SubstanceInput, error) {
	expectedHeader := []string{"slot", "name", "production_ef", "co2_conversion"}
	records, err := readRecords(filename, "substances", expectedHeader)
	if err != nil {
		return nil, err
	}

	slots := make(map[string]entities.SubstanceInput, 2)
	for i, record := range records[1:] {
		row := i + 2
		slot := strings.ToLower(strings.TrimSpace(record[0]))
		if slot != "a" && slot != "b" {
			return nil, fmt.Errorf("substances CSV row %d: invalid slot %q (expected: a or b)", row, record[0])
		}
		if _, exists := slots[slot]; exists {
			return nil, fmt.Errorf("substances CSV row %d: duplicate slot %s", row, slot)
		}

		name := strings.TrimSpace(record[1])
		if name == "" {
			return nil, fmt.Errorf("substances CSV row %d: substance name cannot be empty", row)
		}
		ef, err := parseFloat(record[2], "production_ef")
		if err != nil {
			return nil, fmt.Errorf("substances CSV row %d: %w", row, err)
		}
		if err := entities.ValidateEmissionFactor(ef); err != nil {
			return nil, fmt.Errorf("substances CSV row %d: %w", row, err)
		}
		co2, err := parseFloat(record[3], "co2_conversion")
		if err != nil {
			return nil, fmt.Errorf("substances CSV row %d: %w", row, err)
		}

		slots[slot] = entities.SubstanceInput{Name: name, ProductionEmissionFactor: ef, CO2Conversion: co2}
	}

	a, okA := slots["a"]
	b, okB := slots["b"]
	if !okA || !okB {
		return nil, fmt.Errorf("substances CSV must define slots a and b")
	}
	if a.Name == b.Name {
		return nil, fmt.Errorf("substances CSV: both slots name %s", a.Name)
	}
	return []entities.SubstanceInput{a, b}, nil
}

// LoadContentShares loads per-year content shares, one column per substance name
func (l *Loader) LoadContentShares(filename string, years []entities.Year, names []string) (map[string][]float64, error) {
	records, err := readRecords(filename, "content shares", nil)
	if err != nil {
		return nil, err
	}

	header := records[0]
	columns := make(map[string]int, len(names))
	for c, name := range header {
		columns[strings.TrimSpace(name)] = c
	}
	if c, ok := columns["year"]; !ok || c != 0 {
		return nil, fmt.Errorf("content shares CSV: first column must be year")
	}
	for _, name := range names {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("content shares CSV: missing column for %s", name)
		}
	}

	shares := make(map[string][]float64, len(names))
	fileYears := make([]entities.Year, 0, len(records)-1)
	for i, record := range records[1:] {
		row := i + 2
		year, err := parseYear(record[0])
		if err != nil {
			return nil, fmt.Errorf("content shares CSV row %d: %w", row, err)
		}
		fileYears = append(fileYears, year)

		for _, name := range names {
			v, err := parseFloat(record[columns[name]], name)
			if err != nil {
				return nil, fmt.Errorf("content shares CSV row %d: %w", row, err)
			}
			shares[name] = append(shares[name], v)
		}
	}

	if err := checkYears(filename, fileYears, years); err != nil {
		return nil, err
	}
	return shares, nil
}

// LoadCharacterizationFactors loads factors grouped by substance name
func (l *Loader) LoadCharacterizationFactors(filename string) (map[string][]entities.CharacterizationFactor, error) {
	expectedHeader := []string{"substance", "category", "area", "midpoint", "endpoint"}
	records, err := readRecords(filename, "characterization factors", expectedHeader)
	if err != nil {
		return nil, err
	}

	factors := make(map[string][]entities.CharacterizationFactor)
	for i, record := range records[1:] {
		row := i + 2

		var area entities.ImpactArea
		switch strings.ToLower(strings.TrimSpace(record[2])) {
		case "human_health":
			area = entities.HumanHealth
		case "ecosystem":
			area = entities.EcosystemHealth
		default:
			return nil, fmt.Errorf("characterization factors CSV row %d: invalid area %q (expected: human_health or ecosystem)", row, record[2])
		}

		midpoint, err := parseFloat(record[3], "midpoint")
		if err != nil {
			return nil, fmt.Errorf("characterization factors CSV row %d: %w", row, err)
		}
		endpoint, err := parseFloat(record[4], "endpoint")
		if err != nil {
			return nil, fmt.Errorf("characterization factors CSV row %d: %w", row, err)
		}

		substance := strings.TrimSpace(record[0])
		factors[substance] = append(factors[substance], entities.CharacterizationFactor{
			Category: strings.TrimSpace(record[1]),
			Area:     area,
			Midpoint: midpoint,
			Endpoint: endpoint,
		})
	}
	return factors, nil
}

// LoadCO2EndpointFactors loads the endpoint factors of CO2 per area
func (l *Loader) LoadCO2EndpointFactors(filename string) (entities.CO2EndpointFactors, error) {
	var factors entities.CO2EndpointFactors

	records, err := readRecords(filename, "CO2 endpoint factors", []string{"area", "endpoint"})
	if err != nil {
		return factors, err
	}

	for i, record := range records[1:] {
		row := i + 2
		v, err := parseFloat(record[1], "endpoint")
		if err != nil {
			return factors, fmt.Errorf("CO2 endpoint factors CSV row %d: %w", row, err)
		}
		switch strings.ToLower(strings.TrimSpace(record[0])) {
		case "human_health":
			factors.HumanHealth = v
		case "terrestrial":
			factors.Terrestrial = v
		case "freshwater":
			factors.Freshwater = v
		default:
			return factors, fmt.Errorf("CO2 endpoint factors CSV row %d: invalid area %q (expected: human_health, terrestrial, or freshwater)", row, record[0])
		}
	}
	return factors, nil
}

// readRecords reads a whole file. With an expected header, the header and
// every row's width are checked.
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}

	if expectedHeader != nil && !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, records[0])
	}
	return records, nil
}

func checkYears(filename string, got, expected []entities.Year) error {
	if len(got) != len(expected) {
		return fmt.Errorf("%s: %w: %d years, fleet has %d", filepath.Base(filename), entities.ErrShapeMismatch, len(got), len(expected))
	}
	for i := range got {
		if got[i] != expected[i] {
			return fmt.Errorf("%s row %d: year %d does not match fleet year %d", filepath.Base(filename), i+2, got[i], expected[i])
		}
	}
	return nil
}

func parseYear(s string) (entities.Year, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid year: %s", s)
	}
	return entities.Year(year), nil
}

func parseFloat(s, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", column, s)
	}
	return v, nil
}

// validateHeader checks if the CSV header matches expected format
func validateHeader(header, expected []string) bool {
	if len(header) != len(expected) {
		return false
	}
	for i, col := range header {
		if strings.TrimSpace(strings.ToLower(col)) != expected[i] {
			return false
		}
	}
	return true
}
