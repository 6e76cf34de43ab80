package commands

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	OutputDir string        // Root directory receiving one directory per scenario
	Count     int           // Number of scenarios to generate
	StartYear entities.Year // First year of the horizon
	EndYear   entities.Year // Last year of the horizon
	Seed      int64         // Random seed for reproducible generation
	Help      bool          // Show help
	Verbose   bool          // Verbose output

	Out io.Writer
}

// DefaultGenerateConfig returns a three-scenario, 25-year configuration
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Count:     3,
		StartYear: 2000,
		EndYear:   2024,
	}
}

// GenerateCommand writes synthetic scenario directories: a fleet stock that
// grows to a random peak and then declines, and randomly perturbed routing
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	out    io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	out := config.Out
	if out == nil {
		out = os.Stdout
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		out:    out,
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}
	if cmd.config.OutputDir == "" {
		return fmt.Errorf("validation error: output directory is required")
	}
	if cmd.config.Count <= 0 {
		return fmt.Errorf("validation error: count must be positive, got %d", cmd.config.Count)
	}
	if cmd.config.EndYear < cmd.config.StartYear {
		return fmt.Errorf("validation error: %w: %d to %d",
			entities.ErrInvalidTimeRange, cmd.config.StartYear, cmd.config.EndYear)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out, "🔧 Generating %d scenario(s) for %d-%d\n",
			cmd.config.Count, cmd.config.StartYear, cmd.config.EndYear)
		fmt.Fprintf(cmd.out, "📁 Output directory: %s\n", cmd.config.OutputDir)
		fmt.Fprintf(cmd.out, "🎲 Random seed: %d\n", cmd.config.Seed)
	}

	writer := csv.NewWriter()
	for i := 1; i <= cmd.config.Count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		scenario := cmd.generateScenario(i)
		if err := scenario.Validate(); err != nil {
			return fmt.Errorf("generated an invalid scenario: %w", err)
		}

		dir := filepath.Join(cmd.config.OutputDir, fmt.Sprintf("scenario_%02d", i))
		if err := writer.WriteScenario(dir, scenario); err != nil {
			return fmt.Errorf("failed to write scenario %d: %w", i, err)
		}
		if cmd.config.Verbose {
			fmt.Fprintf(cmd.out, "📦 %s\n", dir)
		}
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out, "✅ Scenarios generated successfully in %s\n", cmd.config.OutputDir)
	}
	return nil
}

// generateScenario builds one synthetic scenario
func (cmd *GenerateCommand) generateScenario(number int) *entities.ScenarioInput {
	years := make([]entities.Year, 0, int(cmd.config.EndYear-cmd.config.StartYear)+1)
	for y := cmd.config.StartYear; y <= cmd.config.EndYear; y++ {
		years = append(years, y)
	}
	nt := len(years)

	return &entities.ScenarioInput{
		Number:                      number,
		Name:                        fmt.Sprintf("scenario_%02d", number),
		Years:                       years,
		CarrierStock:                cmd.generateStock(nt),
		CarrierTransferCoefficients: cmd.generateRouting(nt, 0.001),
		SubstanceA: entities.SubstanceInput{
			Name:                     "decaBDE",
			ContentShare:             cmd.generateShare(nt, 0.0015, -0.00005),
			TransferCoefficients:     cmd.generateRouting(nt, 0.0001),
			ProductionEmissionFactor: 0.0001,
			CO2Conversion:            0.055047,
			CharacterizationFactors: []entities.CharacterizationFactor{
				{Category: "human carcinogenic toxicity", Area: entities.HumanHealth, Midpoint: 12.5, Endpoint: 4.1e-5},
				{Category: "human non-carcinogenic toxicity", Area: entities.HumanHealth, Midpoint: 310, Endpoint: 7.1e-5},
			},
		},
		SubstanceB: entities.SubstanceInput{
			Name:                     "TPP",
			ContentShare:             cmd.generateShare(nt, 0.004, 0.0001),
			TransferCoefficients:     cmd.generateRouting(nt, 0.0005),
			ProductionEmissionFactor: 0.002,
			CO2Conversion:            2.4273,
			CharacterizationFactors: []entities.CharacterizationFactor{
				{Category: "terrestrial ecotoxicity", Area: entities.EcosystemHealth, Midpoint: 3.4, Endpoint: 3.9e-8},
				{Category: "freshwater ecotoxicity", Area: entities.EcosystemHealth, Midpoint: 210, Endpoint: 1.5e-7},
				{Category: "marine ecotoxicity", Area: entities.EcosystemHealth, Midpoint: 190, Endpoint: 2.0e-8},
			},
		},
		CO2EndpointFactors: entities.CO2EndpointFactors{
			HumanHealth: 9.28e-7,
			Terrestrial: 2.8e-9,
			Freshwater:  7.65e-14,
		},
	}
}

// generateStock grows the plastic stock (kg) to a peak in the second half of
// the horizon, then lets it decline
func (cmd *GenerateCommand) generateStock(nt int) []float64 {
	stock := make([]float64, nt)
	peak := nt/2 + cmd.rand.Intn(nt/2+1)
	growth := 0.02 + 0.03*cmd.rand.Float64()
	decline := 0.01 + 0.02*cmd.rand.Float64()

	stock[0] = 8.0e7 + 4.0e7*cmd.rand.Float64()
	for t := 1; t < nt; t++ {
		rate := growth
		if t > peak {
			rate = -decline
		}
		noise := 0.005 * (cmd.rand.Float64() - 0.5)
		stock[t] = math.Max(0, stock[t-1]*(1+rate+noise))
	}
	return stock
}

// generateShare drifts a content share linearly from base, bounded to [0, 1]
func (cmd *GenerateCommand) generateShare(nt int, base, drift float64) []float64 {
	share := make([]float64, nt)
	for t := range share {
		share[t] = math.Min(1, math.Max(0, base+drift*float64(t)))
	}
	return share
}

// generateRouting draws one coefficient table. Every node keeps its exits
// below 100% in every period.
func (cmd *GenerateCommand) generateRouting(nt int, air float64) entities.TransferCoefficientTable {
	dismantled := 0.6 + 0.2*cmd.rand.Float64()
	water := 0.01 + 0.02*cmd.rand.Float64()
	exported := 0.8 * (1 - dismantled - water)
	incinerated := 0.2 + 0.2*cmd.rand.Float64()
	recycled := 0.2 + 0.2*cmd.rand.Float64()

	values := map[entities.FlowID]float64{
		entities.F_1_0:  air,
		entities.F_1_2:  dismantled,
		entities.F_1_9:  exported,
		entities.F_1_10: water,
		entities.F_2_0:  0.001,
		entities.F_2_1:  0.05,
		entities.F_2_3:  incinerated,
		entities.F_2_4:  recycled,
		entities.F_3_0:  0.01,
		entities.F_3_8:  0.2,
		entities.F_3_10: 0.001,
		entities.F_4_0:  0.001,
		entities.F_4_1:  0.6,
		entities.F_4_3:  0.3,
		entities.F_4_10: 0.01,
	}

	table := make(entities.TransferCoefficientTable, len(values))
	for id, v := range values {
		series := make([]float64, nt)
		for t := range series {
			series[t] = v
		}
		table[id] = series
	}
	return table
}

// printHelp displays help information for the generate command
func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintf(cmd.out, `Scenario Generator - Write synthetic DMFA scenario directories

USAGE:
    dmfa -generate <root> [options]

OPTIONS:
    -count <n>          Number of scenarios to generate (default: 3)
    -start <year>       First year of the horizon (default: 2000)
    -end <year>         Last year of the horizon (default: 2024)
    -seed <n>           Random seed for reproducible generation (default: current time)
    -verbose            Enable verbose output
    -help               Show this help message

Each scenario is written to <root>/scenario_NN in the layout read by
dmfa -scenario.
`)
}
