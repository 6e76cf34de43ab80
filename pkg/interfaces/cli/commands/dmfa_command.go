package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/cheggaaa/pb.v1"

	"github.com/vsinha/dmfa/pkg/application/services/layered"
	"github.com/vsinha/dmfa/pkg/application/services/orchestration"
	"github.com/vsinha/dmfa/pkg/application/services/summary"
	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/services/stockmodel"
	"github.com/vsinha/dmfa/pkg/infrastructure/events"
	"github.com/vsinha/dmfa/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/dmfa/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/dmfa/pkg/interfaces/cli/output"
)

// Config holds configuration for the DMFA command. Start from DefaultConfig:
// a zero ExportLag is honoured as "no lag".
type Config struct {
	ScenarioDir    string
	ScenariosRoot  string
	OutputDir      string
	Format         string
	Lifespan       float64
	ExportLag      int
	NegativeInflow string
	PermissiveTCs  bool
	Sequential     bool
	Workers        int
	TopPathways    int
	Verbose        bool
	IncludeCohorts bool
	RecordEvents   bool
	Help           bool

	// Out receives help, progress and text output; defaults to stdout
	Out io.Writer
}

// DefaultConfig returns text output with the engine defaults
func DefaultConfig() Config {
	engine := layered.DefaultEngineConfig()
	return Config{
		Format:         "text",
		Lifespan:       engine.Lifespan,
		ExportLag:      engine.ExportLagYears,
		NegativeInflow: engine.NegativeInflowPolicy.String(),
	}
}

// DMFACommand loads scenario directories, builds every layered DMFA and
// writes the results
type DMFACommand struct {
	config Config
	out    io.Writer
}

// NewDMFACommand creates a new DMFA command with the given configuration
func NewDMFACommand(config Config) *DMFACommand {
	out := config.Out
	if out == nil {
		out = os.Stdout
	}
	return &DMFACommand{
		config: config,
		out:    out,
	}
}

// Execute runs the DMFA command
func (c *DMFACommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	engineConfig, err := c.engineConfig()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.config.Verbose {
		c.printHeader(engineConfig)
		fmt.Fprintln(c.out, "📂 Loading scenarios from CSV files...")
	}

	scenarios, err := c.loadScenarios()
	if err != nil {
		return err
	}

	repo := memory.NewScenarioRepository(len(scenarios))
	if err := repo.LoadScenarios(scenarios); err != nil {
		return fmt.Errorf("failed to load scenarios into repository: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "✅ Loaded %d scenario(s):\n", len(scenarios))
		for _, s := range scenarios {
			start, end := s.YearRange()
			fmt.Fprintf(c.out, "  %d. %s (%d-%d, %s + %s)\n",
				s.Number, s.Name, start, end, s.SubstanceA.Name, s.SubstanceB.Name)
		}
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "🔄 Building layered DMFA...")
	}

	orchestrator := orchestration.NewScenarioOrchestrator(
		orchestration.Config{Workers: c.config.Workers, TopPathways: c.config.TopPathways},
		layered.NewLayeredDMFAServiceWithConfig(engineConfig),
		summary.NewSummarizer(),
	)

	var store *events.InMemoryEventStore
	if c.config.RecordEvents {
		store = events.NewInMemoryEventStore()
		if err := store.Subscribe(events.RunEventTypes, events.NewLogHandler(slog.Default())); err != nil {
			return fmt.Errorf("failed to subscribe to run events: %w", err)
		}
		orchestrator.WithEventStore(store)
	}

	// the bar redraws from its own goroutine, so it only ever writes to stdout
	var progress orchestration.Progress
	var bar *pb.ProgressBar
	if c.config.Verbose && c.out == io.Writer(os.Stdout) {
		bar = pb.StartNew(len(scenarios))
		bar.ShowTimeLeft = false
		progress = bar
	} else if c.config.Verbose {
		progress = &lineProgress{out: c.out, total: len(scenarios)}
	}

	startTime := time.Now()
	results, err := orchestrator.RunRepository(ctx, repo, progress)
	totalTime := time.Since(startTime)
	if store != nil {
		store.Flush()
	}

	if bar != nil {
		if err != nil {
			bar.Finish()
		} else {
			bar.FinishPrint(fmt.Sprintf("✅ %d scenario(s) built in %v", len(results), totalTime))
		}
	}
	if err != nil {
		return fmt.Errorf("error building layered DMFA: %w", err)
	}

	if c.config.Verbose {
		if store != nil {
			fmt.Fprintf(c.out, "🧾 %d run events recorded\n", store.Position())
		}
		fmt.Fprintln(c.out)
	}

	err = output.Generate(results, output.Config{
		Format:         c.config.Format,
		OutputDir:      c.config.OutputDir,
		Verbose:        c.config.Verbose,
		IncludeCohorts: c.config.IncludeCohorts,
		TotalTime:      totalTime,
		Out:            c.out,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.Verbose && c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "🏁 Results written to %s\n", c.config.OutputDir)
	}
	return nil
}

// lineProgress prints one line per finished scenario
type lineProgress struct {
	mu    sync.Mutex
	out   io.Writer
	done  int
	total int
}

func (p *lineProgress) Increment() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	fmt.Fprintf(p.out, "  %d/%d scenarios built\n", p.done, p.total)
	return p.done
}

// validateInputs validates the command configuration
func (c *DMFACommand) validateInputs() error {
	if c.config.ScenarioDir == "" && c.config.ScenariosRoot == "" {
		return fmt.Errorf("must specify either -scenario directory or -scenarios root")
	}
	if c.config.ScenarioDir != "" && c.config.ScenariosRoot != "" {
		return fmt.Errorf("-scenario and -scenarios cannot be combined")
	}

	for _, dir := range []string{c.config.ScenarioDir, c.config.ScenariosRoot} {
		if dir == "" {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("scenario path not found: %s", dir)
		}
		if !info.IsDir() {
			return fmt.Errorf("scenario path is not a directory: %s", dir)
		}
	}

	switch c.config.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("unsupported output format: %s (expected: text, json, or csv)", c.config.Format)
	}
	if c.config.Format == "csv" && c.config.OutputDir == "" {
		return fmt.Errorf("csv output requires -output directory")
	}
	if c.config.Workers < 0 {
		return fmt.Errorf("workers cannot be negative: %d", c.config.Workers)
	}
	if c.config.TopPathways < 0 {
		return fmt.Errorf("top pathways cannot be negative: %d", c.config.TopPathways)
	}
	return nil
}

// engineConfig overlays the command flags on the default engine configuration
func (c *DMFACommand) engineConfig() (layered.EngineConfig, error) {
	config := layered.DefaultEngineConfig()

	if c.config.Lifespan != 0 {
		config.Lifespan = c.config.Lifespan
	}
	if c.config.Lifespan < 0 {
		return config, fmt.Errorf("%w: %v", entities.ErrInvalidLifespan, c.config.Lifespan)
	}
	if c.config.ExportLag < 0 {
		return config, fmt.Errorf("%w: export lag %d", entities.ErrInvalidShift, c.config.ExportLag)
	}
	config.ExportLagYears = c.config.ExportLag

	policy, err := stockmodel.ParseNegativeInflowPolicy(c.config.NegativeInflow)
	if err != nil {
		return config, err
	}
	config.NegativeInflowPolicy = policy
	config.ValidateTransferCoefficients = !c.config.PermissiveTCs
	config.ConcurrentSubstances = !c.config.Sequential
	return config, nil
}

// loadScenarios reads one scenario directory or every directory under a root
func (c *DMFACommand) loadScenarios() ([]*entities.ScenarioInput, error) {
	loader := csv.NewLoader()

	if c.config.ScenariosRoot != "" {
		scenarios, err := loader.LoadScenarios(c.config.ScenariosRoot)
		if err != nil {
			return nil, fmt.Errorf("error loading scenarios: %w", err)
		}
		return scenarios, nil
	}

	scenario, err := loader.LoadScenario(c.config.ScenarioDir, 1)
	if err != nil {
		return nil, fmt.Errorf("error loading scenario: %w", err)
	}
	return []*entities.ScenarioInput{scenario}, nil
}

// printHeader prints the command header information
func (c *DMFACommand) printHeader(config layered.EngineConfig) {
	fmt.Fprintf(c.out, "🚗 Layered DMFA CLI\n")
	if c.config.ScenariosRoot != "" {
		fmt.Fprintf(c.out, "Scenarios root: %s\n", c.config.ScenariosRoot)
	} else {
		fmt.Fprintf(c.out, "Scenario: %s\n", filepath.Clean(c.config.ScenarioDir))
	}
	fmt.Fprintf(c.out, "Lifespan: %.1f years\n", config.Lifespan)
	fmt.Fprintf(c.out, "Export lag: %d years\n", config.ExportLagYears)
	fmt.Fprintf(c.out, "Negative inflow: %s\n", config.NegativeInflowPolicy)
	if !config.ValidateTransferCoefficients {
		fmt.Fprintf(c.out, "⚠️  Transfer coefficient checks disabled\n")
	}
	fmt.Fprintf(c.out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(c.out)
}

// showHelp displays the help message
func (c *DMFACommand) showHelp() {
	fmt.Fprintf(c.out, `Layered DMFA CLI - Dynamic Material Flow Analysis of car plastics and additives

USAGE:
    dmfa -scenario <directory>             # Run one scenario directory
    dmfa -scenarios <root>                 # Run every scenario directory under root
    dmfa -generate <root> [-count n]       # Write synthetic scenario directories

OPTIONS:
    -scenario <dir>          Path to a scenario directory containing CSV files
    -scenarios <dir>         Path to a directory of scenario directories
    -output <dir>            Output directory for results (required for csv)
    -format <fmt>            Output format: text, json, csv (default: text)
    -lifespan <years>        Mean and standard deviation of product lifetime (default: 15)
    -export-lag <years>      Delay of carrier exports (default: 5)
    -negative-inflow <p>     Declining stock handling: redistribute, clamp, reject (default: redistribute)
    -permissive-tcs          Accept coefficient tables routing more than 100%% out of a node
    -sequential              Solve substance layers one after the other
    -workers <n>             Scenarios built at once (default: number of CPUs)
    -top-paths <n>           Rank the n heaviest pathways per layer (default: 0, off)
    -cohorts                 Include cohort matrices in json output
    -events                  Record each build as a run event stream and report event counts
    -verbose                 Enable verbose output
    -help                    Show this help message

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── fleet.csv                      # Vehicle fleet and plastic content
    ├── carrier_tfs.csv                # Carrier transfer coefficients
    ├── substances.csv                 # The two additive substances
    ├── <substance>_tfs.csv            # Transfer coefficients per substance
    ├── content_shares.csv             # Substance share of carrier inflow
    ├── characterization_factors.csv   # Optional impact factors
    └── co2_endpoint_factors.csv       # Optional CO2 endpoint factors

CSV FILE FORMATS:

fleet.csv (empty share or weight cells are interpolated):
    year,vehicle_stock,plastic_share,average_vehicle_weight
    2000,4500000,0.12,1250
    2001,4620000,,

carrier_tfs.csv and <substance>_tfs.csv:
    year,F_1_0,F_1_2,F_1_9,F_1_10,F_2_0,F_2_1,F_2_3,F_2_4,F_3_0,F_3_8,F_3_10,F_4_0,F_4_1,F_4_3,F_4_10
    2000,0.001,0.75,0.2,0.02,0.001,0.05,0.35,0.3,0.01,0.2,0.001,0.001,0.6,0.3,0.01

substances.csv:
    slot,name,production_ef,co2_conversion
    a,decaBDE,0.0001,0.055047
    b,TPP,0.002,2.4273

content_shares.csv:
    year,decaBDE,TPP
    2000,0.0015,0.004

characterization_factors.csv:
    substance,category,area,midpoint,endpoint
    TPP,freshwater ecotoxicity,ecosystem,210,1.5e-7

co2_endpoint_factors.csv:
    area,endpoint
    human_health,9.28e-7
    terrestrial,2.8e-9
    freshwater,7.65e-14

EXAMPLES:
    # Generate three synthetic scenarios and run them all
    dmfa -generate scenarios/ -count 3 -seed 42
    dmfa -scenarios scenarios/ -verbose

    # Run one scenario without export lag, rejecting declining stocks
    dmfa -scenario scenarios/scenario_01 -export-lag 0 -negative-inflow reject

    # Write per-layer CSV series and impacts
    dmfa -scenarios scenarios/ -format csv -output results/

    # Show the three heaviest pathways of every layer
    dmfa -scenario scenarios/scenario_01 -top-paths 3

    # Full JSON report including cohort matrices
    dmfa -scenario scenarios/scenario_01 -format json -output results/ -cohorts
`)
}
