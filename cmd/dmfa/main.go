package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/interfaces/cli/commands"
)

func main() {
	defaults := commands.DefaultConfig()
	generateDefaults := commands.DefaultGenerateConfig()

	// Command line flags
	var (
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		scenariosRoot  = flag.String("scenarios", "", "Path to a directory of scenario directories")
		outputDir      = flag.String("output", "", "Output directory for results (optional)")
		format         = flag.String("format", defaults.Format, "Output format: text, json, csv")
		lifespan       = flag.Float64("lifespan", defaults.Lifespan, "Mean and standard deviation of product lifetime in years")
		exportLag      = flag.Int("export-lag", defaults.ExportLag, "Delay of carrier exports in years")
		negativeInflow = flag.String("negative-inflow", defaults.NegativeInflow, "Declining stock handling: redistribute, clamp, reject")
		permissiveTCs  = flag.Bool("permissive-tcs", false, "Accept transfer coefficients routing more than 100% out of a node")
		sequential     = flag.Bool("sequential", false, "Solve substance layers one after the other")
		workers        = flag.Int("workers", 0, "Scenarios built at once (0 = number of CPUs)")
		topPaths       = flag.Int("top-paths", 0, "Number of heaviest pathways to rank per layer (0 = off)")
		cohorts        = flag.Bool("cohorts", false, "Include cohort matrices in json output")
		recordEvents   = flag.Bool("events", false, "Record each build as a run event stream")
		verbose        = flag.Bool("verbose", false, "Enable verbose output")
		debug          = flag.Bool("debug", false, "Log engine diagnostics to stderr")
		help           = flag.Bool("help", false, "Show help message")

		generateDir = flag.String("generate", "", "Write synthetic scenario directories under this root")
		count       = flag.Int("count", generateDefaults.Count, "Number of scenarios to generate")
		startYear   = flag.Int("start", int(generateDefaults.StartYear), "First year of generated scenarios")
		endYear     = flag.Int("end", int(generateDefaults.EndYear), "Last year of generated scenarios")
		seed        = flag.Int64("seed", 0, "Random seed for generation (0 = current time)")
	)

	flag.Parse()

	if *debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if *generateDir != "" {
		cmd := commands.NewGenerateCommand(commands.GenerateConfig{
			OutputDir: *generateDir,
			Count:     *count,
			StartYear: entities.Year(*startYear),
			EndYear:   entities.Year(*endYear),
			Seed:      *seed,
			Help:      *help,
			Verbose:   *verbose,
		})
		err = cmd.Execute(ctx)
	} else {
		config := defaults
		config.ScenarioDir = *scenarioDir
		config.ScenariosRoot = *scenariosRoot
		config.OutputDir = *outputDir
		config.Format = *format
		config.Lifespan = *lifespan
		config.ExportLag = *exportLag
		config.NegativeInflow = *negativeInflow
		config.PermissiveTCs = *permissiveTCs
		config.Sequential = *sequential
		config.Workers = *workers
		config.TopPathways = *topPaths
		config.Verbose = *verbose
		config.IncludeCohorts = *cohorts
		config.RecordEvents = *recordEvents
		config.Help = *help
		err = commands.NewDMFACommand(config).Execute(ctx)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
