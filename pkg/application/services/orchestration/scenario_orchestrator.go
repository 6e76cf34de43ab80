package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/vsinha/dmfa/pkg/application/dto"
	"github.com/vsinha/dmfa/pkg/application/services/impacts"
	"github.com/vsinha/dmfa/pkg/application/services/layered"
	"github.com/vsinha/dmfa/pkg/application/services/pathway"
	"github.com/vsinha/dmfa/pkg/application/services/summary"
	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/repositories"
	"github.com/vsinha/dmfa/pkg/infrastructure/events"
)

// Progress is advanced once per finished scenario
type Progress interface {
	Increment() int
}

// Config holds configuration for multi-scenario runs
type Config struct {
	// Workers bounds the number of scenarios computed at once (0 = GOMAXPROCS)
	Workers int
	// TopPathways is the number of pathways ranked per layer (0 = no pathway analysis)
	TopPathways int
}

// ScenarioOrchestrator coordinates the layered build, impact weighting and
// summary of many independent scenarios
type ScenarioOrchestrator struct {
	config     Config
	service    *layered.LayeredDMFAService
	summarizer *summary.Summarizer
	pathways   *pathway.PathwayService
	logger     *slog.Logger

	// set by WithEventStore; builds then run through the event-driven service
	eventStore events.EventStore
	recorder   *layered.EventDrivenService
}

// NewScenarioOrchestrator creates a new scenario orchestrator
func NewScenarioOrchestrator(
	config Config,
	service *layered.LayeredDMFAService,
	summarizer *summary.Summarizer,
) *ScenarioOrchestrator {
	return &ScenarioOrchestrator{
		config:     config,
		service:    service,
		summarizer: summarizer,
		pathways:   pathway.NewPathwayService(),
		logger:     slog.Default(),
	}
}

// WithEventStore records every scenario build as a run stream in store
func (o *ScenarioOrchestrator) WithEventStore(store events.EventStore) *ScenarioOrchestrator {
	o.eventStore = store
	o.recorder = layered.WrapWithEvents(o.service, store)
	return o
}

// RunScenario builds, weights and summarizes a single scenario
func (o *ScenarioOrchestrator) RunScenario(ctx context.Context, scenario *entities.ScenarioInput) (*dto.ScenarioResult, error) {
	started := time.Now()

	built, runID, err := o.build(ctx, scenario)
	if err != nil {
		return nil, err
	}
	weighted, err := impacts.Calculate(built)
	if err != nil {
		return nil, fmt.Errorf("scenario %d: failed to calculate impacts: %w", scenario.Number, err)
	}

	result := &dto.ScenarioResult{
		Layered: built,
		Impacts: weighted,
		Summary: o.summarizer.Summarize(built, weighted),
		RunID:   runID,
	}
	if runID != "" {
		stream, err := o.eventStore.ReadEvents(runID, 1)
		if err != nil {
			return nil, fmt.Errorf("scenario %d: failed to read run events: %w", scenario.Number, err)
		}
		result.Events = len(stream)
	}

	if o.config.TopPathways > 0 {
		result.Pathways, err = o.pathways.AnalyzeScenario(ctx, built, o.config.TopPathways)
		if err != nil {
			return nil, fmt.Errorf("scenario %d: failed to analyze pathways: %w", scenario.Number, err)
		}
	}

	result.BuildTime = time.Since(started)
	return result, nil
}

func (o *ScenarioOrchestrator) build(ctx context.Context, scenario *entities.ScenarioInput) (*dto.LayeredDMFA, string, error) {
	if o.recorder == nil {
		built, err := o.service.Build(ctx, scenario)
		return built, "", err
	}
	return o.recorder.Build(ctx, scenario)
}

// RunAll computes every scenario on a bounded worker pool. Results keep the
// order of the input. The first failure cancels scenarios not yet started
// and is returned.
func (o *ScenarioOrchestrator) RunAll(
	ctx context.Context,
	scenarios []*entities.ScenarioInput,
	progress Progress,
) ([]*dto.ScenarioResult, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios provided")
	}

	workers := o.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(scenarios) {
		workers = len(scenarios)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*dto.ScenarioResult, len(scenarios))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result, err := o.RunScenario(ctx, scenarios[i])
				if err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				results[i] = result
				if progress != nil {
					progress.Increment()
				}
				o.logger.Debug("scenario finished",
					slog.Int("scenario", scenarios[i].Number),
					slog.Duration("elapsed", result.BuildTime))
			}
		}()
	}

feed:
	for i := range scenarios {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunRepository runs every scenario stored in repo, ordered by number
func (o *ScenarioOrchestrator) RunRepository(
	ctx context.Context,
	repo repositories.ScenarioRepository,
	progress Progress,
) ([]*dto.ScenarioResult, error) {
	scenarios, err := repo.GetAllScenarios()
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	return o.RunAll(ctx, scenarios, progress)
}
