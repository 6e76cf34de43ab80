package layered

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/vsinha/dmfa/pkg/application/dto"
	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/infrastructure/events"
)

// EventDrivenService wraps LayeredDMFAService and records each build as a
// stream of run events keyed by a fresh run id
type EventDrivenService struct {
	service    *LayeredDMFAService
	eventStore events.EventStore
	logger     *slog.Logger
}

func NewEventDrivenService(eventStore events.EventStore) *EventDrivenService {
	return NewEventDrivenServiceWithConfig(DefaultEngineConfig(), eventStore)
}

func NewEventDrivenServiceWithConfig(config EngineConfig, eventStore events.EventStore) *EventDrivenService {
	return WrapWithEvents(NewLayeredDMFAServiceWithConfig(config), eventStore)
}

// WrapWithEvents publishes the builds of an existing service to eventStore
func WrapWithEvents(service *LayeredDMFAService, eventStore events.EventStore) *EventDrivenService {
	return &EventDrivenService{
		service:    service,
		eventStore: eventStore,
		logger:     service.logger,
	}
}

// Build runs the layered build and returns the run id alongside the result.
// Events are published on failure too.
func (s *EventDrivenService) Build(ctx context.Context, scenario *entities.ScenarioInput) (*dto.LayeredDMFA, string, error) {
	runID := uuid.NewString()
	started := time.Now()

	s.publish(runID, events.NewScenarioStartedEvent(runID, scenario))

	layered, err := s.service.Build(ctx, scenario)
	if err != nil {
		s.publish(runID, events.NewScenarioFailedEvent(runID, scenario.Number, err))
		return nil, runID, err
	}

	s.publishLayerEvents(runID, layered)
	s.publish(runID, events.NewScenarioCompletedEvent(runID, scenario.Number, time.Since(started)))
	return layered, runID, nil
}

func (s *EventDrivenService) publishLayerEvents(runID string, layered *dto.LayeredDMFA) {
	substances := layered.Scenario.Substances()

	for i, layer := range layered.Layers() {
		up := layer.UsePhase()
		s.publish(runID, events.NewLayerSolvedEvent(runID, events.LayerSolved{
			Scenario:    layered.Scenario.Number,
			Layer:       string(layer.Layer()),
			Material:    layer.Material(),
			TotalInflow: floats.Sum(up.Inflow),
			FinalStock:  up.Stock[len(up.Stock)-1],
			AirTotal:    floats.Sum(layer.StockValues(entities.DS_0)),
		}))

		if i == 0 {
			continue
		}
		sub := substances[i-1]
		emission, err := ProductionEmission(up.Inflow, RecycledInflow(layer), sub.ProductionEmissionFactor)
		if err != nil {
			s.logger.Warn("failed to recompute production emission", slog.String("layer", string(layer.Layer())), slog.Any("error", err))
			continue
		}
		s.publish(runID, events.NewProductionEmissionEvent(runID, events.ProductionEmission{
			Scenario: layered.Scenario.Number,
			Layer:    string(layer.Layer()),
			Material: layer.Material(),
			Total:    floats.Sum(emission),
		}))
	}
}

func (s *EventDrivenService) publish(runID string, event events.Event) {
	if err := s.eventStore.AppendEvent(runID, event); err != nil {
		s.logger.Warn("failed to publish event", slog.String("type", event.Type()), slog.Any("error", err))
	}
}
