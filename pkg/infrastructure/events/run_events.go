package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

const (
	ScenarioStartedEvent   = "scenario.started"
	ScenarioCompletedEvent = "scenario.completed"
	ScenarioFailedEvent    = "scenario.failed"

	LayerSolvedEvent        = "layer.solved"
	ProductionEmissionEvent = "layer.production_emission"
)

// RunEventTypes lists every event a layered build publishes
var RunEventTypes = []string{
	ScenarioStartedEvent,
	ScenarioCompletedEvent,
	ScenarioFailedEvent,
	LayerSolvedEvent,
	ProductionEmissionEvent,
}

type ScenarioStarted struct {
	Scenario  int           `json:"scenario"`
	Name      string        `json:"name"`
	StartYear entities.Year `json:"start_year"`
	EndYear   entities.Year `json:"end_year"`
}

type ScenarioCompleted struct {
	Scenario int           `json:"scenario"`
	Duration time.Duration `json:"duration"`
}

type ScenarioFailed struct {
	Scenario int    `json:"scenario"`
	Error    string `json:"error"`
}

type LayerSolved struct {
	Scenario    int     `json:"scenario"`
	Layer       string  `json:"layer"`
	Material    string  `json:"material"`
	TotalInflow float64 `json:"total_inflow"`
	FinalStock  float64 `json:"final_stock"`
	AirTotal    float64 `json:"air_total"`
}

type ProductionEmission struct {
	Scenario int     `json:"scenario"`
	Layer    string  `json:"layer"`
	Material string  `json:"material"`
	Total    float64 `json:"total"`
}

func NewScenarioStartedEvent(runID string, scenario *entities.ScenarioInput) Event {
	start, end := scenario.YearRange()
	return NewEvent(ScenarioStartedEvent, runID, ScenarioStarted{
		Scenario:  scenario.Number,
		Name:      scenario.Name,
		StartYear: start,
		EndYear:   end,
	})
}

func NewScenarioCompletedEvent(runID string, scenario int, duration time.Duration) Event {
	return NewEvent(ScenarioCompletedEvent, runID, ScenarioCompleted{Scenario: scenario, Duration: duration})
}

func NewScenarioFailedEvent(runID string, scenario int, err error) Event {
	return NewEvent(ScenarioFailedEvent, runID, ScenarioFailed{Scenario: scenario, Error: err.Error()})
}

func NewLayerSolvedEvent(runID string, data LayerSolved) Event {
	return NewEvent(LayerSolvedEvent, runID, data)
}

func NewProductionEmissionEvent(runID string, data ProductionEmission) Event {
	return NewEvent(ProductionEmissionEvent, runID, data)
}

// LogHandler writes every run event to a structured logger at debug level
type LogHandler struct {
	logger *slog.Logger
}

func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) CanHandle(eventType string) bool {
	return h.logger.Enabled(context.Background(), slog.LevelDebug)
}

func (h *LogHandler) Handle(event Event) error {
	h.logger.Debug("run event",
		slog.String("type", event.Type()),
		slog.String("run", event.StreamID()),
		slog.Int("version", event.Version()),
		slog.Any("data", event.Data()))
	return nil
}
