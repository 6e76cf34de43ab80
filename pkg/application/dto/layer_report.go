package dto

import (
	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// UsePhaseReport is the serializable form of a use phase
type UsePhaseReport struct {
	Inflow              []float64   `json:"inflow"`
	Stock               []float64   `json:"stock"`
	StockChange         []float64   `json:"stock_change"`
	Outflow             []float64   `json:"outflow"`
	StockByCohort       [][]float64 `json:"stock_by_cohort,omitempty"`
	StockChangeByCohort [][]float64 `json:"stock_change_by_cohort,omitempty"`
	OutflowByCohort     [][]float64 `json:"outflow_by_cohort,omitempty"`
}

// LayerReport is the serializable form of one solved layer
type LayerReport struct {
	Layer    string                 `json:"layer"`
	Material string                 `json:"material"`
	Years    []entities.Year        `json:"years"`
	Series   []entities.NamedSeries `json:"series"`
	UsePhase *UsePhaseReport        `json:"use_phase,omitempty"`
}

// ImpactReport is the serializable form of one impact series
type ImpactReport struct {
	Name   string    `json:"name"`
	Unit   string    `json:"unit"`
	Values []float64 `json:"values"`
}

// PathwayReport is the serializable form of one ranked pathway
type PathwayReport struct {
	Layer      string            `json:"layer"`
	Path       []entities.FlowID `json:"path"`
	Sink       entities.StockID  `json:"sink,omitempty"`
	Mass       float64           `json:"mass"`
	Share      float64           `json:"share"`
	Bottleneck entities.FlowID   `json:"bottleneck"`
}

// ScenarioReport is the serializable form of a scenario result
type ScenarioReport struct {
	Number   int             `json:"number"`
	Name     string          `json:"name"`
	Layers   []LayerReport   `json:"layers"`
	Impacts  []ImpactReport  `json:"impacts,omitempty"`
	Pathways []PathwayReport `json:"pathways,omitempty"`
	RunID    string          `json:"run_id,omitempty"`
	Events   int             `json:"events,omitempty"`
}

// NewScenarioReport flattens a scenario result for serialization.
// Cohort matrices are included only when withCohorts is set.
func NewScenarioReport(result *ScenarioResult, withCohorts bool) ScenarioReport {
	layered := result.Layered
	report := ScenarioReport{
		Number: layered.Scenario.Number,
		Name:   layered.Scenario.Name,
		Layers: make([]LayerReport, 0, 3),
		RunID:  result.RunID,
		Events: result.Events,
	}

	for _, layer := range layered.Layers() {
		lr := LayerReport{
			Layer:    string(layer.Layer()),
			Material: layer.Material(),
			Years:    layered.Configuration.TimeList,
			Series:   layer.Series(),
		}
		if up := layer.UsePhase(); up != nil {
			lr.UsePhase = &UsePhaseReport{
				Inflow:      up.Inflow,
				Stock:       up.Stock,
				StockChange: up.StockChange,
				Outflow:     up.Outflow,
			}
			if withCohorts {
				lr.UsePhase.StockByCohort = entities.CohortRows(up.StockByCohort)
				lr.UsePhase.StockChangeByCohort = entities.CohortRows(up.StockChangeByCohort)
				lr.UsePhase.OutflowByCohort = entities.CohortRows(up.OutflowByCohort)
			}
		}
		report.Layers = append(report.Layers, lr)
	}

	if result.Impacts != nil {
		for _, s := range result.Impacts.Series() {
			report.Impacts = append(report.Impacts, ImpactReport{Name: s.Name, Unit: s.Unit, Values: s.Values})
		}
	}

	for _, analysis := range result.Pathways {
		for _, p := range analysis.TopPaths {
			report.Pathways = append(report.Pathways, PathwayReport{
				Layer:      analysis.Layer,
				Path:       p.Path,
				Sink:       p.Sink,
				Mass:       p.Mass,
				Share:      p.Share,
				Bottleneck: p.Bottleneck,
			})
		}
	}
	return report
}
