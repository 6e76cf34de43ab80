// Package summary condenses a scenario result into rounded headline figures.
package summary

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	"github.com/vsinha/dmfa/pkg/application/dto"
	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/services/network"
)

// Config holds rounding configuration
type Config struct {
	// Places is the number of decimal places kept for masses and impacts
	Places int32
	// SharePlaces is the number of decimal places kept for percentages
	SharePlaces int32
}

// DefaultConfig returns the rounding used in reports
func DefaultConfig() Config {
	return Config{Places: 3, SharePlaces: 2}
}

// Summarizer builds ScenarioSummary values
type Summarizer struct {
	config Config
}

func NewSummarizer() *Summarizer {
	return NewSummarizerWithConfig(DefaultConfig())
}

func NewSummarizerWithConfig(config Config) *Summarizer {
	return &Summarizer{config: config}
}

// Summarize summarizes every layer and totals the impacts when present
func (s *Summarizer) Summarize(layered *dto.LayeredDMFA, impacts *dto.Impacts) *dto.ScenarioSummary {
	start, end := layered.Scenario.YearRange()
	summary := &dto.ScenarioSummary{
		Number:    layered.Scenario.Number,
		Name:      layered.Scenario.Name,
		StartYear: start,
		EndYear:   end,
		Layers:    make([]dto.LayerSummary, 0, 3),
	}

	for _, layer := range layered.Layers() {
		summary.Layers = append(summary.Layers, s.SummarizeLayer(layer))
	}

	if impacts != nil {
		summary.CO2 = s.round(floats.Sum(impacts.CO2))
		summary.HumanHealth = decimal.NewFromFloat(floats.Sum(impacts.HumanHealth))
		summary.EcosystemHealth = decimal.NewFromFloat(floats.Sum(impacts.EcosystemHealth))
	}
	return summary
}

// SummarizeLayer computes sink totals, recycled inflow and the mass-balance
// residual of one solved layer
func (s *Summarizer) SummarizeLayer(layer *network.FlowNetwork) dto.LayerSummary {
	up := layer.UsePhase()
	result := dto.LayerSummary{
		Layer:    string(layer.Layer()),
		Material: layer.Material(),
	}

	for _, sink := range entities.DefaultTopology().Sinks {
		result.Sinks = append(result.Sinks, dto.SinkTotal{
			Stock:   sink.ID,
			Process: sink.Process,
			Total:   s.round(floats.Sum(layer.StockValues(sink.ID))),
		})
	}

	if up == nil {
		return result
	}

	recycled := make([]float64, up.Periods())
	for _, id := range entities.RecycledFlows() {
		floats.Add(recycled, layer.FlowValues(id))
	}

	totalInflow := floats.Sum(up.Inflow)
	totalRecycled := floats.Sum(recycled)

	result.TotalInflow = s.round(totalInflow)
	result.FinalStock = s.round(up.Stock[up.Periods()-1])
	result.RecycledInflow = s.round(totalRecycled)
	result.RecycledShare = s.share(totalRecycled, totalInflow)
	result.RecycledSharePerPeriod = make([]decimal.Decimal, up.Periods())
	for t := range recycled {
		result.RecycledSharePerPeriod[t] = s.share(recycled[t], up.Inflow[t])
	}
	result.MassBalanceResidual = decimal.NewFromFloat(MassBalanceResidual(layer))
	return result
}

// MassBalanceResidual returns the largest per-period gap in the layer's
// use-phase balance. The carrier balances its corrected inflow against
// dismantling and lagged exports; substance layers against their outflow.
func MassBalanceResidual(layer *network.FlowNetwork) float64 {
	up := layer.UsePhase()
	if up == nil {
		return 0
	}

	residual := 0.0
	for t := 0; t < up.Periods(); t++ {
		balance := up.StockChange[t]
		if layer.Layer() == network.Carrier {
			balance += layer.FlowValues(entities.F_1_2)[t]
			balance += layer.FlowValues(entities.F_1_9)[t]
		} else {
			balance += up.Outflow[t]
		}
		residual = math.Max(residual, math.Abs(up.Inflow[t]-balance))
	}
	return residual
}

// share returns part/whole as a rounded percentage, 0 when whole is 0
func (s *Summarizer) share(part, whole float64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(part).
		Div(decimal.NewFromFloat(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(s.config.SharePlaces)
}

func (s *Summarizer) round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(s.config.Places)
}
