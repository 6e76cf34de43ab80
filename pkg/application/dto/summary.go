package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// SinkTotal is the cumulative mass reaching one environmental sink
type SinkTotal struct {
	Stock   entities.StockID
	Process entities.ProcessID
	Total   decimal.Decimal
}

// LayerSummary contains rounded headline figures for one layer
type LayerSummary struct {
	Layer    string
	Material string

	TotalInflow decimal.Decimal
	FinalStock  decimal.Decimal
	Sinks       []SinkTotal

	RecycledInflow         decimal.Decimal
	RecycledShare          decimal.Decimal // percent of total inflow
	RecycledSharePerPeriod []decimal.Decimal

	// MassBalanceResidual is the largest per-period gap in the use-phase balance
	MassBalanceResidual decimal.Decimal
}

// ScenarioSummary contains the layer summaries and impact totals of one scenario
type ScenarioSummary struct {
	Number    int
	Name      string
	StartYear entities.Year
	EndYear   entities.Year
	Layers    []LayerSummary

	CO2             decimal.Decimal
	HumanHealth     decimal.Decimal
	EcosystemHealth decimal.Decimal
}
