package dto

// Impacts contains midpoint and endpoint impact series over the horizon.
// Every series has one value per period.
type Impacts struct {
	// CO2 from incinerating the substances, kg
	CO2 []float64

	// Midpoint series per characterization category, kg 1,4-DCB eq
	Midpoint      map[string][]float64
	MidpointOrder []string

	HumanHealth                     []float64 // DALY
	HumanHealthWithoutGlobalWarming []float64
	HumanHealthOnlyGlobalWarming    []float64

	EcosystemHealth                     []float64 // species.yr
	EcosystemHealthWithoutGlobalWarming []float64
	EcosystemHealthOnlyGlobalWarming    []float64
}

// NamedImpact pairs an impact name with its series
type NamedImpact struct {
	Name   string
	Unit   string
	Values []float64
}

// Series enumerates every impact series in a stable order
func (i *Impacts) Series() []NamedImpact {
	series := []NamedImpact{{Name: "CO2 global warming", Unit: "kg CO2", Values: i.CO2}}
	for _, category := range i.MidpointOrder {
		series = append(series, NamedImpact{Name: category, Unit: "kg 1,4-DCB", Values: i.Midpoint[category]})
	}
	return append(series,
		NamedImpact{Name: "human health", Unit: "DALY", Values: i.HumanHealth},
		NamedImpact{Name: "human health without global warming", Unit: "DALY", Values: i.HumanHealthWithoutGlobalWarming},
		NamedImpact{Name: "human health only global warming", Unit: "DALY", Values: i.HumanHealthOnlyGlobalWarming},
		NamedImpact{Name: "ecosystem health", Unit: "species.yr", Values: i.EcosystemHealth},
		NamedImpact{Name: "ecosystem health without global warming", Unit: "species.yr", Values: i.EcosystemHealthWithoutGlobalWarming},
		NamedImpact{Name: "ecosystem health only global warming", Unit: "species.yr", Values: i.EcosystemHealthOnlyGlobalWarming},
	)
}
