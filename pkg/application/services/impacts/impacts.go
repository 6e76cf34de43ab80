// Package impacts weights the air sinks and incineration flows of a solved
// layered DMFA with characterization factors.
package impacts

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/vsinha/dmfa/pkg/application/dto"
	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// Calculate derives midpoint and endpoint impacts per period.
//
// CO2 comes from incinerated substance mass, F_2_3 - F_3_0, times the
// substance's CO2 conversion. Toxicity comes from each substance's air sink
// times its characterization factors.
func Calculate(layered *dto.LayeredDMFA) (*dto.Impacts, error) {
	if layered == nil || layered.Configuration == nil {
		return nil, fmt.Errorf("no layered result to weight")
	}
	nt := layered.Configuration.Nt
	scenario := layered.Scenario

	result := &dto.Impacts{
		CO2:      make([]float64, nt),
		Midpoint: make(map[string][]float64),

		HumanHealth:                     make([]float64, nt),
		HumanHealthWithoutGlobalWarming: make([]float64, nt),
		HumanHealthOnlyGlobalWarming:    make([]float64, nt),

		EcosystemHealth:                     make([]float64, nt),
		EcosystemHealthWithoutGlobalWarming: make([]float64, nt),
		EcosystemHealthOnlyGlobalWarming:    make([]float64, nt),
	}

	substanceLayers := layered.Layers()[1:]
	for i, sub := range scenario.Substances() {
		layer := substanceLayers[i]

		incinerated := layer.FlowValues(entities.F_2_3)
		escaped := layer.FlowValues(entities.F_3_0)
		air := layer.StockValues(entities.DS_0)
		if len(incinerated) != nt || len(escaped) != nt || len(air) != nt {
			return nil, fmt.Errorf("%s: %w: layer does not span %d periods", sub.Name, entities.ErrShapeMismatch, nt)
		}

		floats.AddScaled(result.CO2, sub.CO2Conversion, incinerated)
		floats.AddScaled(result.CO2, -sub.CO2Conversion, escaped)

		for _, cf := range sub.CharacterizationFactors {
			midpoint, exists := result.Midpoint[cf.Category]
			if !exists {
				midpoint = make([]float64, nt)
				result.Midpoint[cf.Category] = midpoint
				result.MidpointOrder = append(result.MidpointOrder, cf.Category)
			}

			var endpoint []float64
			switch cf.Area {
			case entities.HumanHealth:
				endpoint = result.HumanHealthWithoutGlobalWarming
			case entities.EcosystemHealth:
				endpoint = result.EcosystemHealthWithoutGlobalWarming
			default:
				return nil, fmt.Errorf("%s: unknown impact area for %s", sub.Name, cf.Category)
			}

			floats.AddScaled(midpoint, cf.Midpoint, air)
			floats.AddScaled(endpoint, cf.Endpoint, air)
		}
	}

	co2 := scenario.CO2EndpointFactors
	floats.ScaleTo(result.HumanHealthOnlyGlobalWarming, co2.HumanHealth, result.CO2)
	floats.AddTo(result.HumanHealth, result.HumanHealthWithoutGlobalWarming, result.HumanHealthOnlyGlobalWarming)

	floats.ScaleTo(result.EcosystemHealthOnlyGlobalWarming, co2.Terrestrial+co2.Freshwater, result.CO2)
	floats.AddTo(result.EcosystemHealth, result.EcosystemHealthWithoutGlobalWarming, result.EcosystemHealthOnlyGlobalWarming)

	return result, nil
}
