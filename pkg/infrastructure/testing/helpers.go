package testing

import (
	"fmt"

	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/infrastructure/repositories/memory"
)

// Years returns the contiguous years from start to end inclusive
func Years(start, end entities.Year) []entities.Year {
	years := make([]entities.Year, 0, int(end-start)+1)
	for y := start; y <= end; y++ {
		years = append(years, y)
	}
	return years
}

// Constant returns a series of n copies of v
func Constant(n int, v float64) []float64 {
	series := make([]float64, n)
	for i := range series {
		series[i] = v
	}
	return series
}

// BuildUniformScenario builds a scenario where every edge of every layer
// carries the same coefficient and both substances share one content share
func BuildUniformScenario(start entities.Year, stock []float64, coefficient, contentShare, ef float64) *entities.ScenarioInput {
	years := Years(start, start+entities.Year(len(stock)-1))
	nt := len(years)

	return &entities.ScenarioInput{
		Number:                      1,
		Name:                        "uniform",
		Years:                       years,
		CarrierStock:                append([]float64(nil), stock...),
		CarrierTransferCoefficients: entities.UniformTransferCoefficients(nt, coefficient),
		SubstanceA: entities.SubstanceInput{
			Name:                     "decaBDE",
			ContentShare:             Constant(nt, contentShare),
			TransferCoefficients:     entities.UniformTransferCoefficients(nt, coefficient),
			ProductionEmissionFactor: ef,
			CO2Conversion:            0.055047,
		},
		SubstanceB: entities.SubstanceInput{
			Name:                     "TPP",
			ContentShare:             Constant(nt, contentShare),
			TransferCoefficients:     entities.UniformTransferCoefficients(nt, coefficient),
			ProductionEmissionFactor: ef,
			CO2Conversion:            2.4273,
		},
	}
}

// BuildReferenceScenario builds a realistic two-decade fleet: a growing
// then declining plastic stock, realistic routing and characterization factors
func BuildReferenceScenario(number int) *entities.ScenarioInput {
	years := Years(2000, 2024)
	nt := len(years)

	stock := make([]float64, nt)
	for i := range stock {
		// kg of plastic in the fleet
		switch {
		case i < 15:
			stock[i] = 1.0e8 + 4.0e6*float64(i)
		default:
			stock[i] = 1.56e8 - 1.0e6*float64(i-14)
		}
	}

	carrier := routingTable(nt, 0.001, 0.75, 0.2, 0.02, 0.3, 0.35)
	decaBDE := routingTable(nt, 0.0001, 0.75, 0.2, 0.02, 0.01, 0.4)
	tpp := routingTable(nt, 0.0005, 0.75, 0.2, 0.03, 0.02, 0.3)

	return &entities.ScenarioInput{
		Number:                      number,
		Name:                        fmt.Sprintf("reference-%d", number),
		Years:                       years,
		CarrierStock:                stock,
		CarrierTransferCoefficients: carrier,
		SubstanceA: entities.SubstanceInput{
			Name:                     "decaBDE",
			ContentShare:             Constant(nt, 0.0015),
			TransferCoefficients:     decaBDE,
			ProductionEmissionFactor: 0.0001,
			CO2Conversion:            0.055047,
			CharacterizationFactors: []entities.CharacterizationFactor{
				{Category: "human carcinogenic toxicity", Area: entities.HumanHealth, Midpoint: 12.5, Endpoint: 4.1e-5},
				{Category: "human non-carcinogenic toxicity", Area: entities.HumanHealth, Midpoint: 310, Endpoint: 7.1e-5},
			},
		},
		SubstanceB: entities.SubstanceInput{
			Name:                     "TPP",
			ContentShare:             Constant(nt, 0.004),
			TransferCoefficients:     tpp,
			ProductionEmissionFactor: 0.002,
			CO2Conversion:            2.4273,
			CharacterizationFactors: []entities.CharacterizationFactor{
				{Category: "terrestrial ecotoxicity", Area: entities.EcosystemHealth, Midpoint: 3.4, Endpoint: 3.9e-8},
				{Category: "freshwater ecotoxicity", Area: entities.EcosystemHealth, Midpoint: 210, Endpoint: 1.5e-7},
				{Category: "marine ecotoxicity", Area: entities.EcosystemHealth, Midpoint: 190, Endpoint: 2.0e-8},
			},
		},
		CO2EndpointFactors: entities.CO2EndpointFactors{
			HumanHealth: 9.28e-7,
			Terrestrial: 2.8e-9,
			Freshwater:  7.65e-14,
		},
	}
}

// routingTable spreads material from each node over its exits.
// air is the use-phase air loss, the remaining arguments split the outflow
// and the downstream nodes.
func routingTable(nt int, air, dismantled, exported, toWater, toRecycling, toIncineration float64) entities.TransferCoefficientTable {
	table := entities.UniformTransferCoefficients(nt, 0)
	set := func(id entities.FlowID, v float64) {
		table[id] = Constant(nt, v)
	}

	set(entities.F_1_0, air)
	set(entities.F_1_2, dismantled)
	set(entities.F_1_9, exported)
	set(entities.F_1_10, toWater)

	set(entities.F_2_0, 0.001)
	set(entities.F_2_1, 0.05)
	set(entities.F_2_3, toIncineration)
	set(entities.F_2_4, toRecycling)

	set(entities.F_3_0, 0.01)
	set(entities.F_3_8, 0.2)
	set(entities.F_3_10, 0.001)

	set(entities.F_4_0, 0.001)
	set(entities.F_4_1, 0.6)
	set(entities.F_4_3, 0.3)
	set(entities.F_4_10, 0.01)
	return table
}

// BuildScenarioRepository loads the given scenarios into a memory repository
func BuildScenarioRepository(scenarios ...*entities.ScenarioInput) *memory.ScenarioRepository {
	repo := memory.NewScenarioRepository(len(scenarios))
	if err := repo.LoadScenarios(scenarios); err != nil {
		panic(err)
	}
	return repo
}
