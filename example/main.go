package main

import (
	"context"
	"fmt"

	"github.com/vsinha/dmfa/pkg/application/services/impacts"
	"github.com/vsinha/dmfa/pkg/application/services/layered"
	"github.com/vsinha/dmfa/pkg/application/services/summary"
	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/services/network"
	"github.com/vsinha/dmfa/pkg/domain/services/stockmodel"
)

func main() {
	ctx := context.Background()

	// A fleet whose plastic stock grows for a decade and then shrinks
	scenario := buildScenario()

	config := layered.DefaultEngineConfig()
	config.ExportLagYears = 2
	config.NegativeInflowPolicy = stockmodel.RedistributeDeficit
	service := layered.NewLayeredDMFAServiceWithConfig(config)

	fmt.Println("🚗 Building layered DMFA for car plastics...")
	start, end := scenario.YearRange()
	fmt.Printf("Horizon: %d-%d | Lifespan: %.0f years | Export lag: %d years\n",
		start, end, config.Lifespan, config.ExportLagYears)
	fmt.Println()

	built, err := service.Build(ctx, scenario)
	if err != nil {
		fmt.Printf("❌ Build failed: %v\n", err)
		return
	}

	weighted, err := impacts.Calculate(built)
	if err != nil {
		fmt.Printf("❌ Impact calculation failed: %v\n", err)
		return
	}

	s := summary.NewSummarizer().Summarize(built, weighted)

	fmt.Println("📊 Layer Results:")
	for _, layer := range s.Layers {
		fmt.Printf("  %s (%s)\n", layer.Layer, layer.Material)
		fmt.Printf("    Total inflow: %s kg | Final stock: %s kg\n", layer.TotalInflow, layer.FinalStock)
		for _, sink := range layer.Sinks {
			fmt.Printf("    %-6s -> %-22s %s kg\n", sink.Stock, sink.Process, sink.Total)
		}
		fmt.Printf("    Recycled share of inflow: %s%%\n", layer.RecycledShare)
	}
	fmt.Println()

	// Production emissions are added to the substance air sink
	fmt.Println("🏭 Substance air emissions per year:")
	for _, n := range []*network.FlowNetwork{built.SubstanceA, built.SubstanceB} {
		air := n.StockValues(entities.DS_0)
		fmt.Printf("  %-8s first: %.4f kg, last: %.4f kg\n", n.Material(), air[0], air[len(air)-1])
	}
	fmt.Println()

	fmt.Println("🌍 Impacts:")
	fmt.Printf("  CO2 from incineration: %s kg\n", s.CO2)
	fmt.Printf("  Human health:          %s DALY\n", s.HumanHealth)
	fmt.Printf("  Ecosystem health:      %s species.yr\n", s.EcosystemHealth)
}

func buildScenario() *entities.ScenarioInput {
	years := make([]entities.Year, 0, 20)
	stock := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		years = append(years, entities.Year(2010+i))
		if i < 10 {
			stock = append(stock, 5.0e7+2.0e6*float64(i))
		} else {
			stock = append(stock, 6.8e7-1.5e6*float64(i-9))
		}
	}
	nt := len(years)

	return &entities.ScenarioInput{
		Number:                      1,
		Name:                        "example",
		Years:                       years,
		CarrierStock:                stock,
		CarrierTransferCoefficients: routing(nt, 0.001),
		SubstanceA: entities.SubstanceInput{
			Name:                     "decaBDE",
			ContentShare:             constant(nt, 0.0015),
			TransferCoefficients:     routing(nt, 0.0001),
			ProductionEmissionFactor: 0.0001,
			CO2Conversion:            0.055047,
			CharacterizationFactors: []entities.CharacterizationFactor{
				{Category: "human carcinogenic toxicity", Area: entities.HumanHealth, Midpoint: 12.5, Endpoint: 4.1e-5},
			},
		},
		SubstanceB: entities.SubstanceInput{
			Name:                     "TPP",
			ContentShare:             constant(nt, 0.004),
			TransferCoefficients:     routing(nt, 0.0005),
			ProductionEmissionFactor: 0.002,
			CO2Conversion:            2.4273,
			CharacterizationFactors: []entities.CharacterizationFactor{
				{Category: "freshwater ecotoxicity", Area: entities.EcosystemHealth, Midpoint: 210, Endpoint: 1.5e-7},
			},
		},
		CO2EndpointFactors: entities.CO2EndpointFactors{
			HumanHealth: 9.28e-7,
			Terrestrial: 2.8e-9,
			Freshwater:  7.65e-14,
		},
	}
}

// routing dismantles most end-of-life vehicles and splits the rest between
// exports and water; air is the yearly loss from the standing stock
func routing(nt int, air float64) entities.TransferCoefficientTable {
	table := entities.UniformTransferCoefficients(nt, 0)
	set := func(id entities.FlowID, v float64) { table[id] = constant(nt, v) }

	set(entities.F_1_0, air)
	set(entities.F_1_2, 0.75)
	set(entities.F_1_9, 0.2)
	set(entities.F_1_10, 0.02)
	set(entities.F_2_0, 0.001)
	set(entities.F_2_1, 0.05)
	set(entities.F_2_3, 0.35)
	set(entities.F_2_4, 0.3)
	set(entities.F_3_0, 0.01)
	set(entities.F_3_8, 0.2)
	set(entities.F_3_10, 0.001)
	set(entities.F_4_0, 0.001)
	set(entities.F_4_1, 0.6)
	set(entities.F_4_3, 0.3)
	set(entities.F_4_10, 0.01)
	return table
}

func constant(n int, v float64) []float64 {
	series := make([]float64, n)
	for i := range series {
		series[i] = v
	}
	return series
}
