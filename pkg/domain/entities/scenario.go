package entities

import (
	"fmt"
	"math"
)

// ImpactArea is the endpoint area a characterization category contributes to
type ImpactArea int

const (
	HumanHealth ImpactArea = iota
	EcosystemHealth
)

// String method for ImpactArea enum
func (a ImpactArea) String() string {
	switch a {
	case HumanHealth:
		return "human_health"
	case EcosystemHealth:
		return "ecosystem"
	default:
		return "unknown"
	}
}

// CharacterizationFactor weights a substance's air emission for one impact category
type CharacterizationFactor struct {
	Category string
	Area     ImpactArea
	Midpoint float64 // kg 1,4-DCB per kg
	Endpoint float64 // DALY per kg or species.yr per kg, depending on Area
}

// CO2EndpointFactors convert CO2 from incineration to endpoint damage
type CO2EndpointFactors struct {
	HumanHealth float64 // DALY per kg
	Terrestrial float64 // species.yr per kg
	Freshwater  float64 // species.yr per kg
}

// SubstanceInput parameterises one substance layer riding inside the carrier
type SubstanceInput struct {
	Name                     string
	ContentShare             []float64
	TransferCoefficients     TransferCoefficientTable
	ProductionEmissionFactor float64
	CO2Conversion            float64 // kg CO2 per kg incinerated
	CharacterizationFactors  []CharacterizationFactor
}

// ScenarioInput is everything needed to build one LayeredDMFA
type ScenarioInput struct {
	Number                      int
	Name                        string
	Years                       []Year
	CarrierStock                []float64
	CarrierTransferCoefficients TransferCoefficientTable
	SubstanceA                  SubstanceInput
	SubstanceB                  SubstanceInput
	CO2EndpointFactors          CO2EndpointFactors
}

// YearRange returns the first and last year of the scenario
func (s *ScenarioInput) YearRange() (Year, Year) {
	if len(s.Years) == 0 {
		return 0, -1
	}
	return s.Years[0], s.Years[len(s.Years)-1]
}

// Substances returns both substance inputs in layer order
func (s *ScenarioInput) Substances() []*SubstanceInput {
	return []*SubstanceInput{&s.SubstanceA, &s.SubstanceB}
}

// Validate checks the scenario for shape and range errors
func (s *ScenarioInput) Validate() error {
	if len(s.Years) == 0 {
		return fmt.Errorf("scenario %d: %w: no years", s.Number, ErrInvalidTimeRange)
	}
	for i := 1; i < len(s.Years); i++ {
		if s.Years[i] != s.Years[i-1]+1 {
			return fmt.Errorf("scenario %d: %w: years must be contiguous, %d follows %d",
				s.Number, ErrInvalidTimeRange, s.Years[i], s.Years[i-1])
		}
	}

	nt := len(s.Years)
	if len(s.CarrierStock) != nt {
		return fmt.Errorf("scenario %d: %w: carrier stock has %d values, expected %d",
			s.Number, ErrShapeMismatch, len(s.CarrierStock), nt)
	}
	for i, v := range s.CarrierStock {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("scenario %d: %w: carrier stock is %v in %d", s.Number, ErrInvalidSeries, v, s.Years[i])
		}
	}
	if err := validateTable("carrier", s.CarrierTransferCoefficients, nt); err != nil {
		return fmt.Errorf("scenario %d: %w", s.Number, err)
	}

	for _, sub := range s.Substances() {
		if err := sub.validate(nt, s.Years); err != nil {
			return fmt.Errorf("scenario %d: %w", s.Number, err)
		}
	}
	return nil
}

func (sub *SubstanceInput) validate(nt int, years []Year) error {
	if sub.Name == "" {
		return fmt.Errorf("substance name cannot be empty")
	}
	if len(sub.ContentShare) != nt {
		return fmt.Errorf("%w: %s content share has %d values, expected %d",
			ErrShapeMismatch, sub.Name, len(sub.ContentShare), nt)
	}
	for i, v := range sub.ContentShare {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s content share must be in [0, 1], got %v in %d",
				ErrInvalidSeries, sub.Name, v, years[i])
		}
	}
	if err := ValidateEmissionFactor(sub.ProductionEmissionFactor); err != nil {
		return fmt.Errorf("%s: %w", sub.Name, err)
	}
	return validateTable(sub.Name, sub.TransferCoefficients, nt)
}

// ValidateEmissionFactor enforces 0 <= ef < 1
func ValidateEmissionFactor(ef float64) error {
	if ef < 0 || ef >= 1 || math.IsNaN(ef) {
		return fmt.Errorf("%w: got %v", ErrInvalidEmissionFactor, ef)
	}
	return nil
}

func validateTable(layer string, table TransferCoefficientTable, nt int) error {
	for _, id := range DefaultTopology().FlowIDs() {
		series, ok := table[id]
		if !ok {
			return fmt.Errorf("%w: %s transfer coefficients missing %s", ErrUnknownFlow, layer, id)
		}
		if len(series) != nt {
			return fmt.Errorf("%w: %s transfer coefficient %s has %d values, expected %d",
				ErrShapeMismatch, layer, id, len(series), nt)
		}
	}
	return nil
}
