// Package layered builds the carrier layer and the substance layers riding
// inside it, and applies the export-lag and production corrections.
package layered

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/vsinha/dmfa/pkg/application/dto"
	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/services"
	"github.com/vsinha/dmfa/pkg/domain/services/network"
	"github.com/vsinha/dmfa/pkg/domain/services/stockmodel"
)

// EngineConfig holds configuration for the layered build
type EngineConfig struct {
	// Lifespan is the mean and standard deviation of product lifetime, in years
	Lifespan float64
	// ExportLagYears delays carrier exports relative to when they leave the use phase
	ExportLagYears int
	// NegativeInflowPolicy is applied by the stock-driven carrier model
	NegativeInflowPolicy stockmodel.NegativeInflowPolicy
	// ValidateTransferCoefficients rejects tables that route more than 100% out of a node
	ValidateTransferCoefficients bool
	// ConcurrentSubstances solves the substance layers in parallel
	ConcurrentSubstances bool
	// CarrierMaterial names the material of the carrier layer
	CarrierMaterial string
}

// DefaultEngineConfig returns the configuration used for published scenarios
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Lifespan:                     entities.DefaultLifespan,
		ExportLagYears:               5,
		NegativeInflowPolicy:         stockmodel.RedistributeDeficit,
		ValidateTransferCoefficients: true,
		ConcurrentSubstances:         true,
		CarrierMaterial:              "plastic",
	}
}

// LayeredDMFAService builds one LayeredDMFA per scenario. It holds no
// per-scenario state and is safe for concurrent use.
type LayeredDMFAService struct {
	config    EngineConfig
	validator *services.TransferCoefficientValidator
	logger    *slog.Logger
}

// NewLayeredDMFAService creates a new service with default configuration
func NewLayeredDMFAService() *LayeredDMFAService {
	return NewLayeredDMFAServiceWithConfig(DefaultEngineConfig())
}

// NewLayeredDMFAServiceWithConfig creates a new service with custom configuration
func NewLayeredDMFAServiceWithConfig(config EngineConfig) *LayeredDMFAService {
	return &LayeredDMFAService{
		config:    config,
		validator: services.NewTransferCoefficientValidator(),
		logger:    slog.Default(),
	}
}

// WithLogger returns a copy of the service logging to logger
func (s *LayeredDMFAService) WithLogger(logger *slog.Logger) *LayeredDMFAService {
	clone := *s
	clone.logger = logger
	return &clone
}

// Config returns the engine configuration
func (s *LayeredDMFAService) Config() EngineConfig {
	return s.config
}

// Build computes the carrier layer, derives both substance layers from its
// corrected inflow and adds production emissions to each substance's air sink
func (s *LayeredDMFAService) Build(ctx context.Context, scenario *entities.ScenarioInput) (*dto.LayeredDMFA, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	if s.config.ValidateTransferCoefficients {
		if result := s.validator.ValidateScenario(scenario); !result.Valid() {
			return nil, fmt.Errorf("scenario %d: %w: %s",
				scenario.Number, entities.ErrInvalidTransferCoefficients, strings.Join(result.Errors, "; "))
		}
	}

	start, end := scenario.YearRange()
	cfg, err := entities.NewConfiguration(start, end, s.config.Lifespan)
	if err != nil {
		return nil, fmt.Errorf("scenario %d: %w", scenario.Number, err)
	}

	logger := s.logger.With(slog.Int("scenario", scenario.Number))
	logger.Debug("building layered dmfa", slog.Int("start", int(start)), slog.Int("end", int(end)))

	carrier, err := s.buildCarrier(cfg, scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %d: carrier: %w", scenario.Number, err)
	}
	logger.Debug("carrier layer solved", slog.String("material", carrier.Material()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layers := []network.LayerID{network.SubstanceA, network.SubstanceB}
	substances := scenario.Substances()
	solved := make([]*network.FlowNetwork, len(substances))
	errs := make([]error, len(substances))

	build := func(i int) {
		solved[i], errs[i] = s.buildSubstance(cfg, layers[i], substances[i], carrier.UsePhase().Inflow)
	}
	if s.config.ConcurrentSubstances {
		var wg sync.WaitGroup
		for i := range substances {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				build(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range substances {
			build(i)
		}
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("scenario %d: %s: %w", scenario.Number, substances[i].Name, err)
		}
		logger.Debug("substance layer solved", slog.String("layer", string(layers[i])), slog.String("material", substances[i].Name))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &dto.LayeredDMFA{
		Scenario:      scenario,
		Configuration: cfg,
		Carrier:       carrier,
		SubstanceA:    solved[0],
		SubstanceB:    solved[1],
	}, nil
}

// buildCarrier solves the carrier from its stock, lags exports and replaces
// the use-phase inflow with the mass-balance corrected one
func (s *LayeredDMFAService) buildCarrier(cfg *entities.Configuration, scenario *entities.ScenarioInput) (*network.FlowNetwork, error) {
	up, err := stockmodel.StockDriven(cfg, scenario.CarrierStock, s.config.NegativeInflowPolicy)
	if err != nil {
		return nil, err
	}

	carrier := network.New(network.Carrier, s.config.CarrierMaterial, cfg)
	if err := carrier.SetTransferCoefficients(scenario.CarrierTransferCoefficients); err != nil {
		return nil, err
	}
	if err := carrier.Solve(up); err != nil {
		return nil, err
	}
	if err := carrier.ShiftExportFlowAndStock(s.config.ExportLagYears); err != nil {
		return nil, err
	}

	corrected, err := CorrectInflow(up, carrier)
	if err != nil {
		return nil, err
	}
	if err := carrier.AttachUsePhase(corrected); err != nil {
		return nil, err
	}
	return carrier, nil
}

// buildSubstance solves one substance layer from the carrier inflow
func (s *LayeredDMFAService) buildSubstance(
	cfg *entities.Configuration,
	layer network.LayerID,
	substance *entities.SubstanceInput,
	carrierInflow []float64,
) (*network.FlowNetwork, error) {
	inflow := make([]float64, cfg.Nt)
	for t := range inflow {
		inflow[t] = carrierInflow[t] * substance.ContentShare[t]
	}

	up, err := stockmodel.InflowDriven(cfg, inflow)
	if err != nil {
		return nil, err
	}

	n := network.New(layer, substance.Name, cfg)
	if err := n.SetTransferCoefficients(substance.TransferCoefficients); err != nil {
		return nil, err
	}
	if err := n.Solve(up); err != nil {
		return nil, err
	}

	emission, err := ProductionEmission(up.Inflow, RecycledInflow(n), substance.ProductionEmissionFactor)
	if err != nil {
		return nil, err
	}
	if err := n.AddToStock(entities.DS_0, emission); err != nil {
		return nil, err
	}
	return n, nil
}

// CorrectInflow returns a copy of up whose inflow closes the carrier mass
// balance against lagged exports: inflow = stock change + dismantled + exported
func CorrectInflow(up *entities.UsePhase, carrier *network.FlowNetwork) (*entities.UsePhase, error) {
	dismantled := carrier.FlowValues(entities.F_1_2)
	exported := carrier.FlowValues(entities.F_1_9)
	if len(dismantled) != up.Periods() || len(exported) != up.Periods() {
		return nil, fmt.Errorf("%w: carrier flows do not span the use phase", entities.ErrShapeMismatch)
	}

	inflow := make([]float64, up.Periods())
	for t := range inflow {
		inflow[t] = up.StockChange[t] + dismantled[t] + exported[t]
	}
	return up.WithInflow(inflow)
}

// RecycledInflow returns the recycled material re-entering production, F_2_1 + F_4_1
func RecycledInflow(n *network.FlowNetwork) []float64 {
	recycled := make([]float64, n.Configuration().Nt)
	for _, id := range entities.RecycledFlows() {
		for t, v := range n.FlowValues(id) {
			recycled[t] += v
		}
	}
	return recycled
}

// ProductionEmission returns the air emission of producing the new, non-recycled
// part of inflow. With emission factor ef, production of p releases ef*p and
// delivers (1-ef)*p, so the release is new*ef/(1-ef).
func ProductionEmission(inflow, recycled []float64, ef float64) ([]float64, error) {
	if err := entities.ValidateEmissionFactor(ef); err != nil {
		return nil, err
	}
	if len(inflow) != len(recycled) {
		return nil, fmt.Errorf("%w: inflow has %d values, recycled %d", entities.ErrShapeMismatch, len(inflow), len(recycled))
	}

	emission := make([]float64, len(inflow))
	for t := range inflow {
		emission[t] = (inflow[t] - recycled[t]) * ef / (1 - ef)
	}
	return emission, nil
}
