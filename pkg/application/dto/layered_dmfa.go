package dto

import (
	"time"

	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/services/network"
)

// LayeredDMFA contains the solved layers of one scenario
type LayeredDMFA struct {
	Scenario      *entities.ScenarioInput
	Configuration *entities.Configuration
	Carrier       *network.FlowNetwork
	SubstanceA    *network.FlowNetwork
	SubstanceB    *network.FlowNetwork
}

// Layers returns the carrier and both substance layers in order
func (l *LayeredDMFA) Layers() []*network.FlowNetwork {
	return []*network.FlowNetwork{l.Carrier, l.SubstanceA, l.SubstanceB}
}

// ScenarioResult contains the complete output of one scenario run
type ScenarioResult struct {
	Layered   *LayeredDMFA
	Impacts   *Impacts
	Summary   *ScenarioSummary
	Pathways  []*entities.PathwayAnalysis // nil unless requested
	RunID     string                      // empty unless runs are recorded
	Events    int                         // events recorded for RunID
	BuildTime time.Duration
}
