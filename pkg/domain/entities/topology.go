package entities

// ProcessID identifies a process node of the flow network
type ProcessID int

const (
	ProcessAir                 ProcessID = 0
	ProcessUsePhase            ProcessID = 1
	ProcessDismantling         ProcessID = 2
	ProcessIncineration        ProcessID = 3
	ProcessMechanicalRecycling ProcessID = 4
	ProcessLosses              ProcessID = 8
	ProcessExports             ProcessID = 9
	ProcessWater               ProcessID = 10
)

// String method for ProcessID enum
func (p ProcessID) String() string {
	switch p {
	case ProcessAir:
		return "Air"
	case ProcessUsePhase:
		return "Use Phase"
	case ProcessDismantling:
		return "Dismantling"
	case ProcessIncineration:
		return "Incineration"
	case ProcessMechanicalRecycling:
		return "Mechanical Recycling"
	case ProcessLosses:
		return "Losses"
	case ProcessExports:
		return "Exports"
	case ProcessWater:
		return "Water"
	default:
		return "Unknown"
	}
}

// FlowID names an edge of the network, e.g. F_1_2
type FlowID string

// StockID names a terminal accumulation stock, e.g. dS_0
type StockID string

const (
	F_1_0  FlowID = "F_1_0"
	F_1_2  FlowID = "F_1_2"
	F_1_9  FlowID = "F_1_9"
	F_1_10 FlowID = "F_1_10"
	F_2_0  FlowID = "F_2_0"
	F_2_1  FlowID = "F_2_1"
	F_2_3  FlowID = "F_2_3"
	F_2_4  FlowID = "F_2_4"
	F_3_0  FlowID = "F_3_0"
	F_3_8  FlowID = "F_3_8"
	F_3_10 FlowID = "F_3_10"
	F_4_0  FlowID = "F_4_0"
	F_4_1  FlowID = "F_4_1"
	F_4_3  FlowID = "F_4_3"
	F_4_10 FlowID = "F_4_10"

	DS_0  StockID = "dS_0"
	DS_8  StockID = "dS_8"
	DS_9  StockID = "dS_9"
	DS_10 StockID = "dS_10"
)

// FlowBasis tells the solver which quantity a transfer coefficient is applied to
type FlowBasis int

const (
	// BasisUsePhaseStock scales the standing use-phase stock
	BasisUsePhaseStock FlowBasis = iota
	// BasisUsePhaseOutflow scales the use-phase outflow
	BasisUsePhaseOutflow
	// BasisUpstreamFlow scales the value of another flow solved earlier in the same period
	BasisUpstreamFlow
)

// String method for FlowBasis enum
func (b FlowBasis) String() string {
	switch b {
	case BasisUsePhaseStock:
		return "UsePhaseStock"
	case BasisUsePhaseOutflow:
		return "UsePhaseOutflow"
	case BasisUpstreamFlow:
		return "UpstreamFlow"
	default:
		return "Unknown"
	}
}

// EdgeDescriptor describes one edge of the fixed topology
type EdgeDescriptor struct {
	ID          FlowID
	Source      ProcessID
	Target      ProcessID
	Basis       FlowBasis
	Upstream    FlowID // only set for BasisUpstreamFlow
	Explanation string
}

// SinkDescriptor describes a terminal stock as the sum of its contributing edges
type SinkDescriptor struct {
	ID           StockID
	Process      ProcessID
	Contributing []FlowID
	Explanation  string
}

// Topology is the edge and sink table shared by every material layer
type Topology struct {
	Edges []EdgeDescriptor
	Sinks []SinkDescriptor
}

// DefaultTopology returns the car-plastic network. Edges are listed in solve order:
// every upstream flow precedes the edges that depend on it.
func DefaultTopology() Topology {
	return Topology{
		Edges: []EdgeDescriptor{
			{F_1_0, ProcessUsePhase, ProcessAir, BasisUsePhaseStock, "", "Flow from Use Phase to Air"},
			{F_1_2, ProcessUsePhase, ProcessDismantling, BasisUsePhaseOutflow, "", "Flow from Use Phase to Dismantling"},
			{F_1_9, ProcessUsePhase, ProcessExports, BasisUsePhaseOutflow, "", "Flow from Use Phase to Exports"},
			{F_1_10, ProcessUsePhase, ProcessWater, BasisUsePhaseOutflow, "", "Flow from Use Phase to Water"},
			{F_2_0, ProcessDismantling, ProcessAir, BasisUpstreamFlow, F_1_2, "Flow from Dismantling to Air"},
			{F_2_1, ProcessDismantling, ProcessUsePhase, BasisUpstreamFlow, F_1_2, "Flow from Dismantling to Use Phase"},
			{F_2_3, ProcessDismantling, ProcessIncineration, BasisUpstreamFlow, F_1_2, "Flow from Dismantling to Incineration"},
			{F_2_4, ProcessDismantling, ProcessMechanicalRecycling, BasisUpstreamFlow, F_1_2, "Flow from Dismantling to Mechanical Recycling"},
			{F_3_0, ProcessIncineration, ProcessAir, BasisUpstreamFlow, F_2_3, "Flow from Incineration to Air"},
			{F_3_8, ProcessIncineration, ProcessLosses, BasisUpstreamFlow, F_2_3, "Flow from Incineration to Losses"},
			{F_3_10, ProcessIncineration, ProcessWater, BasisUpstreamFlow, F_2_3, "Flow from Incineration to Water"},
			{F_4_0, ProcessMechanicalRecycling, ProcessAir, BasisUpstreamFlow, F_2_4, "Flow from Mechanical Recycling to Air"},
			{F_4_1, ProcessMechanicalRecycling, ProcessUsePhase, BasisUpstreamFlow, F_2_4, "Flow from Mechanical Recycling to Use Phase"},
			{F_4_3, ProcessMechanicalRecycling, ProcessIncineration, BasisUpstreamFlow, F_2_4, "Flow from Mechanical Recycling to Incineration"},
			{F_4_10, ProcessMechanicalRecycling, ProcessWater, BasisUpstreamFlow, F_2_4, "Flow from Mechanical Recycling to Water"},
		},
		Sinks: []SinkDescriptor{
			{DS_0, ProcessAir, []FlowID{F_1_0, F_2_0, F_3_0, F_4_0}, "Cumulative emissions to air"},
			{DS_8, ProcessLosses, []FlowID{F_3_8}, "Incineration losses"},
			{DS_9, ProcessExports, []FlowID{F_1_9}, "Exported material"},
			{DS_10, ProcessWater, []FlowID{F_1_10, F_3_10, F_4_10}, "Cumulative emissions to water"},
		},
	}
}

// FlowIDs returns the edge ids in solve order
func (t Topology) FlowIDs() []FlowID {
	ids := make([]FlowID, len(t.Edges))
	for i, e := range t.Edges {
		ids[i] = e.ID
	}
	return ids
}

// Edge looks up an edge descriptor by id
func (t Topology) Edge(id FlowID) (EdgeDescriptor, bool) {
	for _, e := range t.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return EdgeDescriptor{}, false
}

// RecycledFlows are the edges returning material to the use phase
func RecycledFlows() []FlowID {
	return []FlowID{F_2_1, F_4_1}
}

// TransferCoefficientTable maps every edge to its per-period coefficient series
type TransferCoefficientTable map[FlowID][]float64

// UniformTransferCoefficients builds a table with the same coefficient on every edge and period
func UniformTransferCoefficients(nt int, coefficient float64) TransferCoefficientTable {
	table := make(TransferCoefficientTable, len(DefaultTopology().Edges))
	for _, id := range DefaultTopology().FlowIDs() {
		series := make([]float64, nt)
		for i := range series {
			series[i] = coefficient
		}
		table[id] = series
	}
	return table
}
