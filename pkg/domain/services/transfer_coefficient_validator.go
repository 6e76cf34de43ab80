package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

// DefaultSumTolerance absorbs rounding in coefficient tables read from files
const DefaultSumTolerance = 1e-9

// TransferCoefficientValidator checks that a coefficient table never routes
// more material out of a node than enters it
type TransferCoefficientValidator struct {
	topology  entities.Topology
	tolerance float64
}

// NewTransferCoefficientValidator creates a validator for the default topology
func NewTransferCoefficientValidator() *TransferCoefficientValidator {
	return &TransferCoefficientValidator{
		topology:  entities.DefaultTopology(),
		tolerance: DefaultSumTolerance,
	}
}

// ValidationResult contains the results of transfer coefficient validation
type ValidationResult struct {
	Overallocated []Overallocation
	Errors        []string
}

// Overallocation records one node and period whose outgoing coefficients sum above one
type Overallocation struct {
	Source entities.ProcessID
	Basis  string
	Period int
	Sum    float64
}

// Valid reports whether no errors were found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// exitGroup collects the edges sharing a source and a basis
type exitGroup struct {
	source entities.ProcessID
	basis  string
	edges  []entities.FlowID
}

// ValidateTable checks a layer's table. Edges leaving the same node are grouped
// by the quantity they scale: the use phase's stock-based air loss is checked
// apart from its outflow-based exits.
func (v *TransferCoefficientValidator) ValidateTable(layer string, table entities.TransferCoefficientTable) *ValidationResult {
	result := &ValidationResult{
		Overallocated: make([]Overallocation, 0),
		Errors:        make([]string, 0),
	}

	groups := v.buildExitGroups()

	for _, edge := range v.topology.Edges {
		series, ok := table[edge.ID]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: missing transfer coefficients for %s", layer, edge.ID))
			continue
		}
		for t, c := range series {
			if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s: %s has invalid coefficient %v at period %d", layer, edge.ID, c, t))
			}
		}
	}

	for _, group := range groups {
		periods := 0
		for _, id := range group.edges {
			if len(table[id]) > periods {
				periods = len(table[id])
			}
		}

		for t := 0; t < periods; t++ {
			sum := 0.0
			for _, id := range group.edges {
				if series := table[id]; t < len(series) {
					sum += series[t]
				}
			}
			if sum > 1+v.tolerance {
				result.Overallocated = append(result.Overallocated, Overallocation{
					Source: group.source,
					Basis:  group.basis,
					Period: t,
					Sum:    sum,
				})
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s: coefficients leaving %s (%s) sum to %.6f at period %d: %v",
						layer, group.source, group.basis, sum, t, group.edges))
			}
		}
	}

	return result
}

// buildExitGroups groups edges by source node and basis, in a stable order
func (v *TransferCoefficientValidator) buildExitGroups() []exitGroup {
	index := make(map[string]int)
	groups := make([]exitGroup, 0)

	for _, edge := range v.topology.Edges {
		basis := "upstream"
		switch edge.Basis {
		case entities.BasisUsePhaseStock:
			basis = "stock"
		case entities.BasisUsePhaseOutflow:
			basis = "outflow"
		}

		key := fmt.Sprintf("%d|%s", edge.Source, basis)
		i, exists := index[key]
		if !exists {
			i = len(groups)
			index[key] = i
			groups = append(groups, exitGroup{source: edge.Source, basis: basis})
		}
		groups[i].edges = append(groups[i].edges, edge.ID)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].source < groups[b].source
	})
	return groups
}

// ValidateScenario validates the carrier and both substance tables of a scenario
func (v *TransferCoefficientValidator) ValidateScenario(scenario *entities.ScenarioInput) *ValidationResult {
	result := v.ValidateTable("carrier", scenario.CarrierTransferCoefficients)
	for _, sub := range scenario.Substances() {
		r := v.ValidateTable(sub.Name, sub.TransferCoefficients)
		result.Overallocated = append(result.Overallocated, r.Overallocated...)
		result.Errors = append(result.Errors, r.Errors...)
	}
	return result
}
