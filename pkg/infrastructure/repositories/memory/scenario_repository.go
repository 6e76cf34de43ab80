package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/dmfa/pkg/domain/entities"
	"github.com/vsinha/dmfa/pkg/domain/repositories"
)

// ScenarioRepository provides in-memory scenario storage, ordered by scenario number
type ScenarioRepository struct {
	scenarios    []*entities.ScenarioInput
	scenariosMap map[int]int
	mutex        sync.RWMutex
}

// NewScenarioRepository creates a new in-memory scenario repository
func NewScenarioRepository(expectedScenarios int) *ScenarioRepository {
	return &ScenarioRepository{
		scenarios:    make([]*entities.ScenarioInput, 0, expectedScenarios),
		scenariosMap: make(map[int]int, expectedScenarios),
	}
}

// Verify interface compliance
var _ repositories.ScenarioRepository = (*ScenarioRepository)(nil)

// LoadScenarios loads scenarios into the repository.
// Nothing is stored when any scenario number is already taken.
func (r *ScenarioRepository) LoadScenarios(scenarios []*entities.ScenarioInput) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	seen := make(map[int]bool, len(scenarios))
	for _, s := range scenarios {
		if _, exists := r.scenariosMap[s.Number]; exists || seen[s.Number] {
			return fmt.Errorf("duplicate scenario number: %d", s.Number)
		}
		seen[s.Number] = true
	}
	for _, s := range scenarios {
		r.add(s)
	}
	return nil
}

// SaveScenario stores a scenario, rejecting a number that is already taken
func (r *ScenarioRepository) SaveScenario(scenario *entities.ScenarioInput) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.scenariosMap[scenario.Number]; exists {
		return fmt.Errorf("duplicate scenario number: %d", scenario.Number)
	}
	r.add(scenario)
	return nil
}

func (r *ScenarioRepository) add(scenario *entities.ScenarioInput) {
	r.scenariosMap[scenario.Number] = len(r.scenarios)
	r.scenarios = append(r.scenarios, scenario)
}

// GetScenario returns the scenario with the given number
func (r *ScenarioRepository) GetScenario(number int) (*entities.ScenarioInput, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	index, exists := r.scenariosMap[number]
	if !exists {
		return nil, fmt.Errorf("%w: %d", entities.ErrScenarioNotFound, number)
	}
	return r.scenarios[index], nil
}

// GetAllScenarios returns every scenario sorted by number
func (r *ScenarioRepository) GetAllScenarios() ([]*entities.ScenarioInput, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	scenarios := append([]*entities.ScenarioInput(nil), r.scenarios...)
	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].Number < scenarios[j].Number
	})
	return scenarios, nil
}
