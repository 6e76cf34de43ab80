package repositories

import "github.com/vsinha/dmfa/pkg/domain/entities"

// ScenarioRepository provides access to scenario input data
type ScenarioRepository interface {
	GetScenario(number int) (*entities.ScenarioInput, error)
	GetAllScenarios() ([]*entities.ScenarioInput, error)
	LoadScenarios(scenarios []*entities.ScenarioInput) error
	SaveScenario(scenario *entities.ScenarioInput) error
}
