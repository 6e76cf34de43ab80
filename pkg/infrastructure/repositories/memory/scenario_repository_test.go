package memory

import (
	"errors"
	"strings"
	"testing"

	"github.com/vsinha/dmfa/pkg/domain/entities"
)

func TestScenarioRepository_SaveAndGet(t *testing.T) {
	repo := NewScenarioRepository(2)

	scenario := &entities.ScenarioInput{Number: 3, Name: "high recycling"}
	if err := repo.SaveScenario(scenario); err != nil {
		t.Fatalf("Failed to save scenario: %v", err)
	}

	retrieved, err := repo.GetScenario(3)
	if err != nil {
		t.Fatalf("Failed to get scenario: %v", err)
	}
	if retrieved.Name != "high recycling" {
		t.Errorf("Expected name %q, got %q", "high recycling", retrieved.Name)
	}

	if _, err := repo.GetScenario(4); !errors.Is(err, entities.ErrScenarioNotFound) {
		t.Errorf("Expected ErrScenarioNotFound, got %v", err)
	}
}

func TestScenarioRepository_Duplicate(t *testing.T) {
	repo := NewScenarioRepository(2)

	if err := repo.SaveScenario(&entities.ScenarioInput{Number: 1, Name: "first"}); err != nil {
		t.Fatalf("Failed to save scenario: %v", err)
	}

	err := repo.SaveScenario(&entities.ScenarioInput{Number: 1, Name: "second"})
	if err == nil || !strings.Contains(err.Error(), "duplicate scenario number") {
		t.Errorf("Expected duplicate error, got %v", err)
	}

	err = repo.LoadScenarios([]*entities.ScenarioInput{{Number: 2}, {Number: 2}})
	if err == nil {
		t.Fatal("Expected duplicate error within a batch")
	}
	if _, err := repo.GetScenario(2); err == nil {
		t.Error("Expected a rejected batch to store nothing")
	}
}

func TestScenarioRepository_GetAllSorted(t *testing.T) {
	repo := NewScenarioRepository(3)
	err := repo.LoadScenarios([]*entities.ScenarioInput{
		{Number: 3, Name: "c"},
		{Number: 1, Name: "a"},
		{Number: 2, Name: "b"},
	})
	if err != nil {
		t.Fatalf("Failed to load scenarios: %v", err)
	}

	all, err := repo.GetAllScenarios()
	if err != nil {
		t.Fatalf("Failed to get scenarios: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 scenarios, got %d", len(all))
	}
	for i, s := range all {
		if s.Number != i+1 {
			t.Errorf("Position %d: expected scenario %d, got %d", i, i+1, s.Number)
		}
	}
}
