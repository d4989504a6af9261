package experiments

import (
	"fmt"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
)

// Scenario is a named set of config overrides evaluated against the same
// seeds as every other scenario, so paired comparisons share random numbers.
type Scenario struct {
	Name      string
	Overrides func(cfg *models.Config)
}

// Apply clones the baseline and applies the scenario's overrides.
func (s Scenario) Apply(base *models.Config) *models.Config {
	cfg := base.Clone()
	if s.Overrides != nil {
		s.Overrides(cfg)
	}
	return cfg
}

// DefaultScenarios is the standard comparison set: the baseline plus the
// staffing, batching and policy variants worth re-examining whenever demand
// assumptions change.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "baseline"},
		{
			Name: "extra_counter",
			Overrides: func(cfg *models.Config) {
				cfg.Capacities.Counter++
				cfg.Capacities.CounterBuffer++
			},
		},
		{
			Name: "extra_espresso",
			Overrides: func(cfg *models.Config) {
				cfg.Capacities.Espresso++
			},
		},
		{
			Name: "bigger_urn",
			Overrides: func(cfg *models.Config) {
				cfg.Capacities.UrnSize *= 2
			},
		},
		{
			Name: "mobile_first_pack",
			Overrides: func(cfg *models.Config) {
				cfg.Policies.PackPriority = []string{models.ChannelMobile, models.ChannelDriveThru, models.ChannelWalkIn}
			},
		},
		{
			Name: "drive_thru_first_pack",
			Overrides: func(cfg *models.Config) {
				cfg.Policies.PackPriority = []string{models.ChannelDriveThru, models.ChannelMobile, models.ChannelWalkIn}
			},
		},
		{
			Name: "occupancy_balking",
			Overrides: func(cfg *models.Config) {
				cfg.Policies.Balking = models.BalkingPolicyOccupancy
				cfg.Policies.BalkSensitivity = 0.5
			},
		},
	}
}

// ScenarioByName resolves one scenario from the default set.
func ScenarioByName(name string) (Scenario, error) {
	for _, s := range DefaultScenarios() {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("unknown scenario: %s", name)
}
