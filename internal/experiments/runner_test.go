package experiments

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
)

// experimentConfig is a short day kept cheap enough to replicate in tests.
func experimentConfig() *models.Config {
	return &models.Config{
		ArrivalRates: models.ArrivalRates{
			WalkIn: []models.Daypart{{StartMin: 0, EndMin: 60, Rate: 0.8}},
			MobilePromises: models.MobilePromises{
				StartMin: 5, EndMin: 55, IntervalMin: 15,
				OffsetMin: 5, OffsetMax: 10,
			},
		},
		ServiceRates: map[string]float64{
			models.StationCounter:          1.0,
			models.StationWindow:           1.0,
			models.StationEspresso:         1.5,
			models.StationHotFood:          2.0,
			models.StationBeverage:         0.6,
			models.StationPack:             0.5,
			models.RateBeverageRefill:      3.0,
			models.RateEspressoMaintenance: 5.0,
		},
		Capacities: models.Capacities{
			Counter: 1, CounterBuffer: 6,
			Window: 1, DriveLane: 4,
			Espresso: 1, HotFood: 1, Beverage: 1, Pack: 1,
			EspressoBatch: 20, UrnSize: 30,
		},
		Costs: models.Costs{
			Prices: map[string]float64{
				models.ItemCoffee:   2.49,
				models.ItemEspresso: 4.29,
				models.ItemHotFood:  5.79,
			},
			COGSPct:      0.3,
			WagesPerHour: map[string]float64{"_default_": 16.0},
		},
		Penalties: models.Penalties{BalkLossPct: 0.5},
		OrderMix: map[string]map[string]float64{
			models.ChannelWalkIn: {models.ItemCoffee: 0.8},
			models.ChannelMobile: {models.ItemEspresso: 0.6},
		},
		Customers: models.Customers{Patience: map[string]models.PatienceDist{
			models.ChannelWalkIn: {Distribution: "exponential", MeanMin: 6},
		}},
		Policies:    models.Policies{Balking: models.BalkingPolicyHard},
		Sim:         models.Sim{DayMinutes: 60, WarmupMinutes: 0, BinMinutes: 15, BaseSeed: 3},
		Experiments: models.Experiments{Replications: 3, ConfidenceLevel: 0.95},
	}
}

func TestRunScenarioAggregates(t *testing.T) {
	r := NewRunner(experimentConfig(), zerolog.Nop(), nil)

	res, err := r.RunScenario(Scenario{Name: "baseline"})
	require.NoError(t, err)

	assert.Equal(t, "baseline", res.Scenario)
	assert.Equal(t, 3, res.Replications)
	assert.Len(t, res.Days, 3)
	assert.LessOrEqual(t, res.ProfitCILow, res.MeanProfit)
	assert.GreaterOrEqual(t, res.ProfitCIHigh, res.MeanProfit)

	// replication seeds are base, base+1, base+2
	assert.Equal(t, int64(3), res.Days[0].Seed)
	assert.Equal(t, int64(5), res.Days[2].Seed)
}

func TestRunScenarioDeterministic(t *testing.T) {
	a, err := NewRunner(experimentConfig(), zerolog.Nop(), nil).RunScenario(Scenario{Name: "baseline"})
	require.NoError(t, err)
	b, err := NewRunner(experimentConfig(), zerolog.Nop(), nil).RunScenario(Scenario{Name: "baseline"})
	require.NoError(t, err)

	assert.Equal(t, a.MeanProfit, b.MeanProfit)
	assert.Equal(t, a.Days, b.Days)
}

func TestScenarioApplyLeavesBaselineUntouched(t *testing.T) {
	base := experimentConfig()
	sc := Scenario{Name: "extra_counter", Overrides: func(cfg *models.Config) {
		cfg.Capacities.Counter++
		cfg.Capacities.CounterBuffer++
	}}

	applied := sc.Apply(base)
	assert.Equal(t, 2, applied.Capacities.Counter)
	assert.Equal(t, 1, base.Capacities.Counter)
}

func TestScenarioByName(t *testing.T) {
	sc, err := ScenarioByName("mobile_first_pack")
	require.NoError(t, err)
	assert.Equal(t, "mobile_first_pack", sc.Name)

	_, err = ScenarioByName("nope")
	assert.Error(t, err)
}

func TestDefaultScenariosAllValid(t *testing.T) {
	base := experimentConfig()
	for _, sc := range DefaultScenarios() {
		assert.NoError(t, sc.Apply(base).Validate(), sc.Name)
	}
}

func TestOptimizerFindsAnOperatingPoint(t *testing.T) {
	cfg := experimentConfig()
	cfg.Experiments.Replications = 2

	dims := []Dimension{
		{
			Name:   "counter_servers",
			Levels: []float64{1, 2},
			Apply: func(c *models.Config, v float64) {
				n := int(v)
				c.Capacities.CounterBuffer += n - c.Capacities.Counter
				c.Capacities.Counter = n
			},
		},
		{
			Name:   "pack_servers",
			Levels: []float64{1, 2},
			Apply:  func(c *models.Config, v float64) { c.Capacities.Pack = int(v) },
		},
	}

	opt := NewOptimizer(cfg, dims, zerolog.Nop())
	res, err := opt.Run()
	require.NoError(t, err)

	assert.Contains(t, res.Best, "counter_servers")
	assert.Contains(t, res.Best, "pack_servers")
	assert.GreaterOrEqual(t, res.Evaluated, 3)
	assert.GreaterOrEqual(t, res.Passes, 1)
}

func TestDefaultDimensionsCoverOperatingLevers(t *testing.T) {
	cfg := experimentConfig()
	dims := DefaultDimensions(cfg)

	names := make(map[string]bool, len(dims))
	for _, d := range dims {
		names[d.Name] = true
	}
	for _, want := range []string{
		"counter_servers", "window_servers", "espresso_servers",
		"beverage_servers", "pack_servers", "beverage_urn_size",
		"service_time_scale", "wage_scale", "price_scale",
		"penalty_scale", "pack_priority",
	} {
		assert.True(t, names[want], "missing dimension %s", want)
	}

	// every level of every dimension must yield a config the engine accepts
	for _, d := range dims {
		for _, level := range d.Levels {
			trial := cfg.Clone()
			d.Apply(trial, level)
			assert.NoError(t, trial.Validate(), "%s level %v", d.Name, level)
		}
	}
}

func TestPackPriorityDimensionSwapsPolicy(t *testing.T) {
	cfg := experimentConfig()
	cfg.Policies.PackPriority = []string{models.ChannelMobile, models.ChannelDriveThru, models.ChannelWalkIn}

	var dim Dimension
	for _, d := range DefaultDimensions(cfg) {
		if d.Name == "pack_priority" {
			dim = d
		}
	}
	require.NotNil(t, dim.Apply)

	kept := cfg.Clone()
	dim.Apply(kept, 0)
	assert.Equal(t, cfg.Policies.PackPriority, kept.Policies.PackPriority, "level 0 keeps the configured priority")

	swapped := cfg.Clone()
	dim.Apply(swapped, 3)
	assert.Equal(t, models.ChannelWalkIn, swapped.Policies.PackPriority[0])
}

func TestOptimizerRequiresDimensions(t *testing.T) {
	_, err := NewOptimizer(experimentConfig(), nil, zerolog.Nop()).Run()
	assert.Error(t, err)
}
