package experiments

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/simulator"
)

// Dimension is one decision variable for the optimizer: a candidate grid plus
// a setter that writes the chosen level into a config.
type Dimension struct {
	Name   string
	Levels []float64
	Apply  func(cfg *models.Config, level float64)
}

// OptResult is the final operating point found by the search.
type OptResult struct {
	Best       map[string]float64
	MeanProfit float64
	Evaluated  int
	Passes     int
}

// Optimizer runs coordinate ascent on mean profit: sweep each dimension in
// turn holding the others fixed, keep the best level, and repeat until a full
// pass changes nothing. Every candidate is evaluated on the same seed set, so
// one point beating another reflects the decision variables, not luck.
type Optimizer struct {
	base *models.Config
	dims []Dimension
	log  zerolog.Logger

	MaxPasses int
}

func NewOptimizer(base *models.Config, dims []Dimension, log zerolog.Logger) *Optimizer {
	return &Optimizer{base: base, dims: dims, log: log, MaxPasses: 5}
}

// DefaultDimensions is the standard staffing-and-policy search grid.
func DefaultDimensions(cfg *models.Config) []Dimension {
	return []Dimension{
		{
			Name:   "counter_servers",
			Levels: []float64{1, 2, 3, 4},
			Apply: func(c *models.Config, v float64) {
				n := int(v)
				c.Capacities.CounterBuffer += n - c.Capacities.Counter
				c.Capacities.Counter = n
			},
		},
		{
			Name:   "window_servers",
			Levels: []float64{1, 2, 3},
			Apply: func(c *models.Config, v float64) {
				n := int(v)
				c.Capacities.DriveLane += n - c.Capacities.Window
				c.Capacities.Window = n
			},
		},
		{
			Name:   "espresso_servers",
			Levels: []float64{1, 2, 3},
			Apply:  func(c *models.Config, v float64) { c.Capacities.Espresso = int(v) },
		},
		{
			Name:   "beverage_servers",
			Levels: []float64{1, 2, 3},
			Apply:  func(c *models.Config, v float64) { c.Capacities.Beverage = int(v) },
		},
		{
			Name:   "pack_servers",
			Levels: []float64{1, 2, 3},
			Apply:  func(c *models.Config, v float64) { c.Capacities.Pack = int(v) },
		},
		{
			Name:   "beverage_urn_size",
			Levels: []float64{float64(cfg.Capacities.UrnSize), float64(cfg.Capacities.UrnSize * 2), float64(cfg.Capacities.UrnSize * 4)},
			Apply:  func(c *models.Config, v float64) { c.Capacities.UrnSize = int(v) },
		},
		{
			Name:   "service_time_scale",
			Levels: []float64{1.0, 0.85, 1.15},
			Apply: func(c *models.Config, v float64) {
				for _, st := range serviceStations {
					c.ServiceRates[st] *= v
				}
			},
		},
		{
			Name:   "wage_scale",
			Levels: []float64{1.0, 0.9, 1.1},
			Apply: func(c *models.Config, v float64) {
				for role := range c.Costs.WagesPerHour {
					c.Costs.WagesPerHour[role] *= v
				}
			},
		},
		{
			Name:   "price_scale",
			Levels: []float64{1.0, 0.9, 1.1},
			Apply: func(c *models.Config, v float64) {
				for item := range c.Costs.Prices {
					c.Costs.Prices[item] *= v
				}
			},
		},
		{
			Name:   "penalty_scale",
			Levels: []float64{1.0, 0.5, 2.0},
			Apply: func(c *models.Config, v float64) {
				c.Penalties.MobileLate *= v
				c.Penalties.SLABreach *= v
				c.Penalties.Renege *= v
			},
		},
		{
			Name:   "pack_priority",
			Levels: []float64{0, 1, 2, 3},
			Apply: func(c *models.Config, v float64) {
				if order := packOrders[int(v)]; order != nil {
					c.Policies.PackPriority = append([]string(nil), order...)
				}
			},
		},
	}
}

// serviceStations are the station means scaled by service_time_scale; refill
// durations are equipment properties and stay fixed.
var serviceStations = []string{
	models.StationCounter, models.StationWindow, models.StationEspresso,
	models.StationHotFood, models.StationBeverage, models.StationPack,
}

// packOrders are the pack-priority candidates; level 0 keeps the configured
// priority so the search starts from the baseline policy.
var packOrders = [][]string{
	nil,
	{models.ChannelMobile, models.ChannelDriveThru, models.ChannelWalkIn},
	{models.ChannelDriveThru, models.ChannelMobile, models.ChannelWalkIn},
	{models.ChannelWalkIn, models.ChannelDriveThru, models.ChannelMobile},
}

// Run performs the search and returns the best point found.
func (o *Optimizer) Run() (*OptResult, error) {
	if len(o.dims) == 0 {
		return nil, fmt.Errorf("optimizer needs at least one dimension")
	}

	// start from the first level of every dimension
	current := make([]int, len(o.dims))
	best, err := o.evaluate(current)
	if err != nil {
		return nil, err
	}
	evaluated := 1

	passes := 0
	for passes < o.MaxPasses {
		passes++
		improved := false

		for di, dim := range o.dims {
			bestLevel := current[di]
			for li := range dim.Levels {
				if li == current[di] {
					continue
				}
				trial := append([]int(nil), current...)
				trial[di] = li
				profit, err := o.evaluate(trial)
				if err != nil {
					return nil, err
				}
				evaluated++
				if profit > best {
					best = profit
					bestLevel = li
				}
			}
			if bestLevel != current[di] {
				current[di] = bestLevel
				improved = true
				o.log.Info().
					Str("dimension", dim.Name).
					Float64("level", dim.Levels[bestLevel]).
					Float64("mean_profit", best).
					Msg("optimizer moved")
			}
		}

		if !improved {
			break
		}
	}

	point := make(map[string]float64, len(o.dims))
	for di, dim := range o.dims {
		point[dim.Name] = dim.Levels[current[di]]
	}
	return &OptResult{Best: point, MeanProfit: best, Evaluated: evaluated, Passes: passes}, nil
}

// evaluate scores one point: mean profit over the replication seed set.
func (o *Optimizer) evaluate(levels []int) (float64, error) {
	cfg := o.base.Clone()
	for di, dim := range o.dims {
		dim.Apply(cfg, dim.Levels[levels[di]])
	}
	if err := cfg.Validate(); err != nil {
		return 0, fmt.Errorf("optimizer produced invalid config: %w", err)
	}

	reps := cfg.Experiments.Replications
	if reps <= 0 {
		reps = 1
	}

	total := 0.0
	for rep := 0; rep < reps; rep++ {
		day, err := simulator.RunDay(cfg, cfg.Sim.BaseSeed+int64(rep), o.log)
		if err != nil {
			return 0, err
		}
		total += day.Profit
	}
	return total / float64(reps), nil
}
