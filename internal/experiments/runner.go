package experiments

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/output"
	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/simulator"
)

// Result aggregates one scenario's replications.
type Result struct {
	Scenario     string
	Replications int

	MeanProfit   float64
	ProfitCILow  float64
	ProfitCIHigh float64
	MeanRevenue  float64
	MeanServed   float64

	Days []*models.DayMetrics
}

// Runner executes replicated days per scenario. Replication r of every
// scenario uses base seed + r, so scenarios are compared under common random
// numbers.
type Runner struct {
	base *models.Config
	log  zerolog.Logger
	sink output.Sink // nil means results are not exported

	ShowProgress bool
}

func NewRunner(base *models.Config, log zerolog.Logger, sink output.Sink) *Runner {
	return &Runner{base: base, log: log, sink: sink}
}

// RunScenario executes all replications of one scenario and exports per-day
// rows plus a scenario summary.
func (r *Runner) RunScenario(sc Scenario) (*Result, error) {
	cfg := sc.Apply(r.base)
	reps := cfg.Experiments.Replications
	if reps <= 0 {
		reps = 1
	}
	level := cfg.Experiments.ConfidenceLevel
	if level <= 0 || level >= 1 {
		level = 0.95
	}

	var bar *progressbar.ProgressBar
	if r.ShowProgress {
		bar = progressbar.Default(int64(reps), sc.Name)
	}

	res := &Result{Scenario: sc.Name, Replications: reps}
	profits := make([]float64, 0, reps)
	revenueSum, servedSum := 0.0, 0.0

	for rep := 0; rep < reps; rep++ {
		seed := cfg.Sim.BaseSeed + int64(rep)
		day, err := simulator.RunDay(cfg, seed, r.log)
		if err != nil {
			return nil, fmt.Errorf("scenario %s replication %d: %w", sc.Name, rep, err)
		}
		res.Days = append(res.Days, day)
		profits = append(profits, day.Profit)
		revenueSum += day.Revenue
		for _, n := range day.ServedByChannel {
			servedSum += float64(n)
		}

		if err := r.exportDay(sc.Name, day); err != nil {
			return nil, err
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	res.MeanProfit, res.ProfitCILow, res.ProfitCIHigh = meanCI(profits, level)
	res.MeanRevenue = revenueSum / float64(reps)
	res.MeanServed = servedSum / float64(reps)

	r.log.Info().
		Str("scenario", sc.Name).
		Int("replications", reps).
		Float64("mean_profit", res.MeanProfit).
		Float64("ci_low", res.ProfitCILow).
		Float64("ci_high", res.ProfitCIHigh).
		Msg("scenario completed")

	return res, r.exportSummary(res)
}

// RunAll executes every scenario in order against the shared baseline.
func (r *Runner) RunAll(scenarios []Scenario) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, sc := range scenarios {
		res, err := r.RunScenario(sc)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) exportDay(scenario string, day *models.DayMetrics) error {
	if r.sink == nil {
		return nil
	}

	summary, err := json.Marshal(output.NewDaySummaryRecord(scenario, day))
	if err != nil {
		return err
	}
	if err := r.sink.WriteMessage(output.TopicDaySummaries, summary); err != nil {
		return fmt.Errorf("writing day summary: %w", err)
	}

	for _, rec := range output.NewSeriesBinRecords(scenario, day) {
		msg, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := r.sink.WriteMessage(output.TopicSeriesBins, msg); err != nil {
			return fmt.Errorf("writing series bin: %w", err)
		}
	}

	for _, rec := range output.NewOrderEventRecords(scenario, day) {
		msg, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := r.sink.WriteMessage(output.TopicOrderEvents, msg); err != nil {
			return fmt.Errorf("writing order event: %w", err)
		}
	}
	return nil
}

func (r *Runner) exportSummary(res *Result) error {
	if r.sink == nil {
		return nil
	}
	msg, err := json.Marshal(output.ScenarioSummaryRecord{
		Scenario:     res.Scenario,
		Replications: int32(res.Replications),
		MeanProfit:   res.MeanProfit,
		ProfitCILow:  res.ProfitCILow,
		ProfitCIHigh: res.ProfitCIHigh,
		MeanRevenue:  res.MeanRevenue,
		MeanServed:   res.MeanServed,
	})
	if err != nil {
		return err
	}
	if err := r.sink.WriteMessage(output.TopicScenarios, msg); err != nil {
		return fmt.Errorf("writing scenario summary: %w", err)
	}
	return nil
}
