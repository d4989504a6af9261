package output

import (
	"fmt"
	"log"

	"github.com/xitongsys/parquet-go/schema"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
)

const (
	TopicDaySummaries = "day_summaries"
	TopicSeriesBins   = "series_bins"
	TopicScenarios    = "scenario_summaries"
	TopicOrderEvents  = "order_events"
)

// DaySummaryRecord is the flat per-replication row written to sinks.
type DaySummaryRecord struct {
	Scenario        string  `json:"scenario" parquet:"name=scenario, type=BYTE_ARRAY, convertedtype=UTF8"`
	Seed            int64   `json:"seed" parquet:"name=seed, type=INT64"`
	Profit          float64 `json:"profit" parquet:"name=profit, type=DOUBLE"`
	Revenue         float64 `json:"revenue" parquet:"name=revenue, type=DOUBLE"`
	COGS            float64 `json:"cogs" parquet:"name=cogs, type=DOUBLE"`
	Wages           float64 `json:"wages" parquet:"name=wages, type=DOUBLE"`
	Penalties       float64 `json:"penalties" parquet:"name=penalties, type=DOUBLE"`
	BalkLoss        float64 `json:"balk_loss" parquet:"name=balk_loss, type=DOUBLE"`
	RenegeLoss      float64 `json:"renege_loss" parquet:"name=renege_loss, type=DOUBLE"`
	Arrivals        int32   `json:"arrivals" parquet:"name=arrivals, type=INT32"`
	Served          int32   `json:"served" parquet:"name=served, type=INT32"`
	Balked          int32   `json:"balked" parquet:"name=balked, type=INT32"`
	Reneged         int32   `json:"reneged" parquet:"name=reneged, type=INT32"`
	MobileReadyRate float64 `json:"mobile_ready_rate" parquet:"name=mobile_ready_rate, type=DOUBLE"`
}

// SeriesBinRecord is one time bin of one replication.
type SeriesBinRecord struct {
	Scenario string  `json:"scenario" parquet:"name=scenario, type=BYTE_ARRAY, convertedtype=UTF8"`
	Seed     int64   `json:"seed" parquet:"name=seed, type=INT64"`
	StartMin float64 `json:"start_min" parquet:"name=start_min, type=DOUBLE"`
	Arrivals int32   `json:"arrivals" parquet:"name=arrivals, type=INT32"`
	Served   int32   `json:"served" parquet:"name=served, type=INT32"`
	Balked   int32   `json:"balked" parquet:"name=balked, type=INT32"`
	Reneged  int32   `json:"reneged" parquet:"name=reneged, type=INT32"`
	Revenue  float64 `json:"revenue" parquet:"name=revenue, type=DOUBLE"`
}

// ScenarioSummaryRecord aggregates the replications of one scenario.
type ScenarioSummaryRecord struct {
	Scenario     string  `json:"scenario" parquet:"name=scenario, type=BYTE_ARRAY, convertedtype=UTF8"`
	Replications int32   `json:"replications" parquet:"name=replications, type=INT32"`
	MeanProfit   float64 `json:"mean_profit" parquet:"name=mean_profit, type=DOUBLE"`
	ProfitCILow  float64 `json:"profit_ci_low" parquet:"name=profit_ci_low, type=DOUBLE"`
	ProfitCIHigh float64 `json:"profit_ci_high" parquet:"name=profit_ci_high, type=DOUBLE"`
	MeanRevenue  float64 `json:"mean_revenue" parquet:"name=mean_revenue, type=DOUBLE"`
	MeanServed   float64 `json:"mean_served" parquet:"name=mean_served, type=DOUBLE"`
}

// NewDaySummaryRecord flattens a day's metrics into a sink row.
func NewDaySummaryRecord(scenario string, m *models.DayMetrics) DaySummaryRecord {
	return DaySummaryRecord{
		Scenario:        scenario,
		Seed:            m.Seed,
		Profit:          m.Profit,
		Revenue:         m.Revenue,
		COGS:            m.COGS,
		Wages:           m.Wages,
		Penalties:       m.Penalties,
		BalkLoss:        m.BalkLoss,
		RenegeLoss:      m.RenegeLoss,
		Arrivals:        sumCounts(m.ArrivalsByChannel),
		Served:          sumCounts(m.ServedByChannel),
		Balked:          sumCounts(m.BalkedByChannel),
		Reneged:         sumCounts(m.RenegedByChannel),
		MobileReadyRate: m.MobileReadyRate,
	}
}

// NewSeriesBinRecords flattens a day's time bins into sink rows.
func NewSeriesBinRecords(scenario string, m *models.DayMetrics) []SeriesBinRecord {
	out := make([]SeriesBinRecord, 0, len(m.Bins))
	for _, b := range m.Bins {
		out = append(out, SeriesBinRecord{
			Scenario: scenario,
			Seed:     m.Seed,
			StartMin: b.StartMin,
			Arrivals: int32(b.Arrivals),
			Served:   int32(b.Served),
			Balked:   int32(b.Balked),
			Reneged:  int32(b.Reneged),
			Revenue:  b.Revenue,
		})
	}
	return out
}

// OrderEventRecord is one customer order in the per-order telemetry stream.
type OrderEventRecord struct {
	Scenario   string  `json:"scenario" parquet:"name=scenario, type=BYTE_ARRAY, convertedtype=UTF8"`
	Seed       int64   `json:"seed" parquet:"name=seed, type=INT64"`
	Ref        string  `json:"ref" parquet:"name=ref, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name       string  `json:"name" parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Channel    string  `json:"channel" parquet:"name=channel, type=BYTE_ARRAY, convertedtype=UTF8"`
	Status     string  `json:"status" parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArrivalMin float64 `json:"arrival_min" parquet:"name=arrival_min, type=DOUBLE"`
	Items      int32   `json:"items" parquet:"name=items, type=INT32"`
	Value      float64 `json:"value" parquet:"name=value, type=DOUBLE"`
}

// NewOrderEventRecords flattens a day's order telemetry into sink rows.
func NewOrderEventRecords(scenario string, m *models.DayMetrics) []OrderEventRecord {
	out := make([]OrderEventRecord, 0, len(m.Orders))
	for _, o := range m.Orders {
		out = append(out, OrderEventRecord{
			Scenario:   scenario,
			Seed:       m.Seed,
			Ref:        o.Ref,
			Name:       o.Name,
			Channel:    o.Channel,
			Status:     o.Status,
			ArrivalMin: o.ArrivalMin,
			Items:      int32(o.Items),
			Value:      o.Value,
		})
	}
	return out
}

func sumCounts(m map[string]int) int32 {
	total := 0
	for _, v := range m {
		total += v
	}
	return int32(total)
}

// GetSchema resolves the parquet schema handler for a topic.
func GetSchema(topic string) (*schema.SchemaHandler, error) {
	var sh *schema.SchemaHandler
	var err error

	switch topic {
	case TopicDaySummaries:
		sh, err = schema.NewSchemaHandlerFromStruct(new(DaySummaryRecord))
	case TopicSeriesBins:
		sh, err = schema.NewSchemaHandlerFromStruct(new(SeriesBinRecord))
	case TopicScenarios:
		sh, err = schema.NewSchemaHandlerFromStruct(new(ScenarioSummaryRecord))
	case TopicOrderEvents:
		sh, err = schema.NewSchemaHandlerFromStruct(new(OrderEventRecord))
	default:
		return nil, fmt.Errorf("unknown topic: %s", topic)
	}

	if err != nil {
		log.Printf("Error creating schema for %s: %v", topic, err)
		return nil, fmt.Errorf("error creating schema for %s: %w", topic, err)
	}
	return sh, nil
}
