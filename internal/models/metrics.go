package models

// WaitStats summarizes realized waits for one channel, in seconds. For
// walk-in and drive-thru the wait runs from arrival to service start; for
// mobile it is pickup lateness against the promised time.
type WaitStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
}

// BinMetrics is one fixed-width time bin of the day.
type BinMetrics struct {
	StartMin float64 `json:"start_min"`
	Arrivals int     `json:"arrivals"`
	Served   int     `json:"served"`
	Balked   int     `json:"balked"`
	Reneged  int     `json:"reneged"`
	Revenue  float64 `json:"revenue"`
}

// OrderRecord is one customer's order as it left the system, for per-order
// telemetry exports.
type OrderRecord struct {
	Ref        string  `json:"ref"`
	Name       string  `json:"name"`
	Channel    string  `json:"channel"`
	Status     string  `json:"status"`
	ArrivalMin float64 `json:"arrival_min"`
	Items      int     `json:"items"`
	Value      float64 `json:"value"`
}

// DayMetrics is the frozen end-of-day summary. It exposes no engine
// internals; callers compare configurations on it alone.
type DayMetrics struct {
	Seed int64 `json:"seed"`

	Profit     float64 `json:"profit"`
	Revenue    float64 `json:"revenue"`
	COGS       float64 `json:"cogs"`
	Wages      float64 `json:"wages"`
	Penalties  float64 `json:"penalties"`
	BalkLoss   float64 `json:"balk_loss"`
	RenegeLoss float64 `json:"renege_loss"`

	PenaltyBreakdown map[string]float64 `json:"penalty_breakdown"`

	ArrivalsByChannel map[string]int `json:"arrivals_by_channel"`
	ServedByChannel   map[string]int `json:"served_by_channel"`
	BalkedByChannel   map[string]int `json:"balked_by_channel"`
	RenegedByChannel  map[string]int `json:"reneged_by_channel"`

	WaitStats          map[string]WaitStats `json:"wait_stats"`
	SLABreaches        map[string]int       `json:"sla_breaches"`
	MobilePromised     int                  `json:"mobile_promised"`
	MobileReadyRate    float64              `json:"mobile_ready_rate"`
	StationUtilization map[string]float64   `json:"station_utilization"`

	Bins   []BinMetrics  `json:"bins"`
	Orders []OrderRecord `json:"orders,omitempty"`
}
