package models

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Daypart is one window of a piecewise arrival-rate profile. Rates are in
// customers per minute. EndRate, when set, ramps the rate linearly across the
// window; zero means constant.
type Daypart struct {
	StartMin float64 `mapstructure:"start"`
	EndMin   float64 `mapstructure:"end"`
	Rate     float64 `mapstructure:"rate"`
	EndRate  float64 `mapstructure:"end_rate"`
}

// Sup is the supremum of the window's rate, the candidate rate for thinning.
func (d Daypart) Sup() float64 {
	if d.EndRate > d.Rate {
		return d.EndRate
	}
	return d.Rate
}

// RateAt evaluates the (possibly ramped) rate at a time in minutes.
func (d Daypart) RateAt(tMin float64) float64 {
	if d.EndRate <= 0 || d.EndMin <= d.StartMin {
		return d.Rate
	}
	frac := (tMin - d.StartMin) / (d.EndMin - d.StartMin)
	return d.Rate + frac*(d.EndRate-d.Rate)
}

// MobilePromises configures the mobile order release cadence and the promised
// pickup offset window (minutes). When the mobile channel also has dayparts,
// the cadence is ignored and arrivals come from the NHPP instead.
type MobilePromises struct {
	StartMin    float64 `mapstructure:"start"`
	EndMin      float64 `mapstructure:"end"`
	IntervalMin float64 `mapstructure:"interval"`
	OffsetMin   float64 `mapstructure:"promise_offset_min"`
	OffsetMax   float64 `mapstructure:"promise_offset_max"`
}

type ArrivalRates struct {
	WalkIn         []Daypart      `mapstructure:"walkin"`
	DriveThru      []Daypart      `mapstructure:"drive_thru"`
	Mobile         []Daypart      `mapstructure:"mobile"`
	MobilePromises MobilePromises `mapstructure:"mobile_promises"`
}

// Capacities holds server counts, buffer/lane limits and batch sizes.
type Capacities struct {
	Counter       int `mapstructure:"counter"`
	CounterBuffer int `mapstructure:"counter_buffer"`
	Window        int `mapstructure:"window"`
	DriveLane     int `mapstructure:"drive_lane"`
	Espresso      int `mapstructure:"espresso"`
	HotFood       int `mapstructure:"hotfood"`
	Beverage      int `mapstructure:"beverage"`
	Pack          int `mapstructure:"pack"`
	EspressoBatch int `mapstructure:"espresso_batch_size"`
	UrnSize       int `mapstructure:"beverage_urn_size"`
}

// Costs holds menu prices, the COGS fraction and hourly wages per station.
// The "_default_" wage applies to stations without an explicit entry.
type Costs struct {
	Prices       map[string]float64 `mapstructure:"prices"`
	COGSPct      float64            `mapstructure:"cogs_pct"`
	WagesPerHour map[string]float64 `mapstructure:"wages_per_hour"`
}

// WageFor resolves the hourly wage for a station.
func (c Costs) WageFor(station string) float64 {
	if w, ok := c.WagesPerHour[station]; ok {
		return w
	}
	return c.WagesPerHour["_default_"]
}

// Penalties configures the monetary consequences of bad service.
type Penalties struct {
	MobileLate       float64            `mapstructure:"mobile_late"`
	SLATargetSeconds map[string]float64 `mapstructure:"sla_target_seconds"`
	SLABreach        float64            `mapstructure:"sla_breach"`
	Renege           float64            `mapstructure:"pickup_renege"`
	BalkLossPct      float64            `mapstructure:"balk_loss_pct"`
}

// PatienceDist describes a per-channel patience distribution (minutes).
type PatienceDist struct {
	Distribution string  `mapstructure:"distribution"` // exponential | uniform | fixed
	MeanMin      float64 `mapstructure:"mean"`
	MinMin       float64 `mapstructure:"min"`
	MaxMin       float64 `mapstructure:"max"`
}

type Customers struct {
	Patience map[string]PatienceDist `mapstructure:"patience"`
}

// Policies holds the operational knobs that change behavior without changing
// capacity: pack priority and the balking rule.
type Policies struct {
	PackPriority    []string `mapstructure:"pack_priority"`
	Balking         string   `mapstructure:"balking"`
	BalkSensitivity float64  `mapstructure:"balk_sensitivity"`
}

type Sim struct {
	DayMinutes    float64 `mapstructure:"day_minutes"`
	WarmupMinutes float64 `mapstructure:"warmup_minutes"`
	BinMinutes    float64 `mapstructure:"bin_minutes"`
	BaseSeed      int64   `mapstructure:"base_seed"`
}

type CloudStorage struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Output selects where end-of-day results go. The engine itself never touches
// this; only the experiment runner does.
type Output struct {
	Format          string         `mapstructure:"format"` // console | json | csv | parquet | postgres
	Path            string         `mapstructure:"path"`
	Folder          string         `mapstructure:"folder"`
	Destination     string         `mapstructure:"destination"` // local | s3
	KafkaEnabled    bool           `mapstructure:"kafka_enabled"`
	KafkaBrokerList string         `mapstructure:"kafka_broker_list"`
	CloudStorage    CloudStorage   `mapstructure:"cloud_storage"`
	Database        DatabaseConfig `mapstructure:"database"`
}

type Experiments struct {
	Replications    int     `mapstructure:"replications"`
	ConfidenceLevel float64 `mapstructure:"confidence_level"`
}

// Config is the full validated simulation configuration. Service rate means
// are in minutes; the engine clock runs in seconds and converts at station
// construction.
type Config struct {
	ArrivalRates ArrivalRates                  `mapstructure:"arrival_rates"`
	ServiceRates map[string]float64            `mapstructure:"service_rates"`
	Capacities   Capacities                    `mapstructure:"capacities"`
	Costs        Costs                         `mapstructure:"costs"`
	Penalties    Penalties                     `mapstructure:"penalties"`
	Customers    Customers                     `mapstructure:"customers"`
	OrderMix     map[string]map[string]float64 `mapstructure:"order_mix"`
	Policies     Policies                      `mapstructure:"policies"`
	Sim          Sim                           `mapstructure:"sim"`
	Output       Output                        `mapstructure:"output"`
	Experiments  Experiments                   `mapstructure:"experiments"`
}

// LoadConfig reads and decodes the YAML config using viper.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath("examples")
		v.SetConfigName("baseline")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	opt := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = false
	})
	if err := v.Unmarshal(&config, opt); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

var serviceRateStations = []string{
	StationCounter, StationWindow, StationEspresso, StationHotFood, StationBeverage, StationPack,
}

// Validate checks every recognized field and returns a ConfigError on the
// first violation. A config that fails here never schedules an event.
func (cfg *Config) Validate() error {
	if cfg.Sim.DayMinutes <= 0 {
		return configErrorf("sim.day_minutes", "must be positive, got %v", cfg.Sim.DayMinutes)
	}
	if cfg.Sim.WarmupMinutes < 0 || cfg.Sim.WarmupMinutes >= cfg.Sim.DayMinutes {
		return configErrorf("sim.warmup_minutes", "must be in [0, day_minutes), got %v", cfg.Sim.WarmupMinutes)
	}
	if cfg.Sim.BinMinutes <= 0 {
		return configErrorf("sim.bin_minutes", "must be positive, got %v", cfg.Sim.BinMinutes)
	}

	for _, s := range serviceRateStations {
		mean, ok := cfg.ServiceRates[s]
		if !ok {
			return configErrorf("service_rates."+s, "missing mean service time")
		}
		if mean <= 0 {
			return configErrorf("service_rates."+s, "mean service time must be positive, got %v", mean)
		}
	}
	for _, key := range []string{RateBeverageRefill, RateEspressoMaintenance} {
		mean, ok := cfg.ServiceRates[key]
		if !ok {
			return configErrorf("service_rates."+key, "missing refill duration")
		}
		if mean <= 0 {
			return configErrorf("service_rates."+key, "refill duration must be positive, got %v", mean)
		}
	}
	for name, mean := range cfg.ServiceRates {
		if mean < 0 {
			return configErrorf("service_rates."+name, "must be non-negative, got %v", mean)
		}
	}

	caps := cfg.Capacities
	for _, c := range []struct {
		field string
		n     int
	}{
		{"counter", caps.Counter},
		{"window", caps.Window},
		{"espresso", caps.Espresso},
		{"hotfood", caps.HotFood},
		{"beverage", caps.Beverage},
		{"pack", caps.Pack},
	} {
		if c.n <= 0 {
			return configErrorf("capacities."+c.field, "server count must be positive, got %d", c.n)
		}
	}
	if caps.CounterBuffer < caps.Counter {
		return configErrorf("capacities.counter_buffer", "must be at least the counter server count, got %d", caps.CounterBuffer)
	}
	if caps.DriveLane < caps.Window {
		return configErrorf("capacities.drive_lane", "must be at least the window server count, got %d", caps.DriveLane)
	}
	if caps.EspressoBatch <= 0 {
		return configErrorf("capacities.espresso_batch_size", "must be positive, got %d", caps.EspressoBatch)
	}
	if caps.UrnSize <= 0 {
		return configErrorf("capacities.beverage_urn_size", "must be positive, got %d", caps.UrnSize)
	}

	if cfg.Costs.COGSPct < 0 || cfg.Costs.COGSPct >= 1 {
		return configErrorf("costs.cogs_pct", "must be in [0, 1), got %v", cfg.Costs.COGSPct)
	}
	for _, item := range ItemKinds {
		price, ok := cfg.Costs.Prices[item]
		if !ok {
			return configErrorf("costs.prices."+item, "missing price")
		}
		if price < 0 {
			return configErrorf("costs.prices."+item, "must be non-negative, got %v", price)
		}
	}
	if _, ok := cfg.Costs.WagesPerHour["_default_"]; !ok {
		return configErrorf("costs.wages_per_hour._default_", "missing default wage")
	}
	for station, w := range cfg.Costs.WagesPerHour {
		if w < 0 {
			return configErrorf("costs.wages_per_hour."+station, "must be non-negative, got %v", w)
		}
	}

	if cfg.Penalties.BalkLossPct < 0 || cfg.Penalties.BalkLossPct > 1 {
		return configErrorf("penalties.balk_loss_pct", "must be in [0, 1], got %v", cfg.Penalties.BalkLossPct)
	}

	validChannel := map[string]bool{}
	for _, ch := range Channels {
		validChannel[ch] = true
	}
	for ch, mix := range cfg.OrderMix {
		if !validChannel[ch] {
			return configErrorf("order_mix."+ch, "unknown channel")
		}
		for item, p := range mix {
			if PrepStationForItem[item] == "" {
				return configErrorf(fmt.Sprintf("order_mix.%s.%s", ch, item), "unknown item kind")
			}
			if p < 0 || p > 1 {
				return configErrorf(fmt.Sprintf("order_mix.%s.%s", ch, item), "probability must be in [0, 1], got %v", p)
			}
		}
	}

	for ch, dist := range cfg.Customers.Patience {
		if !validChannel[ch] {
			return configErrorf("customers.patience."+ch, "unknown channel")
		}
		switch dist.Distribution {
		case "exponential", "fixed":
			if dist.MeanMin <= 0 {
				return configErrorf("customers.patience."+ch+".mean", "must be positive, got %v", dist.MeanMin)
			}
		case "uniform":
			if dist.MinMin < 0 || dist.MaxMin <= dist.MinMin {
				return configErrorf("customers.patience."+ch, "uniform bounds require 0 <= min < max")
			}
		default:
			return configErrorf("customers.patience."+ch+".distribution",
				"unknown distribution %q", dist.Distribution)
		}
	}

	switch cfg.Policies.Balking {
	case "", BalkingPolicyHard, BalkingPolicyOccupancy:
	default:
		return configErrorf("policies.balking", "unknown policy %q", cfg.Policies.Balking)
	}
	for _, ch := range cfg.Policies.PackPriority {
		if !validChannel[ch] {
			return configErrorf("policies.pack_priority", "unknown channel %q", ch)
		}
	}

	for _, chDayparts := range []struct {
		name  string
		parts []Daypart
	}{
		{"walkin", cfg.ArrivalRates.WalkIn},
		{"drive_thru", cfg.ArrivalRates.DriveThru},
		{"mobile", cfg.ArrivalRates.Mobile},
	} {
		for i, d := range chDayparts.parts {
			field := fmt.Sprintf("arrival_rates.%s[%d]", chDayparts.name, i)
			if d.EndMin <= d.StartMin {
				return configErrorf(field, "daypart end must follow start")
			}
			if d.Rate < 0 || d.EndRate < 0 {
				return configErrorf(field, "rates must be non-negative")
			}
			if i > 0 && d.StartMin < chDayparts.parts[i-1].EndMin {
				return configErrorf(field, "dayparts must be ordered and non-overlapping")
			}
		}
	}
	mp := cfg.ArrivalRates.MobilePromises
	if mp.IntervalMin < 0 {
		return configErrorf("arrival_rates.mobile_promises.interval", "must be non-negative, got %v", mp.IntervalMin)
	}
	if mp.OffsetMax != 0 && mp.OffsetMax < mp.OffsetMin {
		return configErrorf("arrival_rates.mobile_promises.promise_offset_max",
			"must be at least promise_offset_min")
	}

	return nil
}

// Clone returns a deep copy so scenario overrides never mutate the baseline.
func (cfg *Config) Clone() *Config {
	out := *cfg

	out.ArrivalRates.WalkIn = append([]Daypart(nil), cfg.ArrivalRates.WalkIn...)
	out.ArrivalRates.DriveThru = append([]Daypart(nil), cfg.ArrivalRates.DriveThru...)
	out.ArrivalRates.Mobile = append([]Daypart(nil), cfg.ArrivalRates.Mobile...)

	out.ServiceRates = copyFloatMap(cfg.ServiceRates)
	out.Costs.Prices = copyFloatMap(cfg.Costs.Prices)
	out.Costs.WagesPerHour = copyFloatMap(cfg.Costs.WagesPerHour)
	out.Penalties.SLATargetSeconds = copyFloatMap(cfg.Penalties.SLATargetSeconds)

	out.Customers.Patience = make(map[string]PatienceDist, len(cfg.Customers.Patience))
	for k, v := range cfg.Customers.Patience {
		out.Customers.Patience[k] = v
	}

	out.OrderMix = make(map[string]map[string]float64, len(cfg.OrderMix))
	for ch, mix := range cfg.OrderMix {
		out.OrderMix[ch] = copyFloatMap(mix)
	}

	out.Policies.PackPriority = append([]string(nil), cfg.Policies.PackPriority...)

	return &out
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
