package simulator

import (
	"fmt"
	"math/rand"

	"github.com/jaswdr/faker"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
)

// Engine simulates one operating day of the outlet. It exclusively owns the
// clock, event queue, stations, pack queue, customer table and ledger; a
// fresh engine is constructed per replication and discarded after the summary
// is frozen. Everything runs on a single logical thread: apparent concurrency
// among customers is purely event-queue time ordering.
type Engine struct {
	cfg     *models.Config
	seed    int64
	log     zerolog.Logger
	eq      *models.EventQueue
	streams *StreamManager
	faker   faker.Faker

	customers []*models.Customer
	byID      map[int64]*models.Customer

	stations    map[string]*models.Station
	stationList []*models.Station
	packQueue   *models.PackQueue
	ledger      *Ledger

	cogsPct        decimal.Decimal
	nextCustomerID int64
	daySeconds     float64
}

var svcStreams = map[string]string{
	models.StationCounter:  StreamSvcCounter,
	models.StationWindow:   StreamSvcWindow,
	models.StationEspresso: StreamSvcEspresso,
	models.StationHotFood:  StreamSvcHotFood,
	models.StationBeverage: StreamSvcBeverage,
	models.StationPack:     StreamSvcPack,
}

// NewEngine validates the config and builds a day-ready engine. No event is
// scheduled if validation fails.
func NewEngine(cfg *models.Config, baseSeed int64, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		seed:       baseSeed,
		log:        log,
		eq:         models.NewEventQueue(),
		streams:    NewStreamManager(baseSeed),
		byID:       make(map[int64]*models.Customer),
		stations:   make(map[string]*models.Station),
		packQueue:  models.NewPackQueue(cfg.Policies.PackPriority),
		ledger:     NewLedger(cfg),
		cogsPct:    decimal.NewFromFloat(cfg.Costs.COGSPct),
		daySeconds: cfg.Sim.DayMinutes * 60.0,
	}
	e.faker = faker.NewWithSeed(rand.NewSource(baseSeed*0x9E3779B9 + streamOffsets[StreamNames]))
	e.buildStations()
	return e, nil
}

func (e *Engine) buildStations() {
	caps := e.cfg.Capacities
	refill := func(key string) float64 { return e.cfg.ServiceRates[key] * 60.0 }

	add := func(st *models.Station) {
		e.stations[st.ID] = st
		e.stationList = append(e.stationList, st)
	}

	add(&models.Station{ID: models.StationCounter, Kind: models.StationKindFront,
		Servers: caps.Counter, Buffer: caps.CounterBuffer, Wage: e.cfg.Costs.WageFor(models.StationCounter)})
	add(&models.Station{ID: models.StationWindow, Kind: models.StationKindFront,
		Servers: caps.Window, Buffer: caps.DriveLane, Wage: e.cfg.Costs.WageFor(models.StationWindow)})
	add(&models.Station{ID: models.StationEspresso, Kind: models.StationKindPrep,
		Servers: caps.Espresso, Wage: e.cfg.Costs.WageFor(models.StationEspresso),
		Batch: models.NewBatchResource(caps.EspressoBatch, refill(models.RateEspressoMaintenance))})
	add(&models.Station{ID: models.StationHotFood, Kind: models.StationKindPrep,
		Servers: caps.HotFood, Wage: e.cfg.Costs.WageFor(models.StationHotFood)})
	add(&models.Station{ID: models.StationBeverage, Kind: models.StationKindPrep,
		Servers: caps.Beverage, Wage: e.cfg.Costs.WageFor(models.StationBeverage),
		Batch: models.NewBatchResource(caps.UrnSize, refill(models.RateBeverageRefill))})
	add(&models.Station{ID: models.StationPack, Kind: models.StationKindPack,
		Servers: caps.Pack, Wage: e.cfg.Costs.WageFor(models.StationPack)})
}

// RunDay drives the day to completion and returns the frozen metrics. The
// engine must not be reused afterwards.
func (e *Engine) RunDay() (*models.DayMetrics, error) {
	e.scheduleArrivals()
	if e.cfg.Sim.WarmupMinutes > 0 {
		e.eq.Schedule(&models.Event{Time: e.cfg.Sim.WarmupMinutes * 60.0, Kind: models.EventWarmup})
	}
	e.eq.Schedule(&models.Event{Time: e.daySeconds, Kind: models.EventDayEnd})

	e.log.Debug().
		Int64("seed", e.seed).
		Int("customers", len(e.customers)).
		Float64("day_minutes", e.cfg.Sim.DayMinutes).
		Msg("day started")

	for !e.eq.IsEmpty() {
		e.processEvent(e.eq.PopNext())
	}

	e.ledger.AccrueWages(e.stationList)
	summary := e.ledger.Summary(e.seed, e.stationList, e.eq.Clock(), e.daySeconds)
	summary.Orders = e.orderRecords()

	e.log.Debug().
		Float64("profit", summary.Profit).
		Float64("clock_end_min", e.eq.Clock()/60.0).
		Msg("day completed")

	return summary, nil
}

func (e *Engine) processEvent(ev *models.Event) {
	switch ev.Kind {
	case models.EventArrival:
		e.handleArrival(ev)
	case models.EventServiceComplete:
		e.handleServiceComplete(ev)
	case models.EventPackComplete:
		e.handlePackComplete(ev)
	case models.EventPickup:
		e.handlePickup(ev)
	case models.EventPatienceExpire:
		e.handlePatienceExpire(ev)
	case models.EventRefillDone:
		e.handleRefillDone(ev)
	case models.EventWarmup:
		e.log.Debug().Float64("t_min", ev.Time/60.0).Msg("warmup watermark reached")
	case models.EventDayEnd:
		e.handleDayEnd(ev)
	default:
		panic(fmt.Sprintf("unhandled event kind %v", ev.Kind))
	}
}

// orderRecords snapshots every customer's final state in arrival order for
// the per-order telemetry export.
func (e *Engine) orderRecords() []models.OrderRecord {
	records := make([]models.OrderRecord, 0, len(e.customers))
	for _, c := range e.customers {
		value, _ := c.OrderValue().Float64()
		records = append(records, models.OrderRecord{
			Ref:        c.Ref,
			Name:       c.Name,
			Channel:    c.Channel,
			Status:     c.Status,
			ArrivalMin: c.ArrivalTime / 60.0,
			Items:      len(c.Items),
			Value:      value,
		})
	}
	return records
}

func (e *Engine) makeItem(kind string) models.OrderItem {
	price := decimal.NewFromFloat(e.cfg.Costs.Prices[kind])
	return models.OrderItem{
		Kind:    kind,
		Station: models.PrepStationForItem[kind],
		Price:   price,
		COGS:    price.Mul(e.cogsPct),
	}
}

func (e *Engine) serviceMeanSeconds(stationID string) float64 {
	return e.cfg.ServiceRates[stationID] * 60.0
}

// RunDay is the single externally visible operation of the engine package:
// simulate one day under cfg with the given base seed and return the frozen
// end-of-day metrics. Deterministic for identical inputs.
func RunDay(cfg *models.Config, baseSeed int64, log zerolog.Logger) (*models.DayMetrics, error) {
	eng, err := NewEngine(cfg, baseSeed, log)
	if err != nil {
		return nil, err
	}
	return eng.RunDay()
}
