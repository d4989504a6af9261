package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/lucsky/cuid"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
)

// thinnedArrivals generates NHPP arrival times (seconds) for one channel via
// thinning: candidates are drawn at each window's supremum rate and accepted
// with probability rate(t)/sup, so ramped windows thin down to the true
// instantaneous rate. Rejected candidates leave no side effects.
func thinnedArrivals(rng *rand.Rand, dayparts []models.Daypart, dayEndMin float64) []float64 {
	var out []float64
	for _, d := range dayparts {
		sup := d.Sup()
		if sup <= 0 {
			continue
		}
		windowEnd := math.Min(d.EndMin, dayEndMin)
		t := d.StartMin
		for {
			t += rng.ExpFloat64() / sup
			if t >= windowEnd {
				break
			}
			if rng.Float64() <= d.RateAt(t)/sup {
				out = append(out, t*60.0)
			}
		}
	}
	sort.Float64s(out)
	return out
}

// promiseCadence returns deterministic mobile release times (seconds) when no
// mobile NHPP profile is configured.
func promiseCadence(mp models.MobilePromises, dayEndMin float64) []float64 {
	if mp.IntervalMin <= 0 {
		return nil
	}
	var out []float64
	end := math.Min(mp.EndMin, dayEndMin)
	for t := mp.StartMin; t < end; t += mp.IntervalMin {
		out = append(out, t*60.0)
	}
	return out
}

// scheduleArrivals creates every customer for the day and schedules their
// arrival events. Must run before the event loop starts; output is strictly
// time-ordered per channel and reproducible for a fixed base seed.
func (e *Engine) scheduleArrivals() {
	dayMin := e.cfg.Sim.DayMinutes

	for _, ts := range thinnedArrivals(e.streams.Stream(StreamWalkInArrivals), e.cfg.ArrivalRates.WalkIn, dayMin) {
		c := e.newCustomer(models.ChannelWalkIn, ts)
		e.eq.Schedule(&models.Event{Time: ts, Kind: models.EventArrival, CustomerID: c.ID})
	}

	for _, ts := range thinnedArrivals(e.streams.Stream(StreamDriveThruArrivals), e.cfg.ArrivalRates.DriveThru, dayMin) {
		c := e.newCustomer(models.ChannelDriveThru, ts)
		e.eq.Schedule(&models.Event{Time: ts, Kind: models.EventArrival, CustomerID: c.ID})
	}

	var mobileTimes []float64
	if len(e.cfg.ArrivalRates.Mobile) > 0 {
		mobileTimes = thinnedArrivals(e.streams.Stream(StreamMobileArrivals), e.cfg.ArrivalRates.Mobile, dayMin)
	} else {
		mobileTimes = promiseCadence(e.cfg.ArrivalRates.MobilePromises, dayMin)
	}
	for _, ts := range mobileTimes {
		c := e.newCustomer(models.ChannelMobile, ts)
		c.PromisedPickup = ts + e.drawPromiseOffset()*60.0
		e.eq.Schedule(&models.Event{Time: ts, Kind: models.EventArrival, CustomerID: c.ID})
	}
}

func (e *Engine) drawPromiseOffset() float64 {
	mp := e.cfg.ArrivalRates.MobilePromises
	if mp.OffsetMax > mp.OffsetMin {
		return mp.OffsetMin + e.streams.Float(StreamMobileArrivals)*(mp.OffsetMax-mp.OffsetMin)
	}
	return mp.OffsetMin
}

// newCustomer builds a customer with its order and patience draw and inserts
// it into the engine's customer table. The public ref is drawn from the refs
// stream, so it reproduces with the day.
func (e *Engine) newCustomer(channel string, arrival float64) *models.Customer {
	ref, err := cuid.NewCrypto(e.streams.Stream(StreamRefs))
	if err != nil {
		panic(fmt.Sprintf("cuid from seeded stream: %v", err))
	}

	e.nextCustomerID++
	c := &models.Customer{
		ID:          e.nextCustomerID,
		Ref:         ref,
		Name:        e.faker.Person().Name(),
		Channel:     channel,
		ArrivalTime: arrival,
		Status:      models.CustomerStatusArrived,
		Items:       e.drawOrder(channel),
		Patience:    e.drawPatience(channel),
	}
	e.customers = append(e.customers, c)
	e.byID[c.ID] = c
	return c
}

// drawOrder samples the order mix. One uniform is consumed per item kind even
// when the inclusion probability is zero, so the stream position per customer
// is fixed and reconfiguring one probability pairs cleanly across scenarios.
func (e *Engine) drawOrder(channel string) []models.OrderItem {
	mix := e.cfg.OrderMix[channel]
	var items []models.OrderItem
	for _, kind := range models.ItemKinds {
		u := e.streams.Float(StreamOrderMix)
		if u < mix[kind] {
			items = append(items, e.makeItem(kind))
		}
	}
	if len(items) == 0 {
		items = append(items, e.makeItem(defaultItemFor(channel)))
	}
	return items
}

func defaultItemFor(channel string) string {
	switch channel {
	case models.ChannelDriveThru:
		return models.ItemHotFood
	case models.ChannelMobile:
		return models.ItemEspresso
	}
	return models.ItemCoffee
}

// drawPatience samples patience in seconds. Channels without a configured
// distribution never give up.
func (e *Engine) drawPatience(channel string) float64 {
	dist, ok := e.cfg.Customers.Patience[channel]
	if !ok {
		return math.Inf(1)
	}
	switch dist.Distribution {
	case "exponential":
		return e.streams.Exp(StreamPatience, dist.MeanMin*60.0)
	case "uniform":
		return (dist.MinMin + e.streams.Float(StreamPatience)*(dist.MaxMin-dist.MinMin)) * 60.0
	default: // fixed
		return dist.MeanMin * 60.0
	}
}
