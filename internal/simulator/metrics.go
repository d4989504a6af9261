package simulator

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
)

// Ledger is the running metrics account for one simulated day. Every terminal
// customer posts to exactly one outcome category: revenue, balk loss, or
// renege loss. Customers arriving before the warmup watermark are excluded
// from all outcome accounting so startup transients do not bias the summary.
type Ledger struct {
	cfg    *models.Config
	warmup float64 // seconds

	revenue    decimal.Decimal
	cogs       decimal.Decimal
	wages      decimal.Decimal
	balkLoss   decimal.Decimal
	renegeLoss decimal.Decimal
	penalties  map[string]decimal.Decimal

	arrivals map[string]int
	served   map[string]int
	balked   map[string]int
	reneged  map[string]int

	waits       map[string][]float64
	slaBreaches map[string]int

	mobilePromised int
	mobileReady    int

	bins     []models.BinMetrics
	binWidth float64 // seconds
}

func NewLedger(cfg *models.Config) *Ledger {
	binWidth := cfg.Sim.BinMinutes * 60.0
	nBins := int(math.Ceil(cfg.Sim.DayMinutes / cfg.Sim.BinMinutes))
	bins := make([]models.BinMetrics, nBins)
	for i := range bins {
		bins[i].StartMin = float64(i) * cfg.Sim.BinMinutes
	}
	return &Ledger{
		cfg:         cfg,
		warmup:      cfg.Sim.WarmupMinutes * 60.0,
		penalties:   map[string]decimal.Decimal{},
		arrivals:    map[string]int{},
		served:      map[string]int{},
		balked:      map[string]int{},
		reneged:     map[string]int{},
		waits:       map[string][]float64{},
		slaBreaches: map[string]int{},
		bins:        bins,
		binWidth:    binWidth,
	}
}

// counted reports whether a customer is inside the measurement window.
func (l *Ledger) counted(c *models.Customer) bool {
	return c.ArrivalTime >= l.warmup
}

func (l *Ledger) bin(t float64) *models.BinMetrics {
	idx := int(t / l.binWidth)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(l.bins) {
		idx = len(l.bins) - 1 // drain-tail events land in the closing bin
	}
	return &l.bins[idx]
}

func (l *Ledger) NoteArrival(c *models.Customer, t float64) {
	if !l.counted(c) {
		return
	}
	l.arrivals[c.Channel]++
	l.bin(t).Arrivals++
}

// NoteBalk posts a lost arrival: a configured fraction of the order value is
// charged as lost goodwill.
func (l *Ledger) NoteBalk(c *models.Customer, t float64) {
	if !l.counted(c) {
		return
	}
	l.balked[c.Channel]++
	l.bin(t).Balked++
	loss := c.OrderValue().Mul(decimal.NewFromFloat(l.cfg.Penalties.BalkLossPct))
	l.balkLoss = l.balkLoss.Add(loss)
}

// NoteRenege posts an abandoned order: sunk COGS for goods already committed,
// plus the configured renege penalty when applicable.
func (l *Ledger) NoteRenege(c *models.Customer, t float64, penalized bool) {
	if !l.counted(c) {
		return
	}
	l.reneged[c.Channel]++
	l.bin(t).Reneged++
	if c.ServiceStarted {
		l.renegeLoss = l.renegeLoss.Add(c.OrderCOGS())
	}
	if penalized {
		l.addPenalty(models.PenaltyRenege, decimal.NewFromFloat(l.cfg.Penalties.Renege))
	}
}

// NoteWait records a realized wait (seconds) and charges the SLA-breach
// penalty when the channel has a target and the wait exceeds it.
func (l *Ledger) NoteWait(c *models.Customer, wait float64) {
	if !l.counted(c) {
		return
	}
	l.waits[c.Channel] = append(l.waits[c.Channel], wait)
	if target, ok := l.cfg.Penalties.SLATargetSeconds[c.Channel]; ok && wait > target {
		l.slaBreaches[c.Channel]++
		l.addPenalty(models.PenaltySLABreach, decimal.NewFromFloat(l.cfg.Penalties.SLABreach))
	}
}

// NotePickup posts the sale: price minus COGS accrue at pickup time.
func (l *Ledger) NotePickup(c *models.Customer, t float64) {
	if !l.counted(c) {
		return
	}
	l.served[c.Channel]++
	value := c.OrderValue()
	l.revenue = l.revenue.Add(value)
	l.cogs = l.cogs.Add(c.OrderCOGS())
	b := l.bin(t)
	b.Served++
	rev, _ := value.Float64()
	b.Revenue += rev

	if c.Channel == models.ChannelMobile {
		l.mobilePromised++
		if c.PackedTime <= c.PromisedPickup {
			l.mobileReady++
		} else {
			l.addPenalty(models.PenaltyMobileLate, decimal.NewFromFloat(l.cfg.Penalties.MobileLate))
		}
	}
}

func (l *Ledger) addPenalty(kind string, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	l.penalties[kind] = l.penalties[kind].Add(amount)
}

// AccrueWages charges the nominal staffed day for every station: capacity ×
// hourly wage × day length, independent of utilization and of any drain past
// closing time.
func (l *Ledger) AccrueWages(stations []*models.Station) {
	hours := decimal.NewFromFloat(l.cfg.Sim.DayMinutes).Div(decimal.NewFromInt(60))
	for _, st := range stations {
		rate := decimal.NewFromFloat(st.Wage)
		l.wages = l.wages.Add(rate.Mul(hours).Mul(decimal.NewFromInt(int64(st.Servers))))
	}
}

// Summary freezes the ledger into the immutable end-of-day record.
func (l *Ledger) Summary(seed int64, stations []*models.Station, now, daySeconds float64) *models.DayMetrics {
	penaltyTotal := decimal.Zero
	breakdown := make(map[string]float64, len(l.penalties))
	for kind, amt := range l.penalties {
		penaltyTotal = penaltyTotal.Add(amt)
		breakdown[kind], _ = amt.Float64()
	}

	profit := l.revenue.
		Sub(l.cogs).
		Sub(l.wages).
		Sub(penaltyTotal).
		Sub(l.balkLoss).
		Sub(l.renegeLoss)

	waitStats := make(map[string]models.WaitStats, len(l.waits))
	for ch, samples := range l.waits {
		waitStats[ch] = summarizeWaits(samples)
	}

	util := make(map[string]float64, len(stations))
	for _, st := range stations {
		util[st.ID] = st.Utilization(now, daySeconds)
	}

	readyRate := 0.0
	if l.mobilePromised > 0 {
		readyRate = float64(l.mobileReady) / float64(l.mobilePromised)
	}

	m := &models.DayMetrics{
		Seed:               seed,
		PenaltyBreakdown:   breakdown,
		ArrivalsByChannel:  copyCounts(l.arrivals),
		ServedByChannel:    copyCounts(l.served),
		BalkedByChannel:    copyCounts(l.balked),
		RenegedByChannel:   copyCounts(l.reneged),
		WaitStats:          waitStats,
		SLABreaches:        copyCounts(l.slaBreaches),
		MobilePromised:     l.mobilePromised,
		MobileReadyRate:    readyRate,
		StationUtilization: util,
		Bins:               append([]models.BinMetrics(nil), l.bins...),
	}
	m.Profit, _ = profit.Float64()
	m.Revenue, _ = l.revenue.Float64()
	m.COGS, _ = l.cogs.Float64()
	m.Wages, _ = l.wages.Float64()
	m.Penalties, _ = penaltyTotal.Float64()
	m.BalkLoss, _ = l.balkLoss.Float64()
	m.RenegeLoss, _ = l.renegeLoss.Float64()
	return m
}

// WagesExact exposes the decimal wage total for tests that check the
// staffed-seconds identity without float rounding.
func (l *Ledger) WagesExact() decimal.Decimal { return l.wages }

func summarizeWaits(samples []float64) models.WaitStats {
	if len(samples) == 0 {
		return models.WaitStats{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, w := range sorted {
		sum += w
	}
	return models.WaitStats{
		Count: len(sorted),
		Mean:  sum / float64(len(sorted)),
		P50:   percentile(sorted, 0.50),
		P90:   percentile(sorted, 0.90),
	}
}

// percentile uses the nearest-rank method on a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
