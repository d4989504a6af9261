package models

import "fmt"

// WorkUnit is a queue entry at a station: either a whole order (ItemIndex -1,
// front stations) or a single order item (prep stations).
type WorkUnit struct {
	CustomerID int64
	ItemIndex  int
}

// BatchResource models a shared consumable (beverage urn, espresso batch)
// attached to a station. Service halts while the batch refills.
type BatchResource struct {
	BatchSize      int
	Remaining      int
	RefillDuration float64 // seconds
	Refilling      bool
}

func NewBatchResource(size int, refillSeconds float64) *BatchResource {
	return &BatchResource{BatchSize: size, Remaining: size, RefillDuration: refillSeconds}
}

// Draw consumes one unit. Drawing below zero means the engine started service
// without checking the batch, which is a defect, not a modeled outcome.
func (b *BatchResource) Draw() {
	b.Remaining--
	if b.Remaining < 0 {
		panic(fmt.Sprintf("batch resource drawn below zero (size %d)", b.BatchSize))
	}
}

// Refill resets the batch after the refill event fires.
func (b *BatchResource) Refill() {
	b.Refilling = false
	b.Remaining = b.BatchSize
}

// Station is a capacity-bounded server pool with a FIFO waiting line.
// All mutation happens inside the engine's event handlers.
type Station struct {
	ID      string
	Kind    string
	Servers int
	Buffer  int // max customers in system (waiting + in service); <=0 means unbounded
	Wage    float64

	InService int
	Waiting   []WorkUnit
	Batch     *BatchResource

	busySeconds float64
	lastChange  float64
	prevBusy    int
}

// CanJoin reports whether the finite buffer has room for one more order.
func (s *Station) CanJoin() bool {
	if s.Buffer <= 0 {
		return true
	}
	return len(s.Waiting)+s.InService < s.Buffer
}

// Occupancy is the filled fraction of a bounded buffer, 0 for unbounded ones.
func (s *Station) Occupancy() float64 {
	if s.Buffer <= 0 {
		return 0
	}
	return float64(len(s.Waiting)+s.InService) / float64(s.Buffer)
}

// Enqueue appends a work unit to the waiting line.
func (s *Station) Enqueue(w WorkUnit) {
	s.Waiting = append(s.Waiting, w)
}

// RemoveWaiting deletes a customer's entries from the waiting line so the
// freed buffer slot is immediately visible to later arrivals.
func (s *Station) RemoveWaiting(customerID int64) {
	kept := s.Waiting[:0]
	for _, w := range s.Waiting {
		if w.CustomerID != customerID {
			kept = append(kept, w)
		}
	}
	s.Waiting = kept
}

// PopWaiting removes and returns the head of the waiting line.
func (s *Station) PopWaiting() (WorkUnit, bool) {
	if len(s.Waiting) == 0 {
		return WorkUnit{}, false
	}
	w := s.Waiting[0]
	s.Waiting = s.Waiting[1:]
	return w, true
}

// StartService seizes one server. Exceeding capacity is a fatal invariant
// violation.
func (s *Station) StartService(now float64) {
	s.InService++
	if s.InService > s.Servers {
		panic(fmt.Sprintf("station %s in-service count %d exceeds capacity %d", s.ID, s.InService, s.Servers))
	}
	s.markBusy(now)
}

// EndService releases one server. Negative occupancy is a fatal invariant
// violation.
func (s *Station) EndService(now float64) {
	s.InService--
	if s.InService < 0 {
		panic(fmt.Sprintf("station %s in-service count went negative", s.ID))
	}
	s.markBusy(now)
}

// markBusy integrates busy server-seconds on every occupancy change.
func (s *Station) markBusy(now float64) {
	if dt := now - s.lastChange; dt > 0 {
		s.busySeconds += float64(s.prevBusy) * dt
	}
	s.lastChange = now
	s.prevBusy = s.InService
}

// Utilization flushes the busy-time integral and returns the mean busy
// fraction per server over the given horizon.
func (s *Station) Utilization(now, horizonSeconds float64) float64 {
	s.markBusy(now)
	if s.Servers <= 0 || horizonSeconds <= 0 {
		return 0
	}
	return s.busySeconds / (float64(s.Servers) * horizonSeconds)
}

// PackEntry is a pack-ready order waiting at the pack station.
type PackEntry struct {
	CustomerID int64
	Channel    string
	ReadyTime  float64
	seq        uint64
}

// PackQueue orders pack-ready work by the configured channel priority list,
// then by pack-ready time, then by insertion order. An empty priority list
// degenerates to plain FIFO by ready time.
type PackQueue struct {
	entries []PackEntry
	rank    map[string]int
	seq     uint64
}

func NewPackQueue(priority []string) *PackQueue {
	rank := make(map[string]int, len(priority))
	for i, ch := range priority {
		rank[ch] = i
	}
	return &PackQueue{rank: rank}
}

func (q *PackQueue) Len() int { return len(q.entries) }

func (q *PackQueue) Push(customerID int64, channel string, readyTime float64) {
	q.seq++
	q.entries = append(q.entries, PackEntry{
		CustomerID: customerID,
		Channel:    channel,
		ReadyTime:  readyTime,
		seq:        q.seq,
	})
}

func (q *PackQueue) channelRank(ch string) int {
	if r, ok := q.rank[ch]; ok {
		return r
	}
	return len(q.rank) // unlisted channels trail the priority list
}

// Pop removes the highest-priority entry. Queues stay short (single pack
// station), so a linear scan beats maintaining a second heap.
func (q *PackQueue) Pop() (PackEntry, bool) {
	if len(q.entries) == 0 {
		return PackEntry{}, false
	}
	best := 0
	for i := 1; i < len(q.entries); i++ {
		a, b := q.entries[i], q.entries[best]
		ra, rb := q.channelRank(a.Channel), q.channelRank(b.Channel)
		if ra != rb {
			if ra < rb {
				best = i
			}
			continue
		}
		if a.ReadyTime != b.ReadyTime {
			if a.ReadyTime < b.ReadyTime {
				best = i
			}
			continue
		}
		if a.seq < b.seq {
			best = i
		}
	}
	e := q.entries[best]
	q.entries = append(q.entries[:best], q.entries[best+1:]...)
	return e, true
}
