package models

import (
	"container/heap"
	"fmt"
)

// EventKind identifies a simulation event. The declaration order doubles as
// the tiebreak priority for events sharing a timestamp: refills and
// completions are processed before new arrivals, and the day-end marker
// always goes last.
type EventKind int

const (
	EventRefillDone EventKind = iota
	EventServiceComplete
	EventPackComplete
	EventPickup
	EventPatienceExpire
	EventArrival
	EventWarmup
	EventDayEnd
)

func (k EventKind) String() string {
	switch k {
	case EventRefillDone:
		return "RefillDone"
	case EventServiceComplete:
		return "ServiceComplete"
	case EventPackComplete:
		return "PackComplete"
	case EventPickup:
		return "Pickup"
	case EventPatienceExpire:
		return "PatienceExpire"
	case EventArrival:
		return "Arrival"
	case EventWarmup:
		return "Warmup"
	case EventDayEnd:
		return "DayEnd"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is an entry on the future event list. Time is simulated seconds from
// day open. CustomerID, StationID and ItemIndex are payload fields; unused
// ones are left zero (ItemIndex -1 means "whole order" for station events).
type Event struct {
	Time       float64
	Kind       EventKind
	CustomerID int64
	StationID  string
	ItemIndex  int
	seq        uint64
}

// eventHeap implements heap.Interface ordered by (time, kind, insertion seq).
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	if h[i].Kind != h[j].Kind {
		return h[i].Kind < h[j].Kind
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// EventQueue is the future event list plus the simulation clock it drives.
// The clock only moves when PopNext jumps it to the next event's timestamp.
// It is owned by exactly one engine and is not safe for concurrent use.
type EventQueue struct {
	events eventHeap
	clock  float64
	seq    uint64
}

func NewEventQueue() *EventQueue {
	return &EventQueue{events: make(eventHeap, 0, 256)}
}

// Clock returns the current simulated time in seconds.
func (eq *EventQueue) Clock() float64 { return eq.clock }

// Schedule inserts an event. Scheduling into the past is a programming error
// and panics rather than silently corrupting event order.
func (eq *EventQueue) Schedule(ev *Event) {
	if ev.Time < eq.clock {
		panic(fmt.Sprintf("event %s scheduled at t=%.3f before clock t=%.3f", ev.Kind, ev.Time, eq.clock))
	}
	eq.seq++
	ev.seq = eq.seq
	heap.Push(&eq.events, ev)
}

// PopNext removes the earliest event and advances the clock to it.
// Returns nil when the queue is empty.
func (eq *EventQueue) PopNext() *Event {
	if len(eq.events) == 0 {
		return nil
	}
	ev := heap.Pop(&eq.events).(*Event)
	eq.clock = ev.Time
	return ev
}

func (eq *EventQueue) IsEmpty() bool { return len(eq.events) == 0 }

func (eq *EventQueue) Len() int { return len(eq.events) }
