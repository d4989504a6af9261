package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueueOrdersByTime(t *testing.T) {
	eq := NewEventQueue()
	eq.Schedule(&Event{Time: 30, Kind: EventArrival, CustomerID: 3})
	eq.Schedule(&Event{Time: 10, Kind: EventArrival, CustomerID: 1})
	eq.Schedule(&Event{Time: 20, Kind: EventArrival, CustomerID: 2})

	var got []int64
	for !eq.IsEmpty() {
		got = append(got, eq.PopNext().CustomerID)
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestEventQueueTiebreaksByKind(t *testing.T) {
	eq := NewEventQueue()
	eq.Schedule(&Event{Time: 60, Kind: EventArrival})
	eq.Schedule(&Event{Time: 60, Kind: EventPatienceExpire})
	eq.Schedule(&Event{Time: 60, Kind: EventServiceComplete})
	eq.Schedule(&Event{Time: 60, Kind: EventRefillDone})

	var got []EventKind
	for !eq.IsEmpty() {
		got = append(got, eq.PopNext().Kind)
	}
	// completions and refills release capacity before waiting customers give
	// up or new ones join
	assert.Equal(t, []EventKind{EventRefillDone, EventServiceComplete, EventPatienceExpire, EventArrival}, got)
}

func TestEventQueueTiebreaksByInsertionOrder(t *testing.T) {
	eq := NewEventQueue()
	for id := int64(1); id <= 5; id++ {
		eq.Schedule(&Event{Time: 42, Kind: EventArrival, CustomerID: id})
	}

	var got []int64
	for !eq.IsEmpty() {
		got = append(got, eq.PopNext().CustomerID)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got)
}

func TestEventQueueAdvancesClock(t *testing.T) {
	eq := NewEventQueue()
	assert.Equal(t, 0.0, eq.Clock())

	eq.Schedule(&Event{Time: 15, Kind: EventArrival})
	eq.Schedule(&Event{Time: 99, Kind: EventDayEnd})

	require.NotNil(t, eq.PopNext())
	assert.Equal(t, 15.0, eq.Clock())
	require.NotNil(t, eq.PopNext())
	assert.Equal(t, 99.0, eq.Clock())
	assert.Nil(t, eq.PopNext())
	assert.Equal(t, 99.0, eq.Clock(), "draining must not rewind the clock")
}

func TestEventQueueRejectsPastEvents(t *testing.T) {
	eq := NewEventQueue()
	eq.Schedule(&Event{Time: 50, Kind: EventArrival})
	eq.PopNext()

	assert.Panics(t, func() {
		eq.Schedule(&Event{Time: 49, Kind: EventArrival})
	})
	assert.NotPanics(t, func() {
		eq.Schedule(&Event{Time: 50, Kind: EventServiceComplete})
	})
}
