package simulator

import (
	"math"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
)

// handleArrival admits a customer into the network. Walk-in joins the front
// counter, drive-thru joins the order window, mobile orders skip the front
// end entirely and fan straight out to prep.
func (e *Engine) handleArrival(ev *models.Event) {
	c := e.byID[ev.CustomerID]
	now := ev.Time
	e.ledger.NoteArrival(c, now)

	if c.Channel == models.ChannelMobile {
		c.Status = models.CustomerStatusInService
		e.schedulePatience(c)
		e.fanOutItems(c, now)
		return
	}
	e.joinFront(e.frontStation(c.Channel), c, now)
}

// frontStation maps a channel to its order-taking station; mobile has none.
func (e *Engine) frontStation(channel string) *models.Station {
	switch channel {
	case models.ChannelWalkIn:
		return e.stations[models.StationCounter]
	case models.ChannelDriveThru:
		return e.stations[models.StationWindow]
	}
	return nil
}

// joinFront applies the balking policy at a front station, then queues the
// whole order. Mobile never passes through here.
func (e *Engine) joinFront(st *models.Station, c *models.Customer, now float64) {
	if !st.CanJoin() {
		e.balk(c, now)
		return
	}
	if e.cfg.Policies.Balking == models.BalkingPolicyOccupancy {
		p := st.Occupancy() * e.cfg.Policies.BalkSensitivity
		if e.streams.Float(StreamBalk) < p {
			e.balk(c, now)
			return
		}
	}

	c.Status = models.CustomerStatusQueued
	st.Enqueue(models.WorkUnit{CustomerID: c.ID, ItemIndex: -1})
	e.schedulePatience(c)
	e.tryStartService(st, now)
}

func (e *Engine) balk(c *models.Customer, now float64) {
	c.Status = models.CustomerStatusBalked
	e.ledger.NoteBalk(c, now)
	e.log.Debug().Int64("customer", c.ID).Str("channel", c.Channel).Msg("customer balked")
}

func (e *Engine) schedulePatience(c *models.Customer) {
	deadline := c.PatienceDeadline()
	if math.IsInf(deadline, 1) {
		return
	}
	e.eq.Schedule(&models.Event{Time: deadline, Kind: models.EventPatienceExpire, CustomerID: c.ID})
}

// tryStartService pulls waiting work into free servers at one station. Front
// queues are purged eagerly when a customer reneges; prep stations are
// unbounded, so their items of departed customers are cheaper to skip lazily
// here. A depleted batch resource halts the whole station until the refill
// completes.
func (e *Engine) tryStartService(st *models.Station, now float64) {
	for st.InService < st.Servers && len(st.Waiting) > 0 {
		if st.Batch != nil {
			if st.Batch.Refilling {
				return
			}
			if st.Batch.Remaining == 0 {
				st.Batch.Refilling = true
				e.eq.Schedule(&models.Event{
					Time:      now + st.Batch.RefillDuration,
					Kind:      models.EventRefillDone,
					StationID: st.ID,
				})
				return
			}
		}

		w, _ := st.PopWaiting()
		c := e.byID[w.CustomerID]
		if c.Terminal() {
			continue // stale entry, customer reneged while waiting
		}
		if st.Batch != nil {
			st.Batch.Draw()
		}
		st.StartService(now)

		if w.ItemIndex < 0 {
			c.Status = models.CustomerStatusInService
			c.ServiceStart = now
			e.ledger.NoteWait(c, now-c.ArrivalTime)
		} else {
			c.ServiceStarted = true
		}

		dur := e.streams.Exp(svcStreams[st.ID], e.serviceMeanSeconds(st.ID))
		e.eq.Schedule(&models.Event{
			Time:       now + dur,
			Kind:       models.EventServiceComplete,
			CustomerID: c.ID,
			StationID:  st.ID,
			ItemIndex:  w.ItemIndex,
		})
	}
}

// handleServiceComplete releases the server, routes the finished work onward
// (front completion fans the order out to prep, prep completion feeds the pack
// queue once the whole order is ready) and backfills the freed server.
func (e *Engine) handleServiceComplete(ev *models.Event) {
	st := e.stations[ev.StationID]
	now := ev.Time
	st.EndService(now)

	c := e.byID[ev.CustomerID]
	if !c.Terminal() {
		if ev.ItemIndex < 0 {
			e.fanOutItems(c, now)
		} else if c.MarkItemReady(ev.ItemIndex) {
			c.PackReadyTime = now
			e.packQueue.Push(c.ID, c.Channel, now)
			e.tryStartPack(now)
		}
	}

	e.tryStartService(st, now)
}

// fanOutItems queues every order item at its prep station. Items of the same
// order progress independently; the order reassembles at the pack queue.
func (e *Engine) fanOutItems(c *models.Customer, now float64) {
	for idx, item := range c.Items {
		st := e.stations[item.Station]
		st.Enqueue(models.WorkUnit{CustomerID: c.ID, ItemIndex: idx})
		e.tryStartService(st, now)
	}
}

func (e *Engine) tryStartPack(now float64) {
	st := e.stations[models.StationPack]
	for st.InService < st.Servers {
		entry, ok := e.packQueue.Pop()
		if !ok {
			return
		}
		c := e.byID[entry.CustomerID]
		if c.Terminal() {
			continue
		}
		st.StartService(now)
		dur := e.streams.Exp(StreamSvcPack, e.serviceMeanSeconds(models.StationPack))
		e.eq.Schedule(&models.Event{
			Time:       now + dur,
			Kind:       models.EventPackComplete,
			CustomerID: c.ID,
			StationID:  st.ID,
			ItemIndex:  -1,
		})
	}
}

// handlePackComplete hands the packed order over. Walk-in and drive-thru take
// it immediately; mobile orders packed early sit on the shelf until the
// promised time.
func (e *Engine) handlePackComplete(ev *models.Event) {
	st := e.stations[ev.StationID]
	now := ev.Time
	st.EndService(now)

	c := e.byID[ev.CustomerID]
	if !c.Terminal() {
		c.PackedTime = now
		c.Status = models.CustomerStatusPacked

		if c.Channel == models.ChannelMobile && now < c.PromisedPickup {
			c.Status = models.CustomerStatusAwaitingPickup
			e.eq.Schedule(&models.Event{Time: c.PromisedPickup, Kind: models.EventPickup, CustomerID: c.ID})
		} else {
			e.pickup(c, now)
		}
	}

	e.tryStartPack(now)
}

// handlePickup fires for mobile orders shelved until their promised time.
func (e *Engine) handlePickup(ev *models.Event) {
	c := e.byID[ev.CustomerID]
	if c.Status != models.CustomerStatusAwaitingPickup {
		return // reneged or finalized while on the shelf
	}
	e.pickup(c, ev.Time)
}

func (e *Engine) pickup(c *models.Customer, now float64) {
	c.Status = models.CustomerStatusPickedUp
	c.PickupTime = now
	if c.Channel == models.ChannelMobile {
		e.ledger.NoteWait(c, math.Max(c.PackedTime-c.PromisedPickup, 0))
	}
	e.ledger.NotePickup(c, now)
}

// handlePatienceExpire applies per-channel renege rules. Walk-in customers
// only give up while still in line; once an order is being taken they stay.
// Drive-thru and mobile customers abandon any time before pickup.
func (e *Engine) handlePatienceExpire(ev *models.Event) {
	c := e.byID[ev.CustomerID]
	if c.Terminal() {
		return
	}

	switch c.Channel {
	case models.ChannelWalkIn:
		if c.Status == models.CustomerStatusQueued {
			e.renege(c, ev.Time, false)
		}
	case models.ChannelDriveThru, models.ChannelMobile:
		e.renege(c, ev.Time, true)
	}
}

func (e *Engine) renege(c *models.Customer, now float64, penalized bool) {
	// vacate the front buffer slot right away so later arrivals see the true
	// occupancy instead of balking against a stale entry
	if c.Status == models.CustomerStatusQueued {
		if st := e.frontStation(c.Channel); st != nil {
			st.RemoveWaiting(c.ID)
		}
	}
	c.Status = models.CustomerStatusReneged
	e.ledger.NoteRenege(c, now, penalized)
	e.log.Debug().Int64("customer", c.ID).Str("channel", c.Channel).Msg("customer reneged")
}

func (e *Engine) handleRefillDone(ev *models.Event) {
	st := e.stations[ev.StationID]
	st.Batch.Refill()
	e.tryStartService(st, ev.Time)
}

// handleDayEnd finalizes customers still waiting for service as lost sales.
// Work already in flight (orders being prepped, packed, or shelved for a
// mobile pickup) drains to completion after closing.
func (e *Engine) handleDayEnd(ev *models.Event) {
	finalized := 0
	for _, c := range e.customers {
		if c.Terminal() {
			continue
		}
		switch c.Status {
		case models.CustomerStatusArrived, models.CustomerStatusQueued:
			e.renege(c, ev.Time, false)
			finalized++
		}
	}
	e.log.Debug().Int("finalized", finalized).Msg("day end reached")
}
