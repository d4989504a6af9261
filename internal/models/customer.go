package models

import "github.com/shopspring/decimal"

// OrderItem is one line of a customer's order. Price and COGS are fixed at
// order creation so pricing changes mid-experiment cannot leak into a running
// day.
type OrderItem struct {
	Kind    string
	Station string
	Price   decimal.Decimal
	COGS    decimal.Decimal
	Ready   bool
}

// Customer is a single arrival. The engine's customer table is the sole owner;
// stations and the pack queue refer to customers by ID only. Terminal states
// (picked up, balked, reneged) are immutable and kept for metrics.
type Customer struct {
	ID             int64
	Ref            string // public id (cuid), telemetry only
	Name           string // display name, telemetry only
	Channel        string
	ArrivalTime    float64
	Patience       float64 // seconds; deadline base depends on channel
	PromisedPickup float64 // mobile only, seconds from day open
	Items          []OrderItem
	Status         string

	readyItems int

	// timestamps filled in as the customer moves through the network
	ServiceStart  float64
	PackReadyTime float64
	PackedTime    float64
	PickupTime    float64

	// ServiceStarted marks that at least one item hit a prep station, i.e.
	// goods were committed and count as sunk cost on a renege.
	ServiceStarted bool
}

// Terminal reports whether the customer reached an immutable final state.
func (c *Customer) Terminal() bool {
	switch c.Status {
	case CustomerStatusPickedUp, CustomerStatusBalked, CustomerStatusReneged:
		return true
	}
	return false
}

// MarkItemReady records one finished item and reports whether the whole
// order is now ready to pack.
func (c *Customer) MarkItemReady(idx int) bool {
	if !c.Items[idx].Ready {
		c.Items[idx].Ready = true
		c.readyItems++
	}
	return c.readyItems == len(c.Items)
}

// OrderValue is the order's total ticket price.
func (c *Customer) OrderValue() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Price)
	}
	return total
}

// OrderCOGS is the total cost of goods for the order.
func (c *Customer) OrderCOGS() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.COGS)
	}
	return total
}

// PatienceDeadline is the absolute time after which the customer gives up.
// Mobile customers measure patience from the promised pickup time, everyone
// else from arrival.
func (c *Customer) PatienceDeadline() float64 {
	if c.Channel == ChannelMobile {
		return c.PromisedPickup + c.Patience
	}
	return c.ArrivalTime + c.Patience
}
