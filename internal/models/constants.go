package models

const (
	ChannelWalkIn    = "walkin"
	ChannelDriveThru = "drive_thru"
	ChannelMobile    = "mobile"

	CustomerStatusArrived        = "arrived"
	CustomerStatusQueued         = "queued"
	CustomerStatusInService      = "in_service"
	CustomerStatusPacked         = "packed"
	CustomerStatusAwaitingPickup = "awaiting_pickup"
	CustomerStatusPickedUp       = "picked_up"
	CustomerStatusBalked         = "balked"
	CustomerStatusReneged        = "reneged"

	StationCounter  = "counter"
	StationWindow   = "window"
	StationEspresso = "espresso"
	StationHotFood  = "hotfood"
	StationBeverage = "beverage"
	StationPack     = "pack"

	// batch refill durations carried in service_rates alongside station means
	RateBeverageRefill      = "beverage_refill"
	RateEspressoMaintenance = "espresso_maintenance"

	StationKindFront = "front"
	StationKindPrep  = "prep"
	StationKindPack  = "pack"

	ItemCoffee   = "coffee"
	ItemEspresso = "espresso"
	ItemHotFood  = "hotfood"

	BalkingPolicyHard      = "hard"
	BalkingPolicyOccupancy = "occupancy"

	PenaltyMobileLate = "mobile_late"
	PenaltySLABreach  = "sla_breach"
	PenaltyRenege     = "renege"
)

// Channels lists the customer channels in their canonical order.
var Channels = []string{ChannelWalkIn, ChannelDriveThru, ChannelMobile}

// ItemKinds lists order item kinds in the order the order-mix stream draws them.
// The order is fixed so a given seed always consumes the stream the same way.
var ItemKinds = []string{ItemCoffee, ItemEspresso, ItemHotFood}

// PrepStationForItem maps an item kind to the prep station that makes it.
var PrepStationForItem = map[string]string{
	ItemCoffee:   StationBeverage,
	ItemEspresso: StationEspresso,
	ItemHotFood:  StationHotFood,
}
