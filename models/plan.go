// Package models contains domain entities shared across the funnel service
package models

// Subscription plan identifiers. ID 2 was retired before launch; the custom
// plan keeps its original ID 3.
const (
	PlanStarter = 0
	PlanGrowth  = 1
	PlanCustom  = 3
)

// Custom plan seat rules
const (
	CustomSeatRate = 20 // USD per seat per month
	CustomMinSeats = 5
	CustomMaxSeats = 500
	CustomSeatStep = 5
)

// Plan describes a fixed subscription plan.
type Plan struct {
	ID           int
	Name         string
	BaseSeats    int
	MonthlyPrice int64 // USD, before charm-pricing adjustment
}

var plans = map[int]Plan{
	PlanStarter: {ID: PlanStarter, Name: "Starter", BaseSeats: 5, MonthlyPrice: 99},
	PlanGrowth:  {ID: PlanGrowth, Name: "Growth", BaseSeats: 25, MonthlyPrice: 299},
	PlanCustom:  {ID: PlanCustom, Name: "Custom"},
}

// PlanByID returns the plan for the given identifier.
func PlanByID(id int) (Plan, bool) {
	p, ok := plans[id]
	return p, ok
}

// IsFixedPlan reports whether the plan carries a fixed seat count.
func IsFixedPlan(id int) bool {
	return id == PlanStarter || id == PlanGrowth
}

// ValidCustomSeats reports whether a seat count is acceptable for the
// custom plan: within [5, 500] in steps of 5.
func ValidCustomSeats(seats int) bool {
	return seats >= CustomMinSeats && seats <= CustomMaxSeats && seats%CustomSeatStep == 0
}
