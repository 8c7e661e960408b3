// Package pricing computes subscription totals for the signup funnel.
//
// All arithmetic is integer USD. The engine is pure: the same plan, billing
// cycle and seat count always yield the same quote, and the caller (the
// registration flow) is the only writer of pricing fields on the record.
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/referralpro/funnel/models"
)

// Currency is the only currency the funnel quotes in.
const Currency = "USD"

// YearlyDiscount applied to fixed plans billed yearly.
const YearlyDiscount = 0.10

// Quote is a computed subscription price.
type Quote struct {
	PlanID   int
	Billing  string
	Seats    int
	Currency string
	Total    int64
	Display  string // e.g. "$3,229/yr"
}

// ErrUnknownPlan is returned for plan ids outside the catalog.
var ErrUnknownPlan = fmt.Errorf("pricing: unknown plan")

// ErrInvalidSeats is returned when a custom-plan seat count is out of range
// or not on the step boundary.
var ErrInvalidSeats = fmt.Errorf("pricing: invalid seat count")

// ErrInvalidBilling is returned for billing cycles other than monthly/yearly.
var ErrInvalidBilling = fmt.Errorf("pricing: invalid billing cycle")

// Compute prices a plan selection. Fixed plans ignore the requested seats and
// force their base seat count; the custom plan requires seats in [5, 500] in
// steps of 5.
func Compute(planID int, billing string, seats int) (Quote, error) {
	if billing != models.BillingMonthly && billing != models.BillingYearly {
		return Quote{}, ErrInvalidBilling
	}
	plan, ok := models.PlanByID(planID)
	if !ok {
		return Quote{}, ErrUnknownPlan
	}

	var monthly, total int64
	if models.IsFixedPlan(planID) {
		seats = plan.BaseSeats
		monthly = charmMonthly(plan.MonthlyPrice, int64(plan.BaseSeats))
		if billing == models.BillingYearly {
			total = int64(math.Round(float64(monthly) * 12 * (1 - YearlyDiscount)))
		} else {
			total = monthly
		}
	} else {
		if !models.ValidCustomSeats(seats) {
			return Quote{}, ErrInvalidSeats
		}
		monthly = int64(seats) * models.CustomSeatRate
		if billing == models.BillingYearly {
			// The custom plan carries no yearly discount.
			total = monthly * 12
		} else {
			total = monthly
		}
	}

	return Quote{
		PlanID:   planID,
		Billing:  billing,
		Seats:    seats,
		Currency: Currency,
		Total:    total,
		Display:  FormatDisplay(total, billing),
	}, nil
}

// charmMonthly rounds the list price up to the next seat multiple and takes
// one dollar off, so $99/5 seats stays $99 and $299/25 seats stays $299.
func charmMonthly(price, baseSeats int64) int64 {
	ceiled := (price + baseSeats - 1) / baseSeats
	return ceiled*baseSeats - 1
}

// FormatDisplay renders a total as "$1,234/mon" or "$1,234/yr".
func FormatDisplay(total int64, billing string) string {
	suffix := "/mon"
	if billing == models.BillingYearly {
		suffix = "/yr"
	}
	return "$" + groupThousands(total) + suffix
}

// groupThousands inserts comma separators into a non-negative integer.
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
