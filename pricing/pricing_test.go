package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/referralpro/funnel/models"
)

func TestComputeFixedPlans(t *testing.T) {
	tests := []struct {
		name        string
		planID      int
		billing     string
		wantSeats   int
		wantTotal   int64
		wantDisplay string
	}{
		{"starter monthly", models.PlanStarter, models.BillingMonthly, 5, 99, "$99/mon"},
		{"starter yearly", models.PlanStarter, models.BillingYearly, 5, 1069, "$1,069/yr"},
		{"growth monthly", models.PlanGrowth, models.BillingMonthly, 25, 299, "$299/mon"},
		{"growth yearly", models.PlanGrowth, models.BillingYearly, 25, 3229, "$3,229/yr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Requested seats must be ignored for fixed plans.
			q, err := Compute(tt.planID, tt.billing, 999)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeats, q.Seats)
			assert.Equal(t, tt.wantTotal, q.Total)
			assert.Equal(t, tt.wantDisplay, q.Display)
			assert.Equal(t, Currency, q.Currency)
		})
	}
}

func TestComputeCustomPlan(t *testing.T) {
	t.Run("monthly is seats times rate", func(t *testing.T) {
		for seats := models.CustomMinSeats; seats <= models.CustomMaxSeats; seats += models.CustomSeatStep {
			q, err := Compute(models.PlanCustom, models.BillingMonthly, seats)
			require.NoError(t, err)
			assert.Equal(t, int64(seats)*models.CustomSeatRate, q.Total)
			assert.Equal(t, seats, q.Seats)
		}
	})

	t.Run("yearly carries no discount", func(t *testing.T) {
		q, err := Compute(models.PlanCustom, models.BillingYearly, 50)
		require.NoError(t, err)
		assert.Equal(t, int64(50*models.CustomSeatRate*12), q.Total)
		assert.Equal(t, "$12,000/yr", q.Display)
	})

	t.Run("seat boundaries", func(t *testing.T) {
		_, err := Compute(models.PlanCustom, models.BillingMonthly, models.CustomMinSeats)
		assert.NoError(t, err)
		_, err = Compute(models.PlanCustom, models.BillingMonthly, models.CustomMaxSeats)
		assert.NoError(t, err)
		_, err = Compute(models.PlanCustom, models.BillingMonthly, 0)
		assert.ErrorIs(t, err, ErrInvalidSeats)
		_, err = Compute(models.PlanCustom, models.BillingMonthly, models.CustomMaxSeats+models.CustomSeatStep)
		assert.ErrorIs(t, err, ErrInvalidSeats)
		_, err = Compute(models.PlanCustom, models.BillingMonthly, 12)
		assert.ErrorIs(t, err, ErrInvalidSeats)
	})
}

func TestComputeRejectsBadInput(t *testing.T) {
	_, err := Compute(2, models.BillingMonthly, 5)
	assert.ErrorIs(t, err, ErrUnknownPlan)

	_, err = Compute(models.PlanStarter, "weekly", 5)
	assert.ErrorIs(t, err, ErrInvalidBilling)

	_, err = Compute(models.PlanStarter, "", 5)
	assert.ErrorIs(t, err, ErrInvalidBilling)
}

func TestFormatDisplay(t *testing.T) {
	assert.Equal(t, "$0/mon", FormatDisplay(0, models.BillingMonthly))
	assert.Equal(t, "$999/mon", FormatDisplay(999, models.BillingMonthly))
	assert.Equal(t, "$1,000/yr", FormatDisplay(1000, models.BillingYearly))
	assert.Equal(t, "$1,234,567/yr", FormatDisplay(1234567, models.BillingYearly))
}
