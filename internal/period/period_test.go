package period

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donis3/costcalc/internal/currency"
	"github.com/donis3/costcalc/internal/model"
)

func newRates(t *testing.T) *currency.Store {
	t.Helper()
	s := currency.NewStore("TRY", currency.WithEnabled("TRY", "USD", "EUR"))
	_, err := s.AddObservation("USD", "TRY", 30)
	require.NoError(t, err)
	return s
}

func TestCoefficient(t *testing.T) {
	assert.Equal(t, 1.0, Coefficient(model.PeriodYear))
	assert.Equal(t, 12.0, Coefficient(model.PeriodMonth))
	assert.InDelta(t, 365.0/7, Coefficient(model.PeriodWeek), 1e-12)
	assert.Equal(t, 365.0, Coefficient(model.PeriodDay))
	assert.Equal(t, 8760.0, Coefficient(model.PeriodHour))
	assert.Equal(t, 0.0, Coefficient("q"))
}

func TestAnnualizeAndBack(t *testing.T) {
	assert.Equal(t, 1200.0, Annualize(100, model.PeriodMonth))
	assert.Equal(t, 100.0, FromAnnual(1200, model.PeriodMonth))
	assert.InDelta(t, 23.01, FromAnnual(1200, model.PeriodWeek), 0.005)
	assert.Equal(t, 0.0, Annualize(100, "x"))
	assert.Equal(t, 0.0, FromAnnual(100, ""))

	for _, from := range model.Periods {
		for _, to := range model.Periods {
			back := Convert(Convert(250, from, to), to, from)
			assert.InDelta(t, 250, back, 1e-6, "%s -> %s", from, to)
		}
	}
}

func TestCalculateCost_MonthlyExpense(t *testing.T) {
	e := model.Expense{Name: "Rent", Period: model.PeriodMonth, Currency: "TRY", Price: 100, Quantity: 1}

	cost := CalculateCost(e, newRates(t), true)

	require.Len(t, cost, len(model.Periods))
	assert.Equal(t, 1200.0, cost[model.PeriodYear].Amount)
	assert.Equal(t, 100.0, cost[model.PeriodMonth].Amount)
	assert.Equal(t, 23.01, cost[model.PeriodWeek].Amount)
	assert.Equal(t, 3.29, cost[model.PeriodDay].Amount)
	assert.Equal(t, 0.14, cost[model.PeriodHour].Amount)
	for _, p := range model.Periods {
		assert.Equal(t, "TRY", cost[p].Currency)
		assert.Equal(t, cost[p].Amount, cost[p].AmountWithTax, "no tax")
	}
}

func TestCalculateCost_TaxQuantityAndCurrency(t *testing.T) {
	rates := newRates(t)
	e := model.Expense{Name: "Electricity", Period: model.PeriodDay, Currency: "USD", Price: 2, Quantity: 3, Tax: 20}

	local := CalculateCost(e, rates, true)
	assert.Equal(t, "TRY", local[model.PeriodDay].Currency)
	assert.Equal(t, 180.0, local[model.PeriodDay].Amount)
	assert.Equal(t, 216.0, local[model.PeriodDay].AmountWithTax)
	assert.Equal(t, 65700.0, local[model.PeriodYear].Amount)
	assert.Equal(t, 78840.0, local[model.PeriodYear].AmountWithTax)

	own := CalculateCost(e, rates, false)
	assert.Equal(t, "USD", own[model.PeriodDay].Currency)
	assert.Equal(t, 6.0, own[model.PeriodDay].Amount)
	assert.Equal(t, 7.2, own[model.PeriodDay].AmountWithTax)
	assert.Equal(t, 2190.0, own[model.PeriodYear].Amount)
}

func TestCalculateCost_DegradesToZero(t *testing.T) {
	rates := newRates(t)
	base := model.Expense{Name: "x", Period: model.PeriodMonth, Currency: "TRY", Price: 10, Quantity: 1}

	tests := []struct {
		mutate func(*model.Expense)
		name   string
	}{
		{name: "unknown period", mutate: func(e *model.Expense) { e.Period = "q" }},
		{name: "empty period", mutate: func(e *model.Expense) { e.Period = "" }},
		{name: "bad currency", mutate: func(e *model.Expense) { e.Currency = "X" }},
		{name: "nan price", mutate: func(e *model.Expense) { e.Price = math.NaN() }},
		{name: "negative quantity", mutate: func(e *model.Expense) { e.Quantity = -1 }},
		{name: "infinite tax", mutate: func(e *model.Expense) { e.Tax = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := base
			tt.mutate(&e)
			cost := CalculateCost(e, rates, true)
			require.Len(t, cost, len(model.Periods))
			for _, p := range model.Periods {
				assert.Zero(t, cost[p].Amount)
				assert.Zero(t, cost[p].AmountWithTax)
				assert.Equal(t, "TRY", cost[p].Currency)
			}
		})
	}
}

func TestCalculateCost_NoRateIsFaceValue(t *testing.T) {
	rates := newRates(t)

	for _, code := range []string{"EUR", "GBP"} {
		t.Run(code, func(t *testing.T) {
			e := model.Expense{Name: "Rent", Period: model.PeriodMonth, Currency: code, Price: 10, Quantity: 1}
			cost := CalculateCost(e, rates, true)
			assert.Equal(t, "TRY", cost[model.PeriodMonth].Currency)
			assert.Equal(t, 10.0, cost[model.PeriodMonth].Amount)
			assert.Equal(t, 120.0, cost[model.PeriodYear].Amount)
		})
	}
}

func TestCalculateCost_NilConverter(t *testing.T) {
	e := model.Expense{Period: model.PeriodYear, Currency: "eur", Price: 5, Quantity: 2}
	cost := CalculateCost(e, nil, true)
	assert.Equal(t, "EUR", cost[model.PeriodYear].Currency)
	assert.Equal(t, 10.0, cost[model.PeriodYear].Amount)
}
