package model

import "time"

// Period is the time unit an expense price is quoted for.
type Period string

// Supported periods.
const (
	PeriodYear  Period = "y"
	PeriodMonth Period = "m"
	PeriodWeek  Period = "w"
	PeriodDay   Period = "d"
	PeriodHour  Period = "h"
)

// Periods lists every supported period, longest first.
var Periods = []Period{PeriodYear, PeriodMonth, PeriodWeek, PeriodDay, PeriodHour}

// Valid reports whether p is a supported period.
func (p Period) Valid() bool {
	switch p {
	case PeriodYear, PeriodMonth, PeriodWeek, PeriodDay, PeriodHour:
		return true
	default:
		return false
	}
}

// PeriodCost is an expense expressed for one period.
type PeriodCost struct {
	Currency      string  `json:"currency"`
	Amount        float64 `json:"amount"`
	AmountWithTax float64 `json:"amountWithTax"`
}

// Expense is a recurring company overhead. Cost is derived from the other fields.
type Expense struct {
	Cost     map[Period]PeriodCost `json:"cost"`
	Name     string                `json:"name"`
	Category string                `json:"category"`
	Period   Period                `json:"period"`
	Unit     string                `json:"unit"`
	Currency string                `json:"currency"`
	ID       int                   `json:"expenseId"`
	Quantity float64               `json:"quantity"`
	Price    float64               `json:"price"`
	Tax      float64               `json:"tax"`
}

// Employee is a wage earner. Gross and Net are annual wages in Currency, the same yearly terms
// company totals use for expenses.
type Employee struct {
	DateOfBirth      time.Time `json:"dob"`
	DateOfEmployment time.Time `json:"doe"`
	ID               string    `json:"employeeId"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Department       string    `json:"department"`
	Currency         string    `json:"currency"`
	Gross            float64   `json:"gross"`
	Net              float64   `json:"net"`
}

// TotalsSnapshot is one point of the overhead/labour trend.
type TotalsSnapshot struct {
	Date     time.Time `json:"date"`
	Overhead float64   `json:"overhead"`
	Labour   float64   `json:"labour"`
}

// CompanyTotals aggregates yearly expenses and annual wages in the default currency. Amounts in a
// currency without a usable rate are counted at face value, for expenses and wages alike.
type CompanyTotals struct {
	UpdatedAt       time.Time        `json:"updatedAt"`
	Currency        string           `json:"currency"`
	History         []TotalsSnapshot `json:"history"`
	Expenses        float64          `json:"expenses"`
	ExpensesWithTax float64          `json:"expensesWithTax"`
	LabourNet       float64          `json:"labourNet"`
	LabourGross     float64          `json:"labourGross"`
	SalariesNet     float64          `json:"salariesNet"`
	SalariesGross   float64          `json:"salariesGross"`
}

// Overhead is the annual expense figure used for trend snapshots.
func (t CompanyTotals) Overhead() float64 {
	return t.Expenses
}

// Labour is the labour wage figure used for trend snapshots.
func (t CompanyTotals) Labour() float64 {
	return t.LabourGross
}
