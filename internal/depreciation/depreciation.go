// Package depreciation implements the book-value formulas used for assets.
//
// All calculations run in monthly periods on decimal money rounded to cents. A period's amount is always
// clamped so that book value never drops below the salvage value, and the last period of a life absorbs
// whatever rounding remainder is left.
package depreciation

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Method enumerates supported depreciation formulas.
type Method string

const (
	MethodStraightLine      Method = "STRAIGHT_LINE"
	MethodDecliningBalance  Method = "DECLINING_BALANCE"
	MethodUnitsOfProduction Method = "UNITS_OF_PRODUCTION"
	MethodSumOfYearsDigits  Method = "SUM_OF_YEARS_DIGITS"
)

// DefaultDecliningRate is the double-declining factor.
var DefaultDecliningRate = decimal.NewFromInt(2)

var (
	ErrUnknownMethod  = errors.New("unknown depreciation method")
	ErrInvalidCost    = errors.New("cost must be positive")
	ErrInvalidSalvage = errors.New("salvage value must be between zero and cost")
	ErrInvalidLife    = errors.New("useful life must be at least one month")
	ErrInvalidUnits   = errors.New("total expected units must be positive for units of production")
	ErrInvalidRate    = errors.New("declining balance rate cannot be negative")
	ErrNegativeUnits  = errors.New("units cannot be negative")
)

const centPlaces = 2

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodStraightLine, MethodDecliningBalance, MethodUnitsOfProduction, MethodSumOfYearsDigits:
		return true
	}
	return false
}

// Params are the inputs that fully determine an asset's depreciation.
type Params struct {
	Method           Method
	Cost             decimal.Decimal
	Salvage          decimal.Decimal
	UsefulLifeMonths int
	// DecliningRate is the multiple of the straight-line rate; zero means DefaultDecliningRate.
	DecliningRate decimal.Decimal
	TotalUnits    int64
	StartDate     time.Time
}

// Validate checks that the parameters describe a computable schedule.
func (p Params) Validate() error {
	if !p.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, p.Method)
	}
	if !p.Cost.IsPositive() {
		return ErrInvalidCost
	}
	if p.Salvage.IsNegative() || p.Salvage.GreaterThan(p.Cost) {
		return ErrInvalidSalvage
	}
	if p.UsefulLifeMonths <= 0 {
		return ErrInvalidLife
	}
	if p.Method == MethodUnitsOfProduction && p.TotalUnits <= 0 {
		return ErrInvalidUnits
	}
	if p.DecliningRate.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

// Base is the depreciable amount.
func (p Params) Base() decimal.Decimal {
	return p.Cost.Sub(p.Salvage)
}

func (p Params) rate() decimal.Decimal {
	if p.DecliningRate.IsPositive() {
		return p.DecliningRate
	}
	return DefaultDecliningRate
}

// State is the running position of an asset within its schedule.
type State struct {
	BookValue        decimal.Decimal
	Accumulated      decimal.Decimal
	Periods          int
	UnitsDepreciated int64
}

// Initial returns the state of a fresh asset.
func Initial(p Params) State {
	return State{BookValue: p.Cost, Accumulated: decimal.Zero}
}

// FullyDepreciated reports whether no further depreciation can be posted.
func (s State) FullyDepreciated(p Params) bool {
	return s.BookValue.LessThanOrEqual(p.Salvage)
}

// Period computes the depreciation for the next month. units is the usage consumed in that month and is
// only meaningful for units of production.
func Period(p Params, s State, units int64) (decimal.Decimal, error) {
	if err := p.Validate(); err != nil {
		return decimal.Zero, err
	}
	if units < 0 {
		return decimal.Zero, ErrNegativeUnits
	}

	remaining := s.BookValue.Sub(p.Salvage)
	if !remaining.IsPositive() {
		return decimal.Zero, nil
	}

	life := decimal.NewFromInt(int64(p.UsefulLifeMonths))
	final := s.Periods >= p.UsefulLifeMonths-1

	var amount decimal.Decimal
	switch p.Method {
	case MethodStraightLine:
		amount = p.Base().Div(life)
	case MethodDecliningBalance:
		amount = s.BookValue.Mul(p.rate()).Div(life)
	case MethodSumOfYearsDigits:
		amount = sumOfDigitsMonthly(p, s.Periods)
	case MethodUnitsOfProduction:
		final = s.UnitsDepreciated+units >= p.TotalUnits
		amount = p.Base().Div(decimal.NewFromInt(p.TotalUnits)).Mul(decimal.NewFromInt(units))
	}

	if final {
		return remaining, nil
	}
	amount = amount.Round(centPlaces)
	if amount.GreaterThan(remaining) {
		return remaining, nil
	}
	if amount.IsNegative() {
		return decimal.Zero, nil
	}
	return amount, nil
}

// sumOfDigitsMonthly runs the sum-of-the-years'-digits formula over months: period k (0-based) carries
// life-k of the life*(life+1)/2 digits.
func sumOfDigitsMonthly(p Params, period int) decimal.Decimal {
	weight := p.UsefulLifeMonths - period
	if weight <= 0 {
		return decimal.Zero
	}
	digits := decimal.NewFromInt(int64(p.UsefulLifeMonths * (p.UsefulLifeMonths + 1) / 2))
	return p.Base().Mul(decimal.NewFromInt(int64(weight))).Div(digits)
}

// Apply advances s by one posted period.
func Apply(s State, amount decimal.Decimal, units int64) State {
	s.BookValue = s.BookValue.Sub(amount)
	s.Accumulated = s.Accumulated.Add(amount)
	s.Periods++
	s.UnitsDepreciated += units
	return s
}

// Entry is one projected or posted month.
type Entry struct {
	Period      int             `json:"period"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Accumulated decimal.Decimal `json:"accumulated"`
	BookValue   decimal.Decimal `json:"book_value"`
	Units       int64           `json:"units,omitempty"`
}

// Schedule projects the whole life of an asset. usage lists units consumed per month for units of
// production; when empty the total is spread evenly over the useful life.
func Schedule(p Params, usage []int64) ([]Entry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	periods := p.UsefulLifeMonths
	if p.Method == MethodUnitsOfProduction {
		if len(usage) == 0 {
			usage = EvenUsage(p.TotalUnits, p.UsefulLifeMonths)
		}
		periods = len(usage)
	}

	state := Initial(p)
	entries := make([]Entry, 0, periods)
	for i := 0; i < periods; i++ {
		if state.FullyDepreciated(p) {
			break
		}
		var units int64
		if p.Method == MethodUnitsOfProduction {
			units = usage[i]
		}
		amount, err := Period(p, state, units)
		if err != nil {
			return nil, err
		}
		state = Apply(state, amount, units)
		entries = append(entries, Entry{
			Period:      state.Periods,
			Date:        PeriodDate(p.StartDate, state.Periods),
			Amount:      amount,
			Accumulated: state.Accumulated,
			BookValue:   state.BookValue,
			Units:       units,
		})
	}
	return entries, nil
}

// EvenUsage spreads total units over months, front-loading any remainder one unit at a time.
func EvenUsage(total int64, months int) []int64 {
	if months <= 0 {
		return nil
	}
	per := total / int64(months)
	rem := total % int64(months)
	plan := make([]int64, months)
	for i := range plan {
		plan[i] = per
		if int64(i) < rem {
			plan[i]++
		}
	}
	return plan
}

// BookValueAt returns the projected book value after every period due on or before asOf.
func BookValueAt(p Params, asOf time.Time) (decimal.Decimal, error) {
	entries, err := Schedule(p, nil)
	if err != nil {
		return decimal.Zero, err
	}
	elapsed := ElapsedPeriods(p.StartDate, asOf)
	if elapsed == 0 || len(entries) == 0 {
		return p.Cost, nil
	}
	if elapsed > len(entries) {
		elapsed = len(entries)
	}
	return entries[elapsed-1].BookValue, nil
}

// PeriodDate is the date on which the n-th period (1-based) becomes due.
func PeriodDate(start time.Time, n int) time.Time {
	return AddMonths(start, n)
}

// NextDate is the due date of the period following the given number of posted periods.
func NextDate(start time.Time, posted int) time.Time {
	return AddMonths(start, posted+1)
}

// ElapsedPeriods counts whole months from start up to and including asOf.
func ElapsedPeriods(start, asOf time.Time) int {
	if start.IsZero() || !asOf.After(start) {
		return 0
	}
	months := (asOf.Year()-start.Year())*12 + int(asOf.Month()-start.Month())
	if AddMonths(start, months).After(asOf) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// AddMonths adds n calendar months, clamping the day to the end of the target month.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
