package pricing

import "github.com/shopspring/decimal"

// Direction of a price movement
type Direction string

const (
	Increase Direction = "INCREASE"
	Decrease Direction = "DECREASE"
	Same     Direction = "SAME"
)

var hundred = decimal.NewFromInt(100)

// Change compares two observations of the same product
type Change struct {
	Current   decimal.Decimal
	Previous  decimal.Decimal
	Delta     decimal.Decimal
	Percent   decimal.Decimal
	Direction Direction
}

// Compute returns the change from previous to current.
// Percent is zero when previous is not positive.
func Compute(current, previous decimal.Decimal) Change {
	delta := current.Sub(previous)

	percent := decimal.Zero
	if previous.IsPositive() {
		percent = delta.Div(previous).Mul(hundred)
	}

	direction := Same
	switch delta.Sign() {
	case 1:
		direction = Increase
	case -1:
		direction = Decrease
	}

	return Change{
		Current:   current,
		Previous:  previous,
		Delta:     delta,
		Percent:   percent,
		Direction: direction,
	}
}

// Symbol returns an arrow for the direction
func (d Direction) Symbol() string {
	switch d {
	case Increase:
		return "▲"
	case Decrease:
		return "▼"
	default:
		return "="
	}
}
