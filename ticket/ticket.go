// Package ticket implements the arithmetic behind the order entry form:
// which price an order is valued at, its notional size, and the steps and
// validation rules for the price and size inputs.
package ticket

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderType is the type of an order as submitted to the network.
type OrderType string

const (
	OrderTypeMarket OrderType = "TYPE_MARKET"
	OrderTypeLimit  OrderType = "TYPE_LIMIT"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == OrderTypeMarket || t == OrderTypeLimit
}

// Market holds the scales of a market's prices and position sizes.
type Market struct {
	DecimalPlaces         int32 `json:"decimal_places"`
	PositionDecimalPlaces int32 `json:"position_decimal_places"`
}

// PriceStep is the smallest price increment of the market.
func (m Market) PriceStep() string {
	return step(m.DecimalPlaces)
}

// SizeStep is the smallest size increment of the market.
func (m Market) SizeStep() string {
	return step(m.PositionDecimalPlaces)
}

func step(places int32) string {
	if places < 0 {
		return ""
	}
	return decimal.New(1, -places).String()
}

// DerivedPrice returns the raw price an order is valued at. Market orders
// execute at the market (or trigger) price; every other order type uses the
// price entered on the ticket.
func DerivedPrice(t OrderType, enteredPrice, marketPrice string) string {
	if t == OrderTypeMarket {
		return marketPrice
	}
	return enteredPrice
}

// NotionalSize returns price * size with both raw integers scaled to their
// market decimals. ok is false when either input is missing or malformed.
func NotionalSize(price, size string, m Market) (notional decimal.Decimal, ok bool) {
	if price == "" || size == "" || m.DecimalPlaces < 0 || m.PositionDecimalPlaces < 0 {
		return decimal.Zero, false
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return decimal.Zero, false
	}
	s, err := decimal.NewFromString(size)
	if err != nil {
		return decimal.Zero, false
	}
	return p.Shift(-m.DecimalPlaces).Mul(s.Shift(-m.PositionDecimalPlaces)), true
}

// ValidateAmount checks that value has no more fractional digits than step
// allows. Empty values pass; whether a field is required is checked
// separately.
func ValidateAmount(value, step, field string) error {
	if value == "" {
		return nil
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("%s is not a valid number", field)
	}
	st, err := decimal.NewFromString(step)
	if err != nil {
		return fmt.Errorf("invalid step %q for %s", step, field)
	}
	stepDecimals := fractionalDigits(st)
	if fractionalDigits(v) > stepDecimals {
		if stepDecimals == 0 {
			return fmt.Errorf("%s must be whole numbers for this market", field)
		}
		return fmt.Errorf("%s accepts up to %d decimal places", field, stepDecimals)
	}
	return nil
}

// ValidateMinimum checks that value is not lower than minimum.
func ValidateMinimum(value, minimum, field string) error {
	if value == "" {
		return nil
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("%s is not a valid number", field)
	}
	m, err := decimal.NewFromString(minimum)
	if err != nil {
		return fmt.Errorf("invalid minimum %q for %s", minimum, field)
	}
	if v.LessThan(m) {
		return fmt.Errorf("%s cannot be lower than %s", field, minimum)
	}
	return nil
}

// ValidatePrice runs the price input rules of the market.
func (m Market) ValidatePrice(value string) error {
	if err := ValidateMinimum(value, m.PriceStep(), "Price"); err != nil {
		return err
	}
	return ValidateAmount(value, m.PriceStep(), "Price")
}

// ValidateSize runs the size input rules of the market.
func (m Market) ValidateSize(value string) error {
	if err := ValidateMinimum(value, m.SizeStep(), "Size"); err != nil {
		return err
	}
	return ValidateAmount(value, m.SizeStep(), "Size")
}

// fractionalDigits counts the fractional digits as written, so "1.50" has
// two.
func fractionalDigits(d decimal.Decimal) int32 {
	if e := d.Exponent(); e < 0 {
		return -e
	}
	return 0
}
