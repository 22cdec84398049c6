package amount

import "fmt"

// SignClass is the display bucket of an amount, derived from its sign only.
type SignClass uint8

const (
	// Neutral is used for zero and for malformed or missing values.
	Neutral SignClass = iota
	// Positive is used for values strictly greater than zero.
	Positive
	// Negative is used for values strictly less than zero.
	Negative
)

// String returns the string representation of a SignClass.
func (c SignClass) String() string {
	switch c {
	case Neutral:
		return "neutral"
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c SignClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *SignClass) UnmarshalText(text []byte) error {
	switch string(text) {
	case "neutral":
		*c = Neutral
	case "positive":
		*c = Positive
	case "negative":
		*c = Negative
	default:
		return fmt.Errorf("unknown sign class %q", text)
	}
	return nil
}

// Style class names used by the trading grids.
const (
	PositiveClassNames = "text-market-green-600 dark:text-market-green"
	NegativeClassNames = "text-market-red dark:text-market-red"
	ZeroClassNames     = "text-vega-orange dark:text-vega-orange"
)

// Classes maps each SignClass to a style class identifier.
type Classes struct {
	Positive string `koanf:"positive" json:"positive"`
	Negative string `koanf:"negative" json:"negative"`
	Neutral  string `koanf:"neutral" json:"neutral"`
}

// DefaultClasses leaves neutral values unstyled.
var DefaultClasses = Classes{
	Positive: PositiveClassNames,
	Negative: NegativeClassNames,
}

// For returns the class identifier of c.
func (cl Classes) For(c SignClass) string {
	switch c {
	case Positive:
		return cl.Positive
	case Negative:
		return cl.Negative
	default:
		return cl.Neutral
	}
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.Sign() > 0
}

// IsNegative reports whether the amount is strictly less than zero.
// Negative zero is not negative.
func (a Amount) IsNegative() bool {
	return a.Sign() < 0
}

// IsZero reports whether a well-formed amount equals zero, whatever its
// representation ("0", "000", "0.0", "-0").
func (a Amount) IsZero() bool {
	return a.valid && a.d.Coeff.Sign() == 0
}

// Class returns the SignClass of the amount.
func (a Amount) Class() SignClass {
	switch {
	case a.IsPositive():
		return Positive
	case a.IsNegative():
		return Negative
	default:
		return Neutral
	}
}

// IsPositive reports whether v, converted with From, is strictly positive.
func IsPositive(v interface{}) bool {
	return From(v).IsPositive()
}

// IsNegative reports whether v, converted with From, is strictly negative.
func IsNegative(v interface{}) bool {
	return From(v).IsNegative()
}

// IsZero reports whether v, converted with From, equals zero.
func IsZero(v interface{}) bool {
	return From(v).IsZero()
}

// Classify returns the SignClass of v. It never panics; malformed or
// missing values are Neutral.
func Classify(v interface{}) SignClass {
	return From(v).Class()
}

// SignedNumberClass returns the default style class of v.
func SignedNumberClass(v interface{}) string {
	return DefaultFormat.ClassName(v)
}
