// Package amount converts on-chain scaled integer amounts into display
// strings and sign classifications.
//
// Every input is converted once, at the boundary, into an Amount backed by an
// arbitrary-precision decimal. Malformed input never panics and never
// returns an error on the display path: it becomes an invalid Amount, which
// formats as the empty string and classifies as Neutral.
package amount

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd"

	"github.com/vegaprotocol/amounts/common"
)

// ErrMalformed is returned by ParseStrict for input that is not a finite
// base-10 number.
var ErrMalformed = errors.New("malformed numeric input")

// MaxDecimalPlaces is the largest number of decimal places accepted by the
// formatting functions. Larger values are treated as malformed.
const MaxDecimalPlaces = 100

// ValidPlaces reports whether decimalPlaces is within [0, MaxDecimalPlaces].
func ValidPlaces(decimalPlaces int) bool {
	return decimalPlaces >= 0 && decimalPlaces <= MaxDecimalPlaces
}

// Amount is an immutable arbitrary-precision decimal value. The zero value
// is invalid.
type Amount struct {
	d     apd.Decimal
	valid bool
}

// From converts any supported representation into an Amount. Supported
// are strings, native integers, floats, big.Int, common.BigInt, apd
// decimals and Amount itself. Anything else yields an invalid Amount.
func From(v interface{}) Amount {
	switch t := v.(type) {
	case nil:
		return Amount{}
	case Amount:
		return t
	case *Amount:
		if t == nil {
			return Amount{}
		}
		return *t
	case string:
		return Parse(t)
	case int:
		return FromInt64(int64(t))
	case int8:
		return FromInt64(int64(t))
	case int16:
		return FromInt64(int64(t))
	case int32:
		return FromInt64(int64(t))
	case int64:
		return FromInt64(t)
	case uint:
		return FromBigInt(new(big.Int).SetUint64(uint64(t)))
	case uint8:
		return FromInt64(int64(t))
	case uint16:
		return FromInt64(int64(t))
	case uint32:
		return FromInt64(int64(t))
	case uint64:
		return FromBigInt(new(big.Int).SetUint64(t))
	case float32:
		return fromFloat(float64(t), 32)
	case float64:
		return fromFloat(t, 64)
	case *big.Int:
		return FromBigInt(t)
	case big.Int:
		return FromBigInt(&t)
	case common.BigInt:
		return FromBigInt(&t.Int)
	case *common.BigInt:
		if t == nil {
			return Amount{}
		}
		return FromBigInt(&t.Int)
	case *apd.Decimal:
		return fromDecimal(t)
	case fmt.Stringer:
		return Parse(t.String())
	default:
		return Amount{}
	}
}

// Parse interprets s as a base-10 number, optionally signed and optionally
// with a fractional part. Malformed input yields an invalid Amount.
func Parse(s string) Amount {
	a, _ := ParseStrict(s)
	return a
}

// ParseStrict is like Parse but reports why the input was rejected.
func ParseStrict(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty value", ErrMalformed)
	}
	if isInteger(s) {
		// Plain integers are not bound by the decimal exponent limits.
		i, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return Amount{}, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		return fromDecimal(apd.NewWithBigInt(i, 0)), nil
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if d.Form != apd.Finite {
		return Amount{}, fmt.Errorf("%w: %q is not finite", ErrMalformed, s)
	}
	return fromDecimal(d), nil
}

// isInteger reports whether s is an optionally signed run of ASCII digits.
func isInteger(s string) bool {
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FromInt64 returns the Amount for v.
func FromInt64(v int64) Amount {
	return fromDecimal(apd.New(v, 0))
}

// FromBigInt returns the Amount for v. A nil v yields an invalid Amount.
func FromBigInt(v *big.Int) Amount {
	if v == nil {
		return Amount{}
	}
	return fromDecimal(apd.NewWithBigInt(new(big.Int).Set(v), 0))
}

func fromFloat(f float64, bitSize int) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}
	}
	return Parse(strconv.FormatFloat(f, 'f', -1, bitSize))
}

// fromDecimal copies d into a valid Amount. Negative zero is normalized so
// that "-0" is indistinguishable from "0".
func fromDecimal(d *apd.Decimal) Amount {
	if d == nil || d.Form != apd.Finite {
		return Amount{}
	}
	var a Amount
	a.d.Set(d)
	if a.d.Coeff.Sign() == 0 {
		a.d.Negative = false
	}
	a.valid = true
	return a
}

// Valid reports whether the Amount was built from well-formed input.
func (a Amount) Valid() bool {
	return a.valid
}

// Sign returns -1, 0 or +1. Invalid amounts report 0.
func (a Amount) Sign() int {
	if !a.valid || a.d.Coeff.Sign() == 0 {
		return 0
	}
	if a.d.Negative {
		return -1
	}
	return 1
}

// Decimal returns a copy of the underlying decimal, or nil when invalid.
func (a Amount) Decimal() *apd.Decimal {
	if !a.valid {
		return nil
	}
	return new(apd.Decimal).Set(&a.d)
}

// Shift multiplies the amount by 10^places. The result is exact.
func (a Amount) Shift(places int32) Amount {
	if !a.valid {
		return a
	}
	var out Amount
	out.d.Set(&a.d)
	out.d.Exponent += places
	out.valid = true
	return out
}

// Cmp compares a and b. Invalid amounts compare as zero.
func (a Amount) Cmp(b Amount) int {
	x, y := a.orZero(), b.orZero()
	return x.Cmp(y)
}

func (a Amount) orZero() *apd.Decimal {
	if !a.valid {
		return apd.New(0, 0)
	}
	return &a.d
}

// String renders the amount in plain (non-exponent) notation, keeping every
// digit it carries. Invalid amounts render as "".
func (a Amount) String() string {
	if !a.valid {
		return ""
	}
	return a.d.Text('f')
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseStrict(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// quantize returns the amount rounded half up to exactly places fractional
// digits.
func (a Amount) quantize(places int32) (Amount, error) {
	if !a.valid {
		return a, ErrMalformed
	}
	ctx := apd.BaseContext.WithPrecision(precisionFor(&a.d, places))
	ctx.Rounding = apd.RoundHalfUp
	var out Amount
	if _, err := ctx.Quantize(&out.d, &a.d, -places); err != nil {
		return Amount{}, err
	}
	if out.d.Coeff.Sign() == 0 {
		out.d.Negative = false
	}
	out.valid = true
	return out, nil
}

// precisionFor returns a precision large enough to hold d with places
// fractional digits without rounding the integer part.
func precisionFor(d *apd.Decimal, places int32) uint32 {
	digits := int64(len(d.Coeff.String()))
	intDigits := digits + int64(d.Exponent)
	if intDigits < 1 {
		intDigits = 1
	}
	return uint32(intDigits + int64(places) + 1)
}
