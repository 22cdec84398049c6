package amount

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/apd"
)

// Format holds the display conventions applied when rendering amounts. It
// is passed explicitly so that formatting never depends on ambient state.
type Format struct {
	// GroupSeparator is inserted between digit groups of the integer part.
	GroupSeparator string `koanf:"group_separator" json:"group_separator"`
	// DecimalSeparator separates the integer and fractional parts.
	DecimalSeparator string `koanf:"decimal_separator" json:"decimal_separator"`
	// GroupSize is the number of integer digits per group. Zero disables
	// grouping.
	GroupSize int `koanf:"group_size" json:"group_size"`
	// Classes are the style classes per SignClass.
	Classes Classes `koanf:"classes" json:"classes"`
}

// DefaultFormat mirrors the en-US number format used by the trading UI.
var DefaultFormat = Format{
	GroupSeparator:   ",",
	DecimalSeparator: ".",
	GroupSize:        3,
	Classes:          DefaultClasses,
}

// Validate checks that the separators can be told apart from digits and
// from each other.
func (f Format) Validate() error {
	if f.DecimalSeparator == "" {
		return fmt.Errorf("decimal separator must not be empty")
	}
	if f.GroupSeparator == f.DecimalSeparator {
		return fmt.Errorf("group and decimal separators must differ, both are %q", f.DecimalSeparator)
	}
	if f.GroupSize < 0 {
		return fmt.Errorf("invalid group size %d", f.GroupSize)
	}
	for _, sep := range []string{f.GroupSeparator, f.DecimalSeparator} {
		if strings.ContainsAny(sep, "0123456789-+") {
			return fmt.Errorf("separator %q must not contain digits or signs", sep)
		}
	}
	return nil
}

// ClassName returns the style class of v.
func (f Format) ClassName(v interface{}) string {
	return f.Classes.For(Classify(v))
}

// ScaleToDecimal divides the integer rawValue by 10^decimalPlaces and
// returns the exact result with at least decimalPlaces fractional digits.
// No digit is ever dropped. Malformed input or decimalPlaces outside
// [0, MaxDecimalPlaces] yield "".
func ScaleToDecimal(rawValue interface{}, decimalPlaces int) string {
	return DefaultFormat.ScaleToDecimal(rawValue, decimalPlaces)
}

// FormatFixed renders rawValue / 10^decimalPlaces with exactly
// decimalPlaces fractional digits and digit grouping.
func FormatFixed(rawValue interface{}, decimalPlaces int) string {
	return DefaultFormat.FormatFixed(rawValue, decimalPlaces)
}

// RenderFixed re-renders an already scaled value with exactly decimalPlaces
// fractional digits and digit grouping.
func RenderFixed(value string, decimalPlaces int) string {
	return DefaultFormat.RenderFixed(value, decimalPlaces)
}

// FormatNumber renders an already scaled value grouped and rounded half up
// to at most maxDecimals fractional digits, without trailing zeros.
func FormatNumber(value interface{}, maxDecimals int) string {
	return DefaultFormat.FormatNumber(value, maxDecimals)
}

// ScaleToDecimal is the package-level ScaleToDecimal rendered with f's
// decimal separator. It never groups digits, so the output can be fed back
// into a form field.
func (f Format) ScaleToDecimal(rawValue interface{}, decimalPlaces int) string {
	a := From(rawValue)
	if !a.valid || !ValidPlaces(decimalPlaces) {
		return ""
	}
	scaled := a.Shift(-int32(decimalPlaces))
	if scaled.d.Exponent > -int32(decimalPlaces) {
		// Pad with zeros; quantizing upwards in precision is exact.
		var err error
		if scaled, err = scaled.quantize(int32(decimalPlaces)); err != nil {
			return ""
		}
	}
	return f.localize(scaled.String(), false)
}

// FormatFixed is the package-level FormatFixed using f. String input is
// read with f's separators.
func (f Format) FormatFixed(rawValue interface{}, decimalPlaces int) string {
	a := f.from(rawValue)
	if !a.valid || !ValidPlaces(decimalPlaces) {
		return ""
	}
	return f.fixed(a.Shift(-int32(decimalPlaces)), decimalPlaces)
}

// RenderFixed is the package-level RenderFixed using f. It accepts the
// output of FormatFixed, so RenderFixed(FormatFixed(x, d), d) equals
// FormatFixed(x, d).
func (f Format) RenderFixed(value string, decimalPlaces int) string {
	if !ValidPlaces(decimalPlaces) {
		return ""
	}
	return f.fixed(f.Parse(value), decimalPlaces)
}

// FormatNumber is the package-level FormatNumber using f.
func (f Format) FormatNumber(value interface{}, maxDecimals int) string {
	a := f.from(value)
	if !a.valid || !ValidPlaces(maxDecimals) {
		return ""
	}
	rounded, err := a.quantize(int32(maxDecimals))
	if err != nil {
		return ""
	}
	s := rounded.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return f.localize(s, true)
}

// Parse reads a value rendered with f's separators, e.g. "1,234.50".
func (f Format) Parse(value string) Amount {
	if f.GroupSeparator != "" {
		value = strings.ReplaceAll(value, f.GroupSeparator, "")
	}
	if f.DecimalSeparator != "." {
		if strings.Contains(value, ".") {
			return Amount{}
		}
		value = strings.ReplaceAll(value, f.DecimalSeparator, ".")
	}
	return Parse(value)
}

func (f Format) from(value interface{}) Amount {
	if s, ok := value.(string); ok {
		return f.Parse(s)
	}
	return From(value)
}

func (f Format) fixed(a Amount, places int) string {
	if !a.valid {
		return ""
	}
	q, err := a.quantize(int32(places))
	if err != nil {
		return ""
	}
	return f.localize(q.String(), true)
}

// localize takes a plain "-1234.5" rendering and applies f's separators.
func (f Format) localize(plain string, group bool) string {
	sign := ""
	if strings.HasPrefix(plain, "-") {
		sign, plain = "-", plain[1:]
	}
	intPart, frac, hasFrac := strings.Cut(plain, ".")
	if group {
		intPart = f.group(intPart)
	}
	if hasFrac {
		return sign + intPart + f.DecimalSeparator + frac
	}
	return sign + intPart
}

func (f Format) group(digits string) string {
	if f.GroupSize <= 0 || f.GroupSeparator == "" || len(digits) <= f.GroupSize {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits) + utf8.RuneCountInString(f.GroupSeparator)*(len(digits)/f.GroupSize))
	lead := len(digits) % f.GroupSize
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += f.GroupSize {
		if b.Len() > 0 {
			b.WriteString(f.GroupSeparator)
		}
		b.WriteString(digits[i : i+f.GroupSize])
	}
	return b.String()
}

// RemoveDecimal is the inverse of ScaleToDecimal: it multiplies value by
// 10^decimalPlaces and rounds half up to an integer. Malformed input yields
// "".
func RemoveDecimal(value interface{}, decimalPlaces int) string {
	a := From(value)
	if !a.valid || !ValidPlaces(decimalPlaces) {
		return ""
	}
	q, err := a.Shift(int32(decimalPlaces)).quantize(0)
	if err != nil {
		return ""
	}
	return q.String()
}

// Step returns the smallest increment representable with decimalPlaces
// fractional digits, e.g. "0.001" for 3 and "1" for 0.
func Step(decimalPlaces int) string {
	if !ValidPlaces(decimalPlaces) {
		return ""
	}
	return apd.New(1, -int32(decimalPlaces)).Text('f')
}
