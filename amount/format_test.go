package amount

import (
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaleToDecimal(t *testing.T) {
	for _, tc := range []struct {
		raw      interface{}
		dp       int
		expected string
	}{
		{"1129935", 5, "11.29935"},
		{"-500", 2, "-5.00"},
		{"5", 3, "0.005"},
		{"-5", 3, "-0.005"},
		{"0", 2, "0.00"},
		{"-0", 2, "0.00"},
		{"123", 0, "123"},
		{int64(1), 18, "0.000000000000000001"},
		{"123456789012345678901234567890", 18, "123456789012.345678901234567890"},
		{"15", 1, "1.5"},
		{"1.5", 2, "0.015"},
		{"", 2, ""},
		{nil, 2, ""},
		{"abc", 2, ""},
		{"100", -1, ""},
	} {
		require.Equal(t, tc.expected, ScaleToDecimal(tc.raw, tc.dp), "%v/%d", tc.raw, tc.dp)
	}
}

func TestFormatFixed(t *testing.T) {
	for _, tc := range []struct {
		raw      interface{}
		dp       int
		expected string
	}{
		{"-500", 2, "-5.00"},
		{"1129935", 5, "11.29935"},
		{"123456789", 2, "1,234,567.89"},
		{"-123456789", 0, "-123,456,789"},
		{"100000", 2, "1,000.00"},
		{"999", 3, "0.999"},
		{"0", 4, "0.0000"},
		{"-0", 0, "0"},
		{"1.5", 0, "2"},
		{"", 2, ""},
		{"x", 2, ""},
	} {
		require.Equal(t, tc.expected, FormatFixed(tc.raw, tc.dp), "%v/%d", tc.raw, tc.dp)
	}
}

func TestFormatFixedIdempotent(t *testing.T) {
	for _, raw := range []string{"-500", "1129935", "123456789", "0", "98765432109876543210"} {
		for _, dp := range []int{0, 1, 2, 5, 18} {
			out := FormatFixed(raw, dp)
			require.Equal(t, out, RenderFixed(out, dp), "%s/%d", raw, dp)
		}
	}
	require.Equal(t, "", RenderFixed("1.00", -1))

	// Grouped output at zero decimals reads back as the same integer.
	require.Equal(t, "1,234,567", FormatFixed("1,234,567", 0))
	require.Equal(t, "1,234,567", FormatFixed(FormatFixed("1234567", 0), 0))
}

func TestDecimalPlacesLimit(t *testing.T) {
	require.Equal(t, "0."+strings.Repeat("0", MaxDecimalPlaces-1)+"1", ScaleToDecimal("1", MaxDecimalPlaces))
	require.Equal(t, "0."+strings.Repeat("0", MaxDecimalPlaces-1)+"1", FormatFixed("1", MaxDecimalPlaces))

	for _, dp := range []int{MaxDecimalPlaces + 1, 100001, math.MaxInt32 + 1, math.MaxInt} {
		require.Equal(t, "", ScaleToDecimal("1", dp), dp)
		require.Equal(t, "", FormatFixed("1", dp), dp)
		require.Equal(t, "", RenderFixed("1", dp), dp)
		require.Equal(t, "", FormatNumber("1", dp), dp)
		require.Equal(t, "", RemoveDecimal("1", dp), dp)
		require.Equal(t, "", Step(dp), dp)
	}
}

func TestRemoveDecimalRoundTrip(t *testing.T) {
	// Well beyond 2^53.
	magnitude := new(big.Int).Lsh(big.NewInt(1), 80)
	magnitude.Add(magnitude, big.NewInt(12345))

	for _, v := range []*big.Int{magnitude, new(big.Int).Neg(magnitude), big.NewInt(0)} {
		for _, dp := range []int{0, 1, 6, 18, 30} {
			scaled := ScaleToDecimal(v, dp)
			require.Equal(t, v.String(), RemoveDecimal(scaled, dp), "%s/%d", v, dp)
		}
	}
}

func TestRemoveDecimal(t *testing.T) {
	require.Equal(t, "1234500", RemoveDecimal("12.345", 5))
	require.Equal(t, "13", RemoveDecimal("1.25", 1))
	require.Equal(t, "-13", RemoveDecimal("-1.25", 1))
	require.Equal(t, "0", RemoveDecimal("-0.0001", 2))
	require.Equal(t, "", RemoveDecimal("1,5", 1))
	require.Equal(t, "", RemoveDecimal("1", -2))
}

func TestStep(t *testing.T) {
	require.Equal(t, "1", Step(0))
	require.Equal(t, "0.1", Step(1))
	require.Equal(t, "0.001", Step(3))
	require.Equal(t, "", Step(-1))
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "1,234.57", FormatNumber("1234.5678", 2))
	require.Equal(t, "1,234.5", FormatNumber("1234.5", 4))
	require.Equal(t, "1,234", FormatNumber("1234.000", 2))
	require.Equal(t, "0", FormatNumber("-0.001", 2))
	require.Equal(t, "-1", FormatNumber(-1, 0))
	require.Equal(t, "1,000,000", FormatNumber("1,000,000", 0))
	require.Equal(t, "", FormatNumber("oops", 2))
}

func TestCustomFormat(t *testing.T) {
	de := Format{
		GroupSeparator:   ".",
		DecimalSeparator: ",",
		GroupSize:        3,
		Classes:          DefaultClasses,
	}
	require.NoError(t, de.Validate())

	out := de.FormatFixed("123456789", 2)
	require.Equal(t, "1.234.567,89", out)
	require.Equal(t, out, de.RenderFixed(out, 2))
	require.Equal(t, "-5,00", de.ScaleToDecimal("-500", 2))
	require.Equal(t, "1.234,5", de.FormatNumber("1.234,50", 2))

	noGroups := DefaultFormat
	noGroups.GroupSize = 0
	require.Equal(t, "1234567.89", noGroups.FormatFixed("123456789", 2))
}

func TestFormatValidate(t *testing.T) {
	require.NoError(t, DefaultFormat.Validate())

	for _, f := range []Format{
		{GroupSeparator: ",", DecimalSeparator: ""},
		{GroupSeparator: ".", DecimalSeparator: "."},
		{GroupSeparator: ",", DecimalSeparator: ".", GroupSize: -1},
		{GroupSeparator: "1", DecimalSeparator: "."},
		{GroupSeparator: ",", DecimalSeparator: "-"},
	} {
		require.Error(t, f.Validate(), "%+v", f)
	}
}
