package ticket

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDerivedPrice(t *testing.T) {
	require.Equal(t, "200", DerivedPrice(OrderTypeMarket, "100", "200"))
	require.Equal(t, "100", DerivedPrice(OrderTypeLimit, "100", "200"))
	require.True(t, OrderTypeLimit.Valid())
	require.False(t, OrderType("TYPE_STOP").Valid())
}

func TestNotionalSize(t *testing.T) {
	m := Market{DecimalPlaces: 5, PositionDecimalPlaces: 2}

	n, ok := NotionalSize("1129935", "250", m)
	require.True(t, ok)
	require.Equal(t, "28.2483750", n.StringFixed(7))
	require.True(t, n.Equal(n.Round(7)))

	// Beyond float64 precision.
	n, ok = NotionalSize("123456789012345678901234567890", "1", Market{DecimalPlaces: 18})
	require.True(t, ok)
	require.Equal(t, "123456789012.34567890123456789", n.String())

	_, ok = NotionalSize("", "1", m)
	require.False(t, ok)
	_, ok = NotionalSize("1", "abc", m)
	require.False(t, ok)
	_, ok = NotionalSize("1", "1", Market{DecimalPlaces: -1})
	require.False(t, ok)
}

func TestSteps(t *testing.T) {
	m := Market{DecimalPlaces: 3, PositionDecimalPlaces: 0}
	require.Equal(t, "0.001", m.PriceStep())
	require.Equal(t, "1", m.SizeStep())
	require.Equal(t, "", Market{DecimalPlaces: -1}.PriceStep())
}

func TestValidateAmount(t *testing.T) {
	require.NoError(t, ValidateAmount("", "1", "Size"))
	require.NoError(t, ValidateAmount("10", "1", "Size"))
	require.NoError(t, ValidateAmount("1.25", "0.01", "Price"))

	err := ValidateAmount("1.5", "1", "Size")
	require.EqualError(t, err, "Size must be whole numbers for this market")

	err = ValidateAmount("1.2345", "0.001", "Price")
	require.EqualError(t, err, "Price accepts up to 3 decimal places")

	err = ValidateAmount("1.x", "0.1", "Trailing percentage offset")
	require.EqualError(t, err, "Trailing percentage offset is not a valid number")
}

func TestMarketValidation(t *testing.T) {
	m := Market{DecimalPlaces: 2, PositionDecimalPlaces: 1}

	require.NoError(t, m.ValidatePrice("10.25"))
	require.EqualError(t, m.ValidatePrice("0.001"), "Price cannot be lower than 0.01")
	require.EqualError(t, m.ValidatePrice("10.255"), "Price accepts up to 2 decimal places")

	require.NoError(t, m.ValidateSize("0.1"))
	require.EqualError(t, m.ValidateSize("0"), "Size cannot be lower than 0.1")
}
