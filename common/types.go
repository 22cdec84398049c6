package common

import (
	"fmt"
	"math/big"
	"strings"
)

// Arbitrary-precision integer as it arrives from the data layer, e.g. a
// price or a position size before its decimal places are applied. Wrapper
// around big.Int to allow for custom JSON marshaling as a string.
type BigInt struct {
	big.Int
}

func NewBigInt(v int64) BigInt {
	return BigInt{*big.NewInt(v)}
}

// BigIntFromString parses a base-10 integer, optionally signed.
func BigIntFromString(s string) (BigInt, error) {
	var b BigInt
	if err := b.UnmarshalText([]byte(s)); err != nil {
		return BigInt{}, err
	}
	return b, nil
}

func (b BigInt) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BigInt) UnmarshalText(text []byte) error {
	if _, ok := b.Int.SetString(string(text), 10); !ok {
		return fmt.Errorf("invalid integer amount %q", text)
	}
	return nil
}

func (b BigInt) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, b.String())), nil
}

// UnmarshalJSON accepts both quoted and bare integers; the data node emits
// amounts as strings but small counters as JSON numbers.
func (b *BigInt) UnmarshalJSON(text []byte) error {
	v := strings.Trim(string(text), "\"")
	return b.UnmarshalText([]byte(v))
}

// Key used to set values in a web request context. API uses this to set
// values, handlers use this to retrieve values.
type ContextKey string

const (
	// RequestIDContextKey is used to set a request id for tracing
	// in a request context.
	RequestIDContextKey ContextKey = "request_id"
)
