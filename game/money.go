package game

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a currency value in minor units (1/100 of a birr).
type Amount int64

var minorUnits = decimal.NewFromInt(100)

// AmountFromDecimal converts a major-unit value to minor units. Values with
// fractional minor units are rejected rather than rounded.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	m := d.Mul(minorUnits)
	if !m.IsInteger() {
		return 0, fmt.Errorf("%w: %s has sub-cent precision", ErrInvalidAmount, d.String())
	}
	return Amount(m.IntPart()), nil
}

// MustAmount parses a major-unit string such as "20.00". It panics on bad input.
func MustAmount(s string) Amount {
	a, err := AmountFromDecimal(decimal.RequireFromString(s))
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := AmountFromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// applyRate multiplies by a fraction and rounds half-up to a whole minor unit.
func (a Amount) applyRate(f decimal.Decimal) Amount {
	return Amount(decimal.NewFromInt(int64(a)).Mul(f).Round(0).IntPart())
}
