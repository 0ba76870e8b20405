package models

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a money value in minor units (cents). It crosses the API
// boundary as a decimal number with two fractional digits.
type Amount int64

// maxAmount keeps sums of many amounts far away from int64 overflow.
var maxAmount = decimal.New(1, 13)

// ParseAmount parses a decimal string such as "12.5" or "12.50".
// Values with more than two fractional digits are rounded half away from zero.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal converts d to cents.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return 0, fmt.Errorf("amount %s out of range", d.String())
	}
	return Amount(d.Shift(2).Round(0).IntPart()), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid amount %s", s)
		}
		s = unquoted
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value stores the amount as integer cents.
func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}

// Scan reads integer cents.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*a = Amount(v)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan amount: %w", err)
		}
		*a = Amount(n)
	case nil:
		*a = 0
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
	return nil
}
