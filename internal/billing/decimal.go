// Package billing holds the unit and cost primitives every report and
// ingestion path shares. All money and quantity math is exact decimal;
// float64 only appears at the serialization boundary.
package billing

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// decimalContext bounds precision for all arithmetic. 34 digits matches
// IEEE 754-2008 decimal128, far beyond any upstream quantity.
var decimalContext = apd.BaseContext.WithPrecision(34)

// Decimal wraps apd.Decimal with database and JSON round-tripping.
type Decimal struct {
	value apd.Decimal
}

func NewDecimal(s string) (Decimal, error) {
	var d apd.Decimal
	if _, _, err := d.SetString(strings.TrimSpace(s)); err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return Decimal{value: d}, nil
}

// MustDecimal parses a literal and panics on failure. For constants and
// tests only.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func NewDecimalFromInt64(i int64) Decimal {
	var d apd.Decimal
	d.SetInt64(i)
	return Decimal{value: d}
}

func (d Decimal) String() string {
	return d.value.String()
}

func (d Decimal) IsZero() bool {
	return d.value.IsZero()
}

func (d Decimal) Cmp(other Decimal) int {
	return d.value.Cmp(&other.value)
}

// Add returns the sum of d and other.
func (d Decimal) Add(other Decimal) Decimal {
	var result apd.Decimal
	_, _ = decimalContext.Add(&result, &d.value, &other.value)
	return Decimal{value: result}
}

// Mul returns the product of d and other.
func (d Decimal) Mul(other Decimal) Decimal {
	var result apd.Decimal
	_, _ = decimalContext.Mul(&result, &d.value, &other.value)
	return Decimal{value: result}
}

// Div returns the quotient of d divided by other.
func (d Decimal) Div(other Decimal) Decimal {
	var result apd.Decimal
	_, _ = decimalContext.Quo(&result, &d.value, &other.value)
	return Decimal{value: result}
}

// Float64 converts for JSON output. Precision loss is accepted at this
// boundary only.
func (d Decimal) Float64() float64 {
	f, err := d.value.Float64()
	if err != nil {
		return 0
	}
	return f
}

// Scan implements sql.Scanner so numeric columns load without going
// through float64.
func (d *Decimal) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.value = apd.Decimal{}
		return nil
	case string:
		_, _, err := d.value.SetString(v)
		return err
	case []byte:
		_, _, err := d.value.SetString(string(v))
		return err
	case int64:
		d.value.SetInt64(v)
		return nil
	case float64:
		_, _, err := d.value.SetString(strconv.FormatFloat(v, 'f', -1, 64))
		return err
	default:
		return fmt.Errorf("cannot scan %T into Decimal", src)
	}
}

// Value implements driver.Valuer; numerics travel as strings.
func (d Decimal) Value() (driver.Value, error) {
	return d.value.String(), nil
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.value.String()), nil
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		d.value = apd.Decimal{}
		return nil
	}
	_, _, err := d.value.SetString(s)
	return err
}
