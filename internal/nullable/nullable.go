// Package nullable provides value types for numbers and instants that may be
// absent, with arithmetic that propagates absence instead of producing NaN
// sentinels. Modeled after database/sql's Null* types.
package nullable

import (
	"encoding/json"
	"time"
)

// Float is a float64 that may be absent. The zero value is absent.
type Float struct {
	Value float64
	Valid bool
}

// FloatFrom returns a present Float holding v.
func FloatFrom(v float64) Float {
	return Float{Value: v, Valid: true}
}

// Float64 returns the held value and whether it is present.
func (f Float) Float64() (float64, bool) {
	return f.Value, f.Valid
}

// Sub returns f - other, absent when either operand is absent.
func (f Float) Sub(other Float) Float {
	if !f.Valid || !other.Valid {
		return Float{}
	}
	return FloatFrom(f.Value - other.Value)
}

// Mul returns f * other, absent when either operand is absent.
func (f Float) Mul(other Float) Float {
	if !f.Valid || !other.Valid {
		return Float{}
	}
	return FloatFrom(f.Value * other.Value)
}

// Div returns f / other, absent when either operand is absent or the
// divisor is zero.
func (f Float) Div(other Float) Float {
	if !f.Valid || !other.Valid || other.Value == 0 {
		return Float{}
	}
	return FloatFrom(f.Value / other.Value)
}

// GreaterThan reports whether both operands are present and f > other.
// Absence on either side fails the comparison.
func (f Float) GreaterThan(other Float) bool {
	return f.Valid && other.Valid && f.Value > other.Value
}

// MarshalJSON encodes the value, or null when absent.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON decodes a number or null.
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FloatFrom(v)
	return nil
}

// Time is a time.Time that may be absent. The zero value is absent.
type Time struct {
	Value time.Time
	Valid bool
}

// TimeFrom returns a present Time holding v.
func TimeFrom(v time.Time) Time {
	return Time{Value: v, Valid: true}
}

// MarshalJSON encodes the instant in RFC 3339, or null when absent.
func (t Time) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// UnmarshalJSON decodes an RFC 3339 instant or null.
func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Time{}
		return nil
	}
	var v time.Time
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = TimeFrom(v)
	return nil
}
