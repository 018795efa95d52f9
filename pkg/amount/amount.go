// Copyright 2025 Certen Protocol
//
// Package amount implements the fixed-point Amount type of spec §3:
// an unsigned 256-bit integer magnitude paired with a precision byte.
//
// No repo in the example corpus models a checked, saturating-overflow-is-
// an-error u256 fixed-point quantity (the EVM-derived repos model wrapping
// 256-bit machine words for gas/balance math, a different contract); this
// package is built directly on math/big with explicit bound checks rather
// than adopting an unrelated third-party numeric type. See DESIGN.md.
package amount

import (
	"errors"
	"fmt"
	"math/big"
)

// MaxPrecision is the largest precision value representable (spec §3: Asset.precision ≤ 255).
const MaxPrecision = 255

var (
	// ErrOverflow is returned when an addition would exceed the 256-bit range.
	ErrOverflow = errors.New("amount: u256 overflow")
	// ErrUnderflow is returned when a subtraction would go negative.
	ErrUnderflow = errors.New("amount: underflow")
	// ErrPrecisionMismatch is returned when two amounts with different precision are combined.
	ErrPrecisionMismatch = errors.New("amount: precision mismatch")
	// ErrNegative is returned when an amount would otherwise be negative.
	ErrNegative = errors.New("amount: negative value")
)

// maxU256 is 2^256 - 1, the ceiling for int_value (spec §3).
var maxU256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Amount is a fixed-point quantity: an unsigned integer magnitude at a
// declared decimal precision (spec §3).
type Amount struct {
	Value     *big.Int
	Precision uint8
}

// Zero returns the zero amount at the given precision.
func Zero(precision uint8) Amount {
	return Amount{Value: big.NewInt(0), Precision: precision}
}

// New builds an Amount from an integer magnitude and precision, validating range.
func New(value *big.Int, precision uint8) (Amount, error) {
	if value.Sign() < 0 {
		return Amount{}, ErrNegative
	}
	if value.Cmp(maxU256) > 0 {
		return Amount{}, ErrOverflow
	}
	return Amount{Value: new(big.Int).Set(value), Precision: precision}, nil
}

// FromString parses a base-10 integer magnitude at the given precision.
func FromString(s string, precision uint8) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("amount: invalid integer %q", s)
	}
	return New(v, precision)
}

// Add computes a+b. Fails with ErrPrecisionMismatch if precisions differ,
// ErrOverflow if the u256 range is exceeded (spec §3, §8).
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Precision != b.Precision {
		return Amount{}, ErrPrecisionMismatch
	}
	sum := new(big.Int).Add(a.Value, b.Value)
	if sum.Cmp(maxU256) > 0 {
		return Amount{}, ErrOverflow
	}
	return Amount{Value: sum, Precision: a.Precision}, nil
}

// Sub computes a-b. Fails with ErrPrecisionMismatch if precisions differ,
// ErrUnderflow if a < b (spec §3, §8: "a - b fails iff a < b or precisions mismatch").
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Precision != b.Precision {
		return Amount{}, ErrPrecisionMismatch
	}
	if a.Value.Cmp(b.Value) < 0 {
		return Amount{}, ErrUnderflow
	}
	diff := new(big.Int).Sub(a.Value, b.Value)
	return Amount{Value: diff, Precision: a.Precision}, nil
}

// AtPrecision rescales a to precision target, multiplying the magnitude by
// 10^(target-precision). Fails with ErrPrecisionMismatch if target is
// smaller than a's own precision (scaling down would lose information) and
// with ErrOverflow if the rescaled magnitude would exceed the u256 range.
func (a Amount) AtPrecision(target uint8) (Amount, error) {
	if target < a.Precision {
		return Amount{}, ErrPrecisionMismatch
	}
	if target == a.Precision {
		return a.Clone(), nil
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(target-a.Precision)), nil)
	scaled := new(big.Int).Mul(a.Value, scale)
	if scaled.Cmp(maxU256) > 0 {
		return Amount{}, ErrOverflow
	}
	return Amount{Value: scaled, Precision: target}, nil
}

// Cmp compares the magnitudes of two amounts. Precision is not checked: the
// result is meaningful only when both amounts share a precision (see AtPrecision).
func (a Amount) Cmp(b Amount) int {
	return a.Value.Cmp(b.Value)
}

// IsZero reports whether the magnitude is zero.
func (a Amount) IsZero() bool {
	return a.Value.Sign() == 0
}

// IsPositive reports whether the magnitude is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.Value.Sign() > 0
}

// String renders the amount as its integer magnitude (callers apply the
// decimal point at Precision digits from the right when presenting to users).
func (a Amount) String() string {
	if a.Value == nil {
		return "0"
	}
	return a.Value.String()
}

// Clone returns a deep copy, since *big.Int is mutable.
func (a Amount) Clone() Amount {
	return Amount{Value: new(big.Int).Set(a.Value), Precision: a.Precision}
}
