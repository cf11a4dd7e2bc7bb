package dao

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Precision scales the cumulative reward-per-staked-unit index.
var Precision = uint256.NewInt(1_000_000_000_000_000_000)

// Zero returns a fresh zero amount.
func Zero() *uint256.Int { return new(uint256.Int) }

// NewAmount wraps a small literal, mostly for tests and scenario files.
// Example payload: dao.NewAmount(100)
func NewAmount(v uint64) *uint256.Int { return uint256.NewInt(v) }

// ParseAmount reads a decimal amount as written in payloads and config.
// Example payload: dao.ParseAmount("1000")
func ParseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

// Add returns a+b or ErrArithmetic.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrArithmetic
	}
	return z, nil
}

// Sub returns a-b or ErrArithmetic when b > a.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrArithmetic
	}
	return z, nil
}

// Mul returns a*b or ErrArithmetic.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrArithmetic
	}
	return z, nil
}

// MulDiv returns floor(a*b/d). Division by zero is ErrArithmetic, never a
// silent zero.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrArithmetic
	}
	p, err := Mul(a, b)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(p, d), nil
}

// Min returns a copy of the smaller value.
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return a.Clone()
	}
	return b.Clone()
}
