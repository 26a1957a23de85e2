// Package math includes important helpers for Ethereum such as fast integer square roots.
package math

import (
	stdmath "math"
	"math/bits"

	"github.com/pkg/errors"
	"github.com/thomaso-mirodin/intmath/u64"
)

var (
	// ErrOverflow is returned when an arithmetic operation would exceed 64 bits.
	ErrOverflow = errors.New("integer overflow")
	// ErrDivByZero is returned when dividing by zero.
	ErrDivByZero = errors.New("integer divide by zero")
	// ErrUnderflow is returned when subtracting a larger value from a smaller one.
	ErrUnderflow = errors.New("integer underflow")
)

// IntegerSquareRoot defines a function that returns the
// largest possible integer root of a number using go's standard library.
func IntegerSquareRoot(n uint64) uint64 {
	return u64.Sqrt(n)
}

// CeilDiv8 divides the input number by 8
// and takes the ceiling of that number.
func CeilDiv8(n int) int {
	ret := n / 8
	if n%8 > 0 {
		ret++
	}
	return ret
}

// IsPowerOf2 returns true if n is an
// exact power of two. False otherwise.
func IsPowerOf2(n uint64) bool {
	return n != 0 && (n&(n-1)) == 0
}

// PowerOf2 returns an integer that is the provided
// exponent of 2. Can only return powers of 2 till 63,
// after that it overflows.
func PowerOf2(n uint64) uint64 {
	if n >= 64 {
		panic("integer overflow")
	}
	return 1 << n
}

// Max returns the larger integer of the two
// given ones.This is used over the Max function
// in the standard math library because that max function
// has to check for some special floating point cases
// making it slower by a magnitude of 10.
func Max(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller integer of the two
// given ones.
func Min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// Mul64 multiples 2 64-bit unsigned integers and checks if they
// lead to an overflow. If they do not, it returns the result
// without an error.
func Mul64(a, b uint64) (uint64, error) {
	overflows, val := bits.Mul64(a, b)
	if overflows > 0 {
		return 0, ErrOverflow
	}
	return val, nil
}

// Div64 divides two 64-bit unsigned integers and checks for errors.
func Div64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivByZero
	}
	val, _ := bits.Div64(0, a, b)
	return val, nil
}

// Add64 adds 2 64-bit unsigned integers and checks if they
// lead to an overflow. If they do not, it returns the result
// without an error.
func Add64(a, b uint64) (uint64, error) {
	res, carry := bits.Add64(a, b, 0 /* carry */)
	if carry > 0 {
		return 0, ErrOverflow
	}
	return res, nil
}

// Sub64 subtracts two 64-bit unsigned integers and checks if they
// lead to an underflow. If they do not, it returns the result
// without an error.
func Sub64(a, b uint64) (uint64, error) {
	res, borrow := bits.Sub64(a, b, 0 /* borrow */)
	if borrow > 0 {
		return 0, ErrUnderflow
	}
	return res, nil
}

// SaturatingSub subtracts b from a, returning zero instead of wrapping.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// MaxUint64 is the largest representable 64-bit unsigned integer.
const MaxUint64 = uint64(stdmath.MaxUint64)
