// Package utils holds small arithmetic and buffer helpers shared across
// the dataset and UV-data packages.
package utils

import (
	"fmt"
	"math"
)

// CheckMultiplyOverflow reports whether a*b would overflow uint64.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil
	}
	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}
	return nil
}

// SafeMultiply multiplies a and b, or returns an error if it would overflow.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// ValidateBufferSize checks that size is nonzero and within maxSize,
// naming description in any error for context.
func ValidateBufferSize(size, maxSize uint64, description string) error {
	if size == 0 {
		return fmt.Errorf("%s: size cannot be zero", description)
	}
	if size > maxSize {
		return fmt.Errorf("%s: size %d exceeds maximum %d", description, size, maxSize)
	}
	return nil
}

// Buffer size limits used to reject absurd record lengths before
// allocating for them (vartable sizes, visdata record sizes).
const (
	// MaxVisRecordElements bounds a single visdata SIZE record's element
	// count; MIRIAD records are a handful of floats/complexes per visibility
	// channel, never anywhere near this.
	MaxVisRecordElements = 1 << 24

	// MaxVartableBytes bounds the in-memory size of a parsed vartable.
	MaxVartableBytes = 16 * 1024 * 1024
)
