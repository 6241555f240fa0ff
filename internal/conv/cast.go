package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a checked conversion would lose information.
var ErrOverflow = errors.New("conv: integer overflow")

func overflow(v any, target string, reason string) error {
	return fmt.Errorf("%w: %v does not fit %s (%s)", ErrOverflow, v, target, reason)
}

// IntToUint16 converts v to uint16, failing when it does not fit.
func IntToUint16(v int) (uint16, error) {
	if v < 0 {
		return 0, overflow(v, "uint16", "negative")
	}
	if v > math.MaxUint16 {
		return 0, overflow(v, "uint16", "too large")
	}
	return uint16(v), nil
}

// IntToUint32 converts v to uint32, failing when it does not fit.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, overflow(v, "uint32", "negative")
	}
	// Always false on 32-bit platforms.
	if uint64(v) > math.MaxUint32 {
		return 0, overflow(v, "uint32", "too large")
	}
	return uint32(v), nil
}

// IntToUint64 converts v to uint64, failing for negative values.
func IntToUint64(v int) (uint64, error) {
	if v < 0 {
		return 0, overflow(v, "uint64", "negative")
	}
	return uint64(v), nil
}

// Uint64ToInt converts v to int, failing when it exceeds math.MaxInt.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, overflow(v, "int", "too large")
	}
	return int(v), nil
}

// Uint32ToInt converts v to int, failing when it exceeds math.MaxInt.
func Uint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, overflow(v, "int", "too large")
	}
	return int(v), nil
}

// MulInt multiplies two non-negative ints, failing on overflow.
func MulInt(a, b int) (int, error) {
	if a < 0 || b < 0 {
		return 0, overflow(fmt.Sprintf("%d*%d", a, b), "int", "negative")
	}
	if a != 0 && b > math.MaxInt/a {
		return 0, overflow(fmt.Sprintf("%d*%d", a, b), "int", "too large")
	}
	return a * b, nil
}
