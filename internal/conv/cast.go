package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

// ToUint32 narrows v to uint32.
func ToUint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit uint32", ErrOverflow, v)
	}
	return uint32(v), nil
}

// ToInt converts v to int, rejecting anything above limit.
func ToInt(v, limit uint64) (int, error) {
	if v > limit || v > math.MaxInt {
		return 0, fmt.Errorf("%w: %d exceeds %d", ErrOverflow, v, min(limit, math.MaxInt))
	}
	return int(v), nil
}
