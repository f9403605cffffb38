package memutils

import (
	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

func CheckPow2[T constraints.Integer](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// CheckRange returns an error wrapping OutOfRangeError if value is not in [0, limit)
func CheckRange(value, limit int, name string) error {
	if value < 0 || value >= limit {
		return cerrors.Wrapf(OutOfRangeError, "%s is %d, limit is %d", name, value, limit)
	}
	return nil
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

// Validatable is anything with an internal consistency check, such as a block header. DebugValidate
// runs the check under the debug_immix build tag.
type Validatable interface {
	Validate() error
}
