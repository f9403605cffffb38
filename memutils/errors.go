package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// OutOfRangeError is the error wrapped by DebugCheckRange when a line or offset falls outside its block
var OutOfRangeError error = errors.New("value is outside of the block")
