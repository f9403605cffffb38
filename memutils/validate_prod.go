//go:build !debug_immix

package memutils

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_immix build tag is present
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_immix build tag is present.
func DebugCheckPow2(value uint, name string) {
}

// DebugCheckRange will verify that value lies in [0, limit), and panics if it does not.
// This method no-ops unless the debug_immix build tag is present.
func DebugCheckRange(value, limit int, name string) {
}
