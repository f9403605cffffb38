//go:build debug_immix

package memutils

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_immix build tag is present
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_immix build tag is present.
func DebugCheckPow2(value uint, name string) {
	err := CheckPow2(value, name)
	if err != nil {
		panic(err)
	}
}

// DebugCheckRange will verify that value lies in [0, limit), and panics if it does not. Block and line map
// operations use it to catch addresses outside of the owning block.
// This method no-ops unless the debug_immix build tag is present.
func DebugCheckRange(value, limit int, name string) {
	err := CheckRange(value, limit, name)
	if err != nil {
		panic(err)
	}
}
