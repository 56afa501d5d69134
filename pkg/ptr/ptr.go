// Package ptr provides helpers for the pointer-typed optional fields that
// external tool output is full of.
package ptr

// Deref returns the pointed-to value, or the zero value for a nil pointer.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T

		return zero
	}

	return *p
}

// Of returns a pointer to v.
func Of[T any](v T) *T { return &v }
