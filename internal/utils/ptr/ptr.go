// Package ptr returns pointers to values for optional fields.
package ptr

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Float64 returns a pointer to f, or nil when f is not positive. Optional
// rates and costs use nil for unknown.
func Float64(f float64) *float64 {
	if f <= 0 {
		return nil
	}
	return &f
}
