// Package ptr has pointer helpers for optional fields.
package ptr

// To returns a pointer to v.
func To[T any](v T) *T {
	return &v
}

// NonZero returns a pointer to v, or nil when v is the zero value.
// Optional filters use it so an unset flag means "no filter".
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
