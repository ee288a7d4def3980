package mmio

import "golang.org/x/exp/constraints"

// Bit returns a mask with only bit n set.
func Bit[T constraints.Unsigned](n uint) T {
	return T(1) << n
}

// Field extracts width bits of v starting at pos.
func Field[T constraints.Unsigned](v T, pos, width uint) T {
	return (v >> pos) & (T(1)<<width - 1)
}

// WithField returns v with the width-bit field at pos replaced by field.
func WithField[T constraints.Unsigned](v T, pos, width uint, field T) T {
	mask := (T(1)<<width - 1) << pos
	return v&^mask | (field<<pos)&mask
}
