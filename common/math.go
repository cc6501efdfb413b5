package common

import "math"

// Lerp blends a toward b by t. t is not clamped.
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Smooth maps u in [0, 1] onto the ease curve -2u³+3u².
// It has zero slope at both ends and passes through (0.5, 0.5).
func Smooth(u float64) float64 {
	return u * u * (3 - 2*u)
}

// Normalize returns where t sits between t0 and t1 as a fraction.
// A zero-length span yields 0.
func Normalize(t, t0, t1 float64) float64 {
	if t1 == t0 {
		return 0
	}
	return (t - t0) / (t1 - t0)
}

// Finite reports whether v is neither NaN nor an infinity.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// RoundByte rounds v to the nearest integer and clamps it to a color channel.
func RoundByte(v float64) uint8 {
	return uint8(Clamp(math.Round(v), 0, 255))
}
