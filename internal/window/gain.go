package window

import "github.com/chewxy/math32"

// Gain scales the chunk in place by the multiplier, clamping the result to
// the normalized sample range [-1, 1]. A multiplier of 1 is a no-op.
func Gain(chunk []float32, multiplier float32) {
	if multiplier == 1 {
		return
	}
	for i := range chunk {
		chunk[i] = math32.Max(-1, math32.Min(1, chunk[i]*multiplier))
	}
}
