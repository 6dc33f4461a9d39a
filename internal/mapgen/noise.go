package mapgen

import "math"

// valueNoise2D returns smoothly interpolated lattice noise in [0,1].
func valueNoise2D(x, y float64, seed int64) float64 {
	xi := int(math.Floor(x))
	yi := int(math.Floor(y))
	xf := x - float64(xi)
	yf := y - float64(yi)

	// Hermite smoothstep.
	u := xf * xf * (3 - 2*xf)
	v := yf * yf * (3 - 2*yf)

	n00 := latticeValue(xi, yi, seed)
	n10 := latticeValue(xi+1, yi, seed)
	n01 := latticeValue(xi, yi+1, seed)
	n11 := latticeValue(xi+1, yi+1, seed)

	nx0 := n00*(1-u) + n10*u
	nx1 := n01*(1-u) + n11*u
	return nx0*(1-v) + nx1*v
}

// latticeValue hashes an integer lattice point to a value in [0,1].
func latticeValue(x, y int, seed int64) float64 {
	h := uint64(seed)
	h ^= uint64(x) * 0x517cc1b727220a95
	h ^= uint64(y) * 0x6c62272e07bb0142
	h = h*0x2545f4914f6cdd1d + 0x14057b7ef767814f
	h ^= h >> 16
	h *= 0xd6e8feb86659fd93
	h ^= h >> 16
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

// fractal sums octaves of value noise. Each octave doubles the frequency and
// halves the amplitude.
func fractal(x, y, scale float64, seeds []int64) float64 {
	sum := 0.0
	freq := scale
	amp := 1.0
	for _, s := range seeds {
		sum += valueNoise2D(x*freq, y*freq, s) * amp
		freq *= 2
		amp *= 0.5
	}
	return sum
}

// normalize rescales values in place to [0,1]. A flat field becomes all 0.
func normalize(values []float64) {
	if len(values) == 0 {
		return
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	for i, v := range values {
		if span == 0 {
			values[i] = 0
		} else {
			values[i] = (v - lo) / span
		}
	}
}
