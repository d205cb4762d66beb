package engine

import (
	"math"
	"math/bits"

	"github.com/1broseidon/screenhop/internal/config"
)

// MaxRawDelta bounds a single raw delta so that delta * sensitivity fits
// in int64 for any uint32 sensitivity.
const MaxRawDelta = math.MaxInt32

// maxTravel bounds a scaled delta. It leaves headroom for adding positions
// limited to config.MaxCoordinate.
const maxTravel = int64(1) << 60

// scale converts a raw delta to output units with sensitivity sens,
// rounding half-to-even and carrying the sub-unit remainder (in
// 1/BaseSensitivity units) into the next call.
func scale(raw int64, sens uint32, carry *int64) int64 {
	raw = clampAbs(raw, MaxRawDelta)
	num := raw*int64(sens) + *carry
	q := divRoundEven(num, config.BaseSensitivity)
	*carry = num - q*config.BaseSensitivity
	return q
}

// divRoundEven divides n by d > 0, rounding half-to-even.
func divRoundEven(n, d int64) int64 {
	q := n / d
	r := n % d
	if r < 0 {
		r += d
		q--
	}
	if 2*r > d || (2*r == d && q%2 != 0) {
		q++
	}
	return q
}

// mulDiv returns a*b/c rounded half-to-even using a 128-bit intermediate.
// The result saturates at ±maxTravel.
func mulDiv(a, b, c int64) int64 {
	if c == 0 {
		return 0
	}
	neg := (a < 0) != (b < 0) != (c < 0)
	ua, ub, uc := uabs(a), uabs(b), uabs(c)

	hi, lo := bits.Mul64(ua, ub)
	if hi >= uc {
		return signed(uint64(maxTravel), neg)
	}
	q, r := bits.Div64(hi, lo, uc)
	if r > uc-r || (r == uc-r && q%2 == 1) {
		q++
	}
	if q > uint64(maxTravel) {
		q = uint64(maxTravel)
	}
	if a == 0 || b == 0 {
		return 0
	}
	return signed(q, neg)
}

// lessProduct reports whether a*b < c*d for non-negative operands.
func lessProduct(a, b, c, d int64) bool {
	h1, l1 := bits.Mul64(uint64(a), uint64(b))
	h2, l2 := bits.Mul64(uint64(c), uint64(d))
	if h1 != h2 {
		return h1 < h2
	}
	return l1 < l2
}

func signed(v uint64, neg bool) int64 {
	if neg {
		return -int64(v)
	}
	return int64(v)
}

func uabs(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func clampAbs(v, limit int64) int64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
