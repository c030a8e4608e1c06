package vectorize

import (
	"math"

	"github.com/daviszhen/pipegen/pkg/util"
)

// Gather copies the selected values of src densely into out.
func Gather[T any](src []T, sel []int32, n int, out []T) int {
	if sel == nil {
		copy(out[:n], src[:n])
		return n
	}
	for i, idx := range sel[:n] {
		out[i] = src[idx]
	}
	return n
}

// Cast converts the selected values of src into out at the same positions.
func Cast[S, D Number](src []S, out []D, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = D(src[i])
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = D(src[idx])
	}
	return n
}

// Fill writes c at the selected positions of out.
func Fill[T any](out []T, c T, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = c
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = c
	}
	return n
}

// Iota writes the identity selection 0..n-1.
func Iota(out []int32, n int) int {
	for i := 0; i < n; i++ {
		out[i] = int32(i)
	}
	return n
}

// FloatBits stores the IEEE bits of the selected doubles at the same
// positions of out.
func FloatBits(src []float64, out []int64, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = int64(math.Float64bits(src[i]))
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = int64(math.Float64bits(src[idx]))
	}
	return n
}

// FromBits is the inverse of FloatBits over n dense values.
func FromBits(src []int64, out []float64, n int) int {
	for i := 0; i < n; i++ {
		out[i] = math.Float64frombits(uint64(src[i]))
	}
	return n
}

// JoinKeys coerces the selected integer values into dense 32-bit map keys
// and their pre-hashes. Keys outside [0, MaxInt32] fail with InvalidKey.
func JoinKeys[T ~int32 | ~int64](col []T, sel []int32, n int, keys []int32, hashes []uint32) error {
	for i := 0; i < n; i++ {
		var v T
		if sel == nil {
			v = col[i]
		} else {
			v = col[sel[i]]
		}
		if v < 0 || int64(v) > math.MaxInt32 {
			return util.InvalidKeyf("key %d out of range", int64(v))
		}
		keys[i] = int32(v)
		hashes[i] = util.HashKey(int32(v))
	}
	return nil
}

// HashKeys computes pre-hashes of n dense keys.
func HashKeys(keys []int32, n int, hashes []uint32) {
	for i := 0; i < n; i++ {
		hashes[i] = util.HashKey(keys[i])
	}
}
