package vectorize

import (
	"cmp"

	"golang.org/x/sys/cpu"
)

// useUnrolled picks the 8-wide kernels on hardware with wide vector units.
// The kernels visit rows in the same order as the scalar loops, so results
// are bit identical either way.
var useUnrolled = cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD

// SetUnrolled overrides the hardware probe and returns the previous setting.
func SetUnrolled(on bool) bool {
	old := useUnrolled
	useUnrolled = on
	return old
}

func ltDense8[T cmp.Ordered](col []T, c T, out []int32, n int) int {
	k, i := 0, 0
	for ; i+8 <= n; i += 8 {
		blk := col[i : i+8 : i+8]
		out[k] = int32(i)
		k += b2i(blk[0] < c)
		out[k] = int32(i + 1)
		k += b2i(blk[1] < c)
		out[k] = int32(i + 2)
		k += b2i(blk[2] < c)
		out[k] = int32(i + 3)
		k += b2i(blk[3] < c)
		out[k] = int32(i + 4)
		k += b2i(blk[4] < c)
		out[k] = int32(i + 5)
		k += b2i(blk[5] < c)
		out[k] = int32(i + 6)
		k += b2i(blk[6] < c)
		out[k] = int32(i + 7)
		k += b2i(blk[7] < c)
	}
	for ; i < n; i++ {
		out[k] = int32(i)
		k += b2i(col[i] < c)
	}
	return k
}

func leDense8[T cmp.Ordered](col []T, c T, out []int32, n int) int {
	k, i := 0, 0
	for ; i+8 <= n; i += 8 {
		blk := col[i : i+8 : i+8]
		out[k] = int32(i)
		k += b2i(blk[0] <= c)
		out[k] = int32(i + 1)
		k += b2i(blk[1] <= c)
		out[k] = int32(i + 2)
		k += b2i(blk[2] <= c)
		out[k] = int32(i + 3)
		k += b2i(blk[3] <= c)
		out[k] = int32(i + 4)
		k += b2i(blk[4] <= c)
		out[k] = int32(i + 5)
		k += b2i(blk[5] <= c)
		out[k] = int32(i + 6)
		k += b2i(blk[6] <= c)
		out[k] = int32(i + 7)
		k += b2i(blk[7] <= c)
	}
	for ; i < n; i++ {
		out[k] = int32(i)
		k += b2i(col[i] <= c)
	}
	return k
}

func geDense8[T cmp.Ordered](col []T, c T, out []int32, n int) int {
	k, i := 0, 0
	for ; i+8 <= n; i += 8 {
		blk := col[i : i+8 : i+8]
		out[k] = int32(i)
		k += b2i(blk[0] >= c)
		out[k] = int32(i + 1)
		k += b2i(blk[1] >= c)
		out[k] = int32(i + 2)
		k += b2i(blk[2] >= c)
		out[k] = int32(i + 3)
		k += b2i(blk[3] >= c)
		out[k] = int32(i + 4)
		k += b2i(blk[4] >= c)
		out[k] = int32(i + 5)
		k += b2i(blk[5] >= c)
		out[k] = int32(i + 6)
		k += b2i(blk[6] >= c)
		out[k] = int32(i + 7)
		k += b2i(blk[7] >= c)
	}
	for ; i < n; i++ {
		out[k] = int32(i)
		k += b2i(col[i] >= c)
	}
	return k
}

func gtDense8[T cmp.Ordered](col []T, c T, out []int32, n int) int {
	k, i := 0, 0
	for ; i+8 <= n; i += 8 {
		blk := col[i : i+8 : i+8]
		out[k] = int32(i)
		k += b2i(blk[0] > c)
		out[k] = int32(i + 1)
		k += b2i(blk[1] > c)
		out[k] = int32(i + 2)
		k += b2i(blk[2] > c)
		out[k] = int32(i + 3)
		k += b2i(blk[3] > c)
		out[k] = int32(i + 4)
		k += b2i(blk[4] > c)
		out[k] = int32(i + 5)
		k += b2i(blk[5] > c)
		out[k] = int32(i + 6)
		k += b2i(blk[6] > c)
		out[k] = int32(i + 7)
		k += b2i(blk[7] > c)
	}
	for ; i < n; i++ {
		out[k] = int32(i)
		k += b2i(col[i] > c)
	}
	return k
}

func eqDense8[T cmp.Ordered](col []T, c T, out []int32, n int) int {
	k, i := 0, 0
	for ; i+8 <= n; i += 8 {
		blk := col[i : i+8 : i+8]
		out[k] = int32(i)
		k += b2i(blk[0] == c)
		out[k] = int32(i + 1)
		k += b2i(blk[1] == c)
		out[k] = int32(i + 2)
		k += b2i(blk[2] == c)
		out[k] = int32(i + 3)
		k += b2i(blk[3] == c)
		out[k] = int32(i + 4)
		k += b2i(blk[4] == c)
		out[k] = int32(i + 5)
		k += b2i(blk[5] == c)
		out[k] = int32(i + 6)
		k += b2i(blk[6] == c)
		out[k] = int32(i + 7)
		k += b2i(blk[7] == c)
	}
	for ; i < n; i++ {
		out[k] = int32(i)
		k += b2i(col[i] == c)
	}
	return k
}

// sumDense8 keeps a single accumulator so float results match the scalar
// loop exactly.
func sumDense8[T Number](col []T, n int) float64 {
	var sum float64
	i := 0
	for ; i+8 <= n; i += 8 {
		blk := col[i : i+8 : i+8]
		sum += float64(blk[0])
		sum += float64(blk[1])
		sum += float64(blk[2])
		sum += float64(blk[3])
		sum += float64(blk[4])
		sum += float64(blk[5])
		sum += float64(blk[6])
		sum += float64(blk[7])
	}
	for ; i < n; i++ {
		sum += float64(col[i])
	}
	return sum
}
