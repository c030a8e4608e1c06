package vectorize

import "math"

// VectorSum adds up the selected values in row order.
func VectorSum[T Number](col []T, sel []int32, n int) float64 {
	if sel == nil {
		if useUnrolled {
			return sumDense8(col, n)
		}
		var sum float64
		for i := 0; i < n; i++ {
			sum += float64(col[i])
		}
		return sum
	}
	var sum float64
	for _, idx := range sel[:n] {
		sum += float64(col[idx])
	}
	return sum
}

// VectorMin is +Inf over an empty selection.
func VectorMin[T Number](col []T, sel []int32, n int) float64 {
	ret := math.Inf(1)
	if sel == nil {
		for i := 0; i < n; i++ {
			ret = min(ret, float64(col[i]))
		}
		return ret
	}
	for _, idx := range sel[:n] {
		ret = min(ret, float64(col[idx]))
	}
	return ret
}

// VectorMax is -Inf over an empty selection.
func VectorMax[T Number](col []T, sel []int32, n int) float64 {
	ret := math.Inf(-1)
	if sel == nil {
		for i := 0; i < n; i++ {
			ret = max(ret, float64(col[i]))
		}
		return ret
	}
	for _, idx := range sel[:n] {
		ret = max(ret, float64(col[idx]))
	}
	return ret
}
