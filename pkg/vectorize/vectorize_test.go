package vectorize

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/pipegen/pkg/util"
)

func randInts(n int, limit int32) []int32 {
	r := rand.New(rand.NewSource(42))
	ret := make([]int32, n)
	for i := range ret {
		ret[i] = r.Int31n(limit)
	}
	return ret
}

func Test_ltGePartition(t *testing.T) {
	for _, unrolled := range []bool{false, true} {
		old := SetUnrolled(unrolled)
		col := randInts(1000, 1000)
		lt := make([]int32, len(col))
		nlt := Lt(col, 500, lt, nil, len(col))

		// complement of lt as the input selection of ge
		all := make([]int32, len(col))
		Iota(all, len(col))
		inLt := make(map[int32]bool)
		for _, idx := range lt[:nlt] {
			inLt[idx] = true
		}
		rest := make([]int32, 0)
		for _, idx := range all {
			if !inLt[idx] {
				rest = append(rest, idx)
			}
		}
		ge := make([]int32, len(col))
		nge := Ge(col, 500, ge, rest, len(rest))
		assert.Equal(t, len(rest), nge)

		union := append(append([]int32{}, lt[:nlt]...), ge[:nge]...)
		sort.Slice(union, func(i, j int) bool { return union[i] < union[j] })
		assert.Equal(t, all, union)
		for _, idx := range lt[:nlt] {
			assert.Less(t, col[idx], int32(500))
		}
		for _, idx := range ge[:nge] {
			assert.GreaterOrEqual(t, col[idx], int32(500))
		}
		SetUnrolled(old)
	}
}

func Test_unrolledMatchesScalar(t *testing.T) {
	col := randInts(1003, 100)
	for _, op := range []CmpOp{CmpLt, CmpLe, CmpGe, CmpGt, CmpEq, CmpNe} {
		a := make([]int32, len(col))
		b := make([]int32, len(col))
		old := SetUnrolled(false)
		na := CompareConst(op, col, 37, a, nil, len(col))
		SetUnrolled(true)
		nb := CompareConst(op, col, 37, b, nil, len(col))
		SetUnrolled(old)
		require.Equal(t, na, nb, op.String())
		assert.Equal(t, a[:na], b[:nb], op.String())
	}

	floats := make([]float64, 1003)
	for i := range floats {
		floats[i] = 1.0 / float64(i+1)
	}
	old := SetUnrolled(false)
	s1 := VectorSum(floats, nil, len(floats))
	SetUnrolled(true)
	s2 := VectorSum(floats, nil, len(floats))
	SetUnrolled(old)
	assert.Equal(t, math.Float64bits(s1), math.Float64bits(s2))
}

func Test_narrowingConjunction(t *testing.T) {
	col := []int64{5, 1, 9, 3, 7, 2, 8}
	s1 := make([]int32, len(col))
	n1 := Gt(col, 2, s1, nil, len(col))
	s2 := make([]int32, len(col))
	n2 := Lt(col, 8, s2, s1, n1)
	assert.Equal(t, []int32{0, 3, 4}, s2[:n2])

	other := []int64{1, 1, 1, 4, 7, 0, 0}
	s3 := make([]int32, len(col))
	n3 := EqCol(col, other, s3, s2, n2)
	assert.Equal(t, []int32{4}, s3[:n3])
}

func Test_arithmeticOverSelection(t *testing.T) {
	a := []int64{1, 2, 3, 4}
	b := []int64{10, 20, 30, 40}
	out := []int64{-1, -1, -1, -1}
	sel := []int32{1, 3}
	assert.Equal(t, 2, Add(a, b, out, sel, 2))
	assert.Equal(t, []int64{-1, 22, -1, 44}, out)

	assert.Equal(t, 4, ArithConst(OpMul, a, 3, out, nil, 4))
	assert.Equal(t, []int64{3, 6, 9, 12}, out)

	fo := make([]float64, 4)
	Div([]float64{1, 2, 3, 4}, []float64{2, 2, 2, 2}, fo, nil, 4)
	assert.Equal(t, []float64{0.5, 1, 1.5, 2}, fo)

	assert.Panics(t, func() {
		DivConst(a, 0, out, nil, 4)
	})
}

func Test_aggregates(t *testing.T) {
	col := []int32{4, -2, 9, 1}
	assert.Equal(t, 12.0, VectorSum(col, nil, 4))
	assert.Equal(t, 14.0, VectorSum(col, []int32{0, 2, 3}, 3))
	assert.Equal(t, -2.0, VectorMin(col, nil, 4))
	assert.Equal(t, 9.0, VectorMax(col, nil, 4))
	assert.True(t, math.IsInf(VectorMin(col, nil, 0), 1))
}

func Test_plumbing(t *testing.T) {
	src := []string{"a", "b", "c", "d"}
	out := make([]string, 4)
	assert.Equal(t, 2, Gather(src, []int32{3, 1}, 2, out))
	assert.Equal(t, []string{"d", "b"}, out[:2])

	wide := make([]int64, 4)
	Cast([]int32{1, 2, 3, 4}, wide, []int32{0, 2}, 2)
	assert.Equal(t, []int64{1, 0, 3, 0}, wide)

	bits := make([]int64, 2)
	FloatBits([]float64{1.5, -0.25}, bits, nil, 2)
	back := make([]float64, 2)
	FromBits(bits, back, 2)
	assert.Equal(t, []float64{1.5, -0.25}, back)

	keys := make([]int32, 3)
	hashes := make([]uint32, 3)
	require.NoError(t, JoinKeys([]int64{7, 8, 9}, []int32{2, 0}, 2, keys, hashes))
	assert.Equal(t, []int32{9, 7}, keys[:2])
	assert.Equal(t, util.HashKey(9), hashes[0])

	err := JoinKeys([]int32{1, -1}, nil, 2, keys, hashes)
	assert.ErrorIs(t, err, util.ErrInvalidKey)
	err = JoinKeys([]int64{math.MaxInt32 + 1}, nil, 1, keys, hashes)
	assert.ErrorIs(t, err, util.ErrInvalidKey)
}
