package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_render(t *testing.T) {
	reader := &Var{Name: "reader_0", Kind: KObj}
	n := &Var{Name: "n_1", Kind: KInt}
	vec := &Var{Name: "vec_2", Kind: KObj}
	i := &Var{Name: "i_3", Kind: KInt}
	cnt := &Var{Name: "count_4", Kind: KInt}
	p := &Program{
		Globals: []*Global{{Var: reader}},
		Body: []Stmt{
			&Declare{Var: cnt, Init: Int(0)},
			&While{Cond: Fn(FnReaderNext, R(reader)), Body: []Stmt{
				&Declare{Var: n, Init: Fn(FnReaderCount, R(reader))},
				&Declare{Var: vec, Init: Fn(FnReaderVector, R(reader), Int(0))},
				&For{Var: i, From: Int(0), To: R(n), Body: []Stmt{
					&If{
						Cond: Bin(OpLt, Idx(R(vec), R(i), VecInt32), Int(500)),
						Then: []Stmt{&Assign{Var: cnt, Val: Bin(OpAdd, R(cnt), Int(1))}},
					},
				}},
			}},
		},
	}
	text := Render(p)
	assert.Contains(t, text, "var reader_0 any")
	assert.Contains(t, text, "for readerNext(reader_0) {")
	assert.Contains(t, text, "if (vec_2.([]int32)[i_3] < 500) {")
	assert.Contains(t, text, "count_4 = (count_4 + 1)")
	assert.Equal(t, 7, p.Count())
}

func Test_callKinds(t *testing.T) {
	assert.Equal(t, KBool, Fn(FnReaderNext, Nil()).Kind())
	assert.Equal(t, KFloat, Fn(FnVecSum, Nil(), Nil(), Int(0)).Kind())
	assert.Equal(t, KVoid, Fn("noSuchIntrinsic").Kind())
	assert.Equal(t, KBool, Bin(OpLt, Float(1), Float(2)).Kind())
	assert.Equal(t, KFloat, Bin(OpMul, Float(1), Float(2)).Kind())
	assert.Equal(t, "math.NaN()", RenderExpr(Float(nanValue())))
	assert.Equal(t, "2.0", RenderExpr(Float(2)))
	for name, s := range Intrinsics {
		require.NotEmpty(t, name)
		for _, param := range s.Params {
			assert.NotEqual(t, KVoid, param, name)
		}
	}
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}
