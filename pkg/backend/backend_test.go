package backend

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/util"
)

func Test_everyIntrinsicImplemented(t *testing.T) {
	for name := range ir.Intrinsics {
		assert.True(t, Implemented(name), name)
	}
	for name := range impls {
		_, has := ir.Intrinsics[name]
		assert.True(t, has, name)
	}
	for name := range factories {
		_, has := ir.Intrinsics[name]
		assert.True(t, has, name)
	}
}

func memReader(t *testing.T, n int) *chunk.MemReader {
	tab := chunk.NewMemTable([]string{"a"}, []common.LType{common.IntegerType()})
	for i := 0; i < n; i++ {
		require.NoError(t, tab.AppendRow(int32(i)))
	}
	return tab.NewReader(64)
}

// countBelow counts the rows of column 0 below limit, row at a time.
func countBelow(reader chunk.BatchReader, sink chunk.ResultSink, limit int64) *ir.Program {
	rv := &ir.Var{Name: "reader", Kind: ir.KObj}
	sv := &ir.Var{Name: "sink", Kind: ir.KObj}
	n := &ir.Var{Name: "n", Kind: ir.KInt}
	vec := &ir.Var{Name: "vec", Kind: ir.KObj}
	i := &ir.Var{Name: "i", Kind: ir.KInt}
	cnt := &ir.Var{Name: "count", Kind: ir.KInt}
	return &ir.Program{
		Globals: []*ir.Global{{Var: rv, Value: reader}, {Var: sv, Value: sink}},
		Body: []ir.Stmt{
			&ir.Do{Call: ir.Fn(ir.FnReaderReset, ir.R(rv))},
			&ir.Declare{Var: cnt, Init: ir.Int(0)},
			&ir.While{Cond: ir.Fn(ir.FnReaderNext, ir.R(rv)), Body: []ir.Stmt{
				&ir.Declare{Var: n, Init: ir.Fn(ir.FnReaderCount, ir.R(rv))},
				&ir.Declare{Var: vec, Init: ir.Fn(ir.FnReaderVector, ir.R(rv), ir.Int(0))},
				&ir.For{Var: i, From: ir.Int(0), To: ir.R(n), Body: []ir.Stmt{
					&ir.If{
						Cond: ir.Bin(ir.OpLt, ir.Idx(ir.R(vec), ir.R(i), ir.VecInt32), ir.Int(limit)),
						Then: []ir.Stmt{&ir.Assign{Var: cnt, Val: ir.Bin(ir.OpAdd, ir.R(cnt), ir.Int(1))}},
					},
				}},
			}},
			&ir.Do{Call: ir.Fn(ir.FnSinkInt64, ir.R(sv), ir.R(cnt))},
		},
	}
}

func Test_executeRepeatedly(t *testing.T) {
	sink := &chunk.CollectSink{}
	exec, err := New().Compile(countBelow(memReader(t, 1000), sink, 500))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, exec.Execute())
	}
	assert.Equal(t, []any{int64(500), int64(500), int64(500)}, sink.Items)
}

func Test_wrapInt32(t *testing.T) {
	sv := &ir.Var{Name: "sink", Kind: ir.KObj}
	sink := &chunk.CollectSink{}
	p := &ir.Program{
		Globals: []*ir.Global{{Var: sv, Value: sink}},
		Body: []ir.Stmt{
			&ir.Do{Call: ir.Fn(ir.FnSinkInt64, ir.R(sv),
				ir.Fn(ir.FnWrapInt32, ir.Bin(ir.OpMul, ir.Int(30000), ir.Int(100000))))},
			&ir.Do{Call: ir.Fn(ir.FnSinkInt64, ir.R(sv), ir.Fn(ir.FnWrapInt32, ir.Int(-7)))},
		},
	}
	exec, err := New().Compile(p)
	require.NoError(t, err)
	require.NoError(t, exec.Execute())
	assert.Equal(t, []any{int64(-1294967296), int64(-7)}, sink.Items)
}

func Test_breakAndInit(t *testing.T) {
	sv := &ir.Var{Name: "sink", Kind: ir.KObj}
	total := &ir.Var{Name: "total", Kind: ir.KInt}
	i := &ir.Var{Name: "i", Kind: ir.KInt}
	sink := &chunk.CollectSink{}
	p := &ir.Program{
		Globals: []*ir.Global{{Var: sv, Value: sink}},
		Init:    []ir.Stmt{&ir.Declare{Var: total, Init: ir.Int(100)}},
		Body: []ir.Stmt{
			&ir.For{Var: i, From: ir.Int(0), To: ir.Int(10), Body: []ir.Stmt{
				&ir.If{Cond: ir.Bin(ir.OpEq, ir.R(i), ir.Int(3)), Then: []ir.Stmt{&ir.Break{}}},
				&ir.Assign{Var: total, Val: ir.Bin(ir.OpAdd, ir.R(total), ir.R(i))},
			}},
			&ir.Do{Call: ir.Fn(ir.FnSinkInt64, ir.R(sv), ir.R(total))},
			&ir.Do{Call: ir.Fn(ir.FnSinkFloat, ir.R(sv), ir.Fn(ir.FnMinFloat, ir.Float(math.Inf(1)), ir.Conv(ir.KFloat, ir.R(total))))},
		},
	}
	exec, err := New().Compile(p)
	require.NoError(t, err)
	require.NoError(t, exec.Execute())
	require.NoError(t, exec.Execute())
	assert.Equal(t, []any{int64(103), float64(103), int64(106), float64(106)}, sink.Items)
}

func Test_compilationFailure(t *testing.T) {
	x := &ir.Var{Name: "x", Kind: ir.KInt}
	y := &ir.Var{Name: "y", Kind: ir.KInt}
	cases := []*ir.Program{
		{Body: []ir.Stmt{&ir.Declare{Var: x, Init: ir.Float(1)}}},
		{Body: []ir.Stmt{&ir.Assign{Var: y, Val: ir.Int(1)}}},
		{Body: []ir.Stmt{&ir.Do{Call: ir.Fn("noSuchIntrinsic")}}},
		{Body: []ir.Stmt{&ir.Do{Call: ir.Fn(ir.FnHashKey, ir.Float(1))}}},
		{Body: []ir.Stmt{&ir.Break{}}},
		{Body: []ir.Stmt{
			&ir.Declare{Var: x, Init: ir.Int(1)},
			&ir.Declare{Var: x, Init: ir.Int(2)},
		}},
	}
	for i, p := range cases {
		_, err := New().Compile(p)
		require.Error(t, err, "case %d", i)
		assert.True(t, errors.Is(err, util.ErrCompilationFailure), "case %d: %v", i, err)
	}
	_, err := New().Compile(cases[2])
	assert.Contains(t, err.Error(), "noSuchIntrinsic()")
}

func Test_runtimeErrors(t *testing.T) {
	x := &ir.Var{Name: "x", Kind: ir.KInt}
	zero := &ir.Var{Name: "zero", Kind: ir.KInt}
	div := &ir.Program{Body: []ir.Stmt{
		&ir.Declare{Var: zero, Init: ir.Int(0)},
		&ir.Declare{Var: x, Init: ir.Bin(ir.OpDiv, ir.Int(1), ir.R(zero))},
	}}
	exec, err := New().Compile(div)
	require.NoError(t, err)
	err = exec.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")

	y := &ir.Var{Name: "y", Kind: ir.KInt}
	neg := &ir.Program{Body: []ir.Stmt{
		&ir.Declare{Var: y, Init: ir.Fn(ir.FnHashKey, ir.Int(-1))},
	}}
	exec, err = New().Compile(neg)
	require.NoError(t, err)
	err = exec.Execute()
	assert.True(t, errors.Is(err, util.ErrInvalidKey), "%v", err)

	// failures in Init surface from Compile
	_, err = New().Compile(&ir.Program{Init: neg.Body})
	assert.True(t, errors.Is(err, util.ErrInvalidKey), "%v", err)
}

func Test_selCmpIntOutOfRange(t *testing.T) {
	col := []int32{-5, 0, 7}
	out := make([]int32, 3)
	assert.Equal(t, 3, cmpInt32Const(0, col, math.MaxInt32+1, out, nil, 3))
	assert.Equal(t, []int32{0, 1, 2}, out)
	assert.Equal(t, 0, cmpInt32Const(3, col, math.MaxInt32+1, out, nil, 3))
	assert.Equal(t, 2, cmpInt32Const(3, col, math.MinInt32-1, out, []int32{0, 2}, 2))
	assert.Equal(t, []int32{0, 2}, out[:2])
	assert.Equal(t, 1, cmpInt32Const(0, col, 0, out, nil, 3))
}
