package compute

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/plan"
	"github.com/daviszhen/pipegen/pkg/util"
)

var paradigms = []Paradigm{RowWise, Vectorized}

type memCatalog map[string]*chunk.MemTable

func (cat memCatalog) Reader(table string, batchSize int) (chunk.BatchReader, error) {
	tab, has := cat[table]
	if !has {
		return nil, errors.Newf("no table %s", table)
	}
	return tab.NewReader(batchSize), nil
}

func newTable(t *testing.T, names []string, types []common.LType, rows ...[]any) *chunk.MemTable {
	tab := chunk.NewMemTable(names, types)
	for _, row := range rows {
		require.NoError(t, tab.AppendRow(row...))
	}
	return tab
}

func intTable(t *testing.T, name string, vals ...int32) *chunk.MemTable {
	rows := make([][]any, 0, len(vals))
	for _, v := range vals {
		rows = append(rows, []any{v})
	}
	return newTable(t, []string{name}, []common.LType{common.IntegerType()}, rows...)
}

type harness struct {
	t    *testing.T
	cat  memCatalog
	sink *chunk.CollectSink
	p    *Pipeline
}

func compile(t *testing.T, cat memCatalog, root *plan.LogicalOperator, paradigm Paradigm, batchSize int) *harness {
	opts := DefaultOptions()
	opts.Paradigm = paradigm
	opts.BatchSize = batchSize
	opts.MapInitialCapacity = 4
	h := &harness{t: t, cat: cat, sink: &chunk.CollectSink{}}
	p, err := Compile(root, opts, Env{Catalog: cat, Sink: h.sink})
	require.NoError(t, err)
	h.p = p
	return h
}

// run executes once and returns the result rows whatever the paradigm.
func (h *harness) run() [][]any {
	h.sink.Reset()
	require.NoError(h.t, h.p.Execute(), h.p.Explain())
	assert.Zero(h.t, h.p.Alloc().Outstanding())
	return h.p.Rows(h.sink)
}

func seq(n int) []int32 {
	ret := make([]int32, n)
	for i := range ret {
		ret[i] = int32(i)
	}
	return ret
}

func Test_filterCount(t *testing.T) {
	cat := memCatalog{"t": intTable(t, "a", seq(1000)...)}
	a := plan.Col(0, common.IntegerType(), "a")
	root := plan.Aggregate(
		plan.Filter(plan.Scan("t", []string{"a"}, []common.LType{common.IntegerType()}),
			plan.Binary(plan.ET_Less, a, plan.IConst(500))),
		nil, plan.CountStar())
	for _, paradigm := range paradigms {
		for _, bs := range []int{7, 64, 2048} {
			h := compile(t, cat, root, paradigm, bs)
			assert.Equal(t, [][]any{{int64(500)}}, h.run(), "%s %d", paradigm, bs)
		}
	}
}

func Test_joinCount(t *testing.T) {
	cat := memCatalog{
		"l": intTable(t, "k", 1, 2, 3),
		"r": intTable(t, "k", 1, 2),
	}
	typs := []common.LType{common.IntegerType()}
	join := plan.Join(plan.Scan("l", []string{"k"}, typs), plan.Scan("r", []string{"k"}, typs),
		plan.LOT_JoinTypeInner,
		plan.Eq(plan.Col(0, common.IntegerType(), "k"), plan.Col(0, common.IntegerType(), "k")))
	count := plan.Aggregate(join, nil, plan.CountStar())
	for _, paradigm := range paradigms {
		h := compile(t, cat, count, paradigm, 2)
		assert.Equal(t, [][]any{{int64(2)}}, h.run(), paradigm.String())
		rows := compile(t, cat, join, paradigm, 2).run()
		assert.Equal(t, [][]any{{int32(1), int32(1)}, {int32(2), int32(2)}}, rows, paradigm.String())
	}
}

func Test_joinFanOut(t *testing.T) {
	typs := []common.LType{common.BigintType(), common.DoubleType(), common.VarcharType()}
	names := []string{"k", "d", "s"}
	right := newTable(t, names, typs,
		[]any{int64(1), 1.5, "one"},
		[]any{int64(2), 2.5, "two"},
		[]any{int64(1), -1.5, "uno"},
	)
	cat := memCatalog{
		"l": intTable(t, "k", 1, 5, 1, 2),
		"r": right,
	}
	join := plan.Join(
		plan.Scan("l", []string{"k"}, []common.LType{common.IntegerType()}),
		plan.Scan("r", names, typs),
		plan.LOT_JoinTypeInner,
		plan.Eq(plan.Col(0, common.IntegerType(), "k"), plan.Col(0, common.BigintType(), "k")))
	want := [][]any{
		{int32(1), int64(1), 1.5, "one"},
		{int32(1), int64(1), -1.5, "uno"},
		{int32(1), int64(1), 1.5, "one"},
		{int32(1), int64(1), -1.5, "uno"},
		{int32(2), int64(2), 2.5, "two"},
	}
	for _, paradigm := range paradigms {
		for _, bs := range []int{1, 3, 1024} {
			h := compile(t, cat, join, paradigm, bs)
			assert.Equal(t, want, h.run(), "%s %d", paradigm, bs)
		}
	}
}

func Test_joinEncodedKeys(t *testing.T) {
	typs := []common.LType{common.VarcharType(), common.IntegerType()}
	left := newTable(t, []string{"name", "v"}, typs,
		[]any{"a", int32(1)}, []any{"b", int32(2)}, []any{"c", int32(3)}, []any{"a", int32(4)})
	right := newTable(t, []string{"name", "w"}, typs,
		[]any{"a", int32(1)}, []any{"c", int32(30)}, []any{"a", int32(4)})
	cat := memCatalog{"l": left, "r": right}
	join := plan.Join(
		plan.Scan("l", []string{"name", "v"}, typs),
		plan.Scan("r", []string{"name", "w"}, typs),
		plan.LOT_JoinTypeInner,
		plan.Eq(plan.Col(0, common.VarcharType(), "name"), plan.Col(0, common.VarcharType(), "name")),
		plan.Eq(plan.Col(1, common.IntegerType(), "v"), plan.Col(1, common.IntegerType(), "w")))
	want := [][]any{
		{"a", int32(1), "a", int32(1)},
		{"a", int32(4), "a", int32(4)},
	}
	for _, paradigm := range paradigms {
		h := compile(t, cat, join, paradigm, 2)
		assert.Equal(t, want, h.run(), paradigm.String())
		assert.Contains(t, h.p.Explain(), "encoded")
	}
}

func groupTable(t *testing.T) *chunk.MemTable {
	return newTable(t, []string{"k", "v", "name"},
		[]common.LType{common.IntegerType(), common.DoubleType(), common.VarcharType()},
		[]any{int32(3), 1.0, "x"},
		[]any{int32(1), 2.0, "y"},
		[]any{int32(3), 4.0, "x"},
		[]any{int32(1), -2.0, "x"},
		[]any{int32(7), 8.0, "z"},
	)
}

func groupAggs(arg *plan.Expr) []*plan.Expr {
	return []*plan.Expr{
		plan.CountStar(),
		plan.AggFunc(plan.ET_Sum, arg),
		plan.AggFunc(plan.ET_Avg, arg),
		plan.AggFunc(plan.ET_Min, arg),
		plan.AggFunc(plan.ET_Max, arg),
	}
}

func Test_groupedAggregates(t *testing.T) {
	cat := memCatalog{"t": groupTable(t)}
	scan := plan.Scan("t", []string{"k", "v", "name"},
		[]common.LType{common.IntegerType(), common.DoubleType(), common.VarcharType()})
	v := plan.Col(1, common.DoubleType(), "v")

	direct := plan.Aggregate(scan, []*plan.Expr{plan.Col(0, common.IntegerType(), "k")}, groupAggs(v)...)
	wantDirect := [][]any{
		{int32(3), int64(2), 5.0, 2.5, 1.0, 4.0},
		{int32(1), int64(2), 0.0, 0.0, -2.0, 2.0},
		{int32(7), int64(1), 8.0, 8.0, 8.0, 8.0},
	}
	encoded := plan.Aggregate(scan, []*plan.Expr{plan.Col(2, common.VarcharType(), "name")}, groupAggs(v)...)
	wantEncoded := [][]any{
		{"x", int64(3), 3.0, 1.0, -2.0, 4.0},
		{"y", int64(1), 2.0, 2.0, 2.0, 2.0},
		{"z", int64(1), 8.0, 8.0, 8.0, 8.0},
	}
	multi := plan.Aggregate(scan, []*plan.Expr{
		plan.Col(2, common.VarcharType(), "name"),
		plan.Col(0, common.IntegerType(), "k"),
	}, plan.CountStar())
	wantMulti := [][]any{
		{"x", int32(3), int64(2)},
		{"y", int32(1), int64(1)},
		{"x", int32(1), int64(1)},
		{"z", int32(7), int64(1)},
	}
	for _, paradigm := range paradigms {
		for _, bs := range []int{2, 1024} {
			msg := fmt.Sprintf("%s %d", paradigm, bs)
			h := compile(t, cat, direct, paradigm, bs)
			assert.Equal(t, wantDirect, h.run(), msg)
			assert.Equal(t, wantDirect, h.run(), msg)
			h = compile(t, cat, encoded, paradigm, bs)
			assert.Equal(t, wantEncoded, h.run(), msg)
			h = compile(t, cat, multi, paradigm, bs)
			assert.Equal(t, wantMulti, h.run(), msg)
		}
	}
}

func Test_scalarAggregates(t *testing.T) {
	cat := memCatalog{"t": groupTable(t)}
	typs := []common.LType{common.IntegerType(), common.DoubleType(), common.VarcharType()}
	scan := plan.Scan("t", []string{"k", "v", "name"}, typs)
	k := plan.Col(0, common.IntegerType(), "k")
	all := plan.Aggregate(scan, nil, groupAggs(k)...)
	none := plan.Aggregate(plan.Filter(scan, plan.Binary(plan.ET_Greater, k, plan.IConst(100))), nil, groupAggs(k)...)
	for _, paradigm := range paradigms {
		assert.Equal(t, [][]any{{int64(5), 15.0, 3.0, 1.0, 7.0}}, compile(t, cat, all, paradigm, 2).run())
		rows := compile(t, cat, none, paradigm, 2).run()
		require.Len(t, rows, 1)
		assert.Equal(t, int64(0), rows[0][0])
		for _, v := range rows[0][1:] {
			assert.True(t, math.IsNaN(v.(float64)), paradigm.String())
		}
	}
}

func Test_projection(t *testing.T) {
	cat := memCatalog{"t": groupTable(t)}
	typs := []common.LType{common.IntegerType(), common.DoubleType(), common.VarcharType()}
	k := plan.Col(0, common.IntegerType(), "k")
	v := plan.Col(1, common.DoubleType(), "v")
	root := plan.Project(
		plan.Filter(plan.Scan("t", []string{"k", "v", "name"}, typs),
			plan.Binary(plan.ET_GreaterEqual, v, plan.IConst(1)),
			plan.Binary(plan.ET_NotEqual, plan.Col(2, common.VarcharType(), "name"), plan.SConst("z"))),
		plan.Col(2, common.VarcharType(), "name"),
		plan.Binary(plan.ET_Add, plan.Binary(plan.ET_Mul, k, plan.IConst(2)), plan.IConst(1)),
		plan.Binary(plan.ET_Sub, v, k),
		plan.Binary(plan.ET_Div, k, plan.IConst(2)),
	)
	want := [][]any{
		{"x", int32(7), -2.0, int32(1)},
		{"y", int32(3), 1.0, int32(0)},
		{"x", int32(7), 1.0, int32(1)},
	}
	for _, paradigm := range paradigms {
		assert.Equal(t, want, compile(t, cat, root, paradigm, 2).run(), paradigm.String())
	}
}

func Test_paradigmsAgree(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	typs := []common.LType{common.IntegerType(), common.BigintType(), common.DoubleType()}
	rows := make([][]any, 0, 3000)
	for i := 0; i < 3000; i++ {
		rows = append(rows, []any{int32(r.Intn(50)), int64(r.Intn(1000) - 500), r.Float64()})
	}
	cat := memCatalog{"t": newTable(t, []string{"a", "b", "c"}, typs, rows...)}
	a := plan.Col(0, common.IntegerType(), "a")
	b := plan.Col(1, common.BigintType(), "b")
	c := plan.Col(2, common.DoubleType(), "c")
	root := plan.Aggregate(
		plan.Filter(plan.Scan("t", []string{"a", "b", "c"}, typs),
			plan.Binary(plan.ET_Less, b, plan.Binary(plan.ET_Mul, a, plan.IConst(10))),
			plan.Binary(plan.ET_Greater, c, plan.FConst(0.25))),
		[]*plan.Expr{a},
		plan.CountStar(),
		plan.AggFunc(plan.ET_Sum, b),
		plan.AggFunc(plan.ET_Max, plan.Binary(plan.ET_Add, c, b)))
	rowWise := compile(t, cat, root, RowWise, 100).run()
	vectorized := compile(t, cat, root, Vectorized, 100).run()
	require.NotEmpty(t, rowWise)
	assert.Equal(t, rowWise, vectorized)

	//integer arithmetic wraps at 32 bits in both paradigms
	cat = memCatalog{"w": intTable(t, "a", 30000, 1, 2)}
	a = plan.Col(0, common.IntegerType(), "a")
	scaled := plan.Binary(plan.ET_Mul, a, plan.IConst(100000))
	require.Equal(t, common.IntegerType(), scaled.DataTyp)
	root = plan.Aggregate(
		plan.Filter(plan.Scan("w", []string{"a"}, []common.LType{common.IntegerType()}),
			plan.Binary(plan.ET_Greater, scaled, plan.IConst(0))),
		nil,
		plan.CountStar(),
		plan.AggFunc(plan.ET_Sum, scaled))
	for _, bs := range []int{1, 2, 1024} {
		rowWise = compile(t, cat, root, RowWise, bs).run()
		vectorized = compile(t, cat, root, Vectorized, bs).run()
		assert.Equal(t, [][]any{{int64(2), float64(300000)}}, rowWise, "batch %d", bs)
		assert.Equal(t, rowWise, vectorized, "batch %d", bs)
	}
}

func Test_invalidKeyAtRuntime(t *testing.T) {
	cat := memCatalog{"t": intTable(t, "k", 1, -4, 2)}
	k := plan.Col(0, common.IntegerType(), "k")
	root := plan.Aggregate(plan.Scan("t", []string{"k"}, []common.LType{common.IntegerType()}),
		[]*plan.Expr{k}, plan.CountStar())
	for _, paradigm := range paradigms {
		opts := DefaultOptions()
		opts.Paradigm = paradigm
		p, err := Compile(root, opts, Env{Catalog: cat, Sink: &chunk.CollectSink{}})
		require.NoError(t, err)
		for run := 0; run < 2; run++ {
			err = p.Execute()
			assert.True(t, errors.Is(err, util.ErrInvalidKey), "%s: %v", paradigm, err)
			assert.Zero(t, p.Alloc().Outstanding(), paradigm.String())
		}
	}
}

func Test_unsupported(t *testing.T) {
	cat := memCatalog{"t": intTable(t, "a", 1, 2)}
	scan := plan.Scan("t", []string{"a"}, []common.LType{common.IntegerType()})
	a := plan.Col(0, common.IntegerType(), "a")
	sink := &chunk.CollectSink{}

	plans := []*plan.LogicalOperator{
		plan.Limit(scan, 1),
		{Typ: plan.LOT_Order, Children: []*plan.LogicalOperator{scan}},
		plan.Join(scan, scan, plan.LOT_JoinTypeLeft, plan.Eq(a, a)),
		plan.Join(scan, scan, plan.LOT_JoinTypeInner),
		plan.Project(scan, plan.Binary(plan.ET_Less, a, plan.IConst(1))),
	}
	for i, root := range plans {
		_, err := Compile(root, DefaultOptions(), Env{Catalog: cat, Sink: sink})
		assert.True(t, errors.Is(err, util.ErrUnsupportedPlanNode), "plan %d: %v", i, err)
	}

	or := plan.Filter(scan, plan.Or(
		plan.Binary(plan.ET_Less, a, plan.IConst(2)),
		plan.Binary(plan.ET_Greater, a, plan.IConst(5))))
	opts := DefaultOptions()
	opts.Paradigm = Vectorized
	_, err := Compile(or, opts, Env{Catalog: cat, Sink: sink})
	assert.True(t, errors.Is(err, util.ErrUnsupportedParadigm), "%v", err)

	h := compile(t, cat, or, RowWise, 16)
	assert.Equal(t, [][]any{{int32(1)}}, h.run())
}

func Test_explain(t *testing.T) {
	cat := memCatalog{"t": intTable(t, "a", seq(10)...)}
	a := plan.Col(0, common.IntegerType(), "a")
	root := plan.Aggregate(
		plan.Filter(plan.Scan("t", []string{"a"}, []common.LType{common.IntegerType()}),
			plan.Binary(plan.ET_Less, a, plan.IConst(5))),
		[]*plan.Expr{a}, plan.CountStar())
	h := compile(t, cat, root, Vectorized, 4)
	text := h.p.Explain()
	for _, want := range []string{"HashAggregate", "Filter", "TableScan", "selCmpInt", "kvInsertBatch", "func init() {"} {
		assert.True(t, strings.Contains(text, want), "%s missing in\n%s", want, text)
	}
}
