package compute

import (
	"fmt"
	"math"

	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/hashmap"
	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/plan"
)

type aggField struct {
	agg *plan.Expr
	//-1 for COUNT
	field int
}

// Aggregate computes COUNT/SUM/AVG/MIN/MAX, per group or over the whole
// input.
//
// A single integral group column is used as the map key directly. Any
// other grouping goes through a key encoder whose dense ids become the map
// keys; the id of a group equals its map entry because both are assigned in
// first-seen order.
type Aggregate struct {
	baseOperator
	fields []aggField
	width  int
	direct bool

	kv     *ir.Var
	enc    *ir.Var
	hashes *ir.Var
	count  *ir.Var
	accs   []*ir.Var
}

func NewAggregate(node *plan.LogicalOperator, child Operator) *Aggregate {
	agg := &Aggregate{baseOperator: baseOperator{node: node, children: []Operator{child}}}
	adopt(agg, child)
	for _, e := range node.Aggs {
		f := aggField{agg: e, field: -1}
		if e.SubTyp != plan.ET_Count {
			f.field = agg.width
			agg.width++
		}
		agg.fields = append(agg.fields, f)
	}
	agg.direct = len(node.GroupBys) == 1 && node.GroupBys[0].DataTyp.IsIntegral()
	return agg
}

func (agg *Aggregate) Name() string {
	if agg.grouped() {
		return "HashAggregate"
	}
	return "ScalarAggregate"
}

func (agg *Aggregate) grouped() bool {
	return len(agg.node.GroupBys) != 0
}

func (agg *Aggregate) CanProduce(p Paradigm) bool {
	if p == Vectorized {
		for _, e := range agg.node.GroupBys {
			if !vecValueOK(e) {
				return false
			}
		}
		for _, f := range agg.fields {
			if !f.agg.Star && len(f.agg.Children) != 0 && !vecValueOK(f.agg.Children[0]) {
				return false
			}
		}
	}
	return agg.childrenCanProduce(p)
}

func initValue(fun plan.ET_SubTyp) float64 {
	switch fun {
	case plan.ET_Min:
		return math.Inf(1)
	case plan.ET_Max:
		return math.Inf(-1)
	default:
		return 0
	}
}

func partKind(typ common.LType) hashmap.PartKind {
	switch {
	case typ.IsIntegral():
		return hashmap.PartInt
	case typ.Id == common.LTID_DOUBLE:
		return hashmap.PartFloat
	case typ.Id == common.LTID_VARCHAR:
		return hashmap.PartString
	default:
		panic(fmt.Sprintf("usp key type %v", typ))
	}
}

func (agg *Aggregate) Produce(ctx *Context) error {
	if !agg.grouped() {
		return agg.produceScalar(ctx)
	}
	opts := ctx.Options()
	args := []ir.Expr{
		ir.Int(int64(agg.width)),
		ir.Int(int64(opts.MapInitialCapacity)),
		ir.Int(int64(opts.KeyValueGrowth)),
	}
	for _, f := range agg.fields {
		if f.field >= 0 {
			args = append(args, ir.Float(initValue(f.agg.SubTyp)))
		}
	}
	agg.kv = ctx.DeclareInit("kv", ir.Fn(ir.FnNewKeyValueMap, args...))
	ctx.Do(ir.FnKvReset, ir.R(agg.kv))
	if !agg.direct {
		kinds := make([]ir.Expr, 0, len(agg.node.GroupBys))
		for _, e := range agg.node.GroupBys {
			kinds = append(kinds, ir.Int(int64(partKind(e.DataTyp))))
		}
		agg.enc = ctx.DeclareInit("enc", ir.Fn(ir.FnNewKeyEncoder, kinds...))
		ctx.Do(ir.FnEncReset, ir.R(agg.enc))
	}
	if ctx.Paradigm() == Vectorized {
		agg.hashes = ctx.DeclareInit("hashes", ir.Fn(ir.FnNewHashVector, ir.Int(int64(ctx.BatchSize()))))
	}
	ctx.Comment("aggregate build")
	if err := agg.children[0].Produce(ctx); err != nil {
		return err
	}
	ctx.Comment("aggregate output")
	if ctx.Paradigm() == Vectorized {
		return agg.finalizeBatches(ctx)
	}
	return agg.finalizeRows(ctx)
}

func (agg *Aggregate) Consume(ctx *Context, from Operator) error {
	switch {
	case !agg.grouped() && ctx.Paradigm() == Vectorized:
		return agg.consumeScalarBatch(ctx)
	case !agg.grouped():
		return agg.consumeScalarRow(ctx)
	case ctx.Paradigm() == Vectorized:
		return agg.consumeBatch(ctx)
	default:
		return agg.consumeRow(ctx)
	}
}

func updateFn(fun plan.ET_SubTyp) string {
	switch fun {
	case plan.ET_Min:
		return ir.FnKvMin
	case plan.ET_Max:
		return ir.FnKvMax
	default:
		return ir.FnKvAdd
	}
}

func updateBatchFn(fun plan.ET_SubTyp) string {
	switch fun {
	case plan.ET_Min:
		return ir.FnKvMinBatch
	case plan.ET_Max:
		return ir.FnKvMaxBatch
	default:
		return ir.FnKvAddBatch
	}
}

func encodeFn(kind ir.Kind) string {
	switch kind {
	case ir.KInt:
		return ir.FnEncInt
	case ir.KFloat:
		return ir.FnEncFloat
	default:
		return ir.FnEncString
	}
}

func encPartFn(kind ir.Kind) string {
	switch kind {
	case ir.KInt:
		return ir.FnEncIntPart
	case ir.KFloat:
		return ir.FnEncFloatPart
	default:
		return ir.FnEncStringPart
	}
}

func (agg *Aggregate) consumeRow(ctx *Context) error {
	input := ctx.Mapping()
	var key *ir.Var
	if agg.direct {
		val, err := rowExpr(input, agg.node.GroupBys[0])
		if err != nil {
			return err
		}
		key = ctx.Declare("key", val)
	} else {
		ctx.Do(ir.FnEncBegin, ir.R(agg.enc))
		for _, e := range agg.node.GroupBys {
			val, err := rowExpr(input, e)
			if err != nil {
				return err
			}
			kind := ir.KindOf(e.DataTyp)
			ctx.Do(encodeFn(kind), ir.R(agg.enc), ir.Conv(kind, val))
		}
		key = ctx.Declare("key", ir.Fn(ir.FnEncEnd, ir.R(agg.enc)))
	}
	hash := ctx.Declare("hash", ir.Fn(ir.FnHashKey, ir.R(key)))
	idx := ctx.Declare("idx", ir.Fn(ir.FnKvInsert, ir.R(agg.kv), ir.R(key), ir.R(hash)))
	for _, f := range agg.fields {
		if f.field < 0 {
			continue
		}
		val, err := rowExpr(input, f.agg.Children[0])
		if err != nil {
			return err
		}
		ctx.Do(updateFn(f.agg.SubTyp), ir.R(agg.kv), ir.R(idx), ir.Int(int64(f.field)), ir.Conv(ir.KFloat, val))
	}
	return nil
}

func (agg *Aggregate) consumeBatch(ctx *Context) error {
	shape := ctx.Shape()
	vg := &vecGen{ctx: ctx}
	keys := vg.scratch(common.IntegerType())
	if agg.direct {
		e := agg.node.GroupBys[0]
		col, err := vg.eval(e, e.DataTyp)
		if err != nil {
			return err
		}
		ctx.Do(ir.FnJoinKeys, ir.R(col), shape.Sel, shape.Len, ir.R(keys), ir.R(agg.hashes))
	} else {
		args := []ir.Expr{ir.R(agg.enc), shape.Sel, shape.Len, ir.R(keys)}
		for _, e := range agg.node.GroupBys {
			col, err := vg.eval(e, e.DataTyp)
			if err != nil {
				return err
			}
			args = append(args, ir.R(col))
		}
		ctx.Do(ir.FnEncBatch, args...)
		ctx.Do(ir.FnHashKeys, ir.R(keys), shape.Len, ir.R(agg.hashes))
	}
	idxs := vg.scratch(common.IntegerType())
	ctx.Do(ir.FnKvInsertBatch, ir.R(agg.kv), ir.R(keys), ir.R(agg.hashes), shape.Len, ir.R(idxs))
	for _, f := range agg.fields {
		if f.field < 0 {
			continue
		}
		arg := f.agg.Children[0]
		col, err := vg.eval(arg, arg.DataTyp)
		if err != nil {
			return err
		}
		ctx.Do(updateBatchFn(f.agg.SubTyp), ir.R(agg.kv), ir.Int(int64(f.field)), ir.R(idxs), ir.R(col), shape.Sel, shape.Len)
	}
	vg.releaseAll()
	return nil
}

// groupValue is the value of group column i of entry g.
func (agg *Aggregate) groupValue(ctx *Context, i int, key *ir.Var) *ir.Var {
	if agg.direct {
		return key
	}
	kind := ir.KindOf(agg.node.GroupBys[i].DataTyp)
	return ctx.Declare("group", ir.Fn(encPartFn(kind), ir.R(agg.enc), ir.R(key), ir.Int(int64(i))))
}

func (agg *Aggregate) finalizeRows(ctx *Context) error {
	size := ctx.Declare("groups", ir.Fn(ir.FnKvSize, ir.R(agg.kv)))
	g := ctx.NewVar("g", ir.KInt)
	body, err := ctx.Nest(func() error {
		mapping := make(OrdinalMapping, 0, len(agg.node.GroupBys)+len(agg.fields))
		key := ctx.Declare("key", ir.Fn(ir.FnKvKey, ir.R(agg.kv), ir.R(g)))
		for i, e := range agg.node.GroupBys {
			mapping = append(mapping, &ScalarVariable{Var: agg.groupValue(ctx, i, key), Typ: e.DataTyp})
		}
		for _, f := range agg.fields {
			var val ir.Expr
			count := ir.Fn(ir.FnKvCount, ir.R(agg.kv), ir.R(g))
			switch f.agg.SubTyp {
			case plan.ET_Count:
				val = count
			case plan.ET_Avg:
				val = ir.Bin(ir.OpDiv, ir.Fn(ir.FnKvValue, ir.R(agg.kv), ir.R(g), ir.Int(int64(f.field))), ir.Conv(ir.KFloat, count))
			default:
				val = ir.Fn(ir.FnKvValue, ir.R(agg.kv), ir.R(g), ir.Int(int64(f.field)))
			}
			v := ctx.Declare("aggr", val)
			mapping = append(mapping, &ScalarVariable{Var: v, Typ: f.agg.DataTyp})
		}
		ctx.SetMapping(mapping)
		return agg.parent.Consume(ctx, agg)
	})
	ctx.Emit(&ir.For{Var: g, From: ir.Int(0), To: ir.R(size), Body: body})
	return err
}

// finalizeBatches emits the groups batch by batch in entry order.
func (agg *Aggregate) finalizeBatches(ctx *Context) error {
	bs := int64(ctx.BatchSize())
	size := ctx.Declare("groups", ir.Fn(ir.FnKvSize, ir.R(agg.kv)))
	start := ctx.Declare("start", ir.Int(0))
	body, err := ctx.Nest(func() error {
		n := ctx.Declare("n", ir.Bin(ir.OpSub, ir.R(size), ir.R(start)))
		ctx.Emit(&ir.If{
			Cond: ir.Bin(ir.OpGt, ir.R(n), ir.Int(bs)),
			Then: []ir.Stmt{&ir.Assign{Var: n, Val: ir.Int(bs)}},
		})
		vg := &vecGen{ctx: ctx}
		mapping := make(OrdinalMapping, 0, len(agg.node.GroupBys)+len(agg.fields))
		for i, e := range agg.node.GroupBys {
			out := vg.scratch(e.DataTyp)
			if agg.direct {
				ctx.Do(ir.FnKvKeysTo, ir.R(agg.kv), ir.R(start), ir.R(n), ir.R(out))
			} else {
				ctx.Do(ir.FnEncPartTo, ir.R(agg.enc), ir.Int(int64(i)), ir.R(start), ir.R(n), ir.R(out))
			}
			mapping = append(mapping, &BatchVector{Vec: out, Typ: e.DataTyp})
		}
		for _, f := range agg.fields {
			out := vg.scratch(f.agg.DataTyp)
			switch f.agg.SubTyp {
			case plan.ET_Count:
				ctx.Do(ir.FnKvCountsTo, ir.R(agg.kv), ir.R(start), ir.R(n), ir.R(out))
			case plan.ET_Avg:
				ctx.Do(ir.FnKvAvgTo, ir.R(agg.kv), ir.Int(int64(f.field)), ir.R(start), ir.R(n), ir.R(out))
			default:
				ctx.Do(ir.FnKvValuesTo, ir.R(agg.kv), ir.Int(int64(f.field)), ir.R(start), ir.R(n), ir.R(out))
			}
			mapping = append(mapping, &BatchVector{Vec: out, Typ: f.agg.DataTyp})
		}
		ctx.SetMapping(mapping)
		ctx.SetShape(DenseShape(ir.R(n)))
		if err := agg.parent.Consume(ctx, agg); err != nil {
			return err
		}
		vg.releaseAll()
		ctx.Assign(start, ir.Bin(ir.OpAdd, ir.R(start), ir.R(n)))
		return nil
	})
	ctx.Emit(&ir.While{Cond: ir.Bin(ir.OpLt, ir.R(start), ir.R(size)), Body: body})
	return err
}

// produceScalar keeps one accumulator per field in plain variables. Over an
// empty input COUNT is 0 and every other aggregate is NaN.
func (agg *Aggregate) produceScalar(ctx *Context) error {
	agg.count = ctx.Declare("count", ir.Int(0))
	agg.accs = make([]*ir.Var, len(agg.fields))
	for i, f := range agg.fields {
		if f.field >= 0 {
			agg.accs[i] = ctx.Declare("acc", ir.Float(initValue(f.agg.SubTyp)))
		}
	}
	if err := agg.children[0].Produce(ctx); err != nil {
		return err
	}

	results := make([]*ir.Var, len(agg.fields))
	for i, f := range agg.fields {
		switch f.agg.SubTyp {
		case plan.ET_Count:
			results[i] = agg.count
			continue
		case plan.ET_Avg:
			results[i] = ctx.Declare("avg", ir.Bin(ir.OpDiv, ir.R(agg.accs[i]), ir.Conv(ir.KFloat, ir.R(agg.count))))
		default:
			results[i] = ctx.Declare("result", ir.R(agg.accs[i]))
		}
		ctx.Emit(&ir.If{
			Cond: ir.Bin(ir.OpEq, ir.R(agg.count), ir.Int(0)),
			Then: []ir.Stmt{&ir.Assign{Var: results[i], Val: ir.Float(math.NaN())}},
		})
	}

	mapping := make(OrdinalMapping, len(agg.fields))
	if ctx.Paradigm() == RowWise {
		for i, f := range agg.fields {
			mapping[i] = &ScalarVariable{Var: results[i], Typ: f.agg.DataTyp}
		}
		ctx.SetMapping(mapping)
		return agg.parent.Consume(ctx, agg)
	}
	vg := &vecGen{ctx: ctx}
	for i, f := range agg.fields {
		typ := f.agg.DataTyp
		out := vg.scratch(typ)
		ctx.Emit(&ir.Store{Vec: ir.R(out), Pos: ir.Int(0), Val: ir.R(results[i]), Elem: ir.VecTypeOf(typ)})
		mapping[i] = &BatchVector{Vec: out, Typ: typ}
	}
	ctx.SetMapping(mapping)
	ctx.SetShape(DenseShape(ir.Int(1)))
	if err := agg.parent.Consume(ctx, agg); err != nil {
		return err
	}
	vg.releaseAll()
	return nil
}

func (agg *Aggregate) consumeScalarRow(ctx *Context) error {
	input := ctx.Mapping()
	ctx.Assign(agg.count, ir.Bin(ir.OpAdd, ir.R(agg.count), ir.Int(1)))
	for i, f := range agg.fields {
		if f.field < 0 {
			continue
		}
		val, err := rowExpr(input, f.agg.Children[0])
		if err != nil {
			return err
		}
		acc := agg.accs[i]
		val = ir.Conv(ir.KFloat, val)
		switch f.agg.SubTyp {
		case plan.ET_Min:
			ctx.Assign(acc, ir.Fn(ir.FnMinFloat, ir.R(acc), val))
		case plan.ET_Max:
			ctx.Assign(acc, ir.Fn(ir.FnMaxFloat, ir.R(acc), val))
		default:
			ctx.Assign(acc, ir.Bin(ir.OpAdd, ir.R(acc), val))
		}
	}
	return nil
}

func (agg *Aggregate) consumeScalarBatch(ctx *Context) error {
	shape := ctx.Shape()
	vg := &vecGen{ctx: ctx}
	ctx.Assign(agg.count, ir.Bin(ir.OpAdd, ir.R(agg.count), shape.Len))
	for i, f := range agg.fields {
		if f.field < 0 {
			continue
		}
		arg := f.agg.Children[0]
		col, err := vg.eval(arg, arg.DataTyp)
		if err != nil {
			return err
		}
		acc := agg.accs[i]
		switch f.agg.SubTyp {
		case plan.ET_Min:
			ctx.Assign(acc, ir.Fn(ir.FnMinFloat, ir.R(acc), ir.Fn(ir.FnVecMin, ir.R(col), shape.Sel, shape.Len)))
		case plan.ET_Max:
			ctx.Assign(acc, ir.Fn(ir.FnMaxFloat, ir.R(acc), ir.Fn(ir.FnVecMax, ir.R(col), shape.Sel, shape.Len)))
		default:
			ctx.Assign(acc, ir.Bin(ir.OpAdd, ir.R(acc), ir.Fn(ir.FnVecSum, ir.R(col), shape.Sel, shape.Len)))
		}
	}
	vg.releaseAll()
	return nil
}
