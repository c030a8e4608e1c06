package compute

import (
	"github.com/cockroachdb/errors"

	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/plan"
)

// HashJoin is an inner equi-join. The right child is drained into a multi
// record map first, then every left row probes it. Build columns travel
// through the map as int64: integers as is, doubles by their bits and
// strings as string heap handles.
type HashJoin struct {
	baseOperator
	keyTyps []common.LType
	direct  bool

	mrm    *ir.Var
	enc    *ir.Var
	heap   *ir.Var
	probe  *ir.Var
	hashes *ir.Var
}

func NewHashJoin(node *plan.LogicalOperator, left, right Operator) (*HashJoin, error) {
	join := &HashJoin{baseOperator: baseOperator{node: node, children: []Operator{left, right}}}
	adopt(join, left, right)
	for _, cond := range node.OnConds {
		if cond.Typ != plan.ET_Func || cond.SubTyp != plan.ET_Equal || len(cond.Children) != 2 {
			return nil, errors.Newf("join condition %s is not an equality", cond)
		}
		lt, rt := cond.Children[0].DataTyp, cond.Children[1].DataTyp
		switch {
		case lt.Id == common.LTID_VARCHAR && rt.Id == common.LTID_VARCHAR:
			join.keyTyps = append(join.keyTyps, lt)
		case lt.IsNumeric() && rt.IsNumeric():
			join.keyTyps = append(join.keyTyps, common.MaxNumericType(lt, rt))
		default:
			return nil, errors.Newf("can not join %s with %s", lt, rt)
		}
	}
	join.direct = len(join.keyTyps) == 1 && join.keyTyps[0].IsIntegral()
	return join, nil
}

func (join *HashJoin) Name() string {
	return "HashJoin"
}

func (join *HashJoin) CanProduce(p Paradigm) bool {
	if p == Vectorized {
		for _, cond := range join.node.OnConds {
			if !vecValueOK(cond.Children[0]) || !vecValueOK(cond.Children[1]) {
				return false
			}
		}
	}
	return join.childrenCanProduce(p)
}

func (join *HashJoin) probeSide() Operator { return join.children[0] }
func (join *HashJoin) buildSide() Operator { return join.children[1] }

func (join *HashJoin) buildTypes() []common.LType {
	return join.buildSide().OutputTypes()
}

func (join *HashJoin) hasStrings() bool {
	for _, typ := range join.buildTypes() {
		if typ.Id == common.LTID_VARCHAR {
			return true
		}
	}
	return false
}

func (join *HashJoin) Produce(ctx *Context) error {
	opts := ctx.Options()
	join.mrm = ctx.DeclareInit("mrm", ir.Fn(ir.FnNewMultiRecordMap,
		ir.Int(int64(len(join.buildTypes()))),
		ir.Int(int64(opts.MapInitialCapacity)),
		ir.Int(int64(opts.MultiRecordGrowth))))
	ctx.Do(ir.FnMrReset, ir.R(join.mrm))
	if !join.direct {
		kinds := make([]ir.Expr, 0, len(join.keyTyps))
		for _, typ := range join.keyTyps {
			kinds = append(kinds, ir.Int(int64(partKind(typ))))
		}
		join.enc = ctx.DeclareInit("enc", ir.Fn(ir.FnNewKeyEncoder, kinds...))
		ctx.Do(ir.FnEncReset, ir.R(join.enc))
	}
	if join.hasStrings() {
		join.heap = ctx.DeclareInit("heap", ir.Fn(ir.FnNewStringHeap))
		ctx.Do(ir.FnHeapReset, ir.R(join.heap))
	}
	if ctx.Paradigm() == Vectorized {
		join.hashes = ctx.DeclareInit("hashes", ir.Fn(ir.FnNewHashVector, ir.Int(int64(ctx.BatchSize()))))
		join.probe = ctx.DeclareInit("probe", ir.Fn(ir.FnNewJoinProbe))
	}
	ctx.Comment("join build")
	if err := join.buildSide().Produce(ctx); err != nil {
		return err
	}
	ctx.Comment("join probe")
	return join.probeSide().Produce(ctx)
}

func (join *HashJoin) Consume(ctx *Context, from Operator) error {
	build := from == join.buildSide()
	switch {
	case build && ctx.Paradigm() == Vectorized:
		return join.buildBatch(ctx)
	case build:
		return join.buildRow(ctx)
	case ctx.Paradigm() == Vectorized:
		return join.probeBatch(ctx)
	default:
		return join.probeRow(ctx)
	}
}

// keyExprs are the sides of the conditions reading the given child.
func (join *HashJoin) keyExprs(build bool) []*plan.Expr {
	side := 0
	if build {
		side = 1
	}
	ret := make([]*plan.Expr, 0, len(join.node.OnConds))
	for _, cond := range join.node.OnConds {
		ret = append(ret, cond.Children[side])
	}
	return ret
}

// rowKey emits the map key of the current row. Probing with an encoded key
// yields -1 for tuples the build side never had.
func (join *HashJoin) rowKey(ctx *Context, build bool) (*ir.Var, error) {
	input := ctx.Mapping()
	exprs := join.keyExprs(build)
	if join.direct {
		val, err := rowExpr(input, exprs[0])
		if err != nil {
			return nil, err
		}
		return ctx.Declare("key", ir.Conv(ir.KInt, val)), nil
	}
	ctx.Do(ir.FnEncBegin, ir.R(join.enc))
	for i, e := range exprs {
		val, err := rowExpr(input, e)
		if err != nil {
			return nil, err
		}
		kind := ir.KindOf(join.keyTyps[i])
		ctx.Do(encodeFn(kind), ir.R(join.enc), ir.Conv(kind, val))
	}
	if build {
		return ctx.Declare("key", ir.Fn(ir.FnEncEnd, ir.R(join.enc))), nil
	}
	return ctx.Declare("key", ir.Fn(ir.FnEncLookup, ir.R(join.enc))), nil
}

func (join *HashJoin) buildRow(ctx *Context) error {
	key, err := join.rowKey(ctx, true)
	if err != nil {
		return err
	}
	hash := ctx.Declare("hash", ir.Fn(ir.FnHashKey, ir.R(key)))
	args := []ir.Expr{ir.R(join.mrm), ir.R(key), ir.R(hash)}
	for _, ap := range ctx.Mapping() {
		val := ap.Read()
		switch ap.Type().Id {
		case common.LTID_DOUBLE:
			val = ir.Fn(ir.FnFloatBits, val)
		case common.LTID_VARCHAR:
			val = ir.Fn(ir.FnHeapAdd, ir.R(join.heap), val)
		}
		args = append(args, val)
	}
	ctx.Do(ir.FnMrAssociate, args...)
	return nil
}

func (join *HashJoin) probeRow(ctx *Context) error {
	probeMapping := ctx.Mapping()
	key, err := join.rowKey(ctx, false)
	if err != nil {
		return err
	}
	matched, err := ctx.Nest(func() error {
		hash := ctx.Declare("hash", ir.Fn(ir.FnHashKey, ir.R(key)))
		slot := ctx.Declare("slot", ir.Fn(ir.FnMrFind, ir.R(join.mrm), ir.R(key), ir.R(hash)))
		found, err := ctx.Nest(func() error {
			count := ctx.Declare("records", ir.Fn(ir.FnMrCount, ir.R(join.mrm), ir.R(slot)))
			rec := ctx.NewVar("rec", ir.KInt)
			loop, err := ctx.Nest(func() error {
				mapping := make(OrdinalMapping, 0, len(probeMapping)+len(join.buildTypes()))
				mapping = append(mapping, probeMapping...)
				for j, typ := range join.buildTypes() {
					raw := ctx.Declare("raw", ir.Fn(ir.FnMrValue, ir.R(join.mrm), ir.R(slot), ir.R(rec), ir.Int(int64(j))))
					val := raw
					switch typ.Id {
					case common.LTID_DOUBLE:
						val = ctx.Declare("build", ir.Fn(ir.FnFromBits, ir.R(raw)))
					case common.LTID_VARCHAR:
						val = ctx.Declare("build", ir.Fn(ir.FnHeapGet, ir.R(join.heap), ir.R(raw)))
					}
					mapping = append(mapping, &ScalarVariable{Var: val, Typ: typ})
				}
				ctx.SetMapping(mapping)
				return join.parent.Consume(ctx, join)
			})
			ctx.Emit(&ir.For{Var: rec, From: ir.Int(0), To: ir.R(count), Body: loop})
			return err
		})
		ctx.Emit(&ir.If{Cond: ir.Bin(ir.OpGe, ir.R(slot), ir.Int(0)), Then: found})
		return err
	})
	if join.direct {
		ctx.Emit(matched...)
	} else {
		ctx.Emit(&ir.If{Cond: ir.Bin(ir.OpGe, ir.R(key), ir.Int(0)), Then: matched})
	}
	return err
}

// batchKeys fills keys densely for the current batch shape.
func (join *HashJoin) batchKeys(ctx *Context, vg *vecGen, build bool) (*ir.Var, error) {
	shape := ctx.Shape()
	exprs := join.keyExprs(build)
	keys := vg.scratch(common.IntegerType())
	if join.direct {
		col, err := vg.eval(exprs[0], join.keyTyps[0])
		if err != nil {
			return nil, err
		}
		ctx.Do(ir.FnJoinKeys, ir.R(col), shape.Sel, shape.Len, ir.R(keys), ir.R(join.hashes))
		return keys, nil
	}
	fn := ir.FnEncBatch
	if !build {
		fn = ir.FnEncLookupBatch
	}
	args := []ir.Expr{ir.R(join.enc), shape.Sel, shape.Len, ir.R(keys)}
	for i, e := range exprs {
		col, err := vg.eval(e, join.keyTyps[i])
		if err != nil {
			return nil, err
		}
		args = append(args, ir.R(col))
	}
	ctx.Do(fn, args...)
	ctx.Do(ir.FnHashKeys, ir.R(keys), shape.Len, ir.R(join.hashes))
	return keys, nil
}

func (join *HashJoin) buildBatch(ctx *Context) error {
	shape := ctx.Shape()
	vg := &vecGen{ctx: ctx}
	keys, err := join.batchKeys(ctx, vg, true)
	if err != nil {
		return err
	}
	args := []ir.Expr{ir.R(join.mrm), ir.R(keys), ir.R(join.hashes), shape.Len, shape.Sel}
	for _, ap := range ctx.Mapping() {
		if ap.Type().Id == common.LTID_BIGINT {
			args = append(args, ap.Read())
			continue
		}
		field := vg.scratch(common.BigintType())
		switch ap.Type().Id {
		case common.LTID_INTEGER:
			ctx.Do(ir.FnVecCast, ap.Read(), ir.R(field), shape.Sel, shape.Len)
		case common.LTID_DOUBLE:
			ctx.Do(ir.FnVecFloatBits, ap.Read(), ir.R(field), shape.Sel, shape.Len)
		case common.LTID_VARCHAR:
			ctx.Do(ir.FnHeapAddBatch, ir.R(join.heap), ap.Read(), shape.Sel, shape.Len, ir.R(field))
		default:
			return errors.Newf("usp build column %s", ap.Type())
		}
		args = append(args, ir.R(field))
	}
	ctx.Do(ir.FnMrAssociateBatch, args...)
	vg.releaseAll()
	return nil
}

// probeBatch expands the matches of one probe batch into dense output
// batches of at most the batch size.
func (join *HashJoin) probeBatch(ctx *Context) error {
	shape := ctx.Shape()
	probeMapping := ctx.Mapping()
	vg := &vecGen{ctx: ctx}
	keys, err := join.batchKeys(ctx, vg, false)
	if err != nil {
		return err
	}
	ctx.Do(ir.FnProbeStart, ir.R(join.probe), ir.R(join.mrm), ir.R(keys), ir.R(join.hashes), shape.Sel, shape.Len)
	rows := vg.selScratch()
	slots := vg.scratch(common.IntegerType())
	recs := vg.scratch(common.IntegerType())

	outs := make(OrdinalMapping, 0, len(probeMapping)+len(join.buildTypes()))
	for _, ap := range probeMapping {
		outs = append(outs, &BatchVector{Vec: vg.scratch(ap.Type()), Typ: ap.Type()})
	}
	raws := make([]*ir.Var, 0, len(join.buildTypes()))
	for _, typ := range join.buildTypes() {
		raw := vg.scratch(common.BigintType())
		raws = append(raws, raw)
		if typ.Id == common.LTID_BIGINT {
			outs = append(outs, &BatchVector{Vec: raw, Typ: typ})
		} else {
			outs = append(outs, &BatchVector{Vec: vg.scratch(typ), Typ: typ})
		}
	}

	body, err := ctx.Nest(func() error {
		m := ctx.Declare("matches", ir.Fn(ir.FnProbeNext, ir.R(join.probe), ir.R(rows), ir.R(slots), ir.R(recs)))
		ctx.Emit(&ir.If{Cond: ir.Bin(ir.OpEq, ir.R(m), ir.Int(0)), Then: []ir.Stmt{&ir.Break{}}})
		for i, ap := range probeMapping {
			ctx.Do(ir.FnVecGather, ap.Read(), ir.R(rows), ir.R(m), outs[i].Read())
		}
		for j, typ := range join.buildTypes() {
			raw := raws[j]
			out := outs[len(probeMapping)+j].Read()
			ctx.Do(ir.FnMrGather, ir.R(join.mrm), ir.Int(int64(j)), ir.R(slots), ir.R(recs), ir.R(m), ir.R(raw))
			switch typ.Id {
			case common.LTID_INTEGER:
				ctx.Do(ir.FnVecCast, ir.R(raw), out, ir.Nil(), ir.R(m))
			case common.LTID_DOUBLE:
				ctx.Do(ir.FnVecFromBits, ir.R(raw), out, ir.R(m))
			case common.LTID_VARCHAR:
				ctx.Do(ir.FnHeapGetBatch, ir.R(join.heap), ir.R(raw), ir.R(m), out)
			}
		}
		ctx.SetMapping(outs)
		ctx.SetShape(DenseShape(ir.R(m)))
		return join.parent.Consume(ctx, join)
	})
	if err != nil {
		return err
	}
	ctx.Emit(&ir.While{Cond: ir.Bool(true), Body: body})
	vg.releaseAll()
	return nil
}
