package compute

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/plan"
	"github.com/daviszhen/pipegen/pkg/vectorize"
)

func isConst(e *plan.Expr) bool {
	switch e.Typ {
	case plan.ET_IConst, plan.ET_FConst, plan.ET_SConst, plan.ET_BConst:
		return true
	default:
		return false
	}
}

func constFloat(e *plan.Expr) float64 {
	if e.Typ == plan.ET_IConst {
		return float64(e.Ivalue)
	}
	return e.Fvalue
}

func binOp(op plan.ET_SubTyp) ir.BinOp {
	switch op {
	case plan.ET_Add:
		return ir.OpAdd
	case plan.ET_Sub:
		return ir.OpSub
	case plan.ET_Mul:
		return ir.OpMul
	case plan.ET_Div:
		return ir.OpDiv
	case plan.ET_Equal:
		return ir.OpEq
	case plan.ET_NotEqual:
		return ir.OpNe
	case plan.ET_Greater:
		return ir.OpGt
	case plan.ET_GreaterEqual:
		return ir.OpGe
	case plan.ET_Less:
		return ir.OpLt
	case plan.ET_LessEqual:
		return ir.OpLe
	case plan.ET_And:
		return ir.OpAnd
	case plan.ET_Or:
		return ir.OpOr
	default:
		panic(fmt.Sprintf("usp %v", op))
	}
}

func cmpOp(op plan.ET_SubTyp) vectorize.CmpOp {
	switch op {
	case plan.ET_Equal:
		return vectorize.CmpEq
	case plan.ET_NotEqual:
		return vectorize.CmpNe
	case plan.ET_Greater:
		return vectorize.CmpGt
	case plan.ET_GreaterEqual:
		return vectorize.CmpGe
	case plan.ET_Less:
		return vectorize.CmpLt
	case plan.ET_LessEqual:
		return vectorize.CmpLe
	default:
		panic(fmt.Sprintf("usp %v", op))
	}
}

func arithOp(op plan.ET_SubTyp) vectorize.ArithOp {
	switch op {
	case plan.ET_Add:
		return vectorize.OpAdd
	case plan.ET_Sub:
		return vectorize.OpSub
	case plan.ET_Mul:
		return vectorize.OpMul
	case plan.ET_Div:
		return vectorize.OpDiv
	default:
		panic(fmt.Sprintf("usp %v", op))
	}
}

func lookupColumn(mapping OrdinalMapping, e *plan.Expr) (AccessPath, error) {
	if e.ColIdx < 0 || e.ColIdx >= len(mapping) {
		return nil, errors.Newf("column %s out of range, %d columns in input", e, len(mapping))
	}
	return mapping[e.ColIdx], nil
}

// rowExpr is the scalar expression computing e for the current row.
func rowExpr(mapping OrdinalMapping, e *plan.Expr) (ir.Expr, error) {
	switch e.Typ {
	case plan.ET_Column:
		ap, err := lookupColumn(mapping, e)
		if err != nil {
			return nil, err
		}
		return ap.Read(), nil
	case plan.ET_IConst:
		return ir.Int(e.Ivalue), nil
	case plan.ET_FConst:
		return ir.Float(e.Fvalue), nil
	case plan.ET_SConst:
		return ir.Str(e.Svalue), nil
	case plan.ET_BConst:
		return ir.Bool(e.Bvalue), nil
	case plan.ET_Func:
	default:
		return nil, errors.Newf("usp expr %s in row-wise code", e)
	}

	args := make([]ir.Expr, 0, len(e.Children))
	for _, child := range e.Children {
		arg, err := rowExpr(mapping, child)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	switch {
	case e.SubTyp == plan.ET_Not:
		return ir.Not(args[0]), nil
	case e.SubTyp == plan.ET_And || e.SubTyp == plan.ET_Or:
		ret := args[0]
		for _, arg := range args[1:] {
			ret = ir.Bin(binOp(e.SubTyp), ret, arg)
		}
		return ret, nil
	case e.SubTyp.IsArith():
		kind := ir.KindOf(e.DataTyp)
		ret := ir.Expr(ir.Bin(binOp(e.SubTyp), ir.Conv(kind, args[0]), ir.Conv(kind, args[1])))
		if e.DataTyp.Id == common.LTID_INTEGER {
			//same wrap-around as the int32 batch kernels
			ret = ir.Fn(ir.FnWrapInt32, ret)
		}
		return ret, nil
	case e.SubTyp.IsCompare():
		l, r := args[0], args[1]
		if l.Kind() != r.Kind() {
			if !isNumericKind(l.Kind()) || !isNumericKind(r.Kind()) {
				return nil, errors.Newf("can not compare %s and %s in %s", l.Kind(), r.Kind(), e)
			}
			l, r = ir.Conv(ir.KFloat, l), ir.Conv(ir.KFloat, r)
		}
		return ir.Bin(binOp(e.SubTyp), l, r), nil
	default:
		return nil, errors.Newf("usp expr %s in row-wise code", e)
	}
}

func isNumericKind(k ir.Kind) bool {
	return k == ir.KInt || k == ir.KFloat
}

// vecValueOK reports whether e can be computed batch at a time.
func vecValueOK(e *plan.Expr) bool {
	switch e.Typ {
	case plan.ET_Column, plan.ET_IConst, plan.ET_FConst, plan.ET_SConst:
		return true
	case plan.ET_Func:
		if !e.SubTyp.IsArith() || !e.DataTyp.IsNumeric() {
			return false
		}
		return vecValueOK(e.Children[0]) && vecValueOK(e.Children[1])
	default:
		return false
	}
}

// vecPredOK reports whether e can narrow a selection vector: a comparison
// between vector values with at least one side not constant.
func vecPredOK(e *plan.Expr) bool {
	if e.Typ != plan.ET_Func || !e.SubTyp.IsCompare() {
		return false
	}
	l, r := e.Children[0], e.Children[1]
	if isConst(l) && isConst(r) {
		return false
	}
	if !vecValueOK(l) || !vecValueOK(r) {
		return false
	}
	lt, rt := l.DataTyp, r.DataTyp
	if lt.Id == common.LTID_VARCHAR || rt.Id == common.LTID_VARCHAR {
		return lt.Equal(rt)
	}
	return lt.IsNumeric() && rt.IsNumeric()
}

// vecGen emits batch-at-a-time expression code over the current batch shape
// and remembers the scratch vectors it checks out.
type vecGen struct {
	ctx  *Context
	bufs []*ir.Var
}

func (vg *vecGen) scratch(typ common.LType) *ir.Var {
	buf := vg.ctx.scratch(typ)
	vg.bufs = append(vg.bufs, buf)
	return buf
}

func (vg *vecGen) selScratch() *ir.Var {
	buf := vg.ctx.selScratch()
	vg.bufs = append(vg.bufs, buf)
	return buf
}

func (vg *vecGen) releaseAll() {
	vg.ctx.release(vg.bufs...)
	vg.bufs = vg.bufs[:0]
}

// eval computes e as a vector of type want, valid at the selected positions.
func (vg *vecGen) eval(e *plan.Expr, want common.LType) (*ir.Var, error) {
	ctx := vg.ctx
	shape := ctx.Shape()
	switch e.Typ {
	case plan.ET_Column:
		ap, err := lookupColumn(ctx.Mapping(), e)
		if err != nil {
			return nil, err
		}
		bv, ok := ap.(*BatchVector)
		if !ok {
			return nil, errors.Newf("column %s is not a batch vector", e)
		}
		if ap.Type().Equal(want) {
			return bv.Vec, nil
		}
		if !ap.Type().IsNumeric() || !want.IsNumeric() {
			return nil, errors.Newf("can not cast %s to %s", ap.Type(), want)
		}
		out := vg.scratch(want)
		ctx.Do(ir.FnVecCast, bv.Read(), ir.R(out), shape.Sel, shape.Len)
		return out, nil
	case plan.ET_IConst, plan.ET_FConst, plan.ET_SConst:
		out := vg.scratch(want)
		switch {
		case want.IsIntegral() && e.Typ == plan.ET_IConst:
			ctx.Do(ir.FnVecFillInt, ir.R(out), ir.Int(e.Ivalue), shape.Sel, shape.Len)
		case want.Id == common.LTID_DOUBLE && e.Typ != plan.ET_SConst:
			ctx.Do(ir.FnVecFillFloat, ir.R(out), ir.Float(constFloat(e)), shape.Sel, shape.Len)
		case want.Id == common.LTID_VARCHAR && e.Typ == plan.ET_SConst:
			ctx.Do(ir.FnVecFillString, ir.R(out), ir.Str(e.Svalue), shape.Sel, shape.Len)
		default:
			return nil, errors.Newf("can not use %s as %s", e, want)
		}
		return out, nil
	case plan.ET_Func:
		if !e.SubTyp.IsArith() {
			return nil, errors.Newf("usp expr %s in vectorized code", e)
		}
	default:
		return nil, errors.Newf("usp expr %s in vectorized code", e)
	}

	typ := e.DataTyp
	l, err := vg.eval(e.Children[0], typ)
	if err != nil {
		return nil, err
	}
	op := ir.Int(int64(arithOp(e.SubTyp)))
	r := e.Children[1]
	out := vg.scratch(typ)
	switch {
	case typ.IsIntegral() && r.Typ == plan.ET_IConst:
		ctx.Do(ir.FnVecArithInt, op, ir.R(l), ir.Int(r.Ivalue), ir.R(out), shape.Sel, shape.Len)
	case typ.Id == common.LTID_DOUBLE && (r.Typ == plan.ET_IConst || r.Typ == plan.ET_FConst):
		ctx.Do(ir.FnVecArithFloat, op, ir.R(l), ir.Float(constFloat(r)), ir.R(out), shape.Sel, shape.Len)
	default:
		rv, err := vg.eval(r, typ)
		if err != nil {
			return nil, err
		}
		ctx.Do(ir.FnVecArith, op, ir.R(l), ir.R(rv), ir.R(out), shape.Sel, shape.Len)
	}
	if typ.Equal(want) {
		return out, nil
	}
	cast := vg.scratch(want)
	ctx.Do(ir.FnVecCast, ir.R(out), ir.R(cast), shape.Sel, shape.Len)
	return cast, nil
}

// filter narrows the current batch shape by the comparison e.
func (vg *vecGen) filter(e *plan.Expr) error {
	ctx := vg.ctx
	if !vecPredOK(e) {
		return errors.Newf("usp predicate %s in vectorized code", e)
	}
	l, r := e.Children[0], e.Children[1]
	op := cmpOp(e.SubTyp)
	if isConst(l) {
		l, r = r, l
		op = op.Flip()
	}
	opArg := ir.Int(int64(op))

	var call *ir.Call
	if isConst(r) {
		lt := l.DataTyp
		switch {
		case lt.Id == common.LTID_VARCHAR:
			lv, err := vg.eval(l, lt)
			if err != nil {
				return err
			}
			call = ir.Fn(ir.FnSelCmpString, opArg, ir.R(lv), ir.Str(r.Svalue))
		case lt.IsIntegral() && r.Typ == plan.ET_IConst:
			lv, err := vg.eval(l, lt)
			if err != nil {
				return err
			}
			call = ir.Fn(ir.FnSelCmpInt, opArg, ir.R(lv), ir.Int(r.Ivalue))
		default:
			lv, err := vg.eval(l, common.DoubleType())
			if err != nil {
				return err
			}
			call = ir.Fn(ir.FnSelCmpFloat, opArg, ir.R(lv), ir.Float(constFloat(r)))
		}
	} else {
		typ := l.DataTyp
		if typ.Id != common.LTID_VARCHAR {
			typ = common.MaxNumericType(l.DataTyp, r.DataTyp)
		}
		lv, err := vg.eval(l, typ)
		if err != nil {
			return err
		}
		rv, err := vg.eval(r, typ)
		if err != nil {
			return err
		}
		call = ir.Fn(ir.FnSelCmpCol, opArg, ir.R(lv), ir.R(rv))
	}
	shape := ctx.Shape()
	out := vg.selScratch()
	call.Args = append(call.Args, ir.R(out), shape.Sel, shape.Len)
	n := ctx.Declare("n", call)
	ctx.SetShape(BatchShape{Sel: ir.R(out), Len: ir.R(n)})
	return nil
}
