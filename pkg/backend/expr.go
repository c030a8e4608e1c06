package backend

import (
	"github.com/cockroachdb/errors"

	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/util"
)

// expr is a compiled expression. Only the function of its kind is set.
type expr struct {
	kind ir.Kind
	i    func(f *frame) int64
	f    func(f *frame) float64
	b    func(f *frame) bool
	s    func(f *frame) string
	o    func(f *frame) any
}

var errDivisionByZero = errors.New("division by zero")

func zero(kind ir.Kind) *expr {
	switch kind {
	case ir.KInt:
		return &expr{kind: kind, i: func(*frame) int64 { return 0 }}
	case ir.KFloat:
		return &expr{kind: kind, f: func(*frame) float64 { return 0 }}
	case ir.KBool:
		return &expr{kind: kind, b: func(*frame) bool { return false }}
	case ir.KString:
		return &expr{kind: kind, s: func(*frame) string { return "" }}
	default:
		return &expr{kind: ir.KObj, o: func(*frame) any { return nil }}
	}
}

// value boxes the result of e.
func (e *expr) value() func(f *frame) Value {
	switch e.kind {
	case ir.KInt:
		return func(f *frame) Value { return Value{I: e.i(f)} }
	case ir.KFloat:
		return func(f *frame) Value { return Value{F: e.f(f)} }
	case ir.KBool:
		return func(f *frame) Value { return Value{B: e.b(f)} }
	case ir.KString:
		return func(f *frame) Value { return Value{S: e.s(f)} }
	default:
		return func(f *frame) Value { return Value{O: e.o(f)} }
	}
}

// unbox is the inverse of value for results of kind.
func unbox(kind ir.Kind, fn func(f *frame) Value) *expr {
	switch kind {
	case ir.KInt:
		return &expr{kind: kind, i: func(f *frame) int64 { return fn(f).I }}
	case ir.KFloat:
		return &expr{kind: kind, f: func(f *frame) float64 { return fn(f).F }}
	case ir.KBool:
		return &expr{kind: kind, b: func(f *frame) bool { return fn(f).B }}
	case ir.KString:
		return &expr{kind: kind, s: func(f *frame) string { return fn(f).S }}
	default:
		return &expr{kind: ir.KObj, o: func(f *frame) any { return fn(f).O }}
	}
}

func (c *compiler) expr(e ir.Expr) (*expr, error) {
	switch ex := e.(type) {
	case *ir.Const:
		return c.constant(ex)
	case *ir.Ref:
		sl, err := c.lookup(ex.Var)
		if err != nil {
			return nil, err
		}
		return load(sl), nil
	case *ir.Index:
		return c.index(ex)
	case *ir.Binary:
		return c.binary(ex)
	case *ir.Unary:
		return c.unary(ex)
	case *ir.Convert:
		return c.convert(ex)
	case *ir.Call:
		if ex.Result == ir.KVoid {
			return nil, c.failf("void call %s used as a value", ex.Fn)
		}
		call, err := c.call(ex)
		if err != nil {
			return nil, err
		}
		return unbox(ex.Result, call), nil
	default:
		return nil, c.failf("usp expression %T", e)
	}
}

func (c *compiler) constant(ex *ir.Const) (*expr, error) {
	ok := true
	var ret *expr
	switch ex.K {
	case ir.KInt:
		var v int64
		v, ok = ex.Val.(int64)
		ret = &expr{kind: ex.K, i: func(*frame) int64 { return v }}
	case ir.KFloat:
		var v float64
		v, ok = ex.Val.(float64)
		ret = &expr{kind: ex.K, f: func(*frame) float64 { return v }}
	case ir.KBool:
		var v bool
		v, ok = ex.Val.(bool)
		ret = &expr{kind: ex.K, b: func(*frame) bool { return v }}
	case ir.KString:
		var v string
		v, ok = ex.Val.(string)
		ret = &expr{kind: ex.K, s: func(*frame) string { return v }}
	case ir.KObj:
		v := ex.Val
		ret = &expr{kind: ex.K, o: func(*frame) any { return v }}
	default:
		ok = false
	}
	if !ok {
		return nil, c.failf("constant %v of kind %s", ex.Val, ex.K)
	}
	return ret, nil
}

func load(sl slot) *expr {
	idx := sl.idx
	switch sl.kind {
	case ir.KInt:
		return &expr{kind: sl.kind, i: func(f *frame) int64 { return f.ints[idx] }}
	case ir.KFloat:
		return &expr{kind: sl.kind, f: func(f *frame) float64 { return f.floats[idx] }}
	case ir.KBool:
		return &expr{kind: sl.kind, b: func(f *frame) bool { return f.bools[idx] }}
	case ir.KString:
		return &expr{kind: sl.kind, s: func(f *frame) string { return f.strs[idx] }}
	default:
		return &expr{kind: ir.KObj, o: func(f *frame) any { return f.objs[idx] }}
	}
}

func (c *compiler) index(ex *ir.Index) (*expr, error) {
	vec, err := c.expr(ex.Vec)
	if err != nil {
		return nil, err
	}
	pos, err := c.expr(ex.Pos)
	if err != nil {
		return nil, err
	}
	if vec.kind != ir.KObj || pos.kind != ir.KInt {
		return nil, c.failf("index %s[%s]", vec.kind, pos.kind)
	}
	switch ex.Elem {
	case ir.VecInt32:
		return &expr{kind: ir.KInt, i: func(f *frame) int64 {
			return int64(vec.o(f).([]int32)[pos.i(f)])
		}}, nil
	case ir.VecInt64:
		return &expr{kind: ir.KInt, i: func(f *frame) int64 {
			return vec.o(f).([]int64)[pos.i(f)]
		}}, nil
	case ir.VecFloat64:
		return &expr{kind: ir.KFloat, f: func(f *frame) float64 {
			return vec.o(f).([]float64)[pos.i(f)]
		}}, nil
	case ir.VecString:
		return &expr{kind: ir.KString, s: func(f *frame) string {
			return vec.o(f).([]string)[pos.i(f)]
		}}, nil
	default:
		return nil, c.failf("usp vector %d", int(ex.Elem))
	}
}

func (c *compiler) binary(ex *ir.Binary) (*expr, error) {
	l, err := c.expr(ex.L)
	if err != nil {
		return nil, err
	}
	r, err := c.expr(ex.R)
	if err != nil {
		return nil, err
	}
	if l.kind != r.kind {
		return nil, c.failf("%s %s %s", l.kind, ex.Op, r.kind)
	}
	switch {
	case ex.Op.IsArith():
		return c.arith(ex.Op, l, r)
	case ex.Op.IsCompare():
		return c.compare(ex.Op, l, r)
	case l.kind == ir.KBool && ex.Op == ir.OpAnd:
		return &expr{kind: ir.KBool, b: func(f *frame) bool { return l.b(f) && r.b(f) }}, nil
	case l.kind == ir.KBool && ex.Op == ir.OpOr:
		return &expr{kind: ir.KBool, b: func(f *frame) bool { return l.b(f) || r.b(f) }}, nil
	default:
		return nil, c.failf("%s %s %s", l.kind, ex.Op, r.kind)
	}
}

func (c *compiler) arith(op ir.BinOp, l, r *expr) (*expr, error) {
	switch l.kind {
	case ir.KInt:
		var fn func(a, b int64) int64
		switch op {
		case ir.OpAdd:
			fn = func(a, b int64) int64 { return a + b }
		case ir.OpSub:
			fn = func(a, b int64) int64 { return a - b }
		case ir.OpMul:
			fn = func(a, b int64) int64 { return a * b }
		default:
			fn = func(a, b int64) int64 {
				if b == 0 {
					util.Raise(errDivisionByZero)
				}
				return a / b
			}
		}
		return &expr{kind: ir.KInt, i: func(f *frame) int64 { return fn(l.i(f), r.i(f)) }}, nil
	case ir.KFloat:
		var fn func(a, b float64) float64
		switch op {
		case ir.OpAdd:
			fn = func(a, b float64) float64 { return a + b }
		case ir.OpSub:
			fn = func(a, b float64) float64 { return a - b }
		case ir.OpMul:
			fn = func(a, b float64) float64 { return a * b }
		default:
			fn = func(a, b float64) float64 { return a / b }
		}
		return &expr{kind: ir.KFloat, f: func(f *frame) float64 { return fn(l.f(f), r.f(f)) }}, nil
	default:
		return nil, c.failf("arithmetic on %s", l.kind)
	}
}

func compareOrdered[T int64 | float64 | string](op ir.BinOp, l, r func(*frame) T) func(*frame) bool {
	switch op {
	case ir.OpLt:
		return func(f *frame) bool { return l(f) < r(f) }
	case ir.OpLe:
		return func(f *frame) bool { return l(f) <= r(f) }
	case ir.OpGe:
		return func(f *frame) bool { return l(f) >= r(f) }
	case ir.OpGt:
		return func(f *frame) bool { return l(f) > r(f) }
	case ir.OpEq:
		return func(f *frame) bool { return l(f) == r(f) }
	default:
		return func(f *frame) bool { return l(f) != r(f) }
	}
}

func (c *compiler) compare(op ir.BinOp, l, r *expr) (*expr, error) {
	switch l.kind {
	case ir.KInt:
		return &expr{kind: ir.KBool, b: compareOrdered(op, l.i, r.i)}, nil
	case ir.KFloat:
		return &expr{kind: ir.KBool, b: compareOrdered(op, l.f, r.f)}, nil
	case ir.KString:
		return &expr{kind: ir.KBool, b: compareOrdered(op, l.s, r.s)}, nil
	case ir.KBool:
		switch op {
		case ir.OpEq:
			return &expr{kind: ir.KBool, b: func(f *frame) bool { return l.b(f) == r.b(f) }}, nil
		case ir.OpNe:
			return &expr{kind: ir.KBool, b: func(f *frame) bool { return l.b(f) != r.b(f) }}, nil
		}
	}
	return nil, c.failf("%s %s %s", l.kind, op, r.kind)
}

func (c *compiler) unary(ex *ir.Unary) (*expr, error) {
	x, err := c.expr(ex.X)
	if err != nil {
		return nil, err
	}
	switch {
	case ex.Op == ir.OpNot && x.kind == ir.KBool:
		return &expr{kind: ir.KBool, b: func(f *frame) bool { return !x.b(f) }}, nil
	case ex.Op == ir.OpNeg && x.kind == ir.KInt:
		return &expr{kind: ir.KInt, i: func(f *frame) int64 { return -x.i(f) }}, nil
	case ex.Op == ir.OpNeg && x.kind == ir.KFloat:
		return &expr{kind: ir.KFloat, f: func(f *frame) float64 { return -x.f(f) }}, nil
	default:
		return nil, c.failf("unary %d on %s", int(ex.Op), x.kind)
	}
}

func (c *compiler) convert(ex *ir.Convert) (*expr, error) {
	x, err := c.expr(ex.X)
	if err != nil {
		return nil, err
	}
	switch {
	case x.kind == ex.To:
		return x, nil
	case x.kind == ir.KInt && ex.To == ir.KFloat:
		return &expr{kind: ir.KFloat, f: func(f *frame) float64 { return float64(x.i(f)) }}, nil
	case x.kind == ir.KFloat && ex.To == ir.KInt:
		return &expr{kind: ir.KInt, i: func(f *frame) int64 { return int64(x.f(f)) }}, nil
	default:
		return nil, c.failf("convert %s to %s", x.kind, ex.To)
	}
}

// call compiles an intrinsic call. The argument buffer belongs to the call
// site.
func (c *compiler) call(ex *ir.Call) (func(f *frame) Value, error) {
	sig, has := ir.Intrinsics[ex.Fn]
	if !has {
		return nil, c.failf("unknown intrinsic %s", ex.Fn)
	}
	impl := lookupImpl(ex.Fn)
	if impl == nil {
		return nil, c.failf("intrinsic %s has no implementation", ex.Fn)
	}
	if len(ex.Args) < len(sig.Params) || (sig.Variadic == ir.KVoid && len(ex.Args) != len(sig.Params)) {
		return nil, c.failf("%s takes %d arguments, got %d", ex.Fn, len(sig.Params), len(ex.Args))
	}
	args := make([]func(*frame) Value, len(ex.Args))
	for i, arg := range ex.Args {
		want := sig.Variadic
		if i < len(sig.Params) {
			want = sig.Params[i]
		}
		a, err := c.expr(arg)
		if err != nil {
			return nil, err
		}
		if a.kind != want {
			return nil, c.failf("argument %d of %s is %s, want %s", i, ex.Fn, a.kind, want)
		}
		args[i] = a.value()
	}
	buf := make([]Value, len(args))
	return func(f *frame) Value {
		for i, arg := range args {
			buf[i] = arg(f)
		}
		return impl(buf)
	}, nil
}
