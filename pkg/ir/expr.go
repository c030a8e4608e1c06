package ir

import (
	"fmt"
)

// Var is a named storage location. Names are unique within a Program.
type Var struct {
	Name string
	Kind Kind
}

type Expr interface {
	Kind() Kind
}

type Const struct {
	K   Kind
	Val any
}

func (c *Const) Kind() Kind { return c.K }

type Ref struct {
	Var *Var
}

func (r *Ref) Kind() Kind { return r.Var.Kind }

// Index reads element Pos of the vector Vec.
type Index struct {
	Vec  Expr
	Pos  Expr
	Elem VecType
}

func (ix *Index) Kind() Kind { return ix.Elem.Elem() }

type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpLt
	OpLe
	OpGe
	OpGt
	OpEq
	OpNe
	OpAnd
	OpOr
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	case OpGt:
		return ">"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		panic(fmt.Sprintf("usp %d", int(op)))
	}
}

func (op BinOp) IsArith() bool {
	return op <= OpDiv
}

func (op BinOp) IsCompare() bool {
	return op >= OpLt && op <= OpNe
}

type Binary struct {
	Op   BinOp
	L, R Expr
}

func (b *Binary) Kind() Kind {
	if b.Op.IsArith() {
		return b.L.Kind()
	}
	return KBool
}

type UnOp int

const (
	OpNot UnOp = iota
	OpNeg
)

type Unary struct {
	Op UnOp
	X  Expr
}

func (u *Unary) Kind() Kind {
	if u.Op == OpNot {
		return KBool
	}
	return u.X.Kind()
}

// Convert changes the kind of a numeric value. Int to Float is exact up to
// 2^53; Float to Int truncates.
type Convert struct {
	To Kind
	X  Expr
}

func (c *Convert) Kind() Kind { return c.To }

// Call invokes an intrinsic of the catalog.
type Call struct {
	Fn     string
	Args   []Expr
	Result Kind
}

func (c *Call) Kind() Kind { return c.Result }

func Int(v int64) *Const {
	return &Const{K: KInt, Val: v}
}

func Float(v float64) *Const {
	return &Const{K: KFloat, Val: v}
}

func Bool(v bool) *Const {
	return &Const{K: KBool, Val: v}
}

func Str(v string) *Const {
	return &Const{K: KString, Val: v}
}

// Nil is the empty object, used for "no selection vector".
func Nil() *Const {
	return &Const{K: KObj}
}

func R(v *Var) *Ref {
	return &Ref{Var: v}
}

func Idx(vec, pos Expr, elem VecType) *Index {
	return &Index{Vec: vec, Pos: pos, Elem: elem}
}

func Bin(op BinOp, l, r Expr) *Binary {
	return &Binary{Op: op, L: l, R: r}
}

func Not(x Expr) *Unary {
	return &Unary{Op: OpNot, X: x}
}

func Neg(x Expr) *Unary {
	return &Unary{Op: OpNeg, X: x}
}

func Conv(to Kind, x Expr) Expr {
	if x.Kind() == to {
		return x
	}
	return &Convert{To: to, X: x}
}

// Fn builds a call of intrinsic name. The result kind comes from the
// catalog; unknown names yield a void call that backends reject.
func Fn(name string, args ...Expr) *Call {
	call := &Call{Fn: name, Args: args}
	if sig, ok := Intrinsics[name]; ok {
		call.Result = sig.Result
	}
	return call
}
