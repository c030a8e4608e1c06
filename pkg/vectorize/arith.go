package vectorize

import "fmt"

type Number interface {
	~int32 | ~int64 | ~float64
}

type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		panic(fmt.Sprintf("usp %d", int(op)))
	}
}

// Arith dispatches the column/column form of op. Results are written at the
// selected positions of out so one selection stays valid for every column of
// the batch. Integer division by zero panics.
func Arith[T Number](op ArithOp, a, b, out []T, sel []int32, n int) int {
	switch op {
	case OpAdd:
		return Add(a, b, out, sel, n)
	case OpSub:
		return Sub(a, b, out, sel, n)
	case OpMul:
		return Mul(a, b, out, sel, n)
	case OpDiv:
		return Div(a, b, out, sel, n)
	default:
		panic(fmt.Sprintf("usp %d", int(op)))
	}
}

// ArithConst dispatches the column/constant form of op.
func ArithConst[T Number](op ArithOp, a []T, c T, out []T, sel []int32, n int) int {
	switch op {
	case OpAdd:
		return AddConst(a, c, out, sel, n)
	case OpSub:
		return SubConst(a, c, out, sel, n)
	case OpMul:
		return MulConst(a, c, out, sel, n)
	case OpDiv:
		return DivConst(a, c, out, sel, n)
	default:
		panic(fmt.Sprintf("usp %d", int(op)))
	}
}

func Add[T Number](a, b, out []T, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = a[i] + b[i]
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = a[idx] + b[idx]
	}
	return n
}

func Sub[T Number](a, b, out []T, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = a[i] - b[i]
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = a[idx] - b[idx]
	}
	return n
}

func Mul[T Number](a, b, out []T, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = a[i] * b[i]
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = a[idx] * b[idx]
	}
	return n
}

func Div[T Number](a, b, out []T, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = a[i] / b[i]
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = a[idx] / b[idx]
	}
	return n
}

func AddConst[T Number](a []T, c T, out []T, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = a[i] + c
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = a[idx] + c
	}
	return n
}

func SubConst[T Number](a []T, c T, out []T, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = a[i] - c
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = a[idx] - c
	}
	return n
}

func MulConst[T Number](a []T, c T, out []T, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = a[i] * c
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = a[idx] * c
	}
	return n
}

func DivConst[T Number](a []T, c T, out []T, sel []int32, n int) int {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = a[i] / c
		}
		return n
	}
	for _, idx := range sel[:n] {
		out[idx] = a[idx] / c
	}
	return n
}
