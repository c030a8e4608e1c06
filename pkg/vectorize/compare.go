// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vectorize holds the stateless batch primitives called by generated
// pipelines. Selection vectors are []int32 row offsets; a nil input selection
// stands for every row in [0, n). Filters write the surviving offsets into out
// and return how many survived. out must hold at least n entries. No bounds
// are validated.
package vectorize

import (
	"cmp"
	"fmt"
)

type CmpOp int

const (
	CmpLt CmpOp = iota
	CmpLe
	CmpGe
	CmpGt
	CmpEq
	CmpNe
)

func (op CmpOp) String() string {
	switch op {
	case CmpLt:
		return "lt"
	case CmpLe:
		return "le"
	case CmpGe:
		return "ge"
	case CmpGt:
		return "gt"
	case CmpEq:
		return "eq"
	case CmpNe:
		return "ne"
	default:
		panic(fmt.Sprintf("usp %d", int(op)))
	}
}

// Flip is the operator with swapped operands: c < x is x > c.
func (op CmpOp) Flip() CmpOp {
	switch op {
	case CmpLt:
		return CmpGt
	case CmpLe:
		return CmpGe
	case CmpGe:
		return CmpLe
	case CmpGt:
		return CmpLt
	default:
		return op
	}
}

// Negate is the complement: not (x < c) is x >= c.
func (op CmpOp) Negate() CmpOp {
	switch op {
	case CmpLt:
		return CmpGe
	case CmpLe:
		return CmpGt
	case CmpGe:
		return CmpLt
	case CmpGt:
		return CmpLe
	case CmpEq:
		return CmpNe
	case CmpNe:
		return CmpEq
	default:
		panic(fmt.Sprintf("usp %d", int(op)))
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CompareConst dispatches to the constant comparison for op.
func CompareConst[T cmp.Ordered](op CmpOp, col []T, c T, out, sel []int32, n int) int {
	switch op {
	case CmpLt:
		return Lt(col, c, out, sel, n)
	case CmpLe:
		return Le(col, c, out, sel, n)
	case CmpGe:
		return Ge(col, c, out, sel, n)
	case CmpGt:
		return Gt(col, c, out, sel, n)
	case CmpEq:
		return Eq(col, c, out, sel, n)
	case CmpNe:
		return Ne(col, c, out, sel, n)
	default:
		panic(fmt.Sprintf("usp %d", int(op)))
	}
}

// CompareCol dispatches to the column/column comparison for op.
func CompareCol[T cmp.Ordered](op CmpOp, a, b []T, out, sel []int32, n int) int {
	switch op {
	case CmpLt:
		return LtCol(a, b, out, sel, n)
	case CmpLe:
		return LeCol(a, b, out, sel, n)
	case CmpGe:
		return GeCol(a, b, out, sel, n)
	case CmpGt:
		return GtCol(a, b, out, sel, n)
	case CmpEq:
		return EqCol(a, b, out, sel, n)
	case CmpNe:
		return NeCol(a, b, out, sel, n)
	default:
		panic(fmt.Sprintf("usp %d", int(op)))
	}
}

func Lt[T cmp.Ordered](col []T, c T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		if useUnrolled {
			return ltDense8(col, c, out, n)
		}
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(col[i] < c)
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(col[idx] < c)
	}
	return k
}

func Le[T cmp.Ordered](col []T, c T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		if useUnrolled {
			return leDense8(col, c, out, n)
		}
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(col[i] <= c)
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(col[idx] <= c)
	}
	return k
}

func Ge[T cmp.Ordered](col []T, c T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		if useUnrolled {
			return geDense8(col, c, out, n)
		}
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(col[i] >= c)
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(col[idx] >= c)
	}
	return k
}

func Gt[T cmp.Ordered](col []T, c T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		if useUnrolled {
			return gtDense8(col, c, out, n)
		}
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(col[i] > c)
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(col[idx] > c)
	}
	return k
}

func Eq[T cmp.Ordered](col []T, c T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		if useUnrolled {
			return eqDense8(col, c, out, n)
		}
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(col[i] == c)
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(col[idx] == c)
	}
	return k
}

func Ne[T cmp.Ordered](col []T, c T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(col[i] != c)
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(col[idx] != c)
	}
	return k
}

func LtCol[T cmp.Ordered](a, b []T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(a[i] < b[i])
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(a[idx] < b[idx])
	}
	return k
}

func LeCol[T cmp.Ordered](a, b []T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(a[i] <= b[i])
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(a[idx] <= b[idx])
	}
	return k
}

func GeCol[T cmp.Ordered](a, b []T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(a[i] >= b[i])
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(a[idx] >= b[idx])
	}
	return k
}

func GtCol[T cmp.Ordered](a, b []T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(a[i] > b[i])
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(a[idx] > b[idx])
	}
	return k
}

func EqCol[T cmp.Ordered](a, b []T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(a[i] == b[i])
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(a[idx] == b[idx])
	}
	return k
}

func NeCol[T cmp.Ordered](a, b []T, out, sel []int32, n int) int {
	k := 0
	if sel == nil {
		for i := 0; i < n; i++ {
			out[k] = int32(i)
			k += b2i(a[i] != b[i])
		}
		return k
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[k] = idx
		k += b2i(a[idx] != b[idx])
	}
	return k
}
