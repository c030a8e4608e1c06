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

package compute

import (
	"fmt"

	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/ir"
)

// AccessPath describes where a produced column lives once the generated
// code runs. It is a compile-time descriptor, never a runtime value.
type AccessPath interface {
	Name() string
	Type() common.LType
	// Read is the expression loading the value: the scalar for row-wise
	// paths, the whole vector for BatchVector.
	Read() ir.Expr
}

// ScalarVariable is a value held in a single variable.
type ScalarVariable struct {
	Var *ir.Var
	Typ common.LType
}

func (sv *ScalarVariable) Name() string       { return sv.Var.Name }
func (sv *ScalarVariable) Type() common.LType { return sv.Typ }
func (sv *ScalarVariable) Read() ir.Expr      { return ir.R(sv.Var) }

// ArrayVariable is element Pos of a column vector, as seen by a row loop.
type ArrayVariable struct {
	Vec *ir.Var
	Pos ir.Expr
	Typ common.LType
}

func (av *ArrayVariable) Name() string       { return av.Vec.Name }
func (av *ArrayVariable) Type() common.LType { return av.Typ }
func (av *ArrayVariable) Read() ir.Expr {
	return ir.Idx(ir.R(av.Vec), av.Pos, ir.VecTypeOf(av.Typ))
}

// BatchVector is a whole column vector of the current batch. Only the rows
// of the current BatchShape are meaningful.
type BatchVector struct {
	Vec *ir.Var
	Typ common.LType
}

func (bv *BatchVector) Name() string       { return bv.Vec.Name }
func (bv *BatchVector) Type() common.LType { return bv.Typ }
func (bv *BatchVector) Read() ir.Expr      { return ir.R(bv.Vec) }

// OrdinalMapping is the output shape of the operator that produced last:
// one access path per output column, in order.
type OrdinalMapping []AccessPath

func (om OrdinalMapping) Types() []common.LType {
	ret := make([]common.LType, 0, len(om))
	for _, ap := range om {
		ret = append(ret, ap.Type())
	}
	return ret
}

func (om OrdinalMapping) String() string {
	ret := "["
	for i, ap := range om {
		if i > 0 {
			ret += ", "
		}
		ret += fmt.Sprintf("%s %s", ap.Name(), ap.Type())
	}
	return ret + "]"
}

// BatchShape is the active part of the current batch in vectorized code:
// the selection vector (nil object for every row) and its length.
type BatchShape struct {
	Sel ir.Expr
	Len ir.Expr
}

func DenseShape(n ir.Expr) BatchShape {
	return BatchShape{Sel: ir.Nil(), Len: n}
}
