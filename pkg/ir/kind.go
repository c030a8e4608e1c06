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

// Package ir is the intermediate form emitted by the code generator: typed
// variables, expressions and statements grouped into a Program. A backend
// turns a Program into something executable.
package ir

import (
	"fmt"

	"github.com/daviszhen/pipegen/pkg/common"
)

type Kind int

const (
	KVoid Kind = iota
	KInt
	KFloat
	KBool
	KString
	KObj
)

func (k Kind) String() string {
	switch k {
	case KVoid:
		return "void"
	case KInt:
		return "int64"
	case KFloat:
		return "float64"
	case KBool:
		return "bool"
	case KString:
		return "string"
	case KObj:
		return "any"
	default:
		panic(fmt.Sprintf("usp %d", int(k)))
	}
}

// KindOf is the scalar kind a value of typ is held in.
func KindOf(typ common.LType) Kind {
	switch typ.Id {
	case common.LTID_INTEGER, common.LTID_BIGINT:
		return KInt
	case common.LTID_DOUBLE:
		return KFloat
	case common.LTID_BOOLEAN:
		return KBool
	case common.LTID_VARCHAR:
		return KString
	default:
		panic(fmt.Sprintf("usp %v", typ))
	}
}

// VecType is the element layout of a column vector.
type VecType int

const (
	VecInt32 VecType = iota
	VecInt64
	VecFloat64
	VecString
)

func (vt VecType) String() string {
	switch vt {
	case VecInt32:
		return "[]int32"
	case VecInt64:
		return "[]int64"
	case VecFloat64:
		return "[]float64"
	case VecString:
		return "[]string"
	default:
		panic(fmt.Sprintf("usp %d", int(vt)))
	}
}

// Elem is the scalar kind of one element.
func (vt VecType) Elem() Kind {
	switch vt {
	case VecInt32, VecInt64:
		return KInt
	case VecFloat64:
		return KFloat
	case VecString:
		return KString
	default:
		panic(fmt.Sprintf("usp %d", int(vt)))
	}
}

func VecTypeOf(typ common.LType) VecType {
	switch typ.Id {
	case common.LTID_INTEGER:
		return VecInt32
	case common.LTID_BIGINT:
		return VecInt64
	case common.LTID_DOUBLE:
		return VecFloat64
	case common.LTID_VARCHAR:
		return VecString
	default:
		panic(fmt.Sprintf("usp %v", typ))
	}
}
