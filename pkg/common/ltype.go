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

package common

import (
	"fmt"
	"strings"
)

type LTypeId int

const (
	LTID_INVALID LTypeId = 0
	LTID_BOOLEAN LTypeId = 10
	LTID_INTEGER LTypeId = 13
	LTID_BIGINT  LTypeId = 14
	LTID_DOUBLE  LTypeId = 23
	LTID_VARCHAR LTypeId = 25
)

func (id LTypeId) String() string {
	switch id {
	case LTID_INVALID:
		return "invalid"
	case LTID_BOOLEAN:
		return "boolean"
	case LTID_INTEGER:
		return "integer"
	case LTID_BIGINT:
		return "bigint"
	case LTID_DOUBLE:
		return "double"
	case LTID_VARCHAR:
		return "varchar"
	default:
		panic(fmt.Sprintf("usp %d", int(id)))
	}
}

// LType is the logical type of a column. The physical layout is fixed per
// type: INTEGER is []int32, BIGINT []int64, DOUBLE []float64, VARCHAR
// []string. BOOLEAN only appears in expressions, never in a column.
type LType struct {
	Id LTypeId
}

func MakeLType(id LTypeId) LType {
	return LType{Id: id}
}

func InvalidType() LType {
	return MakeLType(LTID_INVALID)
}

func BooleanType() LType {
	return MakeLType(LTID_BOOLEAN)
}

func IntegerType() LType {
	return MakeLType(LTID_INTEGER)
}

func BigintType() LType {
	return MakeLType(LTID_BIGINT)
}

func DoubleType() LType {
	return MakeLType(LTID_DOUBLE)
}

func VarcharType() LType {
	return MakeLType(LTID_VARCHAR)
}

func (lt LType) String() string {
	return lt.Id.String()
}

func (lt LType) Equal(o LType) bool {
	return lt.Id == o.Id
}

func (lt LType) IsIntegral() bool {
	return lt.Id == LTID_INTEGER || lt.Id == LTID_BIGINT
}

func (lt LType) IsNumeric() bool {
	return lt.IsIntegral() || lt.Id == LTID_DOUBLE
}

// MaxNumericType is the result type of arithmetic between a and b.
func MaxNumericType(a, b LType) LType {
	if a.Id == LTID_DOUBLE || b.Id == LTID_DOUBLE {
		return DoubleType()
	}
	if a.Id == LTID_BIGINT || b.Id == LTID_BIGINT {
		return BigintType()
	}
	return IntegerType()
}

func ParseLType(name string) (LType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "int4", "integer":
		return IntegerType(), nil
	case "bigint", "int8", "long":
		return BigintType(), nil
	case "double", "float8", "float", "real":
		return DoubleType(), nil
	case "varchar", "text", "string":
		return VarcharType(), nil
	case "bool", "boolean":
		return BooleanType(), nil
	default:
		return InvalidType(), fmt.Errorf("unknown type %q", name)
	}
}
