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

// Package plan is the logical plan handed to the code generator. Column
// references are positional: an ET_Column expression names an ordinal of
// the output of the node's child. A join condition is an equality whose left
// operand indexes the left child and whose right operand indexes the right
// child.
package plan

import (
	"fmt"

	"github.com/daviszhen/pipegen/pkg/common"
)

type LOT int

const (
	LOT_Project  LOT = 0
	LOT_Filter   LOT = 1
	LOT_Scan     LOT = 2
	LOT_JOIN     LOT = 3
	LOT_AggGroup LOT = 4
	LOT_Order    LOT = 5
	LOT_Limit    LOT = 6
)

func (lt LOT) String() string {
	switch lt {
	case LOT_Project:
		return "Project"
	case LOT_Filter:
		return "Filter"
	case LOT_Scan:
		return "Scan"
	case LOT_JOIN:
		return "Join"
	case LOT_AggGroup:
		return "Aggregate"
	case LOT_Order:
		return "Order"
	case LOT_Limit:
		return "Limit"
	default:
		panic(fmt.Sprintf("usp %d", lt))
	}
}

type LOT_JoinType int

const (
	LOT_JoinTypeCross LOT_JoinType = iota
	LOT_JoinTypeLeft
	LOT_JoinTypeInner
	LOT_JoinTypeSEMI
	LOT_JoinTypeANTI
)

func (lojt LOT_JoinType) String() string {
	switch lojt {
	case LOT_JoinTypeCross:
		return "cross"
	case LOT_JoinTypeLeft:
		return "left"
	case LOT_JoinTypeInner:
		return "inner"
	case LOT_JoinTypeSEMI:
		return "semi"
	case LOT_JoinTypeANTI:
		return "anti semi"
	default:
		panic(fmt.Sprintf("usp %d", lojt))
	}
}

type LogicalOperator struct {
	Typ      LOT
	Children []*LogicalOperator
	Table    string         //for SCAN
	Columns  []string       //for SCAN
	Types    []common.LType //for SCAN
	Filters  []*Expr        //conjunction for FILTER
	Projects []*Expr        //for PROJECT
	GroupBys []*Expr        //for AGG
	Aggs     []*Expr        //for AGG
	JoinTyp  LOT_JoinType
	OnConds  []*Expr //equi conditions for JOIN
	OrderBys []*Expr
	Limit    *Expr
}

// OutputTypes is the column layout the node produces.
func (lo *LogicalOperator) OutputTypes() []common.LType {
	ret := make([]common.LType, 0)
	switch lo.Typ {
	case LOT_Scan:
		ret = append(ret, lo.Types...)
	case LOT_Project:
		for _, e := range lo.Projects {
			ret = append(ret, e.DataTyp)
		}
	case LOT_AggGroup:
		for _, e := range lo.GroupBys {
			ret = append(ret, e.DataTyp)
		}
		for _, e := range lo.Aggs {
			ret = append(ret, e.DataTyp)
		}
	case LOT_JOIN:
		for _, child := range lo.Children {
			ret = append(ret, child.OutputTypes()...)
		}
	default:
		if len(lo.Children) != 0 {
			ret = append(ret, lo.Children[0].OutputTypes()...)
		}
	}
	return ret
}

// OutputNames names the output columns in the same order as OutputTypes.
func (lo *LogicalOperator) OutputNames() []string {
	ret := make([]string, 0)
	switch lo.Typ {
	case LOT_Scan:
		ret = append(ret, lo.Columns...)
	case LOT_Project:
		for _, e := range lo.Projects {
			ret = append(ret, e.OutputName())
		}
	case LOT_AggGroup:
		for _, e := range lo.GroupBys {
			ret = append(ret, e.OutputName())
		}
		for _, e := range lo.Aggs {
			ret = append(ret, e.OutputName())
		}
	case LOT_JOIN:
		for _, child := range lo.Children {
			ret = append(ret, child.OutputNames()...)
		}
	default:
		if len(lo.Children) != 0 {
			ret = append(ret, lo.Children[0].OutputNames()...)
		}
	}
	return ret
}

func (lo *LogicalOperator) String() string {
	return ExplainLogicalPlan(lo)
}
