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
	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/plan"
	"github.com/daviszhen/pipegen/pkg/util"
)

func isColumnType(typ common.LType) bool {
	switch typ.Id {
	case common.LTID_INTEGER, common.LTID_BIGINT, common.LTID_DOUBLE, common.LTID_VARCHAR:
		return true
	default:
		return false
	}
}

// Translate maps a logical plan onto the operator tree, bottom-up. Plan
// nodes without an operator, and operators whose parameters are out of the
// supported subset, fail with UnsupportedPlanNode.
func Translate(root *plan.LogicalOperator) (Operator, error) {
	if root == nil {
		return nil, util.UnsupportedPlanNodef("empty plan")
	}
	children := make([]Operator, 0, len(root.Children))
	for _, child := range root.Children {
		op, err := Translate(child)
		if err != nil {
			return nil, err
		}
		children = append(children, op)
	}
	expect := func(n int) error {
		if len(children) != n {
			return util.UnsupportedPlanNodef("%s with %d children", root.Typ, len(children))
		}
		return nil
	}

	switch root.Typ {
	case plan.LOT_Scan:
		if err := expect(0); err != nil {
			return nil, err
		}
		if root.Table == "" || len(root.Columns) == 0 || len(root.Columns) != len(root.Types) {
			return nil, util.UnsupportedPlanNodef("scan of %q with columns %v", root.Table, root.Columns)
		}
		for i, typ := range root.Types {
			if !isColumnType(typ) {
				return nil, util.UnsupportedPlanNodef("scan column %s of type %s", root.Columns[i], typ)
			}
		}
		return NewTableScan(root), nil
	case plan.LOT_Filter:
		if err := expect(1); err != nil {
			return nil, err
		}
		if len(root.Filters) == 0 {
			return nil, util.UnsupportedPlanNodef("filter without condition")
		}
		for _, cond := range root.Filters {
			if cond.DataTyp.Id != common.LTID_BOOLEAN {
				return nil, util.UnsupportedPlanNodef("filter condition %s of type %s", cond, cond.DataTyp)
			}
		}
		return NewFilter(root, children[0]), nil
	case plan.LOT_Project:
		if err := expect(1); err != nil {
			return nil, err
		}
		for _, e := range root.Projects {
			if !isColumnType(e.DataTyp) || e.Typ == plan.ET_Agg {
				return nil, util.UnsupportedPlanNodef("projection %s of type %s", e, e.DataTyp)
			}
		}
		return NewProjection(root, children[0]), nil
	case plan.LOT_AggGroup:
		if err := expect(1); err != nil {
			return nil, err
		}
		if err := checkAggregate(root); err != nil {
			return nil, err
		}
		return NewAggregate(root, children[0]), nil
	case plan.LOT_JOIN:
		if err := expect(2); err != nil {
			return nil, err
		}
		if root.JoinTyp != plan.LOT_JoinTypeInner {
			return nil, util.UnsupportedPlanNodef("%s join", root.JoinTyp)
		}
		if len(root.OnConds) == 0 {
			return nil, util.UnsupportedPlanNodef("join without equality condition")
		}
		join, err := NewHashJoin(root, children[0], children[1])
		if err != nil {
			return nil, util.UnsupportedPlanNodef("%v", err)
		}
		return join, nil
	default:
		return nil, util.UnsupportedPlanNodef("%s", root.Typ)
	}
}

func checkAggregate(root *plan.LogicalOperator) error {
	if len(root.Aggs) == 0 {
		return util.UnsupportedPlanNodef("aggregate without aggregate functions")
	}
	for _, e := range root.GroupBys {
		if !isColumnType(e.DataTyp) {
			return util.UnsupportedPlanNodef("group by %s of type %s", e, e.DataTyp)
		}
	}
	for _, e := range root.Aggs {
		if e.Typ != plan.ET_Agg {
			return util.UnsupportedPlanNodef("%s is not an aggregate function", e)
		}
		switch e.SubTyp {
		case plan.ET_Count:
			continue
		case plan.ET_Sum, plan.ET_Avg, plan.ET_Min, plan.ET_Max:
		default:
			return util.UnsupportedPlanNodef("aggregate function %s", e.SubTyp)
		}
		if len(e.Children) != 1 || !e.Children[0].DataTyp.IsNumeric() {
			return util.UnsupportedPlanNodef("%s over non numeric input", e)
		}
	}
	return nil
}
