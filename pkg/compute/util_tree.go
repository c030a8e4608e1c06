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
	"strings"

	"github.com/xlab/treeprint"

	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/plan"
)

func writeOperatorTree(tree treeprint.Tree, op Operator) {
	node := op.Plan()
	var branch treeprint.Tree
	switch o := op.(type) {
	case *TableScan:
		branch = tree.AddMetaBranch(op.Name(), node.Table)
		branch.AddMetaNode("columns", strings.Join(node.Columns, ","))
	case *Filter:
		branch = tree.AddBranch(op.Name())
		plan.WriteExprsTree(branch.AddBranch("conditions"), node.Filters)
	case *Projection:
		branch = tree.AddBranch(op.Name())
		plan.WriteExprsTree(branch.AddBranch("exprs"), node.Projects)
	case *Aggregate:
		branch = tree.AddBranch(op.Name())
		if o.grouped() {
			key := "encoded"
			if o.direct {
				key = "direct"
			}
			branch.AddMetaNode("key", key)
			plan.WriteExprsTree(branch.AddBranch("groupBys"), node.GroupBys)
		}
		plan.WriteExprsTree(branch.AddBranch("aggs"), node.Aggs)
	case *HashJoin:
		branch = tree.AddBranch(op.Name())
		key := "encoded"
		if o.direct {
			key = "direct"
		}
		branch.AddMetaNode("key", key)
		plan.WriteExprsTree(branch.AddBranch("on"), node.OnConds)
	default:
		branch = tree.AddBranch(op.Name())
	}
	types := make([]string, 0)
	for _, typ := range op.OutputTypes() {
		types = append(types, typ.String())
	}
	branch.AddMetaNode("output", strings.Join(types, ","))
	for _, child := range op.Children() {
		writeOperatorTree(branch, child)
	}
}

// ExplainOperators prints the operator tree rooted at op.
func ExplainOperators(op Operator) string {
	tree := treeprint.NewWithRoot("Pipeline")
	writeOperatorTree(tree, op)
	return tree.String()
}

// Explain prints the operator tree followed by the generated program.
func (p *Pipeline) Explain() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("paradigm: %s\n", p.Paradigm))
	sb.WriteString(ExplainOperators(p.Root))
	sb.WriteString("\n")
	sb.WriteString(ir.Render(p.Program))
	return sb.String()
}
