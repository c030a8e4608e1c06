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
)

// Operator is a node of the code generation tree.
//
// Produce emits the code that makes the subtree push rows or batches
// upward. Consume is called by a child at the point of the emitted code
// where a row or batch is available; from tells which child it is. Consume
// reads the ordinal mapping, emits the operator's transformation, publishes
// the new mapping and calls the parent's Consume.
type Operator interface {
	Name() string
	CanProduce(p Paradigm) bool
	Produce(ctx *Context) error
	Consume(ctx *Context, from Operator) error
	Children() []Operator
	Parent() Operator
	OutputTypes() []common.LType
	Plan() *plan.LogicalOperator
	setParent(parent Operator)
}

type baseOperator struct {
	node     *plan.LogicalOperator
	parent   Operator
	children []Operator
}

func (base *baseOperator) Children() []Operator {
	return base.children
}

func (base *baseOperator) Parent() Operator {
	return base.parent
}

func (base *baseOperator) Plan() *plan.LogicalOperator {
	return base.node
}

func (base *baseOperator) setParent(parent Operator) {
	base.parent = parent
}

func (base *baseOperator) OutputTypes() []common.LType {
	return base.node.OutputTypes()
}

func (base *baseOperator) childrenCanProduce(p Paradigm) bool {
	for _, child := range base.children {
		if !child.CanProduce(p) {
			return false
		}
	}
	return true
}

// adopt links children to their new parent.
func adopt(parent Operator, children ...Operator) {
	for _, child := range children {
		child.setParent(parent)
	}
}
