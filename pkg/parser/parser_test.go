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

package parser

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/compute"
	"github.com/daviszhen/pipegen/pkg/plan"
	"github.com/daviszhen/pipegen/pkg/storage"
	"github.com/daviszhen/pipegen/pkg/util"
)

func TestParser(t *testing.T) {
	stmts, err := Parse("SELECT 42")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(stmts))
	assert.Equal(t, int32(42), stmts[0].Stmt.GetSelectStmt().GetTargetList()[0].GetResTarget().GetVal().GetAConst().GetIval().Ival)

	_, err = ParseOne("select 1; select 2")
	assert.ErrorContains(t, err, "got 2")
	_, err = ParseOne("  ")
	assert.Error(t, err)
	_, err = ParseOne("selec 1")
	assert.Error(t, err)
}

type testSchema map[string][]string

func (sch testSchema) Schema(table string) ([]string, []common.LType, error) {
	cols, has := sch[table]
	if !has {
		return nil, nil, errors.Newf("no table %s", table)
	}
	types := make([]common.LType, len(cols))
	for i := range cols {
		types[i] = common.IntegerType()
		if cols[i] == "name" {
			types[i] = common.VarcharType()
		}
	}
	return cols, types, nil
}

var schema = testSchema{
	"r": {"a", "b", "name"},
	"s": {"c", "d"},
	"u": {"e"},
}

func Test_bindFilterProject(t *testing.T) {
	root, err := Plan("select a + 1 as x, name from r where b < 10 and a <> 3", schema)
	require.NoError(t, err)
	require.Equal(t, plan.LOT_Project, root.Typ)
	assert.Equal(t, []string{"x", "name"}, root.OutputNames())
	assert.Equal(t, []common.LType{common.IntegerType(), common.VarcharType()}, root.OutputTypes())

	filter := root.Children[0]
	require.Equal(t, plan.LOT_Filter, filter.Typ)
	assert.Len(t, filter.Filters, 2)
	assert.Equal(t, plan.LOT_Scan, filter.Children[0].Typ)
}

func Test_bindJoins(t *testing.T) {
	for _, sql := range []string{
		"select a, d from r join s on d = a",
		"select a, d from r, s where a = d",
	} {
		root, err := Plan(sql, schema)
		require.NoError(t, err, sql)
		join := root.Children[0]
		require.Equal(t, plan.LOT_JOIN, join.Typ, sql)
		require.Len(t, join.OnConds, 1)
		cond := join.OnConds[0]
		assert.Equal(t, 0, cond.Children[0].ColIdx, sql)
		assert.Equal(t, 1, cond.Children[1].ColIdx, sql)
		assert.Equal(t, []int{0, 4}, []int{root.Projects[0].ColIdx, root.Projects[1].ColIdx})
	}

	root, err := Plan("select * from r, s, u where c = a and e = d and b > 1", schema)
	require.NoError(t, err)
	filter := root.Children[0]
	require.Equal(t, plan.LOT_Filter, filter.Typ)
	assert.Len(t, filter.Filters, 1)
	outer := filter.Children[0]
	require.Equal(t, plan.LOT_JOIN, outer.Typ)
	assert.Equal(t, 4, outer.OnConds[0].Children[0].ColIdx)
	assert.Equal(t, 0, outer.OnConds[0].Children[1].ColIdx)
	assert.Len(t, root.Projects, 6)

	_, err = Plan("select * from r, s where a < c", schema)
	assert.Error(t, err)
}

func Test_bindAggregates(t *testing.T) {
	root, err := Plan("select b, count(*), sum(a) / count(*) from r group by b having max(a) > 3", schema)
	require.NoError(t, err)
	require.Equal(t, plan.LOT_Project, root.Typ)
	having := root.Children[0]
	require.Equal(t, plan.LOT_Filter, having.Typ)
	agg := having.Children[0]
	require.Equal(t, plan.LOT_AggGroup, agg.Typ)
	assert.Len(t, agg.GroupBys, 1)
	//count(*) is shared
	assert.Len(t, agg.Aggs, 3)
	assert.Equal(t, 1, root.Projects[1].ColIdx)

	root, err = Plan("select b from r group by 1", schema)
	require.NoError(t, err)
	agg = root.Children[0]
	assert.Len(t, agg.Aggs, 1)
	assert.True(t, agg.Aggs[0].Star)

	for _, sql := range []string{
		"select a, count(*) from r",
		"select a from r where sum(a) > 1",
		"select sum(name) from r",
		"select sum(count(a)) from r",
		"select count(distinct a) from r",
	} {
		_, err = Plan(sql, schema)
		assert.Error(t, err, sql)
	}
}

func Test_bindErrors(t *testing.T) {
	for _, sql := range []string{
		"select x from r",
		"select a from nope",
		"select a from r, s where a = 'x'",
		"select a from r union select c from s",
		"select 1",
		"select a from r where a + name > 1",
		"select a from r join s using (a)",
		"insert into r values (1, 2, 'x')",
	} {
		_, err := Plan(sql, schema)
		assert.Error(t, err, sql)
	}
}

func testCatalog(t *testing.T) *storage.Catalog {
	cat := storage.NewCatalog()
	orders := chunk.NewMemTable(
		[]string{"o_id", "o_cust", "o_total"},
		[]common.LType{common.IntegerType(), common.IntegerType(), common.DoubleType()})
	for i := 0; i < 100; i++ {
		require.NoError(t, orders.AppendRow(i, i%10, float64(i)))
	}
	cust := chunk.NewMemTable(
		[]string{"c_id", "c_name"},
		[]common.LType{common.IntegerType(), common.VarcharType()})
	for i := 0; i < 5; i++ {
		require.NoError(t, cust.AppendRow(i, string(rune('a'+i))))
	}
	require.NoError(t, cat.RegisterMemTable("orders", orders))
	require.NoError(t, cat.RegisterMemTable("customer", cust))
	return cat
}

func Test_sqlToResult(t *testing.T) {
	cat := testCatalog(t)
	sql := `select c_name, count(*) as cnt, sum(o_total) as total
		from orders join customer on o_cust = c_id
		where o_total >= 50
		group by c_name`
	root, err := Plan(sql, cat)
	require.NoError(t, err)

	for _, paradigm := range []compute.Paradigm{compute.RowWise, compute.Vectorized} {
		opts := compute.DefaultOptions()
		opts.Paradigm = paradigm
		opts.BatchSize = 16
		sink := &chunk.CollectSink{}
		p, err := compute.Compile(root, opts, compute.Env{Catalog: cat, Sink: sink})
		require.NoError(t, err)
		require.NoError(t, p.Execute())

		got := map[string][2]any{}
		for _, row := range p.Rows(sink) {
			got[row[0].(string)] = [2]any{row[1], row[2]}
		}
		//customers 0..4 own orders o with o%10 == c; o >= 50 keeps 5 each
		want := map[string][2]any{
			"a": {int64(5), 50.0 + 60 + 70 + 80 + 90},
			"b": {int64(5), 51.0 + 61 + 71 + 81 + 91},
			"c": {int64(5), 52.0 + 62 + 72 + 82 + 92},
			"d": {int64(5), 53.0 + 63 + 73 + 83 + 93},
			"e": {int64(5), 54.0 + 64 + 74 + 84 + 94},
		}
		assert.Equal(t, want, got, paradigm.String())
	}
}

func Test_sqlUnsupportedByCompiler(t *testing.T) {
	cat := testCatalog(t)
	for _, sql := range []string{
		"select o_id from orders order by o_id",
		"select o_id from orders limit 3",
		"select c_id from customer left join orders on c_id = o_cust",
	} {
		root, err := Plan(sql, cat)
		require.NoError(t, err, sql)
		_, err = compute.Compile(root, compute.DefaultOptions(), compute.Env{Catalog: cat, Sink: &chunk.CollectSink{}})
		assert.True(t, errors.Is(err, util.ErrUnsupportedPlanNode), "%s: %v", sql, err)
	}
}
