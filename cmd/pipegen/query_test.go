package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/pipegen/pkg/util"
)

func testConfig(t *testing.T, paradigm string) *util.Config {
	dir := t.TempDir()
	sales := filepath.Join(dir, "sales.csv")
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString(strings.Join([]string{
			[]string{"0", "1", "2", "3"}[i%4],
			[]string{"north", "south"}[i%2],
			"1.5",
		}, ","))
		sb.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(sales, []byte(sb.String()), 0644))

	cfg := util.DefaultConfig()
	cfg.Engine.Paradigm = paradigm
	cfg.Engine.BatchSize = 8
	cfg.Tables = []util.TableOptions{
		{
			Name:   "sales",
			Path:   sales,
			Format: "csv",
			Columns: []util.ColumnOptions{
				{Name: "item", Type: "integer"},
				{Name: "region", Type: "varchar"},
				{Name: "amount", Type: "double"},
			},
		},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func Test_runQuery(t *testing.T) {
	for _, paradigm := range []string{util.ParadigmRowWise, util.ParadigmVectorized} {
		cfg := testConfig(t, paradigm)
		cfg.Debug.Count = 2
		out := &bytes.Buffer{}
		err := runQuery(out, cfg, "select region, count(*) as n, sum(amount) as s from sales where item < 2 group by region")
		require.NoError(t, err)
		text := out.String()
		assert.Contains(t, text, "region")
		assert.Contains(t, text, "(2 rows)")
		//item 0 rows are north, item 1 rows are south: 5 each
		for _, line := range strings.Split(text, "\n") {
			if strings.HasPrefix(line, "north") || strings.HasPrefix(line, "south") {
				assert.Equal(t, []string{line[:5], "5", "7.5"}, strings.Fields(line))
			}
		}
	}
}

func Test_explainQuery(t *testing.T) {
	cfg := testConfig(t, util.ParadigmVectorized)
	out := &bytes.Buffer{}
	require.NoError(t, explainQuery(out, cfg, "select item from sales where amount > 1"))
	text := out.String()
	assert.Contains(t, text, "TableScan")
	assert.Contains(t, text, "vectorized")

	err := explainQuery(out, cfg, "select item from nope")
	assert.Error(t, err)
}

func Test_benchQuery(t *testing.T) {
	cfg := testConfig(t, util.ParadigmVectorized)
	cfg.Debug.Count = 3
	cfg.Debug.Parallel = 4
	require.NoError(t, benchQuery(context.Background(), cfg, "select item, region from sales where item = 3"))
}
