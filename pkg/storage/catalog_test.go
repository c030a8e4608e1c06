package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
	"golang.org/x/sync/errgroup"

	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/util"
)

func drain(t *testing.T, reader chunk.BatchReader) [][]any {
	var rows [][]any
	for {
		ok, err := reader.LoadNextBatch()
		require.NoError(t, err)
		if !ok {
			break
		}
		for i := 0; i < reader.Count(); i++ {
			row := make([]any, len(reader.Types()))
			for j := range row {
				row[j] = reader.GetVector(j).GetValue(i)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func Test_catalogOrderAndLookup(t *testing.T) {
	assert.Empty(t, NewCatalog().Tables())

	cat := NewCatalog()
	for _, name := range []string{"orders", "Customer", "lineitem"} {
		tab := chunk.NewMemTable([]string{"a"}, []common.LType{common.IntegerType()})
		require.NoError(t, cat.RegisterMemTable(name, tab))
	}
	var names []string
	for _, ent := range cat.Tables() {
		names = append(names, ent.Name)
	}
	assert.Equal(t, []string{"customer", "lineitem", "orders"}, names)

	ent, err := cat.Lookup("CUSTOMER")
	require.NoError(t, err)
	assert.Equal(t, FormatMem, ent.Format)

	err = cat.RegisterMemTable("orders", chunk.NewMemTable(nil, nil))
	assert.Error(t, err)

	assert.True(t, cat.Drop("orders"))
	assert.False(t, cat.Drop("orders"))
	_, err = cat.Reader("orders", 16)
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func Test_memTableReaders(t *testing.T) {
	cat := NewCatalog()
	tab := chunk.NewMemTable([]string{"k", "v"}, []common.LType{common.IntegerType(), common.VarcharType()})
	for i := 0; i < 100; i++ {
		require.NoError(t, tab.AppendRow(i, fmt.Sprintf("v%d", i)))
	}
	require.NoError(t, cat.RegisterMemTable("t", tab))

	g := errgroup.Group{}
	for _, bs := range []int{1, 7, 64, 1000} {
		bs := bs
		g.Go(func() error {
			reader, err := cat.Reader("t", bs)
			if err != nil {
				return err
			}
			cnt := 0
			for {
				ok, err := reader.LoadNextBatch()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				cnt += reader.Count()
			}
			if cnt != 100 {
				return errors.Newf("batch size %d read %d rows", bs, cnt)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func Test_csvTable(t *testing.T) {
	path := writeFile(t, "t.tbl", "1|10|1.5|a|\n2|20|2.5|b|\n3|30|3.5|c|\n")
	cat := NewCatalog()
	require.NoError(t, cat.LoadTable(util.TableOptions{
		Name:   "t",
		Path:   path,
		Format: "tbl",
		Columns: []util.ColumnOptions{
			{Name: "a", Type: "integer"},
			{Name: "b", Type: "bigint"},
			{Name: "c", Type: "double"},
			{Name: "d", Type: "varchar"},
		},
	}))
	reader, err := cat.Reader("t", 2)
	require.NoError(t, err)
	defer reader.(*CsvReader).Close()

	want := [][]any{
		{int32(1), int64(10), 1.5, "a"},
		{int32(2), int64(20), 2.5, "b"},
		{int32(3), int64(30), 3.5, "c"},
	}
	assert.Equal(t, want, drain(t, reader))

	require.NoError(t, reader.Reset())
	assert.Equal(t, want, drain(t, reader))
}

func Test_csvTableErrors(t *testing.T) {
	cat := NewCatalog()
	err := cat.LoadTable(util.TableOptions{
		Name:    "missing",
		Path:    filepath.Join(t.TempDir(), "nope.csv"),
		Columns: []util.ColumnOptions{{Name: "a", Type: "int"}},
	})
	assert.Error(t, err)

	err = cat.LoadTable(util.TableOptions{
		Name:    "b",
		Path:    writeFile(t, "b.csv", "1\n"),
		Columns: []util.ColumnOptions{{Name: "a", Type: "boolean"}},
	})
	assert.Error(t, err)

	path := writeFile(t, "bad.csv", "1,x\n2\n")
	require.NoError(t, cat.LoadTable(util.TableOptions{
		Name: "bad",
		Path: path,
		Columns: []util.ColumnOptions{
			{Name: "a", Type: "int"},
			{Name: "b", Type: "varchar"},
		},
	}))
	reader, err := cat.Reader("bad", 16)
	require.NoError(t, err)
	_, err = reader.LoadNextBatch()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bad.csv:2"), err.Error())
}

type pqRow struct {
	A int32   `parquet:"name=a, type=INT32"`
	B int64   `parquet:"name=b, type=INT64"`
	C float64 `parquet:"name=c, type=DOUBLE"`
	D string  `parquet:"name=d, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func Test_parquetTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.parquet")
	fw, err := local.NewLocalFileWriter(path)
	require.NoError(t, err)
	pw, err := writer.NewParquetWriter(fw, new(pqRow), 1)
	require.NoError(t, err)
	const rows = 300
	for i := 0; i < rows; i++ {
		require.NoError(t, pw.Write(pqRow{
			A: int32(i),
			B: int64(i) * 10,
			C: float64(i) / 2,
			D: fmt.Sprintf("s%d", i%3),
		}))
	}
	require.NoError(t, pw.WriteStop())
	require.NoError(t, fw.Close())

	cat := NewCatalog()
	require.NoError(t, cat.LoadTable(util.TableOptions{
		Name:   "p",
		Path:   path,
		Format: "parquet",
		Columns: []util.ColumnOptions{
			{Name: "a", Type: "integer"},
			{Name: "b", Type: "bigint"},
			{Name: "c", Type: "double"},
			{Name: "d", Type: "varchar"},
		},
	}))
	reader, err := cat.Reader("p", 64)
	require.NoError(t, err)
	defer reader.(*ParquetReader).Close()

	got := drain(t, reader)
	require.Len(t, got, rows)
	assert.Equal(t, []any{int32(7), int64(70), 3.5, "s1"}, got[7])
	assert.Equal(t, []any{int32(rows - 1), int64(rows-1) * 10, float64(rows-1) / 2, "s2"}, got[rows-1])

	require.NoError(t, reader.Reset())
	assert.Len(t, drain(t, reader), rows)
}
