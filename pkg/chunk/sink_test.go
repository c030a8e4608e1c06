package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/pipegen/pkg/common"
)

func Test_collectSink(t *testing.T) {
	sink := &CollectSink{}
	for i := 0; i < 6; i++ {
		sink.ConsumeResultItem(i)
	}
	assert.Equal(t, [][]any{{0, 1, 2}, {3, 4, 5}}, sink.Rows(3))
	assert.Equal(t, [][]any{{0, 1, 2}, {3, 4, 5}}, sink.Columns(2))
	assert.Nil(t, sink.Rows(0))
	sink.Reset()
	assert.Empty(t, sink.Items)

	var got []any
	SinkFunc(func(v any) { got = append(got, v) }).ConsumeResultItem("x")
	assert.Equal(t, []any{"x"}, got)
}

func Test_arrayPackage(t *testing.T) {
	pkg := NewArrayPackage([]common.LType{common.IntegerType(), common.VarcharType()}, 2)
	ints := []int32{10, 11, 12, 13}
	strs := []string{"a", "b", "c", "d"}
	pkg.Append(0, ints, nil, 2)
	pkg.Append(1, strs, nil, 2)
	//grows past the capacity hint
	pkg.Append(0, ints, []int32{1, 3}, 2)
	pkg.Append(1, strs, []int32{1, 3}, 2)
	assert.Equal(t, 4, pkg.Rows())
	assert.Equal(t, []int32{10, 11, 11, 13}, GetSlice[int32](pkg.Column(0)))

	sink := &CollectSink{}
	pkg.Flush(sink)
	assert.Equal(t, []any{
		int32(10), int32(11), int32(11), int32(13),
		"a", "b", "b", "d",
	}, sink.Items)

	pkg.Reset()
	assert.Zero(t, pkg.Rows())
	pkg.Append(0, ints, []int32{2}, 1)
	pkg.Append(1, strs, []int32{2}, 1)
	assert.Equal(t, [][]any{{int32(12)}, {"c"}}, func() [][]any {
		out := &CollectSink{}
		pkg.Flush(out)
		return out.Columns(2)
	}())

	assert.Panics(t, func() { pkg.Append(0, []bool{true}, nil, 1) })
}

func Test_stringHeap(t *testing.T) {
	heap := &StringHeap{}
	assert.Equal(t, int64(0), heap.Add("x"))
	out := make([]int64, 4)
	heap.AddBatch([]string{"a", "b", "c", "d"}, []int32{1, 3}, 2, out)
	assert.Equal(t, int64(1), out[1])
	assert.Equal(t, int64(2), out[3])
	assert.Equal(t, "d", heap.Get(out[3]))

	strs := make([]string, 2)
	heap.GetBatch([]int64{2, 0}, 2, strs)
	assert.Equal(t, []string{"d", "x"}, strs)
	assert.Equal(t, 3, heap.Len())
	heap.Reset()
	assert.Zero(t, heap.Len())
}

func Test_memReader(t *testing.T) {
	tab := NewMemTable([]string{"id", "score"}, []common.LType{common.BigintType(), common.DoubleType()})
	for i := 0; i < 5; i++ {
		require.NoError(t, tab.AppendRow(i, float64(i)/2))
	}
	assert.Error(t, tab.AppendRow(1))
	assert.Error(t, tab.AppendRow("x", 1.0))

	reader := tab.NewReader(2)
	var counts []int
	var ids []int64
	for round := 0; round < 2; round++ {
		counts = counts[:0]
		ids = ids[:0]
		for {
			ok, err := reader.LoadNextBatch()
			require.NoError(t, err)
			if !ok {
				break
			}
			counts = append(counts, reader.Count())
			ids = append(ids, GetSlice[int64](reader.GetVector(0))...)
		}
		assert.Equal(t, []int{2, 2, 1}, counts)
		assert.Equal(t, []int64{0, 1, 2, 3, 4}, ids)
		require.NoError(t, reader.Reset())
	}

	batch := &Chunk{}
	batch.Init(tab.Types(), 3)
	require.NoError(t, batch.Data[0].SetValue(0, int64(7)))
	require.NoError(t, batch.Data[1].SetValue(0, "2.5"))
	batch.SetCard(1)
	assert.Equal(t, "7\t2.5\n", batch.String())
	require.NoError(t, tab.AppendChunk(batch))
	assert.Equal(t, 6, tab.Rows())
}
