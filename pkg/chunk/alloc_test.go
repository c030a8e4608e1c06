package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/daviszhen/pipegen/pkg/util"
)

func Test_allocTypedPools(t *testing.T) {
	alloc := NewAllocationManager(16, 2)
	assert.Equal(t, 16, alloc.BatchSize())

	ints := alloc.GetIntVector()
	longs := alloc.GetLongVector()
	doubles := alloc.GetDoubleVector()
	strs := alloc.GetStringVector()
	assert.Len(t, ints, 16)
	assert.Len(t, longs, 16)
	assert.Len(t, doubles, 16)
	assert.Len(t, strs, 16)
	assert.Equal(t, 4, alloc.Outstanding())

	ints[3] = 42
	require.NoError(t, alloc.Release(ints))
	require.NoError(t, alloc.Release(longs))
	require.NoError(t, alloc.Release(doubles))
	require.NoError(t, alloc.Release(strs))
	assert.Zero(t, alloc.Outstanding())
	assert.Equal(t, 4, alloc.Retained())

	//recycled without zeroing
	again := alloc.GetIntVector()
	assert.Equal(t, int32(42), again[3])
	require.NoError(t, alloc.Release(again[:4]))
	assert.Len(t, alloc.GetIntVector(), 16)

	assert.Error(t, alloc.Release([]bool{true}))
}

func Test_allocMaintenance(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	util.SetLogger(zap.New(core))
	defer util.InitLogger("info")

	alloc := NewAllocationManager(8, 2)
	bufs := make([][]float64, 0, 5)
	for i := 0; i < 5; i++ {
		bufs = append(bufs, alloc.GetDoubleVector())
	}
	for _, buf := range bufs {
		require.NoError(t, alloc.Release(buf))
	}
	assert.Equal(t, 5, alloc.Retained())
	alloc.PerformMaintenance()
	assert.Equal(t, 2, alloc.Retained())
	assert.Zero(t, logs.FilterMessage("buffers still checked out at maintenance").Len())

	held := alloc.GetLongVector()
	alloc.PerformMaintenance()
	assert.Equal(t, 1, logs.FilterMessage("buffers still checked out at maintenance").Len())
	require.NoError(t, alloc.Release(held))
	assert.Zero(t, alloc.Outstanding())

	//buffers of a failed run are written off
	alloc.GetIntVector()
	alloc.GetStringVector()
	assert.Equal(t, 2, alloc.Abandon())
	assert.Zero(t, alloc.Outstanding())
	alloc.PerformMaintenance()
	assert.Equal(t, 1, logs.FilterMessage("buffers still checked out at maintenance").Len())
}

func Test_allocDefaults(t *testing.T) {
	alloc := NewAllocationManager(0, -1)
	assert.Equal(t, util.DefaultVectorSize, alloc.BatchSize())
	require.NoError(t, alloc.Release(alloc.GetStringVector()))
	alloc.PerformMaintenance()
	assert.Zero(t, alloc.Retained())
}
