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

package chunk

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/daviszhen/pipegen/pkg/util"
)

type vecPool[T any] struct {
	free       [][]T
	checkedOut int
	created    int
}

func (pool *vecPool[T]) get(size int) []T {
	pool.checkedOut++
	if n := len(pool.free); n > 0 {
		buf := pool.free[n-1]
		pool.free[n-1] = nil
		pool.free = pool.free[:n-1]
		return buf
	}
	pool.created++
	return make([]T, size)
}

func (pool *vecPool[T]) put(buf []T) {
	pool.checkedOut--
	pool.free = append(pool.free, buf)
}

// trim drops free buffers above max and returns how many were dropped.
func (pool *vecPool[T]) trim(max int) int {
	if len(pool.free) <= max {
		return 0
	}
	dropped := len(pool.free) - max
	for i := max; i < len(pool.free); i++ {
		pool.free[i] = nil
	}
	pool.free = pool.free[:max]
	return dropped
}

// AllocationManager recycles batch-sized vectors between batches. Buffers are
// handed out without zeroing; the holder owns a buffer exclusively until it
// is released. Not safe for concurrent use: one manager per pipeline
// invocation context.
type AllocationManager struct {
	batchSize   int
	maxRetained int
	ints        vecPool[int32]
	longs       vecPool[int64]
	doubles     vecPool[float64]
	strs        vecPool[string]
}

func NewAllocationManager(batchSize, maxRetained int) *AllocationManager {
	if batchSize <= 0 {
		batchSize = util.DefaultVectorSize
	}
	if maxRetained < 0 {
		maxRetained = 0
	}
	return &AllocationManager{
		batchSize:   batchSize,
		maxRetained: maxRetained,
	}
}

func (alloc *AllocationManager) BatchSize() int {
	return alloc.batchSize
}

// GetIntVector also serves selection vectors.
func (alloc *AllocationManager) GetIntVector() []int32 {
	return alloc.ints.get(alloc.batchSize)
}

func (alloc *AllocationManager) GetLongVector() []int64 {
	return alloc.longs.get(alloc.batchSize)
}

func (alloc *AllocationManager) GetDoubleVector() []float64 {
	return alloc.doubles.get(alloc.batchSize)
}

func (alloc *AllocationManager) GetStringVector() []string {
	return alloc.strs.get(alloc.batchSize)
}

// Release hands buf back to the pool of its element type.
func (alloc *AllocationManager) Release(buf any) error {
	switch b := buf.(type) {
	case []int32:
		alloc.ints.put(b[:alloc.batchSize:alloc.batchSize])
	case []int64:
		alloc.longs.put(b[:alloc.batchSize:alloc.batchSize])
	case []float64:
		alloc.doubles.put(b[:alloc.batchSize:alloc.batchSize])
	case []string:
		alloc.strs.put(b[:alloc.batchSize:alloc.batchSize])
	default:
		return fmt.Errorf("release of unsupported buffer %T", buf)
	}
	return nil
}

// Outstanding is the number of buffers currently checked out.
func (alloc *AllocationManager) Outstanding() int {
	return alloc.ints.checkedOut + alloc.longs.checkedOut +
		alloc.doubles.checkedOut + alloc.strs.checkedOut
}

// Abandon forgets every checked out buffer and returns how many there were.
// The buffers of a failed run are unreachable; they are left to the garbage
// collector instead of counting as leaks forever.
func (alloc *AllocationManager) Abandon() int {
	out := alloc.Outstanding()
	alloc.ints.checkedOut = 0
	alloc.longs.checkedOut = 0
	alloc.doubles.checkedOut = 0
	alloc.strs.checkedOut = 0
	return out
}

// Retained is the number of free buffers kept for reuse.
func (alloc *AllocationManager) Retained() int {
	return len(alloc.ints.free) + len(alloc.longs.free) +
		len(alloc.doubles.free) + len(alloc.strs.free)
}

// PerformMaintenance runs between pipeline invocations and bounds every free
// list to the configured maximum.
func (alloc *AllocationManager) PerformMaintenance() {
	dropped := alloc.ints.trim(alloc.maxRetained) +
		alloc.longs.trim(alloc.maxRetained) +
		alloc.doubles.trim(alloc.maxRetained) +
		alloc.strs.trim(alloc.maxRetained)
	if out := alloc.Outstanding(); out != 0 {
		util.Warn("buffers still checked out at maintenance",
			zap.Int("outstanding", out))
	}
	util.Debug("allocation manager maintenance",
		zap.Int("dropped", dropped),
		zap.Int("retained", alloc.Retained()),
		zap.Int("created", alloc.ints.created+alloc.longs.created+alloc.doubles.created+alloc.strs.created))
}
