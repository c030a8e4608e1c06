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

// Package hashmap holds the hash maps used by generated pipelines. Both
// variants share one core: a power-of-two bucket array pointing at the first
// dense record of each chain and a dense next array linking records that
// share a bucket. Keys are restricted to non-negative 32-bit integers.
package hashmap

import (
	"math"

	"github.com/daviszhen/pipegen/pkg/util"
)

const (
	sentinel   int32 = -1
	loadFactor       = 0.75
)

type options struct {
	initialCapacity int
	growth          int
	maxCapacity     int
	initValues      []float64
}

type Option func(*options)

// WithInitialCapacity sets the dense and bucket capacity of a fresh map. It
// is rounded up to a power of two.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		o.initialCapacity = n
	}
}

// WithGrowthFactor sets the multiplicative growth of the dense arrays, and of
// the per-key record arrays of a MultiRecordMap.
func WithGrowthFactor(g int) Option {
	return func(o *options) {
		if g >= 2 {
			o.growth = g
		}
	}
}

// WithMaxCapacity bounds the number of distinct keys.
func WithMaxCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxCapacity = n
		}
	}
}

// WithInitialValues sets the value every accumulator field of a new
// KeyValueMap entry starts from.
func WithInitialValues(vals ...float64) Option {
	return func(o *options) {
		o.initValues = vals
	}
}

func makeOptions(growth int, opts []Option) options {
	o := options{
		initialCapacity: 1024,
		growth:          growth,
		maxCapacity:     math.MaxInt32,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.initialCapacity < 2 {
		o.initialCapacity = 2
	}
	o.initialCapacity = int(util.NextPowerOfTwo(uint64(o.initialCapacity)))
	return o
}

// resize sets the length of s to n, reusing the backing array when it is
// large enough, and fills the new tail with fill.
func resize[T any](s []T, n int, fill T) []T {
	old := len(s)
	if cap(s) >= n {
		s = s[:n]
	} else {
		grown := make([]T, n)
		copy(grown, s)
		s = grown
	}
	util.Fill(s, old, n, fill)
	return s
}

type table struct {
	keys            []int32
	hashes          []uint32
	next            []int32
	hashTable       []int32
	numberOfRecords int
	initCap         int
	growth          int
	maxCap          int
}

func newTable(o options) table {
	t := table{
		initCap: o.initialCapacity,
		growth:  o.growth,
		maxCap:  o.maxCapacity,
	}
	t.keys = resize[int32](nil, t.initCap, sentinel)
	t.hashes = resize[uint32](nil, t.initCap, 0)
	t.next = resize[int32](nil, t.initCap, sentinel)
	t.hashTable = resize[int32](nil, t.initCap, sentinel)
	return t
}

func (t *table) find(key int32, preHash uint32) int32 {
	idx := t.hashTable[preHash&uint32(len(t.hashTable)-1)]
	for idx != sentinel {
		if t.keys[idx] == key {
			return idx
		}
		idx = t.next[idx]
	}
	return sentinel
}

// reserve makes room for one more record. It returns the new dense length
// when the dense arrays grew, 0 otherwise.
func (t *table) reserve() (int, error) {
	if t.numberOfRecords < len(t.keys) {
		return 0, nil
	}
	if len(t.keys) >= t.maxCap {
		return 0, util.MapCapacityExceededf("more than %d keys", t.maxCap)
	}
	n := min(len(t.keys)*t.growth, t.maxCap)
	t.keys = resize(t.keys, n, sentinel)
	t.hashes = resize(t.hashes, n, 0)
	t.next = resize(t.next, n, sentinel)
	return n, nil
}

// link appends key as a new dense record. reserve must have been called.
func (t *table) link(key int32, preHash uint32) int32 {
	idx := int32(t.numberOfRecords)
	t.numberOfRecords++
	t.keys[idx] = key
	t.hashes[idx] = preHash
	b := preHash & uint32(len(t.hashTable)-1)
	t.next[idx] = t.hashTable[b]
	t.hashTable[b] = idx
	if float64(t.numberOfRecords) > loadFactor*float64(len(t.hashTable)) {
		t.rehash()
	}
	return idx
}

// rehash doubles the bucket array until the load factor holds again and
// rebuilds every chain from the stored hashes.
func (t *table) rehash() {
	n := len(t.hashTable)
	for float64(t.numberOfRecords) > loadFactor*float64(n) {
		n *= 2
	}
	t.hashTable = resize(t.hashTable, n, sentinel)
	util.Fill(t.hashTable, 0, n, sentinel)
	mask := uint32(n - 1)
	for i := 0; i < t.numberOfRecords; i++ {
		b := t.hashes[i] & mask
		t.next[i] = t.hashTable[b]
		t.hashTable[b] = int32(i)
	}
}

func checkKey(key int32) error {
	if key < 0 {
		return util.InvalidKeyf("negative key %d", key)
	}
	return nil
}

func (t *table) reset() {
	t.keys = t.keys[:t.initCap]
	util.Fill(t.keys, 0, t.initCap, sentinel)
	t.hashes = t.hashes[:t.initCap]
	util.Fill(t.hashes, 0, t.initCap, 0)
	t.next = t.next[:t.initCap]
	util.Fill(t.next, 0, t.initCap, sentinel)
	t.hashTable = t.hashTable[:t.initCap]
	util.Fill(t.hashTable, 0, t.initCap, sentinel)
	t.numberOfRecords = 0
}

// Size is the number of distinct keys.
func (t *table) Size() int {
	return t.numberOfRecords
}

// Key is the key of dense record idx.
func (t *table) Key(idx int32) int32 {
	return t.keys[idx]
}

// Buckets is the current length of the bucket array.
func (t *table) Buckets() int {
	return len(t.hashTable)
}
