package hashmap

import (
	"math"
	"math/rand"
	"testing"

	"github.com/huandu/go-clone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/pipegen/pkg/util"
)

func hk(key int32) uint32 {
	return util.HashKey(key)
}

// badHash forces every key into a handful of buckets.
func badHash(key int32) uint32 {
	return uint32(key % 3)
}

func Test_collisionChainsUnderGrowth(t *testing.T) {
	for _, hash := range []func(int32) uint32{hk, badHash} {
		m := NewKeyValueMap(1, WithInitialCapacity(4))
		r := rand.New(rand.NewSource(7))
		perm := r.Perm(5000)
		want := make(map[int32]float64)
		for round := 0; round < 3; round++ {
			for _, p := range perm {
				key := int32(p * 3)
				_, err := m.IncrementForKey(key, hash(key), float64(p+round))
				require.NoError(t, err)
				want[key] += float64(p + round)
			}
		}
		assert.Equal(t, len(want), m.Size())
		assert.True(t, util.IsPowerOfTwo(uint64(m.Buckets())))
		assert.LessOrEqual(t, float64(m.Size()), loadFactor*float64(m.Buckets()))
		for key, sum := range want {
			idx := m.Find(key, hash(key))
			require.NotEqual(t, sentinel, idx, "key %d", key)
			assert.Equal(t, key, m.Key(idx))
			assert.Equal(t, sum, m.Value(idx, 0))
			assert.Equal(t, int64(3), m.Count(idx))
		}
		assert.Equal(t, sentinel, m.Find(1, hash(1)))
	}
}

func Test_keyValueMapAggregates(t *testing.T) {
	m := NewKeyValueMap(3, WithInitialValues(0, math.Inf(1), math.Inf(-1)))
	keys := []int32{1, 2, 1, 1, 2}
	vals := []float64{10, 5, -3, 7, 6}
	for i, key := range keys {
		idx, err := m.Insert(key, hk(key))
		require.NoError(t, err)
		m.Add(idx, 0, vals[i])
		m.Min(idx, 1, vals[i])
		m.Max(idx, 2, vals[i])
	}
	one := m.Find(1, hk(1))
	assert.Equal(t, int64(3), m.Count(one))
	assert.Equal(t, 14.0, m.Value(one, 0))
	assert.Equal(t, -3.0, m.Value(one, 1))
	assert.Equal(t, 10.0, m.Value(one, 2))

	two := m.Find(2, hk(2))
	avg := make([]float64, 2)
	m.AveragesTo(0, 0, 2, avg)
	assert.Equal(t, 5.5, avg[two])
}

func Test_keyValueMapBatch(t *testing.T) {
	m := NewKeyValueMap(1, WithInitialCapacity(2))
	keys := []int32{4, 4, 9, 4}
	hashes := make([]uint32, 4)
	for i, key := range keys {
		hashes[i] = hk(key)
	}
	idxs := make([]int32, 4)
	require.NoError(t, m.InsertBatch(keys, hashes, 4, idxs))
	col := []int64{100, 1, 2, 3, 4}
	AddBatch(m, 0, idxs, col, []int32{1, 2, 3, 4}, 4)
	assert.Equal(t, 2, m.Size())
	assert.Equal(t, 7.0, m.Value(m.Find(4, hk(4)), 0))
	assert.Equal(t, 3.0, m.Value(m.Find(9, hk(9)), 0))

	out := make([]int64, 2)
	KeysTo(m, 0, 2, out)
	assert.Equal(t, []int64{4, 9}, out)
	counts := make([]int64, 2)
	m.CountsTo(0, 2, counts)
	assert.Equal(t, []int64{3, 1}, counts)
}

func Test_multiRecordMapInsertionOrder(t *testing.T) {
	m := NewMultiRecordMap(2, WithInitialCapacity(2))
	const n = 37
	for i := 0; i < n; i++ {
		require.NoError(t, m.Associate(5, hk(5), int64(i), int64(-i)))
		require.NoError(t, m.Associate(int32(100+i), hk(int32(100+i)), int64(i), 0))
	}
	idx := m.Find(5, hk(5))
	require.NotEqual(t, sentinel, idx)
	require.Equal(t, n, m.RecordCount(idx))
	for rec := 0; rec < n; rec++ {
		assert.Equal(t, []int64{int64(rec), int64(-rec)}, m.Record(idx, rec))
	}
	assert.Equal(t, n+1, m.Size())
	assert.Equal(t, sentinel, m.Find(6, hk(6)))
}

func Test_invalidKey(t *testing.T) {
	kv := NewKeyValueMap(1)
	_, err := kv.Insert(-1, hk(-1))
	assert.ErrorIs(t, err, util.ErrInvalidKey)

	mr := NewMultiRecordMap(1)
	err = mr.Associate(-5, hk(-5), 1)
	assert.ErrorIs(t, err, util.ErrInvalidKey)
	assert.Equal(t, sentinel, mr.Find(-5, hk(-5)))
}

func Test_mapCapacityExceeded(t *testing.T) {
	kv := NewKeyValueMap(1, WithInitialCapacity(2), WithMaxCapacity(4))
	for i := int32(0); i < 4; i++ {
		_, err := kv.Insert(i, hk(i))
		require.NoError(t, err)
	}
	_, err := kv.Insert(4, hk(4))
	assert.ErrorIs(t, err, util.ErrMapCapacityExceeded)

	// existing keys still work at the limit
	_, err = kv.Insert(3, hk(3))
	assert.NoError(t, err)

	enc := NewKeyEncoder(PartInt)
	enc.maxSize = 1
	enc.Begin()
	enc.AddInt(1)
	_, err = enc.End()
	require.NoError(t, err)
	enc.Begin()
	enc.AddInt(2)
	_, err = enc.End()
	assert.ErrorIs(t, err, util.ErrMapCapacityExceeded)
}

type kvState struct {
	Keys, Next, HashTable []int32
	Hashes                []uint32
	Counts                []int64
	Values                []float64
	N                     int
}

func kvSnapshot(m *KeyValueMap) kvState {
	return kvState{
		Keys:      append([]int32(nil), m.keys...),
		Next:      append([]int32(nil), m.next...),
		HashTable: append([]int32(nil), m.hashTable...),
		Hashes:    append([]uint32(nil), m.hashes...),
		Counts:    append([]int64(nil), m.counts...),
		Values:    append([]float64(nil), m.values...),
		N:         m.numberOfRecords,
	}
}

type mrState struct {
	Keys, Next, HashTable, RecCount []int32
	Hashes                          []uint32
	Records                         [][]int64
	N                               int
}

func mrSnapshot(m *MultiRecordMap) mrState {
	st := mrState{
		Keys:      append([]int32(nil), m.keys...),
		Next:      append([]int32(nil), m.next...),
		HashTable: append([]int32(nil), m.hashTable...),
		RecCount:  append([]int32(nil), m.recCount...),
		Hashes:    append([]uint32(nil), m.hashes...),
		N:         m.numberOfRecords,
	}
	for _, recs := range m.records {
		st.Records = append(st.Records, append([]int64(nil), recs...))
	}
	return st
}

func Test_resetReproducesFreshState(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	keys := make([]int32, 3000)
	for i := range keys {
		keys[i] = r.Int31n(700)
	}

	fresh := NewKeyValueMap(2, WithInitialCapacity(8))
	pristine := clone.Clone(fresh).(*KeyValueMap)
	for i, key := range keys {
		_, err := fresh.IncrementForKey(key, hk(key), float64(i), 1)
		require.NoError(t, err)
	}
	want := kvSnapshot(fresh)

	fresh.Reset()
	assert.Equal(t, kvSnapshot(pristine), kvSnapshot(fresh))
	for i, key := range keys {
		_, err := fresh.IncrementForKey(key, hk(key), float64(i), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, want, kvSnapshot(fresh))

	mr := NewMultiRecordMap(1, WithInitialCapacity(8))
	mrPristine := clone.Clone(mr).(*MultiRecordMap)
	for i, key := range keys {
		require.NoError(t, mr.Associate(key, hk(key), int64(i)))
	}
	mrWant := mrSnapshot(mr)
	mr.Reset()
	assert.Equal(t, mrSnapshot(mrPristine), mrSnapshot(mr))
	for i, key := range keys {
		require.NoError(t, mr.Associate(key, hk(key), int64(i)))
	}
	assert.Equal(t, mrWant, mrSnapshot(mr))
}

func Test_keyEncoder(t *testing.T) {
	enc := NewKeyEncoder(PartInt, PartString, PartFloat)
	add := func(a int64, b string, c float64) int32 {
		enc.Begin()
		enc.AddInt(a)
		enc.AddString(b)
		enc.AddFloat(c)
		id, err := enc.End()
		require.NoError(t, err)
		return id
	}
	assert.Equal(t, int32(0), add(1, "x", 1.5))
	assert.Equal(t, int32(1), add(1, "xy", 1.5))
	assert.Equal(t, int32(0), add(1, "x", 1.5))
	assert.Equal(t, int32(2), add(-1, "x", 1.5))
	assert.Equal(t, int32(3), add(1, "x", 0))
	assert.Equal(t, int32(3), add(1, "x", math.Copysign(0, -1)))
	assert.Equal(t, 4, enc.Size())
	assert.Equal(t, "xy", enc.StringPart(1, 1))
	assert.Equal(t, int64(-1), enc.IntPart(2, 0))

	out := make([]int32, 3)
	require.NoError(t, enc.EncodeBatch([]int32{2, 0}, 2, out,
		[]int32{1, 0, -1}, []string{"x", "", "x"}, []float64{1.5, 0, 1.5}))
	assert.Equal(t, []int32{2, 0}, out[:2])

	strs := make([]string, 4)
	enc.PartTo(1, 0, 4, strs)
	assert.Equal(t, []string{"x", "xy", "x", "x"}, strs)

	enc.Reset()
	assert.Equal(t, 0, enc.Size())
	assert.Equal(t, int32(0), add(9, "z", 2))
}

func Test_joinProbe(t *testing.T) {
	m := NewMultiRecordMap(1)
	require.NoError(t, m.Associate(1, hk(1), 100))
	require.NoError(t, m.Associate(2, hk(2), 200))
	require.NoError(t, m.Associate(2, hk(2), 201))

	keys := []int32{2, 3, 1}
	hashes := []uint32{hk(2), hk(3), hk(1)}
	sel := []int32{4, 5, 7}
	p := NewJoinProbe()
	p.Start(m, keys, hashes, sel, 3)

	rows := make([]int32, 2)
	slots := make([]int32, 2)
	recs := make([]int32, 2)
	var gotRows []int32
	var gotVals []int64
	for {
		n := p.Next(rows, slots, recs)
		if n == 0 {
			break
		}
		vals := make([]int64, n)
		m.GatherField(0, slots, recs, n, vals)
		gotRows = append(gotRows, rows[:n]...)
		gotVals = append(gotVals, vals...)
	}
	assert.Equal(t, []int32{4, 4, 7}, gotRows)
	assert.Equal(t, []int64{200, 201, 100}, gotVals)
}

func Test_keyEncoderLookup(t *testing.T) {
	enc := NewKeyEncoder(PartString)
	enc.Begin()
	enc.AddString("a")
	id, err := enc.End()
	require.NoError(t, err)

	out := make([]int32, 2)
	enc.LookupBatch(nil, 2, out, []string{"b", "a"})
	assert.Equal(t, []int32{sentinel, id}, out)
	assert.Equal(t, 1, enc.Size())
	strs := make([]string, 1)
	enc.PartTo(0, 0, 1, strs)
	assert.Equal(t, []string{"a"}, strs)
}
