package hashmap

import (
	"github.com/daviszhen/pipegen/pkg/util"
	"github.com/daviszhen/pipegen/pkg/vectorize"
)

// KeyValueMap accumulates width float64 fields and a record count per key.
type KeyValueMap struct {
	table
	width      int
	counts     []int64
	values     []float64
	initValues []float64
}

func NewKeyValueMap(width int, opts ...Option) *KeyValueMap {
	o := makeOptions(8, opts)
	m := &KeyValueMap{
		table:      newTable(o),
		width:      width,
		initValues: make([]float64, width),
	}
	copy(m.initValues, o.initValues)
	m.counts = resize[int64](nil, m.initCap, 0)
	m.values = resize[float64](nil, m.initCap*width, 0)
	return m
}

func (m *KeyValueMap) Width() int {
	return m.width
}

// Insert finds or creates the entry of key and counts one record for it.
func (m *KeyValueMap) Insert(key int32, preHash uint32) (int32, error) {
	if err := checkKey(key); err != nil {
		return sentinel, err
	}
	idx := m.find(key, preHash)
	if idx == sentinel {
		n, err := m.reserve()
		if err != nil {
			return sentinel, err
		}
		if n != 0 {
			m.counts = resize(m.counts, n, 0)
			m.values = resize(m.values, n*m.width, 0)
		}
		idx = m.link(key, preHash)
		copy(m.values[int(idx)*m.width:], m.initValues)
	}
	m.counts[idx]++
	return idx, nil
}

// IncrementForKey inserts key and adds deltas to its leading fields.
func (m *KeyValueMap) IncrementForKey(key int32, preHash uint32, deltas ...float64) (int32, error) {
	idx, err := m.Insert(key, preHash)
	if err != nil {
		return sentinel, err
	}
	base := int(idx) * m.width
	for i, delta := range deltas {
		m.values[base+i] += delta
	}
	return idx, nil
}

// Find returns the entry of key or -1.
func (m *KeyValueMap) Find(key int32, preHash uint32) int32 {
	if key < 0 {
		return sentinel
	}
	return m.find(key, preHash)
}

func (m *KeyValueMap) Add(idx int32, field int, v float64) {
	m.values[int(idx)*m.width+field] += v
}

func (m *KeyValueMap) Min(idx int32, field int, v float64) {
	p := &m.values[int(idx)*m.width+field]
	*p = min(*p, v)
}

func (m *KeyValueMap) Max(idx int32, field int, v float64) {
	p := &m.values[int(idx)*m.width+field]
	*p = max(*p, v)
}

func (m *KeyValueMap) Count(idx int32) int64 {
	return m.counts[idx]
}

func (m *KeyValueMap) Value(idx int32, field int) float64 {
	return m.values[int(idx)*m.width+field]
}

// InsertBatch inserts n dense keys and writes the entry of each into out.
func (m *KeyValueMap) InsertBatch(keys []int32, hashes []uint32, n int, out []int32) error {
	for i := 0; i < n; i++ {
		idx, err := m.Insert(keys[i], hashes[i])
		if err != nil {
			return err
		}
		out[i] = idx
	}
	return nil
}

// AddBatch adds the selected values of col to field of the dense entries idxs.
func AddBatch[T vectorize.Number](m *KeyValueMap, field int, idxs []int32, col []T, sel []int32, n int) {
	for i := 0; i < n; i++ {
		row := i
		if sel != nil {
			row = int(sel[i])
		}
		m.values[int(idxs[i])*m.width+field] += float64(col[row])
	}
}

func MinBatch[T vectorize.Number](m *KeyValueMap, field int, idxs []int32, col []T, sel []int32, n int) {
	for i := 0; i < n; i++ {
		row := i
		if sel != nil {
			row = int(sel[i])
		}
		p := &m.values[int(idxs[i])*m.width+field]
		*p = min(*p, float64(col[row]))
	}
}

func MaxBatch[T vectorize.Number](m *KeyValueMap, field int, idxs []int32, col []T, sel []int32, n int) {
	for i := 0; i < n; i++ {
		row := i
		if sel != nil {
			row = int(sel[i])
		}
		p := &m.values[int(idxs[i])*m.width+field]
		*p = max(*p, float64(col[row]))
	}
}

// KeysTo copies the keys of entries [start, start+n) into out.
func KeysTo[T ~int32 | ~int64](m *KeyValueMap, start, n int, out []T) {
	for i := 0; i < n; i++ {
		out[i] = T(m.keys[start+i])
	}
}

func (m *KeyValueMap) CountsTo(start, n int, out []int64) {
	copy(out[:n], m.counts[start:start+n])
}

func (m *KeyValueMap) ValuesTo(field, start, n int, out []float64) {
	for i := 0; i < n; i++ {
		out[i] = m.values[(start+i)*m.width+field]
	}
}

// AveragesTo divides field by the record count of each entry.
func (m *KeyValueMap) AveragesTo(field, start, n int, out []float64) {
	for i := 0; i < n; i++ {
		out[i] = m.values[(start+i)*m.width+field] / float64(m.counts[start+i])
	}
}

// Reset returns the map to the state of a fresh map with the same options.
func (m *KeyValueMap) Reset() {
	m.reset()
	m.counts = m.counts[:m.initCap]
	util.Fill(m.counts, 0, m.initCap, 0)
	m.values = m.values[:m.initCap*m.width]
	util.Fill(m.values, 0, len(m.values), 0)
}
