package hashmap

import (
	"github.com/daviszhen/pipegen/pkg/util"
)

// MultiRecordMap associates any number of width-field records with a key,
// kept in insertion order. It backs the build side of hash joins.
type MultiRecordMap struct {
	table
	width    int
	perKey   int
	recCount []int32
	records  [][]int64
}

func NewMultiRecordMap(width int, opts ...Option) *MultiRecordMap {
	o := makeOptions(2, opts)
	m := &MultiRecordMap{
		table:  newTable(o),
		width:  width,
		perKey: 2,
	}
	m.recCount = resize[int32](nil, m.initCap, 0)
	m.records = resize[[]int64](nil, m.initCap, nil)
	return m
}

func (m *MultiRecordMap) Width() int {
	return m.width
}

// Associate appends record to the records of key.
func (m *MultiRecordMap) Associate(key int32, preHash uint32, record ...int64) error {
	if err := checkKey(key); err != nil {
		return err
	}
	idx := m.find(key, preHash)
	if idx == sentinel {
		n, err := m.reserve()
		if err != nil {
			return err
		}
		if n != 0 {
			m.recCount = resize(m.recCount, n, 0)
			m.records = resize(m.records, n, nil)
		}
		idx = m.link(key, preHash)
	}
	recs := m.records[idx]
	need := (int(m.recCount[idx]) + 1) * m.width
	if need > cap(recs) {
		grown := make([]int64, len(recs), max(need, cap(recs)*m.growth, m.perKey*m.width))
		copy(grown, recs)
		recs = grown
	}
	recs = recs[:need]
	copy(recs[need-m.width:], record)
	m.records[idx] = recs
	m.recCount[idx]++
	return nil
}

// AssociateBatch associates n dense keys. Field j of the i-th record is
// fields[j] at the i-th selected position.
func (m *MultiRecordMap) AssociateBatch(keys []int32, hashes []uint32, n int, sel []int32, fields ...[]int64) error {
	record := make([]int64, m.width)
	for i := 0; i < n; i++ {
		row := i
		if sel != nil {
			row = int(sel[i])
		}
		for j, field := range fields {
			record[j] = field[row]
		}
		if err := m.Associate(keys[i], hashes[i], record...); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the entry of key or -1. Negative keys are never present.
func (m *MultiRecordMap) Find(key int32, preHash uint32) int32 {
	if key < 0 {
		return sentinel
	}
	return m.find(key, preHash)
}

func (m *MultiRecordMap) RecordCount(idx int32) int {
	return int(m.recCount[idx])
}

func (m *MultiRecordMap) Value(idx int32, rec, field int) int64 {
	return m.records[idx][rec*m.width+field]
}

func (m *MultiRecordMap) Record(idx int32, rec int) []int64 {
	return m.records[idx][rec*m.width : (rec+1)*m.width]
}

// GatherField copies field of n (entry, record) pairs densely into out.
func (m *MultiRecordMap) GatherField(field int, idxs, recs []int32, n int, out []int64) {
	for i := 0; i < n; i++ {
		out[i] = m.records[idxs[i]][int(recs[i])*m.width+field]
	}
}

// Reset returns the map to the state of a fresh map. Per-key record arrays
// keep their storage and are reused by the next associations.
func (m *MultiRecordMap) Reset() {
	for i := 0; i < m.numberOfRecords; i++ {
		m.records[i] = m.records[i][:0]
	}
	m.reset()
	m.recCount = m.recCount[:m.initCap]
	util.Fill(m.recCount, 0, m.initCap, 0)
	m.records = m.records[:m.initCap]
}
