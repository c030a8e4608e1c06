package hashmap

// JoinProbe expands the matches of a batch of probe keys into dense output
// batches: one output row per (probe row, build record) pair.
type JoinProbe struct {
	m      *MultiRecordMap
	keys   []int32
	hashes []uint32
	sel    []int32
	n      int
	pos    int
	cur    int
	slot   int32
	rec    int
}

func NewJoinProbe() *JoinProbe {
	return &JoinProbe{slot: sentinel}
}

// Start begins probing n dense keys. sel maps the i-th key back to its row
// of the probe batch; nil means the identity.
func (p *JoinProbe) Start(m *MultiRecordMap, keys []int32, hashes []uint32, sel []int32, n int) {
	p.m = m
	p.keys = keys
	p.hashes = hashes
	p.sel = sel
	p.n = n
	p.pos = 0
	p.cur = 0
	p.slot = sentinel
	p.rec = 0
}

// Next fills at most len(probeRows) matches: the probe batch row, the map
// entry and the record number. It returns 0 once every key is exhausted.
func (p *JoinProbe) Next(probeRows, slots, recs []int32) int {
	k := 0
	for k < len(probeRows) {
		if p.slot == sentinel {
			if p.pos >= p.n {
				break
			}
			p.cur = p.pos
			p.slot = p.m.Find(p.keys[p.pos], p.hashes[p.pos])
			p.rec = 0
			p.pos++
			continue
		}
		if p.rec >= int(p.m.recCount[p.slot]) {
			p.slot = sentinel
			continue
		}
		row := int32(p.cur)
		if p.sel != nil {
			row = p.sel[p.cur]
		}
		probeRows[k] = row
		slots[k] = p.slot
		recs[k] = int32(p.rec)
		p.rec++
		k++
	}
	return k
}
