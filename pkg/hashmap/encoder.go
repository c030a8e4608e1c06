package hashmap

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/daviszhen/pipegen/pkg/util"
)

type PartKind int

const (
	PartInt PartKind = iota
	PartFloat
	PartString
)

func (k PartKind) String() string {
	switch k {
	case PartInt:
		return "int"
	case PartFloat:
		return "float"
	case PartString:
		return "string"
	default:
		panic(fmt.Sprintf("usp %d", int(k)))
	}
}

// KeyEncoder assigns dense non-negative ids to group keys made of several
// parts or of non-integer parts. Distinct tuples always get distinct ids. The
// tuples are kept so that finalization can read the group columns back.
type KeyEncoder struct {
	kinds   []PartKind
	ids     map[string]int32
	buf     []byte
	part    int
	size    int
	maxSize int
	ints    [][]int64
	floats  [][]float64
	strs    [][]string
}

func NewKeyEncoder(kinds ...PartKind) *KeyEncoder {
	enc := &KeyEncoder{
		kinds:   kinds,
		ids:     make(map[string]int32),
		maxSize: math.MaxInt32,
		ints:    make([][]int64, len(kinds)),
		floats:  make([][]float64, len(kinds)),
		strs:    make([][]string, len(kinds)),
	}
	return enc
}

func (enc *KeyEncoder) Kinds() []PartKind {
	return enc.kinds
}

func (enc *KeyEncoder) Begin() {
	enc.buf = enc.buf[:0]
	enc.part = 0
}

func (enc *KeyEncoder) AddInt(v int64) {
	enc.buf = binary.LittleEndian.AppendUint64(enc.buf, uint64(v))
	enc.ints[enc.part] = append(enc.ints[enc.part], v)
	enc.part++
}

func (enc *KeyEncoder) AddFloat(v float64) {
	if v == 0 {
		v = 0
	}
	enc.buf = binary.LittleEndian.AppendUint64(enc.buf, math.Float64bits(v))
	enc.floats[enc.part] = append(enc.floats[enc.part], v)
	enc.part++
}

func (enc *KeyEncoder) AddString(v string) {
	enc.buf = binary.LittleEndian.AppendUint32(enc.buf, uint32(len(v)))
	enc.buf = append(enc.buf, v...)
	enc.strs[enc.part] = append(enc.strs[enc.part], v)
	enc.part++
}

// End returns the id of the tuple added since Begin.
func (enc *KeyEncoder) End() (int32, error) {
	util.AssertFunc(enc.part == len(enc.kinds))
	if id, ok := enc.ids[string(enc.buf)]; ok {
		enc.truncate(enc.size)
		return id, nil
	}
	if enc.size >= enc.maxSize {
		enc.truncate(enc.size)
		return sentinel, util.MapCapacityExceededf("more than %d group keys", enc.maxSize)
	}
	id := int32(enc.size)
	enc.ids[string(enc.buf)] = id
	enc.size++
	return id, nil
}

// Lookup returns the id of the tuple added since Begin, or -1 when the tuple
// was never encoded. It never assigns ids.
func (enc *KeyEncoder) Lookup() int32 {
	util.AssertFunc(enc.part == len(enc.kinds))
	enc.truncate(enc.size)
	if id, ok := enc.ids[string(enc.buf)]; ok {
		return id
	}
	return sentinel
}

func (enc *KeyEncoder) truncate(n int) {
	for i, kind := range enc.kinds {
		switch kind {
		case PartInt:
			enc.ints[i] = enc.ints[i][:n]
		case PartFloat:
			enc.floats[i] = enc.floats[i][:n]
		case PartString:
			enc.strs[i] = enc.strs[i][:n]
		}
	}
}

func (enc *KeyEncoder) addValue(part int, col any, row int) {
	switch data := col.(type) {
	case []int32:
		enc.AddInt(int64(data[row]))
	case []int64:
		enc.AddInt(data[row])
	case []float64:
		enc.AddFloat(data[row])
	case []string:
		enc.AddString(data[row])
	default:
		panic(fmt.Sprintf("usp key column %T for part %d", col, part))
	}
}

// EncodeBatch writes the ids of the n selected tuples densely into out. cols
// holds one column per part.
func (enc *KeyEncoder) EncodeBatch(sel []int32, n int, out []int32, cols ...any) error {
	for i := 0; i < n; i++ {
		row := i
		if sel != nil {
			row = int(sel[i])
		}
		enc.Begin()
		for part, col := range cols {
			enc.addValue(part, col, row)
		}
		id, err := enc.End()
		if err != nil {
			return err
		}
		out[i] = id
	}
	return nil
}

// LookupBatch is the batch form of Lookup.
func (enc *KeyEncoder) LookupBatch(sel []int32, n int, out []int32, cols ...any) {
	for i := 0; i < n; i++ {
		row := i
		if sel != nil {
			row = int(sel[i])
		}
		enc.Begin()
		for part, col := range cols {
			enc.addValue(part, col, row)
		}
		out[i] = enc.Lookup()
	}
}

func (enc *KeyEncoder) Size() int {
	return enc.size
}

func (enc *KeyEncoder) IntPart(id int32, part int) int64 {
	return enc.ints[part][id]
}

func (enc *KeyEncoder) FloatPart(id int32, part int) float64 {
	return enc.floats[part][id]
}

func (enc *KeyEncoder) StringPart(id int32, part int) string {
	return enc.strs[part][id]
}

// PartTo copies part of the tuples with ids [start, start+n) into out.
func (enc *KeyEncoder) PartTo(part, start, n int, out any) {
	switch dst := out.(type) {
	case []int32:
		for i := 0; i < n; i++ {
			dst[i] = int32(enc.ints[part][start+i])
		}
	case []int64:
		copy(dst[:n], enc.ints[part][start:start+n])
	case []float64:
		copy(dst[:n], enc.floats[part][start:start+n])
	case []string:
		copy(dst[:n], enc.strs[part][start:start+n])
	default:
		panic(fmt.Sprintf("usp %T", out))
	}
}

func (enc *KeyEncoder) Reset() {
	clear(enc.ids)
	enc.truncate(0)
	enc.size = 0
	enc.Begin()
}
