package chunk

import (
	"fmt"

	"github.com/daviszhen/pipegen/pkg/common"
)

// ResultSink receives every produced scalar, in production order.
type ResultSink interface {
	ConsumeResultItem(value any)
}

type SinkFunc func(value any)

func (fun SinkFunc) ConsumeResultItem(value any) {
	fun(value)
}

// CollectSink keeps everything it is handed.
type CollectSink struct {
	Items []any
}

func (sink *CollectSink) ConsumeResultItem(value any) {
	sink.Items = append(sink.Items, value)
}

func (sink *CollectSink) Reset() {
	sink.Items = sink.Items[:0]
}

// Rows regroups row-major items into rows of width columns.
func (sink *CollectSink) Rows(width int) [][]any {
	if width <= 0 {
		return nil
	}
	ret := make([][]any, 0, len(sink.Items)/width)
	for i := 0; i+width <= len(sink.Items); i += width {
		ret = append(ret, sink.Items[i:i+width])
	}
	return ret
}

// Columns regroups column-major items into width columns.
func (sink *CollectSink) Columns(width int) [][]any {
	if width <= 0 {
		return nil
	}
	n := len(sink.Items) / width
	ret := make([][]any, width)
	for i := range ret {
		ret[i] = sink.Items[i*n : (i+1)*n]
	}
	return ret
}

// ArrayPackage is the terminal store of a vectorized pipeline: each column is
// packed into a destination array at an advancing write pointer. Flush hands
// the packed arrays to a sink column by column.
type ArrayPackage struct {
	types   []common.LType
	columns []any
	write   []int
}

func NewArrayPackage(types []common.LType, capHint int) *ArrayPackage {
	pkg := &ArrayPackage{
		types:   types,
		columns: make([]any, len(types)),
		write:   make([]int, len(types)),
	}
	for i, typ := range types {
		pkg.columns[i] = MakeSlice(typ, capHint)
	}
	return pkg
}

func appendSelected[T any](dst []T, ptr int, src []T, sel []int32, n int) ([]T, int) {
	if need := ptr + n; need > len(dst) {
		grown := make([]T, max(need, 2*len(dst)))
		copy(grown, dst[:ptr])
		dst = grown
	}
	if sel == nil {
		copy(dst[ptr:ptr+n], src[:n])
	} else {
		for i := 0; i < n; i++ {
			dst[ptr+i] = src[sel[i]]
		}
	}
	return dst, ptr + n
}

// Append packs the n selected values of src into column col.
func (pkg *ArrayPackage) Append(col int, src any, sel []int32, n int) {
	switch data := src.(type) {
	case []int32:
		pkg.columns[col], pkg.write[col] = appendSelected(pkg.columns[col].([]int32), pkg.write[col], data, sel, n)
	case []int64:
		pkg.columns[col], pkg.write[col] = appendSelected(pkg.columns[col].([]int64), pkg.write[col], data, sel, n)
	case []float64:
		pkg.columns[col], pkg.write[col] = appendSelected(pkg.columns[col].([]float64), pkg.write[col], data, sel, n)
	case []string:
		pkg.columns[col], pkg.write[col] = appendSelected(pkg.columns[col].([]string), pkg.write[col], data, sel, n)
	default:
		panic(fmt.Sprintf("usp %T", src))
	}
}

func (pkg *ArrayPackage) Rows() int {
	if len(pkg.write) == 0 {
		return 0
	}
	return pkg.write[0]
}

// Column returns the packed values of column col.
func (pkg *ArrayPackage) Column(col int) *Vector {
	return NewVectorFrom(pkg.types[col], pkg.columns[col]).Slice(0, pkg.write[col])
}

// Flush emits every packed column in order, column-major.
func (pkg *ArrayPackage) Flush(sink ResultSink) {
	for col := range pkg.columns {
		vec := pkg.Column(col)
		for i := 0; i < pkg.write[col]; i++ {
			sink.ConsumeResultItem(vec.GetValue(i))
		}
	}
}

// Reset rewinds the write pointers and keeps the destination arrays.
func (pkg *ArrayPackage) Reset() {
	for i := range pkg.write {
		pkg.write[i] = 0
	}
}

// StringHeap interns strings so they can travel through numeric hash map
// fields as int64 handles.
type StringHeap struct {
	data []string
}

func (heap *StringHeap) Add(s string) int64 {
	heap.data = append(heap.data, s)
	return int64(len(heap.data) - 1)
}

func (heap *StringHeap) Get(handle int64) string {
	return heap.data[handle]
}

// AddBatch interns src at the selected positions; handles land at the same
// positions of out.
func (heap *StringHeap) AddBatch(src []string, sel []int32, n int, out []int64) {
	if sel == nil {
		for i := 0; i < n; i++ {
			out[i] = heap.Add(src[i])
		}
		return
	}
	for i := 0; i < n; i++ {
		idx := sel[i]
		out[idx] = heap.Add(src[idx])
	}
}

// GetBatch resolves n dense handles.
func (heap *StringHeap) GetBatch(handles []int64, n int, out []string) {
	for i := 0; i < n; i++ {
		out[i] = heap.data[handles[i]]
	}
}

func (heap *StringHeap) Len() int {
	return len(heap.data)
}

func (heap *StringHeap) Reset() {
	clear(heap.data)
	heap.data = heap.data[:0]
}
