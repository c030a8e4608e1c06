package backend

import (
	"fmt"
	"math"

	"github.com/daviszhen/pipegen/pkg/chunk"
	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/hashmap"
	"github.com/daviszhen/pipegen/pkg/ir"
	"github.com/daviszhen/pipegen/pkg/util"
	"github.com/daviszhen/pipegen/pkg/vectorize"
)

// Value is a boxed argument or result of an intrinsic. Only the field of
// the kind in the catalog signature is meaningful.
type Value struct {
	I int64
	F float64
	B bool
	S string
	O any
}

type impl func(args []Value) Value

var void = Value{}

// lookupImpl returns the implementation used by one call site. Stateful
// intrinsics get a fresh instance per call site.
func lookupImpl(name string) impl {
	if factory, has := factories[name]; has {
		return factory()
	}
	return impls[name]
}

// Implemented reports whether name can be called.
func Implemented(name string) bool {
	_, stateful := factories[name]
	_, stateless := impls[name]
	return stateful || stateless
}

func raiseIf(err error) {
	if err != nil {
		util.Raise(err)
	}
}

func sel(v Value) []int32 {
	if v.O == nil {
		return nil
	}
	return v.O.([]int32)
}

func key(v Value) int32 {
	if v.I < 0 || v.I > math.MaxInt32 {
		util.Raise(util.InvalidKeyf("key %d out of [0, %d]", v.I, math.MaxInt32))
	}
	return int32(v.I)
}

func usp(what string, v any) {
	panic(fmt.Sprintf("usp %s %T", what, v))
}

func ival(v int64) Value {
	return Value{I: v}
}

func fval(v float64) Value {
	return Value{F: v}
}

// allRows copies the incoming selection into out. It is the result of a
// comparison that holds for every row.
func allRows(out, in []int32, n int) int {
	if in == nil {
		return vectorize.Iota(out, n)
	}
	copy(out[:n], in[:n])
	return n
}

// cmpInt32Const compares an INTEGER column with a constant that may not fit
// in int32.
func cmpInt32Const(op vectorize.CmpOp, col []int32, c int64, out, in []int32, n int) int {
	if c >= math.MinInt32 && c <= math.MaxInt32 {
		return vectorize.CompareConst(op, col, int32(c), out, in, n)
	}
	var holds bool
	if c > math.MaxInt32 {
		holds = op == vectorize.CmpLt || op == vectorize.CmpLe || op == vectorize.CmpNe
	} else {
		holds = op == vectorize.CmpGt || op == vectorize.CmpGe || op == vectorize.CmpNe
	}
	if holds {
		return allRows(out, in, n)
	}
	return 0
}

func castFrom[S vectorize.Number](src []S, out any, in []int32, n int) int {
	switch dst := out.(type) {
	case []int32:
		return vectorize.Cast(src, dst, in, n)
	case []int64:
		return vectorize.Cast(src, dst, in, n)
	case []float64:
		return vectorize.Cast(src, dst, in, n)
	default:
		usp("cast target", out)
		return 0
	}
}

var impls = map[string]impl{
	ir.FnReaderReset: func(args []Value) Value {
		raiseIf(args[0].O.(chunk.BatchReader).Reset())
		return void
	},
	ir.FnReaderNext: func(args []Value) Value {
		ok, err := args[0].O.(chunk.BatchReader).LoadNextBatch()
		raiseIf(err)
		return Value{B: ok}
	},
	ir.FnReaderCount: func(args []Value) Value {
		return ival(int64(args[0].O.(chunk.BatchReader).Count()))
	},
	ir.FnReaderVector: func(args []Value) Value {
		return Value{O: args[0].O.(chunk.BatchReader).GetVector(int(args[1].I)).Data}
	},

	ir.FnSinkInt32: func(args []Value) Value {
		args[0].O.(chunk.ResultSink).ConsumeResultItem(int32(args[1].I))
		return void
	},
	ir.FnSinkInt64: func(args []Value) Value {
		args[0].O.(chunk.ResultSink).ConsumeResultItem(args[1].I)
		return void
	},
	ir.FnSinkFloat: func(args []Value) Value {
		args[0].O.(chunk.ResultSink).ConsumeResultItem(args[1].F)
		return void
	},
	ir.FnSinkString: func(args []Value) Value {
		args[0].O.(chunk.ResultSink).ConsumeResultItem(args[1].S)
		return void
	},

	ir.FnNewArrayPackage: func(args []Value) Value {
		types := make([]common.LType, 0, len(args)-1)
		for _, arg := range args[1:] {
			types = append(types, common.MakeLType(common.LTypeId(arg.I)))
		}
		return Value{O: chunk.NewArrayPackage(types, int(args[0].I))}
	},
	ir.FnPkgReset: func(args []Value) Value {
		args[0].O.(*chunk.ArrayPackage).Reset()
		return void
	},
	ir.FnPkgAppend: func(args []Value) Value {
		args[0].O.(*chunk.ArrayPackage).Append(int(args[1].I), args[2].O, sel(args[3]), int(args[4].I))
		return void
	},
	ir.FnPkgFlush: func(args []Value) Value {
		args[0].O.(*chunk.ArrayPackage).Flush(args[1].O.(chunk.ResultSink))
		return void
	},

	ir.FnAllocInts: func(args []Value) Value {
		return Value{O: args[0].O.(*chunk.AllocationManager).GetIntVector()}
	},
	ir.FnAllocLongs: func(args []Value) Value {
		return Value{O: args[0].O.(*chunk.AllocationManager).GetLongVector()}
	},
	ir.FnAllocDoubles: func(args []Value) Value {
		return Value{O: args[0].O.(*chunk.AllocationManager).GetDoubleVector()}
	},
	ir.FnAllocStrings: func(args []Value) Value {
		return Value{O: args[0].O.(*chunk.AllocationManager).GetStringVector()}
	},
	ir.FnRelease: func(args []Value) Value {
		raiseIf(args[0].O.(*chunk.AllocationManager).Release(args[1].O))
		return void
	},

	ir.FnSelCmpInt: func(args []Value) Value {
		op := vectorize.CmpOp(args[0].I)
		out, in, n := args[3].O.([]int32), sel(args[4]), int(args[5].I)
		switch col := args[1].O.(type) {
		case []int32:
			return ival(int64(cmpInt32Const(op, col, args[2].I, out, in, n)))
		case []int64:
			return ival(int64(vectorize.CompareConst(op, col, args[2].I, out, in, n)))
		case []float64:
			return ival(int64(vectorize.CompareConst(op, col, float64(args[2].I), out, in, n)))
		default:
			usp("int comparison on", col)
			return void
		}
	},
	ir.FnSelCmpFloat: func(args []Value) Value {
		col, ok := args[1].O.([]float64)
		if !ok {
			usp("float comparison on", args[1].O)
		}
		return ival(int64(vectorize.CompareConst(vectorize.CmpOp(args[0].I), col, args[2].F,
			args[3].O.([]int32), sel(args[4]), int(args[5].I))))
	},
	ir.FnSelCmpString: func(args []Value) Value {
		col, ok := args[1].O.([]string)
		if !ok {
			usp("string comparison on", args[1].O)
		}
		return ival(int64(vectorize.CompareConst(vectorize.CmpOp(args[0].I), col, args[2].S,
			args[3].O.([]int32), sel(args[4]), int(args[5].I))))
	},
	ir.FnSelCmpCol: func(args []Value) Value {
		op := vectorize.CmpOp(args[0].I)
		out, in, n := args[3].O.([]int32), sel(args[4]), int(args[5].I)
		switch a := args[1].O.(type) {
		case []int32:
			return ival(int64(vectorize.CompareCol(op, a, args[2].O.([]int32), out, in, n)))
		case []int64:
			return ival(int64(vectorize.CompareCol(op, a, args[2].O.([]int64), out, in, n)))
		case []float64:
			return ival(int64(vectorize.CompareCol(op, a, args[2].O.([]float64), out, in, n)))
		case []string:
			return ival(int64(vectorize.CompareCol(op, a, args[2].O.([]string), out, in, n)))
		default:
			usp("column comparison on", a)
			return void
		}
	},

	ir.FnVecArith: func(args []Value) Value {
		op := vectorize.ArithOp(args[0].I)
		in, n := sel(args[4]), int(args[5].I)
		switch a := args[1].O.(type) {
		case []int32:
			return ival(int64(vectorize.Arith(op, a, args[2].O.([]int32), args[3].O.([]int32), in, n)))
		case []int64:
			return ival(int64(vectorize.Arith(op, a, args[2].O.([]int64), args[3].O.([]int64), in, n)))
		case []float64:
			return ival(int64(vectorize.Arith(op, a, args[2].O.([]float64), args[3].O.([]float64), in, n)))
		default:
			usp("arithmetic on", a)
			return void
		}
	},
	ir.FnVecArithInt: func(args []Value) Value {
		op := vectorize.ArithOp(args[0].I)
		in, n := sel(args[4]), int(args[5].I)
		switch a := args[1].O.(type) {
		case []int32:
			return ival(int64(vectorize.ArithConst(op, a, int32(args[2].I), args[3].O.([]int32), in, n)))
		case []int64:
			return ival(int64(vectorize.ArithConst(op, a, args[2].I, args[3].O.([]int64), in, n)))
		default:
			usp("int arithmetic on", a)
			return void
		}
	},
	ir.FnVecArithFloat: func(args []Value) Value {
		a, ok := args[1].O.([]float64)
		if !ok {
			usp("float arithmetic on", args[1].O)
		}
		return ival(int64(vectorize.ArithConst(vectorize.ArithOp(args[0].I), a, args[2].F,
			args[3].O.([]float64), sel(args[4]), int(args[5].I))))
	},
	ir.FnVecCast: func(args []Value) Value {
		in, n := sel(args[2]), int(args[3].I)
		switch src := args[0].O.(type) {
		case []int32:
			return ival(int64(castFrom(src, args[1].O, in, n)))
		case []int64:
			return ival(int64(castFrom(src, args[1].O, in, n)))
		case []float64:
			return ival(int64(castFrom(src, args[1].O, in, n)))
		default:
			usp("cast of", src)
			return void
		}
	},
	ir.FnVecFillInt: func(args []Value) Value {
		in, n := sel(args[2]), int(args[3].I)
		switch out := args[0].O.(type) {
		case []int32:
			return ival(int64(vectorize.Fill(out, int32(args[1].I), in, n)))
		case []int64:
			return ival(int64(vectorize.Fill(out, args[1].I, in, n)))
		default:
			usp("int fill of", out)
			return void
		}
	},
	ir.FnVecFillFloat: func(args []Value) Value {
		return ival(int64(vectorize.Fill(args[0].O.([]float64), args[1].F, sel(args[2]), int(args[3].I))))
	},
	ir.FnVecFillString: func(args []Value) Value {
		return ival(int64(vectorize.Fill(args[0].O.([]string), args[1].S, sel(args[2]), int(args[3].I))))
	},
	ir.FnVecGather: func(args []Value) Value {
		in, n := sel(args[1]), int(args[2].I)
		switch src := args[0].O.(type) {
		case []int32:
			return ival(int64(vectorize.Gather(src, in, n, args[3].O.([]int32))))
		case []int64:
			return ival(int64(vectorize.Gather(src, in, n, args[3].O.([]int64))))
		case []float64:
			return ival(int64(vectorize.Gather(src, in, n, args[3].O.([]float64))))
		case []string:
			return ival(int64(vectorize.Gather(src, in, n, args[3].O.([]string))))
		default:
			usp("gather of", src)
			return void
		}
	},
	ir.FnVecFloatBits: func(args []Value) Value {
		return ival(int64(vectorize.FloatBits(args[0].O.([]float64), args[1].O.([]int64), sel(args[2]), int(args[3].I))))
	},
	ir.FnVecFromBits: func(args []Value) Value {
		return ival(int64(vectorize.FromBits(args[0].O.([]int64), args[1].O.([]float64), int(args[2].I))))
	},
	ir.FnVecSum: func(args []Value) Value {
		in, n := sel(args[1]), int(args[2].I)
		switch col := args[0].O.(type) {
		case []int32:
			return fval(vectorize.VectorSum(col, in, n))
		case []int64:
			return fval(vectorize.VectorSum(col, in, n))
		case []float64:
			return fval(vectorize.VectorSum(col, in, n))
		default:
			usp("sum of", col)
			return void
		}
	},
	ir.FnVecMin: func(args []Value) Value {
		in, n := sel(args[1]), int(args[2].I)
		switch col := args[0].O.(type) {
		case []int32:
			return fval(vectorize.VectorMin(col, in, n))
		case []int64:
			return fval(vectorize.VectorMin(col, in, n))
		case []float64:
			return fval(vectorize.VectorMin(col, in, n))
		default:
			usp("min of", col)
			return void
		}
	},
	ir.FnVecMax: func(args []Value) Value {
		in, n := sel(args[1]), int(args[2].I)
		switch col := args[0].O.(type) {
		case []int32:
			return fval(vectorize.VectorMax(col, in, n))
		case []int64:
			return fval(vectorize.VectorMax(col, in, n))
		case []float64:
			return fval(vectorize.VectorMax(col, in, n))
		default:
			usp("max of", col)
			return void
		}
	},

	ir.FnNewHashVector: func(args []Value) Value {
		return Value{O: make([]uint32, args[0].I)}
	},
	ir.FnJoinKeys: func(args []Value) Value {
		in, n := sel(args[1]), int(args[2].I)
		keys, hashes := args[3].O.([]int32), args[4].O.([]uint32)
		switch col := args[0].O.(type) {
		case []int32:
			raiseIf(vectorize.JoinKeys(col, in, n, keys, hashes))
		case []int64:
			raiseIf(vectorize.JoinKeys(col, in, n, keys, hashes))
		default:
			usp("key column", col)
		}
		return void
	},
	ir.FnHashKey: func(args []Value) Value {
		return ival(int64(util.HashKey(key(args[0]))))
	},
	ir.FnHashKeys: func(args []Value) Value {
		vectorize.HashKeys(args[0].O.([]int32), int(args[1].I), args[2].O.([]uint32))
		return void
	},

	ir.FnNewKeyValueMap: func(args []Value) Value {
		inits := make([]float64, 0, len(args)-3)
		for _, arg := range args[3:] {
			inits = append(inits, arg.F)
		}
		return Value{O: hashmap.NewKeyValueMap(int(args[0].I),
			hashmap.WithInitialCapacity(int(args[1].I)),
			hashmap.WithGrowthFactor(int(args[2].I)),
			hashmap.WithInitialValues(inits...))}
	},
	ir.FnKvReset: func(args []Value) Value {
		args[0].O.(*hashmap.KeyValueMap).Reset()
		return void
	},
	ir.FnKvInsert: func(args []Value) Value {
		idx, err := args[0].O.(*hashmap.KeyValueMap).Insert(key(args[1]), uint32(args[2].I))
		raiseIf(err)
		return ival(int64(idx))
	},
	ir.FnKvAdd: func(args []Value) Value {
		args[0].O.(*hashmap.KeyValueMap).Add(int32(args[1].I), int(args[2].I), args[3].F)
		return void
	},
	ir.FnKvMin: func(args []Value) Value {
		args[0].O.(*hashmap.KeyValueMap).Min(int32(args[1].I), int(args[2].I), args[3].F)
		return void
	},
	ir.FnKvMax: func(args []Value) Value {
		args[0].O.(*hashmap.KeyValueMap).Max(int32(args[1].I), int(args[2].I), args[3].F)
		return void
	},
	ir.FnKvSize: func(args []Value) Value {
		return ival(int64(args[0].O.(*hashmap.KeyValueMap).Size()))
	},
	ir.FnKvKey: func(args []Value) Value {
		return ival(int64(args[0].O.(*hashmap.KeyValueMap).Key(int32(args[1].I))))
	},
	ir.FnKvCount: func(args []Value) Value {
		return ival(args[0].O.(*hashmap.KeyValueMap).Count(int32(args[1].I)))
	},
	ir.FnKvValue: func(args []Value) Value {
		return fval(args[0].O.(*hashmap.KeyValueMap).Value(int32(args[1].I), int(args[2].I)))
	},
	ir.FnKvInsertBatch: func(args []Value) Value {
		m := args[0].O.(*hashmap.KeyValueMap)
		raiseIf(m.InsertBatch(args[1].O.([]int32), args[2].O.([]uint32), int(args[3].I), args[4].O.([]int32)))
		return void
	},
	ir.FnKvAddBatch: func(args []Value) Value {
		kvBatch(args, hashmap.AddBatch[int32], hashmap.AddBatch[int64], hashmap.AddBatch[float64])
		return void
	},
	ir.FnKvMinBatch: func(args []Value) Value {
		kvBatch(args, hashmap.MinBatch[int32], hashmap.MinBatch[int64], hashmap.MinBatch[float64])
		return void
	},
	ir.FnKvMaxBatch: func(args []Value) Value {
		kvBatch(args, hashmap.MaxBatch[int32], hashmap.MaxBatch[int64], hashmap.MaxBatch[float64])
		return void
	},
	ir.FnKvKeysTo: func(args []Value) Value {
		m, start, n := args[0].O.(*hashmap.KeyValueMap), int(args[1].I), int(args[2].I)
		switch out := args[3].O.(type) {
		case []int32:
			hashmap.KeysTo(m, start, n, out)
		case []int64:
			hashmap.KeysTo(m, start, n, out)
		default:
			usp("key output", out)
		}
		return void
	},
	ir.FnKvCountsTo: func(args []Value) Value {
		args[0].O.(*hashmap.KeyValueMap).CountsTo(int(args[1].I), int(args[2].I), args[3].O.([]int64))
		return void
	},
	ir.FnKvValuesTo: func(args []Value) Value {
		args[0].O.(*hashmap.KeyValueMap).ValuesTo(int(args[1].I), int(args[2].I), int(args[3].I), args[4].O.([]float64))
		return void
	},
	ir.FnKvAvgTo: func(args []Value) Value {
		args[0].O.(*hashmap.KeyValueMap).AveragesTo(int(args[1].I), int(args[2].I), int(args[3].I), args[4].O.([]float64))
		return void
	},

	ir.FnNewKeyEncoder: func(args []Value) Value {
		kinds := make([]hashmap.PartKind, 0, len(args))
		for _, arg := range args {
			kinds = append(kinds, hashmap.PartKind(arg.I))
		}
		return Value{O: hashmap.NewKeyEncoder(kinds...)}
	},
	ir.FnEncReset: func(args []Value) Value {
		args[0].O.(*hashmap.KeyEncoder).Reset()
		return void
	},
	ir.FnEncBegin: func(args []Value) Value {
		args[0].O.(*hashmap.KeyEncoder).Begin()
		return void
	},
	ir.FnEncInt: func(args []Value) Value {
		args[0].O.(*hashmap.KeyEncoder).AddInt(args[1].I)
		return void
	},
	ir.FnEncFloat: func(args []Value) Value {
		args[0].O.(*hashmap.KeyEncoder).AddFloat(args[1].F)
		return void
	},
	ir.FnEncString: func(args []Value) Value {
		args[0].O.(*hashmap.KeyEncoder).AddString(args[1].S)
		return void
	},
	ir.FnEncEnd: func(args []Value) Value {
		id, err := args[0].O.(*hashmap.KeyEncoder).End()
		raiseIf(err)
		return ival(int64(id))
	},
	ir.FnEncLookup: func(args []Value) Value {
		return ival(int64(args[0].O.(*hashmap.KeyEncoder).Lookup()))
	},
	ir.FnEncIntPart: func(args []Value) Value {
		return ival(args[0].O.(*hashmap.KeyEncoder).IntPart(int32(args[1].I), int(args[2].I)))
	},
	ir.FnEncFloatPart: func(args []Value) Value {
		return fval(args[0].O.(*hashmap.KeyEncoder).FloatPart(int32(args[1].I), int(args[2].I)))
	},
	ir.FnEncStringPart: func(args []Value) Value {
		return Value{S: args[0].O.(*hashmap.KeyEncoder).StringPart(int32(args[1].I), int(args[2].I))}
	},
	ir.FnEncPartTo: func(args []Value) Value {
		args[0].O.(*hashmap.KeyEncoder).PartTo(int(args[1].I), int(args[2].I), int(args[3].I), args[4].O)
		return void
	},

	ir.FnNewMultiRecordMap: func(args []Value) Value {
		return Value{O: hashmap.NewMultiRecordMap(int(args[0].I),
			hashmap.WithInitialCapacity(int(args[1].I)),
			hashmap.WithGrowthFactor(int(args[2].I)))}
	},
	ir.FnMrReset: func(args []Value) Value {
		args[0].O.(*hashmap.MultiRecordMap).Reset()
		return void
	},
	ir.FnMrFind: func(args []Value) Value {
		k := args[1].I
		if k < 0 || k > math.MaxInt32 {
			return ival(-1)
		}
		return ival(int64(args[0].O.(*hashmap.MultiRecordMap).Find(int32(k), uint32(args[2].I))))
	},
	ir.FnMrCount: func(args []Value) Value {
		return ival(int64(args[0].O.(*hashmap.MultiRecordMap).RecordCount(int32(args[1].I))))
	},
	ir.FnMrValue: func(args []Value) Value {
		return ival(args[0].O.(*hashmap.MultiRecordMap).Value(int32(args[1].I), int(args[2].I), int(args[3].I)))
	},
	ir.FnMrGather: func(args []Value) Value {
		args[0].O.(*hashmap.MultiRecordMap).GatherField(int(args[1].I),
			args[2].O.([]int32), args[3].O.([]int32), int(args[4].I), args[5].O.([]int64))
		return void
	},
	ir.FnNewJoinProbe: func(args []Value) Value {
		return Value{O: hashmap.NewJoinProbe()}
	},
	ir.FnProbeStart: func(args []Value) Value {
		args[0].O.(*hashmap.JoinProbe).Start(args[1].O.(*hashmap.MultiRecordMap),
			args[2].O.([]int32), args[3].O.([]uint32), sel(args[4]), int(args[5].I))
		return void
	},
	ir.FnProbeNext: func(args []Value) Value {
		return ival(int64(args[0].O.(*hashmap.JoinProbe).Next(args[1].O.([]int32), args[2].O.([]int32), args[3].O.([]int32))))
	},

	ir.FnNewStringHeap: func(args []Value) Value {
		return Value{O: &chunk.StringHeap{}}
	},
	ir.FnHeapReset: func(args []Value) Value {
		args[0].O.(*chunk.StringHeap).Reset()
		return void
	},
	ir.FnHeapAdd: func(args []Value) Value {
		return ival(args[0].O.(*chunk.StringHeap).Add(args[1].S))
	},
	ir.FnHeapGet: func(args []Value) Value {
		return Value{S: args[0].O.(*chunk.StringHeap).Get(args[1].I)}
	},
	ir.FnHeapAddBatch: func(args []Value) Value {
		args[0].O.(*chunk.StringHeap).AddBatch(args[1].O.([]string), sel(args[2]), int(args[3].I), args[4].O.([]int64))
		return void
	},
	ir.FnHeapGetBatch: func(args []Value) Value {
		args[0].O.(*chunk.StringHeap).GetBatch(args[1].O.([]int64), int(args[2].I), args[3].O.([]string))
		return void
	},

	ir.FnFloatBits: func(args []Value) Value {
		return ival(int64(math.Float64bits(args[0].F)))
	},
	ir.FnWrapInt32: func(args []Value) Value {
		return ival(int64(int32(args[0].I)))
	},
	ir.FnFromBits: func(args []Value) Value {
		return fval(math.Float64frombits(uint64(args[0].I)))
	},
	ir.FnMinFloat: func(args []Value) Value {
		return fval(min(args[0].F, args[1].F))
	},
	ir.FnMaxFloat: func(args []Value) Value {
		return fval(max(args[0].F, args[1].F))
	},
}

func kvBatch(args []Value,
	i32 func(*hashmap.KeyValueMap, int, []int32, []int32, []int32, int),
	i64 func(*hashmap.KeyValueMap, int, []int32, []int64, []int32, int),
	f64 func(*hashmap.KeyValueMap, int, []int32, []float64, []int32, int)) {
	m, field, idxs := args[0].O.(*hashmap.KeyValueMap), int(args[1].I), args[2].O.([]int32)
	in, n := sel(args[4]), int(args[5].I)
	switch col := args[3].O.(type) {
	case []int32:
		i32(m, field, idxs, col, in, n)
	case []int64:
		i64(m, field, idxs, col, in, n)
	case []float64:
		f64(m, field, idxs, col, in, n)
	default:
		usp("aggregate input", col)
	}
}

// factories build the intrinsics keeping scratch state per call site.
var factories = map[string]func() impl{
	ir.FnMrAssociate: func() impl {
		var record []int64
		return func(args []Value) Value {
			record = record[:0]
			for _, arg := range args[3:] {
				record = append(record, arg.I)
			}
			raiseIf(args[0].O.(*hashmap.MultiRecordMap).Associate(key(args[1]), uint32(args[2].I), record...))
			return void
		}
	},
	ir.FnMrAssociateBatch: func() impl {
		var fields [][]int64
		return func(args []Value) Value {
			fields = fields[:0]
			for _, arg := range args[5:] {
				fields = append(fields, arg.O.([]int64))
			}
			m := args[0].O.(*hashmap.MultiRecordMap)
			raiseIf(m.AssociateBatch(args[1].O.([]int32), args[2].O.([]uint32), int(args[3].I), sel(args[4]), fields...))
			return void
		}
	},
	ir.FnEncBatch: func() impl {
		var cols []any
		return func(args []Value) Value {
			cols = encCols(cols, args[4:])
			enc := args[0].O.(*hashmap.KeyEncoder)
			raiseIf(enc.EncodeBatch(sel(args[1]), int(args[2].I), args[3].O.([]int32), cols...))
			return void
		}
	},
	ir.FnEncLookupBatch: func() impl {
		var cols []any
		return func(args []Value) Value {
			cols = encCols(cols, args[4:])
			enc := args[0].O.(*hashmap.KeyEncoder)
			enc.LookupBatch(sel(args[1]), int(args[2].I), args[3].O.([]int32), cols...)
			return void
		}
	},
}

func encCols(cols []any, args []Value) []any {
	cols = cols[:0]
	for _, arg := range args {
		cols = append(cols, arg.O)
	}
	return cols
}
