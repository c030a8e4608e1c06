package ir

// Signature of an intrinsic. Variadic, when not KVoid, is the kind of any
// number of trailing arguments.
type Signature struct {
	Params   []Kind
	Variadic Kind
	Result   Kind
}

func sig(result Kind, params ...Kind) Signature {
	return Signature{Params: params, Result: result}
}

func vsig(result Kind, variadic Kind, params ...Kind) Signature {
	return Signature{Params: params, Variadic: variadic, Result: result}
}

// Intrinsic names.
const (
	FnReaderReset  = "readerReset"
	FnReaderNext   = "readerNext"
	FnReaderCount  = "readerCount"
	FnReaderVector = "readerVector"

	FnSinkInt32  = "sinkInt32"
	FnSinkInt64  = "sinkInt64"
	FnSinkFloat  = "sinkFloat"
	FnSinkString = "sinkString"

	FnNewArrayPackage = "newArrayPackage"
	FnPkgReset        = "pkgReset"
	FnPkgAppend       = "pkgAppend"
	FnPkgFlush        = "pkgFlush"

	FnAllocInts    = "allocInts"
	FnAllocLongs   = "allocLongs"
	FnAllocDoubles = "allocDoubles"
	FnAllocStrings = "allocStrings"
	FnRelease      = "release"

	FnSelCmpInt    = "selCmpInt"
	FnSelCmpFloat  = "selCmpFloat"
	FnSelCmpString = "selCmpString"
	FnSelCmpCol    = "selCmpCol"

	FnVecArith      = "vecArith"
	FnVecArithInt   = "vecArithInt"
	FnVecArithFloat = "vecArithFloat"
	FnVecCast       = "vecCast"
	FnVecFillInt    = "vecFillInt"
	FnVecFillFloat  = "vecFillFloat"
	FnVecFillString = "vecFillString"
	FnVecGather     = "vecGather"
	FnVecFloatBits  = "vecFloatBits"
	FnVecFromBits   = "vecFromBits"
	FnVecSum        = "vecSum"
	FnVecMin        = "vecMin"
	FnVecMax        = "vecMax"

	FnNewHashVector = "newHashVector"
	FnJoinKeys      = "joinKeys"
	FnHashKey       = "hashKey"
	FnHashKeys      = "hashKeys"

	FnNewKeyValueMap = "newKeyValueMap"
	FnKvReset        = "kvReset"
	FnKvInsert       = "kvInsert"
	FnKvAdd          = "kvAdd"
	FnKvMin          = "kvMin"
	FnKvMax          = "kvMax"
	FnKvSize         = "kvSize"
	FnKvKey          = "kvKey"
	FnKvCount        = "kvCount"
	FnKvValue        = "kvValue"
	FnKvInsertBatch  = "kvInsertBatch"
	FnKvAddBatch     = "kvAddBatch"
	FnKvMinBatch     = "kvMinBatch"
	FnKvMaxBatch     = "kvMaxBatch"
	FnKvKeysTo       = "kvKeysTo"
	FnKvCountsTo     = "kvCountsTo"
	FnKvValuesTo     = "kvValuesTo"
	FnKvAvgTo        = "kvAvgTo"

	FnNewKeyEncoder  = "newKeyEncoder"
	FnEncReset       = "encReset"
	FnEncBegin       = "encBegin"
	FnEncInt         = "encInt"
	FnEncFloat       = "encFloat"
	FnEncString      = "encString"
	FnEncEnd         = "encEnd"
	FnEncLookup      = "encLookup"
	FnEncLookupBatch = "encLookupBatch"
	FnEncBatch       = "encBatch"
	FnEncIntPart     = "encIntPart"
	FnEncFloatPart   = "encFloatPart"
	FnEncStringPart  = "encStringPart"
	FnEncPartTo      = "encPartTo"

	FnNewMultiRecordMap = "newMultiRecordMap"
	FnMrReset           = "mrReset"
	FnMrAssociate       = "mrAssociate"
	FnMrAssociateBatch  = "mrAssociateBatch"
	FnMrFind            = "mrFind"
	FnMrCount           = "mrCount"
	FnMrValue           = "mrValue"
	FnMrGather          = "mrGather"
	FnNewJoinProbe      = "newJoinProbe"
	FnProbeStart        = "probeStart"
	FnProbeNext         = "probeNext"

	FnNewStringHeap = "newStringHeap"
	FnHeapReset     = "heapReset"
	FnHeapAdd       = "heapAdd"
	FnHeapGet       = "heapGet"
	FnHeapAddBatch  = "heapAddBatch"
	FnHeapGetBatch  = "heapGetBatch"

	FnFloatBits = "floatBits"
	FnFromBits  = "fromBits"
	FnMinFloat  = "minFloat"
	FnMaxFloat  = "maxFloat"
	FnWrapInt32 = "wrapInt32"
)

// Intrinsics is the catalog shared by the code generator and the backends.
var Intrinsics = map[string]Signature{
	FnReaderReset:  sig(KVoid, KObj),
	FnReaderNext:   sig(KBool, KObj),
	FnReaderCount:  sig(KInt, KObj),
	FnReaderVector: sig(KObj, KObj, KInt),

	FnSinkInt32:  sig(KVoid, KObj, KInt),
	FnSinkInt64:  sig(KVoid, KObj, KInt),
	FnSinkFloat:  sig(KVoid, KObj, KFloat),
	FnSinkString: sig(KVoid, KObj, KString),

	FnNewArrayPackage: vsig(KObj, KInt, KInt),
	FnPkgReset:        sig(KVoid, KObj),
	FnPkgAppend:       sig(KVoid, KObj, KInt, KObj, KObj, KInt),
	FnPkgFlush:        sig(KVoid, KObj, KObj),

	FnAllocInts:    sig(KObj, KObj),
	FnAllocLongs:   sig(KObj, KObj),
	FnAllocDoubles: sig(KObj, KObj),
	FnAllocStrings: sig(KObj, KObj),
	FnRelease:      sig(KVoid, KObj, KObj),

	// op, vector, constant, out selection, input selection, length
	FnSelCmpInt:    sig(KInt, KInt, KObj, KInt, KObj, KObj, KInt),
	FnSelCmpFloat:  sig(KInt, KInt, KObj, KFloat, KObj, KObj, KInt),
	FnSelCmpString: sig(KInt, KInt, KObj, KString, KObj, KObj, KInt),
	FnSelCmpCol:    sig(KInt, KInt, KObj, KObj, KObj, KObj, KInt),

	FnVecArith:      sig(KInt, KInt, KObj, KObj, KObj, KObj, KInt),
	FnVecArithInt:   sig(KInt, KInt, KObj, KInt, KObj, KObj, KInt),
	FnVecArithFloat: sig(KInt, KInt, KObj, KFloat, KObj, KObj, KInt),
	FnVecCast:       sig(KInt, KObj, KObj, KObj, KInt),
	FnVecFillInt:    sig(KInt, KObj, KInt, KObj, KInt),
	FnVecFillFloat:  sig(KInt, KObj, KFloat, KObj, KInt),
	FnVecFillString: sig(KInt, KObj, KString, KObj, KInt),
	FnVecGather:     sig(KInt, KObj, KObj, KInt, KObj),
	FnVecFloatBits:  sig(KInt, KObj, KObj, KObj, KInt),
	FnVecFromBits:   sig(KInt, KObj, KObj, KInt),
	FnVecSum:        sig(KFloat, KObj, KObj, KInt),
	FnVecMin:        sig(KFloat, KObj, KObj, KInt),
	FnVecMax:        sig(KFloat, KObj, KObj, KInt),

	FnNewHashVector: sig(KObj, KInt),
	FnJoinKeys:      sig(KVoid, KObj, KObj, KInt, KObj, KObj),
	FnHashKey:       sig(KInt, KInt),
	FnHashKeys:      sig(KVoid, KObj, KInt, KObj),

	// width, initial capacity, growth, initial field values
	FnNewKeyValueMap: vsig(KObj, KFloat, KInt, KInt, KInt),
	FnKvReset:        sig(KVoid, KObj),
	FnKvInsert:       sig(KInt, KObj, KInt, KInt),
	FnKvAdd:          sig(KVoid, KObj, KInt, KInt, KFloat),
	FnKvMin:          sig(KVoid, KObj, KInt, KInt, KFloat),
	FnKvMax:          sig(KVoid, KObj, KInt, KInt, KFloat),
	FnKvSize:         sig(KInt, KObj),
	FnKvKey:          sig(KInt, KObj, KInt),
	FnKvCount:        sig(KInt, KObj, KInt),
	FnKvValue:        sig(KFloat, KObj, KInt, KInt),
	FnKvInsertBatch:  sig(KVoid, KObj, KObj, KObj, KInt, KObj),
	FnKvAddBatch:     sig(KVoid, KObj, KInt, KObj, KObj, KObj, KInt),
	FnKvMinBatch:     sig(KVoid, KObj, KInt, KObj, KObj, KObj, KInt),
	FnKvMaxBatch:     sig(KVoid, KObj, KInt, KObj, KObj, KObj, KInt),
	FnKvKeysTo:       sig(KVoid, KObj, KInt, KInt, KObj),
	FnKvCountsTo:     sig(KVoid, KObj, KInt, KInt, KObj),
	FnKvValuesTo:     sig(KVoid, KObj, KInt, KInt, KInt, KObj),
	FnKvAvgTo:        sig(KVoid, KObj, KInt, KInt, KInt, KObj),

	FnNewKeyEncoder:  vsig(KObj, KInt),
	FnEncReset:       sig(KVoid, KObj),
	FnEncBegin:       sig(KVoid, KObj),
	FnEncInt:         sig(KVoid, KObj, KInt),
	FnEncFloat:       sig(KVoid, KObj, KFloat),
	FnEncString:      sig(KVoid, KObj, KString),
	FnEncEnd:         sig(KInt, KObj),
	FnEncLookup:      sig(KInt, KObj),
	FnEncLookupBatch: vsig(KVoid, KObj, KObj, KObj, KInt, KObj),
	FnEncBatch:       vsig(KVoid, KObj, KObj, KObj, KInt, KObj),
	FnEncIntPart:     sig(KInt, KObj, KInt, KInt),
	FnEncFloatPart:   sig(KFloat, KObj, KInt, KInt),
	FnEncStringPart:  sig(KString, KObj, KInt, KInt),
	FnEncPartTo:      sig(KVoid, KObj, KInt, KInt, KInt, KObj),

	FnNewMultiRecordMap: sig(KObj, KInt, KInt, KInt),
	FnMrReset:           sig(KVoid, KObj),
	FnMrAssociate:       vsig(KVoid, KInt, KObj, KInt, KInt),
	FnMrAssociateBatch:  vsig(KVoid, KObj, KObj, KObj, KObj, KInt, KObj),
	FnMrFind:            sig(KInt, KObj, KInt, KInt),
	FnMrCount:           sig(KInt, KObj, KInt),
	FnMrValue:           sig(KInt, KObj, KInt, KInt, KInt),
	FnMrGather:          sig(KVoid, KObj, KInt, KObj, KObj, KInt, KObj),
	FnNewJoinProbe:      sig(KObj),
	FnProbeStart:        sig(KVoid, KObj, KObj, KObj, KObj, KObj, KInt),
	FnProbeNext:         sig(KInt, KObj, KObj, KObj, KObj),

	FnNewStringHeap: sig(KObj),
	FnHeapReset:     sig(KVoid, KObj),
	FnHeapAdd:       sig(KInt, KObj, KString),
	FnHeapGet:       sig(KString, KObj, KInt),
	FnHeapAddBatch:  sig(KVoid, KObj, KObj, KObj, KInt, KObj),
	FnHeapGetBatch:  sig(KVoid, KObj, KObj, KInt, KObj),

	FnFloatBits: sig(KInt, KFloat),
	FnFromBits:  sig(KFloat, KInt),
	FnMinFloat:  sig(KFloat, KFloat, KFloat),
	FnMaxFloat:  sig(KFloat, KFloat, KFloat),
	FnWrapInt32: sig(KInt, KInt),
}
