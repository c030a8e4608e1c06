package chunk

import (
	"fmt"
	"strconv"

	"github.com/daviszhen/pipegen/pkg/common"
)

// Vector is a flat column vector. Data holds []int32, []int64, []float64 or
// []string depending on the logical type.
type Vector struct {
	_Typ common.LType
	Data any
}

func NewFlatVector(typ common.LType, cap int) *Vector {
	return &Vector{
		_Typ: typ,
		Data: MakeSlice(typ, cap),
	}
}

// NewVectorFrom wraps an existing slice without copying.
func NewVectorFrom(typ common.LType, data any) *Vector {
	vec := &Vector{_Typ: typ, Data: data}
	if !sliceMatches(typ, data) {
		panic(fmt.Sprintf("usp %T for %v", data, typ))
	}
	return vec
}

func MakeSlice(typ common.LType, cap int) any {
	switch typ.Id {
	case common.LTID_INTEGER:
		return make([]int32, cap)
	case common.LTID_BIGINT:
		return make([]int64, cap)
	case common.LTID_DOUBLE:
		return make([]float64, cap)
	case common.LTID_VARCHAR:
		return make([]string, cap)
	default:
		panic(fmt.Sprintf("usp vector type %v", typ))
	}
}

func sliceMatches(typ common.LType, data any) bool {
	switch data.(type) {
	case []int32:
		return typ.Id == common.LTID_INTEGER
	case []int64:
		return typ.Id == common.LTID_BIGINT
	case []float64:
		return typ.Id == common.LTID_DOUBLE
	case []string:
		return typ.Id == common.LTID_VARCHAR
	default:
		return false
	}
}

func (vec *Vector) Typ() common.LType {
	return vec._Typ
}

func GetSlice[T any](vec *Vector) []T {
	return vec.Data.([]T)
}

func (vec *Vector) Len() int {
	switch data := vec.Data.(type) {
	case []int32:
		return len(data)
	case []int64:
		return len(data)
	case []float64:
		return len(data)
	case []string:
		return len(data)
	default:
		panic("usp")
	}
}

// Slice returns a view over rows [from, to) sharing the storage.
func (vec *Vector) Slice(from, to int) *Vector {
	ret := &Vector{_Typ: vec._Typ}
	switch data := vec.Data.(type) {
	case []int32:
		ret.Data = data[from:to]
	case []int64:
		ret.Data = data[from:to]
	case []float64:
		ret.Data = data[from:to]
	case []string:
		ret.Data = data[from:to]
	default:
		panic("usp")
	}
	return ret
}

func (vec *Vector) GetValue(idx int) any {
	switch data := vec.Data.(type) {
	case []int32:
		return data[idx]
	case []int64:
		return data[idx]
	case []float64:
		return data[idx]
	case []string:
		return data[idx]
	default:
		panic("usp")
	}
}

// SetValue stores val converted to the vector's type.
func (vec *Vector) SetValue(idx int, val any) error {
	switch data := vec.Data.(type) {
	case []int32:
		v, err := toInt64(val)
		if err != nil {
			return err
		}
		data[idx] = int32(v)
	case []int64:
		v, err := toInt64(val)
		if err != nil {
			return err
		}
		data[idx] = v
	case []float64:
		v, err := toFloat64(val)
		if err != nil {
			return err
		}
		data[idx] = v
	case []string:
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("can not store %T in varchar vector", val)
		}
		data[idx] = s
	default:
		panic("usp")
	}
	return nil
}

func toInt64(val any) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("can not convert %T to integer", val)
	}
}

func toFloat64(val any) (float64, error) {
	switch v := val.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("can not convert %T to double", val)
	}
}

// ParseValue converts the text form of a field into a value of typ.
func ParseValue(field string, typ common.LType) (any, error) {
	switch typ.Id {
	case common.LTID_INTEGER:
		v, err := strconv.ParseInt(field, 10, 32)
		return int32(v), err
	case common.LTID_BIGINT:
		return strconv.ParseInt(field, 10, 64)
	case common.LTID_DOUBLE:
		return strconv.ParseFloat(field, 64)
	case common.LTID_VARCHAR:
		return field, nil
	default:
		return nil, fmt.Errorf("usp type %v", typ)
	}
}
