package parser

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"

	"github.com/onnxscope/core/internal/models"
)

// TensorProto.DataType values.
const (
	dataTypeFloat    = 1
	dataTypeUint8    = 2
	dataTypeInt8     = 3
	dataTypeUint16   = 4
	dataTypeInt16    = 5
	dataTypeInt32    = 6
	dataTypeInt64    = 7
	dataTypeString   = 8
	dataTypeBool     = 9
	dataTypeFloat16  = 10
	dataTypeDouble   = 11
	dataTypeUint32   = 12
	dataTypeUint64   = 13
	dataTypeBfloat16 = 16
)

// AttributeProto.AttributeType values.
const (
	attrFloat   = 1
	attrInt     = 2
	attrString  = 3
	attrTensor  = 4
	attrFloats  = 6
	attrInts    = 7
	attrStrings = 8
)

const dataLocationExternal = 1

var dtypeNames = map[int32]string{
	dataTypeFloat:    "float32",
	dataTypeUint8:    "uint8",
	dataTypeInt8:     "int8",
	dataTypeUint16:   "uint16",
	dataTypeInt16:    "int16",
	dataTypeInt32:    "int32",
	dataTypeInt64:    "int64",
	dataTypeString:   "string",
	dataTypeBool:     "bool",
	dataTypeFloat16:  "float16",
	dataTypeDouble:   "float64",
	dataTypeUint32:   "uint32",
	dataTypeUint64:   "uint64",
	dataTypeBfloat16: "bfloat16",
}

// elementSize is the raw_data width in bytes of each numeric type.
var elementSize = map[int32]int{
	dataTypeFloat:    4,
	dataTypeUint8:    1,
	dataTypeInt8:     1,
	dataTypeUint16:   2,
	dataTypeInt16:    2,
	dataTypeInt32:    4,
	dataTypeInt64:    8,
	dataTypeBool:     1,
	dataTypeFloat16:  2,
	dataTypeDouble:   8,
	dataTypeUint32:   4,
	dataTypeUint64:   8,
	dataTypeBfloat16: 2,
}

func dtypeName(dataType int32) string {
	if name, ok := dtypeNames[dataType]; ok {
		return name
	}
	return fmt.Sprintf("onnx_type_%d", dataType)
}

func weightFromTensor(t *onnxTensor) (models.WeightTensor, error) {
	shape := make([]int, len(t.dims))
	for i, d := range t.dims {
		if d <= 0 || d > math.MaxInt {
			return models.WeightTensor{}, fmt.Errorf("dimension %d is %d, want > 0", i, d)
		}
		shape[i] = int(d)
	}

	values, err := tensorValues(t)
	if err != nil {
		return models.WeightTensor{}, err
	}

	w := models.WeightTensor{
		Shape:  shape,
		DType:  dtypeName(t.dataType),
		Values: values,
	}

	if err := w.Validate(); err != nil {
		return models.WeightTensor{}, err
	}

	return w, nil
}

// tensorValues flattens a tensor's payload to float64, reading raw_data when
// present and the typed repeated fields otherwise.
func tensorValues(t *onnxTensor) ([]float64, error) {
	if t.dataLocation == dataLocationExternal {
		return nil, fmt.Errorf("external tensor data is not supported")
	}

	size, ok := elementSize[t.dataType]
	if !ok {
		return nil, fmt.Errorf("unsupported data type %s", dtypeName(t.dataType))
	}

	if len(t.raw) > 0 {
		if len(t.raw)%size != 0 {
			return nil, fmt.Errorf("raw data length %d is not a multiple of %d", len(t.raw), size)
		}
		return decodeRaw(t.raw, t.dataType, size), nil
	}

	switch t.dataType {
	case dataTypeFloat:
		out := make([]float64, len(t.floatData))
		for i, v := range t.floatData {
			out[i] = float64(v)
		}
		return out, nil
	case dataTypeDouble:
		return append([]float64{}, t.doubleData...), nil
	case dataTypeInt64:
		return int64sToFloat(t.int64Data), nil
	case dataTypeUint32, dataTypeUint64:
		out := make([]float64, len(t.uint64Data))
		for i, v := range t.uint64Data {
			out[i] = float64(v)
		}
		return out, nil
	case dataTypeFloat16:
		out := make([]float64, len(t.int32Data))
		for i, v := range t.int32Data {
			out[i] = float64(float16.Frombits(uint16(v)).Float32()) //nolint:gosec // low 16 bits hold the value
		}
		return out, nil
	case dataTypeBfloat16:
		out := make([]float64, len(t.int32Data))
		for i, v := range t.int32Data {
			out[i] = float64(bfloat16(uint16(v))) //nolint:gosec // low 16 bits hold the value
		}
		return out, nil
	default:
		// int8/16/32, uint8/16 and bool all travel in int32_data.
		return int64sToFloat(t.int32Data), nil
	}
}

func decodeRaw(raw []byte, dataType int32, size int) []float64 {
	out := make([]float64, len(raw)/size)

	for i := range out {
		b := raw[i*size : (i+1)*size]
		switch dataType {
		case dataTypeFloat:
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		case dataTypeDouble:
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
		case dataTypeFloat16:
			out[i] = float64(float16.Frombits(binary.LittleEndian.Uint16(b)).Float32())
		case dataTypeBfloat16:
			out[i] = float64(bfloat16(binary.LittleEndian.Uint16(b)))
		case dataTypeInt8:
			out[i] = float64(int8(b[0]))
		case dataTypeUint8, dataTypeBool:
			out[i] = float64(b[0])
		case dataTypeInt16:
			out[i] = float64(int16(binary.LittleEndian.Uint16(b))) //nolint:gosec // reinterpreting bits
		case dataTypeUint16:
			out[i] = float64(binary.LittleEndian.Uint16(b))
		case dataTypeInt32:
			out[i] = float64(int32(binary.LittleEndian.Uint32(b))) //nolint:gosec // reinterpreting bits
		case dataTypeUint32:
			out[i] = float64(binary.LittleEndian.Uint32(b))
		case dataTypeInt64:
			out[i] = float64(int64(binary.LittleEndian.Uint64(b))) //nolint:gosec // reinterpreting bits
		case dataTypeUint64:
			out[i] = float64(binary.LittleEndian.Uint64(b))
		}
	}

	return out
}

// bfloat16 is the upper half of an IEEE float32.
func bfloat16(bits uint16) float32 {
	return math.Float32frombits(uint32(bits) << 16)
}

func int64sToFloat(vs []int64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}

// attributeValue converts an attribute into a JSON-friendly value. Models
// written before the type field existed are typed by whichever value field
// is present.
func attributeValue(a *onnxAttribute) any {
	typ := a.typ
	if typ == 0 {
		typ = inferAttributeType(a)
	}

	switch typ {
	case attrFloat:
		return float64(a.f)
	case attrInt:
		return a.i
	case attrString:
		return string(a.s)
	case attrFloats:
		out := make([]float64, len(a.floats))
		for i, v := range a.floats {
			out[i] = float64(v)
		}
		return out
	case attrInts:
		return append([]int64{}, a.ints...)
	case attrStrings:
		out := make([]string, len(a.strings))
		for i, s := range a.strings {
			out[i] = string(s)
		}
		return out
	case attrTensor:
		if a.t == nil {
			return fmt.Sprintf("unsupported type %d", typ)
		}
		w, err := weightFromTensor(a.t)
		if err != nil {
			return fmt.Sprintf("unsupported tensor: %v", err)
		}
		return map[string]any{
			"type":   "tensor",
			"shape":  w.Shape,
			"values": w.Values,
		}
	default:
		return fmt.Sprintf("unsupported type %d", typ)
	}
}

func inferAttributeType(a *onnxAttribute) int64 {
	switch {
	case a.set[2]:
		return attrFloat
	case a.set[3]:
		return attrInt
	case a.set[4]:
		return attrString
	case a.set[5]:
		return attrTensor
	case a.set[7]:
		return attrFloats
	case a.set[8]:
		return attrInts
	case a.set[9]:
		return attrStrings
	default:
		return 0
	}
}
