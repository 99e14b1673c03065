// Package parser provides utilities for parsing and transforming input data.
// It turns ONNX files and JSON model payloads into models.ParsedModel values.
package parser

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// field is one decoded protobuf field; raw holds the undecoded value bytes,
// including the length prefix for length-delimited fields.
type field struct {
	num protowire.Number
	typ protowire.Type
	raw []byte
}

func eachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(m))
		}

		if err := fn(field{num: num, typ: typ, raw: b[:m]}); err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		b = b[m:]
	}
	return nil
}

func (f field) expect(typ protowire.Type) error {
	if f.typ != typ {
		return fmt.Errorf("unexpected wire type %d, want %d", f.typ, typ)
	}
	return nil
}

func (f field) bytes() ([]byte, error) {
	if err := f.expect(protowire.BytesType); err != nil {
		return nil, err
	}
	v, n := protowire.ConsumeBytes(f.raw)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return v, nil
}

func (f field) str() (string, error) {
	b, err := f.bytes()
	return string(b), err
}

func (f field) varint() (uint64, error) {
	if err := f.expect(protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(f.raw)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return v, nil
}

func (f field) integer() (int64, error) {
	v, err := f.varint()
	return int64(v), err
}

func (f field) fixedFloat() (float32, error) {
	if err := f.expect(protowire.Fixed32Type); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeFixed32(f.raw)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return math.Float32frombits(v), nil
}

// Repeated scalars may arrive packed in one length-delimited field or as
// separate fields; the helpers below accept both.

func (f field) varints() ([]uint64, error) {
	if f.typ != protowire.BytesType {
		v, err := f.varint()
		return []uint64{v}, err
	}

	b, err := f.bytes()
	if err != nil {
		return nil, err
	}

	var out []uint64
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, v)
		b = b[n:]
	}
	return out, nil
}

func (f field) int64s() ([]int64, error) {
	vs, err := f.varints()
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = int64(v)
	}
	return out, nil
}

func (f field) float32s() ([]float32, error) {
	if f.typ != protowire.BytesType {
		v, err := f.fixedFloat()
		return []float32{v}, err
	}

	b, err := f.bytes()
	if err != nil {
		return nil, err
	}

	var out []float32
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, math.Float32frombits(v))
		b = b[n:]
	}
	return out, nil
}

func (f field) float64s() ([]float64, error) {
	if f.typ != protowire.BytesType {
		if err := f.expect(protowire.Fixed64Type); err != nil {
			return nil, err
		}
		v, n := protowire.ConsumeFixed64(f.raw)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		return []float64{math.Float64frombits(v)}, nil
	}

	b, err := f.bytes()
	if err != nil {
		return nil, err
	}

	var out []float64
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, math.Float64frombits(v))
		b = b[n:]
	}
	return out, nil
}
