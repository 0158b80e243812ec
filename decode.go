package cborgen

import (
	"reflect"

	"github.com/unkn0wn-root/cborgen/wire"
)

// decode mirrors encode in reverse and validates every step: the declared
// array length is read first, the tag word is routed to a variant, and the
// remaining length must equal that variant's field count exactly. Any
// mismatch aborts the whole decode; there is no partial value and no
// resynchronization.
func (c *shapeCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	if c.count == 0 {
		return reflect.Value{}, &UnreachableShapeError{Type: c.goType}
	}
	n, indef, err := d.ReadArrayLen()
	if err != nil {
		return reflect.Value{}, err
	}
	if indef {
		return reflect.Value{}, &ShapeMismatchError{Type: c.goType, Variant: -1, Declared: -1, Expected: 1}
	}
	if n < 1 {
		return reflect.Value{}, &ShapeMismatchError{Type: c.goType, Variant: -1, Declared: n, Expected: 1}
	}
	tag, err := d.ReadUint()
	if err != nil {
		return reflect.Value{}, err
	}
	vi, ok := route(c.shape, tag)
	if !ok {
		return reflect.Value{}, &UnknownTagError{Tag: tag, Known: c.count, What: "variant"}
	}
	if k := arity(vi.shape); n-1 != k {
		return reflect.Value{}, &ShapeMismatchError{
			Type:     c.goType,
			Variant:  vi.index,
			Declared: n,
			Expected: k + 1,
		}
	}
	out := reflect.New(vi.typ).Elem()
	pos := 0
	if err := decodeFields(d, vi.shape, out, vi.fields, &pos); err != nil {
		return reflect.Value{}, err
	}
	if c.union {
		iv := reflect.New(c.goType).Elem()
		iv.Set(out)
		return iv, nil
	}
	return out, nil
}

func decodeFields(d *wire.Decoder, s Shape, strct reflect.Value, idx []int, pos *int) error {
	switch s := s.(type) {
	case *unitShape:
		return nil
	case *leafShape:
		v, err := s.elem.decode(d)
		if err != nil {
			return err
		}
		strct.Field(idx[*pos]).Set(v)
		*pos++
		return nil
	case *productShape:
		if err := decodeFields(d, s.left, strct, idx, pos); err != nil {
			return err
		}
		return decodeFields(d, s.right, strct, idx, pos)
	default:
		return &UnreachableShapeError{Type: strct.Type()}
	}
}
