package cborgen

import (
	"fmt"
	"reflect"

	"github.com/unkn0wn-root/cborgen/wire"
)

// encode emits the canonical tagged-tuple framing: a value of variant i with
// k fields becomes [array-len k+1, uint i, fields...]. A one-variant struct
// therefore encodes as [k+1, 0, fields...], a fieldless variant as [1, i].
// Encoding is deterministic: array length and tag word jointly pin the
// variant, and every leaf encoder emits shortest-form items, so distinct
// values never share bytes.
func (c *shapeCodec) encode(e *wire.Encoder, v reflect.Value) error {
	if c.count == 0 {
		return &UnreachableShapeError{Type: c.goType}
	}
	strct := v
	vi := c.single
	if c.union {
		if v.IsNil() {
			return fmt.Errorf("cborgen: cannot encode nil %s", c.goType)
		}
		strct = v.Elem()
		var ok bool
		vi, ok = c.byType[strct.Type()]
		if !ok {
			return fmt.Errorf("cborgen: %s is not a registered variant of %s", strct.Type(), c.goType)
		}
	}
	e.WriteArrayLen(arity(vi.shape) + 1)
	e.WriteUint(uint64(vi.index))
	pos := 0
	return encodeFields(e, vi.shape, strct, vi.fields, &pos)
}

// encodeFields walks a variant's product subtree, emitting fields in
// declaration order with no framing of its own: a product is pure
// concatenation of its children's fields.
func encodeFields(e *wire.Encoder, s Shape, strct reflect.Value, idx []int, pos *int) error {
	switch s := s.(type) {
	case *unitShape:
		return nil
	case *leafShape:
		f := strct.Field(idx[*pos])
		*pos++
		return s.elem.encode(e, f)
	case *productShape:
		if err := encodeFields(e, s.left, strct, idx, pos); err != nil {
			return err
		}
		return encodeFields(e, s.right, strct, idx, pos)
	default:
		return &UnreachableShapeError{Type: strct.Type()}
	}
}
