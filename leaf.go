package cborgen

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/unkn0wn-root/cborgen/wire"
)

// Leaf codecs carry the Go type they decode into so defined types
// (type UserID uint64) round-trip as themselves.

type boolCodec struct{ typ reflect.Type }

func (c boolCodec) encode(e *wire.Encoder, v reflect.Value) error {
	e.WriteBool(v.Bool())
	return nil
}

func (c boolCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	b, err := d.ReadBool()
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.New(c.typ).Elem()
	rv.SetBool(b)
	return rv, nil
}

type intCodec struct{ typ reflect.Type }

func (c intCodec) encode(e *wire.Encoder, v reflect.Value) error {
	e.WriteInt(v.Int())
	return nil
}

func (c intCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	x, err := d.ReadInt()
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.New(c.typ).Elem()
	if rv.OverflowInt(x) {
		return reflect.Value{}, fmt.Errorf("cborgen: integer %d overflows %s", x, c.typ)
	}
	rv.SetInt(x)
	return rv, nil
}

type uintCodec struct{ typ reflect.Type }

func (c uintCodec) encode(e *wire.Encoder, v reflect.Value) error {
	e.WriteUint(v.Uint())
	return nil
}

func (c uintCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	x, err := d.ReadUint()
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.New(c.typ).Elem()
	if rv.OverflowUint(x) {
		return reflect.Value{}, fmt.Errorf("cborgen: integer %d overflows %s", x, c.typ)
	}
	rv.SetUint(x)
	return rv, nil
}

type floatCodec struct{ typ reflect.Type }

func (c floatCodec) encode(e *wire.Encoder, v reflect.Value) error {
	if c.typ.Kind() == reflect.Float32 {
		e.WriteFloat32(float32(v.Float()))
	} else {
		e.WriteFloat64(v.Float())
	}
	return nil
}

func (c floatCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	f, err := d.ReadFloat()
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.New(c.typ).Elem()
	rv.SetFloat(f)
	return rv, nil
}

type stringCodec struct{ typ reflect.Type }

func (c stringCodec) encode(e *wire.Encoder, v reflect.Value) error {
	e.WriteText(v.String())
	return nil
}

func (c stringCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	s, err := d.ReadText()
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.New(c.typ).Elem()
	rv.SetString(s)
	return rv, nil
}

type bytesCodec struct{ typ reflect.Type }

func (c bytesCodec) encode(e *wire.Encoder, v reflect.Value) error {
	e.WriteBytes(v.Bytes())
	return nil
}

func (c bytesCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.New(c.typ).Elem()
	// ReadBytes aliases the input buffer; the decoded value must not.
	rv.SetBytes(append([]byte(nil), b...))
	return rv, nil
}

type bigIntCodec struct{}

func (bigIntCodec) encode(e *wire.Encoder, v reflect.Value) error {
	x := v.Interface().(big.Int)
	e.WriteBigInt(&x)
	return nil
}

func (bigIntCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	x, err := d.ReadBigInt()
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(*x), nil
}

type ptrCodec struct {
	typ  reflect.Type
	elem elemCodec
}

func (c ptrCodec) encode(e *wire.Encoder, v reflect.Value) error {
	if v.IsNil() {
		e.WriteNull()
		return nil
	}
	return c.elem.encode(e, v.Elem())
}

func (c ptrCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	t, err := d.Peek()
	if err != nil {
		return reflect.Value{}, err
	}
	if t == wire.TypeNull {
		if err := d.ReadNull(); err != nil {
			return reflect.Value{}, err
		}
		return reflect.Zero(c.typ), nil
	}
	x, err := c.elem.decode(d)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(c.typ.Elem())
	p.Elem().Set(x)
	return p, nil
}

type sliceCodec struct {
	typ  reflect.Type
	elem elemCodec
}

func (c sliceCodec) encode(e *wire.Encoder, v reflect.Value) error {
	n := v.Len()
	e.WriteArrayLen(n)
	for i := 0; i < n; i++ {
		if err := c.elem.encode(e, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (c sliceCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	vals, err := DecodeSequence(d, c.elem.decode)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeSlice(c.typ, len(vals), len(vals))
	for i, x := range vals {
		out.Index(i).Set(x)
	}
	return out, nil
}

type arrayCodec struct {
	typ  reflect.Type
	elem elemCodec
	n    int
}

func (c arrayCodec) encode(e *wire.Encoder, v reflect.Value) error {
	e.WriteArrayLen(c.n)
	for i := 0; i < c.n; i++ {
		if err := c.elem.encode(e, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (c arrayCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	n, indef, err := d.ReadArrayLen()
	if err != nil {
		return reflect.Value{}, err
	}
	if indef || n != c.n {
		declared := n
		if indef {
			declared = -1
		}
		return reflect.Value{}, &ShapeMismatchError{Type: c.typ, Variant: -1, Declared: declared, Expected: c.n}
	}
	out := reflect.New(c.typ).Elem()
	for i := 0; i < c.n; i++ {
		x, err := c.elem.decode(d)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(x)
	}
	return out, nil
}

type mapCodec struct {
	typ      reflect.Type
	key, val elemCodec
}

// encode emits entries sorted by the byte encoding of their keys, so the
// same logical map always produces the same bytes regardless of Go's map
// iteration order.
func (c mapCodec) encode(e *wire.Encoder, v reflect.Value) error {
	type entry struct {
		kb []byte
		v  reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	ke := wire.NewEncoder()
	it := v.MapRange()
	for it.Next() {
		ke.Reset()
		if err := c.key.encode(ke, it.Key()); err != nil {
			return err
		}
		entries = append(entries, entry{
			kb: append([]byte(nil), ke.Bytes()...),
			v:  it.Value(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].kb, entries[j].kb) < 0 })
	e.WriteMapLen(len(entries))
	for _, en := range entries {
		e.WriteRaw(en.kb)
		if err := c.val.encode(e, en.v); err != nil {
			return err
		}
	}
	return nil
}

func (c mapCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	type entry struct{ k, v reflect.Value }
	dec := func(d *wire.Decoder) (entry, error) {
		k, err := c.key.decode(d)
		if err != nil {
			return entry{}, err
		}
		v, err := c.val.decode(d)
		if err != nil {
			return entry{}, err
		}
		return entry{k, v}, nil
	}
	n, indef, err := d.ReadMapLen()
	if err != nil {
		return reflect.Value{}, err
	}
	var entries []entry
	if indef {
		entries, err = decodeUntilBreak(d, dec)
	} else {
		entries, err = decodeChunked(d, n, dec)
	}
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeMapWithSize(c.typ, len(entries))
	for _, en := range entries {
		out.SetMapIndex(en.k, en.v)
	}
	return out, nil
}
