package cborgen

import (
	"fmt"
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/unkn0wn-root/cborgen/wire"
)

// elemCodec encodes/decodes one field value. Scalars, strings, containers,
// timestamps and nested algebraic types all implement it; the derivation
// engine composes them under the tagged-tuple framing.
type elemCodec interface {
	encode(e *wire.Encoder, v reflect.Value) error
	decode(d *wire.Decoder) (reflect.Value, error)
}

// shapeCodec is the derived codec of an algebraic type: a struct (one
// variant) or a registered union (one variant per implementation, numbered
// by registration order). Built once, then shared read-only.
type shapeCodec struct {
	goType reflect.Type
	shape  Shape
	count  int
	union  bool
	byType map[reflect.Type]*variantInfo // concrete type -> variant, unions only
	single *variantInfo                  // struct shapes
}

var (
	timeType   = reflect.TypeOf(time.Time{})
	bigIntType = reflect.TypeOf(big.Int{})
)

// registry maps Go types to their derived codecs. Derivation happens once
// per type (normally at startup); lookups after that are read-locked only.
var registry = struct {
	sync.Mutex
	codecs map[reflect.Type]elemCodec
}{codecs: make(map[reflect.Type]elemCodec)}

// fwdCodec breaks derivation cycles for recursive types: it is installed
// before the type's fields are derived and patched afterwards.
type fwdCodec struct{ c elemCodec }

func (f *fwdCodec) encode(e *wire.Encoder, v reflect.Value) error { return f.c.encode(e, v) }
func (f *fwdCodec) decode(d *wire.Decoder) (reflect.Value, error) { return f.c.decode(d) }

func codecFor(t reflect.Type) (elemCodec, error) {
	registry.Lock()
	defer registry.Unlock()
	return deriveLocked(t)
}

func deriveLocked(t reflect.Type) (elemCodec, error) {
	if c, ok := registry.codecs[t]; ok {
		return c, nil
	}
	switch t {
	case timeType:
		return memoize(t, timeCodec{}), nil
	case bigIntType:
		return memoize(t, bigIntCodec{}), nil
	}
	switch t.Kind() {
	case reflect.Bool:
		return memoize(t, boolCodec{typ: t}), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return memoize(t, intCodec{typ: t}), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return memoize(t, uintCodec{typ: t}), nil
	case reflect.Float32, reflect.Float64:
		return memoize(t, floatCodec{typ: t}), nil
	case reflect.String:
		return memoize(t, stringCodec{typ: t}), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return memoize(t, bytesCodec{typ: t}), nil
		}
		fwd := reserve(t)
		elem, err := deriveLocked(t.Elem())
		if err != nil {
			return nil, unreserve(t, err)
		}
		return patch(t, fwd, sliceCodec{typ: t, elem: elem}), nil
	case reflect.Array:
		fwd := reserve(t)
		elem, err := deriveLocked(t.Elem())
		if err != nil {
			return nil, unreserve(t, err)
		}
		return patch(t, fwd, arrayCodec{typ: t, elem: elem, n: t.Len()}), nil
	case reflect.Map:
		fwd := reserve(t)
		key, err := deriveLocked(t.Key())
		if err != nil {
			return nil, unreserve(t, err)
		}
		val, err := deriveLocked(t.Elem())
		if err != nil {
			return nil, unreserve(t, err)
		}
		return patch(t, fwd, mapCodec{typ: t, key: key, val: val}), nil
	case reflect.Ptr:
		fwd := reserve(t)
		elem, err := deriveLocked(t.Elem())
		if err != nil {
			return nil, unreserve(t, err)
		}
		return patch(t, fwd, ptrCodec{typ: t, elem: elem}), nil
	case reflect.Struct:
		fwd := reserve(t)
		vi, shape, err := buildVariantLocked(0, t)
		if err != nil {
			return nil, unreserve(t, err)
		}
		sc := &shapeCodec{
			goType: t,
			shape:  shape,
			count:  1,
			single: vi,
		}
		return patch(t, fwd, sc), nil
	case reflect.Interface:
		return nil, fmt.Errorf("cborgen: interface %s is not a registered union (use RegisterUnion)", t)
	default:
		return nil, fmt.Errorf("cborgen: cannot derive codec for %s", t)
	}
}

func memoize(t reflect.Type, c elemCodec) elemCodec {
	registry.codecs[t] = c
	return c
}

func reserve(t reflect.Type) *fwdCodec {
	fwd := &fwdCodec{}
	registry.codecs[t] = fwd
	return fwd
}

func unreserve(t reflect.Type, err error) error {
	delete(registry.codecs, t)
	return err
}

func patch(t reflect.Type, fwd *fwdCodec, c elemCodec) elemCodec {
	fwd.c = c
	registry.codecs[t] = c
	return c
}

// buildVariantLocked derives one variant: the exported fields of a struct
// type, in declaration order, become a right-nested product of leafs.
func buildVariantLocked(index int, t reflect.Type) (*variantInfo, Shape, error) {
	if t.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("cborgen: variant %s must be a struct type", t)
	}
	var (
		idx   []int
		elems []elemCodec
	)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		c, err := deriveLocked(f.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("cborgen: field %s.%s: %w", t, f.Name, err)
		}
		idx = append(idx, i)
		elems = append(elems, c)
	}
	vi := &variantInfo{index: index, typ: t, fields: idx}
	shape := productOf(elems)
	switch s := shape.(type) {
	case *unitShape:
		s.variant = vi
	case *leafShape:
		s.variant = vi
	case *productShape:
		s.variant = vi
	}
	vi.shape = shape
	return vi, shape, nil
}

// RegisterUnion registers interface type I as a sum type whose variants are
// the dynamic types of the given values, numbered positionally in argument
// order. That numbering is the wire contract: it must match on both ends
// and must not change between releases of the registering program.
//
// Calling RegisterUnion with no variants registers I as a void shape: any
// encode or decode attempt yields an UnreachableShapeError.
//
// Registration is one-time, normally from init or main, before any
// encode/decode traffic.
func RegisterUnion[I any](variants ...I) error {
	it := reflect.TypeOf((*I)(nil)).Elem()
	if it.Kind() != reflect.Interface {
		return fmt.Errorf("cborgen: RegisterUnion type %s is not an interface", it)
	}
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.codecs[it]; ok {
		return fmt.Errorf("cborgen: %s is already registered", it)
	}
	sc := &shapeCodec{
		goType: it,
		union:  true,
		count:  len(variants),
		byType: make(map[reflect.Type]*variantInfo, len(variants)),
	}
	if len(variants) == 0 {
		sc.shape = voidShape{}
		registry.codecs[it] = sc
		return nil
	}
	// Reserve before deriving fields so recursive unions (trees) resolve.
	fwd := reserve(it)
	shapes := make([]Shape, 0, len(variants))
	for i, v := range variants {
		vt := reflect.TypeOf(v)
		if vt == nil {
			return unreserve(it, fmt.Errorf("cborgen: union %s: variant %d is nil", it, i))
		}
		if _, dup := sc.byType[vt]; dup {
			return unreserve(it, fmt.Errorf("cborgen: union %s: duplicate variant type %s", it, vt))
		}
		vi, shape, err := buildVariantLocked(i, vt)
		if err != nil {
			return unreserve(it, fmt.Errorf("cborgen: union %s: %w", it, err))
		}
		sc.byType[vt] = vi
		shapes = append(shapes, shape)
	}
	sc.shape = sumOf(shapes)
	patch(it, fwd, sc)
	return nil
}

// MustRegisterUnion is RegisterUnion that panics on error, for use from init.
func MustRegisterUnion[I any](variants ...I) {
	if err := RegisterUnion[I](variants...); err != nil {
		panic(err)
	}
}

// WireCodec is the capability interface for custom leaf codecs: supply your
// own wire-level encode/decode for T instead of the derived one.
type WireCodec[T any] interface {
	EncodeWire(*wire.Encoder, T) error
	DecodeWire(*wire.Decoder) (T, error)
}

// RegisterCodec attaches a custom leaf codec for T. Like RegisterUnion it is
// one-time and must precede any derivation that reaches T.
func RegisterCodec[T any](c WireCodec[T]) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.codecs[t]; ok {
		return fmt.Errorf("cborgen: %s is already registered", t)
	}
	registry.codecs[t] = customCodec[T]{typ: t, impl: c}
	return nil
}

type customCodec[T any] struct {
	typ  reflect.Type
	impl WireCodec[T]
}

func (c customCodec[T]) encode(e *wire.Encoder, v reflect.Value) error {
	return c.impl.EncodeWire(e, v.Interface().(T))
}

func (c customCodec[T]) decode(d *wire.Decoder) (reflect.Value, error) {
	x, err := c.impl.DecodeWire(d)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(&x).Elem(), nil
}
