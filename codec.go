package cborgen

import (
	"fmt"
	"reflect"

	"github.com/unkn0wn-root/cborgen/wire"
)

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Options tune derivation. The zero value is ready to use.
type Options struct {
	// Logger receives derivation events and decode-failure diagnostics at
	// Debug level. Nil disables logging.
	Logger Logger
}

// Derived is the generically derived Codec for V. The zero value is NOT
// ready to use; construct with Derive, DeriveWithOptions or MustDerive.
//
// V may be any type reachable from the supported leaves: bool, integers,
// floats, strings, []byte, big.Int, time.Time, pointers, slices, arrays,
// maps, structs, and interfaces registered with RegisterUnion. Derivation
// happens once per type; the resulting codec is immutable and safe for
// concurrent use.
type Derived[V any] struct {
	c   elemCodec
	typ reflect.Type
	log Logger
}

var _ Codec[struct{}] = Derived[struct{}]{}

// Derive builds the canonical encode/decode pair for V from its structure.
func Derive[V any]() (Derived[V], error) {
	return DeriveWithOptions[V](Options{})
}

// DeriveWithOptions is Derive with explicit Options.
func DeriveWithOptions[V any](opts Options) (Derived[V], error) {
	log := opts.Logger
	if log == nil {
		log = NopLogger{}
	}
	t := reflect.TypeOf((*V)(nil)).Elem()
	c, err := codecFor(t)
	if err != nil {
		return Derived[V]{}, err
	}
	dc := Derived[V]{c: c, typ: t, log: log}
	log.Debug("derived codec", Fields{"type": t.String(), "variants": dc.Variants()})
	return dc, nil
}

// MustDerive is Derive that panics on error. Handy for package-level
// variables; registration errors surface at program start.
func MustDerive[V any]() Derived[V] {
	c, err := Derive[V]()
	if err != nil {
		panic(err)
	}
	return c
}

// Encode produces the canonical byte sequence for v: the same logical value
// always yields the same bytes, and distinct values never collide.
func (dc Derived[V]) Encode(v V) ([]byte, error) {
	e := wire.NewEncoder()
	rv := reflect.ValueOf(&v).Elem()
	if err := dc.c.encode(e, rv); err != nil {
		return nil, err
	}
	out := make([]byte, e.Len())
	copy(out, e.Bytes())
	return out, nil
}

// Decode consumes the whole payload; leftover bytes are an error (wrapped
// ErrTrailing). Failures are decode errors per the taxonomy in errors.go;
// no partial value is ever returned.
func (dc Derived[V]) Decode(b []byte) (V, error) {
	var zero V
	d := wire.NewDecoder(b)
	rv, err := dc.c.decode(d)
	if err != nil {
		dc.log.Debug("decode failed", Fields{"type": dc.typ.String(), "error": err.Error()})
		return zero, err
	}
	if rem := d.Remaining(); rem != 0 {
		return zero, fmt.Errorf("%w: %d bytes", ErrTrailing, rem)
	}
	return rv.Interface().(V), nil
}

// Shape returns V's structural descriptor, or nil if V is a plain leaf type
// with no sum/product structure of its own.
func (dc Derived[V]) Shape() Shape {
	if sc, ok := dc.c.(*shapeCodec); ok {
		return sc.shape
	}
	return nil
}

// Variants reports the constructor count of V's shape; 1 for leaves.
func (dc Derived[V]) Variants() int {
	if sc, ok := dc.c.(*shapeCodec); ok {
		return sc.count
	}
	return 1
}

// Marshal derives (or reuses) the codec for V and encodes v.
func Marshal[V any](v V) ([]byte, error) {
	c, err := Derive[V]()
	if err != nil {
		return nil, err
	}
	return c.Encode(v)
}

// Unmarshal derives (or reuses) the codec for V and decodes b into *v.
func Unmarshal[V any](b []byte, v *V) error {
	c, err := Derive[V]()
	if err != nil {
		return err
	}
	x, err := c.Decode(b)
	if err != nil {
		return err
	}
	*v = x
	return nil
}

// Limit wraps another codec to enforce a maximum allowed payload size at
// Decode time. Encode is forwarded to Inner unchanged. If MaxDecode <= 0,
// size limiting is disabled.
//
// This is a blunt outer guard for payloads from shared or untrusted
// sources; the container layer's bounded-allocation decode protects
// against lying length headers inside a payload regardless.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("cborgen: payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
