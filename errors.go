package cborgen

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/unkn0wn-root/cborgen/wire"
)

// ErrTrailing reports that a payload decoded cleanly but left unread bytes.
// Derived codecs decode whole payloads; trailing input means corruption or a
// framing bug upstream.
var ErrTrailing = errors.New("cborgen: trailing bytes after value")

// ShapeMismatchError reports a wire-declared list length that does not match
// the field count of the resolved variant (or the fixed length of an array
// type). The whole decode is aborted; no partial value is produced.
type ShapeMismatchError struct {
	Type     reflect.Type // Go type being decoded, if known
	Variant  int          // resolved variant index; -1 if the mismatch precedes resolution
	Declared int          // list length from the wire; -1 for indefinite
	Expected int
}

func (e *ShapeMismatchError) Error() string {
	name := "value"
	if e.Type != nil {
		name = e.Type.String()
	}
	if e.Declared < 0 {
		return fmt.Sprintf("cborgen: shape mismatch decoding %s: indefinite-length framing where a definite list of %d was expected", name, e.Expected)
	}
	if e.Variant >= 0 {
		return fmt.Sprintf("cborgen: shape mismatch decoding %s variant %d: declared list length %d, expected %d", name, e.Variant, e.Declared, e.Expected)
	}
	return fmt.Sprintf("cborgen: shape mismatch decoding %s: declared list length %d, expected at least %d", name, e.Declared, e.Expected)
}

// UnknownTagError reports a tag word outside the known range: a variant
// index at or beyond the constructor count, or a timestamp tag that is
// neither 0 nor 1.
type UnknownTagError struct {
	Tag   uint64
	Known int    // number of valid tags (valid range is 0..Known-1)
	What  string // "variant" or "timestamp"
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("cborgen: unknown %s tag %d (valid tags 0..%d)", e.What, e.Tag, e.Known-1)
}

// MalformedLiteralError reports a literal that carried the right wire type
// but an unparseable value, e.g. a timestamp string that is not RFC3339.
type MalformedLiteralError struct {
	Literal string
	Err     error
}

func (e *MalformedLiteralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cborgen: malformed literal %q: %v", e.Literal, e.Err)
	}
	return fmt.Sprintf("cborgen: malformed literal %q", e.Literal)
}

func (e *MalformedLiteralError) Unwrap() error { return e.Err }

// UnsupportedWireTypeError reports an item whose wire type is not among the
// ones the decoder accepts at this position, e.g. a text string following
// timestamp tag 1.
type UnsupportedWireTypeError struct {
	Got  wire.Type
	Want string
}

func (e *UnsupportedWireTypeError) Error() string {
	return fmt.Sprintf("cborgen: unsupported wire type %s, want %s", e.Got, e.Want)
}

// UnreachableShapeError reports an encode or decode attempt against a shape
// with zero variants. No value of such a type can exist, so this is a caller
// contract violation, not bad input; it is deliberately distinct from
// ShapeMismatchError.
type UnreachableShapeError struct {
	Type reflect.Type
}

func (e *UnreachableShapeError) Error() string {
	return fmt.Sprintf("cborgen: %s has no variants; no value of it can exist", e.Type)
}
