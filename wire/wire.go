// Package wire implements the CBOR (RFC 8949) item layer used by cborgen:
// shortest-form integer heads, floats (including half precision), text and
// byte strings (definite and indefinite-chunked), array/map length heads,
// semantic tags and bignums. It knows nothing about shapes or Go types;
// higher layers compose these items into the canonical tagged-tuple framing.
//
// Encoder always emits definite, shortest-form items. Decoder accepts any
// well-formed item, so output from foreign encoders (indefinite lengths,
// non-minimal heads) still decodes.
package wire

import "errors"

var (
	// ErrTruncated reports that the input ended before the current item was
	// complete. It is a pure "not enough data yet" signal: the caller decides
	// whether that means refill, retry, or failure.
	ErrTruncated = errors.New("wire: input truncated")

	// ErrMalformed reports a structurally invalid item (reserved additional
	// info, wrong major type, stray break, ...).
	ErrMalformed = errors.New("wire: malformed item")
)

// Type classifies the next item in the stream without consuming it.
type Type int

const (
	TypeUint Type = iota
	TypeNegInt
	TypeBytes
	TypeText
	TypeArray
	TypeMap
	TypeTag
	TypeBool
	TypeNull
	TypeFloat
	TypeBreak
	TypeOther // simple values this module does not model
)

func (t Type) String() string {
	switch t {
	case TypeUint:
		return "unsigned integer"
	case TypeNegInt:
		return "negative integer"
	case TypeBytes:
		return "byte string"
	case TypeText:
		return "text string"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	case TypeTag:
		return "tag"
	case TypeBool:
		return "bool"
	case TypeNull:
		return "null"
	case TypeFloat:
		return "float"
	case TypeBreak:
		return "break"
	default:
		return "simple value"
	}
}

// Major types, RFC 8949 §3.
const (
	majorUint   = 0
	majorNegInt = 1
	majorBytes  = 2
	majorText   = 3
	majorArray  = 4
	majorMap    = 5
	majorTag    = 6
	majorSimple = 7
)

// Additional info values with special meaning.
const (
	aiOneByte   = 24
	aiTwoBytes  = 25
	aiFourBytes = 26
	aiEightByte = 27
	aiIndef     = 31

	simpleFalse = 20
	simpleTrue  = 21
	simpleNull  = 22

	breakByte = 0xff
)
