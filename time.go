package cborgen

import (
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/unkn0wn-root/cborgen/wire"
)

// timeCodec implements the two standard timestamp forms:
//
//	tag 0: RFC3339 text, what this module always emits (UTC, Z offset,
//	       fractional seconds only when present) — interoperability over
//	       compactness, decoded by anything that can read a string.
//	tag 1: epoch seconds as an integer or a float of any width,
//	       decode-only, for output of foreign encoders.
//
// Decode under tag 1 dispatches on the wire type actually present; any
// non-numeric item there is an UnsupportedWireTypeError. A tag other than
// 0 or 1 is an UnknownTagError.
type timeCodec struct{}

func (timeCodec) encode(e *wire.Encoder, v reflect.Value) error {
	t := v.Interface().(time.Time)
	e.WriteTag(0)
	e.WriteText(t.UTC().Format(time.RFC3339Nano))
	return nil
}

func (timeCodec) decode(d *wire.Decoder) (reflect.Value, error) {
	wt, err := d.Peek()
	if err != nil {
		return reflect.Value{}, err
	}
	if wt != wire.TypeTag {
		return reflect.Value{}, &UnsupportedWireTypeError{Got: wt, Want: "timestamp tag 0 or 1"}
	}
	tag, err := d.ReadTag()
	if err != nil {
		return reflect.Value{}, err
	}
	switch tag {
	case 0:
		wt, err := d.Peek()
		if err != nil {
			return reflect.Value{}, err
		}
		if wt != wire.TypeText {
			return reflect.Value{}, &UnsupportedWireTypeError{Got: wt, Want: "text string after timestamp tag 0"}
		}
		s, err := d.ReadText()
		if err != nil {
			return reflect.Value{}, err
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return reflect.Value{}, &MalformedLiteralError{Literal: s, Err: err}
		}
		return reflect.ValueOf(t), nil
	case 1:
		wt, err := d.Peek()
		if err != nil {
			return reflect.Value{}, err
		}
		switch wt {
		case wire.TypeUint, wire.TypeNegInt:
			sec, err := d.ReadInt()
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(time.Unix(sec, 0).UTC()), nil
		case wire.TypeFloat:
			f, err := d.ReadFloat()
			if err != nil {
				return reflect.Value{}, err
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return reflect.Value{}, &MalformedLiteralError{
					Literal: strconv.FormatFloat(f, 'g', -1, 64),
				}
			}
			sec, frac := math.Modf(f)
			return reflect.ValueOf(time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()), nil
		default:
			return reflect.Value{}, &UnsupportedWireTypeError{Got: wt, Want: "integer or float after timestamp tag 1"}
		}
	default:
		return reflect.Value{}, &UnknownTagError{Tag: tag, Known: 2, What: "timestamp"}
	}
}
