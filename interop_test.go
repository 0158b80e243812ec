package cborgen

import (
	"reflect"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Interop tests decode cborgen output with an independent CBOR
// implementation (and vice versa) to pin the wire contract, not just
// self-consistency.

func TestInteropVariantFraming(t *testing.T) {
	c := MustDerive[Shape3]()

	cases := []struct {
		v    Shape3
		want []any
	}{
		{A{}, []any{uint64(0)}},
		{B{N: 42}, []any{uint64(1), uint64(42)}},
		{C{N: 7, S: "x"}, []any{uint64(2), uint64(7), "x"}},
	}
	for _, tc := range cases {
		b := mustEncode(t, c, tc.v)
		var got any
		if err := cbor.Unmarshal(b, &got); err != nil {
			t.Fatalf("foreign decode of %x: %v", b, err)
		}
		arr, ok := got.([]any)
		if !ok {
			t.Fatalf("foreign decode of %#v: got %T, want array", tc.v, got)
		}
		if !reflect.DeepEqual(arr, tc.want) {
			t.Fatalf("foreign decode of %#v = %#v, want %#v", tc.v, arr, tc.want)
		}
	}
}

func TestInteropTimestampTag0(t *testing.T) {
	c := MustDerive[time.Time]()
	b := mustEncode(t, c, instant)

	var got time.Time
	if err := cbor.Unmarshal(b, &got); err != nil {
		t.Fatalf("foreign decode: %v", err)
	}
	if !got.Equal(instant) {
		t.Fatalf("foreign decode = %v, want %v", got, instant)
	}
}

func TestInteropTimestampTag1Foreign(t *testing.T) {
	// A foreign encoder emitting the epoch-seconds form must decode here.
	b, err := cbor.Marshal(cbor.Tag{Number: 1, Content: int64(1609459200)})
	if err != nil {
		t.Fatalf("foreign encode: %v", err)
	}
	c := MustDerive[time.Time]()
	got := mustDecode(t, c, b)
	if !got.Equal(instant) {
		t.Fatalf("decode of foreign tag 1 = %v, want %v", got, instant)
	}
}

func TestInteropSequence(t *testing.T) {
	c := MustDerive[[]uint64]()
	b := mustEncode(t, c, []uint64{1, 2, 3})

	var got []uint64
	if err := cbor.Unmarshal(b, &got); err != nil {
		t.Fatalf("foreign decode: %v", err)
	}
	if !reflect.DeepEqual(got, []uint64{1, 2, 3}) {
		t.Fatalf("foreign decode = %v", got)
	}
}
