package cborgen

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/unkn0wn-root/cborgen/wire"
)

var instant = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC) // epoch 1609459200

func TestTimeEncodeIsTag0Text(t *testing.T) {
	c := MustDerive[time.Time]()
	b := mustEncode(t, c, instant)
	want := append([]byte{0xc0, 0x74}, "2021-01-01T00:00:00Z"...)
	if !bytes.Equal(b, want) {
		t.Fatalf("encoded %x, want %x", b, want)
	}
}

// TestTimeDualFormDecode: the tag 0 string and the tag 1 epoch integer are
// the same logical instant, and re-encoding always yields the tag 0 form.
func TestTimeDualFormDecode(t *testing.T) {
	c := MustDerive[time.Time]()

	tag0 := append([]byte{0xc0, 0x74}, "2021-01-01T00:00:00Z"...)
	tag1 := []byte{0xc1, 0x1a, 0x5f, 0xee, 0x66, 0x00} // uint 1609459200

	for _, b := range [][]byte{tag0, tag1} {
		got := mustDecode(t, c, b)
		if !got.Equal(instant) {
			t.Fatalf("decode %x = %v, want %v", b, got, instant)
		}
		re := mustEncode(t, c, got)
		if !bytes.Equal(re, tag0) {
			t.Fatalf("re-encode %x, want tag 0 form %x", re, tag0)
		}
	}
}

func TestTimeTag1FloatWidths(t *testing.T) {
	c := MustDerive[time.Time]()

	e := wire.NewEncoder()
	e.WriteTag(1)
	e.WriteFloat64(1609459200.5)
	if got := mustDecode(t, c, e.Bytes()); !got.Equal(instant.Add(500 * time.Millisecond)) {
		t.Fatalf("float64 epoch: %v", got)
	}

	e.Reset()
	e.WriteTag(1)
	e.WriteFloat32(0.25)
	if got := mustDecode(t, c, e.Bytes()); !got.Equal(time.Unix(0, 250_000_000)) {
		t.Fatalf("float32 epoch: %v", got)
	}

	// half-precision 1.5 following tag 1
	half := []byte{0xc1, 0xf9, 0x3e, 0x00}
	if got := mustDecode(t, c, half); !got.Equal(time.Unix(1, 500_000_000)) {
		t.Fatalf("float16 epoch: %v", got)
	}
}

func TestTimeNegativeEpoch(t *testing.T) {
	c := MustDerive[time.Time]()
	b := []byte{0xc1, 0x20} // -1
	want := time.Date(1969, 12, 31, 23, 59, 59, 0, time.UTC)
	if got := mustDecode(t, c, b); !got.Equal(want) {
		t.Fatalf("epoch -1: %v, want %v", got, want)
	}
}

func TestTimeNumericOffsetAccepted(t *testing.T) {
	c := MustDerive[time.Time]()
	e := wire.NewEncoder()
	e.WriteTag(0)
	e.WriteText("2021-01-01T01:00:00+01:00")
	if got := mustDecode(t, c, e.Bytes()); !got.Equal(instant) {
		t.Fatalf("offset form: %v, want %v", got, instant)
	}
}

func TestTimeFractionRoundTrip(t *testing.T) {
	c := MustDerive[time.Time]()
	v := time.Date(2021, 6, 1, 12, 0, 0, 123_000_000, time.UTC)
	b := mustEncode(t, c, v)
	if !bytes.Contains(b, []byte("12:00:00.123Z")) {
		t.Fatalf("fraction missing from %q", b)
	}
	if got := mustDecode(t, c, b); !got.Equal(v) {
		t.Fatalf("fraction round trip: %v want %v", got, v)
	}
}

func TestTimeDecodeFailures(t *testing.T) {
	c := MustDerive[time.Time]()

	// unknown timestamp tag
	e := wire.NewEncoder()
	e.WriteTag(2)
	e.WriteUint(0)
	var ut *UnknownTagError
	if _, err := c.Decode(e.Bytes()); !errors.As(err, &ut) || ut.What != "timestamp" {
		t.Fatalf("tag 2: expected timestamp UnknownTagError, got %v", err)
	}

	// tag 1 followed by a non-numeric item
	e.Reset()
	e.WriteTag(1)
	e.WriteText("soon")
	var uw *UnsupportedWireTypeError
	if _, err := c.Decode(e.Bytes()); !errors.As(err, &uw) {
		t.Fatalf("tag 1 + text: expected UnsupportedWireTypeError, got %v", err)
	}

	// bare text without a tag
	e.Reset()
	e.WriteText("2021-01-01T00:00:00Z")
	if _, err := c.Decode(e.Bytes()); !errors.As(err, &uw) {
		t.Fatalf("untagged: expected UnsupportedWireTypeError, got %v", err)
	}

	// tag 0 with an unparseable literal
	e.Reset()
	e.WriteTag(0)
	e.WriteText("yesterday-ish")
	var ml *MalformedLiteralError
	if _, err := c.Decode(e.Bytes()); !errors.As(err, &ml) || ml.Literal != "yesterday-ish" {
		t.Fatalf("bad literal: expected MalformedLiteralError, got %v", err)
	}
}
