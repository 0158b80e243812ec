package cborgen

import (
	"bytes"
	"errors"
	"math/big"
	"reflect"
	"testing"
	"time"
)

// Shape3 is a three-variant sum registered in A, B, C order: tag words are
// fixed by that registration order alone.
type Shape3 interface{ isShape3() }

type A struct{}
type B struct{ N int64 }
type C struct {
	N int64
	S string
}

func (A) isShape3() {}
func (B) isShape3() {}
func (C) isShape3() {}

type Tree interface{ isTree() }

type TreeLeaf struct{ V int64 }
type TreeNode struct{ L, R Tree }

func (TreeLeaf) isTree() {}
func (TreeNode) isTree() {}

// Never has zero variants: no value of it can exist.
type Never interface{ isNever() }

func init() {
	MustRegisterUnion[Shape3](A{}, B{}, C{})
	MustRegisterUnion[Tree](TreeLeaf{}, TreeNode{})
	MustRegisterUnion[Never]()
}

func mustEncode[V any](t *testing.T, c Derived[V], v V) []byte {
	t.Helper()
	b, err := c.Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return b
}

func mustDecode[V any](t *testing.T, c Derived[V], b []byte) V {
	t.Helper()
	v, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode(%x): %v", b, err)
	}
	return v
}

// TestThreeVariantWireForm pins the exact framing: variant i with k fields
// is [array-len k+1, uint i, fields...].
func TestThreeVariantWireForm(t *testing.T) {
	c := MustDerive[Shape3]()

	cases := []struct {
		v    Shape3
		want []byte
	}{
		{A{}, []byte{0x81, 0x00}},
		{B{N: 42}, []byte{0x82, 0x01, 0x18, 0x2a}},
		{C{N: 7, S: "x"}, []byte{0x83, 0x02, 0x07, 0x61, 'x'}},
	}
	for _, tc := range cases {
		got := mustEncode(t, c, tc.v)
		if !bytes.Equal(got, tc.want) {
			t.Fatalf("encode %#v = %x, want %x", tc.v, got, tc.want)
		}
		rt := mustDecode(t, c, got)
		if !reflect.DeepEqual(rt, tc.v) {
			t.Fatalf("round trip %#v got %#v", tc.v, rt)
		}
	}
}

func TestUnknownTagRejected(t *testing.T) {
	c := MustDerive[Shape3]()
	// only tags 0..2 exist
	_, err := c.Decode([]byte{0x82, 0x03, 0x00})
	var ut *UnknownTagError
	if !errors.As(err, &ut) {
		t.Fatalf("expected UnknownTagError, got %v", err)
	}
	if ut.Tag != 3 || ut.Known != 3 {
		t.Fatalf("UnknownTagError = %+v", ut)
	}
}

func TestShapeMismatchRejected(t *testing.T) {
	c := MustDerive[Shape3]()
	cases := []struct {
		name string
		b    []byte
	}{
		{"too short for variant 2", []byte{0x82, 0x02, 0x07}},
		{"too long for variant 0", []byte{0x82, 0x00, 0x07}},
		{"empty list", []byte{0x80}},
	}
	for _, tc := range cases {
		_, err := c.Decode(tc.b)
		var sm *ShapeMismatchError
		if !errors.As(err, &sm) {
			t.Fatalf("%s: expected ShapeMismatchError, got %v", tc.name, err)
		}
	}
}

func TestUnitStructFraming(t *testing.T) {
	type Empty struct{}
	c := MustDerive[Empty]()
	b := mustEncode(t, c, Empty{})
	if !bytes.Equal(b, []byte{0x81, 0x00}) {
		t.Fatalf("unit framing: %x", b)
	}
	mustDecode(t, c, b)
}

type child struct {
	Name string
	Hot  bool
}

type record struct {
	B   bool
	I8  int8
	I   int64
	U   uint32
	F32 float32
	F64 float64
	S   string
	Raw []byte
	P   *int64
	Nil *int64
	Xs  []string
	M   map[string]int64
	At  time.Time
	Big big.Int
	Kid child
	Sum Shape3

	skip int // unexported, never on the wire
}

func sampleRecord() record {
	p := int64(-9)
	return record{
		B:   true,
		I8:  -5,
		I:   1 << 40,
		U:   7,
		F32: 1.5,
		F64: -2.25,
		S:   "héllo",
		Raw: []byte{0, 1, 2},
		P:   &p,
		Xs:  []string{"a", "b"},
		M:   map[string]int64{"x": 1, "y": -2},
		At:  time.Date(2021, 6, 1, 12, 30, 45, 0, time.UTC),
		Big: *new(big.Int).Lsh(big.NewInt(3), 80),
		Kid: child{Name: "k", Hot: true},
		Sum: C{N: 1, S: "s"},
	}
}

func TestRecordRoundTrip(t *testing.T) {
	c := MustDerive[record]()
	v := sampleRecord()
	rt := mustDecode(t, c, mustEncode(t, c, v))
	if !reflect.DeepEqual(rt, v) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", rt, v)
	}
}

func TestEncodingIsCanonical(t *testing.T) {
	c := MustDerive[record]()
	v := sampleRecord()
	b1 := mustEncode(t, c, v)
	b2 := mustEncode(t, c, v)
	if !bytes.Equal(b1, b2) {
		t.Fatalf("same value, different bytes:\n%x\n%x", b1, b2)
	}
}

func TestInjectivity(t *testing.T) {
	c := MustDerive[Shape3]()
	vals := []Shape3{
		A{},
		B{N: 0},
		B{N: 1},
		C{N: 0, S: ""},
		C{N: 0, S: "x"},
		C{N: 1, S: ""},
	}
	encs := make([][]byte, len(vals))
	for i, v := range vals {
		encs[i] = mustEncode(t, c, v)
	}
	for i := range encs {
		for j := i + 1; j < len(encs); j++ {
			if bytes.Equal(encs[i], encs[j]) {
				t.Fatalf("values %#v and %#v share encoding %x", vals[i], vals[j], encs[i])
			}
		}
	}
}

func TestTrailingBytesRejected(t *testing.T) {
	c := MustDerive[Shape3]()
	b := append(mustEncode[Shape3](t, c, A{}), 0x00)
	if _, err := c.Decode(b); !errors.Is(err, ErrTrailing) {
		t.Fatalf("expected ErrTrailing, got %v", err)
	}
}

func TestVoidShapeUnreachable(t *testing.T) {
	c := MustDerive[Never]()
	var ue *UnreachableShapeError

	if _, err := c.Encode(nil); !errors.As(err, &ue) {
		t.Fatalf("encode: expected UnreachableShapeError, got %v", err)
	}
	if _, err := c.Decode([]byte{0x81, 0x00}); !errors.As(err, &ue) {
		t.Fatalf("decode: expected UnreachableShapeError, got %v", err)
	}
	// Distinct from a shape mismatch on purpose.
	var sm *ShapeMismatchError
	if _, err := c.Decode([]byte{0x81, 0x00}); errors.As(err, &sm) {
		t.Fatalf("void decode must not report ShapeMismatchError")
	}
}

func TestUnregisteredInterfaceFails(t *testing.T) {
	type loose interface{ anything() }
	if _, err := Derive[loose](); err == nil {
		t.Fatalf("expected derivation failure for unregistered interface")
	}
}

func TestRecursiveUnion(t *testing.T) {
	c := MustDerive[Tree]()
	v := Tree(TreeNode{
		L: TreeLeaf{V: 1},
		R: TreeNode{L: TreeLeaf{V: 2}, R: TreeLeaf{V: 3}},
	})
	rt := mustDecode(t, c, mustEncode(t, c, v))
	if !reflect.DeepEqual(rt, v) {
		t.Fatalf("tree round trip: got %#v want %#v", rt, v)
	}
}

func TestShapeIntrospection(t *testing.T) {
	c := MustDerive[Shape3]()
	if c.Variants() != 3 {
		t.Fatalf("Variants = %d, want 3", c.Variants())
	}
	if s := c.Shape(); s == nil || s.Variants() != 3 {
		t.Fatalf("Shape().Variants mismatch")
	}
	if lc := MustDerive[int64](); lc.Variants() != 1 || lc.Shape() != nil {
		t.Fatalf("leaf introspection mismatch")
	}
}

func TestDefinedLeafTypes(t *testing.T) {
	type UserID uint64
	type Name string
	type pair struct {
		ID UserID
		N  Name
	}
	c := MustDerive[pair]()
	v := pair{ID: 77, N: "ada"}
	rt := mustDecode(t, c, mustEncode(t, c, v))
	if rt != v {
		t.Fatalf("defined types: got %#v want %#v", rt, v)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	v := B{N: 12}
	b, err := Marshal[Shape3](v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Shape3
	if err := Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != Shape3(v) {
		t.Fatalf("got %#v want %#v", got, v)
	}
}

func TestLimitCodec(t *testing.T) {
	c := MustDerive[Shape3]()
	lc := Limit[Shape3]{Inner: c, MaxDecode: 2}

	small := mustEncode[Shape3](t, c, A{})
	large := mustEncode[Shape3](t, c, C{N: 7, S: "longer"})
	if _, err := lc.Decode(small); err != nil {
		t.Fatalf("small payload: %v", err)
	}
	if _, err := lc.Decode(large); err == nil {
		t.Fatalf("expected size-limit error")
	}
}

func TestDeriveConcurrentUse(t *testing.T) {
	c := MustDerive[record]()
	v := sampleRecord()
	want := mustEncode(t, c, v)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				b, err := c.Encode(v)
				if err != nil {
					done <- err
					return
				}
				if !bytes.Equal(b, want) {
					done <- errors.New("nondeterministic encoding under concurrency")
					return
				}
				if _, err := c.Decode(b); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent use: %v", err)
		}
	}
}
