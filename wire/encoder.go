package wire

import (
	"encoding/binary"
	"math"
	"math/big"
)

// Encoder appends CBOR items to an in-memory buffer. The zero value is ready
// to use. Heads are always emitted in shortest form, which is what makes the
// higher-level encoding canonical.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the encoded buffer. The slice is owned by the encoder and
// valid until the next Write/Reset.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Len() int { return len(e.buf) }

func (e *Encoder) Reset() { e.buf = e.buf[:0] }

// head appends a major-type head with the shortest-form length/value encoding.
func (e *Encoder) head(major byte, v uint64) {
	switch {
	case v < aiOneByte:
		e.buf = append(e.buf, major<<5|byte(v))
	case v <= math.MaxUint8:
		e.buf = append(e.buf, major<<5|aiOneByte, byte(v))
	case v <= math.MaxUint16:
		e.buf = append(e.buf, major<<5|aiTwoBytes)
		e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(v))
	case v <= math.MaxUint32:
		e.buf = append(e.buf, major<<5|aiFourBytes)
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(v))
	default:
		e.buf = append(e.buf, major<<5|aiEightByte)
		e.buf = binary.BigEndian.AppendUint64(e.buf, v)
	}
}

// WriteRaw appends already-encoded items verbatim.
func (e *Encoder) WriteRaw(b []byte) { e.buf = append(e.buf, b...) }

func (e *Encoder) WriteUint(v uint64) { e.head(majorUint, v) }

func (e *Encoder) WriteInt(v int64) {
	if v >= 0 {
		e.head(majorUint, uint64(v))
		return
	}
	e.head(majorNegInt, uint64(-(v + 1)))
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, majorSimple<<5|simpleTrue)
		return
	}
	e.buf = append(e.buf, majorSimple<<5|simpleFalse)
}

func (e *Encoder) WriteNull() { e.buf = append(e.buf, majorSimple<<5|simpleNull) }

func (e *Encoder) WriteFloat32(v float32) {
	e.buf = append(e.buf, majorSimple<<5|aiFourBytes)
	e.buf = binary.BigEndian.AppendUint32(e.buf, math.Float32bits(v))
}

func (e *Encoder) WriteFloat64(v float64) {
	e.buf = append(e.buf, majorSimple<<5|aiEightByte)
	e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(v))
}

func (e *Encoder) WriteText(s string) {
	e.head(majorText, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) WriteBytes(b []byte) {
	e.head(majorBytes, uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *Encoder) WriteArrayLen(n int) { e.head(majorArray, uint64(n)) }

func (e *Encoder) WriteMapLen(n int) { e.head(majorMap, uint64(n)) }

func (e *Encoder) WriteTag(t uint64) { e.head(majorTag, t) }

// BeginArray, BeginMap, BeginBytes and BeginText open an indefinite-length
// item terminated by WriteBreak. The canonical encoding never uses these;
// they exist so tests can exercise the decoder's indefinite paths.
func (e *Encoder) BeginArray() { e.buf = append(e.buf, majorArray<<5|aiIndef) }
func (e *Encoder) BeginMap()   { e.buf = append(e.buf, majorMap<<5|aiIndef) }
func (e *Encoder) BeginBytes() { e.buf = append(e.buf, majorBytes<<5|aiIndef) }
func (e *Encoder) BeginText()  { e.buf = append(e.buf, majorText<<5|aiIndef) }

func (e *Encoder) WriteBreak() { e.buf = append(e.buf, breakByte) }

// WriteBigInt emits v in its smallest representation: a plain integer head
// when it fits 64 bits, otherwise a tag 2/3 bignum with a minimal magnitude.
func (e *Encoder) WriteBigInt(v *big.Int) {
	if v.IsUint64() {
		e.WriteUint(v.Uint64())
		return
	}
	if v.Sign() < 0 {
		// n = -1 - v fits uint64 iff v >= -2^64
		var n big.Int
		n.Neg(v)
		n.Sub(&n, big.NewInt(1))
		if n.IsUint64() {
			e.head(majorNegInt, n.Uint64())
			return
		}
		e.WriteTag(3)
		e.WriteBytes(n.Bytes())
		return
	}
	e.WriteTag(2)
	e.WriteBytes(v.Bytes())
}
