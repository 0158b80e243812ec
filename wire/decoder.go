package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/x448/float16"
)

// Decoder is a cursor over an in-memory CBOR buffer. Reads validate the item
// they consume and advance the cursor; any failure leaves the overall decode
// unusable (callers abort, they do not resynchronize).
type Decoder struct {
	buf []byte
	off int
}

func NewDecoder(b []byte) *Decoder { return &Decoder{buf: b} }

// Remaining reports how many input bytes are still available. It is the
// conservative availability bound the bounded-allocation container decode
// checks declared sizes against.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

// Peek classifies the next item without consuming it.
func (d *Decoder) Peek() (Type, error) {
	if d.off >= len(d.buf) {
		return 0, ErrTruncated
	}
	ib := d.buf[d.off]
	if ib == breakByte {
		return TypeBreak, nil
	}
	switch ib >> 5 {
	case majorUint:
		return TypeUint, nil
	case majorNegInt:
		return TypeNegInt, nil
	case majorBytes:
		return TypeBytes, nil
	case majorText:
		return TypeText, nil
	case majorArray:
		return TypeArray, nil
	case majorMap:
		return TypeMap, nil
	case majorTag:
		return TypeTag, nil
	default:
		switch ib & 0x1f {
		case simpleFalse, simpleTrue:
			return TypeBool, nil
		case simpleNull:
			return TypeNull, nil
		case aiTwoBytes, aiFourBytes, aiEightByte:
			return TypeFloat, nil
		default:
			return TypeOther, nil
		}
	}
}

func (d *Decoder) need(n int) ([]byte, error) {
	if n > len(d.buf)-d.off { // overflow-safe bound check
		return nil, ErrTruncated
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

// head consumes one item head. indef is true when ai=31; val is then
// undefined (for major 7 an ai=31 head is the break byte, which callers that
// did not Peek first must treat as malformed).
func (d *Decoder) head() (major, ai byte, val uint64, indef bool, err error) {
	b, err := d.need(1)
	if err != nil {
		return 0, 0, 0, false, err
	}
	ib := b[0]
	major, ai = ib>>5, ib&0x1f
	switch {
	case ai < aiOneByte:
		return major, ai, uint64(ai), false, nil
	case ai == aiOneByte:
		b, err = d.need(1)
		if err != nil {
			return 0, 0, 0, false, err
		}
		return major, ai, uint64(b[0]), false, nil
	case ai == aiTwoBytes:
		b, err = d.need(2)
		if err != nil {
			return 0, 0, 0, false, err
		}
		return major, ai, uint64(binary.BigEndian.Uint16(b)), false, nil
	case ai == aiFourBytes:
		b, err = d.need(4)
		if err != nil {
			return 0, 0, 0, false, err
		}
		return major, ai, uint64(binary.BigEndian.Uint32(b)), false, nil
	case ai == aiEightByte:
		b, err = d.need(8)
		if err != nil {
			return 0, 0, 0, false, err
		}
		return major, ai, binary.BigEndian.Uint64(b), false, nil
	case ai == aiIndef:
		return major, ai, 0, true, nil
	default: // 28..30 reserved
		return 0, 0, 0, false, fmt.Errorf("%w: reserved additional info %d", ErrMalformed, ai)
	}
}

func (d *Decoder) expectHead(want byte, what string) (uint64, error) {
	major, _, val, indef, err := d.head()
	if err != nil {
		return 0, err
	}
	if major != want || indef {
		return 0, fmt.Errorf("%w: expected %s", ErrMalformed, what)
	}
	return val, nil
}

func (d *Decoder) ReadUint() (uint64, error) {
	return d.expectHead(majorUint, "unsigned integer")
}

func (d *Decoder) ReadInt() (int64, error) {
	major, _, val, indef, err := d.head()
	if err != nil {
		return 0, err
	}
	if indef {
		return 0, fmt.Errorf("%w: expected integer", ErrMalformed)
	}
	switch major {
	case majorUint:
		if val > math.MaxInt64 {
			return 0, fmt.Errorf("%w: integer %d overflows int64", ErrMalformed, val)
		}
		return int64(val), nil
	case majorNegInt:
		if val > math.MaxInt64 {
			return 0, fmt.Errorf("%w: integer -%d overflows int64", ErrMalformed, val)
		}
		return -1 - int64(val), nil
	default:
		return 0, fmt.Errorf("%w: expected integer", ErrMalformed)
	}
}

func (d *Decoder) ReadBool() (bool, error) {
	major, ai, _, _, err := d.head()
	if err != nil {
		return false, err
	}
	if major == majorSimple {
		switch ai {
		case simpleFalse:
			return false, nil
		case simpleTrue:
			return true, nil
		}
	}
	return false, fmt.Errorf("%w: expected bool", ErrMalformed)
}

func (d *Decoder) ReadNull() error {
	major, ai, _, _, err := d.head()
	if err != nil {
		return err
	}
	if major != majorSimple || ai != simpleNull {
		return fmt.Errorf("%w: expected null", ErrMalformed)
	}
	return nil
}

// ReadFloat accepts half, single and double precision and widens to float64.
func (d *Decoder) ReadFloat() (float64, error) {
	major, ai, val, _, err := d.head()
	if err != nil {
		return 0, err
	}
	if major != majorSimple {
		return 0, fmt.Errorf("%w: expected float", ErrMalformed)
	}
	switch ai {
	case aiTwoBytes:
		return float64(float16.Frombits(uint16(val)).Float32()), nil
	case aiFourBytes:
		return float64(math.Float32frombits(uint32(val))), nil
	case aiEightByte:
		return math.Float64frombits(val), nil
	default:
		return 0, fmt.Errorf("%w: expected float", ErrMalformed)
	}
}

func (d *Decoder) readChunks(major byte, what string) ([]byte, error) {
	var out []byte
	for {
		t, err := d.Peek()
		if err != nil {
			return nil, err
		}
		if t == TypeBreak {
			_ = d.mustBreak()
			return out, nil
		}
		m, _, n, indef, err := d.head()
		if err != nil {
			return nil, err
		}
		if m != major || indef {
			return nil, fmt.Errorf("%w: %s chunk has wrong type", ErrMalformed, what)
		}
		if n > uint64(d.Remaining()) {
			return nil, ErrTruncated
		}
		b, err := d.need(int(n))
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
}

func (d *Decoder) readString(major byte, what string) ([]byte, error) {
	m, _, n, indef, err := d.head()
	if err != nil {
		return nil, err
	}
	if m != major {
		return nil, fmt.Errorf("%w: expected %s", ErrMalformed, what)
	}
	if indef {
		return d.readChunks(major, what)
	}
	if n > uint64(d.Remaining()) {
		return nil, ErrTruncated
	}
	return d.need(int(n))
}

// ReadText reads a definite or indefinite-chunked text string.
func (d *Decoder) ReadText() (string, error) {
	b, err := d.readString(majorText, "text string")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes reads a definite or indefinite-chunked byte string. For definite
// strings the returned slice aliases the input buffer.
func (d *Decoder) ReadBytes() ([]byte, error) {
	return d.readString(majorBytes, "byte string")
}

func (d *Decoder) readLen(major byte, what string) (int, bool, error) {
	m, _, n, indef, err := d.head()
	if err != nil {
		return 0, false, err
	}
	if m != major {
		return 0, false, fmt.Errorf("%w: expected %s", ErrMalformed, what)
	}
	if indef {
		return 0, true, nil
	}
	if n > math.MaxInt64 {
		return 0, false, fmt.Errorf("%w: %s length %d unrepresentable", ErrMalformed, what, n)
	}
	return int(n), false, nil
}

// ReadArrayLen reads an array head. indef means length-until-break; a huge
// definite length is NOT rejected here (bounding declared sizes against
// Remaining is the container layer's job).
func (d *Decoder) ReadArrayLen() (n int, indef bool, err error) {
	return d.readLen(majorArray, "array")
}

func (d *Decoder) ReadMapLen() (n int, indef bool, err error) {
	return d.readLen(majorMap, "map")
}

func (d *Decoder) ReadTag() (uint64, error) {
	return d.expectHead(majorTag, "tag")
}

func (d *Decoder) mustBreak() error {
	b, err := d.need(1)
	if err != nil {
		return err
	}
	if b[0] != breakByte {
		return fmt.Errorf("%w: expected break", ErrMalformed)
	}
	return nil
}

// ReadBreak consumes the break byte terminating an indefinite item.
func (d *Decoder) ReadBreak() error { return d.mustBreak() }

// ReadBigInt accepts a plain integer head or a tag 2/3 bignum.
func (d *Decoder) ReadBigInt() (*big.Int, error) {
	t, err := d.Peek()
	if err != nil {
		return nil, err
	}
	switch t {
	case TypeUint:
		_, _, val, _, err := d.head()
		if err != nil {
			return nil, err
		}
		return new(big.Int).SetUint64(val), nil
	case TypeNegInt:
		_, _, val, _, err := d.head()
		if err != nil {
			return nil, err
		}
		x := new(big.Int).SetUint64(val)
		x.Neg(x)
		return x.Sub(x, big.NewInt(1)), nil
	case TypeTag:
		tag, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		if tag != 2 && tag != 3 {
			return nil, fmt.Errorf("%w: tag %d is not a bignum", ErrMalformed, tag)
		}
		mag, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		x := new(big.Int).SetBytes(mag)
		if tag == 3 {
			x.Neg(x)
			x.Sub(x, big.NewInt(1))
		}
		return x, nil
	default:
		return nil, fmt.Errorf("%w: expected integer or bignum, got %s", ErrMalformed, t)
	}
}

// Skip consumes one complete item, including nested content.
func (d *Decoder) Skip() error {
	major, _, val, indef, err := d.head()
	if err != nil {
		return err
	}
	switch major {
	case majorUint, majorNegInt:
		return nil
	case majorBytes, majorText:
		if indef {
			_, err := d.readChunks(major, "string")
			return err
		}
		if val > uint64(d.Remaining()) {
			return ErrTruncated
		}
		_, err := d.need(int(val))
		return err
	case majorArray, majorMap:
		per := uint64(1)
		if major == majorMap {
			per = 2
		}
		if indef {
			for {
				t, err := d.Peek()
				if err != nil {
					return err
				}
				if t == TypeBreak {
					return d.mustBreak()
				}
				if err := d.Skip(); err != nil {
					return err
				}
			}
		}
		for i := uint64(0); i < val; i++ {
			for j := uint64(0); j < per; j++ {
				if err := d.Skip(); err != nil {
					return err
				}
			}
		}
		return nil
	case majorTag:
		return d.Skip()
	default: // major 7: head already consumed any payload
		if indef {
			return fmt.Errorf("%w: unexpected break", ErrMalformed)
		}
		return nil
	}
}
