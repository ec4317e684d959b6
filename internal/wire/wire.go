// Package wire implements the custom binary length-prefixed protocol used
// between client and server: a u32 total length followed by that many
// bytes of request payload, itself a sequence of u32-len-prefixed
// argument strings, per spec.md §4.7. Responses use the same outer
// framing around a typed, tagged encoding (Nil/Error/String/Integer/
// Double/Array), grounded on original_source/include/{request_parser,
// response_serializer}.hpp.
package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// MaxMsgSize bounds the payload following the length prefix, matching the
// source's MAX_MSG_SIZE. A request whose declared length exceeds this is
// rejected outright rather than partially read.
const MaxMsgSize = 4096

// ErrMessageTooLarge is returned when a request's declared payload length
// exceeds MaxMsgSize.
var ErrMessageTooLarge = errors.New("wire: message exceeds maximum size")

// ErrMalformed is returned when an argument's declared length runs past
// the end of its enclosing payload.
var ErrMalformed = errors.New("wire: malformed request")

// Type tags a response value on the wire, mirroring SerializationType.
type Type byte

const (
	TypeNil Type = iota
	TypeError
	TypeString
	TypeInteger
	TypeDouble
	TypeArray
)

// Decoder reads length-prefixed request frames off a stream connection.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r for frame-at-a-time reading.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads one request frame and returns its argument list. io.EOF is
// returned verbatim when the peer closes the connection cleanly between
// frames.
func (d *Decoder) Decode() ([]string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		return nil, err
	}
	total := binary.LittleEndian.Uint32(lenBuf[:])
	if total > MaxMsgSize {
		return nil, ErrMessageTooLarge
	}

	payload := make([]byte, total)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, err
	}

	var args []string
	pos := 0
	for pos < len(payload) {
		if pos+4 > len(payload) {
			return nil, ErrMalformed
		}
		argLen := int(binary.LittleEndian.Uint32(payload[pos : pos+4]))
		pos += 4
		if argLen < 0 || pos+argLen > len(payload) {
			return nil, ErrMalformed
		}
		args = append(args, string(payload[pos:pos+argLen]))
		pos += argLen
	}
	return args, nil
}

// Encoder writes typed, length-prefixed response frames.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder wraps w for frame-at-a-time writing.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Builder accumulates one response's tagged payload before it is framed
// and flushed by Encoder.Write. Callers build a Builder, hand it to Write,
// and discard it; Builder itself performs no I/O.
type Builder struct {
	buf []byte
}

// Nil appends a Nil tag.
func (b *Builder) Nil() *Builder {
	b.buf = append(b.buf, byte(TypeNil))
	return b
}

// Error appends an Error tag with a numeric code and message, per spec.md
// §4.8's ERR_ARG/ERR_UNKNOWN/ERR_TYPE codes.
func (b *Builder) Error(code int32, msg string) *Builder {
	b.buf = append(b.buf, byte(TypeError))
	b.buf = appendUint32(b.buf, uint32(int32(code)))
	b.buf = appendUint32(b.buf, uint32(len(msg)))
	b.buf = append(b.buf, msg...)
	return b
}

// String appends a String tag with s.
func (b *Builder) String(s string) *Builder {
	b.buf = append(b.buf, byte(TypeString))
	b.buf = appendUint32(b.buf, uint32(len(s)))
	b.buf = append(b.buf, s...)
	return b
}

// Integer appends an Integer tag with v.
func (b *Builder) Integer(v int64) *Builder {
	b.buf = append(b.buf, byte(TypeInteger))
	b.buf = appendUint64(b.buf, uint64(v))
	return b
}

// Double appends a Double tag with v.
func (b *Builder) Double(v float64) *Builder {
	b.buf = append(b.buf, byte(TypeDouble))
	b.buf = appendUint64(b.buf, math.Float64bits(v))
	return b
}

// Array appends an Array tag announcing n elements to follow; callers then
// append n values (via further Builder calls) themselves, matching
// ResponseSerializer's flat "count then values" array encoding — there is
// no nested framing per element.
func (b *Builder) Array(n uint32) *Builder {
	b.buf = append(b.buf, byte(TypeArray))
	b.buf = appendUint32(b.buf, n)
	return b
}

func appendUint32(dst []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(dst, tmp[:]...)
}

func appendUint64(dst []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(dst, tmp[:]...)
}

// Bytes returns the tagged payload accumulated so far, without the outer
// length prefix Write adds when framing it onto the wire.
func (b *Builder) Bytes() []byte { return b.buf }

// Write frames b's accumulated payload with a u32 length prefix and
// flushes it to the connection.
func (e *Encoder) Write(b *Builder) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b.buf)))
	if _, err := e.w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := e.w.Write(b.buf); err != nil {
		return err
	}
	return e.w.Flush()
}
