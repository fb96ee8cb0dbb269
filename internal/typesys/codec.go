package typesys

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Buffer is a payload buffer: a leading signature token followed by
// the values it describes, matching spec.md §6's "variable payload: a
// buffer whose leading bytes encode a signature, followed by values
// per that signature."
type Buffer struct {
	data []byte
}

// NewBuffer encodes sig and values into a fresh payload buffer.
func NewBuffer(sig string, values ...any) (*Buffer, error) {
	enc, err := EncodeTuple(sig, values)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	writeString(&out, sig)
	out.Write(enc)
	return &Buffer{data: out.Bytes()}, nil
}

// RawBuffer wraps already-framed bytes, e.g. as received off the wire.
func RawBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the buffer's wire bytes.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Signature reads the buffer's leading signature token, used for the
// debug-assertion against a method's declared argument signature.
func (b *Buffer) Signature() (string, error) {
	if b == nil {
		return "", fmt.Errorf("typesys: nil buffer")
	}
	r := bytes.NewReader(b.data)
	sig, err := readString(r)
	if err != nil {
		return "", fmt.Errorf("typesys: reading signature: %w", err)
	}
	return sig, nil
}

// Decode parses the buffer's values according to sig (which need not
// match the buffer's stored signature token — callers that already
// know the wanted signature, e.g. a method's return type, decode
// directly against it).
func (b *Buffer) Decode(sig string) ([]any, error) {
	if b == nil {
		return nil, fmt.Errorf("typesys: nil buffer")
	}
	r := bytes.NewReader(b.data)
	if _, err := readString(r); err != nil {
		return nil, fmt.Errorf("typesys: reading signature: %w", err)
	}
	return DecodeTuple(sig, r)
}

// EncodeTuple encodes values against sig, an unparenthesized sequence
// of Kind characters (e.g. "ii" or "s").
func EncodeTuple(sig string, values []any) ([]byte, error) {
	if len(sig) != len(values) {
		return nil, fmt.Errorf("typesys: signature %q wants %d values, got %d", sig, len(sig), len(values))
	}
	var buf bytes.Buffer
	for i, r := range []byte(sig) {
		if err := encodeOne(&buf, Kind(r), values[i]); err != nil {
			return nil, fmt.Errorf("typesys: encoding element %d (%c): %w", i, r, err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeTuple decodes a sequence of values per sig from r.
func DecodeTuple(sig string, r *bytes.Reader) ([]any, error) {
	out := make([]any, 0, len(sig))
	for i, k := range []byte(sig) {
		v, err := decodeOne(r, Kind(k))
		if err != nil {
			return nil, fmt.Errorf("typesys: decoding element %d (%c): %w", i, k, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func encodeOne(buf *bytes.Buffer, k Kind, v any) error {
	switch k {
	case KindInt:
		i, ok := asInt64(v)
		if !ok {
			return fmt.Errorf("want int, got %T", v)
		}
		return binary.Write(buf, binary.LittleEndian, i)
	case KindUint:
		u, ok := asUint64(v)
		if !ok {
			return fmt.Errorf("want uint, got %T", v)
		}
		return binary.Write(buf, binary.LittleEndian, u)
	case KindBool:
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("want bool, got %T", v)
		}
		var b byte
		if bv {
			b = 1
		}
		return buf.WriteByte(b)
	case KindDouble:
		d, ok := v.(float64)
		if !ok {
			return fmt.Errorf("want float64, got %T", v)
		}
		return binary.Write(buf, binary.LittleEndian, math.Float64bits(d))
	case KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", v)
		}
		writeString(buf, s)
		return nil
	default:
		return fmt.Errorf("unknown signature element %q", k)
	}
}

func decodeOne(r *bytes.Reader, k Kind) (any, error) {
	switch k {
	case KindInt:
		var i int64
		if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
			return nil, err
		}
		return i, nil
	case KindUint:
		var u uint64
		if err := binary.Read(r, binary.LittleEndian, &u); err != nil {
			return nil, err
		}
		return u, nil
	case KindBool:
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case KindDouble:
		var bits uint64
		if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
			return nil, err
		}
		return math.Float64frombits(bits), nil
	case KindString:
		return readString(r)
	default:
		return nil, fmt.Errorf("unknown signature element %q", k)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s))) //nolint:errcheck
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	default:
		return 0, false
	}
}
