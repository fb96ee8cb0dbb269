package transport

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/qi-bus/qibus/internal/typesys"
	"github.com/qi-bus/qibus/internal/wire"
)

// frame header layout: id, type, service, object, function, payload
// length — all little-endian uint32 (type narrowed to a byte). Exact
// framing bytes are explicitly out of scope for the core (spec.md
// §1); this is transport's own concrete choice, not a contract other
// packages depend on.
const headerSize = 4 + 1 + 4 + 4 + 4 + 4

func writeFrame(w io.Writer, m *wire.Message) error {
	hdr := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(hdr[0:4], m.ID())
	hdr[4] = byte(m.Type())
	binary.LittleEndian.PutUint32(hdr[5:9], m.Service())
	binary.LittleEndian.PutUint32(hdr[9:13], m.Object())
	binary.LittleEndian.PutUint32(hdr[13:17], m.Function())

	payload := m.Payload().Bytes()
	binary.LittleEndian.PutUint32(hdr[17:21], uint32(len(payload)))

	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("transport: writing frame header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("transport: writing frame payload: %w", err)
		}
	}
	return nil
}

func readFrame(r io.Reader) (*wire.Message, error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	id := binary.LittleEndian.Uint32(hdr[0:4])
	typ := wire.Type(hdr[4])
	service := binary.LittleEndian.Uint32(hdr[5:9])
	object := binary.LittleEndian.Uint32(hdr[9:13])
	function := binary.LittleEndian.Uint32(hdr[13:17])
	plen := binary.LittleEndian.Uint32(hdr[17:21])

	payload := make([]byte, plen)
	if plen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("transport: reading frame payload: %w", err)
		}
	}

	msg := wire.NewRaw(id, typ, service, object, function, typesys.RawBuffer(payload))
	return msg, nil
}
