// Package frame implements the length-prefixed wire format: a 2-byte
// big-endian length covering everything that follows it, a 2-byte
// big-endian request identifier, then the payload. Request and response
// frames share the format; the server is expected to echo the identifier
// back unchanged.
package frame

import (
	"encoding/binary"

	"github.com/miekg/dns"
)

// HeaderLen is the number of bytes preceding the payload on the wire:
// the length field followed by the request identifier.
const HeaderLen = 4

// A Message is one complete inbound frame.
type Message struct {
	ID      uint16
	Payload []byte
}

// Encode builds the wire form of one request frame. The length field
// counts the identifier and the payload, not itself.
func Encode(id uint16, payload []byte) []byte {
	b := make([]byte, HeaderLen+len(payload))
	binary.BigEndian.PutUint16(b[0:2], uint16(len(payload)+2))
	binary.BigEndian.PutUint16(b[2:4], id)
	copy(b[4:], payload)
	return b
}

// A Decoder accumulates stream bytes and splits them into complete frames.
// TCP may deliver a frame in arbitrary pieces or coalesce several frames
// into one read; the decoder never consumes a partial frame and yields
// every complete one currently buffered.
type Decoder struct {
	buf []byte
}

// Feed appends newly received bytes to the accumulation buffer.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next extracts the next complete frame, if one is buffered. It returns
// false when fewer than HeaderLen bytes are available or the frame an-
// nounced by the length field has not fully arrived yet; no bytes are
// consumed in either case.
func (d *Decoder) Next() (Message, bool) {
	if len(d.buf) < HeaderLen {
		return Message{}, false
	}
	size := int(binary.BigEndian.Uint16(d.buf[0:2]))
	id := binary.BigEndian.Uint16(d.buf[2:4])
	total := size + 2
	if len(d.buf) < total {
		return Message{}, false
	}
	var payload []byte
	if total > HeaderLen {
		payload = append(payload, d.buf[HeaderLen:total]...)
	}
	d.buf = d.buf[total:]
	return Message{ID: id, Payload: payload}, true
}

// Buffered reports how many unparsed bytes are waiting for the rest of
// a frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Query builds the request payload: a DNS question for the given name and
// type with an all-zero message identifier. The identifier bytes on the
// wire belong to the frame header and are filled in by Encode. The default
// example.com/A question packs to 27 bytes, making each request frame the
// 31 bytes announced in the usage text.
func Query(qname string, qtype uint16) ([]byte, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(qname), qtype)
	m.Id = 0
	wire, err := m.Pack()
	if err != nil {
		return nil, err
	}
	return wire[2:], nil
}
