package frame

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The reference request frame: 31 bytes on the wire, length field 29
// covering the identifier and the example.com/A question.
var refFrame = []byte{
	0x00, 0x1d, // size
	0xff, 0xff, // query ID
	0x01, 0x00, 0x00, 0x01, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x07, 0x65, 0x78, 0x61,
	0x6d, 0x70, 0x6c, 0x65, 0x03, 0x63, 0x6f, 0x6d,
	0x00, 0x00, 0x01, 0x00, 0x01,
}

func TestQueryDefaultPayload(t *testing.T) {
	payload, err := Query("example.com.", dns.TypeA)
	require.NoError(t, err)

	assert.Len(t, payload, 27)
	assert.Equal(t, refFrame[4:], payload)
}

func TestEncodeReferenceFrame(t *testing.T) {
	payload, err := Query("example.com.", dns.TypeA)
	require.NoError(t, err)

	b := Encode(0xffff, payload)
	assert.Equal(t, refFrame, b)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	for _, id := range []uint16{0, 1, 0x1234, 0x7fff, 0xffff} {
		d := new(Decoder)
		d.Feed(Encode(id, payload))

		m, ok := d.Next()
		require.True(t, ok, "id %d", id)
		assert.Equal(t, id, m.ID)
		assert.Equal(t, payload, m.Payload)
		assert.Equal(t, 0, d.Buffered())

		_, ok = d.Next()
		assert.False(t, ok)
	}
}

func TestDecodePartialDelivery(t *testing.T) {
	b := Encode(42, []byte("response data"))

	for k := 1; k < len(b); k++ {
		d := new(Decoder)
		d.Feed(b[:k])

		_, ok := d.Next()
		require.False(t, ok, "complete frame after %d of %d bytes", k, len(b))
		assert.Equal(t, k, d.Buffered())

		d.Feed(b[k:])
		m, ok := d.Next()
		require.True(t, ok)
		assert.Equal(t, uint16(42), m.ID)
		assert.Equal(t, []byte("response data"), m.Payload)
	}
}

func TestDecodeCoalescedFrames(t *testing.T) {
	first := Encode(1, []byte("first"))
	second := Encode(2, []byte("second"))

	d := new(Decoder)
	d.Feed(append(append([]byte{}, first...), second...))

	m, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, uint16(1), m.ID)
	assert.Equal(t, []byte("first"), m.Payload)

	m, ok = d.Next()
	require.True(t, ok)
	assert.Equal(t, uint16(2), m.ID)
	assert.Equal(t, []byte("second"), m.Payload)

	_, ok = d.Next()
	assert.False(t, ok)
}

func TestDecodeNeedsHeader(t *testing.T) {
	d := new(Decoder)
	d.Feed([]byte{0x00, 0x1d, 0xff})

	_, ok := d.Next()
	assert.False(t, ok)
	assert.Equal(t, 3, d.Buffered())
}

func TestDecodeInterleavedFeeds(t *testing.T) {
	frames := [][]byte{
		Encode(7, []byte("a")),
		Encode(8, []byte("bb")),
		Encode(9, []byte("ccc")),
	}
	var stream []byte
	for _, f := range frames {
		stream = append(stream, f...)
	}

	// Deliver the whole stream in 5-byte chunks and make sure every frame
	// comes out once, in order.
	d := new(Decoder)
	var got []Message
	for off := 0; off < len(stream); off += 5 {
		end := off + 5
		if end > len(stream) {
			end = len(stream)
		}
		d.Feed(stream[off:end])
		for {
			m, ok := d.Next()
			if !ok {
				break
			}
			got = append(got, m)
		}
	}

	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, uint16(7+i), m.ID)
	}
	assert.Equal(t, 0, d.Buffered())
}

func TestQueryOtherTypes(t *testing.T) {
	aaaa, err := Query("example.com", dns.TypeAAAA)
	require.NoError(t, err)
	// Same question section length, different qtype.
	assert.Len(t, aaaa, 27)
	assert.NotEqual(t, refFrame[4:], aaaa)

	longer, err := Query("a.much.longer.name.example.com.", dns.TypeTXT)
	require.NoError(t, err)
	assert.Greater(t, len(longer), 27)

	b := Encode(0, longer)
	assert.Len(t, b, len(longer)+HeaderLen)
}
