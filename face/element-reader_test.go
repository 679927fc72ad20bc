package face

import (
	"testing"

	"github.com/named-data/mnfd/core"
	"github.com/stretchr/testify/assert"
)

func TestElementReaderWholeElement(t *testing.T) {
	reader := newElementReader()
	defer reader.release()

	element := []byte{0x05, 0x03, 0x01, 0x02, 0x03}
	received := make([][]byte, 0)
	err := reader.consume(element, func(e []byte) {
		out := make([]byte, len(e))
		copy(out, e)
		received = append(received, out)
	})
	assert.NoError(t, err)
	assert.Len(t, received, 1)
	assert.Equal(t, element, received[0])
}

func TestElementReaderPartialElements(t *testing.T) {
	reader := newElementReader()
	defer reader.release()

	element := []byte{0x06, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}
	received := 0
	onElement := func(e []byte) {
		assert.Equal(t, element, e)
		received++
	}

	// One byte at a time: no element until the last byte arrives
	for i := 0; i < len(element)-1; i++ {
		assert.NoError(t, reader.consume(element[i:i+1], onElement))
		assert.Equal(t, 0, received)
	}
	assert.NoError(t, reader.consume(element[len(element)-1:], onElement))
	assert.Equal(t, 1, received)
}

func TestElementReaderCoalescedElements(t *testing.T) {
	reader := newElementReader()
	defer reader.release()

	buffer := []byte{
		0x05, 0x02, 0x01, 0x02, // first element
		0x06, 0x01, 0xFF, // second element
	}
	received := make([][]byte, 0)
	err := reader.consume(buffer, func(e []byte) {
		out := make([]byte, len(e))
		copy(out, e)
		received = append(received, out)
	})
	assert.NoError(t, err)
	assert.Len(t, received, 2)
	assert.Equal(t, []byte{0x05, 0x02, 0x01, 0x02}, received[0])
	assert.Equal(t, []byte{0x06, 0x01, 0xFF}, received[1])
}

func TestElementReaderOversizeElement(t *testing.T) {
	reader := newElementReader()
	defer reader.release()

	// An element longer than the maximum packet size is rejected
	header := []byte{0x05, 0xFD, 0xFF, 0xFF}
	err := reader.consume(header, func(e []byte) {
		t.Fatal("no element should be delivered")
	})
	assert.Error(t, err)

	// The reader remains usable afterwards
	element := []byte{0x05, 0x01, 0x00}
	received := 0
	assert.NoError(t, reader.consume(element, func(e []byte) { received++ }))
	assert.Equal(t, 1, received)
}

func TestElementReaderLargeElement(t *testing.T) {
	reader := newElementReader()
	defer reader.release()

	// Maximum-size payload split into chunks
	payload := make([]byte, core.MaxNDNPacketSize-4)
	for i := range payload {
		payload[i] = byte(i)
	}
	element := append([]byte{0x06, 0xFD, byte(len(payload) >> 8), byte(len(payload))}, payload...)

	received := 0
	chunkSize := 1000
	for off := 0; off < len(element); off += chunkSize {
		end := off + chunkSize
		if end > len(element) {
			end = len(element)
		}
		assert.NoError(t, reader.consume(element[off:end], func(e []byte) {
			assert.Equal(t, len(element), len(e))
			received++
		}))
	}
	assert.Equal(t, 1, received)
}
