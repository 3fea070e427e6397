package mem

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingBufferRoundTrip(t *testing.T) {
	heap := NewHeap(1 * MB)
	rb := NewRingBuffer(heap, 4*KB)
	require.NotNil(t, rb)

	data := make([]byte, 16)
	out := make([]byte, 16)
	for seq := uint64(1); seq <= 10000; seq++ {
		binary.BigEndian.PutUint64(data[0:8], seq)
		for i := 8; i <= 15; i++ {
			data[i] = 0xFF
		}
		ok := rb.Write(data)
		require.True(t, ok)

		n := rb.Read(out)
		require.Equal(t, uint16(16), n)
		require.Equal(t, seq, binary.BigEndian.Uint64(out[0:8]))
		require.Equal(t, uint8(0xFF), out[15])
	}

	rb.Free()
}

func TestRingBufferRejectsBadSize(t *testing.T) {
	heap := NewHeap(1 * MB)
	require.Nil(t, NewRingBuffer(heap, 0))
	require.Nil(t, NewRingBuffer(heap, 1000))
}

func TestRingBufferFillAndDrain(t *testing.T) {
	heap := NewHeap(1 * MB)
	rb := NewRingBuffer(heap, 64)
	require.NotNil(t, rb)

	msg := []byte("0123456789")
	wrote := 0
	for rb.Write(msg) {
		wrote++
	}
	require.Greater(t, wrote, 0)

	out := make([]byte, 16)
	read := 0
	for rb.Read(out) != 0 {
		require.Equal(t, "0123456789", string(out[:10]))
		read++
	}
	require.Equal(t, wrote, read)

	// Drained ring accepts writes again.
	require.True(t, rb.Write(msg))
	rb.Free()
}

func TestRingBufferStorageComesFromHeap(t *testing.T) {
	heap := NewHeap(1 * MB)
	before := heap.GetAllocSize()
	rb := NewRingBuffer(heap, 4*KB)
	require.NotNil(t, rb)
	require.Greater(t, heap.GetAllocSize(), before)

	rb.Free()
	require.Equal(t, before, heap.GetAllocSize())
}
