package mem

import (
	"sync/atomic"
	"unsafe"
)

// RingBuffer is a fixed-capacity single-producer single-consumer record
// ring. Both the control block and the storage are carved from an
// Allocator; records carry a 2-byte length prefix and are padded to 4-byte
// boundaries.
type RingBuffer struct {
	head   uint64
	_      [56]byte
	tail   uint64
	size   uint32
	mask   uint32
	buffer unsafe.Pointer
	alloc  Allocator
	_      [24]byte
}

// NewRingBuffer carves a ring of size bytes from allocator. size must be a
// power of two.
func NewRingBuffer(allocator Allocator, size uint32) *RingBuffer {
	if size == 0 || (size&(size-1)) != 0 {
		return nil
	}
	rb := MallocType[RingBuffer](allocator, 1)
	if rb == nil {
		return nil
	}
	buffer := allocator.Malloc(uint64(size))
	if buffer == nil {
		FreeType[RingBuffer](allocator, rb)
		return nil
	}
	rb.head = 0
	rb.tail = 0
	rb.size = size
	rb.mask = size - 1
	rb.buffer = buffer
	rb.alloc = allocator
	return rb
}

// Free returns the ring's storage and control block to the allocator.
func (rb *RingBuffer) Free() {
	alloc := rb.alloc
	alloc.Free(rb.buffer)
	rb.buffer = nil
	rb.alloc = nil
	FreeType[RingBuffer](alloc, rb)
}

func (rb *RingBuffer) freeSpace() uint32 {
	head := atomic.LoadUint64(&rb.head)
	tail := atomic.LoadUint64(&rb.tail)
	return rb.size - uint32(head-tail)
}

func (rb *RingBuffer) usedSpace() uint32 {
	head := atomic.LoadUint64(&rb.head)
	tail := atomic.LoadUint64(&rb.tail)
	return uint32(head - tail)
}

func (rb *RingBuffer) Write(data []uint8) bool {
	length := uint16(len(data))
	if length == 0 || uint32(length) > rb.size/2 {
		return false
	}

	totalSize := uint32(2 + length)
	totalSize = (totalSize + 3) & ^uint32(3)

	if rb.freeSpace() < totalSize {
		return false
	}

	head := atomic.LoadUint64(&rb.head)
	pos := uint32(head & uint64(rb.mask))

	*(*uint16)(Offset(rb.buffer, int64(pos))) = length

	dataPos := (pos + 2) & rb.mask
	spaceAfter := rb.size - dataPos

	if spaceAfter >= uint32(length) {
		MemCpy(Offset(rb.buffer, int64(dataPos)), unsafe.Pointer(&data[0]), uint64(length))
	} else {
		MemCpy(Offset(rb.buffer, int64(dataPos)), unsafe.Pointer(&data[0]), uint64(spaceAfter))
		MemCpy(rb.buffer, Offset(unsafe.Pointer(&data[0]), int64(spaceAfter)), uint64(uint32(length)-spaceAfter))
	}

	atomic.StoreUint64(&rb.head, head+uint64(totalSize))

	return true
}

func (rb *RingBuffer) Read(data []uint8) uint16 {
	if rb.usedSpace() < 2 {
		return 0
	}

	tail := atomic.LoadUint64(&rb.tail)
	pos := uint32(tail & uint64(rb.mask))

	packetLen := *(*uint16)(Offset(rb.buffer, int64(pos)))

	if packetLen == 0 || uint32(packetLen) > rb.size/2 || int(packetLen) > len(data) {
		return 0
	}

	totalSize := uint32(2 + packetLen)
	totalSize = (totalSize + 3) & ^uint32(3)

	if rb.usedSpace() < totalSize {
		return 0
	}

	dataPos := (pos + 2) & rb.mask
	spaceAfter := rb.size - dataPos

	if spaceAfter >= uint32(packetLen) {
		MemCpy(unsafe.Pointer(&data[0]), Offset(rb.buffer, int64(dataPos)), uint64(packetLen))
	} else {
		MemCpy(unsafe.Pointer(&data[0]), Offset(rb.buffer, int64(dataPos)), uint64(spaceAfter))
		MemCpy(Offset(unsafe.Pointer(&data[0]), int64(spaceAfter)), rb.buffer, uint64(uint32(packetLen)-spaceAfter))
	}

	atomic.StoreUint64(&rb.tail, tail+uint64(totalSize))

	return packetLen
}
