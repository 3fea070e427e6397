package mem

import (
	"unsafe"
)

const (
	wordSize       = uint64(unsafe.Sizeof(uintptr(0)))
	doubleWordSize = wordSize * 2

	// DefaultHeapSize is the address space reserved by the package-level heap.
	DefaultHeapSize = 2 * GB
)

// blockHeader sits immediately before every payload handed to a caller.
// size is the usable payload capacity in bytes, always the post-alignment
// padded size at carve time. next links free blocks and is meaningless
// while the block is allocated.
type blockHeader struct {
	size uint64
	next *blockHeader
}

var headerSize = SizeOf[blockHeader]()

// Heap is a first-fit, non-splitting, non-coalescing allocator over a
// single region of address space reserved lazily on first use. It is not
// safe for concurrent use. Freeing a pointer that did not come from the
// same Heap, or freeing it twice, corrupts the free list.
type Heap struct {
	reserveSize uint64
	start       uintptr
	end         uintptr
	frontier    uintptr
	freeHead    *blockHeader
	allocSize   uint64
}

func NewHeap(size uint64) *Heap {
	if size == 0 {
		size = DefaultHeapSize
	}
	return &Heap{reserveSize: size}
}

// init reserves the region on the first call and is a no-op afterwards.
// Reservation failure is unrecoverable.
func (h *Heap) init() {
	if h.start != 0 {
		return
	}
	p, err := reserve(h.reserveSize)
	if err != nil {
		Debug("heap: reserve ")
		DebugInt(int64(h.reserveSize))
		Debug(" bytes failed\n")
		panic(err)
	}
	h.start = p
	h.end = p + uintptr(h.reserveSize)
	h.frontier = p
}

func payloadOf(b *blockHeader) unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(b)) + uintptr(headerSize))
}

func headerOf(p unsafe.Pointer) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(uintptr(p) - uintptr(headerSize)))
}

func (h *Heap) Malloc(size uint64) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	h.init()
	var prev *blockHeader
	for b := h.freeHead; b != nil; b = b.next {
		if b.size >= size {
			if prev == nil {
				h.freeHead = b.next
			} else {
				prev.next = b.next
			}
			b.next = nil
			h.allocSize += headerSize + b.size
			return payloadOf(b)
		}
		prev = b
	}
	padded := size
	if excess := size % doubleWordSize; excess != 0 {
		padded += doubleWordSize - excess
	}
	total := padded + headerSize
	if uint64(h.end-h.frontier) < total {
		return nil
	}
	b := (*blockHeader)(unsafe.Pointer(h.frontier))
	b.size = padded
	b.next = nil
	h.frontier += uintptr(total)
	h.allocSize += total
	return payloadOf(b)
}

func (h *Heap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	b := headerOf(p)
	b.next = h.freeHead
	h.freeHead = b
	h.allocSize -= headerSize + b.size
}

func (h *Heap) Calloc(nmemb uint64, size uint64) unsafe.Pointer {
	p := h.Malloc(nmemb * size)
	if p == nil {
		return nil
	}
	MemClr(p, headerOf(p).size)
	return p
}

func (h *Heap) Realloc(p unsafe.Pointer, size uint64) unsafe.Pointer {
	if p == nil {
		return h.Malloc(size)
	}
	if size == 0 {
		h.Free(p)
		return nil
	}
	b := headerOf(p)
	if size <= b.size {
		h.allocSize -= b.size - size
		b.size = size
		return p
	}
	np := h.Malloc(size)
	if np == nil {
		return nil
	}
	MemCpy(np, p, b.size)
	h.Free(p)
	return np
}

func (h *Heap) GetAllocSize() uint64 {
	return h.allocSize
}

var defaultHeap = NewHeap(DefaultHeapSize)

func DefaultHeap() *Heap {
	return defaultHeap
}

func Malloc(size uint64) unsafe.Pointer {
	return defaultHeap.Malloc(size)
}

func Calloc(nmemb uint64, size uint64) unsafe.Pointer {
	return defaultHeap.Calloc(nmemb, size)
}

func Realloc(p unsafe.Pointer, size uint64) unsafe.Pointer {
	return defaultHeap.Realloc(p, size)
}

func Free(p unsafe.Pointer) {
	defaultHeap.Free(p)
}
