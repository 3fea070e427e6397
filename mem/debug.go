package mem

import (
	"io"
	"os"
	"unsafe"
)

// DebugWriter receives diagnostic output. Writes go through synchronously
// and never touch any Heap, so the sink stays usable in the middle of an
// in-progress allocation.
var DebugWriter io.Writer = os.Stderr

func Debug(msg string) {
	_, _ = DebugWriter.Write(unsafe.Slice(unsafe.StringData(msg), len(msg)))
}

// DebugInt writes value in decimal, rendered into a stack buffer.
func DebugInt(value int64) {
	var buf [20]byte
	i := len(buf)
	u := uint64(value)
	neg := value < 0
	if neg {
		u = -u
	}
	if u == 0 {
		i--
		buf[i] = '0'
	}
	for u != 0 {
		i--
		buf[i] = byte(u%10) + '0'
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	_, _ = DebugWriter.Write(buf[i:])
}
