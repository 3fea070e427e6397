package main

import (
	"encoding/binary"
	"os"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/fitmem/fitmem/hashmap"
	"github.com/fitmem/fitmem/list"
	"github.com/fitmem/fitmem/mem"
)

func main() {
	app := &cli.App{
		Name:  "fitmem",
		Usage: "exercise the first-fit heap allocator",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "heap-size",
				Value: 64 * mem.MB,
				Usage: "bytes of address space to reserve for the heap",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "log every malloc/free through the allocator",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug level logging",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if c.Bool("trace") {
		mem.DefaultLogWriter = os.Stderr
	}
	heap := mem.NewHeap(c.Uint64("heap-size"))

	firstFitScenario(heap)
	containerScenario(heap)
	ringScenario(heap)

	logrus.WithField("allocSize", heap.GetAllocSize()).Info("done")
	return nil
}

// firstFitScenario walks the allocator through carve, free and first-fit
// reuse: four live blocks, two frees, then a request that must land on one
// of the freed blocks instead of the frontier.
func firstFitScenario(heap *mem.Heap) {
	const size = 100
	x := mem.MallocType[int32](heap, size)
	if x == nil {
		logrus.Fatal("malloc failed")
	}
	for i := 0; i < size; i++ {
		*mem.OffsetType[int32](x, int64(i)) = int32(i * 2)
	}
	logrus.WithFields(logrus.Fields{
		"x":     x,
		"x[50]": *mem.OffsetType[int32](x, 50),
	}).Info("integer block")

	y := heap.Malloc(64)
	z := heap.Malloc(96)
	w := heap.Malloc(48)
	logrus.WithFields(logrus.Fields{"y": y, "z": z, "w": w}).Info("extra blocks")

	heap.Free(unsafe.Pointer(x))
	heap.Free(z)

	a := heap.Malloc(72)
	logrus.WithField("a", a).Info("after reuse")
	if a != unsafe.Pointer(x) && a != z {
		logrus.Fatal("expected first-fit reuse of a freed block")
	}
	heap.Free(y)
	heap.Free(w)
	heap.Free(a)
}

type key uint32

func (k key) GetHashCode() uint64 {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(k))
	return hashmap.GetHashCode(data)
}

func containerScenario(heap *mem.Heap) {
	arrayList := list.NewArrayList[uint64](heap)
	for i := 0; i < 100; i++ {
		arrayList.Add(uint64(i))
	}
	arrayList.Set(10, 666)
	logrus.WithFields(logrus.Fields{
		"len":      arrayList.Len(),
		"list[10]": arrayList.Get(10),
	}).Info("array list on heap")
	arrayList.Free()

	hashMap := hashmap.NewHashMap[key, uint64](heap)
	for i := 0; i < 100; i++ {
		hashMap.Set(key(i), uint64(i+10000))
	}
	for i := 90; i < 100; i++ {
		hashMap.Del(key(i))
	}
	v, ok := hashMap.Get(key(42))
	logrus.WithFields(logrus.Fields{
		"len":     hashMap.Len(),
		"map[42]": v,
		"ok":      ok,
	}).Info("hash map on heap")
	hashMap.Free()
}

func ringScenario(heap *mem.Heap) {
	rb := mem.NewRingBuffer(heap, 4*mem.KB)
	if rb == nil {
		logrus.Fatal("ring buffer creation failed")
	}
	msg := []byte("fitmem")
	if !rb.Write(msg) {
		logrus.Fatal("ring buffer write failed")
	}
	out := make([]byte, 64)
	n := rb.Read(out)
	logrus.WithField("msg", string(out[:n])).Info("ring buffer round trip")
	rb.Free()
}
