package list

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitmem/fitmem/mem"
)

func TestArrayList(t *testing.T) {
	heap := mem.NewHeap(1 * mem.MB)
	arrayList := NewArrayList[uint64](heap)
	require.NotNil(t, arrayList)
	for i := 0; i < 100; i++ {
		require.True(t, arrayList.Add(uint64(i)))
	}
	arrayList.Set(10, 666)
	require.Equal(t, 100, arrayList.Len())
	arrayList.For(func(index int, value uint64) (next bool) {
		if index == 10 {
			require.Equal(t, uint64(666), value)
		} else {
			require.Equal(t, uint64(index), value)
		}
		return true
	})
	arrayList.Free()
}

func TestArrayListGrowPreservesValues(t *testing.T) {
	heap := mem.NewHeap(1 * mem.MB)
	arrayList := NewArrayListWithCap[uint32](heap, 8)
	require.NotNil(t, arrayList)

	// Push well past the initial capacity so the backing block is
	// reallocated several times.
	for i := 0; i < 1000; i++ {
		require.True(t, arrayList.Add(uint32(i*3)))
	}
	for i := 0; i < 1000; i++ {
		require.Equal(t, uint32(i*3), arrayList.Get(i))
	}
	arrayList.Free()
}

func TestArrayListJSON(t *testing.T) {
	heap := mem.NewHeap(1 * mem.MB)
	arrayList := NewArrayList[uint64](heap)
	for i := 0; i < 4; i++ {
		arrayList.Add(uint64(i))
	}
	data, err := json.Marshal(arrayList)
	require.NoError(t, err)
	require.JSONEq(t, "[0,1,2,3]", string(data))

	decoded := NewArrayList[uint64](heap)
	require.NoError(t, json.Unmarshal(data, decoded))
	require.Equal(t, 4, decoded.Len())
	require.Equal(t, uint64(2), decoded.Get(2))
	decoded.Free()
	arrayList.Free()
}
