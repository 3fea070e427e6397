package hashmap

import (
	"encoding/json"
	"errors"

	"github.com/fitmem/fitmem/list"
	"github.com/fitmem/fitmem/mem"
)

const (
	initBucketSize = 8
	growBucketLoad = 0.75
)

type MapKey interface {
	comparable
	GetHashCode() uint64
}

// HashMap is a chained hash map whose buckets and entries are carved from a
// mem.Allocator. Entries are singly linked; removal re-links the
// predecessor the same way the allocator's free list does.
type HashMap[K MapKey, V any] struct {
	bucket *list.ArrayList[*entry[K, V]]
	load   int
	len    int
	alloc  mem.Allocator
}

type entry[K MapKey, V any] struct {
	key   K
	value V
	next  *entry[K, V]
}

func NewHashMap[K MapKey, V any](allocator mem.Allocator) *HashMap[K, V] {
	return NewHashMapWithCap[K, V](allocator, initBucketSize)
}

func NewHashMapWithCap[K MapKey, V any](allocator mem.Allocator, cap int) *HashMap[K, V] {
	if cap < initBucketSize {
		cap = initBucketSize
	}
	m := mem.MallocType[HashMap[K, V]](allocator, 1)
	if m == nil {
		return nil
	}
	m.bucket = list.NewArrayListWithCap[*entry[K, V]](allocator, cap)
	if m.bucket == nil {
		mem.FreeType[HashMap[K, V]](allocator, m)
		return nil
	}
	for i := 0; i < cap; i++ {
		m.bucket.Add(nil)
	}
	m.load = 0
	m.len = 0
	m.alloc = allocator
	return m
}

func (m *HashMap[K, V]) Get(key K) (V, bool) {
	i := key.GetHashCode() % uint64(m.bucket.Len())
	for e := m.bucket.Get(int(i)); e != nil; e = e.next {
		if e.key == key {
			return e.value, true
		}
	}
	var v V
	return v, false
}

func (m *HashMap[K, V]) Set(key K, value V) bool {
	ok := m.setInto(m.bucket, key, value)
	if !ok {
		return false
	}
	if float32(m.load)/float32(m.bucket.Len()) > growBucketLoad {
		m.grow()
	}
	return true
}

func (m *HashMap[K, V]) setInto(bucket *list.ArrayList[*entry[K, V]], key K, value V) bool {
	i := key.GetHashCode() % uint64(bucket.Len())
	head := bucket.Get(int(i))
	for e := head; e != nil; e = e.next {
		if e.key == key {
			e.value = value
			return true
		}
	}
	ne := mem.MallocType[entry[K, V]](m.alloc, 1)
	if ne == nil {
		return false
	}
	ne.key = key
	ne.value = value
	ne.next = head
	bucket.Set(int(i), ne)
	if head == nil {
		m.load++
	}
	m.len++
	return true
}

func (m *HashMap[K, V]) grow() {
	b := list.NewArrayListWithCap[*entry[K, V]](m.alloc, m.bucket.Len()*2)
	if b == nil {
		return
	}
	for i := 0; i < m.bucket.Len()*2; i++ {
		b.Add(nil)
	}
	oldBucket := m.bucket
	oldLoad := m.load
	oldLen := m.len
	m.load = 0
	m.len = 0
	fail := false
	oldBucket.For(func(index int, e *entry[K, V]) (next bool) {
		for ; e != nil; e = e.next {
			if !m.setInto(b, e.key, e.value) {
				fail = true
				return false
			}
		}
		return true
	})
	if fail {
		m.freeChains(b)
		b.Free()
		m.load = oldLoad
		m.len = oldLen
		return
	}
	m.freeChains(oldBucket)
	oldBucket.Free()
	m.bucket = b
}

func (m *HashMap[K, V]) Del(key K) {
	i := key.GetHashCode() % uint64(m.bucket.Len())
	var prev *entry[K, V]
	for e := m.bucket.Get(int(i)); e != nil; e = e.next {
		if e.key != key {
			prev = e
			continue
		}
		if prev == nil {
			m.bucket.Set(int(i), e.next)
			if e.next == nil {
				m.load--
			}
		} else {
			prev.next = e.next
		}
		mem.FreeType[entry[K, V]](m.alloc, e)
		m.len--
		return
	}
}

func (m *HashMap[K, V]) For(fn func(key K, value V) (next bool)) {
	m.bucket.For(func(index int, e *entry[K, V]) (next bool) {
		for {
			if e == nil {
				break
			}
			ne := e.next
			n := fn(e.key, e.value)
			if !n {
				return false
			}
			e = ne
		}
		return true
	})
}

func (m *HashMap[K, V]) Len() int {
	return m.len
}

func (m *HashMap[K, V]) freeChains(bucket *list.ArrayList[*entry[K, V]]) {
	bucket.For(func(index int, e *entry[K, V]) (next bool) {
		for {
			if e == nil {
				break
			}
			ee := e
			e = e.next
			mem.FreeType[entry[K, V]](m.alloc, ee)
		}
		return true
	})
}

func (m *HashMap[K, V]) Clear() {
	m.freeChains(m.bucket)
	for i := 0; i < m.bucket.Len(); i++ {
		m.bucket.Set(i, nil)
	}
	m.load = 0
	m.len = 0
}

func (m *HashMap[K, V]) Free() {
	m.Clear()
	m.bucket.Free()
	mem.FreeType[HashMap[K, V]](m.alloc, m)
}

func (m *HashMap[K, V]) MarshalJSON() ([]byte, error) {
	mm := make(map[K]V)
	m.For(func(key K, value V) (next bool) {
		mm[key] = value
		return true
	})
	data, err := json.Marshal(mm)
	return data, err
}

func (m *HashMap[K, V]) UnmarshalJSON(data []byte) error {
	mm := make(map[K]V)
	err := json.Unmarshal(data, &mm)
	if err != nil {
		return err
	}
	for k, v := range mm {
		ok := m.Set(k, v)
		if !ok {
			return errors.New("overflow")
		}
	}
	return nil
}

func GetHashCode(data []byte) uint64 {
	hashCode := uint64(0)
	for _, v := range data {
		hashCode = uint64(v) + 131*hashCode
	}
	return hashCode
}
