package pools

import (
	"sync"
)

// Buffer size classes. A removal entry fits the tiny class; headers carry
// the policy prefix and land in small.
const (
	TinySize   = 16
	SmallSize  = 64
	MediumSize = 256
	LargeSize  = 1024
	HugeSize   = 4096
	MaxPool    = 65536 // larger buffers are never pooled
)

var classSizes = [...]int{TinySize, SmallSize, MediumSize, LargeSize, HugeSize}

// BytePool pools byte slices by size class.
type BytePool struct {
	classes [len(classSizes)]sync.Pool
}

// NewBytePool creates an empty byte pool.
func NewBytePool() *BytePool {
	p := &BytePool{}
	for i, size := range classSizes {
		p.classes[i].New = func() any {
			b := make([]byte, 0, size)
			return &b
		}
	}
	return p
}

// class returns the smallest class holding size bytes, or -1.
func class(size int) int {
	for i, c := range classSizes {
		if size <= c {
			return i
		}
	}
	return -1
}

// Get returns an empty slice with capacity for at least size bytes.
func (p *BytePool) Get(size int) []byte {
	i := class(size)
	if i < 0 {
		return make([]byte, 0, size)
	}
	bp, ok := p.classes[i].Get().(*[]byte)
	if !ok || cap(*bp) < size {
		return make([]byte, 0, size)
	}
	return (*bp)[:0]
}

// GetSized returns a slice of exactly size bytes.
func (p *BytePool) GetSized(size int) []byte {
	return p.Get(size)[:size]
}

// Put recycles b into the largest class its capacity fully serves.
func (p *BytePool) Put(b []byte) {
	c := cap(b)
	if c > MaxPool || c < TinySize {
		return
	}
	i := len(classSizes) - 1
	for i > 0 && classSizes[i] > c {
		i--
	}
	b = b[:0]
	p.classes[i].Put(&b)
}

var defaultBytePool = NewBytePool()

// GetBytes returns a byte slice from the default pool.
func GetBytes(size int) []byte {
	return defaultBytePool.Get(size)
}

// GetBytesSized returns a byte slice with exact length from the default pool.
func GetBytesSized(size int) []byte {
	return defaultBytePool.GetSized(size)
}

// PutBytes returns a byte slice to the default pool.
func PutBytes(b []byte) {
	defaultBytePool.Put(b)
}
