package pools

import (
	"bytes"
	"sync"
	"testing"
)

func TestBytePool_Get(t *testing.T) {
	pool := NewBytePool()

	tests := []struct {
		name string
		size int
	}{
		{"removal entry", 10},
		{"tiny_exact", TinySize},
		{"header entry", 40},
		{"medium", 128},
		{"large", 512},
		{"huge", 2048},
		{"oversized", 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := pool.Get(tt.size)
			if len(b) != 0 {
				t.Errorf("Get(%d) length = %d, want 0", tt.size, len(b))
			}
			if cap(b) < tt.size {
				t.Errorf("Get(%d) capacity = %d, want >= %d", tt.size, cap(b), tt.size)
			}
		})
	}
}

func TestBytePool_GetSized(t *testing.T) {
	pool := NewBytePool()

	b := pool.GetSized(100)
	if len(b) != 100 {
		t.Errorf("GetSized(100) length = %d, want 100", len(b))
	}
}

func TestBytePool_PutAndReuse(t *testing.T) {
	pool := NewBytePool()

	for i := 0; i < 10; i++ {
		b := pool.Get(SmallSize)
		b = append(b, "removal"...)
		pool.Put(b)
	}

	b := pool.Get(SmallSize)
	if len(b) != 0 {
		t.Errorf("reused buffer length = %d, want 0", len(b))
	}
}

func TestBytePool_OversizedNotPooled(t *testing.T) {
	pool := NewBytePool()
	pool.Put(make([]byte, 0, MaxPool+1))

	if b := pool.Get(HugeSize); cap(b) > MaxPool {
		t.Errorf("oversized buffer came back from the pool: cap %d", cap(b))
	}
}

func TestBufferBuilder_Frame(t *testing.T) {
	payload := []byte{0x2a, 0x07}

	b := NewBufferBuilder(len(payload) + 9)
	defer b.Release()
	b.WriteByte(2)
	b.WriteUint32BE(uint32(len(payload)))
	b.Write(payload)
	b.WriteUint32BE(0xDEADBEEF)

	want := []byte{2, 0, 0, 0, 2, 0x2a, 0x07, 0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(b.Bytes(), want) {
		t.Errorf("frame = % x, want % x", b.Bytes(), want)
	}
	if b.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", b.Len(), len(want))
	}
}

func TestBufferBuilder_ReleaseTwice(t *testing.T) {
	b := NewBufferBuilder(TinySize)
	b.WriteByte(1)
	b.Release()
	b.Release()
	if b.Bytes() != nil {
		t.Error("released builder still holds a buffer")
	}
}

func TestBytePool_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				b := NewBufferBuilder(TinySize)
				b.WriteUint32BE(uint32(i))
				if b.Len() != 4 {
					t.Errorf("Len() = %d, want 4", b.Len())
				}
				b.Release()
			}
		}()
	}
	wg.Wait()
}

func BenchmarkBufferBuilder(b *testing.B) {
	payload := []byte{1, 2, 3}
	for i := 0; i < b.N; i++ {
		bb := NewBufferBuilder(16)
		bb.WriteByte(2)
		bb.WriteUint32BE(3)
		bb.Write(payload)
		bb.WriteUint32BE(42)
		bb.Release()
	}
}

func TestBytePool_PutClassifiesByCapacity(t *testing.T) {
	pool := NewBytePool()
	pool.Put(make([]byte, 0, 100)) // serves the small class, not medium

	if b := pool.Get(MediumSize); cap(b) < MediumSize {
		t.Errorf("Get(%d) capacity = %d", MediumSize, cap(b))
	}
	if b := pool.Get(SmallSize); cap(b) < SmallSize {
		t.Errorf("Get(%d) capacity = %d", SmallSize, cap(b))
	}
}
