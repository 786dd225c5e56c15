package internal

import (
	"bytes"
	"sync"
)

// maxPooledBuffer is the largest capacity PutBuffer keeps. A rare huge
// query must not pin its buffer in the pool.
const maxPooledBuffer = 64 << 10

// bufferPool recycles the buffers queries are compiled into. bytes.Buffer
// copies on String, so a buffer can go back to the pool once read.
//
//	buf := internal.GetBuffer()
//	defer internal.PutBuffer(buf)
//	e.compile(buf)
var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// GetBuffer fetches an empty buffer.
func GetBuffer() *bytes.Buffer {
	b := bufferPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// PutBuffer returns b to the pool. The caller must not touch it afterwards.
func PutBuffer(b *bytes.Buffer) {
	if b.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(b)
}
