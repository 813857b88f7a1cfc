package encryption

import (
	"sync"
)

// bufferPools holds one sync.Pool of byte slices per requested size.
//
//nolint:gochecknoglobals
var bufferPools sync.Map

// getBuffer returns a slice of exactly size bytes from the pool for that size.
func getBuffer(size int) *[]byte {
	pool, _ := bufferPools.LoadOrStore(size, &sync.Pool{
		New: func() any {
			buf := make([]byte, size)

			return &buf
		},
	})

	buf, _ := pool.(*sync.Pool).Get().(*[]byte) //nolint:errcheck,forcetypeassert

	return buf
}

// putBuffer clears buf and hands it back to the pool for its length.
func putBuffer(buf *[]byte) {
	clearBytes(*buf)

	if pool, ok := bufferPools.Load(len(*buf)); ok {
		pool.(*sync.Pool).Put(buf) //nolint:forcetypeassert
	}
}
